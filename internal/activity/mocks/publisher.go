package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/activity"
)

// Publisher records published events for testing
type Publisher struct {
	mu     sync.Mutex
	Events []activity.Event
	Keys   []string
	Err    error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if e, ok := event.(activity.Event); ok {
		p.Events = append(p.Events, e)
	}
	p.Keys = append(p.Keys, key)
	return nil
}

// OfType returns the recorded events of the given type
func (p *Publisher) OfType(eventType string) []activity.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []activity.Event
	for _, e := range p.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

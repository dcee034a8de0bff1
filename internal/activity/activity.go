// Package activity defines the storefront activity stream: events emitted
// by checkout for services that react to orders and stock reconciliation.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/domain/order"
)

const (
	TypeOrderPlaced          = "OrderPlaced"
	TypeStockDecremented     = "StockDecremented"
	TypeStockDecrementFailed = "StockDecrementFailed"
)

// Event is the envelope written to the activity topic.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"event_type"`
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewEvent(eventType, key string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Key:        key,
		Data:       raw,
		OccurredAt: time.Now(),
	}, nil
}

// Decode unmarshals the payload of e into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

type OrderPlaced struct {
	OrderID  string           `json:"order_id"`
	UserID   string           `json:"user_id"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Items    []order.LineItem `json:"items"`
	Total    decimal.Decimal  `json:"total"`
	BuyNow   bool             `json:"buy_now"`
	PlacedAt time.Time        `json:"placed_at"`
}

type StockDecremented struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
}

// StockDecrementFailed reports an order line whose stock was not
// decremented. The order stands; stock needs manual reconciliation.
type StockDecrementFailed struct {
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

// Publisher writes events keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type nop struct{}

func (nop) Publish(context.Context, string, any) error { return nil }

// Nop drops every event.
var Nop Publisher = nop{}

// Emit wraps data in an Event and publishes it under key.
func Emit(ctx context.Context, p Publisher, eventType, key string, data any) error {
	event, err := NewEvent(eventType, key, data)
	if err != nil {
		return err
	}
	return p.Publish(ctx, key, event)
}

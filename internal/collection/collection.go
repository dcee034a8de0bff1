// Package collection implements an identity-scoped list of entries that is
// mutated optimistically: a change is applied locally first, persisted by a
// Syncer in the background, and rolled back to its snapshot when the remote
// call fails.
package collection

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/notify"
)

// Messages are the user-visible texts raised for one action.
type Messages struct {
	Success string
	Failure string
}

// Options configures a Collection. Nil Notifier and Logger discard.
type Options[E Entry] struct {
	// Name is used in log lines and as the notification topic.
	Name     string
	Loader   Loader[E]
	Syncer   Syncer[E]
	Notifier notify.Notifier
	Logger   *log.Logger
	Messages map[Action]Messages
	// Anonymous is raised when a mutation is attempted without identity.
	Anonymous string
	// Conflict is raised when the server corrected entries.
	Conflict string
}

// Collection holds the client-side view of one collection for one identity.
//
// Every state transition happens under mu, so concurrent callers observe
// them in a single order. Remote calls run outside the lock and are never
// cancelled by newer mutations; each mutation rolls back to its own
// snapshot, which can discard the effect of a later mutation that applied
// while the failing call was in flight.
type Collection[E Entry] struct {
	name      string
	loader    Loader[E]
	syncer    Syncer[E]
	notifier  notify.Notifier
	logger    *log.Logger
	messages  map[Action]Messages
	anonymous string
	conflict  string

	mu         sync.Mutex
	owner      *auth.Identity
	entries    []E
	loadErr    error
	generation uint64

	inflight sync.WaitGroup
}

// New returns an empty collection with no identity; call Load to fill it.
func New[E Entry](opts Options[E]) *Collection[E] {
	c := &Collection[E]{
		name:      opts.Name,
		loader:    opts.Loader,
		syncer:    opts.Syncer,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		messages:  opts.Messages,
		anonymous: opts.Anonymous,
		conflict:  opts.Conflict,
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.anonymous == "" {
		c.anonymous = "Please log in to continue."
	}
	if c.conflict == "" {
		c.conflict = "Some quantities were adjusted to the available stock."
	}
	return c
}

// Load replaces the collection with the remote state for id. A nil id
// clears the collection without a remote call. On failure the collection
// stays empty and the error is kept in LoadErr.
func (c *Collection[E]) Load(ctx context.Context, id *auth.Identity) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.owner = id
	c.entries = nil
	c.loadErr = nil
	c.mu.Unlock()

	if id == nil || c.loader == nil {
		return nil
	}

	entries, err := c.loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrStale
	}
	if err != nil {
		c.loadErr = err
		c.logger.Printf("[%s] load failed for user %s: %v", c.name, id.UserID, err)
		return err
	}
	c.entries = entries
	return nil
}

// Reset forgets the identity and every entry without touching the remote
// side. Results of mutations still in flight are discarded.
func (c *Collection[E]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.owner = nil
	c.entries = nil
	c.loadErr = nil
}

// Entries returns a copy of the current entries in order.
func (c *Collection[E]) Entries() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.entries)
}

// Get returns the entry with key.
func (c *Collection[E]) Get(key string) (E, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.entries, key); i >= 0 {
		return c.entries[i], true
	}
	var zero E
	return zero, false
}

func (c *Collection[E]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Identity returns the identity the collection is scoped to, nil when
// anonymous.
func (c *Collection[E]) Identity() *auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// LoadErr returns the error of the last Load, if it failed.
func (c *Collection[E]) LoadErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Wait blocks until every remote call started so far has settled.
func (c *Collection[E]) Wait() {
	c.inflight.Wait()
}

// Mutate applies fn to a copy of the current entries and publishes the
// result immediately, then persists it in the background. fn may return
// ErrNoChange to leave the collection untouched; any other error rejects
// the mutation before a remote call is made.
//
// The returned Pending resolves when the remote call settled. The error
// return is only used for rejections.
func (c *Collection[E]) Mutate(ctx context.Context, action Action, key string, fn func(current []E) ([]E, error)) (*Pending, error) {
	c.mu.Lock()
	if c.owner == nil {
		c.mu.Unlock()
		c.reject(action, key, ErrAnonymous)
		return nil, ErrAnonymous
	}

	before := clone(c.entries)
	next, err := fn(clone(c.entries))
	if errors.Is(err, ErrNoChange) {
		c.mu.Unlock()
		return resolvedPending(nil), nil
	}
	if err != nil {
		c.mu.Unlock()
		c.reject(action, key, err)
		return nil, err
	}

	change := Change[E]{
		Action:  action,
		Key:     key,
		Before:  before,
		Desired: clone(next),
	}
	if key != "" {
		if i := indexOf(before, key); i >= 0 {
			prev := before[i]
			change.Previous = &prev
		}
		if i := indexOf(next, key); i >= 0 {
			cur := next[i]
			change.Entry = &cur
		}
	}

	c.entries = next
	gen := c.generation
	p := newPending()
	c.inflight.Add(1)
	c.mu.Unlock()

	go c.sync(context.WithoutCancel(ctx), gen, before, change, p)
	return p, nil
}

func (c *Collection[E]) sync(ctx context.Context, gen uint64, snapshot []E, change Change[E], p *Pending) {
	defer c.inflight.Done()

	server, err := c.syncer.Sync(ctx, change)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		p.resolve(ErrStale)
		return
	}

	var conflict *ConflictError[E]
	switch {
	case err == nil:
		if len(server) > 0 {
			c.entries = merge(c.entries, server, nil)
		}
		c.mu.Unlock()
		c.raise(notify.LevelSuccess, change.Action, c.message(change.Action).Success, nil)
		p.resolve(nil)

	case errors.As(err, &conflict):
		c.entries = merge(c.entries, conflict.Corrected, conflict.Removed)
		c.mu.Unlock()
		c.logger.Printf("[%s] %s %s corrected by server: %v", c.name, change.Action, change.Key, err)
		c.raise(notify.LevelWarning, change.Action, c.conflict, err)
		p.resolve(conflict)

	default:
		c.entries = snapshot
		c.mu.Unlock()
		c.logger.Printf("[%s] %s %s failed, rolled back: %v", c.name, change.Action, change.Key, err)
		syncErr := &SyncError{Action: change.Action, Key: change.Key, Err: err}
		c.raise(notify.LevelFailure, change.Action, c.message(change.Action).Failure, syncErr)
		p.resolve(syncErr)
	}
}

func (c *Collection[E]) reject(action Action, key string, err error) {
	msg := c.message(action).Failure
	switch {
	case errors.Is(err, ErrAnonymous):
		msg = c.anonymous
	case errors.Is(err, ErrStockExceeded):
		msg = "Not enough stock: " + err.Error()
	}
	c.logger.Printf("[%s] %s %s rejected: %v", c.name, action, key, err)
	c.raise(notify.LevelFailure, action, msg, err)
}

func (c *Collection[E]) raise(level notify.Level, action Action, msg string, err error) {
	c.notifier.Notify(notify.Notification{
		Level:   level,
		Topic:   c.name,
		Action:  string(action),
		Message: msg,
		Err:     err,
	})
}

func (c *Collection[E]) message(action Action) Messages {
	if m, ok := c.messages[action]; ok {
		return m
	}
	return Messages{
		Success: c.name + " updated",
		Failure: "Failed to " + string(action) + " " + c.name,
	}
}

func clone[E any](in []E) []E {
	if in == nil {
		return nil
	}
	out := make([]E, len(in))
	copy(out, in)
	return out
}

func indexOf[E Entry](entries []E, key string) int {
	for i, e := range entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

// merge replaces entries whose key appears in updates and drops removed
// keys. Updates for keys no longer present are ignored: a later local
// mutation removed them.
func merge[E Entry](entries []E, updates []E, removed []string) []E {
	out := clone(entries)
	for _, u := range updates {
		if i := indexOf(out, u.Key()); i >= 0 {
			out[i] = u
		}
	}
	for _, key := range removed {
		if i := indexOf(out, key); i >= 0 {
			out = append(out[:i], out[i+1:]...)
		}
	}
	return out
}

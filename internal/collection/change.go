package collection

import "context"

// Entry is one line of an identity-scoped collection. Keys are unique within
// a collection.
type Entry interface {
	Key() string
}

// Quantified entries carry a positive quantity that Upsert and SetQuantity
// manipulate.
type Quantified[E any] interface {
	Entry
	Quantity() int
	WithQuantity(n int) E
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionClear  Action = "clear"
	ActionStatus Action = "status"
)

// Change describes one optimistic mutation handed to the Syncer.
type Change[E Entry] struct {
	Action   Action
	Key      string
	Entry    *E  // state of the keyed entry after the mutation, nil when it was removed
	Previous *E  // state of the keyed entry before the mutation, nil when it was absent
	Before   []E // whole collection before the mutation
	Desired  []E // whole collection after the mutation
}

// Syncer persists a Change remotely.
//
// A nil error accepts the desired state; returned entries, if any, are the
// server's view of the touched entries and replace local entries with the
// same key. A *ConflictError[E] is a partial success whose corrections are
// adopted. Any other error rolls the collection back.
type Syncer[E Entry] interface {
	Sync(ctx context.Context, change Change[E]) ([]E, error)
}

// SyncFunc adapts a function to Syncer.
type SyncFunc[E Entry] func(ctx context.Context, change Change[E]) ([]E, error)

func (f SyncFunc[E]) Sync(ctx context.Context, change Change[E]) ([]E, error) {
	return f(ctx, change)
}

// Loader fetches the current remote state of a collection for the identity
// the underlying client is authenticated as.
type Loader[E Entry] interface {
	Load(ctx context.Context) ([]E, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[E Entry] func(ctx context.Context) ([]E, error)

func (f LoaderFunc[E]) Load(ctx context.Context) ([]E, error) {
	return f(ctx)
}

package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/collection"
)

type listOnlyRemote struct {
	Remote
	server  []Entry
	removed []string
	updated map[string]int
}

func (r *listOnlyRemote) ListCart(context.Context) ([]Entry, error) { return r.server, nil }

func (r *listOnlyRemote) RemoveCartItem(_ context.Context, itemID string) error {
	r.removed = append(r.removed, itemID)
	return nil
}

func (r *listOnlyRemote) UpdateCartItem(_ context.Context, itemID string, qty int) (*Entry, error) {
	if r.updated == nil {
		r.updated = map[string]int{}
	}
	r.updated[itemID] = qty
	return &Entry{ItemID: itemID, ProductID: "A", Qty: qty}, nil
}

func TestSyncer_RemoveResolvesTempID(t *testing.T) {
	remote := &listOnlyRemote{server: []Entry{{ItemID: "item-9", ProductID: "A", Qty: 1}}}
	s := &syncer{remote: remote}

	_, err := s.Sync(context.Background(), collection.Change[Entry]{
		Action:   collection.ActionRemove,
		Key:      "A",
		Previous: &Entry{ItemID: collection.TempID(), ProductID: "A", Qty: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"item-9"}, remote.removed)
}

func TestSyncer_RemoveMissingOnServerSucceeds(t *testing.T) {
	remote := &listOnlyRemote{}
	s := &syncer{remote: remote}

	_, err := s.Sync(context.Background(), collection.Change[Entry]{
		Action:   collection.ActionRemove,
		Key:      "A",
		Previous: &Entry{ItemID: collection.TempID(), ProductID: "A", Qty: 1},
	})

	require.NoError(t, err)
	assert.Empty(t, remote.removed)
}

func TestSyncer_UpdateResolvesTempID(t *testing.T) {
	remote := &listOnlyRemote{server: []Entry{{ItemID: "item-3", ProductID: "A", Qty: 1}}}
	s := &syncer{remote: remote}

	echoed, err := s.Sync(context.Background(), collection.Change[Entry]{
		Action:   collection.ActionUpdate,
		Key:      "A",
		Previous: &Entry{ItemID: collection.TempID(), ProductID: "A", Name: "Lamp", Qty: 1},
		Entry:    &Entry{ItemID: collection.TempID(), ProductID: "A", Name: "Lamp", Qty: 4},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"item-3": 4}, remote.updated)
	require.Len(t, echoed, 1)
	assert.Equal(t, "item-3", echoed[0].ItemID)
	assert.Equal(t, "Lamp", echoed[0].Name)
}

func TestSyncer_UnsupportedAction(t *testing.T) {
	s := &syncer{remote: &listOnlyRemote{}}

	_, err := s.Sync(context.Background(), collection.Change[Entry]{Action: collection.ActionStatus})

	assert.ErrorContains(t, err, "unsupported action")
}

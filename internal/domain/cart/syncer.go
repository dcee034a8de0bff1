package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/storefront/internal/collection"
)

type syncer struct {
	remote Remote
	logger *log.Logger
}

func (s *syncer) Sync(ctx context.Context, ch collection.Change[Entry]) ([]Entry, error) {
	switch ch.Action {
	case collection.ActionAdd:
		return s.add(ctx, ch)
	case collection.ActionUpdate:
		return s.update(ctx, ch)
	case collection.ActionRemove:
		return nil, s.remove(ctx, ch)
	case collection.ActionClear:
		return nil, s.remote.ClearCart(ctx)
	default:
		return nil, fmt.Errorf("cart: unsupported action %q", ch.Action)
	}
}

func (s *syncer) add(ctx context.Context, ch collection.Change[Entry]) ([]Entry, error) {
	delta := ch.Entry.Qty
	if ch.Previous != nil {
		delta -= ch.Previous.Qty
	}
	item, err := s.remote.AddCartItem(ctx, ch.Key, delta)
	if err != nil {
		return nil, conflictOrErr(ch, err)
	}
	return []Entry{echo(*ch.Entry, item)}, nil
}

func (s *syncer) update(ctx context.Context, ch collection.Change[Entry]) ([]Entry, error) {
	itemID, err := s.itemID(ctx, *ch.Previous)
	if err != nil {
		return nil, err
	}
	item, err := s.remote.UpdateCartItem(ctx, itemID, ch.Entry.Qty)
	if err != nil {
		return nil, conflictOrErr(ch, err)
	}
	return []Entry{echo(*ch.Entry, item)}, nil
}

func (s *syncer) remove(ctx context.Context, ch collection.Change[Entry]) error {
	itemID, err := s.itemID(ctx, *ch.Previous)
	if errors.Is(err, errNotOnServer) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.remote.RemoveCartItem(ctx, itemID)
}

var errNotOnServer = errors.New("cart item not on server")

// itemID returns the server ID of e. Entries added in this session carry a
// temporary ID until their add was confirmed, so the ID is looked up on the
// server.
func (s *syncer) itemID(ctx context.Context, e Entry) (string, error) {
	if !collection.IsTemp(e.ItemID) {
		return e.ItemID, nil
	}
	remote, err := s.remote.ListCart(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve cart item for %s: %w", e.ProductID, err)
	}
	for _, r := range remote {
		if r.ProductID == e.ProductID {
			return r.ItemID, nil
		}
	}
	if s.logger != nil {
		s.logger.Printf("[Cart] No server item for product %s", e.ProductID)
	}
	return "", errNotOnServer
}

// echo merges the server's view of an item over the local entry, keeping
// local snapshot fields the server left empty.
func echo(local Entry, server *Entry) Entry {
	if server == nil {
		return local
	}
	out := *server
	if out.ProductID == "" {
		out.ProductID = local.ProductID
	}
	if out.Name == "" {
		out.Name = local.Name
	}
	if out.UnitPrice.IsZero() {
		out.UnitPrice = local.UnitPrice
	}
	if out.Image == "" {
		out.Image = local.Image
	}
	if out.Qty <= 0 {
		out.Qty = local.Qty
	}
	return out
}

// conflictOrErr turns a stock rejection into a correction: the server kept
// the quantity it could serve.
func conflictOrErr(ch collection.Change[Entry], err error) error {
	available, ok := collection.AvailableStock(err)
	if !ok {
		return err
	}
	if available <= 0 {
		return &collection.ConflictError[Entry]{Removed: []string{ch.Key}, Reason: err.Error()}
	}
	corrected := ch.Entry.WithQuantity(available)
	return &collection.ConflictError[Entry]{Corrected: []Entry{corrected}, Reason: err.Error()}
}

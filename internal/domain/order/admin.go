package order

import (
	"context"
	"fmt"
	"log"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/notify"
)

// AdminRemote is the back-office order service.
type AdminRemote interface {
	ListAllOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status Status) (*Order, error)
}

// Admin is the back-office view of every order. Only the status of an
// order is mutable; it is changed optimistically and restored when the
// server rejects the update.
type Admin struct {
	orders *collection.Collection[Order]
}

func NewAdmin(remote AdminRemote, notifier notify.Notifier, logger *log.Logger) *Admin {
	return &Admin{
		orders: collection.New(collection.Options[Order]{
			Name: "orders",
			Loader: collection.LoaderFunc[Order](func(ctx context.Context) ([]Order, error) {
				orders, err := remote.ListAllOrders(ctx)
				if err != nil {
					return nil, err
				}
				SortNewestFirst(orders)
				return orders, nil
			}),
			Syncer:   statusSyncer{remote: remote},
			Notifier: notifier,
			Logger:   logger,
			Messages: map[collection.Action]collection.Messages{
				collection.ActionStatus: {Success: "Order status updated!", Failure: "Failed to update status."},
			},
			Anonymous: "Admin access required.",
		}),
	}
}

// Load fetches every order when id is an admin. Other identities get an
// empty, read-only view.
func (a *Admin) Load(ctx context.Context, id *auth.Identity) error {
	if !id.IsAdmin() {
		return a.orders.Load(ctx, nil)
	}
	return a.orders.Load(ctx, id)
}

// SetStatus changes the status of order id. Any status may follow any
// other; setting the current status is a no-op.
func (a *Admin) SetStatus(ctx context.Context, id string, status Status) (*collection.Pending, error) {
	return a.orders.Mutate(ctx, collection.ActionStatus, id, func(current []Order) ([]Order, error) {
		if _, err := ParseStatus(string(status)); err != nil {
			return nil, err
		}
		for i := range current {
			if current[i].ID != id {
				continue
			}
			if current[i].Status == status {
				return nil, collection.ErrNoChange
			}
			current[i].Status = status
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	})
}

func (a *Admin) Orders() []Order { return a.orders.Entries() }

func (a *Admin) Get(id string) (Order, bool) { return a.orders.Get(id) }

// CountByStatus tallies the loaded orders per status.
func (a *Admin) CountByStatus() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, o := range a.orders.Entries() {
		counts[o.Status]++
	}
	return counts
}

func (a *Admin) Reset() { a.orders.Reset() }

func (a *Admin) Wait() { a.orders.Wait() }

func (a *Admin) LoadErr() error { return a.orders.LoadErr() }

type statusSyncer struct {
	remote AdminRemote
}

func (s statusSyncer) Sync(ctx context.Context, ch collection.Change[Order]) ([]Order, error) {
	if ch.Action != collection.ActionStatus || ch.Entry == nil {
		return nil, fmt.Errorf("orders: unsupported action %q", ch.Action)
	}
	updated, err := s.remote.UpdateOrderStatus(ctx, ch.Key, ch.Entry.Status)
	if err != nil {
		return nil, err
	}
	if updated == nil || updated.ID == "" {
		return nil, nil
	}
	return []Order{*updated}, nil
}

package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/storefront/internal/domain/cart"
)

// RemoteCall records one call made to the remote cart
type RemoteCall struct {
	Method    string
	ProductID string
	ItemID    string
	Quantity  int
}

// Remote is an in-memory cart service for testing
type Remote struct {
	mu     sync.Mutex
	items  []cart.Entry
	nextID int

	Calls []RemoteCall

	// Err, when set, fails every write
	Err error
	// ErrFor fails writes for the given methods ("add", "update", "remove", "clear")
	ErrFor map[string]error
	// ListErr fails ListCart
	ListErr error
	// Gate, when set, blocks every write until it is closed
	Gate chan struct{}
}

func NewRemote(initial ...cart.Entry) *Remote {
	r := &Remote{ErrFor: map[string]error{}}
	for _, e := range initial {
		r.nextID++
		if e.ItemID == "" {
			e.ItemID = fmt.Sprintf("item-%d", r.nextID)
		}
		r.items = append(r.items, e)
	}
	return r
}

// Items returns a copy of the server-side cart
func (r *Remote) Items() []cart.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cart.Entry, len(r.items))
	copy(out, r.items)
	return out
}

// CallsTo returns the recorded calls for method
func (r *Remote) CallsTo(method string) []RemoteCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RemoteCall
	for _, c := range r.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (r *Remote) ListCart(ctx context.Context) ([]cart.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, RemoteCall{Method: "list"})
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := make([]cart.Entry, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *Remote) AddCartItem(ctx context.Context, productID string, quantity int) (*cart.Entry, error) {
	if err := r.write(RemoteCall{Method: "add", ProductID: productID, Quantity: quantity}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ProductID == productID {
			r.items[i].Qty += quantity
			e := r.items[i]
			return &e, nil
		}
	}
	r.nextID++
	e := cart.Entry{ItemID: fmt.Sprintf("item-%d", r.nextID), ProductID: productID, Qty: quantity}
	r.items = append(r.items, e)
	return &e, nil
}

func (r *Remote) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*cart.Entry, error) {
	if err := r.write(RemoteCall{Method: "update", ItemID: itemID, Quantity: quantity}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ItemID == itemID {
			r.items[i].Qty = quantity
			e := r.items[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("cart item %s not found", itemID)
}

func (r *Remote) RemoveCartItem(ctx context.Context, itemID string) error {
	if err := r.write(RemoteCall{Method: "remove", ItemID: itemID}); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ItemID == itemID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart item %s not found", itemID)
}

func (r *Remote) ClearCart(ctx context.Context) error {
	if err := r.write(RemoteCall{Method: "clear"}); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	return nil
}

func (r *Remote) write(call RemoteCall) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, call)
	gate := r.Gate
	err := r.Err
	if e, ok := r.ErrFor[call.Method]; ok {
		err = e
	}
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

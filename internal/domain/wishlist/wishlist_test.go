package wishlist_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/cart"
	cartmocks "github.com/example/storefront/internal/domain/cart/mocks"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/notify"
	notifymocks "github.com/example/storefront/internal/notify/mocks"
)

var shopper = &auth.Identity{UserID: "u1", Username: "shopper"}

type fakeRemote struct {
	mu      sync.Mutex
	items   []wishlist.Entry
	nextID  int
	addErr  error
	removed []string
}

func (r *fakeRemote) ListWishlist(context.Context) ([]wishlist.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]wishlist.Entry(nil), r.items...), nil
}

func (r *fakeRemote) AddWishlistItem(_ context.Context, productID string) (*wishlist.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return nil, r.addErr
	}
	r.nextID++
	e := wishlist.Entry{ItemID: fmt.Sprintf("w-%d", r.nextID), ProductID: productID}
	r.items = append(r.items, e)
	return &e, nil
}

func (r *fakeRemote) RemoveWishlistItem(_ context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, itemID)
	for i, e := range r.items {
		if e.ItemID == itemID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}
	return nil
}

func scarf() product.Product {
	return product.Product{ID: "S", Name: "Wool Scarf", Price: decimal.NewFromInt(600), Stock: 4}
}

func newTestWishlist(t *testing.T, remote *fakeRemote) (*wishlist.Wishlist, *notifymocks.Recorder) {
	t.Helper()
	rec := notifymocks.NewRecorder()
	w := wishlist.New(remote, rec, nil)
	require.NoError(t, w.Load(context.Background(), shopper))
	return w, rec
}

func TestWishlist_AddKeepsSnapshotAndServerID(t *testing.T) {
	remote := &fakeRemote{}
	w, rec := newTestWishlist(t, remote)

	p, err := w.Add(context.Background(), scarf())
	require.NoError(t, err)
	require.NoError(t, p.Wait(context.Background()))

	entries := w.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "w-1", entries[0].ItemID)
	assert.Equal(t, "Wool Scarf", entries[0].Name)
	assert.False(t, entries[0].AddedAt.IsZero())
	assert.Equal(t, []string{"Added to wishlist"}, rec.Messages())
}

func TestWishlist_AddTwiceIsNoOp(t *testing.T) {
	remote := &fakeRemote{}
	w, rec := newTestWishlist(t, remote)
	ctx := context.Background()

	p, err := w.Add(ctx, scarf())
	require.NoError(t, err)
	require.NoError(t, p.Wait(ctx))

	p, err = w.Add(ctx, scarf())
	require.NoError(t, err)
	require.NoError(t, p.Wait(ctx))

	assert.Equal(t, 1, w.Len())
	assert.Len(t, rec.All(), 1)
}

func TestWishlist_AddFailureRollsBack(t *testing.T) {
	remote := &fakeRemote{addErr: errors.New("500")}
	w, rec := newTestWishlist(t, remote)

	p, err := w.Add(context.Background(), scarf())
	require.NoError(t, err)
	assert.True(t, w.Contains("S"))

	_ = p.Wait(context.Background())
	assert.False(t, w.Contains("S"))
	assert.Equal(t, 1, rec.Count(notify.LevelFailure))
	assert.Zero(t, rec.Count(notify.LevelSuccess))
}

func TestWishlist_Toggle(t *testing.T) {
	remote := &fakeRemote{items: []wishlist.Entry{{ItemID: "w-7", ProductID: "S"}}}
	w, _ := newTestWishlist(t, remote)

	p, err := w.Toggle(context.Background(), scarf())
	require.NoError(t, err)
	require.NoError(t, p.Wait(context.Background()))

	assert.Zero(t, w.Len())
	assert.Equal(t, []string{"w-7"}, remote.removed)
}

func TestWishlist_Anonymous(t *testing.T) {
	rec := notifymocks.NewRecorder()
	w := wishlist.New(&fakeRemote{}, rec, nil)

	_, err := w.Add(context.Background(), scarf())

	assert.ErrorIs(t, err, collection.ErrAnonymous)
	assert.Equal(t, []string{"Please log in to add items to your wishlist."}, rec.Messages())
}

func TestWishlist_MoveToCart(t *testing.T) {
	remote := &fakeRemote{items: []wishlist.Entry{{ItemID: "w-1", ProductID: "S"}}}
	w, _ := newTestWishlist(t, remote)
	c := cart.New(cartmocks.NewRemote(), nil, nil)
	require.NoError(t, c.Load(context.Background(), shopper))

	require.NoError(t, w.MoveToCart(context.Background(), c, scarf()))
	w.Wait()
	c.Wait()

	assert.False(t, w.Contains("S"))
	got, ok := c.Get("S")
	require.True(t, ok)
	assert.Equal(t, 1, got.Qty)
}

func TestWishlist_MoveToCartOutOfStockKeepsEntry(t *testing.T) {
	remote := &fakeRemote{items: []wishlist.Entry{{ItemID: "w-1", ProductID: "S"}}}
	w, _ := newTestWishlist(t, remote)
	c := cart.New(cartmocks.NewRemote(), nil, nil)
	require.NoError(t, c.Load(context.Background(), shopper))

	soldOut := scarf()
	soldOut.Stock = 0
	err := w.MoveToCart(context.Background(), c, soldOut)

	assert.ErrorIs(t, err, collection.ErrStockExceeded)
	assert.True(t, w.Contains("S"))
}

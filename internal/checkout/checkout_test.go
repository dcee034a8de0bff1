package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/activity"
	activitymocks "github.com/example/storefront/internal/activity/mocks"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/cart"
	cartmocks "github.com/example/storefront/internal/domain/cart/mocks"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
)

var shopper = &auth.Identity{UserID: "u1", Username: "shopper", Email: "shopper@example.com"}

var customer = order.CustomerInfo{
	Name:          "Shopper",
	Email:         "shopper@example.com",
	Address:       "221B Baker Street",
	PaymentMethod: order.PaymentCard,
}

type fakeRemote struct {
	mu        sync.Mutex
	products  map[string]product.Product
	stockErr  map[string]error
	placeErr  error
	orders    []order.Order
	keys      []string
	stockSets map[string]int
}

func newFakeRemote(products ...product.Product) *fakeRemote {
	r := &fakeRemote{products: map[string]product.Product{}, stockErr: map[string]error{}, stockSets: map[string]int{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeRemote) PlaceOrder(_ context.Context, o order.Order) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, o.IdempotencyKey)
	if r.placeErr != nil {
		return nil, r.placeErr
	}
	o.ID = fmt.Sprintf("order-%d", len(r.orders)+1)
	r.orders = append(r.orders, o)
	return &o, nil
}

func (r *fakeRemote) GetProduct(_ context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (r *fakeRemote) UpdateProductStock(_ context.Context, id string, stock int) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.stockErr[id]; err != nil {
		return nil, err
	}
	p := r.products[id]
	p.Stock = stock
	r.products[id] = p
	r.stockSets[id] = stock
	return &p, nil
}

func (r *fakeRemote) stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

func item(id string, price int64, stock int) product.Product {
	return product.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price), Stock: stock}
}

func newLoadedCart(t *testing.T, entries ...cart.Entry) (*cart.Cart, *cartmocks.Remote) {
	t.Helper()
	remote := cartmocks.NewRemote(entries...)
	c := cart.New(remote, nil, nil)
	require.NoError(t, c.Load(context.Background(), shopper))
	return c, remote
}

// ============================================
// Place Tests
// ============================================

func TestPlace_CartCheckoutWithPartialStockFailure(t *testing.T) {
	remote := newFakeRemote(item("A", 100, 10), item("B", 50, 5))
	remote.stockErr["A"] = errors.New("503 service unavailable")
	c, cartRemote := newLoadedCart(t,
		cart.Entry{ProductID: "A", Name: "Product A", UnitPrice: decimal.NewFromInt(100), Qty: 2},
		cart.Entry{ProductID: "B", Name: "Product B", UnitPrice: decimal.NewFromInt(50), Qty: 1},
	)
	pub := activitymocks.NewPublisher()
	svc := NewService(remote, c, pub, nil)

	co, err := svc.Begin()
	require.NoError(t, err)
	assert.Equal(t, SourceCart, co.Source())

	result, err := svc.Place(context.Background(), shopper, co, customer)
	require.NoError(t, err)
	c.Wait()

	// The order stands with both lines.
	require.Len(t, remote.orders, 1)
	placed := remote.orders[0]
	assert.Len(t, placed.Items, 2)
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(250)), placed.Total.String())
	assert.Equal(t, order.StatusPending, placed.Status)
	assert.Equal(t, "order-1", result.Order.ID)

	// Only B's stock moved.
	assert.Equal(t, 10, remote.stock("A"))
	assert.Equal(t, 4, remote.stock("B"))
	failures := result.StockFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, "A", failures[0].ProductID)

	// The cart is emptied regardless.
	assert.Empty(t, c.Entries())
	assert.Empty(t, cartRemote.Items())

	assert.Len(t, pub.OfType(activity.TypeOrderPlaced), 1)
	failed := pub.OfType(activity.TypeStockDecrementFailed)
	require.Len(t, failed, 1)
	var payload activity.StockDecrementFailed
	require.NoError(t, failed[0].Decode(&payload))
	assert.Equal(t, "A", payload.ProductID)
	assert.Equal(t, 2, payload.Quantity)
	assert.Len(t, pub.OfType(activity.TypeStockDecremented), 1)
}

func TestPlace_BuyNowLeavesCartAlone(t *testing.T) {
	remote := newFakeRemote(item("C", 30, 3), item("D", 70, 2))
	c, cartRemote := newLoadedCart(t, cart.Entry{ProductID: "C", Qty: 1})
	svc := NewService(remote, c, nil, nil)

	co, err := svc.Begin(buyNow(t, item("D", 70, 2), 1))
	require.NoError(t, err)
	assert.Equal(t, SourceBuyNow, co.Source())

	_, err = svc.Place(context.Background(), shopper, co, customer)
	require.NoError(t, err)
	c.Wait()

	require.Len(t, remote.orders, 1)
	require.Len(t, remote.orders[0].Items, 1)
	assert.Equal(t, "D", remote.orders[0].Items[0].ProductID)
	assert.Equal(t, 1, remote.stock("D"))

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "C", entries[0].ProductID)
	assert.Equal(t, 1, entries[0].Qty)
	assert.Empty(t, cartRemote.CallsTo("remove"))
}

func TestPlace_OrderFailureTouchesNothing(t *testing.T) {
	remote := newFakeRemote(item("A", 100, 10))
	remote.placeErr = errors.New("500")
	c, cartRemote := newLoadedCart(t, cart.Entry{ProductID: "A", Qty: 1, UnitPrice: decimal.NewFromInt(100)})
	svc := NewService(remote, c, nil, nil)

	co, err := svc.Begin()
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), shopper, co, customer)
	require.Error(t, err)

	assert.Equal(t, 10, remote.stock("A"))
	assert.Len(t, c.Entries(), 1)
	assert.Empty(t, cartRemote.CallsTo("remove"))

	// A retry reuses the idempotency key.
	remote.placeErr = nil
	_, err = svc.Place(context.Background(), shopper, co, customer)
	require.NoError(t, err)
	require.Len(t, remote.keys, 2)
	assert.Equal(t, remote.keys[0], remote.keys[1])
	assert.Equal(t, co.IdempotencyKey(), remote.keys[0])

	_, err = svc.Place(context.Background(), shopper, co, customer)
	assert.ErrorIs(t, err, ErrAlreadyPlaced)
	c.Wait()
}

func TestPlace_ValidatesCustomer(t *testing.T) {
	remote := newFakeRemote(item("A", 100, 10))
	c, _ := newLoadedCart(t, cart.Entry{ProductID: "A", Qty: 1})
	svc := NewService(remote, c, nil, nil)
	co, err := svc.Begin()
	require.NoError(t, err)

	bad := customer
	bad.Email = "not-an-email"
	_, err = svc.Place(context.Background(), shopper, co, bad)

	var invalid *order.InvalidCustomerError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Please enter a valid email address.", invalid.Message)
	assert.Empty(t, remote.orders)
}

func TestPlace_RequiresIdentity(t *testing.T) {
	c, _ := newLoadedCart(t, cart.Entry{ProductID: "A", Qty: 1})
	svc := NewService(newFakeRemote(), c, nil, nil)
	co, err := svc.Begin()
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), nil, co, customer)

	assert.ErrorIs(t, err, collection.ErrAnonymous)
}

func TestPlace_MissingProductIsStockFailure(t *testing.T) {
	remote := newFakeRemote()
	c, _ := newLoadedCart(t)
	svc := NewService(remote, c, nil, nil)
	co, err := svc.Begin(buyNow(t, item("gone", 10, 1), 1))
	require.NoError(t, err)

	result, err := svc.Place(context.Background(), shopper, co, customer)

	require.NoError(t, err)
	failures := result.StockFailures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, product.ErrProductNotFound)
}

// ============================================
// Begin Tests
// ============================================

func TestBegin_SnapshotIsolatedFromCart(t *testing.T) {
	c, _ := newLoadedCart(t, cart.Entry{ProductID: "A", Qty: 2, UnitPrice: decimal.NewFromInt(100)})
	svc := NewService(newFakeRemote(), c, nil, nil)

	co, err := svc.Begin()
	require.NoError(t, err)

	p, err := c.Add(context.Background(), item("B", 50, 5), 1)
	require.NoError(t, err)
	require.NoError(t, p.Wait(context.Background()))

	items := co.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].ProductID)
	assert.True(t, co.Total().Equal(decimal.NewFromInt(200)))
}

func TestBegin_EmptyCart(t *testing.T) {
	c, _ := newLoadedCart(t)
	svc := NewService(newFakeRemote(), c, nil, nil)

	_, err := svc.Begin()

	assert.ErrorIs(t, err, ErrEmptyCheckout)
}

func TestCheckout_RemoveOnlyAffectsCheckout(t *testing.T) {
	c, _ := newLoadedCart(t,
		cart.Entry{ProductID: "A", Qty: 1, UnitPrice: decimal.NewFromInt(100)},
		cart.Entry{ProductID: "B", Qty: 1, UnitPrice: decimal.NewFromInt(50)},
	)
	remote := newFakeRemote(item("A", 100, 5), item("B", 50, 5))
	svc := NewService(remote, c, nil, nil)
	co, err := svc.Begin()
	require.NoError(t, err)

	co.Remove("A")
	assert.Len(t, co.Items(), 1)
	assert.Len(t, c.Entries(), 2)

	_, err = svc.Place(context.Background(), shopper, co, customer)
	require.NoError(t, err)
	c.Wait()

	// A was not purchased and stays in the cart.
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].ProductID)

	co.Remove("B")
	_, err = svc.Place(context.Background(), shopper, co, customer)
	assert.ErrorIs(t, err, ErrAlreadyPlaced)
}

func buyNow(t *testing.T, p product.Product, qty int) order.LineItem {
	t.Helper()
	li, err := BuyNow(p, qty)
	require.NoError(t, err)
	return li
}

func TestBuyNow_UsesEffectivePrice(t *testing.T) {
	p := item("D", 70, 2)
	discount := decimal.NewFromInt(60)
	p.DiscountedPrice = &discount

	li := buyNow(t, p, 2)

	assert.Equal(t, 2, li.Quantity)
	assert.True(t, li.Price.Equal(discount))
}

func TestBuyNow_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -3} {
		_, err := BuyNow(item("D", 70, 2), qty)
		assert.ErrorIs(t, err, collection.ErrInvalidQuantity, "qty %d", qty)
	}
}

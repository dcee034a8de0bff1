package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second, nil)
}

// ============================================
// Transport Tests
// ============================================

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	_, err := c.ListCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	c.UseTokens(TokenFunc(func() string { return "tok-1" }))
	_, err = c.ListCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", got)
}

func TestClient_StockConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Not enough stock","available":2}`))
	})

	_, err := c.AddCartItem(context.Background(), "p1", 5)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "Not enough stock", httpErr.Message)

	n, ok := collection.AvailableStock(err)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestClient_ConflictWithoutAvailableIsPlainFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"busy"}`))
	})

	_, err := c.AddCartItem(context.Background(), "p1", 1)

	_, ok := collection.AvailableStock(err)
	assert.False(t, ok)
}

func TestClient_StatusSentinels(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := c.ListOrders(context.Background())

			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.ListOrders(context.Background())

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "upstream exploded", httpErr.Message)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	c := New(srv.URL, 20*time.Millisecond, nil)

	_, err := c.ListProducts(context.Background())

	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

// ============================================
// Endpoint Mapping Tests
// ============================================

func TestClient_ProductNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Product not found"}`, http.StatusNotFound)
	})

	_, err := c.GetProduct(context.Background(), "gone")
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = c.ListProducts(context.Background())
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = c.UpdateOrderStatus(context.Background(), "o1", order.StatusShipped)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestClient_RemoveMissingItemSucceeds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, c.RemoveCartItem(context.Background(), "item-1"))
	assert.NoError(t, c.RemoveWishlistItem(context.Background(), "item-1"))
}

func TestClient_ResolvesRelativeImages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"a","name":"A","price":"10","stock":1,"image":"images/a.jpg"},
			{"id":"b","name":"B","price":"10","stock":1,"image":"https://cdn.example.com/b.jpg"},
			{"id":"c","name":"C","price":"10","stock":1}
		]`))
	})

	products, err := c.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, c.BaseURL()+"/images/a.jpg", products[0].Image)
	assert.Equal(t, "https://cdn.example.com/b.jpg", products[1].Image)
	assert.Empty(t, products[2].Image)
}

func TestClient_Paths(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.RequestURI()
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
	}{
		{"update stock", func() error { _, err := c.UpdateProductStock(ctx, "p 1", 3); return err }, http.MethodPatch, "/api/products/p%201"},
		{"update cart item", func() error { _, err := c.UpdateCartItem(ctx, "i1", 2); return err }, http.MethodPatch, "/api/cart/items/i1"},
		{"clear cart", func() error { return c.ClearCart(ctx) }, http.MethodDelete, "/api/cart"},
		{"add wishlist", func() error { _, err := c.AddWishlistItem(ctx, "p1"); return err }, http.MethodPost, "/api/wishlist/items"},
		{"order status", func() error { _, err := c.UpdateOrderStatus(ctx, "o1", order.StatusDelivered); return err }, http.MethodPatch, "/api/admin/orders/o1"},
		{"user orders", func() error { _, err := c.ListUserOrders(ctx, "u&1"); return err }, http.MethodGet, "/api/admin/orders?user_id=u%261"},
		{"block user", func() error { _, err := c.SetUserBlocked(ctx, "u1", true); return err }, http.MethodPatch, "/api/admin/users/u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.path, path)
		})
	}
}

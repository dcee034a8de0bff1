package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/wishlist"
)

type cartBody struct {
	Items []cart.Entry `json:"items"`
}

type itemRequest struct {
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (c *Client) ListCart(ctx context.Context) ([]cart.Entry, error) {
	var body cartBody
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &body); err != nil {
		return nil, err
	}
	for i := range body.Items {
		body.Items[i].Image = c.resolveImage(body.Items[i].Image)
	}
	return body.Items, nil
}

// AddCartItem adds quantity units of a product to the cart. The server
// increments an existing line.
func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) (*cart.Entry, error) {
	var item cart.Entry
	if err := c.do(ctx, http.MethodPost, "/api/cart/items", itemRequest{ProductID: productID, Quantity: quantity}, &item); err != nil {
		return nil, err
	}
	item.Image = c.resolveImage(item.Image)
	return &item, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*cart.Entry, error) {
	var item cart.Entry
	if err := c.do(ctx, http.MethodPatch, "/api/cart/items/"+url.PathEscape(itemID), itemRequest{Quantity: quantity}, &item); err != nil {
		return nil, err
	}
	item.Image = c.resolveImage(item.Image)
	return &item, nil
}

// RemoveCartItem deletes a cart line. A line already gone counts as removed.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	err := c.do(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(itemID), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", nil, nil)
}

type wishlistBody struct {
	Items []wishlist.Entry `json:"items"`
}

func (c *Client) ListWishlist(ctx context.Context) ([]wishlist.Entry, error) {
	var body wishlistBody
	if err := c.do(ctx, http.MethodGet, "/api/wishlist", nil, &body); err != nil {
		return nil, err
	}
	for i := range body.Items {
		body.Items[i].Image = c.resolveImage(body.Items[i].Image)
	}
	return body.Items, nil
}

func (c *Client) AddWishlistItem(ctx context.Context, productID string) (*wishlist.Entry, error) {
	var item wishlist.Entry
	if err := c.do(ctx, http.MethodPost, "/api/wishlist/items", itemRequest{ProductID: productID}, &item); err != nil {
		return nil, err
	}
	item.Image = c.resolveImage(item.Image)
	return &item, nil
}

func (c *Client) RemoveWishlistItem(ctx context.Context, itemID string) error {
	err := c.do(ctx, http.MethodDelete, "/api/wishlist/items/"+url.PathEscape(itemID), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

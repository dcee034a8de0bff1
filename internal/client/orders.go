package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/order"
)

func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// PlaceOrder creates an order. The backend returns the existing order when
// the idempotency key was already used by the same user.
func (c *Client) PlaceOrder(ctx context.Context, o order.Order) (*order.Order, error) {
	var placed order.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", o, &placed); err != nil {
		return nil, err
	}
	return &placed, nil
}

// Admin endpoints

func (c *Client) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/api/admin/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) ListUserOrders(ctx context.Context, userID string) ([]order.Order, error) {
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/api/admin/orders?user_id="+url.QueryEscape(userID), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) (*order.Order, error) {
	body := struct {
		Status order.Status `json:"status"`
	}{status}
	var updated order.Order
	if err := c.do(ctx, http.MethodPatch, "/api/admin/orders/"+url.PathEscape(orderID), body, &updated); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", order.ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	return &updated, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]auth.User, error) {
	var users []auth.User
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SetUserBlocked(ctx context.Context, userID string, blocked bool) (*auth.User, error) {
	body := struct {
		Blocked bool `json:"is_blocked"`
	}{blocked}
	var u auth.User
	if err := c.do(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(userID), body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(userID), nil, nil)
}

package order

import (
	"context"
	"fmt"
	"slices"
)

// HistorySource lists the orders of the signed-in user.
type HistorySource interface {
	ListOrders(ctx context.Context) ([]Order, error)
}

// History is the read-only order history of the signed-in user.
type History struct {
	source HistorySource
}

func NewHistory(source HistorySource) *History {
	return &History{source: source}
}

// List returns the user's orders, newest first.
func (h *History) List(ctx context.Context) ([]Order, error) {
	orders, err := h.source.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	SortNewestFirst(orders)
	return orders, nil
}

// SortNewestFirst orders by order date, most recent first. Orders placed
// at the same instant keep their relative order.
func SortNewestFirst(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int {
		return b.OrderDate.Compare(a.OrderDate)
	})
}

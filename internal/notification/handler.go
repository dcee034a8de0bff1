package notification

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/email"
)

// Mailer sends the emails triggered by activity events.
type Mailer interface {
	SendOrderConfirmation(to, customer, orderID string, total decimal.Decimal, items []email.OrderItem) error
	SendStockAlert(to, orderID, productID string, quantity int, reason string) error
}

// Handler processes activity events: it confirms placed orders to the
// buyer and escalates stock decrements that failed after an order was
// placed.
type Handler struct {
	mailer  Mailer
	alertTo string
	logger  *log.Logger

	mu           sync.Mutex
	unreconciled map[string][]activity.StockDecrementFailed // orderID -> failed lines
}

// NewHandler creates a new notification handler. Stock alerts are only
// emailed when alertTo is set; they are always logged.
func NewHandler(mailer Mailer, alertTo string, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		mailer:       mailer,
		alertTo:      alertTo,
		logger:       logger,
		unreconciled: make(map[string][]activity.StockDecrementFailed),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event activity.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.Type {
	case activity.TypeOrderPlaced:
		return h.handleOrderPlaced(event)
	case activity.TypeStockDecrementFailed:
		return h.handleStockDecrementFailed(event)
	}
	return nil
}

// Unreconciled returns the failed stock decrements seen so far, by order.
func (h *Handler) Unreconciled() map[string][]activity.StockDecrementFailed {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string][]activity.StockDecrementFailed, len(h.unreconciled))
	for k, v := range h.unreconciled {
		out[k] = append([]activity.StockDecrementFailed(nil), v...)
	}
	return out
}

func (h *Handler) handleOrderPlaced(event activity.Event) error {
	var e activity.OrderPlaced
	if err := event.Decode(&e); err != nil {
		h.logger.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	h.logger.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	if e.Email == "" {
		h.logger.Printf("[Notifier] No email address on order %s", e.OrderID)
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err := h.mailer.SendOrderConfirmation(e.Email, e.Name, e.OrderID, e.Total, items); err != nil {
		h.logger.Printf("[Notifier] Failed to send email to %s: %v", e.Email, err)
		return err
	}

	h.logger.Printf("[Notifier] Order confirmation email sent to %s for order %s", e.Email, e.OrderID)
	return nil
}

func (h *Handler) handleStockDecrementFailed(event activity.Event) error {
	var e activity.StockDecrementFailed
	if err := event.Decode(&e); err != nil {
		h.logger.Printf("[Notifier] Failed to unmarshal StockDecrementFailed event: %v", err)
		return err
	}

	h.mu.Lock()
	h.unreconciled[e.OrderID] = append(h.unreconciled[e.OrderID], e)
	h.mu.Unlock()

	h.logger.Printf("[Notifier] Stock not decremented: product %s, quantity %d, order %s: %s", e.ProductID, e.Quantity, e.OrderID, e.Reason)

	if h.alertTo == "" {
		return nil
	}
	if err := h.mailer.SendStockAlert(h.alertTo, e.OrderID, e.ProductID, e.Quantity, e.Reason); err != nil {
		h.logger.Printf("[Notifier] Failed to send stock alert for order %s: %v", e.OrderID, err)
		return err
	}
	return nil
}

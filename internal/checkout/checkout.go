// Package checkout places orders for a frozen set of line items: either the
// cart as it was when checkout began, or ad-hoc "buy now" items that never
// touch the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
)

var (
	ErrEmptyCheckout = errors.New("no items to checkout")
	ErrAlreadyPlaced = errors.New("checkout already placed")
)

// Remote is the order and product service used to place an order.
type Remote interface {
	PlaceOrder(ctx context.Context, o order.Order) (*order.Order, error)
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	UpdateProductStock(ctx context.Context, id string, stock int) (*product.Product, error)
}

// Cart is the part of the cart checkout reads from and cleans up.
type Cart interface {
	Entries() []cart.Entry
	Remove(ctx context.Context, productID string) (*collection.Pending, error)
}

type Source string

const (
	SourceCart   Source = "cart"
	SourceBuyNow Source = "buy-now"
)

// Checkout is one in-progress checkout. Its items are a copy taken at
// Begin; later cart changes do not affect it.
type Checkout struct {
	mu     sync.Mutex
	source Source
	items  []order.LineItem
	key    string
	placed *order.Order
}

func (c *Checkout) Source() Source { return c.source }

// Items returns a copy of the items that will be ordered.
func (c *Checkout) Items() []order.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyItems(c.items)
}

func (c *Checkout) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return order.Total(c.items)
}

// Remove drops productID from this checkout only.
func (c *Checkout) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items {
		if it.ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// IdempotencyKey identifies the order on the server across retries of
// Place.
func (c *Checkout) IdempotencyKey() string { return c.key }

// BuyNow builds the line item for buying qty units of p directly.
func BuyNow(p product.Product, qty int) (order.LineItem, error) {
	if qty <= 0 {
		return order.LineItem{}, collection.ErrInvalidQuantity
	}
	return order.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		Price:     p.EffectivePrice(),
		Image:     p.Image,
	}, nil
}

// StockOutcome is the result of decrementing the stock of one line.
type StockOutcome struct {
	ProductID string
	Quantity  int
	Stock     int // stock after the decrement, when it succeeded
	Err       error
}

type Result struct {
	Order order.Order
	Stock []StockOutcome
}

// StockFailures returns the lines whose stock was not decremented.
func (r Result) StockFailures() []StockOutcome {
	var out []StockOutcome
	for _, s := range r.Stock {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

type Service struct {
	remote    Remote
	cart      Cart
	publisher activity.Publisher
	logger    *log.Logger
	now       func() time.Time
}

func NewService(remote Remote, c Cart, publisher activity.Publisher, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = activity.Nop
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{remote: remote, cart: c, publisher: publisher, logger: logger, now: time.Now}
}

// Begin starts a checkout. With buy-now items those are the item set and
// the cart is left alone; otherwise the cart's current entries are copied.
func (s *Service) Begin(buyNow ...order.LineItem) (*Checkout, error) {
	co := &Checkout{source: SourceCart, key: uuid.New().String()}
	if len(buyNow) > 0 {
		co.source = SourceBuyNow
		co.items = copyItems(buyNow)
	} else {
		for _, e := range s.cart.Entries() {
			co.items = append(co.items, order.LineItem{
				ProductID: e.ProductID,
				Name:      e.Name,
				Quantity:  e.Qty,
				Price:     e.UnitPrice,
				Image:     e.Image,
			})
		}
	}
	if len(co.items) == 0 {
		return nil, ErrEmptyCheckout
	}
	return co, nil
}

// Place creates the order and then, best effort, decrements the stock of
// every line. A failed decrement is logged and published but never
// retracts the order. Cart checkouts remove the purchased products from the
// cart once the order exists.
func (s *Service) Place(ctx context.Context, id *auth.Identity, co *Checkout, info order.CustomerInfo) (*Result, error) {
	if id == nil {
		return nil, collection.ErrAnonymous
	}

	co.mu.Lock()
	defer co.mu.Unlock()

	if co.placed != nil {
		return nil, ErrAlreadyPlaced
	}
	if len(co.items) == 0 {
		return nil, ErrEmptyCheckout
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}

	items := copyItems(co.items)

	// 1. Create the order
	created, err := s.remote.PlaceOrder(ctx, order.Order{
		UserID:         id.UserID,
		Customer:       info,
		Items:          items,
		Total:          order.Total(items),
		OrderDate:      s.now(),
		Status:         order.StatusPending,
		IdempotencyKey: co.key,
	})
	if err != nil {
		s.logger.Printf("[Checkout] Failed to place order for user %s: %v", id.UserID, err)
		return nil, fmt.Errorf("place order: %w", err)
	}
	co.placed = created
	s.logger.Printf("[Checkout] Order %s placed for user %s (%d items)", created.ID, id.UserID, len(items))

	if err := activity.Emit(ctx, s.publisher, activity.TypeOrderPlaced, created.ID, activity.OrderPlaced{
		OrderID:  created.ID,
		UserID:   id.UserID,
		Email:    info.Email,
		Name:     info.Name,
		Items:    created.Items,
		Total:    created.Total,
		BuyNow:   co.source == SourceBuyNow,
		PlacedAt: created.OrderDate,
	}); err != nil {
		s.logger.Printf("[Checkout] Failed to publish OrderPlaced for %s: %v", created.ID, err)
	}

	// 2. Decrement stock per line, independently
	result := &Result{Order: *created}
	for _, it := range items {
		result.Stock = append(result.Stock, s.decrementStock(ctx, created.ID, it))
	}

	// 3. Remove purchased products from the cart
	if co.source == SourceCart {
		for _, it := range items {
			if _, err := s.cart.Remove(ctx, it.ProductID); err != nil {
				s.logger.Printf("[Checkout] Failed to remove %s from cart after order %s: %v", it.ProductID, created.ID, err)
			}
		}
	}

	return result, nil
}

func (s *Service) decrementStock(ctx context.Context, orderID string, it order.LineItem) StockOutcome {
	outcome := StockOutcome{ProductID: it.ProductID, Quantity: it.Quantity}

	p, err := s.remote.GetProduct(ctx, it.ProductID)
	if err == nil {
		var updated *product.Product
		updated, err = s.remote.UpdateProductStock(ctx, it.ProductID, p.Stock-it.Quantity)
		if err == nil {
			outcome.Stock = p.Stock - it.Quantity
			if updated != nil {
				outcome.Stock = updated.Stock
			}
		}
	}

	if err != nil {
		outcome.Err = err
		s.logger.Printf("[Checkout] Failed to update stock for product %s (order %s): %v", it.ProductID, orderID, err)
		if perr := activity.Emit(ctx, s.publisher, activity.TypeStockDecrementFailed, orderID, activity.StockDecrementFailed{
			OrderID:   orderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Reason:    err.Error(),
			FailedAt:  s.now(),
		}); perr != nil {
			s.logger.Printf("[Checkout] Failed to publish StockDecrementFailed for %s: %v", it.ProductID, perr)
		}
		return outcome
	}

	if perr := activity.Emit(ctx, s.publisher, activity.TypeStockDecremented, orderID, activity.StockDecremented{
		OrderID:   orderID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		Stock:     outcome.Stock,
	}); perr != nil {
		s.logger.Printf("[Checkout] Failed to publish StockDecremented for %s: %v", it.ProductID, perr)
	}
	return outcome
}

func copyItems(in []order.LineItem) []order.LineItem {
	if in == nil {
		return nil
	}
	out := make([]order.LineItem, len(in))
	copy(out, in)
	return out
}

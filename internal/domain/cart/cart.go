package cart

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/notify"
)

var ErrInvalidProduct = errors.New("product_id is required")

// Entry is one cart line. UnitPrice and Name are snapshots taken when the
// product was added; the server re-prices at order placement.
type Entry struct {
	ItemID    string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"product_name"`
	UnitPrice decimal.Decimal `json:"product_price"`
	Qty       int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

func (e Entry) Key() string   { return e.ProductID }
func (e Entry) Quantity() int { return e.Qty }

func (e Entry) WithQuantity(n int) Entry {
	e.Qty = n
	return e
}

func (e Entry) Subtotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Qty)))
}

func (e Entry) CatalogID() string { return e.ProductID }

func (e Entry) FallbackProduct() product.Product {
	return product.Product{ID: e.ProductID, Name: e.Name, Price: e.UnitPrice, Image: e.Image}
}

// Remote is the cart persistence service.
type Remote interface {
	ListCart(ctx context.Context) ([]Entry, error)
	AddCartItem(ctx context.Context, productID string, quantity int) (*Entry, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (*Entry, error)
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

var messages = map[collection.Action]collection.Messages{
	collection.ActionAdd:    {Success: "Item added to cart", Failure: "Failed to add item to cart"},
	collection.ActionUpdate: {Success: "Cart updated", Failure: "Failed to update cart"},
	collection.ActionRemove: {Success: "Item removed from cart", Failure: "Failed to remove item from cart"},
	collection.ActionClear:  {Success: "Cart cleared", Failure: "Failed to clear cart"},
}

// Cart is the signed-in user's shopping cart.
type Cart struct {
	items *collection.Collection[Entry]
}

func New(remote Remote, notifier notify.Notifier, logger *log.Logger) *Cart {
	s := &syncer{remote: remote, logger: logger}
	return &Cart{
		items: collection.New(collection.Options[Entry]{
			Name:      "cart",
			Loader:    collection.LoaderFunc[Entry](remote.ListCart),
			Syncer:    s,
			Notifier:  notifier,
			Logger:    logger,
			Messages:  messages,
			Anonymous: "Please log in to add items to your cart.",
			Conflict:  "Only limited stock was available; your cart was adjusted.",
		}),
	}
}

// Add puts qty units of p in the cart, bounded by p's stock.
func (c *Cart) Add(ctx context.Context, p product.Product, qty int) (*collection.Pending, error) {
	if p.ID == "" {
		return nil, ErrInvalidProduct
	}
	return collection.Upsert(ctx, c.items, Entry{
		ItemID:    collection.TempID(),
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.EffectivePrice(),
		Qty:       qty,
		Image:     p.Image,
	}, p.StockCeiling())
}

// SetQuantity replaces the quantity of p's entry; n <= 0 removes it.
func (c *Cart) SetQuantity(ctx context.Context, p product.Product, n int) (*collection.Pending, error) {
	return collection.SetQuantity(ctx, c.items, p.ID, n, p.StockCeiling())
}

// Decrement lowers the quantity of productID by one, removing the entry
// when it reaches zero.
func (c *Cart) Decrement(ctx context.Context, productID string) (*collection.Pending, error) {
	e, ok := c.items.Get(productID)
	if !ok {
		return c.items.Remove(ctx, productID)
	}
	return collection.SetQuantity(ctx, c.items, productID, e.Qty-1, collection.Unbounded)
}

func (c *Cart) Remove(ctx context.Context, productID string) (*collection.Pending, error) {
	return c.items.Remove(ctx, productID)
}

func (c *Cart) Clear(ctx context.Context) (*collection.Pending, error) {
	return c.items.Clear(ctx)
}

func (c *Cart) Entries() []Entry { return c.items.Entries() }

func (c *Cart) Get(productID string) (Entry, bool) { return c.items.Get(productID) }

// Count is the number of units across all entries.
func (c *Cart) Count() int {
	n := 0
	for _, e := range c.items.Entries() {
		n += e.Qty
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.items.Entries() {
		total = total.Add(e.Subtotal())
	}
	return total
}

func (c *Cart) Load(ctx context.Context, id *auth.Identity) error { return c.items.Load(ctx, id) }

func (c *Cart) Reset() { c.items.Reset() }

func (c *Cart) Wait() { c.items.Wait() }

func (c *Cart) Identity() *auth.Identity { return c.items.Identity() }

func (c *Cart) LoadErr() error { return c.items.LoadErr() }

package wishlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/notify"
)

var ErrInvalidProduct = errors.New("product_id is required")

type Entry struct {
	ItemID    string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"product_name"`
	Price     decimal.Decimal `json:"product_price"`
	Image     string          `json:"product_image,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

func (e Entry) Key() string       { return e.ProductID }
func (e Entry) CatalogID() string { return e.ProductID }

func (e Entry) FallbackProduct() product.Product {
	return product.Product{ID: e.ProductID, Name: e.Name, Price: e.Price, Image: e.Image}
}

// Remote is the wishlist persistence service.
type Remote interface {
	ListWishlist(ctx context.Context) ([]Entry, error)
	AddWishlistItem(ctx context.Context, productID string) (*Entry, error)
	RemoveWishlistItem(ctx context.Context, itemID string) error
}

var messages = map[collection.Action]collection.Messages{
	collection.ActionAdd:    {Success: "Added to wishlist", Failure: "Could not add item. Please try again."},
	collection.ActionRemove: {Success: "Removed from wishlist", Failure: "Could not remove item. Please try again."},
}

type Wishlist struct {
	items  *collection.Collection[Entry]
	logger *log.Logger
}

func New(remote Remote, notifier notify.Notifier, logger *log.Logger) *Wishlist {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Wishlist{
		logger: logger,
		items: collection.New(collection.Options[Entry]{
			Name:      "wishlist",
			Loader:    collection.LoaderFunc[Entry](remote.ListWishlist),
			Syncer:    &syncer{remote: remote, logger: logger},
			Notifier:  notifier,
			Logger:    logger,
			Messages:  messages,
			Anonymous: "Please log in to add items to your wishlist.",
		}),
	}
}

// Add saves p. A product already on the wishlist is left as is.
func (w *Wishlist) Add(ctx context.Context, p product.Product) (*collection.Pending, error) {
	if p.ID == "" {
		return nil, ErrInvalidProduct
	}
	entry := Entry{
		ItemID:    collection.TempID(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.EffectivePrice(),
		Image:     p.Image,
		AddedAt:   time.Now(),
	}
	return w.items.Mutate(ctx, collection.ActionAdd, p.ID, func(current []Entry) ([]Entry, error) {
		for _, e := range current {
			if e.ProductID == p.ID {
				return nil, collection.ErrNoChange
			}
		}
		return append(current, entry), nil
	})
}

func (w *Wishlist) Remove(ctx context.Context, productID string) (*collection.Pending, error) {
	return w.items.Remove(ctx, productID)
}

// Toggle adds p when absent and removes it otherwise.
func (w *Wishlist) Toggle(ctx context.Context, p product.Product) (*collection.Pending, error) {
	if w.Contains(p.ID) {
		return w.Remove(ctx, p.ID)
	}
	return w.Add(ctx, p)
}

// MoveToCart adds one unit of p to c and drops it from the wishlist once
// the cart accepted it locally.
func (w *Wishlist) MoveToCart(ctx context.Context, c *cart.Cart, p product.Product) error {
	if _, err := c.Add(ctx, p, 1); err != nil {
		return fmt.Errorf("move %s to cart: %w", p.ID, err)
	}
	if _, err := w.Remove(ctx, p.ID); err != nil {
		w.logger.Printf("[Wishlist] Product %s added to cart but not removed from wishlist: %v", p.ID, err)
		return err
	}
	return nil
}

func (w *Wishlist) Contains(productID string) bool {
	_, ok := w.items.Get(productID)
	return ok
}

func (w *Wishlist) Entries() []Entry { return w.items.Entries() }

func (w *Wishlist) Len() int { return w.items.Len() }

func (w *Wishlist) Load(ctx context.Context, id *auth.Identity) error { return w.items.Load(ctx, id) }

func (w *Wishlist) Reset() { w.items.Reset() }

func (w *Wishlist) Wait() { w.items.Wait() }

func (w *Wishlist) Identity() *auth.Identity { return w.items.Identity() }

func (w *Wishlist) LoadErr() error { return w.items.LoadErr() }

type syncer struct {
	remote Remote
	logger *log.Logger
}

func (s *syncer) Sync(ctx context.Context, ch collection.Change[Entry]) ([]Entry, error) {
	switch ch.Action {
	case collection.ActionAdd:
		item, err := s.remote.AddWishlistItem(ctx, ch.Key)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, nil
		}
		out := *item
		if out.Name == "" {
			out.Name = ch.Entry.Name
			out.Price = ch.Entry.Price
			out.Image = ch.Entry.Image
		}
		if out.AddedAt.IsZero() {
			out.AddedAt = ch.Entry.AddedAt
		}
		return []Entry{out}, nil

	case collection.ActionRemove:
		itemID := ch.Previous.ItemID
		if collection.IsTemp(itemID) {
			resolved, err := s.resolve(ctx, ch.Key)
			if err != nil || resolved == "" {
				return nil, err
			}
			itemID = resolved
		}
		return nil, s.remote.RemoveWishlistItem(ctx, itemID)

	default:
		return nil, fmt.Errorf("wishlist: unsupported action %q", ch.Action)
	}
}

// resolve finds the server item ID for productID; "" means the server has
// no such item.
func (s *syncer) resolve(ctx context.Context, productID string) (string, error) {
	remote, err := s.remote.ListWishlist(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve wishlist item for %s: %w", productID, err)
	}
	for _, r := range remote {
		if r.ProductID == productID {
			return r.ItemID, nil
		}
	}
	s.logger.Printf("[Wishlist] No server item for product %s", productID)
	return "", nil
}

package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"
)

// enrichLimit bounds the concurrent product lookups of one Enrich call.
const enrichLimit = 4

// Source is the remote product catalog.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Catalog is the read-mostly product catalog. Collections reference
// products by ID only and join them with catalog data for display.
type Catalog struct {
	source Source
	logger *log.Logger
}

func NewCatalog(source Source, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{source: source, logger: logger}
}

// List returns every product. An empty catalog answered with not found is
// an empty list, not an error.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	products, err := c.source.ListProducts(ctx)
	if errors.Is(err, ErrProductNotFound) {
		return []Product{}, nil
	}
	if err != nil {
		c.logger.Printf("[Catalog] Failed to list products: %v", err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*Product, error) {
	p, err := c.source.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Ref is a collection entry that references a product by ID and carries a
// snapshot of the product fields captured when it was added.
type Ref interface {
	CatalogID() string
	FallbackProduct() Product
}

// Item is one entry joined with its catalog product. When the lookup
// failed, Product holds the entry's snapshot with zero stock, Degraded is
// set and Err holds the lookup error.
type Item[R Ref] struct {
	Entry    R
	Product  Product
	Degraded bool
	Err      error
}

// Enrich looks up the product of every entry. Lookups run concurrently and
// a failed lookup never fails the whole call; the result keeps the order of
// entries.
func Enrich[R Ref](ctx context.Context, c *Catalog, entries []R) []Item[R] {
	items := make([]Item[R], len(entries))

	// Lookups never fail the group; errors degrade a single item.
	var g errgroup.Group
	g.SetLimit(enrichLimit)
	for i, entry := range entries {
		g.Go(func() error {
			items[i] = enrichOne(ctx, c, entry)
			return nil
		})
	}
	_ = g.Wait()

	return items
}

func enrichOne[R Ref](ctx context.Context, c *Catalog, entry R) Item[R] {
	p, err := c.source.GetProduct(ctx, entry.CatalogID())
	if err != nil {
		c.logger.Printf("[Catalog] Failed to fetch product %s, using fallback: %v", entry.CatalogID(), err)
		fallback := entry.FallbackProduct()
		fallback.ID = entry.CatalogID()
		fallback.Stock = 0
		return Item[R]{Entry: entry, Product: fallback, Degraded: true, Err: err}
	}
	return Item[R]{Entry: entry, Product: *p}
}

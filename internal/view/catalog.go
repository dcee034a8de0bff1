package view

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/storefront/internal/domain/product"
)

var ErrNoProduct = errors.New("no product to show")

// ProductList is one browse page of the catalog.
type ProductList struct {
	Page    product.Page
	Query   product.Query
	LoadErr error
}

func (v ProductList) Render(w io.Writer) error {
	if v.LoadErr != nil {
		return v.LoadErr
	}
	heading(w, "Products")
	if filters := describeQuery(v.Query); filters != "" {
		fmt.Fprintf(w, "Filters: %s\n", filters)
	}
	if len(v.Page.Products) == 0 {
		fmt.Fprintln(w, "No products match your filters.")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING\tSTOCK")
	for _, p := range v.Page.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\n",
			p.ID, truncate(p.Name, 32), p.Category, priceLabel(p), p.Rating, stockLabel(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Page %d of %d (%d products)\n", v.Page.Page, v.Page.Pages, v.Page.Total)
	return nil
}

func (v ProductList) Fallback(w io.Writer, err error) {
	fallback(w, "Failed to load products",
		"We're experiencing some technical difficulties displaying our catalog right now.", err)
}

// ProductDetail shows one product with the viewer's cart and wishlist state.
type ProductDetail struct {
	Product    *product.Product
	InCart     int
	Wishlisted bool
	Err        error
}

func (v ProductDetail) Render(w io.Writer) error {
	if v.Err != nil {
		return v.Err
	}
	p := v.Product
	if p == nil {
		return ErrNoProduct
	}
	heading(w, p.Name)
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", p.ID)
	if p.Category != "" {
		fmt.Fprintf(tw, "Category\t%s\n", p.Category)
	}
	fmt.Fprintf(tw, "Price\t%s\n", priceLabel(*p))
	fmt.Fprintf(tw, "Rating\t%.1f\n", p.Rating)
	fmt.Fprintf(tw, "Stock\t%s\n", stockLabel(*p))
	if v.InCart > 0 {
		fmt.Fprintf(tw, "In cart\t%d\n", v.InCart)
	}
	if v.Wishlisted {
		fmt.Fprintf(tw, "Wishlist\tsaved\n")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
	return nil
}

func (v ProductDetail) Fallback(w io.Writer, err error) {
	fallback(w, "Product unavailable", "We couldn't load this product.", err)
}

func priceLabel(p product.Product) string {
	if eff := p.EffectivePrice(); !eff.Equal(p.Price) {
		return fmt.Sprintf("%s (was %s)", Money(eff), Money(p.Price))
	}
	return Money(p.Price)
}

func stockLabel(p product.Product) string {
	if !p.InStock() {
		return "out of stock"
	}
	return fmt.Sprintf("%d", p.Stock)
}

func describeQuery(q product.Query) string {
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.Search))
	}
	if q.Category != "" {
		parts = append(parts, "category "+q.Category)
	}
	if q.MinPrice.IsPositive() {
		parts = append(parts, "from "+Money(q.MinPrice))
	}
	if q.MaxPrice.IsPositive() {
		parts = append(parts, "up to "+Money(q.MaxPrice))
	}
	if q.MinRating > 0 {
		parts = append(parts, fmt.Sprintf("rating %.1f+", q.MinRating))
	}
	if q.Sort != "" && q.Sort != product.SortDefault {
		parts = append(parts, "sorted by "+string(q.Sort))
	}
	return strings.Join(parts, ", ")
}

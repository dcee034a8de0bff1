package view

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
)

// Cart lists the cart entries joined with the catalog. Prices and totals
// come from the snapshots kept on the entries.
type Cart struct {
	Items   []product.Item[cart.Entry]
	LoadErr error
}

func (v Cart) Render(w io.Writer) error {
	if v.LoadErr != nil {
		return v.LoadErr
	}
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "Your Cart is Empty")
		fmt.Fprintln(w, "Looks like you haven't added anything to your cart yet.")
		return nil
	}

	heading(w, "Your Cart")
	tw := newTable(w)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE\tSUBTOTAL\tNOTE")
	units := 0
	total := decimal.Zero
	for _, it := range v.Items {
		e := it.Entry
		units += e.Qty
		total = total.Add(e.Subtotal())
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.ProductID, truncate(e.Name, 32), e.Qty, Money(e.UnitPrice), Money(e.Subtotal()), itemNote(it.Degraded, it.Product, e.Qty))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d items, total %s\n", units, Money(total))
	return nil
}

func (v Cart) Fallback(w io.Writer, err error) {
	fallback(w, "Cart Error", "We couldn't load your cart. Please try refreshing.", err)
}

// Wishlist lists saved products joined with the catalog.
type Wishlist struct {
	Items   []product.Item[wishlist.Entry]
	LoadErr error
}

func (v Wishlist) Render(w io.Writer) error {
	if v.LoadErr != nil {
		return v.LoadErr
	}
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "Your Wishlist is Empty")
		return nil
	}

	heading(w, "Your Wishlist")
	tw := newTable(w)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tPRICE\tNOTE")
	for _, it := range v.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			it.Entry.ProductID, truncate(it.Product.Name, 32), Money(it.Product.EffectivePrice()), itemNote(it.Degraded, it.Product, 1))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d saved\n", len(v.Items))
	return nil
}

func (v Wishlist) Fallback(w io.Writer, err error) {
	fallback(w, "Wishlist Error", "We couldn't load your wishlist items.", err)
}

func itemNote(degraded bool, p product.Product, want int) string {
	switch {
	case degraded:
		return "details unavailable"
	case !p.InStock():
		return "out of stock"
	case p.Stock < want:
		return fmt.Sprintf("only %d left", p.Stock)
	}
	return ""
}

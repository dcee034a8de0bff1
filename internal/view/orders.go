package view

import (
	"errors"
	"fmt"
	"io"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/order"
)

var ErrNoCheckout = errors.New("no checkout in progress")

const dateLayout = "2006-01-02 15:04"

// CheckoutSummary shows the items about to be ordered and, once placed,
// the order and the outcome of every stock update.
type CheckoutSummary struct {
	Checkout *checkout.Checkout
	Result   *checkout.Result
}

func (v CheckoutSummary) Render(w io.Writer) error {
	var items []order.LineItem
	switch {
	case v.Result != nil:
		items = v.Result.Order.Items
	case v.Checkout != nil:
		items = v.Checkout.Items()
	default:
		return ErrNoCheckout
	}

	heading(w, "Order Summary")
	if err := lineItems(w, items); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total: %s\n", Money(order.Total(items)))

	if v.Result == nil {
		if v.Checkout.Source() == checkout.SourceBuyNow {
			fmt.Fprintln(w, "Buy now: your cart will not change.")
		}
		return nil
	}

	o := v.Result.Order
	fmt.Fprintf(w, "\nOrder %s placed (%s)\n", o.ID, o.Status)
	fmt.Fprintf(w, "Shipping to %s, %s\n", o.Customer.Name, o.Customer.Address)
	for _, f := range v.Result.StockFailures() {
		fmt.Fprintf(w, "warning: stock for %s was not updated: %v\n", f.ProductID, f.Err)
	}
	return nil
}

func (v CheckoutSummary) Fallback(w io.Writer, err error) {
	fallback(w, "Checkout Process Interrupted",
		"We encountered an issue with the checkout form. Your data is safe, but we need you to try again.", err)
}

// OrderHistory lists the signed-in user's orders.
type OrderHistory struct {
	Orders  []order.Order
	LoadErr error
}

func (v OrderHistory) Render(w io.Writer) error {
	if v.LoadErr != nil {
		return v.LoadErr
	}
	if len(v.Orders) == 0 {
		fmt.Fprintln(w, "No Orders Found")
		return nil
	}

	heading(w, "My Orders")
	for i, o := range v.Orders {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Order #%s  %s  %s  %s\n", shortID(o.ID), o.OrderDate.Format(dateLayout), o.Status, Money(o.Total))
		if err := lineItems(w, o.Items); err != nil {
			return err
		}
	}
	return nil
}

func (v OrderHistory) Fallback(w io.Writer, err error) {
	fallback(w, "Could not load your orders", "There was a problem fetching your order history.", err)
}

// AdminOrders is the back-office order table.
type AdminOrders struct {
	Orders  []order.Order
	Counts  map[order.Status]int
	LoadErr error
}

func (v AdminOrders) Render(w io.Writer) error {
	if v.LoadErr != nil {
		return v.LoadErr
	}
	heading(w, "All Orders")
	if len(v.Counts) > 0 {
		for i, st := range order.Statuses {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			fmt.Fprintf(w, "%s: %d", st, v.Counts[st])
		}
		fmt.Fprintln(w)
	}
	if len(v.Orders) == 0 {
		fmt.Fprintln(w, "No orders yet.")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ORDER\tDATE\tCUSTOMER\tEMAIL\tUNITS\tTOTAL\tSTATUS")
	for _, o := range v.Orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.OrderDate.Format(dateLayout), o.Customer.Name, o.Customer.Email, o.Units(), Money(o.Total), o.Status)
	}
	return tw.Flush()
}

func (v AdminOrders) Fallback(w io.Writer, err error) {
	fallback(w, "Failed to fetch orders", "The order list could not be loaded.", err)
}

// Users is the back-office user table. Self marks the signed-in admin.
type Users struct {
	Users   []auth.User
	Self    string
	LoadErr error
}

func (v Users) Render(w io.Writer) error {
	if v.LoadErr != nil {
		return v.LoadErr
	}
	heading(w, "Manage Users")
	if len(v.Users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS\t")
	for _, u := range v.Users {
		email := u.Email
		if email == "" {
			email = "N/A"
		}
		status := "Active"
		if u.Blocked {
			status = "Blocked"
		}
		note := ""
		if u.ID == v.Self {
			note = "Your Account"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, email, u.Role, status, note)
	}
	return tw.Flush()
}

func (v Users) Fallback(w io.Writer, err error) {
	fallback(w, "Failed to fetch users.", "The user list could not be loaded.", err)
}

func lineItems(w io.Writer, items []order.LineItem) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "  PRODUCT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%s\n",
			it.ProductID, truncate(it.Name, 32), it.Quantity, Money(it.Price), Money(it.Subtotal()))
	}
	return tw.Flush()
}

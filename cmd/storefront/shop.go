package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/collection"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/view"
)

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("login <username>")
	}
	password, err := a.readSecret("Password: ")
	if err != nil {
		return err
	}
	id, err := a.session.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", id.Username, id.Role)
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usagef("signup <username> <email>")
	}
	password, err := a.readSecret("Choose a password: ")
	if err != nil {
		return err
	}
	id, err := a.session.Signup(ctx, args[0], args[1], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! Your account is ready.\n", id.Username)
	return nil
}

func (a *app) logout(context.Context, []string) error {
	a.session.Logout()
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) whoami(context.Context, []string) error {
	id := a.session.Identity()
	if id == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s expires=%s\n", id.Username, id.Email, id.Role, id.ExpiresAt.Format(dateTime))
	return nil
}

const dateTime = "2006-01-02 15:04"

func (a *app) products(ctx context.Context, args []string) error {
	fs := subFlags("products", a.errOut)
	search := fs.String("q", "", "search product names")
	category := fs.String("category", "", "only this category")
	minPrice := fs.String("min-price", "", "lowest effective price")
	maxPrice := fs.String("max-price", "", "highest effective price")
	minRating := fs.Float64("min-rating", 0, "lowest rating")
	sortBy := fs.String("sort", "default", "default, price-asc, price-desc, rating-desc or newest")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", product.DefaultPerPage, "products per page")
	categories := fs.Bool("categories", false, "list the categories and exit")
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}

	sort, err := product.ParseSort(*sortBy)
	if err != nil {
		return usagef("%v", err)
	}
	q := product.Query{
		Search:    *search,
		Category:  *category,
		MinRating: *minRating,
		Sort:      sort,
		Page:      *page,
		PerPage:   *perPage,
	}
	if q.MinPrice, err = parseAmount(*minPrice); err != nil {
		return usagef("-min-price: %v", err)
	}
	if q.MaxPrice, err = parseAmount(*maxPrice); err != nil {
		return usagef("-max-price: %v", err)
	}

	all, err := a.catalog.List(ctx)
	if *categories {
		if err != nil {
			return err
		}
		for _, c := range product.Categories(all) {
			fmt.Fprintln(a.out, c)
		}
		return nil
	}
	if err != nil {
		return view.Boundary(a.out, view.ProductList{Query: q, LoadErr: err})
	}
	return view.Boundary(a.out, view.ProductList{Page: product.Browse(all, q), Query: q})
}

func (a *app) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("product <id>")
	}
	p, err := a.catalog.Get(ctx, args[0])
	detail := view.ProductDetail{Product: p, Err: err, Wishlisted: a.wishlist.Contains(args[0])}
	if e, ok := a.cart.Get(args[0]); ok {
		detail.InCart = e.Qty
	}
	return view.Boundary(a.out, detail)
}

// ============================================
// Cart
// ============================================

func (a *app) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.showCart(ctx)
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return usagef("cart add <product> [qty]")
		}
		qty := 1
		if len(rest) == 2 {
			n, err := strconv.Atoi(rest[1])
			if err != nil || n <= 0 {
				return usagef("quantity must be a positive number")
			}
			qty = n
		}
		p, err := a.catalog.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.settleCart(ctx, func() (*collection.Pending, error) { return a.cart.Add(ctx, *p, qty) })

	case "set":
		if len(rest) != 2 {
			return usagef("cart set <product> <qty>")
		}
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			return usagef("quantity must be a number")
		}
		p, err := a.catalog.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		return a.settleCart(ctx, func() (*collection.Pending, error) { return a.cart.SetQuantity(ctx, *p, n) })

	case "dec":
		if len(rest) != 1 {
			return usagef("cart dec <product>")
		}
		return a.settleCart(ctx, func() (*collection.Pending, error) { return a.cart.Decrement(ctx, rest[0]) })

	case "remove":
		if len(rest) != 1 {
			return usagef("cart remove <product>")
		}
		if _, ok := a.cart.Get(rest[0]); !ok {
			fmt.Fprintf(a.out, "%s is not in your cart.\n", rest[0])
			return nil
		}
		return a.settleCart(ctx, func() (*collection.Pending, error) { return a.cart.Remove(ctx, rest[0]) })

	case "clear":
		return a.settleCart(ctx, func() (*collection.Pending, error) { return a.cart.Clear(ctx) })
	}
	return usagef("unknown cart command %q", sub)
}

// settleCart runs a cart mutation and waits for its outcome. A stock
// correction from the server is not a failure; the notifier already told
// the user what changed.
func (a *app) settleCart(ctx context.Context, mutate func() (*collection.Pending, error)) error {
	p, err := mutate()
	if err != nil {
		return err
	}
	err = p.Wait(ctx)
	var conflict *collection.ConflictError[cart.Entry]
	if errors.As(err, &conflict) {
		err = nil
	}
	if err != nil {
		return err
	}
	return a.showCart(ctx)
}

func (a *app) showCart(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	items := product.Enrich(ctx, a.catalog, a.cart.Entries())
	_ = view.Boundary(a.out, view.Cart{Items: items, LoadErr: a.cart.LoadErr()})
	return nil
}

// ============================================
// Wishlist
// ============================================

func (a *app) wishlistCmd(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return a.showWishlist(ctx)
	}

	sub, rest := args[0], args[1:]
	if len(rest) != 1 {
		return usagef("wishlist %s <product>", sub)
	}
	id := rest[0]

	var (
		p   *collection.Pending
		err error
	)
	switch sub {
	case "add", "toggle":
		prod, gerr := a.catalog.Get(ctx, id)
		if gerr != nil {
			return gerr
		}
		if sub == "add" {
			p, err = a.wishlist.Add(ctx, *prod)
		} else {
			p, err = a.wishlist.Toggle(ctx, *prod)
		}
	case "remove":
		p, err = a.wishlist.Remove(ctx, id)
	case "move":
		prod, gerr := a.catalog.Get(ctx, id)
		if gerr != nil {
			return gerr
		}
		if err := a.wishlist.MoveToCart(ctx, a.cart, *prod); err != nil {
			return err
		}
		a.cart.Wait()
		a.wishlist.Wait()
		return a.showWishlist(ctx)
	default:
		return usagef("unknown wishlist command %q", sub)
	}
	if err != nil {
		return err
	}
	if err := p.Wait(ctx); err != nil {
		return err
	}
	return a.showWishlist(ctx)
}

func (a *app) showWishlist(ctx context.Context) error {
	items := product.Enrich(ctx, a.catalog, a.wishlist.Entries())
	_ = view.Boundary(a.out, view.Wishlist{Items: items, LoadErr: a.wishlist.LoadErr()})
	return nil
}

// ============================================
// Checkout / Orders
// ============================================

func (a *app) checkoutCmd(ctx context.Context, args []string) error {
	fs := subFlags("checkout", a.errOut)
	buyNow := fs.String("buy-now", "", "comma separated product[:qty] to buy without the cart")
	exclude := fs.String("exclude", "", "comma separated products to leave out of this order")
	name := fs.String("name", "", "recipient name (default: your username)")
	email := fs.String("email", "", "contact email (default: your account email)")
	address := fs.String("address", "", "shipping address")
	payment := fs.String("payment", string(order.PaymentCard), "card or cod")
	dryRun := fs.Bool("dry-run", false, "show the summary without placing the order")
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	id := a.session.Identity()

	var items []order.LineItem
	for _, item := range splitList(*buyNow) {
		pid, qty, err := parseBuyNow(item)
		if err != nil {
			return usagef("-buy-now: %v", err)
		}
		p, err := a.catalog.Get(ctx, pid)
		if err != nil {
			return err
		}
		li, err := checkout.BuyNow(*p, qty)
		if err != nil {
			return err
		}
		items = append(items, li)
	}

	co, err := a.checkout.Begin(items...)
	if err != nil {
		return err
	}
	for _, pid := range splitList(*exclude) {
		co.Remove(pid)
	}
	if *dryRun {
		return view.Boundary(a.out, view.CheckoutSummary{Checkout: co})
	}

	info := order.CustomerInfo{
		Name:          *name,
		Email:         *email,
		Address:       *address,
		PaymentMethod: order.PaymentMethod(strings.ToLower(*payment)),
	}
	if info.Name == "" {
		info.Name = id.Username
	}
	if info.Email == "" {
		info.Email = id.Email
	}

	result, err := a.checkout.Place(ctx, id, co, info)
	if err != nil {
		return err
	}
	a.cart.Wait()
	_ = view.Boundary(a.out, view.CheckoutSummary{Result: result})
	return nil
}

func (a *app) ordersCmd(ctx context.Context, _ []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	orders, err := order.NewHistory(a.client).List(ctx)
	_ = view.Boundary(a.out, view.OrderHistory{Orders: orders, LoadErr: err})
	return nil
}

func parseBuyNow(arg string) (string, int, error) {
	pid, qtyStr, found := strings.Cut(arg, ":")
	if pid == "" {
		return "", 0, errors.New("product id is required")
	}
	if !found {
		return pid, 1, nil
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil || qty <= 0 {
		return "", 0, fmt.Errorf("bad quantity %q", qtyStr)
	}
	return pid, qty, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("must not be negative")
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/view"
)

func (a *app) adminCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("admin <orders|status|users|block|unblock|delete-user|user-orders|product|stock>")
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "orders":
		return a.adminOrders(rest)
	case "status":
		if len(rest) != 2 {
			return usagef("admin status <order> <status>")
		}
		status, err := order.ParseStatus(rest[1])
		if err != nil {
			return usagef("%v (want one of %v)", err, order.Statuses)
		}
		p, err := a.orders.SetStatus(ctx, rest[0], status)
		if err != nil {
			return err
		}
		if err := p.Wait(ctx); err != nil {
			return err
		}
		o, _ := a.orders.Get(rest[0])
		fmt.Fprintf(a.out, "Order %s is now %s\n", o.ID, o.Status)
		return nil
	case "users":
		fs := subFlags("admin users", a.errOut)
		term := fs.String("q", "", "search by name or email")
		if err := fs.Parse(rest); err != nil {
			return usagef("%v", err)
		}
		return view.Boundary(a.out, view.Users{
			Users:   a.users.Filter(*term),
			Self:    a.session.Identity().UserID,
			LoadErr: a.users.LoadErr(),
		})
	case "block", "unblock":
		if len(rest) != 1 {
			return usagef("admin %s <user>", sub)
		}
		return a.users.SetBlocked(ctx, rest[0], sub == "block")
	case "delete-user":
		if len(rest) != 1 {
			return usagef("admin delete-user <user>")
		}
		return a.users.Delete(ctx, rest[0])
	case "user-orders":
		if len(rest) != 1 {
			return usagef("admin user-orders <user>")
		}
		orders, err := a.users.Orders(ctx, rest[0])
		return view.Boundary(a.out, view.OrderHistory{Orders: orders, LoadErr: err})
	case "product":
		return a.adminProduct(ctx, rest)
	case "stock":
		if len(rest) != 2 {
			return usagef("admin stock <product> <stock>")
		}
		n, err := strconv.Atoi(rest[1])
		if err != nil || n < 0 {
			return usagef("stock must be zero or more")
		}
		p, err := a.client.UpdateProductStock(ctx, rest[0], n)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Stock of %s set to %d\n", p.ID, p.Stock)
		return nil
	}
	return usagef("unknown admin command %q", sub)
}

func (a *app) adminOrders(args []string) error {
	fs := subFlags("admin orders", a.errOut)
	status := fs.String("status", "", "only orders with this status")
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}

	orders := a.orders.Orders()
	if *status != "" {
		st, err := order.ParseStatus(*status)
		if err != nil {
			return usagef("%v", err)
		}
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == st {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	return view.Boundary(a.out, view.AdminOrders{
		Orders:  orders,
		Counts:  a.orders.CountByStatus(),
		LoadErr: a.orders.LoadErr(),
	})
}

func (a *app) adminProduct(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("admin product <add|update|delete>")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "delete":
		if len(rest) != 1 {
			return usagef("admin product delete <id>")
		}
		if err := a.client.DeleteProduct(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Product %s deleted\n", rest[0])
		return nil
	case "add", "update":
	default:
		return usagef("unknown product command %q", sub)
	}

	fs := subFlags("admin product "+sub, a.errOut)
	id := fs.String("id", "", "product id (update only)")
	name := fs.String("name", "", "product name")
	description := fs.String("description", "", "description")
	category := fs.String("category", "", "category")
	price := fs.String("price", "", "list price")
	discount := fs.String("discount", "", "discounted price")
	stock := fs.Int("stock", 0, "units in stock")
	rating := fs.Float64("rating", 0, "rating")
	image := fs.String("image", "", "image URL or path")
	if err := fs.Parse(rest); err != nil {
		return usagef("%v", err)
	}

	p := product.Product{
		ID:          *id,
		Name:        *name,
		Description: *description,
		Category:    *category,
		Stock:       *stock,
		Rating:      *rating,
		Image:       *image,
	}
	var err error
	if p.Price, err = parseAmount(*price); err != nil {
		return usagef("-price: %v", err)
	}
	if *discount != "" {
		d, err := decimal.NewFromString(*discount)
		if err != nil {
			return usagef("-discount: %v", err)
		}
		p.DiscountedPrice = &d
	}
	if err := p.Validate(); err != nil {
		return usagef("%v", err)
	}

	var saved *product.Product
	if sub == "add" {
		saved, err = a.client.CreateProduct(ctx, p)
	} else {
		if p.ID == "" {
			return usagef("-id is required")
		}
		saved, err = a.client.ReplaceProduct(ctx, p)
	}
	if err != nil {
		return err
	}
	return view.Boundary(a.out, view.ProductDetail{Product: saved})
}

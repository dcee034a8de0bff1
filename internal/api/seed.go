package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/product"
)

type seedUser struct {
	id, username, email, password, role string
}

var demoUsers = []seedUser{
	{"user-admin", "admin", "admin@example.com", "admin1234", auth.RoleAdmin},
	{"user-shopper", "shopper", "shopper@example.com", "shopper123", auth.RoleUser},
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func discount(s string) *decimal.Decimal {
	d := price(s)
	return &d
}

var demoProducts = []product.Product{
	{ID: "p-100", Slug: "classic-white-tee", Name: "Classic White Tee", Category: "T-Shirts", Price: price("499"), Stock: 25, Rating: 4.3, Image: "images/classic-white-tee.jpg"},
	{ID: "p-101", Slug: "graphic-print-tee", Name: "Graphic Print Tee", Category: "T-Shirts", Price: price("699"), DiscountedPrice: discount("549"), Stock: 12, Rating: 4.6, Image: "images/graphic-print-tee.jpg"},
	{ID: "p-102", Slug: "slim-fit-jeans", Name: "Slim Fit Jeans", Category: "Jeans", Price: price("1499"), Stock: 8, Rating: 4.1, Image: "images/slim-fit-jeans.jpg"},
	{ID: "p-103", Slug: "relaxed-cargo-pants", Name: "Relaxed Cargo Pants", Category: "Pants", Price: price("1299"), DiscountedPrice: discount("999"), Stock: 5, Rating: 3.9, Image: "images/relaxed-cargo-pants.jpg"},
	{ID: "p-104", Slug: "denim-jacket", Name: "Denim Jacket", Category: "Jackets", Price: price("2499"), Stock: 3, Rating: 4.8, Image: "images/denim-jacket.jpg"},
	{ID: "p-105", Slug: "hooded-sweatshirt", Name: "Hooded Sweatshirt", Category: "Hoodies", Price: price("1199"), Stock: 0, Rating: 4.4, Image: "images/hooded-sweatshirt.jpg"},
	{ID: "p-106", Slug: "linen-shirt", Name: "Linen Shirt", Category: "Shirts", Price: price("999"), Stock: 14, Rating: 4.0, Image: "images/linen-shirt.jpg"},
	{ID: "p-107", Slug: "oxford-shirt", Name: "Oxford Shirt", Category: "Shirts", Price: price("1099"), DiscountedPrice: discount("899"), Stock: 9, Rating: 4.5, Image: "images/oxford-shirt.jpg"},
	{ID: "p-108", Slug: "running-shorts", Name: "Running Shorts", Category: "Shorts", Price: price("599"), Stock: 30, Rating: 3.7, Image: "images/running-shorts.jpg"},
	{ID: "p-109", Slug: "wool-overcoat", Name: "Wool Overcoat", Category: "Jackets", Price: price("5999"), Stock: 2, Rating: 4.9, Image: "images/wool-overcoat.jpg"},
}

// Seed stores the demo accounts and products. Documents that already exist
// are left alone, so a Postgres database keeps its state across restarts.
func (s *Server) Seed(ctx context.Context) error {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, su := range demoUsers {
		if _, ok := s.lookupUser(ctx, su.id); ok {
			continue
		}
		hash, err := auth.HashPasswordFast(su.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", su.username, err)
		}
		acc := account{
			User:         auth.User{ID: su.id, Username: su.username, Email: su.email, Role: su.role},
			PasswordHash: hash,
			CreatedAt:    base,
		}
		if err := s.store.Put(ctx, colUsers, acc.ID, acc); err != nil {
			return fmt.Errorf("seed user %s: %w", su.username, err)
		}
	}

	for i, p := range demoProducts {
		if _, err := s.store.Get(ctx, colProducts, p.ID); err == nil {
			continue
		}
		p.Description = p.Name + " from the demo catalog."
		p.CreatedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		if err := s.store.Put(ctx, colProducts, p.ID, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}

	s.logger.Printf("[API] Seeded %d users and %d products", len(demoUsers), len(demoProducts))
	return nil
}

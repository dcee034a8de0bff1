package product

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidStock    = errors.New("stock cannot be negative")
)

type Product struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug,omitempty"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Category        string           `json:"category,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Stock           int              `json:"stock"`
	Rating          float64          `json:"rating"`
	Image           string           `json:"image,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// EffectivePrice is the price a buyer pays: the discounted price when one
// is set, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil && p.DiscountedPrice.IsPositive() {
		return *p.DiscountedPrice
	}
	return p.Price
}

// StockCeiling is the largest quantity of p a cart may hold.
func (p Product) StockCeiling() int {
	if p.Stock < 0 {
		return 0
	}
	return p.Stock
}

func (p Product) InStock() bool { return p.Stock > 0 }

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

package product

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultPerPage = 8

type Sort string

const (
	SortDefault    Sort = "default"
	SortPriceAsc   Sort = "price-asc"
	SortPriceDesc  Sort = "price-desc"
	SortRatingDesc Sort = "rating-desc"
	SortNewest     Sort = "newest"
)

func ParseSort(s string) (Sort, error) {
	switch v := Sort(strings.ToLower(strings.TrimSpace(s))); v {
	case "", SortDefault:
		return SortDefault, nil
	case SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNewest:
		return v, nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// Query filters, orders and pages a product list. Zero values disable a
// filter: an empty Category matches every category and a zero MaxPrice has
// no upper bound.
type Query struct {
	Search    string
	Category  string
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	MinRating float64
	Sort      Sort
	Page      int
	PerPage   int
}

type Page struct {
	Products []Product
	Total    int // products matching the filters
	Page     int
	Pages    int
}

// Browse applies q to products. Prices are compared on the effective
// price. The page number is clamped into range.
func Browse(products []Product, q Query) Page {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		price := p.EffectivePrice()
		if price.LessThan(q.MinPrice) {
			continue
		}
		if !q.MaxPrice.IsZero() && price.GreaterThan(q.MaxPrice) {
			continue
		}
		if p.Rating < q.MinRating {
			continue
		}
		matched = append(matched, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(matched, func(a, b Product) int {
			return a.EffectivePrice().Cmp(b.EffectivePrice())
		})
	case SortPriceDesc:
		slices.SortStableFunc(matched, func(a, b Product) int {
			return b.EffectivePrice().Cmp(a.EffectivePrice())
		})
	case SortRatingDesc:
		slices.SortStableFunc(matched, func(a, b Product) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case SortNewest:
		slices.SortStableFunc(matched, func(a, b Product) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	pages := (len(matched) + perPage - 1) / perPage
	page := max(q.Page, 1)
	if pages > 0 && page > pages {
		page = pages
	}

	start := min((page-1)*perPage, len(matched))
	end := min(start+perPage, len(matched))

	return Page{
		Products: matched[start:end],
		Total:    len(matched),
		Page:     page,
		Pages:    pages,
	}
}

// Categories lists the distinct non-empty categories in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

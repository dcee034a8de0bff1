package collection

import (
	"context"
	"math"
)

// Unbounded is a stock ceiling that never rejects.
const Unbounded = math.MaxInt

// Upsert adds entry to c, or increases the quantity of the entry with the
// same key by entry.Quantity(). The resulting quantity must not exceed
// ceiling; otherwise the call fails with a *StockError before any state
// change.
func Upsert[E Quantified[E]](ctx context.Context, c *Collection[E], entry E, ceiling int) (*Pending, error) {
	key := entry.Key()
	delta := entry.Quantity()
	if delta <= 0 {
		c.reject(ActionAdd, key, ErrInvalidQuantity)
		return nil, ErrInvalidQuantity
	}

	return c.Mutate(ctx, ActionAdd, key, func(current []E) ([]E, error) {
		i := indexOf(current, key)
		if i < 0 {
			if delta > ceiling {
				return nil, &StockError{Key: key, Requested: delta, Available: ceiling}
			}
			return append(current, entry), nil
		}
		next := addQuantity(current[i].Quantity(), delta)
		if next > ceiling {
			return nil, &StockError{Key: key, Requested: next, Available: ceiling}
		}
		current[i] = current[i].WithQuantity(next)
		return current, nil
	})
}

// addQuantity saturates at math.MaxInt instead of wrapping.
func addQuantity(have, delta int) int {
	if delta > math.MaxInt-have {
		return math.MaxInt
	}
	return have + delta
}

// SetQuantity replaces the quantity of the entry with key. n <= 0 removes
// the entry. Setting an absent key, or the quantity it already has, is a
// no-op.
func SetQuantity[E Quantified[E]](ctx context.Context, c *Collection[E], key string, n, ceiling int) (*Pending, error) {
	if n <= 0 {
		return c.Remove(ctx, key)
	}

	return c.Mutate(ctx, ActionUpdate, key, func(current []E) ([]E, error) {
		i := indexOf(current, key)
		if i < 0 || current[i].Quantity() == n {
			return nil, ErrNoChange
		}
		if n > ceiling {
			return nil, &StockError{Key: key, Requested: n, Available: ceiling}
		}
		current[i] = current[i].WithQuantity(n)
		return current, nil
	})
}

// Remove deletes the entry with key. An absent key is a no-op.
func (c *Collection[E]) Remove(ctx context.Context, key string) (*Pending, error) {
	return c.Mutate(ctx, ActionRemove, key, func(current []E) ([]E, error) {
		i := indexOf(current, key)
		if i < 0 {
			return nil, ErrNoChange
		}
		return append(current[:i], current[i+1:]...), nil
	})
}

// Clear empties the collection. Clearing an empty collection is a no-op.
func (c *Collection[E]) Clear(ctx context.Context) (*Pending, error) {
	return c.Mutate(ctx, ActionClear, "", func(current []E) ([]E, error) {
		if len(current) == 0 {
			return nil, ErrNoChange
		}
		return []E{}, nil
	})
}

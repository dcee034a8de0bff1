package collection

import (
	"errors"
	"fmt"
)

var (
	ErrAnonymous       = errors.New("no authenticated identity")
	ErrStockExceeded   = errors.New("requested quantity exceeds available stock")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrNoChange is returned by a mutation function to signal that the
	// collection is already in the desired state.
	ErrNoChange = errors.New("no change")
	// ErrStale resolves a Pending whose collection was reset or reloaded
	// before the remote call returned; its outcome was discarded.
	ErrStale = errors.New("collection changed identity while the change was in flight")
)

// SyncError is a rejected remote call. The collection was rolled back to
// the snapshot taken before the mutation.
type SyncError struct {
	Action Action
	Key    string
	Err    error
}

func (e *SyncError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("sync %s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("sync %s %s: %v", e.Action, e.Key, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// ConflictError is a partial success: the server accepted the change but
// corrected some entries, typically clamping a quantity to the stock that
// was actually left. Corrected entries replace local entries with the same
// key and Removed keys are dropped.
type ConflictError[E Entry] struct {
	Corrected []E
	Removed   []string
	Reason    string
}

func (e *ConflictError[E]) Error() string {
	if e.Reason != "" {
		return "server corrected collection: " + e.Reason
	}
	return "server corrected collection"
}

// StockError reports an Upsert or SetQuantity rejected before any state
// change. It matches ErrStockExceeded with errors.Is.
type StockError struct {
	Key       string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d in stock for %s, requested %d", e.Available, e.Key, e.Requested)
}

func (e *StockError) Is(target error) bool { return target == ErrStockExceeded }

// stockConflict is implemented by transport errors that report how many
// units the server actually had.
type stockConflict interface {
	Available() (int, bool)
}

// AvailableStock extracts the stock the server reported with a rejected
// write, if any.
func AvailableStock(err error) (int, bool) {
	var sc stockConflict
	if errors.As(err, &sc) {
		return sc.Available()
	}
	return 0, false
}

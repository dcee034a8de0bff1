package collection

import "context"

// Pending is the outcome of one optimistic mutation. It resolves once the
// remote call returned and the collection settled.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolvedPending is used for mutations that needed no remote call.
func resolvedPending(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed when the mutation settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the outcome after Done is closed: nil on success, a
// *ConflictError when the server corrected entries, a *SyncError after a
// rollback, or ErrStale.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the mutation settled or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

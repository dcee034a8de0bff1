// Package user is the back-office user directory: listing accounts,
// blocking them and deleting them.
package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/notify"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrSelf         = errors.New("admins cannot change their own account here")
	ErrNotAdmin     = errors.New("admin access required")
)

// Remote is the user administration service.
type Remote interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
	SetUserBlocked(ctx context.Context, userID string, blocked bool) (*auth.User, error)
	DeleteUser(ctx context.Context, userID string) error
	ListUserOrders(ctx context.Context, userID string) ([]order.Order, error)
}

// Directory holds the accounts an admin manages. Changes wait for the
// server before the local list is updated.
type Directory struct {
	remote   Remote
	notifier notify.Notifier
	logger   *log.Logger

	mu      sync.RWMutex
	admin   *auth.Identity
	users   []auth.User
	loadErr error
}

func NewDirectory(remote Remote, notifier notify.Notifier, logger *log.Logger) *Directory {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Directory{remote: remote, notifier: notifier, logger: logger}
}

// Load fetches every account when id is an admin. Other identities get an
// empty directory.
func (d *Directory) Load(ctx context.Context, id *auth.Identity) error {
	d.Reset()
	if !id.IsAdmin() {
		return nil
	}

	users, err := d.remote.ListUsers(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.admin = id
	if err != nil {
		d.logger.Printf("[Users] Failed to fetch users: %v", err)
		d.loadErr = fmt.Errorf("list users: %w", err)
		return d.loadErr
	}
	d.users = users
	return nil
}

// LoadErr is the error of the last Load, if it failed.
func (d *Directory) LoadErr() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadErr
}

func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admin = nil
	d.users = nil
	d.loadErr = nil
}

// Users returns a copy of every loaded account.
func (d *Directory) Users() []auth.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]auth.User(nil), d.users...)
}

// Filter returns the accounts whose username or email contains term,
// ignoring case. An empty term matches everyone.
func (d *Directory) Filter(term string) []auth.User {
	term = strings.ToLower(strings.TrimSpace(term))
	users := d.Users()
	if term == "" {
		return users
	}
	var out []auth.User
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), term) ||
			strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	return out
}

// IsSelf reports whether userID is the signed-in admin.
func (d *Directory) IsSelf(userID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.admin != nil && d.admin.UserID == userID
}

// SetBlocked blocks or unblocks userID. A blocked user is signed out on
// their next request.
func (d *Directory) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	action := "block"
	if !blocked {
		action = "unblock"
	}
	if err := d.check(userID); err != nil {
		d.fail(action, "Failed to "+action+" user.", err)
		return err
	}

	updated, err := d.remote.SetUserBlocked(ctx, userID, blocked)
	if err != nil {
		d.logger.Printf("[Users] Failed to %s user %s: %v", action, userID, err)
		d.fail(action, "Failed to "+action+" user.", err)
		return fmt.Errorf("%s user: %w", action, err)
	}

	d.mu.Lock()
	for i := range d.users {
		if d.users[i].ID == userID {
			if updated != nil && updated.ID == userID {
				d.users[i] = *updated
			}
			d.users[i].Blocked = blocked
		}
	}
	d.mu.Unlock()

	d.logger.Printf("[Users] User %s %sed", userID, action)
	d.notifier.Notify(notify.Notification{
		Level:   notify.LevelSuccess,
		Topic:   "users",
		Action:  action,
		Message: "User has been " + action + "ed successfully!",
	})
	return nil
}

// Delete removes userID permanently.
func (d *Directory) Delete(ctx context.Context, userID string) error {
	if err := d.check(userID); err != nil {
		d.fail("delete", "Failed to delete user.", err)
		return err
	}
	if err := d.remote.DeleteUser(ctx, userID); err != nil {
		d.logger.Printf("[Users] Failed to delete user %s: %v", userID, err)
		d.fail("delete", "Failed to delete user.", err)
		return fmt.Errorf("delete user: %w", err)
	}

	d.mu.Lock()
	for i := range d.users {
		if d.users[i].ID == userID {
			d.users = append(d.users[:i], d.users[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	d.logger.Printf("[Users] User %s deleted", userID)
	d.notifier.Notify(notify.Notification{
		Level:   notify.LevelSuccess,
		Topic:   "users",
		Action:  "delete",
		Message: "User deleted successfully!",
	})
	return nil
}

// Orders returns the order history of userID, newest first.
func (d *Directory) Orders(ctx context.Context, userID string) ([]order.Order, error) {
	orders, err := d.remote.ListUserOrders(ctx, userID)
	if err != nil {
		d.fail("orders", "Could not load user orders.", err)
		return nil, fmt.Errorf("list orders of %s: %w", userID, err)
	}
	order.SortNewestFirst(orders)
	return orders, nil
}

func (d *Directory) check(userID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.admin == nil {
		return ErrNotAdmin
	}
	if d.admin.UserID == userID {
		return ErrSelf
	}
	for _, u := range d.users {
		if u.ID == userID {
			return nil
		}
	}
	return ErrUserNotFound
}

func (d *Directory) fail(action, msg string, err error) {
	d.notifier.Notify(notify.Notification{
		Level:   notify.LevelFailure,
		Topic:   "users",
		Action:  action,
		Message: msg,
		Err:     err,
	})
}

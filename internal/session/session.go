package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/client"
)

var (
	ErrBlocked            = errors.New("You were blocked by admin.")
	ErrInvalidCredentials = errors.New("Invalid username or password.")
	ErrUsernameTaken      = errors.New("Username is already taken.")
)

// Backend is the part of the REST API the session talks to.
type Backend interface {
	Login(ctx context.Context, username, password string) (*client.Token, error)
	Register(ctx context.Context, username, email, password string) (*client.Token, error)
	Me(ctx context.Context) (*auth.User, error)
}

// Store is a collection scoped to the signed-in identity.
type Store interface {
	Load(ctx context.Context, id *auth.Identity) error
	Reset()
}

// Session owns the current identity and keeps the scoped stores in step
// with it: they are loaded at login and reset at logout.
type Session struct {
	backend Backend
	tokens  TokenStore
	logger  *log.Logger

	mu       sync.RWMutex
	identity *auth.Identity
	stores   []Store
}

func New(backend Backend, tokens TokenStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Session{backend: backend, tokens: tokens, logger: logger}
}

// Attach registers stores that follow the identity.
func (s *Session) Attach(stores ...Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = append(s.stores, stores...)
}

func (s *Session) Identity() *auth.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) IsAdmin() bool { return s.Identity().IsAdmin() }

// AccessToken implements client.TokenSource.
func (s *Session) AccessToken() string {
	if id := s.Identity(); id != nil {
		return id.Token
	}
	return ""
}

func (s *Session) Login(ctx context.Context, username, password string) (*auth.Identity, error) {
	tok, err := s.backend.Login(ctx, username, password)
	switch {
	case errors.Is(err, client.ErrForbidden):
		return nil, ErrBlocked
	case errors.Is(err, client.ErrUnauthorized):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.begin(ctx, tok)
}

// Signup creates a shopper account and signs it in.
func (s *Session) Signup(ctx context.Context, username, email, password string) (*auth.Identity, error) {
	tok, err := s.backend.Register(ctx, username, email, password)
	var httpErr *client.HTTPError
	switch {
	case errors.As(err, &httpErr) && httpErr.Status == http.StatusConflict:
		return nil, ErrUsernameTaken
	case errors.As(err, &httpErr) && httpErr.Message != "":
		return nil, errors.New(httpErr.Message)
	case err != nil:
		return nil, fmt.Errorf("signup: %w", err)
	}
	return s.begin(ctx, tok)
}

func (s *Session) begin(ctx context.Context, tok *client.Token) (*auth.Identity, error) {
	if tok.User.Blocked {
		return nil, ErrBlocked
	}
	id, err := auth.ParseIdentity(tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.setIdentity(id)
	if err := s.tokens.Save(id.Token); err != nil {
		s.logger.Printf("[Session] Failed to persist token: %v", err)
	}
	s.logger.Printf("[Session] Signed in as %s (%s)", id.Username, id.Role)
	s.loadStores(ctx, id)
	return id, nil
}

// Restore signs back in with a persisted token. Expired or unreadable
// tokens are discarded and the session stays anonymous.
func (s *Session) Restore(ctx context.Context) (*auth.Identity, error) {
	token, err := s.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	id, err := auth.ParseIdentity(token)
	if err != nil {
		s.logger.Printf("[Session] Discarding stored token: %v", err)
		s.discardToken()
		return nil, nil
	}

	s.setIdentity(id)
	u, err := s.backend.Me(ctx)
	switch {
	case errors.Is(err, client.ErrForbidden) || (err == nil && u.Blocked):
		s.Logout()
		return nil, ErrBlocked
	case errors.Is(err, client.ErrUnauthorized):
		s.Logout()
		return nil, nil
	case err != nil:
		// Backend unreachable: keep the identity, stores record the load error.
		s.logger.Printf("[Session] Could not verify account: %v", err)
	}

	s.loadStores(ctx, id)
	return id, nil
}

// Logout clears the identity, resets every store and forgets the token.
func (s *Session) Logout() {
	s.mu.Lock()
	s.identity = nil
	stores := append([]Store(nil), s.stores...)
	s.mu.Unlock()

	for _, st := range stores {
		st.Reset()
	}
	s.discardToken()
}

func (s *Session) setIdentity(id *auth.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
}

func (s *Session) loadStores(ctx context.Context, id *auth.Identity) {
	s.mu.RLock()
	stores := append([]Store(nil), s.stores...)
	s.mu.RUnlock()

	for _, st := range stores {
		if err := st.Load(ctx, id); err != nil {
			s.logger.Printf("[Session] Failed to load store: %v", err)
		}
	}
}

func (s *Session) discardToken() {
	if err := s.tokens.Delete(); err != nil {
		s.logger.Printf("[Session] Failed to delete token: %v", err)
	}
}

package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/infrastructure/store"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents the authentication response
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        auth.User `json:"user"`
}

// Login handles user login
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acc, err := s.findAccount(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Invalid username or password.", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.internalError(w, "find account", err)
		return
	}

	if !auth.CheckPassword(req.Password, acc.PasswordHash) {
		respondJSONError(w, "Invalid username or password.", http.StatusUnauthorized)
		return
	}

	// Check if user is blocked
	if acc.Blocked {
		respondJSONError(w, middleware.BlockedMessage, http.StatusForbidden)
		return
	}

	s.respondToken(w, http.StatusOK, acc.User)
}

// Register creates a shopper account and logs it in
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" {
		respondJSONError(w, "Username is required.", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondJSONError(w, "Please enter a valid email address.", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findAccount(r.Context(), req.Username); err == nil {
		respondJSONError(w, "Username is already taken.", http.StatusConflict)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.internalError(w, "find account", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	var weak *auth.PasswordError
	if errors.As(err, &weak) {
		respondJSONError(w, weak.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}

	acc := account{
		User: auth.User{
			ID:       uuid.NewString(),
			Username: req.Username,
			Email:    req.Email,
			Role:     auth.RoleUser,
		},
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.Put(r.Context(), colUsers, acc.ID, acc); err != nil {
		s.internalError(w, "save account", err)
		return
	}
	s.logger.Printf("[API] Registered user %s", acc.Username)

	s.respondToken(w, http.StatusCreated, acc.User)
}

// Me returns the current authenticated user's information
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookupUser(r.Context(), middleware.UserID(r.Context()))
	if !ok {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) respondToken(w http.ResponseWriter, status int, u auth.User) {
	token, expiresAt, err := s.jwt.Issue(u)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}
	respondJSON(w, status, TokenResponse{AccessToken: token, ExpiresAt: expiresAt, User: u})
}

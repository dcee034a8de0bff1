package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/infrastructure/store"
)

const (
	colUsers     = "users"
	colProducts  = "products"
	colCarts     = "carts"
	colWishlists = "wishlists"
	colOrders    = "orders"
)

// account is a user as the backend stores it
type account struct {
	auth.User
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type cartDoc struct {
	UserID string       `json:"user_id"`
	Items  []cart.Entry `json:"items"`
}

type wishlistDoc struct {
	UserID string           `json:"user_id"`
	Items  []wishlist.Entry `json:"items"`
}

// Server is the development implementation of the storefront REST API.
type Server struct {
	store  store.DocumentStore
	jwt    *auth.JWTService
	logger *log.Logger
	now    func() time.Time

	// mu serialises read-modify-write cycles on documents
	mu sync.Mutex
}

func NewServer(docs store.DocumentStore, jwtService *auth.JWTService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		store:  docs,
		jwt:    jwtService,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Server) lookupUser(ctx context.Context, userID string) (auth.User, bool) {
	acc, err := store.GetAs[account](ctx, s.store, colUsers, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Printf("[API] Error loading user %s: %v", userID, err)
		}
		return auth.User{}, false
	}
	return acc.User, true
}

func (s *Server) findAccount(ctx context.Context, username string) (*account, error) {
	accounts, err := store.AllAs[account](ctx, s.store, colUsers)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Username, username) {
			return &accounts[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Server) loadCart(ctx context.Context, userID string) (*cartDoc, error) {
	doc, err := store.GetAs[cartDoc](ctx, s.store, colCarts, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &cartDoc{UserID: userID, Items: []cart.Entry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Items == nil {
		doc.Items = []cart.Entry{}
	}
	return doc, nil
}

func (s *Server) loadWishlist(ctx context.Context, userID string) (*wishlistDoc, error) {
	doc, err := store.GetAs[wishlistDoc](ctx, s.store, colWishlists, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &wishlistDoc{UserID: userID, Items: []wishlist.Entry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Items == nil {
		doc.Items = []wishlist.Entry{}
	}
	return doc, nil
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStockConflict tells the client how many units it may hold
func respondStockConflict(w http.ResponseWriter, available int) {
	respondJSON(w, http.StatusConflict, map[string]any{
		"error":     "Not enough stock",
		"available": available,
	})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Printf("[API] %s: %v", op, err)
	respondJSONError(w, "internal error", http.StatusInternalServerError)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func extractPathParam(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

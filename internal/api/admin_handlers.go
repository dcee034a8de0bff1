package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
)

// Admin Handlers

func (s *Server) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.ordersOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		s.internalError(w, "list orders", err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus changes only the status of an order. Any status may
// follow any other.
func (s *Server) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/admin/orders/")
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := store.GetAs[order.Order](r.Context(), s.store, colOrders, id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get order", err)
		return
	}
	o.Status = status
	if err := s.store.Put(r.Context(), colOrders, o.ID, o); err != nil {
		s.internalError(w, "save order", err)
		return
	}
	s.logger.Printf("[API] Order %s is now %s", o.ID, o.Status)
	respondJSON(w, http.StatusOK, o)
}

func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := store.AllAs[account](r.Context(), s.store, colUsers)
	if err != nil {
		s.internalError(w, "list users", err)
		return
	}
	users := make([]auth.User, len(accounts))
	for i, acc := range accounts {
		users[i] = acc.User
	}
	respondJSON(w, http.StatusOK, users)
}

// SetUserBlocked blocks or unblocks an account. Admins cannot block
// themselves.
func (s *Server) SetUserBlocked(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/admin/users/")
	var req struct {
		Blocked *bool `json:"is_blocked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Blocked == nil {
		respondJSONError(w, "is_blocked is required", http.StatusBadRequest)
		return
	}
	if *req.Blocked && id == middleware.UserID(r.Context()) {
		respondJSONError(w, "You cannot block yourself.", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := store.GetAs[account](r.Context(), s.store, colUsers, id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get user", err)
		return
	}
	acc.Blocked = *req.Blocked
	if err := s.store.Put(r.Context(), colUsers, acc.ID, acc); err != nil {
		s.internalError(w, "save user", err)
		return
	}
	s.logger.Printf("[API] User %s blocked=%t", acc.Username, acc.Blocked)
	respondJSON(w, http.StatusOK, acc.User)
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/admin/users/")
	if id == middleware.UserID(r.Context()) {
		respondJSONError(w, "You cannot delete yourself.", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := store.GetAs[account](r.Context(), s.store, colUsers, id); errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		s.internalError(w, "get user", err)
		return
	}
	for _, col := range []string{colUsers, colCarts, colWishlists} {
		if err := s.store.Delete(r.Context(), col, id); err != nil {
			s.internalError(w, "delete user", err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if !decodeBody(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = uuid.NewString()
	if p.Slug == "" {
		p.Slug = slugify(p.Name)
	}
	p.CreatedAt = s.now()

	if err := s.store.Put(r.Context(), colProducts, p.ID, p); err != nil {
		s.internalError(w, "save product", err)
		return
	}
	s.logger.Printf("[API] Product created: %s", p.Name)
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	var p product.Product
	if !decodeBody(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := store.GetAs[product.Product](r.Context(), s.store, colProducts, id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get product", err)
		return
	}
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	if p.Slug == "" {
		p.Slug = current.Slug
	}
	if err := s.store.Put(r.Context(), colProducts, p.ID, p); err != nil {
		s.internalError(w, "save product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := store.GetAs[product.Product](r.Context(), s.store, colProducts, id); errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	} else if err != nil {
		s.internalError(w, "get product", err)
		return
	}
	if err := s.store.Delete(r.Context(), colProducts, id); err != nil {
		s.internalError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

package api

import (
	"errors"
	"math"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/infrastructure/store"
)

// Product Handlers

func (s *Server) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := store.AllAs[product.Product](r.Context(), s.store, colProducts)
	if err != nil {
		s.internalError(w, "list products", err)
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	p, err := store.GetAs[product.Product](r.Context(), s.store, colProducts, id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdateStock sets the absolute stock of a product. Checkout calls it for
// every purchased line.
func (s *Server) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	var req struct {
		Stock *int `json:"stock"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Stock == nil || *req.Stock < 0 {
		respondJSONError(w, product.ErrInvalidStock.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := store.GetAs[product.Product](r.Context(), s.store, colProducts, id)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get product", err)
		return
	}
	p.Stock = *req.Stock
	if err := s.store.Put(r.Context(), colProducts, p.ID, p); err != nil {
		s.internalError(w, "save product", err)
		return
	}
	s.logger.Printf("[API] Stock of %s set to %d", p.ID, p.Stock)
	respondJSON(w, http.StatusOK, p)
}

// Cart Handlers

func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadCart(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		s.internalError(w, "load cart", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": doc.Items})
}

// AddToCart adds quantity units of a product. When the cart would hold
// more than the stock, the line is clamped to the stock and 409 reports it.
func (s *Server) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondJSONError(w, cart.ErrInvalidProduct.Error(), http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		respondJSONError(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := store.GetAs[product.Product](ctx, s.store, colProducts, req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get product", err)
		return
	}
	doc, err := s.loadCart(ctx, userID)
	if err != nil {
		s.internalError(w, "load cart", err)
		return
	}

	idx := cartIndex(doc.Items, func(e cart.Entry) bool { return e.ProductID == p.ID })
	want := req.Quantity
	if idx >= 0 {
		if have := doc.Items[idx].Qty; want > math.MaxInt-have {
			want = math.MaxInt
		} else {
			want += have
		}
	}
	status := http.StatusCreated
	if idx >= 0 {
		status = http.StatusOK
	}

	granted := min(want, p.StockCeiling())
	var item cart.Entry
	switch {
	case granted <= 0 && idx >= 0:
		doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)
	case granted <= 0:
	case idx >= 0:
		doc.Items[idx].Qty = granted
		item = doc.Items[idx]
	default:
		item = cart.Entry{
			ItemID:    uuid.NewString(),
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.EffectivePrice(),
			Qty:       granted,
			Image:     p.Image,
		}
		doc.Items = append(doc.Items, item)
	}

	if err := s.store.Put(ctx, colCarts, userID, doc); err != nil {
		s.internalError(w, "save cart", err)
		return
	}
	if granted < want {
		respondStockConflict(w, granted)
		return
	}
	respondJSON(w, status, item)
}

func (s *Server) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/api/cart/items/")
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondJSONError(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadCart(ctx, userID)
	if err != nil {
		s.internalError(w, "load cart", err)
		return
	}
	idx := cartIndex(doc.Items, func(e cart.Entry) bool { return e.ItemID == itemID })
	if idx < 0 {
		respondJSONError(w, "Cart item not found", http.StatusNotFound)
		return
	}

	stock := 0
	p, err := store.GetAs[product.Product](ctx, s.store, colProducts, doc.Items[idx].ProductID)
	switch {
	case err == nil:
		stock = p.StockCeiling()
	case !errors.Is(err, store.ErrNotFound):
		s.internalError(w, "get product", err)
		return
	}

	granted := min(req.Quantity, stock)
	item := doc.Items[idx]
	if granted <= 0 {
		doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)
	} else {
		doc.Items[idx].Qty = granted
		item = doc.Items[idx]
	}

	if err := s.store.Put(ctx, colCarts, userID, doc); err != nil {
		s.internalError(w, "save cart", err)
		return
	}
	if granted < req.Quantity {
		respondStockConflict(w, granted)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/api/cart/items/")
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadCart(ctx, userID)
	if err != nil {
		s.internalError(w, "load cart", err)
		return
	}
	idx := cartIndex(doc.Items, func(e cart.Entry) bool { return e.ItemID == itemID })
	if idx < 0 {
		respondJSONError(w, "Cart item not found", http.StatusNotFound)
		return
	}
	doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)
	if err := s.store.Put(ctx, colCarts, userID, doc); err != nil {
		s.internalError(w, "save cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(r.Context(), colCarts, userID); err != nil {
		s.internalError(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func cartIndex(items []cart.Entry, match func(cart.Entry) bool) int {
	for i, e := range items {
		if match(e) {
			return i
		}
	}
	return -1
}

// Wishlist Handlers

func (s *Server) GetWishlist(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadWishlist(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		s.internalError(w, "load wishlist", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": doc.Items})
}

// AddToWishlist returns the existing entry when the product is already saved
func (s *Server) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondJSONError(w, wishlist.ErrInvalidProduct.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := store.GetAs[product.Product](ctx, s.store, colProducts, req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get product", err)
		return
	}
	doc, err := s.loadWishlist(ctx, userID)
	if err != nil {
		s.internalError(w, "load wishlist", err)
		return
	}
	for _, e := range doc.Items {
		if e.ProductID == p.ID {
			respondJSON(w, http.StatusOK, e)
			return
		}
	}

	item := wishlist.Entry{
		ItemID:    uuid.NewString(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.EffectivePrice(),
		Image:     p.Image,
		AddedAt:   s.now(),
	}
	doc.Items = append(doc.Items, item)
	if err := s.store.Put(ctx, colWishlists, userID, doc); err != nil {
		s.internalError(w, "save wishlist", err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/api/wishlist/items/")
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadWishlist(ctx, userID)
	if err != nil {
		s.internalError(w, "load wishlist", err)
		return
	}
	for i, e := range doc.Items {
		if e.ItemID != itemID {
			continue
		}
		doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
		if err := s.store.Put(ctx, colWishlists, userID, doc); err != nil {
			s.internalError(w, "save wishlist", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSONError(w, "Wishlist item not found", http.StatusNotFound)
}

// Order Handlers

func (s *Server) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	orders, err := s.ordersOf(r, userID)
	if err != nil {
		s.internalError(w, "list orders", err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// PlaceOrder stores an order for the caller. Totals are recomputed from the
// lines; a repeated idempotency key returns the order placed first.
func (s *Server) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req order.Order
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		respondJSONError(w, order.ErrEmptyOrder.Error(), http.StatusBadRequest)
		return
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			respondJSONError(w, "every item needs a product_id and a positive quantity", http.StatusBadRequest)
			return
		}
	}
	if err := req.Customer.Validate(); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.IdempotencyKey != "" {
		orders, err := s.ordersOf(r, userID)
		if err != nil {
			s.internalError(w, "list orders", err)
			return
		}
		for _, o := range orders {
			if o.IdempotencyKey == req.IdempotencyKey {
				s.logger.Printf("[API] Order %s replayed for key %s", o.ID, o.IdempotencyKey)
				respondJSON(w, http.StatusOK, o)
				return
			}
		}
	}

	// Prices come from the catalog, not the request.
	items := make([]order.LineItem, len(req.Items))
	for i, it := range req.Items {
		p, err := store.GetAs[product.Product](ctx, s.store, colProducts, it.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, "Product not found: "+it.ProductID, http.StatusBadRequest)
			return
		}
		if err != nil {
			s.internalError(w, "get product", err)
			return
		}
		it.Price = p.EffectivePrice()
		if it.Name == "" {
			it.Name = p.Name
		}
		items[i] = it
	}

	placed := order.Order{
		ID:             uuid.NewString(),
		UserID:         userID,
		Customer:       req.Customer,
		Items:          items,
		Total:          order.Total(items),
		OrderDate:      s.now(),
		Status:         order.StatusPending,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := s.store.Put(ctx, colOrders, placed.ID, placed); err != nil {
		s.internalError(w, "save order", err)
		return
	}
	s.logger.Printf("[API] Order %s placed by %s (%d items)", placed.ID, userID, len(placed.Items))
	respondJSON(w, http.StatusCreated, placed)
}

// ordersOf lists the orders of one user, or every order when userID is
// empty, newest first.
func (s *Server) ordersOf(r *http.Request, userID string) ([]order.Order, error) {
	all, err := store.AllAs[order.Order](r.Context(), s.store, colOrders)
	if err != nil {
		return nil, err
	}
	out := make([]order.Order, 0, len(all))
	for _, o := range all {
		if userID == "" || o.UserID == userID {
			out = append(out, o)
		}
	}
	order.SortNewestFirst(out)
	return out, nil
}

package api

import (
	"log"
	"net/http"

	"github.com/example/storefront/internal/api/middleware"
)

func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()

	guard := middleware.NewGuard(s.jwt, s.lookupUser)
	authed := func(h http.HandlerFunc) http.Handler { return guard.Authenticated(h) }
	admin := func(h http.HandlerFunc) http.Handler { return guard.Admin(h) }
	methodNotAllowed := func(w http.ResponseWriter) {
		respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}

	// Auth
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.Login(w, r)
	})

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.Register(w, r)
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		authed(s.Me).ServeHTTP(w, r)
	})

	// Products
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.GetProducts(w, r)
		case http.MethodPost:
			admin(s.CreateProduct).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.GetProduct(w, r)
		case http.MethodPatch:
			authed(s.UpdateStock).ServeHTTP(w, r)
		case http.MethodPut:
			admin(s.ReplaceProduct).ServeHTTP(w, r)
		case http.MethodDelete:
			admin(s.DeleteProduct).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Cart
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authed(s.GetCart).ServeHTTP(w, r)
		case http.MethodDelete:
			authed(s.ClearCart).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/cart/items", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		authed(s.AddToCart).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			authed(s.UpdateCartItem).ServeHTTP(w, r)
		case http.MethodDelete:
			authed(s.RemoveFromCart).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Wishlist
	mux.HandleFunc("/api/wishlist", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		authed(s.GetWishlist).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/wishlist/items", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		authed(s.AddToWishlist).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/wishlist/items/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		authed(s.RemoveFromWishlist).ServeHTTP(w, r)
	})

	// Orders
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authed(s.GetOrders).ServeHTTP(w, r)
		case http.MethodPost:
			authed(s.PlaceOrder).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Admin
	mux.HandleFunc("/api/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		admin(s.GetAllOrders).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/admin/orders/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		admin(s.UpdateOrderStatus).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		admin(s.GetUsers).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/admin/users/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			admin(s.SetUserBlocked).ServeHTTP(w, r)
		case http.MethodDelete:
			admin(s.DeleteUser).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	return withLogging(s.logger, mux)
}

func withLogging(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

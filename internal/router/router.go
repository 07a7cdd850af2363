package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router dispatches to. Admin is
// optional; without it there are no session endpoints and admin routes are
// guarded by the API key alone.
type Handlers struct {
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Reviews  *handler.ReviewHandler
	Users    *handler.UserHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Messages *handler.MessageHandler
	Admin    *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("GET /api/categories", h.Products.Categories)

	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.Orders.UpdateStatus)
	mux.HandleFunc("PATCH /api/orders/{id}/payment", h.Orders.UpdatePaymentStatus)

	mux.HandleFunc("POST /api/reviews", h.Reviews.Create)
	mux.HandleFunc("PATCH /api/reviews/{id}", h.Reviews.Update)
	mux.HandleFunc("DELETE /api/reviews/{id}", h.Reviews.Delete)
	mux.HandleFunc("POST /api/reviews/{id}/helpful", h.Reviews.MarkHelpful)
	mux.HandleFunc("GET /api/products/{id}/reviews", h.Reviews.ListByProduct)

	mux.HandleFunc("POST /api/users", h.Users.Register)
	mux.HandleFunc("GET /api/users/{id}", h.Users.GetByID)
	mux.HandleFunc("PUT /api/users/{id}", h.Users.UpdateProfile)
	mux.HandleFunc("DELETE /api/users/{id}", h.Users.Delete)
	mux.HandleFunc("GET /api/users/{id}/orders", h.Orders.ListByUser)
	mux.HandleFunc("GET /api/users/{id}/cart", h.Cart.List)
	mux.HandleFunc("POST /api/users/{id}/cart", h.Cart.Add)
	mux.HandleFunc("PUT /api/users/{id}/cart", h.Cart.Update)
	mux.HandleFunc("DELETE /api/users/{id}/cart", h.Cart.Clear)
	mux.HandleFunc("DELETE /api/users/{id}/cart/{productId}", h.Cart.Remove)
	mux.HandleFunc("GET /api/users/{id}/cart/count", h.Cart.Count)
	mux.HandleFunc("GET /api/users/{id}/wishlist", h.Wishlist.List)
	mux.HandleFunc("PUT /api/users/{id}/wishlist/{productId}", h.Wishlist.Add)
	mux.HandleFunc("DELETE /api/users/{id}/wishlist/{productId}", h.Wishlist.Remove)
	mux.HandleFunc("GET /api/users/{id}/messages", h.Messages.List)
	mux.HandleFunc("GET /api/users/{id}/messages/unread", h.Messages.UnreadCount)
	mux.HandleFunc("POST /api/users/{id}/messages/{messageId}/read", h.Messages.MarkRead)

	guard := func(next http.HandlerFunc) http.Handler { return next }
	var public []string
	if h.Admin != nil {
		guard = func(next http.HandlerFunc) http.Handler { return h.Admin.RequireAdmin(next) }
		public = append(public, "/api/admin/login")

		mux.HandleFunc("POST /api/admin/login", h.Admin.Login)
		mux.HandleFunc("POST /api/admin/logout", h.Admin.Logout)
	}

	mux.Handle("PATCH /api/admin/reviews/{id}/moderation", guard(h.Reviews.Moderate))
	mux.Handle("PUT /api/admin/reviews/{id}/response", guard(h.Reviews.Respond))
	mux.Handle("POST /api/admin/products/{id}/rating", guard(h.Reviews.RecomputeRating))
	mux.Handle("POST /api/admin/products/{id}/stock", guard(h.Products.AdjustStock))
	mux.Handle("DELETE /api/admin/orders/{id}", guard(h.Orders.Delete))

	return middleware.Chain(mux,
		middleware.CorrelationID,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS,
		middleware.APIKeyAuth(apiKey, logger, public...),
	)
}

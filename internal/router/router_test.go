package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	logger := zerolog.Nop()
	h := Handlers{
		Products: handler.NewProductHandler(nil, logger),
		Orders:   handler.NewOrderHandler(nil, logger),
		Reviews:  handler.NewReviewHandler(nil, logger),
		Users:    handler.NewUserHandler(nil, logger),
		Cart:     handler.NewCartHandler(nil, logger),
		Wishlist: handler.NewWishlistHandler(nil, logger),
		Messages: handler.NewMessageHandler(nil, logger),
	}
	r := New(h, "test-key", logger)

	tests := []struct {
		name           string
		method         string
		path           string
		apiKey         string
		expectedStatus int
	}{
		{"Health without key", http.MethodGet, "/health", "", http.StatusOK},
		{"API requires key", http.MethodGet, "/api/products", "", http.StatusUnauthorized},
		{"Unknown route", http.MethodGet, "/api/unknown", "test-key", http.StatusNotFound},
		{"Wrong method", http.MethodDelete, "/api/products", "test-key", http.StatusMethodNotAllowed},
		{"Bad order id", http.MethodGet, "/api/orders/abc", "test-key", http.StatusBadRequest},
		{"Bad wishlist product", http.MethodPut, "/api/users/7/wishlist/x", "test-key", http.StatusBadRequest},
		{"Bad message id", http.MethodPost, "/api/users/0/messages/1/read", "test-key", http.StatusBadRequest},
		{"Login absent without sessions", http.MethodPost, "/api/admin/login", "test-key", http.StatusNotFound},
		{"Preflight", http.MethodOptions, "/api/orders", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.CorrelationHeader))
		})
	}
}

package app

import (
	"fmt"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/router"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// Handler builds the HTTP API. Admin session endpoints are only mounted
// when a session key is configured.
func (a *App) Handler(cfg *config.Config, logger zerolog.Logger) (http.Handler, error) {
	h := router.Handlers{
		Products: handler.NewProductHandler(a.Services.Products, logger),
		Orders:   handler.NewOrderHandler(a.Services.Orders, logger),
		Reviews:  handler.NewReviewHandler(a.Services.Reviews, logger),
		Users:    handler.NewUserHandler(a.Services.Accounts, logger),
		Cart:     handler.NewCartHandler(a.Services.Cart, logger),
		Wishlist: handler.NewWishlistHandler(a.Services.Wishlist, logger),
		Messages: handler.NewMessageHandler(a.Services.Messages, logger),
	}

	if cfg.Session.Key != "" {
		store, err := session.NewCookieStore(cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		h.Admin = handler.NewAdminHandler(a.Services.Accounts, store, logger)
	} else {
		logger.Info().Msg("admin sessions disabled, admin routes guarded by API key only")
	}

	return router.New(h, cfg.Auth.APIKey, logger), nil
}

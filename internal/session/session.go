// Package session applies the configured cookie policy to admin sessions.
package session

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/config"

	"github.com/gorilla/sessions"
)

const (
	keyAuthenticated = "authenticated"
	keyAdminID       = "admin_id"
)

// ErrNoKey is returned when no session key is configured.
var ErrNoKey = errors.New("session key is not configured")

// Store wraps a cookie store together with the session policy.
type Store struct {
	*sessions.CookieStore
	name       string
	maxAge     int
	rememberMe int
}

// NewCookieStore returns a cookie store applying cfg's policy. Cookies are
// always HttpOnly and scoped to "/".
func NewCookieStore(cfg config.SessionConfig) (*Store, error) {
	if cfg.Key == "" {
		return nil, ErrNoKey
	}

	cs := sessions.NewCookieStore([]byte(cfg.Key))
	cs.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.SameSite),
	}

	return &Store{
		CookieStore: cs,
		name:        cfg.CookieName,
		maxAge:      int(cfg.MaxAge.Seconds()),
		rememberMe:  int(cfg.RememberMe.Seconds()),
	}, nil
}

// Session returns the admin session for r. A cookie that fails to decode
// yields a fresh session together with the decode error.
func (s *Store) Session(r *http.Request) (*sessions.Session, error) {
	return s.Get(r, s.name)
}

// SetAdmin marks sess as authenticated for adminID. rememberMe extends the
// cookie lifetime to the configured remember-me duration.
func (s *Store) SetAdmin(sess *sessions.Session, adminID int64, rememberMe bool) {
	sess.Values[keyAuthenticated] = true
	sess.Values[keyAdminID] = adminID

	opts := *s.Options
	opts.MaxAge = s.maxAge
	if rememberMe && s.rememberMe > 0 {
		opts.MaxAge = s.rememberMe
	}
	sess.Options = &opts
}

// AdminID returns the authenticated admin id stored in sess.
func AdminID(sess *sessions.Session) (int64, bool) {
	if auth, ok := sess.Values[keyAuthenticated].(bool); !ok || !auth {
		return 0, false
	}
	id, ok := sess.Values[keyAdminID].(int64)
	return id, ok && id > 0
}

// Expire clears sess and instructs the browser to drop the cookie.
func Expire(sess *sessions.Session) {
	delete(sess.Values, keyAuthenticated)
	delete(sess.Values, keyAdminID)
	if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/"}
	}
	sess.Options.MaxAge = -1
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

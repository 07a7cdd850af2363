package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// UserHandler handles customer account requests.
type UserHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.AccountService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

// Register handles POST /api/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetByID handles GET /api/users/{id}.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/{id}.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.service.UpdateUserProfile(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}. With ?hard=true the account is
// removed for good; otherwise it is deactivated.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if r.URL.Query().Get("hard") == "true" {
		err = h.service.DeleteUser(r.Context(), id)
	} else {
		err = h.service.DeactivateUser(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdminHandler handles admin session requests.
type AdminHandler struct {
	service service.AccountService
	store   *session.Store
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler backed by store.
func NewAdminHandler(service service.AccountService, store *session.Store, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		store:   store,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	admin, err := h.service.AuthenticateAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	// A stale or tampered cookie still yields a usable fresh session.
	sess, _ := h.store.Session(r)
	h.store.SetAdmin(sess, admin.ID, req.RememberMe)
	if err := sess.Save(r, w); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.logger.Info().Int64("admin_id", admin.ID).Msg("admin logged in")
	writeJSON(w, http.StatusOK, admin)
}

// Logout handles POST /api/admin/logout.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.store.Session(r)
	session.Expire(sess)
	if err := sess.Save(r, w); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequireAdmin rejects requests without an authenticated admin session.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.store.Session(r)
		if err != nil {
			writeError(w, r, model.NewDomainError(model.KindUnauthorised, model.ErrCodeUnauthorised, "Admin session required"), h.logger)
			return
		}
		if _, ok := session.AdminID(sess); !ok {
			writeError(w, r, model.NewDomainError(model.KindUnauthorised, model.ErrCodeUnauthorised, "Admin session required"), h.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

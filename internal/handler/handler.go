package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps an error to its HTTP status and the domain error that
// describes it to the client. Unclassified errors become 500s.
func statusFor(err error) (int, *model.DomainError) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		if errors.Is(err, model.ErrOrderCreationFailed) {
			return http.StatusInternalServerError, model.ErrOrderCreationFailed
		}
		return http.StatusInternalServerError, model.NewDomainError(model.KindInternal, model.ErrCodeInternalError, "Internal server error")
	}

	switch de.Kind {
	case model.KindValidation, model.KindInvalidTransition:
		return http.StatusBadRequest, de
	case model.KindNotFound:
		return http.StatusNotFound, de
	case model.KindConflict:
		return http.StatusConflict, de
	case model.KindUnauthorised:
		return http.StatusUnauthorized, de
	default:
		return http.StatusInternalServerError, de
	}
}

// writeError translates err into an error response. Server errors are
// logged with the underlying cause, which is never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status, de := statusFor(err)
	correlationID := middleware.CorrelationIDFrom(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Int("status", status).
		Str("code", de.Code).
		Str("correlation_id", correlationID).
		Msg("request failed")

	writeJSON(w, status, model.ErrorResponse{
		Error:         de.Code,
		Message:       de.Message,
		Fields:        de.Fields,
		CorrelationID: correlationID,
	})
}

var errInvalidJSON = model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "Invalid request body")

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON.WithMessage("Invalid request body: %v", err)
	}
	return nil
}

// pathID parses the named path wildcard as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrValidation.WithField(name, fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

// pagination reads limit and offset. Missing values fall back to the
// service defaults.
func pagination(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ErrValidation.WithField(name, fmt.Sprintf("invalid %s parameter", name))
	}
	return n, nil
}

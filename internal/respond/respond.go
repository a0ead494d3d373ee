// Package respond writes JSON responses and maps domain errors to HTTP
// statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpattn/propertyapi/internal/domain"
	"github.com/rpattn/propertyapi/internal/logger"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes an error body carrying only a message.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// ErrorHandler tries to write a response for err. Returns true if handled.
type ErrorHandler func(w http.ResponseWriter, err error) bool

// ErrorMapper tries each handler in order; the first match wins and anything
// unmatched becomes a 500.
type ErrorMapper struct {
	handlers []ErrorHandler
}

// NewErrorMapper builds a mapper. notFoundMessage is the body used for
// domain.ErrNotFound.
func NewErrorMapper(notFoundMessage string) *ErrorMapper {
	return &ErrorMapper{handlers: []ErrorHandler{
		validationHandler,
		sentinelHandler(domain.ErrMalformedBody, http.StatusBadRequest, "Malformed request body"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, notFoundMessage),
		integrityHandler,
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"),
	}}
}

// With returns a copy of the mapper with extra handlers tried before the
// defaults.
func (m *ErrorMapper) With(handlers ...ErrorHandler) *ErrorMapper {
	out := make([]ErrorHandler, 0, len(handlers)+len(m.handlers))
	out = append(out, handlers...)
	out = append(out, m.handlers...)
	return &ErrorMapper{handlers: out}
}

// Write maps err to a response. Unmatched errors are logged and reported
// without their details.
func (m *ErrorMapper) Write(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range m.handlers {
		if h(w, err) {
			logger.FromContext(r.Context()).Debug("request rejected", zap.Error(err))
			return
		}
	}
	logger.FromContext(r.Context()).Error("unexpected error", zap.Error(err))
	Message(w, http.StatusInternalServerError, "Unexpected error")
}

// SentinelHandler matches err against sentinel with errors.Is.
func SentinelHandler(sentinel error, status int, message string) ErrorHandler {
	return sentinelHandler(sentinel, status, message)
}

func sentinelHandler(sentinel error, status int, message string) ErrorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		Message(w, status, message)
		return true
	}
}

func validationHandler(w http.ResponseWriter, err error) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	JSON(w, http.StatusBadRequest, ErrorBody{Message: "Validation error", Errors: verr.Fields})
	return true
}

func integrityHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrIntegrity) {
		return false
	}
	body := ErrorBody{Message: "Database integrity error"}
	var ierr *domain.IntegrityError
	if errors.As(err, &ierr) {
		body.Detail = ierr.Detail
	}
	JSON(w, http.StatusBadRequest, body)
	return true
}

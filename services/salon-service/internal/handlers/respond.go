// Package handlers exposes the salon service over HTTP.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/validation"
)

type messageBody struct {
	Message string `json:"message"`
}

type validationBody struct {
	Message string            `json:"message"`
	Errors  validation.Errors `json:"errors"`
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, messageBody{Message: msg})
}

// writeFailure maps err onto a status. Unclassified errors are logged and
// reported with fallback only.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		httpx.WriteJSON(w, http.StatusBadRequest, validationBody{Message: "Validation error", Errors: verrs})
	case errors.Is(err, apperr.ErrInvalid):
		writeMessage(w, http.StatusBadRequest, apperr.Message(err, "Invalid request"))
	case errors.Is(err, apperr.ErrNotFound):
		writeMessage(w, http.StatusNotFound, apperr.Message(err, "Not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeMessage(w, http.StatusConflict, apperr.Message(err, "Already exists"))
	case errors.Is(err, apperr.ErrForbidden):
		writeMessage(w, http.StatusForbidden, apperr.Message(err, "Forbidden"))
	default:
		logger.Error(fallback, "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

// named gives an unlabelled not-found error a client message.
func named(err error, notFound string) error {
	if errors.Is(err, apperr.ErrNotFound) && apperr.Message(err, "") == "" {
		return apperr.NotFound(notFound)
	}
	return err
}

// decode reads and validates a T from the request body.
func decode[T any](r *http.Request) (T, error) {
	return validation.Decode[T](r.Body)
}

// caller returns the verified identity. RequireAuth guarantees one on
// protected routes, so a missing identity is answered with 401.
func caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Access denied. No token provided.")
	}
	return id, ok
}

func isConflict(err error) bool {
	return errors.Is(err, apperr.ErrConflict)
}

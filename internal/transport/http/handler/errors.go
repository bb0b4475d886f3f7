package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/account-recovery/internal/domain"
)

var statusByError = []struct {
	err    error
	status int
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity},
	{domain.ErrChallengeFailed, http.StatusForbidden},
	{domain.ErrInvalidOrExpiredToken, http.StatusGone},
	{domain.ErrOtpMismatch, http.StatusUnauthorized},
	{domain.ErrCatalogReferenceMissing, http.StatusUnprocessableEntity},
	{domain.ErrStepOutOfOrder, http.StatusConflict},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrProvider, http.StatusBadGateway},
}

// httpError maps a service error to its status code. Domain errors carry
// their message to the client; anything else is logged and reported as 500.
func httpError(w http.ResponseWriter, err error) {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			writeError(w, m.status, err.Error())
			return
		}
	}
	slog.Error("unhandled service error", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

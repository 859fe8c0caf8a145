// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
// Error bodies have the shape {"detail": "..."}.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/expensight/internal/auth"
	"github.com/MrJamesThe3rd/expensight/internal/currency"
	"github.com/MrJamesThe3rd/expensight/internal/expense"
	"github.com/MrJamesThe3rd/expensight/internal/fx"
	"github.com/MrJamesThe3rd/expensight/internal/receipt"
	"github.com/MrJamesThe3rd/expensight/internal/reconcile"
	"github.com/MrJamesThe3rd/expensight/internal/user"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Detail writes an error body with the given status.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, errorBody{Detail: detail})
}

// Unauthorized writes the 401 used for every authentication failure.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Detail(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
}

// Error writes err with the status its kind maps to. Server-side failures are
// logged and replaced with a generic detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)

		switch status {
		case http.StatusServiceUnavailable, http.StatusBadGateway:
			Detail(w, status, rootMessage(err))
		default:
			Detail(w, status, "internal server error")
		}

		return
	}

	if status == http.StatusUnauthorized {
		Unauthorized(w)
		return
	}

	Detail(w, status, err.Error())
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, expense.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconcile.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, reconcile.ErrInvalidRequest),
		errors.Is(err, currency.ErrInvalidCode),
		errors.Is(err, fx.ErrInvalidCurrency),
		errors.Is(err, expense.ErrInvalidAmount),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrMissingCredentials),
		errors.Is(err, receipt.ErrUnsupportedFile),
		errors.Is(err, receipt.ErrEmptyFile),
		errors.Is(err, receipt.ErrUnreadable):
		return http.StatusBadRequest
	case errors.Is(err, fx.ErrRateUnavailable), errors.Is(err, fx.ErrProviderUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, receipt.ErrExtractorFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// rootMessage picks the public sentinel text for upstream failures so that
// internal URLs and transport details stay in the logs.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		fx.ErrRateUnavailable,
		fx.ErrProviderUnreachable,
		receipt.ErrExtractorFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return "upstream service unavailable"
}

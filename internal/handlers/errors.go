package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/loginguard/internal/models"
	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
)

// writeServiceError maps ledger and throttle errors onto HTTP responses
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var throttled *models.ThrottleError

	switch {
	case errors.As(err, &throttled):
		pkghttp.WriteThrottled(w, "too many failed login attempts", throttled.RetryAfter)
	case errors.Is(err, models.ErrInvalidArgument):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrStorageUnavailable):
		logger.Error("attempt storage unavailable",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		pkghttp.WriteServiceUnavailable(w, "attempt storage unavailable")
	default:
		logger.Error("unexpected error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "internal server error")
	}
}

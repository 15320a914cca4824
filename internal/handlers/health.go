package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
)

// HealthChecker pings the attempt store
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// HealthHandler handles GET /health
type HealthHandler struct {
	store     HealthChecker
	storeName string
	logger    *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. storeName is reported in the body.
func NewHealthHandler(store HealthChecker, storeName string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, storeName: storeName, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.HealthCheck(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("store", h.storeName), slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Store: h.storeName + ":down"})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, healthResponse{Status: "healthy", Store: h.storeName + ":up"})
}

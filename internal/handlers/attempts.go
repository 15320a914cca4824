package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/loginguard/internal/auth"
	"github.com/BradenHooton/loginguard/internal/models"
	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
)

// maxClockSkew is how far past the ledger clock a caller-supplied attempted_at may be
const maxClockSkew int64 = 60

// AttemptLedgerService is the ledger contract used by the attempt endpoints
type AttemptLedgerService interface {
	Now() int64
	RecordFailedAttempt(ctx context.Context, uid, ip string, attemptedAt int64) error
	CountRecentAttempts(ctx context.Context, uid, ip string) (int64, error)
	LastAttemptTime(ctx context.Context, ip string) (int64, error)
}

// AttemptAdminService covers the operator-only operations
type AttemptAdminService interface {
	Status(ctx context.Context, uid, ip string) (*models.AttemptStatus, error)
	Unlock(ctx context.Context, uid, ip, actor string) error
}

// AttemptHandler handles the raw ledger endpoints
type AttemptHandler struct {
	ledger AttemptLedgerService
	admin  AttemptAdminService
	logger *slog.Logger
}

// NewAttemptHandler creates a new AttemptHandler
func NewAttemptHandler(ledger AttemptLedgerService, admin AttemptAdminService, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{ledger: ledger, admin: admin, logger: logger}
}

// Record handles POST /v1/attempts (admin)
func (h *AttemptHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	// Future-dated rows would outlive retention and lock the pair out
	if req.AttemptedAt > h.ledger.Now()+maxClockSkew {
		pkghttp.WriteBadRequest(w, "attempted_at is in the future")
		return
	}

	if err := h.ledger.RecordFailedAttempt(r.Context(), req.UID, req.IP, req.AttemptedAt); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Count handles GET /v1/attempts/count?uid=&ip= (admin)
func (h *AttemptHandler) Count(w http.ResponseWriter, r *http.Request) {
	req, ok := pairFromQuery(w, r)
	if !ok {
		return
	}

	count, err := h.ledger.CountRecentAttempts(r.Context(), req.UID, req.IP)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}

// Last handles GET /v1/attempts/last?ip= (admin)
func (h *AttemptHandler) Last(w http.ResponseWriter, r *http.Request) {
	req := AddressRequest{IP: r.URL.Query().Get("ip")}
	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	last, err := h.ledger.LastAttemptTime(r.Context(), req.IP)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LastAttemptResponse{AttemptedAt: last})
}

// Status handles GET /v1/attempts/status?uid=&ip= (admin)
func (h *AttemptHandler) Status(w http.ResponseWriter, r *http.Request) {
	req, ok := pairFromQuery(w, r)
	if !ok {
		return
	}

	status, err := h.admin.Status(r.Context(), req.UID, req.IP)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, StatusResponse{
		UID:               status.UID,
		IP:                status.IP,
		RecentCount:       status.RecentCount,
		LastAttemptAt:     status.LastAttemptAt,
		Throttled:         status.Throttled,
		RetryAfterSeconds: int64(status.RetryAfter / time.Second),
	})
}

// Purge handles DELETE /v1/attempts?uid=&ip= (admin)
func (h *AttemptHandler) Purge(w http.ResponseWriter, r *http.Request) {
	req, ok := pairFromQuery(w, r)
	if !ok {
		return
	}

	actor := ""
	if claims := auth.GetOperatorFromContext(r); claims != nil {
		actor = claims.Subject
	}

	if err := h.admin.Unlock(r.Context(), req.UID, req.IP, actor); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pairFromQuery(w http.ResponseWriter, r *http.Request) (AttemptPairRequest, bool) {
	query := r.URL.Query()
	req := AttemptPairRequest{
		UID: query.Get("uid"),
		IP:  query.Get("ip"),
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return req, false
	}

	return req, true
}

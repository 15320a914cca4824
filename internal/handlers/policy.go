package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BradenHooton/loginguard/internal/auth"
	"github.com/BradenHooton/loginguard/internal/config"
	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
	pkglogger "github.com/BradenHooton/loginguard/pkg/logger"
)

// PolicyStore reads and replaces the live brute-force thresholds
type PolicyStore interface {
	Snapshot() config.PolicySnapshot
	Update(s config.PolicySnapshot) error
}

// PolicyHandler exposes the runtime policy to operators
type PolicyHandler struct {
	policy PolicyStore
	audit  *pkglogger.AuditLogger
	logger *slog.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(policy PolicyStore, audit *pkglogger.AuditLogger, logger *slog.Logger) *PolicyHandler {
	return &PolicyHandler{policy: policy, audit: audit, logger: logger}
}

// Get handles GET /v1/policy
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.policy.Snapshot())
}

// Update handles PUT /v1/policy. The new values apply to the next ledger call.
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req config.PolicySnapshot
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	previous := h.policy.Snapshot()
	if err := h.policy.Update(req); err != nil {
		h.logger.Warn("rejected policy update", slog.Any("error", err))
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor := ""
	if claims := auth.GetOperatorFromContext(r); claims != nil {
		actor = claims.Subject
	}

	h.audit.LogPolicyChange(actor, map[string]string{
		"previous_time_threshold": strconv.FormatInt(previous.TimeThreshold, 10),
		"previous_fail_tolerance": strconv.FormatInt(previous.FailTolerance, 10),
		"previous_ban_period":     strconv.FormatInt(previous.BanPeriod, 10),
		"time_threshold":          strconv.FormatInt(req.TimeThreshold, 10),
		"fail_tolerance":          strconv.FormatInt(req.FailTolerance, 10),
		"ban_period":              strconv.FormatInt(req.BanPeriod, 10),
	})

	pkghttp.WriteJSON(w, http.StatusOK, h.policy.Snapshot())
}


package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
)

// LoginThrottler is the throttle service contract used by the login endpoints
type LoginThrottler interface {
	CheckLogin(ctx context.Context, uid, ip string) error
	RecordFailure(ctx context.Context, uid, ip string) error
	RecordSuccess(ctx context.Context, uid, ip string) error
}

// LoginHandler exposes the throttle decision to an authentication front end
type LoginHandler struct {
	throttle LoginThrottler
	logger   *slog.Logger
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(throttle LoginThrottler, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{throttle: throttle, logger: logger}
}

// Check handles POST /v1/login/check
func (h *LoginHandler) Check(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePair(w, r)
	if !ok {
		return
	}

	if err := h.throttle.CheckLogin(r.Context(), req.UID, req.IP); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Failure handles POST /v1/login/failure
func (h *LoginHandler) Failure(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePair(w, r)
	if !ok {
		return
	}

	if err := h.throttle.RecordFailure(r.Context(), req.UID, req.IP); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Success handles POST /v1/login/success
func (h *LoginHandler) Success(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePair(w, r)
	if !ok {
		return
	}

	if err := h.throttle.RecordSuccess(r.Context(), req.UID, req.IP); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodePair(w http.ResponseWriter, r *http.Request) (AttemptPairRequest, bool) {
	var req AttemptPairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return req, false
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return req, false
	}

	return req, true
}

package services

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/BradenHooton/loginguard/internal/models"
	pkglogger "github.com/BradenHooton/loginguard/pkg/logger"
)

// ThrottlePolicy supplies the lockout thresholds
type ThrottlePolicy interface {
	FailTolerance() int64
	BanPeriodSeconds() int64
}

// ThrottleService applies the brute-force policy on top of the attempt ledger:
// a uid/ip pair with at least FailTolerance recent failures is refused until
// BanPeriod seconds after the address's last failure.
type ThrottleService struct {
	ledger *AttemptLedger
	policy ThrottlePolicy
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewThrottleService creates a new ThrottleService
func NewThrottleService(ledger *AttemptLedger, policy ThrottlePolicy, logger *slog.Logger, audit *pkglogger.AuditLogger) *ThrottleService {
	return &ThrottleService{
		ledger: ledger,
		policy: policy,
		logger: logger,
		audit:  audit,
	}
}

// CheckLogin returns a *models.ThrottleError when the pair must not attempt a login.
// Storage errors are returned as-is; callers should treat them as "cannot verify".
func (s *ThrottleService) CheckLogin(ctx context.Context, uid, ip string) error {
	status, err := s.Status(ctx, uid, ip)
	if err != nil {
		s.logger.Error("failed to evaluate brute force policy",
			slog.String("ip_address", ip),
			slog.Any("error", err))
		return err
	}

	if status.Throttled {
		s.audit.LogThrottleDecision(pkglogger.AuditEvent{
			UID:        uid,
			IPAddress:  ip,
			Count:      status.RecentCount,
			RetryAfter: status.RetryAfter,
		})
		return &models.ThrottleError{RetryAfter: status.RetryAfter}
	}

	return nil
}

// Status reports the ledger view of a pair together with the throttle decision
func (s *ThrottleService) Status(ctx context.Context, uid, ip string) (*models.AttemptStatus, error) {
	count, err := s.ledger.CountRecentAttempts(ctx, uid, ip)
	if err != nil {
		return nil, err
	}

	last, err := s.ledger.LastAttemptTime(ctx, ip)
	if err != nil {
		return nil, err
	}

	status := &models.AttemptStatus{
		UID:           uid,
		IP:            ip,
		RecentCount:   count,
		LastAttemptAt: last,
	}

	tolerance := s.policy.FailTolerance()
	if tolerance <= 0 || count < tolerance {
		return status, nil
	}

	banUntil := saturatingAdd(last, s.policy.BanPeriodSeconds())
	if now := s.ledger.Now(); banUntil > now {
		status.Throttled = true
		status.RetryAfter = secondsToDuration(banUntil - now)
	}

	return status, nil
}

// RecordFailure stores a failed login stamped with the current time
func (s *ThrottleService) RecordFailure(ctx context.Context, uid, ip string) error {
	if err := s.ledger.RecordFailedAttempt(ctx, uid, ip, s.ledger.Now()); err != nil {
		return err
	}

	s.audit.LogFailedAttempt(pkglogger.AuditEvent{UID: uid, IPAddress: ip})
	return nil
}

// RecordSuccess clears the pair's history after a successful login
func (s *ThrottleService) RecordSuccess(ctx context.Context, uid, ip string) error {
	if err := s.ledger.PurgeAttempts(ctx, uid, ip); err != nil {
		return err
	}

	s.audit.LogAttemptPurge(pkglogger.AuditEvent{
		UID:       uid,
		IPAddress: ip,
		Metadata:  map[string]string{"reason": "login_success"},
	})
	return nil
}

// Unlock clears the pair's history on behalf of an operator
func (s *ThrottleService) Unlock(ctx context.Context, uid, ip, actor string) error {
	if err := s.ledger.PurgeAttempts(ctx, uid, ip); err != nil {
		return err
	}

	s.audit.LogAttemptPurge(pkglogger.AuditEvent{
		UID:       uid,
		IPAddress: ip,
		Actor:     actor,
		Metadata:  map[string]string{"reason": "admin_unlock"},
	})
	return nil
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func secondsToDuration(seconds int64) time.Duration {
	if seconds > int64(math.MaxInt64/time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds) * time.Second
}

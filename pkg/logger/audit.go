package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a brute-force protection audit event
type AuditEvent struct {
	EventType  string
	UID        string
	IPAddress  string
	Actor      string
	Count      int64
	RetryAfter time.Duration
	Metadata   map[string]string
}

// Audit event types
const (
	EventLoginThrottled = "login_throttled"
	EventFailedAttempt  = "failed_attempt_recorded"
	EventAttemptsPurged = "attempts_purged"
	EventPolicyChanged  = "policy_changed"
)

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
	env    string
}

// NewAuditLogger creates a new audit logger. In production the account
// identifier is redacted.
func NewAuditLogger(logger *slog.Logger, env string) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		env:    env,
	}
}

// LogThrottleDecision logs a login that was refused because of too many failures
func (al *AuditLogger) LogThrottleDecision(event AuditEvent) {
	event.EventType = EventLoginThrottled
	al.log(slog.LevelWarn, event)
}

// LogFailedAttempt logs a recorded failure
func (al *AuditLogger) LogFailedAttempt(event AuditEvent) {
	event.EventType = EventFailedAttempt
	al.log(slog.LevelInfo, event)
}

// LogAttemptPurge logs deletion of a uid/ip history. Actor is empty for
// purges triggered by a successful login.
func (al *AuditLogger) LogAttemptPurge(event AuditEvent) {
	event.EventType = EventAttemptsPurged
	al.log(slog.LevelInfo, event)
}

// LogPolicyChange logs an operator changing thresholds at runtime
func (al *AuditLogger) LogPolicyChange(actor string, metadata map[string]string) {
	al.log(slog.LevelWarn, AuditEvent{EventType: EventPolicyChanged, Actor: actor, Metadata: metadata})
}

func (al *AuditLogger) log(level slog.Level, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "bruteforce"),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UID != "" {
		attrs = append(attrs, RedactedAttr("uid", event.UID, al.env))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Actor != "" {
		attrs = append(attrs, slog.String("actor", event.Actor))
	}
	if event.Count > 0 {
		attrs = append(attrs, slog.Int64("attempt_count", event.Count))
	}
	if event.RetryAfter > 0 {
		attrs = append(attrs, slog.Duration("retry_after", event.RetryAfter))
	}

	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

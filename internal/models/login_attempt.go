package models

import "time"

// MaxAttemptTimestamp is the largest attemptedAt accepted (2^53 - 1). Sorted-set
// scores are float64 and represent integers exactly only up to this value.
const MaxAttemptTimestamp = 1<<53 - 1

// FailedLoginAttempt represents one failed authentication event.
// Rows are append-only; the only mutation is deletion.
type FailedLoginAttempt struct {
	UID         string `db:"uid" json:"uid" validate:"max=64"`
	IP          string `db:"ip" json:"ip" validate:"required,ip"`
	AttemptedAt int64  `db:"attempted_at" json:"attempted_at" validate:"gte=0,lte=9007199254740991"`
}

// AttemptStatus aggregates ledger answers for a uid/ip pair for admin inspection
type AttemptStatus struct {
	UID           string        `json:"uid"`
	IP            string        `json:"ip"`
	RecentCount   int64         `json:"recent_count"`
	LastAttemptAt int64         `json:"last_attempt_at"` // 0 = no attempt inside the window
	Throttled     bool          `json:"throttled"`
	RetryAfter    time.Duration `json:"-"`
}

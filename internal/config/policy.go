package config

import (
	"fmt"
	"sync/atomic"
	"time"
)

// MaxPolicySeconds caps the window and ban period at one year. Larger values
// would overflow the ban arithmetic and time.Duration conversions.
const MaxPolicySeconds = 365 * 24 * 60 * 60

// PolicySnapshot is a point-in-time copy of the brute-force policy
type PolicySnapshot struct {
	TimeThreshold int64 `json:"time_threshold" validate:"gte=0,lte=31536000"`
	FailTolerance int64 `json:"fail_tolerance" validate:"gte=0"`
	BanPeriod     int64 `json:"ban_period" validate:"gte=0,lte=31536000"`
}

// Policy holds the brute-force thresholds that may change while the service runs.
// Readers always see the latest stored value; there is no caching on the read path.
type Policy struct {
	timeThreshold atomic.Int64
	failTolerance atomic.Int64
	banPeriod     atomic.Int64

	// retention in seconds, fixed at start-up; 0 means rows are never pruned
	retention int64
}

// NewPolicy creates a Policy seeded from loaded configuration
func NewPolicy(cfg BruteForceConfig) *Policy {
	p := &Policy{retention: int64(cfg.Retention / time.Second)}
	p.timeThreshold.Store(cfg.TimeThreshold)
	p.failTolerance.Store(cfg.FailTolerance)
	p.banPeriod.Store(cfg.BanPeriod)
	return p
}

// WindowSeconds returns the length of the "recent attempts" window
func (p *Policy) WindowSeconds() int64 {
	return p.timeThreshold.Load()
}

// FailTolerance returns how many in-window failures a uid/ip pair may accumulate
// before logins are throttled. Zero disables throttling.
func (p *Policy) FailTolerance() int64 {
	return p.failTolerance.Load()
}

// BanPeriodSeconds returns how long an address stays throttled after its last failure
func (p *Policy) BanPeriodSeconds() int64 {
	return p.banPeriod.Load()
}

// Snapshot returns the current values
func (p *Policy) Snapshot() PolicySnapshot {
	return PolicySnapshot{
		TimeThreshold: p.timeThreshold.Load(),
		FailTolerance: p.failTolerance.Load(),
		BanPeriod:     p.banPeriod.Load(),
	}
}

// Update replaces all three values. Each field is stored independently, so a
// concurrent reader may observe a mix of old and new values for one call.
func (p *Policy) Update(s PolicySnapshot) error {
	if s.TimeThreshold < 0 || s.FailTolerance < 0 || s.BanPeriod < 0 {
		return fmt.Errorf("policy values must not be negative")
	}
	if s.TimeThreshold > MaxPolicySeconds || s.BanPeriod > MaxPolicySeconds {
		return fmt.Errorf("time_threshold and ban_period must not exceed %d seconds", MaxPolicySeconds)
	}
	// The cleanup job would delete rows still inside the window
	if p.retention > 0 && s.TimeThreshold > p.retention {
		return fmt.Errorf("time_threshold must not exceed the retention period of %d seconds", p.retention)
	}

	p.timeThreshold.Store(s.TimeThreshold)
	p.failTolerance.Store(s.FailTolerance)
	p.banPeriod.Store(s.BanPeriod)
	return nil
}

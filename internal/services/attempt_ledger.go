package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/loginguard/internal/models"
	"github.com/go-playground/validator/v10"
)

// Clock supplies the current time. Only whole seconds are used.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// PolicySource supplies the length of the "recent" window in seconds
type PolicySource interface {
	WindowSeconds() int64
}

// AttemptStore is the durable, append-only table of failed attempts.
// Every method is a single round-trip. Implementations report backend
// failures wrapped in models.ErrStorageUnavailable.
type AttemptStore interface {
	Insert(ctx context.Context, attempt *models.FailedLoginAttempt) error
	// CountSince counts rows for the pair with attempted_at strictly greater than after
	CountSince(ctx context.Context, uid, ip string, after int64) (int64, error)
	// LatestSince returns the greatest attempted_at for ip strictly greater than after.
	// found is false when no row qualifies.
	LatestSince(ctx context.Context, ip string, after int64) (latest int64, found bool, err error)
	// DeletePair removes every row for the pair regardless of timestamp
	DeletePair(ctx context.Context, uid, ip string) error
}

var validate = validator.New()

// AttemptLedger records failed logins and answers windowed questions about them.
// It holds no mutable state and is safe for concurrent use.
//
// The window boundary is recomputed from the clock and policy on every call:
// an attempt counts as recent when attemptedAt > now - window.
type AttemptLedger struct {
	store  AttemptStore
	clock  Clock
	policy PolicySource
}

// NewAttemptLedger creates a new AttemptLedger
func NewAttemptLedger(store AttemptStore, clock Clock, policy PolicySource) *AttemptLedger {
	if clock == nil {
		clock = SystemClock
	}
	return &AttemptLedger{
		store:  store,
		clock:  clock,
		policy: policy,
	}
}

// RecordFailedAttempt appends one failed attempt
func (l *AttemptLedger) RecordFailedAttempt(ctx context.Context, uid, ip string, attemptedAt int64) error {
	attempt := &models.FailedLoginAttempt{UID: uid, IP: ip, AttemptedAt: attemptedAt}
	if err := validate.Struct(attempt); err != nil {
		return invalidArgument(err)
	}

	if err := l.store.Insert(ctx, attempt); err != nil {
		return storageError("record failed attempt", err)
	}
	return nil
}

// CountRecentAttempts returns the number of in-window attempts for the uid/ip pair
func (l *AttemptLedger) CountRecentAttempts(ctx context.Context, uid, ip string) (int64, error) {
	if err := validatePair(uid, ip); err != nil {
		return 0, err
	}

	count, err := l.store.CountSince(ctx, uid, ip, l.windowStart())
	if err != nil {
		return 0, storageError("count recent attempts", err)
	}
	return count, nil
}

// LastAttemptTime returns the most recent in-window attempt time for ip across
// all accounts, or 0 when there is none. An attempt stamped at epoch 0 is
// therefore indistinguishable from no attempt. When several rows share the
// maximum timestamp the value is the same whichever row the store picks.
func (l *AttemptLedger) LastAttemptTime(ctx context.Context, ip string) (int64, error) {
	if err := validateIP(ip); err != nil {
		return 0, err
	}

	latest, found, err := l.store.LatestSince(ctx, ip, l.windowStart())
	if err != nil {
		return 0, storageError("last attempt time", err)
	}
	if !found {
		return 0, nil
	}
	return latest, nil
}

// PurgeAttempts deletes the whole history of the uid/ip pair. Deleting nothing is not an error.
func (l *AttemptLedger) PurgeAttempts(ctx context.Context, uid, ip string) error {
	if err := validatePair(uid, ip); err != nil {
		return err
	}

	if err := l.store.DeletePair(ctx, uid, ip); err != nil {
		return storageError("purge attempts", err)
	}
	return nil
}

// Now returns the ledger clock reading in Unix seconds
func (l *AttemptLedger) Now() int64 {
	return l.clock.Now().Unix()
}

func (l *AttemptLedger) windowStart() int64 {
	return l.Now() - l.policy.WindowSeconds()
}

func validatePair(uid, ip string) error {
	if err := validate.Var(uid, "max=64"); err != nil {
		return invalidArgument(fmt.Errorf("uid: %w", err))
	}
	return validateIP(ip)
}

func validateIP(ip string) error {
	if err := validate.Var(ip, "required,ip"); err != nil {
		return invalidArgument(fmt.Errorf("ip: %w", err))
	}
	return nil
}

func invalidArgument(err error) error {
	return fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
}

func storageError(op string, err error) error {
	if errors.Is(err, models.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrStorageUnavailable, err)
}

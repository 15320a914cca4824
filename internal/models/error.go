package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Attempt ledger errors
	ErrStorageUnavailable = errors.New("attempt storage unavailable")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrLoginThrottled     = errors.New("too many failed login attempts")
)

// ThrottleError is returned when a uid/ip pair is inside its ban period.
// It matches ErrLoginThrottled with errors.Is.
type ThrottleError struct {
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrLoginThrottled.Error(), e.RetryAfter)
}

func (e *ThrottleError) Is(target error) bool {
	return target == ErrLoginThrottled
}

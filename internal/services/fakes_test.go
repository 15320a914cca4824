package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BradenHooton/loginguard/internal/models"
)

// MemoryAttemptStore implements AttemptStore over a slice for testing
type MemoryAttemptStore struct {
	mu    sync.Mutex
	rows  []models.FailedLoginAttempt
	calls int

	// Err, when set, is returned from every call
	Err error
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{}
}

func (m *MemoryAttemptStore) Insert(ctx context.Context, attempt *models.FailedLoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return m.Err
	}
	m.rows = append(m.rows, *attempt)
	return nil
}

func (m *MemoryAttemptStore) CountSince(ctx context.Context, uid, ip string, after int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, r := range m.rows {
		if r.UID == uid && r.IP == ip && r.AttemptedAt > after {
			n++
		}
	}
	return n, nil
}

func (m *MemoryAttemptStore) LatestSince(ctx context.Context, ip string, after int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return 0, false, m.Err
	}
	var latest int64
	found := false
	for _, r := range m.rows {
		if r.IP == ip && r.AttemptedAt > after && (!found || r.AttemptedAt > latest) {
			latest = r.AttemptedAt
			found = true
		}
	}
	return latest, found, nil
}

func (m *MemoryAttemptStore) DeletePair(ctx context.Context, uid, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return m.Err
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.UID != uid || r.IP != ip {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *MemoryAttemptStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryAttemptStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// FixedClock is a settable clock
type FixedClock struct {
	mu  sync.Mutex
	now int64
}

func NewFixedClock(unix int64) *FixedClock {
	return &FixedClock{now: unix}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.now, 0)
}

func (c *FixedClock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = unix
}

// StaticPolicy implements PolicySource and ThrottlePolicy with plain fields
type StaticPolicy struct {
	mu        sync.Mutex
	Window    int64
	Tolerance int64
	Ban       int64
}

func (p *StaticPolicy) WindowSeconds() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Window
}

func (p *StaticPolicy) FailTolerance() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Tolerance
}

func (p *StaticPolicy) BanPeriodSeconds() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Ban
}

func (p *StaticPolicy) SetWindow(seconds int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Window = seconds
}

var errStoreDown = errors.New("connection refused")

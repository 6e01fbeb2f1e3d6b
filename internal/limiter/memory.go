package limiter

import (
	"context"
	"sync"
	"time"
)

type attempt struct {
	fails        int
	last         time.Time
	blockedUntil time.Time
}

// Memory is a process-local limiter for deployments without PostgreSQL.
type Memory struct {
	cfg Config
	now func() time.Time

	mu    sync.Mutex
	state map[string]*attempt
}

// NewMemory constructs an in-memory limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg.withDefaults(), now: time.Now, state: map[string]*attempt{}}
}

func key(username string, ipHash []byte) string { return username + "\x00" + string(ipHash) }

// Allow reports whether login is currently allowed and a retry-after duration.
func (m *Memory) Allow(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state[key(username, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := a.blockedUntil.Sub(m.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success resets counters for (username, ip).
func (m *Memory) Success(_ context.Context, username string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key(username, ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (m *Memory) Failure(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := key(username, ipHash)
	a, ok := m.state[k]
	if !ok || now.Sub(a.last) > m.cfg.Window {
		a = &attempt{}
		m.state[k] = a
	}
	a.fails++
	a.last = now
	if a.fails < m.cfg.MaxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(m.cfg.BlockFor)
	return true, m.cfg.BlockFor, nil
}

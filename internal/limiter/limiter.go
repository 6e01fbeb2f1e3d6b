// Package limiter throttles repeated failed sign-in attempts per
// (username, client address) pair.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether login is currently allowed and optional retry-after.
	Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, username string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
}

// Config tunes the lockout policy: MaxFails failures inside Window block
// the pair for BlockFor.
type Config struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// DefaultConfig allows five failures per quarter hour.
var DefaultConfig = Config{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultConfig.Window
	}
	if c.MaxFails <= 0 {
		c.MaxFails = DefaultConfig.MaxFails
	}
	if c.BlockFor <= 0 {
		c.BlockFor = DefaultConfig.BlockFor
	}
	return c
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rryowa/newsapp/internal/util"
)

// RateLimiter is a per-key token bucket used when no Redis is configured.
// A key that exhausts its bucket is blocked for BlockTime.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	blockTime time.Duration
	entries   map[string]*limBucket
	now       func() time.Time
}

type limBucket struct {
	lim          *rate.Limiter
	lastSeen     time.Time
	blockedUntil time.Time
}

func NewRateLimiter(cfg *util.RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		limit:     rate.Every(cfg.Interval / time.Duration(cfg.Limit)),
		burst:     cfg.Limit,
		ttl:       cfg.Interval + cfg.BlockTime,
		blockTime: cfg.BlockTime,
		entries:   make(map[string]*limBucket),
		now:       time.Now,
	}
}

func (m *RateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.entries[key]
	if b == nil {
		b = &limBucket{lim: rate.NewLimiter(m.limit, m.burst)}
		m.entries[key] = b
	}
	b.lastSeen = now

	for k, v := range m.entries {
		if now.Sub(v.lastSeen) > m.ttl && now.After(v.blockedUntil) {
			delete(m.entries, k)
		}
	}

	if now.Before(b.blockedUntil) {
		return false, b.blockedUntil.Sub(now), nil
	}
	if !b.lim.AllowN(now, 1) {
		b.blockedUntil = now.Add(m.blockTime)
		return false, m.blockTime, nil
	}
	return true, 0, nil
}

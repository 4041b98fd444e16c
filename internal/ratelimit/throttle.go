package ratelimit

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/util"
)

const (
	throttleSoftCap = 10000
	throttleHardCap = 50000
)

type throttleEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle is a per-IP token bucket that smooths bursts on routes that do not
// reach the LLM provider, such as guess submission.
type Throttle struct {
	rps     int
	burst   int
	idleTTL time.Duration

	mu      sync.RWMutex
	entries map[string]*throttleEntry
}

func NewThrottle(rps, burst int, idleTTL time.Duration) *Throttle {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		rps:     rps,
		burst:   burst,
		idleTTL: idleTTL,
		entries: make(map[string]*throttleEntry),
	}
}

func (t *Throttle) get(key string, now time.Time) *rate.Limiter {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if ok {
		t.mu.Lock()
		e.lastAccess = now
		t.mu.Unlock()
		return e.limiter
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.entries[key]; ok {
		e.lastAccess = now
		return e.limiter
	}

	if key == "" || key == "::1" {
		util.LogWarn("Throttle key is empty or loopback: %q", key)
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(t.rps)), t.burst)
	t.entries[key] = &throttleEntry{limiter: lim, lastAccess: now}
	return lim
}

func (t *Throttle) Allow(key string) bool {
	now := time.Now()
	return t.get(key, now).AllowN(now, 1)
}

func (t *Throttle) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Cleanup evicts idle entries. If the map is still above the hard cap it
// drops the least recently used half.
func (t *Throttle) Cleanup(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.idleTTL)
	removed := 0
	for key, e := range t.entries {
		if e.lastAccess.Before(cutoff) {
			delete(t.entries, key)
			removed++
		}
	}

	if len(t.entries) > throttleSoftCap {
		util.LogInfo("Throttle map too large (%d entries)", len(t.entries))
	}
	if len(t.entries) > throttleHardCap {
		type info struct {
			key        string
			lastAccess time.Time
		}
		all := make([]info, 0, len(t.entries))
		for key, e := range t.entries {
			all = append(all, info{key: key, lastAccess: e.lastAccess})
		}
		sort.Slice(all, func(i, j int) bool {
			return all[i].lastAccess.Before(all[j].lastAccess)
		})
		drop := len(all) / 2
		for i := 0; i < drop; i++ {
			delete(t.entries, all[i].key)
		}
		removed += drop
		util.LogInfo("Removed %d oldest throttle entries", drop)
	}
	return removed
}

func (t *Throttle) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := t.Cleanup(now); removed > 0 {
					util.LogInfo("Cleaned up %d stale throttle entries", removed)
				}
			}
		}
	}()
}

func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": constants.ErrorCodeTooManyRequests})
			return
		}
		c.Next()
	}
}

// Package ratelimit bounds how often a client may call the routes that forward
// work to the paid LLM provider.
//
// Limits are fixed windows: the window index is now / windowLength, and every
// request a client makes to a route inside the same index shares one counter.
// A client can therefore land up to twice its limit around a window edge.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/CodeAndHammer/wordwise/internal/util"
)

// UnlimitedRemaining is reported for routes with no configured limit.
const UnlimitedRemaining = math.MaxInt32

type RouteLimit struct {
	MaxRequests   int `yaml:"max_requests" json:"maxRequests"`
	WindowMinutes int `yaml:"window_minutes" json:"windowMinutes"`
}

func (r RouteLimit) Window() time.Duration {
	return time.Duration(r.WindowMinutes) * time.Minute
}

// RetryAfterSeconds is the back-off a rejected caller is told to wait.
func (r RouteLimit) RetryAfterSeconds() int {
	return r.WindowMinutes * 60
}

func (r RouteLimit) Validate() error {
	if r.MaxRequests <= 0 {
		return fmt.Errorf("max_requests must be positive, got %d", r.MaxRequests)
	}
	if r.WindowMinutes <= 0 {
		return fmt.Errorf("window_minutes must be positive, got %d", r.WindowMinutes)
	}
	return nil
}

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Remaining int
	// Limit is zero for unconfigured routes.
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Observer is notified of every decision on a configured route.
type Observer interface {
	ObserveRateLimit(route string, allowed bool)
}

type Option func(*Limiter)

func WithObserver(o Observer) Option {
	return func(l *Limiter) { l.observer = o }
}

// Limiter applies per-route fixed-window limits on top of a Store.
// It is safe for concurrent use as long as the Store is.
type Limiter struct {
	store    Store
	limits   map[string]RouteLimit
	observer Observer
}

func NewLimiter(store Store, limits map[string]RouteLimit, opts ...Option) *Limiter {
	copied := make(map[string]RouteLimit, len(limits))
	for route, lim := range limits {
		copied[route] = lim
	}
	l := &Limiter{store: store, limits: copied}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured limit for route.
func (l *Limiter) Limit(route string) (RouteLimit, bool) {
	lim, ok := l.limits[route]
	return lim, ok
}

func (l *Limiter) Store() Store {
	return l.store
}

// WindowKey builds the storage key for a client, route and window index.
func WindowKey(clientID, route string, windowID int64) string {
	return route + ":" + clientID + ":" + strconv.FormatInt(windowID, 10)
}

// WindowID returns the index of the fixed window that now falls into.
func WindowID(now time.Time, window time.Duration) int64 {
	return now.UnixMilli() / window.Milliseconds()
}

// Check counts one request from clientID against route. It never fails:
// unknown routes are allowed with UnlimitedRemaining, and store errors are
// logged and the request is let through.
func (l *Limiter) Check(ctx context.Context, clientID, route string, now time.Time) Result {
	lim, ok := l.limits[route]
	if !ok {
		return Result{Allowed: true, Remaining: UnlimitedRemaining}
	}

	window := lim.Window()
	key := WindowKey(clientID, route, WindowID(now, window))

	rec, allowed, err := l.store.Hit(ctx, key, lim.MaxRequests, window, now)
	if err != nil {
		util.LogWarnCtx(ctx, "Rate limit store error for route %s, allowing request: %v", route, err)
		return Result{Allowed: true, Remaining: lim.MaxRequests, Limit: lim.MaxRequests, ResetAt: now.Add(window)}
	}

	res := Result{
		Allowed: allowed,
		Limit:   lim.MaxRequests,
		ResetAt: rec.ResetTime,
	}
	if allowed {
		res.Remaining = max(lim.MaxRequests-rec.Count, 0)
	} else {
		res.RetryAfter = time.Duration(lim.RetryAfterSeconds()) * time.Second
	}

	if l.observer != nil {
		l.observer.ObserveRateLimit(route, allowed)
	}
	return res
}

// Sweep drops every record whose window has already ended.
func (l *Limiter) Sweep(ctx context.Context, now time.Time) int {
	removed, err := l.store.Sweep(ctx, now)
	if err != nil {
		util.LogWarn("Rate limit sweep failed: %v", err)
	}
	return removed
}

// StartJanitor sweeps expired records every interval until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
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
				if removed := l.Sweep(ctx, now); removed > 0 {
					util.LogInfo("Cleaned up %d expired rate limit records", removed)
				}
			}
		}
	}()
	util.LogInfo("Started rate limit janitor (every %v)", interval)
}

// Package session keeps each browser's current game in memory, keyed by the
// session cookie.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/game"
	"github.com/CodeAndHammer/wordwise/internal/util"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*game.GameState
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*game.GameState),
		ttl:      ttl,
	}
}

// GetOrCreateID returns the caller's session id, issuing a new cookie when the
// request has none or a malformed one.
func GetOrCreateID(c *gin.Context, maxAge time.Duration, secure bool) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || uuid.Validate(sessionID) != nil {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(constants.SessionCookieName, sessionID, int(maxAge.Seconds()), "/", "", secure, true)
		util.LogInfoCtx(c.Request.Context(), "Created new session: %s", sessionID)
	}
	return sessionID
}

// Get returns the game for sessionID and refreshes its access time.
func (s *Store) Get(sessionID string) (*game.GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.sessions[sessionID]
	if ok {
		g.LastAccessTime = time.Now()
	}
	return g, ok
}

func (s *Store) Save(sessionID string, g *game.GameState) {
	s.mu.Lock()
	g.LastAccessTime = time.Now()
	s.sessions[sessionID] = g
	s.mu.Unlock()
}

func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Update runs fn on the session's game while holding the store lock, so
// concurrent guesses from one session are applied one at a time.
func (s *Store) Update(sessionID string, fn func(g *game.GameState) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	g.LastAccessTime = time.Now()
	return true, fn(g)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) CleanupExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for sessionID, g := range s.sessions {
		if now.Sub(g.LastAccessTime) > s.ttl {
			delete(s.sessions, sessionID)
			expired++
		}
	}
	return expired
}

// StartCleanup expires idle sessions every interval until ctx is done.
// onSweep, if set, is called with the remaining session count.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration, onSweep func(remaining int)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if expired := s.CleanupExpired(now); expired > 0 {
					util.LogInfo("Cleaned up %d expired sessions", expired)
				}
				if onSweep != nil {
					onSweep(s.Len())
				}
			}
		}
	}()
	util.LogInfo("Started session cleanup goroutine")
}

// Package handlers serves the JSON game API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/CodeAndHammer/wordwise/internal/coach"
	"github.com/CodeAndHammer/wordwise/internal/config"
	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/game"
	"github.com/CodeAndHammer/wordwise/internal/metrics"
	"github.com/CodeAndHammer/wordwise/internal/ratelimit"
	"github.com/CodeAndHammer/wordwise/internal/session"
	"github.com/CodeAndHammer/wordwise/internal/util"
	"github.com/CodeAndHammer/wordwise/internal/words"
)

type App struct {
	Config    *config.Config
	Catalog   *words.Catalog
	Sessions  *session.Store
	Coach     *coach.Service
	Limiter   *ratelimit.Limiter
	Throttle  *ratelimit.Throttle
	Metrics   *metrics.Metrics
	StartTime time.Time
}

type newGameRequest struct {
	CompletedWords []string `json:"completedWords"`
}

type guessRequest struct {
	Guess string `json:"guess" form:"guess"`
}

func sessionID(app *App, c *gin.Context) string {
	return session.GetOrCreateID(c, app.Config.CookieMaxAge, app.Config.SecureCookies)
}

func abortWithError(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

func gameView(g *game.GameState) gin.H {
	return gin.H{
		"board":       g.Board(),
		"guesses":     g.Guesses,
		"keyboard":    g.Keyboard,
		"currentRow":  g.CurrentRow,
		"guessesLeft": g.GuessesLeft(),
		"maxGuesses":  constants.MaxGuesses,
		"gameOver":    g.GameOver,
		"won":         g.Won,
		"targetWord":  g.TargetWord,
	}
}

// snapshot copies the session's game so it can be read or sent to the LLM
// without holding the store lock.
func snapshot(app *App, sessionID string) (*game.GameState, bool) {
	var snap *game.GameState
	found, _ := app.Sessions.Update(sessionID, func(g *game.GameState) error {
		snap = g.Snapshot()
		return nil
	})
	return snap, found
}

func (app *App) recordSessions() {
	if app.Metrics != nil {
		app.Metrics.SetActiveSessions(app.Sessions.Len())
	}
}

func (app *App) recordGuess(outcome string) {
	if app.Metrics != nil {
		app.Metrics.ObserveGuess(outcome)
	}
}

func NewGameHandler(app *App, c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(app, c)

	var req newGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.LogWarnCtx(ctx, "Failed to parse new game request: %v", err)
			abortWithError(c, http.StatusBadRequest, constants.ErrorCodeBadRequest)
			return
		}
	}
	completed := lo.Uniq(lo.FilterMap(req.CompletedWords, func(w string, _ int) (string, bool) {
		w = game.NormalizeGuess(w)
		if game.ValidateWord(w) != nil {
			util.LogWarnCtx(ctx, "Invalid completed word ignored: %q", w)
			return w, false
		}
		return w, true
	}))

	if c.Query("reset") == "1" {
		app.Sessions.Delete(sid)
		sid = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(constants.SessionCookieName, sid, int(app.Config.CookieMaxAge.Seconds()), "/", "", app.Config.SecureCookies, true)
		util.LogInfoCtx(ctx, "Created new session ID: %s", sid)
	}

	choice := app.Coach.GenerateWord(ctx, completed)
	g := game.NewGame(choice.Word, choice.Hint)
	g.WordSource = choice.Source
	app.Sessions.Save(sid, g)
	app.recordSessions()
	util.LogInfoCtx(ctx, "New game for session %s from %s (completed words: %d, needs reset: %v)", sid, choice.Source, len(completed), choice.NeedsReset)

	c.JSON(http.StatusCreated, gin.H{
		"game":                gameView(g),
		"clearCompletedWords": choice.NeedsReset,
	})
}

func guessErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrGameOver):
		return http.StatusConflict, constants.ErrorCodeGameOver
	case errors.Is(err, game.ErrNoMoreGuesses):
		return http.StatusConflict, constants.ErrorCodeNoMoreGuesses
	case errors.Is(err, game.ErrDuplicateGuess):
		return http.StatusUnprocessableEntity, constants.ErrorCodeDuplicateGuess
	case errors.Is(err, game.ErrNotAccepted):
		return http.StatusUnprocessableEntity, constants.ErrorCodeWordNotAccepted
	case errors.Is(err, game.ErrInvalidInput):
		return http.StatusBadRequest, constants.ErrorCodeInvalidGuess
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func GuessHandler(app *App, c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(app, c)

	var req guessRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeBadRequest)
		return
	}
	guess := game.NormalizeGuess(req.Guess)
	if n := utf8.RuneCountInString(guess); n != constants.WordLength {
		util.LogWarnCtx(ctx, "Session %s submitted invalid length guess: %q (%d letters)", sid, guess, n)
		app.recordGuess(constants.ErrorCodeInvalidLength)
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidLength)
		return
	}
	if err := game.ValidateWord(guess); err != nil {
		app.recordGuess(constants.ErrorCodeInvalidGuess)
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidGuess)
		return
	}

	var (
		result game.GuessResult
		view   gin.H
	)
	found, err := app.Sessions.Update(sid, func(g *game.GameState) error {
		if !g.GameOver && guess != g.SessionWord && !app.Catalog.IsAccepted(guess) {
			return game.ErrNotAccepted
		}
		var err error
		result, err = g.Submit(guess)
		if err != nil {
			return err
		}
		util.LogInfoCtx(ctx, "Session %s guessed: %s (attempt %d/%d)", sid, guess, len(g.Guesses), constants.MaxGuesses)
		view = gameView(g)
		switch {
		case g.Won:
			app.recordGuess("won")
		case g.GameOver:
			app.recordGuess("lost")
		default:
			app.recordGuess("continue")
		}
		return nil
	})
	if !found {
		abortWithError(c, http.StatusConflict, constants.ErrorCodeNoActiveGame)
		return
	}
	if err != nil {
		status, code := guessErrorStatus(err)
		util.LogWarnCtx(ctx, "Session %s guess %s rejected: %v", sid, guess, err)
		app.recordGuess(code)
		abortWithError(c, status, code)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "game": view})
}

func GameStateHandler(app *App, c *gin.Context) {
	g, ok := snapshot(app, sessionID(app, c))
	if !ok {
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeNoActiveGame)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": gameView(g)})
}

func RetryWordHandler(app *App, c *gin.Context) {
	sid := sessionID(app, c)
	var fresh *game.GameState
	found, _ := app.Sessions.Update(sid, func(g *game.GameState) error {
		fresh = g.Retry()
		return nil
	})
	if !found {
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeNoActiveGame)
		return
	}
	app.Sessions.Save(sid, fresh)
	c.JSON(http.StatusOK, gin.H{"game": gameView(fresh)})
}

func HintHandler(app *App, c *gin.Context) {
	ctx := c.Request.Context()
	g, ok := snapshot(app, sessionID(app, c))
	if !ok {
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeNoActiveGame)
		return
	}

	level, err := strconv.Atoi(c.DefaultQuery("level", "1"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeBadRequest)
		return
	}
	level = coach.ClampHintLevel(level)

	c.JSON(http.StatusOK, gin.H{
		"hint":  app.Coach.Hint(ctx, g.SessionWord, level),
		"level": level,
	})
}

func CoachHandler(app *App, c *gin.Context) {
	ctx := c.Request.Context()
	g, ok := snapshot(app, sessionID(app, c))
	if !ok {
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeNoActiveGame)
		return
	}
	if len(g.Guesses) == 0 {
		abortWithError(c, http.StatusConflict, constants.ErrorCodeNoGuesses)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": app.Coach.Coach(ctx, g)})
}

func FeedbackHandler(app *App, c *gin.Context) {
	ctx := c.Request.Context()
	g, ok := snapshot(app, sessionID(app, c))
	if !ok {
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeNoActiveGame)
		return
	}
	if !g.GameOver {
		abortWithError(c, http.StatusConflict, constants.ErrorCodeGameNotOver)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    app.Coach.Feedback(ctx, g),
		"won":        g.Won,
		"targetWord": g.TargetWord,
		"guesses":    len(g.Guesses),
	})
}

// limitedRoutes are the limit names reported by the health check.
var limitedRoutes = []string{
	constants.LimitWord,
	constants.LimitHint,
	constants.LimitCoach,
	constants.LimitFeedback,
	constants.LimitGuess,
}

func sharedLimitStore(store ratelimit.Store) bool {
	switch store.(type) {
	case *ratelimit.RedisStore:
		return true
	default:
		return false
	}
}

func HealthzHandler(app *App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	limiterRecords, err := app.Limiter.Store().Len(ctx)
	if err != nil {
		util.LogWarnCtx(c.Request.Context(), "Failed to count rate limit records: %v", err)
		limiterRecords = -1
	}

	limits := gin.H{}
	for _, route := range limitedRoutes {
		if l, ok := app.Limiter.Limit(route); ok {
			limits[route] = gin.H{"maxRequests": l.MaxRequests, "windowMinutes": l.WindowMinutes}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"env":                map[bool]string{true: "production", false: "development"}[app.Config.IsProduction],
		"words_loaded":       app.Catalog.Len(),
		"accepted_words":     app.Catalog.AcceptedLen(),
		"active_sessions":    app.Sessions.Len(),
		"ratelimit_records":  limiterRecords,
		"active_throttles":   app.Throttle.Len(),
		"llm_enabled":        app.Config.LLM.Enabled(),
		"shared_rate_limits": sharedLimitStore(app.Limiter.Store()),
		"rate_limits":        limits,
		"guess_dictionary":   app.Catalog.Restricted(),
		"memory_alloc_mb":    m.Alloc / 1024 / 1024,
		"memory_sys_mb":      m.Sys / 1024 / 1024,
		"memory_gc_count":    m.NumGC,
		"uptime":             util.FormatUptime(time.Since(app.StartTime)),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

package handlers

import (
	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/ratelimit"
)

// NewRouter builds the engine with the shared middleware chain and all routes.
// extra runs first, which is where main puts gin's logger and recovery.
func NewRouter(app *App, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(extra...)
	router.Use(RequestIDMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CSRFMiddleware(app.Config.CookieMaxAge, app.Config.SecureCookies))
	router.Use(ValidateCSRFMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{constants.RouteMetrics})))
	router.Use(CacheHeadersMiddleware(app.Config.IsProduction, app.Config.StaticCacheAge))

	RegisterRoutes(router, app)
	return router
}

// RegisterRoutes mounts the game API. Routes that reach the LLM provider sit
// behind their fixed-window limit; guess submission only has the per-IP
// throttle plus a lookup in the limit table, which leaves it unlimited unless
// a "guess" entry is configured.
func RegisterRoutes(router *gin.Engine, app *App) {
	wrap := func(h func(*App, *gin.Context)) gin.HandlerFunc {
		return func(c *gin.Context) { h(app, c) }
	}
	limit := func(route string) gin.HandlerFunc {
		return ratelimit.Middleware(app.Limiter, route)
	}

	router.GET(constants.RouteHealthz, wrap(HealthzHandler))
	if app.Metrics != nil {
		router.GET(constants.RouteMetrics, gin.WrapH(app.Metrics.Handler()))
	}

	router.POST(constants.RouteNewGame, limit(constants.LimitWord), wrap(NewGameHandler))
	router.POST(constants.RouteGuess, app.Throttle.Middleware(), limit(constants.LimitGuess), wrap(GuessHandler))
	router.POST(constants.RouteRetryWord, app.Throttle.Middleware(), wrap(RetryWordHandler))
	router.GET(constants.RouteGameState, wrap(GameStateHandler))
	router.GET(constants.RouteHint, limit(constants.LimitHint), wrap(HintHandler))
	router.POST(constants.RouteCoach, limit(constants.LimitCoach), wrap(CoachHandler))
	router.POST(constants.RouteFeedback, limit(constants.LimitFeedback), wrap(FeedbackHandler))
}

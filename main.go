package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/CodeAndHammer/wordwise/internal/coach"
	"github.com/CodeAndHammer/wordwise/internal/config"
	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/handlers"
	"github.com/CodeAndHammer/wordwise/internal/llm"
	"github.com/CodeAndHammer/wordwise/internal/metrics"
	"github.com/CodeAndHammer/wordwise/internal/ratelimit"
	"github.com/CodeAndHammer/wordwise/internal/session"
	"github.com/CodeAndHammer/wordwise/internal/util"
	"github.com/CodeAndHammer/wordwise/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		util.LogFatal("Failed to load configuration: %v", err)
	}
	util.LogInfo("Starting Wordwise in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction])

	catalog, err := words.Load(cfg.WordsPath, cfg.AcceptedWordsPath)
	if err != nil {
		util.LogFatal("Failed to load words: %v", err)
	}
	util.LogInfo("Loaded %d words and %d accepted words", catalog.Len(), catalog.AcceptedLen())
	if !catalog.Restricted() {
		util.LogInfo("No accepted word list configured, any five letter guess is allowed")
	}

	var client llm.Client = llm.Disabled{}
	if cfg.LLM.Enabled() {
		client = llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout,
			llm.WithHTTPClient(&http.Client{
				Transport: &http.Transport{
					Proxy:               http.ProxyFromEnvironment,
					MaxIdleConnsPerHost: 10,
					IdleConnTimeout:     90 * time.Second,
					TLSHandshakeTimeout: 10 * time.Second,
				},
			}))
		util.LogInfo("LLM provider %s with model %s", cfg.LLM.BaseURL, cfg.LLM.Model)
	} else {
		util.LogWarn("LLM_API_KEY not set, serving catalog words and canned coaching")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New()
	store, closeStore := newLimitStore(ctx, cfg)
	defer closeStore()

	limiter := ratelimit.NewLimiter(store, cfg.RouteLimits, ratelimit.WithObserver(m))
	limiter.StartJanitor(ctx, cfg.SweepInterval)
	for route, limit := range cfg.RouteLimits {
		util.LogInfo("Rate limit %s: %d request%s per %d minute%s", route,
			limit.MaxRequests, util.Plural(limit.MaxRequests), limit.WindowMinutes, util.Plural(limit.WindowMinutes))
	}

	throttle := ratelimit.NewThrottle(cfg.ThrottleRPS, cfg.ThrottleBurst, cfg.ThrottleTTL)
	throttle.StartCleanup(ctx, 30*time.Minute)

	sessions := session.NewStore(cfg.SessionTTL)
	sessions.StartCleanup(ctx, 10*time.Minute, m.SetActiveSessions)

	app := &handlers.App{
		Config:    cfg,
		Catalog:   catalog,
		Sessions:  sessions,
		Coach:     coach.NewService(client, catalog, cfg.HintCacheTTL, m),
		Limiter:   limiter,
		Throttle:  throttle,
		Metrics:   m,
		StartTime: time.Now(),
	}

	router := handlers.NewRouter(app, gin.Logger(), gin.Recovery())
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}
	if util.DirExists("static") {
		util.LogInfo("Serving static assets from static/")
		router.Static(constants.RouteStaticPrefix, "./static")
	}

	startServer(router, cfg.Port, stop)
}

// newLimitStore picks the shared Redis store when REDIS_ADDR is set and the
// server answers, and the in-process store otherwise.
func newLimitStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func()) {
	if !cfg.Redis.Enabled() {
		util.LogInfo("Using in-memory rate limit store")
		return ratelimit.NewMemoryStore(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		util.LogWarn("Redis at %s unavailable (%v), using in-memory rate limit store", cfg.Redis.Addr, err)
		_ = rdb.Close()
		return ratelimit.NewMemoryStore(), func() {}
	}
	util.LogInfo("Using Redis rate limit store at %s", cfg.Redis.Addr)
	return ratelimit.NewRedisStore(rdb), func() {
		if err := rdb.Close(); err != nil {
			util.LogWarn("Failed to close Redis client: %v", err)
		}
	}
}

func startServer(router *gin.Engine, port string, stopBackground context.CancelFunc) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		stopBackground()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

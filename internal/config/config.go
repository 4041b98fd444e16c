// Package config assembles runtime settings from the environment and an
// optional YAML file describing per-route rate limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/ratelimit"
	"github.com/CodeAndHammer/wordwise/internal/util"
)

type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether requests should be sent to the provider at all.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type Config struct {
	Port           string
	IsProduction   bool
	SecureCookies  bool
	CookieMaxAge   time.Duration
	StaticCacheAge time.Duration
	SessionTTL     time.Duration

	ThrottleRPS   int
	ThrottleBurst int
	ThrottleTTL   time.Duration
	SweepInterval time.Duration
	RouteLimits   map[string]ratelimit.RouteLimit

	WordsPath         string
	AcceptedWordsPath string
	HintCacheTTL      time.Duration

	LLM   LLMConfig
	Redis RedisConfig
}

// DefaultRouteLimits is the built-in limit table. coach uses the stricter of
// the two limits that have been documented for it.
func DefaultRouteLimits() map[string]ratelimit.RouteLimit {
	return map[string]ratelimit.RouteLimit{
		constants.LimitWord:     {MaxRequests: 5, WindowMinutes: 1440},
		constants.LimitHint:     {MaxRequests: 30, WindowMinutes: 60},
		constants.LimitCoach:    {MaxRequests: 15, WindowMinutes: 60},
		constants.LimitFeedback: {MaxRequests: 10, WindowMinutes: 60},
	}
}

type routeLimitsFile struct {
	Routes map[string]ratelimit.RouteLimit `yaml:"routes"`
}

// Load reads the environment (after godotenv has populated it) and merges the
// route limit file named by RATE_LIMITS_FILE, if any.
func Load() (*Config, error) {
	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	cfg := &Config{
		Port:              util.GetEnvString("PORT", "8080"),
		IsProduction:      isProduction,
		SecureCookies:     util.GetEnvBool("SECURE_COOKIES", isProduction),
		CookieMaxAge:      util.GetEnvDuration("COOKIE_MAX_AGE", 2*time.Hour),
		StaticCacheAge:    util.GetEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		SessionTTL:        util.GetEnvDuration("SESSION_TTL", 3*time.Hour),
		ThrottleRPS:       util.GetEnvInt("RATE_LIMIT_RPS", 5),
		ThrottleBurst:     util.GetEnvInt("RATE_LIMIT_BURST", 10),
		ThrottleTTL:       util.GetEnvDuration("RATE_LIMITER_TTL", time.Hour),
		SweepInterval:     util.GetEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		RouteLimits:       DefaultRouteLimits(),
		WordsPath:         util.GetEnvString("WORDS_PATH", "data/words.json"),
		AcceptedWordsPath: os.Getenv("ACCEPTED_WORDS_PATH"),
		HintCacheTTL:      util.GetEnvDuration("HINT_CACHE_TTL", 24*time.Hour),
		LLM: LLMConfig{
			BaseURL: util.GetEnvString("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  os.Getenv("LLM_API_KEY"),
			Model:   util.GetEnvString("LLM_MODEL", "gpt-4o-mini"),
			Timeout: util.GetEnvDuration("LLM_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       util.GetEnvInt("REDIS_DB", 0),
		},
	}

	if path := os.Getenv("RATE_LIMITS_FILE"); path != "" {
		if err := LoadRouteLimits(path, cfg.RouteLimits); err != nil {
			return nil, fmt.Errorf("failed to load rate limits: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadRouteLimits overlays the routes in the YAML file at path onto limits.
func LoadRouteLimits(path string, limits map[string]ratelimit.RouteLimit) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var file routeLimitsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	for route, lim := range file.Routes {
		if old, ok := limits[route]; ok && old != lim {
			util.LogInfo("Rate limit for %s overridden: %d/%dm -> %d/%dm", route, old.MaxRequests, old.WindowMinutes, lim.MaxRequests, lim.WindowMinutes)
		}
		limits[route] = lim
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	for route, lim := range c.RouteLimits {
		if err := lim.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("route %q: %w", route, err))
		}
	}
	if c.ThrottleRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.ThrottleRPS))
	}
	if c.ThrottleBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.ThrottleBurst))
	}
	if c.LLM.Enabled() && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("LLM_BASE_URL must be set when LLM_API_KEY is"))
	}
	return errors.Join(errs...)
}

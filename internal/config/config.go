package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/voyagen/upnext/internal/service"
)

var (
	// ErrMissingDatabaseURL is returned when no database URL is configured.
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	// ErrInvalidLimits is returned when a queue or rate limit is not positive.
	ErrInvalidLimits = errors.New("queue and rate limits must be positive")
)

// Config holds application configuration.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	ServerPort  string `yaml:"server_port"`
	JWTSecret   string `yaml:"jwt_secret"`

	YouTubeAPIKey   string        `yaml:"youtube_api_key"`
	UserAgent       string        `yaml:"user_agent"`
	ResolverTimeout time.Duration `yaml:"resolver_timeout"`

	MaxQueueLen     int           `yaml:"max_queue_len"`
	DuplicateWindow time.Duration `yaml:"duplicate_window"`
	BurstWindow     time.Duration `yaml:"burst_window"`
	BurstLimit      int           `yaml:"burst_limit"`
	SustainedWindow time.Duration `yaml:"sustained_window"`
	SustainedLimit  int           `yaml:"sustained_limit"`
	AdvanceLockTTL  time.Duration `yaml:"advance_lock_ttl"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns a Config with every optional field set.
func Defaults() *Config {
	l := service.DefaultLimits()
	return &Config{
		ServerPort:      "8080",
		UserAgent:       "upnext/1.0",
		ResolverTimeout: 5 * time.Second,
		MaxQueueLen:     l.MaxQueueLen,
		DuplicateWindow: l.DuplicateWindow,
		BurstWindow:     l.BurstWindow,
		BurstLimit:      l.BurstLimit,
		SustainedWindow: l.SustainedWindow,
		SustainedLimit:  l.SustainedLimit,
		AdvanceLockTTL:  10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load first loads .env.local and .env from the current
// directory without overriding variables that are already set.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		for _, name := range []string{".env.local", ".env"} {
			_ = godotenv.Load(name)
		}
	}

	c := Defaults()
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	c.UserAgent = getEnv("RESOLVER_USER_AGENT", c.UserAgent)
	c.ResolverTimeout = getDuration("RESOLVER_TIMEOUT", c.ResolverTimeout)
	c.MaxQueueLen = getInt("MAX_QUEUE_LEN", c.MaxQueueLen)
	c.DuplicateWindow = getDuration("DUPLICATE_WINDOW", c.DuplicateWindow)
	c.BurstWindow = getDuration("BURST_WINDOW", c.BurstWindow)
	c.BurstLimit = getInt("BURST_LIMIT", c.BurstLimit)
	c.SustainedWindow = getDuration("SUSTAINED_WINDOW", c.SustainedWindow)
	c.SustainedLimit = getInt("SUSTAINED_LIMIT", c.SustainedLimit)
	c.AdvanceLockTTL = getDuration("ADVANCE_LOCK_TTL", c.AdvanceLockTTL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks required fields and limit sanity.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.MaxQueueLen <= 0 || c.BurstLimit <= 0 || c.SustainedLimit <= 0 ||
		c.DuplicateWindow <= 0 || c.BurstWindow <= 0 || c.SustainedWindow <= 0 {
		return ErrInvalidLimits
	}
	return nil
}

// Limits returns the admission limits described by the config.
func (c *Config) Limits() service.Limits {
	return service.Limits{
		MaxQueueLen:     c.MaxQueueLen,
		DuplicateWindow: c.DuplicateWindow,
		BurstWindow:     c.BurstWindow,
		BurstLimit:      c.BurstLimit,
		SustainedWindow: c.SustainedWindow,
		SustainedLimit:  c.SustainedLimit,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s", "10m"); a bare number means seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	return parseDuration(os.Getenv(key), defaultValue)
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

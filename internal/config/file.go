package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL     string `yaml:"database_url"`
	RedisURL        string `yaml:"redis_url"`
	ServerPort      string `yaml:"server_port"`
	JWTSecret       string `yaml:"jwt_secret"`
	YouTubeAPIKey   string `yaml:"youtube_api_key"`
	UserAgent       string `yaml:"user_agent"`
	ResolverTimeout string `yaml:"resolver_timeout"`
	MaxQueueLen     int    `yaml:"max_queue_len"`
	DuplicateWindow string `yaml:"duplicate_window"`
	BurstWindow     string `yaml:"burst_window"`
	BurstLimit      int    `yaml:"burst_limit"`
	SustainedWindow string `yaml:"sustained_window"`
	SustainedLimit  int    `yaml:"sustained_limit"`
	AdvanceLockTTL  string `yaml:"advance_lock_ttl"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
}

// LoadFromFile loads config from a YAML file. database_url is required; every other
// key falls back to Defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	c := Defaults()
	c.DatabaseURL = f.DatabaseURL
	c.RedisURL = f.RedisURL
	c.JWTSecret = f.JWTSecret
	c.YouTubeAPIKey = f.YouTubeAPIKey
	if f.ServerPort != "" {
		c.ServerPort = f.ServerPort
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.MaxQueueLen != 0 {
		c.MaxQueueLen = f.MaxQueueLen
	}
	if f.BurstLimit != 0 {
		c.BurstLimit = f.BurstLimit
	}
	if f.SustainedLimit != 0 {
		c.SustainedLimit = f.SustainedLimit
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}
	c.ResolverTimeout = parseDuration(f.ResolverTimeout, c.ResolverTimeout)
	c.DuplicateWindow = parseDuration(f.DuplicateWindow, c.DuplicateWindow)
	c.BurstWindow = parseDuration(f.BurstWindow, c.BurstWindow)
	c.SustainedWindow = parseDuration(f.SustainedWindow, c.SustainedWindow)
	c.AdvanceLockTTL = parseDuration(f.AdvanceLockTTL, c.AdvanceLockTTL)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type BotConfig struct {
	// Token is the fallback credential when none is stored in the relay
	// settings yet.
	Token          string        `yaml:"token"`
	Username       string        `yaml:"username"`
	PollTimeout    int           `yaml:"poll_timeout"`    // long-poll timeout, seconds
	ReconnectDelay time.Duration `yaml:"reconnect_delay"` // fixed delay between reconnect attempts
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ForumConfig struct {
	BaseURL         string `yaml:"base_url"`
	DefaultLanguage string `yaml:"default_language"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Forum    ForumConfig    `yaml:"forum"`
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Bot.PollTimeout <= 0 {
		cfg.Bot.PollTimeout = 30
	}
	if cfg.Bot.ReconnectDelay <= 0 {
		cfg.Bot.ReconnectDelay = 10 * time.Second
	}
	if cfg.Forum.DefaultLanguage == "" {
		cfg.Forum.DefaultLanguage = "en-GB"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Forum.BaseURL == "" {
		return nil, errors.New("forum.base_url is required")
	}
	return &cfg, nil
}

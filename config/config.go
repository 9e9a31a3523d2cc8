// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robertkozin/reel-extractor/extract"
)

type Config struct {
	APIToken     string `env:"API_TOKEN"`
	SessionID    string `env:"INSTAGRAM_SESSIONID"`
	Cookie       string `env:"INSTAGRAM_COOKIE"`
	Host         string `env:"HOST" envDefault:"0.0.0.0"`
	Port         int    `env:"PORT" envDefault:"8000"`
	YtDlpPath    string `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	CookieJarDir string `env:"COOKIE_JAR_DIR"`
	TesterPage   bool   `env:"TESTER_PAGE" envDefault:"false"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	cfg.APIToken = strings.TrimSpace(cfg.APIToken)
	cfg.SessionID = strings.TrimSpace(cfg.SessionID)
	cfg.Cookie = strings.TrimSpace(cfg.Cookie)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}

	return &cfg, nil
}

// Warn logs configuration that is accepted but probably not intended.
func (c *Config) Warn(logger *slog.Logger) {
	if c.APIToken == "" {
		logger.Warn("API_TOKEN is not set, every /extract call will fail with 500")
	}
	if c.Cookie != "" && c.SessionID != "" {
		logger.Warn("both INSTAGRAM_COOKIE and INSTAGRAM_SESSIONID are set, INSTAGRAM_SESSIONID is ignored")
	}
}

func (c *Config) Credential() extract.Credential {
	return extract.Credential{Cookie: c.Cookie, SessionID: c.SessionID}
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

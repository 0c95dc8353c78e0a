package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultAPIBaseURL  = "https://ai-auto-design-api-service.azurewebsites.net/api/v1"
	defaultSecretsFile = ".streamlit/secrets.toml"
)

// Config holds all configuration for the autodesign front-end.
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Polling PollingConfig
	Session SessionConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type APIConfig struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	SecretsFile string
}

type PollingConfig struct {
	Interval time.Duration
	// MaxAttempts of zero polls until a terminal status.
	MaxAttempts int
}

type SessionConfig struct {
	TTL               time.Duration
	CookieName        string
	SubmitLimitPerMin int
}

// RedisConfig selects the session backend. An empty URL keeps sessions in
// process memory.
type RedisConfig struct {
	URL string
}

// Load reads .env files, the secrets file and environment variables and
// returns a validated Config. A missing bearer token is an error.
func Load() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("AUTODESIGN_PORT", 8080),
			Env:  envString("AUTODESIGN_ENV", "development"),
		},
		API: APIConfig{
			BaseURL:     strings.TrimRight(envString("AUTODESIGN_API_BASE_URL", defaultAPIBaseURL), "/"),
			Timeout:     envDuration("AUTODESIGN_API_TIMEOUT", 30*time.Second),
			SecretsFile: envString("AUTODESIGN_SECRETS_FILE", defaultSecretsFile),
		},
		Polling: PollingConfig{
			Interval:    envDurationSecs("POLL_INTERVAL_SECS", 10*time.Second),
			MaxAttempts: envInt("POLL_MAX_ATTEMPTS", 0),
		},
		Session: SessionConfig{
			TTL:               envDuration("SESSION_TTL", 24*time.Hour),
			CookieName:        envString("SESSION_COOKIE_NAME", "autodesign_session"),
			SubmitLimitPerMin: envInt("SUBMIT_RATE_LIMIT_PER_MIN", 10),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
	}

	token, err := loadToken(cfg.API.SecretsFile)
	if err != nil {
		return nil, err
	}
	cfg.API.Token = token

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether debug logging should be enabled.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("BEARER_TOKEN is required (set it in %s or the environment)", c.API.SecretsFile)
	}

	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("AUTODESIGN_API_BASE_URL must start with http:// or https://, got %q", c.API.BaseURL)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("AUTODESIGN_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("AUTODESIGN_API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECS must be positive, got %s", c.Polling.Interval)
	}
	if c.Polling.MaxAttempts < 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must not be negative, got %d", c.Polling.MaxAttempts)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.SubmitLimitPerMin < 0 {
		return fmt.Errorf("SUBMIT_RATE_LIMIT_PER_MIN must not be negative, got %d", c.Session.SubmitLimitPerMin)
	}

	return nil
}

// loadToken reads BEARER_TOKEN from the secrets file, falling back to the
// environment. A missing file is not an error; a malformed one is.
func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("read secrets file: %w", err)
	default:
		var secrets struct {
			BearerToken string `toml:"BEARER_TOKEN"`
		}
		if err := toml.Unmarshal(data, &secrets); err != nil {
			return "", fmt.Errorf("parse secrets file %s: %w", path, err)
		}
		if token := strings.TrimSpace(secrets.BearerToken); token != "" {
			return token, nil
		}
	}
	return strings.TrimSpace(os.Getenv("BEARER_TOKEN")), nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

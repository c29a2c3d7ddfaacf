package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/teamdash/team-dashboard/internal/listquery"
)

const (
	AuthModeSession = "session"
	AuthModeCasdoor = "casdoor"
)

type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level `env:"-"`

	API     APIConfig
	Redis   RedisConfig
	Session SessionConfig
	Casdoor CasdoorConfig
	Kafka   KafkaConfig
	Lists   ListConfig
}

type APIConfig struct {
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000/api"`
	// Zero leaves the http client default.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"0s"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type SessionConfig struct {
	AuthMode string        `env:"AUTH_MODE" envDefault:"session"`
	TTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// CasdoorConfig is only used when AUTH_MODE=casdoor.
type CasdoorConfig struct {
	Endpoint     string `env:"CASDOOR_ENDPOINT"`
	ClientID     string `env:"CASDOOR_CLIENT_ID"`
	ClientSecret string `env:"CASDOOR_CLIENT_SECRET"`
	Cert         string `env:"CASDOOR_CERT"`
	Organization string `env:"CASDOOR_ORGANIZATION"`
	Application  string `env:"CASDOOR_APPLICATION"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"team-dashboard.sessions"`
}

type ListConfig struct {
	DefaultPageSize int           `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	IdleTTL         time.Duration `env:"LIST_IDLE_TTL" envDefault:"15m"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	level, err := parseLevel(c.LogLevelRaw)
	if err != nil {
		return err
	}
	c.LogLevel = level

	c.Session.AuthMode = strings.ToLower(strings.TrimSpace(c.Session.AuthMode))
	switch c.Session.AuthMode {
	case AuthModeSession:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required when AUTH_MODE=session")
		}
	case AuthModeCasdoor:
		if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" {
			return errors.New("CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID are required when AUTH_MODE=casdoor")
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE %q", c.Session.AuthMode)
	}

	if !listquery.ValidPageSize(c.Lists.DefaultPageSize) {
		return fmt.Errorf("invalid DEFAULT_PAGE_SIZE %d: must be one of %v", c.Lists.DefaultPageSize, listquery.PageSizes)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid API_TIMEOUT %s", c.API.Timeout)
	}
	if c.API.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	return nil
}

// KafkaEnabled reports whether session events should go through Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

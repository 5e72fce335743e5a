package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/google/uuid"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the kiosk configuration, read from KIOSK_* environment variables.
type Config struct {
	BackendURL      string        `env:"KIOSK_BACKEND_URL" envDefault:"http://localhost:5000"`
	HTTPPort        int           `env:"KIOSK_HTTP_PORT" envDefault:"8080"`
	HealthPort      int           `env:"KIOSK_HEALTH_PORT" envDefault:"50070"`
	TrolleyID       string        `env:"KIOSK_TROLLEY_ID"`
	FetchTimeout    time.Duration `env:"KIOSK_FETCH_TIMEOUT" envDefault:"5s"`
	ActionTimeout   time.Duration `env:"KIOSK_ACTION_TIMEOUT" envDefault:"30s"`
	PollTimeout     time.Duration `env:"KIOSK_POLL_TIMEOUT" envDefault:"1500ms"`
	ShutdownTimeout time.Duration `env:"KIOSK_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RedisAddr     string `env:"KIOSK_REDIS_ADDR"`
	RedisPassword string `env:"KIOSK_REDIS_PASSWORD"`

	KafkaBrokers []string `env:"KIOSK_KAFKA_BROKERS" envSeparator:","`
	AlertTopic   string   `env:"KIOSK_ALERT_TOPIC" envDefault:"trolley-alerts"`

	JournalPath string `env:"KIOSK_JOURNAL_PATH"`

	OTelEndpoint string `env:"KIOSK_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"KIOSK_OTEL_ENABLED" envDefault:"true"`
}

// Load parses the environment, fills the generated defaults and validates.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TrolleyID == "" {
		cfg.TrolleyID = uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: backend url %q must be absolute", ErrInvalidConfig, c.BackendURL)
	}
	timeouts := map[string]time.Duration{
		"fetch timeout":    c.FetchTimeout,
		"action timeout":   c.ActionTimeout,
		"poll timeout":     c.PollTimeout,
		"shutdown timeout": c.ShutdownTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, name, d)
		}
	}
	if c.HTTPPort <= 0 || c.HealthPort <= 0 {
		return fmt.Errorf("%w: ports must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Timeouts() backend.Timeouts {
	return backend.Timeouts{
		Fetch:  c.FetchTimeout,
		Action: c.ActionTimeout,
		Poll:   c.PollTimeout,
	}
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) HealthAddr() string {
	return fmt.Sprintf(":%d", c.HealthPort)
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var ErrInvalidConfig = errors.New("invalid-config")

type Config struct {
	Port           string   `env:"PORT" envDefault:"5000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,required,notEmpty" envSeparator:","`
	Debug          bool     `env:"DEBUG"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"json"`

	ClassifierURL     string        `env:"CLASSIFIER_URL,required,notEmpty"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"5s"`

	// Optional backing services. Empty means "not used".
	PostgresURL         string `env:"POSTGRES_URL"`
	RedisAddr           string `env:"REDIS_ADDR"`
	RedisResultsChannel string `env:"REDIS_RESULTS_CHANNEL" envDefault:"colorhunt:results"`
	OtelEndpoint        string `env:"OTEL_ENDPOINT"`

	CountdownTicks int           `env:"COUNTDOWN_TICKS" envDefault:"5"`
	RoundTicks     int           `env:"ROUND_TICKS" envDefault:"60"`
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	RoomCodeLength int           `env:"ROOM_CODE_LENGTH" envDefault:"4"`
	SendBuffer     int           `env:"SEND_BUFFER" envDefault:"256"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.CountdownTicks < 0:
		return fmt.Errorf("%w: COUNTDOWN_TICKS must not be negative", ErrInvalidConfig)
	case c.RoundTicks < 1:
		return fmt.Errorf("%w: ROUND_TICKS must be at least 1", ErrInvalidConfig)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: TICK_INTERVAL must be positive", ErrInvalidConfig)
	case c.RoomCodeLength < 3:
		return fmt.Errorf("%w: ROOM_CODE_LENGTH must be at least 3", ErrInvalidConfig)
	case c.ClassifierTimeout <= 0:
		return fmt.Errorf("%w: CLASSIFIER_TIMEOUT must be positive", ErrInvalidConfig)
	case c.SendBuffer < 1:
		return fmt.Errorf("%w: SEND_BUFFER must be at least 1", ErrInvalidConfig)
	case c.LogFormat != "json" && c.LogFormat != "console":
		return fmt.Errorf("%w: LOG_FORMAT must be json or console", ErrInvalidConfig)
	}
	return nil
}

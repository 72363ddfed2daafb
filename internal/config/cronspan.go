package config

import (
	"context"
	"fmt"
	"time"

	"github.com/glizzus/cronspan/internal/cronspan"
	"github.com/glizzus/cronspan/internal/dates"
	"github.com/sethvargo/go-envconfig"
)

type CronspanConfig struct {
	DatePattern  string `env:"CRONSPAN_DATE_PATTERN, default=yyyy-MM-dd"`
	TimePattern  string `env:"CRONSPAN_TIME_PATTERN, default=HH:mm:ss"`
	Timezone     string `env:"CRONSPAN_TIMEZONE, default=UTC"`
	PreviewCount int    `env:"CRONSPAN_PREVIEW_COUNT, default=5"`
	RunHorizon   int    `env:"CRONSPAN_RUN_HORIZON, default=5"`
}

func NewCronspanConfigFromEnv() (*CronspanConfig, error) {
	var cfg CronspanConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if _, err := dates.Layout(cfg.DatePattern); err != nil {
		return nil, fmt.Errorf("CRONSPAN_DATE_PATTERN: %w", err)
	}
	if _, err := dates.Layout(cfg.TimePattern); err != nil {
		return nil, fmt.Errorf("CRONSPAN_TIME_PATTERN: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("CRONSPAN_TIMEZONE: %w", err)
	}
	if cfg.PreviewCount < 1 || cfg.RunHorizon < 1 {
		return nil, fmt.Errorf("CRONSPAN_PREVIEW_COUNT and CRONSPAN_RUN_HORIZON must be at least 1")
	}

	return &cfg, nil
}

// Parser returns a parser for the configured date and time patterns.
func (c *CronspanConfig) Parser() cronspan.Parser {
	return cronspan.Parser{
		DatePattern: c.DatePattern,
		TimePattern: c.TimePattern,
	}
}

// Location is the zone schedules fire in. The timezone was validated when the
// config was loaded, so UTC is only returned for hand-built configs.
func (c *CronspanConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

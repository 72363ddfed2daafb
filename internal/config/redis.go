package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, required"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
	Stream   string `env:"REDIS_RUN_STREAM, default=cronspan_runs"`
	Group    string `env:"REDIS_RUN_GROUP, default=cronspan_workers"`
}

func NewRedisConfigFromEnv() (*RedisConfig, error) {
	var cfg RedisConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.Stream == "" || cfg.Group == "" {
		return nil, fmt.Errorf("REDIS_RUN_STREAM and REDIS_RUN_GROUP must not be empty")
	}
	return &cfg, nil
}

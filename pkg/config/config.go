// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:"localhost:8080"`
	BadgerDir   string        `env:"BADGER_DIR" envDefault:"./binaries/badgerdb"`
	BrokerAddr  string        `env:"BROKER_ADDR" envDefault:"local"`
	IdleTimeout time.Duration `env:"ACTOR_IDLE_TIMEOUT" envDefault:"10m"`
	RouterPool  int           `env:"INBOUND_POOL_SIZE" envDefault:"4"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// Package config loads the service configuration from the environment,
// with an optional .env file for development.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string        `env:"ADDR" envDefault:":8080"`
	DatabaseURL       string        `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/scoreboard?sslmode=disable"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	KeepaliveInterval time.Duration `env:"SSE_KEEPALIVE_INTERVAL" envDefault:"15s"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Package config loads engine and storage settings from the process
// environment through envconfig struct tags.
package config

import "github.com/kelseyhightower/envconfig"

// Engine configures the Graph Executor's defaults.
type Engine struct {
	MaxLoopIterations int    `envconfig:"PRANA_MAX_LOOP_ITERATIONS" default:"1000"`
	LogLevel          string `envconfig:"PRANA_LOG_LEVEL" default:"info"`
}

// Storage configures which persistence adapter to use and, for Postgres,
// how to reach it.
type Storage struct {
	Driver   string `envconfig:"PRANA_STORAGE_DRIVER" default:"memory"` // memory|postgres
	Postgres string `envconfig:"PRANA_POSTGRES_DSN"`
}

// Server configures the illustrative HTTP/websocket transport.
type Server struct {
	Addr      string `envconfig:"PRANA_ADDR" default:":8080"`
	JWTSecret string `envconfig:"PRANA_JWT_SECRET"`
}

// Config is the root configuration, assembled from the process
// environment with the "PRANA" prefix convention used above.
type Config struct {
	Engine  Engine
	Storage Storage
	Server  Server
}

// Load populates Config from the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg.Engine); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("", &cfg.Storage); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

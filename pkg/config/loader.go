package config

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotEnv sync.Once

// Load populates cfg from environment variables according to its env tags.
// The .env file is read once per process; a missing file is not an error.
func Load[T any](cfg *T) error {
	loadDotEnv.Do(func() {
		_ = godotenv.Load()
	})

	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %T: %w", *cfg, err)
	}
	return nil
}

// MustLoad is Load for startup paths where a bad environment should stop the
// process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

package cli

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings shared by every command.
// Flags override these per invocation.
type Config struct {
	// StoreKind selects the save backend: memory, file, sqlite, badger or
	// redis.
	StoreKind string `env:"FABULA_STORE"          envDefault:"file"`

	// StorePath points the file, sqlite and badger backends at their data.
	// Empty uses each backend's default under .fabula/.
	StorePath string `env:"FABULA_STORE_PATH"`

	RedisAddr     string `env:"FABULA_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"FABULA_REDIS_PASSWORD"`
	RedisDB       int    `env:"FABULA_REDIS_DB"       envDefault:"0"`

	// LockTTL bounds how long a crashed process can hold the distributed
	// save lock.
	LockTTL time.Duration `env:"FABULA_LOCK_TTL"       envDefault:"30s"`

	// SaveKey enables save encryption at rest when set: 64 hex characters
	// decoding to a 32-byte AES-256 key.
	SaveKey string `env:"FABULA_SAVE_KEY"`

	// ScrubFlags holds regex patterns; flags whose keys match any of them
	// are masked before a save is persisted.
	ScrubFlags []string `env:"FABULA_SCRUB_FLAGS"    envSeparator:","`

	Debug     bool   `env:"FABULA_DEBUG"`
	LogFormat string `env:"FABULA_LOG_FORMAT"     envDefault:"text"`
}

// LoadConfig reads .env when present, then the FABULA_* environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

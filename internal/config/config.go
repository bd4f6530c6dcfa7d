// Package config loads mes settings from .mes/config.json and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigEnv names a config file that overrides the working-directory lookup.
const ConfigEnv = "MES_CONFIG"

// Config represents the mes configuration
type Config struct {
	DBPath     string `json:"db_path,omitempty" env:"MES_DB_PATH"`
	WorkshopID string `json:"workshop_id,omitempty" env:"MES_WORKSHOP_ID"`
	Sync       Sync   `json:"sync"`
	Log        Log    `json:"log"`
}

// Sync configures outbox delivery.
type Sync struct {
	Limit       int     `json:"limit" env:"MES_SYNC_LIMIT" env-default:"20"`
	FailureRate float64 `json:"failure_rate" env:"MES_SYNC_FAILURE_RATE" env-default:"0"`
	Breaker     Breaker `json:"breaker"`
}

// Breaker configures the transport circuit breaker.
type Breaker struct {
	MaxFailures uint32 `json:"max_failures" env:"MES_BREAKER_MAX_FAILURES" env-default:"5"`
	Cooldown    string `json:"cooldown" env:"MES_BREAKER_COOLDOWN" env-default:"30s"` // e.g. "30s"
}

// Log configures the zap logger.
type Log struct {
	Level string `json:"level" env:"MES_LOG_LEVEL" env-default:"info"`
	Env   string `json:"env" env:"MES_ENV" env-default:"local"`
}

// CooldownDuration parses Cooldown.
func (b Breaker) CooldownDuration() (time.Duration, error) {
	d, err := time.ParseDuration(b.Cooldown)
	if err != nil {
		return 0, fmt.Errorf("invalid sync.breaker.cooldown %q: %w", b.Cooldown, err)
	}
	return d, nil
}

// Path returns the config file location for dir, honouring MES_CONFIG.
func Path(dir string) string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return filepath.Join(dir, ".mes", "config.json")
}

// LoadConfig reads the config file for dir if one exists and applies
// environment overrides. Without a file, settings come from the
// environment and defaults alone.
func LoadConfig(dir string) (*Config, error) {
	var cfg Config
	path := Path(dir)

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DBPath = filepath.Join(home, ".mes", "mes.db")
	}
	if strings.HasPrefix(c.DBPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DBPath = filepath.Join(home, c.DBPath[2:])
	}
	if c.WorkshopID == "" {
		c.WorkshopID = uuid.Nil.String()
	}
	return nil
}

// Validate checks that values are within range.
func (c *Config) Validate() error {
	if c.Sync.Limit <= 0 {
		return fmt.Errorf("sync.limit must be greater than 0, got %d", c.Sync.Limit)
	}
	if c.Sync.FailureRate < 0 || c.Sync.FailureRate > 1 {
		return fmt.Errorf("sync.failure_rate must be between 0 and 1, got %g", c.Sync.FailureRate)
	}
	cooldown, err := c.Sync.Breaker.CooldownDuration()
	if err != nil {
		return err
	}
	if cooldown < 0 {
		return fmt.Errorf("sync.breaker.cooldown must not be negative, got %s", cooldown)
	}
	return nil
}

// SaveConfig writes config.json to the .mes directory under dir
func SaveConfig(dir string, cfg *Config) error {
	mesDir := filepath.Join(dir, ".mes")
	if err := os.MkdirAll(mesDir, 0755); err != nil {
		return fmt.Errorf("failed to create .mes dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(mesDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

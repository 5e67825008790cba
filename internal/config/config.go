// Package config loads annotate settings from defaults, an optional YAML file and ANNOTATE_* env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/submission"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Guard   GuardConfig   `mapstructure:"guard"`
	Session SessionConfig `mapstructure:"session"`
	Store   StoreConfig   `mapstructure:"store"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GuardConfig holds the duplicate-submission guard timings.
type GuardConfig struct {
	MinHold         time.Duration `mapstructure:"min_hold"`
	MaxHold         time.Duration `mapstructure:"max_hold"`
	LatePolicy      string        `mapstructure:"late_policy"`
	UnguardedUpdate bool          `mapstructure:"unguarded_update"`
}

// SessionConfig holds per-session defaults.
type SessionConfig struct {
	Interfaces []string `mapstructure:"interfaces"`
	Keymap     string   `mapstructure:"keymap"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	RedisURL      string        `mapstructure:"redis_url"`
	TTL           time.Duration `mapstructure:"ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	PIIPatterns   []string      `mapstructure:"pii_patterns"`
}

// BridgeConfig holds the sqlite bridge settings.
type BridgeConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// TasksConfig locates task documents.
type TasksConfig struct {
	Dir string `mapstructure:"dir"`
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Load reads configuration. An explicit path must exist; otherwise ./annotate.yaml and
// $HOME/.config/annotate/annotate.yaml are tried and skipped when absent.
// Env var overrides use prefix ANNOTATE_, e.g. ANNOTATE_GUARD_MAX_HOLD=10s.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("guard.min_hold", submission.DefaultMinHold)
	v.SetDefault("guard.max_hold", submission.DefaultMaxHold)
	v.SetDefault("guard.late_policy", "notify")
	v.SetDefault("guard.unguarded_update", false)
	v.SetDefault("session.interfaces", []string{
		domain.CapabilitySubmit,
		domain.CapabilityUpdate,
		domain.CapabilitySkip,
		domain.CapabilityControls,
	})
	v.SetDefault("session.keymap", "")
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", filepath.Join(".annotate", "sessions"))
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.pii_patterns", []string{})
	v.SetDefault("bridge.sqlite_path", filepath.Join(".annotate", "results.db"))
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.rate_limit", 20.0)
	v.SetDefault("http.burst", 40)
	v.SetDefault("tasks.dir", ".")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("annotate")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "annotate"))
		}
	}

	v.SetEnvPrefix("ANNOTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings no component could run with.
func (c Config) Validate() error {
	if c.Guard.MinHold < 0 || c.Guard.MaxHold <= 0 {
		return fmt.Errorf("guard timings must be positive (min_hold=%s, max_hold=%s)", c.Guard.MinHold, c.Guard.MaxHold)
	}
	if c.Guard.MinHold > c.Guard.MaxHold {
		return fmt.Errorf("guard.min_hold (%s) exceeds guard.max_hold (%s)", c.Guard.MinHold, c.Guard.MaxHold)
	}
	if _, err := c.LatePolicy(); err != nil {
		return err
	}
	for _, p := range c.Store.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("store.pii_patterns: %w", err)
		}
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// LatePolicy parses guard.late_policy.
func (c Config) LatePolicy() (submission.LatePolicy, error) {
	switch strings.ToLower(c.Guard.LatePolicy) {
	case "", "notify":
		return submission.LateNotify, nil
	case "discard":
		return submission.LateDiscard, nil
	default:
		return 0, fmt.Errorf("unknown guard.late_policy %q (want notify or discard)", c.Guard.LatePolicy)
	}
}

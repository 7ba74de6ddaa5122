package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds QFLIP_* environment overrides.
type EnvConfig struct {
	HistorySize int           `env:"HISTORY_SIZE"`
	FlipDelay   time.Duration `env:"FLIP_DELAY"`
	SettleDelay time.Duration `env:"SETTLE_DELAY"`
	Seed        int64         `env:"SEED"`
	Store       bool          `env:"STORE"`
	DBPath      string        `env:"DB_PATH"`
	LogLevel    string        `env:"LOG_LEVEL"`

	set map[string]bool
}

const envPrefix = "QFLIP_"

// LoadEnv parses QFLIP_* variables from the process environment.
func LoadEnv() (EnvConfig, error) {
	return parseEnv(nil)
}

// LoadEnvFrom parses QFLIP_* variables from vars instead of the process environment.
func LoadEnvFrom(vars map[string]string) (EnvConfig, error) {
	return parseEnv(vars)
}

func parseEnv(vars map[string]string) (EnvConfig, error) {
	cfg := EnvConfig{set: map[string]bool{}}
	lookup := os.LookupEnv
	if vars != nil {
		lookup = func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		}
	}
	opts := env.Options{
		Prefix:      envPrefix,
		Environment: vars,
		// OnSet fires for every tagged field, present or not. Empty values
		// are left unparsed by env, so they count as unset too.
		OnSet: func(tag string, _ interface{}, _ bool) {
			name := strings.TrimPrefix(tag, envPrefix)
			if v, ok := lookup(envPrefix + name); ok && v != "" {
				cfg.set[name] = true
			}
		},
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// IsSet reports whether the variable (without prefix) was present.
func (e EnvConfig) IsSet(name string) bool {
	return e.set[name]
}

// Merge overlays environment values onto file values. The environment wins.
func (f FileConfig) Merge(e EnvConfig) FileConfig {
	out := f
	if e.IsSet("HISTORY_SIZE") {
		v := e.HistorySize
		out.Flip.HistorySize = &v
	}
	if e.IsSet("FLIP_DELAY") {
		out.Flip.FlipDelay = &Duration{Duration: e.FlipDelay}
	}
	if e.IsSet("SETTLE_DELAY") {
		out.Flip.SettleDelay = &Duration{Duration: e.SettleDelay}
	}
	if e.IsSet("SEED") {
		v := e.Seed
		out.Flip.Seed = &v
	}
	if e.IsSet("STORE") {
		v := e.Store
		out.Flip.Store = &v
	}
	if e.IsSet("LOG_LEVEL") {
		v := e.LogLevel
		out.Log.Level = &v
	}
	return out
}

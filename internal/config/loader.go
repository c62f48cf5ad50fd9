package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/kpibonus/internal/domain/scoring"
)

// Environment variables read by Load.
const (
	EnvPrefix = "KPIBONUS_"
	EnvFile   = "KPIBONUS_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if KPIBONUS_CONFIG is set
//  3. env (prefix KPIBONUS_); lists are comma separated
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// KPIBONUS_MAX_UPLOAD_MB -> max_upload_mb; underscores are kept to
	// match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Slices are decoded into a fresh value so a shorter list replaces the
	// default instead of overwriting its prefix.
	cfg.Periods = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if cfg.Periods == nil {
		cfg.Periods = base.Periods
	}
	for i, p := range cfg.Periods {
		cfg.Periods[i] = strings.TrimSpace(p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case !scoring.ValidStatus(c.DefaultStatus):
		return fmt.Errorf("%w: unknown default_status %q", ErrInvalidConfig, c.DefaultStatus)
	}
	if _, err := c.PeriodSequence(); err != nil {
		return fmt.Errorf("%w: periods: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Package config defines service configuration and its loading.
package config

import (
	"github.com/okian/kpibonus/internal/domain/period"
	"github.com/okian/kpibonus/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Periods lists the reporting period labels, newest first.
	Periods []string `koanf:"periods"`

	// MaxUploadMB caps the size of an uploaded workbook.
	MaxUploadMB int `koanf:"max_upload_mb"`

	// NotesDSN is the SQLite path for KPI notes; empty keeps notes in memory.
	NotesDSN string `koanf:"notes_dsn"`

	// DefaultStatus is the report status filter used when none is given.
	DefaultStatus string `koanf:"default_status"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		Periods:       period.DefaultLabels(),
		MaxUploadMB:   20,
		NotesDSN:      "",
		DefaultStatus: scoring.StatusAll,
	}
}

// MaxUploadBytes converts MaxUploadMB to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// PeriodSequence builds the period ordering from Periods.
func (c *Config) PeriodSequence() (period.Sequence, error) {
	return period.NewSequence(c.Periods)
}

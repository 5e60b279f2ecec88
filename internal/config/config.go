// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; file and env layers override them.
// - Heuristic scoring constants (weights, window bounds, fallbacks) are
//   deliberately configuration, not code: they are tuned, not derived.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite event database path, or ":memory:".
	DBPath string `koanf:"db_path"`

	// WindowDays is the default scoring window.
	WindowDays int `koanf:"window_days"`

	// HighRiskWindowDays bounds the batch scan to recently touched
	// conversations.
	HighRiskWindowDays int `koanf:"high_risk_window_days"`

	// SourceTimeoutMS bounds each event store read.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// BatchWorkers sets the high-risk scan pool size.
	BatchWorkers int `koanf:"batch_workers"`

	// CacheMaxAgeHours is how long cached scores stay fresh.
	CacheMaxAgeHours int `koanf:"cache_max_age_hours"`

	// ScanRatePerSecond and ScanRateBurst throttle batch scoring.
	ScanRatePerSecond float64 `koanf:"scan_rate_per_second"`
	ScanRateBurst     int     `koanf:"scan_rate_burst"`

	// StoreRowLimit bounds rows per event store query.
	StoreRowLimit int `koanf:"store_row_limit"`

	// IntentWeights and GhostingWeights override the per-signal weight
	// tables, keyed by signal type name.
	IntentWeights   map[string]float64 `koanf:"intent_weights"`
	GhostingWeights map[string]float64 `koanf:"ghosting_weights"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9090",
		DBPath:             "pulse.db",
		WindowDays:         30,
		HighRiskWindowDays: 7,
		SourceTimeoutMS:    3000,
		BatchWorkers:       runtime.NumCPU() * 2,
		CacheMaxAgeHours:   24,
		ScanRatePerSecond:  50,
		ScanRateBurst:      10,
		StoreRowLimit:      50,
	}
}

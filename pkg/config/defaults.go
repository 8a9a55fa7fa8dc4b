package config

import (
	"strings"
	"time"

	"github.com/marmos91/pinledger/pkg/records/sqlstore"
)

// ApplyDefaults replaces zero values with defaults. Explicit values are kept.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyPinataDefaults(&cfg.Pinata)
	applyRecordsDefaults(&cfg.Records)
	applyReconcileDefaults(&cfg.Reconcile)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Job == "" {
		cfg.Job = "pinledger"
	}
}

func applyPinataDefaults(cfg *PinataConfig) {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.pinata.cloud"
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.GatewayHost == "" {
		cfg.GatewayHost = "gateway.pinata.cloud"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

func applyRecordsDefaults(cfg *RecordsConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "postgrest"
	}
	cfg.Supabase.URL = strings.TrimRight(cfg.Supabase.URL, "/")
	if cfg.Supabase.Timeout == 0 {
		cfg.Supabase.Timeout = 30 * time.Second
	}
	cfg.Database.ApplyDefaults()
}

// applyReconcileDefaults pauses 100ms after every check and treats a failed
// check as an orphan unless told otherwise. The adaptive limits, used with
// pacing: adaptive, start at 3 rps (Pinata's free-plan budget) and back off
// to 0.25 rps.
func applyReconcileDefaults(cfg *ReconcileConfig) {
	if cfg.Pacing == "" {
		cfg.Pacing = "fixed"
	}
	if cfg.Delay == 0 {
		cfg.Delay = 100 * time.Millisecond
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = "orphan"
	}

	a := &cfg.Adaptive
	if a.StartRPS == 0 {
		a.StartRPS = 3.0
	}
	if a.MaxRPS == 0 {
		a.MaxRPS = 10.0
	}
	if a.MinRPS == 0 {
		a.MinRPS = 0.25
	}
	if a.Step == 0 {
		a.Step = 0.25
	}
	if a.Down == 0 {
		a.Down = 0.7
	}
	if a.OKEvery == 0 {
		a.OKEvery = 30
	}
}

// GetDefaultConfig returns a Config with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Records: RecordsConfig{
			Database: sqlstore.Config{Type: sqlstore.DatabaseTypeSQLite},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/pinledger/pkg/records/sqlstore"
)

// Config represents the pinledger configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (PINLEDGER_*, plus the legacy names bound in legacyEnv)
//  3. A .env file in the working directory
//  4. Configuration file (YAML)
//  5. Default values (lowest priority)
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`

	// Pinata configures the pinning service client
	Pinata PinataConfig `mapstructure:"pinata" yaml:"pinata"`

	// Records selects and configures the relational store holding the
	// metadata, images and tokens tables
	Records RecordsConfig `mapstructure:"records" yaml:"records"`

	// Reconcile tunes the orphan-metadata job
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path. Reports always go to stdout,
	// so the default keeps logs on stderr.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig configures Prometheus metrics for batch runs.
// Metrics are pushed to a Pushgateway when a run finishes since the
// process does not live long enough to be scraped.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PushGateway is the Pushgateway URL. Empty means collect but don't push.
	PushGateway string `mapstructure:"push_gateway" validate:"omitempty,url" yaml:"push_gateway"`

	// Job is the Pushgateway job label
	Job string `mapstructure:"job" validate:"required" yaml:"job"`
}

// PinataConfig configures the Pinata REST client.
type PinataConfig struct {
	// APIURL is the base URL of the Pinata API
	APIURL string `mapstructure:"api_url" validate:"required,url" yaml:"api_url"`

	// GatewayHost is used to build https://<host>/ipfs/<cid> URLs
	GatewayHost string `mapstructure:"gateway_host" validate:"required" yaml:"gateway_host"`

	// JWT is the bearer token of the pinning account.
	// Env: PINLEDGER_PINATA_JWT or PINATA_JWT_KEY
	JWT string `mapstructure:"jwt" yaml:"jwt,omitempty"`

	// Timeout bounds every request
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`
}

// RecordsConfig selects the relational store backend.
type RecordsConfig struct {
	// Backend is "postgrest" (Supabase REST API) or "sql" (direct database)
	Backend string `mapstructure:"backend" validate:"required,oneof=postgrest sql" yaml:"backend"`

	Supabase SupabaseConfig `mapstructure:"supabase" yaml:"supabase"`

	// Database is used when Backend is "sql"
	Database sqlstore.Config `mapstructure:"database" yaml:"database"`
}

// SupabaseConfig holds the project URL and keys for the PostgREST backend.
type SupabaseConfig struct {
	// URL is the project URL, e.g. https://abc.supabase.co
	// Env: PINLEDGER_RECORDS_SUPABASE_URL, NUXT_PUBLIC_SUPABASE_URL or SUPABASE_URL
	URL string `mapstructure:"url" validate:"omitempty,url" yaml:"url"`

	// AnonKey is the public key. Enough for reads and inserts allowed by
	// row level security.
	AnonKey string `mapstructure:"anon_key" yaml:"anon_key,omitempty"`

	// ServiceRoleKey bypasses row level security. Required to delete rows.
	ServiceRoleKey string `mapstructure:"service_role_key" yaml:"service_role_key,omitempty"`

	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`
}

// ReconcileConfig tunes the orphan-metadata job.
type ReconcileConfig struct {
	// Pacing is "fixed" (sleep Delay after every check) or "adaptive"
	Pacing string `mapstructure:"pacing" validate:"required,oneof=fixed adaptive" yaml:"pacing"`

	// Delay is the fixed pause after each existence check
	Delay time.Duration `mapstructure:"delay" validate:"gte=0" yaml:"delay"`

	// FailurePolicy decides what an errored check means:
	// "orphan" treats it as not pinned, "unknown" leaves the row alone
	FailurePolicy string `mapstructure:"failure_policy" validate:"required,oneof=orphan unknown" yaml:"failure_policy"`

	// Retries is the number of extra attempts for a failed check
	Retries int `mapstructure:"retries" validate:"gte=0,lte=10" yaml:"retries"`

	Adaptive AdaptiveConfig `mapstructure:"adaptive" yaml:"adaptive"`
}

// AdaptiveConfig parameterises the adaptive pacer: the request rate grows by
// Step after every OKEvery successful checks and is multiplied by Down when
// the pinning service answers 429.
type AdaptiveConfig struct {
	StartRPS float64 `mapstructure:"start_rps" validate:"gt=0" yaml:"start_rps"`
	MaxRPS   float64 `mapstructure:"max_rps" validate:"gtefield=StartRPS" yaml:"max_rps"`
	MinRPS   float64 `mapstructure:"min_rps" validate:"gt=0,ltefield=StartRPS" yaml:"min_rps"`
	Step     float64 `mapstructure:"step" validate:"gt=0" yaml:"step"`
	Down     float64 `mapstructure:"down" validate:"gt=0,lt=1" yaml:"down"`
	OKEvery  int     `mapstructure:"ok_every" validate:"gt=0" yaml:"ok_every"`
}

// legacyEnv binds config keys to environment variable names used by the
// web app's deployment, in precedence order after the PINLEDGER_ name.
var legacyEnv = map[string][]string{
	"pinata.jwt":                        {"PINATA_JWT_KEY"},
	"records.supabase.url":              {"NUXT_PUBLIC_SUPABASE_URL", "SUPABASE_URL"},
	"records.supabase.anon_key":         {"NUXT_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"},
	"records.supabase.service_role_key": {"SUPABASE_SERVICE_ROLE_KEY"},
}

// Load loads configuration from defaults, the config file, .env and the
// environment, in increasing precedence.
//
// A missing config file is not an error: pinledger is usually driven purely
// by environment variables.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(""); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := setupViper(v, configPath); err != nil {
		return nil, err
	}

	if _, err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold the service-role key and the Pinata JWT.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// loadDotEnv loads KEY=value pairs from path (default ".env") into the
// process environment. Variables already set win. A missing file is ignored.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setupViper seeds viper with the defaults and the environment bindings.
//
// Defaults are fed in as a YAML document so that every key is known to
// viper; AutomaticEnv only overrides keys it knows about.
func setupViper(v *viper.Viper, configPath string) error {
	defaults, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// Example: PINLEDGER_RECONCILE_FAILURE_POLICY=unknown
	v.SetEnvPrefix("PINLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		primary := "PINLEDGER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, primary}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	// Omitted from the defaults document, so AutomaticEnv can't see it.
	if err := v.BindEnv("records.database.postgres.password"); err != nil {
		return fmt.Errorf("failed to bind postgres password: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
	}
	return nil
}

// readConfigFile merges the config file over the defaults if it exists.
// An explicitly requested file that is missing is an error.
func readConfigFile(v *viper.Viper, configPath string) (bool, error) {
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		if os.IsNotExist(err) && configPath == "" {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts "100ms", "30s" or raw nanoseconds to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/pinledger, ~/.config/pinledger, or ".".
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "pinledger")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "pinledger")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfigDir points the default config location at an empty temp dir
// and runs the test from there so no stray config.yaml or .env is picked up.
func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)
	return dir
}

// unsetEnv clears key for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "https://api.pinata.cloud", cfg.Pinata.APIURL)
	assert.Equal(t, "gateway.pinata.cloud", cfg.Pinata.GatewayHost)
	assert.Equal(t, "postgrest", cfg.Records.Backend)
	assert.Equal(t, "fixed", cfg.Reconcile.Pacing)
	assert.Equal(t, 100*time.Millisecond, cfg.Reconcile.Delay)
	assert.Equal(t, "orphan", cfg.Reconcile.FailurePolicy)
	assert.Zero(t, cfg.Reconcile.Retries)
	assert.Equal(t, 0.7, cfg.Reconcile.Adaptive.Down)
}

func TestLoad_File(t *testing.T) {
	dir := isolateConfigDir(t)
	path := writeConfig(t, dir, `
logging:
  level: debug
reconcile:
  pacing: fixed
  delay: 250ms
  failure_policy: unknown
  retries: 2
  adaptive:
    start_rps: 2
records:
  backend: sql
  database:
    type: sqlite
    sqlite:
      path: `+filepath.ToSlash(filepath.Join(dir, "records.db"))+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "fixed", cfg.Reconcile.Pacing)
	assert.Equal(t, 250*time.Millisecond, cfg.Reconcile.Delay)
	assert.Equal(t, "unknown", cfg.Reconcile.FailurePolicy)
	assert.Equal(t, 2, cfg.Reconcile.Retries)
	assert.Equal(t, 2.0, cfg.Reconcile.Adaptive.StartRPS)
	assert.Equal(t, 10.0, cfg.Reconcile.Adaptive.MaxRPS, "untouched keys keep their defaults")
	assert.Equal(t, "sql", cfg.Records.Backend)
	assert.Equal(t, filepath.Join(dir, "records.db"), filepath.FromSlash(cfg.Records.Database.SQLite.Path))
}

func TestLoad_DefaultLocation(t *testing.T) {
	dir := isolateConfigDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pinledger"), 0755))
	writeConfig(t, filepath.Join(dir, "pinledger"), "reconcile:\n  retries: 3\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Reconcile.Retries)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	dir := isolateConfigDir(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	dir := isolateConfigDir(t)
	path := writeConfig(t, dir, "reconcile:\n  failure_policy: maybe\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
	assert.Contains(t, err.Error(), "FailurePolicy")
}

func TestLoad_Env(t *testing.T) {
	t.Run("PrefixedVariables", func(t *testing.T) {
		isolateConfigDir(t)
		t.Setenv("PINLEDGER_RECONCILE_RETRIES", "4")
		t.Setenv("PINLEDGER_RECONCILE_DELAY", "1s")
		t.Setenv("PINLEDGER_PINATA_JWT", "jwt-prefixed")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Reconcile.Retries)
		assert.Equal(t, time.Second, cfg.Reconcile.Delay)
		assert.Equal(t, "jwt-prefixed", cfg.Pinata.JWT)
	})

	t.Run("LegacyVariables", func(t *testing.T) {
		isolateConfigDir(t)
		unsetEnv(t, "PINLEDGER_PINATA_JWT")
		unsetEnv(t, "PINLEDGER_RECORDS_SUPABASE_URL")
		t.Setenv("PINATA_JWT_KEY", "jwt-legacy")
		t.Setenv("NUXT_PUBLIC_SUPABASE_URL", "https://public.supabase.co")
		t.Setenv("SUPABASE_URL", "https://fallback.supabase.co")
		t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "jwt-legacy", cfg.Pinata.JWT)
		assert.Equal(t, "https://public.supabase.co", cfg.Records.Supabase.URL)
		assert.Equal(t, "service-role", cfg.Records.Supabase.ServiceRoleKey)
	})

	t.Run("SupabaseURLFallback", func(t *testing.T) {
		isolateConfigDir(t)
		unsetEnv(t, "PINLEDGER_RECORDS_SUPABASE_URL")
		unsetEnv(t, "NUXT_PUBLIC_SUPABASE_URL")
		t.Setenv("SUPABASE_URL", "https://fallback.supabase.co/")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "https://fallback.supabase.co", cfg.Records.Supabase.URL)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolateConfigDir(t)
	unsetEnv(t, "PINLEDGER_PINATA_JWT")
	unsetEnv(t, "SUPABASE_SERVICE_ROLE_KEY")
	unsetEnv(t, "PINLEDGER_RECORDS_SUPABASE_SERVICE_ROLE_KEY")
	t.Setenv("PINATA_JWT_KEY", "from-environment")

	dotenv := "# local secrets\nPINATA_JWT_KEY=from-dotenv\nSUPABASE_SERVICE_ROLE_KEY=\"quoted-secret\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-environment", cfg.Pinata.JWT, "existing variables are not overridden")
	assert.Equal(t, "quoted-secret", cfg.Records.Supabase.ServiceRoleKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "LOUD" }, wantErr: "oneof"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "Format"},
		{name: "zero pinata timeout", mutate: func(c *Config) { c.Pinata.Timeout = 0 }, wantErr: "Timeout"},
		{name: "pinata url", mutate: func(c *Config) { c.Pinata.APIURL = "not a url" }, wantErr: "url"},
		{name: "unknown backend", mutate: func(c *Config) { c.Records.Backend = "mongo" }, wantErr: "Backend"},
		{name: "unknown pacing", mutate: func(c *Config) { c.Reconcile.Pacing = "burst" }, wantErr: "Pacing"},
		{name: "negative retries", mutate: func(c *Config) { c.Reconcile.Retries = -1 }, wantErr: "Retries"},
		{name: "down must be below one", mutate: func(c *Config) { c.Reconcile.Adaptive.Down = 1.5 }, wantErr: "Down"},
		{name: "min above start", mutate: func(c *Config) { c.Reconcile.Adaptive.MinRPS = 5 }, wantErr: "MinRPS"},
		{name: "sample rate", mutate: func(c *Config) { c.Telemetry.SampleRate = 2 }, wantErr: "SampleRate"},
		{
			name: "sql backend needs postgres host",
			mutate: func(c *Config) {
				c.Records.Backend = "sql"
				c.Records.Database.Type = "postgres"
				c.Records.Database.Postgres.Database = "postgres"
				c.Records.Database.Postgres.User = "postgres"
			},
			wantErr: "postgres host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	full := func() *Config {
		cfg := GetDefaultConfig()
		cfg.Pinata.JWT = "jwt"
		cfg.Records.Supabase.URL = "https://x.supabase.co"
		cfg.Records.Supabase.ServiceRoleKey = "service"
		return cfg
	}

	t.Run("AllPresent", func(t *testing.T) {
		assert.NoError(t, full().RequireCredentials(NeedPinata|NeedRecordsAdmin))
	})

	t.Run("URLCheckedFirst", func(t *testing.T) {
		cfg := full()
		cfg.Records.Supabase.URL = ""
		cfg.Pinata.JWT = ""

		err := cfg.RequireCredentials(NeedPinata | NeedRecordsAdmin)
		require.ErrorIs(t, err, ErrMissingCredential)

		var missing *MissingCredentialError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "records.supabase.url", missing.Key)
		assert.Contains(t, err.Error(), "SUPABASE_URL")
	})

	t.Run("ServiceRoleKeyForAdmin", func(t *testing.T) {
		cfg := full()
		cfg.Records.Supabase.ServiceRoleKey = ""
		cfg.Records.Supabase.AnonKey = "anon"

		err := cfg.RequireCredentials(NeedRecordsAdmin)
		require.ErrorIs(t, err, ErrMissingCredential)
		assert.Contains(t, err.Error(), "service_role")

		assert.NoError(t, cfg.RequireCredentials(NeedRecords), "anon key is enough to read")
		assert.Equal(t, "anon", cfg.SupabaseKey())
	})

	t.Run("PinataJWT", func(t *testing.T) {
		cfg := full()
		cfg.Pinata.JWT = ""

		err := cfg.RequireCredentials(NeedPinata)
		require.ErrorIs(t, err, ErrMissingCredential)
		assert.True(t, strings.Contains(err.Error(), "PINATA_JWT_KEY"))
		assert.NoError(t, cfg.RequireCredentials(NeedRecords))
	})

	t.Run("SQLBackendNeedsNoKeys", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Records.Backend = "sql"
		assert.NoError(t, cfg.RequireCredentials(NeedRecordsAdmin))
	})
}

func TestInitConfig(t *testing.T) {
	dir := isolateConfigDir(t)

	path, err := InitConfig(false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pinledger", "config.yaml"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, section := range []string{"# pinledger configuration file", "logging:", "pinata:", "records:", "reconcile:"} {
		assert.Contains(t, string(content), section)
	}

	_, err = InitConfig(false)
	assert.Error(t, err, "existing file is not replaced without force")

	_, err = InitConfig(true)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig().Reconcile, cfg.Reconcile)
}

func TestSaveConfig(t *testing.T) {
	dir := isolateConfigDir(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Reconcile.Retries = 5
	cfg.Reconcile.Delay = 2 * time.Second
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Reconcile.Retries)
	assert.Equal(t, 2*time.Second, loaded.Reconcile.Delay)
}

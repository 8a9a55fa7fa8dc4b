package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const sampleHeader = `# pinledger configuration file
#
# Secrets are usually better kept out of this file. Every key can be set
# through PINLEDGER_<SECTION>_<KEY> environment variables or a .env file;
# the web app's variable names are honoured too:
#   PINATA_JWT_KEY, NUXT_PUBLIC_SUPABASE_URL, SUPABASE_URL,
#   SUPABASE_SERVICE_ROLE_KEY, NUXT_PUBLIC_SUPABASE_ANON_KEY
#
# reconcile.pacing:         fixed (reconcile.delay) | adaptive (token bucket, backs off on 429)
# reconcile.failure_policy: orphan (failed checks count as orphans) | unknown
# records.backend:          postgrest (Supabase REST) | sql (direct database)

`

// InitConfig writes a sample configuration to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a sample configuration to path.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(sampleHeader), data...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints declared in the struct tags and the
// backend-specific rules that tags can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if cfg.Records.Backend == "sql" {
		if err := cfg.Records.Database.Validate(); err != nil {
			return fmt.Errorf("records.database: %w", err)
		}
	}
	return nil
}

// formatValidationErrors renders "Config.Pinata.Timeout: gt" style messages
// so the failing tag stays greppable.
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed '%s' validation", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Requirement names a set of credentials a command needs.
type Requirement uint8

const (
	// NeedPinata requires the pinning service JWT.
	NeedPinata Requirement = 1 << iota

	// NeedRecords requires read access to the relational store.
	NeedRecords

	// NeedRecordsAdmin requires the elevated key able to delete rows.
	NeedRecordsAdmin
)

// RequireCredentials returns a *MissingCredentialError for the first absent
// credential in req, checking the relational store before the pinning service.
func (c *Config) RequireCredentials(req Requirement) error {
	if req&(NeedRecords|NeedRecordsAdmin) != 0 && c.Records.Backend == "postgrest" {
		sb := c.Records.Supabase
		if sb.URL == "" {
			return &MissingCredentialError{
				Key:  "records.supabase.url",
				Env:  []string{"NUXT_PUBLIC_SUPABASE_URL", "SUPABASE_URL"},
				Hint: "Copy the project URL from the Supabase dashboard: Settings > API.",
			}
		}
		if req&NeedRecordsAdmin != 0 && sb.ServiceRoleKey == "" {
			return &MissingCredentialError{
				Key:  "records.supabase.service_role_key",
				Env:  []string{"SUPABASE_SERVICE_ROLE_KEY"},
				Hint: "Copy the service_role secret from the Supabase dashboard (Settings > API) into .env.",
			}
		}
		if sb.ServiceRoleKey == "" && sb.AnonKey == "" {
			return &MissingCredentialError{
				Key:  "records.supabase.anon_key",
				Env:  []string{"NUXT_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
				Hint: "Copy the anon public key from the Supabase dashboard: Settings > API.",
			}
		}
	}

	if req&NeedPinata != 0 && c.Pinata.JWT == "" {
		return &MissingCredentialError{
			Key:  "pinata.jwt",
			Env:  []string{"PINATA_JWT_KEY", "PINLEDGER_PINATA_JWT"},
			Hint: "Create an API key in the Pinata dashboard (API Keys) and copy its JWT into .env.",
		}
	}
	return nil
}

// SupabaseKey returns the key used for PostgREST requests: the service-role
// key when configured, otherwise the anon key.
func (c *Config) SupabaseKey() string {
	if c.Records.Supabase.ServiceRoleKey != "" {
		return c.Records.Supabase.ServiceRoleKey
	}
	return c.Records.Supabase.AnonKey
}

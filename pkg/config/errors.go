package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential is matched by every *MissingCredentialError.
var ErrMissingCredential = errors.New("missing credential")

// MissingCredentialError reports a required secret or endpoint that is not
// configured. It is raised before any remote client is built.
type MissingCredentialError struct {
	// Key is the config key, e.g. "pinata.jwt"
	Key string

	// Env lists the environment variables that can provide it
	Env []string

	// Hint tells the operator where to obtain the value
	Hint string
}

func (e *MissingCredentialError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrMissingCredential, e.Key)
	if len(e.Env) > 0 {
		fmt.Fprintf(&b, " (set %s)", strings.Join(e.Env, " or "))
	}
	if e.Hint != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

package logger

import (
	"log/slog"
	"strings"
)

const redacted = "********"

var secretKeys = map[string]bool{
	"jwt":           true,
	"key":           true,
	"apikey":        true,
	"authorization": true,
	"password":      true,
	"secret":        true,
	"token":         true,
}

var secretSuffixes = []string{"_jwt", "_key", "_secret", "_password"}

// redact is the ReplaceAttr hook of every handler. It masks attributes
// named like a credential, bearer headers, and values shaped like a JWT
// (Pinata keys and Supabase keys are both JWTs).
func redact(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if isSecretKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() != slog.KindString {
		return a
	}

	v := a.Value.String()
	switch {
	case strings.HasPrefix(v, "Bearer "):
		return slog.String(a.Key, "Bearer "+redacted)
	case looksLikeJWT(v):
		return slog.String(a.Key, redacted)
	}
	return a
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	if secretKeys[key] {
		return true
	}
	for _, s := range secretSuffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}

// looksLikeJWT matches a compact JWS: three dot-separated segments with a
// base64url JSON header.
func looksLikeJWT(s string) bool {
	return strings.HasPrefix(s, "eyJ") && strings.Count(s, ".") == 2 && !strings.ContainsAny(s, " /")
}

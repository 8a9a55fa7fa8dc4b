// Package postgrest implements records.Store on top of a Supabase
// project's PostgREST API (/rest/v1).
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/pinledger/internal/logger"
)

const backendName = "postgrest"

// Config configures a Store.
type Config struct {
	// URL is the Supabase project URL; "/rest/v1" is appended.
	URL string

	// Key is sent both as apikey and as bearer token. Deleting rows
	// needs the service-role key.
	Key string

	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type request struct {
	method string
	table  string
	query  url.Values
	body   any
	prefer string

	// single asks PostgREST for exactly one object instead of an array.
	single bool
}

// do sends r and decodes the JSON response into result.
func (s *Store) do(ctx context.Context, r request, result any) error {
	var bodyReader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	endpoint := s.baseURL + "/" + r.table
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	if r.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest %s %s: %w", r.method, r.table, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	logger.DebugCtx(ctx, "postgrest request",
		logger.KeyBackend, backendName,
		logger.KeyMethod, r.method,
		logger.KeyTable, r.table,
		logger.StatusCode(resp.StatusCode),
		logger.DurationMs(start))

	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// APIError is PostgREST's error body plus the HTTP status.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("postgrest error %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// IsNotFound is true when a single-object request matched no row.
func (e *APIError) IsNotFound() bool {
	return e.Code == "PGRST116"
}

// IsDuplicate is true for a unique_violation.
func (e *APIError) IsDuplicate() bool {
	return e.Code == "23505"
}

// IsPermissionDenied is true when the key lacks the privileges, typically
// an anon key hitting row level security.
func (e *APIError) IsPermissionDenied() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden || e.Code == "42501"
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
		apiErr = &APIError{Message: strings.TrimSpace(string(body))}
	}
	apiErr.StatusCode = status
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// mapError turns PostgREST error codes into records sentinel errors,
// keeping the original in the chain.
func mapError(err error, notFound error, sentinelDup error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.IsNotFound() && notFound != nil:
		return fmt.Errorf("%w: %w", notFound, err)
	case apiErr.IsDuplicate():
		return fmt.Errorf("%w: %w", sentinelDup, err)
	default:
		return err
	}
}

func eq(value string) string {
	return "eq." + value
}

package pinning

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from Pinata.
type APIError struct {
	StatusCode int
	Reason     string
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("pinata API error %d", e.StatusCode)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// IsRateLimited returns true for 429 Too Many Requests.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsAuthError returns true for 401 and 403.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited reports whether err wraps a 429 from Pinata.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}

// newAPIError decodes the error body. Pinata answers either
// {"error":{"reason":..,"details":..}} or {"error":"..."}; anything else is
// kept verbatim as the reason.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		var structured struct {
			Reason  string `json:"reason"`
			Details string `json:"details"`
		}
		var plain string
		switch {
		case json.Unmarshal(envelope.Error, &structured) == nil && structured.Reason != "":
			apiErr.Reason, apiErr.Details = structured.Reason, structured.Details
		case json.Unmarshal(envelope.Error, &plain) == nil && plain != "":
			apiErr.Reason = plain
		case envelope.Message != "":
			apiErr.Reason = envelope.Message
		}
	}

	if apiErr.Reason == "" {
		apiErr.Reason = strings.TrimSpace(string(body))
	}
	if apiErr.Reason == "" {
		apiErr.Reason = http.StatusText(status)
	}
	return apiErr
}

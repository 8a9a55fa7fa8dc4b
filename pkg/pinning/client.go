// Package pinning is a client for the Pinata pinning service.
//
// It covers what pinledger needs from the content store: checking that a
// CID is pinned under the configured account, pinning JSON metadata, and
// building gateway URLs.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/internal/telemetry"
)

const (
	DefaultAPIURL      = "https://api.pinata.cloud"
	DefaultGatewayHost = "gateway.pinata.cloud"
)

// Config configures a Client.
type Config struct {
	APIURL      string
	GatewayHost string
	JWT         string
	Timeout     time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the Pinata REST API with a bearer JWT.
// It is safe for concurrent use.
type Client struct {
	baseURL     string
	gatewayHost string
	jwt         string
	httpClient  *http.Client
}

// New creates a new Pinata client. Empty fields fall back to the public
// Pinata endpoints and a 30s timeout.
func New(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.GatewayHost == "" {
		cfg.GatewayHost = DefaultGatewayHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: telemetry.HTTPTransport(nil),
		}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.APIURL, "/"),
		gatewayHost: cfg.GatewayHost,
		jwt:         cfg.JWT,
		httpClient:  httpClient,
	}
}

// do performs an authenticated request and decodes a JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinata %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	logger.DebugCtx(ctx, "pinata request",
		logger.KeyMethod, method,
		logger.KeyURL, path,
		logger.StatusCode(resp.StatusCode),
		logger.DurationMs(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// AuthResult is the body of a successful authentication test.
type AuthResult struct {
	Message string `json:"message"`
}

// TestAuthentication verifies the JWT against GET /data/testAuthentication.
func (c *Client) TestAuthentication(ctx context.Context) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodGet, "/data/testAuthentication", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GatewayURL returns the public gateway URL for cid.
func (c *Client) GatewayURL(cid string) string {
	return GatewayURL(c.gatewayHost, cid)
}

// GatewayURL returns https://<host>/ipfs/<cid>.
func GatewayURL(host, cid string) string {
	return "https://" + host + "/ipfs/" + cid
}

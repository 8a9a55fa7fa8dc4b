package pinning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxGatewayBody bounds what FetchJSON reads from the gateway.
const maxGatewayBody = 4 << 20

// FetchJSON downloads a JSON document from a public gateway URL. The
// request carries no credentials.
func (c *Client) FetchJSON(ctx context.Context, gatewayURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gatewayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", gatewayURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("fetch %s: response is not JSON", gatewayURL)
	}
	return json.RawMessage(body), nil
}

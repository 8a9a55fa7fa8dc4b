package pinning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/pinledger/internal/telemetry"
)

// PinStatus is the outcome of one existence check. It is never persisted.
type PinStatus string

const (
	StatusPinned    PinStatus = "pinned"
	StatusNotPinned PinStatus = "not-pinned"

	// StatusUnknown means the check itself failed.
	StatusUnknown PinStatus = "unknown"
)

// PinListRow is one entry of /data/pinList.
type PinListRow struct {
	ID         string    `json:"id"`
	IPFSHash   string    `json:"ipfs_pin_hash"`
	Size       int64     `json:"size"`
	DatePinned time.Time `json:"date_pinned"`
	Metadata   struct {
		Name string `json:"name"`
	} `json:"metadata"`
}

// PinList is the /data/pinList response.
type PinList struct {
	Count int          `json:"count"`
	Rows  []PinListRow `json:"rows"`
}

// IsPinned reports whether cid is currently pinned under the configured
// account. Content pinned by other accounts reads as not pinned.
//
// A blank cid is never pinned and sends no request: an empty hashContains
// filter matches every pin of the account.
//
// A non-2xx response is returned as *APIError; the caller decides what an
// error means.
func (c *Client) IsPinned(ctx context.Context, cid string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanPinCheck)
	defer span.End()
	span.SetAttributes(telemetry.CID(cid))

	if strings.TrimSpace(cid) == "" {
		span.SetAttributes(telemetry.PinStatus(string(StatusNotPinned)))
		return false, nil
	}

	query := url.Values{}
	query.Set("status", "pinned")
	query.Set("hashContains", cid)

	var list PinList
	if err := c.do(ctx, http.MethodGet, "/data/pinList", query, nil, &list); err != nil {
		telemetry.RecordError(ctx, err)
		return false, fmt.Errorf("check pin %s: %w", cid, err)
	}

	pinned := list.Count > 0
	if pinned {
		span.SetAttributes(telemetry.PinStatus(string(StatusPinned)))
	} else {
		span.SetAttributes(telemetry.PinStatus(string(StatusNotPinned)))
	}
	return pinned, nil
}

// Status is IsPinned folded into a PinStatus, with the error (if any)
// returned alongside StatusUnknown.
func (c *Client) Status(ctx context.Context, cid string) (PinStatus, error) {
	pinned, err := c.IsPinned(ctx, cid)
	switch {
	case err != nil:
		return StatusUnknown, err
	case pinned:
		return StatusPinned, nil
	default:
		return StatusNotPinned, nil
	}
}

// PinResult describes content pinned by PinJSON.
type PinResult struct {
	IpfsHash    string `json:"IpfsHash"`
	PinSize     int64  `json:"PinSize"`
	Timestamp   string `json:"Timestamp"`
	IsDuplicate bool   `json:"isDuplicate,omitempty"`

	// URL is the gateway URL of IpfsHash
	URL string `json:"url"`
}

type pinJSONRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

// DefaultPinName returns "NFT Metadata-YYYY-MM-DD-HHMM" for t.
func DefaultPinName(t time.Time) string {
	return "NFT Metadata-" + t.Format("2006-01-02-1504")
}

// PinJSON pins content as a JSON document. An empty name gets DefaultPinName.
func (c *Client) PinJSON(ctx context.Context, content any, name string) (*PinResult, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanPinPublish)
	defer span.End()

	if name == "" {
		name = DefaultPinName(time.Now())
	}

	req := pinJSONRequest{
		PinataContent:  content,
		PinataMetadata: pinataMetadata{Name: name},
	}

	var result PinResult
	if err := c.do(ctx, http.MethodPost, "/pinning/pinJSONToIPFS", nil, req, &result); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("pin json: %w", err)
	}
	if result.IpfsHash == "" {
		return nil, fmt.Errorf("pin json: response carried no IpfsHash")
	}

	result.URL = c.GatewayURL(result.IpfsHash)
	span.SetAttributes(telemetry.CID(result.IpfsHash))
	return &result, nil
}

package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/records"
)

// ImageDetails is an image with its metadata row and minted tokens.
type ImageDetails struct {
	Image    *records.Image          `json:"image" yaml:"image"`
	Metadata *records.MetadataRecord `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Tokens   []*records.Token        `json:"tokens" yaml:"tokens"`

	// URLCID is set when the metadata URL names a different CID than the
	// row's pinata_cid.
	URLCID string `json:"url_cid,omitempty" yaml:"url_cid,omitempty"`

	// Content is the pinned document, when requested and reachable.
	Content json.RawMessage `json:"content,omitempty" yaml:"-"`
}

// Details loads the image named fileName. It returns
// records.ErrImageNotFound when the image is not registered. An image
// without metadata yields a nil Metadata and no tokens.
func (s *Service) Details(ctx context.Context, fileName string, withContent bool) (*ImageDetails, error) {
	img, err := s.store.GetImageByFileName(ctx, fileName)
	if err != nil {
		return nil, err
	}
	details := &ImageDetails{Image: img, Tokens: []*records.Token{}}

	meta, err := s.store.GetMetadataByImageID(ctx, img.ID)
	switch {
	case errors.Is(err, records.ErrMetadataNotFound):
		return details, nil
	case err != nil:
		return nil, fmt.Errorf("load metadata of %s: %w", fileName, err)
	}
	details.Metadata = meta

	if urlCID := pinning.CIDFromURL(meta.PinataURL); urlCID != "" && urlCID != meta.PinataCID {
		details.URLCID = urlCID
		logger.WarnCtx(ctx, "Metadata URL names a different CID",
			logger.CID(meta.PinataCID),
			logger.KeyURL, meta.PinataURL)
	}

	tokens, err := s.store.ListTokensByMetadataID(ctx, meta.ID)
	if err != nil {
		return nil, err
	}
	details.Tokens = tokens

	if withContent && meta.PinataURL != "" {
		content, err := s.pins.FetchJSON(ctx, meta.PinataURL)
		if err != nil {
			// Details stay useful without the document.
			logger.WarnCtx(ctx, "Could not fetch pinned metadata",
				logger.CID(meta.PinataCID),
				logger.Err(err))
		} else {
			details.Content = content
		}
	}
	return details, nil
}

func (d *ImageDetails) SummaryPairs() [][2]string {
	pairs := [][2]string{
		{"Image ID", d.Image.ID},
		{"File name", d.Image.FileName},
		{"Description", d.Image.Description},
		{"Created", formatTime(d.Image.CreatedAt)},
	}
	if d.Metadata == nil {
		return append(pairs, [2]string{"Metadata", "none"})
	}
	pairs = append(pairs,
		[2]string{"Metadata ID", d.Metadata.ID},
		[2]string{"CID", d.Metadata.PinataCID},
		[2]string{"Metadata URL", d.Metadata.PinataURL},
	)
	if d.URLCID != "" {
		pairs = append(pairs, [2]string{"URL CID", d.URLCID + " (mismatch)"})
	}
	return append(pairs, [2]string{"Published", formatTime(d.Metadata.CreatedAt)})
}

func (d *ImageDetails) Headers() []string {
	return []string{"TOKEN ID", "CHAIN", "TX HASH", "MINTED AT"}
}

func (d *ImageDetails) Rows() [][]string {
	rows := make([][]string, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		rows = append(rows, []string{t.TokenID, t.Chain, t.TxHash, formatTime(t.MintedAt)})
	}
	return rows
}

func (d *ImageDetails) EmptyMessage() string {
	return "No tokens minted."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

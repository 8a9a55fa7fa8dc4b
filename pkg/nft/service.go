// Package nft publishes NFT metadata and keeps the bookkeeping rows that
// the web app writes: one metadata row per pinned document and one token
// row per mint.
package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/records"
)

// Pinner is the part of the pinning client the service needs.
type Pinner interface {
	PinJSON(ctx context.Context, content any, name string) (*pinning.PinResult, error)
	FetchJSON(ctx context.Context, gatewayURL string) (json.RawMessage, error)
}

// Service ties the pinning client to the records store.
type Service struct {
	store    records.Store
	pins     Pinner
	validate *validator.Validate
}

// New creates a Service.
func New(store records.Store, pins Pinner) *Service {
	return &Service{
		store:    store,
		pins:     pins,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Published is the result of Publish.
type Published struct {
	ImageID    string `json:"image_id" yaml:"image_id"`
	MetadataID string `json:"metadata_id" yaml:"metadata_id"`
	CID        string `json:"cid" yaml:"cid"`
	URL        string `json:"url" yaml:"url"`
	PinSize    int64  `json:"pin_size" yaml:"pin_size"`
	Duplicate  bool   `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
}

func (p *Published) SummaryPairs() [][2]string {
	return [][2]string{
		{"Image ID", p.ImageID},
		{"Metadata ID", p.MetadataID},
		{"CID", p.CID},
		{"URL", p.URL},
		{"Pin size", fmt.Sprintf("%d bytes", p.PinSize)},
	}
}

// Publish pins content and records it against the image stored at
// imagePath. The image is resolved first so an unknown path pins nothing.
// An empty name gets pinning.DefaultPinName.
func (s *Service) Publish(ctx context.Context, imagePath string, content any, name string) (*Published, error) {
	imageID, err := s.store.GetImageIDByPath(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("resolve image %q: %w", imagePath, err)
	}

	pin, err := s.pins.PinJSON(ctx, content, name)
	if err != nil {
		return nil, err
	}
	if err := pinning.ValidateCID(pin.IpfsHash); err != nil {
		return nil, fmt.Errorf("pinning service returned an invalid CID: %w", err)
	}

	metadataID, err := s.store.CreateMetadata(ctx, &records.MetadataRecord{
		ImageID:   imageID,
		PinataCID: pin.IpfsHash,
		PinataURL: pin.URL,
	})
	if err != nil {
		// The document stays pinned without a row.
		logger.WarnCtx(ctx, "Pinned metadata could not be recorded",
			logger.CID(pin.IpfsHash),
			logger.Err(err))
		return nil, fmt.Errorf("record metadata %s: %w", pin.IpfsHash, err)
	}

	logger.InfoCtx(ctx, "Published metadata",
		logger.RecordID(metadataID),
		logger.CID(pin.IpfsHash))

	return &Published{
		ImageID:    imageID,
		MetadataID: metadataID,
		CID:        pin.IpfsHash,
		URL:        pin.URL,
		PinSize:    pin.PinSize,
		Duplicate:  pin.IsDuplicate,
	}, nil
}

// MintRequest describes a mint transaction to record.
type MintRequest struct {
	// MetadataURL is the gateway URL the token URI points at.
	MetadataURL     string    `validate:"required,url"`
	TokenID         string    `validate:"required,numeric"`
	TxHash          string    `validate:"required,startswith=0x,hexadecimal"`
	ContractAddress string    `validate:"required,eth_addr"`
	Chain           string    `validate:"required"`
	MinterAddress   string    `validate:"required,eth_addr"`
	MintedAt        time.Time `validate:"-"`
}

// RecordMint stores a token row for the metadata published at
// req.MetadataURL. The token URI is the metadata URL.
func (s *Service) RecordMint(ctx context.Context, req MintRequest) (*records.Token, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid mint: %w", formatValidationErrors(err))
	}

	metadataID, err := s.store.GetMetadataIDByURL(ctx, req.MetadataURL)
	if err != nil {
		return nil, fmt.Errorf("resolve metadata %q: %w", req.MetadataURL, err)
	}

	mintedAt := req.MintedAt
	if mintedAt.IsZero() {
		mintedAt = time.Now().UTC()
	}

	token := &records.Token{
		MetadataID:      metadataID,
		TokenID:         req.TokenID,
		TokenURI:        req.MetadataURL,
		TxHash:          strings.ToLower(req.TxHash),
		ContractAddress: req.ContractAddress,
		Chain:           req.Chain,
		MinterAddress:   req.MinterAddress,
		MintedAt:        mintedAt,
	}
	id, err := s.store.CreateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("record token %s: %w", req.TxHash, err)
	}
	token.ID = id

	logger.InfoCtx(ctx, "Recorded mint",
		logger.RecordID(id),
		"metadata_id", metadataID,
		"tx_hash", token.TxHash)
	return token, nil
}

// Token returns the token minted by txHash.
func (s *Service) Token(ctx context.Context, txHash string) (*records.Token, error) {
	return s.store.GetTokenByTxHash(ctx, strings.ToLower(txHash))
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' validation", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/pinledger/internal/telemetry"
	"github.com/marmos91/pinledger/pkg/records"
)

// metadataColumns is what the reconcile listing needs.
const metadataColumns = "id,pinata_cid,created_at"

// Store is a records.Store backed by PostgREST.
type Store struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

var _ records.Store = (*Store)(nil)

// New creates a Store. URL and Key are required.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgrest: URL is required")
	}
	if cfg.Key == "" {
		return nil, errors.New("postgrest: key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: telemetry.HTTPTransport(http.DefaultTransport),
		}
	}

	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		key:        cfg.Key,
		httpClient: httpClient,
	}, nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (s *Store) Close() error {
	return nil
}

func (s *Store) ListMetadata(ctx context.Context) ([]*records.MetadataRecord, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanRecordsList, backendName, records.TableMetadata)
	defer span.End()

	var rows []*records.MetadataRecord
	err := s.do(ctx, request{
		method: http.MethodGet,
		table:  records.TableMetadata,
		query: url.Values{
			"select": {metadataColumns},
			"order":  {"created_at.asc,id.asc"},
		},
	}, &rows)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	return rows, nil
}

func (s *Store) GetMetadataByImageID(ctx context.Context, imageID string) (*records.MetadataRecord, error) {
	var m records.MetadataRecord
	if err := s.getOne(ctx, records.TableMetadata, "image_id", imageID, &m, records.ErrMetadataNotFound); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetMetadataIDByURL(ctx context.Context, pinataURL string) (string, error) {
	var row struct {
		ID records.ID `json:"id"`
	}
	err := s.do(ctx, request{
		method: http.MethodGet,
		table:  records.TableMetadata,
		query:  url.Values{"select": {"id"}, "pinata_url": {eq(pinataURL)}},
		single: true,
	}, &row)
	if err != nil {
		return "", mapError(err, records.ErrMetadataNotFound, records.ErrDuplicate)
	}
	return row.ID.String(), nil
}

type metadataInsert struct {
	ID        string `json:"id,omitempty"`
	ImageID   string `json:"image_id,omitempty"`
	PinataCID string `json:"pinata_cid"`
	PinataURL string `json:"pinata_url,omitempty"`
}

func (s *Store) CreateMetadata(ctx context.Context, m *records.MetadataRecord) (string, error) {
	return s.insert(ctx, records.TableMetadata, &metadataInsert{
		ID:        m.ID,
		ImageID:   m.ImageID,
		PinataCID: m.PinataCID,
		PinataURL: m.PinataURL,
	})
}

func (s *Store) DeleteMetadata(ctx context.Context, id string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanRecordsDelete, backendName, records.TableMetadata)
	defer span.End()

	var deleted []struct {
		ID records.ID `json:"id"`
	}
	err := s.do(ctx, request{
		method: http.MethodDelete,
		table:  records.TableMetadata,
		query:  url.Values{"id": {eq(id)}},
		prefer: "return=representation",
	}, &deleted)
	if err == nil && len(deleted) == 0 {
		// PostgREST answers 200 with [] both for a missing row and for a
		// row hidden by row level security.
		err = records.ErrMetadataNotFound
	}
	telemetry.RecordError(ctx, err)
	return err
}

func (s *Store) GetImageIDByPath(ctx context.Context, imagePath string) (string, error) {
	var img records.Image
	if err := s.getOne(ctx, records.TableImages, "image_path", imagePath, &img, records.ErrImageNotFound); err != nil {
		return "", err
	}
	return img.ID, nil
}

func (s *Store) GetImageByFileName(ctx context.Context, fileName string) (*records.Image, error) {
	var img records.Image
	if err := s.getOne(ctx, records.TableImages, "file_name", fileName, &img, records.ErrImageNotFound); err != nil {
		return nil, err
	}
	return &img, nil
}

type imageInsert struct {
	ID          string `json:"id,omitempty"`
	FileName    string `json:"file_name"`
	ImagePath   string `json:"image_path"`
	Description string `json:"description,omitempty"`
}

func (s *Store) CreateImage(ctx context.Context, img *records.Image) (string, error) {
	return s.insert(ctx, records.TableImages, &imageInsert{
		ID:          img.ID,
		FileName:    img.FileName,
		ImagePath:   img.ImagePath,
		Description: img.Description,
	})
}

type tokenInsert struct {
	ID              string     `json:"id,omitempty"`
	MetadataID      string     `json:"metadata_id"`
	TokenID         string     `json:"token_id"`
	TokenURI        string     `json:"token_uri"`
	TxHash          string     `json:"tx_hash"`
	ContractAddress string     `json:"contract_address"`
	Chain           string     `json:"chain"`
	MinterAddress   string     `json:"minter_address"`
	MintedAt        *time.Time `json:"minted_at,omitempty"`
}

func (s *Store) CreateToken(ctx context.Context, t *records.Token) (string, error) {
	row := &tokenInsert{
		ID:              t.ID,
		MetadataID:      t.MetadataID,
		TokenID:         t.TokenID,
		TokenURI:        t.TokenURI,
		TxHash:          t.TxHash,
		ContractAddress: t.ContractAddress,
		Chain:           t.Chain,
		MinterAddress:   t.MinterAddress,
	}
	if !t.MintedAt.IsZero() {
		mintedAt := t.MintedAt.UTC()
		row.MintedAt = &mintedAt
	}
	return s.insert(ctx, records.TableTokens, row)
}

func (s *Store) GetTokenByTxHash(ctx context.Context, txHash string) (*records.Token, error) {
	var tok records.Token
	if err := s.getOne(ctx, records.TableTokens, "tx_hash", txHash, &tok, records.ErrTokenNotFound); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *Store) ListTokensByMetadataID(ctx context.Context, metadataID string) ([]*records.Token, error) {
	var tokens []*records.Token
	err := s.do(ctx, request{
		method: http.MethodGet,
		table:  records.TableTokens,
		query: url.Values{
			"select":      {"*"},
			"metadata_id": {eq(metadataID)},
			"order":       {"minted_at.asc,id.asc"},
		},
	}, &tokens)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

// getOne fetches the single row where column equals value.
func (s *Store) getOne(ctx context.Context, table, column, value string, result any, notFound error) error {
	err := s.do(ctx, request{
		method: http.MethodGet,
		table:  table,
		query:  url.Values{"select": {"*"}, column: {eq(value)}},
		single: true,
	}, result)
	if err != nil {
		return mapError(err, notFound, records.ErrDuplicate)
	}
	return nil
}

// insert posts row and returns the ID of the created row. Rows without an
// ID take the table default, read back from the representation.
func (s *Store) insert(ctx context.Context, table string, row any) (string, error) {
	var created []struct {
		ID records.ID `json:"id"`
	}
	err := s.do(ctx, request{
		method: http.MethodPost,
		table:  table,
		body:   row,
		prefer: "return=representation",
	}, &created)
	if err != nil {
		return "", mapError(err, nil, records.ErrDuplicate)
	}
	if len(created) == 0 {
		return "", fmt.Errorf("postgrest: insert into %s returned no rows", table)
	}
	return created[0].ID.String(), nil
}

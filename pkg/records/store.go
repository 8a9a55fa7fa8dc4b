// Package records defines the relational bookkeeping of published NFT
// metadata: the metadata, images and tokens tables, and the Store
// interface implemented by the PostgREST and SQL backends.
package records

import "context"

// Store is the relational store holding the bookkeeping rows.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// ListMetadata returns every metadata row in store order, unpaginated.
	ListMetadata(ctx context.Context) ([]*MetadataRecord, error)

	// GetMetadataByImageID returns the metadata row of an image, or
	// ErrMetadataNotFound.
	GetMetadataByImageID(ctx context.Context, imageID string) (*MetadataRecord, error)

	// GetMetadataIDByURL resolves a gateway URL to its metadata row ID.
	GetMetadataIDByURL(ctx context.Context, pinataURL string) (string, error)

	// CreateMetadata inserts m and returns its ID. An empty ID is assigned
	// by the backend.
	CreateMetadata(ctx context.Context, m *MetadataRecord) (string, error)

	// DeleteMetadata removes the row with the given ID. It returns
	// ErrMetadataNotFound when no row matched.
	DeleteMetadata(ctx context.Context, id string) error

	GetImageIDByPath(ctx context.Context, imagePath string) (string, error)
	GetImageByFileName(ctx context.Context, fileName string) (*Image, error)
	CreateImage(ctx context.Context, img *Image) (string, error)

	CreateToken(ctx context.Context, t *Token) (string, error)
	GetTokenByTxHash(ctx context.Context, txHash string) (*Token, error)
	ListTokensByMetadataID(ctx context.Context, metadataID string) ([]*Token, error)

	Close() error
}

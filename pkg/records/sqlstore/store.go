// Package sqlstore implements records.Store with GORM over SQLite or
// PostgreSQL.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/internal/telemetry"
	"github.com/marmos91/pinledger/pkg/records"
)

const backendName = "sql"

// Store implements records.Store using GORM.
type Store struct {
	db     *gorm.DB
	config *Config
}

var _ records.Store = (*Store)(nil)

// New opens the database described by config and migrates the schema.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	memory := false
	switch config.Type {
	case DatabaseTypeSQLite:
		memory = config.SQLite.Path == ":memory:"
		if !memory {
			if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// WAL for concurrent readers, and wait up to 5s on a locked database.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch {
	case memory:
		// Every new connection would see its own empty in-memory database.
		sqlDB.SetMaxOpenConns(1)
	case config.Type == DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(records.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	logger.Debug("records store opened", logger.KeyBackend, backendName, "type", string(config.Type))

	return &Store{db: db, config: config}, nil
}

// DB returns the underlying GORM connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListMetadata(ctx context.Context) ([]*records.MetadataRecord, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanRecordsList, backendName, records.TableMetadata)
	defer span.End()

	rows, err := listOrdered[records.MetadataRecord](s.db, ctx, "created_at, id")
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	return rows, nil
}

func (s *Store) GetMetadataByImageID(ctx context.Context, imageID string) (*records.MetadataRecord, error) {
	return getByField[records.MetadataRecord](s.db, ctx, "image_id", imageID, records.ErrMetadataNotFound)
}

func (s *Store) GetMetadataIDByURL(ctx context.Context, pinataURL string) (string, error) {
	m, err := getByField[records.MetadataRecord](s.db, ctx, "pinata_url", pinataURL, records.ErrMetadataNotFound)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *Store) CreateMetadata(ctx context.Context, m *records.MetadataRecord) (string, error) {
	return createWithID(s.db, ctx, m, func(r *records.MetadataRecord, id string) { r.ID = id }, m.ID)
}

func (s *Store) DeleteMetadata(ctx context.Context, id string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanRecordsDelete, backendName, records.TableMetadata)
	defer span.End()

	err := deleteByField[records.MetadataRecord](s.db, ctx, "id", id, records.ErrMetadataNotFound)
	telemetry.RecordError(ctx, err)
	return err
}

func (s *Store) GetImageIDByPath(ctx context.Context, imagePath string) (string, error) {
	img, err := getByField[records.Image](s.db, ctx, "image_path", imagePath, records.ErrImageNotFound)
	if err != nil {
		return "", err
	}
	return img.ID, nil
}

func (s *Store) GetImageByFileName(ctx context.Context, fileName string) (*records.Image, error) {
	return getByField[records.Image](s.db, ctx, "file_name", fileName, records.ErrImageNotFound)
}

func (s *Store) CreateImage(ctx context.Context, img *records.Image) (string, error) {
	return createWithID(s.db, ctx, img, func(i *records.Image, id string) { i.ID = id }, img.ID)
}

func (s *Store) CreateToken(ctx context.Context, t *records.Token) (string, error) {
	return createWithID(s.db, ctx, t, func(tk *records.Token, id string) { tk.ID = id }, t.ID)
}

func (s *Store) GetTokenByTxHash(ctx context.Context, txHash string) (*records.Token, error) {
	return getByField[records.Token](s.db, ctx, "tx_hash", txHash, records.ErrTokenNotFound)
}

func (s *Store) ListTokensByMetadataID(ctx context.Context, metadataID string) ([]*records.Token, error) {
	var tokens []*records.Token
	err := s.db.WithContext(ctx).
		Where("metadata_id = ?", metadataID).
		Order("minted_at, id").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if the error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// convertNotFoundError converts gorm.ErrRecordNotFound to the domain error.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}

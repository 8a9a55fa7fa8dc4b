package sqlstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/marmos91/pinledger/pkg/records"
	"github.com/marmos91/pinledger/pkg/records/storetest"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) records.Store {
		return createTestStore(t)
	})
}

func TestNew(t *testing.T) {
	t.Run("DefaultConfigUsesSQLite", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		config := &Config{}
		config.ApplyDefaults()

		assert.Equal(t, DatabaseTypeSQLite, config.Type)
		assert.Equal(t, "records.db", filepath.Base(config.SQLite.Path))
	})

	t.Run("InvalidType", func(t *testing.T) {
		_, err := New(&Config{Type: "oracle"})
		assert.Error(t, err)
	})

	t.Run("PostgresRequiresHost", func(t *testing.T) {
		_, err := New(&Config{Type: DatabaseTypePostgres})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "host")
	})

	t.Run("FileDatabasePersists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "records.db")
		cfg := &Config{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: path}}

		store, err := New(cfg)
		require.NoError(t, err)
		_, err = store.CreateMetadata(t.Context(), &records.MetadataRecord{PinataCID: "bafy-persist"})
		require.NoError(t, err)
		require.NoError(t, store.Close())

		reopened, err := New(cfg)
		require.NoError(t, err)
		defer func() { _ = reopened.Close() }()

		rows, err := reopened.ListMetadata(t.Context())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "bafy-persist", rows[0].PinataCID)
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{
		Host: "db.example.supabase.co", Database: "postgres", User: "postgres", Password: "secret",
	}}
	cfg.ApplyDefaults()

	assert.Equal(t,
		"host=db.example.supabase.co port=5432 user=postgres password=secret dbname=postgres sslmode=require",
		cfg.Postgres.DSN())
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
}

func TestCreateKeepsExplicitID(t *testing.T) {
	store := createTestStore(t)

	id, err := store.CreateMetadata(t.Context(), &records.MetadataRecord{ID: "fixed-id", PinataCID: "bafy"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	_, err = store.CreateMetadata(t.Context(), &records.MetadataRecord{ID: "fixed-id", PinataCID: "bafy2"})
	assert.ErrorIs(t, err, records.ErrDuplicate)
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"GormDuplicatedKey", gorm.ErrDuplicatedKey, true},
		{"SQLite", errors.New("constraint failed: UNIQUE constraint failed: tokens.tx_hash (2067)"), true},
		{"PostgresUniqueViolation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"PostgresOtherError", &pgconn.PgError{Code: "23503"}, false},
		{"Unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps payloads as bytea rows next to the metadata. This is
// the inline strategy: simple to operate, fine for modest file sizes.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, key, contentType string, size int64, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	query := `
        INSERT INTO attachment_blobs (object_key, content_type, data)
        VALUES ($1, $2, $3)
    `
	if _, err := s.db.Exec(ctx, query, key, contentType, data); err != nil {
		return fmt.Errorf("store payload: %w", err)
	}
	return nil
}

func (s *PostgresStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	query := `SELECT data FROM attachment_blobs WHERE object_key = $1`

	var data []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payload: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

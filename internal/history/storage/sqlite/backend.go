// Package sqlite provides a storage backend on a single SQLite table, using
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/picatz/batchgpt/internal/history/storage"

	_ "modernc.org/sqlite"
)

var _ storage.Backend[string, any] = (*Backend[string, any])(nil)

const schema = `CREATE TABLE IF NOT EXISTS entries (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID`

// Backend stores encoded entries in the entries table. BLOB keys compare
// bytewise, which gives the same ordering as the other backends.
type Backend[K, V any] struct {
	db    *sql.DB
	codec storage.Codec[K, V]
}

// NewBackend opens (or creates) the database file at path.
func NewBackend[K, V any](ctx context.Context, path string, codec storage.Codec[K, V]) (*Backend[K, V], error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout=5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	return &Backend[K, V]{db: db, codec: codec}, nil
}

// Get retrieves a value by its key.
func (b *Backend[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V

	keyBytes, err := b.codec.EncodeKey(key)
	if err != nil {
		return zero, false, fmt.Errorf("failed to encode key: %w", err)
	}

	var valueBytes []byte
	err = b.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, keyBytes).Scan(&valueBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("failed to get key: %w", err)
	}

	value, err := b.codec.DecodeValue(valueBytes)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Set stores a key-value pair.
func (b *Backend[K, V]) Set(ctx context.Context, key K, value V) error {
	keyBytes, err := b.codec.EncodeKey(key)
	if err != nil {
		return fmt.Errorf("failed to encode key: %w", err)
	}

	valueBytes, err := b.codec.EncodeValue(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		keyBytes, valueBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

// Delete removes a key-value pair.
func (b *Backend[K, V]) Delete(ctx context.Context, key K) error {
	keyBytes, err := b.codec.EncodeKey(key)
	if err != nil {
		return fmt.Errorf("failed to encode key: %w", err)
	}

	if _, err := b.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, keyBytes); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// List returns a page of entries in key order, starting at pageToken.
func (b *Backend[K, V]) List(ctx context.Context, pageSize *int, pageToken *K) (iter.Seq2[K, V], *K, error) {
	lowerBound := []byte{}
	if pageToken != nil {
		var err error
		lowerBound, err = b.codec.EncodeKey(*pageToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode sqlite lower bound key: %w", err)
		}
	}

	listLimit := storage.ListLimit(pageSize)

	// One extra row tells whether there is a next page.
	rows, err := b.db.QueryContext(ctx,
		`SELECT key, value FROM entries WHERE key >= ? ORDER BY key LIMIT ?`,
		lowerBound, listLimit+1,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var (
		values        []storage.Entry[K, V]
		nextPageToken *K
	)

	for rows.Next() {
		var keyBytes, valueBytes []byte
		if err := rows.Scan(&keyBytes, &valueBytes); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		k, err := b.codec.DecodeKey(keyBytes)
		if err != nil {
			return nil, nil, err
		}

		if len(values) >= listLimit {
			nextPageToken = &k
			break
		}

		v, err := b.codec.DecodeValue(valueBytes)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, storage.Entry[K, V]{Key: k, Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to list items: %w", err)
	}

	return storage.Seq(values), nextPageToken, nil
}

// Flush checkpoints the write-ahead log, if there is one.
func (b *Backend[K, V]) Flush(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("failed to flush sqlite database: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *Backend[K, V]) Close(ctx context.Context) error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite database: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS render_cache (
	key        TEXT PRIMARY KEY,
	value_zstd BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// SQLite is a Store backed by a SQLite database file. Values are
// zstd-compressed; entries survive restarts.
type SQLite struct {
	db      *sql.DB
	ttl     time.Duration
	now     func() time.Time
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// OpenSQLite opens or creates the cache database at path. A zero ttl keeps
// entries until they are overwritten.
func OpenSQLite(path string, ttl time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them applied.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &SQLite{
		db:      db,
		ttl:     ttl,
		now:     time.Now,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var compressed []byte
	var createdAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT value_zstd, created_at
		FROM render_cache
		WHERE key = ?
	`, key).Scan(&compressed, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("render cache lookup failed: %w", err)
	}

	if expired(time.Unix(0, createdAt), s.ttl, s.now()) {
		// Entry is expired, delete it
		if _, err := s.db.ExecContext(ctx, "DELETE FROM render_cache WHERE key = ? AND created_at = ?", key, createdAt); err != nil {
			return nil, false, fmt.Errorf("failed to evict expired entry: %w", err)
		}
		return nil, false, nil
	}

	value, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress cache entry: %w", err)
	}

	return value, true, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, key string, value []byte) error {
	compressed := s.encoder.EncodeAll(value, nil)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO render_cache (key, value_zstd, created_at)
		VALUES (?, ?, ?)
	`, key, compressed, s.now().UnixNano())

	if err != nil {
		return fmt.Errorf("failed to set render cache: %w", err)
	}

	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

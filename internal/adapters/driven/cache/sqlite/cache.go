// Package sqlite provides a persistent embedding cache backed by SQLite,
// so resolved vectors survive across process runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// Default configuration values.
const (
	DefaultMaxEntries = 10000
	DefaultTTL        = 24 * time.Hour
)

// Config holds configuration for the SQLite cache.
type Config struct {
	// DataDir is the directory holding the cache database.
	// If empty, defaults to ~/.ragctx/data.
	DataDir string

	// MaxEntries is the entry count cap; least recently accessed entries
	// are evicted when the cap is exceeded (default: 10000).
	MaxEntries int

	// TTL is the entry lifetime; expired entries read as misses
	// (default: 24h).
	TTL time.Duration
}

// Cache is a SQLite-backed implementation of driven.EmbeddingCache.
type Cache struct {
	db         *sql.DB
	path       string
	maxEntries int
	ttl        time.Duration

	now func() time.Time
}

// NewCache opens (or creates) the cache database in the data directory.
func NewCache(cfg Config) (*Cache, error) {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".ragctx", "data")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	// Ensure directory exists
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "embeddings.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Cache{
		db:         db,
		path:       dbPath,
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		now:        time.Now,
	}

	if err := c.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// ensureSchema creates the cache table on first open.
func (c *Cache) ensureSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS embeddings (
			key         TEXT PRIMARY KEY,
			vector      BLOB NOT NULL,
			created_at  INTEGER NOT NULL,
			accessed_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_embeddings_accessed_at
			ON embeddings(accessed_at);
	`)
	if err != nil {
		return fmt.Errorf("creating embeddings table: %w", err)
	}
	return nil
}

// Get returns the cached vector for the key, or domain.ErrNotFound when
// the key is absent or its entry has expired. Hits refresh the access
// time used for eviction ordering.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, error) {
	now := c.now()

	var (
		blob      []byte
		createdAt int64
	)
	row := c.db.QueryRowContext(ctx,
		"SELECT vector, created_at FROM embeddings WHERE key = ?", key)
	if err := row.Scan(&blob, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if now.Sub(time.Unix(createdAt, 0)) > c.ttl {
		if _, err := c.db.ExecContext(ctx,
			"DELETE FROM embeddings WHERE key = ?", key); err != nil {
			return nil, fmt.Errorf("deleting expired entry: %w", err)
		}
		return nil, domain.ErrNotFound
	}

	if _, err := c.db.ExecContext(ctx,
		"UPDATE embeddings SET accessed_at = ? WHERE key = ?", now.Unix(), key); err != nil {
		return nil, fmt.Errorf("updating access time: %w", err)
	}

	vector, err := decodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding cached vector: %w", err)
	}
	return vector, nil
}

// Put stores a vector under the key, evicting the least recently accessed
// entries once the cap is exceeded. Storing an existing key refreshes the
// entry's creation time.
func (c *Cache) Put(ctx context.Context, key string, vector []float32) error {
	now := c.now().Unix()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO embeddings (key, vector, created_at, accessed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			vector = excluded.vector,
			created_at = excluded.created_at,
			accessed_at = excluded.accessed_at
	`, key, encodeVector(vector), now, now)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return c.evict(ctx)
}

// evict removes the least recently accessed entries beyond the cap.
func (c *Cache) evict(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM embeddings WHERE key IN (
			SELECT key FROM embeddings
			ORDER BY accessed_at DESC
			LIMIT -1 OFFSET ?
		)
	`, c.maxEntries)
	if err != nil {
		return fmt.Errorf("evicting cache entries: %w", err)
	}
	return nil
}

// Len returns the number of entries currently stored, including entries
// that have expired but not yet been evicted.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	row := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// encodeVector packs a float32 vector as little-endian IEEE 754 bits.
func encodeVector(vector []float32) []byte {
	blob := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// decodeVector unpacks a blob written by encodeVector.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}

package server

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrCacheMiss indicates no cached result exists for the source.
var ErrCacheMiss = errors.New("cache miss")

// ResultCache stores compile-and-run results in SQLite, keyed by a hash of
// the source text. The engine is deterministic, so a hit can be served
// without re-executing.
type ResultCache struct {
	db *sql.DB
	mu sync.Mutex
}

// CachedResult is one stored run.
type CachedResult struct {
	Output      string
	Disassembly string // newline-joined
	ErrMessage  string // non-empty for failed runs
}

// OpenCache opens or creates the cache database at dbPath.
func OpenCache(dbPath string) (*ResultCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		output TEXT NOT NULL,
		disassembly TEXT NOT NULL,
		err TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &ResultCache{db: db}, nil
}

// Close closes the database connection.
func (c *ResultCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// CacheKey derives the cache key for a source text.
func CacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Put stores a run result for the given source.
func (c *ResultCache) Put(source string, res CachedResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO results (key, output, disassembly, err) VALUES (?, ?, ?, ?)",
		CacheKey(source), res.Output, res.Disassembly, res.ErrMessage,
	)
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// Get retrieves the stored result for the given source.
func (c *ResultCache) Get(source string) (CachedResult, error) {
	var res CachedResult
	err := c.db.QueryRow(
		"SELECT output, disassembly, err FROM results WHERE key = ?",
		CacheKey(source),
	).Scan(&res.Output, &res.Disassembly, &res.ErrMessage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CachedResult{}, ErrCacheMiss
		}
		return CachedResult{}, fmt.Errorf("querying result: %w", err)
	}
	return res, nil
}

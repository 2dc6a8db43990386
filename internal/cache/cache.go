// Package cache tracks which pages were built from which inputs so an
// unchanged page can be skipped on rebuild.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Input is one file a page depended on, identified by content hash.
type Input struct {
	Path string
	Hash string
}

// Cache is a sqlite-backed record of past builds. Safe for concurrent use;
// build workers share one instance.
type Cache struct {
	mu sync.Mutex
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		path     TEXT PRIMARY KEY,
		built_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inputs (
		page TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
		path TEXT NOT NULL,
		hash TEXT NOT NULL,
		PRIMARY KEY (page, path)
	)`,
	`CREATE TABLE IF NOT EXISTS outputs (
		page TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
		path TEXT NOT NULL,
		PRIMARY KEY (page, path)
	)`,
}

// Open creates or opens the cache database at path, creating parent
// directories as needed.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// Pragmas are connection-scoped; a single pooled connection keeps them
	// in force for every statement.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure cache: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create cache schema: %w", err)
		}
	}
	return &Cache{db: db}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Stamp returns the stored configuration stamp, empty when none was ever
// recorded.
func (c *Cache) Stamp() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var v string
	err := c.db.QueryRow(`SELECT value FROM meta WHERE key = 'stamp'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read stamp: %w", err)
	}
	return v, nil
}

// SetStamp records the configuration stamp. The stamp captures everything
// outside the input files that shapes output, so a changed stamp means the
// whole cache is stale.
func (c *Cache) SetStamp(stamp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('stamp', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, stamp)
	if err != nil {
		return fmt.Errorf("write stamp: %w", err)
	}
	return nil
}

// Reset forgets every recorded page.
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(`DELETE FROM pages`); err != nil {
		return fmt.Errorf("reset cache: %w", err)
	}
	return nil
}

// Fresh reports whether page can be skipped: it was built before, every
// recorded input still hashes the same, and every recorded output still
// exists. Any doubt reports false.
func (c *Cache) Fresh(page string) (bool, error) {
	inputs, outputs, err := c.recorded(page)
	if err != nil || len(inputs) == 0 {
		return false, err
	}
	for _, in := range inputs {
		hash, err := HashFile(in.Path)
		if err != nil || hash != in.Hash {
			return false, nil
		}
	}
	for _, out := range outputs {
		if _, err := os.Stat(out); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// recorded loads the stored inputs and outputs for page.
func (c *Cache) recorded(page string) ([]Input, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT path, hash FROM inputs WHERE page = ?`, page)
	if err != nil {
		return nil, nil, fmt.Errorf("read inputs: %w", err)
	}
	defer rows.Close()
	var inputs []Input
	for rows.Next() {
		var in Input
		if err := rows.Scan(&in.Path, &in.Hash); err != nil {
			return nil, nil, fmt.Errorf("read inputs: %w", err)
		}
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read inputs: %w", err)
	}

	outRows, err := c.db.Query(`SELECT path FROM outputs WHERE page = ?`, page)
	if err != nil {
		return nil, nil, fmt.Errorf("read outputs: %w", err)
	}
	defer outRows.Close()
	var outputs []string
	for outRows.Next() {
		var out string
		if err := outRows.Scan(&out); err != nil {
			return nil, nil, fmt.Errorf("read outputs: %w", err)
		}
		outputs = append(outputs, out)
	}
	if err := outRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read outputs: %w", err)
	}
	return inputs, outputs, nil
}

// Record replaces the stored inputs and outputs for page.
func (c *Cache) Record(page string, inputs []Input, outputs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("record page: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pages WHERE path = ?`, page); err != nil {
		return fmt.Errorf("record page: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO pages (path, built_at) VALUES (?, ?)`,
		page, time.Now().Unix()); err != nil {
		return fmt.Errorf("record page: %w", err)
	}
	for _, in := range inputs {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO inputs (page, path, hash) VALUES (?, ?, ?)`,
			page, in.Path, in.Hash); err != nil {
			return fmt.Errorf("record input: %w", err)
		}
	}
	for _, out := range outputs {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO outputs (page, path) VALUES (?, ?)`,
			page, out); err != nil {
			return fmt.Errorf("record output: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record page: %w", err)
	}
	return nil
}

// HashFile returns the hex sha256 of the file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashStrings returns the hex sha256 over parts, for configuration stamps.
func HashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		io.WriteString(h, p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Package buildcache memoizes compiled artifacts in a local SQLite
// database, keyed by the SHA-256 of the source text. A hit skips the whole
// pipeline; the CLI's --no-cache flag bypasses it for debugging.
package buildcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	hash       TEXT PRIMARY KEY,
	build_id   TEXT NOT NULL,
	wat        TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

type Cache struct {
	db *sql.DB
}

// DefaultPath is the per-user cache location.
func DefaultPath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "veld")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "build.db"), nil
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key hashes the source text that determines an artifact.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached artifact and its originating build id.
func (c *Cache) Get(key string) (wat string, buildID string, ok bool) {
	row := c.db.QueryRow(`SELECT wat, build_id FROM artifacts WHERE hash = ?`, key)
	if err := row.Scan(&wat, &buildID); err != nil {
		return "", "", false
	}
	return wat, buildID, true
}

// Put stores an artifact, replacing any previous entry for the key.
func (c *Cache) Put(key, buildID, wat string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO artifacts (hash, build_id, wat, created_at) VALUES (?, ?, ?, ?)`,
		key, buildID, wat, time.Now().Unix(),
	)
	return err
}

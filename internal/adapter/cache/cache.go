// Package cache provides the content-addressed result cache shared by all
// pipeline agents. Entries are JSON documents keyed by (agent id, SHA-256 of
// the original image bytes), so identical files hit the cache regardless of
// filename, path, or preprocessing configuration.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HashBytes returns the lowercase hex SHA-256 digest of data. SHA-256 is
// overkill for cache addressing but its collision behaviour is well
// understood and the cost is negligible next to an image decode.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Cache is a create-once, read-many file store. Writes are idempotent: two
// writers racing on the same key computed the same content hash and therefore
// equivalent results, so last-writer-wins is safe without locking.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir. The directory is created lazily on the
// first Put, so constructing a cache never fails.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// entryPath derives the storage path for a key deterministically.
func (c *Cache) entryPath(agentID, contentHash string) string {
	return filepath.Join(c.dir, agentID, contentHash+".json")
}

// Get returns the stored document for (agentID, contentHash). Any failure to
// read or parse the entry is treated as a miss, never an error: a corrupt
// cache entry must not break processing, it just costs a fresh model call.
func (c *Cache) Get(agentID, contentHash string) (json.RawMessage, bool) {
	data, err := os.ReadFile(c.entryPath(agentID, contentHash))
	if err != nil {
		return nil, false
	}
	if !json.Valid(data) {
		return nil, false
	}
	return json.RawMessage(data), true
}

// Put serialises v and stores it under the deterministic key, overwriting
// any existing entry.
func (c *Cache) Put(agentID, contentHash string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	dir := filepath.Join(c.dir, agentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := os.WriteFile(c.entryPath(agentID, contentHash), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Package cache stores per-file analysis results keyed by content hash.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Cache provides file-based caching for per-file reports. An entry is only
// returned while it is younger than the TTL and was produced from the same
// file content under the same settings fingerprint.
type Cache struct {
	dir         string
	ttl         time.Duration
	fingerprint string
	enabled     bool
}

// Entry represents a cached result.
type Entry struct {
	Path      string          `json:"path"`
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New creates a cache in dir. A disabled cache never hits and never writes.
func New(dir string, ttlHours int, fingerprint string, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:         dir,
		ttl:         time.Duration(ttlHours) * time.Hour,
		fingerprint: fingerprint,
		enabled:     true,
	}, nil
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool { return c.enabled }

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ContentHash hashes file content together with the settings fingerprint.
func (c *Cache) ContentHash(content []byte) string {
	h := blake3.New()
	_, _ = h.Write(content)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(c.fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Get decodes the cached result for path into v. It misses when the content
// changed, the fingerprint changed or the entry expired.
func (c *Cache) Get(path string, content []byte, v any) bool {
	if !c.enabled {
		return false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false
	}

	if entry.Hash != c.ContentHash(content) {
		return false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(file)
		return false
	}

	return json.Unmarshal(entry.Data, v) == nil
}

// Set stores v as the result for path and content.
func (c *Cache) Set(path string, content []byte, v any) error {
	if !c.enabled {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	entry := Entry{
		Path:      path,
		Hash:      c.ContentHash(content),
		Timestamp: time.Now(),
		Data:      payload,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(path), entryData, 0600)
}

// Invalidate removes the entry for path.
func (c *Cache) Invalidate(path string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

func (c *Cache) keyPath(path string) string {
	return filepath.Join(c.dir, HashBytes([]byte(path))+".json")
}

// Stats describes the cache directory.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}

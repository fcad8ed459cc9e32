// Package file implements ports.Cache on the local filesystem, so fetched markup and
// previews survive between separate command line runs.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/wikisophy/pkg/domain"
)

const ext = ".json"

// record is the on-disk form of one entry.
type record struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Cache stores each entry as a JSON file named after the hash of its key.
// Writes are atomic: a reader sees either the old or the new entry, never a partial one.
type Cache struct {
	BasePath string
	now      func() time.Time
}

// Option configures the Cache.
type Option func(*Cache)

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// DefaultDir returns the per-user cache directory of wikisophy.
func DefaultDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "wikisophy")
	}
	return filepath.Join(".wikisophy", "cache")
}

// New creates a Cache rooted at basePath, or DefaultDir() if basePath is empty.
func New(basePath string, opts ...Option) *Cache {
	if basePath == "" {
		basePath = DefaultDir()
	}
	c := &Cache{BasePath: basePath, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.BasePath, hex.EncodeToString(sum[:])+ext)
}

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	rec, err := c.read(c.path(key))
	if err != nil {
		return nil, err
	}
	// A hash collision is treated as a miss.
	if rec.Key != key {
		return nil, domain.ErrCacheMiss
	}
	if c.expired(rec) {
		_ = os.Remove(c.path(key))
		return nil, domain.ErrCacheMiss
	}
	if rec.Value == nil {
		rec.Value = []byte{}
	}
	return rec.Value, nil
}

// Set writes the entry atomically.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := os.MkdirAll(c.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}

	rec := record{Key: key, Value: value}
	if ttl > 0 {
		rec.ExpiresAt = c.now().Add(ttl)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// The temp file lives in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(c.BasePath, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	// Closed before rename: Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := c.path(key)
	if err := os.Rename(tmpPath, dest); err != nil {
		// On Windows, os.Rename fails if dest exists.
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("failed to replace cache entry: %w", err)
		}
		if err := os.Rename(tmpPath, dest); err != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
	}
	return nil
}

// Delete removes the entry file.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Purge removes expired and unreadable entries and returns how many files were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(c.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		path := filepath.Join(c.BasePath, name)
		rec, err := c.read(path)
		if err == nil && !c.expired(rec) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (c *Cache) read(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return record{}, domain.ErrCacheMiss
		}
		return record{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, errors.Join(domain.ErrCacheMiss, fmt.Errorf("corrupt cache entry %s: %w", filepath.Base(path), err))
	}
	return rec, nil
}

func (c *Cache) expired(rec record) bool {
	return !rec.ExpiresAt.IsZero() && !c.now().Before(rec.ExpiresAt)
}

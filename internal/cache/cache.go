// Package cache provides a content-addressed byte store shared by the
// upstream adapters. Entries are keyed by logical identifiers (tile id +
// resolution, catalog query) and a singleflight group guarantees that
// concurrent requests for the same key trigger at most one underlying
// fetch.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// Fetch produces the bytes for a cache key on a miss.
type Fetch func(ctx context.Context) ([]byte, error)

// Store is a disk-backed cache. A hit returns bytes identical to the fresh
// fetch for the same key; this is a correctness contract, not an
// optimization, since repeated runs must produce identical rasters.
type Store struct {
	dir    string
	group  singleflight.Group
	logger *slog.Logger
}

// New creates the cache directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// GetOrFetch returns the cached bytes for key, calling fetch on a miss.
// hit reports whether the bytes came from disk. Concurrent callers with the
// same key share a single fetch.
func (s *Store) GetOrFetch(ctx context.Context, key string, fetch Fetch) (data []byte, hit bool, err error) {
	path := s.path(key)

	if data, err := os.ReadFile(path); err == nil {
		return data, true, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have just
		// written the entry.
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.write(path, data); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// write stores the entry atomically: temp file then rename, so a partially
// written entry is never visible as a hit.
func (s *Store) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(s.dir, name[:2], name)
}

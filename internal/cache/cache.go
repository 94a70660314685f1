// Package cache implements the read-through JSON file cache the resolution
// pipeline consults before hitting the network. The cache directory is an
// explicit constructor argument; nothing in here reads the environment.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hamflx/fetchbrowser/internal/logging"
)

// Store is a directory of JSON documents keyed by filename.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string, logger logging.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, logger: logging.OrNop(logger)}, nil
}

// Path returns the on-disk location of a cache entry.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load decodes the named entry into v and reports whether it was usable.
// A missing or undecodable file is a miss, never an error: the caller falls
// back to the network and overwrites the entry via Save.
func (s *Store) Load(name string, v any) bool {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache %s unreadable: %v", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("cache %s corrupt, refetching: %v", name, err)
		return false
	}
	s.logger.Info("using cached %s: %s", name, path)
	return true
}

// Save encodes v into the named entry.
func (s *Store) Save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", name, err)
	}
	return nil
}

package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lukechampine.com/blake3"
)

// FileName is the name of the persisted cache inside the cache directory.
const FileName = "results.msgpack"

// Key derives the cache key for source optimized under the given settings
// fingerprint.
func Key(source []byte, fingerprint string) string {
	h := blake3.New(32, nil)
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Store is an LRUCache backed by a file in a cache directory.
type Store struct {
	cache *LRUCache
	mu    sync.Mutex
	path  string
	dirty bool
}

// Open loads the store persisted in dir, or starts an empty one if there is
// none. A file from an incompatible version is discarded.
func Open(dir string, maxEntries int) (*Store, error) {
	if dir == "" {
		return nil, errors.New("no cache directory set")
	}
	s := &Store{
		cache: New(Options{MaxSize: maxEntries}),
		path:  filepath.Join(dir, FileName),
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	if err := s.cache.Load(f); err != nil {
		if errors.Is(err, ErrVersionMismatch) {
			s.cache.Clear()
			s.dirty = true
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Get returns the result cached under key.
func (s *Store) Get(key string) (Result, bool) {
	return s.cache.Get(key)
}

// Put caches r under key.
func (s *Store) Put(key string, r Result) {
	s.cache.Set(key, r)
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Len returns the number of cached results.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Stats returns the statistics of the underlying cache.
func (s *Store) Stats() Stats {
	return s.cache.Stats()
}

// Save persists the store if anything changed since it was opened or last
// saved. The file is replaced atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.cache.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	s.dirty = false
	return nil
}

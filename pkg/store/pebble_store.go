package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
)

// documentPrefix namespaces document keys inside the Pebble keyspace.
const documentPrefix = "doc/"

// PebbleStoreConfig holds configuration for the Pebble engine
type PebbleStoreConfig struct {
	DataDir string
	// Sync makes every write durable before it returns.
	Sync   bool
	Logger *slog.Logger
}

// PebbleStore keeps documents in a Pebble LSM tree under doc/<name>.
type PebbleStore struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	logger    *slog.Logger
	mutex     sync.RWMutex
	closed    bool
}

var _ DocumentStore = (*PebbleStore)(nil)

// NewPebbleStore opens (creating if needed) a Pebble database in DataDir.
func NewPebbleStore(config PebbleStoreConfig) (*PebbleStore, error) {
	db, err := pebble.Open(config.DataDir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", config.DataDir, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	writeOpts := pebble.NoSync
	if config.Sync {
		writeOpts = pebble.Sync
	}
	logger.Debug("pebble store opened", "dir", config.DataDir, "sync", config.Sync)
	return &PebbleStore{db: db, writeOpts: writeOpts, logger: logger}, nil
}

func documentKey(name string) []byte {
	return []byte(documentPrefix + name)
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Put stores buf under name, replacing any earlier buffer.
func (s *PebbleStore) Put(name string, buf []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if len(buf) > MaxBodySize {
		return ErrTooLarge
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Set(documentKey(name), buf, s.writeOpts)
}

// Get returns a copy of the buffer stored under name.
func (s *PebbleStore) Get(name string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	data, closer, err := s.db.Get(documentKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// data is only valid until closer is closed.
	return append([]byte(nil), data...), nil
}

// Delete removes name. Deleting a missing name reports ErrNotFound.
func (s *PebbleStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return ErrClosed
	}

	key := documentKey(name)
	_, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	closer.Close()
	return s.db.Delete(key, s.writeOpts)
}

func (s *PebbleStore) scan(prefix string, fn func(name string)) error {
	lower := documentKey(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: keyUpperBound(lower),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		fn(string(iter.Key()[len(documentPrefix):]))
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return err
	}
	return iter.Close()
}

// List returns the stored names that start with prefix. Pebble iterates
// in key order, so the result is already sorted.
func (s *PebbleStore) List(prefix string) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	names := make([]string, 0)
	if err := s.scan(prefix, func(name string) { names = append(names, name) }); err != nil {
		return nil, err
	}
	return names, nil
}

// Stats counts documents with a full key scan.
func (s *PebbleStore) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := Stats{Engine: EnginePebble}
	if s.closed {
		return stats
	}
	if err := s.scan("", func(string) { stats.Documents++ }); err != nil {
		s.logger.Warn("pebble stats scan failed", "error", err)
	}
	stats.DataSize = int64(s.db.Metrics().DiskSpaceUsage())
	return stats
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

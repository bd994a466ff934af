package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DataFileName is the log engine's single data file inside the data dir.
const DataFileName = "active.data"

// LogStoreConfig holds configuration for the log engine
type LogStoreConfig struct {
	DataDir       string        // Directory for data files
	FsyncInterval time.Duration // Fsync interval for durability
	Logger        *slog.Logger
}

// LogStore is an append-only document store: every Put and Delete adds a
// record to one data file and an in-memory index points at the latest
// record for each name.
type LogStore struct {
	config   LogStoreConfig
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	dataFile string
	logger   *slog.Logger
	mutex    sync.RWMutex
	isOpen   bool
}

var _ DocumentStore = (*LogStore)(nil)

// NewLogStore creates a log store instance. Call Open before use.
func NewLogStore(config LogStoreConfig) (*LogStore, error) {
	if err := os.MkdirAll(config.DataDir, 0750); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &LogStore{
		config:   config,
		dataFile: filepath.Join(config.DataDir, DataFileName),
		index:    NewHashIndex(),
		logger:   logger,
	}, nil
}

// Open validates the data file, truncating it after the last intact
// record, and rebuilds the index.
func (s *LogStore) Open() (*RecoveryResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isOpen {
		return &RecoveryResult{}, nil
	}

	result, err := s.recover()
	if err != nil {
		return nil, fmt.Errorf("recover %s: %w", s.dataFile, err)
	}
	if result.BytesTruncated > 0 {
		s.logger.Warn("truncated damaged tail of data file",
			"file", s.dataFile,
			"bytes", result.BytesTruncated,
			"records_kept", result.RecordsValidated)
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      s.dataFile,
		FsyncInterval: s.config.FsyncInterval,
		BufferSize:    64 * 1024,
	})
	if err != nil {
		return nil, err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: s.dataFile})
	if err != nil {
		writer.Close()
		return nil, err
	}

	if err := s.index.BuildFromLog(reader); err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}

	s.writer = writer
	s.reader = reader
	s.isOpen = true
	s.logger.Debug("log store opened",
		"file", s.dataFile,
		"documents", s.index.Size(),
		"recovery_time", result.RecoveryTime)
	return result, nil
}

// recover scans the data file and cuts it at the first record that fails
// to decode.
func (s *LogStore) recover() (*RecoveryResult, error) {
	startTime := time.Now()

	info, err := os.Stat(s.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{RecoveryTime: time.Since(startTime)}, nil
		}
		return nil, err
	}

	result := &RecoveryResult{
		FileSizeBefore: info.Size(),
		FileSizeAfter:  info.Size(),
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: s.dataFile})
	if err != nil {
		return nil, err
	}

	var lastValidOffset int64
	var scanErr error
	for {
		if _, scanErr = reader.ReadNext(); scanErr != nil {
			break
		}
		result.RecordsValidated++
		lastValidOffset = reader.Offset()
	}
	reader.Close()

	if scanErr != io.EOF {
		if !errors.Is(scanErr, ErrCorruption) {
			return nil, scanErr
		}
		if err := os.Truncate(s.dataFile, lastValidOffset); err != nil {
			return nil, err
		}
		result.FileSizeAfter = lastValidOffset
		result.BytesTruncated = result.FileSizeBefore - lastValidOffset
	}

	result.RecoveryTime = time.Since(startTime)
	return result, nil
}

// Get returns the buffer stored under name.
func (s *LogStore) Get(name string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return nil, ErrClosed
	}

	entry, exists := s.index.Get(name)
	if !exists {
		return nil, ErrNotFound
	}

	record, err := s.reader.ReadAt(entry.Offset, entry.Size)
	if err != nil {
		return nil, err
	}
	return record.Body, nil
}

// Put stores buf under name, replacing any earlier buffer.
func (s *LogStore) Put(name string, buf []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if len(buf) > MaxBodySize {
		return ErrTooLarge
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrClosed
	}

	record := NewRecord(name, buf)
	offset, err := s.writer.Append(record)
	if err != nil {
		return err
	}

	s.index.Put(name, &IndexEntry{
		Offset:    offset,
		Size:      uint32(record.Size()),
		Timestamp: record.Timestamp,
	})
	return nil
}

// Delete writes a tombstone for name.
func (s *LogStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrClosed
	}

	if _, exists := s.index.Get(name); !exists {
		return ErrNotFound
	}

	if _, err := s.writer.Append(NewTombstone(name)); err != nil {
		return err
	}
	s.index.Delete(name)
	return nil
}

// List returns the stored names that start with prefix.
func (s *LogStore) List(prefix string) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isOpen {
		return nil, ErrClosed
	}
	return s.index.KeysWithPrefix(prefix), nil
}

// Stats returns store statistics
func (s *LogStore) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := Stats{Engine: EngineLog}
	if !s.isOpen {
		return stats
	}
	stats.Documents = s.index.Size()
	stats.DataSize = s.writer.Size()
	return stats
}

// Close flushes and closes the data file.
func (s *LogStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil
	}
	s.isOpen = false

	if err := s.writer.Close(); err != nil {
		s.reader.Close()
		return err
	}
	return s.reader.Close()
}

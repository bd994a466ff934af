package store

import (
	"strings"
	"time"
)

// MaxNameLen bounds document names in bytes.
const MaxNameLen = 1024

// MaxBodySize bounds a stored buffer. Larger size fields in the log are
// treated as corruption.
const MaxBodySize = 256 << 20

// DocumentStore holds named CXML buffers. Implementations are safe for
// concurrent use.
type DocumentStore interface {
	Put(name string, buf []byte) error
	Get(name string) ([]byte, error)
	Delete(name string) error
	// List returns the names starting with prefix in ascending order.
	List(prefix string) ([]string, error)
	Stats() Stats
	Close() error
}

// Stats describes the contents of a store.
type Stats struct {
	Engine    string `json:"engine"`
	Documents int    `json:"documents"`
	// DataSize is the number of bytes held on disk, including dead records
	// for the log engine. Pebble reports its live disk usage.
	DataSize int64 `json:"data_size"`
}

// IndexEntry represents the location of a document in the log
type IndexEntry struct {
	Offset    int64  // Byte offset within the file
	Size      uint32 // Size of the record in bytes
	Timestamp uint64 // Record timestamp
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// RecoveryResult reports what Open found when it validated the data file.
type RecoveryResult struct {
	RecordsValidated int64         `json:"records_validated"`
	BytesTruncated   int64         `json:"bytes_truncated"`
	FileSizeBefore   int64         `json:"file_size_before"`
	FileSizeAfter    int64         `json:"file_size_after"`
	RecoveryTime     time.Duration `json:"recovery_time"`
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *Record
	Err() error
	Close() error
}

// Errors
var (
	ErrNotFound    = &StoreError{"document not found"}
	ErrInvalidName = &StoreError{"invalid document name"}
	ErrClosed      = &StoreError{"store is closed"}
	ErrCorruption  = &StoreError{"data corruption detected"}
	ErrTooLarge    = &StoreError{"document too large"}
)

// StoreError represents a document store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// ValidateName reports ErrInvalidName for empty, oversized or NUL-bearing
// names.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLen || strings.IndexByte(name, 0) >= 0 {
		return ErrInvalidName
	}
	return nil
}

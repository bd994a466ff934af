package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// LogReader provides sequential and random access to records in a log file
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the record at the current offset. It returns io.EOF at a
// clean end of file and ErrCorruption for a partial or damaged record.
func (r *LogReader) ReadNext() (*Record, error) {
	head := make([]byte, HeaderSize)
	n, err := io.ReadFull(r.reader, head)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: partial header at offset %d (%d bytes)", ErrCorruption, r.offset, n)
		}
		return nil, err
	}

	h := parseHeader(head)
	if h.bodySize > MaxBodySize {
		return nil, fmt.Errorf("%w: body size %d at offset %d", ErrCorruption, h.bodySize, r.offset)
	}
	data := make([]byte, HeaderSize+h.dataSize())
	copy(data, head)
	if _, err := io.ReadFull(r.reader, data[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: partial record at offset %d", ErrCorruption, r.offset)
		}
		return nil, err
	}

	record, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("offset %d: %w", r.offset, err)
	}
	r.offset += int64(len(data))
	return record, nil
}

// ReadAt reads the record at offset without moving the sequential cursor.
func (r *LogReader) ReadAt(offset int64, size uint32) (*Record, error) {
	data := make([]byte, size)
	if _, err := r.file.ReadAt(data, offset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: record at offset %d runs past end of file", ErrCorruption, offset)
		}
		return nil, err
	}
	return DecodeRecord(data)
}

// SeekTo moves the read offset to an absolute position
func (r *LogReader) SeekTo(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file)
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator for records
func (r *LogReader) Iterator() RecordIterator {
	return &logRecordIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

type logRecordIterator struct {
	reader *LogReader
	record *Record
	err    error
}

func (it *logRecordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.record, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logRecordIterator) Record() *Record {
	return it.record
}

// Err returns the error that stopped iteration, or nil at a clean end.
func (it *logRecordIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *logRecordIterator) Close() error {
	// The reader belongs to the caller.
	return nil
}

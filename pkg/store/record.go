package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"time"
)

// HeaderSize is the fixed part of every record:
// CRC32(4) + Flags(1) + NameSize(2) + BodySize(4) + Timestamp(8).
const HeaderSize = 19

// FlagTombstone marks a record that deletes its name.
const FlagTombstone byte = 1

// Record is one entry of the data file.
type Record struct {
	CRC32     uint32
	Flags     byte
	Timestamp uint64 // Unix nanoseconds
	Name      []byte
	Body      []byte
}

// NewRecord creates a live record stamped with the current time.
func NewRecord(name string, body []byte) *Record {
	return &Record{
		Timestamp: uint64(time.Now().UnixNano()),
		Name:      []byte(name),
		Body:      body,
	}
}

// NewTombstone creates a record that deletes name.
func NewTombstone(name string) *Record {
	r := NewRecord(name, nil)
	r.Flags = FlagTombstone
	return r
}

// Tombstone reports whether the record deletes its name.
func (r *Record) Tombstone() bool {
	return r.Flags&FlagTombstone != 0
}

// Size returns the total size of the record when encoded
func (r *Record) Size() int {
	return HeaderSize + len(r.Name) + len(r.Body)
}

// Encode serializes the record, filling in its checksum.
// Format: [CRC32(4)][Flags(1)][NameSize(2)][BodySize(4)][Timestamp(8)][Name][Body]
func (r *Record) Encode() ([]byte, error) {
	if len(r.Name) > math.MaxUint16 {
		return nil, fmt.Errorf("record name too large: %d bytes", len(r.Name))
	}
	if uint64(len(r.Body)) > math.MaxUint32 {
		return nil, fmt.Errorf("record body too large: %d bytes", len(r.Body))
	}

	buf := make([]byte, r.Size())
	buf[4] = r.Flags
	binary.LittleEndian.PutUint16(buf[5:], uint16(len(r.Name)))
	binary.LittleEndian.PutUint32(buf[7:], uint32(len(r.Body)))
	binary.LittleEndian.PutUint64(buf[11:], r.Timestamp)
	copy(buf[HeaderSize:], r.Name)
	copy(buf[HeaderSize+len(r.Name):], r.Body)

	r.CRC32 = crc32.ChecksumIEEE(buf[4:])
	binary.LittleEndian.PutUint32(buf[0:], r.CRC32)
	return buf, nil
}

// header is the decoded fixed part of a record.
type header struct {
	crc       uint32
	flags     byte
	nameSize  int
	bodySize  int
	timestamp uint64
}

func parseHeader(b []byte) header {
	return header{
		crc:       binary.LittleEndian.Uint32(b[0:]),
		flags:     b[4],
		nameSize:  int(binary.LittleEndian.Uint16(b[5:])),
		bodySize:  int(binary.LittleEndian.Uint32(b[7:])),
		timestamp: binary.LittleEndian.Uint64(b[11:]),
	}
}

func (h header) dataSize() int {
	return h.nameSize + h.bodySize
}

// DecodeRecord parses one complete record and verifies its checksum.
// The returned record aliases data.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: data too short for record header", ErrCorruption)
	}
	h := parseHeader(data)
	if len(data) < HeaderSize+h.dataSize() {
		return nil, fmt.Errorf("%w: data too short for name/body sizes: %d < %d",
			ErrCorruption, len(data), HeaderSize+h.dataSize())
	}
	data = data[:HeaderSize+h.dataSize()]
	if sum := crc32.ChecksumIEEE(data[4:]); sum != h.crc {
		return nil, fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorruption, h.crc, sum)
	}
	return &Record{
		CRC32:     h.crc,
		Flags:     h.flags,
		Timestamp: h.timestamp,
		Name:      data[HeaderSize : HeaderSize+h.nameSize],
		Body:      data[HeaderSize+h.nameSize:],
	}, nil
}

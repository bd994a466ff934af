package cxml

import "bytes"

// Version of the stream format written by this package.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// Prolog is the fixed six byte header of every stream: "CXML" followed by
// the major and minor version.
var Prolog = [6]byte{'C', 'X', 'M', 'L', VersionMajor, VersionMinor}

const (
	// MaxLiteralLen is the largest encoded length of an interned string.
	MaxLiteralLen = 0x7FFF
	// MaxTextLen is the largest encoded length of a character payload.
	MaxTextLen = 0xFFFF
	// MaxSymbols is the size of the 15 bit symbol index space.
	MaxSymbols = 0x8000
	// MaxAttributes is the largest attribute count a start element can carry.
	MaxAttributes = 0xFFFF

	referenceBit = 0x8000
)

// HasProlog reports whether buf starts with a prolog this package can decode.
func HasProlog(buf []byte) bool {
	return len(buf) >= len(Prolog) && bytes.Equal(buf[:len(Prolog)], Prolog[:])
}

// cursor walks a complete in-memory stream. Every read is bounds checked and
// reports a truncation error at the position where input ran out.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, truncatedError(c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readUint16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, truncatedError(c.pos)
	}
	v := uint16(c.buf[c.pos])<<8 | uint16(c.buf[c.pos+1])
	c.pos += 2
	return v, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, truncatedError(c.pos)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func appendUint16(dst []byte, v uint16) []byte {
	return append(dst, byte(v>>8), byte(v))
}

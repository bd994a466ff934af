package cxml

import "unicode/utf16"

// The text codec works on 16 bit code units. Go strings are converted to
// UTF-16 first, so characters outside the BMP travel as two surrogate units
// of three bytes each.

func toUnits(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func fromUnits(units []uint16) string {
	return string(utf16.Decode(units))
}

// unitLen is the encoded width of a single code unit. Zero takes the two byte
// form so a decoded 0x00 byte never stands for a real character.
func unitLen(c uint16) int {
	switch {
	case c >= 0x0001 && c <= 0x007F:
		return 1
	case c <= 0x07FF:
		return 2
	default:
		return 3
	}
}

// encodedLen returns the number of bytes appendUnits writes for units.
func encodedLen(units []uint16) int {
	n := 0
	for _, c := range units {
		n += unitLen(c)
	}
	return n
}

func appendUnits(dst []byte, units []uint16) []byte {
	for _, c := range units {
		switch unitLen(c) {
		case 1:
			dst = append(dst, byte(c))
		case 2:
			dst = append(dst, byte(0xC0|c>>6), byte(0x80|c&0x3F))
		default:
			dst = append(dst, byte(0xE0|c>>12), byte(0x80|(c>>6)&0x3F), byte(0x80|c&0x3F))
		}
	}
	return dst
}

// appendText writes a character payload: a two byte length followed by the
// encoded units.
func appendText(dst []byte, s string) ([]byte, error) {
	units := toUnits(s)
	n := encodedLen(units)
	if n > MaxTextLen {
		return dst, lengthError("character data encodes to %d bytes, limit is %d", n, MaxTextLen)
	}
	dst = appendUint16(dst, uint16(n))
	return appendUnits(dst, units), nil
}

// decodeUnits decodes src into dst, which must have room for len(src)
// units, and returns the number of units written. base is the stream offset
// of src, used for error positions.
func decodeUnits(dst []uint16, src []byte, base int) (int, error) {
	n := 0
	for i := 0; i < len(src); {
		b := src[i]
		switch b >> 4 {
		case 0, 1, 2, 3, 4, 5, 6, 7:
			dst[n] = uint16(b)
			i++
		case 12, 13:
			if i+2 > len(src) {
				return n, formatError(base+i, "partial character at end of text")
			}
			b2 := src[i+1]
			if b2&0xC0 != 0x80 {
				return n, formatError(base+i+1, "bad continuation byte 0x%02x", b2)
			}
			dst[n] = uint16(b&0x1F)<<6 | uint16(b2&0x3F)
			i += 2
		case 14:
			if i+3 > len(src) {
				return n, formatError(base+i, "partial character at end of text")
			}
			b2, b3 := src[i+1], src[i+2]
			if b2&0xC0 != 0x80 || b3&0xC0 != 0x80 {
				return n, formatError(base+i+1, "bad continuation bytes 0x%02x 0x%02x", b2, b3)
			}
			dst[n] = uint16(b&0x0F)<<12 | uint16(b2&0x3F)<<6 | uint16(b3&0x3F)
			i += 3
		default:
			return n, formatError(base+i, "bad lead byte 0x%02x", b)
		}
		n++
	}
	return n, nil
}

// trimTrailingZeros drops zero units from the end of buf. The character
// buffer is sized by byte length, so its unused tail reads as zero; a text
// that really ends in U+0000 loses those units too.
func trimTrailingZeros(buf []uint16) []uint16 {
	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	return buf[:end]
}

// readText reads a character payload written by appendText.
func (c *cursor) readText() (string, error) {
	n, err := c.readUint16()
	if err != nil {
		return "", err
	}
	start := c.pos
	raw, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	buf := make([]uint16, len(raw))
	if _, err := decodeUnits(buf, raw, start); err != nil {
		return "", err
	}
	return fromUnits(trimTrailingZeros(buf)), nil
}

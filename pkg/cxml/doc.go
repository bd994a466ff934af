// Package cxml implements CXML, a compact binary encoding of XML parse
// events.
//
// An Encoder receives events one at a time (it implements Handler and
// LexicalHandler) and appends them to an in-memory buffer. A Decoder takes a
// complete buffer and replays the same events into any Handler.
//
// # Stream Format
//
// A stream starts with a six byte prolog followed by records:
//
//	43 58 4D 4C 01 00    "CXML", major version 1, minor version 0
//	[Tag(1)][Fields...]  repeated until an EndDocument record
//
// Tags are the EventKind values 0 through 9. Field layouts:
//
//	StartDocument          (none)
//	EndDocument            (none)
//	StartPrefixMapping     prefix, uri
//	EndPrefixMapping       prefix
//	StartElement           count(2), count * (uri, local, qname, type, value), uri, local, qname
//	EndElement             uri, local, qname
//	Characters             text
//	IgnorableWhitespace    text
//	ProcessingInstruction  target, data
//	Comment                text
//
// # Strings
//
// Names, URIs, prefixes, attribute values and processing instruction fields
// go through a per-session symbol table. The first occurrence of a value is a
// Literal: a big-endian two byte length with the high bit clear (at most
// 32767 bytes) and the encoded characters. Every later occurrence is a
// Reference: two bytes with the high bit set holding the 15 bit table index.
// The decoder rebuilds the table by appending literals in the order it reads
// them, so both sides agree on every index without sharing any state.
//
// The table holds at most 32768 entries. Interning one more distinct string
// fails with a length error rather than wrapping the index.
//
// # Text
//
// Character data (Characters, IgnorableWhitespace, Comment) is never
// interned. It is written as a two byte length (at most 65535 bytes)
// followed by the encoded UTF-16 code units:
//
//	0x0001-0x007F   1 byte   0xxxxxxx
//	0x0000,
//	0x0080-0x07FF   2 bytes  110xxxxx 10xxxxxx
//	0x0800-0xFFFF   3 bytes  1110xxxx 10xxxxxx 10xxxxxx
//
// The decoder sizes its character buffer by the byte length and strips
// trailing zero units before calling the handler. Text that really ends in
// U+0000 therefore loses those characters.
//
// # Errors
//
// Every codec failure is an *Error whose Kind is one of KindFormat,
// KindTruncated or KindLengthExceeded; test with errors.Is against
// ErrFormat, ErrTruncated and ErrLengthExceeded. Errors returned by a
// Handler are passed through unchanged. There is no partial decode: a failed
// session leaves the Decoder in the Failed state until Reset.
//
// # Reuse
//
// Encoder.Reset and Decoder.Reset clear the buffer and the symbol table
// together. Pool hands out reset instances for high-throughput callers.
package cxml

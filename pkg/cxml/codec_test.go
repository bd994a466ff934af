package cxml

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func rootHiEvents() []Event {
	return []Event{
		{Kind: StartDocument},
		{Kind: StartElement, LocalName: "root", QName: "root"},
		{Kind: Characters, Text: "hi"},
		{Kind: EndElement, LocalName: "root", QName: "root"},
		{Kind: EndDocument},
	}
}

func namespacedEvents() []Event {
	return []Event{
		{Kind: StartDocument},
		{Kind: ProcessingInstruction, Target: "xml-stylesheet", Data: `href="a.xsl"`},
		{Kind: Comment, Text: " generated "},
		{Kind: StartPrefixMapping, Prefix: "x", URI: "urn:x"},
		{Kind: StartPrefixMapping, Prefix: "", URI: "urn:default"},
		{Kind: StartElement, URI: "urn:default", LocalName: "doc", QName: "doc", Attributes: []Attribute{
			{LocalName: "id", QName: "id", Type: "CDATA", Value: "1"},
			{URI: "urn:x", LocalName: "lang", QName: "x:lang", Type: "CDATA", Value: "en"},
		}},
		{Kind: StartElement, URI: "urn:x", LocalName: "item", QName: "x:item"},
		{Kind: Characters, Text: "café ☕ 𝄞"},
		{Kind: EndElement, URI: "urn:x", LocalName: "item", QName: "x:item"},
		{Kind: IgnorableWhitespace, Text: "\n  "},
		{Kind: StartElement, URI: "urn:x", LocalName: "item", QName: "x:item", Attributes: []Attribute{
			{LocalName: "id", QName: "id", Type: "CDATA", Value: "2"},
		}},
		{Kind: EndElement, URI: "urn:x", LocalName: "item", QName: "x:item"},
		{Kind: EndElement, URI: "urn:default", LocalName: "doc", QName: "doc"},
		{Kind: EndPrefixMapping, Prefix: ""},
		{Kind: EndPrefixMapping, Prefix: "x"},
		{Kind: EndDocument},
	}
}

func mustEncode(t *testing.T, events []Event) []byte {
	t.Helper()
	buf, err := EncodeEvents(events)
	if err != nil {
		t.Fatalf("EncodeEvents failed: %v", err)
	}
	return buf
}

func TestRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		events []Event
	}{
		{name: "root with text", events: rootHiEvents()},
		{name: "namespaces attributes and lexical events", events: namespacedEvents()},
		{name: "empty document", events: []Event{{Kind: StartDocument}, {Kind: EndDocument}}},
		{
			name: "empty strings and duplicate declarations",
			events: []Event{
				{Kind: StartDocument},
				{Kind: StartPrefixMapping},
				{Kind: StartPrefixMapping},
				{Kind: StartElement},
				{Kind: Characters},
				{Kind: EndElement},
				{Kind: EndPrefixMapping},
				{Kind: EndDocument},
			},
		},
		{
			name: "control and multibyte characters",
			events: []Event{
				{Kind: StartDocument},
				{Kind: StartElement, LocalName: "é", QName: "é"},
				{Kind: Characters, Text: "\x01\u007f\u0080߿ࠀ￿\U0010FFFF"},
				{Kind: Comment, Text: "a\x00b"},
				{Kind: EndElement, LocalName: "é", QName: "é"},
				{Kind: EndDocument},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := mustEncode(t, tc.events)

			got, err := DecodeEvents(buf)
			if err != nil {
				t.Fatalf("DecodeEvents failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.events) {
				t.Errorf("round trip mismatch\n got: %v\nwant: %v", got, tc.events)
			}
		})
	}
}

func TestEmptyAttributeListIsNil(t *testing.T) {
	withEmpty := []Event{
		{Kind: StartDocument},
		{Kind: StartElement, LocalName: "a", QName: "a", Attributes: []Attribute{}},
		{Kind: EndElement, LocalName: "a", QName: "a"},
		{Kind: EndDocument},
	}
	withNil := []Event{
		{Kind: StartDocument},
		{Kind: StartElement, LocalName: "a", QName: "a"},
		{Kind: EndElement, LocalName: "a", QName: "a"},
		{Kind: EndDocument},
	}

	buf := mustEncode(t, withEmpty)
	if !bytes.Equal(buf, mustEncode(t, withNil)) {
		t.Fatalf("empty and nil attribute lists encoded differently")
	}

	got, err := DecodeEvents(buf)
	if err != nil {
		t.Fatalf("DecodeEvents failed: %v", err)
	}
	if got[1].Attributes != nil {
		t.Errorf("decoded attributes = %#v, want nil", got[1].Attributes)
	}
	if !reflect.DeepEqual(got, withNil) {
		t.Errorf("round trip mismatch\n got: %v\nwant: %v", got, withNil)
	}

	var r Recorder
	if err := Emit(&r, withEmpty[1]); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if r.Events[0].Attributes != nil {
		t.Errorf("emitted attributes = %#v, want nil", r.Events[0].Attributes)
	}
}

func TestRootScenarioBytes(t *testing.T) {
	buf := mustEncode(t, rootHiEvents())

	want := []byte{
		0x43, 0x58, 0x4D, 0x4C, 0x01, 0x00,
		0x00,
		0x04, 0x00, 0x00, // StartElement, no attributes
		0x00, 0x00, // uri "" literal, symbol 0
		0x00, 0x04, 'r', 'o', 'o', 't', // local "root" literal, symbol 1
		0x80, 0x01, // qname "root" reference
		0x06, 0x00, 0x02, 'h', 'i',
		0x05, 0x80, 0x00, 0x80, 0x01, 0x80, 0x01,
		0x01,
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("encoded bytes mismatch\n got: % x\nwant: % x", buf, want)
	}

	// "root" appears once in full and as two byte references afterwards.
	if n := bytes.Count(buf, []byte("root")); n != 1 {
		t.Errorf("expected one literal copy of root, found %d", n)
	}
}

func TestDictionaryDeterminism(t *testing.T) {
	events := namespacedEvents()
	enc := NewEncoder()

	for k := range events {
		if err := Emit(enc, events[k]); err != nil {
			t.Fatalf("Emit(%s) failed: %v", events[k].Kind, err)
		}
		if events[k].Kind == EndDocument {
			break
		}

		// Close the prefix so it decodes, then compare the tables.
		prefix := append(append([]byte(nil), enc.Bytes()...), byte(EndDocument))
		dec := NewDecoder()
		var r Recorder
		if err := dec.Decode(prefix, &r); err != nil {
			t.Fatalf("decoding prefix of %d events failed: %v", k+1, err)
		}
		if !reflect.DeepEqual(dec.Symbols().Values(), enc.Symbols().Values()) {
			t.Fatalf("tables diverge after %d events\n enc: %q\n dec: %q",
				k+1, enc.Symbols().Values(), dec.Symbols().Values())
		}
	}
}

func TestSizeLimits(t *testing.T) {
	t.Run("literal at limit", func(t *testing.T) {
		enc := NewEncoder()
		if err := enc.ProcessingInstruction(strings.Repeat("a", MaxLiteralLen), ""); err != nil {
			t.Fatalf("expected %d byte literal to encode, got %v", MaxLiteralLen, err)
		}
	})

	t.Run("literal over limit", func(t *testing.T) {
		enc := NewEncoder()
		before := len(enc.Bytes())
		err := enc.StartElement("", strings.Repeat("a", MaxLiteralLen+1), "q", nil)
		if !errors.Is(err, ErrLengthExceeded) {
			t.Fatalf("expected ErrLengthExceeded, got %v", err)
		}
		if len(enc.Bytes()) != before || enc.Symbols().Len() != 0 || enc.Records() != 0 {
			t.Errorf("failed record left state behind: len=%d symbols=%d records=%d",
				len(enc.Bytes()), enc.Symbols().Len(), enc.Records())
		}
	})

	t.Run("multibyte literal over limit", func(t *testing.T) {
		// 10923 * 3 bytes = 32769
		err := NewEncoder().EndPrefixMapping(strings.Repeat("€", 10923))
		if !errors.Is(err, ErrLengthExceeded) {
			t.Fatalf("expected ErrLengthExceeded, got %v", err)
		}
	})

	t.Run("text at limit", func(t *testing.T) {
		if err := NewEncoder().Characters(strings.Repeat("a", MaxTextLen)); err != nil {
			t.Fatalf("expected %d byte text to encode, got %v", MaxTextLen, err)
		}
	})

	t.Run("text over limit", func(t *testing.T) {
		err := NewEncoder().Characters(strings.Repeat("a", MaxTextLen+1))
		if !errors.Is(err, ErrLengthExceeded) {
			t.Fatalf("expected ErrLengthExceeded, got %v", err)
		}
	})

	t.Run("zero units count double", func(t *testing.T) {
		err := NewEncoder().Comment(strings.Repeat("\x00", MaxTextLen/2+1))
		if !errors.Is(err, ErrLengthExceeded) {
			t.Fatalf("expected ErrLengthExceeded, got %v", err)
		}
	})
}

func TestEncoderContinuesAfterFailedRecord(t *testing.T) {
	enc := NewEncoder()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(enc.StartDocument())
	must(enc.StartElement("", "a", "a", nil))
	err := enc.StartElement("", "fresh", strings.Repeat("x", MaxLiteralLen+1), nil)
	if !errors.Is(err, ErrLengthExceeded) {
		t.Fatalf("expected ErrLengthExceeded, got %v", err)
	}
	must(enc.StartElement("", "fresh", "fresh", nil))
	must(enc.EndElement("", "fresh", "fresh"))
	must(enc.EndElement("", "a", "a"))
	must(enc.EndDocument())

	got, err := DecodeEvents(enc.Bytes())
	if err != nil {
		t.Fatalf("decode after failed record: %v", err)
	}
	if len(got) != 6 || got[2].LocalName != "fresh" {
		t.Errorf("unexpected events: %v", got)
	}
}

func TestCompressionGrowsSubLinearly(t *testing.T) {
	const value = "http://example.com/some/long/namespace/uri"
	build := func(n int, distinct bool) []Event {
		events := []Event{{Kind: StartDocument}}
		for i := 0; i < n; i++ {
			v := value
			if distinct {
				v = value + strings.Repeat("/", i+1)
			}
			events = append(events, Event{Kind: ProcessingInstruction, Target: "t", Data: v})
		}
		return append(events, Event{Kind: EndDocument})
	}

	repeated := len(mustEncode(t, build(100, false)))
	independent := len(mustEncode(t, build(100, true)))
	single := len(mustEncode(t, build(1, false)))

	// Each repeat costs a tag and two references: five bytes.
	if want := single + 99*5; repeated != want {
		t.Errorf("repeated size = %d, want %d", repeated, want)
	}
	if repeated*5 > independent {
		t.Errorf("repeated strings not compressed: %d vs %d bytes", repeated, independent)
	}
}

func TestDecodeRejectsBadProlog(t *testing.T) {
	testCases := []struct {
		name string
		buf  []byte
		want error
	}{
		{name: "wrong magic", buf: []byte("XMLC\x01\x00\x01"), want: ErrFormat},
		{name: "wrong major version", buf: []byte("CXML\x02\x00\x01"), want: ErrFormat},
		{name: "wrong minor version", buf: []byte("CXML\x01\x01\x01"), want: ErrFormat},
		{name: "short garbage", buf: []byte("<?x"), want: ErrFormat},
		{name: "empty", buf: nil, want: ErrTruncated},
		{name: "partial prolog", buf: []byte("CXM"), want: ErrTruncated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var r Recorder
			dec := NewDecoder()
			err := dec.Decode(tc.buf, &r)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(r.Events) != 0 {
				t.Errorf("no events expected before the prolog is accepted, got %v", r.Events)
			}
			if dec.State() != Failed {
				t.Errorf("state = %s, want failed", dec.State())
			}
		})
	}
}

func TestDecodeTruncatedAtEveryOffset(t *testing.T) {
	buf := mustEncode(t, namespacedEvents())
	for n := len(Prolog); n < len(buf); n++ {
		_, err := DecodeEvents(buf[:n])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("prefix of %d/%d bytes: expected ErrTruncated, got %v", n, len(buf), err)
		}
	}
}

func TestDecodeMalformedRecords(t *testing.T) {
	prolog := Prolog[:]
	cat := func(parts ...[]byte) []byte {
		return bytes.Join(append([][]byte{prolog}, parts...), nil)
	}

	testCases := []struct {
		name string
		buf  []byte
		want error
	}{
		{name: "unknown tag", buf: cat([]byte{0x00, 0x0A}), want: ErrFormat},
		{name: "high tag", buf: cat([]byte{0xFF}), want: ErrFormat},
		{name: "bad lead nibble", buf: cat([]byte{0x06, 0x00, 0x01, 0x80, 0x01}), want: ErrFormat},
		{name: "lead nibble 15", buf: cat([]byte{0x06, 0x00, 0x01, 0xF0, 0x01}), want: ErrFormat},
		{name: "bad continuation", buf: cat([]byte{0x06, 0x00, 0x02, 0xC3, 0x41, 0x01}), want: ErrFormat},
		{name: "group past length", buf: cat([]byte{0x06, 0x00, 0x02, 0xE2, 0x82, 0xAC, 0x01}), want: ErrFormat},
		{name: "undefined reference", buf: cat([]byte{0x03, 0x80, 0x00, 0x01}), want: ErrFormat},
		{name: "no end document", buf: cat([]byte{0x00}), want: ErrTruncated},
		{name: "attribute count past end", buf: cat([]byte{0x04, 0x00, 0x01}), want: ErrTruncated},
		{name: "literal past end", buf: cat([]byte{0x03, 0x00, 0x05, 'a'}), want: ErrTruncated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEvents(tc.buf)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var cerr *Error
			if !errors.As(err, &cerr) || cerr.Offset < 0 {
				t.Errorf("expected *Error with offset, got %#v", err)
			}
		})
	}
}

// plainHandler implements Handler only.
type plainHandler struct {
	kinds []EventKind
}

func (h *plainHandler) StartDocument() error {
	h.kinds = append(h.kinds, StartDocument)
	return nil
}
func (h *plainHandler) EndDocument() error {
	h.kinds = append(h.kinds, EndDocument)
	return nil
}
func (h *plainHandler) StartPrefixMapping(string, string) error { return nil }
func (h *plainHandler) EndPrefixMapping(string) error           { return nil }
func (h *plainHandler) StartElement(_, local, _ string, _ []Attribute) error {
	h.kinds = append(h.kinds, StartElement)
	return nil
}
func (h *plainHandler) EndElement(string, string, string) error {
	h.kinds = append(h.kinds, EndElement)
	return nil
}
func (h *plainHandler) Characters(string) error {
	h.kinds = append(h.kinds, Characters)
	return nil
}
func (h *plainHandler) IgnorableWhitespace(string) error           { return nil }
func (h *plainHandler) ProcessingInstruction(string, string) error { return nil }

func TestDecodeCommentWithoutLexicalHandler(t *testing.T) {
	buf := mustEncode(t, []Event{
		{Kind: StartDocument},
		{Kind: Comment, Text: "before"},
		{Kind: StartElement, LocalName: "a", QName: "a"},
		{Kind: Comment, Text: "inside ☃"},
		{Kind: Characters, Text: "x"},
		{Kind: EndElement, LocalName: "a", QName: "a"},
		{Kind: EndDocument},
	})

	var h plainHandler
	dec := NewDecoder()
	if err := dec.Decode(buf, &h); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []EventKind{StartDocument, StartElement, Characters, EndElement, EndDocument}
	if !reflect.DeepEqual(h.kinds, want) {
		t.Errorf("got %v, want %v", h.kinds, want)
	}
	if dec.Records() != 7 {
		t.Errorf("Records() = %d, want 7", dec.Records())
	}
	if dec.State() != Done {
		t.Errorf("state = %s, want done", dec.State())
	}
}

func TestDecodeStripsTrailingZeroUnits(t *testing.T) {
	buf := mustEncode(t, []Event{
		{Kind: StartDocument},
		{Kind: Characters, Text: "ab\x00\x00"},
		{Kind: Comment, Text: "\x00"},
		{Kind: IgnorableWhitespace, Text: " \x00 "},
		{Kind: ProcessingInstruction, Target: "t", Data: "d\x00"},
		{Kind: EndDocument},
	})

	got, err := DecodeEvents(buf)
	if err != nil {
		t.Fatalf("DecodeEvents failed: %v", err)
	}
	if got[1].Text != "ab" {
		t.Errorf("characters = %q, want trailing zeros stripped", got[1].Text)
	}
	if got[2].Text != "" {
		t.Errorf("comment = %q, want empty", got[2].Text)
	}
	if got[3].Text != " \x00 " {
		t.Errorf("inner zero must survive, got %q", got[3].Text)
	}
	if got[4].Data != "d\x00" {
		t.Errorf("interned strings are exact, got %q", got[4].Data)
	}
}

var errStop = errors.New("consumer stopped")

type failingHandler struct {
	Recorder
	failOn EventKind
}

func (h *failingHandler) Characters(text string) error {
	if h.failOn == Characters {
		return errStop
	}
	return h.Recorder.Characters(text)
}

func TestDecodePropagatesHandlerErrors(t *testing.T) {
	buf := mustEncode(t, rootHiEvents())
	h := &failingHandler{failOn: Characters}
	dec := NewDecoder()

	err := dec.Decode(buf, h)
	if err != errStop {
		t.Fatalf("expected handler error unchanged, got %v", err)
	}
	if dec.State() != Failed {
		t.Errorf("state = %s, want failed", dec.State())
	}
	if len(h.Events) != 2 {
		t.Errorf("expected events up to the failure, got %v", h.Events)
	}
}

func TestDecoderStateAndReset(t *testing.T) {
	buf := mustEncode(t, rootHiEvents())
	dec := NewDecoder()
	if dec.State() != AwaitingProlog {
		t.Fatalf("new decoder state = %s", dec.State())
	}

	var r Recorder
	if err := dec.Decode(buf, &r); err != nil {
		t.Fatal(err)
	}
	if dec.State() != Done {
		t.Fatalf("state = %s, want done", dec.State())
	}
	if err := dec.Decode(buf, &r); err == nil {
		t.Fatal("expected error decoding on a finished session")
	}

	dec.Reset()
	if dec.Symbols().Len() != 0 {
		t.Fatalf("Reset must clear the symbol table, have %d", dec.Symbols().Len())
	}
	r.Reset()
	if err := dec.Decode(buf, &r); err != nil {
		t.Fatalf("decode after Reset: %v", err)
	}
	if !reflect.DeepEqual(r.Events, rootHiEvents()) {
		t.Errorf("unexpected events after Reset: %v", r.Events)
	}
}

func TestDecodeStopsAtEndDocument(t *testing.T) {
	buf := mustEncode(t, rootHiEvents())
	buf = append(buf, 0xFF, 0xFF, 0xFF)

	got, err := DecodeEvents(buf)
	if err != nil {
		t.Fatalf("trailing bytes after EndDocument must be ignored: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d events, want 5", len(got))
	}
}

func TestEncoderReset(t *testing.T) {
	enc := NewEncoder()
	for _, ev := range namespacedEvents() {
		if err := Emit(enc, ev); err != nil {
			t.Fatal(err)
		}
	}
	enc.Reset()
	if !bytes.Equal(enc.Bytes(), Prolog[:]) {
		t.Errorf("Reset must leave only the prolog, have % x", enc.Bytes())
	}
	if enc.Symbols().Len() != 0 || enc.Records() != 0 {
		t.Errorf("Reset must clear symbols and records")
	}

	for _, ev := range rootHiEvents() {
		if err := Emit(enc, ev); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(enc.Bytes(), mustEncode(t, rootHiEvents())) {
		t.Error("reused encoder output differs from a fresh encoder")
	}
}

func TestPoolHandsOutCleanInstances(t *testing.T) {
	pool := NewPool()

	enc := pool.GetEncoder()
	if err := enc.StartElement("", "dirty", "dirty", nil); err != nil {
		t.Fatal(err)
	}
	pool.PutEncoder(enc)

	enc = pool.GetEncoder()
	if !bytes.Equal(enc.Bytes(), Prolog[:]) || enc.Symbols().Len() != 0 {
		t.Fatalf("pooled encoder not reset: % x", enc.Bytes())
	}
	for _, ev := range rootHiEvents() {
		if err := Emit(enc, ev); err != nil {
			t.Fatal(err)
		}
	}
	buf := append([]byte(nil), enc.Bytes()...)
	pool.PutEncoder(enc)

	dec := pool.GetDecoder()
	var r Recorder
	if err := dec.Decode(buf, &r); err != nil {
		t.Fatal(err)
	}
	pool.PutDecoder(dec)

	dec = pool.GetDecoder()
	if dec.State() != AwaitingProlog || dec.Symbols().Len() != 0 {
		t.Errorf("pooled decoder not reset: state=%s symbols=%d", dec.State(), dec.Symbols().Len())
	}
	pool.PutDecoder(nil)
	pool.PutEncoder(nil)
}

func TestEventKindText(t *testing.T) {
	for k := StartDocument; k <= Comment; k++ {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}
		var back EventKind
		if err := back.UnmarshalText(text); err != nil || back != k {
			t.Errorf("UnmarshalText(%s) = %v, %v", text, back, err)
		}
	}
	if _, err := EventKind(10).MarshalText(); err == nil {
		t.Error("expected error for invalid kind")
	}
	if EventKind(42).String() != "EventKind(42)" {
		t.Errorf("unexpected String for invalid kind: %s", EventKind(42))
	}
}

package cxml

// Encoder turns pushed events into a stream. It implements Handler and
// LexicalHandler, so any event producer can drive it directly. An Encoder is
// not safe for concurrent use.
type Encoder struct {
	buf     []byte
	symbols *SymbolTable
	records int
}

// NewEncoder returns an encoder whose buffer already holds the prolog.
func NewEncoder() *Encoder {
	e := &Encoder{
		buf:     make([]byte, 0, 256),
		symbols: NewSymbolTable(),
	}
	e.buf = append(e.buf, Prolog[:]...)
	return e
}

// Reset starts a new session. The buffer and the symbol table are always
// cleared together.
func (e *Encoder) Reset() {
	e.buf = append(e.buf[:0], Prolog[:]...)
	e.symbols.Reset()
	e.records = 0
}

// Bytes returns the stream written so far. The slice aliases the encoder's
// buffer until the next write or Reset.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Symbols exposes the encoder's symbol table for inspection.
func (e *Encoder) Symbols() *SymbolTable {
	return e.symbols
}

// Records returns the number of records written in this session.
func (e *Encoder) Records() int {
	return e.records
}

func (e *Encoder) writeTag(k EventKind) {
	e.buf = append(e.buf, byte(k))
	e.records++
}

// mark records where the current record starts in the buffer and the table.
type mark struct {
	buf     int
	symbols int
}

func (e *Encoder) begin(k EventKind) mark {
	m := mark{buf: len(e.buf), symbols: e.symbols.Len()}
	e.writeTag(k)
	return m
}

// writeStrings writes each field through the symbol table. On failure the
// buffer and the table are left as they were before the record started.
func (e *Encoder) writeStrings(m mark, fields ...string) error {
	for _, s := range fields {
		ref, err := e.symbols.Intern(s)
		if err != nil {
			e.rollback(m)
			return err
		}
		if e.buf, err = ref.AppendTo(e.buf); err != nil {
			e.rollback(m)
			return err
		}
	}
	return nil
}

func (e *Encoder) writeText(m mark, text string) error {
	var err error
	if e.buf, err = appendText(e.buf, text); err != nil {
		e.rollback(m)
		return err
	}
	return nil
}

// rollback drops a half written record, including any symbols it interned,
// so a decoder never sees an index the encoder skipped.
func (e *Encoder) rollback(m mark) {
	e.buf = e.buf[:m.buf]
	e.symbols.truncate(m.symbols)
	e.records--
}

func (e *Encoder) StartDocument() error {
	e.writeTag(StartDocument)
	return nil
}

func (e *Encoder) EndDocument() error {
	e.writeTag(EndDocument)
	return nil
}

func (e *Encoder) StartPrefixMapping(prefix, uri string) error {
	m := e.begin(StartPrefixMapping)
	return e.writeStrings(m, prefix, uri)
}

func (e *Encoder) EndPrefixMapping(prefix string) error {
	m := e.begin(EndPrefixMapping)
	return e.writeStrings(m, prefix)
}

func (e *Encoder) StartElement(uri, localName, qName string, attrs []Attribute) error {
	if len(attrs) > MaxAttributes {
		return lengthError("%d attributes, limit is %d", len(attrs), MaxAttributes)
	}
	m := e.begin(StartElement)
	e.buf = appendUint16(e.buf, uint16(len(attrs)))
	for _, a := range attrs {
		if err := e.writeStrings(m, a.URI, a.LocalName, a.QName, a.Type, a.Value); err != nil {
			return err
		}
	}
	return e.writeStrings(m, uri, localName, qName)
}

func (e *Encoder) EndElement(uri, localName, qName string) error {
	m := e.begin(EndElement)
	return e.writeStrings(m, uri, localName, qName)
}

func (e *Encoder) Characters(text string) error {
	m := e.begin(Characters)
	return e.writeText(m, text)
}

func (e *Encoder) IgnorableWhitespace(text string) error {
	m := e.begin(IgnorableWhitespace)
	return e.writeText(m, text)
}

func (e *Encoder) ProcessingInstruction(target, data string) error {
	m := e.begin(ProcessingInstruction)
	return e.writeStrings(m, target, data)
}

func (e *Encoder) Comment(text string) error {
	m := e.begin(Comment)
	return e.writeText(m, text)
}

// EncodeEvents encodes a complete event sequence with a fresh encoder and
// returns a buffer owned by the caller.
func EncodeEvents(events []Event) ([]byte, error) {
	e := NewEncoder()
	for _, ev := range events {
		if err := Emit(e, ev); err != nil {
			return nil, err
		}
	}
	out := make([]byte, len(e.buf))
	copy(out, e.buf)
	return out, nil
}

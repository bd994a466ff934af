package cxml

import "fmt"

// State is the position of a Decoder in its session lifecycle.
type State int

const (
	AwaitingProlog State = iota
	Dispatching
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingProlog:
		return "awaiting-prolog"
	case Dispatching:
		return "dispatching"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decoder replays a complete stream into a Handler. Done and Failed are
// terminal; Reset starts a new session. A Decoder is not safe for concurrent
// use.
type Decoder struct {
	symbols *SymbolTable
	state   State
	records int
	attrs   []Attribute
}

// NewDecoder returns a decoder awaiting a prolog.
func NewDecoder() *Decoder {
	return &Decoder{symbols: NewSymbolTable()}
}

// Reset clears the symbol table and returns to AwaitingProlog.
func (d *Decoder) Reset() {
	d.symbols.Reset()
	d.state = AwaitingProlog
	d.records = 0
	d.attrs = d.attrs[:0]
}

// State reports the current session state.
func (d *Decoder) State() State {
	return d.state
}

// Symbols exposes the decoder's symbol table for inspection.
func (d *Decoder) Symbols() *SymbolTable {
	return d.symbols
}

// Records returns the number of records dispatched in this session.
func (d *Decoder) Records() int {
	return d.records
}

// Decode validates the prolog of buf and dispatches every record to h until
// EndDocument. Comment records are consumed even when h is not a
// LexicalHandler. Errors returned by h are passed back unchanged.
func (d *Decoder) Decode(buf []byte, h Handler) error {
	if d.state != AwaitingProlog {
		return fmt.Errorf("cxml: decoder is %s, reset it before decoding again", d.state)
	}
	if err := d.decode(buf, h); err != nil {
		d.state = Failed
		return err
	}
	d.state = Done
	return nil
}

func (d *Decoder) decode(buf []byte, h Handler) error {
	if len(buf) < len(Prolog) {
		if len(buf) > 0 && !hasPrologPrefix(buf) {
			return formatError(0, "bad prolog % x", buf)
		}
		return truncatedError(len(buf))
	}
	if !HasProlog(buf) {
		return formatError(0, "bad prolog % x, want % x", buf[:len(Prolog)], Prolog[:])
	}
	d.state = Dispatching

	lexical, _ := h.(LexicalHandler)
	c := &cursor{buf: buf, pos: len(Prolog)}
	for {
		at := c.pos
		tag, err := c.readByte()
		if err != nil {
			return err
		}
		kind := EventKind(tag)
		if !kind.Valid() {
			return formatError(at, "unknown record tag %d", tag)
		}
		if err := d.dispatch(c, kind, h, lexical); err != nil {
			return err
		}
		d.records++
		if kind == EndDocument {
			return nil
		}
	}
}

// hasPrologPrefix reports whether a buffer shorter than the prolog could
// still be the start of one.
func hasPrologPrefix(buf []byte) bool {
	for i := 0; i < len(buf) && i < len(Prolog); i++ {
		if buf[i] != Prolog[i] {
			return false
		}
	}
	return true
}

func (d *Decoder) dispatch(c *cursor, kind EventKind, h Handler, lexical LexicalHandler) error {
	switch kind {
	case StartDocument:
		return h.StartDocument()
	case EndDocument:
		return h.EndDocument()
	case StartPrefixMapping:
		prefix, uri, err := d.readPair(c)
		if err != nil {
			return err
		}
		return h.StartPrefixMapping(prefix, uri)
	case EndPrefixMapping:
		prefix, err := c.readString(d.symbols)
		if err != nil {
			return err
		}
		return h.EndPrefixMapping(prefix)
	case StartElement:
		attrs, err := d.readAttributes(c)
		if err != nil {
			return err
		}
		uri, local, qName, err := d.readName(c)
		if err != nil {
			return err
		}
		return h.StartElement(uri, local, qName, attrs)
	case EndElement:
		uri, local, qName, err := d.readName(c)
		if err != nil {
			return err
		}
		return h.EndElement(uri, local, qName)
	case Characters:
		text, err := c.readText()
		if err != nil {
			return err
		}
		return h.Characters(text)
	case IgnorableWhitespace:
		text, err := c.readText()
		if err != nil {
			return err
		}
		return h.IgnorableWhitespace(text)
	case ProcessingInstruction:
		target, data, err := d.readPair(c)
		if err != nil {
			return err
		}
		return h.ProcessingInstruction(target, data)
	case Comment:
		text, err := c.readText()
		if err != nil {
			return err
		}
		if lexical == nil {
			return nil
		}
		return lexical.Comment(text)
	}
	return formatError(c.pos-1, "unknown record tag %d", uint8(kind))
}

func (d *Decoder) readPair(c *cursor) (string, string, error) {
	a, err := c.readString(d.symbols)
	if err != nil {
		return "", "", err
	}
	b, err := c.readString(d.symbols)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func (d *Decoder) readName(c *cursor) (uri, local, qName string, err error) {
	if uri, err = c.readString(d.symbols); err != nil {
		return
	}
	if local, err = c.readString(d.symbols); err != nil {
		return
	}
	qName, err = c.readString(d.symbols)
	return
}

// readAttributes reads the count and the attribute groups of a start
// element. The returned slice is reused by the next start element, so
// handlers that keep attributes must copy them.
func (d *Decoder) readAttributes(c *cursor) ([]Attribute, error) {
	n, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	d.attrs = d.attrs[:0]
	for i := 0; i < int(n); i++ {
		var a Attribute
		fields := [5]*string{&a.URI, &a.LocalName, &a.QName, &a.Type, &a.Value}
		for _, f := range fields {
			if *f, err = c.readString(d.symbols); err != nil {
				return nil, err
			}
		}
		d.attrs = append(d.attrs, a)
	}
	if n == 0 {
		return nil, nil
	}
	return d.attrs, nil
}

// Decode replays buf into h with a fresh decoder.
func Decode(buf []byte, h Handler) error {
	return NewDecoder().Decode(buf, h)
}

// DecodeEvents decodes buf into a slice of events, comments included.
func DecodeEvents(buf []byte) ([]Event, error) {
	var r Recorder
	if err := Decode(buf, &r); err != nil {
		return nil, err
	}
	return r.Events, nil
}

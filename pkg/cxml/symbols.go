package cxml

// SymbolTable is the per-session string dictionary. Indices are handed out in
// insertion order, so an encoder and a decoder that see the same strings in
// the same order hold identical tables at every point of the stream.
type SymbolTable struct {
	index  map[string]uint16
	values []string
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]uint16)}
}

// Len returns the number of interned strings.
func (t *SymbolTable) Len() int {
	return len(t.values)
}

// Lookup returns the index of s if it has been interned.
func (t *SymbolTable) Lookup(s string) (uint16, bool) {
	i, ok := t.index[s]
	return i, ok
}

// At returns the string stored at index i.
func (t *SymbolTable) At(i uint16) (string, bool) {
	if int(i) >= len(t.values) {
		return "", false
	}
	return t.values[i], true
}

// Values returns the interned strings in index order. The slice is shared
// with the table and must not be modified.
func (t *SymbolTable) Values() []string {
	return t.values
}

// add appends s at the next free index. It does not check for duplicates;
// the decoder appends every literal it reads.
func (t *SymbolTable) add(s string) (uint16, bool) {
	if len(t.values) >= MaxSymbols {
		return 0, false
	}
	i := uint16(len(t.values))
	t.values = append(t.values, s)
	if _, seen := t.index[s]; !seen {
		t.index[s] = i
	}
	return i, true
}

// Intern decides how s is written: a Reference when s is already present,
// otherwise a Literal after adding s to the table. A full table is an error;
// indices never wrap.
func (t *SymbolTable) Intern(s string) (StringRef, error) {
	if i, ok := t.index[s]; ok {
		return Reference{Index: i}, nil
	}
	if _, ok := t.add(s); !ok {
		return nil, lengthError("symbol table full: %d distinct strings", MaxSymbols)
	}
	return Literal{Value: s}, nil
}

// truncate drops every entry at index n and above.
func (t *SymbolTable) truncate(n int) {
	if n >= len(t.values) {
		return
	}
	for i := n; i < len(t.values); i++ {
		if idx, ok := t.index[t.values[i]]; ok && int(idx) >= n {
			delete(t.index, t.values[i])
		}
	}
	t.values = t.values[:n]
}

// Reset empties the table, keeping its allocations.
func (t *SymbolTable) Reset() {
	clear(t.index)
	t.values = t.values[:0]
}

// StringRef is how a single string field appears on the wire: either a
// Literal carrying the text or a Reference to an earlier literal.
type StringRef interface {
	// AppendTo writes the two byte header and, for literals, the payload.
	AppendTo(dst []byte) ([]byte, error)
	isStringRef()
}

// Literal is a string written in full. Its header holds the encoded length
// with the high bit clear.
type Literal struct {
	Value string
}

func (Literal) isStringRef() {}

func (l Literal) AppendTo(dst []byte) ([]byte, error) {
	units := toUnits(l.Value)
	n := encodedLen(units)
	if n > MaxLiteralLen {
		return dst, lengthError("string encodes to %d bytes, limit is %d", n, MaxLiteralLen)
	}
	dst = appendUint16(dst, uint16(n))
	return appendUnits(dst, units), nil
}

// Reference points at a previously written literal by table index. Its
// header has the high bit set.
type Reference struct {
	Index uint16
}

func (Reference) isStringRef() {}

func (r Reference) AppendTo(dst []byte) ([]byte, error) {
	if int(r.Index) >= MaxSymbols {
		return dst, lengthError("symbol index %d outside 15 bit range", r.Index)
	}
	return appendUint16(dst, referenceBit|r.Index), nil
}

// ParseStringHeader splits a two byte string header. For a reference n is
// the symbol index, for a literal it is the payload length in bytes.
func ParseStringHeader(hi, lo byte) (isRef bool, n uint16) {
	h := uint16(hi)<<8 | uint16(lo)
	return h&referenceBit != 0, h &^ referenceBit
}

// readString reads one string field and keeps the decoder table in step with
// the encoder: literals are appended, references are resolved verbatim.
func (c *cursor) readString(t *SymbolTable) (string, error) {
	at := c.pos
	header, err := c.readBytes(2)
	if err != nil {
		return "", err
	}
	isRef, n := ParseStringHeader(header[0], header[1])
	if isRef {
		s, ok := t.At(n)
		if !ok {
			return "", formatError(at, "reference to undefined symbol %d (table has %d)", n, t.Len())
		}
		return s, nil
	}
	start := c.pos
	raw, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	units := make([]uint16, len(raw))
	count, err := decodeUnits(units, raw, start)
	if err != nil {
		return "", err
	}
	s := fromUnits(units[:count])
	if _, ok := t.add(s); !ok {
		return "", formatError(at, "symbol table overflow")
	}
	return s, nil
}

package cxml

import "fmt"

// EventKind identifies one of the ten event kinds. The numeric value is the
// record tag written to the stream.
type EventKind uint8

const (
	StartDocument EventKind = iota
	EndDocument
	StartPrefixMapping
	EndPrefixMapping
	StartElement
	EndElement
	Characters
	IgnorableWhitespace
	ProcessingInstruction
	Comment

	numEventKinds
)

var eventKindNames = [numEventKinds]string{
	"StartDocument",
	"EndDocument",
	"StartPrefixMapping",
	"EndPrefixMapping",
	"StartElement",
	"EndElement",
	"Characters",
	"IgnorableWhitespace",
	"ProcessingInstruction",
	"Comment",
}

func (k EventKind) String() string {
	if k < numEventKinds {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Valid reports whether k is one of the ten defined kinds.
func (k EventKind) Valid() bool {
	return k < numEventKinds
}

// MarshalText renders the kind by name for JSON output.
func (k EventKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid event kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name produced by MarshalText.
func (k *EventKind) UnmarshalText(text []byte) error {
	for i, name := range eventKindNames {
		if name == string(text) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Attribute is one attribute of a start element.
type Attribute struct {
	URI       string `json:"uri"`
	LocalName string `json:"local_name"`
	QName     string `json:"qname"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// Event is a single parse notification. Only the fields that belong to Kind
// are meaningful:
//
//	StartPrefixMapping     Prefix, URI
//	EndPrefixMapping       Prefix
//	StartElement           URI, LocalName, QName, Attributes
//	EndElement             URI, LocalName, QName
//	Characters             Text
//	IgnorableWhitespace    Text
//	ProcessingInstruction  Target, Data
//	Comment                Text
type Event struct {
	Kind       EventKind   `json:"kind"`
	Prefix     string      `json:"prefix,omitempty"`
	URI        string      `json:"uri,omitempty"`
	LocalName  string      `json:"local_name,omitempty"`
	QName      string      `json:"qname,omitempty"`
	// Attributes is nil when a start element has none. Decoding never
	// yields an empty non-nil slice.
	Attributes []Attribute `json:"attributes,omitempty"`
	Text       string      `json:"text,omitempty"`
	Target     string      `json:"target,omitempty"`
	Data       string      `json:"data,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case StartPrefixMapping:
		return fmt.Sprintf("%s prefix=%q uri=%q", e.Kind, e.Prefix, e.URI)
	case EndPrefixMapping:
		return fmt.Sprintf("%s prefix=%q", e.Kind, e.Prefix)
	case StartElement:
		return fmt.Sprintf("%s uri=%q local=%q qname=%q attrs=%d", e.Kind, e.URI, e.LocalName, e.QName, len(e.Attributes))
	case EndElement:
		return fmt.Sprintf("%s uri=%q local=%q qname=%q", e.Kind, e.URI, e.LocalName, e.QName)
	case Characters, IgnorableWhitespace, Comment:
		return fmt.Sprintf("%s %q", e.Kind, e.Text)
	case ProcessingInstruction:
		return fmt.Sprintf("%s target=%q data=%q", e.Kind, e.Target, e.Data)
	default:
		return e.Kind.String()
	}
}

// Handler receives the core events, in document order. Returning an error
// stops whoever is driving the handler.
type Handler interface {
	StartDocument() error
	EndDocument() error
	StartPrefixMapping(prefix, uri string) error
	EndPrefixMapping(prefix string) error
	StartElement(uri, localName, qName string, attrs []Attribute) error
	EndElement(uri, localName, qName string) error
	Characters(text string) error
	IgnorableWhitespace(text string) error
	ProcessingInstruction(target, data string) error
}

// LexicalHandler is the optional capability for comments. Consumers that do
// not implement it simply never see Comment events.
type LexicalHandler interface {
	Comment(text string) error
}

// Emit delivers e to h. Comment events are dropped when h is not a
// LexicalHandler.
func Emit(h Handler, e Event) error {
	switch e.Kind {
	case StartDocument:
		return h.StartDocument()
	case EndDocument:
		return h.EndDocument()
	case StartPrefixMapping:
		return h.StartPrefixMapping(e.Prefix, e.URI)
	case EndPrefixMapping:
		return h.EndPrefixMapping(e.Prefix)
	case StartElement:
		attrs := e.Attributes
		if len(attrs) == 0 {
			attrs = nil
		}
		return h.StartElement(e.URI, e.LocalName, e.QName, attrs)
	case EndElement:
		return h.EndElement(e.URI, e.LocalName, e.QName)
	case Characters:
		return h.Characters(e.Text)
	case IgnorableWhitespace:
		return h.IgnorableWhitespace(e.Text)
	case ProcessingInstruction:
		return h.ProcessingInstruction(e.Target, e.Data)
	case Comment:
		if lh, ok := h.(LexicalHandler); ok {
			return lh.Comment(e.Text)
		}
		return nil
	default:
		return fmt.Errorf("cxml: cannot emit %s", e.Kind)
	}
}

// Recorder is a Handler and LexicalHandler that keeps every event it sees.
type Recorder struct {
	Events []Event
}

func (r *Recorder) add(e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) StartDocument() error { return r.add(Event{Kind: StartDocument}) }
func (r *Recorder) EndDocument() error   { return r.add(Event{Kind: EndDocument}) }

func (r *Recorder) StartPrefixMapping(prefix, uri string) error {
	return r.add(Event{Kind: StartPrefixMapping, Prefix: prefix, URI: uri})
}

func (r *Recorder) EndPrefixMapping(prefix string) error {
	return r.add(Event{Kind: EndPrefixMapping, Prefix: prefix})
}

func (r *Recorder) StartElement(uri, localName, qName string, attrs []Attribute) error {
	var copied []Attribute
	if len(attrs) > 0 {
		copied = append([]Attribute(nil), attrs...)
	}
	return r.add(Event{Kind: StartElement, URI: uri, LocalName: localName, QName: qName, Attributes: copied})
}

func (r *Recorder) EndElement(uri, localName, qName string) error {
	return r.add(Event{Kind: EndElement, URI: uri, LocalName: localName, QName: qName})
}

func (r *Recorder) Characters(text string) error {
	return r.add(Event{Kind: Characters, Text: text})
}

func (r *Recorder) IgnorableWhitespace(text string) error {
	return r.add(Event{Kind: IgnorableWhitespace, Text: text})
}

func (r *Recorder) ProcessingInstruction(target, data string) error {
	return r.add(Event{Kind: ProcessingInstruction, Target: target, Data: data})
}

func (r *Recorder) Comment(text string) error {
	return r.add(Event{Kind: Comment, Text: text})
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}

package xmlsax

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ssargent/cxmldb/pkg/cxml"
)

// WriterOptions controls how a Writer formats its output.
type WriterOptions struct {
	// Indent, when set, puts each element on its own line using this string
	// per nesting level. Leave empty for mixed content.
	Indent string
	// OmitDeclaration drops the <?xml ...?> line.
	OmitDeclaration bool
}

// Writer serializes events as XML text. It implements cxml.Handler and
// cxml.LexicalHandler. Names are written exactly as their qualified names;
// prefix mappings become xmlns attributes on the next start element.
type Writer struct {
	enc     *xml.Encoder
	opts    WriterOptions
	pending []xml.Attr
}

var (
	_ cxml.Handler        = (*Writer)(nil)
	_ cxml.LexicalHandler = (*Writer)(nil)
)

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer, opts WriterOptions) *Writer {
	enc := xml.NewEncoder(w)
	if opts.Indent != "" {
		enc.Indent("", opts.Indent)
	}
	return &Writer{enc: enc, opts: opts}
}

func (w *Writer) encode(tok xml.Token) error {
	if err := w.enc.EncodeToken(tok); err != nil {
		return fmt.Errorf("xmlsax: write: %w", err)
	}
	return nil
}

func name(local, qName string) xml.Name {
	if qName != "" {
		return xml.Name{Local: qName}
	}
	return xml.Name{Local: local}
}

func (w *Writer) StartDocument() error {
	if w.opts.OmitDeclaration {
		return nil
	}
	if err := w.encode(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return err
	}
	if w.opts.Indent != "" {
		// The encoder only breaks lines before elements it has indented.
		return w.encode(xml.CharData("\n"))
	}
	return nil
}

// EndDocument flushes everything written so far.
func (w *Writer) EndDocument() error {
	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("xmlsax: flush: %w", err)
	}
	return nil
}

func (w *Writer) StartPrefixMapping(prefix, uri string) error {
	attr := xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: uri}
	if prefix != "" {
		attr.Name.Local = "xmlns:" + prefix
	}
	w.pending = append(w.pending, attr)
	return nil
}

func (w *Writer) EndPrefixMapping(string) error {
	return nil
}

func (w *Writer) StartElement(_, localName, qName string, attrs []cxml.Attribute) error {
	start := xml.StartElement{Name: name(localName, qName)}
	start.Attr = make([]xml.Attr, 0, len(w.pending)+len(attrs))
	start.Attr = append(start.Attr, w.pending...)
	for _, a := range attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: name(a.LocalName, a.QName), Value: a.Value})
	}
	w.pending = w.pending[:0]
	return w.encode(start)
}

func (w *Writer) EndElement(_, localName, qName string) error {
	return w.encode(xml.EndElement{Name: name(localName, qName)})
}

func (w *Writer) Characters(text string) error {
	return w.encode(xml.CharData(text))
}

func (w *Writer) IgnorableWhitespace(text string) error {
	return w.encode(xml.CharData(text))
}

func (w *Writer) ProcessingInstruction(target, data string) error {
	return w.encode(xml.ProcInst{Target: target, Inst: []byte(data)})
}

func (w *Writer) Comment(text string) error {
	return w.encode(xml.Comment(text))
}

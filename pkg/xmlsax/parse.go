// Package xmlsax connects XML text to cxml event handlers: Parse turns a
// document into events and Writer turns events back into a document.
package xmlsax

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/cxmldb/pkg/cxml"
)

// XMLNamespace is bound to the "xml" prefix in every document.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// AttributeType is reported for every attribute; no DTD is read.
const AttributeType = "CDATA"

// ErrMalformed wraps every error caused by the input document itself, as
// opposed to errors returned by the handler.
var ErrMalformed = errors.New("xmlsax: malformed document")

// Parse reads an XML document from r and reports it to h. Comments are only
// delivered when h also implements cxml.LexicalHandler.
func Parse(r io.Reader, h cxml.Handler) error {
	return ParseContext(context.Background(), r, h)
}

// ParseContext is Parse with cancellation checked between tokens.
func ParseContext(ctx context.Context, r io.Reader, h cxml.Handler) error {
	p := &parser{
		dec:        xml.NewDecoder(r),
		h:          h,
		namespaces: map[string][]string{"xml": {XMLNamespace}},
	}
	p.lexical, _ = h.(cxml.LexicalHandler)
	return p.run(ctx)
}

type element struct {
	uri, local, qName string
	declared          []string
}

type parser struct {
	dec        *xml.Decoder
	h          cxml.Handler
	lexical    cxml.LexicalHandler
	namespaces map[string][]string
	open       []element
	sawRoot    bool
	attrs      []cxml.Attribute
}

func (p *parser) malformed(format string, args ...any) error {
	line, col := p.dec.InputPos()
	return fmt.Errorf("%w: line %d column %d: %s", ErrMalformed, line, col, fmt.Sprintf(format, args...))
}

func (p *parser) run(ctx context.Context) error {
	if err := p.h.StartDocument(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := p.dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := p.token(tok); err != nil {
			return err
		}
	}
	if len(p.open) > 0 {
		return p.malformed("unexpected end of input inside <%s>", p.open[len(p.open)-1].qName)
	}
	if !p.sawRoot {
		return p.malformed("no root element")
	}
	return p.h.EndDocument()
}

func (p *parser) token(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		return p.startElement(t)
	case xml.EndElement:
		return p.endElement(t)
	case xml.CharData:
		if len(p.open) == 0 {
			return nil
		}
		return p.h.Characters(string(t))
	case xml.Comment:
		if p.lexical == nil {
			return nil
		}
		return p.lexical.Comment(string(t))
	case xml.ProcInst:
		if t.Target == "xml" {
			return nil
		}
		return p.h.ProcessingInstruction(t.Target, string(t.Inst))
	}
	// Directives such as DOCTYPE carry nothing the event model can express.
	return nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func (p *parser) lookup(prefix string) (string, bool) {
	stack := p.namespaces[prefix]
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1], true
}

func (p *parser) startElement(t xml.StartElement) error {
	if len(p.open) == 0 && p.sawRoot {
		return p.malformed("second root element <%s>", qualified(t.Name))
	}
	p.sawRoot = true

	el := element{local: t.Name.Local, qName: qualified(t.Name)}
	for _, a := range t.Attr {
		var prefix string
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		default:
			continue
		}
		p.namespaces[prefix] = append(p.namespaces[prefix], a.Value)
		el.declared = append(el.declared, prefix)
		if err := p.h.StartPrefixMapping(prefix, a.Value); err != nil {
			return err
		}
	}

	if uri, ok := p.lookup(t.Name.Space); ok {
		el.uri = uri
	} else if t.Name.Space != "" {
		return p.malformed("undeclared prefix %q on <%s>", t.Name.Space, el.qName)
	}

	p.attrs = p.attrs[:0]
	for _, a := range t.Attr {
		if a.Name.Local == "xmlns" && a.Name.Space == "" || a.Name.Space == "xmlns" {
			continue
		}
		attr := cxml.Attribute{
			LocalName: a.Name.Local,
			QName:     qualified(a.Name),
			Type:      AttributeType,
			Value:     a.Value,
		}
		if a.Name.Space != "" {
			uri, ok := p.lookup(a.Name.Space)
			if !ok {
				return p.malformed("undeclared prefix %q on attribute %s", a.Name.Space, attr.QName)
			}
			attr.URI = uri
		}
		p.attrs = append(p.attrs, attr)
	}

	p.open = append(p.open, el)
	var attrs []cxml.Attribute
	if len(p.attrs) > 0 {
		attrs = p.attrs
	}
	return p.h.StartElement(el.uri, el.local, el.qName, attrs)
}

func (p *parser) endElement(t xml.EndElement) error {
	qName := qualified(t.Name)
	if len(p.open) == 0 {
		return p.malformed("unexpected </%s>", qName)
	}
	el := p.open[len(p.open)-1]
	if el.qName != qName {
		return p.malformed("element <%s> closed by </%s>", el.qName, qName)
	}
	p.open = p.open[:len(p.open)-1]

	if err := p.h.EndElement(el.uri, el.local, el.qName); err != nil {
		return err
	}
	for i := len(el.declared) - 1; i >= 0; i-- {
		prefix := el.declared[i]
		stack := p.namespaces[prefix]
		p.namespaces[prefix] = stack[:len(stack)-1]
		if err := p.h.EndPrefixMapping(prefix); err != nil {
			return err
		}
	}
	return nil
}

// Package catalog stores XML documents in their CXML form and renders them
// back on demand.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/cxmldb/pkg/cxml"
	"github.com/ssargent/cxmldb/pkg/store"
	"github.com/ssargent/cxmldb/pkg/xmlsax"
)

// Operation names reported to an Observer.
const (
	OpCompile = "compile"
	OpRender  = "render"
	OpEvents  = "events"
	OpRaw     = "raw"
	OpDelete  = "delete"
)

// Observer is told about every catalog operation. size is the CXML buffer
// length involved, or 0 when none was read or written.
type Observer interface {
	ObserveOperation(op string, size int, elapsed time.Duration, err error)
}

// Info describes a stored document.
type Info struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Events  int    `json:"events"`
	Symbols int    `json:"symbols"`
}

// Options configures a Catalog.
type Options struct {
	// Pool reuses encoders and decoders across operations.
	Pool     bool
	Logger   *slog.Logger
	Observer Observer
}

// Catalog glues the XML parser, the CXML codec and a document store.
type Catalog struct {
	store    store.DocumentStore
	pool     *cxml.Pool
	logger   *slog.Logger
	observer Observer
}

// New returns a catalog over s.
func New(s store.DocumentStore, opts Options) *Catalog {
	c := &Catalog{
		store:    s,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Pool {
		c.pool = cxml.NewPool()
	}
	return c
}

func (c *Catalog) getEncoder() *cxml.Encoder {
	if c.pool != nil {
		return c.pool.GetEncoder()
	}
	return cxml.NewEncoder()
}

func (c *Catalog) putEncoder(e *cxml.Encoder) {
	if c.pool != nil {
		c.pool.PutEncoder(e)
	}
}

func (c *Catalog) getDecoder() *cxml.Decoder {
	if c.pool != nil {
		return c.pool.GetDecoder()
	}
	return cxml.NewDecoder()
}

func (c *Catalog) putDecoder(d *cxml.Decoder) {
	if c.pool != nil {
		c.pool.PutDecoder(d)
	}
}

func (c *Catalog) observe(op string, size int, start time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveOperation(op, size, time.Since(start), err)
	}
}

// Compile parses the XML document in r, encodes it and stores the result
// under name, replacing any earlier document.
func (c *Catalog) Compile(ctx context.Context, name string, r io.Reader) (info *Info, err error) {
	start := time.Now()
	size := 0
	defer func() { c.observe(OpCompile, size, start, err) }()

	if err := store.ValidateName(name); err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}

	enc := c.getEncoder()
	defer c.putEncoder(enc)

	if err := xmlsax.ParseContext(ctx, r, enc); err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}

	// The encoder goes back to the pool, so the store gets its own copy.
	buf := append([]byte(nil), enc.Bytes()...)
	size = len(buf)
	if err := c.store.Put(name, buf); err != nil {
		return nil, fmt.Errorf("store %q: %w", name, err)
	}

	info = &Info{
		Name:    name,
		Size:    size,
		Events:  enc.Records(),
		Symbols: enc.Symbols().Len(),
	}
	c.logger.Info("document compiled",
		"name", name,
		"size", info.Size,
		"events", info.Events,
		"symbols", info.Symbols,
		"elapsed", time.Since(start))
	return info, nil
}

// Create compiles r under a freshly generated name.
func (c *Catalog) Create(ctx context.Context, r io.Reader) (*Info, error) {
	return c.Compile(ctx, ksuid.New().String(), r)
}

// Raw returns the stored CXML buffer.
func (c *Catalog) Raw(name string) (buf []byte, err error) {
	start := time.Now()
	defer func() { c.observe(OpRaw, len(buf), start, err) }()

	buf, err = c.store.Get(name)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return buf, nil
}

func (c *Catalog) decode(op, name string, h cxml.Handler) (err error) {
	start := time.Now()
	size := 0
	defer func() { c.observe(op, size, start, err) }()

	buf, err := c.store.Get(name)
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	size = len(buf)

	dec := c.getDecoder()
	defer c.putDecoder(dec)

	if err := dec.Decode(buf, h); err != nil {
		c.logger.Warn("stored document failed to decode", "name", name, "op", op, "error", err)
		return fmt.Errorf("decode %q: %w", name, err)
	}
	return nil
}

// Render writes the document back out as XML text.
func (c *Catalog) Render(name string, w io.Writer, indent bool) error {
	opts := xmlsax.WriterOptions{}
	if indent {
		opts.Indent = "  "
	}
	return c.decode(OpRender, name, xmlsax.NewWriter(w, opts))
}

// Events returns the document's event stream.
func (c *Catalog) Events(name string) ([]cxml.Event, error) {
	rec := &cxml.Recorder{}
	if err := c.decode(OpEvents, name, rec); err != nil {
		return nil, err
	}
	return rec.Events, nil
}

// Delete removes a document.
func (c *Catalog) Delete(name string) (err error) {
	start := time.Now()
	defer func() { c.observe(OpDelete, 0, start, err) }()

	if err := c.store.Delete(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	c.logger.Info("document deleted", "name", name)
	return nil
}

// List returns the stored names with the given prefix, sorted.
func (c *Catalog) List(prefix string) ([]string, error) {
	return c.store.List(prefix)
}

// Stats reports the underlying store's statistics.
func (c *Catalog) Stats() store.Stats {
	return c.store.Stats()
}

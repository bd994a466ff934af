package catalog

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/cxmldb/pkg/cxml"
	"github.com/ssargent/cxmldb/pkg/store"
	"github.com/ssargent/cxmldb/pkg/xmlsax"
)

const orderDoc = `<order id="7"><item sku="a">2</item><item sku="b">1</item><!--rush--></order>`

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
	err []error
}

func (o *recordingObserver) ObserveOperation(op string, size int, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	o.err = append(o.err, err)
}

func newTestCatalog(t *testing.T, pool bool) (*Catalog, store.DocumentStore, *recordingObserver) {
	t.Helper()
	s, err := store.Open(store.Config{Engine: store.EngineLog, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	obs := &recordingObserver{}
	return New(s, Options{Pool: pool, Observer: obs}), s, obs
}

func TestCatalog_CompileAndRender(t *testing.T) {
	for _, pool := range []bool{true, false} {
		name := "pooled"
		if !pool {
			name = "fresh"
		}
		t.Run(name, func(t *testing.T) {
			c, _, _ := newTestCatalog(t, pool)

			info, err := c.Compile(context.Background(), "orders/7", strings.NewReader(orderDoc))
			require.NoError(t, err)
			assert.Equal(t, "orders/7", info.Name)
			// StartDocument, 3 StartElement, 2 Characters, 3 EndElement, Comment, EndDocument
			assert.Equal(t, 11, info.Events)
			assert.Greater(t, info.Symbols, 0)

			raw, err := c.Raw("orders/7")
			require.NoError(t, err)
			assert.Len(t, raw, info.Size)
			assert.True(t, cxml.HasProlog(raw))

			var out bytes.Buffer
			require.NoError(t, c.Render("orders/7", &out, false))
			assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+orderDoc, out.String())
		})
	}
}

func TestCatalog_Events(t *testing.T) {
	c, _, _ := newTestCatalog(t, true)
	_, err := c.Compile(context.Background(), "doc", strings.NewReader(`<r a="1">hi</r>`))
	require.NoError(t, err)

	events, err := c.Events("doc")
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, cxml.StartElement, events[1].Kind)
	assert.Equal(t, "r", events[1].QName)
	require.Len(t, events[1].Attributes, 1)
	assert.Equal(t, "1", events[1].Attributes[0].Value)
	assert.Equal(t, "hi", events[2].Text)
}

func TestCatalog_CreateGeneratesKSUID(t *testing.T) {
	c, _, _ := newTestCatalog(t, true)
	info, err := c.Create(context.Background(), strings.NewReader(`<r/>`))
	require.NoError(t, err)

	_, err = ksuid.Parse(info.Name)
	assert.NoError(t, err)

	names, err := c.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{info.Name}, names)
}

func TestCatalog_CompileErrors(t *testing.T) {
	c, s, obs := newTestCatalog(t, true)

	_, err := c.Compile(context.Background(), "bad", strings.NewReader(`<a><b></a>`))
	assert.ErrorIs(t, err, xmlsax.ErrMalformed)

	_, err = c.Compile(context.Background(), "", strings.NewReader(`<a/>`))
	assert.ErrorIs(t, err, store.ErrInvalidName)

	long := `<r>` + strings.Repeat("x", cxml.MaxTextLen+1) + `</r>`
	_, err = c.Compile(context.Background(), "long", strings.NewReader(long))
	assert.ErrorIs(t, err, cxml.ErrLengthExceeded)

	assert.Equal(t, 0, s.Stats().Documents)
	require.Len(t, obs.ops, 3)
	for i := range obs.ops {
		assert.Equal(t, OpCompile, obs.ops[i])
		assert.Error(t, obs.err[i])
	}
}

func TestCatalog_CorruptStoredBuffer(t *testing.T) {
	c, s, _ := newTestCatalog(t, true)
	require.NoError(t, s.Put("broken", []byte("CXML\x01\x00\x04\x00")))
	require.NoError(t, s.Put("foreign", []byte("<xml/>")))

	_, err := c.Events("broken")
	assert.ErrorIs(t, err, cxml.ErrTruncated)

	err = c.Render("foreign", &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, cxml.ErrFormat)
}

func TestCatalog_NotFoundAndDelete(t *testing.T) {
	c, _, obs := newTestCatalog(t, false)

	_, err := c.Raw("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, c.Render("missing", &bytes.Buffer{}, true), store.ErrNotFound)
	assert.ErrorIs(t, c.Delete("missing"), store.ErrNotFound)

	_, err = c.Compile(context.Background(), "doc", strings.NewReader(`<r/>`))
	require.NoError(t, err)
	require.NoError(t, c.Delete("doc"))
	assert.Equal(t, 0, c.Stats().Documents)

	assert.Equal(t, []string{OpRaw, OpRender, OpDelete, OpCompile, OpDelete}, obs.ops)
}

func TestCatalog_RenderIndented(t *testing.T) {
	c, _, _ := newTestCatalog(t, true)
	_, err := c.Compile(context.Background(), "doc", strings.NewReader(`<r><c/></r>`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, c.Render("doc", &out, true))
	assert.Equal(t, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<r>\n  <c></c>\n</r>", out.String())
}

func TestCatalog_ConcurrentCompile(t *testing.T) {
	c, _, _ := newTestCatalog(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := c.Create(context.Background(), strings.NewReader(orderDoc))
			if !assert.NoError(t, err) {
				return
			}
			var out bytes.Buffer
			if assert.NoError(t, c.Render(info.Name, &out, false)) {
				assert.True(t, strings.HasSuffix(out.String(), orderDoc))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, c.Stats().Documents)
}

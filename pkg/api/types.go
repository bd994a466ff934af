package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/ssargent/cxmldb/pkg/catalog"
	"github.com/ssargent/cxmldb/pkg/cxml"
	"github.com/ssargent/cxmldb/pkg/store"
)

// Media types served by the document endpoints.
const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
	ContentTypeCXML = "application/x-cxml"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ListResponse is the payload of GET /documents.
type ListResponse struct {
	Prefix string   `json:"prefix,omitempty"`
	Names  []string `json:"names"`
	Count  int      `json:"count"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
	// MaxBodyBytes bounds uploaded XML documents. Zero means 32 MiB.
	MaxBodyBytes int64
	// Pool enables encoder/decoder reuse in the catalog StartServer builds.
	Pool   bool
	Logger *slog.Logger
}

// DocumentCatalog is the set of catalog operations the handlers use.
type DocumentCatalog interface {
	Compile(ctx context.Context, name string, r io.Reader) (*catalog.Info, error)
	Create(ctx context.Context, r io.Reader) (*catalog.Info, error)
	Render(name string, w io.Writer, indent bool) error
	Events(name string) ([]cxml.Event, error)
	Raw(name string) ([]byte, error)
	Delete(name string) error
	List(prefix string) ([]string, error)
	Stats() store.Stats
}

var _ DocumentCatalog = (*catalog.Catalog)(nil)

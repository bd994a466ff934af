package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/cxmldb/pkg/cxml"
	"github.com/ssargent/cxmldb/pkg/store"
	"github.com/ssargent/cxmldb/pkg/xmlsax"
)

const defaultMaxBodyBytes = 32 << 20

// Server holds the API server state
type Server struct {
	catalog DocumentCatalog
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(catalog DocumentCatalog, config ServerConfig, metrics *Metrics) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		catalog: catalog,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// statusFor maps catalog errors to HTTP status codes. Codec format errors
// can only come from a stored buffer, so they are reported as unprocessable.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidName),
		errors.Is(err, store.ErrTooLarge),
		errors.Is(err, xmlsax.ErrMalformed),
		errors.Is(err, cxml.ErrLengthExceeded):
		return http.StatusBadRequest
	case errors.Is(err, cxml.ErrFormat), errors.Is(err, cxml.ErrTruncated):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	sendError(w, err.Error(), status)
}

func documentName(r *http.Request) string {
	return chi.URLParam(r, "*")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handlePutDocument compiles the XML body under the name in the path.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	info, err := s.catalog.Compile(r.Context(), documentName(r), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, info)
}

// handleCreateDocument compiles the XML body under a generated name.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	info, err := s.catalog.Create(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, info)
}

// handleGetDocument returns a document as XML (default), the raw CXML
// buffer, or the JSON event list, chosen by ?format=.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	query := r.URL.Query()

	switch format := query.Get("format"); format {
	case "", "xml":
		indent, _ := strconv.ParseBool(query.Get("indent"))
		// Rendered into memory so a decode error can still become a JSON error.
		var buf bytes.Buffer
		if err := s.catalog.Render(name, &buf, indent); err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", ContentTypeXML)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())

	case "cxml":
		raw, err := s.catalog.Raw(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", ContentTypeCXML)
		w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)

	case "events":
		events, err := s.catalog.Events(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sendSuccess(w, events)

	default:
		sendError(w, "Unknown format "+strconv.Quote(format)+": use xml, cxml or events", http.StatusBadRequest)
	}
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	if err := s.catalog.Delete(name); err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, map[string]string{"deleted": name})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	names, err := s.catalog.List(prefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, ListResponse{Prefix: prefix, Names: names, Count: len(names)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.catalog.Stats()
	s.metrics.UpdateStoreStats(stats)
	sendSuccess(w, stats)
}

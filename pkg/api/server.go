// Package api serves the document catalog over HTTP.
//
// All routes under /api/v1 require the X-API-Key header and answer with
// the APIResponse envelope, except document bodies fetched as XML or CXML.
// Prometheus metrics are exposed unauthenticated at /metrics and the
// Swagger description at /swagger/swagger.json.
//
// @title           cxmldb REST API
// @version         1.0.0
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"

	"github.com/ssargent/cxmldb/pkg/catalog"
	"github.com/ssargent/cxmldb/pkg/store"
)

const (
	statsInterval   = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", s.handleSwagger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Get("/documents", s.metrics.InstrumentHandler("GET", "/api/v1/documents", s.handleListDocuments))
		r.Post("/documents", s.metrics.InstrumentHandler("POST", "/api/v1/documents", s.handleCreateDocument))
		r.Put("/documents/*", s.metrics.InstrumentHandler("PUT", "/api/v1/documents/{name}", s.handlePutDocument))
		r.Get("/documents/*", s.metrics.InstrumentHandler("GET", "/api/v1/documents/{name}", s.handleGetDocument))
		r.Delete("/documents/*", s.metrics.InstrumentHandler("DELETE", "/api/v1/documents/{name}", s.handleDeleteDocument))

		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	<title>cxmldb API Documentation</title>
	<link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	<script>
	  window.onload = function() {
	    SwaggerUIBundle({
	      url: '/swagger/swagger.json',
	      dom_id: '#swagger-ui',
	      presets: [
	        SwaggerUIBundle.presets.apis,
	        SwaggerUIBundle.presets.standalone
	      ]
	    });
	  };
	</script>
</body>
</html>`

// handleSwagger serves the Swagger UI page and the registered JSON document
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("failed to render swagger doc", "error", err)
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentTypeJSON)
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}

// startMetricsUpdater refreshes the store gauges until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	s.metrics.UpdateStoreStats(s.catalog.Stats())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UpdateStoreStats(s.catalog.Stats())
		}
	}
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.startMetricsUpdater(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		s.logger.Info("shutting down API server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// StartServer builds the catalog and metrics over docs and serves the API
// on the configured address until ctx is cancelled.
func StartServer(ctx context.Context, docs store.DocumentStore, config ServerConfig) error {
	metrics := NewMetrics()
	cat := catalog.New(docs, catalog.Options{
		Pool:     config.Pool,
		Logger:   config.Logger,
		Observer: metrics,
	})
	server := NewServer(cat, config, metrics)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	SwaggerInfo.Host = l.Addr().String()
	server.logger.Info("starting cxmldb REST API server",
		"addr", l.Addr().String(),
		"metrics", "http://"+l.Addr().String()+"/metrics")
	return server.Serve(ctx, l)
}

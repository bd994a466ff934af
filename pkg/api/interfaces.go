package api

import (
	"context"

	"github.com/ssargent/cxmldb/pkg/store"
)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API over docs until ctx is cancelled
	StartServer(ctx context.Context, docs store.DocumentStore, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}

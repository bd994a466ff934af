// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/cxmldb/pkg/api" //nolint:depguard
	"github.com/ssargent/cxmldb/pkg/store"
)

// StoreOpener opens a document store from its configuration
type StoreOpener func(config store.Config) (store.DocumentStore, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	storeOpener   StoreOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		storeOpener:   store.Open,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenStore opens the document store described by config
func (c *Container) OpenStore(config store.Config) (store.DocumentStore, error) {
	return c.storeOpener(config)
}

// SetStoreOpener allows overriding how stores are opened (for testing)
func (c *Container) SetStoreOpener(opener StoreOpener) {
	c.storeOpener = opener
}

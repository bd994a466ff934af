package store

import (
	"fmt"
	"log/slog"
	"time"
)

// Engine names accepted by Open.
const (
	EngineLog    = "log"
	EnginePebble = "pebble"
)

// Config selects and configures a storage engine.
type Config struct {
	Engine        string
	DataDir       string
	FsyncInterval time.Duration
	Logger        *slog.Logger
}

// Open returns an opened DocumentStore for the configured engine. An empty
// engine name selects the log engine.
func Open(config Config) (DocumentStore, error) {
	switch config.Engine {
	case "", EngineLog:
		s, err := NewLogStore(LogStoreConfig{
			DataDir:       config.DataDir,
			FsyncInterval: config.FsyncInterval,
			Logger:        config.Logger,
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.Open(); err != nil {
			return nil, err
		}
		return s, nil
	case EnginePebble:
		return NewPebbleStore(PebbleStoreConfig{
			DataDir: config.DataDir,
			Sync:    config.FsyncInterval == 0,
			Logger:  config.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown storage engine %q", config.Engine)
	}
}

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/catalog"
	"github.com/ssargent/cxmldb/pkg/config"
	"github.com/ssargent/cxmldb/pkg/di"
	"github.com/ssargent/cxmldb/pkg/logging"
	"github.com/ssargent/cxmldb/pkg/store"
)

var container *di.Container

// SetContainer injects the dependency container used by Execute
func SetContainer(c *di.Container) {
	container = c
}

// app carries the state resolved by the root command for its subcommands.
type app struct {
	container *di.Container

	configPath string
	dataDir    string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// load resolves the configuration: defaults, then the config file if one
// exists, then explicitly set global flags.
func (a *app) load(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.configPath = path
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) openStore() (store.DocumentStore, error) {
	if a.container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	docs, err := a.container.OpenStore(store.Config{
		Engine:        a.cfg.Storage.Engine,
		DataDir:       a.cfg.DataDir,
		FsyncInterval: a.cfg.Storage.FsyncInterval,
		Logger:        a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return docs, nil
}

// withCatalog opens the store, runs fn against a catalog over it and closes
// the store again.
func (a *app) withCatalog(fn func(c *catalog.Catalog) error) (err error) {
	docs, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := docs.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close store: %w", cerr)
		}
	}()

	return fn(catalog.New(docs, catalog.Options{
		Pool:   a.cfg.Codec.Pool,
		Logger: a.logger,
	}))
}

// NewRootCmd builds the command tree around c.
func NewRootCmd(c *di.Container) *cobra.Command {
	a := &app{container: c}

	rootCmd := &cobra.Command{
		Use:   "cxmldb",
		Short: "cxmldb - compact binary XML documents",
		Long: `cxmldb compiles XML documents into CXML, a compact binary event stream
with string interning, and stores them in an embedded document store.

Standalone files can be converted with encode, decode and dump. Stored
documents are managed with put, get, delete and list, or over HTTP with serve.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config file (default: ~/.config/cxmldb/config.yaml)")
	flags.StringVarP(&a.dataDir, "data-dir", "d", "./data", "Data directory for the store")
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newDumpCmd(a),
		newPutCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newServeCmd(a),
		newInitCmd(a),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd(container).Execute(); err != nil {
		os.Exit(1)
	}
}

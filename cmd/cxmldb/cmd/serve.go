package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/cxmldb/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port   int
		bind   string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the cxmldb REST API server over the configured document store.

Every request under /api/v1 must carry the X-API-Key header. The key comes
from the config file (see 'cxmldb init') unless --api-key is given.
Prometheus metrics are served at /metrics.

Examples:
  cxmldb serve
  cxmldb serve --port 9000 --bind 0.0.0.0
  cxmldb serve --api-key mysecretkey --data-dir ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg := a.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind = bind
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Security.APIKey = apiKey
			}
			if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
				return errors.New("no API key configured: run 'cxmldb init' or pass --api-key")
			}
			if a.container == nil {
				return errors.New("dependency container not initialized")
			}

			docs, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := docs.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed to close store: %w", cerr)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting server",
				"bind", cfg.Bind,
				"port", cfg.Port,
				"data_dir", cfg.DataDir,
				"engine", cfg.Storage.Engine)

			starter := a.container.GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, docs, api.ServerConfig{
				Bind:   cfg.Bind,
				Port:   cfg.Port,
				APIKey: cfg.Security.APIKey,
				Pool:   cfg.Codec.Pool,
				Logger: a.logger,
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind server to")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for client authentication")
	return cmd
}

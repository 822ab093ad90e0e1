package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/contextforge/skillet/pkg/api"
	"github.com/contextforge/skillet/pkg/logger"
	"github.com/contextforge/skillet/pkg/watcher"
)

type ServeConfig struct {
	Host  string
	Port  int
	Watch bool
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host: "localhost",
		Port: 8317,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the selection engine over HTTP",
	Long: `Serve exposes the engine as a JSON API for hosts that prefer RPC over
linking: skill listing, selection sessions, and store reloads.

With --watch, skill directories are watched and the store is reloaded when
their contents change; sessions already in flight finish against the
snapshot they started with.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := getServeConfigFromFlags(cmd)
		return runServe(cmd.Context(), config)
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to listen on")
	serveCmd.Flags().Bool("watch", defaults.Watch, "Reload the store when skill directories change")

	rootCmd.AddCommand(serveCmd)
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()
	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	return config
}

func runServe(ctx context.Context, config *ServeConfig) error {
	store, discovery, err := loadStore(ctx)
	if err != nil {
		return err
	}

	eng, err := newEngine(store)
	if err != nil {
		return err
	}

	reload := func(ctx context.Context) error {
		return reloadStore(ctx, store, discovery)
	}

	server, err := api.NewServer(eng, reload, &api.ServerConfig{
		Host: config.Host,
		Port: config.Port,
	})
	if err != nil {
		return err
	}

	if config.Watch {
		w, err := watcher.New(discovery.Dirs(), reload)
		if err != nil {
			logger.G(ctx).WithError(err).Warn("skill watching disabled")
		} else {
			go func() {
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					logger.G(ctx).WithError(err).Error("skill watcher stopped")
				}
			}()
		}
	}

	return server.Start(ctx)
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/config"
	"github.com/jackzampolin/kbase/internal/home"
	"github.com/jackzampolin/kbase/internal/server"
)

var (
	serveHost  string
	servePort  string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kbase server",
	Long: `Start the kbase HTTP server.

This opens the embedded store under the home directory and starts the
worker pool. Runs left pending or processing by an earlier shutdown are
marked cancelled and can be processed again.

The server provides:
  - /health       Basic server health check
  - /ready        Readiness check (includes the store)
  - /api/...      Knowledge base and document API
  - /swagger      API documentation

Configuration is read from --config, ./config.yaml or ~/.kbase/config.yaml
and reloaded when the file changes.

Examples:
  kbase serve                    # Start on default port 8080
  kbase serve --port 3000        # Start on custom port
  kbase serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelInfo
		if serveDebug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		configPath := cfgFile
		if configPath == "" && h.ConfigExists() {
			configPath = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(configPath)
		if err != nil {
			return err
		}
		cfgMgr.SetLogger(logger)
		if f := cfgMgr.ConfigFile(); f != "" {
			logger.Info("config loaded", "file", f)
			cfgMgr.WatchConfig()
		}

		srv, err := server.New(server.Config{
			Home:          h,
			ConfigManager: cfgMgr,
			Host:          serveHost,
			Port:          servePort,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config: 127.0.0.1)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config: 8080)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
}

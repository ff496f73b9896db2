package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ritzau/hubmap/pkg/backend"
	"github.com/ritzau/hubmap/pkg/config"
	"github.com/ritzau/hubmap/pkg/logging"
	"github.com/ritzau/hubmap/pkg/snapshot"
	"github.com/ritzau/hubmap/pkg/transform"
)

var version = "0.3.0"

var log = logging.New("main")

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hubmap",
		Short:        "hubmap - logistics network map",
		Long:         "Draws a hub network, tracks packages across it and lets administrators move hubs.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", false, "Log as JSON")

	root.AddCommand(
		serveCmd(),
		renderCmd(),
		inspectCmd(),
	)
	return root
}

// sourceFlags registers the flags that locate network data
func sourceFlags(f *pflag.FlagSet) {
	f.String("backend", "", "Logistics backend base URL")
	f.Duration("timeout", 10*time.Second, "Backend request timeout")
	f.String("snapshot", "", "Network snapshot file (.json, .yaml)")
}

// viewFlags registers the flags that size the drawing surface
func viewFlags(f *pflag.FlagSet) {
	f.Float64("width", 1280, "Viewport width in pixels")
	f.Float64("height", 800, "Viewport height in pixels")
	f.Float64("padding", transform.DefaultPadding, "Padding around the fitted map")
}

// loadConfig layers config for cmd and applies the log settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSource picks the network source. A snapshot file wins over the backend.
func openSource(cfg *config.Config) (snapshot.Source, *backend.HTTPClient, error) {
	var client *backend.HTTPClient
	if cfg.Backend.URL != "" {
		client = backend.NewHTTPClient(cfg.Backend.URL, cfg.Backend.Timeout)
	}

	if cfg.Snapshot.File != "" {
		fs, err := snapshot.NewFileSource(cfg.Snapshot.File)
		if err != nil {
			return nil, nil, err
		}
		return fs, client, nil
	}
	if client != nil {
		return client, client, nil
	}
	return nil, nil, fmt.Errorf("no network source: pass --snapshot or --backend")
}

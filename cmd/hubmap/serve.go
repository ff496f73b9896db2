package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/hubmap/pkg/config"
	"github.com/ritzau/hubmap/pkg/drag"
	"github.com/ritzau/hubmap/pkg/engine"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/pubsub"
	"github.com/ritzau/hubmap/pkg/snapshot"
	"github.com/ritzau/hubmap/pkg/watcher"
	"github.com/ritzau/hubmap/pkg/web"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the map server",
		Long:  "Loads the network, starts the engine and serves the map UI and API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.Int("port", 8080, "Port for the web server")
	sourceFlags(f)
	viewFlags(f)
	f.Bool("watch", false, "Reload when the snapshot file changes")
	f.Float64("pick-radius", drag.DefaultPickRadius, "Hit radius for grabbing hubs")
	f.String("role", "guest", "Caller role: guest, manager, rider, admin")
	f.Bool("open", false, "Open the browser once the server is up")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	source, client, err := openSource(cfg)
	if err != nil {
		return err
	}
	capability, _ := model.ParseCapability(cfg.Capability)

	// Positions go to the backend when there is one, else back into the file.
	var (
		sink   drag.PositionSink
		lookup engine.Lookup
	)
	if client != nil {
		sink, lookup = client, client
	} else if fs, ok := source.(*snapshot.FileSource); ok {
		sink = fs
	}

	pub := pubsub.NewScenePublisher()
	defer pub.Close()

	state := engine.NewState(engine.Options{
		Viewport:   cfg.Viewport,
		Padding:    cfg.Render.Padding,
		PickRadius: cfg.Render.PickRadius,
		Capability: capability,
	})
	eng := engine.New(state, pub, sink)
	go eng.Run(ctx)

	loader := engine.NewLoader(source, lookup, eng, pub)
	log.Info("serving network", "source", source.Name(), "role", capability, "backend", cfg.Backend.URL)

	// Load in the background so the UI can show progress
	go func() {
		if err := loader.Refresh(ctx, "startup"); err != nil {
			log.Error("initial load failed", "error", err)
		}
	}()

	if cfg.Snapshot.Watch && cfg.Snapshot.File != "" {
		err := watcher.Watch(ctx, cfg.Snapshot.File, 300*time.Millisecond, 2*time.Second, func(ev watcher.ChangeEvent) {
			if err := loader.Refresh(ctx, "file changed"); err != nil {
				log.Warn("reload failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to watch snapshot: %w", err)
		}
	}

	if cfg.Open {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		go func() {
			// Wait a moment for server to start
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}()
	}

	return web.NewServer(eng, loader, pub).Start(ctx, cfg.Port)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/hubmap/pkg/config"
	"github.com/ritzau/hubmap/pkg/engine"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/output"
	"github.com/ritzau/hubmap/pkg/render"
	"github.com/ritzau/hubmap/pkg/snapshot"
)

type renderOptions struct {
	out   string
	track string
}

func renderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the network to a PNG",
		Long:  "Fits the network to the viewport and writes one frame, optionally with a tracked package overlaid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return renderPNG(cmd.Context(), cfg, opts)
		},
	}

	f := cmd.Flags()
	sourceFlags(f)
	viewFlags(f)
	f.StringVarP(&opts.out, "out", "o", "map.png", "Output PNG file")
	f.StringVar(&opts.track, "track", "", "Tracking snapshot file to overlay")
	return cmd
}

func renderPNG(ctx context.Context, cfg *config.Config, opts renderOptions) error {
	source, _, err := openSource(cfg)
	if err != nil {
		return err
	}
	snap, err := source.Network(ctx)
	if err != nil {
		return err
	}

	// The engine loop is not needed for a single frame
	state := engine.NewState(engine.Options{
		Viewport:   cfg.Viewport,
		Padding:    cfg.Render.Padding,
		PickRadius: cfg.Render.PickRadius,
		Capability: model.CapabilityGuest,
	})
	state.Apply(engine.SnapshotArrived{Snapshot: snap})

	if opts.track != "" {
		tracking, err := snapshot.LoadTracking(opts.track)
		if err != nil {
			return err
		}
		if out := state.Apply(engine.TrackingArrived{Snapshot: tracking}); out.Err != nil {
			return fmt.Errorf("cannot track package %d: %w", tracking.ID, out.Err)
		}
		output.PrintTrackingPanel(os.Stdout, state.Session().Panel())
	}

	vp := state.Viewport()
	canvas, err := render.NewRasterCanvas(int(vp.Width), int(vp.Height))
	if err != nil {
		return err
	}
	if err := state.Replay(canvas); err != nil {
		return err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	defer f.Close()
	if err := canvas.EncodePNG(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}

	log.Info("rendered network", "hubs", state.Store().Len(), "out", opts.out, "hash", state.Hash())
	return f.Close()
}

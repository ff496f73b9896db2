package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/hubmap/pkg/graph"
	"github.com/ritzau/hubmap/pkg/output"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source, _, err := openSource(cfg)
			if err != nil {
				return err
			}
			snap, err := source.Network(cmd.Context())
			if err != nil {
				return err
			}

			store := graph.NewStore()
			store.Replace(snap)
			output.PrintNetworkReport(os.Stdout, source.Name(), store)
			return nil
		},
	}
	sourceFlags(cmd.Flags())
	return cmd
}

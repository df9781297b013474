package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the output tree once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			res, err := c.app.Build(cmd.Context(), cfg)
			if res != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "built %d, cached %d, failed %d entries in %s\n",
					len(res.Built), len(res.Cached), len(res.Failed), res.Duration.Round(time.Millisecond))
			}
			return err
		},
	}
}

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild on every change until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			return c.app.Watch(cmd.Context(), cfg)
		},
	}
}

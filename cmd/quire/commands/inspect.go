package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.trai.ch/quire/internal/core/domain"
)

var graphDimensions = []string{
	string(domain.GraphToc),
	string(domain.GraphVars),
	string(domain.GraphEntry),
}

func (c *CLI) newVarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vars <path>",
		Short: "Print the effective variables of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			dump, err := c.app.Vars(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), dump)
			return err
		},
	}
}

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "graph <" + strings.Join(graphDimensions, "|") + ">",
		Short:     "Print a dependency graph recorded by the last build",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: graphDimensions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			g, err := c.app.Graph(cmd.Context(), cfg, domain.GraphDimension(args[0]))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(g)
		},
	}
}

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the output tree and the build state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			return c.app.Clean(cmd.Context(), cfg)
		},
	}
}

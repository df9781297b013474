// Package commands implements the CLI commands for the quire documentation builder.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"go.trai.ch/quire/internal/adapters/config"
	"go.trai.ch/quire/internal/app"
	"go.trai.ch/quire/internal/build"
	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, cfg *domain.Config) (*app.Result, error)
	Watch(ctx context.Context, cfg *domain.Config) error
	Vars(ctx context.Context, cfg *domain.Config, path string) (string, error)
	Graph(ctx context.Context, cfg *domain.Config, dim domain.GraphDimension) (domain.SerializedGraph, error)
	Clean(ctx context.Context, cfg *domain.Config) error
}

type verboser interface {
	SetVerbose(verbose bool)
}

// CLI represents the command line interface for quire.
type CLI struct {
	app     Application
	loader  ports.ConfigLoader
	logger  ports.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a Application, loader ports.ConfigLoader, logger ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "quire",
		Short:         "Build documentation trees from tocs, presets and markdown",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug output")

	c := &CLI{
		app:     a,
		loader:  loader,
		logger:  logger,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if v, ok := c.logger.(verboser); ok {
			v.SetVerbose(verbose)
		}
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVarsCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) config(cmd *cobra.Command) (*domain.Config, error) {
	return c.loader.Load(cmd.Flags())
}

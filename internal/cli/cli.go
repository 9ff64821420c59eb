// Package cli implements the nlpkit command-line interface.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/nlpkit/trainer"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	rootCmd     *cobra.Command
	registry    *trainer.Registry
	client      httpClient
	stdout      io.Writer
	stdin       io.Reader
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{
		version:  version,
		registry: trainer.NewRegistry(),
		client:   newHTTPClient(30 * time.Second),
		stdout:   os.Stdout,
		stdin:    os.Stdin,
	}
	c.setupCommands()
	return c
}

// Registry returns the trainer registry the commands resolve algorithms
// against, so callers can register custom trainers before Run.
func (c *CLI) Registry() *trainer.Registry { return c.registry }

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "nlpkit",
		Short:         "Part-of-speech tagging, chunking and entity finding",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newTrainCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newTagCommand())
	c.rootCmd.AddCommand(c.newTrainersCommand())
	c.rootCmd.AddCommand(c.newDataCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run(ctx context.Context, args ...string) error {
	if args != nil {
		c.rootCmd.SetArgs(args)
	}
	c.rootCmd.SetOut(c.stdout)
	err := c.rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("Command failed", "error", err)
	}
	return err
}

// initApp initializes logging.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

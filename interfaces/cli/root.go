// Package cli implements todoctl, a terminal client for the todo store.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"todolist-backend/pkg/auth"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Owner      string
	Format     string // "text" | "json"
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

type app struct {
	opts    *RootOptions
	factory BackendFactory
}

// NewRootCommand creates the todoctl root command. factory opens the store
// for each subcommand that needs one.
func NewRootCommand(factory BackendFactory) *cobra.Command {
	opts := &RootOptions{}
	a := &app{opts: opts, factory: factory}

	cmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Manage your to-do list from the terminal",
		Long:          "todoctl adds, edits, completes and removes todos in the configured store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Owner == "" {
				return NewExitError(ExitCommandError, "owner must not be empty")
			}
			return nil
		},
	}

	defaultOwner := os.Getenv("TODO_OWNER")
	if defaultOwner == "" {
		defaultOwner = auth.DefaultOwner
	}

	cmd.PersistentFlags().StringVar(&opts.Owner, "owner", defaultOwner, "owner whose todos to manage (env TODO_OWNER)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv("CONFIG_FILE"), "config file (yaml, json or toml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log store activity to stderr")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable styled output")

	cmd.AddCommand(
		newAddCommand(a),
		newListCommand(a),
		newShowCommand(a),
		newEditCommand(a),
		newDoneCommand(a),
		newUndoCommand(a),
		newRemoveCommand(a),
		newStatsCommand(a),
		newSchemaCommand(a),
	)

	return cmd
}

// run opens the backend, hands it to fn and closes it afterwards
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, b *Backend, p *Printer) error) error {
	backend, err := a.factory(cmd.Context(), a.opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	return fn(cmd.Context(), backend, a.printer(cmd))
}

func (a *app) printer(cmd *cobra.Command) *Printer {
	return NewPrinter(cmd.OutOrStdout(), a.opts.Format, !a.opts.NoColor)
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", ErrorMessage(err))
	return GetExitCode(err)
}

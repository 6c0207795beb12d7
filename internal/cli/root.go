package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is an optional YAML file whose settings apply to every flag
	// not given on the command line.
	ConfigPath string

	// TraceDB is the SQLite trace database. Parse commands record their
	// session into it when set; trace reads from it.
	TraceDB string

	// Config is the loaded configuration file, zero if none was given.
	Config Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rxparse CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rxparse",
		Short: "rxparse - parse push-delivered input",
		Long: `Parse input as it arrives with composable grammars.

Built-in grammars read XML, words and binary records described in CUE
layouts. Every session can be recorded to a SQLite trace database and
inspected later; scenario files check grammars against expected output.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.applyConfig(cmd); err != nil {
				return err
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.TraceDB, "trace-db", "", "path to SQLite trace database")

	// Add subcommands
	cmd.AddCommand(NewXMLCommand(opts))
	cmd.AddCommand(NewWordsCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyConfig loads the configuration file and fills every global flag the
// user did not set.
func (o *RootOptions) applyConfig(cmd *cobra.Command) error {
	if o.ConfigPath == "" {
		return nil
	}
	cfg, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	flags := cmd.Flags()
	if !flags.Changed("format") && cfg.Format != "" {
		o.Format = cfg.Format
	}
	if !flags.Changed("trace-db") && cfg.TraceDB != "" {
		o.TraceDB = cfg.TraceDB
	}
	if !flags.Changed("verbose") && cfg.Verbose {
		o.Verbose = true
	}
	return nil
}

// Logger returns the CLI logger: text records on w at Info, or Debug in
// verbose mode.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

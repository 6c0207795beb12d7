package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/transform"

	"github.com/roach88/rxparse/internal/binary"
	"github.com/roach88/rxparse/internal/diag"
	"github.com/roach88/rxparse/internal/engine"
	"github.com/roach88/rxparse/internal/grammars"
	"github.com/roach88/rxparse/internal/layout"
	"github.com/roach88/rxparse/internal/store"
	"github.com/roach88/rxparse/internal/text"
)

// ParseOptions holds flags shared by the parse commands.
type ParseOptions struct {
	*RootOptions
	Strict bool

	// InputEncoding transcodes text input to UTF-8 before parsing.
	InputEncoding string

	// Names selects the XML name comparer.
	Names string

	// Lines makes the words command produce lines instead.
	Lines bool

	// Decode settings.
	Layouts   string
	Record    string
	Type      string
	ByteOrder string
	Encoding  string

	// SessionIDs overrides session ID generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionIDs engine.SessionIDGenerator
}

// ParseMatch is one produced value in command output.
type ParseMatch struct {
	Index  int `json:"index"`
	Length int `json:"length"`
	Value  any `json:"value"`
}

// ParseResult is the output of a parse command.
type ParseResult struct {
	Grammar string       `json:"grammar"`
	Session string       `json:"session"`
	Matches []ParseMatch `json:"matches"`
}

// String renders one match per line.
func (r ParseResult) String() string {
	var b strings.Builder
	for i, m := range r.Matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d+%d] %s", m.Index, m.Length, grammars.Render(m.Value))
	}
	return b.String()
}

// NewXMLCommand creates the xml command.
func NewXMLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "xml <file>",
		Short: "Parse an XML document",
		Long: `Parse an XML document and print each top-level node as it completes.

Use "-" to read from standard input.

Examples:
  rxparse xml feed.xml
  rxparse xml --names ignore-case --strict feed.xml
  curl -s https://example.com/feed | rxparse xml -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyTextConfig(cmd)
			if !cmd.Flags().Changed("names") && opts.Config.Names != "" {
				opts.Names = opts.Config.Names
			}
			names, err := text.ComparerByName(opts.Names)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --names", err)
			}
			return runGrammar(cmd, opts, grammars.XML, args[0], grammars.Config{Names: names}, true)
		},
	}

	addTextFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Names, "names", "ordinal", "name comparison (ordinal|ignore-case)")

	return cmd
}

// NewWordsCommand creates the words command.
func NewWordsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "words <file>",
		Short: "Split text into words",
		Long: `Split text into runs of letters, skipping everything in between.

With --lines the text is split into lines instead.

Examples:
  rxparse words notes.txt
  rxparse words --lines --input-encoding windows-1252 legacy.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyTextConfig(cmd)
			grammar := grammars.Words
			if opts.Lines {
				grammar = grammars.Lines
			}
			return runGrammar(cmd, opts, grammar, args[0], grammars.Config{}, true)
		},
	}

	addTextFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.Lines, "lines", false, "produce lines instead of words")

	return cmd
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode binary records",
		Long: `Decode a binary file as a sequence of records.

Records are described by CUE layouts (--layouts, --record) or given as a
single binary type (--type), e.g. uint32 or fixed_string:8.

Examples:
  rxparse decode --layouts ./layouts --record Header capture.bin
  rxparse decode --type uint16 --byte-order big data.bin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on input the grammar cannot match")
	cmd.Flags().StringVar(&opts.Layouts, "layouts", "", "directory of CUE layout files")
	cmd.Flags().StringVar(&opts.Record, "record", "", "layout to decode")
	cmd.Flags().StringVar(&opts.Type, "type", "", "binary type to decode instead of a layout")
	cmd.Flags().StringVar(&opts.ByteOrder, "byte-order", "little", "byte order (little|big)")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "utf-8", "text encoding of binary strings")

	return cmd
}

func runDecode(cmd *cobra.Command, opts *ParseOptions, path string) error {
	flags := cmd.Flags()
	cfgFile := opts.Config
	if !flags.Changed("strict") && cfgFile.Strict {
		opts.Strict = true
	}
	if !flags.Changed("layouts") && cfgFile.Layouts != "" {
		opts.Layouts = cfgFile.Layouts
	}
	if !flags.Changed("byte-order") && cfgFile.ByteOrder != "" {
		opts.ByteOrder = cfgFile.ByteOrder
	}
	if !flags.Changed("encoding") && cfgFile.Encoding != "" {
		opts.Encoding = cfgFile.Encoding
	}

	if (opts.Record == "") == (opts.Type == "") {
		return NewExitError(ExitCommandError, "give exactly one of --record or --type")
	}

	var cfg grammars.Config
	switch strings.ToLower(opts.ByteOrder) {
	case "little", "le":
		cfg.ByteOrder = binary.LittleEndian
	case "big", "be":
		cfg.ByteOrder = binary.BigEndian
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --byte-order %q: must be little or big", opts.ByteOrder))
	}
	enc, err := binary.EncodingByName(opts.Encoding)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --encoding", err)
	}
	cfg.Encoding = enc

	if opts.Type != "" {
		return runGrammar(cmd, opts, grammars.BinaryPrefix+opts.Type, path, cfg, false)
	}

	if opts.Layouts == "" {
		return NewExitError(ExitCommandError, "--record needs --layouts")
	}
	set, err := layout.Load(opts.Layouts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load layouts", err)
	}
	cfg.Layouts = set
	return runGrammar(cmd, opts, grammars.LayoutPrefix+opts.Record, path, cfg, false)
}

func addTextFlags(cmd *cobra.Command, opts *ParseOptions) {
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on input the grammar cannot match")
	cmd.Flags().StringVar(&opts.InputEncoding, "input-encoding", "", "encoding of the input (default utf-8)")
}

// applyTextConfig fills text flags the user did not set from the
// configuration file.
func (o *ParseOptions) applyTextConfig(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("strict") && o.Config.Strict {
		o.Strict = true
	}
	if !flags.Changed("input-encoding") && o.Config.InputEncoding != "" {
		o.InputEncoding = o.Config.InputEncoding
	}
}

// runGrammar parses the input at path and writes the matches. Text input is
// transcoded from --input-encoding when transcode is set.
func runGrammar(cmd *cobra.Command, opts *ParseOptions, grammar, path string, cfg grammars.Config, transcode bool) error {
	logger := opts.Logger(cmd.ErrOrStderr())

	in, err := openInput(cmd, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer in.Close()

	var r io.Reader = in
	if transcode && opts.InputEncoding != "" {
		enc, err := binary.EncodingByName(opts.InputEncoding)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --input-encoding", err)
		}
		r = transform.NewReader(in, enc.NewDecoder())
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids := opts.SessionIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	session := ids.Generate()

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithStrict(opts.Strict),
		engine.WithSessionIDs(engine.NewFixedGenerator(session)),
	}

	var hooks []diag.Hooks
	if opts.TraceDB != "" {
		st, err := store.Open(opts.TraceDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing trace database", "error", closeErr)
			}
		}()
		// The finish event of a cancelled session is still recorded.
		hooks = append(hooks, st.Recorder(context.WithoutCancel(ctx), logger))
	}
	if opts.Verbose {
		hooks = append(hooks, diag.Logger(logger, false))
	}
	if len(hooks) > 0 {
		engineOpts = append(engineOpts, engine.WithHooks(diag.Multi(hooks...)))
	}

	logger.Debug("parsing", "grammar", grammar, "input", path, "session", session)
	matches, runErr := grammars.Run(ctx, grammar, r, cfg, engineOpts...)
	if runErr != nil && engine.ErrorCode(runErr) == "" && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitCommandError, "failed to parse", runErr)
	}

	result := ParseResult{
		Grammar: grammar,
		Session: session,
		Matches: make([]ParseMatch, len(matches)),
	}
	for i, m := range matches {
		result.Matches[i] = ParseMatch{Index: m.Index, Length: m.Length, Value: outputValue(m.Value)}
	}

	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if runErr == nil {
		return f.Success(result)
	}

	code := string(engine.ErrorCode(runErr))
	if code == "" {
		code = "CANCELLED"
	}
	if err := f.Failure(result, code, runErr.Error()); err != nil {
		return err
	}
	return WrapExitError(ExitFailure, "parse failed", runErr)
}

// openInput opens path for reading; "-" is standard input.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

// outputValue keeps values JSON can encode faithfully and renders the rest.
func outputValue(v any) any {
	switch v.(type) {
	case string, bool, layout.Record,
		int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return v
	}
	return grammars.Render(v)
}

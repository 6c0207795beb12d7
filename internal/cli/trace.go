package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rxparse/internal/diag"
	"github.com/roach88/rxparse/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Session string
	Kinds   []string // optional - filter to specific event kinds
	Delete  bool
}

// TraceEvent represents a single event in the session timeline.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	Length int    `json:"length,omitempty"`
	Value  string `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TraceResult holds the trace of one session.
type TraceResult struct {
	Session  SessionSummary `json:"session"`
	Timeline []TraceEvent   `json:"timeline"`
}

// SessionSummary describes a recorded session.
type SessionSummary struct {
	ID         string `json:"id"`
	Grammar    string `json:"grammar"`
	Status     string `json:"status"`
	FinalIndex int    `json:"final_index"`
	Consumed   int    `json:"consumed"`
	Produced   int    `json:"produced"`
	Error      string `json:"error,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded parse sessions",
		Long: `Inspect the parse sessions recorded in a trace database.

Without --session, lists every recorded session. With --session, shows
the session's timeline: the compile event, every consumed element, every
produced value and the finish event.

Examples:
  rxparse --trace-db ./traces.db trace
  rxparse --trace-db ./traces.db trace --session 0190b7c2-...
  rxparse --trace-db ./traces.db trace --session 0190b7c2-... --kind produce --format json
  rxparse --trace-db ./traces.db trace --session 0190b7c2-... --delete`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session to show")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "filter to event kinds (compile|consume|produce|finish)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the session instead of showing it")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	if opts.TraceDB == "" {
		return NewExitError(ExitCommandError, "--trace-db is required")
	}
	if opts.Delete && opts.Session == "" {
		return NewExitError(ExitCommandError, "--delete needs --session")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.TraceDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Session == "" {
		return listSessions(ctx, st, f)
	}
	if opts.Delete {
		return deleteSession(ctx, st, f, opts)
	}

	kinds := make([]diag.Kind, 0, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kind := diag.Kind(strings.ToLower(k))
		switch kind {
		case diag.KindCompile, diag.KindConsume, diag.KindProduce, diag.KindFinish:
			kinds = append(kinds, kind)
		default:
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --kind %q", k))
		}
	}

	session, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, sql.ErrNoRows) {
		if err := f.Error("SESSION_NOT_FOUND", fmt.Sprintf("no session %s in %s", opts.Session, opts.TraceDB), nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	events, err := st.ReadEvents(ctx, opts.Session, kinds...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Session:  summarize(session),
		Timeline: buildTimeline(events),
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	return outputTraceText(f.Writer, result, opts.Verbose)
}

func listSessions(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	summaries := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = summarize(s)
	}

	if f.Format == "json" {
		return f.Success(summaries)
	}

	w := f.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %-12s %-9s consumed=%d produced=%d\n",
			s.ID, s.Grammar, s.Status, s.Consumed, s.Produced)
	}
	return nil
}

func deleteSession(ctx context.Context, st *store.Store, f *OutputFormatter, opts *TraceOptions) error {
	found, err := st.DeleteSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to delete session", err)
	}
	if !found {
		if err := f.Error("SESSION_NOT_FOUND", fmt.Sprintf("no session %s in %s", opts.Session, opts.TraceDB), nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if f.Format == "json" {
		return f.Success(map[string]string{"deleted": opts.Session})
	}
	fmt.Fprintf(f.Writer, "Deleted session %s\n", opts.Session)
	return nil
}

func summarize(s store.Session) SessionSummary {
	return SessionSummary{
		ID:         s.ID,
		Grammar:    s.Grammar,
		Status:     s.Status,
		FinalIndex: s.FinalIndex,
		Consumed:   s.Consumed,
		Produced:   s.Produced,
		Error:      s.Error,
	}
}

// buildTimeline converts store events to timeline events.
func buildTimeline(events []store.Event) []TraceEvent {
	timeline := make([]TraceEvent, len(events))
	for i, ev := range events {
		timeline[i] = TraceEvent{
			Seq:    ev.Seq,
			Kind:   string(ev.Kind),
			Index:  ev.Index,
			Length: ev.Length,
			Value:  ev.Value,
			Error:  ev.Error,
		}
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	s := result.Session
	fmt.Fprintf(w, "Trace for Session: %s\n", s.ID)
	fmt.Fprintf(w, "Grammar: %s\n", s.Grammar)
	fmt.Fprintf(w, "Status: %s\n", s.Status)
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		formatTimelineEvent(w, ev, verbose)
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Final Index: %d\n", s.FinalIndex)
	fmt.Fprintf(w, "  Consumed:    %d\n", s.Consumed)
	fmt.Fprintf(w, "  Produced:    %d\n", s.Produced)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
// Consumed elements are only shown in verbose mode.
func formatTimelineEvent(w io.Writer, ev TraceEvent, verbose bool) {
	switch diag.Kind(ev.Kind) {
	case diag.KindConsume:
		if verbose {
			fmt.Fprintf(w, "  [%d] CONSUME @%d %s\n", ev.Seq, ev.Index, ev.Value)
		}
	case diag.KindProduce:
		fmt.Fprintf(w, "  [%d] PRODUCE @%d+%d %s\n", ev.Seq, ev.Index, ev.Length, ev.Value)
	case diag.KindFinish:
		if ev.Error != "" {
			fmt.Fprintf(w, "  [%d] FINISH @%d error: %s\n", ev.Seq, ev.Index, ev.Error)
			return
		}
		fmt.Fprintf(w, "  [%d] FINISH @%d\n", ev.Seq, ev.Index)
	default:
		fmt.Fprintf(w, "  [%d] %s\n", ev.Seq, strings.ToUpper(ev.Kind))
	}
}

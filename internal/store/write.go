package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/rxparse/internal/diag"
)

// Session status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Recorder writes the diagnostics events of parse sessions to a Store.
// It implements diag.Hooks.
//
// A failed write is logged and dropped. Tracing never fails a parse.
type Recorder struct {
	store  *Store
	ctx    context.Context
	logger *slog.Logger
}

// Recorder returns hooks that persist every event they observe. Writes use
// ctx; once it is done, events are dropped with a warning.
func (s *Store) Recorder(ctx context.Context, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, ctx: ctx, logger: logger}
}

func (r *Recorder) Observe(ev diag.Event) {
	if err := r.store.WriteEvent(r.ctx, ev); err != nil {
		r.logger.Warn("trace write failed",
			"session", ev.Session,
			"kind", string(ev.Kind),
			"seq", ev.Seq,
			"error", err,
		)
	}
}

// WriteEvent stores one event. The session row is created by the first
// event that names it and closed by its finish event.
//
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same event twice
// is silently ignored.
func (s *Store) WriteEvent(ctx context.Context, ev diag.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write event: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, grammar, status, start_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ev.Session, ev.Grammar, StatusRunning, ev.Seq)
	if err != nil {
		return fmt.Errorf("write event: session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, kind, idx, length, value, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		ev.Session,
		ev.Seq,
		string(ev.Kind),
		ev.Index,
		ev.Length,
		marshalValue(ev.Value),
		marshalError(ev.Err),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	if ev.Kind == diag.KindFinish {
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET status = ?, end_seq = ?, final_index = ?, error = ?
			WHERE id = ?
		`, finishStatus(ev.Err), ev.Seq, ev.Index, marshalError(ev.Err), ev.Session)
		if err != nil {
			return fmt.Errorf("write event: finish session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write event: commit: %w", err)
	}
	return nil
}

func finishStatus(err error) string {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, context.Canceled):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rxparse/internal/diag"
)

// Session summarizes one recorded parse session.
type Session struct {
	ID      string
	Grammar string
	Status  string

	// StartSeq and EndSeq bound the session's events. EndSeq is zero while
	// the session is running.
	StartSeq int64
	EndSeq   int64

	// FinalIndex is the source position the session finished at.
	FinalIndex int
	Error      string

	Consumed int
	Produced int
}

// Event is one stored diagnostics event. Value holds the JSON encoding of
// the event's value.
type Event struct {
	Session string
	Seq     int64
	Kind    diag.Kind
	Index   int
	Length  int
	Value   string
	Error   string
}

const sessionColumns = `
	s.id, s.grammar, s.status, s.start_seq, s.end_seq, s.final_index, s.error,
	(SELECT COUNT(*) FROM events e WHERE e.session_id = s.id AND e.kind = 'consume'),
	(SELECT COUNT(*) FROM events e WHERE e.session_id = s.id AND e.kind = 'produce')
`

// ListSessions returns every recorded session in the order they started.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions s
		ORDER BY s.rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// ReadSession retrieves a single session by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE s.id = ?
	`, id)

	return scanSession(row)
}

// ReadEvents returns the events of a session ordered by seq. When kinds are
// given only events of those kinds are returned.
//
// Returns an empty slice (not nil) if no events match.
func (s *Store) ReadEvents(ctx context.Context, session string, kinds ...diag.Kind) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, kind, idx, length, value, error
		FROM events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	keep := make(map[diag.Kind]bool, len(kinds))
	for _, k := range kinds {
		keep[k] = true
	}

	events := []Event{}
	for rows.Next() {
		var (
			ev          Event
			kind        string
			value, errs sql.NullString
		)
		if err := rows.Scan(&ev.Session, &ev.Seq, &kind, &ev.Index, &ev.Length, &value, &errs); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = diag.Kind(kind)
		if len(keep) > 0 && !keep[ev.Kind] {
			continue
		}
		ev.Value = value.String
		ev.Error = errs.String
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess       Session
		endSeq     sql.NullInt64
		finalIndex sql.NullInt64
		errText    sql.NullString
	)
	err := row.Scan(
		&sess.ID,
		&sess.Grammar,
		&sess.Status,
		&sess.StartSeq,
		&endSeq,
		&finalIndex,
		&errText,
		&sess.Consumed,
		&sess.Produced,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	sess.EndSeq = endSeq.Int64
	sess.FinalIndex = int(finalIndex.Int64)
	sess.Error = errText.String
	return sess, nil
}

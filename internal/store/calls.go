package store

import (
	"context"
	"fmt"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// AppendCall records a reducer call in the same transaction as its effects.
// Seq must be unique; a duplicate seq is an error, never silently ignored.
func (t *Tables) AppendCall(call model.ReducerCall) error {
	argsJSON, err := marshalArgs(call.Args)
	if err != nil {
		return fmt.Errorf("append call: %w", err)
	}
	resultJSON, err := marshalResult(call.Result)
	if err != nil {
		return fmt.Errorf("append call: %w", err)
	}

	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO reducer_calls (seq, reducer, args, result, called_at)
		VALUES (?, ?, ?, ?, ?)
	`, call.Seq, call.Reducer, argsJSON, resultJSON, call.CalledAt)
	if err != nil {
		return fmt.Errorf("append call: %w", err)
	}
	return nil
}

// NextSeq returns the seq the next appended call must use. It reads the log
// inside the transaction, so writers in other processes sharing the database
// file never hand out the same seq twice.
func (t *Tables) NextSeq() (int64, error) {
	var seq int64
	err := t.tx.QueryRowContext(t.ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM reducer_calls`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// ReadReducerCalls returns logged reducer calls with seq greater than afterSeq,
// ordered by seq ascending. A limit of zero or less means no limit.
//
// Returns an empty slice (not nil) if no records match.
func (s *Store) ReadReducerCalls(ctx context.Context, afterSeq int64, limit int) ([]model.ReducerCall, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means unbounded
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, reducer, args, result, called_at
		FROM reducer_calls
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query reducer calls: %w", err)
	}
	defer rows.Close()

	calls := []model.ReducerCall{}
	for rows.Next() {
		var (
			call                 model.ReducerCall
			argsJSON, resultJSON string
		)
		if err := rows.Scan(&call.Seq, &call.Reducer, &argsJSON, &resultJSON, &call.CalledAt); err != nil {
			return nil, fmt.Errorf("scan reducer call: %w", err)
		}
		if call.Args, err = unmarshalArgs(argsJSON); err != nil {
			return nil, fmt.Errorf("reducer call %d: %w", call.Seq, err)
		}
		if call.Result, err = unmarshalResult(resultJSON); err != nil {
			return nil, fmt.Errorf("reducer call %d: %w", call.Seq, err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reducer calls: %w", err)
	}
	return calls, nil
}

// LastSeq returns the highest logged seq, or 0 for an empty log.
// Used to resume the engine's logical clock after reopening a database.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM reducer_calls`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

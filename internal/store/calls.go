package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
)

// Commit applies a call's storage writes and appends its journal row in one
// SQL transaction. Either both land or neither does.
func (s *Store) Commit(ctx context.Context, writes []storage.Write, call ir.Call) error {
	if call.Kind == ir.CallQuery {
		return fmt.Errorf("commit %s: queries are never journaled", call.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit %s: begin: %w", call.ID, err)
	}
	defer tx.Rollback()

	if err := applyWrites(ctx, tx, writes); err != nil {
		return fmt.Errorf("commit %s: %w", call.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO calls (id, seq, kind, caller, message, selector, input, output, writes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		call.ID,
		call.Seq,
		string(call.Kind),
		call.Caller,
		call.Message,
		call.Selector,
		nonNil(call.Input),
		nonNil(call.Output),
		call.Writes,
	)
	if err != nil {
		return fmt.Errorf("commit %s: journal: %w", call.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", call.ID, err)
	}
	return nil
}

// ReadCalls returns the whole journal ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ReadCalls(ctx context.Context) ([]ir.Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, kind, caller, message, selector, input, output, writes
		FROM calls
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []ir.Call{}
	for rows.Next() {
		var (
			c    ir.Call
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Seq, &kind, &c.Caller, &c.Message, &c.Selector, &c.Input, &c.Output, &c.Writes); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Kind = ir.CallKind(kind)
		c.Input = nonNil(c.Input)
		c.Output = nonNil(c.Output)
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// LastSeq returns the highest journaled seq, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM calls`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func nonNil(p []byte) []byte {
	if p == nil {
		return []byte{}
	}
	return p
}

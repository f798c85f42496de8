package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/advcases/internal/storage"
)

// Get implements storage.Backend.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cells WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cell %x: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// Insert implements storage.Backend.
func (s *Store) Insert(ctx context.Context, key, value []byte) error {
	return s.Apply(ctx, []storage.Write{{Key: key, Value: value}})
}

// Remove implements storage.Backend.
func (s *Store) Remove(ctx context.Context, key []byte) error {
	return s.Apply(ctx, []storage.Write{{Key: key, Delete: true}})
}

// Apply performs writes in one SQL transaction without journaling them.
func (s *Store) Apply(ctx context.Context, writes []storage.Write) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply: begin: %w", err)
	}
	defer tx.Rollback()

	if err := applyWrites(ctx, tx, writes); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}
	return nil
}

func applyWrites(ctx context.Context, tx *sql.Tx, writes []storage.Write) error {
	for _, w := range writes {
		if w.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE key = ?`, w.Key); err != nil {
				return fmt.Errorf("remove cell %x: %w", w.Key, err)
			}
			continue
		}
		value := w.Value
		if value == nil {
			value = []byte{}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cells (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, w.Key, value)
		if err != nil {
			return fmt.Errorf("insert cell %x: %w", w.Key, err)
		}
	}
	return nil
}

// Cells implements storage.Lister. Cells come back in key byte order.
func (s *Store) Cells(ctx context.Context) ([]storage.Cell, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM cells ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	cells := []storage.Cell{}
	for rows.Next() {
		var c storage.Cell
		if err := rows.Scan(&c.Key, &c.Value); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}
	return cells, nil
}

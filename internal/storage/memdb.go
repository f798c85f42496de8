package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const (
	cellTable = "cells"
	cellPK    = "id"
)

// memCell is the row type stored in memdb. Keys are hex so that the string
// index orders them the same way as the raw bytes.
type memCell struct {
	Key   string
	Value []byte
}

func memSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			cellTable: {
				Name: cellTable,
				Indexes: map[string]*memdb.IndexSchema{
					cellPK: {
						Name:    cellPK,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// MemBackend is an in-memory Backend. It holds scratch state for replays and
// tests; nothing survives the process.
type MemBackend struct {
	db *memdb.MemDB
}

// NewMemBackend returns an empty in-memory backend.
func NewMemBackend() (*MemBackend, error) {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemBackend{db: db}, nil
}

// Get implements Backend.
func (m *MemBackend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(cellTable, cellPK, hex.EncodeToString(key))
	if err != nil {
		return nil, false, fmt.Errorf("memdb get %x: %w", key, err)
	}
	if raw == nil {
		return nil, false, nil
	}
	return bytes.Clone(raw.(*memCell).Value), true, nil
}

// Insert implements Backend.
func (m *MemBackend) Insert(ctx context.Context, key, value []byte) error {
	return m.Apply(ctx, []Write{{Key: key, Value: value}})
}

// Remove implements Backend.
func (m *MemBackend) Remove(ctx context.Context, key []byte) error {
	return m.Apply(ctx, []Write{{Key: key, Delete: true}})
}

// Apply performs writes in one memdb transaction: all of them or none.
func (m *MemBackend) Apply(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	for _, w := range writes {
		k := hex.EncodeToString(w.Key)
		if w.Delete {
			if _, err := txn.DeleteAll(cellTable, cellPK, k); err != nil {
				return fmt.Errorf("memdb remove %s: %w", k, err)
			}
			continue
		}
		if err := txn.Insert(cellTable, &memCell{Key: k, Value: bytes.Clone(w.Value)}); err != nil {
			return fmt.Errorf("memdb insert %s: %w", k, err)
		}
	}
	txn.Commit()
	return nil
}

// Cells implements Lister.
func (m *MemBackend) Cells(_ context.Context) ([]Cell, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(cellTable, cellPK)
	if err != nil {
		return nil, fmt.Errorf("memdb list: %w", err)
	}
	var out []Cell
	for raw := it.Next(); raw != nil; raw = it.Next() {
		c := raw.(*memCell)
		key, err := hex.DecodeString(c.Key)
		if err != nil {
			return nil, fmt.Errorf("memdb list: %w", err)
		}
		out = append(out, Cell{Key: key, Value: bytes.Clone(c.Value)})
	}
	return out, nil
}

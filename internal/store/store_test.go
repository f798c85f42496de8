package store

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestCall(id string, seq int64, message string) ir.Call {
	return ir.Call{
		ID:       id,
		Seq:      seq,
		Kind:     ir.CallTransact,
		Caller:   "0x01",
		Message:  message,
		Selector: "0x4b050ea9",
		Input:    []byte{0x01},
		Output:   []byte{},
		Writes:   1,
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"cells", "calls"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := OpenWith("postgres", ":memory:")
	if err == nil {
		t.Error("expected error for unknown driver, got nil")
	}
}

func TestOpenWith_PureDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pure.db")
	s, err := OpenWith(DriverPure, path)
	if err != nil {
		t.Fatalf("OpenWith(%s) failed: %v", DriverPure, err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Insert(ctx, []byte{1, 0, 0, 0}, []byte{7, 0, 0, 0}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	v, ok, err := s.Get(ctx, []byte{1, 0, 0, 0})
	if err != nil || !ok || !bytes.Equal(v, []byte{7, 0, 0, 0}) {
		t.Errorf("Get() = %x, %v, %v", v, ok, err)
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Insert(ctx, []byte{1}, []byte{2}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, []byte{1}); !ok {
		t.Error("in-memory cell not visible on the same store")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"foreign_keys": "1",
		"user_version": "1",
	} {
		if err := s.verifyPragma(ctx, name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestSchema_CallsColumnsAndIndexes(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "calls")
	for _, col := range []string{"id", "seq", "kind", "caller", "message", "selector", "input", "output", "writes"} {
		if !contains(columns, col) {
			t.Errorf("calls table missing column %q", col)
		}
	}

	indexes := getTableIndexes(t, s.db, "calls")
	for _, idx := range []string{"idx_calls_seq", "idx_calls_message"} {
		if !contains(indexes, idx) {
			t.Errorf("calls table missing index %q", idx)
		}
	}
}

func TestCells_GetInsertRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, []byte{9}); err != nil || ok {
		t.Fatalf("Get(absent) = %v, %v", ok, err)
	}

	if err := s.Insert(ctx, []byte{9}, []byte{1}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if err := s.Insert(ctx, []byte{9}, []byte{2}); err != nil {
		t.Fatalf("Insert() overwrite failed: %v", err)
	}
	v, ok, err := s.Get(ctx, []byte{9})
	if err != nil || !ok || !bytes.Equal(v, []byte{2}) {
		t.Errorf("Get() = %x, %v, %v; want 02", v, ok, err)
	}

	if err := s.Remove(ctx, []byte{9}); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, []byte{9}); ok {
		t.Error("cell still present after Remove()")
	}
	if err := s.Remove(ctx, []byte{9}); err != nil {
		t.Errorf("Remove(absent) should not error: %v", err)
	}
}

func TestCells_KeyOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Apply(ctx, []storage.Write{
		{Key: []byte{0x02}, Value: []byte{2}},
		{Key: []byte{0x00, 0x10}, Value: []byte{1}},
		{Key: []byte{0x00, 0x02}, Value: []byte{0}},
	})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	cells, err := s.Cells(ctx)
	if err != nil {
		t.Fatalf("Cells() failed: %v", err)
	}
	want := [][]byte{{0x00, 0x02}, {0x00, 0x10}, {0x02}}
	if len(cells) != len(want) {
		t.Fatalf("Cells() returned %d cells, want %d", len(cells), len(want))
	}
	for i := range want {
		if !bytes.Equal(cells[i].Key, want[i]) {
			t.Errorf("cells[%d].Key = %x, want %x", i, cells[i].Key, want[i])
		}
	}
}

func TestCommit_WritesAndJournalTogether(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	writes := []storage.Write{{Key: []byte{1, 0, 0, 0}, Value: []byte{1, 0, 0, 0}}}
	if err := s.Commit(ctx, writes, createTestCall("call-1", 1, "add")); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	calls, err := s.ReadCalls(ctx)
	if err != nil {
		t.Fatalf("ReadCalls() failed: %v", err)
	}
	if len(calls) != 1 || calls[0].ID != "call-1" || calls[0].Kind != ir.CallTransact {
		t.Fatalf("ReadCalls() = %+v", calls)
	}
	if !bytes.Equal(calls[0].Input, []byte{0x01}) || calls[0].Output == nil {
		t.Errorf("journal bytes = %x / %x", calls[0].Input, calls[0].Output)
	}

	if _, ok, _ := s.Get(ctx, []byte{1, 0, 0, 0}); !ok {
		t.Error("committed cell missing")
	}
}

func TestCommit_RollsBackOnJournalConflict(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Commit(ctx, nil, createTestCall("call-1", 1, "add")); err != nil {
		t.Fatalf("first Commit() failed: %v", err)
	}

	// Same seq violates the unique index, so the cell write must not land.
	writes := []storage.Write{{Key: []byte{5}, Value: []byte{5}}}
	if err := s.Commit(ctx, writes, createTestCall("call-2", 1, "add")); err == nil {
		t.Fatal("expected Commit() with duplicate seq to fail")
	}
	if _, ok, _ := s.Get(ctx, []byte{5}); ok {
		t.Error("cell written despite failed journal insert")
	}
}

func TestCommit_RejectsQuery(t *testing.T) {
	s := createTestStore(t)
	c := createTestCall("q", 1, "get_user")
	c.Kind = ir.CallQuery
	if err := s.Commit(context.Background(), nil, c); err == nil {
		t.Error("expected Commit() of a query to fail")
	}
}

func TestReadCalls_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, c := range []ir.Call{
		createTestCall("c", 3, "add"),
		createTestCall("a", 1, "add"),
		createTestCall("b", 2, "add"),
	} {
		if err := s.Commit(ctx, nil, c); err != nil {
			t.Fatalf("Commit(%s) failed: %v", c.ID, err)
		}
	}

	calls, err := s.ReadCalls(ctx)
	if err != nil {
		t.Fatalf("ReadCalls() failed: %v", err)
	}
	var ids []string
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("ReadCalls() order = %v, want [a b c]", ids)
	}

	last, err := s.LastSeq(ctx)
	if err != nil || last != 3 {
		t.Errorf("LastSeq() = %d, %v; want 3", last, err)
	}
}

func TestReadCalls_EmptyJournal(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	calls, err := s.ReadCalls(ctx)
	if err != nil {
		t.Fatalf("ReadCalls() failed: %v", err)
	}
	if calls == nil || len(calls) != 0 {
		t.Errorf("ReadCalls() = %v, want empty non-nil slice", calls)
	}
	if last, _ := s.LastSeq(ctx); last != 0 {
		t.Errorf("LastSeq() = %d, want 0", last)
	}
}

func TestStore_IsStorageBackend(t *testing.T) {
	var _ storage.Lister = createTestStore(t)
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

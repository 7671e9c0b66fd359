package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

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

	tables := []string{"categories", "data_points", "reducer_calls"}
	for _, table := range tables {
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

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	mustAtomic(t, s1, func(tb *Tables) error {
		return tb.Categories().Upsert("Revenue", "money", "#000000")
	})
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	cats, _, err := s2.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Revenue" {
		t.Errorf("categories after reopen = %+v, want [Revenue]", cats)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	mustAtomic(t, s, func(tb *Tables) error {
		return tb.Categories().Upsert("Users", "", "")
	})

	cats, _, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(cats) != 1 {
		t.Errorf("got %d categories, want 1", len(cats))
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version failed: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error opening database with newer schema version")
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"}, // ON
		{"user_version", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

// Schema table tests

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		table    string
		expected []string
	}{
		{"categories", []string{"name", "description", "color"}},
		{"data_points", []string{"id", "timestamp", "category", "value"}},
		{"reducer_calls", []string{"seq", "reducer", "args", "result", "called_at"}},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			columns := getTableColumns(t, s.db, tt.table)
			for _, col := range tt.expected {
				if !contains(columns, col) {
					t.Errorf("%s table missing column %q", tt.table, col)
				}
			}
		})
	}
}

func TestSchema_CategoryIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_data_points_category'",
	).Scan(&name)
	if err != nil {
		t.Errorf("idx_data_points_category not found: %v", err)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"analytics.db", "analytics.db?_txlock=immediate"},
		{":memory:", ":memory:?_txlock=immediate"},
		{"file:test.db?cache=shared", "file:test.db?cache=shared&_txlock=immediate"},
	}
	for _, tt := range tests {
		if got := dsn(tt.path); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// TestAtomic_ConcurrentWritersSharedFile runs read-then-write transactions
// from two stores on one file. None may fail with "database is locked".
func TestAtomic_ConcurrentWritersSharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	stores := make([]*Store, 2)
	for i := range stores {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() %d failed: %v", i, err)
		}
		defer s.Close()
		stores[i] = s
	}

	const perStore = 200
	ctx := context.Background()
	errs := make(chan error, len(stores)*perStore)
	var wg sync.WaitGroup
	for i, s := range stores {
		wg.Add(1)
		go func(i int, s *Store) {
			defer wg.Done()
			for j := 0; j < perStore; j++ {
				err := s.Atomic(ctx, func(tb *Tables) error {
					name := fmt.Sprintf("c%d", i)
					if _, _, err := tb.Categories().Get(name); err != nil {
						return err
					}
					if err := tb.Categories().Upsert(name, "", "#000000"); err != nil {
						return err
					}
					id := uint64(i*perStore + j + 1)
					return tb.DataPoints().Insert(createTestPoint(id, name, float64(j)))
				})
				if err != nil {
					errs <- err
				}
			}
		}(i, s)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Atomic() failed: %v", err)
	}

	_, points, err := stores[0].Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(points) != len(stores)*perStore {
		t.Errorf("got %d data points, want %d", len(points), len(stores)*perStore)
	}
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLiteStore_CreatesDatabase(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "subdir", "heroes.db")

	store, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewSQLiteStore("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewSQLiteStore_UnknownMatchMode(t *testing.T) {
	t.Parallel()

	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "h.db"), &Options{Match: "regex"})
	if err == nil {
		t.Fatal("expected error for unknown match mode")
	}
}

func TestSQLiteStore_Migration_CreatesSchema(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)

	for _, table := range []string{"schema_meta", "heroes"} {
		_, err := store.DB().ExecContext(context.Background(), "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestSQLiteStore_WALMode_Enabled(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)

	var journalMode string
	if err := store.DB().QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to check journal mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Journal mode = %s, want wal", journalMode)
	}
}

func TestSQLiteStore_Seed(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)

	heroes, err := store.ListHeroes(context.Background())
	if err != nil {
		t.Fatalf("ListHeroes() error = %v", err)
	}
	if len(heroes) != len(SeedHeroes) {
		t.Fatalf("len(heroes) = %d, want %d", len(heroes), len(SeedHeroes))
	}
	if heroes[0].ID != 12 || heroes[0].Name != "Dr. Nice" {
		t.Errorf("first hero = %+v, want 12 Dr. Nice", heroes[0])
	}
}

func TestSQLiteStore_NoSeed(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &Options{Match: MatchContains})

	heroes, err := store.ListHeroes(context.Background())
	if err != nil {
		t.Fatalf("ListHeroes() error = %v", err)
	}
	if len(heroes) != 0 {
		t.Errorf("len(heroes) = %d, want 0", len(heroes))
	}
}

func TestSQLiteStore_ReopenDoesNotReseed(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "heroes.db")
	store, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.DeleteHero(context.Background(), 12); err != nil {
		t.Fatalf("DeleteHero() error = %v", err)
	}
	store.Close()

	store, err = NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	heroes, err := store.ListHeroes(context.Background())
	if err != nil {
		t.Fatalf("ListHeroes() error = %v", err)
	}
	if len(heroes) != len(SeedHeroes)-1 {
		t.Errorf("len(heroes) = %d, want %d", len(heroes), len(SeedHeroes)-1)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	t.Parallel()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "h.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	_ = store.Close()
}

func newTestStore(t *testing.T, opts *Options) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), opts)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSQLitePersister(t *testing.T) {
	ctx := context.Background()
	p, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "nested", "storex.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	exercise(t, p)

	for _, id := range []string{"b", "a"} {
		if err := p.Save(ctx, Snapshot{StoreID: id, State: map[string]any{"n": 1}}); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := p.StoreIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("store IDs %v, want [a b]", ids)
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storex.db")

	p, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Save(ctx, Snapshot{StoreID: "todos", Sequence: 9, State: []any{"x"}}); err != nil {
		t.Fatal(err)
	}
	_ = p.Close()

	p, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	snap, err := p.Load(ctx, "todos")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Sequence != 9 {
		t.Errorf("sequence %d after reopen, want 9", snap.Sequence)
	}
}

func TestNewSQLPersisterNilDB(t *testing.T) {
	if _, err := NewSQLPersister(context.Background(), nil, SQLite); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestDialectPlaceholders(t *testing.T) {
	if SQLite.placeholder(2) != "?" || Postgres.placeholder(2) != "$2" {
		t.Errorf("unexpected placeholders %q %q", SQLite.placeholder(2), Postgres.placeholder(2))
	}
}

func TestPostgresPersister(t *testing.T) {
	dsn := os.Getenv("STOREX_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STOREX_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_, _ = p.DB().ExecContext(ctx, `DELETE FROM storex_snapshots WHERE store_id = 'counter'`)
		_ = p.Close()
	})
	exercise(t, p)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

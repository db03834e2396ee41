package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// openTestStore connects to the database named by GOMATE_TEST_POSTGRES_DSN.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("GOMATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GOMATE_TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })

	s := NewStoreWithTx(tx)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func TestStore_UpsertAndRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok, err := s.GetItem(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := s.SetItem(ctx, "k", "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetItem(ctx, "k", "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok, err := s.GetItem(ctx, "k")
	if err != nil || !ok || v != "2" {
		t.Fatalf("expected 2, got %q ok=%v err=%v", v, ok, err)
	}

	keys, err := s.GetAllKeys(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "k" {
		t.Errorf("expected [k], got %v", keys)
	}

	if err := s.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.GetItem(ctx, "k"); ok {
		t.Error("expected key to be removed")
	}
}

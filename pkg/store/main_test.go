package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

var trainingMelodies = [][]string{
	{"C4", "D4", "E4", "F4", "G4"},
	{"G4", "F4", "E4", "D4", "C4"},
	{"C4", "E4", "G4", "C5"},
	{"E4", "F4", "G4", "A4", "G4"},
}

// setupTestDB creates a new SQLite database in a temp dir and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := New(db)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// setupTestDBWithTraining is a convenience helper that also trains a default model.
func setupTestDBWithTraining(t *testing.T) (context.Context, *Store, ModelInfo) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	info, err := s.CreateModel(ctx, "test_model", true)
	if err != nil {
		t.Fatalf("setup: CreateModel() failed: %v", err)
	}
	if err := s.Train(ctx, info, trainingMelodies); err != nil {
		t.Fatalf("setup: Train() failed: %v", err)
	}
	return ctx, s, info
}

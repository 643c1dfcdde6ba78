package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{InstanceID: "i"}); err == nil {
		t.Error("expected error for missing path, got nil")
	}
	if _, err := New(Options{Path: "x.db"}); err == nil {
		t.Error("expected error for missing instance id, got nil")
	}
}

func TestStore_LazyInitCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s := createTestStoreAt(t, path, testInstance)

	// First operation triggers connection and migration.
	if ready := s.IsReady(context.Background()); ready {
		t.Error("IsReady() = true on empty instance scope")
	}

	tables := []string{"fingerprints", "fingerprint_usage", "fingerprint_facets"}
	for _, table := range tables {
		var name string
		err := testDB(t, s).QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after init: %v", table, err)
		}
	}
}

func TestStore_ReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1 := createTestStoreAt(t, path, testInstance)
	if err := s1.Save(context.Background(), createTestFingerprint("abc123")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	s1.Close()

	s2 := createTestStoreAt(t, path, testInstance)
	fp, err := s2.Load(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Load() after reopen failed: %v", err)
	}
	if fp == nil {
		t.Fatal("Load() after reopen returned absent")
	}
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	s.IsReady(context.Background()) // touch the database so there is a handle to release
	s.Close()
	s.Close() // must not panic

	// The store reopens transparently after close.
	if err := s.Save(context.Background(), createTestFingerprint("after-close")); err != nil {
		t.Fatalf("Save() after Close() failed: %v", err)
	}
}

func TestStore_ConnectionFailureSurfacesAsConnectionError(t *testing.T) {
	s, err := New(Options{
		Path:       filepath.Join(t.TempDir(), "missing-dir", "test.db"),
		InstanceID: testInstance,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	saveErr := s.Save(context.Background(), createTestFingerprint("abc"))
	if saveErr == nil {
		t.Fatal("expected error for unreachable database, got nil")
	}
	if !IsConnectionError(saveErr) {
		t.Errorf("error kind = %v, want connection kind", saveErr)
	}
}

func TestStore_IsReadyNeverErrors(t *testing.T) {
	s, err := New(Options{
		Path:       filepath.Join(t.TempDir(), "missing-dir", "test.db"),
		InstanceID: testInstance,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	if ready := s.IsReady(context.Background()); ready {
		t.Error("IsReady() = true on unreachable database")
	}
}

func TestStore_Cleanup_Unsupported(t *testing.T) {
	s := createTestStore(t)
	removed, err := s.Cleanup(context.Background(), nil)
	if err != ErrCleanupUnsupported {
		t.Errorf("Cleanup() error = %v, want ErrCleanupUnsupported", err)
	}
	if removed != 0 {
		t.Errorf("Cleanup() removed = %d, want 0", removed)
	}
}

func TestStore_DefaultBusyTimeout(t *testing.T) {
	s := createTestStore(t)
	var value int64
	if err := testDB(t, s).QueryRow("PRAGMA busy_timeout").Scan(&value); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if want := defaultBusyTimeout.Milliseconds(); value != want {
		t.Errorf("busy_timeout = %d, want %d", value, want)
	}
}

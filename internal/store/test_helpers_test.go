package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/buildfp/fingerstore/internal/fingerprint"
)

const testInstance = "instance-1"

// createTestStore creates a store against a fresh database file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreAt(t, filepath.Join(t.TempDir(), "test.db"), testInstance)
}

// createTestStoreAt creates a store for an explicit path and instance, so
// tests can share one database between instances.
func createTestStoreAt(t *testing.T, path, instanceID string) *Store {
	t.Helper()
	s, err := New(Options{Path: path, InstanceID: instanceID})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// testDB returns the store's live database handle for direct row checks.
func testDB(t *testing.T, s *Store) *sql.DB {
	t.Helper()
	db, err := s.supplier.connection(context.Background())
	if err != nil {
		t.Fatalf("connection() failed: %v", err)
	}
	return db
}

// countRows counts rows in a table for one (hash, instance) pair.
func countRows(t *testing.T, s *Store, table, hash string) int {
	t.Helper()
	var count int
	err := testDB(t, s).QueryRow(
		"SELECT COUNT(*) FROM "+table+" WHERE hash = ? AND instance_id = ?",
		hash, s.instanceID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count %s rows: %v", table, err)
	}
	return count
}

// createTestFingerprint builds the worked-example aggregate: usage
// {"job-a": {1,2,5}} and one testResult facet.
func createTestFingerprint(hash string) *fingerprint.Fingerprint {
	return &fingerprint.Fingerprint{
		Hash:      hash,
		Timestamp: time.UnixMilli(1700000000000),
		FileName:  "build.log",
		Original:  &fingerprint.BuildPtr{Job: "release", Build: 12},
		Usages: map[string]fingerprint.RangeSet{
			"job-a": fingerprint.NewRangeSet(1, 2, 5),
		},
		Facets: []fingerprint.Facet{
			{Name: "testResult", Payload: json.RawMessage(`{"passed":42}`)},
		},
	}
}

package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"sync"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (fingerprints, fingerprint_usage, fingerprint_facets)
const currentSchemaVersion = 1

// Process-wide migration guard, keyed by canonical database path so one
// process can serve several database files (tests do). The guard only
// avoids redundant DDL round trips within one process lifetime; the
// statements themselves are create-if-absent, which is what makes
// cross-process races safe.
var (
	migrateMu sync.Mutex
	migrated  = make(map[string]bool)
)

// migrateSchema idempotently creates or upgrades the schema for the
// database at path. Safe to call from multiple processes racing to
// initialize the same file; "already exists" is not an error by
// construction.
func migrateSchema(db *sql.DB, path string) error {
	key := migrationKey(path)

	migrateMu.Lock()
	defer migrateMu.Unlock()
	if migrated[key] {
		return nil
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	// No incremental migrations yet; future versions slot in here, each
	// written as create-if-absent like the base schema.
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	migrated[key] = true
	return nil
}

func migrationKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

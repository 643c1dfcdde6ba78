package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// connectionSupplier lazily opens and caches one database handle per store
// instance, running one-time schema initialization before first use. The
// mutex serializes creation so two concurrent callers never receive two
// different handles for the same cached slot.
type connectionSupplier struct {
	path        string
	busyTimeout time.Duration
	logger      *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// connection returns the cached handle if it is still live, otherwise
// opens a new one, applies pragmas, migrates the schema, caches it and
// returns it. All failures surface as connection-kind StorageErrors.
func (c *connectionSupplier) connection(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		if err := c.db.PingContext(ctx); err == nil {
			return c.db, nil
		}
		// Cached handle went bad; discard and reopen.
		if err := c.db.Close(); err != nil {
			c.logger.Warn("failed to release stale database handle", "path", c.path, "error", err)
		}
		c.db = nil
	}

	db, err := sql.Open("sqlite3", c.path)
	if err != nil {
		return nil, newConnectionError("open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, newConnectionError("connect to database", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent store operations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, c.busyTimeout); err != nil {
		db.Close()
		return nil, newConnectionError("apply pragmas", err)
	}
	// The store cannot be used without a valid schema, so migration
	// failures propagate as connection failures.
	if err := migrateSchema(db, c.path); err != nil {
		db.Close()
		return nil, newConnectionError("migrate schema", err)
	}

	c.db = db
	return c.db, nil
}

// close releases the cached handle and resets state. Release failures are
// logged, not propagated: a failed close must not block shutdown or a
// subsequent reopen.
func (c *connectionSupplier) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return
	}
	if err := c.db.Close(); err != nil {
		c.logger.Warn("failed to close database", "path", c.path, "error", err)
	}
	c.db = nil
}

func applyPragmas(db *sql.DB, busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

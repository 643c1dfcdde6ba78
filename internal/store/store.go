package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildfp/fingerstore/internal/fingerprint"
)

const defaultBusyTimeout = 5 * time.Second

// Options configures a Store.
type Options struct {
	// Path is the SQLite database file (required).
	Path string

	// InstanceID scopes every row written by this store (required). Two
	// stores with different instance IDs sharing one database never see
	// each other's fingerprints.
	InstanceID string

	// BusyTimeout bounds how long statements wait on a locked database.
	// Defaults to 5 seconds.
	BusyTimeout time.Duration

	// Codec serializes facet payloads and whole aggregates. Defaults to
	// fingerprint.JSONCodec.
	Codec fingerprint.Codec

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store persists fingerprint aggregates for one instance identity. The
// database is the single source of truth; the store holds no fingerprint
// cache. Safe for concurrent use.
type Store struct {
	instanceID string
	codec      fingerprint.Codec
	logger     *slog.Logger
	supplier   *connectionSupplier

	// saveMu serializes Save calls so the delete-then-insert replace
	// pattern never interleaves destructively on one store instance.
	saveMu sync.Mutex
}

// New creates a store. The database is not touched until the first
// operation; connection and schema setup happen lazily.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("store: database path is required")
	}
	if opts.InstanceID == "" {
		return nil, errors.New("store: instance id is required")
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.Codec == nil {
		opts.Codec = fingerprint.JSONCodec{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		instanceID: opts.InstanceID,
		codec:      opts.Codec,
		logger:     opts.Logger,
		supplier: &connectionSupplier{
			path:        opts.Path,
			busyTimeout: opts.BusyTimeout,
			logger:      opts.Logger,
		},
	}, nil
}

// InstanceID returns the identity scoping every row this store writes.
func (s *Store) InstanceID() string {
	return s.instanceID
}

// Save persists the aggregate in one all-or-nothing transaction: any
// existing row set for the hash is deleted, then the fingerprint row, one
// usage row per build number and one facet row per facet are inserted.
// Save calls on one store are serialized.
func (s *Store) Save(ctx context.Context, fp *fingerprint.Fingerprint) error {
	if fp == nil {
		return errors.New("store: nil fingerprint")
	}
	if fp.Hash == "" {
		return errors.New("store: fingerprint hash is required")
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	op := uuid.NewString()
	s.logger.Debug("saving fingerprint", "op", op, "hash", fp.Hash)

	row, usages, facets, err := decompose(fp, s.instanceID, s.codec)
	if err != nil {
		return fmt.Errorf("save fingerprint %s: %w", fp.Hash, err)
	}

	db, err := s.supplier.connection(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return newTransactionError("save fingerprint", err)
	}
	defer tx.Rollback() // No-op if committed

	// Upsert by replace: drop the whole row set, then insert fresh rows.
	// The transaction hides the intermediate deleted state.
	if _, err := tx.ExecContext(ctx, getQuery(deleteFingerprint), fp.Hash, s.instanceID); err != nil {
		return newQueryError("save fingerprint: delete existing", err)
	}
	if _, err := tx.ExecContext(ctx, getQuery(insertFingerprint),
		row.Hash, row.InstanceID, row.CreatedAt, row.FileName,
		row.OriginalJob, row.OriginalBuild,
	); err != nil {
		return newQueryError("save fingerprint: insert row", err)
	}
	for _, u := range usages {
		if _, err := tx.ExecContext(ctx, getQuery(insertUsage),
			row.Hash, row.InstanceID, u.Job, u.Build,
		); err != nil {
			return newQueryError("save fingerprint: insert usage row", err)
		}
	}
	for _, f := range facets {
		if _, err := tx.ExecContext(ctx, getQuery(insertFacet),
			row.Hash, row.InstanceID, f.Name, f.Payload, f.DeletionBlocked,
		); err != nil {
			return newQueryError("save fingerprint: insert facet row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newTransactionError("save fingerprint", err)
	}
	s.logger.Debug("saved fingerprint", "op", op, "hash", fp.Hash,
		"usage_rows", len(usages), "facet_rows", len(facets))
	return nil
}

// Load returns the aggregate for the given hash, or (nil, nil) when no
// fingerprint exists for this instance. Absence is not an error.
func (s *Store) Load(ctx context.Context, id string) (*fingerprint.Fingerprint, error) {
	db, err := s.supplier.connection(ctx)
	if err != nil {
		return nil, err
	}

	row := fingerprintRow{Hash: id, InstanceID: s.instanceID}
	var usagesJSON, facetsJSON string
	err = db.QueryRowContext(ctx, getQuery(selectFingerprint), id, s.instanceID).Scan(
		&row.CreatedAt, &row.FileName, &row.OriginalJob, &row.OriginalBuild,
		&usagesJSON, &facetsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, newQueryError("load fingerprint", err)
	}

	fp, err := recompose(row, usagesJSON, facetsJSON, s.codec)
	if err != nil {
		return nil, fmt.Errorf("load fingerprint %s: %w", id, err)
	}
	return fp, nil
}

// Delete removes the fingerprint row and, through cascading foreign keys,
// all dependent usage and facet rows, atomically.
func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.supplier.connection(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return newTransactionError("delete fingerprint", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, getQuery(deleteFingerprint), id, s.instanceID); err != nil {
		return newQueryError("delete fingerprint", err)
	}
	if err := tx.Commit(); err != nil {
		return newTransactionError("delete fingerprint", err)
	}
	return nil
}

// IsReady reports whether at least one fingerprint exists for this
// instance identity. It never surfaces storage errors: a readiness probe
// must not treat an outage as fatal, so failures log and read as false.
func (s *Store) IsReady(ctx context.Context) bool {
	db, err := s.supplier.connection(ctx)
	if err != nil {
		s.logger.Warn("readiness probe failed to reach database", "error", err)
		return false
	}
	var exists bool
	if err := db.QueryRowContext(ctx, getQuery(existsForInstance), s.instanceID).Scan(&exists); err != nil {
		s.logger.Warn("readiness probe query failed", "error", err)
		return false
	}
	return exists
}

// Cleanup is the garbage-collection extension point. No sweep policy is
// defined yet; callers receive ErrCleanupUnsupported until one exists.
// The progress sink, when non-nil, would receive the running count of
// removed fingerprints.
func (s *Store) Cleanup(ctx context.Context, progress func(removed int)) (int, error) {
	return 0, ErrCleanupUnsupported
}

// Close releases the cached database handle. Safe to call more than once;
// release failures are logged, never returned.
func (s *Store) Close() {
	s.supplier.close()
}

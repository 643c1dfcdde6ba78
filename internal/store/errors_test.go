package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := newQueryError("save fingerprint", cause)

	assert.Contains(t, err.Error(), "save fingerprint")
	assert.Contains(t, err.Error(), "QUERY")
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause, "original cause must be preserved")
}

func TestKindHelpers(t *testing.T) {
	conn := newConnectionError("open", errors.New("refused"))
	query := newQueryError("insert", errors.New("constraint"))
	tx := newTransactionError("commit", errors.New("busy"))

	assert.True(t, IsConnectionError(conn))
	assert.False(t, IsConnectionError(query))

	assert.True(t, IsQueryError(query))
	assert.False(t, IsQueryError(tx))

	assert.True(t, IsTransactionError(tx))
	assert.False(t, IsTransactionError(conn))

	assert.False(t, IsConnectionError(errors.New("plain")))
	assert.False(t, IsConnectionError(nil))
}

func TestKindHelpers_Wrapped(t *testing.T) {
	inner := newTransactionError("commit", errors.New("busy"))
	wrapped := fmt.Errorf("save fingerprint abc123: %w", inner)
	assert.True(t, IsTransactionError(wrapped), "helpers must see through wrapping")
}

func TestGetQuery_KnownOperations(t *testing.T) {
	for _, name := range []string{
		insertFingerprint, insertUsage, insertFacet,
		selectFingerprint, deleteFingerprint, existsForInstance,
	} {
		assert.NotEmpty(t, getQuery(name))
	}
}

func TestGetQuery_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() { getQuery("no-such-operation") })
}

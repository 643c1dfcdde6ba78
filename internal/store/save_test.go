package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildfp/fingerstore/internal/fingerprint"
)

func TestSave_WorkedExample(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Save(context.Background(), createTestFingerprint("abc123")))

	// Three usage rows (job-a/1, job-a/2, job-a/5) and one facet row.
	assert.Equal(t, 1, countRows(t, s, "fingerprints", "abc123"))
	assert.Equal(t, 3, countRows(t, s, "fingerprint_usage", "abc123"))
	assert.Equal(t, 1, countRows(t, s, "fingerprint_facets", "abc123"))

	rows, err := testDB(t, s).Query(
		"SELECT job, build FROM fingerprint_usage WHERE hash = ? ORDER BY build",
		"abc123",
	)
	require.NoError(t, err)
	defer rows.Close()

	var got []int
	for rows.Next() {
		var job string
		var build int
		require.NoError(t, rows.Scan(&job, &build))
		assert.Equal(t, "job-a", job)
		got = append(got, build)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{1, 2, 5}, got)
}

func TestSave_FacetRowShape(t *testing.T) {
	s := createTestStore(t)
	fp := createTestFingerprint("abc123")
	fp.Facets = append(fp.Facets, fingerprint.Facet{
		Name:            "keepForever",
		Payload:         json.RawMessage(`{"reason":"release"}`),
		DeletionBlocked: true,
	})
	require.NoError(t, s.Save(context.Background(), fp))

	var payload string
	var blocked bool
	err := testDB(t, s).QueryRow(
		"SELECT payload, deletion_blocked FROM fingerprint_facets WHERE hash = ? AND facet_name = ?",
		"abc123", "keepForever",
	).Scan(&payload, &blocked)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reason":"release"}`, payload)
	assert.True(t, blocked)
}

func TestSave_IdempotentReplace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestFingerprint("abc123")
	require.NoError(t, s.Save(ctx, first))

	// Second save with different rows must fully replace the first.
	second := createTestFingerprint("abc123")
	second.FileName = "rebuilt.log"
	second.Usages = map[string]fingerprint.RangeSet{
		"job-b": fingerprint.NewRangeSet(9),
	}
	second.Facets = nil
	require.NoError(t, s.Save(ctx, second))

	assert.Equal(t, 1, countRows(t, s, "fingerprints", "abc123"))
	assert.Equal(t, 1, countRows(t, s, "fingerprint_usage", "abc123"))
	assert.Equal(t, 0, countRows(t, s, "fingerprint_facets", "abc123"))

	loaded, err := s.Load(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, second.Equal(loaded), "load must reflect the second save only")
}

func TestSave_NilAndEmptyHash(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.Save(context.Background(), nil))
	assert.Error(t, s.Save(context.Background(), &fingerprint.Fingerprint{}))
}

func TestSave_EmptyRangeSetEmitsNoRows(t *testing.T) {
	s := createTestStore(t)
	fp := createTestFingerprint("abc123")
	fp.Usages["idle-job"] = fingerprint.NewRangeSet()
	require.NoError(t, s.Save(context.Background(), fp))

	var count int
	err := testDB(t, s).QueryRow(
		"SELECT COUNT(*) FROM fingerprint_usage WHERE hash = ? AND job = ?",
		"abc123", "idle-job",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "a job with no build numbers must not produce rows")
}

func TestSave_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	good := createTestFingerprint("abc123")
	require.NoError(t, s.Save(ctx, good))

	// Duplicate facet names violate the primary key on the facet table,
	// failing mid-transaction after delete and inserts already ran.
	bad := createTestFingerprint("abc123")
	bad.FileName = "should-never-land.log"
	bad.Facets = []fingerprint.Facet{
		{Name: "dup", Payload: json.RawMessage(`{"n":1}`)},
		{Name: "dup", Payload: json.RawMessage(`{"n":2}`)},
	}
	err := s.Save(ctx, bad)
	require.Error(t, err)
	assert.True(t, IsQueryError(err), "constraint violation surfaces as query kind")

	// The failed save must have no effect: the first row set survives.
	loaded, err := s.Load(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, good.Equal(loaded), "rolled-back save must leave the previous row set intact")
}

func TestSave_FacetCodecFailureLeavesStoreUntouched(t *testing.T) {
	s := createTestStore(t)
	fp := createTestFingerprint("abc123")
	fp.Facets = []fingerprint.Facet{{Payload: json.RawMessage(`{}`)}} // no name

	require.Error(t, s.Save(context.Background(), fp))
	assert.Equal(t, 0, countRows(t, s, "fingerprints", "abc123"))
}

package store

import "fmt"

// Logical operation names for the query catalog. All SQL lives here as a
// fixed set of parameterized templates; no caller ever supplies SQL
// fragments, so every piece of variable data flows through bound
// parameters.
const (
	insertFingerprint = "insert-fingerprint"
	insertUsage       = "insert-usage-row"
	insertFacet       = "insert-facet-row"
	selectFingerprint = "select-fingerprint-by-id"
	deleteFingerprint = "delete-fingerprint-cascade"
	existsForInstance = "select-exists-for-instance"
)

var queries = map[string]string{
	insertFingerprint: `
		INSERT INTO fingerprints
		(hash, instance_id, created_at, filename, original_job, original_build)
		VALUES (?, ?, ?, ?, ?, ?)`,

	insertUsage: `
		INSERT INTO fingerprint_usage
		(hash, instance_id, job, build)
		VALUES (?, ?, ?, ?)`,

	insertFacet: `
		INSERT INTO fingerprint_facets
		(hash, instance_id, facet_name, payload, deletion_blocked)
		VALUES (?, ?, ?, ?, ?)`,

	// Usage and facet rows come back pre-aggregated as JSON arrays so the
	// whole aggregate loads in one round trip.
	selectFingerprint: `
		SELECT f.created_at,
		       f.filename,
		       f.original_job,
		       f.original_build,
		       (SELECT json_group_array(json_object('job', u.job, 'build', u.build))
		          FROM fingerprint_usage u
		         WHERE u.hash = f.hash AND u.instance_id = f.instance_id) AS usages,
		       (SELECT json_group_array(json_object(
		                   'name', c.facet_name,
		                   'payload', json(c.payload),
		                   'blocked', c.deletion_blocked))
		          FROM fingerprint_facets c
		         WHERE c.hash = f.hash AND c.instance_id = f.instance_id) AS facets
		  FROM fingerprints f
		 WHERE f.hash = ? AND f.instance_id = ?`,

	// Usage and facet rows go with the fingerprint via ON DELETE CASCADE.
	deleteFingerprint: `
		DELETE FROM fingerprints
		 WHERE hash = ? AND instance_id = ?`,

	existsForInstance: `
		SELECT EXISTS (SELECT 1 FROM fingerprints WHERE instance_id = ?)`,
}

// getQuery returns the statement template for a logical operation name.
// Unknown names are a programming error.
func getQuery(name string) string {
	q, ok := queries[name]
	if !ok {
		panic(fmt.Sprintf("store: unknown query %q", name))
	}
	return q
}

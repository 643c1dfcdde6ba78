package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/buildfp/fingerstore/internal/fingerprint"
)

// Data conversion between the aggregate and its relational form: two
// inverse transformations. Decompose expands the usage map into one row
// per (job, build number) and runs each facet through the codec to obtain
// its type name and stored payload. Recompose groups the rows back into
// range sets and facets, assembles one JSON document, and decodes the
// whole aggregate through the codec in a single pass.

// fingerprintRow is the flat relational form of the aggregate root.
type fingerprintRow struct {
	Hash          string
	InstanceID    string
	CreatedAt     int64 // unix milliseconds
	FileName      string
	OriginalJob   sql.NullString
	OriginalBuild sql.NullInt64
}

// usageRow is one atomic (job, build number) usage fact.
type usageRow struct {
	Job   string `json:"job"`
	Build int    `json:"build"`
}

// facetRow is one stored facet.
type facetRow struct {
	Name            string
	Payload         string
	DeletionBlocked bool
}

// facetRowJSON is the pre-aggregated facet shape returned by the select
// query. SQLite booleans aggregate as 0/1.
type facetRowJSON struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Blocked int             `json:"blocked"`
}

// decompose splits one aggregate into exactly one fingerprint row, zero or
// more usage rows and zero or more facet rows.
func decompose(fp *fingerprint.Fingerprint, instanceID string, codec fingerprint.Codec) (fingerprintRow, []usageRow, []facetRow, error) {
	row := fingerprintRow{
		Hash:       fp.Hash,
		InstanceID: instanceID,
		CreatedAt:  fp.Timestamp.UnixMilli(),
		FileName:   fp.FileName,
	}
	// An absent original build pointer stores as NULL in both columns,
	// never as sentinel values.
	if fp.Original != nil {
		row.OriginalJob = sql.NullString{String: fp.Original.Job, Valid: true}
		row.OriginalBuild = sql.NullInt64{Int64: int64(fp.Original.Build), Valid: true}
	}

	var usages []usageRow
	jobs := make([]string, 0, len(fp.Usages))
	for job := range fp.Usages {
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)
	for _, job := range jobs {
		// A job with no build numbers emits no rows.
		for _, build := range fp.Usages[job].Numbers() {
			usages = append(usages, usageRow{Job: job, Build: build})
		}
	}

	var facets []facetRow
	for _, f := range fp.Facets {
		name, payload, err := wrapFacet(f, codec)
		if err != nil {
			return fingerprintRow{}, nil, nil, err
		}
		facets = append(facets, facetRow{
			Name:            name,
			Payload:         payload,
			DeletionBlocked: f.DeletionBlocked,
		})
	}

	return row, usages, facets, nil
}

// wrapFacet serializes a facet through the codec, extracts the single
// top-level key as the facet type name and re-serializes its value as the
// stored payload text.
func wrapFacet(f fingerprint.Facet, codec fingerprint.Codec) (name, payload string, err error) {
	wrapped, err := codec.EncodeFacet(f)
	if err != nil {
		return "", "", fmt.Errorf("decompose facet %q: %w", f.Name, err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(wrapped, &obj); err != nil {
		return "", "", fmt.Errorf("decompose facet %q: %w", f.Name, err)
	}
	if len(obj) != 1 {
		return "", "", fmt.Errorf("decompose facet %q: codec produced %d top-level keys, want 1", f.Name, len(obj))
	}
	for key, value := range obj {
		return key, string(value), nil
	}
	return "", "", fmt.Errorf("decompose facet %q: codec produced empty object", f.Name)
}

// recompose reconstructs the full aggregate from one fingerprint row plus
// the pre-aggregated usage and facet JSON returned by the select query.
func recompose(row fingerprintRow, usagesJSON, facetsJSON string, codec fingerprint.Codec) (*fingerprint.Fingerprint, error) {
	usages, err := groupUsages(usagesJSON)
	if err != nil {
		return nil, fmt.Errorf("recompose %s: %w", row.Hash, err)
	}
	facets, blocked, err := unwrapFacets(facetsJSON, codec)
	if err != nil {
		return nil, fmt.Errorf("recompose %s: %w", row.Hash, err)
	}

	// Assemble the single document the codec deserializes in one pass.
	doc := map[string]any{
		"hash":      row.Hash,
		"timestamp": row.CreatedAt,
		"fileName":  row.FileName,
	}
	if row.OriginalJob.Valid && row.OriginalBuild.Valid {
		doc["original"] = fingerprint.BuildPtr{
			Job:   row.OriginalJob.String,
			Build: int(row.OriginalBuild.Int64),
		}
	}
	if len(usages) > 0 {
		doc["usages"] = usages
	}
	if len(facets) > 0 {
		doc["facets"] = facets
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("recompose %s: %w", row.Hash, err)
	}
	fp, err := codec.DecodeFingerprint(data)
	if err != nil {
		return nil, fmt.Errorf("recompose %s: %w", row.Hash, err)
	}
	for i := range fp.Facets {
		fp.Facets[i].DeletionBlocked = blocked[fp.Facets[i].Name]
	}
	return fp, nil
}

// groupUsages turns the aggregated usage rows into a job -> canonical
// range text map. Row order is irrelevant; membership is what matters.
func groupUsages(usagesJSON string) (map[string]string, error) {
	var rows []usageRow
	if err := json.Unmarshal([]byte(usagesJSON), &rows); err != nil {
		return nil, fmt.Errorf("parse usage rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	sets := make(map[string]fingerprint.RangeSet)
	for _, r := range rows {
		builds, ok := sets[r.Job]
		if !ok {
			builds = fingerprint.NewRangeSet()
			sets[r.Job] = builds
		}
		builds.Add(r.Build)
	}
	out := make(map[string]string, len(sets))
	for job, builds := range sets {
		out[job] = builds.String()
	}
	return out, nil
}

// unwrapFacets re-wraps each (name, payload) row into the single-key shape
// the codec expects and decodes it. The deletion-blocked flag rides beside
// the payload, keyed by facet name.
func unwrapFacets(facetsJSON string, codec fingerprint.Codec) ([]fingerprint.Facet, map[string]bool, error) {
	var rows []facetRowJSON
	if err := json.Unmarshal([]byte(facetsJSON), &rows); err != nil {
		return nil, nil, fmt.Errorf("parse facet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	facets := make([]fingerprint.Facet, 0, len(rows))
	blocked := make(map[string]bool, len(rows))
	for _, r := range rows {
		wrapped, err := json.Marshal(map[string]json.RawMessage{r.Name: r.Payload})
		if err != nil {
			return nil, nil, fmt.Errorf("wrap facet %q: %w", r.Name, err)
		}
		f, err := codec.DecodeFacet(wrapped)
		if err != nil {
			return nil, nil, fmt.Errorf("decode facet %q: %w", r.Name, err)
		}
		f.DeletionBlocked = r.Blocked != 0
		facets = append(facets, f)
		blocked[f.Name] = f.DeletionBlocked
	}
	return facets, blocked, nil
}

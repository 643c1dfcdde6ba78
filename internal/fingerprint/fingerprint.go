package fingerprint

import (
	"bytes"
	"encoding/json"
	"time"
)

// BuildPtr points at one build of one job.
type BuildPtr struct {
	Job   string `json:"job"`
	Build int    `json:"build"`
}

// Facet is a named payload attached to a fingerprint by another subsystem.
// The payload is opaque to the storage layer; only the codec knows concrete
// facet types. At most one facet per name exists on a fingerprint.
type Facet struct {
	// Name is the facet type name.
	Name string `json:"name"`

	// Payload is the serialized facet body.
	Payload json.RawMessage `json:"payload"`

	// DeletionBlocked marks facets that prevent garbage collection of the
	// fingerprint they are attached to.
	DeletionBlocked bool `json:"deletionBlocked,omitempty"`
}

// Equal reports whether two facets carry the same name, payload and flag.
// Payloads compare as compacted JSON so formatting differences are ignored.
func (f Facet) Equal(other Facet) bool {
	if f.Name != other.Name || f.DeletionBlocked != other.DeletionBlocked {
		return false
	}
	return jsonEqual(f.Payload, other.Payload)
}

// Fingerprint is the root aggregate: one record per artifact hash.
// Serialization goes through a Codec; the aggregate itself has no wire
// form.
type Fingerprint struct {
	// Hash identifies the artifact content. Together with the instance
	// identity it forms the true primary key in storage.
	Hash string

	// Timestamp records when the fingerprint was first created.
	Timestamp time.Time

	// FileName is the artifact file name as observed at creation.
	FileName string

	// Original points at the build that produced the artifact, when known.
	// Nil means the producer is unknown; both fields are present or absent
	// together.
	Original *BuildPtr

	// Usages maps job name to the set of build numbers that used the
	// artifact.
	Usages map[string]RangeSet

	// Facets holds the persisted facets, at most one per name.
	Facets []Facet
}

// Facet returns the facet with the given name, or false if absent.
func (fp *Fingerprint) Facet(name string) (Facet, bool) {
	for _, f := range fp.Facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet{}, false
}

// Equal reports semantic equality: usage range sets compare as sets of
// build numbers per job, facets compare order-independently by name,
// payload and flag, timestamps compare at millisecond precision (the
// precision that survives storage).
func (fp *Fingerprint) Equal(other *Fingerprint) bool {
	if fp == nil || other == nil {
		return fp == other
	}
	if fp.Hash != other.Hash || fp.FileName != other.FileName {
		return false
	}
	if fp.Timestamp.UnixMilli() != other.Timestamp.UnixMilli() {
		return false
	}
	if (fp.Original == nil) != (other.Original == nil) {
		return false
	}
	if fp.Original != nil && *fp.Original != *other.Original {
		return false
	}
	if !usagesEqual(fp.Usages, other.Usages) {
		return false
	}
	return facetsEqual(fp.Facets, other.Facets)
}

func usagesEqual(a, b map[string]RangeSet) bool {
	// Jobs with empty range sets carry no information; ignore them.
	count := func(m map[string]RangeSet) int {
		n := 0
		for _, r := range m {
			if r.Len() > 0 {
				n++
			}
		}
		return n
	}
	if count(a) != count(b) {
		return false
	}
	for job, ra := range a {
		if ra.Len() == 0 {
			continue
		}
		rb, ok := b[job]
		if !ok || !ra.Equal(rb) {
			return false
		}
	}
	return true
}

func facetsEqual(a, b []Facet) bool {
	if len(a) != len(b) {
		return false
	}
	for _, fa := range a {
		found := false
		for _, fb := range b {
			if fa.Equal(fb) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func jsonEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Compact(&cb, b); err != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

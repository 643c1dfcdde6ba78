package fingerprint

import (
	"encoding/json"
	"fmt"
	"time"
)

// Codec converts facets and whole aggregates to and from their structured
// text form. The storage layer depends on this capability interface only;
// concrete facet types stay behind the codec.
//
// EncodeFacet produces a single-key JSON object keyed by the facet type
// name whose value is the payload. DecodeFacet inverts that. The
// deletion-blocked flag is not part of the wrapped body; it travels beside
// the payload (as a storage column or a document field).
type Codec interface {
	EncodeFacet(f Facet) ([]byte, error)
	DecodeFacet(data []byte) (Facet, error)
	EncodeFingerprint(fp *Fingerprint) ([]byte, error)
	DecodeFingerprint(data []byte) (*Fingerprint, error)
}

// document is the whole-aggregate wire form: fingerprint metadata, the
// usage map with range sets in canonical text form, and the facet array.
type document struct {
	Hash      string            `json:"hash"`
	Timestamp *int64            `json:"timestamp,omitempty"` // unix milliseconds
	FileName  string            `json:"fileName"`
	Original  *BuildPtr         `json:"original,omitempty"`
	Usages    map[string]string `json:"usages,omitempty"`
	Facets    []Facet           `json:"facets,omitempty"`
}

// JSONCodec is the default Codec, backed by encoding/json. Payloads pass
// through untouched as raw JSON.
type JSONCodec struct{}

// EncodeFacet wraps the facet payload in a single-key object:
// {"testResult": {...}}.
func (JSONCodec) EncodeFacet(f Facet) ([]byte, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("encode facet: empty name")
	}
	payload := f.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	data, err := json.Marshal(map[string]json.RawMessage{f.Name: payload})
	if err != nil {
		return nil, fmt.Errorf("encode facet %q: %w", f.Name, err)
	}
	return data, nil
}

// DecodeFacet extracts the single top-level key as the facet type name and
// its value as the payload.
func (JSONCodec) DecodeFacet(data []byte) (Facet, error) {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return Facet{}, fmt.Errorf("decode facet: %w", err)
	}
	if len(wrapped) != 1 {
		return Facet{}, fmt.Errorf("decode facet: want exactly one top-level key, got %d", len(wrapped))
	}
	for name, payload := range wrapped {
		return Facet{Name: name, Payload: payload}, nil
	}
	return Facet{}, fmt.Errorf("decode facet: empty object")
}

// EncodeFingerprint serializes the aggregate as one document.
func (JSONCodec) EncodeFingerprint(fp *Fingerprint) ([]byte, error) {
	if fp == nil {
		return nil, fmt.Errorf("encode fingerprint: nil aggregate")
	}
	if fp.Hash == "" {
		return nil, fmt.Errorf("encode fingerprint: empty hash")
	}
	doc := document{
		Hash:     fp.Hash,
		FileName: fp.FileName,
		Original: fp.Original,
		Facets:   fp.Facets,
	}
	// A zero timestamp means "not recorded" and is omitted, not written as
	// the epoch. The distinction matters on decode: time.UnixMilli(0) is
	// not the zero time.
	if !fp.Timestamp.IsZero() {
		ms := fp.Timestamp.UnixMilli()
		doc.Timestamp = &ms
	}
	for job, builds := range fp.Usages {
		// Jobs with no build numbers carry no information.
		if builds.Len() == 0 {
			continue
		}
		if doc.Usages == nil {
			doc.Usages = make(map[string]string, len(fp.Usages))
		}
		doc.Usages[job] = builds.String()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode fingerprint %s: %w", fp.Hash, err)
	}
	return data, nil
}

// DecodeFingerprint reconstructs the full aggregate from one document in a
// single pass.
func (JSONCodec) DecodeFingerprint(data []byte) (*Fingerprint, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}
	if doc.Hash == "" {
		return nil, fmt.Errorf("decode fingerprint: empty hash")
	}
	fp := &Fingerprint{
		Hash:     doc.Hash,
		FileName: doc.FileName,
		Original: doc.Original,
		Facets:   doc.Facets,
	}
	if doc.Timestamp != nil {
		fp.Timestamp = time.UnixMilli(*doc.Timestamp)
	}
	if len(doc.Usages) > 0 {
		fp.Usages = make(map[string]RangeSet, len(doc.Usages))
		for job, text := range doc.Usages {
			builds, err := ParseRangeSet(text)
			if err != nil {
				return nil, fmt.Errorf("decode fingerprint %s: job %q: %w", doc.Hash, job, err)
			}
			fp.Usages[job] = builds
		}
	}
	return fp, nil
}

// Package fingerprint defines the domain model for build artifact
// fingerprints and the codec used at the storage boundary.
//
// A fingerprint is a content-addressed tracking object: one record per
// artifact hash, linking the artifact to the job/build that produced it
// and to every job/build that used it.
//
//   - Fingerprint: the root aggregate (hash, timestamp, file name,
//     optional originating build, usage map, facets)
//   - RangeSet: a set of build numbers with a canonical text form
//   - Facet: an extensible named payload attached to a fingerprint
//   - Codec: the capability interface that serializes facets and whole
//     aggregates, keeping concrete facet types out of the storage layer
//
// The store package persists these types; nothing in this package touches
// the database.
package fingerprint

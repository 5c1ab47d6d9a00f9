// Package snapshot holds the analysis snapshot: the immutable, persisted result
// of one schema discovery pass over a source.
//
// A snapshot records per-category field descriptors, the primitive field
// catalog, the source header, blob collection summaries and run metadata.
// It is written as YAML (default) or JSON. Non-finite statistics are encoded
// with sentinels: NaN as "", +Inf as "inf" and -Inf as "-inf".
package snapshot

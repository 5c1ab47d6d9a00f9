// Package analyze discovers the schema of a source and produces a snapshot.
//
// Analysis is fault isolated per category: a category that fails to fetch
// or profile is recorded with an error marker and zero fields while the rest
// of the run continues. The only fatal condition is a source that cannot be
// listed at all.
//
// Categories may be analyzed concurrently; the resulting snapshot always
// lists them in source order.
package analyze

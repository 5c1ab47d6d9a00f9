// Package source defines the contract between schemadrift and a live tabular
// data source.
//
// A source exposes a set of named categories, each fetchable as a columnar
// Batch, plus a header of scalar key/value pairs and a catalog of primitive
// field names. Optional capabilities (blob collections, tick sampling,
// self-description) are discovered with type assertions.
//
// Concrete adapters live in sub-packages and register themselves with
// Register so that Open can dispatch on a location string.
package source

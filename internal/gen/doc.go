// Package gen emits Go source artifacts from an analysis snapshot.
//
// Three files are produced, each regenerable byte for byte from the same
// snapshot:
//   - enums_gen.go: string enums for categories and primitive fields
//   - records_gen.go: the Header struct, a row struct and column accessor
//     table per category, and a keyed collection type per blob collection
//   - schemas_gen.go: a JSON Schema document per category plus a registry
//
// All identifiers are planned up front by NewPlan so that every renderer
// sees the same names. Collisions are resolved with numeric suffixes and
// reported as diagnostics, or rejected in strict mode.
package gen

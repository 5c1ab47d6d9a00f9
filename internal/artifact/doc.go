// Package artifact reads generated enums, records and schemas files back
// into data the drift validator can compare against a fresh sample.
//
// Files are parsed with go/parser and walked with an AST inspector; nothing
// is type-checked or compiled. Record types can be smoke-constructed by
// interpreting the records file with yaegi.
package artifact

// Package ident turns arbitrary raw names into safe identifiers.
//
// Three kinds are supported: enum members, properties and type names. Every
// result matches [A-Za-z_][A-Za-z0-9_]* whatever the input, including empty
// and non-ASCII strings.
//
// Normalize is a pure function. A Scope tracks one namespace during one
// emission pass and resolves collisions, either by appending _2, _3, ... or,
// in strict mode, by failing with ErrIdentifierCollision.
package ident

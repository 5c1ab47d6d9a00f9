// Package sqlitesource reads a source from a SQLite database.
//
// Every user table is a category and its declared column types drive field
// kinds. Tables with reserved names carry the rest of the source:
//
//	_header(key, value)        source header, in insertion order
//	_fields(name)              primitive field catalog
//	_blob_<name>(key, data)    one keyed blob collection per table
//	ticks                      per-tick field values, one column per field
//
// Importing the package registers an opener for "sqlite:" locations and for
// .db, .sqlite and .sqlite3 files with source.Open.
package sqlitesource

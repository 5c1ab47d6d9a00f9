// Package filesource reads a source from a YAML or JSON fixture document.
//
// A fixture lists categories as typed columns, an ordered header mapping, the
// primitive field catalog, base64 blob collections and an optional tick
// batch:
//
//	id: demo
//	categories:
//	  - name: round_start
//	    columns:
//	      - {name: tick, type: int64, values: [1, 2]}
//	  - name: bomb_planted
//	    error: decoder failure
//	header:
//	  map_name: de_dust2
//	fields: [m_iHealth]
//	blobs:
//	  string_tables: {userinfo: aGVsbG8=}
//
// Importing the package registers an opener for .yaml, .yml and .json
// locations with source.Open.
package filesource

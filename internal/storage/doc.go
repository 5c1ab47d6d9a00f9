// Package storage reads and writes schemadrift files through viant/afs so that
// artifacts, snapshots and reports can live on any afs-supported location.
package storage

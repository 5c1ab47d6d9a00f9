// Package memsource provides an in-memory source adapter.
//
// It is used by tests throughout schemadrift and can inject failures and
// panics per category to exercise fault isolation.
package memsource

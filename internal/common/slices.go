package common

import (
	"cmp"
	"maps"
	"slices"
)

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	return slices.Sorted(maps.Keys(m))
}

// First returns the first element of the slice and true, or the zero value and false if empty.
func First[S ~[]E, E any](s S) (E, bool) {
	if len(s) == 0 {
		var zero E
		return zero, false
	}

	return s[0], true
}

// Difference returns the elements of a that are not in b, preserving a's order.
func Difference[S ~[]E, E comparable](a, b S) S {
	seen := make(map[E]struct{}, len(b))
	for _, e := range b {
		seen[e] = struct{}{}
	}

	var out S

	for _, e := range a {
		if _, ok := seen[e]; !ok {
			out = append(out, e)
		}
	}

	return out
}

// Package profile builds field descriptors from sampled columns.
//
// A descriptor records the primitive kind, nullability, cardinality and,
// depending on the kind, numeric or length statistics of one column. Problems
// found while profiling are attached to the descriptor instead of being
// returned, so one bad column never hides the others.
package profile

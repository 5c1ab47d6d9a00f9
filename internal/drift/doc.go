// Package drift re-checks emitted artifacts against a fresh sample of the
// source and collects the outcome in a Report.
//
// Each check owns one or more named results. A check that panics or fails
// unexpectedly marks its own result as error and never stops the others.
// The report passes unless some result is failed or error.
package drift

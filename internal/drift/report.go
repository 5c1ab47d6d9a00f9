package drift

import (
	"errors"
	"fmt"
	"slices"
)

// Status is the state of one check result.
type Status string

const (
	StatusPending      Status = "pending"
	StatusPassed       Status = "passed"
	StatusFailed       Status = "failed"
	StatusWarning      Status = "warning"
	StatusError        Status = "error"
	StatusNoData       Status = "no_data"
	StatusNotAvailable Status = "not_available"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusPassed, StatusWarning, StatusNoData, StatusNotAvailable, StatusFailed, StatusError, StatusPending,
}

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s != StatusPending && s != ""
}

// Blocking reports whether s prevents an overall pass.
func (s Status) Blocking() bool {
	return s == StatusFailed || s == StatusError
}

// ErrStatusRegression is returned when a terminal result would go back to pending.
var ErrStatusRegression = errors.New("terminal result cannot return to pending")

// Result is the outcome of one named check.
type Result struct {
	Name   string   `json:"name" yaml:"name"`
	Status Status   `json:"status" yaml:"status"`
	Issues []string `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Report holds check results in the order they were started.
type Report struct {
	order   []string
	results map[string]*Result
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{results: make(map[string]*Result)}
}

// Start registers name as pending. Starting an existing result is a no-op.
func (r *Report) Start(name string) {
	if _, ok := r.results[name]; ok {
		return
	}

	r.order = append(r.order, name)
	r.results[name] = &Result{Name: name, Status: StatusPending}
}

// Set records the status of name and appends issues, starting it if needed.
func (r *Report) Set(name string, status Status, issues ...string) error {
	r.Start(name)

	res := r.results[name]
	if status == StatusPending && res.Status.Terminal() {
		return fmt.Errorf("%s: %w", name, ErrStatusRegression)
	}

	res.Status = status
	res.Issues = append(res.Issues, issues...)

	return nil
}

// Result returns the named result.
func (r *Report) Result(name string) (Result, bool) {
	res, ok := r.results[name]
	if !ok {
		return Result{}, false
	}

	out := *res
	out.Issues = slices.Clone(res.Issues)

	return out, true
}

// Results returns every result in start order.
func (r *Report) Results() []Result {
	out := make([]Result, 0, len(r.order))
	for _, name := range r.order {
		res, _ := r.Result(name)
		out = append(out, res)
	}

	return out
}

// Passed reports whether no result is failed or error.
func (r *Report) Passed() bool {
	for _, res := range r.results {
		if res.Status.Blocking() {
			return false
		}
	}

	return true
}

// Summary counts results per status.
func (r *Report) Summary() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, res := range r.results {
		counts[res.Status]++
	}

	return counts
}

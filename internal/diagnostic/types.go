package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"schemadrift/internal/common"
)

// Diagnostic codes reported during emission.
const (
	CodeIdentifierCollision = "identifier_collision"
	CodeDuplicateField      = "duplicate_field"
	CodeEmptyCategoryName   = "empty_category_name"
	CodeFailedCategory      = "failed_category"
	CodeEmptyCategory       = "empty_category"
	CodeFieldError          = "field_error"
	CodeAnalysisNote        = "analysis_note"
)

// Diagnostics holds the findings collected while emitting artifacts.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Artifact names the emitted artifact or snapshot section (if any).
	Artifact string
	// Subject is the raw name the diagnostic is about (if any).
	Subject string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, artifact, subject string) {
	d.Errors = append(d.Errors, newDiagnostic(SeverityError, code, message, artifact, subject))
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, artifact, subject string) {
	d.Warnings = append(d.Warnings, newDiagnostic(SeverityWarning, code, message, artifact, subject))
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, artifact, subject string) {
	d.Infos = append(d.Infos, newDiagnostic(SeverityInfo, code, message, artifact, subject))
}

func newDiagnostic(sev Severity, code, message, artifact, subject string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  message,
		Artifact: artifact,
		Subject:  subject,
	}
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}

	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)

	return append(out, d.Infos...)
}

// ByCode returns the diagnostics carrying the given code.
func (d *Diagnostics) ByCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, diag := range d.All() {
		if diag.Code == code {
			out = append(out, diag)
		}
	}

	return out
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Artifact != "" {
		prefix = append(prefix, "["+d.Artifact+"]")
	}

	if d.Subject != "" {
		prefix = append(prefix, d.Subject)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

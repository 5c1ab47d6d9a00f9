package drift

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"schemadrift/internal/snapshot"
)

// defaultMaxIssues is the number of issues shown per result.
const defaultMaxIssues = 3

// RenderOptions controls the text rendering of a report.
type RenderOptions struct {
	// NoColor disables status colouring.
	NoColor bool
	// MaxIssues caps the issues listed per result; 0 uses the default, negative shows all.
	MaxIssues int
}

var statusColors = map[Status]color.Attribute{
	StatusPassed:       color.FgGreen,
	StatusWarning:      color.FgYellow,
	StatusNoData:       color.FgYellow,
	StatusNotAvailable: color.FgCyan,
	StatusFailed:       color.FgRed,
	StatusError:        color.FgMagenta,
	StatusPending:      color.FgWhite,
}

// Render writes the report as a table followed by an overall verdict.
func (r *Report) Render(w io.Writer, opts RenderOptions) error {
	limit := opts.MaxIssues
	if limit == 0 {
		limit = defaultMaxIssues
	}

	paint := func(s Status, text string) string {
		c := color.New(statusColors[s])
		if opts.NoColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}

		return c.Sprint(text)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Check", "Status", "Issues"})

	for _, res := range r.Results() {
		tbl.AppendRow(table.Row{res.Name, paint(res.Status, string(res.Status)), formatIssues(res.Issues, limit)})
	}

	counts := r.Summary()

	parts := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", s, counts[s]))
		}
	}

	tbl.AppendFooter(table.Row{"Total", len(r.order), strings.Join(parts, ", ")})

	verdict := paint(StatusPassed, "PASSED")
	if !r.Passed() {
		verdict = paint(StatusFailed, "FAILED")
	}

	_, err := fmt.Fprintf(w, "%s\nOverall: %s\n", tbl.Render(), verdict)

	return err
}

func formatIssues(issues []string, limit int) string {
	if limit < 0 || len(issues) <= limit {
		return strings.Join(issues, "\n")
	}

	shown := append(issues[:limit:limit], fmt.Sprintf("... and %d more", len(issues)-limit))

	return strings.Join(shown, "\n")
}

// document is the persisted form of a report.
type document struct {
	Passed  bool           `json:"passed" yaml:"passed"`
	Summary map[Status]int `json:"summary" yaml:"summary"`
	Checks  []Result       `json:"checks" yaml:"checks"`
}

// Encode writes the report as JSON or YAML.
func (r *Report) Encode(w io.Writer, format snapshot.Format) error {
	doc := document{Passed: r.Passed(), Summary: r.Summary(), Checks: r.Results()}

	switch format {
	case snapshot.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	}

	return nil
}

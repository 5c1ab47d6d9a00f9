package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"schemadrift/internal/common"
	"schemadrift/internal/diagnostic"
	"schemadrift/internal/observability"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/storage"
)

// ErrInvalidSnapshot is returned for snapshots that cannot be emitted.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Generator renders typed artifacts from an analysis snapshot.
type Generator struct {
	config  GeneratorConfig
	store   *storage.Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option customises a Generator.
type Option func(*Generator)

// WithStore sets the storage used for writing artifacts and debug output.
func WithStore(store *storage.Store) Option {
	return func(g *Generator) { g.store = store }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig, opts ...Option) *Generator {
	g := &Generator{
		config: config.withDefaults(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "records_gen.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Result is the outcome of one generation run.
type Result struct {
	Files       []GeneratedFile
	Plan        *Plan
	Diagnostics *diagnostic.Diagnostics
}

// Generate validates snap, plans identifiers and renders the enums, records
// and schemas files, in that order.
func (g *Generator) Generate(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	if err := ValidateSnapshot(snap); err != nil {
		return nil, err
	}

	plan, err := NewPlan(snap, g.config)
	if err != nil {
		return nil, fmt.Errorf("planning identifiers: %w", err)
	}

	renderers := []struct {
		filename string
		render   func(*Plan) ([]byte, error)
	}{
		{EnumsFile, RenderEnums},
		{RecordsFile, RenderRecords},
		{SchemasFile, RenderSchemas},
	}

	res := &Result{Plan: plan, Diagnostics: analysisNotes(snap)}
	res.Diagnostics.Merge(plan.Diagnostics())

	for _, r := range renderers {
		src, err := r.render(plan)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", r.filename, err)
		}

		file, err := g.format(ctx, r.filename, src)
		if err != nil {
			return nil, err
		}

		res.Files = append(res.Files, *file)
	}

	for _, d := range res.Diagnostics.Warnings {
		g.logger.Warn("generation diagnostic", zap.String("code", d.Code), zap.String("message", d.String()))
	}

	g.logger.Info("artifacts generated",
		zap.Int("files", len(res.Files)),
		zap.Int("warnings", len(res.Diagnostics.Warnings)),
		zap.String("fingerprint", plan.Fingerprint()))

	return res, nil
}

// analysisNotes carries the analyzer's snapshot notes into the generation
// diagnostics.
func analysisNotes(snap *snapshot.Snapshot) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}
	for _, note := range snap.Notes {
		diags.AddInfo(diagnostic.CodeAnalysisNote, note, "snapshot", "")
	}

	return diags
}

// Write stores generated files under the configured output directory.
func (g *Generator) Write(ctx context.Context, files []GeneratedFile) error {
	store := g.store
	if store == nil {
		store = storage.New()
	}

	if err := WriteFiles(ctx, store, files, g.config.OutputDir); err != nil {
		return err
	}

	g.metrics.ArtifactsWritten(len(files))

	return nil
}

// EmitEnums renders only the enumerations file.
func EmitEnums(snap *snapshot.Snapshot, config GeneratorConfig) ([]byte, error) {
	return emitOne(snap, config, EnumsFile, RenderEnums)
}

// EmitRecords renders only the record definitions file.
func EmitRecords(snap *snapshot.Snapshot, config GeneratorConfig) ([]byte, error) {
	return emitOne(snap, config, RecordsFile, RenderRecords)
}

// EmitSchemas renders only the validation schemas file.
func EmitSchemas(snap *snapshot.Snapshot, config GeneratorConfig) ([]byte, error) {
	return emitOne(snap, config, SchemasFile, RenderSchemas)
}

func emitOne(snap *snapshot.Snapshot, config GeneratorConfig, filename string, render func(*Plan) ([]byte, error)) ([]byte, error) {
	if err := ValidateSnapshot(snap); err != nil {
		return nil, err
	}

	plan, err := NewPlan(snap, config)
	if err != nil {
		return nil, fmt.Errorf("planning identifiers: %w", err)
	}

	src, err := render(plan)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", filename, err)
	}

	formatted, err := imports.Process(filename, src, nil)
	if err != nil {
		return src, fmt.Errorf("formatting %s: %w", filename, err)
	}

	return formatted, nil
}

// format runs goimports over src. Unformattable output is kept next to the
// intended file for inspection.
func (g *Generator) format(ctx context.Context, filename string, src []byte) (*GeneratedFile, error) {
	formatted, err := imports.Process(filename, src, nil)
	if err != nil {
		if g.store != nil && g.config.OutputDir != "" {
			if werr := writeDebugUnformatted(ctx, g.store, g.config.OutputDir, filename, src); werr != nil {
				g.logger.Debug("unformatted output not saved", zap.Error(werr))
			}
		}

		return &GeneratedFile{Filename: filename, Content: src},
			fmt.Errorf("formatting %s: %w (unformatted code returned)", filename, err)
	}

	return &GeneratedFile{Filename: filename, Content: formatted}, nil
}

// ValidateSnapshot rejects snapshots that would produce ambiguous artifacts.
func ValidateSnapshot(snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}

	var diags diagnostic.Diagnostics

	seen := make(map[string]bool, len(snap.Categories))

	for i, c := range snap.Categories {
		if c == nil || c.Name == "" {
			diags.AddError(diagnostic.CodeEmptyCategoryName,
				fmt.Sprintf("category #%d has no name", i), "snapshot", "")

			continue
		}

		if seen[c.Name] {
			diags.AddError(diagnostic.CodeDuplicateField, "category listed twice", "snapshot", c.Name)
		}

		seen[c.Name] = true

		fields := make(map[string]bool, len(c.Fields))
		for _, f := range c.Fields {
			if fields[f.Name] {
				diags.AddError(diagnostic.CodeDuplicateField,
					fmt.Sprintf("field %q appears more than once", f.Name), "snapshot", c.Name)
			}

			fields[f.Name] = true
		}
	}

	if err := diags.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	return nil
}

func execute(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	return buf.Bytes(), nil
}

// fileHeader is shared by every generated file.
type fileHeader struct {
	PackageName string
	Source      string
	Fingerprint string
	Imports     []string
}

const fileHeaderTemplate = `// Code generated by schemadrift. DO NOT EDIT.
// Source: {{.Source}}
// Snapshot: {{.Fingerprint}}

package {{.PackageName}}
{{if .Imports}}
import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
)
{{end}}`

func (p *Plan) fileHeader(imports ...string) fileHeader {
	source := strings.Join(strings.Fields(p.snap.Metadata.Source), " ")
	if source == "" {
		source = common.UnknownStr
	}

	return fileHeader{
		PackageName: p.config.PackageName,
		Source:      source,
		Fingerprint: p.fingerprint,
		Imports:     imports,
	}
}

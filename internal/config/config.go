package config

import (
	"errors"
	"fmt"
	"slices"

	"schemadrift/internal/analyze"
	"schemadrift/internal/drift"
	"schemadrift/internal/gen"
	"schemadrift/internal/observability"
	"schemadrift/internal/profile"
)

// Config is the top-level configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Analysis   AnalysisConfig `mapstructure:"analysis"`
	Profile    ProfileConfig  `mapstructure:"profile"`
	Gen        GenConfig      `mapstructure:"gen"`
	Validation ValidateConfig `mapstructure:"validate"`
	Logging    LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig holds schema analyzer settings.
type AnalysisConfig struct {
	SampleRows      int      `mapstructure:"sample_rows"`
	BatchCandidates int      `mapstructure:"batch_candidates"`
	Workers         int      `mapstructure:"workers"`
	WellKnown       []string `mapstructure:"well_known"`
	IncludeTicks    bool     `mapstructure:"include_ticks"`
	TickFieldSample int      `mapstructure:"tick_field_sample"`
}

// ProfileConfig holds field descriptor settings.
type ProfileConfig struct {
	Verbosity               string `mapstructure:"verbosity"`
	LowCardinalityThreshold int    `mapstructure:"low_cardinality_threshold"`
	TopValues               int    `mapstructure:"top_values"`
	CardinalityCap          int    `mapstructure:"cardinality_cap"`
}

// GenConfig holds artifact generation settings.
type GenConfig struct {
	OutputDir        string   `mapstructure:"output_dir"`
	PackageName      string   `mapstructure:"package_name"`
	CategoryEnum     string   `mapstructure:"category_enum"`
	FieldEnum        string   `mapstructure:"field_enum"`
	HeaderOrder      []string `mapstructure:"header_order"`
	DottedHeaderKeys []string `mapstructure:"dotted_header_keys"`
	StrictSchemas    bool     `mapstructure:"strict_schemas"`
	Collisions       string   `mapstructure:"collisions"`
}

// ValidateConfig holds drift validation settings.
type ValidateConfig struct {
	CoverageThreshold float64 `mapstructure:"coverage_threshold"`
	SchemaRowLimit    int     `mapstructure:"schema_row_limit"`
	Suggestions       int     `mapstructure:"suggestions"`
	MaxIssues         int     `mapstructure:"max_issues"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Collision policies.
const (
	CollisionsSuffix = "suffix"
	CollisionsFail   = "fail"
)

// Default values.
const (
	DefaultSampleRows              = 3
	DefaultBatchCandidates         = 5
	DefaultWorkers                 = 1
	DefaultTickFieldSample         = 5
	DefaultVerbosity               = string(profile.VerbosityFull)
	DefaultLowCardinalityThreshold = 20
	DefaultTopValues               = 10
	DefaultCardinalityCap          = 10000
	DefaultOutputDir               = "./generated"
	DefaultCategoryEnum            = "Category"
	DefaultFieldEnum               = "Field"
	DefaultCollisions              = CollisionsSuffix
	DefaultCoverageThreshold       = 80.0
	DefaultSchemaRowLimit          = -1
	DefaultSuggestions             = 1
	DefaultMaxIssues               = 3
	DefaultLogLevel                = "info"
	DefaultLogFormat               = observability.FormatConsole
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidSampleRows      = errors.New("analysis.sample_rows must be non-negative")
	ErrInvalidWorkers         = errors.New("analysis.workers must be positive")
	ErrInvalidTickFieldSample = errors.New("analysis.tick_field_sample must be non-negative")
	ErrInvalidVerbosity       = errors.New("profile.verbosity must be full or basic")
	ErrInvalidTopValues       = errors.New("profile.top_values must be non-negative")
	ErrInvalidCardinalityCap  = errors.New("profile.cardinality_cap must be positive")
	ErrEmptyEnumName          = errors.New("gen.category_enum and gen.field_enum must be set and distinct")
	ErrInvalidCollisions      = errors.New("gen.collisions must be suffix or fail")
	ErrInvalidCoverage        = errors.New("validate.coverage_threshold must be between 0 and 100")
	ErrInvalidLogFormat       = errors.New("logging.format must be json or console")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Analysis.SampleRows < 0 {
		errs = append(errs, ErrInvalidSampleRows)
	}

	if c.Analysis.Workers < 1 {
		errs = append(errs, ErrInvalidWorkers)
	}

	if c.Analysis.TickFieldSample < 0 {
		errs = append(errs, ErrInvalidTickFieldSample)
	}

	if !slices.Contains([]string{string(profile.VerbosityFull), string(profile.VerbosityBasic)}, c.Profile.Verbosity) {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidVerbosity, c.Profile.Verbosity))
	}

	if c.Profile.TopValues < 0 {
		errs = append(errs, ErrInvalidTopValues)
	}

	if c.Profile.CardinalityCap < 1 {
		errs = append(errs, ErrInvalidCardinalityCap)
	}

	if c.Gen.CategoryEnum == "" || c.Gen.FieldEnum == "" || c.Gen.CategoryEnum == c.Gen.FieldEnum {
		errs = append(errs, ErrEmptyEnumName)
	}

	if c.Gen.Collisions != CollisionsSuffix && c.Gen.Collisions != CollisionsFail {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidCollisions, c.Gen.Collisions))
	}

	if c.Validation.CoverageThreshold < 0 || c.Validation.CoverageThreshold > 100 {
		errs = append(errs, ErrInvalidCoverage)
	}

	if c.Logging.Format != observability.FormatJSON && c.Logging.Format != observability.FormatConsole {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	return errors.Join(errs...)
}

// AnalyzerConfig converts the analysis and profile sections.
func (c *Config) AnalyzerConfig(toolVersion string) analyze.Config {
	return analyze.Config{
		SampleRows:      c.Analysis.SampleRows,
		BatchCandidates: c.Analysis.BatchCandidates,
		Workers:         c.Analysis.Workers,
		WellKnown:       slices.Clone(c.Analysis.WellKnown),
		IncludeTicks:    c.Analysis.IncludeTicks,
		TickFieldSample: c.Analysis.TickFieldSample,
		ToolVersion:     toolVersion,
		Profile: profile.Options{
			LowCardinalityThreshold: c.Profile.LowCardinalityThreshold,
			TopValues:               c.Profile.TopValues,
			CardinalityCap:          c.Profile.CardinalityCap,
			Verbosity:               profile.Verbosity(c.Profile.Verbosity),
		},
	}
}

// GeneratorConfig converts the gen section.
func (c *Config) GeneratorConfig() gen.GeneratorConfig {
	return gen.GeneratorConfig{
		PackageName:       c.Gen.PackageName,
		OutputDir:         c.Gen.OutputDir,
		CategoryEnum:      c.Gen.CategoryEnum,
		FieldEnum:         c.Gen.FieldEnum,
		HeaderOrder:       slices.Clone(c.Gen.HeaderOrder),
		DottedHeaderKeys:  slices.Clone(c.Gen.DottedHeaderKeys),
		StrictSchemas:     c.Gen.StrictSchemas,
		StrictIdentifiers: c.Gen.Collisions == CollisionsFail,
	}
}

// DriftConfig converts the validate section, sharing enum names and header
// keys with generation.
func (c *Config) DriftConfig() drift.Config {
	return drift.Config{
		CoverageThreshold: c.Validation.CoverageThreshold,
		CategoryEnum:      c.Gen.CategoryEnum,
		FieldEnum:         c.Gen.FieldEnum,
		DottedHeaderKeys:  slices.Clone(c.Gen.DottedHeaderKeys),
		StrictSchemas:     c.Gen.StrictSchemas,
		SchemaRowLimit:    c.Validation.SchemaRowLimit,
		Suggestions:       c.Validation.Suggestions,
	}
}

// RenderOptions converts the report settings.
func (c *Config) RenderOptions(noColor bool) drift.RenderOptions {
	return drift.RenderOptions{NoColor: noColor, MaxIssues: c.Validation.MaxIssues}
}

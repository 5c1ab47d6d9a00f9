package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemadrift/internal/config"
	"schemadrift/internal/drift"
	"schemadrift/internal/gen"
	"schemadrift/internal/profile"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.DefaultWorkers, cfg.Analysis.Workers)
	assert.Equal(t, config.CollisionsSuffix, cfg.Gen.Collisions)
	assert.InDelta(t, config.DefaultCoverageThreshold, cfg.Validation.CoverageThreshold, 1e-9)
	assert.Equal(t, gen.DefaultHeaderOrder, cfg.Gen.HeaderOrder)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schemadrift.yaml")
	content := `analysis:
  workers: 4
  well_known: [server_info]
  include_ticks: true
profile:
  verbosity: basic
gen:
  output_dir: ./out/demo
  collisions: fail
validate:
  coverage_threshold: 95
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, []string{"server_info"}, cfg.Analysis.WellKnown)
	assert.True(t, cfg.Analysis.IncludeTicks)
	assert.Equal(t, "basic", cfg.Profile.Verbosity)
	assert.Equal(t, config.DefaultTopValues, cfg.Profile.TopValues, "unset keys keep defaults")
	assert.InDelta(t, 95.0, cfg.Validation.CoverageThreshold, 1e-9)

	genCfg := cfg.GeneratorConfig()
	assert.Equal(t, "./out/demo", genCfg.OutputDir)
	assert.True(t, genCfg.StrictIdentifiers)

	an := cfg.AnalyzerConfig("v1.2.3")
	assert.Equal(t, profile.VerbosityBasic, an.Profile.Verbosity)
	assert.Equal(t, "v1.2.3", an.ToolVersion)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("SCHEMADRIFT_VALIDATE_COVERAGE_THRESHOLD", "50")
	t.Setenv("SCHEMADRIFT_LOGGING_LEVEL", "debug")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.InDelta(t, 50.0, cfg.Validation.CoverageThreshold, 1e-9)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := config.LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err, "an explicit path must exist")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("analysis: [unterminated"), 0o600))

	_, err = config.LoadConfig(broken)
	require.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("analysis:\n  workers: 0\n"), 0o600))

	_, err = config.LoadConfig(invalid)
	require.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"workers", func(c *config.Config) { c.Analysis.Workers = 0 }, config.ErrInvalidWorkers},
		{"sample rows", func(c *config.Config) { c.Analysis.SampleRows = -1 }, config.ErrInvalidSampleRows},
		{"tick sample", func(c *config.Config) { c.Analysis.TickFieldSample = -2 }, config.ErrInvalidTickFieldSample},
		{"verbosity", func(c *config.Config) { c.Profile.Verbosity = "loud" }, config.ErrInvalidVerbosity},
		{"top values", func(c *config.Config) { c.Profile.TopValues = -1 }, config.ErrInvalidTopValues},
		{"cardinality cap", func(c *config.Config) { c.Profile.CardinalityCap = 0 }, config.ErrInvalidCardinalityCap},
		{"same enum names", func(c *config.Config) { c.Gen.FieldEnum = c.Gen.CategoryEnum }, config.ErrEmptyEnumName},
		{"empty enum name", func(c *config.Config) { c.Gen.CategoryEnum = "" }, config.ErrEmptyEnumName},
		{"collisions", func(c *config.Config) { c.Gen.Collisions = "ignore" }, config.ErrInvalidCollisions},
		{"coverage", func(c *config.Config) { c.Validation.CoverageThreshold = 101 }, config.ErrInvalidCoverage},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConversions_MatchComponentDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, drift.DefaultConfig(), cfg.DriftConfig())

	genCfg := cfg.GeneratorConfig()
	assert.Equal(t, gen.DefaultGeneratorConfig(), genCfg)

	opts := cfg.RenderOptions(true)
	assert.True(t, opts.NoColor)
	assert.Equal(t, config.DefaultMaxIssues, opts.MaxIssues)
}

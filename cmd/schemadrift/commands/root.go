// Package commands implements the schemadrift subcommands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemadrift/internal/analyze"
	"schemadrift/internal/config"
	"schemadrift/internal/observability"
	"schemadrift/internal/source"
	_ "schemadrift/internal/source/filesource"
	_ "schemadrift/internal/source/sqlitesource"
	"schemadrift/internal/storage"
)

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	version string

	configPath  string
	logFormat   string
	metricsFile string
	verbose     bool

	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	store   *storage.Store
}

// NewRootCommand builds the schemadrift command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version, logger: zap.NewNop(), store: storage.New()}

	root := &cobra.Command{
		Use:   "schemadrift",
		Short: "Discover data-source schemas and detect drift",
		Long: `schemadrift samples a tabular data source and generates typed Go artifacts
from its schema, then validates later sources against them.

Commands:
  analyze   Print a schema snapshot of a source
  generate  Write a snapshot and the generated artifacts
  validate  Compare a source with a snapshot and artifacts`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: .schemadrift.yaml in the working or home directory)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides logging.format)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")

	root.AddCommand(
		newAnalyzeCommand(a),
		newGenerateCommand(a),
		newValidateCommand(a),
		newVersionCommand(a),
	)

	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	if a.metricsFile != "" {
		a.metrics = observability.NewMetrics()
	}

	return nil
}

// runE wraps a subcommand so that metrics are flushed whether or not it fails.
func (a *app) runE(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if terr := a.teardown(); err == nil {
				err = terr
			}
		}()

		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	_ = a.logger.Sync()

	if a.metrics == nil {
		return nil
	}

	return a.metrics.WriteTextfile(a.metricsFile)
}

func (a *app) analyzer() *analyze.Analyzer {
	return analyze.NewAnalyzer(a.cfg.AnalyzerConfig(a.version),
		analyze.WithLogger(a.logger),
		analyze.WithMetrics(a.metrics))
}

// withSource opens location, runs fn and closes the source on every path.
func (a *app) withSource(ctx context.Context, location string, fn func(source.Handle) error) (err error) {
	h, err := source.Open(ctx, location)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := h.Close(); cerr != nil {
			a.logger.Warn("closing source", zap.String("source", location), zap.Error(cerr))
		}
	}()

	return fn(h)
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schemadrift %s\n", a.version)
		},
	}
}

package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemadrift/internal/diagnostic"
	"schemadrift/internal/gen"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
	"schemadrift/internal/storage"
)

// DefaultSnapshotName is the snapshot file written next to the artifacts.
const DefaultSnapshotName = "snapshot.yaml"

type generateCommand struct {
	app      *app
	out      string
	snapshot string
	pkg      string
}

func newGenerateCommand(a *app) *cobra.Command {
	c := &generateCommand{app: a}

	cmd := &cobra.Command{
		Use:   "generate <source>",
		Short: "Write a snapshot and the generated artifacts",
		Long: `Analyze a source, persist its schema snapshot and generate the enums,
records and schemas Go files from it. Categories that fail to sample are
recorded in the snapshot and left out of the records and schemas.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runE(c.run),
	}

	cmd.Flags().StringVar(&c.out, "out", "", "output directory (default: gen.output_dir)")
	cmd.Flags().StringVar(&c.snapshot, "snapshot", "", "snapshot file, .yaml or .json (default: <out>/"+DefaultSnapshotName+")")
	cmd.Flags().StringVar(&c.pkg, "package", "", "generated package name (default: derived from the output directory)")

	return cmd
}

func (c *generateCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := c.app

	genCfg := a.cfg.GeneratorConfig()
	if c.out != "" {
		genCfg.OutputDir = c.out
	}

	if c.pkg != "" {
		genCfg.PackageName = c.pkg
	}

	snapPath := c.snapshot
	if snapPath == "" {
		snapPath = storage.Join(genCfg.OutputDir, DefaultSnapshotName)
	}

	var snap *snapshot.Snapshot

	err := a.withSource(ctx, args[0], func(h source.Handle) error {
		var err error
		snap, err = a.analyzer().Analyze(ctx, h)

		return err
	})
	if err != nil {
		return err
	}

	if err := snapshot.Save(ctx, a.store, snap, snapPath); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	g := gen.NewGenerator(genCfg,
		gen.WithStore(a.store),
		gen.WithLogger(a.logger),
		gen.WithMetrics(a.metrics))

	res, err := g.Generate(ctx, snap)
	if err != nil {
		return err
	}

	if err := g.Write(ctx, res.Files); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	var total int
	for _, f := range res.Files {
		total += len(f.Content)
		fmt.Fprintf(out, "wrote %s (%s)\n", storage.Join(genCfg.OutputDir, f.Filename), humanize.Bytes(uint64(len(f.Content))))
	}

	fmt.Fprintf(out, "wrote %s\n", snapPath)
	fmt.Fprintf(out, "%d categories (%d failed), %d fields, %d warnings\n",
		snap.Summary.TotalCategories, snap.Summary.FailedCategories,
		snap.Summary.FieldCatalogSize, len(res.Diagnostics.Warnings))

	if n := len(res.Diagnostics.ByCode(diagnostic.CodeFieldError)); n > 0 {
		fmt.Fprintf(out, "%d fields without statistics\n", n)
	}

	if n := len(res.Diagnostics.ByCode(diagnostic.CodeAnalysisNote)); n > 0 {
		fmt.Fprintf(out, "%d analysis notes in %s\n", n, snapPath)
	}

	for _, d := range res.Diagnostics.Warnings {
		fmt.Fprintf(out, "warning: %s\n", d.String())
	}

	a.logger.Debug("generate finished", zap.Int("bytes", total), zap.String("fingerprint", res.Plan.Fingerprint()))

	return nil
}

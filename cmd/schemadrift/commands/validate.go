package commands

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"schemadrift/internal/artifact"
	"schemadrift/internal/drift"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// ErrChecksFailed is returned when at least one check failed or errored.
var ErrChecksFailed = errors.New("validation failed")

type validateCommand struct {
	app       *app
	snapshot  string
	artifacts string
	report    string
	noColor   bool
}

func newValidateCommand(a *app) *cobra.Command {
	c := &validateCommand{app: a}

	cmd := &cobra.Command{
		Use:   "validate <source>",
		Short: "Compare a source with a snapshot and artifacts",
		Long: `Re-analyze a source and check it against a prior snapshot and the
generated artifacts. The command exits non-zero only when a check failed or
errored; warnings and missing inputs never fail the run.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runE(c.run),
	}

	cmd.Flags().StringVar(&c.snapshot, "snapshot", "", "prior snapshot file")
	cmd.Flags().StringVar(&c.artifacts, "artifacts", "", "directory holding the generated files (default: gen.output_dir)")
	cmd.Flags().StringVar(&c.report, "report", "", "also write the report to this file, .yaml or .json")
	cmd.Flags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (c *validateCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := c.app

	var prior *snapshot.Snapshot

	if c.snapshot != "" {
		var err error
		if prior, err = snapshot.Load(ctx, a.store, c.snapshot); err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
	}

	dir := c.artifacts
	if dir == "" {
		dir = a.cfg.Gen.OutputDir
	}

	set, err := artifact.Load(ctx, a.store, dir)
	if err != nil {
		return fmt.Errorf("loading artifacts: %w", err)
	}

	v := drift.NewValidator(a.cfg.DriftConfig(),
		drift.WithAnalyzer(a.analyzer()),
		drift.WithLogger(a.logger),
		drift.WithMetrics(a.metrics))

	var report *drift.Report

	err = a.withSource(ctx, args[0], func(h source.Handle) error {
		var err error
		report, err = v.Validate(ctx, h, prior, set)

		return err
	})
	if err != nil {
		return err
	}

	if err := report.Render(cmd.OutOrStdout(), a.cfg.RenderOptions(c.noColor)); err != nil {
		return err
	}

	if c.report != "" {
		var buf bytes.Buffer
		if err := report.Encode(&buf, snapshot.FormatFromPath(c.report)); err != nil {
			return err
		}

		if err := a.store.Write(ctx, c.report, buf.Bytes()); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if !report.Passed() {
		return ErrChecksFailed
	}

	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

type analyzeCommand struct {
	app    *app
	output string
	format string
}

func newAnalyzeCommand(a *app) *cobra.Command {
	c := &analyzeCommand{app: a}

	cmd := &cobra.Command{
		Use:   "analyze <source>",
		Short: "Print a schema snapshot of a source",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runE(c.run),
	}

	cmd.Flags().StringVarP(&c.output, "output", "o", "", "write the snapshot to this file instead of stdout")
	cmd.Flags().StringVarP(&c.format, "format", "f", "yaml", "stdout format: yaml or json")

	return cmd
}

func (c *analyzeCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var format snapshot.Format

	switch c.format {
	case "yaml", "yml":
		format = snapshot.FormatYAML
	case "json":
		format = snapshot.FormatJSON
	default:
		return fmt.Errorf("unknown format %q", c.format)
	}

	return c.app.withSource(ctx, args[0], func(h source.Handle) error {
		snap, err := c.app.analyzer().Analyze(ctx, h)
		if err != nil {
			return err
		}

		if c.output != "" {
			return snapshot.Save(ctx, c.app.store, snap, c.output)
		}

		data, err := snapshot.Marshal(snap, format)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)

		return err
	})
}

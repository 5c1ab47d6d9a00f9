package analyze

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// checkBatchConsistency fetches the first BatchCandidates successful listed
// categories in one batch call and compares the result with the single
// fetches already profiled. Differences are returned as notes.
func (a *Analyzer) checkBatchConsistency(ctx context.Context, src source.Adapter, snap *snapshot.Snapshot) []string {
	if a.cfg.BatchCandidates == 0 {
		return nil
	}

	var candidates []*snapshot.Category

	for _, c := range snap.Categories {
		if len(candidates) == a.cfg.BatchCandidates {
			break
		}

		if !c.Failed() && !c.WellKnown {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	var batches []source.NamedBatch

	err := guard(func() error {
		var err error
		batches, err = src.FetchBatches(ctx, names)

		return err
	})
	if err != nil {
		a.logger.Warn("batch fetch failed", zap.Strings("categories", names), zap.Error(err))
		return []string{fmt.Sprintf("batch fetch consistency: batch fetch of %d categories failed: %v", len(names), err)}
	}

	byName := make(map[string]*source.Batch, len(batches))
	for _, nb := range batches {
		byName[nb.Name] = nb.Batch
	}

	var notes []string

	for _, c := range candidates {
		b, ok := byName[c.Name]
		if !ok {
			notes = append(notes, fmt.Sprintf("batch fetch consistency: %q missing from batch result", c.Name))
			continue
		}

		if rows := b.Rows(); rows != c.RowCount {
			notes = append(notes, fmt.Sprintf("batch fetch consistency: %q has %d rows in batch, %d in single fetch",
				c.Name, rows, c.RowCount))
		}

		if cols := b.ColumnNames(); !slices.Equal(cols, c.FieldNames()) {
			notes = append(notes, fmt.Sprintf("batch fetch consistency: %q columns differ: batch %v, single %v",
				c.Name, cols, c.FieldNames()))
		}
	}

	for _, nb := range batches {
		if !slices.Contains(names, nb.Name) {
			notes = append(notes, fmt.Sprintf("batch fetch consistency: unexpected category %q in batch result", nb.Name))
		}
	}

	return notes
}

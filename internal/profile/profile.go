package profile

import (
	"cmp"
	"fmt"
	"slices"
	"unicode/utf8"

	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// Verbosity controls how much detail a descriptor carries.
type Verbosity string

const (
	// VerbosityFull records statistics and top values.
	VerbosityFull Verbosity = "full"
	// VerbosityBasic records kind, nullability and cardinality only.
	VerbosityBasic Verbosity = "basic"
)

// Options configures a Builder.
type Options struct {
	// LowCardinalityThreshold is the cardinality at or below which top values are kept.
	LowCardinalityThreshold int
	// TopValues is the number of most frequent values kept for low-cardinality fields.
	TopValues int
	// CardinalityCap bounds distinct-value tracking per column.
	CardinalityCap int
	// Verbosity selects full or basic descriptors.
	Verbosity Verbosity
}

// DefaultOptions returns the default profiling options.
func DefaultOptions() Options {
	return Options{
		LowCardinalityThreshold: 20,
		TopValues:               10,
		CardinalityCap:          10000,
		Verbosity:               VerbosityFull,
	}
}

// Builder turns sampled columns into field descriptors.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder. Zero-valued limits fall back to the defaults.
func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.LowCardinalityThreshold <= 0 {
		opts.LowCardinalityThreshold = def.LowCardinalityThreshold
	}

	if opts.TopValues <= 0 {
		opts.TopValues = def.TopValues
	}

	if opts.CardinalityCap < opts.LowCardinalityThreshold {
		opts.CardinalityCap = max(def.CardinalityCap, opts.LowCardinalityThreshold)
	}

	if opts.Verbosity == "" {
		opts.Verbosity = def.Verbosity
	}

	return &Builder{opts: opts}
}

// BuildBatch profiles every column of b in batch order.
func (b *Builder) BuildBatch(batch *source.Batch) []snapshot.Field {
	if batch == nil {
		return []snapshot.Field{}
	}

	fields := make([]snapshot.Field, 0, len(batch.Columns))
	for i := range batch.Columns {
		fields = append(fields, b.BuildColumn(&batch.Columns[i]))
	}

	return fields
}

// BuildColumn profiles one column. It never panics; failures are recorded in
// the descriptor's Error.
func (b *Builder) BuildColumn(col *source.Column) (field snapshot.Field) {
	field = snapshot.Field{
		Name:         col.Name,
		DeclaredType: col.DeclaredType,
	}

	defer func() {
		if r := recover(); r != nil {
			field.Kind = snapshot.KindUnknown
			field.Numeric = nil
			field.Text = nil
			field.Error = fmt.Sprintf("profiling failed: %v", r)
		}
	}()

	field.Kind = inferKind(col.DeclaredType, col.Values)

	nonNull := make([]any, 0, len(col.Values))

	for _, v := range col.Values {
		if v == nil {
			field.NullCount++
			continue
		}

		nonNull = append(nonNull, v)
	}

	field.Nullable = field.NullCount > 0

	counts, capped := b.countDistinct(nonNull)
	field.Cardinality = len(counts)
	field.CardinalityCapped = capped

	if b.opts.Verbosity == VerbosityBasic || len(nonNull) == 0 {
		return field
	}

	if !capped && field.Cardinality <= b.opts.LowCardinalityThreshold {
		field.TopValues = topValues(counts, b.opts.TopValues)
	}

	switch {
	case field.Kind.IsNumeric():
		stats, err := numericStats(nonNull)
		if err != nil {
			field.Kind = snapshot.KindUnknown
			field.Error = err.Error()
		} else {
			field.Numeric = stats
		}
	case field.Kind == snapshot.KindText || field.Kind == snapshot.KindBinary:
		field.Text = lengthStats(nonNull)
	}

	return field
}

// BuildHeader infers a kind for each header value. Header entries carry no statistics.
func (b *Builder) BuildHeader(h *source.Header) []snapshot.HeaderEntry {
	if h == nil {
		return []snapshot.HeaderEntry{}
	}

	entries := make([]snapshot.HeaderEntry, 0, len(h.Keys))

	for _, key := range h.Keys {
		v := h.Values[key]
		entries = append(entries, snapshot.HeaderEntry{
			Key:   key,
			Kind:  KindOfValue(v),
			Value: display(v),
		})
	}

	return entries
}

func (b *Builder) countDistinct(values []any) (map[string]int, bool) {
	counts := make(map[string]int)

	for _, v := range values {
		key := display(v)
		if _, ok := counts[key]; !ok && len(counts) >= b.opts.CardinalityCap {
			return counts, true
		}

		counts[key]++
	}

	return counts, false
}

func topValues(counts map[string]int, n int) []snapshot.ValueCount {
	out := make([]snapshot.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, snapshot.ValueCount{Value: v, Count: c})
	}

	slices.SortFunc(out, func(a, b snapshot.ValueCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Value, b.Value)
	})

	if len(out) > n {
		out = out[:n]
	}

	return out
}

func numericStats(values []any) (*snapshot.NumericStats, error) {
	floats := make([]float64, 0, len(values))

	for i, v := range values {
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("non-null value %d: %w", i, err)
		}

		floats = append(floats, f)
	}

	lo, hi := minMax(floats)
	mean, stddev := meanStdDev(floats)

	return &snapshot.NumericStats{
		Min:    snapshot.Stat(lo),
		Max:    snapshot.Stat(hi),
		Mean:   snapshot.Stat(mean),
		StdDev: snapshot.Stat(stddev),
	}, nil
}

func lengthStats(values []any) *snapshot.TextStats {
	stats := &snapshot.TextStats{MinLength: -1}

	var total int

	for _, v := range values {
		var n int

		switch x := v.(type) {
		case []byte:
			n = len(x)
		case string:
			n = utf8.RuneCountInString(x)
		default:
			n = utf8.RuneCountInString(fmt.Sprint(x))
		}

		total += n

		if stats.MinLength < 0 || n < stats.MinLength {
			stats.MinLength = n
		}

		stats.MaxLength = max(stats.MaxLength, n)
	}

	stats.MeanLength = snapshot.Stat(float64(total) / float64(len(values)))

	return stats
}

// display renders a value for top-value and header output.
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

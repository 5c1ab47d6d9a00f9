package snapshot

import (
	"slices"
	"time"
)

// Snapshot is the result of one analysis pass. It is built once by the
// analyzer and only read afterwards.
type Snapshot struct {
	Metadata     Metadata         `yaml:"metadata" json:"metadata"`
	Summary      Summary          `yaml:"summary" json:"summary"`
	Categories   []*Category      `yaml:"categories" json:"categories"`
	FieldCatalog []string         `yaml:"field_catalog" json:"field_catalog"`
	Header       []HeaderEntry    `yaml:"header" json:"header"`
	Blobs        []BlobCollection `yaml:"blobs,omitempty" json:"blobs,omitempty"`
	Ticks        *Category        `yaml:"ticks,omitempty" json:"ticks,omitempty"`
	Notes        []string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Metadata identifies the run and the analyzed source.
type Metadata struct {
	RunID       string    `yaml:"run_id" json:"run_id"`
	Source      string    `yaml:"source" json:"source"`
	SizeBytes   int64     `yaml:"size_bytes" json:"size_bytes"`
	Size        string    `yaml:"size,omitempty" json:"size,omitempty"`
	AnalyzedAt  time.Time `yaml:"analyzed_at" json:"analyzed_at"`
	ToolVersion string    `yaml:"tool_version,omitempty" json:"tool_version,omitempty"`
}

// Summary counts what the analysis found.
type Summary struct {
	TotalCategories      int `yaml:"total_categories" json:"total_categories"`
	SuccessfulCategories int `yaml:"successful_categories" json:"successful_categories"`
	FailedCategories     int `yaml:"failed_categories" json:"failed_categories"`
	FieldCatalogSize     int `yaml:"field_catalog_size" json:"field_catalog_size"`
	HeaderFields         int `yaml:"header_fields" json:"header_fields"`
	BlobCollections      int `yaml:"blob_collections" json:"blob_collections"`
}

// Category describes one category of the source.
type Category struct {
	Name string `yaml:"name" json:"name"`
	// WellKnown marks categories fetched by configuration rather than listed by the source.
	WellKnown bool             `yaml:"well_known,omitempty" json:"well_known,omitempty"`
	RowCount  int              `yaml:"row_count" json:"row_count"`
	Fields    []Field          `yaml:"fields" json:"fields"`
	Sample    []map[string]any `yaml:"sample,omitempty" json:"sample,omitempty"`
	// Error is set when the category could not be fetched; Fields is then empty.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Failed reports whether the category carries an error marker.
func (c *Category) Failed() bool {
	return c.Error != ""
}

// Field returns the named field.
func (c *Category) Field(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}

	return nil, false
}

// FieldNames returns the field names in source order.
func (c *Category) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}

	return names
}

// Field describes one column of a category.
type Field struct {
	Name              string        `yaml:"name" json:"name"`
	Kind              Kind          `yaml:"kind" json:"kind"`
	DeclaredType      string        `yaml:"declared_type,omitempty" json:"declared_type,omitempty"`
	Nullable          bool          `yaml:"nullable" json:"nullable"`
	NullCount         int           `yaml:"null_count" json:"null_count"`
	Cardinality       int           `yaml:"cardinality" json:"cardinality"`
	CardinalityCapped bool          `yaml:"cardinality_capped,omitempty" json:"cardinality_capped,omitempty"`
	TopValues         []ValueCount  `yaml:"top_values,omitempty" json:"top_values,omitempty"`
	Numeric           *NumericStats `yaml:"numeric,omitempty" json:"numeric,omitempty"`
	Text              *TextStats    `yaml:"text,omitempty" json:"text,omitempty"`
	// Error is set when profiling the column failed part way.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// ValueCount is one frequent value of a low-cardinality field.
type ValueCount struct {
	Value string `yaml:"value" json:"value"`
	Count int    `yaml:"count" json:"count"`
}

// NumericStats summarises a numeric field.
type NumericStats struct {
	Min    Stat `yaml:"min" json:"min"`
	Max    Stat `yaml:"max" json:"max"`
	Mean   Stat `yaml:"mean" json:"mean"`
	StdDev Stat `yaml:"stddev" json:"stddev"`
}

// TextStats summarises value lengths of a text or binary field.
type TextStats struct {
	MinLength  int  `yaml:"min_length" json:"min_length"`
	MaxLength  int  `yaml:"max_length" json:"max_length"`
	MeanLength Stat `yaml:"mean_length" json:"mean_length"`
}

// HeaderEntry is one header key with its inferred kind and a printable value.
type HeaderEntry struct {
	Key   string `yaml:"key" json:"key"`
	Kind  Kind   `yaml:"kind" json:"kind"`
	Value string `yaml:"value" json:"value"`
}

// BlobCollection summarises a keyed binary collection without its contents.
type BlobCollection struct {
	Name       string   `yaml:"name" json:"name"`
	Count      int      `yaml:"count" json:"count"`
	TotalBytes int64    `yaml:"total_bytes" json:"total_bytes"`
	SampleKeys []string `yaml:"sample_keys,omitempty" json:"sample_keys,omitempty"`
}

// Category returns the named category.
func (s *Snapshot) Category(name string) (*Category, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

// CategoryNames returns every category name in analysis order.
func (s *Snapshot) CategoryNames() []string {
	names := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		names[i] = c.Name
	}

	return names
}

// ListedCategoryNames returns the names the source itself enumerated, sorted.
// Well-known categories are excluded.
func (s *Snapshot) ListedCategoryNames() []string {
	var names []string

	for _, c := range s.Categories {
		if !c.WellKnown {
			names = append(names, c.Name)
		}
	}

	slices.Sort(names)

	return names
}

// HeaderKeys returns header keys in source order.
func (s *Snapshot) HeaderKeys() []string {
	keys := make([]string, len(s.Header))
	for i, h := range s.Header {
		keys[i] = h.Key
	}

	return keys
}

// HeaderEntry returns the entry for key.
func (s *Snapshot) HeaderEntry(key string) (HeaderEntry, bool) {
	for _, h := range s.Header {
		if h.Key == key {
			return h, true
		}
	}

	return HeaderEntry{}, false
}

// BlobNames returns blob collection names, sorted.
func (s *Snapshot) BlobNames() []string {
	names := make([]string, len(s.Blobs))
	for i, b := range s.Blobs {
		names[i] = b.Name
	}

	slices.Sort(names)

	return names
}

// Summarize recomputes Summary from the snapshot content.
func (s *Snapshot) Summarize() {
	sum := Summary{
		TotalCategories:  len(s.Categories),
		FieldCatalogSize: len(s.FieldCatalog),
		HeaderFields:     len(s.Header),
		BlobCollections:  len(s.Blobs),
	}

	for _, c := range s.Categories {
		if c.Failed() {
			sum.FailedCategories++
		} else {
			sum.SuccessfulCategories++
		}
	}

	s.Summary = sum
}

package source

import "fmt"

// Column is one named column of a Batch. A nil entry in Values is a null.
type Column struct {
	Name string
	// DeclaredType is the source's own type label for the column
	// (for example "int64", "VARCHAR", "float"). It may be empty.
	DeclaredType string
	Values       []any
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// Batch is a columnar set of rows for one category.
type Batch struct {
	Columns []Column
}

// NamedBatch pairs a Batch with its category name.
type NamedBatch struct {
	Name  string
	Batch *Batch
}

// NewBatch builds a Batch and checks that all columns have the same length.
func NewBatch(columns ...Column) (*Batch, error) {
	b := &Batch{Columns: columns}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	return b, nil
}

// Validate reports ragged columns and duplicate column names.
func (b *Batch) Validate() error {
	seen := make(map[string]struct{}, len(b.Columns))

	for i, c := range b.Columns {
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}

		seen[c.Name] = struct{}{}

		if i > 0 && c.Len() != b.Columns[0].Len() {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), b.Columns[0].Len())
		}
	}

	return nil
}

// Rows returns the number of rows in the batch.
func (b *Batch) Rows() int {
	if b == nil || len(b.Columns) == 0 {
		return 0
	}

	return b.Columns[0].Len()
}

// ColumnNames returns the column names in batch order.
func (b *Batch) ColumnNames() []string {
	if b == nil {
		return nil
	}

	names := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		names[i] = c.Name
	}

	return names
}

// Column returns the named column.
func (b *Batch) Column(name string) (*Column, bool) {
	if b == nil {
		return nil, false
	}

	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i], true
		}
	}

	return nil, false
}

// Records returns up to limit rows as column-name keyed maps.
// A negative limit returns every row.
func (b *Batch) Records(limit int) []map[string]any {
	n := b.Rows()
	if limit >= 0 && limit < n {
		n = limit
	}

	out := make([]map[string]any, n)
	for i := range n {
		row := make(map[string]any, len(b.Columns))
		for _, c := range b.Columns {
			row[c.Name] = c.Values[i]
		}

		out[i] = row
	}

	return out
}

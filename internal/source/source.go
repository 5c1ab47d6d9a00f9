package source

import (
	"context"
	"io"
)

// Adapter is the read contract every source implements.
type Adapter interface {
	// ListCategories returns the category names in source order.
	ListCategories(ctx context.Context) ([]string, error)
	// FetchBatch returns every row of one category. Categories that cannot be
	// produced fail with an error matching ErrCategoryUnavailable.
	FetchBatch(ctx context.Context, name string) (*Batch, error)
	// FetchBatches fetches several categories in one call.
	FetchBatches(ctx context.Context, names []string) ([]NamedBatch, error)
	// FetchHeader returns the source-level scalar attributes.
	FetchHeader(ctx context.Context) (*Header, error)
	// ListPrimitiveFields returns the names of all primitive fields the source knows.
	ListPrimitiveFields(ctx context.Context) ([]string, error)
}

// BlobSource is implemented by sources that carry keyed binary collections.
type BlobSource interface {
	BlobCollections(ctx context.Context) ([]string, error)
	FetchBlobCollection(ctx context.Context, name string) (map[string][]byte, error)
}

// TickSource is implemented by sources that can sample per-tick field values.
type TickSource interface {
	FetchTicks(ctx context.Context, fields []string) (*Batch, error)
}

// Description identifies a source for snapshot metadata.
type Description struct {
	// ID is a stable identifier such as a file path.
	ID string
	// SizeBytes is the size of the underlying data, or 0 when unknown.
	SizeBytes int64
}

// Describer is implemented by sources that can describe themselves.
type Describer interface {
	Describe() Description
}

// Handle is an opened source that must be closed when the run ends.
type Handle interface {
	Adapter
	io.Closer
}

// Header holds scalar source attributes in source order.
type Header struct {
	Keys   []string
	Values map[string]any
}

// NewHeader builds a Header from ordered keys and their values.
func NewHeader(keys []string, values map[string]any) *Header {
	return &Header{Keys: keys, Values: values}
}

// Get returns the value for key.
func (h *Header) Get(key string) (any, bool) {
	if h == nil {
		return nil, false
	}

	v, ok := h.Values[key]

	return v, ok
}

// Len returns the number of header keys.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}

	return len(h.Keys)
}

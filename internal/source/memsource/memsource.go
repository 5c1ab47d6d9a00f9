package memsource

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"schemadrift/internal/source"
)

// Source is an in-memory source. The zero value is not usable; call New.
type Source struct {
	mu sync.Mutex

	id       string
	order    []string
	batches  map[string]*source.Batch
	failures map[string]error
	panics   map[string]any
	header   *source.Header
	fields   []string
	blobs    map[string]map[string][]byte
	ticks    *source.Batch

	listErr   error
	headerErr error
	fieldsErr error

	// batchOverrides replaces what FetchBatches returns for a name.
	batchOverrides map[string]*source.Batch

	fetches int
	closed  bool
}

var (
	_ source.Handle     = (*Source)(nil)
	_ source.BlobSource = (*Source)(nil)
	_ source.TickSource = (*Source)(nil)
	_ source.Describer  = (*Source)(nil)
)

// New creates an empty in-memory source with the given identifier.
func New(id string) *Source {
	return &Source{
		id:             id,
		batches:        make(map[string]*source.Batch),
		failures:       make(map[string]error),
		panics:         make(map[string]any),
		header:         source.NewHeader(nil, map[string]any{}),
		blobs:          make(map[string]map[string][]byte),
		batchOverrides: make(map[string]*source.Batch),
	}
}

// AddCategory appends a category backed by the given columns.
func (s *Source) AddCategory(name string, columns ...source.Column) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[name]; !ok && !slices.Contains(s.order, name) {
		s.order = append(s.order, name)
	}

	s.batches[name] = &source.Batch{Columns: columns}

	return s
}

// Fail makes FetchBatch for name return err wrapped as unavailable. The
// category stays listed.
func (s *Source) Fail(name string, err error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.order, name) {
		s.order = append(s.order, name)
	}

	s.failures[name] = err

	return s
}

// Panic makes FetchBatch for name panic with v.
func (s *Source) Panic(name string, v any) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.order, name) {
		s.order = append(s.order, name)
	}

	s.panics[name] = v

	return s
}

// Hide keeps name fetchable but removes it from ListCategories.
func (s *Source) Hide(name string) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })

	return s
}

// OverrideBatch makes FetchBatches return b for name instead of the regular batch.
func (s *Source) OverrideBatch(name string, b *source.Batch) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchOverrides[name] = b

	return s
}

// SetHeader replaces the header. Keys keep the given order.
func (s *Source) SetHeader(keys []string, values map[string]any) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.header = source.NewHeader(keys, values)

	return s
}

// SetFields replaces the primitive field catalog.
func (s *Source) SetFields(fields ...string) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields = fields

	return s
}

// AddBlobCollection adds a keyed binary collection.
func (s *Source) AddBlobCollection(name string, entries map[string][]byte) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[name] = entries

	return s
}

// SetTicks sets the batch returned for tick sampling. Only requested columns are returned.
func (s *Source) SetTicks(b *source.Batch) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks = b

	return s
}

// FailListing makes ListCategories fail.
func (s *Source) FailListing(err error) *Source {
	s.listErr = err
	return s
}

// FailHeader makes FetchHeader fail.
func (s *Source) FailHeader(err error) *Source {
	s.headerErr = err
	return s
}

// FailFields makes ListPrimitiveFields fail.
func (s *Source) FailFields(err error) *Source {
	s.fieldsErr = err
	return s
}

// Fetches returns how many FetchBatch calls were made.
func (s *Source) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fetches
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// ListCategories implements source.Adapter.
func (s *Source) ListCategories(_ context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.order), nil
}

// FetchBatch implements source.Adapter.
func (s *Source) FetchBatch(ctx context.Context, name string) (*source.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.fetches++
	b, ok := s.batches[name]
	failure := s.failures[name]
	p, panics := s.panics[name]
	s.mu.Unlock()

	if panics {
		panic(p)
	}

	if failure != nil {
		return nil, source.Unavailable(name, failure)
	}

	if !ok {
		return nil, source.Unavailable(name, fmt.Errorf("no such category"))
	}

	return b, nil
}

// FetchBatches implements source.Adapter.
func (s *Source) FetchBatches(ctx context.Context, names []string) ([]source.NamedBatch, error) {
	out := make([]source.NamedBatch, 0, len(names))

	for _, name := range names {
		s.mu.Lock()
		override, ok := s.batchOverrides[name]
		s.mu.Unlock()

		if ok {
			out = append(out, source.NamedBatch{Name: name, Batch: override})
			continue
		}

		b, err := s.FetchBatch(ctx, name)
		if err != nil {
			return nil, err
		}

		out = append(out, source.NamedBatch{Name: name, Batch: b})
	}

	return out, nil
}

// FetchHeader implements source.Adapter.
func (s *Source) FetchHeader(_ context.Context) (*source.Header, error) {
	if s.headerErr != nil {
		return nil, s.headerErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return source.NewHeader(slices.Clone(s.header.Keys), maps.Clone(s.header.Values)), nil
}

// ListPrimitiveFields implements source.Adapter.
func (s *Source) ListPrimitiveFields(_ context.Context) ([]string, error) {
	if s.fieldsErr != nil {
		return nil, s.fieldsErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.fields), nil
}

// BlobCollections implements source.BlobSource.
func (s *Source) BlobCollections(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.blobs)), nil
}

// FetchBlobCollection implements source.BlobSource.
func (s *Source) FetchBlobCollection(_ context.Context, name string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("no blob collection %q", name)
	}

	return maps.Clone(entries), nil
}

// FetchTicks implements source.TickSource.
func (s *Source) FetchTicks(_ context.Context, fields []string) (*source.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticks == nil {
		return nil, fmt.Errorf("no tick data")
	}

	out := &source.Batch{}

	for _, f := range fields {
		if col, ok := s.ticks.Column(f); ok {
			out.Columns = append(out.Columns, *col)
		}
	}

	return out, nil
}

// Describe implements source.Describer.
func (s *Source) Describe() source.Description {
	return source.Description{ID: s.id}
}

// Close implements io.Closer.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

// Plain returns a view of s that exposes only the required Adapter methods,
// hiding blob, tick and description capabilities.
func (s *Source) Plain() source.Handle {
	return plain{s: s}
}

type plain struct {
	s *Source
}

func (p plain) ListCategories(ctx context.Context) ([]string, error) {
	return p.s.ListCategories(ctx)
}

func (p plain) FetchBatch(ctx context.Context, name string) (*source.Batch, error) {
	return p.s.FetchBatch(ctx, name)
}

func (p plain) FetchBatches(ctx context.Context, names []string) ([]source.NamedBatch, error) {
	return p.s.FetchBatches(ctx, names)
}

func (p plain) FetchHeader(ctx context.Context) (*source.Header, error) {
	return p.s.FetchHeader(ctx)
}

func (p plain) ListPrimitiveFields(ctx context.Context) ([]string, error) {
	return p.s.ListPrimitiveFields(ctx)
}

func (p plain) Close() error { return p.s.Close() }

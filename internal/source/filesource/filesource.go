package filesource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"schemadrift/internal/source"
	"schemadrift/internal/source/memsource"
	"schemadrift/internal/storage"
)

func init() {
	source.Register(Opener{Store: storage.New()})
}

// Opener opens fixture documents.
type Opener struct {
	Store *storage.Store
}

var _ source.Opener = Opener{}

// Name implements source.Opener.
func (Opener) Name() string { return "file" }

// Accepts implements source.Opener.
func (Opener) Accepts(location string) bool {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml", ".json":
		return true
	}

	return false
}

// Open implements source.Opener.
func (o Opener) Open(ctx context.Context, location string) (source.Handle, error) {
	data, err := o.Store.Read(ctx, location)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	id := doc.ID
	if id == "" {
		id = location
	}

	return Build(id, doc)
}

// Build turns a parsed document into an in-memory source.
func Build(id string, doc *Document) (*memsource.Source, error) {
	src := memsource.New(id)

	for _, c := range doc.Categories {
		if c.Error != "" {
			src.Fail(c.Name, errors.New(c.Error))
			continue
		}

		cols, err := columns(c.Columns)
		if err != nil {
			return nil, fmt.Errorf("%w: category %q: %w", ErrInvalidDocument, c.Name, err)
		}

		src.AddCategory(c.Name, cols...)

		if c.Hidden {
			src.Hide(c.Name)
		}
	}

	keys, values, err := doc.header()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	src.SetHeader(keys, values)
	src.SetFields(doc.Fields...)

	blobs, err := doc.blobs()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	for name, entries := range blobs {
		src.AddBlobCollection(name, entries)
	}

	if doc.Ticks != nil {
		cols, err := columns(doc.Ticks.Columns)
		if err != nil {
			return nil, fmt.Errorf("%w: ticks: %w", ErrInvalidDocument, err)
		}

		src.SetTicks(&source.Batch{Columns: cols})
	}

	return src, nil
}

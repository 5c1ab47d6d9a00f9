package filesource

import (
	"encoding/base64"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"schemadrift/internal/profile"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/source"
)

// ErrInvalidDocument is returned for fixtures that do not describe a source.
var ErrInvalidDocument = errors.New("invalid fixture document")

// Document is the fixture layout.
type Document struct {
	ID         string                       `yaml:"id"`
	Categories []CategoryDoc                `yaml:"categories"`
	Header     yaml.Node                    `yaml:"header"`
	Fields     []string                     `yaml:"fields"`
	Blobs      map[string]map[string]string `yaml:"blobs"`
	Ticks      *BatchDoc                    `yaml:"ticks"`
}

// CategoryDoc is one category. A non-empty Error makes the category
// unavailable; Hidden keeps it fetchable but unlisted.
type CategoryDoc struct {
	Name    string      `yaml:"name"`
	Columns []ColumnDoc `yaml:"columns"`
	Error   string      `yaml:"error"`
	Hidden  bool        `yaml:"hidden"`
}

// BatchDoc is a bare column list.
type BatchDoc struct {
	Columns []ColumnDoc `yaml:"columns"`
}

// ColumnDoc is one column. Binary columns carry base64 text.
type ColumnDoc struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Values []any  `yaml:"values"`
}

// Parse decodes a fixture. JSON input is accepted since it is valid YAML.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	seen := make(map[string]struct{}, len(doc.Categories))

	for _, c := range doc.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: category without a name", ErrInvalidDocument)
		}

		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: category %q defined twice", ErrInvalidDocument, c.Name)
		}

		seen[c.Name] = struct{}{}
	}

	if doc.Header.Kind != 0 && doc.Header.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: header must be a mapping", ErrInvalidDocument)
	}

	return &doc, nil
}

// header returns the header keys in document order.
func (d *Document) header() ([]string, map[string]any, error) {
	values := make(map[string]any)

	var keys []string

	content := d.Header.Content
	for i := 0; i+1 < len(content); i += 2 {
		key := content[i].Value

		var v any
		if err := content[i+1].Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("header %q: %w", key, err)
		}

		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}

		values[key] = normalizeValue(v)
	}

	return keys, values, nil
}

func (d *Document) blobs() (map[string]map[string][]byte, error) {
	out := make(map[string]map[string][]byte, len(d.Blobs))

	for name, entries := range d.Blobs {
		decoded := make(map[string][]byte, len(entries))

		for key, text := range entries {
			data, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return nil, fmt.Errorf("blob %s/%s: %w", name, key, err)
			}

			decoded[key] = data
		}

		out[name] = decoded
	}

	return out, nil
}

func columns(docs []ColumnDoc) ([]source.Column, error) {
	out := make([]source.Column, 0, len(docs))

	for _, c := range docs {
		col := source.Column{Name: c.Name, DeclaredType: c.Type, Values: make([]any, len(c.Values))}
		binary := profile.KindFromDeclared(c.Type) == snapshot.KindBinary

		for i, v := range c.Values {
			if s, ok := v.(string); ok && binary {
				data, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", c.Name, i, err)
				}

				col.Values[i] = data

				continue
			}

			col.Values[i] = normalizeValue(v)
		}

		out = append(out, col)
	}

	if _, err := source.NewBatch(out...); err != nil {
		return nil, err
	}

	return out, nil
}

// normalizeValue widens YAML integers to int64.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	}

	return v
}

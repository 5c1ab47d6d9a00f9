package sqlitesource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"schemadrift/internal/source"
)

// Reserved table names.
const (
	HeaderTable = "_header"
	FieldsTable = "_fields"
	BlobPrefix  = "_blob_"
	TicksTable  = "ticks"

	// Scheme prefixes locations that are always opened as SQLite.
	Scheme = "sqlite:"
)

// ErrNoTicks is returned by FetchTicks when the database has no ticks table.
var ErrNoTicks = errors.New("no ticks table")

func init() {
	source.Register(Opener{})
}

// Opener opens SQLite databases read-only.
type Opener struct{}

var _ source.Opener = Opener{}

// Name implements source.Opener.
func (Opener) Name() string { return "sqlite" }

// Accepts implements source.Opener.
func (Opener) Accepts(location string) bool {
	if strings.HasPrefix(location, Scheme) {
		return true
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}

	return false
}

// Open implements source.Opener.
func (Opener) Open(ctx context.Context, location string) (source.Handle, error) {
	return Open(ctx, strings.TrimPrefix(location, Scheme))
}

// Source is an opened database.
type Source struct {
	db   *sql.DB
	path string
	size int64

	tables []string
}

var (
	_ source.Handle     = (*Source)(nil)
	_ source.BlobSource = (*Source)(nil)
	_ source.TickSource = (*Source)(nil)
	_ source.Describer  = (*Source)(nil)
)

// Open opens the database at path without creating or modifying it.
func Open(ctx context.Context, path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s := &Source{db: db, path: path, size: info.Size()}

	tables, err := s.listTables(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s.tables = tables

	return s, nil
}

func (s *Source) listTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type IN ('table', 'view') ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (s *Source) hasTable(name string) bool {
	return slices.Contains(s.tables, name)
}

// reserved reports whether a table is not a category.
func reserved(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, "sqlite_") || name == TicksTable
}

// quote returns name as a SQL identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ListCategories implements source.Adapter.
func (s *Source) ListCategories(_ context.Context) ([]string, error) {
	var out []string

	for _, t := range s.tables {
		if !reserved(t) {
			out = append(out, t)
		}
	}

	return out, nil
}

// FetchBatch implements source.Adapter.
func (s *Source) FetchBatch(ctx context.Context, name string) (*source.Batch, error) {
	if reserved(name) || !s.hasTable(name) {
		return nil, source.Unavailable(name, fmt.Errorf("no such table"))
	}

	b, err := s.selectColumns(ctx, name, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, source.Unavailable(name, err)
	}

	return b, nil
}

// FetchBatches implements source.Adapter.
func (s *Source) FetchBatches(ctx context.Context, names []string) ([]source.NamedBatch, error) {
	out := make([]source.NamedBatch, 0, len(names))

	for _, name := range names {
		b, err := s.FetchBatch(ctx, name)
		if err != nil {
			return nil, err
		}

		out = append(out, source.NamedBatch{Name: name, Batch: b})
	}

	return out, nil
}

// declaredTypes returns the column names of table with their declared types.
func (s *Source) declaredTypes(ctx context.Context, table string) ([]string, map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string

	types := make(map[string]string)

	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, nil, err
		}

		names = append(names, name)
		types[name] = typ
	}

	return names, types, rows.Err()
}

// selectColumns reads the wanted columns of table, or all of them when
// wanted is nil. Wanted columns the table lacks are skipped.
func (s *Source) selectColumns(ctx context.Context, table string, wanted []string) (*source.Batch, error) {
	names, types, err := s.declaredTypes(ctx, table)
	if err != nil {
		return nil, err
	}

	if wanted != nil {
		names = slices.DeleteFunc(names, func(n string) bool { return !slices.Contains(wanted, n) })
	}

	b := &source.Batch{Columns: make([]source.Column, len(names))}
	if len(names) == 0 {
		return b, nil
	}

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
		b.Columns[i] = source.Column{Name: n, DeclaredType: types[n], Values: []any{}}
	}

	//nolint:gosec // identifiers come from the database schema and are quoted.
	query := "SELECT " + strings.Join(quoted, ", ") + " FROM " + quote(table) + " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		// Views and WITHOUT ROWID tables have no rowid.
		rows, err = s.db.QueryContext(ctx, "SELECT "+strings.Join(quoted, ", ")+" FROM "+quote(table))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}

		for i, v := range values {
			b.Columns[i].Values = append(b.Columns[i].Values, v)
		}
	}

	return b, rows.Err()
}

// FetchHeader implements source.Adapter. A database without a header table
// has an empty header.
func (s *Source) FetchHeader(ctx context.Context) (*source.Header, error) {
	h := source.NewHeader(nil, map[string]any{})
	if !s.hasTable(HeaderTable) {
		return h, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM "+HeaderTable+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value any
		)

		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}

		if _, dup := h.Values[key]; !dup {
			h.Keys = append(h.Keys, key)
		}

		h.Values[key] = value
	}

	return h, rows.Err()
}

// ListPrimitiveFields implements source.Adapter.
func (s *Source) ListPrimitiveFields(ctx context.Context) ([]string, error) {
	if !s.hasTable(FieldsTable) {
		return []string{}, nil
	}

	return s.queryStrings(ctx, "SELECT name FROM "+FieldsTable+" ORDER BY rowid")
}

func (s *Source) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, rows.Err()
}

// BlobCollections implements source.BlobSource.
func (s *Source) BlobCollections(_ context.Context) ([]string, error) {
	var out []string

	for _, t := range s.tables {
		if name, ok := strings.CutPrefix(t, BlobPrefix); ok && name != "" {
			out = append(out, name)
		}
	}

	slices.Sort(out)

	return out, nil
}

// FetchBlobCollection implements source.BlobSource.
func (s *Source) FetchBlobCollection(ctx context.Context, name string) (map[string][]byte, error) {
	table := BlobPrefix + name
	if !s.hasTable(table) {
		return nil, fmt.Errorf("no blob collection %q", name)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, data FROM "+quote(table))
	if err != nil {
		return nil, fmt.Errorf("reading blob collection %q: %w", name, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)

	for rows.Next() {
		var (
			key  string
			data []byte
		)

		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("reading blob collection %q: %w", name, err)
		}

		out[key] = data
	}

	return out, rows.Err()
}

// FetchTicks implements source.TickSource.
func (s *Source) FetchTicks(ctx context.Context, fields []string) (*source.Batch, error) {
	if !s.hasTable(TicksTable) {
		return nil, ErrNoTicks
	}

	return s.selectColumns(ctx, TicksTable, fields)
}

// Describe implements source.Describer.
func (s *Source) Describe() source.Description {
	return source.Description{ID: s.path, SizeBytes: s.size}
}

// Close implements io.Closer.
func (s *Source) Close() error {
	return s.db.Close()
}

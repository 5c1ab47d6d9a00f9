package gen

import (
	"slices"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"schemadrift/internal/snapshot"
)

type recordsData struct {
	fileHeader
	Header  headerData
	Records []recordData
	Blobs   []blobData
}

type headerData struct {
	Fields []structField
	Lists  []headerList
}

type headerList struct {
	Method string
	Field  string
	Raw    string
}

type structField struct {
	Name    string
	Type    string
	Tag     string
	Comment string
}

type recordData struct {
	Raw         string
	Type        string
	Table       string
	Constructor string
	Fields      []structField
	Columns     []columnAccessor
}

type columnAccessor struct {
	Method string
	Type   string
	Helper string
	Column string
}

type blobData struct {
	Raw         string
	Type        string
	Constructor string
}

// RenderRecords renders the header, record and blob collection types of the
// planned snapshot. The output is not formatted.
func RenderRecords(p *Plan) ([]byte, error) {
	data := recordsData{
		fileHeader: p.fileHeader("sort", "strings"),
		Header:     p.headerData(),
	}

	for _, c := range sortedCategories(p.snap) {
		names, ok := p.records[c.Name]
		if !ok {
			continue
		}

		rec := recordData{
			Raw:         c.Name,
			Type:        names.Type,
			Table:       names.Table,
			Constructor: names.Constructor,
		}

		for _, f := range c.Fields {
			goType := fieldGoType(f)
			member := names.Accessors[f.Name]

			rec.Fields = append(rec.Fields, structField{
				Name:    member,
				Type:    goType,
				Tag:     jsonTag(f.Name),
				Comment: commentText(Describe(f.Name)),
			})
			rec.Columns = append(rec.Columns, columnAccessor{
				Method: member,
				Type:   "[]" + goType,
				Helper: columnHelpers[goType],
				Column: strconv.Quote(f.Name),
			})
		}

		data.Records = append(data.Records, rec)
	}

	for _, name := range p.snap.BlobNames() {
		b := p.blobs[name]
		data.Blobs = append(data.Blobs, blobData{Raw: b.Raw, Type: b.Type, Constructor: b.Constructor})
	}

	return execute(recordsTemplate, data)
}

func (p *Plan) headerData() headerData {
	var h headerData

	for _, key := range p.HeaderKeys() {
		entry, _ := p.snap.HeaderEntry(key)

		goType := kindGoType(entry.Kind, false)
		if slices.Contains(p.config.DottedHeaderKeys, key) {
			goType = "string"
		}

		h.Fields = append(h.Fields, structField{
			Name: p.headerFields[key],
			Type: goType,
			Tag:  jsonTag(key),
		})

		if method, ok := p.headerLists[key]; ok {
			h.Lists = append(h.Lists, headerList{Method: method, Field: p.headerFields[key], Raw: key})
		}
	}

	return h
}

// fieldGoType maps a field to the Go type of one row value. Nullable scalars
// become pointers; binary and unknown values are nil-able already.
func fieldGoType(f snapshot.Field) string {
	return kindGoType(f.Kind, f.Nullable)
}

func kindGoType(kind snapshot.Kind, nullable bool) string {
	var base string

	switch kind {
	case snapshot.KindInteger:
		base = "int64"
	case snapshot.KindFloat:
		base = "float64"
	case snapshot.KindBoolean:
		base = "bool"
	case snapshot.KindText:
		base = "string"
	case snapshot.KindBinary:
		return "[]byte"
	default:
		return "any"
	}

	if nullable {
		return "*" + base
	}

	return base
}

var columnHelpers = map[string]string{
	"int64":    "intColumn",
	"*int64":   "intPtrColumn",
	"float64":  "floatColumn",
	"*float64": "floatPtrColumn",
	"bool":     "boolColumn",
	"*bool":    "boolPtrColumn",
	"string":   "stringColumn",
	"*string":  "stringPtrColumn",
	"[]byte":   "bytesColumn",
	"any":      "anyColumn",
}

// commentText collapses whitespace in s and drops runes that cannot appear
// in a line comment.
func commentText(s string) string {
	printable := strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s)

	return strings.Join(strings.Fields(printable), " ")
}

// jsonTag builds a struct tag literal carrying raw as the JSON name.
func jsonTag(raw string) string {
	tag := "json:" + strconv.Quote(raw)
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}

	return "`" + tag + "`"
}

var recordsTemplate = template.Must(template.New("records").Parse(fileHeaderTemplate + `
// Table holds column-oriented rows keyed by raw column name.
type Table map[string][]any

// Header holds the source header.
type Header struct {
{{- range .Header.Fields}}
	{{.Name}} {{.Type}} {{.Tag}}
{{- end}}
}
{{range .Header.Lists}}
// {{.Method}} splits {{printf "%q" .Raw}} on '.'.
func (h Header) {{.Method}}() []string {
	if h.{{.Field}} == "" {
		return nil
	}

	return strings.Split(h.{{.Field}}, ".")
}
{{end}}
{{- range .Records}}{{$table := .Table}}
// {{.Type}} is one row of the {{printf "%q" .Raw}} category.
type {{.Type}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}} {{.Tag}} // {{.Comment}}
{{- end}}
}

// {{.Table}} is a column batch of the {{printf "%q" .Raw}} category.
type {{.Table}} struct {
	Data Table
}

// {{.Constructor}} returns an empty {{.Table}}.
func {{.Constructor}}() *{{.Table}} {
	return &{{.Table}}{Data: Table{}}
}

// Len returns the number of rows.
func (t *{{.Table}}) Len() int {
	return tableLen(t.Data)
}
{{range .Columns}}
func (t *{{$table}}) {{.Method}}() {{.Type}} {
	return {{.Helper}}(t.Data, {{.Column}})
}
{{end}}
{{- end}}
{{- range .Blobs}}
// {{.Type}} holds the {{printf "%q" .Raw}} blob collection.
type {{.Type}} struct {
	Entries map[string][]byte
}

// {{.Constructor}} returns an empty {{.Type}}.
func {{.Constructor}}() *{{.Type}} {
	return &{{.Type}}{Entries: map[string][]byte{}}
}

// Count returns the number of entries.
func (c *{{.Type}}) Count() int {
	return len(c.Entries)
}

// Keys returns the entry keys in ascending order.
func (c *{{.Type}}) Keys() []string {
	keys := make([]string, 0, len(c.Entries))
	for k := range c.Entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// TotalSize returns the summed size of all entries in bytes.
func (c *{{.Type}}) TotalSize() int {
	total := 0
	for _, v := range c.Entries {
		total += len(v)
	}

	return total
}

// Get returns the entry stored under key.
func (c *{{.Type}}) Get(key string) ([]byte, bool) {
	v, ok := c.Entries[key]
	return v, ok
}

// Has reports whether key is present.
func (c *{{.Type}}) Has(key string) bool {
	_, ok := c.Entries[key]
	return ok
}
{{end}}
func tableLen(t Table) int {
	n := 0
	for _, col := range t {
		if len(col) > n {
			n = len(col)
		}
	}

	return n
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	}

	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}

	i, ok := toInt(v)

	return float64(i), ok
}

func intColumn(t Table, name string) []int64 {
	col := t[name]
	out := make([]int64, len(col))

	for i, v := range col {
		n, _ := toInt(v)
		out[i] = n
	}

	return out
}

func intPtrColumn(t Table, name string) []*int64 {
	col := t[name]
	out := make([]*int64, len(col))

	for i, v := range col {
		if n, ok := toInt(v); ok {
			out[i] = &n
		}
	}

	return out
}

func floatColumn(t Table, name string) []float64 {
	col := t[name]
	out := make([]float64, len(col))

	for i, v := range col {
		n, _ := toFloat(v)
		out[i] = n
	}

	return out
}

func floatPtrColumn(t Table, name string) []*float64 {
	col := t[name]
	out := make([]*float64, len(col))

	for i, v := range col {
		if n, ok := toFloat(v); ok {
			out[i] = &n
		}
	}

	return out
}

func boolColumn(t Table, name string) []bool {
	col := t[name]
	out := make([]bool, len(col))

	for i, v := range col {
		b, _ := v.(bool)
		out[i] = b
	}

	return out
}

func boolPtrColumn(t Table, name string) []*bool {
	col := t[name]
	out := make([]*bool, len(col))

	for i, v := range col {
		if b, ok := v.(bool); ok {
			out[i] = &b
		}
	}

	return out
}

func stringColumn(t Table, name string) []string {
	col := t[name]
	out := make([]string, len(col))

	for i, v := range col {
		s, _ := v.(string)
		out[i] = s
	}

	return out
}

func stringPtrColumn(t Table, name string) []*string {
	col := t[name]
	out := make([]*string, len(col))

	for i, v := range col {
		if s, ok := v.(string); ok {
			out[i] = &s
		}
	}

	return out
}

func bytesColumn(t Table, name string) [][]byte {
	col := t[name]
	out := make([][]byte, len(col))

	for i, v := range col {
		b, _ := v.([]byte)
		out[i] = b
	}

	return out
}

func anyColumn(t Table, name string) []any {
	return append([]any(nil), t[name]...)
}
`))

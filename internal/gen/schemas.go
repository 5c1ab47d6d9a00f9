package gen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"schemadrift/internal/snapshot"
)

// SchemaDraft is the JSON Schema dialect of generated documents.
const SchemaDraft = "http://json-schema.org/draft-07/schema#"

// JSONSchema is the subset of draft-07 used by generated documents.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 any                    `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
	ContentEncoding      string                 `json:"contentEncoding,omitempty"`
}

// BuildSchema returns the schema document for rows of c. Every field is
// required; strict documents also reject unknown properties.
func BuildSchema(c *snapshot.Category, strict bool) *JSONSchema {
	row := &JSONSchema{
		Type:       "object",
		Properties: make(map[string]*JSONSchema, len(c.Fields)),
		Required:   c.FieldNames(),
	}

	if strict {
		closed := false
		row.AdditionalProperties = &closed
	}

	for _, f := range c.Fields {
		row.Properties[f.Name] = fieldSchema(f)
	}

	return &JSONSchema{
		Schema:      SchemaDraft,
		Title:       c.Name,
		Description: fmt.Sprintf("Rows of the %s category", c.Name),
		Type:        "array",
		Items:       row,
	}
}

func fieldSchema(f snapshot.Field) *JSONSchema {
	s := &JSONSchema{Description: Describe(f.Name)}

	var typ string

	switch f.Kind {
	case snapshot.KindInteger:
		typ = "integer"
	case snapshot.KindFloat:
		typ = "number"
	case snapshot.KindBoolean:
		typ = "boolean"
	case snapshot.KindText:
		typ = "string"
	case snapshot.KindBinary:
		typ = "string"
		s.ContentEncoding = "base64"
	default:
		return s
	}

	if f.Nullable {
		s.Type = []string{typ, "null"}
	} else {
		s.Type = typ
	}

	return s
}

// Encode renders the document as indented JSON.
func (s *JSONSchema) Encode() (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("encoding schema %s: %w", s.Title, err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// BuildSchemas returns the encoded schema of every non-empty, successfully
// analyzed category, keyed by raw category name.
func BuildSchemas(snap *snapshot.Snapshot, strict bool) (map[string]string, error) {
	out := make(map[string]string)

	for _, c := range snap.Categories {
		if c.Failed() || len(c.Fields) == 0 {
			continue
		}

		doc, err := BuildSchema(c, strict).Encode()
		if err != nil {
			return nil, err
		}

		out[c.Name] = doc
	}

	return out, nil
}

type schemasData struct {
	fileHeader
	Schemas []schemaConst
}

type schemaConst struct {
	Raw     string
	Key     string
	Name    string
	Literal string
}

// RenderSchemas renders one JSON Schema constant per record type and the
// Schemas registry. The output is not formatted.
func RenderSchemas(p *Plan) ([]byte, error) {
	data := schemasData{fileHeader: p.fileHeader()}

	for _, c := range sortedCategories(p.snap) {
		names, ok := p.records[c.Name]
		if !ok {
			continue
		}

		doc, err := BuildSchema(c, p.config.StrictSchemas).Encode()
		if err != nil {
			return nil, err
		}

		data.Schemas = append(data.Schemas, schemaConst{
			Raw:     c.Name,
			Key:     strconv.Quote(c.Name),
			Name:    names.Schema,
			Literal: goStringLiteral(doc),
		})
	}

	return execute(schemasTemplate, data)
}

// goStringLiteral prefers a raw string literal and falls back to an
// interpreted one when s contains a backquote, a carriage return or a byte
// order mark, none of which a raw literal can carry.
func goStringLiteral(s string) string {
	if strings.ContainsAny(s, "`\r\uFEFF") {
		return strconv.Quote(s)
	}

	return "`" + s + "`"
}

var schemasTemplate = template.Must(template.New("schemas").Parse(fileHeaderTemplate + `
{{range .Schemas}}
// {{.Name}} validates rows of the {{printf "%q" .Raw}} category.
const {{.Name}} = {{.Literal}}
{{end}}
// Schemas maps raw category names to their JSON Schema documents.
var Schemas = map[string]string{
{{- range .Schemas}}
	{{.Key}}: {{.Name}},
{{- end}}
}
`))

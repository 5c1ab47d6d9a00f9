package gen

import (
	"strconv"
	"text/template"
)

type enumsData struct {
	fileHeader
	CategoryType   string
	CategoryValues string
	Categories     []enumConst
	FieldType      string
	FieldValues    string
	FieldGroups    []enumGroup
}

type enumConst struct {
	Name  string
	Value string
}

type enumGroup struct {
	Label  string
	Consts []enumConst
}

// RenderEnums renders the category and field enumerations of the planned
// snapshot. The output is not formatted.
func RenderEnums(p *Plan) ([]byte, error) {
	data := enumsData{
		fileHeader:     p.fileHeader(),
		CategoryType:   p.config.CategoryEnum,
		CategoryValues: p.CategoryValuesFunc,
		FieldType:      p.config.FieldEnum,
		FieldValues:    p.FieldValuesFunc,
	}

	for _, name := range p.snap.ListedCategoryNames() {
		data.Categories = append(data.Categories, enumConst{
			Name:  p.categoryMembers[name],
			Value: strconv.Quote(name),
		})
	}

	for _, g := range groupFields(p.snap.FieldCatalog) {
		group := enumGroup{Label: commentText(g.label)}
		for _, name := range g.names {
			group.Consts = append(group.Consts, enumConst{
				Name:  p.fieldMembers[name],
				Value: strconv.Quote(name),
			})
		}

		data.FieldGroups = append(data.FieldGroups, group)
	}

	return execute(enumsTemplate, data)
}

var enumsTemplate = template.Must(template.New("enums").Parse(fileHeaderTemplate + `
// {{.CategoryType}} names a category reported by the source.
type {{.CategoryType}} string

const (
{{- range .Categories}}
	{{.Name}} {{$.CategoryType}} = {{.Value}}
{{- end}}
)

// {{.CategoryValues}} returns every {{.CategoryType}} in ascending order.
func {{.CategoryValues}}() []{{.CategoryType}} {
	return []{{.CategoryType}}{
{{- range .Categories}}
		{{.Name}},
{{- end}}
	}
}

// String returns the raw category name.
func (c {{.CategoryType}}) String() string {
	return string(c)
}

// {{.FieldType}} names a primitive field of the source.
type {{.FieldType}} string
{{range .FieldGroups}}
// {{.Label}} fields.
const (
{{- range .Consts}}
	{{.Name}} {{$.FieldType}} = {{.Value}}
{{- end}}
)
{{end}}
// {{.FieldValues}} returns every {{.FieldType}}, grouped by prefix.
func {{.FieldValues}}() []{{.FieldType}} {
	return []{{.FieldType}}{
{{- range .FieldGroups}}{{range .Consts}}
		{{.Name}},
{{- end}}{{end}}
	}
}

// String returns the raw field name.
func (f {{.FieldType}}) String() string {
	return string(f)
}
`))

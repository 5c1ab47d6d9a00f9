package gen

import (
	"fmt"
	"slices"
	"strings"

	"schemadrift/internal/common"
	"schemadrift/internal/diagnostic"
	"schemadrift/internal/ident"
	"schemadrift/internal/snapshot"
	"schemadrift/internal/storage"
)

// Plan holds every identifier the renderers need for one snapshot.
type Plan struct {
	config      GeneratorConfig
	snap        *snapshot.Snapshot
	fingerprint string

	// CategoryValuesFunc and FieldValuesFunc list enum values.
	CategoryValuesFunc string
	FieldValuesFunc    string

	categoryMembers map[string]string
	fieldMembers    map[string]string
	records         map[string]*RecordNames
	blobs           map[string]*BlobNames
	headerFields    map[string]string
	headerLists     map[string]string

	collisions []ident.Collision
	diags      diagnostic.Diagnostics
}

// RecordNames are the identifiers generated for one category.
type RecordNames struct {
	Raw         string
	Type        string
	Table       string
	Constructor string
	Schema      string
	// Accessors maps raw column names to accessor and struct field names.
	Accessors map[string]string
}

// BlobNames are the identifiers generated for one blob collection.
type BlobNames struct {
	Raw         string
	Type        string
	Constructor string
}

// Reserved member names of generated table types.
var tableMembers = []string{"Data", "Len"}

// NewPlan plans all identifiers for snap. Inputs are visited in sorted order
// so the result depends only on the snapshot and the configuration.
func NewPlan(snap *snapshot.Snapshot, config GeneratorConfig) (*Plan, error) {
	config = config.withDefaults()

	fp, err := fingerprint(snap)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		config:             config,
		snap:               snap,
		fingerprint:        fp,
		CategoryValuesFunc: config.CategoryEnum + "Values",
		FieldValuesFunc:    config.FieldEnum + "Values",
		categoryMembers:    make(map[string]string),
		fieldMembers:       make(map[string]string),
		records:            make(map[string]*RecordNames),
		blobs:              make(map[string]*BlobNames),
		headerFields:       make(map[string]string),
		headerLists:        make(map[string]string),
	}

	strict := ident.Strict(config.StrictIdentifiers)
	types := ident.NewScope("package", ident.TypeName, strict, ident.Reserve(
		"Table", "Header", "Schemas",
		config.CategoryEnum, config.FieldEnum,
		p.CategoryValuesFunc, p.FieldValuesFunc,
	))

	if err := p.planRecords(types, strict); err != nil {
		return nil, err
	}

	if err := p.planBlobs(types); err != nil {
		return nil, err
	}

	if err := p.planEnums(strict); err != nil {
		return nil, err
	}

	if err := p.planHeader(strict); err != nil {
		return nil, err
	}

	p.collisions = append(p.collisions, types.Collisions()...)
	slices.SortStableFunc(p.collisions, func(a, b ident.Collision) int {
		return strings.Compare(a.Scope, b.Scope)
	})

	for _, c := range p.collisions {
		p.diags.AddWarning(diagnostic.CodeIdentifierCollision, c.String(), c.Scope, c.Raw)
	}

	return p, nil
}

func (p *Plan) planRecords(types *ident.Scope, strict ident.ScopeOption) error {
	for _, c := range sortedCategories(p.snap) {
		switch {
		case c.Failed():
			p.diags.AddInfo(diagnostic.CodeFailedCategory,
				"category failed during analysis; no record type or schema emitted: "+c.Error, "records", c.Name)

			continue
		case len(c.Fields) == 0:
			p.diags.AddInfo(diagnostic.CodeEmptyCategory,
				"category has no fields; no record type or schema emitted", "records", c.Name)

			continue
		}

		typ, err := types.Resolve(c.Name)
		if err != nil {
			return err
		}

		rec := &RecordNames{Raw: c.Name, Type: typ, Accessors: make(map[string]string)}

		derived := []struct {
			suffix string
			dst    *string
			name   string
		}{
			{"table", &rec.Table, typ + "Table"},
			{"constructor", &rec.Constructor, "New" + typ + "Table"},
			{"schema", &rec.Schema, typ + "Schema"},
		}

		for _, d := range derived {
			name, err := types.Claim(c.Name+"\x00"+d.suffix, d.name)
			if err != nil {
				return err
			}

			*d.dst = name
		}

		members := ident.NewScope(rec.Table, ident.Property, strict,
			ident.WithTransform(ident.GoName), ident.Reserve(tableMembers...))

		for _, f := range c.Fields {
			if f.Error != "" {
				p.diags.AddInfo(diagnostic.CodeFieldError, f.Error, c.Name, f.Name)
			}

			name, err := members.Resolve(f.Name)
			if err != nil {
				return err
			}

			rec.Accessors[f.Name] = name
		}

		p.collisions = append(p.collisions, members.Collisions()...)
		p.records[c.Name] = rec
	}

	return nil
}

func (p *Plan) planBlobs(types *ident.Scope) error {
	blobs := slices.Clone(p.snap.Blobs)
	slices.SortFunc(blobs, func(a, b snapshot.BlobCollection) int { return strings.Compare(a.Name, b.Name) })

	for _, b := range blobs {
		typ, err := types.Claim("blob\x00"+b.Name, ident.Normalize(b.Name, ident.TypeName)+"Collection")
		if err != nil {
			return err
		}

		ctor, err := types.Claim("blob\x00"+b.Name+"\x00constructor", "New"+typ)
		if err != nil {
			return err
		}

		p.blobs[b.Name] = &BlobNames{Raw: b.Name, Type: typ, Constructor: ctor}
	}

	return nil
}

func (p *Plan) planEnums(strict ident.ScopeOption) error {
	categories := ident.NewScope(p.config.CategoryEnum, ident.EnumMember, strict, ident.WithTransform(p.prefixer(p.config.CategoryEnum)))

	for _, name := range p.snap.ListedCategoryNames() {
		member, err := categories.Resolve(name)
		if err != nil {
			return err
		}

		p.categoryMembers[name] = member
	}

	fields := ident.NewScope(p.config.FieldEnum, ident.EnumMember, strict, ident.WithTransform(p.prefixer(p.config.FieldEnum)))

	for _, g := range groupFields(p.snap.FieldCatalog) {
		for _, name := range g.names {
			member, err := fields.Resolve(name)
			if err != nil {
				return err
			}

			p.fieldMembers[name] = member
		}
	}

	p.collisions = append(p.collisions, categories.Collisions()...)
	p.collisions = append(p.collisions, fields.Collisions()...)

	return nil
}

func (p *Plan) planHeader(strict ident.ScopeOption) error {
	fields := ident.NewScope("Header", ident.Property, strict, ident.WithTransform(ident.GoName))

	for _, key := range p.HeaderKeys() {
		name, err := fields.Resolve(key)
		if err != nil {
			return err
		}

		p.headerFields[key] = name
	}

	for _, key := range p.HeaderKeys() {
		if !slices.Contains(p.config.DottedHeaderKeys, key) {
			continue
		}

		name, err := fields.Claim(key+"\x00list", p.headerFields[key]+"List")
		if err != nil {
			return err
		}

		p.headerLists[key] = name
	}

	p.collisions = append(p.collisions, fields.Collisions()...)

	return nil
}

func (p *Plan) prefixer(enum string) func(string) string {
	return func(member string) string {
		return enum + "_" + member
	}
}

// HeaderKeys returns the snapshot header keys in emission order: configured
// preferred keys first, then the rest sorted.
func (p *Plan) HeaderKeys() []string {
	present := make(map[string]bool, len(p.snap.Header))
	for _, h := range p.snap.Header {
		present[h.Key] = true
	}

	keys := make([]string, 0, len(present))

	for _, k := range p.config.HeaderOrder {
		if present[k] {
			keys = append(keys, k)
			delete(present, k)
		}
	}

	return append(keys, common.SortedKeys(present)...)
}

// Record returns the names planned for a category, if it gets a record type.
func (p *Plan) Record(category string) (*RecordNames, bool) {
	r, ok := p.records[category]
	return r, ok
}

// CategoryMember returns the enum constant planned for a listed category.
func (p *Plan) CategoryMember(category string) (string, bool) {
	m, ok := p.categoryMembers[category]
	return m, ok
}

// FieldMember returns the enum constant planned for a catalog field.
func (p *Plan) FieldMember(field string) (string, bool) {
	m, ok := p.fieldMembers[field]
	return m, ok
}

// Collisions returns every rename performed while planning.
func (p *Plan) Collisions() []ident.Collision {
	return p.collisions
}

// Diagnostics returns the findings collected while planning.
func (p *Plan) Diagnostics() *diagnostic.Diagnostics {
	return &p.diags
}

// Fingerprint returns the snapshot fingerprint written into file headers.
func (p *Plan) Fingerprint() string {
	return p.fingerprint
}

func sortedCategories(snap *snapshot.Snapshot) []*snapshot.Category {
	cats := slices.Clone(snap.Categories)
	slices.SortFunc(cats, func(a, b *snapshot.Category) int { return strings.Compare(a.Name, b.Name) })

	return cats
}

// BasicGroup labels catalog fields without a dotted prefix.
const BasicGroup = "basic"

type fieldGroup struct {
	label string
	names []string
}

// groupFields buckets catalog names by the text before their first '.'.
// The basic group comes first, then prefixes in ascending order.
func groupFields(catalog []string) []fieldGroup {
	buckets := make(map[string][]string)

	for _, name := range catalog {
		label := BasicGroup
		if prefix, _, ok := strings.Cut(name, "."); ok && prefix != "" {
			label = prefix
		}

		buckets[label] = append(buckets[label], name)
	}

	labels := common.SortedKeys(buckets)
	if i := slices.Index(labels, BasicGroup); i > 0 {
		labels = append([]string{BasicGroup}, slices.Delete(labels, i, i+1)...)
	}

	groups := make([]fieldGroup, 0, len(labels))

	for _, label := range labels {
		names := slices.Clone(buckets[label])
		slices.Sort(names)
		groups = append(groups, fieldGroup{label: label, names: slices.Compact(names)})
	}

	return groups
}

func fingerprint(snap *snapshot.Snapshot) (string, error) {
	data, err := snapshot.Marshal(snap, snapshot.FormatYAML)
	if err != nil {
		return "", fmt.Errorf("fingerprinting snapshot: %w", err)
	}

	return storage.Fingerprint(data)
}

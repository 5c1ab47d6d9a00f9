package artifact

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"golang.org/x/tools/go/ast/inspector"

	"schemadrift/internal/gen"
	"schemadrift/internal/storage"
)

// ErrNoRecords is returned by Construct when no records file was loaded.
var ErrNoRecords = errors.New("no records artifact")

// HeaderType is the generated header struct name.
const HeaderType = "Header"

// registryVar is the generated schema registry name.
const registryVar = "Schemas"

// Files lists the artifacts Load looks for.
var Files = []string{gen.EnumsFile, gen.RecordsFile, gen.SchemasFile}

// Record describes one generated struct type.
type Record struct {
	Name string
	// Fields counts declared fields, embedded ones included.
	Fields int
	// JSONNames are the json tag names of the fields, in declaration order.
	JSONNames []string
}

// Set is the parsed content of one artifact directory.
type Set struct {
	// Package is the package clause of the parsed files.
	Package string
	// Present marks the files that were found.
	Present map[string]bool
	// Enums maps enum type names to their values in declaration order.
	Enums map[string][]string
	// Records lists struct types other than the header, by name.
	Records []Record
	// Header holds the header struct, if any.
	Header *Record
	// Constructors are zero-argument New* functions, sorted.
	Constructors []string
	// Schemas maps raw category names to schema documents.
	Schemas map[string]string

	recordsSrc []byte
	interpOnce sync.Once
	interp     *interp.Interpreter
	interpErr  error
}

// Load reads the generated files from dir. Missing files leave their
// sections empty; a directory with no artifacts yields an empty Set.
func Load(ctx context.Context, store *storage.Store, dir string) (*Set, error) {
	files := make(map[string][]byte, len(Files))

	for _, name := range Files {
		loc := storage.Join(dir, name)

		ok, err := store.Exists(ctx, loc)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", loc, err)
		}

		if !ok {
			continue
		}

		data, err := store.Read(ctx, loc)
		if err != nil {
			return nil, err
		}

		files[name] = data
	}

	return Parse(files)
}

// Parse extracts artifact data from generated sources keyed by file name.
func Parse(files map[string][]byte) (*Set, error) {
	set := &Set{
		Present: make(map[string]bool, len(files)),
		Enums:   make(map[string][]string),
		Schemas: make(map[string]string),
	}

	fset := token.NewFileSet()
	parsed := make([]*ast.File, 0, len(files))

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		f, err := parser.ParseFile(fset, name, files[name], parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}

		set.Present[name] = true
		set.Package = f.Name.Name
		parsed = append(parsed, f)

		if name == gen.RecordsFile {
			set.recordsSrc = asMain(fset, f, files[name])
		}
	}

	consts := make(map[string]string)
	registry := make(map[string]string)

	insp := inspector.New(parsed)
	insp.Preorder([]ast.Node{(*ast.GenDecl)(nil), (*ast.FuncDecl)(nil)}, func(n ast.Node) {
		switch decl := n.(type) {
		case *ast.GenDecl:
			switch decl.Tok {
			case token.CONST:
				set.collectConsts(decl, consts)
			case token.TYPE:
				set.collectTypes(decl)
			case token.VAR:
				collectRegistry(decl, registry)
			}
		case *ast.FuncDecl:
			if isConstructor(decl) {
				set.Constructors = append(set.Constructors, decl.Name.Name)
			}
		}
	})

	for raw, ref := range registry {
		if doc, ok := consts[ref]; ok {
			set.Schemas[raw] = doc
		}
	}

	slices.Sort(set.Constructors)
	slices.SortFunc(set.Records, func(a, b Record) int { return strings.Compare(a.Name, b.Name) })

	return set, nil
}

// Has reports whether the named file was loaded.
func (s *Set) Has(file string) bool {
	return s != nil && s.Present[file]
}

// EnumValues returns the values of the named enum type.
func (s *Set) EnumValues(typeName string) ([]string, bool) {
	if s == nil {
		return nil, false
	}

	v, ok := s.Enums[typeName]

	return v, ok
}

// Construct calls the named zero-argument constructor in an interpreter
// loaded with the records file and reports whether it returned a value.
func (s *Set) Construct(ctx context.Context, constructor string) (err error) {
	if s == nil || s.recordsSrc == nil {
		return ErrNoRecords
	}

	s.interpOnce.Do(func() {
		s.interp, s.interpErr = newInterpreter(ctx, s.recordsSrc)
	})

	if s.interpErr != nil {
		return s.interpErr
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructing %s: panic: %v", constructor, r)
		}
	}()

	v, err := s.interp.EvalWithContext(ctx, "main."+constructor+"()")
	if err != nil {
		return fmt.Errorf("constructing %s: %w", constructor, err)
	}

	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return fmt.Errorf("constructing %s: no value returned", constructor)
	}

	return nil
}

func newInterpreter(ctx context.Context, src []byte) (i *interp.Interpreter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreting records: panic: %v", r)
		}
	}()

	i = interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}

	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return nil, fmt.Errorf("interpreting records: %w", err)
	}

	return i, nil
}

// asMain rewrites the package clause of src to package main.
func asMain(fset *token.FileSet, f *ast.File, src []byte) []byte {
	start := fset.Position(f.Name.Pos()).Offset
	end := fset.Position(f.Name.End()).Offset

	out := make([]byte, 0, len(src))
	out = append(out, src[:start]...)
	out = append(out, "main"...)

	return append(out, src[end:]...)
}

func (s *Set) collectConsts(decl *ast.GenDecl, consts map[string]string) {
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok || len(vs.Names) != len(vs.Values) {
			continue
		}

		for i, name := range vs.Names {
			value, ok := stringLit(vs.Values[i])
			if !ok {
				continue
			}

			if typ, ok := vs.Type.(*ast.Ident); ok {
				s.Enums[typ.Name] = append(s.Enums[typ.Name], value)

				continue
			}

			consts[name.Name] = value
		}
	}
}

func (s *Set) collectTypes(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			continue
		}

		rec := Record{Name: ts.Name.Name}

		for _, field := range st.Fields.List {
			n := max(len(field.Names), 1)
			rec.Fields += n

			if name, ok := jsonName(field.Tag); ok {
				rec.JSONNames = append(rec.JSONNames, name)
			}
		}

		if rec.Name == HeaderType {
			s.Header = &rec

			continue
		}

		s.Records = append(s.Records, rec)
	}
}

func collectRegistry(decl *ast.GenDecl, registry map[string]string) {
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok || len(vs.Names) != 1 || vs.Names[0].Name != registryVar || len(vs.Values) != 1 {
			continue
		}

		lit, ok := vs.Values[0].(*ast.CompositeLit)
		if !ok {
			continue
		}

		for _, elt := range lit.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				continue
			}

			key, ok := stringLit(kv.Key)
			ref, isIdent := kv.Value.(*ast.Ident)

			if ok && isIdent {
				registry[key] = ref.Name
			}
		}
	}
}

func isConstructor(fn *ast.FuncDecl) bool {
	return fn.Recv == nil &&
		strings.HasPrefix(fn.Name.Name, "New") &&
		fn.Type.Params.NumFields() == 0 &&
		fn.Type.Results.NumFields() == 1
}

func stringLit(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}

	v, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}

	return v, true
}

func jsonName(tag *ast.BasicLit) (string, bool) {
	if tag == nil {
		return "", false
	}

	raw, err := strconv.Unquote(tag.Value)
	if err != nil {
		return "", false
	}

	name, ok := reflect.StructTag(raw).Lookup("json")
	if !ok {
		return "", false
	}

	name, _, _ = strings.Cut(name, ",")

	return name, name != "" && name != "-"
}

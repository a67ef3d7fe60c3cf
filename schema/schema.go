package schema

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"

	"github.com/epiframe/epiframe/document"
)

// Kind names the semantic type of a declared field.
type Kind string

// Field kinds.
const (
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindStruct Kind = "struct"
	KindList   Kind = "list"
	KindAny    Kind = "any"
)

// Field is one declared field of a schema, as reported by Describe.
// It is a passive description for external tooling (documentation
// generation, CLI output); validation consults the compiled CUE
// constraints directly.
type Field struct {
	Name     string         `json:"name"`
	Kind     Kind           `json:"kind"`
	Required bool           `json:"required"`
	ReadOnly bool           `json:"read_only,omitempty"`
	Doc      string         `json:"doc,omitempty"`
	Default  document.Value `json:"default,omitempty"`
	Fields   []Field        `json:"fields,omitempty"`
	Elem     *Field         `json:"elem,omitempty"`
}

// fieldDecl is the internal, CUE-backed form of a field declaration.
// The exported Field is derived from it on demand.
type fieldDecl struct {
	name       string
	kind       Kind
	optional   bool
	hasDefault bool
	def        document.Value
	readOnly   bool
	doc        string
	val        cue.Value   // the field's compiled constraint
	fields     []fieldDecl // struct members, in declaration order
	elem       *fieldDecl  // list element declaration, if expressible
	open       bool        // struct declared with an ellipsis
}

func (d *fieldDecl) required() bool {
	return !d.optional && !d.hasDefault
}

// Schema is an immutable, named, ordered collection of typed field
// declarations compiled from CUE source. Create with Parse; a Schema is
// safe for concurrent use by independent validations.
type Schema struct {
	name   string
	source string
	ctx    *cue.Context
	val    cue.Value
	fields []fieldDecl
	open   bool

	updateOnce sync.Once
	update     *Schema
	updateErr  error
}

// Parse compiles CUE source describing a struct into a Schema.
//
// Field declarations are recorded in declaration order, which fixes the
// order violations are reported in. Nested structs must themselves be
// valid schemas; the recursive walk fails with a SchemaError otherwise.
func Parse(name, source string) (*Schema, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(source, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return nil, newSchemaError(name, err)
	}
	if val.IncompleteKind() != cue.StructKind {
		return nil, &SchemaError{
			Name:     name,
			Problems: []SchemaProblem{{Message: "schema must be a struct"}},
		}
	}

	fields, err := buildFields(name, val)
	if err != nil {
		return nil, err
	}

	return &Schema{
		name:   name,
		source: source,
		ctx:    ctx,
		val:    val,
		fields: fields,
		open:   hasEllipsis(val),
	}, nil
}

// MustParse is like Parse but panics on error.
// Intended for package-level schema declarations.
func MustParse(name, source string) *Schema {
	s, err := Parse(name, source)
	if err != nil {
		panic(fmt.Sprintf("schema: MustParse(%q): %v", name, err))
	}
	return s
}

// Name returns the schema's name.
func (s *Schema) Name() string { return s.name }

// Source returns the CUE source the schema was compiled from.
func (s *Schema) Source() string { return s.source }

// Describe returns the ordered field declarations, recursively.
// The result is a fresh copy on every call; callers may not mutate the
// schema through it.
func (s *Schema) Describe() []Field {
	return describeFields(s.fields)
}

func describeFields(decls []fieldDecl) []Field {
	if decls == nil {
		return nil
	}
	out := make([]Field, len(decls))
	for i := range decls {
		out[i] = decls[i].describe()
	}
	return out
}

func (d *fieldDecl) describe() Field {
	f := Field{
		Name:     d.name,
		Kind:     d.kind,
		Required: d.required(),
		ReadOnly: d.readOnly,
		Doc:      d.doc,
		Fields:   describeFields(d.fields),
	}
	if d.hasDefault {
		f.Default = document.Clone(d.def)
	}
	if d.elem != nil {
		elem := d.elem.describe()
		f.Elem = &elem
	}
	return f
}

// buildFields walks a compiled CUE struct and records its field
// declarations in declaration order.
func buildFields(schemaName string, v cue.Value) ([]fieldDecl, error) {
	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return nil, newSchemaError(schemaName, err)
	}

	var fields []fieldDecl
	for iter.Next() {
		decl, err := buildField(schemaName, iter.Label(), iter.Value(), iter.IsOptional())
		if err != nil {
			return nil, err
		}
		fields = append(fields, decl)
	}
	return fields, nil
}

func buildField(schemaName, label string, fv cue.Value, optional bool) (fieldDecl, error) {
	decl := fieldDecl{
		name:     label,
		kind:     kindOf(fv),
		optional: optional,
		val:      fv,
	}

	if attr := fv.Attribute("readonly"); attr.Err() == nil {
		decl.readOnly = true
	}
	if docs := fv.Doc(); len(docs) > 0 {
		decl.doc = strings.TrimSpace(docs[len(docs)-1].Text())
	}

	if err := buildDefault(schemaName, &decl, fv); err != nil {
		return decl, err
	}

	switch decl.kind {
	case KindStruct:
		nested, err := buildFields(schemaName, fv)
		if err != nil {
			return decl, err
		}
		decl.fields = nested
		decl.open = hasEllipsis(fv)
	case KindList:
		elemVal := fv.LookupPath(cue.MakePath(cue.AnyIndex))
		if elemVal.Exists() {
			elem, err := buildField(schemaName, "", elemVal, false)
			if err != nil {
				return decl, err
			}
			decl.elem = &elem
		}
	}

	return decl, nil
}

// buildDefault records the field's default, either an explicit
// *default | rest disjunction or an already-concrete scalar value.
// Struct and list fields never carry defaults: CUE reports an implicit
// empty-list default for every open list, and recording it would turn
// an absent optional list into a present empty one.
func buildDefault(schemaName string, decl *fieldDecl, fv cue.Value) error {
	if decl.kind == KindStruct || decl.kind == KindList {
		return nil
	}
	dv, ok := fv.Default()
	if !ok {
		// A concrete scalar declaration (delta_time: 0.2) doubles as a
		// default: the field may be omitted from input.
		if !isScalar(decl.kind) || fv.Validate(cue.Concrete(true)) != nil {
			return nil
		}
		dv = fv
	}

	data, err := dv.MarshalJSON()
	if err != nil {
		return newSchemaError(schemaName, fmt.Errorf("default for field %q: %w", decl.name, err))
	}
	def, err := document.FromJSON(data)
	if err != nil {
		return newSchemaError(schemaName, fmt.Errorf("default for field %q: %w", decl.name, err))
	}
	// An int default on a float field surfaces as Float, matching the
	// coercion the validator applies to input.
	if decl.kind == KindFloat {
		if i, isInt := def.(document.Int); isInt {
			def = document.Float(i)
		}
	}
	decl.hasDefault = true
	decl.def = def
	return nil
}

// hasEllipsis reports whether a struct value was written with an
// explicit `...`, marking it open to arbitrary member fields.
func hasEllipsis(v cue.Value) bool {
	switch syn := v.Syntax(cue.Raw()).(type) {
	case *ast.StructLit:
		for _, elt := range syn.Elts {
			if _, ok := elt.(*ast.Ellipsis); ok {
				return true
			}
		}
	case *ast.File:
		for _, d := range syn.Decls {
			if _, ok := d.(*ast.Ellipsis); ok {
				return true
			}
		}
	}
	return false
}

func isScalar(k Kind) bool {
	switch k {
	case KindBool, KindInt, KindFloat, KindString:
		return true
	default:
		return false
	}
}

// kindOf maps a CUE value's incomplete kind onto the schema kind set.
// Mixed-kind constraints (disjunctions across kinds) report KindAny and
// are checked purely by unification.
func kindOf(v cue.Value) Kind {
	switch v.IncompleteKind() {
	case cue.BoolKind:
		return KindBool
	case cue.IntKind:
		return KindInt
	case cue.FloatKind, cue.NumberKind:
		return KindFloat
	case cue.StringKind:
		return KindString
	case cue.StructKind:
		return KindStruct
	case cue.ListKind:
		return KindList
	default:
		return KindAny
	}
}

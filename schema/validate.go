package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/agnivade/levenshtein"

	"github.com/epiframe/epiframe/document"
)

// Option configures a validation pass.
type Option func(*options)

type options struct {
	closed bool
}

// Closed rejects input fields the schema does not declare. The default
// is open mode: unknown fields are ignored, with a "did you mean"
// warning when they closely match a declared field.
func Closed() Option {
	return func(o *options) { o.closed = true }
}

// suggestionDistance is the maximum Levenshtein distance for an unknown
// key to be reported as a likely misspelling of a declared field.
const suggestionDistance = 2

// Validate converts an untyped configuration document into a typed,
// immutable Instance of the schema, or fails with a ValidationError
// aggregating every discovered problem.
//
// The walk visits declared fields in declaration order, so two runs over
// the same invalid input yield the identical ordered violation list.
// Defaults are filled for absent fields; an absent nested struct is
// validated as an empty document against the nested declarations. Int
// input coerces to float where a float is declared; nothing else
// coerces.
//
// Validate is a pure function of its inputs: it never mutates doc and
// has no side effects.
func Validate(doc document.Value, s *Schema, opts ...Option) (*Instance, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	obj, ok := doc.(document.Object)
	if !ok {
		return nil, &ValidationError{
			Schema: s.name,
			Violations: []Violation{{
				Field:   "",
				Code:    CodeMalformedDocument,
				Message: "document root must be an object",
				Actual:  renderActual(doc),
			}},
		}
	}

	w := &walker{schema: s, opts: o}
	out := w.validateStruct(s.fields, obj, "", s.open)

	// Cross-field constraints reference sibling fields and are only
	// meaningful once every field is individually valid, so the
	// whole-document unification runs on a clean per-field pass.
	if len(w.violations) == 0 {
		w.crossFieldPass(out)
	}

	if len(w.violations) > 0 {
		return nil, &ValidationError{Schema: s.name, Violations: w.violations}
	}

	digest, err := document.Digest(out)
	if err != nil {
		return nil, fmt.Errorf("fingerprint validated document: %w", err)
	}

	return &Instance{
		schema:   s,
		doc:      out,
		warnings: w.warnings,
		digest:   digest,
	}, nil
}

// walker accumulates violations and warnings across one validation pass.
type walker struct {
	schema     *Schema
	opts       options
	violations []Violation
	warnings   []Warning
}

func (w *walker) addViolation(v Violation) {
	w.violations = append(w.violations, v)
}

// validateStruct checks a document object against an ordered list of
// field declarations, returning the validated, defaults-filled object.
// An open struct (declared with `...`) additionally carries every
// undeclared input key through unchanged; a closed-mode pass does not
// reject them, since the schema itself admits arbitrary content there.
func (w *walker) validateStruct(decls []fieldDecl, obj document.Object, prefix string, open bool) document.Object {
	out := make(document.Object, len(decls))

	declared := make(map[string]bool, len(decls))
	for i := range decls {
		decl := &decls[i]
		declared[decl.name] = true
		path := joinPath(prefix, decl.name)
		raw, present := obj[decl.name]

		if !present {
			w.handleAbsent(decl, path, out)
			continue
		}
		if checked, ok := w.validateValue(decl, raw, path); ok {
			out[decl.name] = checked
		}
	}

	if open {
		for _, k := range obj.SortedKeys() {
			if !declared[k] {
				out[k] = document.Clone(obj[k])
			}
		}
		return out
	}

	w.checkUnknownKeys(declared, decls, obj, prefix)
	return out
}

// handleAbsent resolves an absent field: default, optional skip,
// recursive descent for structs, or a missing-field violation.
func (w *walker) handleAbsent(decl *fieldDecl, path string, out document.Object) {
	switch {
	case decl.hasDefault:
		out[decl.name] = document.Clone(decl.def)
	case decl.optional:
		// Absent and allowed to be.
	case decl.kind == KindStruct:
		// Validate the nested declarations against an empty document:
		// nested defaults fill in, nested required fields violate.
		out[decl.name] = w.validateStruct(decl.fields, document.Object{}, path, decl.open)
	default:
		w.addViolation(Violation{
			Field:    path,
			Code:     CodeMissingField,
			Message:  fmt.Sprintf("required field is missing (%s)", decl.kind),
			Expected: renderConstraint(decl.val),
		})
	}
}

// validateValue checks one present value against its declaration.
func (w *walker) validateValue(decl *fieldDecl, raw document.Value, path string) (document.Value, bool) {
	if _, isNull := raw.(document.Null); isNull && decl.kind != KindAny {
		w.addViolation(Violation{
			Field:    path,
			Code:     CodeWrongType,
			Message:  fmt.Sprintf("null is not a valid %s", decl.kind),
			Expected: string(decl.kind),
			Actual:   "null",
		})
		return nil, false
	}

	switch decl.kind {
	case KindStruct:
		nested, ok := raw.(document.Object)
		if !ok {
			w.wrongType(decl, raw, path)
			return nil, false
		}
		return w.validateStruct(decl.fields, nested, path, decl.open), true

	case KindList:
		list, ok := raw.(document.List)
		if !ok {
			w.wrongType(decl, raw, path)
			return nil, false
		}
		return w.validateList(decl, list, path)

	default:
		coerced, ok := coerceScalar(decl.kind, raw)
		if !ok {
			w.wrongType(decl, raw, path)
			return nil, false
		}
		if !w.unify(decl.val, coerced, path) {
			return nil, false
		}
		return coerced, true
	}
}

// validateList checks a list value element by element when the element
// declaration is expressible, otherwise by unifying the list whole.
func (w *walker) validateList(decl *fieldDecl, list document.List, path string) (document.Value, bool) {
	if decl.elem == nil {
		if !w.unify(decl.val, list, path) {
			return nil, false
		}
		return document.Clone(list), true
	}

	out := make(document.List, 0, len(list))
	ok := true
	for i, elem := range list {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		checked, elemOK := w.validateValue(decl.elem, elem, elemPath)
		if !elemOK {
			ok = false
			continue
		}
		out = append(out, checked)
	}
	if !ok {
		return nil, false
	}
	return out, true
}

// unify checks a value against its field's compiled constraint.
//
// Only Validate is consulted, never Err: a bound referencing a sibling
// field (`last_year: int & >=first_year`) cannot evaluate in a single
// field's context and surfaces through Err as an incomplete error even
// on valid input. Validate without cue.Concrete skips incomplete
// errors while still reporting genuine conflicts, leaving
// sibling-referencing constraints to the whole-document pass.
func (w *walker) unify(constraint cue.Value, val document.Value, path string) bool {
	unified := constraint.Unify(w.schema.ctx.Encode(document.ToGo(val)))
	if err := unified.Validate(); err != nil {
		w.addViolation(Violation{
			Field:    path,
			Code:     CodeConstraint,
			Message:  fmt.Sprintf("value does not satisfy constraint: %s", firstCUEError(err)),
			Expected: renderConstraint(constraint),
			Actual:   renderActual(val),
		})
		return false
	}
	return true
}

// firstCUEError extracts the first underlying CUE error message.
func firstCUEError(err error) string {
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		return errs[0].Error()
	}
	return err.Error()
}

// crossFieldPass unifies the whole validated document with the schema,
// resolving constraints that reference sibling fields. As in unify,
// Validate without cue.Concrete is the arbiter: a bound referencing an
// absent optional sibling stays incomplete and is not a violation.
func (w *walker) crossFieldPass(out document.Object) {
	unified := w.schema.val.Unify(w.schema.ctx.Encode(document.ToGo(out)))
	err := unified.Validate()
	if err == nil {
		return
	}

	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		path := strings.Join(e.Path(), ".")
		msg := e.Error()
		key := path + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true
		w.addViolation(Violation{
			Field:   path,
			Code:    CodeConstraint,
			Message: msg,
		})
	}
}

// checkUnknownKeys handles input keys the declarations do not cover:
// violations in closed mode, close-match warnings in open mode. Keys are
// visited in canonical order so reports are deterministic.
func (w *walker) checkUnknownKeys(declared map[string]bool, decls []fieldDecl, obj document.Object, prefix string) {
	for _, k := range obj.SortedKeys() {
		if declared[k] {
			continue
		}
		path := joinPath(prefix, k)
		if w.opts.closed {
			w.addViolation(Violation{
				Field:   path,
				Code:    CodeUnknownField,
				Message: fmt.Sprintf("field %q is not declared by the schema", k),
				Actual:  renderActual(obj[k]),
			})
			continue
		}
		if match, ok := closestDecl(k, decls); ok {
			w.warnings = append(w.warnings, Warning{
				Field:   path,
				Message: fmt.Sprintf("unknown field %q ignored: did you mean %q?", k, match),
			})
		}
	}
}

// closestDecl finds the declared field name nearest to key within
// suggestionDistance, preferring earlier declarations on ties.
func closestDecl(key string, decls []fieldDecl) (string, bool) {
	best := ""
	bestDist := suggestionDistance + 1
	for i := range decls {
		d := levenshtein.ComputeDistance(key, decls[i].name)
		if d < bestDist {
			best = decls[i].name
			bestDist = d
		}
	}
	return best, best != ""
}

func (w *walker) wrongType(decl *fieldDecl, raw document.Value, path string) {
	w.addViolation(Violation{
		Field:    path,
		Code:     CodeWrongType,
		Message:  fmt.Sprintf("expected %s, got %s", decl.kind, raw.Kind()),
		Expected: string(decl.kind),
		Actual:   renderActual(raw),
	})
}

// coerceScalar checks a scalar (or any-kind) value against the declared
// kind. The single permitted coercion is int input where a float is
// declared.
func coerceScalar(kind Kind, raw document.Value) (document.Value, bool) {
	switch kind {
	case KindBool:
		_, ok := raw.(document.Bool)
		return raw, ok
	case KindInt:
		_, ok := raw.(document.Int)
		return raw, ok
	case KindFloat:
		switch v := raw.(type) {
		case document.Float:
			return raw, true
		case document.Int:
			return document.Float(v), true
		default:
			return raw, false
		}
	case KindString:
		_, ok := raw.(document.String)
		return raw, ok
	case KindAny:
		return document.Clone(raw), true
	default:
		return raw, false
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// renderConstraint renders a field's constraint source for diagnostics.
func renderConstraint(v cue.Value) string {
	return fmt.Sprint(v)
}

// renderActual renders an offending value for diagnostics.
func renderActual(v document.Value) string {
	if v == nil {
		return ""
	}
	data, err := document.MarshalValue(v)
	if err != nil {
		return string(v.Kind())
	}
	return string(data)
}

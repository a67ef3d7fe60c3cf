package schema

import (
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"
)

// Update derives the incremental-update schema: the schema a sparse
// parameter-change document validates against. Every non-read-only
// field becomes optional, defaults are dropped (an update only carries
// what it changes), and read-only fields are excluded entirely.
//
// The derivation transforms the schema's own CUE source, so constraints
// survive verbatim: a field declared `int & >=1` still requires a
// positive int when an update does supply it.
//
// The result is computed once and cached; Update is safe for concurrent
// use.
func (s *Schema) Update() (*Schema, error) {
	s.updateOnce.Do(func() {
		s.update, s.updateErr = deriveUpdate(s.name, s.source)
	})
	return s.update, s.updateErr
}

func deriveUpdate(name, source string) (*Schema, error) {
	file, err := parser.ParseFile(name+".cue", source)
	if err != nil {
		return nil, newSchemaError(name, err)
	}

	file.Decls = updateDecls(file.Decls)

	out, err := format.Node(file)
	if err != nil {
		return nil, newSchemaError(name, err)
	}
	return Parse(name+"+update", string(out))
}

// updateDecls rewrites a struct body for update semantics: read-only
// fields dropped, remaining fields optional, values rewritten by
// updateExpr.
func updateDecls(decls []ast.Decl) []ast.Decl {
	out := make([]ast.Decl, 0, len(decls))
	for _, d := range decls {
		field, ok := d.(*ast.Field)
		if !ok {
			out = append(out, d)
			continue
		}
		if hasReadOnlyAttr(field) {
			continue
		}
		field.Constraint = token.OPTION
		field.Value = updateExpr(field.Value)
		out = append(out, field)
	}
	return out
}

func hasReadOnlyAttr(field *ast.Field) bool {
	for _, attr := range field.Attrs {
		if strings.HasPrefix(attr.Text, "@readonly") {
			return true
		}
	}
	return false
}

// updateExpr rewrites a field value for update semantics.
//
// Default markers are stripped but their branches kept, so an enum
// default *"euler" | "rk4" becomes "euler" | "rk4". A bare concrete
// scalar (which doubles as a default in the full schema) widens to its
// basic type, since an update may set any conforming value.
func updateExpr(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.StructLit:
		x.Elts = updateDecls(x.Elts)
		return x
	case *ast.BinaryExpr:
		if x.Op == token.OR {
			return stripDefaultMarks(x)
		}
		return x
	case *ast.UnaryExpr:
		if x.Op == token.MUL {
			return updateExpr(x.X)
		}
		return x
	case *ast.BasicLit:
		return widenLiteral(x)
	case *ast.Ident:
		if x.Name == "true" || x.Name == "false" {
			return ast.NewIdent("bool")
		}
		return x
	case *ast.ListLit:
		return x
	default:
		return e
	}
}

// stripDefaultMarks removes *-markers from every branch of a
// disjunction, leaving the branches themselves intact.
func stripDefaultMarks(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.BinaryExpr:
		if x.Op == token.OR {
			x.X = stripDefaultMarks(x.X)
			x.Y = stripDefaultMarks(x.Y)
		}
		return x
	case *ast.UnaryExpr:
		if x.Op == token.MUL {
			return x.X
		}
		return x
	default:
		return e
	}
}

// widenLiteral maps a concrete literal to its basic type.
func widenLiteral(lit *ast.BasicLit) ast.Expr {
	switch lit.Kind {
	case token.INT:
		return ast.NewIdent("int")
	case token.FLOAT:
		return ast.NewIdent("number")
	case token.STRING:
		return ast.NewIdent("string")
	default:
		return lit
	}
}

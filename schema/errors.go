package schema

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// Violation codes (V100-V199).
const (
	CodeMalformedDocument = "V100" // document root is not an object, or a value is null
	CodeMissingField      = "V101" // required field absent from input
	CodeWrongType         = "V102" // value kind does not match the declaration
	CodeConstraint        = "V103" // value violates a declared constraint
	CodeUnknownField      = "V104" // field not declared by the schema (closed mode)
)

// Violation is one discovered problem in a configuration document.
// Field is a dotted, indexed path ("mitigation.start_day",
// "changes[2].month"); Expected and Actual carry the constraint source
// and the offending value rendering where they apply.
type Violation struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	if v.Field == "" {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Field, v.Message)
}

// ValidationError aggregates every violation discovered in one
// validation pass. The validator never stops at the first problem, so
// the caller sees all configuration mistakes at once; the list order is
// deterministic (declaration-order walk).
type ValidationError struct {
	Schema     string
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "configuration invalid for schema %q: %d violation(s)", e.Schema, len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Warning is a non-fatal observation attached to a validated instance,
// currently produced for unknown input fields that closely match a
// declared field in open mode.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaProblem is one problem in schema source, with position info
// where CUE provides it.
type SchemaProblem struct {
	Pos     string `json:"pos,omitempty"`
	Message string `json:"message"`
}

// SchemaError reports invalid schema source at Parse time. Like
// ValidationError it aggregates: CUE reports every compile problem it
// finds, and all of them are surfaced.
type SchemaError struct {
	Name     string
	Problems []SchemaProblem
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid schema %q: %d problem(s)", e.Name, len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		if p.Pos != "" {
			b.WriteString(p.Pos)
			b.WriteString(": ")
		}
		b.WriteString(p.Message)
	}
	return b.String()
}

// IsSchemaError reports whether err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// newSchemaError converts a CUE error (which may hold several underlying
// errors) into a SchemaError with positions.
func newSchemaError(name string, err error) *SchemaError {
	se := &SchemaError{Name: name}
	for _, e := range cueerrors.Errors(err) {
		problem := SchemaProblem{Message: e.Error()}
		if positions := cueerrors.Positions(e); len(positions) > 0 && positions[0].IsValid() {
			pos := positions[0]
			problem.Pos = fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
		}
		se.Problems = append(se.Problems, problem)
	}
	if len(se.Problems) == 0 {
		se.Problems = []SchemaProblem{{Message: err.Error()}}
	}
	return se
}

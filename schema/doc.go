// Package schema implements declarative parameter schemas for simulation
// models and the validator that turns untyped configuration documents into
// typed, immutable parameter instances.
//
// ARCHITECTURE:
//
// Schemas are data, not code. A schema is written as a CUE struct - field
// types, defaults (*default | type disjunctions), range and membership
// constraints, cross-field references - and compiled once with Parse. The
// validator interprets the compiled declarations uniformly; no model ever
// writes bespoke per-field validation code.
//
// Validation is exhaustive, never fail-fast. Validate walks every declared
// field in declaration order and aggregates all violations into a single
// ValidationError: a document missing two required fields and violating one
// range constraint yields exactly three violations. Running the validator
// twice over the same invalid input produces the identical ordered list.
//
// Cross-field constraints (a field referencing a sibling, e.g.
// last_year: >=first_year) are evaluated in a whole-document unification
// pass that runs once the per-field pass is clean, since they are only
// meaningful over individually valid fields.
//
// Unknown input fields are ignored by default (open mode) and rejected with
// the Closed option. In open mode, unknown keys that closely match a
// declared field produce "did you mean" warnings on the instance instead of
// silently vanishing.
//
// Fields marked @readonly() participate in validation normally but are
// structurally excluded from derived update schemas (Schema.Update), which
// make every remaining field optional and drop defaults. Apply folds such a
// sparse update document over a validated instance and revalidates.
package schema

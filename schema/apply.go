package schema

import (
	"github.com/epiframe/epiframe/document"
)

// Apply folds a sparse update document over a validated instance and
// returns the new instance. Only fields present in the update overlay
// the base: nested objects merge recursively, scalars and lists
// replace. The merged result revalidates against the full schema, so
// cross-field constraints hold on the combination, not just on each
// half.
//
// The update is validated against the derived update schema (see
// Update) in closed mode: an unknown key in an update is a typo or an
// attempt to change a read-only field, and either way silently dropping
// it would defeat the point of the update.
//
// Apply is pure; the base instance is untouched.
func Apply(base *Instance, update document.Object) (*Instance, error) {
	updateSchema, err := base.schema.Update()
	if err != nil {
		return nil, err
	}

	validated, err := Validate(update, updateSchema, Closed())
	if err != nil {
		return nil, err
	}

	merged := mergeObjects(base.doc, validated.Document())
	return Validate(merged, base.schema)
}

// mergeObjects overlays update onto base, recursing into objects
// present on both sides. Neither argument is mutated.
func mergeObjects(base, update document.Object) document.Object {
	out := make(document.Object, len(base))
	for k, v := range base {
		out[k] = document.Clone(v)
	}
	for k, v := range update {
		baseObj, baseIsObj := out[k].(document.Object)
		updObj, updIsObj := v.(document.Object)
		if baseIsObj && updIsObj {
			out[k] = mergeObjects(baseObj, updObj)
			continue
		}
		out[k] = document.Clone(v)
	}
	return out
}

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/epiframe/epiframe/document"
)

// Instance is a validated, defaults-filled, immutable parameter set:
// the product of one successful Validate call. Every declared field is
// present and typed, and all declared constraints hold. Instances are
// never mutated after construction; Apply produces new ones.
type Instance struct {
	schema   *Schema
	doc      document.Object
	warnings []Warning
	digest   string
}

// Schema returns the schema the instance was validated against.
func (in *Instance) Schema() *Schema { return in.schema }

// Document returns a deep copy of the validated document.
// The instance's own copy cannot be reached, so it cannot be mutated.
func (in *Instance) Document() document.Object {
	return document.Clone(in.doc).(document.Object)
}

// Warnings returns the non-fatal observations recorded during
// validation (e.g. "did you mean" suggestions for unknown fields).
func (in *Instance) Warnings() []Warning {
	if in.warnings == nil {
		return nil
	}
	out := make([]Warning, len(in.warnings))
	copy(out, in.warnings)
	return out
}

// Fingerprint returns the hex SHA-256 of the validated document's
// canonical rendering. Two instances with equal content have equal
// fingerprints regardless of input ordering or formatting.
func (in *Instance) Fingerprint() string { return in.digest }

// Get returns the value at a top-level field, if present.
func (in *Instance) Get(name string) (document.Value, bool) {
	v, ok := in.doc[name]
	if !ok {
		return nil, false
	}
	return document.Clone(v), true
}

// Decode unmarshals the validated document into a typed params struct.
//
// Decoding is strict in one direction: a schema field the target struct
// does not declare is an error, since it means the model would silently
// ignore configuration the schema promises to deliver. Extra struct
// fields are fine; they simply stay zero.
func (in *Instance) Decode(out any) error {
	data, err := json.Marshal(in.doc)
	if err != nil {
		return fmt.Errorf("decode instance of %q: %w", in.schema.name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode instance of %q into %T: %w", in.schema.name, out, err)
	}
	return nil
}

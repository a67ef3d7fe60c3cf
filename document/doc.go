// Package document defines the constrained value model for configuration
// documents: the JSON-compatible data fed to the parameter validator and
// carried inside validated parameter instances.
//
// A document is a tree of Value nodes. The Value interface is sealed - only
// Null, Bool, Int, Float, String, List, and Object implement it. Keeping the
// set closed lets every consumer exhaust it with a type switch and makes
// "unsupported type" a construction-time error rather than a latent one.
//
// Ints and floats are distinct. JSON input is decoded with json.Number so a
// population count of 1000 arrives as Int(1000), never Float(1000). The
// schema package relies on this to report "wrong type" precisely; the only
// coercion it performs (int where a float is declared) is its decision, not
// this package's.
//
// Canonical serialization (MarshalCanonical) produces a byte-stable rendering
// used for fingerprinting validated parameter sets:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - floats in Go's shortest round-trip form; NaN and infinities rejected
//
// Digest computes a SHA-256 over that rendering.
package document

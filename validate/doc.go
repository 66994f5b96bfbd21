// Package validate defines the minimal structural validation contract the
// migration engine depends on, together with a cty-backed implementation.
//
// The contract is intentionally small: a Validator accepts or rejects a
// cty.Value with structured detail, and a Transformer may additionally
// rewrite the value it accepted. The entity package consumes only these two
// interfaces, so any validation backend that can produce a Rejection plugs
// in without touching the engine.
package validate

package entity

import (
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// Resolver maps raw untyped input to the version it claims to be. It must be
// total and side-effect-free: every input, however malformed, yields either
// a version number or ok=false (indeterminate), never a panic. A Resolver
// sees only the raw value, never validators.
type Resolver func(input cty.Value) (v Version, ok bool)

// TagResolver returns the common discriminator-field convention: the input
// is an object or map whose attribute `name` holds a whole number, which is
// the version. Anything else, including a fractional tag, is indeterminate.
// A whole number that no definition covers (zero, negative, too high) still
// resolves here and is reported by the engine as an unknown version.
func TagResolver(name string) Resolver {
	return func(input cty.Value) (Version, bool) {
		if input.IsNull() || !input.IsKnown() {
			return 0, false
		}
		var tag cty.Value
		t := input.Type()
		switch {
		case t.IsObjectType():
			if !t.HasAttribute(name) {
				return 0, false
			}
			tag = input.GetAttr(name)
		case t.IsMapType():
			key := cty.StringVal(name)
			if input.HasIndex(key) != cty.True {
				return 0, false
			}
			tag = input.Index(key)
		default:
			return 0, false
		}
		if tag.IsNull() || !tag.IsKnown() || !tag.Type().Equals(cty.Number) {
			return 0, false
		}
		n, acc := tag.AsBigFloat().Int64()
		if acc != big.Exact {
			return 0, false
		}
		return Version(n), true
	}
}

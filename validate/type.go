package validate

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Type wraps a bare cty.Type as a Validator: a value conforms when it can be
// converted to the wanted type.
func Type(want cty.Type) Validator {
	return typeValidator{want: want}
}

type typeValidator struct {
	want cty.Type
}

func (t typeValidator) Validate(v cty.Value) *Rejection {
	if v.IsNull() || !v.IsKnown() {
		return reject(nil, "expected %s, got %s", t.want.FriendlyName(), describe(v))
	}
	if _, err := convert.Convert(v, t.want); err != nil {
		return reject(nil, "expected %s, got %s", t.want.FriendlyName(), v.Type().FriendlyName())
	}
	return nil
}

package validate

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Attr constrains a single attribute of an object. Exactly one of Type or
// Nested must be set: Type checks conformance by cty conversion, Nested
// delegates to an embedded Validator (and, when that validator is also a
// Transformer, replaces the attribute with the transformed value).
type Attr struct {
	Type     cty.Type
	Nested   Validator
	Optional bool
}

// ObjectValidator checks an object or map value attribute by attribute. It
// is open: attributes not named in the schema pass through untouched, which
// lets payloads carry a version discriminator alongside the constrained
// fields without declaring it at every version.
type ObjectValidator struct {
	attrs map[string]Attr
	names []string // sorted, for deterministic problem ordering
}

// Object builds an ObjectValidator from per-attribute constraints. It panics
// if an Attr sets both Type and Nested, or neither.
func Object(attrs map[string]Attr) *ObjectValidator {
	names := make([]string, 0, len(attrs))
	for name, attr := range attrs {
		hasType := attr.Type != cty.NilType
		hasNested := attr.Nested != nil
		if hasType == hasNested {
			panic("validate: attribute " + name + " must set exactly one of Type or Nested")
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return &ObjectValidator{attrs: attrs, names: names}
}

// Validate implements Validator.
func (o *ObjectValidator) Validate(v cty.Value) *Rejection {
	_, rej := o.Apply(v)
	return rej
}

// Apply implements Transformer. On acceptance it returns the object rebuilt
// with converted attribute values and with nested transforms applied; the
// input value is never mutated.
func (o *ObjectValidator) Apply(v cty.Value) (cty.Value, *Rejection) {
	if v.IsNull() || !v.IsKnown() {
		return cty.NilVal, reject(nil, "expected an object, got %s", describe(v))
	}
	if t := v.Type(); !t.IsObjectType() && !t.IsMapType() {
		return cty.NilVal, reject(nil, "expected an object, got %s", t.FriendlyName())
	}

	out := make(map[string]cty.Value)
	for name, av := range v.AsValueMap() {
		out[name] = av
	}

	var problems []Problem
	for _, name := range o.names {
		attr := o.attrs[name]
		av, ok := out[name]
		if !ok || av.IsNull() {
			if !attr.Optional {
				problems = append(problems, Problem{
					Path:    cty.GetAttrPath(name),
					Summary: "required attribute is missing",
				})
			}
			continue
		}

		switch {
		case attr.Nested != nil:
			applied, rej := applyNested(attr.Nested, av)
			if rej != nil {
				for _, p := range rej.Problems {
					problems = append(problems, Problem{
						Path:    append(cty.GetAttrPath(name), p.Path...),
						Summary: p.Summary,
					})
				}
				continue
			}
			out[name] = applied

		default:
			conv, err := convert.Convert(av, attr.Type)
			if err != nil {
				problems = append(problems, Problem{
					Path:    cty.GetAttrPath(name),
					Summary: "expected " + attr.Type.FriendlyName() + ", got " + av.Type().FriendlyName(),
				})
				continue
			}
			out[name] = conv
		}
	}

	if len(problems) > 0 {
		return cty.NilVal, &Rejection{Problems: problems}
	}
	return cty.ObjectVal(out), nil
}

// applyNested runs an embedded validator, using its Transformer form when it
// has one so embedded rewrites surface in the parent value.
func applyNested(v Validator, val cty.Value) (cty.Value, *Rejection) {
	if tr, ok := v.(Transformer); ok {
		return tr.Apply(val)
	}
	if rej := v.Validate(val); rej != nil {
		return cty.NilVal, rej
	}
	return val, nil
}

func describe(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if !v.IsKnown() {
		return "an unknown value"
	}
	return v.Type().FriendlyName()
}

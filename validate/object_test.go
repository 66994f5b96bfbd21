package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestObject_Accepts(t *testing.T) {
	v := Object(map[string]Attr{
		"name":  {Type: cty.String},
		"count": {Type: cty.Number},
	})

	in := cty.ObjectVal(map[string]cty.Value{
		"name":  cty.StringVal("widget"),
		"count": cty.NumberIntVal(3),
	})
	assert.Nil(t, v.Validate(in))
}

func TestObject_MissingRequired(t *testing.T) {
	v := Object(map[string]Attr{
		"name": {Type: cty.String},
	})

	rej := v.Validate(cty.EmptyObjectVal)
	require.NotNil(t, rej)
	require.Len(t, rej.Problems, 1)
	assert.Equal(t, "name", FormatPath(rej.Problems[0].Path))
	assert.Contains(t, rej.Problems[0].Summary, "missing")
}

func TestObject_OptionalMayBeAbsent(t *testing.T) {
	v := Object(map[string]Attr{
		"name": {Type: cty.String, Optional: true},
	})
	assert.Nil(t, v.Validate(cty.EmptyObjectVal))
}

func TestObject_TypeMismatch(t *testing.T) {
	v := Object(map[string]Attr{
		"count": {Type: cty.Number},
	})

	rej := v.Validate(cty.ObjectVal(map[string]cty.Value{
		"count": cty.StringVal("many"),
	}))
	require.NotNil(t, rej)
	require.Len(t, rej.Problems, 1)
	assert.Equal(t, "count", FormatPath(rej.Problems[0].Path))
	assert.Contains(t, rej.Problems[0].Summary, "expected number")
}

func TestObject_ProblemsAreDeterministicAndComplete(t *testing.T) {
	v := Object(map[string]Attr{
		"a": {Type: cty.Number},
		"b": {Type: cty.Number},
		"c": {Type: cty.Number},
	})

	rej := v.Validate(cty.ObjectVal(map[string]cty.Value{
		"c": cty.StringVal("x"),
	}))
	require.NotNil(t, rej)
	require.Len(t, rej.Problems, 3, "every mismatch is reported, not just the first")
	assert.Equal(t, "a", FormatPath(rej.Problems[0].Path))
	assert.Equal(t, "b", FormatPath(rej.Problems[1].Path))
	assert.Equal(t, "c", FormatPath(rej.Problems[2].Path))
}

func TestObject_NonObjectInput(t *testing.T) {
	v := Object(map[string]Attr{"a": {Type: cty.Number}})

	for name, in := range map[string]cty.Value{
		"string": cty.StringVal("nope"),
		"number": cty.NumberIntVal(1),
		"null":   cty.NullVal(cty.EmptyObject),
		"list":   cty.ListVal([]cty.Value{cty.NumberIntVal(1)}),
	} {
		t.Run(name, func(t *testing.T) {
			rej := v.Validate(in)
			require.NotNil(t, rej)
			assert.Contains(t, rej.Problems[0].Summary, "expected an object")
		})
	}
}

func TestObject_OpenToUndeclaredAttributes(t *testing.T) {
	v := Object(map[string]Attr{"a": {Type: cty.Number}})

	in := cty.ObjectVal(map[string]cty.Value{
		"a":     cty.NumberIntVal(1),
		"extra": cty.StringVal("passes through"),
	})
	out, rej := v.Apply(in)
	require.Nil(t, rej)
	assert.True(t, in.RawEquals(out))
}

func TestObject_ApplyConverts(t *testing.T) {
	v := Object(map[string]Attr{"count": {Type: cty.Number}})

	// cty conversion accepts a numeric string for a number attribute and
	// Apply surfaces the converted form.
	out, rej := v.Apply(cty.ObjectVal(map[string]cty.Value{
		"count": cty.StringVal("42"),
	}))
	require.Nil(t, rej)
	assert.True(t, cty.NumberIntVal(42).RawEquals(out.GetAttr("count")))
}

func TestObject_MapInput(t *testing.T) {
	v := Object(map[string]Attr{"a": {Type: cty.Number}})

	out, rej := v.Apply(cty.MapVal(map[string]cty.Value{
		"a": cty.NumberIntVal(7),
	}))
	require.Nil(t, rej)
	assert.True(t, out.Type().IsObjectType(), "Apply normalizes maps to objects")
	assert.True(t, cty.NumberIntVal(7).RawEquals(out.GetAttr("a")))
}

func TestObject_NestedValidatorPaths(t *testing.T) {
	inner := Object(map[string]Attr{"x": {Type: cty.Number}})
	outer := Object(map[string]Attr{
		"child": {Nested: inner},
	})

	rej := outer.Validate(cty.ObjectVal(map[string]cty.Value{
		"child": cty.EmptyObjectVal,
	}))
	require.NotNil(t, rej)
	require.Len(t, rej.Problems, 1)
	assert.Equal(t, "child.x", FormatPath(rej.Problems[0].Path))
}

func TestObject_NestedTransformReplacesField(t *testing.T) {
	doubler := transformFunc(func(v cty.Value) (cty.Value, *Rejection) {
		f := v.AsBigFloat()
		doubled, _ := f.Float64()
		return cty.NumberFloatVal(doubled * 2), nil
	})
	outer := Object(map[string]Attr{
		"n": {Nested: doubler},
	})

	out, rej := outer.Apply(cty.ObjectVal(map[string]cty.Value{
		"n": cty.NumberIntVal(4),
	}))
	require.Nil(t, rej)
	assert.True(t, cty.NumberFloatVal(8).RawEquals(out.GetAttr("n")))
}

func TestObject_ConstructorRejectsAmbiguousAttrs(t *testing.T) {
	assert.Panics(t, func() {
		Object(map[string]Attr{"a": {}})
	})
	assert.Panics(t, func() {
		Object(map[string]Attr{"a": {Type: cty.Number, Nested: Type(cty.Number)}})
	})
}

func TestType(t *testing.T) {
	v := Type(cty.String)
	assert.Nil(t, v.Validate(cty.StringVal("ok")))
	assert.NotNil(t, v.Validate(cty.ListVal([]cty.Value{cty.StringVal("x")})))
	assert.NotNil(t, v.Validate(cty.NullVal(cty.String)))
}

func TestFormatPath(t *testing.T) {
	path := cty.GetAttrPath("items").Index(cty.NumberIntVal(2)).GetAttr("name")
	assert.Equal(t, `items[2].name`, FormatPath(path))

	keyed := cty.GetAttrPath("byName").Index(cty.StringVal("x"))
	assert.Equal(t, `byName["x"]`, FormatPath(keyed))
}

func TestRejection_Error(t *testing.T) {
	rej := &Rejection{Problems: []Problem{
		{Path: cty.GetAttrPath("a"), Summary: "required attribute is missing"},
		{Summary: "expected an object, got string"},
	}}
	msg := rej.Error()
	assert.Contains(t, msg, "a: required attribute is missing")
	assert.Contains(t, msg, "expected an object, got string")
}

// transformFunc adapts a function to the Transformer interface for tests.
type transformFunc func(cty.Value) (cty.Value, *Rejection)

func (f transformFunc) Validate(v cty.Value) *Rejection {
	_, rej := f(v)
	return rej
}

func (f transformFunc) Apply(v cty.Value) (cty.Value, *Rejection) {
	return f(v)
}

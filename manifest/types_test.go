package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseTypeString(t *testing.T) {
	ctx := context.Background()

	t.Run("primitives", func(t *testing.T) {
		cases := map[string]cty.Type{
			"string": cty.String,
			"number": cty.Number,
			"bool":   cty.Bool,
			"any":    cty.DynamicPseudoType,
		}
		for src, want := range cases {
			got, err := ParseTypeString(ctx, src)
			require.NoError(t, err, src)
			assert.True(t, want.Equals(got), src)
		}
	})

	t.Run("collections", func(t *testing.T) {
		got, err := ParseTypeString(ctx, "list(number)")
		require.NoError(t, err)
		assert.True(t, cty.List(cty.Number).Equals(got))

		got, err = ParseTypeString(ctx, "map(string)")
		require.NoError(t, err)
		assert.True(t, cty.Map(cty.String).Equals(got))

		got, err = ParseTypeString(ctx, "set(bool)")
		require.NoError(t, err)
		assert.True(t, cty.Set(cty.Bool).Equals(got))

		got, err = ParseTypeString(ctx, "list(map(string))")
		require.NoError(t, err)
		assert.True(t, cty.List(cty.Map(cty.String)).Equals(got))
	})

	t.Run("errors", func(t *testing.T) {
		for _, src := range []string{
			"integer",
			"list(any)",
			"tuple(string)",
			"list(number, string)",
		} {
			_, err := ParseTypeString(ctx, src)
			assert.Error(t, err, src)
		}
	})
}

func TestTypeExprToCty_NilMeansAny(t *testing.T) {
	got, err := TypeExprToCty(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, cty.DynamicPseudoType.Equals(got))
}

package yaml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/entmigrate/entity"
	"github.com/vk/entmigrate/manifest"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const thingManifest = `
entities:
  - name: thing
    versions:
      1:
        initial: true
        fields:
          a: number
      2:
        fields:
          b: number
        upgrade:
          b: a
`

func TestLoad_AndMigrate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeManifest(t, dir, "thing.yaml", thingManifest)
	writeManifest(t, dir, "ignored.hcl", "entity \"x\" {}")

	set, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	entities, err := manifest.Build(ctx, set)
	require.NoError(t, err)

	ent, ok := entities["thing"]
	require.True(t, ok)
	assert.Equal(t, entity.Version(2), ent.Latest())

	out, err := ent.SafeParse(cty.ObjectVal(map[string]cty.Value{
		"v": cty.NumberIntVal(1),
		"a": cty.NumberIntVal(5),
	}))
	require.NoError(t, err)

	want := cty.ObjectVal(map[string]cty.Value{
		"v": cty.NumberIntVal(2),
		"b": cty.NumberIntVal(5),
	})
	assert.True(t, want.RawEquals(out), "got %#v", out)
}

func TestLoad_FieldForms(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeManifest(t, dir, "forms.yml", `
entities:
  - name: child
    versions:
      1:
        initial: true
        fields:
          a: number

  - name: parent
    version_tag: rev
    versions:
      1:
        initial: true
        fields:
          title: { type: string }
          tags: { type: list(string), optional: true }
          item: { entity: child }
`)

	set, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	entities, err := manifest.Build(ctx, set)
	require.NoError(t, err)

	parent := entities["parent"]
	require.NotNil(t, parent)

	assert.True(t, parent.Is(cty.ObjectVal(map[string]cty.Value{
		"rev":   cty.NumberIntVal(1),
		"title": cty.StringVal("hello"),
		"item": cty.ObjectVal(map[string]cty.Value{
			"v": cty.NumberIntVal(1),
			"a": cty.NumberIntVal(3),
		}),
	})), "optional list field may be absent")
}

func TestLoad_UpgradeExpressions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeManifest(t, dir, "calc.yaml", `
entities:
  - name: calc
    versions:
      1:
        initial: true
        fields:
          a: number
      2:
        fields:
          total: number
        upgrade:
          total: a * 2 + 1
`)

	set, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)
	entities, err := manifest.Build(ctx, set)
	require.NoError(t, err)

	out, err := entities["calc"].SafeParse(cty.ObjectVal(map[string]cty.Value{
		"v": cty.NumberIntVal(1),
		"a": cty.NumberIntVal(4),
	}))
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(9).RawEquals(out.GetAttr("total")))
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("entity without a name", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "bad.yaml", `
entities:
  - versions:
      1: { initial: true, fields: { a: number } }
`)
		_, err := NewLoader().Load(ctx, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without a name")
	})

	t.Run("bad type keyword", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "bad.yaml", `
entities:
  - name: x
    versions:
      1: { initial: true, fields: { a: integer } }
`)
		_, err := NewLoader().Load(ctx, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown primitive type")
	})

	t.Run("unparseable upgrade expression", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "bad.yaml", `
entities:
  - name: x
    versions:
      1: { initial: true, fields: { a: number } }
      2:
        fields: { b: number }
        upgrade: { b: "a +" }
`)
		_, err := NewLoader().Load(ctx, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upgrade expression")
	})

	t.Run("not yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "bad.yaml", "entities: [")
		_, err := NewLoader().Load(ctx, dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})
}

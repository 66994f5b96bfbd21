// Package hcl implements manifest.Loader for HCL entity manifests.
package hcl

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/entmigrate/entity"
	"github.com/vk/entmigrate/internal/ctxlog"
	"github.com/vk/entmigrate/internal/fsutil"
	"github.com/vk/entmigrate/manifest"
)

// Extension is the file suffix searched for when a load path is a directory.
const Extension = ".hcl"

// --- Manifest schema ---

// manifestFile is the top-level structure of an entity manifest file.
type manifestFile struct {
	Entities []*entityBlock `hcl:"entity,block"`
}

// entityBlock is an `entity` block: one versioned entity.
type entityBlock struct {
	Name       string          `hcl:"name,label"`
	VersionTag string          `hcl:"version_tag,optional"`
	Latest     int             `hcl:"latest,optional"`
	Versions   []*versionBlock `hcl:"version,block"`
}

// versionBlock is a `version` block: one version's field contract plus,
// for non-initial versions, its upgrade block.
type versionBlock struct {
	Number  string        `hcl:"number,label"`
	Initial bool          `hcl:"initial,optional"`
	Fields  []*fieldBlock `hcl:"field,block"`
	Upgrade *upgradeBlock `hcl:"upgrade,block"`
}

// fieldBlock constrains a single field, either by type expression or by a
// reference to another entity in the set.
type fieldBlock struct {
	Name     string         `hcl:"name,label"`
	Type     hcl.Expression `hcl:"type,optional"`
	Entity   string         `hcl:"entity,optional"`
	Optional bool           `hcl:"optional,optional"`
}

// upgradeBlock keeps the upgrade attributes as raw expressions; they are
// evaluated per payload at migration time.
type upgradeBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// --- Loader ---

// Loader loads entity manifests written in HCL.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader { return &Loader{} }

var _ manifest.Loader = (*Loader)(nil)

// Load implements manifest.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*manifest.Set, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.ExpandPaths(paths, Extension)
	if err != nil {
		return nil, err
	}

	set := &manifest.Set{Entities: make(map[string]*manifest.EntityDef)}
	parser := hclparse.NewParser()
	for _, path := range files {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %s", path, diags.Error())
		}

		var mf manifestFile
		if diags := gohcl.DecodeBody(file.Body, nil, &mf); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest %s: %s", path, diags.Error())
		}

		part := &manifest.Set{Entities: make(map[string]*manifest.EntityDef)}
		for _, eb := range mf.Entities {
			def, err := translateEntity(ctx, eb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			part.Entities[def.Name] = def
		}
		if err := set.Merge(part); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("Loaded manifest file.", "path", path, "entities", len(mf.Entities))
	}
	return set, nil
}

// translateEntity converts a decoded entity block into the format-agnostic
// model.
func translateEntity(ctx context.Context, eb *entityBlock) (*manifest.EntityDef, error) {
	def := &manifest.EntityDef{
		Name:       eb.Name,
		VersionTag: eb.VersionTag,
		Latest:     entity.Version(eb.Latest),
		Versions:   make(map[entity.Version]*manifest.VersionDef, len(eb.Versions)),
	}

	for _, vb := range eb.Versions {
		num, err := strconv.Atoi(vb.Number)
		if err != nil {
			return nil, fmt.Errorf("entity %q: version label %q is not a number", eb.Name, vb.Number)
		}
		ver := entity.Version(num)
		if _, exists := def.Versions[ver]; exists {
			return nil, fmt.Errorf("entity %q: version %d is defined more than once", eb.Name, ver)
		}

		vd := &manifest.VersionDef{
			Initial: vb.Initial,
			Fields:  make(map[string]*manifest.FieldDef, len(vb.Fields)),
		}
		for _, fb := range vb.Fields {
			fd, err := translateField(ctx, eb.Name, ver, fb)
			if err != nil {
				return nil, err
			}
			vd.Fields[fb.Name] = fd
		}

		if vb.Upgrade != nil {
			attrs, diags := vb.Upgrade.Body.JustAttributes()
			if diags.HasErrors() {
				return nil, fmt.Errorf("entity %q: version %d: upgrade block: %s", eb.Name, ver, diags.Error())
			}
			vd.Upgrade = make(map[string]hcl.Expression, len(attrs))
			for name, attr := range attrs {
				vd.Upgrade[name] = attr.Expr
			}
		}
		def.Versions[ver] = vd
	}
	return def, nil
}

func translateField(ctx context.Context, entName string, ver entity.Version, fb *fieldBlock) (*manifest.FieldDef, error) {
	if fb.Entity != "" {
		if !exprIsAbsent(fb.Type) {
			return nil, fmt.Errorf("entity %q: version %d: field %q cannot set both type and entity", entName, ver, fb.Name)
		}
		return &manifest.FieldDef{Entity: fb.Entity, Optional: fb.Optional}, nil
	}
	if exprIsAbsent(fb.Type) {
		return nil, fmt.Errorf("entity %q: version %d: field %q needs a type or an entity reference", entName, ver, fb.Name)
	}
	t, err := manifest.TypeExprToCty(ctx, fb.Type)
	if err != nil {
		return nil, fmt.Errorf("entity %q: version %d: field %q: %w", entName, ver, fb.Name, err)
	}
	return &manifest.FieldDef{Type: t, Optional: fb.Optional}, nil
}

// exprIsAbsent reports whether an optional expression attribute was left out
// of the block. gohcl substitutes a static null expression for a missing
// attribute rather than leaving the field nil, so an expression that
// evaluates to null without needing any scope counts as absent too.
func exprIsAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

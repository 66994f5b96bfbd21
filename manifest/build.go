package manifest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/entmigrate/entity"
	"github.com/vk/entmigrate/internal/ctxlog"
	"github.com/vk/entmigrate/validate"
)

// Build compiles a loaded Set into live entities. Cross-entity references
// are resolved in dependency order, so a parent's validators embed the
// already-built child via its Reference adapter; reference cycles are a
// build error.
func Build(ctx context.Context, set *Set) (map[string]*entity.Entity, error) {
	logger := ctxlog.FromContext(ctx)
	built := make(map[string]*entity.Entity, len(set.Entities))

	const (
		visiting = 1
		finished = 2
	)
	state := make(map[string]int)

	var buildOne func(name string, stack []string) error
	buildOne = func(name string, stack []string) error {
		switch state[name] {
		case finished:
			return nil
		case visiting:
			return fmt.Errorf("entity reference cycle: %s", strings.Join(append(stack, name), " -> "))
		}
		def, ok := set.Entities[name]
		if !ok {
			return fmt.Errorf("entity %q references undefined entity %q", stack[len(stack)-1], name)
		}

		state[name] = visiting
		for _, ref := range references(def) {
			if err := buildOne(ref, append(stack, name)); err != nil {
				return err
			}
		}

		ent, err := compileEntity(ctx, def, built)
		if err != nil {
			return err
		}
		built[name] = ent
		state[name] = finished
		logger.Debug("Compiled entity.", "entity", name, "versions", len(def.Versions), "latest", ent.Latest())
		return nil
	}

	names := make([]string, 0, len(set.Entities))
	for name := range set.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := buildOne(name, nil); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// references lists the other entities a definition points at, sorted and
// deduplicated.
func references(def *EntityDef) []string {
	seen := make(map[string]struct{})
	for _, vd := range def.Versions {
		for _, f := range vd.Fields {
			if f.Entity != "" && f.Entity != def.Name {
				seen[f.Entity] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func compileEntity(ctx context.Context, def *EntityDef, built map[string]*entity.Entity) (*entity.Entity, error) {
	tag := def.VersionTag
	if tag == "" {
		tag = DefaultVersionTag
	}

	defs := make(map[entity.Version]entity.Definition, len(def.Versions))
	for ver, vd := range def.Versions {
		attrs, err := compileFields(def.Name, ver, vd.Fields, built)
		if err != nil {
			return nil, err
		}
		validator := validate.Object(attrs)

		if vd.Initial {
			if len(vd.Upgrade) > 0 {
				return nil, fmt.Errorf("entity %q: version %d is marked initial and cannot carry an upgrade block", def.Name, ver)
			}
			defs[ver] = entity.Initial(validator)
			continue
		}
		if vd.Upgrade == nil {
			return nil, fmt.Errorf("entity %q: version %d needs either initial = true or an upgrade block", def.Name, ver)
		}
		defs[ver] = entity.Upgradeable(validator, compileUpgrade(def.Name, tag, ver, vd.Upgrade))
	}

	latest := def.Latest
	if latest == 0 {
		for ver := range def.Versions {
			if ver > latest {
				latest = ver
			}
		}
	}

	reg, err := entity.NewRegistry(latest, defs)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", def.Name, err)
	}
	return entity.New(def.Name, reg, entity.TagResolver(tag))
}

func compileFields(entName string, ver entity.Version, fields map[string]*FieldDef, built map[string]*entity.Entity) (map[string]validate.Attr, error) {
	attrs := make(map[string]validate.Attr, len(fields))
	for name, f := range fields {
		switch {
		case f.Entity != "":
			child, ok := built[f.Entity]
			if !ok {
				return nil, fmt.Errorf("entity %q: version %d: field %q references undefined entity %q", entName, ver, name, f.Entity)
			}
			attrs[name] = validate.Attr{Nested: child.Ref(), Optional: f.Optional}
		case f.Type != cty.NilType:
			attrs[name] = validate.Attr{Type: f.Type, Optional: f.Optional}
		default:
			return nil, fmt.Errorf("entity %q: version %d: field %q needs a type or an entity reference", entName, ver, name)
		}
	}
	return attrs, nil
}

// compileUpgrade turns a version's upgrade expressions into an
// entity.Upgrade closure. Each expression is evaluated with the previous
// payload's top-level attributes in scope, and the version tag of the
// result is set to the target version unless the block sets it explicitly.
// Upgrades are trusted entity authoring; an expression that fails to
// evaluate against a payload the engine already validated is a defect, so
// it panics rather than inventing a value.
func compileUpgrade(entName, tag string, target entity.Version, exprs map[string]hcl.Expression) entity.Upgrade {
	return func(prev cty.Value) cty.Value {
		vars := make(map[string]cty.Value)
		if !prev.IsNull() && prev.IsKnown() {
			if t := prev.Type(); t.IsObjectType() || t.IsMapType() {
				for name, val := range prev.AsValueMap() {
					vars[name] = val
				}
			}
		}
		evalCtx := &hcl.EvalContext{Variables: vars}

		out := make(map[string]cty.Value, len(exprs)+1)
		for name, expr := range exprs {
			val, diags := expr.Value(evalCtx)
			if diags.HasErrors() {
				panic(fmt.Sprintf("entity %q: upgrade to version %d: evaluating attribute %q: %s", entName, target, name, diags.Error()))
			}
			out[name] = val
		}
		if _, ok := out[tag]; !ok {
			out[tag] = cty.NumberIntVal(int64(target))
		}
		return cty.ObjectVal(out)
	}
}

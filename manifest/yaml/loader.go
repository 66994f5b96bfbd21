// Package yaml implements manifest.Loader for YAML entity manifests. Type
// constraints and upgrade expressions are carried as strings and parsed
// with the same grammar as the HCL form.
package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	goyaml "gopkg.in/yaml.v3"

	"github.com/vk/entmigrate/entity"
	"github.com/vk/entmigrate/internal/ctxlog"
	"github.com/vk/entmigrate/internal/fsutil"
	"github.com/vk/entmigrate/manifest"
)

// Extensions are the file suffixes searched for when a load path is a
// directory.
var Extensions = []string{".yaml", ".yml"}

// --- Manifest schema ---

type manifestDoc struct {
	Entities []entityDoc `yaml:"entities"`
}

type entityDoc struct {
	Name       string             `yaml:"name"`
	VersionTag string             `yaml:"version_tag"`
	Latest     int                `yaml:"latest"`
	Versions   map[int]versionDoc `yaml:"versions"`
}

type versionDoc struct {
	Initial bool                `yaml:"initial"`
	Fields  map[string]fieldDoc `yaml:"fields"`
	Upgrade map[string]string   `yaml:"upgrade"`
}

// fieldDoc accepts either the shorthand scalar form (`a: number`) or the
// full mapping form (`child: {entity: child_entity, optional: true}`).
type fieldDoc struct {
	Type     string `yaml:"type"`
	Entity   string `yaml:"entity"`
	Optional bool   `yaml:"optional"`
}

func (f *fieldDoc) UnmarshalYAML(node *goyaml.Node) error {
	if node.Kind == goyaml.ScalarNode {
		f.Type = node.Value
		return nil
	}
	type plain fieldDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = fieldDoc(p)
	return nil
}

// --- Loader ---

// Loader loads entity manifests written in YAML.
type Loader struct{}

// NewLoader creates a new YAML manifest loader.
func NewLoader() *Loader { return &Loader{} }

var _ manifest.Loader = (*Loader)(nil)

// Load implements manifest.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*manifest.Set, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.ExpandPaths(paths, Extensions...)
	if err != nil {
		return nil, err
	}

	set := &manifest.Set{Entities: make(map[string]*manifest.EntityDef)}
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading manifest %s: %w", path, err)
		}

		var doc manifestDoc
		if err := goyaml.Unmarshal(src, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
		}

		part := &manifest.Set{Entities: make(map[string]*manifest.EntityDef)}
		for _, ed := range doc.Entities {
			def, err := translateEntity(ctx, ed)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			part.Entities[def.Name] = def
		}
		if err := set.Merge(part); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug("Loaded manifest file.", "path", path, "entities", len(doc.Entities))
	}
	return set, nil
}

func translateEntity(ctx context.Context, ed entityDoc) (*manifest.EntityDef, error) {
	if ed.Name == "" {
		return nil, fmt.Errorf("entity without a name")
	}
	def := &manifest.EntityDef{
		Name:       ed.Name,
		VersionTag: ed.VersionTag,
		Latest:     entity.Version(ed.Latest),
		Versions:   make(map[entity.Version]*manifest.VersionDef, len(ed.Versions)),
	}

	for num, vd := range ed.Versions {
		ver := entity.Version(num)
		out := &manifest.VersionDef{
			Initial: vd.Initial,
			Fields:  make(map[string]*manifest.FieldDef, len(vd.Fields)),
		}

		for name, fd := range vd.Fields {
			field, err := translateField(ctx, ed.Name, ver, name, fd)
			if err != nil {
				return nil, err
			}
			out.Fields[name] = field
		}

		if vd.Upgrade != nil {
			out.Upgrade = make(map[string]hcl.Expression, len(vd.Upgrade))
			for name, src := range vd.Upgrade {
				expr, diags := hclsyntax.ParseExpression([]byte(src), fmt.Sprintf("%s.v%d.upgrade.%s", ed.Name, ver, name), hcl.InitialPos)
				if diags.HasErrors() {
					return nil, fmt.Errorf("entity %q: version %d: upgrade expression for %q: %s", ed.Name, ver, name, diags.Error())
				}
				out.Upgrade[name] = expr
			}
		}
		def.Versions[ver] = out
	}
	return def, nil
}

func translateField(ctx context.Context, entName string, ver entity.Version, name string, fd fieldDoc) (*manifest.FieldDef, error) {
	if fd.Entity != "" {
		if fd.Type != "" {
			return nil, fmt.Errorf("entity %q: version %d: field %q cannot set both type and entity", entName, ver, name)
		}
		return &manifest.FieldDef{Entity: fd.Entity, Optional: fd.Optional}, nil
	}
	if fd.Type == "" {
		return nil, fmt.Errorf("entity %q: version %d: field %q needs a type or an entity reference", entName, ver, name)
	}
	t, err := manifest.ParseTypeString(ctx, fd.Type)
	if err != nil {
		return nil, fmt.Errorf("entity %q: version %d: field %q: %w", entName, ver, name, err)
	}
	return &manifest.FieldDef{Type: t, Optional: fd.Optional}, nil
}

package manifest

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/entmigrate/entity"
)

// DefaultVersionTag is the discriminator attribute assumed when a manifest
// does not name one.
const DefaultVersionTag = "v"

// Set is a group of entity definitions loaded together. Entities in one set
// may reference each other by name.
type Set struct {
	Entities map[string]*EntityDef
}

// EntityDef describes one versioned entity.
type EntityDef struct {
	Name       string
	VersionTag string
	// Latest is the declared latest version; zero means "highest defined".
	Latest   entity.Version
	Versions map[entity.Version]*VersionDef
}

// VersionDef describes one version of an entity: its field contract and,
// for non-initial versions, the upgrade expressions producing this shape
// from the previous one.
type VersionDef struct {
	Initial bool
	Fields  map[string]*FieldDef
	// Upgrade maps each attribute of the next shape to an expression
	// evaluated with the previous payload's attributes in scope. Nil for
	// initial versions.
	Upgrade map[string]hcl.Expression
}

// FieldDef constrains one field of a version. Exactly one of Type and
// Entity is set: Type is a structural constraint, Entity references another
// entity in the set, embedded via its Reference adapter.
type FieldDef struct {
	Type     cty.Type
	Entity   string
	Optional bool
}

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads manifests from the given paths (files or directories)
	// and merges them into a single Set.
	Load(ctx context.Context, paths ...string) (*Set, error)
}

// Merge folds the entities of other into s, rejecting duplicate names.
func (s *Set) Merge(other *Set) error {
	if s.Entities == nil {
		s.Entities = make(map[string]*EntityDef)
	}
	for name, def := range other.Entities {
		if _, exists := s.Entities[name]; exists {
			return &DuplicateEntityError{Name: name}
		}
		s.Entities[name] = def
	}
	return nil
}

// DuplicateEntityError reports an entity defined more than once across the
// loaded manifests.
type DuplicateEntityError struct {
	Name string
}

func (e *DuplicateEntityError) Error() string {
	return "entity \"" + e.Name + "\" is defined more than once"
}

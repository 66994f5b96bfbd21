package entity

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/entmigrate/validate"
)

// Entity is the public facade over a version Registry and a Resolver. It is
// immutable and safe for concurrent use.
type Entity struct {
	name     string
	registry *Registry
	resolve  Resolver
}

// New builds an Entity from its registry and resolver.
func New(name string, reg *Registry, resolve Resolver) (*Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity needs a name")
	}
	if reg == nil {
		return nil, fmt.Errorf("entity %q needs a registry", name)
	}
	if resolve == nil {
		return nil, fmt.Errorf("entity %q needs a resolver", name)
	}
	return &Entity{name: name, registry: reg, resolve: resolve}, nil
}

// Name returns the entity's name.
func (e *Entity) Name() string { return e.name }

// Latest returns the declared latest version.
func (e *Entity) Latest() Version { return e.registry.Latest() }

// Registry exposes the entity's immutable version registry.
func (e *Entity) Registry() *Registry { return e.registry }

// Is reports whether the input is a member of the entity at any known
// version: its resolved version has a definition and the input passes that
// definition's validator. It never migrates, and collapses every failure to
// false.
func (e *Entity) Is(input cty.Value) bool {
	v, ok := e.resolve(input)
	if !ok {
		return false
	}
	def, ok := e.registry.Definition(v)
	if !ok {
		return false
	}
	return def.validator.Validate(input) == nil
}

// IsLatest reports whether the input conforms to the latest version's
// contract, ignoring the resolver entirely.
func (e *Entity) IsLatest(input cty.Value) bool {
	def, ok := e.registry.Definition(e.registry.Latest())
	if !ok {
		// NewRegistry guarantees the latest version is defined.
		return false
	}
	return def.validator.Validate(input) == nil
}

// SafeParse validates the input at the version it claims to be, then walks
// the registry forward applying one upgrade per intervening version until
// the latest. On success the returned value is shaped as the latest
// version. Failures come back as a *ParseError, never a panic; the input is
// never mutated.
func (e *Entity) SafeParse(input cty.Value) (cty.Value, error) {
	v, ok := e.resolve(input)
	if !ok {
		return cty.NilVal, &ParseError{Entity: e.name, Kind: VersionIndeterminate}
	}

	def, ok := e.registry.Definition(v)
	if !ok {
		return cty.NilVal, &ParseError{Entity: e.name, Kind: UnknownVersion, Version: v}
	}

	// Validation goes through the transformer form when the validator has
	// one, so embedded references migrate their fields at this point.
	payload, rej := applyValidator(def.validator, input)
	if rej != nil {
		return cty.NilVal, &ParseError{
			Entity:     e.name,
			Kind:       ValidationFailed,
			Version:    v,
			Definition: def,
			Detail:     rej,
		}
	}

	// Walk strictly forward, one upgrade per version. A gap or a mid-chain
	// initial tag stops the walk immediately; gaps are never skipped.
	for cur := v + 1; cur <= e.registry.Latest(); cur++ {
		step, ok := e.registry.Definition(cur)
		if !ok {
			return cty.NilVal, &ParseError{Entity: e.name, Kind: MissingVersion, Version: cur}
		}
		if step.initial {
			return cty.NilVal, &ParseError{Entity: e.name, Kind: InitialAtIntermediate, Version: cur}
		}
		payload = step.upgrade(payload)
	}
	return payload, nil
}

func applyValidator(v validate.Validator, input cty.Value) (cty.Value, *validate.Rejection) {
	if tr, ok := v.(validate.Transformer); ok {
		return tr.Apply(input)
	}
	if rej := v.Validate(input); rej != nil {
		return cty.NilVal, rej
	}
	return input, nil
}

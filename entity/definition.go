package entity

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/entmigrate/validate"
)

// Version numbers an entity's historical shapes. Versions are positive and
// totally ordered; the ordering drives the migration walk.
type Version int

// Upgrade transforms a payload from one version's shape to the next. It must
// be pure: no mutation of its input, no side effects. The engine trusts an
// Upgrade to produce output already conforming to the target version and
// does not re-validate intermediate results.
type Upgrade func(cty.Value) cty.Value

// Definition is one version's validation contract, tagged either initial or
// upgradeable. The tag is carried by construction: Initial definitions have
// no upgrade, Upgradeable ones always do, so "non-initial without an
// upgrade" cannot be represented.
type Definition struct {
	validator validate.Validator
	upgrade   Upgrade
	initial   bool
}

// Initial declares the first version of an entity. It panics on a nil
// validator, which is an authoring mistake rather than a runtime condition.
func Initial(v validate.Validator) Definition {
	if v == nil {
		panic("entity: Initial requires a validator")
	}
	return Definition{validator: v, initial: true}
}

// Upgradeable declares a version reachable by upgrading the previous one.
// It panics when either the validator or the upgrade is nil.
func Upgradeable(v validate.Validator, up Upgrade) Definition {
	if v == nil {
		panic("entity: Upgradeable requires a validator")
	}
	if up == nil {
		panic("entity: Upgradeable requires an upgrade function")
	}
	return Definition{validator: v, upgrade: up}
}

// IsInitial reports whether this definition is tagged as the entity's first
// version.
func (d Definition) IsInitial() bool { return d.initial }

// Validator returns the version's validation contract.
func (d Definition) Validator() validate.Validator { return d.validator }

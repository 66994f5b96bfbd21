// Package manifest defines the format-agnostic model for entity manifests:
// declarative descriptions of versioned entities, their per-version field
// contracts, and the upgrade expressions between versions.
//
// Concrete loaders for HCL and YAML live in subpackages and produce the
// same model, which Build then compiles into live entity.Entity values,
// resolving cross-entity references in dependency order.
package manifest

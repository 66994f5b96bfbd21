package entity

import (
	"fmt"
	"sort"
)

// Registry is the immutable mapping from version number to Definition plus
// the declared latest version. A Registry may be sparse: missing
// intermediate versions are a legal construction state whose consequences
// surface at migration time, not here.
type Registry struct {
	defs   map[Version]Definition
	latest Version
}

// NewRegistry builds a Registry. The only construction-time checks are that
// every version number is positive and that latest is a present key;
// contiguity is deliberately not enforced.
func NewRegistry(latest Version, defs map[Version]Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("registry needs at least one version definition")
	}
	own := make(map[Version]Definition, len(defs))
	for v, def := range defs {
		if v <= 0 {
			return nil, fmt.Errorf("version numbers must be positive, got %d", v)
		}
		own[v] = def
	}
	if _, ok := own[latest]; !ok {
		return nil, fmt.Errorf("latest version %d has no definition", latest)
	}
	return &Registry{defs: own, latest: latest}, nil
}

// Definition looks up the definition for a version number.
func (r *Registry) Definition(v Version) (Definition, bool) {
	def, ok := r.defs[v]
	return def, ok
}

// Latest returns the declared latest version.
func (r *Registry) Latest() Version { return r.latest }

// Versions returns every defined version number in ascending order.
func (r *Registry) Versions() []Version {
	out := make([]Version, 0, len(r.defs))
	for v := range r.defs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

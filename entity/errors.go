package entity

import (
	"fmt"

	"github.com/vk/entmigrate/validate"
)

// ErrorKind distinguishes the five disjoint ways a parse can fail. The
// first three are caller data problems; the two Bug kinds are defects in
// the entity's own version registry, surfaced when the migration walk runs
// into them.
type ErrorKind int

const (
	// VersionIndeterminate: the resolver could not extract any version
	// from the input.
	VersionIndeterminate ErrorKind = iota + 1

	// UnknownVersion: a version was extracted but no definition covers it.
	UnknownVersion

	// ValidationFailed: the resolved version is known, but the input does
	// not conform to that version's contract.
	ValidationFailed

	// MissingVersion: the registry has a gap between the resolved version
	// and the latest, so the upgrade chain cannot be walked.
	MissingVersion

	// InitialAtIntermediate: a definition between the resolved version and
	// the latest is tagged initial, which is only valid for the entity's
	// first version.
	InitialAtIntermediate
)

func (k ErrorKind) String() string {
	switch k {
	case VersionIndeterminate:
		return "version indeterminate"
	case UnknownVersion:
		return "unknown version"
	case ValidationFailed:
		return "validation failed"
	case MissingVersion:
		return "missing intermediate version"
	case InitialAtIntermediate:
		return "intermediate version marked initial"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Defect reports whether this kind signals a bug in the entity definition
// rather than a problem with the caller's data.
func (k ErrorKind) Defect() bool {
	return k == MissingVersion || k == InitialAtIntermediate
}

// ParseError is the structured failure returned by SafeParse. It is always
// returned as data, never panicked. Version is meaningful for every kind
// except VersionIndeterminate: the resolved version for UnknownVersion and
// ValidationFailed, the offending registry slot for the two defect kinds.
// Definition and Detail are set only for ValidationFailed.
type ParseError struct {
	Entity     string
	Kind       ErrorKind
	Version    Version
	Definition Definition
	Detail     *validate.Rejection
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case VersionIndeterminate:
		return fmt.Sprintf("entity %q: could not determine input version", e.Entity)
	case UnknownVersion:
		return fmt.Sprintf("entity %q: no definition for version %d", e.Entity, e.Version)
	case ValidationFailed:
		return fmt.Sprintf("entity %q: input does not conform to version %d: %s", e.Entity, e.Version, e.Detail.Error())
	case MissingVersion:
		return fmt.Sprintf("entity %q: registry defect: version %d is missing from the upgrade chain", e.Entity, e.Version)
	case InitialAtIntermediate:
		return fmt.Sprintf("entity %q: registry defect: version %d is marked initial but sits mid-chain", e.Entity, e.Version)
	default:
		return fmt.Sprintf("entity %q: %s", e.Entity, e.Kind)
	}
}

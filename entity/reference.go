package entity

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/entmigrate/validate"
)

// Reference adapts an Entity into a validate.Transformer so one entity's
// payload can sit as a field inside another validated structure. Membership
// is the entity's Is; on acceptance the field value is replaced with the
// SafeParse result, i.e. the payload migrated to the entity's latest
// version. A parent never needs to know about a child's internal versions:
// the child field is migrated independently at the moment it is validated,
// so references nest to arbitrary depth.
type Reference struct {
	ent *Entity
}

// Ref wraps the entity as a field validator.
func (e *Entity) Ref() *Reference { return &Reference{ent: e} }

// Validate implements validate.Validator via the entity's membership test.
func (r *Reference) Validate(v cty.Value) *validate.Rejection {
	if r.ent.Is(v) {
		return nil
	}
	return r.describeFailure(v)
}

// Apply implements validate.Transformer: on membership success the output is
// the migrated payload.
//
// Invariant: Is(v) == true must imply SafeParse(v) succeeds. Disagreement
// means the entity definition itself is corrupt (for example a registry gap
// above a version that still validates), which the caller cannot meaningfully
// act on, so it is raised as a panic rather than downgraded to an ordinary
// rejection.
func (r *Reference) Apply(v cty.Value) (cty.Value, *validate.Rejection) {
	if !r.ent.Is(v) {
		return cty.NilVal, r.describeFailure(v)
	}
	out, err := r.ent.SafeParse(v)
	if err != nil {
		panic(fmt.Sprintf(
			"entity %q: invariant violation: Is accepted a value that SafeParse rejected: %v",
			r.ent.name, err,
		))
	}
	return out, nil
}

// describeFailure turns the SafeParse failure for a non-member value into a
// field-level rejection, reusing the validator's own detail when there is
// some.
func (r *Reference) describeFailure(v cty.Value) *validate.Rejection {
	_, err := r.ent.SafeParse(v)
	var pe *ParseError
	if !errors.As(err, &pe) {
		// Is said no, SafeParse said yes: same corruption class as above.
		panic(fmt.Sprintf(
			"entity %q: invariant violation: SafeParse accepted a value that Is rejected",
			r.ent.name,
		))
	}
	if pe.Kind == ValidationFailed && pe.Detail != nil {
		return pe.Detail
	}
	return &validate.Rejection{Problems: []validate.Problem{{Summary: pe.Error()}}}
}

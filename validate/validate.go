package validate

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Problem describes a single mismatch found during validation. Path points
// at the offending value inside the validated structure; an empty path means
// the value itself.
type Problem struct {
	Path    cty.Path
	Summary string
}

func (p Problem) String() string {
	if len(p.Path) == 0 {
		return p.Summary
	}
	return fmt.Sprintf("%s: %s", FormatPath(p.Path), p.Summary)
}

// Rejection is the structured detail returned when a value fails validation.
// A nil *Rejection means the value was accepted.
type Rejection struct {
	Problems []Problem
}

// Error implements the error interface so a Rejection can be wrapped and
// logged like any other failure.
func (r *Rejection) Error() string {
	msgs := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// reject builds a single-problem rejection at the given path.
func reject(path cty.Path, format string, args ...any) *Rejection {
	return &Rejection{Problems: []Problem{{Path: path, Summary: fmt.Sprintf(format, args...)}}}
}

// Validator is the capability the migration engine requires from its
// structural validation collaborator: accept or reject a value.
type Validator interface {
	// Validate returns nil when the value conforms, or a Rejection
	// enumerating every mismatch found.
	Validate(v cty.Value) *Rejection
}

// Transformer is a Validator that may rewrite the value it accepted. Only
// composition (embedding one validator inside another and replacing a field
// with its migrated form) needs this; the engine itself calls Apply when
// available so that embedded transforms take effect, and falls back to
// Validate otherwise.
type Transformer interface {
	Validator

	// Apply validates v and returns its (possibly rewritten) form. The
	// returned value is meaningful only when the Rejection is nil.
	Apply(v cty.Value) (cty.Value, *Rejection)
}

// FormatPath renders a cty.Path in attribute/index notation, e.g.
// `child.items[2]`.
func FormatPath(path cty.Path) string {
	var b strings.Builder
	for _, step := range path {
		switch s := step.(type) {
		case cty.GetAttrStep:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name)
		case cty.IndexStep:
			switch s.Key.Type() {
			case cty.String:
				b.WriteString(fmt.Sprintf("[%q]", s.Key.AsString()))
			case cty.Number:
				b.WriteString(fmt.Sprintf("[%s]", s.Key.AsBigFloat().Text('f', -1)))
			default:
				b.WriteString("[?]")
			}
		}
	}
	return b.String()
}

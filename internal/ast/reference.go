package ast

import (
	"strings"

	"github.com/agentic-research/tmplcheck/internal/diag"
)

// SubRefKind tells a field selection from an index.
type SubRefKind int

const (
	SubRefField SubRefKind = iota
	SubRefIndex
)

// SubRef is one `.field` or `[index]` step of a reference.
type SubRef struct {
	Kind  SubRefKind
	Loc   diag.Location
	Field string
	Index *Value
}

// Reference names a definition, optionally with actual parameters and
// sub-references: t(1, ?).a[2].
type Reference struct {
	Loc     diag.Location
	Name    string
	Params  []NodeID // nil: no parameter list given
	SubRefs []SubRef
}

// Ref builds a reference to name with the given sub-references.
func Ref(name string, subrefs ...SubRef) *Reference {
	return &Reference{Name: name, SubRefs: subrefs}
}

// Field returns a `.name` sub-reference.
func Field(name string) SubRef { return SubRef{Kind: SubRefField, Field: name} }

// Index returns a `[v]` sub-reference.
func Index(v *Value) SubRef { return SubRef{Kind: SubRefIndex, Index: v} }

// WithParams sets the actual parameter list and returns r.
func (r *Reference) WithParams(params ...NodeID) *Reference {
	if params == nil {
		params = []NodeID{}
	}
	r.Params = params
	return r
}

// At sets the location of r and returns it.
func (r *Reference) At(loc diag.Location) *Reference {
	r.Loc = loc
	return r
}

func (r *Reference) String() string {
	if r == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(r.Name)
	if r.Params != nil {
		sb.WriteString("(...)")
	}
	for _, s := range r.SubRefs {
		switch s.Kind {
		case SubRefField:
			sb.WriteString(".")
			sb.WriteString(s.Field)
		case SubRefIndex:
			sb.WriteString("[")
			sb.WriteString(s.Index.String())
			sb.WriteString("]")
		}
	}
	return sb.String()
}

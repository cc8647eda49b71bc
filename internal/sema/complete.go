package sema

import "github.com/agentic-research/tmplcheck/internal/ast"

// Completeness says which parts of a modified template body must be given.
type Completeness int

const (
	// MayIncomplete: any element or field may be left out or be `-'.
	MayIncomplete Completeness = iota
	// Partial: elements are optional at positions the base list has and
	// required past its end.
	Partial
	// MustComplete: everything must be given.
	MustComplete
)

func (c Completeness) String() string {
	switch c {
	case MayIncomplete:
		return "may be incomplete"
	case Partial:
		return "partial"
	default:
		return "must be complete"
	}
}

// CompletenessSeof is the rule for record of and set of bodies.
func (c *Checker) CompletenessSeof(id ast.NodeID, incompleteAllowed bool) Completeness {
	if !incompleteAllowed {
		return MustComplete
	}
	base := c.an.Base(id)
	if base == ast.NoNode {
		return MayIncomplete
	}
	last := c.ResolveLast(base, true)
	n := c.Node(last)
	if n == nil || c.an.IsErroneous(last) {
		return MayIncomplete
	}
	switch n.Kind {
	case ast.KindReferenced, ast.KindAnyValue, ast.KindAnyOrOmit, ast.KindInvoke:
		return MayIncomplete
	case ast.KindTemplateList:
		return Partial
	}
	return MustComplete
}

// CompletenessChoice is the rule for the selected field of a union body.
func (c *Checker) CompletenessChoice(id ast.NodeID, incompleteAllowed bool, field string) Completeness {
	if !incompleteAllowed {
		return MustComplete
	}
	base := c.an.Base(id)
	if base == ast.NoNode {
		return MayIncomplete
	}
	last := c.ResolveLast(base, true)
	n := c.Node(last)
	if n == nil || c.an.IsErroneous(last) {
		return MayIncomplete
	}
	switch n.Kind {
	case ast.KindReferenced, ast.KindAnyValue, ast.KindAnyOrOmit, ast.KindInvoke:
		return MayIncomplete
	case ast.KindNamedTemplateList:
		if _, ok := n.FieldByName(field); ok {
			return MayIncomplete
		}
	}
	return MustComplete
}

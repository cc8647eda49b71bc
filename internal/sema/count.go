package sema

import "github.com/agentic-research/tmplcheck/internal/ast"

// ElementCount is what a list template guarantees about its length.
type ElementCount struct {
	// Fixed counts entries that match exactly one element.
	Fixed int
	// AnyOrNone: a `*' entry may stand for any number of elements.
	AnyOrNone bool
	// AnyValue: a `?' entry was left out of Fixed.
	AnyValue bool
	// Unknown: an `all from' entry could not be counted statically.
	Unknown bool
}

func (e *ElementCount) merge(o ElementCount) {
	e.Fixed += o.Fixed
	e.AnyOrNone = e.AnyOrNone || o.AnyOrNone
	e.AnyValue = e.AnyValue || o.AnyValue
	e.Unknown = e.Unknown || o.Unknown
}

// CountElements counts the entries of the list template id. Nested
// permutations and `all from' entries are unwrapped; a nested complemented
// list counts as a single element and is not looked into.
func (c *Checker) CountElements(id ast.NodeID) ElementCount {
	n := c.Node(id)
	if n == nil {
		return ElementCount{Unknown: true}
	}
	return c.countEntries(n.Elems, newChain())
}

func (c *Checker) countEntries(elems []ast.Entry, ch *chain) ElementCount {
	var cnt ElementCount
	for _, e := range elems {
		if e.Spread {
			cnt.merge(c.countSpread(e.Node, ch))
			continue
		}
		c.SetLoweridToReference(e.Node)
		en := c.Node(e.Node)
		if en == nil {
			cnt.Unknown = true
			continue
		}
		switch en.Kind {
		case ast.KindAnyOrOmit:
			cnt.AnyOrNone = true
		case ast.KindAnyValue:
			cnt.AnyValue = true
		case ast.KindPermutationMatch:
			cnt.merge(c.countEntries(en.Elems, ch))
		default:
			cnt.Fixed++
		}
	}
	return cnt
}

func (c *Checker) countSpread(id ast.NodeID, ch *chain) ElementCount {
	release, ok := ch.enter(nodeKey(id), "", c.Loc(id))
	if !ok {
		return ElementCount{Unknown: true}
	}
	defer release()

	last := c.ResolveLast(id, true)
	n := c.Node(last)
	switch {
	case n == nil || c.an.IsErroneous(last):
		return ElementCount{Unknown: true}
	case n.Kind == ast.KindTemplateList:
		return c.countEntries(n.Elems, ch)
	case n.Kind == ast.KindSpecificValue:
		if v := c.ValueLast(n.Value); v != nil && v.Kind == ast.ValueList {
			return ElementCount{Fixed: len(v.Elems)}
		}
	}
	return ElementCount{Unknown: true}
}

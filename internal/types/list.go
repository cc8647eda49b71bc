package types

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

func elemOpts(opts sema.Options, modified bool) sema.Options {
	return sema.Options{
		IsModified:     modified,
		AllowAnyOrOmit: true,
		SubCheck:       opts.SubCheck,
		ImplicitOmit:   opts.ImplicitOmit,
	}
}

// checkSeofList checks value list notation for record of and set of.
// Entries are paired with the base template's entries by position.
func (t *Type) checkSeofList(c *sema.Checker, id ast.NodeID, n *ast.Node, opts sema.Options) {
	compl := c.CompletenessSeof(id, opts.IsModified)
	baseLen, _ := c.BaseLength(id)
	notUsed := 0

	for i, e := range n.Elems {
		if e.Spread {
			c.CheckSpread(e.Node, t.elem)
			continue
		}
		en := c.Arena().Get(e.Node)
		if en != nil && en.Kind == ast.KindPermutationMatch {
			t.checkPermutation(c, e.Node, opts)
			continue
		}
		if en != nil && en.Kind == ast.KindNotUsed {
			notUsed++
		}
		modified := false
		switch compl {
		case sema.MayIncomplete:
			modified = true
		case sema.Partial:
			modified = i < baseLen
		}
		c.SetBase(e.Node, c.BaseElement(id, i))
		c.CheckTemplate(e.Node, t.elem, elemOpts(opts, modified))
	}
	if notUsed > 0 && notUsed == len(n.Elems) {
		c.Warnf(diag.CategoryIllegalConstruct, n.Loc, "All elements of value list notation are not used symbols (`-')")
	}
}

// checkPermutation checks a permutation inside a value list. Set of types
// are unordered and reject it.
func (t *Type) checkPermutation(c *sema.Checker, id ast.NodeID, opts sema.Options) {
	if t.kind == sema.TypeSetOf {
		t.illegal(c, id, c.Node(id))
		return
	}
	c.Analysis().SetGovernor(id, t)
	c.CheckListElements(id, t.elem, elemOpts(opts, false))
}

// checkArrayList checks value list notation for arrays: without spreads and
// permutations the element count must equal the array size.
func (t *Type) checkArrayList(c *sema.Checker, id ast.NodeID, n *ast.Node, opts sema.Options) {
	exact := true
	for i, e := range n.Elems {
		if e.Spread {
			exact = false
			c.CheckSpread(e.Node, t.elem)
			continue
		}
		if en := c.Arena().Get(e.Node); en != nil && en.Kind == ast.KindPermutationMatch {
			exact = false
			t.checkPermutation(c, e.Node, opts)
			continue
		}
		c.SetBase(e.Node, c.BaseElement(id, i))
		c.CheckTemplate(e.Node, t.elem, elemOpts(opts, opts.IsModified))
	}
	if !exact {
		return
	}
	count := int64(len(n.Elems))
	switch {
	case count > t.dim.Size:
		c.Errorf(diag.CategoryCardinality, n.Loc, "Too many elements in the array template: %d was expected instead of %d", t.dim.Size, count)
	case count < t.dim.Size && !opts.IsModified:
		c.Errorf(diag.CategoryCardinality, n.Loc, "Too few elements in the array template: %d was expected instead of %d", t.dim.Size, count)
	}
}

// checkIndexed checks `{ [i] := t, ... }' for record of, set of and arrays.
func (t *Type) checkIndexed(c *sema.Checker, id ast.NodeID, n *ast.Node, opts sema.Options) {
	seen := make(map[int64]int, len(n.Indexed))
	for i, e := range n.Indexed {
		loc := entryLoc(e.Loc, n.Loc)
		idx, state := c.EvalInt(e.Index)
		switch state {
		case sema.IntInvalid:
			c.Errorf(diag.CategoryTypeMismatch, loc, "An integer value was expected as index")
		case sema.IntKnown:
			if t.checkIndexBounds(c, idx, loc) {
				if prev, dup := seen[idx]; dup {
					c.Errorf(diag.CategoryUniqueness, loc, "Duplicate index value `%d' for components `%d' and `%d'", idx, prev+1, i+1)
				} else {
					seen[idx] = i
				}
			}
		}
		c.CheckTemplate(e.Node, t.elem, elemOpts(opts, true))
	}
}

func (t *Type) checkIndexBounds(c *sema.Checker, idx int64, loc diag.Location) bool {
	if t.kind != sema.TypeArray {
		if idx < 0 {
			c.Errorf(diag.CategoryReference, loc, "A non-negative integer value was expected for indexing type `%s' instead of `%d'", t.name, idx)
			return false
		}
		return true
	}
	switch {
	case idx < t.dim.Offset:
		c.Errorf(diag.CategoryReference, loc, "Array index underflow: the index value must be at least `%d' instead of `%d'", t.dim.Offset, idx)
		return false
	case idx >= t.dim.Offset+t.dim.Size:
		c.Errorf(diag.CategoryReference, loc, "Array index overflow: the index value must be at most `%d' instead of `%d'", t.dim.Offset+t.dim.Size-1, idx)
		return false
	}
	return true
}

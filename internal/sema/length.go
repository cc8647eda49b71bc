package sema

import (
	"fmt"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// LengthBounds are the evaluated bounds of a length restriction. HasUpper
// is false for `length(lo .. infinity)`.
type LengthBounds struct {
	Lower    int64
	Upper    int64
	HasUpper bool
}

func (b LengthBounds) String() string {
	switch {
	case !b.HasUpper:
		return fmt.Sprintf("%d .. infinity", b.Lower)
	case b.Lower == b.Upper:
		return fmt.Sprintf("%d", b.Lower)
	default:
		return fmt.Sprintf("%d .. %d", b.Lower, b.Upper)
	}
}

type lengthMemo struct {
	stamp  uint64
	bounds LengthBounds
	ok     bool
}

// CheckLength validates the bound expressions of lr: both must be
// non-negative integers and the upper bound must not be below the lower.
// It returns the bounds and whether all of them are known at compile time.
// Results are memoized per timestamp; a repeated call reports nothing.
func (c *Checker) CheckLength(lr *ast.LengthRestriction) (LengthBounds, bool) {
	if lr == nil {
		return LengthBounds{}, false
	}
	if m, ok := c.an.lengths[lr]; ok && m.stamp >= c.an.timestamp {
		return m.bounds, m.ok
	}
	b, ok := c.evalLength(lr)
	c.an.lengths[lr] = lengthMemo{stamp: c.an.timestamp, bounds: b, ok: ok}
	return b, ok
}

func (c *Checker) evalLength(lr *ast.LengthRestriction) (LengthBounds, bool) {
	loc := lr.Loc
	if !lr.Range {
		n, ok := c.lengthBound(lr.Lower, loc, "The length restriction must be a non-negative integer value instead of %d")
		if !ok {
			return LengthBounds{}, false
		}
		return LengthBounds{Lower: n, Upper: n, HasUpper: true}, true
	}

	lo, loOK := c.lengthBound(lr.Lower, loc, "The lower boundary of the length restriction must be a non-negative integer value instead of %d")
	b := LengthBounds{Lower: lo}
	if lr.Upper == nil {
		return b, loOK
	}
	hi, hiOK := c.lengthBound(lr.Upper, loc, "The upper boundary of the length restriction must be a non-negative integer value instead of %d")
	b.Upper, b.HasUpper = hi, hiOK
	if loOK && hiOK && hi < lo {
		c.Errorf(diag.CategoryCardinality, loc,
			"The upper boundary of the length restriction (%d) cannot be smaller than the lower boundary (%d)", hi, lo)
		return b, false
	}
	return b, loOK && hiOK
}

func (c *Checker) lengthBound(v *ast.Value, loc diag.Location, negative string) (int64, bool) {
	if v != nil && v.Loc != (diag.Location{}) {
		loc = v.Loc
	}
	n, state := c.EvalInt(v)
	switch state {
	case IntInvalid:
		c.Errorf(diag.CategoryTypeMismatch, loc, "An integer value was expected as length restriction")
		return 0, false
	case IntUnknown:
		return 0, false
	}
	if n < 0 {
		c.Errorf(diag.CategoryCardinality, loc, negative, n)
		return 0, false
	}
	return n, true
}

// CheckArraySize checks lr against the fixed size of an array type: a
// restriction the size cannot satisfy is an error, any other is useless.
func (c *Checker) CheckArraySize(lr *ast.LengthRestriction, dim Dimension) {
	b, ok := c.CheckLength(lr)
	if !ok {
		return
	}
	contradicts := dim.Size < b.Lower || (b.HasUpper && dim.Size > b.Upper)
	if contradicts {
		c.Errorf(diag.CategoryCardinality, lr.Loc,
			"The number of elements allowed by the length restriction (%s) contradicts the array size (%d)", b, dim.Size)
		return
	}
	c.Warnf(diag.CategoryCardinality, lr.Loc, "Length restriction is useless for an array template")
}

// CheckNofElements checks a statically counted number of elements against
// lr. lessAllowed and moreAllowed relax the lower and upper bound for
// templates that may match fewer or more elements than counted;
// hasAnyOrNone only selects the wording.
func (c *Checker) CheckNofElements(lr *ast.LengthRestriction, n int, lessAllowed, moreAllowed, hasAnyOrNone bool, loc diag.Location) {
	b, ok := c.CheckLength(lr)
	if !ok {
		return
	}
	if loc == (diag.Location{}) {
		loc = lr.Loc
	}
	if !lessAllowed && b.Lower > int64(n) {
		c.Errorf(diag.CategoryCardinality, loc,
			"There are fewer (%d) elements than allowed by the length restriction (%s)", n, b)
	}
	if b.HasUpper && int64(n) > b.Upper && !moreAllowed {
		atLeast := ""
		if hasAnyOrNone {
			atLeast = "at least "
		}
		c.Errorf(diag.CategoryCardinality, loc,
			"There are more (%s%d) elements than allowed by the length restriction (%s)", atLeast, n, b)
	}
}

// checkLengthRestriction is step 3 of the generic pipeline: the restriction
// must be legal for the type and must fit what the template can match.
func (c *Checker) checkLengthRestriction(id ast.NodeID, n *ast.Node, t Type) {
	lr := n.Length
	kind := t.Kind()
	switch {
	case kind == TypeArray:
		c.CheckArraySize(lr, t.Dimension())
		return
	case kind == TypeRecordOf || kind == TypeSetOf || kind.IsString():
	default:
		c.Errorf(diag.CategoryIllegalConstruct, lr.Loc, "Length restriction cannot be used in template of type `%s'", t.Name())
		return
	}
	if _, ok := c.CheckLength(lr); !ok {
		return
	}

	switch n.Kind {
	case ast.KindTemplateList, ast.KindSupersetMatch, ast.KindSubsetMatch:
		cnt := c.CountElements(id)
		less := cnt.AnyOrNone || cnt.AnyValue || cnt.Unknown
		more := cnt.AnyValue || cnt.Unknown
		if n.Kind == ast.KindSupersetMatch {
			more = true
		}
		if n.Kind == ast.KindSubsetMatch {
			less = true
		}
		c.CheckNofElements(lr, cnt.Fixed, less, more, cnt.AnyOrNone, n.Loc)
	case ast.KindSpecificValue:
		v := c.ValueLast(n.Value)
		if v == nil {
			return
		}
		if l, ok := v.StringLength(); ok {
			c.CheckNofElements(lr, l, false, false, false, n.Loc)
		} else if v.Kind == ast.ValueList {
			c.CheckNofElements(lr, len(v.Elems), false, false, false, n.Loc)
		}
	case ast.KindBitStringPattern, ast.KindHexStringPattern, ast.KindOctetStringPattern:
		info, err := BinaryPatternInfo(n.Kind, n.Pattern)
		if err != nil {
			return
		}
		c.CheckNofElements(lr, info.MinLength, info.AnyOrNone, false, info.AnyOrNone, n.Loc)
	}
}

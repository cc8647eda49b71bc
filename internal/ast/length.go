package ast

import (
	"fmt"

	"github.com/agentic-research/tmplcheck/internal/diag"
)

// LengthRestriction is `length(n)` or `length(lo .. hi)`. Upper is nil for
// `length(lo .. infinity)`; for the single form Lower holds n.
type LengthRestriction struct {
	Loc   diag.Location
	Range bool
	Lower *Value
	Upper *Value
}

// SingleLength returns length(n).
func SingleLength(n *Value) *LengthRestriction {
	return &LengthRestriction{Lower: n}
}

// RangeLength returns length(lo .. hi); hi may be nil.
func RangeLength(lo, hi *Value) *LengthRestriction {
	return &LengthRestriction{Range: true, Lower: lo, Upper: hi}
}

func (lr *LengthRestriction) String() string {
	if lr == nil {
		return ""
	}
	if !lr.Range {
		return fmt.Sprintf("length (%s)", lr.Lower)
	}
	if lr.Upper == nil {
		return fmt.Sprintf("length (%s .. infinity)", lr.Lower)
	}
	return fmt.Sprintf("length (%s .. %s)", lr.Lower, lr.Upper)
}

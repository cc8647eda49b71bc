package sema

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// CheckRestriction checks the template id against the usage restriction r
// of the definition described by defName. It returns true when conformance
// can only be decided at runtime.
func (c *Checker) CheckRestriction(id ast.NodeID, r ast.Restriction, defName string) bool {
	switch r {
	case ast.RestrictionValue:
		return c.CheckValueOmitRestriction(id, defName, false)
	case ast.RestrictionOmit:
		return c.CheckValueOmitRestriction(id, defName, true)
	case ast.RestrictionPresent:
		return c.CheckPresentRestriction(id, defName)
	}
	return false
}

func (c *Checker) restrictionCommon(id ast.NodeID, n *ast.Node, defName string, r ast.Restriction) {
	switch r {
	case ast.RestrictionValue, ast.RestrictionOmit:
		if n.IfPresent {
			c.Errorf(diag.CategoryRestriction, n.Loc, "Restriction on %s does not allow usage of `ifpresent'", defName)
		}
		if n.Length != nil {
			c.Errorf(diag.CategoryRestriction, n.Loc, "Restriction on %s does not allow usage of length restriction", defName)
		}
	case ast.RestrictionPresent:
		if n.IfPresent {
			c.Errorf(diag.CategoryRestriction, n.Loc, "Restriction on %s does not allow usage of `ifpresent'", defName)
		}
	}
}

func (c *Checker) restrictionViolated(n *ast.Node, defName string) {
	c.Errorf(diag.CategoryRestriction, n.Loc, "Restriction on %s does not allow usage of %s", defName, n.Kind.TemplateTypeName())
}

// CheckValueOmitRestriction checks the value restriction, or the omit
// restriction when omitAllowed is set. A false result means the answer is
// static: either no diagnostic was needed or an error was reported.
func (c *Checker) CheckValueOmitRestriction(id ast.NodeID, defName string, omitAllowed bool) bool {
	n := c.Node(id)
	if n == nil || c.an.IsErroneous(id) {
		return false
	}
	defer c.withScope(id)()
	c.SetLoweridToReference(id)
	n = c.Node(id)

	r := ast.RestrictionValue
	if omitAllowed {
		r = ast.RestrictionOmit
	}
	c.restrictionCommon(id, n, defName, r)

	switch n.Kind {
	case ast.KindSpecificValue:
		return false
	case ast.KindInvoke:
		return true
	case ast.KindOmitValue:
		if !omitAllowed {
			c.restrictionViolated(n, defName)
		}
		return false
	case ast.KindTemplateList:
		needs := false
		for i, e := range n.Elems {
			if e.Spread {
				needs = true
				continue
			}
			if en := c.Node(e.Node); en != nil && en.Kind == ast.KindNotUsed {
				if b := c.BaseElement(id, i); b != ast.NoNode {
					needs = c.CheckValueOmitRestriction(b, defName, true) || needs
				}
				continue
			}
			needs = c.CheckValueOmitRestriction(e.Node, defName, true) || needs
		}
		return needs
	case ast.KindNamedTemplateList:
		return c.namedListRestriction(id, defName)
	case ast.KindIndexedTemplateList:
		for _, e := range n.Indexed {
			c.CheckValueOmitRestriction(e.Node, defName, true)
		}
		return true
	case ast.KindReferenced:
		return c.referencedRestriction(id, n, defName, r)
	case ast.KindNotUsed:
		if b := c.an.Base(id); b != ast.NoNode {
			return c.CheckValueOmitRestriction(b, defName, omitAllowed)
		}
	}
	c.restrictionViolated(n, defName)
	return false
}

// namedListRestriction judges every field of the type exactly once: the
// fields given here first, then the ones inherited along the base chain.
func (c *Checker) namedListRestriction(id ast.NodeID, defName string) bool {
	t := c.an.Governor(id)
	if t == nil || !t.Kind().HasFields() {
		needs := false
		for _, f := range c.Node(id).Named {
			needs = c.CheckValueOmitRestriction(f.Node, defName, true) || needs
		}
		return needs
	}

	needs := false
	covered := roaring.New()
	for cur := id; ; {
		n := c.Node(cur)
		if n == nil || c.an.IsErroneous(cur) {
			break
		}
		if n.Kind != ast.KindNamedTemplateList {
			// The rest of the fields come from a base known only at runtime.
			if cur != id {
				needs = c.CheckValueOmitRestriction(cur, defName, true) || needs
			}
			break
		}
		for _, f := range n.Named {
			i, ok := t.FieldIndex(f.Name)
			if !ok || covered.Contains(uint32(i)) {
				continue
			}
			if fn := c.Node(f.Node); fn != nil && fn.Kind == ast.KindNotUsed {
				continue
			}
			covered.Add(uint32(i))
			needs = c.CheckValueOmitRestriction(f.Node, defName, true) || needs
		}
		if t.Kind() == TypeUnion || int(covered.GetCardinality()) >= t.FieldCount() {
			break
		}
		base := c.an.Base(cur)
		if base == ast.NoNode {
			break
		}
		cur = c.ResolveLast(base, true)
	}
	return needs
}

// referencedRestriction defers to the definition the reference names.
func (c *Checker) referencedRestriction(id ast.NodeID, n *ast.Node, defName string, r ast.Restriction) bool {
	def, ok := c.lookupFrom(id, n.Ref.Name)
	if !ok || !def.IsTemplateLike() {
		return false
	}
	switch def.Kind {
	case DefTemplate, DefVarTemplate:
		last := c.ResolveLast(id, false)
		if last == id || c.an.IsErroneous(last) {
			return true
		}
		if r == ast.RestrictionPresent {
			return c.CheckPresentRestriction(last, defName)
		}
		return c.CheckValueOmitRestriction(last, defName, r == ast.RestrictionOmit)
	}
	refd := def.Restriction
	if ast.IsLessRestrictive(r, refd) {
		c.Warnf(diag.CategoryRestriction, n.Loc,
			"Inadequate restriction on the referenced %s `%s', this may cause a dynamic test case error at runtime", def.Kind, n.Ref.Name)
	}
	return true
}

// CheckPresentRestriction checks the present restriction: the template must
// not match omit.
func (c *Checker) CheckPresentRestriction(id ast.NodeID, defName string) bool {
	n := c.Node(id)
	if n == nil || c.an.IsErroneous(id) {
		return false
	}
	defer c.withScope(id)()
	c.SetLoweridToReference(id)
	n = c.Node(id)
	c.restrictionCommon(id, n, defName, ast.RestrictionPresent)

	switch n.Kind {
	case ast.KindOmitValue, ast.KindAnyOrOmit:
		c.restrictionViolated(n, defName)
		return false
	case ast.KindNotUsed:
		if b := c.an.Base(id); b != ast.NoNode {
			return c.CheckPresentRestriction(b, defName)
		}
		c.restrictionViolated(n, defName)
		return false
	case ast.KindValueList:
		needs := false
		for _, e := range n.Elems {
			if e.Spread {
				needs = true
				continue
			}
			needs = c.CheckPresentRestriction(e.Node, defName) || needs
		}
		return needs
	case ast.KindComplementedList, ast.KindInvoke:
		return true
	case ast.KindReferenced:
		return c.referencedRestriction(id, n, defName, ast.RestrictionPresent)
	}
	return false
}

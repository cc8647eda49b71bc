package sema

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// CheckDefinition checks one definition. Template bodies are linked to the
// template they modify before they are checked; the result is memoized per
// timestamp.
func (c *Checker) CheckDefinition(d *Definition) {
	if d == nil || c.an.defChecked[d.ID] >= c.an.timestamp {
		return
	}
	c.an.defChecked[d.ID] = c.an.timestamp

	prev := c.scope
	c.scope = d.ID
	defer func() { c.scope = prev }()

	c.checkFormalParams(d)

	switch d.Kind {
	case DefTemplate, DefVarTemplate, DefModuleParTemplate:
		c.checkTemplateDef(d)
	case DefConst, DefModulePar, DefVar:
		if d.Type != nil && d.Value != nil {
			d.Type.CheckThisValue(c, d.Value)
		}
	}
}

func (c *Checker) checkFormalParams(d *Definition) {
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if seen[p.Name] {
			c.Errorf(diag.CategoryUniqueness, p.Loc, "Duplicate parameter with name `%s' in %s", p.Name, d.Describe())
			continue
		}
		seen[p.Name] = true
		if p.Type == nil {
			c.Errorf(diag.CategoryReference, p.Loc, "Formal parameter `%s' has no type", p.Name)
		}
	}
}

func (c *Checker) checkTemplateDef(d *Definition) {
	if d.Type == nil {
		c.Errorf(diag.CategoryReference, d.Loc, "The type of %s is unknown", d.Describe())
		return
	}
	if d.Body == ast.NoNode {
		if d.Kind == DefTemplate {
			c.internalf("%s has no body", d.Describe())
		}
		return
	}

	modified := false
	if d.Modifies != nil {
		modified = c.checkModifies(d)
		if c.an.defErroneous(d.ID) {
			return
		}
	}

	release, ok := c.enter(c.checking, nodeKey(d.Body), d.Name, d.Loc)
	if !ok {
		return
	}
	defer release()

	c.CheckTemplate(d.Body, d.Type, Options{
		IsModified:     modified,
		AllowOmit:      true,
		AllowAnyOrOmit: true,
		SubCheck:       true,
		ImplicitOmit:   d.ImplicitOmit,
	})
	if d.Restriction != ast.RestrictionNone && !c.an.IsErroneous(d.Body) {
		c.CheckRestriction(d.Body, d.Restriction, d.Describe())
	}
}

// checkModifies validates `modifies base' and links the body to the base
// body. It reports whether the link was made.
func (c *Checker) checkModifies(d *Definition) bool {
	ref := d.Modifies
	loc := ref.Loc
	if loc == (diag.Location{}) {
		loc = d.Loc
	}
	if c.an.defErroneous(d.ID) {
		return false
	}
	base, ok := c.mod.Lookup(d.ID, ref.Name)
	if !ok {
		c.Errorf(diag.CategoryReference, loc, "There is no local or imported definition with name `%s'", ref.Name)
		return false
	}
	if base.Kind != DefTemplate {
		c.Errorf(diag.CategoryReference, loc, "Reference to a template was expected in the `modifies' definition instead of %s `%s'", base.Kind, ref.Name)
		return false
	}
	if base.Type != nil && !d.Type.IsCompatible(base.Type) {
		c.Errorf(diag.CategoryTypeMismatch, loc,
			"The modified template has different type than base template `%s': `%s' was expected instead of `%s'",
			base.Name, base.Type.Name(), d.Type.Name())
		return false
	}
	if len(d.Params) != len(base.Params) {
		c.Errorf(diag.CategoryReference, loc,
			"The modified template has different number of formal parameters than base template `%s': %d was expected instead of %d",
			base.Name, len(base.Params), len(d.Params))
		return false
	}
	for i, p := range d.Params {
		if bp := base.Params[i]; bp.Name != p.Name {
			c.Errorf(diag.CategoryReference, p.Loc,
				"The name of formal parameter #%d (`%s') differs from the corresponding formal parameter of base template `%s' (`%s')",
				i+1, p.Name, base.Name, bp.Name)
			return false
		}
	}
	if !c.modifiesAcyclic(d) {
		return false
	}

	c.CheckDefinition(base)
	if base.Body == ast.NoNode {
		return false
	}
	c.an.SetBase(d.Body, base.Body)
	return true
}

// modifiesAcyclic walks the modifies chain starting at d. A cycle is
// reported once and every definition on it is marked.
func (c *Checker) modifiesAcyclic(d *Definition) bool {
	ch := newChain()
	for cur := d; cur != nil; {
		release, ok := c.enter(ch, defKey(cur.ID), cur.Name, cur.Loc)
		if !ok {
			return false
		}
		defer release()
		if cur.Modifies == nil {
			return true
		}
		next, ok := c.mod.Lookup(cur.ID, cur.Modifies.Name)
		if !ok || next.Kind != DefTemplate {
			return true
		}
		cur = next
	}
	return true
}

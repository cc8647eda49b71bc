package types

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

func fieldOpts(opts sema.Options, modified bool, f sema.Field) sema.Options {
	return sema.Options{
		IsModified:     modified,
		AllowOmit:      f.Optional,
		AllowAnyOrOmit: f.Optional,
		SubCheck:       opts.SubCheck,
		ImplicitOmit:   opts.ImplicitOmit,
	}
}

func entryLoc(loc, fallback diag.Location) diag.Location {
	if loc == (diag.Location{}) {
		return fallback
	}
	return loc
}

// checkNamed checks assignment notation for records, sets and signatures.
func (t *Type) checkNamed(c *sema.Checker, id ast.NodeID, n *ast.Node, opts sema.Options) {
	index := c.NamedIndex(id)
	ordered := t.kind != sema.TypeSet
	given := make([]bool, len(t.fields))
	last, lastName := -1, ""

	for i, e := range n.Named {
		if index[e.Name] != i {
			continue
		}
		loc := entryLoc(e.Loc, n.Loc)
		fi, ok := t.index[e.Name]
		if !ok {
			c.Errorf(diag.CategoryReference, loc, "Reference to non-existent field `%s' in %s template for type `%s'", e.Name, t.kindWord(), t.name)
			c.MarkErroneous(e.Node)
			continue
		}
		if ordered && fi < last {
			c.Errorf(diag.CategoryIllegalConstruct, loc, "Field `%s' cannot appear after field `%s' in template for %s type `%s'", e.Name, lastName, t.kindWord(), t.name)
		} else {
			last, lastName = fi, e.Name
		}
		given[fi] = true
		field := t.fields[fi]
		c.SetBase(e.Node, c.BaseField(id, t, e.Name))
		c.CheckTemplate(e.Node, field.Type, fieldOpts(opts, opts.IsModified, field))
	}

	if opts.IsModified {
		return
	}
	for fi, field := range t.fields {
		if given[fi] || (opts.ImplicitOmit && field.Optional) {
			continue
		}
		c.Errorf(diag.CategoryTypeMismatch, n.Loc, "Field `%s' is missing from template for %s type `%s'", field.Name, t.kindWord(), t.name)
	}
}

// checkValueListNotation checks `{ e1, e2, ... }' for records and
// signatures, where entries match fields by position.
func (t *Type) checkValueListNotation(c *sema.Checker, id ast.NodeID, n *ast.Node, opts sema.Options) {
	if t.kind == sema.TypeSet {
		c.Fail(id, diag.CategoryIllegalConstruct, "Value list notation cannot be used for set type `%s'", t.name)
		return
	}
	count, want := len(n.Elems), len(t.fields)
	if count > want {
		c.Errorf(diag.CategoryCardinality, n.Loc, "Too many elements in value list notation for type `%s': %d was expected instead of %d", t.name, want, count)
	}
	notUsed := 0
	for i, e := range n.Elems {
		if i >= want {
			break
		}
		if e.Spread {
			c.Fail(e.Node, diag.CategoryIllegalConstruct, "`all from' cannot be used in value list notation for type `%s'", t.name)
			continue
		}
		if en := c.Arena().Get(e.Node); en != nil && en.Kind == ast.KindNotUsed {
			notUsed++
		}
		field := t.fields[i]
		c.SetBase(e.Node, c.BaseField(id, t, field.Name))
		c.CheckTemplate(e.Node, field.Type, fieldOpts(opts, opts.IsModified, field))
	}
	if count < want && !opts.IsModified && !t.restOptional(count, opts.ImplicitOmit) {
		c.Errorf(diag.CategoryCardinality, n.Loc, "Too few elements in value list notation for type `%s': %d was expected instead of %d", t.name, want, count)
	}
	if count > 0 && notUsed == count {
		c.Warnf(diag.CategoryIllegalConstruct, n.Loc, "All elements of value list notation are not used symbols (`-')")
	}
}

// restOptional reports whether every field from position i on may be left
// out under implicit omit.
func (t *Type) restOptional(i int, implicitOmit bool) bool {
	if !implicitOmit {
		return false
	}
	for _, f := range t.fields[i:] {
		if !f.Optional {
			return false
		}
	}
	return true
}

// checkUnion checks a union template: exactly one selected field.
func (t *Type) checkUnion(c *sema.Checker, id ast.NodeID, n *ast.Node, opts sema.Options) {
	c.NamedIndex(id)
	if len(n.Named) != 1 {
		c.Fail(id, diag.CategoryTypeMismatch, "A template for union type `%s' must contain exactly one selected field", t.name)
		return
	}
	e := n.Named[0]
	fi, ok := t.index[e.Name]
	if !ok {
		c.Fail(id, diag.CategoryReference, "Reference to non-existent field `%s' in union template for type `%s'", e.Name, t.name)
		return
	}
	field := t.fields[fi]
	compl := c.CompletenessChoice(id, opts.IsModified, e.Name)
	c.SetBase(e.Node, c.BaseField(id, t, e.Name))
	c.CheckTemplate(e.Node, field.Type, sema.Options{
		IsModified:     compl == sema.MayIncomplete,
		AllowAnyOrOmit: true,
		SubCheck:       opts.SubCheck,
		ImplicitOmit:   opts.ImplicitOmit,
	})
}

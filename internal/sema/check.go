package sema

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// CheckTemplate validates the template id against type t. It is the generic
// pipeline every variant goes through:
//
//  1. nothing happens for erroneous nodes or a nil type;
//  2. the variant's shape is checked, by the type for most variants;
//  3. an attached length restriction is checked against the type and the
//     number of elements the template can match;
//  4. ifpresent is rejected unless omit is allowed;
//  5. with SubCheck set, the type's subtype constraints are checked.
//
// A node checked again against the same type and options in the same pass
// is skipped.
func (c *Checker) CheckTemplate(id ast.NodeID, t Type, opts Options) {
	if c.mod.Arena.Get(id) == nil {
		c.internalf("template node %d does not exist", id)
		return
	}
	if c.an.IsErroneous(id) || t == nil {
		return
	}
	key := checkKey{id: id, typ: t, opts: opts}
	if c.an.checked[key] == c.an.timestamp {
		return
	}
	c.an.checked[key] = c.an.timestamp
	defer c.withScope(id)()

	c.an.SetGovernor(id, t)
	t.CheckThisTemplateRef(c, id)
	n := c.Node(id)

	switch n.Kind {
	case ast.KindNotUsed:
		if !opts.IsModified {
			c.Fail(id, diag.CategoryIllegalConstruct, "Not used symbol (`-') is not allowed in this context")
		}
		return
	case ast.KindOmitValue:
		c.checkOmit(id, n, t, opts)
		return
	case ast.KindReferenced:
		c.checkReferenced(id, n, t, opts)
	case ast.KindInvoke:
		c.checkInvoke(id, n, t)
	case ast.KindValueList, ast.KindComplementedList:
		c.checkValueList(id, n, t, opts)
	case ast.KindAnyOrOmit:
		if !opts.AllowAnyOrOmit {
			c.Warnf(diag.CategoryIllegalConstruct, n.Loc, "Using `*' for mandatory field")
		}
		t.CheckThisTemplate(c, id, opts)
	default:
		t.CheckThisTemplate(c, id, opts)
	}
	if c.an.IsErroneous(id) {
		return
	}

	if n.Length != nil {
		c.checkLengthRestriction(id, n, t)
	}
	if n.IfPresent && !opts.AllowOmit {
		c.Errorf(diag.CategoryIllegalConstruct, n.Loc, "`ifpresent' is not allowed here")
	}
	if opts.SubCheck {
		t.CheckThisTemplateSubtype(c, id)
	}
}

func (c *Checker) checkOmit(id ast.NodeID, n *ast.Node, t Type, opts Options) {
	if n.Length != nil {
		c.Errorf(diag.CategoryIllegalConstruct, n.Length.Loc, "Length restriction cannot be used with omit value")
	}
	if !opts.AllowOmit {
		c.Fail(id, diag.CategoryIllegalConstruct, "`omit' value is not allowed in this context")
		return
	}
	if t.Kind() == TypeSignature {
		c.Fail(id, diag.CategoryIllegalConstruct, "`omit' value is not allowed for signature `%s'", t.Name())
		return
	}
	if n.IfPresent {
		c.Errorf(diag.CategoryIllegalConstruct, n.Loc, "`ifpresent' is not allowed here")
	}
}

// checkValueList handles value lists and complemented lists: every entry is
// a template of the list's own type.
func (c *Checker) checkValueList(id ast.NodeID, n *ast.Node, t Type, opts Options) {
	elemOpts := Options{
		AllowOmit:      c.cfg.LegacyOmitInValueList && opts.AllowOmit,
		AllowAnyOrOmit: true,
		SubCheck:       opts.SubCheck,
		ImplicitOmit:   opts.ImplicitOmit,
	}
	for _, e := range n.Elems {
		if e.Spread {
			c.CheckSpread(e.Node, t)
			continue
		}
		c.CheckTemplate(e.Node, t, elemOpts)
		if n.Kind != ast.KindComplementedList || c.an.IsErroneous(e.Node) {
			continue
		}
		last := c.ResolveLast(e.Node, false)
		if ln := c.Node(last); ln != nil && ln.Kind == ast.KindAnyOrOmit {
			c.Warnf(diag.CategoryIllegalConstruct, c.Loc(e.Node), "`*' in complemented list. This template will not match anything")
		}
	}
}

// CheckListElements checks the plain entries of a list template against the
// element type and expands `all from' entries.
func (c *Checker) CheckListElements(id ast.NodeID, elemType Type, opts Options) {
	n := c.Node(id)
	for _, e := range n.Elems {
		if e.Spread {
			c.CheckSpread(e.Node, elemType)
			continue
		}
		c.CheckTemplate(e.Node, elemType, opts)
	}
}

// CheckSpread validates the target of an `all from' entry: a reference to a
// template or value of a list type whose elements are of elemType.
func (c *Checker) CheckSpread(id ast.NodeID, elemType Type) {
	if c.an.IsErroneous(id) || elemType == nil {
		return
	}
	if c.an.spreadCheck[id] == c.an.timestamp {
		return
	}
	c.an.spreadCheck[id] = c.an.timestamp
	defer c.withScope(id)()

	c.SetLoweridToReference(id)
	n := c.Node(id)
	var ref *ast.Reference
	switch {
	case n.Kind == ast.KindReferenced:
		ref = n.Ref
	case n.Kind == ast.KindSpecificValue && n.Value != nil:
		ref = valueRef(n.Value)
	}
	if ref == nil {
		c.Fail(id, diag.CategoryIllegalConstruct, "A reference to a template or value of a list type was expected after `all from'")
		return
	}
	def, ok := c.lookupFrom(id, ref.Name)
	if !ok {
		c.noDefinition(id, c.Loc(id), ref.Name)
		return
	}
	if def.Kind == DefFunction {
		c.Fail(id, diag.CategoryIllegalConstruct, "A function cannot be used with `all from'")
		return
	}
	lt, ok := c.ReferenceType(def, ref)
	if !ok {
		c.an.MarkErroneous(id)
		return
	}
	if !lt.Kind().IsList() {
		c.Fail(id, diag.CategoryTypeMismatch, "Type `%s' cannot be used with `all from': a record of, set of or array type was expected", lt.Name())
		return
	}
	if et := lt.ElementType(); et != nil && !elemType.IsCompatible(et) {
		c.Fail(id, diag.CategoryTypeMismatch, "Type mismatch: a value or template of type `%s' was expected instead of `%s'", elemType.Name(), et.Name())
	}
}

// checkReferenced checks the reference itself (definition kind, actual
// parameters, type) and then the template it resolves to.
func (c *Checker) checkReferenced(id ast.NodeID, n *ast.Node, t Type, opts Options) {
	def, ok := c.templateDef(id, n)
	if !ok {
		return
	}
	if !c.checkActualParams(id, def.Name, def.Params, n.Ref.Params, def.Kind == DefTemplate || def.Kind == DefFunction) {
		return
	}
	rt, ok := c.ReferenceType(def, n.Ref)
	if !ok {
		c.an.MarkErroneous(id)
		return
	}
	if !t.IsCompatible(rt) {
		c.Fail(id, diag.CategoryTypeMismatch, "Type mismatch: a value or template of type `%s' was expected instead of `%s'", t.Name(), rt.Name())
		return
	}

	last := c.ResolveLast(id, false)
	if c.an.IsErroneous(id) || last == id || c.an.IsErroneous(last) {
		return
	}
	c.checkUsage(id, n, c.Node(last), opts)
}

// checkUsage checks what a referenced template may not be at the place of
// use. The referenced body itself is checked with its own definition, so
// problems found here are reported at the reference and mark only it.
func (c *Checker) checkUsage(id ast.NodeID, n, last *ast.Node, opts Options) {
	switch {
	case last.Kind == ast.KindOmitValue && !opts.AllowOmit:
		c.Fail(id, diag.CategoryIllegalConstruct, "`omit' value is not allowed in this context")
		return
	case last.Kind == ast.KindAnyOrOmit && !opts.AllowAnyOrOmit:
		c.Warnf(diag.CategoryIllegalConstruct, n.Loc, "Using `*' for mandatory field")
	}
	if last.IfPresent && !opts.AllowOmit {
		c.Errorf(diag.CategoryIllegalConstruct, n.Loc, "`ifpresent' is not allowed here")
	}
}

// checkActualParams matches the actual parameter list of a reference with
// the formal parameters of the referenced definition.
func (c *Checker) checkActualParams(id ast.NodeID, name string, formals []Param, actuals []ast.NodeID, parameterized bool) bool {
	if !parameterized {
		if len(actuals) > 0 {
			c.Fail(id, diag.CategoryReference, "Too many parameters: 0 was expected instead of %d", len(actuals))
			return false
		}
		return true
	}
	switch {
	case len(actuals) > len(formals):
		c.Fail(id, diag.CategoryReference, "Too many parameters: %d was expected instead of %d", len(formals), len(actuals))
		return false
	case len(actuals) < len(formals):
		c.Fail(id, diag.CategoryReference, "Too few parameters: %d was expected instead of %d", len(formals), len(actuals))
		return false
	}
	for i, actual := range actuals {
		f := formals[i]
		if f.Type == nil {
			continue
		}
		c.CheckTemplate(actual, f.Type, Options{AllowOmit: true, AllowAnyOrOmit: true, SubCheck: true})
		if c.an.IsErroneous(actual) {
			continue
		}
		if !f.Template {
			if !c.IsValue(actual) {
				c.Errorf(diag.CategoryIllegalConstruct, c.Loc(actual),
					"A specific value was expected for value parameter `%s' of `%s' instead of %s",
					f.Name, name, c.Node(actual).Kind.TemplateTypeName())
			}
			continue
		}
		if f.Restriction != ast.RestrictionNone {
			c.CheckRestriction(actual, f.Restriction, "template parameter `"+f.Name+"'")
		}
	}
	return true
}

// checkInvoke checks `f.invoke(args)`: f must be a function reference
// returning a template of a compatible type.
func (c *Checker) checkInvoke(id ast.NodeID, n *ast.Node, t Type) {
	ref := valueRef(n.Value)
	if ref == nil {
		c.Fail(id, diag.CategoryReference, "A value of type function was expected in the argument of `invoke'")
		return
	}
	def, ok := c.lookupFrom(id, ref.Name)
	if !ok {
		c.noDefinition(id, n.Loc, ref.Name)
		return
	}
	if def.IsTemplateLike() {
		c.Fail(id, diag.CategoryReference, "Reference to a value was expected instead of %s `%s'", def.Kind, ref.Name)
		return
	}
	ft, ok := c.ReferenceType(def, ref)
	if !ok {
		c.an.MarkErroneous(id)
		return
	}
	if ft.Kind() != TypeFunction {
		c.Fail(id, diag.CategoryTypeMismatch, "A value of type function was expected in the argument of `invoke'")
		return
	}
	if !ft.ReturnsTemplate() {
		c.Fail(id, diag.CategoryTypeMismatch, "Type `%s' does not return a template", ft.Name())
		return
	}
	if !c.checkActualParams(id, ft.Name(), ft.Params(), n.Args, true) {
		return
	}
	if rt := ft.ReturnType(); rt != nil && !t.IsCompatible(rt) {
		c.Fail(id, diag.CategoryTypeMismatch, "Type mismatch: a value or template of type `%s' was expected instead of `%s'", t.Name(), rt.Name())
	}
}

// NamedIndex maps field names of the named list id to entry positions.
// Duplicate names are reported once per pass; the first entry wins.
func (c *Checker) NamedIndex(id ast.NodeID) map[string]int {
	if m, ok := c.an.namedIndex[id]; ok && m.stamp >= c.an.timestamp {
		return m.index
	}
	n := c.Node(id)
	index := make(map[string]int, len(n.Named))
	for i, f := range n.Named {
		if _, dup := index[f.Name]; dup {
			loc := f.Loc
			if loc == (diag.Location{}) {
				loc = n.Loc
			}
			c.Errorf(diag.CategoryUniqueness, loc, "Duplicate field `%s' in template", f.Name)
			continue
		}
		index[f.Name] = i
	}
	c.an.namedIndex[id] = namedIndexMemo{stamp: c.an.timestamp, index: index}
	return index
}

package sema

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// IntState tells how far an integer expression could be evaluated.
type IntState int

const (
	// IntKnown: the value is a compile-time integer.
	IntKnown IntState = iota
	// IntUnknown: the value is only known at runtime (variables, parameters).
	IntUnknown
	// IntInvalid: the value is known and is not an integer.
	IntInvalid
)

func valueRef(v *ast.Value) *ast.Reference {
	switch v.Kind {
	case ast.ValueLowerid:
		return &ast.Reference{Name: v.Text, Loc: v.Loc}
	case ast.ValueReferenced:
		return v.Ref
	}
	return nil
}

// ValueLast follows references to constants and returns the literal they
// denote, or nil when the value is not known at compile time.
func (c *Checker) ValueLast(v *ast.Value) *ast.Value {
	return c.valueLast(v, newChain())
}

func (c *Checker) valueLast(v *ast.Value, ch *chain) *ast.Value {
	if v == nil {
		return nil
	}
	ref := valueRef(v)
	if ref == nil {
		return v
	}
	def, ok := c.Lookup(ref.Name)
	if !ok || def.Kind != DefConst || def.Value == nil {
		return nil
	}
	release, ok := c.enter(ch, defKey(def.ID), def.Name, ref.Loc)
	if !ok {
		return nil
	}
	defer release()

	prev := c.scope
	c.scope = def.ID
	cur := c.valueLast(def.Value, ch)
	c.scope = prev

	for _, sub := range ref.SubRefs {
		if cur == nil {
			return nil
		}
		switch sub.Kind {
		case ast.SubRefField:
			var next *ast.Value
			for _, f := range cur.Fields {
				if f.Name == sub.Field {
					next = f.Value
					break
				}
			}
			if next == nil {
				return nil
			}
			c.scope = def.ID
			cur = c.valueLast(next, ch)
			c.scope = prev
		case ast.SubRefIndex:
			idx, state := c.EvalInt(sub.Index)
			if state != IntKnown || cur.Kind != ast.ValueList || idx < 0 || idx >= int64(len(cur.Elems)) {
				return nil
			}
			c.scope = def.ID
			cur = c.valueLast(cur.Elems[idx], ch)
			c.scope = prev
		}
	}
	return cur
}

// EvalInt evaluates v as an integer. A reference to an unknown name is
// reported here and yields IntUnknown.
func (c *Checker) EvalInt(v *ast.Value) (int64, IntState) {
	if v == nil {
		return 0, IntInvalid
	}
	if ref := valueRef(v); ref != nil {
		if _, ok := c.Lookup(ref.Name); !ok {
			c.Errorf(diag.CategoryReference, v.Loc, "There is no local or imported definition with name `%s'", ref.Name)
			return 0, IntUnknown
		}
	}
	last := c.ValueLast(v)
	if last == nil {
		return 0, IntUnknown
	}
	if last.Kind != ast.ValueInteger {
		return 0, IntInvalid
	}
	return last.Int, IntKnown
}

// ProjectType applies sub-references to t and returns the type of the
// selected component. Errors are reported at the offending sub-reference.
func (c *Checker) ProjectType(t Type, subrefs []ast.SubRef) (Type, bool) {
	for _, sub := range subrefs {
		if t == nil {
			return nil, false
		}
		switch sub.Kind {
		case ast.SubRefField:
			if !t.Kind().HasFields() {
				c.Errorf(diag.CategoryReference, sub.Loc, "Invalid field reference `%s': type `%s' does not have fields", sub.Field, t.Name())
				return nil, false
			}
			f, ok := FieldByName(t, sub.Field)
			if !ok {
				c.Errorf(diag.CategoryReference, sub.Loc, "Reference to non-existent field `%s' in type `%s'", sub.Field, t.Name())
				return nil, false
			}
			t = f.Type
		case ast.SubRefIndex:
			if !t.Kind().IsList() {
				c.Errorf(diag.CategoryReference, sub.Loc, "Invalid array element reference: type `%s' cannot be indexed", t.Name())
				return nil, false
			}
			t = t.ElementType()
		}
	}
	return t, t != nil
}

// ReferenceType returns the type a reference to def denotes after its
// sub-references.
func (c *Checker) ReferenceType(def *Definition, ref *ast.Reference) (Type, bool) {
	if def.Type == nil {
		return nil, false
	}
	return c.ProjectType(def.Type, ref.SubRefs)
}

// IsValue reports whether the template rooted at id is a plain value: no
// wildcards, no matching mechanisms, no length restriction or ifpresent.
func (c *Checker) IsValue(id ast.NodeID) bool {
	if !c.isEnumItem(id) {
		c.SetLoweridToReference(id)
	}
	n := c.Node(id)
	if n == nil || c.an.IsErroneous(id) || n.Length != nil || n.IfPresent {
		return false
	}
	switch n.Kind {
	case ast.KindSpecificValue:
		return n.Value != nil && n.Value.Kind != ast.ValueApply
	case ast.KindOmitValue:
		return true
	case ast.KindTemplateList:
		for _, e := range n.Elems {
			if e.Spread || !c.IsValue(e.Node) {
				return false
			}
		}
		return true
	case ast.KindNamedTemplateList:
		for _, f := range n.Named {
			if !c.IsValue(f.Node) {
				return false
			}
		}
		return true
	}
	return false
}

// ValueOf converts a template for which IsValue holds into the value it
// denotes. It returns nil otherwise.
func (c *Checker) ValueOf(id ast.NodeID) *ast.Value {
	if !c.IsValue(id) {
		return nil
	}
	n := c.Node(id)
	switch n.Kind {
	case ast.KindSpecificValue:
		return n.Value
	case ast.KindOmitValue:
		return &ast.Value{Kind: ast.ValueOmit, Loc: n.Loc}
	case ast.KindTemplateList:
		out := &ast.Value{Kind: ast.ValueList, Loc: n.Loc, Elems: make([]*ast.Value, len(n.Elems))}
		for i, e := range n.Elems {
			out.Elems[i] = c.ValueOf(e.Node)
		}
		return out
	case ast.KindNamedTemplateList:
		out := &ast.Value{Kind: ast.ValueNamed, Loc: n.Loc, Fields: make([]ast.NamedValue, len(n.Named))}
		for i, f := range n.Named {
			out.Fields[i] = ast.NamedValue{Name: f.Name, Loc: f.Loc, Value: c.ValueOf(f.Node)}
		}
		return out
	}
	return nil
}

// isEnumItem reports whether id is an identifier naming an item of its
// enumerated governor, which is never reclassified.
func (c *Checker) isEnumItem(id ast.NodeID) bool {
	n := c.mod.Arena.Get(id)
	if n == nil || n.Kind != ast.KindSpecificValue || n.Value == nil || n.Value.Kind != ast.ValueLowerid {
		return false
	}
	t := c.an.Governor(id)
	return t != nil && t.Kind() == TypeEnumerated && t.EnumHas(n.Value.Text)
}

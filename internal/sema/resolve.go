package sema

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// SetLoweridToReference reclassifies a specific value that names a template
// into a Referenced node, and a function application into an Invoke node.
// The decision is cached for the current timestamp.
func (c *Checker) SetLoweridToReference(id ast.NodeID) ast.Kind {
	orig := c.mod.Arena.Get(id)
	if orig == nil {
		return ast.KindInvalid
	}
	if orig.Kind != ast.KindSpecificValue || orig.Value == nil {
		return orig.Kind
	}
	if r, ok := c.an.reclass[id]; ok && r.stamp == c.an.timestamp {
		if r.node != nil {
			return r.node.Kind
		}
		return orig.Kind
	}

	var node *ast.Node
	v := orig.Value
	switch v.Kind {
	case ast.ValueLowerid, ast.ValueReferenced:
		ref := *valueRef(v)
		if ref.Loc == (diag.Location{}) {
			ref.Loc = v.Loc
		}
		if def, ok := c.lookupFrom(id, ref.Name); ok && def.IsTemplateLike() {
			node = &ast.Node{Kind: ast.KindReferenced, Loc: orig.Loc, Length: orig.Length, IfPresent: orig.IfPresent, Ref: &ref}
		}
	case ast.ValueApply:
		fn := &ast.Value{Kind: ast.ValueReferenced, Loc: v.Loc, Ref: v.Ref}
		node = &ast.Node{Kind: ast.KindInvoke, Loc: orig.Loc, Length: orig.Length, IfPresent: orig.IfPresent, Value: fn, Args: v.Args}
	}
	c.an.reclass[id] = reclassified{stamp: c.an.timestamp, node: node}
	if node != nil {
		return node.Kind
	}
	return orig.Kind
}

// ResolveLast follows references from id to the final template they denote.
// It returns id itself when id is not a reference, when the chain ends in
// something only known at runtime (a parameter, a function call), or on
// error. With silent set, field references into inactive union alternatives
// are tolerated without a diagnostic, as inside isbound.
func (c *Checker) ResolveLast(id ast.NodeID, silent bool) ast.NodeID {
	return c.resolveLast(id, newChain(), silent)
}

func (c *Checker) resolveLast(id ast.NodeID, ch *chain, silent bool) ast.NodeID {
	c.SetLoweridToReference(id)
	n := c.Node(id)
	if n == nil || n.Kind != ast.KindReferenced || c.an.IsErroneous(id) {
		return id
	}
	release, ok := c.enter(ch, nodeKey(id), n.Ref.String(), n.Loc)
	if !ok {
		return id
	}
	defer release()

	next := c.hop(id, n, ch, silent)
	if next == ast.NoNode {
		return id
	}
	return c.resolveLast(next, ch, silent)
}

// templateDef looks up the definition a Referenced node names and makes sure
// it denotes a template.
func (c *Checker) templateDef(id ast.NodeID, n *ast.Node) (*Definition, bool) {
	def, ok := c.lookupFrom(id, n.Ref.Name)
	if !ok {
		c.noDefinition(id, n.Loc, n.Ref.Name)
		return nil, false
	}
	if !def.IsTemplateLike() {
		c.Fail(id, diag.CategoryReference, "Reference to a template was expected instead of %s `%s'", def.Kind, n.Ref.Name)
		return nil, false
	}
	return def, true
}

// hop performs one level of indirection: the body of the referenced
// definition projected through the reference's field and index steps.
func (c *Checker) hop(id ast.NodeID, n *ast.Node, ch *chain, silent bool) ast.NodeID {
	def, ok := c.templateDef(id, n)
	if !ok {
		return ast.NoNode
	}
	if def.Kind != DefTemplate && def.Kind != DefVarTemplate {
		return ast.NoNode
	}
	if def.Body == ast.NoNode {
		return ast.NoNode
	}
	if def.Kind == DefTemplate {
		c.CheckDefinition(def)
	}

	cur := def.Body
	t := def.Type
	for _, sub := range n.Ref.SubRefs {
		cur = c.resolveLast(cur, ch, silent)
		cn := c.Node(cur)
		if cn == nil || c.an.IsErroneous(cur) || cn.Kind == ast.KindReferenced || t == nil {
			return ast.NoNode
		}
		switch sub.Kind {
		case ast.SubRefField:
			cur = c.projectField(id, cur, t, sub, silent, ch)
			f, ok := FieldByName(t, sub.Field)
			if !ok {
				return ast.NoNode
			}
			t = f.Type
		case ast.SubRefIndex:
			cur = c.projectIndex(id, cur, t, sub, silent, ch)
			t = t.ElementType()
		}
		if cur == ast.NoNode {
			return ast.NoNode
		}
	}
	return cur
}

func (c *Checker) subLoc(id ast.NodeID, sub ast.SubRef) diag.Location {
	if sub.Loc != (diag.Location{}) {
		return sub.Loc
	}
	return c.Loc(id)
}

// projectField selects field sub.Field of the resolved template cur of type t.
func (c *Checker) projectField(refID, cur ast.NodeID, t Type, sub ast.SubRef, silent bool, ch *chain) ast.NodeID {
	n := c.Node(cur)
	switch t.Kind() {
	case TypeUnion:
		if n.Kind != ast.KindNamedTemplateList || len(n.Named) == 0 {
			return ast.NoNode
		}
		active := n.Named[0]
		if active.Name == sub.Field {
			return active.Node
		}
		if !silent {
			c.Errorf(diag.CategoryReference, c.subLoc(refID, sub),
				"Reference to inactive field `%s' in a template of union type `%s'. The active field is `%s'.",
				sub.Field, t.Name(), active.Name)
			c.an.MarkErroneous(refID)
		}
		return ast.NoNode

	case TypeRecord, TypeSet, TypeSignature:
		switch n.Kind {
		case ast.KindNamedTemplateList:
			if e, ok := n.FieldByName(sub.Field); ok {
				return c.notUsedFallback(refID, cur, e.Node, t, sub, silent, ch)
			}
			if b := c.resolvedBase(cur, ch, silent); b != ast.NoNode {
				return c.projectField(refID, b, t, sub, silent, ch)
			}
			if !silent {
				c.Errorf(diag.CategoryReference, c.subLoc(refID, sub), "Reference to unbound field `%s'", sub.Field)
				c.an.MarkErroneous(refID)
			}
		case ast.KindTemplateList:
			i, ok := t.FieldIndex(sub.Field)
			if !ok || i >= len(n.Elems) || n.Elems[i].Spread {
				return ast.NoNode
			}
			return c.notUsedFallback(refID, cur, n.Elems[i].Node, t, sub, silent, ch)
		}
		return ast.NoNode
	}

	if !silent {
		c.Errorf(diag.CategoryReference, c.subLoc(refID, sub), "Invalid field reference `%s': type `%s' does not have fields", sub.Field, t.Name())
		c.an.MarkErroneous(refID)
	}
	return ast.NoNode
}

// notUsedFallback replaces a `-' field entry with the base's entry.
func (c *Checker) notUsedFallback(refID, cur, entry ast.NodeID, t Type, sub ast.SubRef, silent bool, ch *chain) ast.NodeID {
	if en := c.Node(entry); en == nil || en.Kind != ast.KindNotUsed {
		return entry
	}
	if b := c.resolvedBase(cur, ch, silent); b != ast.NoNode {
		return c.projectField(refID, b, t, sub, silent, ch)
	}
	return ast.NoNode
}

// resolvedBase returns the final form of cur's base template, or NoNode.
func (c *Checker) resolvedBase(cur ast.NodeID, ch *chain, silent bool) ast.NodeID {
	base := c.an.Base(cur)
	if base == ast.NoNode {
		return ast.NoNode
	}
	b := c.resolveLast(base, ch, silent)
	if bn := c.Node(b); bn == nil || c.an.IsErroneous(b) || bn.Kind == ast.KindReferenced {
		return ast.NoNode
	}
	return b
}

// projectIndex selects element sub.Index of the resolved template cur.
// Array indices are re-based by the array's lower bound first.
func (c *Checker) projectIndex(refID, cur ast.NodeID, t Type, sub ast.SubRef, silent bool, ch *chain) ast.NodeID {
	idx, state := c.EvalInt(sub.Index)
	switch state {
	case IntInvalid:
		if !silent {
			c.Errorf(diag.CategoryReference, c.subLoc(refID, sub), "An integer value was expected as index")
			c.an.MarkErroneous(refID)
		}
		return ast.NoNode
	case IntUnknown:
		return ast.NoNode
	}

	switch t.Kind() {
	case TypeRecordOf, TypeSetOf:
		if idx < 0 {
			c.Errorf(diag.CategoryReference, c.subLoc(refID, sub),
				"A non-negative integer value was expected instead of %d for indexing a template of `%s' type", idx, t.Kind())
			c.an.MarkErroneous(refID)
			return ast.NoNode
		}
		return c.elementAt(refID, cur, idx, idx, t, sub, silent, ch)
	case TypeArray:
		dim := t.Dimension()
		if idx < dim.Offset {
			c.Errorf(diag.CategoryReference, c.subLoc(refID, sub),
				"Array index underflow: the index value must be at least `%d' instead of `%d'", dim.Offset, idx)
			c.an.MarkErroneous(refID)
			return ast.NoNode
		}
		if idx >= dim.Offset+dim.Size {
			c.Errorf(diag.CategoryReference, c.subLoc(refID, sub),
				"Array index overflow: the index value must be at most `%d' instead of `%d'", dim.Offset+dim.Size-1, idx)
			c.an.MarkErroneous(refID)
			return ast.NoNode
		}
		return c.elementAt(refID, cur, idx, idx-dim.Offset, t, sub, silent, ch)
	}

	if !silent {
		c.Errorf(diag.CategoryReference, c.subLoc(refID, sub), "Invalid array element reference: type `%s' cannot be indexed", t.Name())
		c.an.MarkErroneous(refID)
	}
	return ast.NoNode
}

// elementAt looks up position pos (already re-based) of cur. written is the
// index as it appears in the source, used for indexed notation and messages.
func (c *Checker) elementAt(refID, cur ast.NodeID, written, pos int64, t Type, sub ast.SubRef, silent bool, ch *chain) ast.NodeID {
	n := c.Node(cur)
	switch n.Kind {
	case ast.KindTemplateList:
		for i := 0; i < len(n.Elems) && int64(i) <= pos; i++ {
			if n.Elems[i].Spread {
				return ast.NoNode
			}
		}
		if pos >= int64(len(n.Elems)) {
			if !silent {
				c.Errorf(diag.CategoryReference, c.subLoc(refID, sub),
					"Index overflow in a template of `%s' type: the index is %d, but the template has only %d elements",
					t.Kind(), written, len(n.Elems))
				c.an.MarkErroneous(refID)
			}
			return ast.NoNode
		}
		el := n.Elems[pos].Node
		if en := c.Node(el); en != nil && en.Kind == ast.KindNotUsed {
			if b := c.resolvedBase(cur, ch, silent); b != ast.NoNode {
				return c.elementAt(refID, b, written, pos, t, sub, silent, ch)
			}
			return ast.NoNode
		}
		return el
	case ast.KindIndexedTemplateList:
		for _, e := range n.Indexed {
			if v, state := c.EvalInt(e.Index); state == IntKnown && v == written {
				return e.Node
			}
		}
		if b := c.resolvedBase(cur, ch, silent); b != ast.NoNode {
			return c.elementAt(refID, b, written, pos, t, sub, silent, ch)
		}
	}
	return ast.NoNode
}

// BaseField returns the entry for field name in the template parent
// modifies, following the base chain, or NoNode.
func (c *Checker) BaseField(parent ast.NodeID, t Type, name string) ast.NodeID {
	b := c.resolvedBase(parent, newChain(), true)
	if b == ast.NoNode {
		return ast.NoNode
	}
	n := c.Node(b)
	switch n.Kind {
	case ast.KindNamedTemplateList:
		if e, ok := n.FieldByName(name); ok {
			return e.Node
		}
		return c.BaseField(b, t, name)
	case ast.KindTemplateList:
		if i, ok := t.FieldIndex(name); ok && i < len(n.Elems) && !n.Elems[i].Spread {
			return n.Elems[i].Node
		}
	}
	return ast.NoNode
}

// BaseElement returns element i of the value list parent modifies, or NoNode.
func (c *Checker) BaseElement(parent ast.NodeID, i int) ast.NodeID {
	b := c.resolvedBase(parent, newChain(), true)
	if b == ast.NoNode {
		return ast.NoNode
	}
	n := c.Node(b)
	if n.Kind != ast.KindTemplateList || i >= len(n.Elems) {
		return ast.NoNode
	}
	for _, e := range n.Elems[:i+1] {
		if e.Spread {
			return ast.NoNode
		}
	}
	return n.Elems[i].Node
}

// BaseLength returns the number of elements of the value list parent
// modifies, and whether the base is such a list.
func (c *Checker) BaseLength(parent ast.NodeID) (int, bool) {
	b := c.resolvedBase(parent, newChain(), true)
	if b == ast.NoNode {
		return 0, false
	}
	n := c.Node(b)
	if n.Kind != ast.KindTemplateList {
		return 0, false
	}
	return len(n.Elems), true
}

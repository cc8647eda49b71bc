package types

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

// CheckThisTemplate checks the variants the generic pipeline delegates to
// the type: specific values, wildcards, ranges, patterns and the list forms.
func (t *Type) CheckThisTemplate(c *sema.Checker, id ast.NodeID, opts sema.Options) {
	n := c.Node(id)
	switch n.Kind {
	case ast.KindAnyValue, ast.KindAnyOrOmit:
		return
	case ast.KindSpecificValue:
		if !t.CheckThisValue(c, n.Value) {
			c.MarkErroneous(id)
		}
		return
	case ast.KindValueRange:
		t.checkRange(c, id, n)
		return
	}
	if n.Kind.IsPattern() {
		t.checkPattern(c, id, n)
		return
	}

	switch t.kind {
	case sema.TypeRecord, sema.TypeSet, sema.TypeSignature:
		switch n.Kind {
		case ast.KindNamedTemplateList:
			t.checkNamed(c, id, n, opts)
			return
		case ast.KindTemplateList:
			t.checkValueListNotation(c, id, n, opts)
			return
		}
	case sema.TypeUnion:
		if n.Kind == ast.KindNamedTemplateList {
			t.checkUnion(c, id, n, opts)
			return
		}
	case sema.TypeRecordOf, sema.TypeSetOf:
		switch n.Kind {
		case ast.KindTemplateList:
			t.checkSeofList(c, id, n, opts)
			return
		case ast.KindIndexedTemplateList:
			t.checkIndexed(c, id, n, opts)
			return
		case ast.KindSupersetMatch, ast.KindSubsetMatch:
			if t.kind == sema.TypeSetOf {
				c.CheckListElements(id, t.elem, sema.Options{AllowAnyOrOmit: true, SubCheck: opts.SubCheck})
				return
			}
		}
	case sema.TypeArray:
		switch n.Kind {
		case ast.KindTemplateList:
			t.checkArrayList(c, id, n, opts)
			return
		case ast.KindIndexedTemplateList:
			t.checkIndexed(c, id, n, opts)
			return
		}
	}
	t.illegal(c, id, n)
}

func (t *Type) illegal(c *sema.Checker, id ast.NodeID, n *ast.Node) {
	c.Fail(id, diag.CategoryIllegalConstruct, "%s cannot be used for type `%s'", capitalize(n.Kind.TemplateTypeName()), t.name)
}

func (t *Type) checkRange(c *sema.Checker, id ast.NodeID, n *ast.Node) {
	switch t.kind {
	case sema.TypeInteger, sema.TypeFloat, sema.TypeCharstring, sema.TypeUCharstring:
	default:
		t.illegal(c, id, n)
		return
	}
	for _, b := range []*ast.Value{n.Min, n.Max} {
		if b != nil && !t.root().CheckThisValue(c, b) {
			c.MarkErroneous(id)
			return
		}
	}
	lo, hi := c.ValueLast(n.Min), c.ValueLast(n.Max)

	if t.kind.IsString() {
		for _, b := range []struct {
			v    *ast.Value
			name string
		}{{lo, "lower"}, {hi, "upper"}} {
			if b.v == nil {
				continue
			}
			if l, ok := b.v.StringLength(); ok && l != 1 {
				c.Fail(id, diag.CategoryIllegalConstruct, "The %s boundary of a %s range must be a single character instead of a string of length %d", b.name, t.kind, l)
				return
			}
		}
		if lo != nil && hi != nil && []rune(lo.Text)[0] > []rune(hi.Text)[0] {
			c.Fail(id, diag.CategoryIllegalConstruct, "The lower boundary is higher than the upper boundary")
		}
		return
	}
	if n.Min == nil || n.Max == nil || lo == nil || hi == nil {
		return
	}
	switch {
	case lo.Kind == ast.ValueInteger && hi.Kind == ast.ValueInteger && lo.Int > hi.Int,
		lo.Kind == ast.ValueFloat && hi.Kind == ast.ValueFloat && lo.Float > hi.Float:
		c.Fail(id, diag.CategoryIllegalConstruct, "The lower boundary is higher than the upper boundary")
	}
}

// patternKinds lists the pattern variants each string type admits.
var patternKinds = map[sema.TypeKind][]ast.Kind{
	sema.TypeBitstring:   {ast.KindBitStringPattern},
	sema.TypeHexstring:   {ast.KindHexStringPattern},
	sema.TypeOctetstring: {ast.KindOctetStringPattern},
	sema.TypeCharstring:  {ast.KindCharStringPattern},
	sema.TypeUCharstring: {ast.KindCharStringPattern, ast.KindUnivCharStringPattern},
}

func (t *Type) checkPattern(c *sema.Checker, id ast.NodeID, n *ast.Node) {
	allowed := false
	for _, k := range patternKinds[t.kind] {
		allowed = allowed || k == n.Kind
	}
	if !allowed {
		t.illegal(c, id, n)
		return
	}
	var err error
	switch n.Kind {
	case ast.KindCharStringPattern, ast.KindUnivCharStringPattern:
		_, err = sema.CharPatternInfo(n.Pattern)
	default:
		_, err = sema.BinaryPatternInfo(n.Kind, n.Pattern)
	}
	if err != nil {
		c.Fail(id, diag.CategoryIllegalConstruct, "Invalid %s: %v", n.Kind.TemplateTypeName(), err)
	}
}

// CheckThisTemplateSubtype checks integer templates against the range
// subtype of t.
func (t *Type) CheckThisTemplateSubtype(c *sema.Checker, id ast.NodeID) {
	if t.kind != sema.TypeInteger || (t.lo == nil && t.hi == nil) {
		return
	}
	n := c.Node(id)
	switch n.Kind {
	case ast.KindSpecificValue:
		if v := c.ValueLast(n.Value); v != nil && v.Kind == ast.ValueInteger && !t.inRange(v.Int) {
			c.Errorf(diag.CategoryTypeMismatch, n.Loc, "%d is not a valid value for type `%s' which has subtype %s", v.Int, t.name, t.subtypeString())
		}
	case ast.KindValueRange:
		lo, hi := c.ValueLast(n.Min), c.ValueLast(n.Max)
		below := t.lo != nil && (n.Min == nil || (lo != nil && lo.Kind == ast.ValueInteger && lo.Int < *t.lo))
		above := t.hi != nil && (n.Max == nil || (hi != nil && hi.Kind == ast.ValueInteger && hi.Int > *t.hi))
		if below || above {
			c.Errorf(diag.CategoryTypeMismatch, n.Loc, "The range %s is not a subset of subtype %s of type `%s'", c.Arena().String(id), t.subtypeString(), t.name)
		}
	}
}

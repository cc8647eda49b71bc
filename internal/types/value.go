package types

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

var verdicts = map[string]bool{"none": true, "pass": true, "inconc": true, "fail": true, "error": true}

// literal maps each simple type to the literal kinds it accepts.
var literal = map[sema.TypeKind][]ast.ValueKind{
	sema.TypeInteger:     {ast.ValueInteger},
	sema.TypeFloat:       {ast.ValueFloat},
	sema.TypeBoolean:     {ast.ValueBoolean},
	sema.TypeVerdict:     {ast.ValueVerdict},
	sema.TypeBitstring:   {ast.ValueBitstring},
	sema.TypeHexstring:   {ast.ValueHexstring},
	sema.TypeOctetstring: {ast.ValueOctetstring},
	sema.TypeCharstring:  {ast.ValueCharstring},
	sema.TypeUCharstring: {ast.ValueCharstring, ast.ValueUCharstring},
}

// CheckThisValue checks v as a value of t. Problems are reported and false
// is returned.
func (t *Type) CheckThisValue(c *sema.Checker, v *ast.Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case ast.ValueLowerid:
		if t.kind == sema.TypeEnumerated && t.EnumHas(v.Text) {
			return true
		}
		return t.checkValueRef(c, &ast.Reference{Name: v.Text, Loc: v.Loc})
	case ast.ValueReferenced:
		return t.checkValueRef(c, v.Ref)
	case ast.ValueApply:
		return t.checkApplyValue(c, v)
	case ast.ValueOmit:
		c.Errorf(diag.CategoryIllegalConstruct, v.Loc, "`omit' value is not allowed in this context")
		return false
	}

	if kinds, simple := literal[t.kind]; simple {
		for _, k := range kinds {
			if v.Kind == k {
				return t.checkLiteral(c, v)
			}
		}
		return t.mismatch(c, v)
	}

	switch t.kind {
	case sema.TypeRecord, sema.TypeSet, sema.TypeSignature:
		switch {
		case v.Kind == ast.ValueNamed:
			return t.checkNamedValue(c, v)
		case v.Kind == ast.ValueList && t.kind != sema.TypeSet:
			return t.checkListValue(c, v)
		}
	case sema.TypeUnion:
		if v.Kind == ast.ValueNamed {
			if len(v.Fields) != 1 {
				c.Errorf(diag.CategoryTypeMismatch, v.Loc, "Union value must have one active field")
				return false
			}
			return t.checkNamedValue(c, v)
		}
	case sema.TypeRecordOf, sema.TypeSetOf, sema.TypeArray:
		if v.Kind == ast.ValueList {
			if t.kind == sema.TypeArray && int64(len(v.Elems)) != t.dim.Size {
				c.Errorf(diag.CategoryCardinality, v.Loc, "Too %s elements in the array value: %d was expected instead of %d",
					fewOrMany(int64(len(v.Elems)), t.dim.Size), t.dim.Size, len(v.Elems))
				return false
			}
			ok := true
			for _, e := range v.Elems {
				ok = t.elem.CheckThisValue(c, e) && ok
			}
			return ok
		}
	}
	return t.mismatch(c, v)
}

func fewOrMany(got, want int64) string {
	if got < want {
		return "few"
	}
	return "many"
}

func (t *Type) mismatch(c *sema.Checker, v *ast.Value) bool {
	c.Errorf(diag.CategoryTypeMismatch, v.Loc, "%s value was expected", capitalize(t.kind.String()))
	return false
}

// capitalize upper-cases the first letter: "Integer", "Record of".
func capitalize(kind string) string {
	if kind == "" {
		return kind
	}
	b := []byte(kind)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func (t *Type) checkLiteral(c *sema.Checker, v *ast.Value) bool {
	switch t.kind {
	case sema.TypeVerdict:
		if !verdicts[v.Text] {
			c.Errorf(diag.CategoryTypeMismatch, v.Loc, "`%s' is not a valid verdict", v.Text)
			return false
		}
	case sema.TypeInteger:
		if !t.inRange(v.Int) {
			c.Errorf(diag.CategoryTypeMismatch, v.Loc, "%d is not a valid value for type `%s' which has subtype %s", v.Int, t.name, t.subtypeString())
			return false
		}
	}
	return true
}

func (t *Type) checkValueRef(c *sema.Checker, ref *ast.Reference) bool {
	def, ok := c.Lookup(ref.Name)
	if !ok {
		c.Errorf(diag.CategoryReference, ref.Loc, "There is no local or imported definition with name `%s'", ref.Name)
		return false
	}
	if def.IsTemplateLike() {
		c.Errorf(diag.CategoryReference, ref.Loc, "Reference to a value was expected instead of %s `%s'", def.Kind, ref.Name)
		return false
	}
	if def.Kind == sema.DefFunction {
		c.Errorf(diag.CategoryReference, ref.Loc, "Reference to a value was expected instead of a call of function `%s', which does not return a value", ref.Name)
		return false
	}
	rt, ok := c.ReferenceType(def, ref)
	if !ok {
		return false
	}
	if !t.IsCompatible(rt) {
		c.Errorf(diag.CategoryTypeMismatch, ref.Loc, "Type mismatch: a value of type `%s' was expected instead of `%s'", t.name, rt.Name())
		return false
	}
	if t.kind == sema.TypeInteger && (t.lo != nil || t.hi != nil) {
		if last := c.ValueLast(&ast.Value{Kind: ast.ValueReferenced, Loc: ref.Loc, Ref: ref}); last != nil && last.Kind == ast.ValueInteger {
			lv := *last
			lv.Loc = ref.Loc
			return t.checkLiteral(c, &lv)
		}
	}
	return true
}

// checkApplyValue checks `f.apply(args)' used as a value.
func (t *Type) checkApplyValue(c *sema.Checker, v *ast.Value) bool {
	if v.Ref == nil {
		c.Errorf(diag.CategoryReference, v.Loc, "A value of type function was expected in the argument of `apply'")
		return false
	}
	def, ok := c.Lookup(v.Ref.Name)
	if !ok {
		c.Errorf(diag.CategoryReference, v.Loc, "There is no local or imported definition with name `%s'", v.Ref.Name)
		return false
	}
	ft, ok := c.ReferenceType(def, v.Ref)
	if !ok {
		return false
	}
	if ft.Kind() != sema.TypeFunction || ft.ReturnsTemplate() || ft.ReturnType() == nil {
		c.Errorf(diag.CategoryTypeMismatch, v.Loc, "Type `%s' does not return a value", ft.Name())
		return false
	}
	if !t.IsCompatible(ft.ReturnType()) {
		c.Errorf(diag.CategoryTypeMismatch, v.Loc, "Type mismatch: a value of type `%s' was expected instead of `%s'", t.name, ft.ReturnType().Name())
		return false
	}
	return true
}

func (t *Type) checkNamedValue(c *sema.Checker, v *ast.Value) bool {
	ok := true
	seen := make(map[string]bool, len(v.Fields))
	for _, f := range v.Fields {
		loc := f.Loc
		if loc == (diag.Location{}) {
			loc = v.Loc
		}
		if seen[f.Name] {
			c.Errorf(diag.CategoryUniqueness, loc, "Duplicate field `%s' in %s value", f.Name, t.kindWord())
			ok = false
			continue
		}
		seen[f.Name] = true
		i, exists := t.index[f.Name]
		if !exists {
			c.Errorf(diag.CategoryReference, loc, "Reference to non-existent field `%s' in %s value for type `%s'", f.Name, t.kindWord(), t.name)
			ok = false
			continue
		}
		field := t.fields[i]
		if f.Value != nil && f.Value.Kind == ast.ValueOmit {
			if !field.Optional {
				c.Errorf(diag.CategoryIllegalConstruct, loc, "`omit' is not allowed for mandatory field `%s'", f.Name)
				ok = false
			}
			continue
		}
		ok = field.Type.CheckThisValue(c, f.Value) && ok
	}
	if t.kind == sema.TypeUnion {
		return ok
	}
	for _, field := range t.fields {
		if !seen[field.Name] {
			c.Errorf(diag.CategoryTypeMismatch, v.Loc, "Field `%s' is missing from %s value", field.Name, t.kindWord())
			ok = false
		}
	}
	return ok
}

func (t *Type) checkListValue(c *sema.Checker, v *ast.Value) bool {
	if len(v.Elems) != len(t.fields) {
		c.Errorf(diag.CategoryCardinality, v.Loc, "Too %s elements in value list notation for type `%s': %d was expected instead of %d",
			fewOrMany(int64(len(v.Elems)), int64(len(t.fields))), t.name, len(t.fields), len(v.Elems))
		return false
	}
	ok := true
	for i, e := range v.Elems {
		field := t.fields[i]
		if e != nil && e.Kind == ast.ValueOmit {
			if !field.Optional {
				c.Errorf(diag.CategoryIllegalConstruct, e.Loc, "`omit' is not allowed for mandatory field `%s'", field.Name)
				ok = false
			}
			continue
		}
		ok = field.Type.CheckThisValue(c, e) && ok
	}
	return ok
}

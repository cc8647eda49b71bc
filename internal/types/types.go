// Package types is a structural model of the TTCN-3 type system: the
// built-in simple types, enumerations, records, sets, unions, record of,
// set of, arrays, signatures and function types. Each Type carries the
// per-kind template rules the checker delegates to.
package types

import (
	"fmt"
	"strconv"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

// Type implements sema.Type.
type Type struct {
	name string
	kind sema.TypeKind

	fields []sema.Field
	index  map[string]int
	elem   sema.Type
	dim    sema.Dimension
	items  []string

	params      []sema.Param
	ret         sema.Type
	retTemplate bool

	// origin is the type an alias or subtype was derived from.
	origin *Type
	// lo, hi bound integer subtypes; nil is unbounded.
	lo, hi *int64
}

var _ sema.Type = (*Type)(nil)

var (
	integerType     = &Type{name: "integer", kind: sema.TypeInteger}
	floatType       = &Type{name: "float", kind: sema.TypeFloat}
	booleanType     = &Type{name: "boolean", kind: sema.TypeBoolean}
	verdictType     = &Type{name: "verdicttype", kind: sema.TypeVerdict}
	bitstringType   = &Type{name: "bitstring", kind: sema.TypeBitstring}
	hexstringType   = &Type{name: "hexstring", kind: sema.TypeHexstring}
	octetstringType = &Type{name: "octetstring", kind: sema.TypeOctetstring}
	charstringType  = &Type{name: "charstring", kind: sema.TypeCharstring}
	ucharstringType = &Type{name: "universal charstring", kind: sema.TypeUCharstring}
)

func Integer() *Type             { return integerType }
func Float() *Type               { return floatType }
func Boolean() *Type             { return booleanType }
func Verdict() *Type             { return verdictType }
func Bitstring() *Type           { return bitstringType }
func Hexstring() *Type           { return hexstringType }
func Octetstring() *Type         { return octetstringType }
func Charstring() *Type          { return charstringType }
func UniversalCharstring() *Type { return ucharstringType }

// Builtin returns the built-in type with the given TTCN-3 name.
func Builtin(name string) (*Type, bool) {
	for _, t := range []*Type{integerType, floatType, booleanType, verdictType, bitstringType,
		hexstringType, octetstringType, charstringType, ucharstringType} {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// Field returns a mandatory field.
func Field(name string, t sema.Type) sema.Field { return sema.Field{Name: name, Type: t} }

// Optional returns an optional field.
func Optional(name string, t sema.Type) sema.Field {
	return sema.Field{Name: name, Type: t, Optional: true}
}

func withFields(name string, kind sema.TypeKind, fields []sema.Field) *Type {
	t := &Type{name: name, kind: kind, fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, dup := t.index[f.Name]; !dup {
			t.index[f.Name] = i
		}
	}
	return t
}

func Record(name string, fields ...sema.Field) *Type {
	return withFields(name, sema.TypeRecord, fields)
}

func Set(name string, fields ...sema.Field) *Type {
	return withFields(name, sema.TypeSet, fields)
}

func Union(name string, fields ...sema.Field) *Type {
	return withFields(name, sema.TypeUnion, fields)
}

// Signature models a procedure signature; its parameters behave like fields.
func Signature(name string, params ...sema.Field) *Type {
	return withFields(name, sema.TypeSignature, params)
}

// RecordOf returns `record of elem`. An empty name yields the anonymous form.
func RecordOf(name string, elem sema.Type) *Type {
	if name == "" {
		name = "record of " + elem.Name()
	}
	return &Type{name: name, kind: sema.TypeRecordOf, elem: elem}
}

// SetOf returns `set of elem`.
func SetOf(name string, elem sema.Type) *Type {
	if name == "" {
		name = "set of " + elem.Name()
	}
	return &Type{name: name, kind: sema.TypeSetOf, elem: elem}
}

// Array returns `elem[offset .. offset+size-1]`; offset 0 is written elem[size].
func Array(elem sema.Type, offset, size int64) *Type {
	name := fmt.Sprintf("%s[%d]", elem.Name(), size)
	if offset != 0 {
		name = fmt.Sprintf("%s[%d..%d]", elem.Name(), offset, offset+size-1)
	}
	return &Type{name: name, kind: sema.TypeArray, elem: elem, dim: sema.Dimension{Offset: offset, Size: size}}
}

func Enumerated(name string, items ...string) *Type {
	return &Type{name: name, kind: sema.TypeEnumerated, items: items}
}

// Function returns a function reference type.
func Function(name string, params []sema.Param, ret sema.Type, returnsTemplate bool) *Type {
	return &Type{name: name, kind: sema.TypeFunction, params: params, ret: ret, retTemplate: returnsTemplate}
}

// Alias names an existing type.
func Alias(name string, target *Type) *Type {
	cp := *target
	cp.name = name
	cp.origin = target.root()
	return &cp
}

// IntegerRange returns an integer subtype `integer (lo .. hi)`; nil bounds
// are infinite.
func IntegerRange(name string, lo, hi *int64) *Type {
	return &Type{name: name, kind: sema.TypeInteger, origin: integerType, lo: lo, hi: hi}
}

func (t *Type) root() *Type {
	if t.origin != nil {
		return t.origin
	}
	return t
}

func (t *Type) Name() string        { return t.name }
func (t *Type) Kind() sema.TypeKind { return t.kind }
func (t *Type) FieldCount() int     { return len(t.fields) }

func (t *Type) FieldByIndex(i int) sema.Field {
	if i < 0 || i >= len(t.fields) {
		return sema.Field{}
	}
	return t.fields[i]
}

func (t *Type) FieldIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

func (t *Type) ElementType() sema.Type    { return t.elem }
func (t *Type) Dimension() sema.Dimension { return t.dim }
func (t *Type) Params() []sema.Param      { return t.params }
func (t *Type) ReturnType() sema.Type     { return t.ret }
func (t *Type) ReturnsTemplate() bool     { return t.retTemplate }

func (t *Type) EnumHas(item string) bool {
	for _, it := range t.items {
		if it == item {
			return true
		}
	}
	return false
}

// IsCompatible follows TTCN-3 type compatibility: aliases and subtypes are
// compatible with their origin, structured types are compatible when their
// components are, in order.
func (t *Type) IsCompatible(other sema.Type) bool {
	o, ok := other.(*Type)
	if !ok || o == nil {
		return false
	}
	return compatible(t, o, make(map[[2]*Type]bool))
}

func compatible(a, b *Type, seen map[[2]*Type]bool) bool {
	a, b = a.root(), b.root()
	if a == b {
		return true
	}
	if a.kind == sema.TypeUCharstring && b.kind == sema.TypeCharstring {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	key := [2]*Type{a, b}
	if seen[key] {
		return true
	}
	seen[key] = true

	switch a.kind {
	case sema.TypeEnumerated, sema.TypeFunction:
		return false
	case sema.TypeRecord, sema.TypeSet, sema.TypeUnion, sema.TypeSignature:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			fa, fb := a.fields[i], b.fields[i]
			if fa.Optional != fb.Optional || !compatibleSema(fa.Type, fb.Type, seen) {
				return false
			}
		}
		return true
	case sema.TypeRecordOf, sema.TypeSetOf:
		return compatibleSema(a.elem, b.elem, seen)
	case sema.TypeArray:
		return a.dim.Size == b.dim.Size && compatibleSema(a.elem, b.elem, seen)
	}
	// Simple types of the same kind.
	return true
}

func compatibleSema(a, b sema.Type, seen map[[2]*Type]bool) bool {
	ta, ok1 := a.(*Type)
	tb, ok2 := b.(*Type)
	if !ok1 || !ok2 {
		return a != nil && a.IsCompatible(b)
	}
	return compatible(ta, tb, seen)
}

// kindWord is the noun used in field diagnostics.
func (t *Type) kindWord() string {
	return t.kind.String()
}

func (t *Type) subtypeString() string {
	lo, hi := "-infinity", "infinity"
	if t.lo != nil {
		lo = strconv.FormatInt(*t.lo, 10)
	}
	if t.hi != nil {
		hi = strconv.FormatInt(*t.hi, 10)
	}
	return "(" + lo + ".." + hi + ")"
}

func (t *Type) inRange(v int64) bool {
	return (t.lo == nil || v >= *t.lo) && (t.hi == nil || v <= *t.hi)
}

// CheckThisTemplateRef reclassifies single identifiers, except enumerated
// items of t, which always denote the item.
func (t *Type) CheckThisTemplateRef(c *sema.Checker, id ast.NodeID) ast.NodeID {
	if n := c.Arena().Get(id); n != nil && n.Kind == ast.KindSpecificValue && n.Value != nil &&
		n.Value.Kind == ast.ValueLowerid && t.kind == sema.TypeEnumerated && t.EnumHas(n.Value.Text) {
		return id
	}
	c.SetLoweridToReference(id)
	return id
}

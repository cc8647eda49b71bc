package sema

import (
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// TypeKind is the structural kind of a type after alias resolution.
type TypeKind int

const (
	TypeUndefined TypeKind = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeVerdict
	TypeBitstring
	TypeHexstring
	TypeOctetstring
	TypeCharstring
	TypeUCharstring
	TypeEnumerated
	TypeRecord
	TypeSet
	TypeUnion
	TypeRecordOf
	TypeSetOf
	TypeArray
	TypeSignature
	TypeFunction
)

var typeKindNames = [...]string{
	TypeUndefined:   "undefined",
	TypeInteger:     "integer",
	TypeFloat:       "float",
	TypeBoolean:     "boolean",
	TypeVerdict:     "verdicttype",
	TypeBitstring:   "bitstring",
	TypeHexstring:   "hexstring",
	TypeOctetstring: "octetstring",
	TypeCharstring:  "charstring",
	TypeUCharstring: "universal charstring",
	TypeEnumerated:  "enumerated",
	TypeRecord:      "record",
	TypeSet:         "set",
	TypeUnion:       "union",
	TypeRecordOf:    "record of",
	TypeSetOf:       "set of",
	TypeArray:       "array",
	TypeSignature:   "signature",
	TypeFunction:    "function",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// HasFields reports whether templates of the kind use field names.
func (k TypeKind) HasFields() bool {
	switch k {
	case TypeRecord, TypeSet, TypeUnion, TypeSignature:
		return true
	}
	return false
}

// IsList reports whether the kind is record of, set of or array.
func (k TypeKind) IsList() bool {
	return k == TypeRecordOf || k == TypeSetOf || k == TypeArray
}

// IsString reports whether the kind is one of the string types.
func (k TypeKind) IsString() bool {
	return k >= TypeBitstring && k <= TypeUCharstring
}

// Field is a component of a record, set, union or signature type.
type Field struct {
	Name     string
	Type     Type
	Optional bool
}

// Dimension is the index range of an array type: [Offset .. Offset+Size-1].
type Dimension struct {
	Offset int64
	Size   int64
}

// Param is a formal parameter of a template, function or function type.
type Param struct {
	Name        string
	Loc         diag.Location
	Template    bool
	Type        Type
	Restriction ast.Restriction
}

// Type is the type system seen by the checker. Implementations own the
// structural rules of each type kind; the checker drives them and supplies
// resolution, completeness and reporting through *Checker.
type Type interface {
	// Name is the display name used in diagnostics.
	Name() string
	Kind() TypeKind
	IsCompatible(other Type) bool

	FieldCount() int
	FieldByIndex(i int) Field
	FieldIndex(name string) (int, bool)
	// ElementType is the element type of record of, set of and array types.
	ElementType() Type
	Dimension() Dimension
	EnumHas(item string) bool

	// Function types.
	Params() []Param
	ReturnType() Type
	ReturnsTemplate() bool

	CheckThisValue(c *Checker, v *ast.Value) bool
	CheckThisTemplate(c *Checker, id ast.NodeID, opts Options)
	CheckThisTemplateRef(c *Checker, id ast.NodeID) ast.NodeID
	CheckThisTemplateSubtype(c *Checker, id ast.NodeID)
}

// FieldByName looks a field up by name.
func FieldByName(t Type, name string) (Field, bool) {
	i, ok := t.FieldIndex(name)
	if !ok {
		return Field{}, false
	}
	return t.FieldByIndex(i), true
}

package ast

import (
	"strconv"
	"strings"

	"github.com/agentic-research/tmplcheck/internal/diag"
)

// ValueKind discriminates concrete value expressions.
type ValueKind int

const (
	ValueInvalid ValueKind = iota
	ValueInteger
	ValueFloat
	ValueBoolean
	ValueVerdict
	ValueBitstring
	ValueHexstring
	ValueOctetstring
	ValueCharstring
	ValueUCharstring
	ValueOmit
	// ValueList is the brace list {v1, v2} of record of / set of / array values.
	ValueList
	// ValueNamed is the assignment notation {a := v1, b := v2}.
	ValueNamed
	// ValueReferenced is an explicit reference, possibly with sub-references.
	ValueReferenced
	// ValueLowerid is a single lowercase identifier the parser could not
	// classify: an enumerated item, a constant or a template.
	ValueLowerid
	// ValueApply is a function reference application: f.apply(args).
	ValueApply
)

var valueKindNames = [...]string{
	ValueInvalid:     "invalid value",
	ValueInteger:     "integer value",
	ValueFloat:       "float value",
	ValueBoolean:     "boolean value",
	ValueVerdict:     "verdict value",
	ValueBitstring:   "bitstring value",
	ValueHexstring:   "hexstring value",
	ValueOctetstring: "octetstring value",
	ValueCharstring:  "charstring value",
	ValueUCharstring: "universal charstring value",
	ValueOmit:        "omit value",
	ValueList:        "value list notation",
	ValueNamed:       "assignment notation",
	ValueReferenced:  "referenced value",
	ValueLowerid:     "identifier",
	ValueApply:       "function application",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "unknown value"
}

// Value is a concrete value expression. Values are immutable once built.
type Value struct {
	Kind   ValueKind
	Loc    diag.Location
	Int    int64
	Float  float64
	Bool   bool
	Text   string // string literal body, verdict name or identifier
	Elems  []*Value
	Fields []NamedValue
	Ref    *Reference
	Args   []NodeID // actual parameters of ValueApply
}

// NamedValue is one field of a ValueNamed value.
type NamedValue struct {
	Name  string
	Loc   diag.Location
	Value *Value
}

// Int returns an integer literal.
func Int(v int64) *Value { return &Value{Kind: ValueInteger, Int: v} }

// Float returns a float literal.
func Float(v float64) *Value { return &Value{Kind: ValueFloat, Float: v} }

// Bool returns a boolean literal.
func Bool(v bool) *Value { return &Value{Kind: ValueBoolean, Bool: v} }

// Str returns a charstring literal.
func Str(s string) *Value { return &Value{Kind: ValueCharstring, Text: s} }

// Bits returns a bitstring literal; s holds the 0/1 digits.
func Bits(s string) *Value { return &Value{Kind: ValueBitstring, Text: s} }

// Hex returns a hexstring literal.
func Hex(s string) *Value { return &Value{Kind: ValueHexstring, Text: s} }

// Octets returns an octetstring literal; s holds an even number of hex digits.
func Octets(s string) *Value { return &Value{Kind: ValueOctetstring, Text: s} }

// Lowerid returns an unclassified identifier.
func Lowerid(name string) *Value { return &Value{Kind: ValueLowerid, Text: name} }

// RefValue returns a referenced value.
func RefValue(ref *Reference) *Value { return &Value{Kind: ValueReferenced, Ref: ref} }

// ListValue returns a brace list value.
func ListValue(elems ...*Value) *Value { return &Value{Kind: ValueList, Elems: elems} }

// At sets the location of v and returns it.
func (v *Value) At(loc diag.Location) *Value {
	v.Loc = loc
	return v
}

// StringLength returns the number of elements in a string literal value:
// bits, hex digits, octets or characters.
func (v *Value) StringLength() (int, bool) {
	switch v.Kind {
	case ValueBitstring, ValueHexstring:
		return len(v.Text), true
	case ValueOctetstring:
		return len(v.Text) / 2, true
	case ValueCharstring, ValueUCharstring:
		return len([]rune(v.Text)), true
	default:
		return 0, false
	}
}

// IsReference reports whether v has to be looked up before it can be used.
func (v *Value) IsReference() bool {
	return v.Kind == ValueReferenced || v.Kind == ValueLowerid
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case ValueInteger:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBoolean:
		return strconv.FormatBool(v.Bool)
	case ValueVerdict, ValueLowerid:
		return v.Text
	case ValueBitstring:
		return "'" + v.Text + "'B"
	case ValueHexstring:
		return "'" + v.Text + "'H"
	case ValueOctetstring:
		return "'" + v.Text + "'O"
	case ValueCharstring, ValueUCharstring:
		return strconv.Quote(v.Text)
	case ValueOmit:
		return "omit"
	case ValueList:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case ValueNamed:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.Name + " := " + f.Value.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case ValueReferenced:
		return v.Ref.String()
	case ValueApply:
		return v.Ref.String() + ".apply(...)"
	default:
		return "<erroneous value>"
	}
}

package api

// Module is the JSON description of one TTCN-3 module: the types its
// definitions use and the definitions themselves with their template bodies.
type Module struct {
	// Version of the module description format.
	Version string `json:"version"`
	// Name of the module.
	Name string `json:"name"`
	// File is the source file reported in diagnostic locations. Defaults to
	// the path the description was loaded from.
	File string `json:"file,omitempty"`
	// Types are declared in dependency order: a type may only refer to
	// built-in types and types declared before it.
	Types       []TypeDecl   `json:"types,omitempty"`
	Definitions []Definition `json:"definitions"`
}

// TypeDecl declares a named type.
type TypeDecl struct {
	Name string `json:"name"`
	// Kind is one of record, set, union, signature, record_of, set_of,
	// array, enumerated, alias, integer_range, function.
	Kind   string      `json:"kind"`
	Fields []FieldDecl `json:"fields,omitempty"`
	// Elem is the element type of record_of, set_of and array.
	Elem string `json:"elem,omitempty"`
	// Offset and Size give the index range of an array: [Offset .. Offset+Size-1].
	Offset int64 `json:"offset,omitempty"`
	Size   int64 `json:"size,omitempty"`
	// Items are the enumerated values.
	Items []string `json:"items,omitempty"`
	// Target is the aliased type.
	Target string `json:"target,omitempty"`
	// Lower and Upper bound an integer_range; nil means infinity.
	Lower *int64 `json:"lower,omitempty"`
	Upper *int64 `json:"upper,omitempty"`
	// Params, Returns and ReturnsTemplate describe a function type.
	Params          []Param `json:"params,omitempty"`
	Returns         string  `json:"returns,omitempty"`
	ReturnsTemplate bool    `json:"returns_template,omitempty"`
}

// FieldDecl is one field of a record, set, union or signature.
type FieldDecl struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// Definition is a module-level definition.
type Definition struct {
	Name string `json:"name"`
	// Kind is one of template, var_template, modulepar_template, const,
	// var, modulepar, function.
	Kind   string  `json:"kind"`
	Type   string  `json:"type"`
	Line   int     `json:"line,omitempty"`
	Column int     `json:"column,omitempty"`
	Params []Param `json:"params,omitempty"`
	// Modifies is the base template of a modified template.
	Modifies *Reference `json:"modifies,omitempty"`
	// Restriction is value, omit or present.
	Restriction     string    `json:"restriction,omitempty"`
	ImplicitOmit    bool      `json:"implicit_omit,omitempty"`
	ReturnsTemplate bool      `json:"returns_template,omitempty"`
	Template        *Template `json:"template,omitempty"`
	Value           *Value    `json:"value,omitempty"`
}

// Param is a formal parameter.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Template    bool   `json:"template,omitempty"`
	Restriction string `json:"restriction,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// Template is one template node. Which fields apply depends on Kind:
//
//	specific                         Value
//	ref                              Ref
//	invoke                           Ref (the function reference), Args
//	omit, any, any_or_omit, not_used -
//	list, value_list, complement,
//	superset, subset, permutation    Elems
//	named                            Fields
//	indexed                          Indexed
//	range                            Min, Max
//	bitstring_pattern, hexstring_pattern,
//	octetstring_pattern, pattern,
//	universal_pattern                Pattern
type Template struct {
	Kind    string            `json:"kind"`
	Line    int               `json:"line,omitempty"`
	Column  int               `json:"column,omitempty"`
	Value   *Value            `json:"value,omitempty"`
	Ref     *Reference        `json:"ref,omitempty"`
	Args    []Template        `json:"args,omitempty"`
	Elems   []Template        `json:"elems,omitempty"`
	Fields  []NamedTemplate   `json:"fields,omitempty"`
	Indexed []IndexedTemplate `json:"indexed,omitempty"`
	Min     *Value            `json:"min,omitempty"`
	Max     *Value            `json:"max,omitempty"`
	Pattern string            `json:"pattern,omitempty"`
	Length  *Length           `json:"length,omitempty"`
	// IfPresent is the `ifpresent' attribute.
	IfPresent bool `json:"ifpresent,omitempty"`
	// AllFrom marks a list element written as `all from t'.
	AllFrom bool `json:"all_from,omitempty"`
}

// NamedTemplate is a `name := template' assignment.
type NamedTemplate struct {
	Name     string   `json:"name"`
	Template Template `json:"template"`
}

// IndexedTemplate is a `[index] := template' assignment.
type IndexedTemplate struct {
	Index    Value    `json:"index"`
	Template Template `json:"template"`
}

// Length is `length(lower)' or, with Range set, `length(lower .. upper)'.
// A nil Upper in a range means infinity.
type Length struct {
	Lower Value  `json:"lower"`
	Upper *Value `json:"upper,omitempty"`
	Range bool   `json:"range,omitempty"`
}

// Value is a concrete value expression. Kind is one of integer, float,
// boolean, verdict, bitstring, hexstring, octetstring, charstring,
// universal_charstring, omit, list, named, id, ref, apply.
type Value struct {
	Kind   string       `json:"kind"`
	Line   int          `json:"line,omitempty"`
	Column int          `json:"column,omitempty"`
	Int    int64        `json:"int,omitempty"`
	Float  float64      `json:"float,omitempty"`
	Bool   bool         `json:"bool,omitempty"`
	Text   string       `json:"text,omitempty"`
	Elems  []Value      `json:"elems,omitempty"`
	Fields []NamedValue `json:"fields,omitempty"`
	Ref    *Reference   `json:"ref,omitempty"`
	// Args are the actual parameters of an apply.
	Args []Template `json:"args,omitempty"`
}

// NamedValue is one field of a named value.
type NamedValue struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Reference names a definition with optional actual parameters and
// sub-references. Params is nil when no parameter list is written; an empty
// list stands for `t()'.
type Reference struct {
	Name    string     `json:"name"`
	Line    int        `json:"line,omitempty"`
	Column  int        `json:"column,omitempty"`
	Params  []Template `json:"params"`
	SubRefs []SubRef   `json:"subrefs,omitempty"`
}

// SubRef is `.field' when Field is set, `[index]' otherwise.
type SubRef struct {
	Field string `json:"field,omitempty"`
	Index *Value `json:"index,omitempty"`
}

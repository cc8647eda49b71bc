package ast

import "github.com/agentic-research/tmplcheck/internal/diag"

// NodeID indexes a template node in an Arena. The zero value is NoNode.
type NodeID uint32

// NoNode is the absent node.
const NoNode NodeID = 0

// Kind discriminates template variants.
type Kind int

const (
	KindInvalid Kind = iota
	KindSpecificValue
	KindReferenced
	KindInvoke
	KindOmitValue
	KindAnyValue
	KindAnyOrOmit
	KindNotUsed
	KindValueList
	KindComplementedList
	KindSupersetMatch
	KindSubsetMatch
	KindPermutationMatch
	// KindTemplateList is the brace list {t1, t2} used for record of, set of,
	// arrays and the value list notation of records.
	KindTemplateList
	KindNamedTemplateList
	KindIndexedTemplateList
	KindValueRange
	KindBitStringPattern
	KindHexStringPattern
	KindOctetStringPattern
	KindCharStringPattern
	KindUnivCharStringPattern
)

var templateTypeNames = [...]string{
	KindInvalid:               "erroneous template",
	KindSpecificValue:         "specific value",
	KindReferenced:            "reference to another template",
	KindInvoke:                "invoke",
	KindOmitValue:             "omit value",
	KindAnyValue:              "any value",
	KindAnyOrOmit:             "any or omit",
	KindNotUsed:               "not used symbol",
	KindValueList:             "value list match",
	KindComplementedList:      "complemented list match",
	KindSupersetMatch:         "superset match",
	KindSubsetMatch:           "subset match",
	KindPermutationMatch:      "permutation match",
	KindTemplateList:          "value list notation",
	KindNamedTemplateList:     "assignment notation",
	KindIndexedTemplateList:   "assignment notation with array indices",
	KindValueRange:            "value range match",
	KindBitStringPattern:      "bitstring pattern",
	KindHexStringPattern:      "hexstring pattern",
	KindOctetStringPattern:    "octetstring pattern",
	KindCharStringPattern:     "character string pattern",
	KindUnivCharStringPattern: "universal character string pattern",
}

// TemplateTypeName is the human readable name used in diagnostics.
func (k Kind) TemplateTypeName() string {
	if int(k) < len(templateTypeNames) {
		return templateTypeNames[k]
	}
	return "unknown template"
}

func (k Kind) String() string { return k.TemplateTypeName() }

// IsList reports whether the variant owns an ordered list of entries.
func (k Kind) IsList() bool {
	switch k {
	case KindValueList, KindComplementedList, KindSupersetMatch, KindSubsetMatch,
		KindPermutationMatch, KindTemplateList:
		return true
	}
	return false
}

// IsPattern reports whether the variant is a string pattern.
func (k Kind) IsPattern() bool {
	return k >= KindBitStringPattern && k <= KindUnivCharStringPattern
}

// Entry is one element of a list variant. A Spread entry is the
// `all from t` form: the elements of t are spliced in place of the entry.
type Entry struct {
	Node   NodeID
	Spread bool
}

// NamedEntry is one `name := template` field assignment.
type NamedEntry struct {
	Name string
	Loc  diag.Location
	Node NodeID
}

// IndexedEntry is one `[index] := template` assignment.
type IndexedEntry struct {
	Index *Value
	Loc   diag.Location
	Node  NodeID
}

// Node is a template. Which payload fields are meaningful depends on Kind:
//
//	SpecificValue          Value
//	Referenced             Ref
//	Invoke                 Value (the function reference), Args
//	list kinds             Elems
//	NamedTemplateList      Named
//	IndexedTemplateList    Indexed
//	ValueRange             Min, Max (nil: infinite)
//	pattern kinds          Pattern
type Node struct {
	Kind      Kind
	Loc       diag.Location
	Length    *LengthRestriction
	IfPresent bool

	Value   *Value
	Ref     *Reference
	Args    []NodeID
	Elems   []Entry
	Named   []NamedEntry
	Indexed []IndexedEntry
	Min     *Value
	Max     *Value
	Pattern string
}

// FieldByName returns the named entry for name, if the node is a named list.
func (n *Node) FieldByName(name string) (NamedEntry, bool) {
	for _, e := range n.Named {
		if e.Name == name {
			return e, true
		}
	}
	return NamedEntry{}, false
}

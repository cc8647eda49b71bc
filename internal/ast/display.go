package ast

import "strings"

// String renders the template rooted at id in TTCN-3 notation.
func (a *Arena) String(id NodeID) string {
	var sb strings.Builder
	a.write(&sb, id)
	return sb.String()
}

func (a *Arena) write(sb *strings.Builder, id NodeID) {
	n := a.Get(id)
	if n == nil {
		sb.WriteString("<erroneous template>")
		return
	}
	switch n.Kind {
	case KindSpecificValue:
		sb.WriteString(n.Value.String())
	case KindReferenced:
		sb.WriteString(n.Ref.String())
	case KindInvoke:
		sb.WriteString(n.Value.String())
		sb.WriteString(".invoke(")
		a.writeIDs(sb, n.Args)
		sb.WriteString(")")
	case KindOmitValue:
		sb.WriteString("omit")
	case KindAnyValue:
		sb.WriteString("?")
	case KindAnyOrOmit:
		sb.WriteString("*")
	case KindNotUsed:
		sb.WriteString("-")
	case KindValueList:
		a.writeEntries(sb, "(", n.Elems, ")")
	case KindComplementedList:
		a.writeEntries(sb, "complement(", n.Elems, ")")
	case KindSupersetMatch:
		a.writeEntries(sb, "superset(", n.Elems, ")")
	case KindSubsetMatch:
		a.writeEntries(sb, "subset(", n.Elems, ")")
	case KindPermutationMatch:
		a.writeEntries(sb, "permutation(", n.Elems, ")")
	case KindTemplateList:
		if len(n.Elems) == 0 {
			sb.WriteString("{ }")
		} else {
			a.writeEntries(sb, "{ ", n.Elems, " }")
		}
	case KindNamedTemplateList:
		if len(n.Named) == 0 {
			sb.WriteString("{ }")
			break
		}
		sb.WriteString("{ ")
		for i, f := range n.Named {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(" := ")
			a.write(sb, f.Node)
		}
		sb.WriteString(" }")
	case KindIndexedTemplateList:
		if len(n.Indexed) == 0 {
			sb.WriteString("{ }")
			break
		}
		sb.WriteString("{ ")
		for i, e := range n.Indexed {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("[")
			sb.WriteString(e.Index.String())
			sb.WriteString("] := ")
			a.write(sb, e.Node)
		}
		sb.WriteString(" }")
	case KindValueRange:
		sb.WriteString("(")
		if n.Min == nil {
			sb.WriteString("-infinity")
		} else {
			sb.WriteString(n.Min.String())
		}
		sb.WriteString(" .. ")
		if n.Max == nil {
			sb.WriteString("infinity")
		} else {
			sb.WriteString(n.Max.String())
		}
		sb.WriteString(")")
	case KindBitStringPattern:
		sb.WriteString("'" + n.Pattern + "'B")
	case KindHexStringPattern:
		sb.WriteString("'" + n.Pattern + "'H")
	case KindOctetStringPattern:
		sb.WriteString("'" + n.Pattern + "'O")
	case KindCharStringPattern, KindUnivCharStringPattern:
		sb.WriteString("pattern \"" + n.Pattern + "\"")
	default:
		sb.WriteString("<erroneous template>")
	}
	if n.Length != nil {
		sb.WriteString(" ")
		sb.WriteString(n.Length.String())
	}
	if n.IfPresent {
		sb.WriteString(" ifpresent")
	}
}

func (a *Arena) writeEntries(sb *strings.Builder, open string, elems []Entry, closer string) {
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		if e.Spread {
			sb.WriteString("all from ")
		}
		a.write(sb, e.Node)
	}
	sb.WriteString(closer)
}

func (a *Arena) writeIDs(sb *strings.Builder, ids []NodeID) {
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.write(sb, id)
	}
}

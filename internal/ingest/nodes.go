package ingest

import (
	"fmt"
	"strings"

	"github.com/agentic-research/tmplcheck/api"
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

var listKinds = map[string]ast.Kind{
	"list":        ast.KindTemplateList,
	"value_list":  ast.KindValueList,
	"complement":  ast.KindComplementedList,
	"superset":    ast.KindSupersetMatch,
	"subset":      ast.KindSubsetMatch,
	"permutation": ast.KindPermutationMatch,
}

var patternKinds = map[string]ast.Kind{
	"bitstring_pattern":   ast.KindBitStringPattern,
	"hexstring_pattern":   ast.KindHexStringPattern,
	"octetstring_pattern": ast.KindOctetStringPattern,
	"pattern":             ast.KindCharStringPattern,
	"universal_pattern":   ast.KindUnivCharStringPattern,
}

func (b *builder) template(t *api.Template, at string) (ast.NodeID, error) {
	id, err := b.templateBody(t, at)
	if err != nil {
		return ast.NoNode, err
	}
	if loc := b.loc(t.Line, t.Column); loc != (diag.Location{}) {
		b.arena.At(id, loc)
	}
	if t.Length != nil {
		lr, err := b.length(t.Length, at+".length")
		if err != nil {
			return ast.NoNode, err
		}
		lr.Loc = b.arena.Get(id).Loc
		b.arena.WithLength(id, lr)
	}
	if t.IfPresent {
		b.arena.WithIfPresent(id)
	}
	return id, nil
}

func (b *builder) templateBody(t *api.Template, at string) (ast.NodeID, error) {
	if kind, ok := listKinds[t.Kind]; ok {
		entries := make([]ast.Entry, len(t.Elems))
		for i := range t.Elems {
			e := &t.Elems[i]
			id, err := b.template(e, fmt.Sprintf("%s.elems[%d]", at, i))
			if err != nil {
				return ast.NoNode, err
			}
			entries[i] = ast.Entry{Node: id, Spread: e.AllFrom}
		}
		return b.arena.ListEntries(kind, entries...), nil
	}
	if kind, ok := patternKinds[t.Kind]; ok {
		return b.arena.Pattern(kind, t.Pattern), nil
	}

	switch t.Kind {
	case "specific":
		if t.Value == nil {
			return ast.NoNode, b.errorf(at, "specific value template without a value")
		}
		v, err := b.value(t.Value, at+".value")
		if err != nil {
			return ast.NoNode, err
		}
		return b.arena.Specific(v), nil
	case "ref":
		if t.Ref == nil {
			return ast.NoNode, b.errorf(at, "reference template without a reference")
		}
		ref, err := b.ref(t.Ref, at+".ref")
		if err != nil {
			return ast.NoNode, err
		}
		return b.arena.Referenced(ref), nil
	case "invoke":
		if t.Ref == nil {
			return ast.NoNode, b.errorf(at, "invoke without a function reference")
		}
		ref, err := b.ref(t.Ref, at+".ref")
		if err != nil {
			return ast.NoNode, err
		}
		args, err := b.templates(t.Args, at+".args")
		if err != nil {
			return ast.NoNode, err
		}
		fn := ast.RefValue(ref).At(ref.Loc)
		return b.arena.Invoke(fn, args...), nil
	case "omit":
		return b.arena.Omit(), nil
	case "any":
		return b.arena.Any(), nil
	case "any_or_omit":
		return b.arena.AnyOrOmit(), nil
	case "not_used":
		return b.arena.NotUsed(), nil
	case "named":
		fields := make([]ast.NamedEntry, len(t.Fields))
		for i := range t.Fields {
			f := &t.Fields[i]
			id, err := b.template(&f.Template, fmt.Sprintf("%s.fields[%d]", at, i))
			if err != nil {
				return ast.NoNode, err
			}
			fields[i] = ast.NamedEntry{Name: f.Name, Loc: b.loc(f.Template.Line, f.Template.Column), Node: id}
		}
		return b.arena.Named(fields...), nil
	case "indexed":
		entries := make([]ast.IndexedEntry, len(t.Indexed))
		for i := range t.Indexed {
			e := &t.Indexed[i]
			eat := fmt.Sprintf("%s.indexed[%d]", at, i)
			index, err := b.value(&e.Index, eat+".index")
			if err != nil {
				return ast.NoNode, err
			}
			id, err := b.template(&e.Template, eat)
			if err != nil {
				return ast.NoNode, err
			}
			entries[i] = ast.IndexedEntry{Index: index, Loc: index.Loc, Node: id}
		}
		return b.arena.Indexed(entries...), nil
	case "range":
		var lo, hi *ast.Value
		var err error
		if t.Min != nil {
			if lo, err = b.value(t.Min, at+".min"); err != nil {
				return ast.NoNode, err
			}
		}
		if t.Max != nil {
			if hi, err = b.value(t.Max, at+".max"); err != nil {
				return ast.NoNode, err
			}
		}
		return b.arena.Range(lo, hi), nil
	}
	return ast.NoNode, b.errorf(at+".kind", "unknown template kind %q", t.Kind)
}

func (b *builder) templates(ts []api.Template, at string) ([]ast.NodeID, error) {
	out := make([]ast.NodeID, len(ts))
	for i := range ts {
		id, err := b.template(&ts[i], fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (b *builder) length(l *api.Length, at string) (*ast.LengthRestriction, error) {
	lo, err := b.value(&l.Lower, at+".lower")
	if err != nil {
		return nil, err
	}
	if !l.Range {
		if l.Upper != nil {
			return nil, b.errorf(at, "upper bound given without range")
		}
		return ast.SingleLength(lo), nil
	}
	var hi *ast.Value
	if l.Upper != nil {
		if hi, err = b.value(l.Upper, at+".upper"); err != nil {
			return nil, err
		}
	}
	return ast.RangeLength(lo, hi), nil
}

func (b *builder) ref(r *api.Reference, at string) (*ast.Reference, error) {
	if r.Name == "" {
		return nil, b.errorf(at, "reference without a name")
	}
	ref := ast.Ref(r.Name).At(b.loc(r.Line, r.Column))
	if r.Params != nil {
		params, err := b.templates(r.Params, at+".params")
		if err != nil {
			return nil, err
		}
		ref.WithParams(params...)
	}
	for i, s := range r.SubRefs {
		sat := fmt.Sprintf("%s.subrefs[%d]", at, i)
		switch {
		case s.Field != "" && s.Index != nil:
			return nil, b.errorf(sat, "sub-reference has both a field and an index")
		case s.Field != "":
			ref.SubRefs = append(ref.SubRefs, ast.Field(s.Field))
		case s.Index != nil:
			v, err := b.value(s.Index, sat+".index")
			if err != nil {
				return nil, err
			}
			sub := ast.Index(v)
			sub.Loc = v.Loc
			ref.SubRefs = append(ref.SubRefs, sub)
		default:
			return nil, b.errorf(sat, "empty sub-reference")
		}
	}
	return ref, nil
}

func (b *builder) value(v *api.Value, at string) (*ast.Value, error) {
	out, err := b.valueBody(v, at)
	if err != nil {
		return nil, err
	}
	return out.At(b.loc(v.Line, v.Column)), nil
}

func (b *builder) valueBody(v *api.Value, at string) (*ast.Value, error) {
	switch v.Kind {
	case "integer":
		return ast.Int(v.Int), nil
	case "float":
		return ast.Float(v.Float), nil
	case "boolean":
		return ast.Bool(v.Bool), nil
	case "verdict":
		switch v.Text {
		case "none", "pass", "inconc", "fail", "error":
			return &ast.Value{Kind: ast.ValueVerdict, Text: v.Text}, nil
		}
		return nil, b.errorf(at, "unknown verdict %q", v.Text)
	case "bitstring":
		if i := strings.IndexFunc(v.Text, func(r rune) bool { return r != '0' && r != '1' }); i >= 0 {
			return nil, b.errorf(at, "invalid bitstring digit %q", v.Text[i])
		}
		return ast.Bits(v.Text), nil
	case "hexstring", "octetstring":
		if i := strings.IndexFunc(v.Text, func(r rune) bool { return !isHex(r) }); i >= 0 {
			return nil, b.errorf(at, "invalid %s digit %q", v.Kind, v.Text[i])
		}
		if v.Kind == "hexstring" {
			return ast.Hex(v.Text), nil
		}
		if len(v.Text)%2 != 0 {
			return nil, b.errorf(at, "octetstring with an odd number of hexadecimal digits")
		}
		return ast.Octets(v.Text), nil
	case "charstring":
		return ast.Str(v.Text), nil
	case "universal_charstring":
		return &ast.Value{Kind: ast.ValueUCharstring, Text: v.Text}, nil
	case "omit":
		return &ast.Value{Kind: ast.ValueOmit}, nil
	case "list":
		elems := make([]*ast.Value, len(v.Elems))
		for i := range v.Elems {
			e, err := b.value(&v.Elems[i], fmt.Sprintf("%s.elems[%d]", at, i))
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return ast.ListValue(elems...), nil
	case "named":
		fields := make([]ast.NamedValue, len(v.Fields))
		for i := range v.Fields {
			f := &v.Fields[i]
			fv, err := b.value(&f.Value, fmt.Sprintf("%s.fields[%d]", at, i))
			if err != nil {
				return nil, err
			}
			fields[i] = ast.NamedValue{Name: f.Name, Loc: fv.Loc, Value: fv}
		}
		return &ast.Value{Kind: ast.ValueNamed, Fields: fields}, nil
	case "id":
		if v.Text == "" {
			return nil, b.errorf(at, "identifier without a name")
		}
		return ast.Lowerid(v.Text), nil
	case "ref", "apply":
		if v.Ref == nil {
			return nil, b.errorf(at, "%s value without a reference", v.Kind)
		}
		ref, err := b.ref(v.Ref, at+".ref")
		if err != nil {
			return nil, err
		}
		if v.Kind == "ref" {
			return ast.RefValue(ref), nil
		}
		args, err := b.templates(v.Args, at+".args")
		if err != nil {
			return nil, err
		}
		return &ast.Value{Kind: ast.ValueApply, Ref: ref, Args: args}, nil
	}
	return nil, b.errorf(at+".kind", "unknown value kind %q", v.Kind)
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

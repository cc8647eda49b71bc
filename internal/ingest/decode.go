package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/tmplcheck/api"
	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
	"github.com/agentic-research/tmplcheck/internal/types"
)

// Options adjust how module descriptions are turned into definitions.
type Options struct {
	// ImplicitOmit sets `optional "implicit omit"' on every definition.
	ImplicitOmit bool
}

// Unit is one decoded module description.
type Unit struct {
	Path   string
	Module *sema.Module
	// Doc is the generic JSON tree, kept for selectors.
	Doc any
}

// Select returns the definitions picked by a JSONPath selector, in
// declaration order. An empty selector selects every definition.
func (u *Unit) Select(selector string) ([]*sema.Definition, error) {
	all := u.Module.Definitions()
	if selector == "" {
		return all, nil
	}
	names, err := SelectNames(u.Doc, selector)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if u.Module.DefByName(n) == nil {
			return nil, &DecodeError{Path: u.Path, Message: fmt.Sprintf("selector picked unknown definition `%s'", n)}
		}
		want[n] = true
	}
	out := make([]*sema.Definition, 0, len(names))
	for _, d := range all {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}

// Decode parses a module description. path names the description in errors
// and, unless the description sets File, in diagnostic locations.
func Decode(path string, data []byte, opts Options) (*Unit, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Message: "invalid JSON: " + err.Error(), Err: err}
	}

	var desc api.Module
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		return nil, &DecodeError{Path: path, Message: "invalid module description: " + err.Error(), Err: err}
	}
	if desc.Version != "" && desc.Version != "v1" {
		return nil, &DecodeError{Path: path, Pointer: "version", Message: fmt.Sprintf("%s %q", ErrUnsupportedVersion, desc.Version), Err: ErrUnsupportedVersion}
	}

	file := desc.File
	if file == "" {
		file = path
	}
	b := &builder{
		path:  path,
		file:  file,
		arena: ast.NewArena(),
		types: make(map[string]*types.Type),
		opts:  opts,
	}
	b.mod = sema.NewModule(desc.Name, b.arena)
	if err := b.module(&desc); err != nil {
		return nil, err
	}
	log.Printf("ingest: %s: module %s with %d types and %d definitions", path, desc.Name, len(desc.Types), len(desc.Definitions))
	return &Unit{Path: path, Module: b.mod, Doc: doc}, nil
}

type builder struct {
	path  string
	file  string
	arena *ast.Arena
	mod   *sema.Module
	types map[string]*types.Type
	opts  Options
}

func (b *builder) errorf(at, format string, args ...any) error {
	return &DecodeError{Path: b.path, Pointer: at, Message: fmt.Sprintf(format, args...)}
}

func (b *builder) loc(line, column int) diag.Location {
	if line == 0 {
		return diag.Location{}
	}
	return diag.Location{File: b.file, Line: line, Column: column}
}

func (b *builder) module(desc *api.Module) error {
	for i := range desc.Types {
		if err := b.declType(&desc.Types[i], fmt.Sprintf("types[%d]", i)); err != nil {
			return err
		}
	}
	for i := range desc.Definitions {
		if err := b.definition(&desc.Definitions[i], fmt.Sprintf("definitions[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// typ resolves a type name: declared types shadow built-in ones.
func (b *builder) typ(name, at string) (*types.Type, error) {
	if t, ok := b.types[name]; ok {
		return t, nil
	}
	if t, ok := types.Builtin(name); ok {
		return t, nil
	}
	if name == "" {
		return nil, b.errorf(at, "missing type")
	}
	return nil, b.errorf(at, "unknown type `%s'", name)
}

func (b *builder) declType(d *api.TypeDecl, at string) error {
	if d.Name == "" {
		return b.errorf(at, "type without a name")
	}
	if _, dup := b.types[d.Name]; dup {
		return b.errorf(at, "duplicate type `%s'", d.Name)
	}
	t, err := b.buildType(d, at)
	if err != nil {
		return err
	}
	b.types[d.Name] = t
	return nil
}

func (b *builder) buildType(d *api.TypeDecl, at string) (*types.Type, error) {
	switch d.Kind {
	case "record", "set", "union", "signature":
		fields := make([]sema.Field, len(d.Fields))
		seen := make(map[string]bool, len(d.Fields))
		for i, f := range d.Fields {
			fat := fmt.Sprintf("%s.fields[%d]", at, i)
			if seen[f.Name] {
				return nil, b.errorf(fat, "duplicate field `%s'", f.Name)
			}
			seen[f.Name] = true
			ft, err := b.typ(f.Type, fat+".type")
			if err != nil {
				return nil, err
			}
			fields[i] = sema.Field{Name: f.Name, Type: ft, Optional: f.Optional}
		}
		switch d.Kind {
		case "record":
			return types.Record(d.Name, fields...), nil
		case "set":
			return types.Set(d.Name, fields...), nil
		case "union":
			if len(fields) == 0 {
				return nil, b.errorf(at, "union type `%s' has no fields", d.Name)
			}
			return types.Union(d.Name, fields...), nil
		default:
			return types.Signature(d.Name, fields...), nil
		}
	case "record_of", "set_of":
		elem, err := b.typ(d.Elem, at+".elem")
		if err != nil {
			return nil, err
		}
		if d.Kind == "set_of" {
			return types.SetOf(d.Name, elem), nil
		}
		return types.RecordOf(d.Name, elem), nil
	case "array":
		elem, err := b.typ(d.Elem, at+".elem")
		if err != nil {
			return nil, err
		}
		if d.Size <= 0 {
			return nil, b.errorf(at+".size", "array size must be positive, got %d", d.Size)
		}
		return types.Alias(d.Name, types.Array(elem, d.Offset, d.Size)), nil
	case "enumerated":
		if len(d.Items) == 0 {
			return nil, b.errorf(at, "enumerated type `%s' has no items", d.Name)
		}
		return types.Enumerated(d.Name, d.Items...), nil
	case "alias":
		target, err := b.typ(d.Target, at+".target")
		if err != nil {
			return nil, err
		}
		return types.Alias(d.Name, target), nil
	case "integer_range":
		if d.Lower != nil && d.Upper != nil && *d.Upper < *d.Lower {
			return nil, b.errorf(at, "empty integer range %d..%d", *d.Lower, *d.Upper)
		}
		return types.IntegerRange(d.Name, d.Lower, d.Upper), nil
	case "function":
		params, err := b.params(d.Params, at+".params")
		if err != nil {
			return nil, err
		}
		var ret sema.Type
		if d.Returns != "" {
			rt, err := b.typ(d.Returns, at+".returns")
			if err != nil {
				return nil, err
			}
			ret = rt
		}
		return types.Function(d.Name, params, ret, d.ReturnsTemplate), nil
	}
	return nil, b.errorf(at+".kind", "unknown type kind %q", d.Kind)
}

var defKinds = map[string]sema.DefKind{
	"template":           sema.DefTemplate,
	"var_template":       sema.DefVarTemplate,
	"modulepar_template": sema.DefModuleParTemplate,
	"const":              sema.DefConst,
	"var":                sema.DefVar,
	"modulepar":          sema.DefModulePar,
	"function":           sema.DefFunction,
}

func (b *builder) definition(d *api.Definition, at string) error {
	kind, ok := defKinds[d.Kind]
	if !ok {
		return b.errorf(at+".kind", "unknown definition kind %q", d.Kind)
	}
	if d.Name == "" {
		return b.errorf(at, "definition without a name")
	}
	def := sema.Definition{
		Name:            d.Name,
		Kind:            kind,
		Loc:             b.loc(d.Line, d.Column),
		ImplicitOmit:    d.ImplicitOmit || b.opts.ImplicitOmit,
		ReturnsTemplate: d.ReturnsTemplate,
	}

	if kind != sema.DefFunction || d.Type != "" {
		t, err := b.typ(d.Type, at+".type")
		if err != nil {
			return err
		}
		def.Type = t
	}
	r, ok := ast.ParseRestriction(d.Restriction)
	if !ok {
		return b.errorf(at+".restriction", "unknown restriction %q", d.Restriction)
	}
	def.Restriction = r

	params, err := b.params(d.Params, at+".params")
	if err != nil {
		return err
	}
	def.Params = params

	if d.Modifies != nil {
		if def.Modifies, err = b.ref(d.Modifies, at+".modifies"); err != nil {
			return err
		}
	}
	if d.Template != nil {
		if def.Body, err = b.template(d.Template, at+".template"); err != nil {
			return err
		}
	}
	if d.Value != nil {
		if def.Value, err = b.value(d.Value, at+".value"); err != nil {
			return err
		}
	}

	switch {
	case (kind == sema.DefTemplate || kind == sema.DefVarTemplate) && def.Body == ast.NoNode:
		return b.errorf(at, "%s `%s' has no template", kind, d.Name)
	case kind == sema.DefConst && def.Value == nil:
		return b.errorf(at, "constant `%s' has no value", d.Name)
	}

	if _, err := b.mod.Add(def); err != nil {
		return &DecodeError{Path: b.path, Pointer: at, Message: err.Error(), Err: err}
	}
	return nil
}

func (b *builder) params(ps []api.Param, at string) ([]sema.Param, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	out := make([]sema.Param, len(ps))
	for i, p := range ps {
		pat := fmt.Sprintf("%s[%d]", at, i)
		t, err := b.typ(p.Type, pat+".type")
		if err != nil {
			return nil, err
		}
		r, ok := ast.ParseRestriction(p.Restriction)
		if !ok {
			return nil, b.errorf(pat+".restriction", "unknown restriction %q", p.Restriction)
		}
		out[i] = sema.Param{Name: p.Name, Loc: b.loc(p.Line, 0), Template: p.Template, Type: t, Restriction: r}
	}
	return out, nil
}

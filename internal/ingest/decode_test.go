package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/sema"
)

const sampleModule = `{
  "version": "v1",
  "name": "Sample",
  "file": "sample.ttcn",
  "types": [
    {"name": "R", "kind": "record", "fields": [
      {"name": "a", "type": "integer"},
      {"name": "b", "type": "charstring", "optional": true}
    ]},
    {"name": "RoI", "kind": "record_of", "elem": "integer"},
    {"name": "Arr", "kind": "array", "elem": "integer", "offset": 5, "size": 3},
    {"name": "Color", "kind": "enumerated", "items": ["red", "green"]},
    {"name": "Small", "kind": "integer_range", "lower": 0, "upper": 10}
  ],
  "definitions": [
    {"name": "base", "kind": "template", "type": "R", "line": 3,
     "template": {"kind": "named", "line": 3, "column": 18, "fields": [
       {"name": "a", "template": {"kind": "specific", "value": {"kind": "integer", "int": 1}}},
       {"name": "b", "template": {"kind": "any_or_omit"}}
     ]}},
    {"name": "derived", "kind": "template", "type": "R", "restriction": "omit",
     "modifies": {"name": "base"},
     "template": {"kind": "named", "fields": [
       {"name": "b", "template": {"kind": "omit"}}
     ]}},
    {"name": "list", "kind": "template", "type": "RoI",
     "template": {"kind": "list", "length": {"lower": {"kind": "integer", "int": 3}}, "elems": [
       {"kind": "specific", "value": {"kind": "integer", "int": 1}},
       {"kind": "ref", "ref": {"name": "other"}, "all_from": true},
       {"kind": "any", "ifpresent": true}
     ]}},
    {"name": "other", "kind": "template", "type": "RoI",
     "template": {"kind": "list", "elems": []}},
    {"name": "pick", "kind": "template", "type": "integer",
     "params": [{"name": "p", "type": "RoI", "template": true}],
     "template": {"kind": "ref", "ref": {"name": "p", "subrefs": [{"index": {"kind": "integer", "int": 0}}]}}},
    {"name": "c", "kind": "const", "type": "Color", "value": {"kind": "id", "text": "red"}}
  ]
}`

func TestDecode_Sample(t *testing.T) {
	u, err := Decode("sample.json", []byte(sampleModule), Options{})
	require.NoError(t, err)

	mod := u.Module
	assert.Equal(t, "Sample", mod.Name)
	assert.Len(t, mod.Definitions(), 6)

	base := mod.DefByName("base")
	require.NotNil(t, base)
	assert.Equal(t, sema.DefTemplate, base.Kind)
	assert.Equal(t, "R", base.Type.Name())
	assert.Equal(t, 3, base.Loc.Line)
	assert.Equal(t, "sample.ttcn", base.Loc.File)
	assert.False(t, base.ImplicitOmit)
	assert.Equal(t, "{ a := 1, b := * }", mod.Arena.String(base.Body))
	assert.Equal(t, 18, mod.Arena.Get(base.Body).Loc.Column)

	derived := mod.DefByName("derived")
	require.NotNil(t, derived.Modifies)
	assert.Equal(t, "base", derived.Modifies.Name)
	assert.Equal(t, ast.RestrictionOmit, derived.Restriction)

	list := mod.DefByName("list")
	assert.Equal(t, "{ 1, all from other, ? ifpresent } length (3)", mod.Arena.String(list.Body))
	n := mod.Arena.Get(list.Body)
	require.Len(t, n.Elems, 3)
	assert.True(t, n.Elems[1].Spread)

	pick := mod.DefByName("pick")
	require.Len(t, pick.Params, 1)
	assert.True(t, pick.Params[0].Template)
	p, ok := mod.Lookup(pick.ID, "p")
	require.True(t, ok)
	assert.Equal(t, sema.DefParTemplate, p.Kind)
	assert.Equal(t, "p[0]", mod.Arena.String(pick.Body))

	c := mod.DefByName("c")
	require.NotNil(t, c.Value)
	assert.Equal(t, ast.ValueLowerid, c.Value.Kind)
	assert.Equal(t, "Color", c.Type.Name())
}

func TestDecode_TypeDeclarations(t *testing.T) {
	src := `{"name": "T", "types": [
	  {"name": "Arr", "kind": "array", "elem": "integer", "offset": 5, "size": 3},
	  {"name": "S", "kind": "set_of", "elem": "charstring"},
	  {"name": "U", "kind": "union", "fields": [{"name": "i", "type": "integer"}]},
	  {"name": "Alias", "kind": "alias", "target": "U"},
	  {"name": "F", "kind": "function", "params": [{"name": "x", "type": "integer"}],
	   "returns": "integer", "returns_template": true}
	], "definitions": [
	  {"name": "a", "kind": "modulepar_template", "type": "Arr"},
	  {"name": "s", "kind": "modulepar_template", "type": "S"},
	  {"name": "u", "kind": "modulepar_template", "type": "Alias"},
	  {"name": "f", "kind": "var", "type": "F"}
	]}`
	u, err := Decode("t.json", []byte(src), Options{ImplicitOmit: true})
	require.NoError(t, err)
	mod := u.Module

	a := mod.DefByName("a").Type
	assert.Equal(t, "Arr", a.Name())
	assert.Equal(t, sema.TypeArray, a.Kind())
	assert.Equal(t, sema.Dimension{Offset: 5, Size: 3}, a.Dimension())

	s := mod.DefByName("s").Type
	assert.Equal(t, sema.TypeSetOf, s.Kind())
	assert.Equal(t, "charstring", s.ElementType().Name())

	alias := mod.DefByName("u")
	assert.Equal(t, "Alias", alias.Type.Name())
	assert.Equal(t, sema.TypeUnion, alias.Type.Kind())
	assert.Equal(t, 1, alias.Type.FieldCount())
	assert.True(t, alias.ImplicitOmit, "module-wide implicit omit")

	f := mod.DefByName("f").Type
	assert.Equal(t, sema.TypeFunction, f.Kind())
	assert.True(t, f.ReturnsTemplate())
	assert.Equal(t, "integer", f.ReturnType().Name())
	require.Len(t, f.Params(), 1)
	assert.Equal(t, "x", f.Params()[0].Name)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		pointer string
		message string
	}{
		{"unknown type", `{"name": "M", "definitions": [{"name": "t", "kind": "template", "type": "Nope",
			"template": {"kind": "any"}}]}`, "definitions[0].type", "unknown type `Nope'"},
		{"type used before declaration", `{"name": "M", "types": [
			{"name": "A", "kind": "record_of", "elem": "B"},
			{"name": "B", "kind": "record_of", "elem": "integer"}], "definitions": []}`,
			"types[0].elem", "unknown type `B'"},
		{"unknown template kind", `{"name": "M", "definitions": [{"name": "t", "kind": "template", "type": "integer",
			"template": {"kind": "wildcard"}}]}`, "definitions[0].template.kind", `unknown template kind "wildcard"`},
		{"bad bitstring", `{"name": "M", "definitions": [{"name": "c", "kind": "const", "type": "bitstring",
			"value": {"kind": "bitstring", "text": "1021"}}]}`, "definitions[0].value", `invalid bitstring digit '2'`},
		{"odd octetstring", `{"name": "M", "definitions": [{"name": "c", "kind": "const", "type": "octetstring",
			"value": {"kind": "octetstring", "text": "ABC"}}]}`, "definitions[0].value", "octetstring with an odd number of hexadecimal digits"},
		{"template without body", `{"name": "M", "definitions": [{"name": "t", "kind": "template", "type": "integer"}]}`,
			"definitions[0]", "template `t' has no template"},
		{"bad restriction", `{"name": "M", "definitions": [{"name": "t", "kind": "template", "type": "integer",
			"restriction": "strict", "template": {"kind": "any"}}]}`, "definitions[0].restriction", `unknown restriction "strict"`},
		{"two-sided subref", `{"name": "M", "definitions": [{"name": "t", "kind": "template", "type": "integer",
			"template": {"kind": "ref", "ref": {"name": "x", "subrefs": [{"field": "a", "index": {"kind": "integer"}}]}}}]}`,
			"definitions[0].template.ref.subrefs[0]", "sub-reference has both a field and an index"},
		{"empty array", `{"name": "M", "types": [{"name": "A", "kind": "array", "elem": "integer"}], "definitions": []}`,
			"types[0].size", "array size must be positive, got 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode("m.json", []byte(tc.src), Options{})
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "m.json", de.Path)
			assert.Equal(t, tc.pointer, de.Pointer)
			assert.Equal(t, tc.message, de.Message)
		})
	}
}

func TestDecode_WrappedErrors(t *testing.T) {
	_, err := Decode("m.json", []byte(`{"version": "v9", "name": "M", "definitions": []}`), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	dup := `{"name": "M", "definitions": [
		{"name": "t", "kind": "template", "type": "integer", "template": {"kind": "any"}},
		{"name": "t", "kind": "const", "type": "integer", "value": {"kind": "integer", "int": 1}}]}`
	_, err = Decode("m.json", []byte(dup), Options{})
	assert.ErrorIs(t, err, sema.ErrDuplicateDefinition)

	_, err = Decode("m.json", []byte(`{"name": "M", "definitions": [], "extra": 1}`), Options{})
	assert.ErrorContains(t, err, "invalid module description")

	_, err = Decode("m.json", []byte(`{"name": `), Options{})
	assert.ErrorContains(t, err, "m.json: invalid JSON")
}

func TestUnit_Select(t *testing.T) {
	u, err := Decode("sample.json", []byte(sampleModule), Options{})
	require.NoError(t, err)

	all, err := u.Select("")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	picked, err := u.Select("$.definitions[?(@.type == 'RoI')]")
	require.NoError(t, err)
	names := make([]string, len(picked))
	for i, d := range picked {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"list", "other"}, names)

	_, err = u.Select("$.name")
	assert.ErrorContains(t, err, "selector picked unknown definition `Sample'")
}

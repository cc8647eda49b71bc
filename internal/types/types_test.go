package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
	"github.com/agentic-research/tmplcheck/internal/types"
)

type fixture struct {
	a   *ast.Arena
	mod *sema.Module
	col *diag.Collector
}

func newFixture() *fixture {
	a := ast.NewArena()
	return &fixture{a: a, mod: sema.NewModule("M", a), col: diag.NewCollector(false, false)}
}

func (f *fixture) add(t *testing.T, d sema.Definition) *sema.Definition {
	t.Helper()
	id, err := f.mod.Add(d)
	require.NoError(t, err)
	return f.mod.Def(id)
}

func (f *fixture) template(t *testing.T, name string, typ sema.Type, body ast.NodeID) *sema.Definition {
	t.Helper()
	return f.add(t, sema.Definition{Name: name, Kind: sema.DefTemplate, Type: typ, Body: body})
}

func (f *fixture) check() *sema.Checker {
	c := sema.NewChecker(f.mod, nil, f.col, sema.Config{})
	c.CheckModule()
	return c
}

func (f *fixture) int(v int64) ast.NodeID { return f.a.Specific(ast.Int(v)) }

func recordR() *types.Type {
	return types.Record("R",
		types.Field("a", types.Integer()),
		types.Optional("b", types.Boolean()))
}

func TestRecord_MissingField(t *testing.T) {
	f := newFixture()
	f.template(t, "t", recordR(), f.a.Named(ast.Assign("a", f.int(1))))
	f.check()
	assert.Equal(t, []string{"Field `b' is missing from template for record type `R'"}, f.col.Messages())
}

func TestRecord_ImplicitOmitFillsOptionalFields(t *testing.T) {
	f := newFixture()
	f.add(t, sema.Definition{
		Name: "t", Kind: sema.DefTemplate, Type: recordR(), ImplicitOmit: true,
		Body: f.a.Named(ast.Assign("a", f.int(1))),
	})
	f.check()
	assert.Empty(t, f.col.Messages())
}

func TestRecord_FieldOrder(t *testing.T) {
	f := newFixture()
	f.template(t, "t", recordR(), f.a.Named(
		ast.Assign("b", f.a.Specific(ast.Bool(true))),
		ast.Assign("a", f.int(1))))
	f.check()
	assert.Equal(t, []string{"Field `a' cannot appear after field `b' in template for record type `R'"}, f.col.Messages())
}

func TestSet_AnyFieldOrder(t *testing.T) {
	f := newFixture()
	s := types.Set("S", types.Field("a", types.Integer()), types.Field("b", types.Boolean()))
	f.template(t, "t", s, f.a.Named(
		ast.Assign("b", f.a.Specific(ast.Bool(true))),
		ast.Assign("a", f.int(1))))
	f.template(t, "u", s, f.a.List(ast.KindTemplateList, f.int(1), f.a.Specific(ast.Bool(true))))
	f.check()
	assert.Equal(t, []string{"Value list notation cannot be used for set type `S'"}, f.col.Messages())
}

func TestRecord_NonExistentAndDuplicateField(t *testing.T) {
	f := newFixture()
	f.template(t, "t", recordR(), f.a.Named(
		ast.Assign("a", f.int(1)),
		ast.Assign("b", f.a.Omit()),
		ast.Assign("c", f.int(2)),
		ast.Assign("a", f.int(3))))
	f.check()
	assert.Equal(t, []string{
		"Duplicate field `a' in template",
		"Reference to non-existent field `c' in record template for type `R'",
	}, f.col.Messages())
}

func TestRecord_OmitForMandatoryField(t *testing.T) {
	f := newFixture()
	f.template(t, "t", recordR(), f.a.Named(ast.Assign("a", f.a.Omit()), ast.Assign("b", f.a.Omit())))
	f.check()
	assert.Equal(t, []string{"`omit' value is not allowed in this context"}, f.col.Messages())
}

func TestRecord_AnyOrOmitForMandatoryFieldWarns(t *testing.T) {
	f := newFixture()
	f.template(t, "t", recordR(), f.a.Named(ast.Assign("a", f.a.AnyOrOmit()), ast.Assign("b", f.a.AnyOrOmit())))
	f.check()
	assert.Equal(t, []string{"Using `*' for mandatory field"}, f.col.Messages())
	assert.Equal(t, 0, f.col.ErrorCount())
}

func TestRecord_ValueListNotationCounts(t *testing.T) {
	f := newFixture()
	f.template(t, "few", recordR(), f.a.List(ast.KindTemplateList, f.int(1)))
	f.template(t, "many", recordR(), f.a.List(ast.KindTemplateList, f.int(1), f.a.Omit(), f.int(3)))
	f.check()
	assert.Equal(t, []string{
		"Too few elements in value list notation for type `R': 2 was expected instead of 1",
		"Too many elements in value list notation for type `R': 2 was expected instead of 3",
	}, f.col.Messages())
}

func TestUnion_ExactlyOneField(t *testing.T) {
	f := newFixture()
	u := types.Union("U", types.Field("i", types.Integer()), types.Field("s", types.Charstring()))
	f.template(t, "two", u, f.a.Named(ast.Assign("i", f.int(1)), ast.Assign("s", f.a.Specific(ast.Str("x")))))
	f.template(t, "bad", u, f.a.Named(ast.Assign("x", f.int(1))))
	f.template(t, "ok", u, f.a.Named(ast.Assign("s", f.a.Any())))
	f.check()
	assert.Equal(t, []string{
		"A template for union type `U' must contain exactly one selected field",
		"Reference to non-existent field `x' in union template for type `U'",
	}, f.col.Messages())
}

func TestRecordOf_ElementType(t *testing.T) {
	f := newFixture()
	roi := types.RecordOf("RoI", types.Integer())
	f.template(t, "t", roi, f.a.List(ast.KindTemplateList, f.int(1), f.a.Specific(ast.Str("x"))))
	f.check()
	assert.Equal(t, []string{"Integer value was expected"}, f.col.Messages())
}

func TestRecordOf_NotUsedInModifiedTemplate(t *testing.T) {
	f := newFixture()
	roi := types.RecordOf("RoI", types.Integer())
	f.template(t, "base", roi, f.a.List(ast.KindTemplateList, f.int(1), f.int(2)))
	f.add(t, sema.Definition{
		Name: "t", Kind: sema.DefTemplate, Type: roi, Modifies: ast.Ref("base"),
		Body: f.a.List(ast.KindTemplateList, f.a.NotUsed(), f.a.NotUsed()),
	})
	f.check()
	assert.Equal(t, 0, f.col.ErrorCount())
	assert.Equal(t, []string{"All elements of value list notation are not used symbols (`-')"}, f.col.Messages())
}

func TestRecordOf_NotUsedBeyondBase(t *testing.T) {
	f := newFixture()
	roi := types.RecordOf("RoI", types.Integer())
	f.template(t, "base", roi, f.a.List(ast.KindTemplateList, f.int(1)))
	f.add(t, sema.Definition{
		Name: "t", Kind: sema.DefTemplate, Type: roi, Modifies: ast.Ref("base"),
		Body: f.a.List(ast.KindTemplateList, f.a.NotUsed(), f.a.NotUsed(), f.int(3)),
	})
	f.check()
	assert.Equal(t, []string{"Not used symbol (`-') is not allowed in this context"}, f.col.Messages())
}

func TestArray_ElementCount(t *testing.T) {
	f := newFixture()
	arr := types.Array(types.Integer(), 0, 3)
	f.template(t, "few", arr, f.a.List(ast.KindTemplateList, f.int(1), f.int(2)))
	f.template(t, "many", arr, f.a.List(ast.KindTemplateList, f.int(1), f.int(2), f.int(3), f.int(4)))
	f.template(t, "ok", arr, f.a.List(ast.KindTemplateList, f.int(1), f.a.Any(), f.int(3)))
	f.check()
	assert.Equal(t, []string{
		"Too few elements in the array template: 3 was expected instead of 2",
		"Too many elements in the array template: 3 was expected instead of 4",
	}, f.col.Messages())
	assert.Equal(t, "integer[3]", arr.Name())
	assert.Equal(t, "integer[5..7]", types.Array(types.Integer(), 5, 3).Name())
}

func TestIndexed_Indices(t *testing.T) {
	f := newFixture()
	roi := types.RecordOf("RoI", types.Integer())
	f.template(t, "dup", roi, f.a.Indexed(
		ast.AssignIndex(ast.Int(0), f.int(1)),
		ast.AssignIndex(ast.Int(0), f.int(2))))
	f.template(t, "neg", roi, f.a.Indexed(ast.AssignIndex(ast.Int(-1), f.int(1))))
	f.template(t, "under", types.Array(types.Integer(), 5, 3), f.a.Indexed(ast.AssignIndex(ast.Int(4), f.int(1))))
	f.check()
	assert.Equal(t, []string{
		"Duplicate index value `0' for components `1' and `2'",
		"A non-negative integer value was expected for indexing type `RoI' instead of `-1'",
		"Array index underflow: the index value must be at least `5' instead of `4'",
	}, f.col.Messages())
}

func TestSupersetAndPermutation_OnlyWhereOrdered(t *testing.T) {
	f := newFixture()
	roi := types.RecordOf("RoI", types.Integer())
	soi := types.SetOf("SoI", types.Integer())
	f.template(t, "sup", roi, f.a.List(ast.KindSupersetMatch, f.int(1)))
	f.template(t, "sub", soi, f.a.List(ast.KindSubsetMatch, f.int(1), f.a.AnyOrOmit()))
	f.template(t, "perm", soi, f.a.List(ast.KindTemplateList, f.a.List(ast.KindPermutationMatch, f.int(1), f.int(2))))
	f.template(t, "rperm", roi, f.a.List(ast.KindTemplateList, f.a.List(ast.KindPermutationMatch, f.int(1), f.a.AnyOrOmit())))
	f.check()
	assert.Equal(t, []string{
		"Superset match cannot be used for type `RoI'",
		"Permutation match cannot be used for type `SoI'",
	}, f.col.Messages())
}

func TestValueRange(t *testing.T) {
	f := newFixture()
	f.template(t, "rev", types.Integer(), f.a.Range(ast.Int(5), ast.Int(1)))
	f.template(t, "open", types.Integer(), f.a.Range(nil, ast.Int(1)))
	f.template(t, "bool", types.Boolean(), f.a.Range(ast.Bool(false), ast.Bool(true)))
	f.template(t, "chars", types.Charstring(), f.a.Range(ast.Str("a"), ast.Str("bc")))
	f.template(t, "float", types.Float(), f.a.Range(ast.Int(1), ast.Float(2)))
	f.check()
	assert.Equal(t, []string{
		"The lower boundary is higher than the upper boundary",
		"Value range match cannot be used for type `boolean'",
		"The upper boundary of a charstring range must be a single character instead of a string of length 2",
		"Float value was expected",
	}, f.col.Messages())
}

func TestPatterns(t *testing.T) {
	f := newFixture()
	f.template(t, "bits", types.Bitstring(), f.a.Pattern(ast.KindBitStringPattern, "1?0*"))
	f.template(t, "wrong", types.Charstring(), f.a.Pattern(ast.KindBitStringPattern, "1"))
	f.template(t, "odd", types.Octetstring(), f.a.Pattern(ast.KindOctetStringPattern, "ABC"))
	f.template(t, "uchar", types.UniversalCharstring(), f.a.Pattern(ast.KindCharStringPattern, "a*b"))
	f.check()
	assert.Equal(t, []string{
		"Bitstring pattern cannot be used for type `charstring'",
		"Invalid octetstring pattern: odd number of hexadecimal digits in octetstring pattern",
	}, f.col.Messages())
}

func TestIntegerSubtype(t *testing.T) {
	lo, hi := int64(0), int64(10)
	small := types.IntegerRange("Small", &lo, &hi)

	f := newFixture()
	f.template(t, "big", small, f.int(11))
	f.template(t, "wide", small, f.a.Range(ast.Int(0), ast.Int(20)))
	f.template(t, "fits", small, f.a.Range(ast.Int(1), ast.Int(9)))
	f.check()
	assert.Equal(t, []string{
		"11 is not a valid value for type `Small' which has subtype (0..10)",
		"The range (0 .. 20) is not a subset of subtype (0..10) of type `Small'",
	}, f.col.Messages())
}

func TestEnumerated_ItemsWinOverDefinitions(t *testing.T) {
	f := newFixture()
	color := types.Enumerated("Color", "red", "green")
	f.template(t, "red", types.Integer(), f.int(1))
	f.template(t, "t", color, f.a.Specific(ast.Lowerid("red")))
	f.template(t, "u", color, f.a.Specific(ast.Lowerid("blue")))
	f.check()
	assert.Equal(t, []string{"There is no local or imported definition with name `blue'"}, f.col.Messages())
}

func TestReferencedTemplate_TypeMismatch(t *testing.T) {
	f := newFixture()
	f.template(t, "ti", types.Integer(), f.int(1))
	f.template(t, "tc", types.Charstring(), f.a.Specific(ast.Lowerid("ti")))
	f.check()
	assert.Equal(t, []string{
		"Type mismatch: a value or template of type `charstring' was expected instead of `integer'",
	}, f.col.Messages())
}

func TestConstValue_Checked(t *testing.T) {
	f := newFixture()
	f.add(t, sema.Definition{Name: "c", Kind: sema.DefConst, Type: recordR(),
		Value: &ast.Value{Kind: ast.ValueNamed, Fields: []ast.NamedValue{{Name: "a", Value: ast.Int(1)}}}})
	f.check()
	assert.Equal(t, []string{"Field `b' is missing from record value"}, f.col.Messages())
}

func TestIsCompatible(t *testing.T) {
	roi := types.RecordOf("RoI", types.Integer())
	other := types.RecordOf("", types.Alias("MyInt", types.Integer()))

	assert.True(t, roi.IsCompatible(other))
	assert.Equal(t, "record of MyInt", other.Name())
	assert.True(t, types.UniversalCharstring().IsCompatible(types.Charstring()))
	assert.False(t, types.Charstring().IsCompatible(types.UniversalCharstring()))
	assert.False(t, types.Array(types.Integer(), 0, 3).IsCompatible(types.Array(types.Integer(), 0, 4)))
	assert.False(t, types.Enumerated("A", "x").IsCompatible(types.Enumerated("B", "x")))
	assert.True(t, recordR().IsCompatible(types.Record("Q",
		types.Field("x", types.Integer()), types.Optional("y", types.Boolean()))))
	assert.False(t, recordR().IsCompatible(types.Record("Q",
		types.Field("x", types.Integer()), types.Field("y", types.Boolean()))))

	b, ok := types.Builtin("universal charstring")
	require.True(t, ok)
	assert.Equal(t, sema.TypeUCharstring, b.Kind())
}

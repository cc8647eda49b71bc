package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/sema"
	"github.com/agentic-research/tmplcheck/internal/types"
)

func TestResolve_ArrayIndexIsRebased(t *testing.T) {
	f := newFixture()
	arr := types.Array(types.Integer(), 5, 3)
	first := f.int(10)
	f.template(t, "arr", arr, f.a.List(ast.KindTemplateList, first, f.int(20), f.int(30)))
	e5 := f.template(t, "e5", types.Integer(), f.a.Referenced(ast.Ref("arr", ast.Index(ast.Int(5)))))
	f.template(t, "e4", types.Integer(), f.a.Referenced(ast.Ref("arr", ast.Index(ast.Int(4)))))
	f.template(t, "e8", types.Integer(), f.a.Referenced(ast.Ref("arr", ast.Index(ast.Int(8)))))
	c := f.check()

	assert.Equal(t, []string{
		"Array index underflow: the index value must be at least `5' instead of `4'",
		"Array index overflow: the index value must be at most `7' instead of `8'",
	}, f.col.Messages())
	assert.Equal(t, first, c.ResolveLast(e5.Body, false))
}

func TestResolve_RecordOfIndex(t *testing.T) {
	f := newFixture()
	roi := types.RecordOf("RoI", types.Integer())
	second := f.int(2)
	f.template(t, "l", roi, f.a.List(ast.KindTemplateList, f.int(1), second))
	ok := f.template(t, "ok", types.Integer(), f.a.Referenced(ast.Ref("l", ast.Index(ast.Int(1)))))
	f.template(t, "over", types.Integer(), f.a.Referenced(ast.Ref("l", ast.Index(ast.Int(2)))))
	f.template(t, "neg", types.Integer(), f.a.Referenced(ast.Ref("l", ast.Index(ast.Int(-1)))))
	c := f.check()

	assert.Equal(t, []string{
		"Index overflow in a template of `record of' type: the index is 2, but the template has only 2 elements",
		"A non-negative integer value was expected instead of -1 for indexing a template of `record of' type",
	}, f.col.Messages())
	assert.Equal(t, second, c.ResolveLast(ok.Body, false))
}

func TestResolve_InactiveUnionFieldSilentOrNot(t *testing.T) {
	f := newFixture()
	u := types.Union("U", types.Field("i", types.Integer()), types.Field("s", types.Charstring()))
	f.template(t, "tu", u, f.a.Named(ast.Assign("i", f.int(1))))
	ref := f.template(t, "r", types.Charstring(), f.a.Referenced(ast.Ref("tu", ast.Field("s"))))

	c := f.checker(sema.Config{})
	assert.Equal(t, ref.Body, c.ResolveLast(ref.Body, true))
	assert.Empty(t, f.col.Messages())
	assert.False(t, c.IsErroneous(ref.Body))

	assert.Equal(t, ref.Body, c.ResolveLast(ref.Body, false))
	assert.Equal(t, []string{
		"Reference to inactive field `s' in a template of union type `U'. The active field is `i'.",
	}, f.col.Messages())
	assert.True(t, c.IsErroneous(ref.Body))
}

func TestResolve_FieldThroughModifiedChain(t *testing.T) {
	f := newFixture()
	r := types.Record("R", types.Field("a", types.Integer()), types.Field("b", types.Integer()))
	a := f.int(1)
	f.template(t, "base", r, f.a.Named(ast.Assign("a", a), ast.Assign("b", f.int(2))))
	f.add(t, sema.Definition{Name: "m", Kind: sema.DefTemplate, Type: r, Modifies: ast.Ref("base"),
		Body: f.a.Named(ast.Assign("a", f.a.NotUsed()), ast.Assign("b", f.int(3)))})
	f.add(t, sema.Definition{Name: "n", Kind: sema.DefTemplate, Type: r, Modifies: ast.Ref("base"),
		Body: f.a.Named(ast.Assign("b", f.int(4)))})
	viaNotUsed := f.template(t, "x", types.Integer(), f.a.Referenced(ast.Ref("m", ast.Field("a"))))
	viaMissing := f.template(t, "y", types.Integer(), f.a.Referenced(ast.Ref("n", ast.Field("a"))))
	f.template(t, "bad", types.Integer(), f.a.Referenced(ast.Ref("base", ast.Field("zz"))))
	f.template(t, "unbound", types.Integer(), f.a.Referenced(ast.Ref("partial", ast.Field("b"))))
	f.add(t, sema.Definition{Name: "partial", Kind: sema.DefVarTemplate, Type: r,
		Body: f.a.Named(ast.Assign("a", f.int(1)))})
	c := f.check()

	assert.Equal(t, []string{
		"Reference to non-existent field `zz' in type `R'",
		"Reference to unbound field `b'",
		"Field `b' is missing from template for record type `R'",
	}, f.col.Messages())
	assert.Equal(t, a, c.ResolveLast(viaNotUsed.Body, false))
	assert.Equal(t, a, c.ResolveLast(viaMissing.Body, false))
}

func TestResolve_ParameterEndsChain(t *testing.T) {
	f := newFixture()
	tp := f.add(t, sema.Definition{Name: "tp", Kind: sema.DefTemplate, Type: types.Integer(),
		Body:   f.a.Specific(ast.Lowerid("p")),
		Params: []sema.Param{{Name: "p", Template: true, Type: types.Integer()}}})
	c := f.check()

	require.Empty(t, f.col.Messages())
	assert.Equal(t, tp.Body, c.ResolveLast(tp.Body, false))
	assert.Equal(t, ast.KindReferenced, c.Node(tp.Body).Kind)
}

func TestModule_ScopesAndDuplicates(t *testing.T) {
	a := ast.NewArena()
	mod := sema.NewModule("M", a)
	body := a.Specific(ast.Lowerid("p"))
	id, err := mod.Add(sema.Definition{Name: "t", Kind: sema.DefTemplate, Type: types.Integer(), Body: body,
		Params: []sema.Param{{Name: "p", Type: types.Integer()}}})
	require.NoError(t, err)

	_, err = mod.Add(sema.Definition{Name: "t", Kind: sema.DefConst})
	require.ErrorIs(t, err, sema.ErrDuplicateDefinition)

	assert.Equal(t, id, mod.Owner(body))
	p, ok := mod.Lookup(id, "p")
	require.True(t, ok)
	assert.Equal(t, sema.DefParValue, p.Kind)
	_, ok = mod.Lookup(0, "p")
	assert.False(t, ok, "parameters are not visible at module level")
	assert.Len(t, mod.Definitions(), 1)
	assert.Equal(t, "template parameter `x'", (&sema.Definition{Name: "x", Kind: sema.DefParTemplate}).Describe())
	assert.Equal(t, "return template of function `f'", (&sema.Definition{Name: "f", Kind: sema.DefFunction}).Describe())
}

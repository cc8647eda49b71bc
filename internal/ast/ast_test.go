package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_ZeroIsReserved(t *testing.T) {
	a := NewArena()
	assert.Nil(t, a.Get(NoNode))
	assert.Equal(t, 0, a.Len())

	id := a.Any()
	require.NotEqual(t, NoNode, id)
	assert.Equal(t, KindAnyValue, a.Get(id).Kind)
	assert.Nil(t, a.Get(id+1))
	assert.Equal(t, 1, a.Len())
}

func TestArena_StringNamedWithModifiers(t *testing.T) {
	a := NewArena()
	id := a.Named(Assign("a", a.Specific(Int(1))), Assign("b", a.Any()))
	a.WithLength(id, SingleLength(Int(3)))
	a.WithIfPresent(id)

	assert.Equal(t, "{ a := 1, b := ? } length (3) ifpresent", a.String(id))
}

func TestArena_StringLists(t *testing.T) {
	a := NewArena()
	one := a.Specific(Int(1))
	tl := a.ListEntries(KindTemplateList,
		Entry{Node: one}, Entry{Node: a.AnyOrOmit()}, Spread(a.Referenced(Ref("t1"))))
	assert.Equal(t, "{ 1, *, all from t1 }", a.String(tl))

	vl := a.List(KindValueList, a.Specific(Int(1)), a.Specific(Int(2)))
	assert.Equal(t, "(1, 2)", a.String(vl))

	cl := a.List(KindComplementedList, a.Omit())
	assert.Equal(t, "complement(omit)", a.String(cl))

	assert.Equal(t, "{ }", a.String(a.List(KindTemplateList)))
}

func TestArena_StringRangeAndPatterns(t *testing.T) {
	a := NewArena()
	assert.Equal(t, "(1 .. infinity)", a.String(a.Range(Int(1), nil)))
	assert.Equal(t, "(-infinity .. 5)", a.String(a.Range(nil, Int(5))))
	assert.Equal(t, "'1?0*'B", a.String(a.Pattern(KindBitStringPattern, "1?0*")))
	assert.Equal(t, `pattern "a*b"`, a.String(a.Pattern(KindCharStringPattern, "a*b")))

	r := a.WithLength(a.Any(), RangeLength(Int(1), Int(4)))
	assert.Equal(t, "? length (1 .. 4)", a.String(r))
}

func TestArena_StringIndexedAndReferences(t *testing.T) {
	a := NewArena()
	ix := a.Indexed(AssignIndex(Int(0), a.Specific(Str("x"))))
	assert.Equal(t, `{ [0] := "x" }`, a.String(ix))

	ref := Ref("t", Field("a"), Index(Int(2))).WithParams(a.Any())
	assert.Equal(t, "t(...).a[2]", a.String(a.Referenced(ref)))
}

func TestKind_Classification(t *testing.T) {
	assert.True(t, KindPermutationMatch.IsList())
	assert.True(t, KindTemplateList.IsList())
	assert.False(t, KindNamedTemplateList.IsList())
	assert.True(t, KindOctetStringPattern.IsPattern())
	assert.False(t, KindValueRange.IsPattern())
	assert.Equal(t, "superset match", KindSupersetMatch.TemplateTypeName())
}

func TestValue_StringLength(t *testing.T) {
	n, ok := Octets("0A0B").StringLength()
	require.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = Str("héllo").StringLength()
	require.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = Int(3).StringLength()
	assert.False(t, ok)
}

func TestIsLessRestrictive(t *testing.T) {
	cases := []struct {
		needed, refd Restriction
		want         bool
	}{
		{RestrictionValue, RestrictionValue, false},
		{RestrictionValue, RestrictionOmit, true},
		{RestrictionOmit, RestrictionValue, false},
		{RestrictionOmit, RestrictionOmit, false},
		{RestrictionOmit, RestrictionPresent, true},
		{RestrictionOmit, RestrictionNone, true},
		{RestrictionPresent, RestrictionValue, false},
		{RestrictionPresent, RestrictionOmit, true},
		{RestrictionPresent, RestrictionPresent, false},
		{RestrictionNone, RestrictionNone, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsLessRestrictive(tc.needed, tc.refd), "%s vs %s", tc.needed, tc.refd)
	}
}

func TestParseRestriction(t *testing.T) {
	r, ok := ParseRestriction("present")
	require.True(t, ok)
	assert.Equal(t, RestrictionPresent, r)

	_, ok = ParseRestriction("optional")
	assert.False(t, ok)
}

package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
	"github.com/agentic-research/tmplcheck/internal/sema"
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

func (f *fixture) checker(cfg sema.Config) *sema.Checker {
	return sema.NewChecker(f.mod, nil, f.col, cfg)
}

func (f *fixture) check() *sema.Checker {
	c := f.checker(sema.Config{})
	c.CheckModule()
	return c
}

func (f *fixture) int(v int64) ast.NodeID { return f.a.Specific(ast.Int(v)) }

func (f *fixture) at(id ast.NodeID, line int) ast.NodeID {
	return f.a.At(id, diag.Location{File: "m.ttcn", Line: line, Column: 1})
}

func lines(ds []diag.Diagnostic) []int {
	out := make([]int, len(ds))
	for i, d := range ds {
		out[i] = d.Location.Line
	}
	return out
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/tmplcheck/internal/diag"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "diag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRun_RoundTrip(t *testing.T) {
	s := openTemp(t)
	want := []diag.Diagnostic{
		{Severity: diag.SeverityError, Category: diag.CategoryReference,
			Location: diag.Location{File: "m.ttcn", Line: 3, Column: 7},
			Message:  "There is no local or imported definition with name `x'"},
		{Severity: diag.SeverityWarning, Category: diag.CategoryCardinality,
			Message: "Length restriction is useless for an array template"},
	}

	run := s.Begin("M", "m.json")
	for _, d := range want {
		run.Report(d)
	}
	id, err := run.Finish()
	require.NoError(t, err)

	got, err := s.Diagnostics(id)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "M", runs[0].Module)
	assert.Equal(t, 1, runs[0].Errors)
	assert.Equal(t, 1, runs[0].Warnings)
}

func TestLatest(t *testing.T) {
	s := openTemp(t)

	_, err := s.Latest("M")
	require.ErrorIs(t, err, ErrNotFound)

	first := s.Begin("M", "m.json")
	first.Report(diag.Diagnostic{Severity: diag.SeverityError, Message: "old"})
	_, err = first.Finish()
	require.NoError(t, err)

	second := s.Begin("M", "m.json")
	_, err = second.Finish()
	require.NoError(t, err)

	got, err := s.Latest("M")
	require.NoError(t, err)
	assert.Empty(t, got, "the newest run is clean")

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID)
}

func TestRun_TeeWithCollector(t *testing.T) {
	s := openTemp(t)
	col := diag.NewCollector(false, false)
	run := s.Begin("M", "m.json")
	sink := diag.Tee(col, run)

	sink.Report(diag.Diagnostic{Severity: diag.SeverityWarning, Message: "w"})
	_, err := run.Finish()
	require.NoError(t, err)

	got, err := s.Latest("M")
	require.NoError(t, err)
	assert.Equal(t, col.Diagnostics(), got)
}

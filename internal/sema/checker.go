package sema

import (
	"fmt"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// Config holds the project-level switches the checker honours.
type Config struct {
	// LegacyOmitInValueList lets value list elements inherit omit and
	// ifpresent permission from the list itself.
	LegacyOmitInValueList bool
}

// Options are the context flags of one template check.
type Options struct {
	// IsModified: the template is (part of) a modified template body, so
	// missing fields and not used symbols are filled in from the base.
	IsModified bool
	AllowOmit  bool
	// AllowAnyOrOmit is false for mandatory fields, where `*' means `?'.
	AllowAnyOrOmit bool
	SubCheck       bool
	ImplicitOmit   bool
}

// Checker validates the templates of one module against their types. It is
// single-threaded; concurrent modules need one Checker and Analysis each.
type Checker struct {
	mod  *Module
	an   *Analysis
	sink diag.Sink
	cfg  Config

	scope DefID
	// checking holds the template bodies whose check is in progress.
	checking *chain
}

// NewChecker wires a checker. A nil analysis starts a fresh one.
func NewChecker(mod *Module, an *Analysis, sink diag.Sink, cfg Config) *Checker {
	if an == nil {
		an = NewAnalysis()
	}
	if sink == nil {
		sink = diag.SinkFunc(func(diag.Diagnostic) {})
	}
	return &Checker{
		mod:      mod,
		an:       an,
		sink:     sink,
		cfg:      cfg,
		checking: newChain(),
	}
}

func (c *Checker) Module() *Module     { return c.mod }
func (c *Checker) Analysis() *Analysis { return c.an }
func (c *Checker) Arena() *ast.Arena   { return c.mod.Arena }
func (c *Checker) Config() Config      { return c.cfg }

// Errorf reports an error.
func (c *Checker) Errorf(cat diag.Category, loc diag.Location, format string, args ...any) {
	c.sink.Report(diag.Diagnostic{Severity: diag.SeverityError, Category: cat, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Warnf reports a warning.
func (c *Checker) Warnf(cat diag.Category, loc diag.Location, format string, args ...any) {
	c.sink.Report(diag.Diagnostic{Severity: diag.SeverityWarning, Category: cat, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Fail reports an error at id and marks it erroneous.
func (c *Checker) Fail(id ast.NodeID, cat diag.Category, format string, args ...any) {
	c.Errorf(cat, c.Loc(id), format, args...)
	c.an.MarkErroneous(id)
}

func (c *Checker) internalf(format string, args ...any) {
	c.Errorf(diag.CategoryInternal, diag.Location{}, "internal error: "+format, args...)
}

// Node returns the current view of id: the parsed node, or its
// reclassified form when a lowercase identifier turned out to name a
// template or a function reference.
func (c *Checker) Node(id ast.NodeID) *ast.Node {
	if r, ok := c.an.reclass[id]; ok && r.stamp == c.an.timestamp && r.node != nil {
		return r.node
	}
	return c.mod.Arena.Get(id)
}

// Loc returns the location of id.
func (c *Checker) Loc(id ast.NodeID) diag.Location {
	if n := c.mod.Arena.Get(id); n != nil {
		return n.Loc
	}
	return diag.Location{}
}

func (c *Checker) IsErroneous(id ast.NodeID) bool { return c.an.IsErroneous(id) }
func (c *Checker) MarkErroneous(id ast.NodeID)    { c.an.MarkErroneous(id) }
func (c *Checker) Base(id ast.NodeID) ast.NodeID  { return c.an.Base(id) }
func (c *Checker) SetBase(id, base ast.NodeID)    { c.an.SetBase(id, base) }

// withScope makes lookups resolve from the definition owning id until the
// returned func runs.
func (c *Checker) withScope(id ast.NodeID) func() {
	prev := c.scope
	if owner := c.mod.Owner(id); owner != 0 {
		c.scope = owner
	}
	return func() { c.scope = prev }
}

// Lookup resolves name in the current scope.
func (c *Checker) Lookup(name string) (*Definition, bool) {
	return c.mod.Lookup(c.scope, name)
}

// lookupFrom resolves name as seen from node id.
func (c *Checker) lookupFrom(id ast.NodeID, name string) (*Definition, bool) {
	scope := c.mod.Owner(id)
	if scope == 0 {
		scope = c.scope
	}
	return c.mod.Lookup(scope, name)
}

func (c *Checker) noDefinition(id ast.NodeID, loc diag.Location, name string) {
	c.Errorf(diag.CategoryReference, loc, "There is no local or imported definition with name `%s'", name)
	c.an.MarkErroneous(id)
}

// CheckModule checks every module-level definition.
func (c *Checker) CheckModule() {
	for _, d := range c.mod.Definitions() {
		c.CheckDefinition(d)
	}
}

package sema

import (
	"errors"
	"fmt"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// ErrDuplicateDefinition is returned by Module.Add for a name declared twice.
var ErrDuplicateDefinition = errors.New("duplicate definition")

// DefID indexes a definition in a Module. Zero is reserved.
type DefID uint32

// DefKind is the kind of a named definition.
type DefKind int

const (
	DefInvalid DefKind = iota
	DefTemplate
	DefVarTemplate
	DefModuleParTemplate
	DefParTemplate
	DefConst
	DefVar
	DefModulePar
	DefParValue
	DefFunction
)

var defKindNames = [...]string{
	DefInvalid:           "erroneous definition",
	DefTemplate:          "template",
	DefVarTemplate:       "template variable",
	DefModuleParTemplate: "template module parameter",
	DefParTemplate:       "template parameter",
	DefConst:             "constant",
	DefVar:               "variable",
	DefModulePar:         "module parameter",
	DefParValue:          "value parameter",
	DefFunction:          "function",
}

func (k DefKind) String() string {
	if int(k) < len(defKindNames) {
		return defKindNames[k]
	}
	return "unknown definition"
}

// Definition is a named module-level or parameter definition.
type Definition struct {
	ID   DefID
	Name string
	Kind DefKind
	Loc  diag.Location
	// Type is the declared type; for functions the return type.
	Type Type
	// Body is the template of template-like definitions (NoNode if absent).
	Body ast.NodeID
	// Value is the value of constants and value module parameters.
	Value       *ast.Value
	Params      []Param
	Modifies    *ast.Reference
	Restriction ast.Restriction
	// ImplicitOmit is the `optional "implicit omit"` attribute.
	ImplicitOmit bool
	// ReturnsTemplate marks functions declared with `return template T`.
	ReturnsTemplate bool
	// Owner is the template or function a formal parameter belongs to.
	Owner DefID
}

// IsTemplateLike reports whether references to d denote templates.
func (d *Definition) IsTemplateLike() bool {
	switch d.Kind {
	case DefTemplate, DefVarTemplate, DefModuleParTemplate, DefParTemplate:
		return true
	case DefFunction:
		return d.ReturnsTemplate
	}
	return false
}

// Describe renders d for restriction diagnostics, e.g. "template definition `t'".
func (d *Definition) Describe() string {
	switch d.Kind {
	case DefTemplate:
		return fmt.Sprintf("template definition `%s'", d.Name)
	case DefFunction:
		return fmt.Sprintf("return template of function `%s'", d.Name)
	default:
		return fmt.Sprintf("%s `%s'", d.Kind, d.Name)
	}
}

// Module is one unit of definitions together with the arena holding their
// template bodies.
type Module struct {
	Name  string
	Arena *ast.Arena

	defs   []*Definition
	byName map[string]DefID
	params map[DefID]map[string]DefID
	owner  map[ast.NodeID]DefID
}

// NewModule creates an empty module over arena.
func NewModule(name string, arena *ast.Arena) *Module {
	return &Module{
		Name:   name,
		Arena:  arena,
		defs:   []*Definition{nil},
		byName: make(map[string]DefID),
		params: make(map[DefID]map[string]DefID),
		owner:  make(map[ast.NodeID]DefID),
	}
}

// Add registers d and its formal parameters. It returns the new id, or an
// error for a duplicate module-level name.
func (m *Module) Add(d Definition) (DefID, error) {
	if _, dup := m.byName[d.Name]; dup && d.Owner == 0 {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateDefinition, d.Name)
	}
	id := DefID(len(m.defs))
	d.ID = id
	def := &d
	m.defs = append(m.defs, def)

	if d.Owner != 0 {
		scope := m.params[d.Owner]
		if scope == nil {
			scope = make(map[string]DefID)
			m.params[d.Owner] = scope
		}
		scope[d.Name] = id
	} else {
		m.byName[d.Name] = id
	}

	for _, p := range d.Params {
		kind := DefParValue
		if p.Template {
			kind = DefParTemplate
		}
		// Formal parameter names are unique per owner; clashes are reported
		// when the owner is checked.
		if _, dup := m.params[id][p.Name]; dup {
			continue
		}
		if _, err := m.Add(Definition{Name: p.Name, Kind: kind, Loc: p.Loc, Type: p.Type, Restriction: p.Restriction, Owner: id}); err != nil {
			return 0, err
		}
	}

	m.claim(id, d.Body)
	if d.Modifies != nil {
		m.claimRef(id, d.Modifies)
	}
	if d.Value != nil {
		m.claimValue(id, d.Value)
	}
	return id, nil
}

// claim records def as the scope of every node reachable from root.
func (m *Module) claim(def DefID, root ast.NodeID) {
	n := m.Arena.Get(root)
	if n == nil {
		return
	}
	if _, seen := m.owner[root]; seen {
		return
	}
	m.owner[root] = def
	for _, e := range n.Elems {
		m.claim(def, e.Node)
	}
	for _, f := range n.Named {
		m.claim(def, f.Node)
	}
	for _, e := range n.Indexed {
		m.claim(def, e.Node)
	}
	for _, a := range n.Args {
		m.claim(def, a)
	}
	if n.Ref != nil {
		m.claimRef(def, n.Ref)
	}
	if n.Value != nil {
		m.claimValue(def, n.Value)
	}
}

func (m *Module) claimRef(def DefID, ref *ast.Reference) {
	for _, p := range ref.Params {
		m.claim(def, p)
	}
}

func (m *Module) claimValue(def DefID, v *ast.Value) {
	if v.Ref != nil {
		m.claimRef(def, v.Ref)
	}
	for _, a := range v.Args {
		m.claim(def, a)
	}
	for _, e := range v.Elems {
		m.claimValue(def, e)
	}
	for _, f := range v.Fields {
		m.claimValue(def, f.Value)
	}
}

// Def returns the definition for id, or nil.
func (m *Module) Def(id DefID) *Definition {
	if id == 0 || int(id) >= len(m.defs) {
		return nil
	}
	return m.defs[id]
}

// Owner returns the definition whose body contains node, or 0.
func (m *Module) Owner(node ast.NodeID) DefID { return m.owner[node] }

// Lookup resolves name as seen from scope: formal parameters of scope first,
// then module-level definitions.
func (m *Module) Lookup(scope DefID, name string) (*Definition, bool) {
	for scope != 0 {
		if id, ok := m.params[scope][name]; ok {
			return m.defs[id], true
		}
		scope = m.defs[scope].Owner
	}
	if id, ok := m.byName[name]; ok {
		return m.defs[id], true
	}
	return nil, false
}

// Definitions returns the module-level definitions in declaration order.
func (m *Module) Definitions() []*Definition {
	out := make([]*Definition, 0, len(m.byName))
	for _, d := range m.defs[1:] {
		if d.Owner == 0 {
			out = append(out, d)
		}
	}
	return out
}

// DefByName returns a module-level definition.
func (m *Module) DefByName(name string) *Definition {
	if id, ok := m.byName[name]; ok {
		return m.defs[id]
	}
	return nil
}

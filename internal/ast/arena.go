package ast

import "github.com/agentic-research/tmplcheck/internal/diag"

// Arena owns every template node of a module. Nodes are appended during
// construction and addressed by NodeID afterwards; slot 0 is reserved so
// that the zero NodeID never names a real node.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 1, 64)}
}

// Add appends n and returns its id.
func (a *Arena) Add(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Get returns the node for id, or nil for NoNode and unknown ids.
func (a *Arena) Get(id NodeID) *Node {
	if id == NoNode || int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}

// Len returns the number of nodes, not counting the reserved slot.
func (a *Arena) Len() int { return len(a.nodes) - 1 }

// Construction helpers. They are meant for loaders and tests that build a
// tree before it is analysed; nodes must not change once analysis starts.

func (a *Arena) Specific(v *Value) NodeID {
	return a.Add(Node{Kind: KindSpecificValue, Value: v, Loc: v.Loc})
}

func (a *Arena) Referenced(ref *Reference) NodeID {
	return a.Add(Node{Kind: KindReferenced, Ref: ref, Loc: ref.Loc})
}

func (a *Arena) Invoke(fn *Value, args ...NodeID) NodeID {
	return a.Add(Node{Kind: KindInvoke, Value: fn, Args: args, Loc: fn.Loc})
}

func (a *Arena) Omit() NodeID      { return a.Add(Node{Kind: KindOmitValue}) }
func (a *Arena) Any() NodeID       { return a.Add(Node{Kind: KindAnyValue}) }
func (a *Arena) AnyOrOmit() NodeID { return a.Add(Node{Kind: KindAnyOrOmit}) }
func (a *Arena) NotUsed() NodeID   { return a.Add(Node{Kind: KindNotUsed}) }

// List builds a list variant of the given kind from plain entries.
func (a *Arena) List(kind Kind, elems ...NodeID) NodeID {
	return a.ListEntries(kind, Plain(elems...)...)
}

// ListEntries builds a list variant from entries that may include spreads.
func (a *Arena) ListEntries(kind Kind, entries ...Entry) NodeID {
	return a.Add(Node{Kind: kind, Elems: entries})
}

func (a *Arena) Named(fields ...NamedEntry) NodeID {
	return a.Add(Node{Kind: KindNamedTemplateList, Named: fields})
}

func (a *Arena) Indexed(entries ...IndexedEntry) NodeID {
	return a.Add(Node{Kind: KindIndexedTemplateList, Indexed: entries})
}

// Range builds a value range; a nil bound is infinite.
func (a *Arena) Range(lo, hi *Value) NodeID {
	return a.Add(Node{Kind: KindValueRange, Min: lo, Max: hi})
}

func (a *Arena) Pattern(kind Kind, text string) NodeID {
	return a.Add(Node{Kind: kind, Pattern: text})
}

// WithLength attaches a length restriction to id.
func (a *Arena) WithLength(id NodeID, lr *LengthRestriction) NodeID {
	if n := a.Get(id); n != nil {
		n.Length = lr
	}
	return id
}

// WithIfPresent sets the ifpresent flag of id.
func (a *Arena) WithIfPresent(id NodeID) NodeID {
	if n := a.Get(id); n != nil {
		n.IfPresent = true
	}
	return id
}

// At sets the location of id.
func (a *Arena) At(id NodeID, loc diag.Location) NodeID {
	if n := a.Get(id); n != nil {
		n.Loc = loc
	}
	return id
}

// Plain wraps ids as ordinary list entries.
func Plain(ids ...NodeID) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{Node: id}
	}
	return out
}

// Spread returns an `all from` entry.
func Spread(id NodeID) Entry { return Entry{Node: id, Spread: true} }

// Assign returns a `name := node` field assignment.
func Assign(name string, node NodeID) NamedEntry {
	return NamedEntry{Name: name, Node: node}
}

// AssignIndex returns a `[index] := node` assignment.
func AssignIndex(index *Value, node NodeID) IndexedEntry {
	return IndexedEntry{Index: index, Node: node}
}

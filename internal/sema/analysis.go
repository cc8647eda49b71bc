package sema

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/tmplcheck/internal/ast"
)

// Analysis is the pass-scoped side table of a module's templates. The arena
// stays immutable; everything learned while checking lives here, keyed by
// node id and guarded by the logical timestamp of the current pass.
//
// An Analysis is not safe for concurrent use; passes over one tree must be
// serialized by the caller.
type Analysis struct {
	timestamp uint64

	// erroneous holds node ids and, with defKeyBit set, definition ids.
	erroneous *roaring.Bitmap
	governor  map[ast.NodeID]Type
	base      map[ast.NodeID]ast.NodeID

	reclass     map[ast.NodeID]reclassified
	lengths     map[*ast.LengthRestriction]lengthMemo
	namedIndex  map[ast.NodeID]namedIndexMemo
	defChecked  map[DefID]uint64
	checked     map[checkKey]uint64
	spreadCheck map[ast.NodeID]uint64
}

type reclassified struct {
	stamp uint64
	node  *ast.Node // nil: the node keeps its parsed form
}

type namedIndexMemo struct {
	stamp uint64
	index map[string]int
}

type checkKey struct {
	id   ast.NodeID
	typ  Type
	opts Options
}

// NewAnalysis starts at timestamp 1.
func NewAnalysis() *Analysis {
	return &Analysis{
		timestamp:   1,
		erroneous:   roaring.New(),
		governor:    make(map[ast.NodeID]Type),
		base:        make(map[ast.NodeID]ast.NodeID),
		reclass:     make(map[ast.NodeID]reclassified),
		lengths:     make(map[*ast.LengthRestriction]lengthMemo),
		namedIndex:  make(map[ast.NodeID]namedIndexMemo),
		defChecked:  make(map[DefID]uint64),
		checked:     make(map[checkKey]uint64),
		spreadCheck: make(map[ast.NodeID]uint64),
	}
}

// Timestamp returns the current pass.
func (a *Analysis) Timestamp() uint64 { return a.timestamp }

// Advance starts a new pass. Memoized results of earlier passes are
// recomputed on demand; the erroneous marks are sticky.
func (a *Analysis) Advance() uint64 {
	a.timestamp++
	return a.timestamp
}

// IsErroneous reports whether id was marked erroneous.
func (a *Analysis) IsErroneous(id ast.NodeID) bool {
	return a.erroneous.Contains(uint32(id))
}

// MarkErroneous marks id.
func (a *Analysis) MarkErroneous(id ast.NodeID) {
	if id != ast.NoNode {
		a.erroneous.Add(uint32(id))
	}
}

// ErroneousCount counts erroneous nodes and definitions.
func (a *Analysis) ErroneousCount() uint64 { return a.erroneous.GetCardinality() }

func (a *Analysis) defErroneous(id DefID) bool { return a.erroneous.Contains(defKey(id)) }

func (a *Analysis) markDefErroneous(id DefID) { a.erroneous.Add(defKey(id)) }

// Governor returns the type id was last checked against.
func (a *Analysis) Governor(id ast.NodeID) Type { return a.governor[id] }

// SetGovernor records the type of id.
func (a *Analysis) SetGovernor(id ast.NodeID, t Type) {
	if t != nil {
		a.governor[id] = t
	}
}

// Base returns the template id modifies, or NoNode.
func (a *Analysis) Base(id ast.NodeID) ast.NodeID { return a.base[id] }

// SetBase links id to the template it modifies.
func (a *Analysis) SetBase(id, base ast.NodeID) {
	if id == ast.NoNode || base == ast.NoNode || id == base {
		return
	}
	a.base[id] = base
}

// Reclassified returns the kind id was reclassified to at the current pass.
func (a *Analysis) Reclassified(id ast.NodeID) (ast.Kind, bool) {
	r, ok := a.reclass[id]
	if !ok || r.stamp != a.timestamp || r.node == nil {
		return ast.KindInvalid, false
	}
	return r.node.Kind, true
}

package sema

import (
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/tmplcheck/internal/ast"
	"github.com/agentic-research/tmplcheck/internal/diag"
)

// defKeyBit separates definition keys from node keys in chains and in the
// erroneous set.
const defKeyBit = 1 << 31

func nodeKey(id ast.NodeID) uint32 { return uint32(id) }

func defKey(id DefID) uint32 { return defKeyBit | uint32(id) }

type chainLink struct {
	key  uint32
	name string
	loc  diag.Location
}

// chain is the set of references currently being followed. Entering a key
// that is already on the chain is a cycle.
type chain struct {
	visited *roaring.Bitmap
	links   []chainLink
}

func newChain() *chain {
	return &chain{visited: roaring.New()}
}

// enter pushes key. The returned release pops it again and must be called
// (usually deferred) when ok is true.
func (ch *chain) enter(key uint32, name string, loc diag.Location) (release func(), ok bool) {
	if ch.visited.Contains(key) {
		return nil, false
	}
	ch.visited.Add(key)
	ch.links = append(ch.links, chainLink{key: key, name: name, loc: loc})
	depth := len(ch.links)
	return func() {
		ch.links = ch.links[:depth-1]
		ch.visited.Remove(key)
	}, true
}

// cycle returns the links from the first occurrence of key to the top.
func (ch *chain) cycle(key uint32) []chainLink {
	for i, l := range ch.links {
		if l.key == key {
			return ch.links[i:]
		}
	}
	return nil
}

func formatCycle(links []chainLink) string {
	var sb strings.Builder
	for _, l := range links {
		sb.WriteString("`")
		sb.WriteString(l.name)
		sb.WriteString("' -> ")
	}
	if len(links) > 0 {
		sb.WriteString("`")
		sb.WriteString(links[0].name)
		sb.WriteString("'")
	}
	return sb.String()
}

// enter guards one step on ch. On a revisit it reports the cycle once at the
// first element, marks every member erroneous and returns ok == false.
func (c *Checker) enter(ch *chain, key uint32, name string, loc diag.Location) (func(), bool) {
	release, ok := ch.enter(key, name, loc)
	if ok {
		return release, true
	}
	links := ch.cycle(key)
	if len(links) == 0 {
		return nil, false
	}
	first := links[0]
	if !c.keyErroneous(first.key) {
		c.Errorf(diag.CategoryReference, first.loc, "Circular reference chain: %s", formatCycle(links))
	}
	for _, l := range links {
		c.markKey(l.key)
	}
	return nil, false
}

func (c *Checker) keyErroneous(key uint32) bool {
	return c.an.erroneous.Contains(key)
}

func (c *Checker) markKey(key uint32) {
	c.an.erroneous.Add(key)
}

// Package kvo (stands for Key Value Objects) manages trees of dynamically typed
// values mainly represented as key-value pairs.
//
// A tree is made of *Node values. A node is either a scalar (null, bool,
// number, string), a list, or a map from string keys to child nodes. All
// numbers are float64, which is what JSON-like serializers hand back.
//
// Maps keep their entries in insertion order, but nothing depends on it:
// lookup is by exact key, and everything that produces output (Keys, Dump,
// Fingerprint, Any) uses sorted keys.
//
// Nodes are not safe for concurrent mutation. Concurrent reads are fine.
package kvo

import (
	"fmt"
	"slices"
)

type Node struct {
	kind    Kind
	b       bool
	f       float64
	s       string
	items   []*Node
	entries []entry
}

type entry struct {
	key   string
	value *Node
}

func Null() *Node {
	return &Node{kind: KindNull}
}

func Bool(v bool) *Node {
	return &Node{kind: KindBool, b: v}
}

func Float(v float64) *Node {
	return &Node{kind: KindFloat, f: v}
}

func String(v string) *Node {
	return &Node{kind: KindString, s: v}
}

func List(items ...*Node) *Node {
	for i, item := range items {
		if item == nil {
			panic(fmt.Sprintf("kvo: nil list item at %d", i))
		}
	}
	return &Node{kind: KindList, items: items}
}

// NewMap returns an empty map node.
func NewMap() *Node {
	return &Node{kind: KindMap}
}

// NewMapCap returns an empty map node with room for n entries.
func NewMapCap(n int) *Node {
	return &Node{kind: KindMap, entries: make([]entry, 0, n)}
}

// Kind returns KindMissing for a nil node, so callers can chain Get calls.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindMissing
	}
	return n.kind
}

func (n *Node) IsMissing() bool { return n == nil }
func (n *Node) IsMap() bool     { return n != nil && n.kind == KindMap }

func (n *Node) Float() (float64, bool) {
	if n == nil || n.kind != KindFloat {
		return 0, false
	}
	return n.f, true
}

func (n *Node) Bool() (bool, bool) {
	if n == nil || n.kind != KindBool {
		return false, false
	}
	return n.b, true
}

func (n *Node) Str() (string, bool) {
	if n == nil || n.kind != KindString {
		return "", false
	}
	return n.s, true
}

// Items returns the items of a list node, or nil for any other kind.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindList {
		return nil
	}
	return n.items
}

// Len returns the number of map entries or list items.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindMap:
		return len(n.entries)
	case KindList:
		return len(n.items)
	default:
		return 0
	}
}

func (n *Node) KeyCount() int {
	if !n.IsMap() {
		return 0
	}
	return len(n.entries)
}

// Keys returns the map's keys in sorted order.
func (n *Node) Keys() []string {
	if !n.IsMap() {
		return nil
	}
	keys := make([]string, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.key
	}
	slices.Sort(keys)
	return keys
}

// Get returns the child stored under key, or nil if n is not a map or has no
// such key.
func (n *Node) Get(key string) *Node {
	if !n.IsMap() {
		return nil
	}
	for _, e := range n.entries {
		if e.key == key {
			return e.value
		}
	}
	return nil
}

func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Set creates or replaces the subtree under key. The child is attached as is,
// not copied.
func (n *Node) Set(key string, child *Node) {
	n.ensureMap("Set")
	if child == nil {
		panic(fmt.Sprintf("kvo: Set(%q) with nil child", key))
	}
	for i, e := range n.entries {
		if e.key == key {
			n.entries[i].value = child
			return
		}
	}
	n.entries = append(n.entries, entry{key, child})
}

func (n *Node) SetFloat(key string, v float64) {
	n.Set(key, Float(v))
}

// UpdateMap returns the child map stored under key, adding an empty one if
// the key is absent. Panics if the key holds a non-map value.
func (n *Node) UpdateMap(key string) *Node {
	n.ensureMap("UpdateMap")
	if child := n.Get(key); child != nil {
		if child.kind != KindMap {
			panic(fmt.Sprintf("kvo: UpdateMap(%q) on %s value", key, child.kind))
		}
		return child
	}
	child := NewMap()
	n.entries = append(n.entries, entry{key, child})
	return child
}

// Delete removes key and reports whether it was present.
func (n *Node) Delete(key string) bool {
	n.ensureMap("Delete")
	for i, e := range n.entries {
		if e.key == key {
			n.entries = slices.Delete(n.entries, i, i+1)
			return true
		}
	}
	return false
}

func (n *Node) ensureMap(op string) {
	if n == nil {
		panic(fmt.Sprintf("kvo: %s on nil node", op))
	}
	if n.kind != KindMap {
		panic(fmt.Sprintf("kvo: %s on %s node", op, n.kind))
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.items != nil {
		c.items = make([]*Node, len(n.items))
		for i, item := range n.items {
			c.items[i] = item.Clone()
		}
	}
	if n.entries != nil {
		c.entries = make([]entry, len(n.entries))
		for i, e := range n.entries {
			c.entries[i] = entry{e.key, e.value.Clone()}
		}
	}
	return &c
}

// Equal reports whether a and b are structurally identical. Map entry order
// is ignored; NaN equals NaN.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindFloat:
		return a.f == b.f || (a.f != a.f && b.f != b.f)
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for _, e := range a.entries {
			if !Equal(e.value, b.Get(e.key)) {
				return false
			}
		}
		return true
	default:
		panic("unreachable")
	}
}

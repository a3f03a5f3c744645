package btree

import (
	"slices"
	"sync/atomic"
)

// Node is the read-only view of a tree node handed to observers.
//
// Leaves answer Item, inner nodes answer Child and ChildOffset; calling an
// accessor of the other kind panics.
type Node[T any] interface {
	IsLeaf() bool
	// LocalCount is the number of items of a leaf or children of an inner node.
	LocalCount() int
	// TotalCount is the number of items in the subtree.
	TotalCount() int
	// IsFrozen reports whether the node has been marked immutable explicitly.
	// Children of a frozen node are frozen as well, even if their own flag is
	// not yet set.
	IsFrozen() bool
	MaxNodeSize() int
	Item(i int) T
	Child(i int) Node[T]
	// ChildOffset is the position of the first item of child i, relative to
	// the start of this node.
	ChildOffset(i int) int
}

// treeNode is the closed set of node variants: *leafNode and *innerNode.
type treeNode[T any] interface {
	Node[T]
	freeze()
	detachedClone() treeNode[T]
}

type leafNode[T any] struct {
	frozen  atomic.Bool
	maxSize int
	items   []T
}

func (l *leafNode[T]) IsLeaf() bool          { return true }
func (l *leafNode[T]) LocalCount() int       { return len(l.items) }
func (l *leafNode[T]) TotalCount() int       { return len(l.items) }
func (l *leafNode[T]) IsFrozen() bool        { return l.frozen.Load() }
func (l *leafNode[T]) MaxNodeSize() int      { return l.maxSize }
func (l *leafNode[T]) Item(i int) T          { return l.items[i] }
func (l *leafNode[T]) Child(int) Node[T]     { panic("btree: Child called on leaf node") }
func (l *leafNode[T]) ChildOffset(int) int   { panic("btree: ChildOffset called on leaf node") }
func (l *leafNode[T]) freeze()               { l.frozen.Store(true) }
func (l *leafNode[T]) isFull() bool          { return len(l.items) >= l.maxSize }
func (l *leafNode[T]) isUndersized() bool    { return len(l.items) < l.maxSize/3 }
func (l *leafNode[T]) canDonate() bool       { return len(l.items) > l.maxSize/3 }
func (l *leafNode[T]) detachedClone() treeNode[T] {
	cloned := &leafNode[T]{maxSize: l.maxSize}
	cloned.items = make([]T, len(l.items), max(len(l.items), l.maxSize))
	copy(cloned.items, l.items)
	return cloned
}

// entry links a child into its parent. offset is the position of the child's
// first item relative to the parent.
type entry[T any] struct {
	offset int
	child  treeNode[T]
}

type innerNode[T any] struct {
	frozen  atomic.Bool
	maxSize int
	entries []entry[T]
	// keyed inner nodes cache the highest item of every child in highest[i].
	keyed   bool
	highest []T
}

func (n *innerNode[T]) IsLeaf() bool          { return false }
func (n *innerNode[T]) LocalCount() int       { return len(n.entries) }
func (n *innerNode[T]) IsFrozen() bool        { return n.frozen.Load() }
func (n *innerNode[T]) MaxNodeSize() int      { return n.maxSize }
func (n *innerNode[T]) Item(int) T            { panic("btree: Item called on inner node") }
func (n *innerNode[T]) Child(i int) Node[T]   { return n.entries[i].child }
func (n *innerNode[T]) ChildOffset(i int) int { return n.entries[i].offset }
func (n *innerNode[T]) freeze()               { n.frozen.Store(true) }
func (n *innerNode[T]) isFull() bool          { return len(n.entries) >= n.maxSize }
func (n *innerNode[T]) isUndersized() bool    { return len(n.entries) < n.minSize() }
func (n *innerNode[T]) canDonate() bool       { return len(n.entries) > n.minSize() }

// minSize is the soft minimum fanout. A non-root inner node with a single
// child is always undersized.
func (n *innerNode[T]) minSize() int { return max(2, n.maxSize/3) }

func (n *innerNode[T]) TotalCount() int {
	if len(n.entries) == 0 {
		return 0
	}
	last := n.entries[len(n.entries)-1]
	return last.offset + last.child.TotalCount()
}

// detachedClone duplicates the entry array. The children become shared
// between the original and the clone, so they are frozen explicitly now.
func (n *innerNode[T]) detachedClone() treeNode[T] {
	cloned := &innerNode[T]{
		maxSize: n.maxSize,
		keyed:   n.keyed,
		entries: make([]entry[T], len(n.entries), max(len(n.entries), n.maxSize+1)),
	}
	copy(cloned.entries, n.entries)
	if n.keyed {
		cloned.highest = slices.Clone(n.highest)
	}
	for _, e := range cloned.entries {
		e.child.freeze()
	}
	return cloned
}

// childForInsert selects the child receiving an insert at index: the last
// child whose offset is <= index.
func (n *innerNode[T]) childForInsert(index int) int {
	assert(len(n.entries) > 0, "childForInsert called on empty inner node")
	i, found := slices.BinarySearchFunc(n.entries, index, func(e entry[T], target int) int {
		return e.offset - target
	})
	if found {
		return i
	}
	return i - 1
}

// childForRemove selects the child owning the item at index. Every child is
// non-empty, so the owner is the last child whose offset is <= index.
func (n *innerNode[T]) childForRemove(index int) int {
	i := n.childForInsert(index)
	assert(index < n.entries[i].offset+n.entries[i].child.TotalCount(),
		"childForRemove index exceeds subtree item count")
	return i
}

// lastItem returns the highest item of a non-empty subtree of a keyed tree.
func lastItem[T any](n treeNode[T]) T {
	switch n := n.(type) {
	case *leafNode[T]:
		assert(len(n.items) > 0, "lastItem called on empty leaf")
		return n.items[len(n.items)-1]
	case *innerNode[T]:
		assert(n.keyed && len(n.highest) > 0, "lastItem called on empty or positional inner node")
		return n.highest[len(n.highest)-1]
	}
	panic("unknown tree node type")
}

// normalizeNode removes typed-nil interface wrappers.
//
// It prevents accidental non-nil interface values that wrap nil pointers.
func normalizeNode[T any](n treeNode[T]) treeNode[T] {
	switch v := n.(type) {
	case nil:
		return nil
	case *leafNode[T]:
		if v == nil {
			return nil
		}
	case *innerNode[T]:
		if v == nil {
			return nil
		}
	}
	return n
}

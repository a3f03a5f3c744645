package btree

import "slices"

// outcome is the post-operation state of a subtree, which tells the parent
// whether it has to change as well.
type outcome uint8

const (
	noChange outcome = iota
	// split: the subtree was replaced by two siblings left and right.
	split
	// undersized: the subtree fell below its minimum occupancy.
	undersized
	// aggregateChanged: the highest item of a keyed subtree changed.
	aggregateChanged
)

type result[T any] struct {
	kind        outcome
	left, right treeNode[T]
}

// --- Insert ----------------------------------------------------------------

// insertRange inserts a prefix of items at index into subtree n, which must
// not be frozen. It consumes as many items as fit before a split is needed
// and reports how many it consumed; callers loop until all items are placed.
func (t *base[T]) insertRange(n treeNode[T], index int, items []T) (int, result[T]) {
	assert(!n.IsFrozen(), "insertRange called on frozen node")
	switch n := n.(type) {
	case *leafNode[T]:
		return t.insertIntoLeaf(n, index, items)
	case *innerNode[T]:
		return t.insertIntoInner(n, index, items)
	}
	panic("unknown tree node type")
}

func (t *base[T]) insertIntoLeaf(leaf *leafNode[T], index int, items []T) (int, result[T]) {
	assert(index >= 0 && index <= len(leaf.items), "insertIntoLeaf index out of range")
	assert(len(items) > 0, "insertIntoLeaf called without items")
	if room := leaf.maxSize - len(leaf.items); room > 0 {
		k := min(room, len(items))
		leaf.items = slices.Insert(leaf.items, index, items[:k]...)
		for _, item := range items[:k] {
			t.hub.itemAdded(item, leaf)
		}
		if leaf.keyedTail(t, index+k) {
			return k, result[T]{kind: aggregateChanged}
		}
		return k, result[T]{}
	}
	left, right := t.splitLeaf(leaf)
	if mid := len(left.items); index <= mid {
		left.items = slices.Insert(left.items, index, items[0])
	} else {
		right.items = slices.Insert(right.items, index-mid, items[0])
	}
	return 1, result[T]{kind: split, left: left, right: right}
}

// keyedTail reports whether an edit ending at position end touched the last
// item of a leaf of a keyed tree.
func (l *leafNode[T]) keyedTail(t *base[T], end int) bool {
	return t.cmp != nil && end >= len(l.items)
}

func (t *base[T]) insertIntoInner(inner *innerNode[T], index int, items []T) (int, result[T]) {
	i := t.prepareToInsertAt(inner, index)
	before, hadLast := t.lastHighest(inner)
	consumed, res := t.insertRange(inner.entries[i].child, index-inner.entries[i].offset, items)
	t.shiftOffsets(inner, i+1, consumed)
	if res.kind == split {
		t.replaceWithSplit(inner, i, res.left, res.right)
	} else {
		t.refreshHighest(inner, i)
	}
	if len(inner.entries) > inner.maxSize {
		left, right := t.splitInner(inner)
		return consumed, result[T]{kind: split, left: left, right: right}
	}
	return consumed, t.aggregateOutcome(inner, before, hadLast)
}

// prepareToInsertAt selects the child receiving an insert at index and makes
// it mutable. If that child is full, it first tries to shift one element to
// an adjacent, unfrozen sibling with spare capacity, which avoids a split.
func (t *base[T]) prepareToInsertAt(inner *innerNode[T], index int) int {
	i := inner.childForInsert(index)
	child := t.autoClone(inner, i)
	if child.LocalCount() < child.MaxNodeSize() {
		return i
	}
	moved := 0
	if i > 0 && hasSpareRoom(inner.entries[i-1].child) {
		moved = t.takeFromRight(inner.entries[i-1].child, child)
		inner.entries[i].offset += moved
		if moved > 0 {
			t.refreshHighest(inner, i-1)
		}
	}
	if moved == 0 && i+1 < len(inner.entries) && hasSpareRoom(inner.entries[i+1].child) {
		moved = t.takeFromLeft(inner.entries[i+1].child, child)
		inner.entries[i+1].offset -= moved
		if moved > 0 {
			t.refreshHighest(inner, i)
		}
	}
	if moved == 0 {
		return i
	}
	i = inner.childForInsert(index)
	t.autoClone(inner, i)
	return i
}

// hasSpareRoom requires room for two elements, so that a sibling does not
// become full by receiving one.
func hasSpareRoom[T any](n treeNode[T]) bool {
	return !n.IsFrozen() && n.LocalCount() < n.MaxNodeSize()-1
}

// replaceWithSplit puts the halves of a split child into slot i and i+1.
// Offsets of later children already account for all items of both halves.
func (t *base[T]) replaceWithSplit(inner *innerNode[T], i int, left, right treeNode[T]) {
	old := inner.entries[i].child
	inner.entries[i].child = left
	rightEntry := entry[T]{offset: inner.entries[i].offset + left.TotalCount(), child: right}
	inner.entries = slices.Insert(inner.entries, i+1, rightEntry)
	if inner.keyed {
		inner.highest[i] = lastItem(left)
		inner.highest = slices.Insert(inner.highest, i+1, lastItem(right))
	}
	t.hub.nodeRemoved(old, inner)
	t.hub.nodeAdded(left, inner)
	t.hub.nodeAdded(right, inner)
}

// splitLeaf splits a leaf at its midpoint into two new leaves.
func (t *base[T]) splitLeaf(leaf *leafNode[T]) (*leafNode[T], *leafNode[T]) {
	mid := len(leaf.items) / 2
	left := t.makeLeaf(leaf.items[:mid])
	right := t.makeLeaf(leaf.items[mid:])
	left.maxSize, right.maxSize = leaf.maxSize, leaf.maxSize
	return left, right
}

// splitInner splits an inner node at its midpoint into two new inner nodes.
func (t *base[T]) splitInner(inner *innerNode[T]) (*innerNode[T], *innerNode[T]) {
	n := len(inner.entries)
	mid := n / 2
	left := &innerNode[T]{maxSize: inner.maxSize, keyed: inner.keyed,
		entries: make([]entry[T], mid, inner.maxSize+1)}
	right := &innerNode[T]{maxSize: inner.maxSize, keyed: inner.keyed,
		entries: make([]entry[T], n-mid, inner.maxSize+1)}
	copy(left.entries, inner.entries[:mid])
	copy(right.entries, inner.entries[mid:])
	shift := right.entries[0].offset
	for i := range right.entries {
		right.entries[i].offset -= shift
	}
	if inner.keyed {
		left.highest = slices.Clone(inner.highest[:mid])
		right.highest = slices.Clone(inner.highest[mid:])
	}
	return left, right
}

// --- Remove ----------------------------------------------------------------

// removeAt removes the item at index from subtree n, which must not be
// frozen.
func (t *base[T]) removeAt(n treeNode[T], index int) (T, result[T]) {
	assert(!n.IsFrozen(), "removeAt called on frozen node")
	switch n := n.(type) {
	case *leafNode[T]:
		assert(index >= 0 && index < len(n.items), "removeAt index out of range")
		item := n.items[index]
		n.items = slices.Delete(n.items, index, index+1)
		t.hub.itemRemoved(item, n)
		if n.isUndersized() {
			return item, result[T]{kind: undersized}
		}
		if n.keyedTail(t, index) {
			return item, result[T]{kind: aggregateChanged}
		}
		return item, result[T]{}
	case *innerNode[T]:
		i := n.childForRemove(index)
		child := t.autoClone(n, i)
		before, hadLast := t.lastHighest(n)
		item, res := t.removeAt(child, index-n.entries[i].offset)
		t.shiftOffsets(n, i+1, -1)
		if res.kind == undersized {
			t.handleUndersized(n, i)
		} else {
			t.refreshHighest(n, i)
		}
		if n.isUndersized() {
			return item, result[T]{kind: undersized}
		}
		return item, t.aggregateOutcome(n, before, hadLast)
	}
	panic("unknown tree node type")
}

// handleUndersized repairs the occupancy of child i of inner after a
// removal. The policy is borrow-left, borrow-right, merge-left, merge-right;
// an empty child is dropped.
func (t *base[T]) handleUndersized(inner *innerNode[T], i int) {
	child := inner.entries[i].child
	if child.TotalCount() == 0 {
		t.removeEntry(inner, i)
		t.hub.nodeRemoved(child, inner)
		return
	}
	hasLeft := i > 0
	hasRight := i+1 < len(inner.entries)
	switch {
	case hasLeft && canDonate(inner.entries[i-1].child):
		left := t.autoClone(inner, i-1)
		moved := t.takeFromLeft(child, left)
		inner.entries[i].offset -= moved
		t.refreshHighest(inner, i-1)
		t.refreshHighest(inner, i)
	case hasRight && canDonate(inner.entries[i+1].child):
		right := t.autoClone(inner, i+1)
		moved := t.takeFromRight(child, right)
		inner.entries[i+1].offset += moved
		t.refreshHighest(inner, i)
		t.refreshHighest(inner, i+1)
	case hasLeft && fitsTogether(inner.entries[i-1].child, child):
		left := t.autoClone(inner, i-1)
		moved := t.absorb(left, child)
		inner.entries[i].offset += moved
		t.removeEntry(inner, i)
		t.hub.nodeRemoved(child, inner)
		t.refreshHighest(inner, i-1)
	case hasRight && fitsTogether(child, inner.entries[i+1].child):
		right := t.autoClone(inner, i+1)
		moved := t.absorb(child, right)
		inner.entries[i+1].offset += moved
		t.removeEntry(inner, i+1)
		t.hub.nodeRemoved(right, inner)
		t.refreshHighest(inner, i)
	default:
		t.refreshHighest(inner, i)
	}
}

func isUndersized[T any](n treeNode[T]) bool {
	switch n := n.(type) {
	case *leafNode[T]:
		return n.isUndersized()
	case *innerNode[T]:
		return n.isUndersized()
	}
	return false
}

func canDonate[T any](n treeNode[T]) bool {
	switch n := n.(type) {
	case *leafNode[T]:
		return n.canDonate()
	case *innerNode[T]:
		return n.canDonate()
	}
	return false
}

func fitsTogether[T any](left, right treeNode[T]) bool {
	return left.LocalCount()+right.LocalCount() <= left.MaxNodeSize()
}

// --- Replace ---------------------------------------------------------------

// replaceAt overwrites the item at index of subtree n, which must not be
// frozen, and returns the previous item.
func (t *base[T]) replaceAt(n treeNode[T], index int, item T) T {
	assert(!n.IsFrozen(), "replaceAt called on frozen node")
	switch n := n.(type) {
	case *leafNode[T]:
		old := n.items[index]
		n.items[index] = item
		t.hub.itemRemoved(old, n)
		t.hub.itemAdded(item, n)
		return old
	case *innerNode[T]:
		i := n.childForRemove(index)
		child := t.autoClone(n, i)
		old := t.replaceAt(child, index-n.entries[i].offset, item)
		t.refreshHighest(n, i)
		return old
	}
	panic("unknown tree node type")
}

// --- Sibling transfer ------------------------------------------------------

// takeFromRight moves the first element of right to the end of dst. It
// returns the number of items moved, which is 0 if either node is frozen or
// right is empty.
func (t *base[T]) takeFromRight(dst, right treeNode[T]) int {
	if dst.IsFrozen() || right.IsFrozen() || right.LocalCount() == 0 {
		return 0
	}
	switch dst := dst.(type) {
	case *leafNode[T]:
		src := right.(*leafNode[T])
		item := src.items[0]
		src.items = slices.Delete(src.items, 0, 1)
		t.hub.itemRemoved(item, src)
		dst.items = append(dst.items, item)
		t.hub.itemAdded(item, dst)
		return 1
	case *innerNode[T]:
		src := right.(*innerNode[T])
		child := t.removeEntry(src, 0)
		t.hub.nodeRemoved(child, src)
		t.appendEntry(dst, child)
		t.hub.nodeAdded(child, dst)
		return child.TotalCount()
	}
	panic("unknown tree node type")
}

// takeFromLeft moves the last element of left to the front of dst. It
// returns the number of items moved, which is 0 if either node is frozen or
// left is empty.
func (t *base[T]) takeFromLeft(dst, left treeNode[T]) int {
	if dst.IsFrozen() || left.IsFrozen() || left.LocalCount() == 0 {
		return 0
	}
	switch dst := dst.(type) {
	case *leafNode[T]:
		src := left.(*leafNode[T])
		last := len(src.items) - 1
		item := src.items[last]
		src.items = slices.Delete(src.items, last, last+1)
		t.hub.itemRemoved(item, src)
		dst.items = slices.Insert(dst.items, 0, item)
		t.hub.itemAdded(item, dst)
		return 1
	case *innerNode[T]:
		src := left.(*innerNode[T])
		child := t.removeEntry(src, len(src.entries)-1)
		t.hub.nodeRemoved(child, src)
		t.insertEntry(dst, 0, child)
		t.hub.nodeAdded(child, dst)
		return child.TotalCount()
	}
	panic("unknown tree node type")
}

// absorb drains all elements of right into the end of dst and returns the
// number of items moved. Both nodes must be mutable.
func (t *base[T]) absorb(dst, right treeNode[T]) int {
	moved := 0
	for right.LocalCount() > 0 {
		k := t.takeFromRight(dst, right)
		assert(k > 0, "absorb could not move element")
		moved += k
	}
	return moved
}

// --- Keyed aggregates ------------------------------------------------------

func (t *base[T]) lastHighest(inner *innerNode[T]) (T, bool) {
	var zero T
	if !inner.keyed || len(inner.highest) == 0 {
		return zero, false
	}
	return inner.highest[len(inner.highest)-1], true
}

// aggregateOutcome compares the highest item of inner before and after an
// edit and reports aggregateChanged if it differs.
func (t *base[T]) aggregateOutcome(inner *innerNode[T], before T, hadLast bool) result[T] {
	if !inner.keyed {
		return result[T]{}
	}
	after, hasLast := t.lastHighest(inner)
	if hadLast != hasLast || (hasLast && t.cmp(before, after) != 0) {
		return result[T]{kind: aggregateChanged}
	}
	return result[T]{}
}

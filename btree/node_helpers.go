package btree

import "slices"

// makeLeaf materializes a new, unfrozen leaf holding a copy of items.
func (t *base[T]) makeLeaf(items []T) *leafNode[T] {
	leaf := &leafNode[T]{maxSize: t.cfg.MaxLeafSize}
	leaf.items = make([]T, len(items), max(len(items), t.cfg.MaxLeafSize))
	copy(leaf.items, items)
	return leaf
}

// makeInner materializes a new, unfrozen inner node over children, computing
// base offsets (and highest items for keyed trees).
func (t *base[T]) makeInner(children ...treeNode[T]) *innerNode[T] {
	inner := &innerNode[T]{
		maxSize: t.cfg.MaxInnerSize,
		keyed:   t.cmp != nil,
		entries: make([]entry[T], 0, max(len(children), t.cfg.MaxInnerSize+1)),
	}
	for _, child := range children {
		t.appendEntry(inner, child)
	}
	return inner
}

// appendEntry links child as the new last child of inner.
func (t *base[T]) appendEntry(inner *innerNode[T], child treeNode[T]) {
	assert(child != nil, "appendEntry called with nil child")
	inner.entries = append(inner.entries, entry[T]{offset: inner.TotalCount(), child: child})
	if inner.keyed {
		inner.highest = append(inner.highest, lastItem(child))
	}
}

// insertEntry links child at slot at, shifting the offsets of later children
// by the child's item count.
func (t *base[T]) insertEntry(inner *innerNode[T], at int, child treeNode[T]) {
	assert(at >= 0 && at <= len(inner.entries), "insertEntry index out of range")
	offset := 0
	if at > 0 {
		prev := inner.entries[at-1]
		offset = prev.offset + prev.child.TotalCount()
	}
	inner.entries = slices.Insert(inner.entries, at, entry[T]{offset: offset, child: child})
	t.shiftOffsets(inner, at+1, child.TotalCount())
	if inner.keyed {
		inner.highest = slices.Insert(inner.highest, at, lastItem(child))
	}
}

// removeEntry unlinks the child at slot at, shifting the offsets of later
// children back by the child's item count.
func (t *base[T]) removeEntry(inner *innerNode[T], at int) treeNode[T] {
	assert(at >= 0 && at < len(inner.entries), "removeEntry index out of range")
	child := inner.entries[at].child
	count := child.TotalCount()
	inner.entries = slices.Delete(inner.entries, at, at+1)
	t.shiftOffsets(inner, at, -count)
	if inner.keyed {
		inner.highest = slices.Delete(inner.highest, at, at+1)
	}
	return child
}

// shiftOffsets adds delta to the offsets of all children from slot from on.
func (t *base[T]) shiftOffsets(inner *innerNode[T], from int, delta int) {
	if delta == 0 {
		return
	}
	for i := from; i < len(inner.entries); i++ {
		inner.entries[i].offset += delta
	}
}

// rebaseOffsets recomputes all offsets from the children's item counts.
func (t *base[T]) rebaseOffsets(inner *innerNode[T]) {
	offset := 0
	for i := range inner.entries {
		inner.entries[i].offset = offset
		offset += inner.entries[i].child.TotalCount()
	}
}

// refreshHighest re-reads the highest item of child i of a keyed node.
func (t *base[T]) refreshHighest(inner *innerNode[T], i int) {
	if !inner.keyed || i < 0 || i >= len(inner.entries) {
		return
	}
	if inner.entries[i].child.TotalCount() > 0 {
		inner.highest[i] = lastItem(inner.entries[i].child)
	}
}

// refreshAllHighest re-reads the highest items of all children.
func (t *base[T]) refreshAllHighest(inner *innerNode[T]) {
	if !inner.keyed {
		return
	}
	inner.highest = inner.highest[:0]
	for _, e := range inner.entries {
		inner.highest = append(inner.highest, lastItem(e.child))
	}
}

// autoClone replaces a frozen child of parent by a detached clone and
// reports the replacement to observers. It returns the (possibly new) child.
//
// Every mutation of a child must be preceded by autoClone on its slot.
func (t *base[T]) autoClone(parent *innerNode[T], slot int) treeNode[T] {
	assert(!parent.IsFrozen(), "autoClone called on frozen parent")
	old := parent.entries[slot].child
	if !old.IsFrozen() {
		return old
	}
	cloned := old.detachedClone()
	parent.entries[slot].child = cloned
	t.hub.nodeRemoved(old, parent)
	t.hub.nodeAdded(cloned, parent)
	return cloned
}

// mutable returns n if it may be changed in place, or a detached clone of n.
// It is used when building new structure outside of a parent slot, where
// there are no observers to notify.
func (t *base[T]) mutable(n treeNode[T]) treeNode[T] {
	if n.IsFrozen() {
		return n.detachedClone()
	}
	return n
}

// subtreeHeight computes height by following the left spine.
//
// The tree enforces uniform child heights, so any root-to-leaf path yields the
// same height.
func subtreeHeight[T any](n treeNode[T]) int {
	h := 0
	cur := normalizeNode(n)
	for cur != nil {
		h++
		inner, ok := cur.(*innerNode[T])
		if !ok || len(inner.entries) == 0 {
			return h
		}
		cur = inner.entries[0].child
	}
	return 0
}

package btree

import "fmt"

// Sections and concatenation work on whole subtrees. Nodes on the seams are
// rebuilt, everything else is shared between source and result, frozen.
// Seam nodes may end up below minimum occupancy or with a single child; they
// are repaired with the removal policy before the result is installed.

// section returns a detached tree state holding count items starting at
// index. t is left unchanged.
func (t *base[T]) section(index, count int) base[T] {
	s := base[T]{cfg: t.cfg, cmp: t.cmp}
	var root treeNode[T]
	if count > 0 {
		_, rest := t.splitNode(t.root, index)
		root, _ = t.splitNode(rest, count)
		root = s.repairSeams(root, 0, count-1)
	}
	s.setRoot(root)
	return s
}

// cutSection removes count items starting at index by splitting around the
// range and joining the outer parts.
func (t *base[T]) cutSection(index, count int) {
	left, rest := t.splitNode(t.root, index)
	_, right := t.splitNode(rest, count)
	t.hub.removeAll(t.root)
	l, r := t.concatNodes(left, t.height, right, t.height)
	if r != nil {
		l = t.makeInner(l, r)
	}
	l = t.repairSeams(l, index-1, index)
	tracer().Debugf("btree: cut %d items at %d", count, index)
	t.setRoot(l)
}

// combine appends (or prepends) the contents of other. other is frozen and
// shares its nodes with t afterwards.
func (t *base[T]) combine(other *base[T], prepend bool) error {
	if other == nil {
		return fmt.Errorf("%w: nil tree", ErrUnsupported)
	}
	if other.count == 0 {
		return nil
	}
	at := t.count
	if prepend {
		at = 0
	}
	if err := t.beginChange(ChangeEvent[T]{Action: ActionAdd, Index: at, SizeChange: other.count}); err != nil {
		return err
	}
	other.Freeze()
	otherRoot, otherHeight := other.root, other.height
	if t.hub.active() {
		seen := make(map[treeNode[T]]bool)
		t.distinct(t.root, seen)
		otherRoot = t.distinct(otherRoot, seen)
	}
	t.hub.removeAll(t.root)
	var root treeNode[T]
	if t.count == 0 {
		root = otherRoot
	} else {
		left, lh, right, rh := t.root, t.height, otherRoot, otherHeight
		if prepend {
			left, lh, right, rh = otherRoot, otherHeight, t.root, t.height
		}
		l, r := t.concatNodes(left, lh, right, rh)
		root = l
		if r != nil {
			root = t.makeInner(l, r)
		}
		seam := t.count
		if prepend {
			seam = other.count
		}
		root = t.repairSeams(root, seam-1, seam)
	}
	t.setRoot(root)
	t.endChange()
	return nil
}

// repairSeams restores the occupancy of the nodes on the paths to the items
// at positions at and returns the repaired subtree. Nodes on these paths are
// copied if they are frozen. Parents are repaired before their children, so
// a chain of single-child nodes dissolves into the siblings each level gains.
// Observers are not notified; callers report the result as a new root.
func (t *base[T]) repairSeams(n treeNode[T], at ...int) treeNode[T] {
	n = normalizeNode(n)
	if n == nil || n.IsLeaf() {
		return n
	}
	hub := t.hub
	t.hub = nil
	defer func() { t.hub = hub }()
	inner := t.mutable(n).(*innerNode[T])
	t.repairLevel(inner, at)
	return inner
}

func (t *base[T]) repairLevel(inner *innerNode[T], at []int) {
	t.repairChildren(inner)
	for {
		for i, e := range inner.entries {
			if e.child.IsLeaf() {
				continue
			}
			var inside []int
			for _, pos := range at {
				if pos >= e.offset && pos < e.offset+e.child.TotalCount() {
					inside = append(inside, pos-e.offset)
				}
			}
			if len(inside) > 0 {
				t.repairLevel(t.autoClone(inner, i).(*innerNode[T]), inside)
			}
		}
		if !t.repairChildren(inner) {
			return
		}
	}
}

// repairChildren applies the removal policy to every undersized child of
// inner and reports whether the structure changed.
func (t *base[T]) repairChildren(inner *innerNode[T]) bool {
	changed := false
	for i := 0; i < len(inner.entries) && len(inner.entries) > 1; {
		child := inner.entries[i].child
		if child.TotalCount() > 0 && !isUndersized(child) {
			i++
			continue
		}
		size, local := len(inner.entries), child.LocalCount()
		t.autoClone(inner, i)
		t.handleUndersized(inner, i)
		if len(inner.entries) == size && inner.entries[i].child.LocalCount() == local {
			i++
			continue
		}
		changed = true
	}
	return changed
}

// distinct returns n, or a rebuild of n in which every node already in seen
// has been replaced by a deep copy. Nodes of the result are added to seen.
// Observers identify nodes by address, so an observed tree must not hold the
// same node twice, as appending a tree's own clone would do.
func (t *base[T]) distinct(n treeNode[T], seen map[treeNode[T]]bool) treeNode[T] {
	if seen[n] {
		return t.deepCopy(n)
	}
	seen[n] = true
	inner, ok := n.(*innerNode[T])
	if !ok {
		return n
	}
	var children []treeNode[T]
	for i, e := range inner.entries {
		child := t.distinct(e.child, seen)
		if child != e.child && children == nil {
			children = make([]treeNode[T], 0, len(inner.entries))
			for _, prev := range inner.entries[:i] {
				children = append(children, prev.child)
			}
		}
		if children != nil {
			children = append(children, child)
		}
	}
	if children == nil {
		return n
	}
	for i, e := range inner.entries {
		if children[i] == e.child {
			e.child.freeze()
		}
	}
	return t.makeInner(children...)
}

func (t *base[T]) deepCopy(n treeNode[T]) treeNode[T] {
	switch n := n.(type) {
	case *leafNode[T]:
		leaf := t.makeLeaf(n.items)
		leaf.maxSize = n.maxSize
		return leaf
	case *innerNode[T]:
		children := make([]treeNode[T], len(n.entries))
		for i, e := range n.entries {
			children[i] = t.deepCopy(e.child)
		}
		return t.makeInner(children...)
	}
	panic("unknown tree node type")
}

// splitNode splits subtree n at index into two subtrees of the same height
// as n. A side without items is returned as nil. Nodes which end up shared
// between n and a result are frozen; n itself is not modified.
func (t *base[T]) splitNode(n treeNode[T], index int) (treeNode[T], treeNode[T]) {
	n = normalizeNode(n)
	if n == nil {
		assert(index == 0, "splitNode called with nil node and non-zero index")
		return nil, nil
	}
	total := n.TotalCount()
	assert(index >= 0 && index <= total, "splitNode index out of bounds")
	if index == 0 {
		n.freeze()
		return nil, n
	}
	if index == total {
		n.freeze()
		return n, nil
	}
	switch n := n.(type) {
	case *leafNode[T]:
		return t.makeLeaf(n.items[:index]), t.makeLeaf(n.items[index:])
	case *innerNode[T]:
		slot := n.childForRemove(index)
		childLeft, childRight := t.splitNode(n.entries[slot].child, index-n.entries[slot].offset)
		leftChildren := make([]treeNode[T], 0, slot+1)
		for _, e := range n.entries[:slot] {
			e.child.freeze()
			leftChildren = append(leftChildren, e.child)
		}
		if childLeft != nil {
			leftChildren = append(leftChildren, childLeft)
		}
		rightChildren := make([]treeNode[T], 0, len(n.entries)-slot)
		if childRight != nil {
			rightChildren = append(rightChildren, childRight)
		}
		for _, e := range n.entries[slot+1:] {
			e.child.freeze()
			rightChildren = append(rightChildren, e.child)
		}
		var left, right treeNode[T]
		if len(leftChildren) > 0 {
			left = t.makeInner(leftChildren...)
		}
		if len(rightChildren) > 0 {
			right = t.makeInner(rightChildren...)
		}
		return left, right
	}
	panic("unknown tree node type")
}

// concatNodes joins two subtrees of possibly different heights. The lower
// one is hung into the facing spine of the higher one. The result is either
// a single node or, if the top level overflowed, two siblings of equal height
// which the caller has to link under a new parent.
func (t *base[T]) concatNodes(left treeNode[T], leftHeight int, right treeNode[T], rightHeight int) (treeNode[T], treeNode[T]) {
	left, right = normalizeNode(left), normalizeNode(right)
	switch {
	case left == nil:
		return right, nil
	case right == nil:
		return left, nil
	case leftHeight == rightHeight:
		return t.concatSameHeight(left, right)
	case leftHeight > rightHeight:
		inner := t.mutable(left).(*innerNode[T])
		last := len(inner.entries) - 1
		l, r := t.concatNodes(inner.entries[last].child, leftHeight-1, right, rightHeight)
		inner.entries[last].child = l
		if r != nil {
			inner.entries = append(inner.entries, entry[T]{child: r})
		}
		return t.finishSpine(inner)
	default:
		inner := t.mutable(right).(*innerNode[T])
		l, r := t.concatNodes(left, leftHeight, inner.entries[0].child, rightHeight-1)
		inner.entries[0].child = l
		if r != nil {
			inner.entries = append(inner.entries, entry[T]{})
			copy(inner.entries[2:], inner.entries[1:])
			inner.entries[1] = entry[T]{child: r}
		}
		return t.finishSpine(inner)
	}
}

// finishSpine recomputes the bookkeeping of an inner node whose children
// were replaced wholesale and splits it if it overflowed.
func (t *base[T]) finishSpine(inner *innerNode[T]) (treeNode[T], treeNode[T]) {
	t.rebaseOffsets(inner)
	t.refreshAllHighest(inner)
	if len(inner.entries) > inner.maxSize {
		l, r := t.splitInner(inner)
		return l, r
	}
	return inner, nil
}

// concatSameHeight joins two nodes of equal height. If their elements fit
// into one node, the result is a single merged node. Otherwise, if either
// side is undersized, the elements are redistributed evenly over two new
// nodes. Two healthy nodes are returned unchanged.
func (t *base[T]) concatSameHeight(left, right treeNode[T]) (treeNode[T], treeNode[T]) {
	switch l := left.(type) {
	case *leafNode[T]:
		r, ok := right.(*leafNode[T])
		assert(ok, "concatSameHeight expected leaf nodes on both sides")
		total := len(l.items) + len(r.items)
		if total > l.maxSize && !l.isUndersized() && !r.isUndersized() {
			return left, right
		}
		items := make([]T, 0, total)
		items = append(items, l.items...)
		items = append(items, r.items...)
		if total <= l.maxSize {
			return t.makeLeaf(items), nil
		}
		return t.makeLeaf(items[:total/2]), t.makeLeaf(items[total/2:])
	case *innerNode[T]:
		r, ok := right.(*innerNode[T])
		assert(ok, "concatSameHeight expected inner nodes on both sides")
		total := len(l.entries) + len(r.entries)
		if total > l.maxSize && !l.isUndersized() && !r.isUndersized() {
			return left, right
		}
		children := make([]treeNode[T], 0, total)
		children = t.relinkChildren(children, l)
		children = t.relinkChildren(children, r)
		if total <= l.maxSize {
			return t.makeInner(children...), nil
		}
		return t.makeInner(children[:total/2]...), t.makeInner(children[total/2:]...)
	}
	panic("unknown tree node type")
}

// relinkChildren collects the children of n for linking into a new parent.
// Children of a frozen node are shared with it and get frozen themselves.
func (t *base[T]) relinkChildren(dst []treeNode[T], n *innerNode[T]) []treeNode[T] {
	frozen := n.IsFrozen()
	for _, e := range n.entries {
		if frozen {
			e.child.freeze()
		}
		dst = append(dst, e.child)
	}
	return dst
}

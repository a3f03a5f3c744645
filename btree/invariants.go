package btree

import "fmt"

// Check validates structural tree invariants: child offsets, uniform leaf
// depth, node capacities, non-empty non-root nodes, the cached item count
// and, for keyed trees, the cached highest items and the overall order.
// Inner nodes below the root must have at least two children.
//
// The soft minimum occupancy is not checked otherwise.
// Check is meant for tests and debugging; it visits every node.
func (t *base[T]) Check() error {
	if t.root == nil {
		return fmt.Errorf("%w: nil root", ErrInvariant)
	}
	items, height, err := t.checkNode(t.root, true)
	if err != nil {
		return err
	}
	if height != t.height {
		return fmt.Errorf("%w: height mismatch (%d != %d)", ErrInvariant, height, t.height)
	}
	if items != t.count {
		return fmt.Errorf("%w: count mismatch (%d != %d)", ErrInvariant, items, t.count)
	}
	if t.cmp != nil {
		return t.checkOrder()
	}
	return nil
}

func (t *base[T]) checkNode(n treeNode[T], isRoot bool) (items int, height int, err error) {
	switch n := n.(type) {
	case *leafNode[T]:
		if n == nil {
			return 0, 0, fmt.Errorf("%w: nil leaf node", ErrInvariant)
		}
		if len(n.items) > n.maxSize {
			return 0, 0, fmt.Errorf("%w: leaf holds %d items, max %d", ErrInvariant, len(n.items), n.maxSize)
		}
		if len(n.items) == 0 && !isRoot {
			return 0, 0, fmt.Errorf("%w: empty non-root leaf", ErrInvariant)
		}
		return len(n.items), 1, nil
	case *innerNode[T]:
		if n == nil {
			return 0, 0, fmt.Errorf("%w: nil inner node", ErrInvariant)
		}
		if len(n.entries) == 0 {
			return 0, 0, fmt.Errorf("%w: inner node has no children", ErrInvariant)
		}
		if len(n.entries) == 1 && !isRoot {
			return 0, 0, fmt.Errorf("%w: non-root inner node with a single child", ErrInvariant)
		}
		if len(n.entries) > n.maxSize {
			return 0, 0, fmt.Errorf("%w: inner node holds %d children, max %d",
				ErrInvariant, len(n.entries), n.maxSize)
		}
		if n.keyed && len(n.highest) != len(n.entries) {
			return 0, 0, fmt.Errorf("%w: %d highest items for %d children",
				ErrInvariant, len(n.highest), len(n.entries))
		}
		var childHeight int
		for i, e := range n.entries {
			if e.child == nil {
				return 0, 0, fmt.Errorf("%w: nil child at slot %d", ErrInvariant, i)
			}
			if e.offset != items {
				return 0, 0, fmt.Errorf("%w: child %d has offset %d, expected %d",
					ErrInvariant, i, e.offset, items)
			}
			cItems, cHeight, cErr := t.checkNode(e.child, false)
			if cErr != nil {
				return 0, 0, cErr
			}
			if i == 0 {
				childHeight = cHeight
			} else if cHeight != childHeight {
				return 0, 0, fmt.Errorf("%w: non-uniform subtree heights", ErrInvariant)
			}
			if n.keyed && t.cmp(n.highest[i], lastItem(e.child)) != 0 {
				return 0, 0, fmt.Errorf("%w: stale highest item at slot %d", ErrInvariant, i)
			}
			items += cItems
		}
		return items, childHeight + 1, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown node type %T", ErrInvariant, n)
}

func (t *base[T]) checkOrder() error {
	var prev T
	var err error
	t.forEachNode(t.root, 0, func(index int, item T) bool {
		if index > 0 && t.cmp(prev, item) > 0 {
			err = fmt.Errorf("%w: items %d and %d out of order", ErrInvariant, index-1, index)
			return false
		}
		prev = item
		return true
	})
	return err
}

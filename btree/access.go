package btree

// atNode returns the item at index of subtree n.
func (t *base[T]) atNode(n treeNode[T], index int) T {
	assert(n != nil, "atNode called with nil node")
	for {
		switch node := n.(type) {
		case *leafNode[T]:
			assert(index >= 0 && index < len(node.items), "atNode index routing exceeded leaf size")
			return node.items[index]
		case *innerNode[T]:
			i := node.childForRemove(index)
			index -= node.entries[i].offset
			n = node.entries[i].child
		default:
			panic("unknown tree node type")
		}
	}
}

// First returns the first item. ok is false for an empty tree.
func (t *base[T]) First() (item T, ok bool) {
	if t.count == 0 {
		return item, false
	}
	return t.atNode(t.root, 0), true
}

// Last returns the last item. ok is false for an empty tree.
func (t *base[T]) Last() (item T, ok bool) {
	if t.count == 0 {
		return item, false
	}
	return t.atNode(t.root, t.count-1), true
}

// Items copies all items into a new slice.
func (t *base[T]) Items() []T {
	items := make([]T, 0, t.count)
	t.forEachNode(t.root, 0, func(_ int, item T) bool {
		items = append(items, item)
		return true
	})
	return items
}

package btree

import (
	"fmt"
	"iter"
)

// ForEach walks the items in order. Iteration stops early if fn returns
// false. If the tree is changed from within fn, ForEach stops and returns
// ErrConcurrentModification.
func (t *base[T]) ForEach(fn func(index int, item T) bool) error {
	if fn == nil {
		return nil
	}
	version := t.version
	var err error
	t.forEachNode(t.root, 0, func(index int, item T) bool {
		if !fn(index, item) {
			return false
		}
		if t.version != version {
			err = fmt.Errorf("%w: tree changed during ForEach", ErrConcurrentModification)
			return false
		}
		return true
	})
	return err
}

func (t *base[T]) forEachNode(n treeNode[T], start int, fn func(index int, item T) bool) bool {
	assert(n != nil, "forEachNode called with nil node")
	switch n := n.(type) {
	case *leafNode[T]:
		// a callback may modify the tree; only the slice header captured here
		// is used afterwards
		items := n.items
		for i, item := range items {
			if !fn(start+i, item) {
				return false
			}
		}
		return true
	case *innerNode[T]:
		entries := n.entries
		for _, e := range entries {
			if !t.forEachNode(e.child, start+e.offset, fn) {
				return false
			}
		}
		return true
	}
	panic("unknown tree node type")
}

// All returns an iterator over index/item pairs. It panics with
// ErrConcurrentModification if the tree is changed during iteration.
func (t *base[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		it := t.Iter()
		for it.Next() {
			if !yield(it.Index(), it.Item()) {
				return
			}
		}
		if err := it.Err(); err != nil {
			panic(err)
		}
	}
}

// Values returns an iterator over the items.
func (t *base[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range t.All() {
			if !yield(item) {
				return
			}
		}
	}
}

// Iterator walks a tree in order. It detects changes of the tree made after
// its creation on a best-effort basis: Next returns false and Err reports
// ErrConcurrentModification.
type Iterator[T any] struct {
	tree    *base[T]
	version uint64
	stack   []iterFrame[T]
	leaf    *leafNode[T]
	pos     int
	index   int
	err     error
}

type iterFrame[T any] struct {
	inner *innerNode[T]
	slot  int
}

// Iter returns an iterator positioned before the first item.
func (t *base[T]) Iter() *Iterator[T] {
	return t.IterFrom(0)
}

// IterFrom returns an iterator positioned before the item at index.
// An index at or past the end yields an exhausted iterator.
func (t *base[T]) IterFrom(index int) *Iterator[T] {
	it := &Iterator[T]{tree: t, version: t.version, index: max(index, 0) - 1}
	if index < 0 || index >= t.count {
		it.index = t.count - 1
		return it
	}
	n := t.root
	for {
		switch node := n.(type) {
		case *leafNode[T]:
			it.leaf = node
			it.pos = index - 1
			return it
		case *innerNode[T]:
			i := node.childForRemove(index)
			it.stack = append(it.stack, iterFrame[T]{inner: node, slot: i})
			index -= node.entries[i].offset
			n = node.entries[i].child
		}
	}
}

// Next advances to the next item and reports whether there is one.
func (it *Iterator[T]) Next() bool {
	if it.err != nil || it.leaf == nil {
		return false
	}
	if it.tree.version != it.version {
		it.err = fmt.Errorf("%w: tree changed during iteration", ErrConcurrentModification)
		it.leaf = nil
		return false
	}
	it.pos++
	it.index++
	if it.pos < len(it.leaf.items) {
		return true
	}
	if !it.nextLeaf() {
		it.leaf = nil
		return false
	}
	return true
}

// nextLeaf pops up the stack to the next unvisited child and descends to its
// leftmost leaf.
func (it *Iterator[T]) nextLeaf() bool {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		top.slot++
		if top.slot >= len(top.inner.entries) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		n := top.inner.entries[top.slot].child
		for {
			if leaf, ok := n.(*leafNode[T]); ok {
				it.leaf, it.pos = leaf, 0
				return len(leaf.items) > 0 || it.nextLeaf()
			}
			inner := n.(*innerNode[T])
			it.stack = append(it.stack, iterFrame[T]{inner: inner, slot: 0})
			n = inner.entries[0].child
		}
	}
	return false
}

// Item returns the current item.
func (it *Iterator[T]) Item() T {
	assert(it.leaf != nil, "Iterator.Item called without a current item")
	return it.leaf.items[it.pos]
}

// Index returns the position of the current item.
func (it *Iterator[T]) Index() int {
	return it.index
}

// Err returns the error which ended the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

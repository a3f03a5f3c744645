package alist

import (
	"iter"

	"github.com/npillmayer/alist/btree"
	"github.com/npillmayer/alist/btree/index"
)

// List is a sequence of items addressed by position.
//
// A List created by NewIndexedList keeps a secondary index, which makes
// IndexOf and Contains run in sub-linear time at the cost of some memory and
// slower writes.
type List[T comparable] struct {
	tree *btree.Tree[T]
	hash func(T) uint64 // non-nil for indexed lists
}

// NewList creates a list holding items.
func NewList[T comparable](items ...T) *List[T] {
	l := &List[T]{tree: newTree[T]()}
	if len(items) > 0 {
		_ = l.tree.InsertRange(0, items...)
	}
	return l
}

// NewIndexedList creates a list holding items, indexed by hash.
func NewIndexedList[T comparable](hash func(T) uint64, items ...T) *List[T] {
	l := NewList(items...)
	l.attachIndex(hash)
	return l
}

func (l *List[T]) attachIndex(hash func(T) uint64) {
	l.hash = hash
	if err := l.tree.AddObserver(index.New(hash)); err != nil {
		panic(err) // a fresh index cannot be attached already
	}
}

// Tree exposes the underlying tree, e.g. for observers or a Feed.
func (l *List[T]) Tree() *btree.Tree[T] {
	return l.tree
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	return l.tree.Len()
}

// At returns the item at index.
func (l *List[T]) At(index int) (T, error) {
	return l.tree.At(index)
}

// Set overwrites the item at index.
func (l *List[T]) Set(index int, item T) error {
	return l.tree.Set(index, item)
}

// Insert inserts items at index, shifting later items back.
func (l *List[T]) Insert(index int, items ...T) error {
	return l.tree.InsertRange(index, items...)
}

// Add appends items.
func (l *List[T]) Add(items ...T) error {
	return l.tree.InsertRange(l.tree.Len(), items...)
}

// RemoveAt removes the item at index.
func (l *List[T]) RemoveAt(index int) error {
	return l.tree.RemoveAt(index)
}

// RemoveRange removes count items starting at index.
func (l *List[T]) RemoveRange(index, count int) error {
	return l.tree.RemoveRange(index, count)
}

// Remove removes the first occurrence of item and reports whether there was
// one.
func (l *List[T]) Remove(item T) (bool, error) {
	i := l.IndexOf(item)
	if i < 0 {
		return false, nil
	}
	return true, l.tree.RemoveAt(i)
}

// IndexOf returns the position of the first occurrence of item, or -1.
func (l *List[T]) IndexOf(item T) int {
	return l.tree.IndexOf(item, func(a, b T) bool { return a == b })
}

// Contains reports whether item occurs in the list.
func (l *List[T]) Contains(item T) bool {
	return l.IndexOf(item) >= 0
}

// Clear removes all items.
func (l *List[T]) Clear() error {
	return l.tree.Clear()
}

// Clone returns an independent copy of l in O(1). An indexed list's clone
// gets an index of its own, built in O(n).
func (l *List[T]) Clone() *List[T] {
	return l.wrap(l.tree.Clone())
}

// Slice returns a new list holding count items starting at index. Items are
// shared with l, not copied.
func (l *List[T]) Slice(index, count int) (*List[T], error) {
	section, err := l.tree.CopySection(index, count)
	if err != nil {
		return nil, err
	}
	return l.wrap(section), nil
}

// Cut removes count items starting at index and returns them as a new list.
func (l *List[T]) Cut(index, count int) (*List[T], error) {
	section, err := l.tree.RemoveSection(index, count)
	if err != nil {
		return nil, err
	}
	return l.wrap(section), nil
}

// Concat appends all items of other. other is not changed.
func (l *List[T]) Concat(other *List[T]) error {
	return l.tree.Append(other.tree.Clone())
}

func (l *List[T]) wrap(tree *btree.Tree[T]) *List[T] {
	c := &List[T]{tree: tree}
	if l.hash != nil {
		c.attachIndex(l.hash)
	}
	return c
}

// All returns an iterator over index/item pairs.
func (l *List[T]) All() iter.Seq2[int, T] {
	return l.tree.All()
}

// Items copies all items into a new slice.
func (l *List[T]) Items() []T {
	return l.tree.Items()
}

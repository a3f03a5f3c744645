package alist

import (
	"cmp"
	"iter"

	"github.com/npillmayer/alist/btree"
)

// SortedSet is an ordered set. Besides lookup by value it offers access by
// rank: At(i) is the i-th smallest item.
type SortedSet[T any] struct {
	tree *btree.Sorted[T]
}

// NewSortedSet creates a set ordered by cmp.Compare.
func NewSortedSet[T cmp.Ordered](items ...T) *SortedSet[T] {
	return NewSortedSetFunc(cmp.Compare[T], items...)
}

// NewSortedSetFunc creates a set ordered by compare. Items comparing equal
// are considered the same item.
func NewSortedSetFunc[T any](compare func(a, b T) int, items ...T) *SortedSet[T] {
	s := &SortedSet[T]{tree: newSorted(compare)}
	_, _ = s.tree.DoRange(btree.ModeAddIfNotPresent, items...)
	return s
}

// Tree exposes the underlying tree.
func (s *SortedSet[T]) Tree() *btree.Sorted[T] {
	return s.tree
}

// Len returns the number of items.
func (s *SortedSet[T]) Len() int {
	return s.tree.Len()
}

// Add inserts item unless an equal item is present. It reports whether item
// has been added.
func (s *SortedSet[T]) Add(item T) (bool, error) {
	_, found, err := s.tree.Do(btree.ModeAddIfNotPresent, item)
	return !found && err == nil, err
}

// Remove deletes item and reports whether it was present.
func (s *SortedSet[T]) Remove(item T) (bool, error) {
	return s.tree.Remove(item)
}

// Contains reports whether an item equal to item is present.
func (s *SortedSet[T]) Contains(item T) bool {
	return s.tree.Contains(item)
}

// Rank returns the position of item, or -1 if it is not present.
func (s *SortedSet[T]) Rank(item T) int {
	return s.tree.IndexOf(item)
}

// At returns the item of rank index.
func (s *SortedSet[T]) At(index int) (T, error) {
	return s.tree.At(index)
}

// Min returns the smallest item. ok is false for an empty set.
func (s *SortedSet[T]) Min() (item T, ok bool) {
	return s.tree.First()
}

// Max returns the largest item. ok is false for an empty set.
func (s *SortedSet[T]) Max() (item T, ok bool) {
	return s.tree.Last()
}

// Clone returns an independent copy of s in O(1).
func (s *SortedSet[T]) Clone() *SortedSet[T] {
	return &SortedSet[T]{tree: s.tree.Clone()}
}

// All returns an iterator over the items in ascending order.
func (s *SortedSet[T]) All() iter.Seq[T] {
	return s.tree.Values()
}

package alist

import (
	"cmp"
	"iter"

	"github.com/npillmayer/alist/btree"
)

// Entry is a key/value pair of a Map.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Map is an ordered dictionary. Entries are kept sorted by key, so besides
// lookup by key a Map supports range queries and access by rank.
type Map[K, V any] struct {
	tree *btree.Sorted[Entry[K, V]]
}

// NewMap creates a map ordered by cmp.Compare on its keys.
func NewMap[K cmp.Ordered, V any]() *Map[K, V] {
	return NewMapFunc[K, V](cmp.Compare[K])
}

// NewMapFunc creates a map ordered by compare on its keys.
func NewMapFunc[K, V any](compare func(a, b K) int) *Map[K, V] {
	return &Map[K, V]{tree: newSorted(func(a, b Entry[K, V]) int {
		return compare(a.Key, b.Key)
	})}
}

// Tree exposes the underlying tree.
func (m *Map[K, V]) Tree() *btree.Sorted[Entry[K, V]] {
	return m.tree
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.tree.Len()
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	e, found, _ := m.tree.Do(btree.ModeRetrieve, Entry[K, V]{Key: key})
	return e.Value, found
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	return m.tree.Contains(Entry[K, V]{Key: key})
}

// Put stores value for key, replacing an existing value. It reports whether
// there was one.
func (m *Map[K, V]) Put(key K, value V) (replaced bool, err error) {
	_, replaced, err = m.tree.Do(btree.ModeAddOrReplace, Entry[K, V]{Key: key, Value: value})
	return
}

// Insert stores value for a new key. It fails with btree.ErrDuplicateKey if
// key is present.
func (m *Map[K, V]) Insert(key K, value V) error {
	_, _, err := m.tree.Do(btree.ModeAddOrThrow, Entry[K, V]{Key: key, Value: value})
	return err
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) (bool, error) {
	return m.tree.Remove(Entry[K, V]{Key: key})
}

// Keys returns all keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.tree.Len())
	for e := range m.tree.Values() {
		keys = append(keys, e.Key)
	}
	return keys
}

// All returns an iterator over all entries in key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for e := range m.tree.Values() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Range returns an iterator over the entries with lo <= key < hi. Like All
// it panics with btree.ErrConcurrentModification if the map is changed
// during iteration.
func (m *Map[K, V]) Range(lo, hi K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		from, _ := m.tree.FindLowerBound(Entry[K, V]{Key: lo})
		to, _ := m.tree.FindLowerBound(Entry[K, V]{Key: hi})
		it := m.tree.IterFrom(from)
		for it.Index()+1 < to && it.Next() {
			e := it.Item()
			if !yield(e.Key, e.Value) {
				return
			}
		}
		if err := it.Err(); err != nil {
			panic(err)
		}
	}
}

// Clone returns an independent copy of m in O(1).
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{tree: m.tree.Clone()}
}

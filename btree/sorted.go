package btree

import (
	"fmt"
	"sort"
)

// Mode selects the behaviour of Sorted.Do.
type Mode uint8

const (
	// ModeRetrieve looks the item up without changing the tree.
	ModeRetrieve Mode = iota
	// ModeReplaceIfPresent overwrites an equal item, if there is one.
	ModeReplaceIfPresent
	// ModeRemove removes an equal item, if there is one.
	ModeRemove
	// ModeAdd always inserts, after any equal items.
	ModeAdd
	// ModeAddOrReplace overwrites an equal item or inserts.
	ModeAddOrReplace
	// ModeAddIfNotPresent inserts unless an equal item exists.
	ModeAddIfNotPresent
	// ModeAddOrThrow inserts, or fails with ErrDuplicateKey if an equal item
	// exists.
	ModeAddOrThrow
)

func (m Mode) String() string {
	switch m {
	case ModeRetrieve:
		return "retrieve"
	case ModeReplaceIfPresent:
		return "replace-if-present"
	case ModeRemove:
		return "remove"
	case ModeAdd:
		return "add"
	case ModeAddOrReplace:
		return "add-or-replace"
	case ModeAddIfNotPresent:
		return "add-if-not-present"
	case ModeAddOrThrow:
		return "add-or-throw"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Sorted is a B+ tree keeping its items ordered by a comparison function.
// Inner nodes cache the highest item of every child, which makes lookups by
// key O(log n). Items comparing equal may coexist; they keep their insertion
// order.
//
// Positional reads (At, Iter, ...) and removals work as on Tree. Positional
// inserts are not offered, since they could break the order.
type Sorted[T any] struct {
	base[T]
}

// NewSorted creates an empty keyed tree ordered by cmp.
func NewSorted[T any](cmp func(a, b T) int, cfg Config) (*Sorted[T], error) {
	if cmp == nil {
		return nil, fmt.Errorf("%w: keyed tree needs a comparison function", ErrInvalidConfig)
	}
	t := &Sorted[T]{}
	if err := t.init(cfg, cmp); err != nil {
		return nil, err
	}
	return t, nil
}

// FindLowerBound returns the position of the first item not less than key.
// found reports whether the item there compares equal to key.
func (t *Sorted[T]) FindLowerBound(key T) (index int, found bool) {
	index = t.bound(key, false)
	return index, index < t.count && t.cmp(t.atNode(t.root, index), key) == 0
}

// FindUpperBound returns the position of the first item greater than key.
// found reports whether an item equal to key precedes it.
func (t *Sorted[T]) FindUpperBound(key T) (index int, found bool) {
	index = t.bound(key, true)
	return index, index > 0 && t.cmp(t.atNode(t.root, index-1), key) == 0
}

// bound descends along the cached highest items. For a lower bound it picks
// the first child whose highest item is >= key, which is the lowest child on
// ties; for an upper bound the first one whose highest item is > key.
func (t *base[T]) bound(key T, upper bool) int {
	before := func(item T) bool {
		c := t.cmp(item, key)
		return c > 0 || (!upper && c == 0)
	}
	index := 0
	n := t.root
	for {
		switch node := n.(type) {
		case *leafNode[T]:
			return index + sort.Search(len(node.items), func(i int) bool {
				return before(node.items[i])
			})
		case *innerNode[T]:
			i := sort.Search(len(node.highest), func(i int) bool {
				return before(node.highest[i])
			})
			if i == len(node.entries) {
				return index + node.TotalCount()
			}
			index += node.entries[i].offset
			n = node.entries[i].child
		default:
			panic("unknown tree node type")
		}
	}
}

// Do looks up the first item comparing equal to item and acts according to
// mode. It returns that item as prior and whether it was found, both
// referring to the state before the operation.
func (t *Sorted[T]) Do(mode Mode, item T) (prior T, found bool, err error) {
	index, found := t.FindLowerBound(item)
	if found {
		prior = t.atNode(t.root, index)
	}
	switch mode {
	case ModeRetrieve:
		return prior, found, nil
	case ModeReplaceIfPresent:
		if found {
			err = t.replaceChecked(index, item)
		}
	case ModeRemove:
		if found {
			err = t.base.RemoveAt(index)
		}
	case ModeAdd:
		err = t.insertAt(t.bound(item, true), item)
	case ModeAddOrReplace:
		if found {
			err = t.replaceChecked(index, item)
		} else {
			err = t.insertAt(index, item)
		}
	case ModeAddIfNotPresent:
		if !found {
			err = t.insertAt(index, item)
		}
	case ModeAddOrThrow:
		if found {
			err = fmt.Errorf("%w: %v", ErrDuplicateKey, item)
		} else {
			err = t.insertAt(index, item)
		}
	default:
		err = fmt.Errorf("%w: unknown mode %s", ErrUnsupported, mode)
	}
	return prior, found, err
}

// DoRange applies Do to each item in turn and returns the number of items
// which were found before their operation. It stops at the first error;
// changes made for earlier items are kept.
func (t *Sorted[T]) DoRange(mode Mode, items ...T) (int, error) {
	hits := 0
	for _, item := range items {
		_, found, err := t.Do(mode, item)
		if err != nil {
			return hits, err
		}
		if found {
			hits++
		}
	}
	return hits, nil
}

// Add inserts item after any equal items.
func (t *Sorted[T]) Add(item T) error {
	_, _, err := t.Do(ModeAdd, item)
	return err
}

// Remove removes the first item equal to item and reports whether there was
// one.
func (t *Sorted[T]) Remove(item T) (bool, error) {
	_, found, err := t.Do(ModeRemove, item)
	return found, err
}

// Contains reports whether an item equal to item is present.
func (t *Sorted[T]) Contains(item T) bool {
	_, found := t.FindLowerBound(item)
	return found
}

// IndexOf returns the position of the first item equal to item, or -1.
func (t *Sorted[T]) IndexOf(item T) int {
	if index, found := t.FindLowerBound(item); found {
		return index
	}
	return -1
}

// ReplaceAt overwrites the item at index. The new item has to fit between
// its neighbours, otherwise ReplaceAt fails with ErrUnsupported.
func (t *Sorted[T]) ReplaceAt(index int, item T) error {
	if index < 0 || index >= t.count {
		return fmt.Errorf("%w: replace at %d (len %d)", ErrIndexOutOfBounds, index, t.count)
	}
	return t.replaceChecked(index, item)
}

func (t *Sorted[T]) replaceChecked(index int, item T) error {
	if index > 0 && t.cmp(t.atNode(t.root, index-1), item) > 0 {
		return fmt.Errorf("%w: item at %d would break the order", ErrUnsupported, index)
	}
	if index+1 < t.count && t.cmp(item, t.atNode(t.root, index+1)) > 0 {
		return fmt.Errorf("%w: item at %d would break the order", ErrUnsupported, index)
	}
	ev := ChangeEvent[T]{Action: ActionReplace, Index: index, NewItems: []T{item}}
	if err := t.beginChange(ev); err != nil {
		return err
	}
	t.replaceItem(index, item)
	t.hub.checkPoint()
	return nil
}

func (t *Sorted[T]) insertAt(index int, item T) error {
	items := []T{item}
	ev := ChangeEvent[T]{Action: ActionAdd, Index: index, SizeChange: 1, NewItems: items}
	if err := t.beginChange(ev); err != nil {
		return err
	}
	t.insertItems(index, items)
	t.endChange()
	return nil
}

// Clone returns an independent keyed tree sharing all nodes with t.
func (t *Sorted[T]) Clone() *Sorted[T] {
	return &Sorted[T]{base: t.cloneBase()}
}

// CopySection returns a new keyed tree holding count items starting at
// index.
func (t *Sorted[T]) CopySection(index, count int) (*Sorted[T], error) {
	if err := t.checkRange(index, count); err != nil {
		return nil, err
	}
	return &Sorted[T]{base: t.section(index, count)}, nil
}

// RemoveSection removes count items starting at index and returns them as a
// new keyed tree.
func (t *Sorted[T]) RemoveSection(index, count int) (*Sorted[T], error) {
	if err := t.checkRange(index, count); err != nil {
		return nil, err
	}
	if err := t.beginChange(ChangeEvent[T]{Action: ActionRemove, Index: index, SizeChange: -count}); err != nil {
		return nil, err
	}
	removed := t.section(index, count)
	if count > 0 {
		t.cutSection(index, count)
	}
	t.endChange()
	return &Sorted[T]{base: removed}, nil
}

// Append appends all items of other, which must not sort before the last
// item of t. Otherwise Append fails with ErrUnsupported.
func (t *Sorted[T]) Append(other *Sorted[T]) error {
	if other == nil {
		return fmt.Errorf("%w: nil tree", ErrUnsupported)
	}
	last, ok := t.Last()
	first, otherOK := other.First()
	if ok && otherOK && t.cmp(last, first) > 0 {
		return fmt.Errorf("%w: appended items are out of order", ErrUnsupported)
	}
	return t.combine(&other.base, false)
}

// Prepend inserts all items of other in front of t. The last item of other
// must not sort after the first item of t, otherwise Prepend fails with
// ErrUnsupported.
func (t *Sorted[T]) Prepend(other *Sorted[T]) error {
	if other == nil {
		return fmt.Errorf("%w: nil tree", ErrUnsupported)
	}
	first, ok := t.First()
	last, otherOK := other.Last()
	if ok && otherOK && t.cmp(last, first) > 0 {
		return fmt.Errorf("%w: prepended items are out of order", ErrUnsupported)
	}
	return t.combine(&other.base, true)
}

// Swap exchanges the contents of two keyed trees in O(1). Both trees are
// expected to use the same ordering.
func (t *Sorted[T]) Swap(other *Sorted[T]) error {
	return t.swap(&other.base)
}

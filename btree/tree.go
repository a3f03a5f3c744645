package btree

import (
	"fmt"
)

// base is the state and behaviour shared by the positional and the keyed tree
// facade: it owns the root, the item count and the version counter.
type base[T any] struct {
	cfg     Config
	cmp     func(a, b T) int // nil for positional trees
	root    treeNode[T]      // never nil; an empty tree has an empty leaf root
	height  int              // 1 means a leaf root
	count   int
	version uint64
	hub     *hub[T]

	readOnly      bool
	handlers      []changingHandler[T]
	lastHandlerID int
}

func (t *base[T]) init(cfg Config, cmp func(a, b T) int) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	t.cfg = cfg.normalized()
	t.cmp = cmp
	t.root = t.makeLeaf(nil)
	t.height = 1
	return nil
}

// Config returns a copy of the effective tree configuration.
func (t *base[T]) Config() Config {
	return t.cfg
}

// Len returns the number of items in the tree.
func (t *base[T]) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

// Height returns the tree height, where 1 means a leaf root.
func (t *base[T]) Height() int {
	return t.height
}

// Version is incremented by every structural change.
func (t *base[T]) Version() uint64 {
	return t.version
}

// Freeze marks the root immutable in O(1). The tree itself stays writable:
// the next mutation copies the nodes on its write path, leaving the frozen
// snapshot intact for every clone sharing it.
func (t *base[T]) Freeze() {
	t.root.freeze()
}

// IsFrozen reports whether the root is currently frozen.
func (t *base[T]) IsFrozen() bool {
	return t.root.IsFrozen()
}

// MakeReadOnly turns the tree read-only: every later mutation fails with
// ErrReadOnly. This is independent of the copy-on-write freeze.
func (t *base[T]) MakeReadOnly() {
	t.readOnly = true
}

// IsReadOnly reports whether MakeReadOnly has been called.
func (t *base[T]) IsReadOnly() bool {
	return t.readOnly
}

// At returns the item at index.
func (t *base[T]) At(index int) (T, error) {
	var zero T
	if index < 0 || index >= t.count {
		return zero, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfBounds, index, t.count)
	}
	return t.atNode(t.root, index), nil
}

// RemoveAt removes the item at index.
func (t *base[T]) RemoveAt(index int) error {
	if index < 0 || index >= t.count {
		return fmt.Errorf("%w: remove at %d (len %d)", ErrIndexOutOfBounds, index, t.count)
	}
	if err := t.beginChange(ChangeEvent[T]{Action: ActionRemove, Index: index, SizeChange: -1}); err != nil {
		return err
	}
	t.removeItem(index)
	t.endChange()
	return nil
}

// RemoveRange removes count items starting at index.
func (t *base[T]) RemoveRange(index, count int) error {
	if err := t.checkRange(index, count); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if err := t.beginChange(ChangeEvent[T]{Action: ActionRemove, Index: index, SizeChange: -count}); err != nil {
		return err
	}
	t.removeItems(index, count)
	t.endChange()
	return nil
}

// Clear removes all items.
func (t *base[T]) Clear() error {
	if err := t.beginChange(ChangeEvent[T]{Action: ActionReset, SizeChange: -t.count}); err != nil {
		return err
	}
	t.root = t.makeLeaf(nil)
	t.height = 1
	t.count = 0
	t.hub.rootChanged(t.root, true)
	t.endChange()
	return nil
}

func (t *base[T]) checkRange(index, count int) error {
	if index < 0 || count < 0 || index+count > t.count {
		return fmt.Errorf("%w: range [%d,%d) (len %d)", ErrIndexOutOfBounds, index, index+count, t.count)
	}
	return nil
}

func (t *base[T]) endChange() {
	t.version++
	t.hub.checkPoint()
}

// --- Root handling ---------------------------------------------------------

// autoCloneRoot is autoClone for the root slot, which belongs to the facade.
func (t *base[T]) autoCloneRoot() {
	if !t.root.IsFrozen() {
		return
	}
	old := t.root
	t.root = old.detachedClone()
	t.hub.nodeRemoved(old, nil)
	t.hub.nodeAdded(t.root, nil)
	t.hub.rootChanged(t.root, false)
}

// promote grows the tree by one level after the root split.
func (t *base[T]) promote(left, right treeNode[T]) {
	old := t.root
	root := t.makeInner(left, right)
	t.root = root
	t.height++
	tracer().Debugf("btree: root split, height is %d", t.height)
	t.hub.nodeRemoved(old, nil)
	t.hub.nodeAdded(left, root)
	t.hub.nodeAdded(right, root)
	t.hub.rootChanged(root, false)
}

// demote shrinks the tree while the root is an inner node with a single
// child. An inner root without children is replaced by an empty leaf.
// A child adopted from a frozen root may be shared and is frozen itself.
func (t *base[T]) demote() {
	for {
		inner, ok := t.root.(*innerNode[T])
		if !ok || len(inner.entries) > 1 {
			return
		}
		t.hub.nodeRemoved(inner, nil)
		if len(inner.entries) == 0 {
			t.root = t.makeLeaf(nil)
			t.height = 1
		} else {
			t.root = inner.entries[0].child
			if inner.IsFrozen() {
				t.root.freeze()
			}
			t.height--
		}
		tracer().Debugf("btree: root collapsed, height is %d", t.height)
		t.hub.rootChanged(t.root, false)
	}
}

// setRoot installs a root built by a bulk operation and reports it to
// observers, which have been told to forget the previous contents. Inner
// roots with a single child are collapsed silently.
func (t *base[T]) setRoot(root treeNode[T]) {
	root = normalizeNode(root)
	frozen := false
	for root != nil {
		inner, ok := root.(*innerNode[T])
		if !ok || len(inner.entries) != 1 {
			break
		}
		frozen = frozen || inner.IsFrozen()
		root = inner.entries[0].child
		if frozen {
			root.freeze()
		}
	}
	if root == nil || root.TotalCount() == 0 {
		root = t.makeLeaf(nil)
	}
	t.root = root
	t.height = subtreeHeight(root)
	t.count = root.TotalCount()
	t.hub.addAll(t.root)
	t.hub.rootChanged(t.root, false)
}

// --- Item operations without notification of pre-change handlers -----------

func (t *base[T]) insertItems(index int, items []T) {
	for len(items) > 0 {
		t.autoCloneRoot()
		consumed, res := t.insertRange(t.root, index, items)
		if res.kind == split {
			t.promote(res.left, res.right)
		}
		t.count += consumed
		index += consumed
		items = items[consumed:]
	}
}

func (t *base[T]) removeItem(index int) T {
	t.autoCloneRoot()
	item, _ := t.removeAt(t.root, index)
	t.count--
	t.demote()
	return item
}

func (t *base[T]) replaceItem(index int, item T) T {
	t.autoCloneRoot()
	return t.replaceAt(t.root, index, item)
}

// removeItems removes a range item by item if it is small, and by cutting
// sections otherwise.
func (t *base[T]) removeItems(index, count int) {
	if count <= t.cfg.MaxLeafSize {
		for range count {
			t.removeItem(index)
		}
		return
	}
	t.cutSection(index, count)
}

// --- Positional facade -----------------------------------------------------

// Tree is an indexed list backed by a persistent B+ tree. Items are addressed
// by position; insertion and removal anywhere cost O(log n).
//
// A Tree must not be mutated by more than one goroutine at a time.
type Tree[T any] struct {
	base[T]
}

// New creates an empty tree. A zero Config selects default node sizes.
func New[T any](cfg Config) (*Tree[T], error) {
	t := &Tree[T]{}
	if err := t.init(cfg, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// Insert inserts item at index, 0 <= index <= Len().
func (t *Tree[T]) Insert(index int, item T) error {
	return t.InsertRange(index, item)
}

// Add appends item.
func (t *Tree[T]) Add(item T) error {
	return t.InsertRange(t.count, item)
}

// InsertRange inserts items at index, keeping their order.
func (t *Tree[T]) InsertRange(index int, items ...T) error {
	if index < 0 || index > t.count {
		return fmt.Errorf("%w: insert at %d (len %d)", ErrIndexOutOfBounds, index, t.count)
	}
	if len(items) == 0 {
		return nil
	}
	ev := ChangeEvent[T]{Action: ActionAdd, Index: index, SizeChange: len(items), NewItems: items}
	if err := t.beginChange(ev); err != nil {
		return err
	}
	t.insertItems(index, items)
	t.endChange()
	return nil
}

// Set replaces the item at index.
func (t *Tree[T]) Set(index int, item T) error {
	if index < 0 || index >= t.count {
		return fmt.Errorf("%w: set at %d (len %d)", ErrIndexOutOfBounds, index, t.count)
	}
	ev := ChangeEvent[T]{Action: ActionReplace, Index: index, NewItems: []T{item}}
	if err := t.beginChange(ev); err != nil {
		return err
	}
	t.replaceItem(index, item)
	t.hub.checkPoint()
	return nil
}

// IndexOf returns the position of the first item equal to item, or -1.
//
// If an Indexer is attached, the lookup is delegated to it and equal may be
// nil. Otherwise IndexOf scans the tree linearly using equal, and a nil
// equal finds nothing.
func (t *Tree[T]) IndexOf(item T, equal func(a, b T) bool) int {
	if idx, ok := t.hub.indexer(); ok {
		return idx.IndexOf(item)
	}
	if equal == nil {
		return -1
	}
	return t.scanIndexOf(item, equal)
}

// Clone returns an independent tree sharing all nodes with t. The root is
// frozen first, so Clone is O(1) and writes to either tree copy nodes lazily.
//
// Observers, pre-change handlers and the read-only flag are not cloned.
func (t *Tree[T]) Clone() *Tree[T] {
	return &Tree[T]{base: t.cloneBase()}
}

func (t *base[T]) cloneBase() base[T] {
	t.Freeze()
	return base[T]{
		cfg:     t.cfg,
		cmp:     t.cmp,
		root:    t.root,
		height:  t.height,
		count:   t.count,
		version: t.version,
	}
}

// CopySection returns a new tree holding count items starting at index.
// Whole nodes inside the range are shared, so this costs O(log n) rather
// than O(count).
func (t *Tree[T]) CopySection(index, count int) (*Tree[T], error) {
	if err := t.checkRange(index, count); err != nil {
		return nil, err
	}
	return &Tree[T]{base: t.section(index, count)}, nil
}

// RemoveSection removes count items starting at index and returns them as a
// new tree.
func (t *Tree[T]) RemoveSection(index, count int) (*Tree[T], error) {
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
	return &Tree[T]{base: removed}, nil
}

// Append appends all items of other. Nodes of other are shared, not copied;
// other is frozen and stays unchanged.
func (t *Tree[T]) Append(other *Tree[T]) error {
	return t.combine(&other.base, false)
}

// Prepend inserts all items of other at the front. Nodes of other are
// shared, not copied; other is frozen and stays unchanged.
func (t *Tree[T]) Prepend(other *Tree[T]) error {
	return t.combine(&other.base, true)
}

// Swap exchanges the contents of two trees in O(1). Observers, pre-change
// handlers and read-only flags stay with their tree; observers see the
// exchange as a replacement of the whole contents.
func (t *Tree[T]) Swap(other *Tree[T]) error {
	return t.swap(&other.base)
}

func (t *base[T]) swap(other *base[T]) error {
	if err := t.beginChange(ChangeEvent[T]{Action: ActionReset, SizeChange: other.count - t.count}); err != nil {
		return err
	}
	if err := other.beginChange(ChangeEvent[T]{Action: ActionReset, SizeChange: t.count - other.count}); err != nil {
		return err
	}
	t.hub.removeAll(t.root)
	other.hub.removeAll(other.root)
	t.root, other.root = other.root, t.root
	t.height, other.height = other.height, t.height
	t.count, other.count = other.count, t.count
	t.version, other.version = other.version, t.version
	if t.hub.active() {
		t.root = t.distinct(t.root, make(map[treeNode[T]]bool))
	}
	if other.hub.active() {
		other.root = other.distinct(other.root, make(map[treeNode[T]]bool))
	}
	t.hub.addAll(t.root)
	t.hub.rootChanged(t.root, false)
	other.hub.addAll(other.root)
	other.hub.rootChanged(other.root, false)
	t.endChange()
	other.endChange()
	return nil
}

func (t *base[T]) scanIndexOf(item T, equal func(a, b T) bool) int {
	found := -1
	t.forEachNode(t.root, 0, func(index int, x T) bool {
		if equal(x, item) {
			found = index
			return false
		}
		return true
	})
	return found
}

package index

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/npillmayer/alist/btree"
)

const minBuckets = 16

// parentRef locates a node within its parent. The slot is a hint: inserts
// and removals of siblings shift slots without notice, so it is verified on
// every use.
type parentRef[T any] struct {
	parent btree.Node[T]
	slot   int
}

// Index is a secondary index for a btree tree. It implements
// btree.Indexer, so a tree it is attached to answers IndexOf through it.
//
// An Index follows exactly one tree. Like the tree itself it is not safe for
// concurrent use; IndexOf may repair the index's tables.
type Index[T any] struct {
	hash     func(T) uint64
	equal    func(a, b T) bool
	attached bool
	root     btree.Node[T]
	count    int // items held by registered leaves
	buckets  []*roaring.Bitmap
	leafIDs  map[btree.Node[T]]uint32
	leaves   []btree.Node[T] // leaf by id, nil for free ids
	free     []uint32
	parents  map[btree.Node[T]]parentRef[T]
	rebuilds int
}

var _ btree.Indexer[int] = (*Index[int])(nil)

// New creates an index for comparable items, using hash to find bucket
// candidates and == to confirm them.
func New[T comparable](hash func(T) uint64) *Index[T] {
	return NewFunc(hash, func(a, b T) bool { return a == b })
}

// NewFunc creates an index with custom hash and equality functions. Items
// which are equal must have equal hashes.
func NewFunc[T any](hash func(T) uint64, equal func(a, b T) bool) *Index[T] {
	if hash == nil || equal == nil {
		panic("index: hash and equality functions required")
	}
	return &Index[T]{hash: hash, equal: equal}
}

// Len returns the number of items the index accounts for. While attached it
// equals the length of the tree.
func (x *Index[T]) Len() int {
	return x.count
}

// BucketCount returns the current size of the bucket table.
func (x *Index[T]) BucketCount() int {
	return len(x.buckets)
}

// Rebuilds returns how often the tables have been rebuilt from the tree.
func (x *Index[T]) Rebuilds() int {
	return x.rebuilds
}

// --- Observer --------------------------------------------------------------

// Attach sizes the bucket table for the tree and populates it.
func (x *Index[T]) Attach(root btree.Node[T], populate func()) error {
	if x.attached {
		return btree.ErrAlreadyAttached
	}
	x.attached = true
	x.root = root
	x.reset(root.TotalCount())
	populate()
	tracer().Debugf("index: attached, %d items in %d buckets", x.count, len(x.buckets))
	return nil
}

// Detach drops all tables. The index may be attached again afterwards.
func (x *Index[T]) Detach() {
	x.attached = false
	x.root = nil
	x.count = 0
	x.buckets = nil
	x.leafIDs = nil
	x.leaves = nil
	x.free = nil
	x.parents = nil
}

func (x *Index[T]) RootChanged(root btree.Node[T], clear bool) {
	x.root = root
	if clear {
		x.reset(root.TotalCount())
		x.AddAll(root)
		return
	}
	delete(x.parents, root)
}

func (x *Index[T]) ItemAdded(item T, leaf btree.Node[T]) {
	id, ok := x.leafIDs[leaf]
	if !ok {
		x.register(leaf) // includes item
		return
	}
	x.mark(item, id)
	x.count++
}

func (x *Index[T]) ItemRemoved(item T, leaf btree.Node[T]) {
	id, ok := x.leafIDs[leaf]
	if !ok {
		return
	}
	x.count--
	b := x.bucket(item)
	for i := range leaf.LocalCount() {
		if x.bucket(leaf.Item(i)) == b {
			return
		}
	}
	if bm := x.buckets[b]; bm != nil {
		bm.Remove(id)
	}
}

func (x *Index[T]) NodeAdded(child, parent btree.Node[T]) {
	if parent != nil {
		x.parents[child] = parentRef[T]{parent: parent, slot: slotOf(parent, child)}
	}
	if child.IsLeaf() {
		x.register(child)
		return
	}
	for i := range child.LocalCount() {
		x.parents[child.Child(i)] = parentRef[T]{parent: child, slot: i}
	}
}

func (x *Index[T]) NodeRemoved(child, parent btree.Node[T]) {
	if ref, ok := x.parents[child]; ok && ref.parent != parent {
		return // relinked already
	}
	delete(x.parents, child)
	if child.IsLeaf() {
		x.unregister(child)
	}
}

func (x *Index[T]) AddAll(n btree.Node[T]) {
	if n.IsLeaf() {
		x.register(n)
		return
	}
	for i := range n.LocalCount() {
		child := n.Child(i)
		x.parents[child] = parentRef[T]{parent: n, slot: i}
		x.AddAll(child)
	}
}

func (x *Index[T]) RemoveAll(n btree.Node[T]) {
	if n.IsLeaf() {
		x.unregister(n)
		return
	}
	for i := range n.LocalCount() {
		child := n.Child(i)
		delete(x.parents, child)
		x.RemoveAll(child)
	}
}

// CheckPoint grows the bucket table once the tree has outgrown it.
func (x *Index[T]) CheckPoint() {
	if x.attached && x.count > 2*len(x.buckets) {
		x.rebuild()
	}
}

// --- Lookup ----------------------------------------------------------------

// IndexOf returns the position of the first item equal to item, or -1.
func (x *Index[T]) IndexOf(item T) int {
	if !x.attached {
		return -1
	}
	pos, ok := x.lookup(item)
	if !ok {
		tracer().Infof("index: parent map out of sync, rebuilding")
		x.rebuild()
		pos, _ = x.lookup(item)
	}
	return pos
}

// lookup reports false if a candidate leaf could not be located.
func (x *Index[T]) lookup(item T) (int, bool) {
	bm := x.buckets[x.bucket(item)]
	if bm == nil {
		return -1, true
	}
	best := -1
	it := bm.Iterator()
	for it.HasNext() {
		leaf := x.leaves[it.Next()]
		if leaf == nil {
			continue
		}
		local := -1
		for i := range leaf.LocalCount() {
			if x.equal(leaf.Item(i), item) {
				local = i
				break
			}
		}
		if local < 0 {
			continue
		}
		base, ok := x.offsetOf(leaf)
		if !ok {
			return -1, false
		}
		if best < 0 || base+local < best {
			best = base + local
		}
	}
	return best, true
}

// offsetOf sums child offsets from n up to the root. Slot hints found stale
// are corrected on the way.
func (x *Index[T]) offsetOf(n btree.Node[T]) (int, bool) {
	pos := 0
	for steps := 0; n != x.root; steps++ {
		ref, ok := x.parents[n]
		if !ok || steps > len(x.parents) {
			return 0, false
		}
		slot := ref.slot
		if slot < 0 || slot >= ref.parent.LocalCount() || ref.parent.Child(slot) != n {
			if slot = slotOf(ref.parent, n); slot < 0 {
				return 0, false
			}
			x.parents[n] = parentRef[T]{parent: ref.parent, slot: slot}
		}
		pos += ref.parent.ChildOffset(slot)
		n = ref.parent
	}
	return pos, true
}

// --- Tables ----------------------------------------------------------------

// reset empties all tables and sizes the bucket table for n items.
func (x *Index[T]) reset(n int) {
	x.count = 0
	x.buckets = make([]*roaring.Bitmap, max(minBuckets, n*3/2))
	x.leafIDs = make(map[btree.Node[T]]uint32)
	x.leaves = nil
	x.free = nil
	x.parents = make(map[btree.Node[T]]parentRef[T])
}

func (x *Index[T]) rebuild() {
	x.reset(x.root.TotalCount())
	x.AddAll(x.root)
	x.rebuilds++
	tracer().Debugf("index: rebuilt for %d items, %d buckets", x.count, len(x.buckets))
}

func (x *Index[T]) bucket(item T) int {
	return int(x.hash(item) % uint64(len(x.buckets)))
}

func (x *Index[T]) mark(item T, id uint32) {
	b := x.bucket(item)
	if x.buckets[b] == nil {
		x.buckets[b] = roaring.New()
	}
	x.buckets[b].Add(id)
}

// register assigns an id to leaf and records all of its items.
func (x *Index[T]) register(leaf btree.Node[T]) {
	if _, ok := x.leafIDs[leaf]; ok {
		return
	}
	var id uint32
	if n := len(x.free); n > 0 {
		id = x.free[n-1]
		x.free = x.free[:n-1]
		x.leaves[id] = leaf
	} else {
		id = uint32(len(x.leaves))
		x.leaves = append(x.leaves, leaf)
	}
	x.leafIDs[leaf] = id
	for i := range leaf.LocalCount() {
		x.mark(leaf.Item(i), id)
	}
	x.count += leaf.LocalCount()
}

// unregister forgets leaf and its current items and frees its id.
func (x *Index[T]) unregister(leaf btree.Node[T]) {
	id, ok := x.leafIDs[leaf]
	if !ok {
		return
	}
	for i := range leaf.LocalCount() {
		if bm := x.buckets[x.bucket(leaf.Item(i))]; bm != nil {
			bm.Remove(id)
		}
	}
	x.count -= leaf.LocalCount()
	delete(x.leafIDs, leaf)
	x.leaves[id] = nil
	x.free = append(x.free, id)
}

func slotOf[T any](parent, child btree.Node[T]) int {
	for i := range parent.LocalCount() {
		if parent.Child(i) == child {
			return i
		}
	}
	return -1
}

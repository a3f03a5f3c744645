package btree

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestFreezeCloneIndependence(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 6, MaxInnerSize: 4})
	model := fillTree(t, tree, 500)
	tree.Freeze()
	if !tree.IsFrozen() {
		t.Fatalf("Freeze did not mark the root")
	}
	clone := tree.Clone()
	cloneModel := slices.Clone(model)

	r := rand.New(rand.NewSource(5))
	for range 300 {
		switch r.Intn(3) {
		case 0:
			pos := r.Intn(len(model) + 1)
			_ = tree.Insert(pos, -pos)
			model = slices.Insert(model, pos, -pos)
		case 1:
			pos := r.Intn(len(cloneModel))
			_ = clone.RemoveAt(pos)
			cloneModel = slices.Delete(cloneModel, pos, pos+1)
		case 2:
			pos := r.Intn(len(cloneModel))
			_ = clone.Set(pos, 7777)
			cloneModel[pos] = 7777
		}
	}
	assertTreeMatchesModel(t, tree, model)
	assertTreeMatchesModel(t, clone, cloneModel)
}

func TestWritesAfterCloneCopyOnlyThePath(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 8, MaxInnerSize: 4})
	fillTree(t, tree, 1000)
	clone := tree.Clone()
	if err := clone.Set(500, -1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// nodes on the written path are copies, all their siblings are shared
	a, b := treeNode[int](tree.root), treeNode[int](clone.root)
	index := 500
	for {
		if a == b {
			t.Fatalf("node on the write path is shared")
		}
		ai, ok := a.(*innerNode[int])
		if !ok {
			break
		}
		bi := b.(*innerNode[int])
		slot := ai.childForRemove(index)
		for i := range ai.entries {
			if i != slot && ai.entries[i].child != bi.entries[i].child {
				t.Fatalf("sibling %d off the write path was copied", i)
			}
		}
		index -= ai.entries[slot].offset
		a, b = ai.entries[slot].child, bi.entries[slot].child
	}
	if got, _ := tree.At(500); got != 500 {
		t.Fatalf("original changed: got=%d want=500", got)
	}
}

func TestConcurrentSnapshotReaders(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 8, MaxInnerSize: 4})
	model := fillTree(t, tree, 2000)
	snapshot := tree.Clone()
	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			for round := range 20 {
				sum := 0
				err := snapshot.ForEach(func(index int, item int) bool {
					if item != model[index] {
						return false
					}
					sum += item
					return true
				})
				if err != nil {
					return err
				}
				if sum != 1999*2000/2 {
					return fmt.Errorf("reader %d round %d: sum=%d", w, round, sum)
				}
			}
			return nil
		})
	}
	// the live tree keeps changing while the readers run
	for i := range 500 {
		_ = tree.Insert(i%tree.Len(), -i)
		_ = tree.RemoveAt((i * 7) % tree.Len())
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("snapshot reader failed: %v", err)
	}
	assertTreeMatchesModel(t, snapshot, model)
}

// chainTree builds a tree of 16 items whose two root children are chains of
// single-child inner nodes. Such trees are not produced by mutations, they
// stand in for subtrees shared with a snapshot.
func chainTree(t *testing.T) *Tree[int] {
	tree := makeIntTree(t, Config{MaxLeafSize: 4, MaxInnerSize: 4})
	leaves := make([]*leafNode[int], 4)
	for i := range leaves {
		leaves[i] = tree.makeLeaf([]int{4 * i, 4*i + 1, 4*i + 2, 4*i + 3})
	}
	left := tree.makeInner(tree.makeInner(leaves[0], leaves[1]))
	right := tree.makeInner(tree.makeInner(leaves[2], leaves[3]))
	tree.root = tree.makeInner(left, right)
	tree.height, tree.count = 4, 16
	return tree
}

func TestSectionOfSnapshotChainsIsIndependent(t *testing.T) {
	tree := chainTree(t)
	model := tree.Items()
	snapshot := tree.Clone()
	part, err := tree.CopySection(0, 8)
	if err != nil {
		t.Fatalf("CopySection failed: %v", err)
	}
	for i := range 8 {
		if err := part.Set(i, -i-1); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	_ = part.Insert(4, 100)
	if got := tree.Items(); !slices.Equal(got, model) {
		t.Fatalf("writes to a section leaked into its source: %v", got)
	}
	if got := snapshot.Items(); !slices.Equal(got, model) {
		t.Fatalf("writes to a section leaked into a snapshot: %v", got)
	}
	assertTreeMatchesModel(t, part, []int{-1, -2, -3, -4, 100, -5, -6, -7, -8})

	// cutting through the chains leaves well-formed trees on both sides
	rest := tree.Clone()
	removed, err := rest.RemoveSection(2, 8)
	if err != nil {
		t.Fatalf("RemoveSection failed: %v", err)
	}
	assertTreeMatchesModel(t, removed, model[2:10])
	assertTreeMatchesModel(t, rest, slices.Concat(model[:2], model[10:]))
	if got := tree.Items(); !slices.Equal(got, model) {
		t.Fatalf("RemoveSection on a clone changed its source: %v", got)
	}
}

func TestCollapsedRootOfFrozenTreeIsFrozen(t *testing.T) {
	collapse := map[string]func(tree *Tree[int], root treeNode[int]){
		"demote": func(tree *Tree[int], root treeNode[int]) {
			tree.root, tree.height, tree.count = root, 4, 8
			tree.demote()
		},
		"setRoot": func(tree *Tree[int], root treeNode[int]) {
			tree.setRoot(root)
		},
	}
	for name, fn := range collapse {
		t.Run(name, func(t *testing.T) {
			tree := makeIntTree(t, Config{MaxLeafSize: 4, MaxInnerSize: 4})
			shared := tree.makeLeaf([]int{0, 1, 2, 3})
			bottom := tree.makeInner(shared, tree.makeLeaf([]int{4, 5, 6, 7}))
			root := tree.makeInner(tree.makeInner(bottom))
			root.freeze()
			fn(tree, root)
			if tree.root != treeNode[int](bottom) || tree.Height() != 2 {
				t.Fatalf("root did not collapse onto the lowest inner node, height=%d", tree.Height())
			}
			if !bottom.IsFrozen() {
				t.Fatalf("root taken over from a frozen node is not frozen")
			}
			if err := tree.Set(0, -1); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if shared.items[0] != 0 {
				t.Fatalf("write went to a leaf shared with the frozen root: %v", shared.items)
			}
			assertTreeMatchesModel(t, tree, []int{-1, 1, 2, 3, 4, 5, 6, 7})
		})
	}
}

func TestSnapshotSurvivesShrinkingWrites(t *testing.T) {
	cfg := Config{MaxLeafSize: 4, MaxInnerSize: 4}
	for seed := int64(1); seed <= 8; seed++ {
		tree := makeIntTree(t, cfg)
		model := fillTree(t, tree, 400)
		snapshot := tree.Clone()
		r := rand.New(rand.NewSource(seed))
		for tree.Len() > 3 {
			at := r.Intn(tree.Len())
			n := 1 + r.Intn(tree.Len()-at)
			if n > tree.Len()-2 {
				n = tree.Len() - 2
			}
			removed, err := tree.RemoveSection(at, n)
			if err != nil {
				t.Fatalf("RemoveSection(%d,%d) failed: %v", at, n, err)
			}
			_ = tree.Insert(r.Intn(tree.Len()+1), -1)
			_ = tree.Set(r.Intn(tree.Len()), -2)
			_ = removed.Set(0, -3)
			_ = tree.RemoveAt(0)
		}
		assertTreeMatchesModel(t, snapshot, model)
	}
}

package btree

import (
	"errors"
	"math/bits"
	"slices"
	"testing"
)

func TestCopySectionAllRanges(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 4, MaxInnerSize: 4})
	model := fillTree(t, tree, 60)
	for start := 0; start <= len(model); start++ {
		for count := 0; start+count <= len(model); count++ {
			section, err := tree.CopySection(start, count)
			if err != nil {
				t.Fatalf("CopySection(%d,%d) failed: %v", start, count, err)
			}
			assertTreeMatchesModel(t, section, model[start:start+count])
		}
	}
	assertTreeMatchesModel(t, tree, model)
}

func TestRemoveSectionAllRanges(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 4, MaxInnerSize: 4})
	model := fillTree(t, tree, 60)
	for start := 0; start <= len(model); start++ {
		for count := 0; start+count <= len(model); count++ {
			work := tree.Clone()
			removed, err := work.RemoveSection(start, count)
			if err != nil {
				t.Fatalf("RemoveSection(%d,%d) failed: %v", start, count, err)
			}
			assertTreeMatchesModel(t, removed, model[start:start+count])
			rest := slices.Concat(model[:start], model[start+count:])
			assertTreeMatchesModel(t, work, rest)
		}
	}
	assertTreeMatchesModel(t, tree, model)
}

func TestSectionSharesWholeNodes(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 8, MaxInnerSize: 4})
	fillTree(t, tree, 1000)
	section, err := tree.CopySection(100, 800)
	if err != nil {
		t.Fatalf("CopySection failed: %v", err)
	}
	original := map[treeNode[int]]bool{}
	var collect func(n treeNode[int])
	collect = func(n treeNode[int]) {
		original[n] = true
		if inner, ok := n.(*innerNode[int]); ok {
			for _, e := range inner.entries {
				collect(e.child)
			}
		}
	}
	collect(tree.root)
	// every node reachable from both trees must be frozen, at least
	// implicitly through a frozen ancestor
	shared := 0
	var walk func(n treeNode[int], frozen bool)
	walk = func(n treeNode[int], frozen bool) {
		frozen = frozen || n.IsFrozen()
		if original[n] {
			shared++
			if !frozen {
				t.Fatalf("node shared between trees is not frozen")
			}
		}
		if inner, ok := n.(*innerNode[int]); ok {
			for _, e := range inner.entries {
				walk(e.child, frozen)
			}
		}
	}
	walk(section.root, false)
	if shared == 0 {
		t.Fatalf("CopySection copied every node")
	}
}

func TestSectionBounds(t *testing.T) {
	tree := makeIntTree(t, Config{})
	fillTree(t, tree, 10)
	if _, err := tree.CopySection(5, 6); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected ErrIndexOutOfBounds, got %v", err)
	}
	if _, err := tree.RemoveSection(-1, 2); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected ErrIndexOutOfBounds, got %v", err)
	}
}

func TestRepeatedCutsKeepTreeShallow(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 8, MaxInnerSize: 4})
	model := fillTree(t, tree, 2000)
	for tree.Len() > 16 {
		n := tree.Len() / 2
		if _, err := tree.RemoveSection(1, n); err != nil {
			t.Fatalf("RemoveSection(1,%d) failed: %v", n, err)
		}
		model = slices.Delete(model, 1, 1+n)
		// Check rejects inner nodes with a single child below the root
		assertTreeMatchesModel(t, tree, model)
		if limit := bits.Len(uint(tree.Len())); tree.Height() > limit {
			t.Fatalf("tree of %d items has height %d, limit %d", tree.Len(), tree.Height(), limit)
		}
	}
}

func TestSmallSectionIsSingleLeaf(t *testing.T) {
	tree := makeIntTree(t, Config{MaxLeafSize: 8, MaxInnerSize: 4})
	model := fillTree(t, tree, 1000)
	for start := 0; start+3 <= len(model); start += 7 {
		section, err := tree.CopySection(start, 3)
		if err != nil {
			t.Fatalf("CopySection(%d,3) failed: %v", start, err)
		}
		if section.Height() != 1 {
			t.Fatalf("section of 3 items at %d has height %d", start, section.Height())
		}
		assertTreeMatchesModel(t, section, model[start:start+3])
	}
}

func TestAppendedSectionsStayBalanced(t *testing.T) {
	cfg := Config{MaxLeafSize: 8, MaxInnerSize: 4}
	tree := makeIntTree(t, cfg)
	source := makeIntTree(t, cfg)
	sourceModel := fillTree(t, source, 500)
	var model []int
	for start := 0; start+50 <= len(sourceModel); start += 37 {
		section, err := source.CopySection(start, 13)
		if err != nil {
			t.Fatalf("CopySection failed: %v", err)
		}
		if err := tree.Append(section); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		model = append(model, sourceModel[start:start+13]...)
		assertTreeMatchesModel(t, tree, model)
		if err := tree.Prepend(section); err != nil {
			t.Fatalf("Prepend failed: %v", err)
		}
		model = append(slices.Clone(sourceModel[start:start+13]), model...)
		assertTreeMatchesModel(t, tree, model)
	}
	assertTreeMatchesModel(t, source, sourceModel)
}

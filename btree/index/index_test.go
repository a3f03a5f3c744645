package index

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/npillmayer/alist/btree"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func newIndexedTree(t *testing.T, cfg btree.Config) (*btree.Tree[int], *Index[int]) {
	t.Helper()
	tree, err := btree.New[int](cfg)
	require.NoError(t, err)
	tree.SetObserverFailureHandler(func(o btree.Observer[int], err error) {
		t.Errorf("index failed: %v", err)
	})
	idx := New(HashInteger[int])
	require.NoError(t, tree.AddObserver(idx))
	return tree, idx
}

func requireMatchesScan(t *testing.T, tree *btree.Tree[int], idx *Index[int], model []int, probes ...int) {
	t.Helper()
	require.Equal(t, len(model), idx.Len(), "index item count")
	for _, v := range probes {
		require.Equal(t, slices.Index(model, v), tree.IndexOf(v, nil), "IndexOf(%d)", v)
	}
}

func TestIndexOfFindsFirstOccurrence(t *testing.T) {
	tree, idx := newIndexedTree(t, btree.Config{MaxLeafSize: 4, MaxInnerSize: 4})
	var model []int
	for i := range 100 {
		require.NoError(t, tree.Add(i%10))
		model = append(model, i%10)
	}
	requireMatchesScan(t, tree, idx, model, -1, 0, 3, 9, 10)
	require.NoError(t, tree.RemoveRange(0, 14))
	model = model[14:]
	requireMatchesScan(t, tree, idx, model, 0, 3, 4, 5)
}

func TestIndexAttachPopulates(t *testing.T) {
	tree, err := btree.New[int](btree.Config{MaxLeafSize: 6, MaxInnerSize: 4})
	require.NoError(t, err)
	var model []int
	for i := range 300 {
		require.NoError(t, tree.Add(i*3))
		model = append(model, i*3)
	}
	idx := New(HashInteger[int])
	require.NoError(t, tree.AddObserver(idx))
	require.ErrorIs(t, tree.AddObserver(idx), btree.ErrAlreadyAttached)
	require.Equal(t, 450, idx.BucketCount())
	requireMatchesScan(t, tree, idx, model, 0, 1, 3, 450, 897, 900)

	require.True(t, tree.RemoveObserver(idx))
	require.Zero(t, idx.Len())
	require.Equal(t, -1, idx.IndexOf(3))
	require.Equal(t, 1, tree.IndexOf(3, func(a, b int) bool { return a == b }))
}

func TestIndexGrowsBucketTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "alist")
	defer teardown()

	tree, idx := newIndexedTree(t, btree.Config{})
	require.Equal(t, minBuckets, idx.BucketCount())
	var model []int
	for i := range 1000 {
		require.NoError(t, tree.Add(i))
		model = append(model, i)
	}
	require.Greater(t, idx.Rebuilds(), 0)
	require.LessOrEqual(t, idx.Len(), 2*idx.BucketCount())
	requireMatchesScan(t, tree, idx, model, 0, 17, 500, 999, 1000)
}

func TestIndexFollowsRandomEdits(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		runIndexedSequence(t, seed, 1500)
	}
}

func runIndexedSequence(t *testing.T, seed int64, steps int) {
	tree, idx := newIndexedTree(t, btree.Config{MaxLeafSize: 5, MaxInnerSize: 4})
	r := rand.New(rand.NewSource(seed))
	var model []int
	var snapshots []*btree.Tree[int]
	for step := range steps {
		switch op := r.Intn(10); {
		case op < 4:
			pos := r.Intn(len(model) + 1)
			v := r.Intn(300)
			require.NoError(t, tree.Insert(pos, v))
			model = slices.Insert(model, pos, v)
		case op < 6 && len(model) > 0:
			pos := r.Intn(len(model))
			require.NoError(t, tree.RemoveAt(pos))
			model = slices.Delete(model, pos, pos+1)
		case op == 6 && len(model) > 0:
			pos := r.Intn(len(model))
			v := r.Intn(300)
			require.NoError(t, tree.Set(pos, v))
			model[pos] = v
		case op == 7 && len(model) > 0:
			start := r.Intn(len(model))
			count := r.Intn(len(model) - start + 1)
			_, err := tree.RemoveSection(start, count)
			require.NoError(t, err)
			model = slices.Delete(model, start, start+count)
		case op == 8 && len(snapshots) > 0:
			other := snapshots[r.Intn(len(snapshots))]
			require.NoError(t, tree.Append(other.Clone()))
			model = append(model, other.Items()...)
		case op == 9:
			snapshots = append(snapshots, tree.Clone())
			if len(model) > 400 {
				require.NoError(t, tree.Clear())
				model = nil
			}
		}
		if step%25 == 0 {
			require.NoError(t, tree.Check())
			requireMatchesScan(t, tree, idx, model, r.Intn(310), r.Intn(310), r.Intn(310))
		}
	}
	probes := make([]int, 0, 310)
	for v := range 310 {
		probes = append(probes, v)
	}
	requireMatchesScan(t, tree, idx, model, probes...)
}

func TestIndexWithCustomEquality(t *testing.T) {
	type word struct {
		text  string
		count int
	}
	tree, err := btree.New[word](btree.Config{MaxLeafSize: 4, MaxInnerSize: 4})
	require.NoError(t, err)
	idx := NewFunc(func(w word) uint64 { return HashString(w.text) },
		func(a, b word) bool { return a.text == b.text })
	require.NoError(t, tree.AddObserver(idx))
	for i, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		require.NoError(t, tree.Add(word{s, i}))
	}
	require.Equal(t, 6, tree.IndexOf(word{text: "g"}, nil))
	require.Equal(t, -1, tree.IndexOf(word{text: "z"}, nil))
}

func TestHashFunctions(t *testing.T) {
	require.Equal(t, HashString("abc"), HashBytes([]byte("abc")))
	require.Equal(t, HashInteger(int64(-1)), HashInteger(^uint64(0)))
	require.NotEqual(t, HashInteger(1), HashInteger(2))
	require.Equal(t, HashAny([]int{1, 2}), HashAny([]int{1, 2}))
	require.NotEqual(t, HashAny("1"), HashAny(1))
}

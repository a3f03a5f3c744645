package alist

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedSet(t *testing.T) {
	set := NewSortedSet(5, 3, 9, 3, 1)
	require.Equal(t, 4, set.Len())
	require.Equal(t, []int{1, 3, 5, 9}, slices.Collect(set.All()))

	added, err := set.Add(4)
	require.NoError(t, err)
	require.True(t, added)
	added, err = set.Add(4)
	require.NoError(t, err)
	require.False(t, added)

	require.True(t, set.Contains(9))
	require.Equal(t, 2, set.Rank(4))
	require.Equal(t, -1, set.Rank(7))
	item, err := set.At(3)
	require.NoError(t, err)
	require.Equal(t, 5, item)
	lo, _ := set.Min()
	hi, _ := set.Max()
	require.Equal(t, 1, lo)
	require.Equal(t, 9, hi)

	clone := set.Clone()
	removed, err := set.Remove(3)
	require.NoError(t, err)
	require.True(t, removed)
	require.False(t, set.Contains(3))
	require.True(t, clone.Contains(3))
	require.NoError(t, set.Tree().Check())
}

func TestSortedSetFunc(t *testing.T) {
	set := NewSortedSetFunc(func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}, "b", "A", "c")
	added, err := set.Add("a")
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, []string{"A", "b", "c"}, slices.Collect(set.All()))
	empty := NewSortedSet[float64]()
	_, ok := empty.Min()
	require.False(t, ok)
}

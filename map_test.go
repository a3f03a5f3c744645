package alist

import (
	"fmt"
	"maps"
	"testing"

	"github.com/npillmayer/alist/btree"
	"github.com/stretchr/testify/require"
)

func TestMapOperations(t *testing.T) {
	m := NewMap[string, int]()
	replaced, err := m.Put("b", 2)
	require.NoError(t, err)
	require.False(t, replaced)
	_, _ = m.Put("a", 1)
	_, _ = m.Put("c", 3)
	replaced, err = m.Put("b", 20)
	require.NoError(t, err)
	require.True(t, replaced)

	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, 20, v)
	_, ok = m.Get("x")
	require.False(t, ok)
	require.True(t, m.Has("c"))

	require.ErrorIs(t, m.Insert("a", 100), btree.ErrDuplicateKey)
	require.NoError(t, m.Insert("d", 4))
	require.Equal(t, []string{"a", "b", "c", "d"}, m.Keys())

	deleted, err := m.Delete("a")
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, _ = m.Delete("a")
	require.False(t, deleted)
	require.Equal(t, map[string]int{"b": 20, "c": 3, "d": 4}, maps.Collect(m.All()))
}

func TestMapRange(t *testing.T) {
	m := NewMap[int, string]()
	for k := 0; k < 200; k += 2 {
		require.NoError(t, m.Insert(k, fmt.Sprint(k)))
	}
	var keys []int
	for k, v := range m.Range(15, 25) {
		require.Equal(t, fmt.Sprint(k), v)
		keys = append(keys, k)
	}
	require.Equal(t, []int{16, 18, 20, 22, 24}, keys)
	require.Empty(t, maps.Collect(m.Range(25, 15)))
	require.Len(t, maps.Collect(m.Range(-10, 1000)), 100)
	require.Empty(t, maps.Collect(m.Range(500, 600)))

	for k := range m.Range(0, 10) {
		if k == 4 {
			break
		}
	}
	require.Panics(t, func() {
		for k := range m.Range(0, 10) {
			_, _ = m.Put(k+1, "odd")
		}
	})
}

func TestMapClone(t *testing.T) {
	m := NewMapFunc[string, int](func(a, b string) int { return len(a) - len(b) })
	_, _ = m.Put("aa", 2)
	_, _ = m.Put("b", 1)
	clone := m.Clone()
	_, _ = m.Put("cc", 22)
	v, _ := m.Get("xx")
	require.Equal(t, 22, v)
	v, _ = clone.Get("xx")
	require.Equal(t, 2, v)
	require.Equal(t, []string{"b", "aa"}, clone.Keys())
}

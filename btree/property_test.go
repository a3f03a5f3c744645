package btree

import (
	"math/rand"
	"slices"
	"strconv"
	"testing"
)

// How to run:
//   - Deterministic randomized property test:
//     go test ./btree -run TestRandomizedProperty -count=1
//   - Fuzz test for this file:
//     go test ./btree -run '^$' -fuzz FuzzRandomizedProperty -fuzztime=10s

func runRandomSequence(t *testing.T, seed uint64, steps int) {
	t.Helper()
	r := rand.New(rand.NewSource(int64(seed)))
	cfg := Config{MaxLeafSize: 4 + r.Intn(8), MaxInnerSize: 4 + r.Intn(4)}
	tree := makeIntTree(t, cfg)
	model := make([]int, 0, 256)
	next := 0
	var snapshots []snapshot
	fresh := func(n int) []int {
		items := make([]int, n)
		for i := range items {
			items[i] = next
			next++
		}
		return items
	}

	for i := 0; i < steps; i++ {
		switch r.Intn(9) {
		case 0, 1:
			pos := r.Intn(len(model) + 1)
			item := fresh(1)[0]
			if err := tree.Insert(pos, item); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			model = slices.Insert(model, pos, item)
		case 2:
			pos := r.Intn(len(model) + 1)
			items := fresh(r.Intn(40))
			if err := tree.InsertRange(pos, items...); err != nil {
				t.Fatalf("InsertRange failed: %v", err)
			}
			model = slices.Insert(model, pos, items...)
		case 3:
			if len(model) == 0 {
				continue
			}
			pos := r.Intn(len(model))
			if err := tree.RemoveAt(pos); err != nil {
				t.Fatalf("RemoveAt failed: %v", err)
			}
			model = slices.Delete(model, pos, pos+1)
		case 4:
			if len(model) == 0 {
				continue
			}
			start := r.Intn(len(model))
			count := r.Intn(len(model)-start) + 1
			if err := tree.RemoveRange(start, count); err != nil {
				t.Fatalf("RemoveRange failed: %v", err)
			}
			model = slices.Delete(model, start, start+count)
		case 5:
			if len(model) == 0 {
				continue
			}
			pos := r.Intn(len(model))
			item := fresh(1)[0]
			if err := tree.Set(pos, item); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			model[pos] = item
		case 6:
			start := r.Intn(len(model) + 1)
			count := r.Intn(len(model) - start + 1)
			removed, err := tree.RemoveSection(start, count)
			if err != nil {
				t.Fatalf("RemoveSection failed: %v", err)
			}
			assertTreeMatchesModel(t, removed, model[start:start+count])
			model = slices.Delete(model, start, start+count)
		case 7:
			other := makeIntTree(t, cfg)
			items := fresh(r.Intn(60))
			_ = other.InsertRange(0, items...)
			if r.Intn(2) == 0 {
				if err := tree.Append(other); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
				model = append(model, items...)
			} else {
				if err := tree.Prepend(other); err != nil {
					t.Fatalf("Prepend failed: %v", err)
				}
				model = append(items, model...)
			}
		case 8:
			// continue on either the clone or the original; the other one
			// becomes a snapshot which must not change any more
			clone := tree.Clone()
			if r.Intn(2) == 0 {
				tree, clone = clone, tree
			}
			snapshots = append(snapshots, snapshot{tree: clone, model: slices.Clone(model)})
		}
		assertTreeMatchesModel(t, tree, model)
	}
	for _, s := range snapshots {
		assertTreeMatchesModel(t, s.tree, s.model)
	}
}

type snapshot struct {
	tree  *Tree[int]
	model []int
}

func TestRandomizedProperty(t *testing.T) {
	seeds := []uint64{1, 2, 3, 4, 7, 42, 99, 31337, 123456789}
	for _, seed := range seeds {
		t.Run("seed_"+strconv.FormatUint(seed, 10), func(t *testing.T) {
			runRandomSequence(t, seed, 200)
		})
	}
}

func FuzzRandomizedProperty(f *testing.F) {
	f.Add(uint64(1), uint8(32))
	f.Add(uint64(7), uint8(64))
	f.Add(uint64(42), uint8(96))
	f.Fuzz(func(t *testing.T, seed uint64, steps uint8) {
		runRandomSequence(t, seed, int(steps%120)+1)
	})
}

/*
Package index implements a secondary index for btree trees, answering the
reverse question "at which position is this item?" in sub-linear time.

The index is an observer plug-in. Once attached to a tree it follows every
structural change by event, keeping two tables:

  - a bucket table, which maps an item hash to the set of leaves holding an
    item with that hash. Sets are roaring bitmaps of leaf ids;
  - a parent map, which maps a node to its parent and its slot within the
    parent. The slot is a hint and is verified on use.

IndexOf hashes the item, scans the candidate leaves for an equal item and
walks the parent map up to the root, summing child offsets on the way.

	tree, _ := btree.New[string](btree.Config{})
	idx := index.New(index.HashString)
	tree.AddObserver(idx)
	...
	pos := tree.IndexOf("x", nil) // answered by idx

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file for details.
*/
package index

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'alist'
func tracer() tracing.Trace {
	return tracing.Select("alist")
}

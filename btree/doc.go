/*
Package btree provides the indexed persistent B+ tree backing the containers
of package alist.

The tree is not a search tree in the first place: items are addressed by
position, and every inner node records for each child the position of the
child's first item (its base offset). A keyed variant additionally caches the
highest item of each child, which allows ordered lookup by key on top of
positional addressing.

Features:
  - insert and remove at arbitrary positions in O(log n),
  - split propagation and sibling rebalancing for any tree height,
  - O(1) snapshots: Freeze marks the root immutable and Clone shares it;
    writers copy the nodes on their write path lazily (copy-on-write),
  - sections (CopySection, RemoveSection) and concatenation (Append,
    Prepend) which share whole subtrees instead of copying items,
  - a plug-in observer channel that reports every structural mutation, used
    by package btree/index to maintain a reverse lookup (value to position),
  - a pre-change notification able to veto a mutation before any node is
    touched,
  - best-effort detection of modification during iteration.

A live tree must not be mutated by more than one goroutine at a time. Frozen
snapshots may be read by any number of goroutines concurrently.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file for details.
*/
package btree

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'alist'
func tracer() tracing.Trace {
	return tracing.Select("alist")
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}

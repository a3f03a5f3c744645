/*
Package alist offers list, set and map containers built on an indexed,
persistent B+ tree.

All containers address their items by position in O(log n) and take O(1)
snapshots: Clone shares the complete tree with the original, and both sides
copy nodes lazily when they are written to. This makes them a good fit for
long sequences which are edited in the middle, and for readers which need a
stable view while a writer keeps going.

	list := alist.NewList("a", "b", "c")
	snapshot := list.Clone()
	list.Insert(1, "x")      // snapshot still reads a, b, c

The containers are thin layers over package btree, which is the place to go
for observers, pre-change handlers, sections and concatenation. Package
btree/index provides a secondary index which answers IndexOf in sub-linear
time. A Feed publishes committed changes of a tree to any number of
subscribers.

_________________________________________________________________________

BSD 3-Clause License

Copyright (c) 2020–21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
this list of conditions and the following disclaimer in the documentation
and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

*/
package alist

import (
	"github.com/npillmayer/alist/btree"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to a global core-tracer.
func T() tracing.Trace {
	return gtrace.CoreTracer
}

// newTree creates a tree with default configuration, which cannot fail.
func newTree[T any]() *btree.Tree[T] {
	tree, err := btree.New[T](btree.Config{})
	if err != nil {
		panic(err)
	}
	return tree
}

func newSorted[T any](compare func(a, b T) int) *btree.Sorted[T] {
	if compare == nil {
		panic("alist: comparison function required")
	}
	tree, err := btree.NewSorted(compare, btree.Config{})
	if err != nil {
		panic(err)
	}
	return tree
}

package btree

import (
	"fmt"
	"io"
	"strings"
)

type nodeids[T any] struct {
	idTable map[treeNode[T]]int
	max     int
}

func newtable[T any]() nodeids[T] {
	return nodeids[T]{
		idTable: make(map[treeNode[T]]int),
		max:     1,
	}
}

func (ids *nodeids[T]) alloc(node treeNode[T]) int {
	if id := ids.idTable[node]; id > 0 {
		return id
	}
	ids.idTable[node] = ids.max
	ids.max++
	return ids.max - 1
}

// WriteDot outputs the internal structure of the tree in Graphviz DOT format
// (for debugging purposes). Nodes shared between clones appear once per
// tree; frozen nodes are filled in a warm color.
func (t *base[T]) WriteDot(w io.Writer) error {
	var nodelist, edgelist strings.Builder
	ids := newtable[T]()
	t.dotNode(&ids, t.root, 0, &nodelist, &edgelist)
	_, err := fmt.Fprintf(w, "strict digraph {\n\tnode [fontname=Arial,fontsize=12];\n%s%s}\n",
		nodelist.String(), edgelist.String())
	if err != nil {
		tracer().Errorf("btree DOT: %s", err.Error())
	}
	return err
}

func (t *base[T]) dotNode(ids *nodeids[T], n treeNode[T], start int, nodes, edges *strings.Builder) int {
	id := ids.alloc(n)
	styles := nodeDotStyles(n.IsLeaf(), n.IsFrozen())
	switch n := n.(type) {
	case *leafNode[T]:
		label := fmt.Sprintf("%d @%d", len(n.items), start)
		if len(n.items) > 0 {
			label += fmt.Sprintf("\\n%s", dotEscape(fmt.Sprint(n.items[0])))
		}
		fmt.Fprintf(nodes, "\"%d\" [label=\"%s\"%s];\n", id, label, styles)
	case *innerNode[T]:
		fmt.Fprintf(nodes, "\"%d\" [label=%d%s];\n", id, n.TotalCount(), styles)
		for _, e := range n.entries {
			child := t.dotNode(ids, e.child, start+e.offset, nodes, edges)
			fmt.Fprintf(edges, "\"%d\" -> \"%d\";\n", id, child)
		}
	}
	return id
}

func nodeDotStyles(isleaf bool, frozen bool) string {
	s := ",style=filled"
	if isleaf {
		s += ",shape=box"
	} else {
		s += ",color=black,shape=circle"
	}
	if frozen {
		s += ",fillcolor=\"#FFBB88\""
	} else if !isleaf {
		s += ",fillcolor=\"#a3d7e4\""
	}
	return s
}

func dotEscape(s string) string {
	if r := []rune(s); len(r) > 16 {
		s = string(r[:16]) + "…"
	}
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

package btree

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// dumpItems is the number of items printed per leaf.
const dumpItems = 8

type dumpPalette struct {
	inner, leaf, frozen, dim *color.Color
}

// newDumpPalette colors output only if w is a terminal.
func newDumpPalette(w io.Writer) dumpPalette {
	p := dumpPalette{
		inner:  color.New(color.FgCyan, color.Bold),
		leaf:   color.New(color.FgGreen),
		frozen: color.New(color.FgRed),
		dim:    color.New(color.FgHiBlack),
	}
	f, ok := w.(*os.File)
	useColor := ok && term.IsTerminal(int(f.Fd()))
	for _, c := range []*color.Color{p.inner, p.leaf, p.frozen, p.dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Dump writes an indented outline of the tree structure to w, one node per
// line. Frozen nodes are marked with an asterisk (and in red on terminals).
func (t *base[T]) Dump(w io.Writer) {
	p := newDumpPalette(w)
	fmt.Fprintf(w, "tree: %d items, height %d, version %d\n", t.count, t.height, t.version)
	t.dumpNode(w, p, t.root, 0, 0, false)
}

func (t *base[T]) dumpNode(w io.Writer, p dumpPalette, n treeNode[T], depth, start int, frozen bool) {
	indent := strings.Repeat("  ", depth)
	frozen = frozen || n.IsFrozen()
	mark := " "
	if n.IsFrozen() {
		mark = p.frozen.Sprint("*")
	} else if frozen {
		mark = p.frozen.Sprint("+")
	}
	switch n := n.(type) {
	case *leafNode[T]:
		p.leaf.Fprintf(w, "%s%sleaf", indent, mark)
		fmt.Fprintf(w, " @%d [%d/%d]", start, len(n.items), n.maxSize)
		shown := n.items[:min(len(n.items), dumpItems)]
		fmt.Fprintf(w, " %v", shown)
		if len(shown) < len(n.items) {
			p.dim.Fprintf(w, " ...")
		}
		fmt.Fprintln(w)
	case *innerNode[T]:
		p.inner.Fprintf(w, "%s%sinner", indent, mark)
		fmt.Fprintf(w, " @%d [%d/%d] items=%d", start, len(n.entries), n.maxSize, n.TotalCount())
		if n.keyed && len(n.highest) > 0 {
			p.dim.Fprintf(w, " max=%v", n.highest[len(n.highest)-1])
		}
		fmt.Fprintln(w)
		for _, e := range n.entries {
			t.dumpNode(w, p, e.child, depth+1, start+e.offset, frozen)
		}
	}
}

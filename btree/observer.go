package btree

import "fmt"

// Observer receives a notification for every structural mutation of a tree.
//
// Event semantics, as relied upon by package btree/index:
//
//   - ItemAdded/ItemRemoved: a single item entered or left a leaf. The leaf
//     already reflects the change when the event fires.
//   - NodeAdded(child, parent): child has been linked into parent. A leaf
//     child brings all of its items with it; an inner child brings its
//     children, which are already known to the observer. Parent is nil for
//     the root.
//   - NodeRemoved(child, parent): child has been unlinked from parent. A
//     leaf child takes its current items with it. Unlinking an inner child
//     does not remove its children: they are relinked elsewhere or reported
//     by events of their own. Moving a node between parents is reported as
//     NodeRemoved followed by NodeAdded, and replacing a node (e.g. by its
//     clone) as NodeRemoved(old) followed by NodeAdded(new).
//   - AddAll/RemoveAll: a whole subtree entered or left the tree (bulk
//     operations such as RemoveSection or Append).
//   - RootChanged(root, clear): the tree has a new root. If clear is set, the
//     complete contents have been replaced without further events and the
//     observer has to re-populate itself from root.
//   - CheckPoint: a public operation has completed.
type Observer[T any] interface {
	// Attach is called when the observer is added to a tree. The observer
	// may call populate to receive AddAll for the current root.
	Attach(root Node[T], populate func()) error
	Detach()
	RootChanged(root Node[T], clear bool)
	ItemAdded(item T, leaf Node[T])
	ItemRemoved(item T, leaf Node[T])
	NodeAdded(child, parent Node[T])
	NodeRemoved(child, parent Node[T])
	AddAll(n Node[T])
	RemoveAll(n Node[T])
	CheckPoint()
}

// Indexer is an observer which can answer reverse lookups. If an Indexer is
// attached to a tree, the tree's IndexOf delegates to it.
type Indexer[T any] interface {
	Observer[T]
	// IndexOf returns the position of the first item equal to item, or -1.
	IndexOf(item T) int
}

// NopObserver implements Observer with no-ops. Embed it to implement only the
// events of interest.
type NopObserver[T any] struct{}

func (NopObserver[T]) Attach(Node[T], func()) error { return nil }
func (NopObserver[T]) Detach()                      {}
func (NopObserver[T]) RootChanged(Node[T], bool)    {}
func (NopObserver[T]) ItemAdded(T, Node[T])         {}
func (NopObserver[T]) ItemRemoved(T, Node[T])       {}
func (NopObserver[T]) NodeAdded(Node[T], Node[T])   {}
func (NopObserver[T]) NodeRemoved(Node[T], Node[T]) {}
func (NopObserver[T]) AddAll(Node[T])               {}
func (NopObserver[T]) RemoveAll(Node[T])            {}
func (NopObserver[T]) CheckPoint()                  {}

// FailureHandler is called with an observer and the failure it raised while
// handling an event.
type FailureHandler[T any] func(Observer[T], error)

// hub fans notifications out to the attached observers. A panic raised by an
// observer is recovered and handed to the failure handler, so the tree
// operation completes and later observers still run.
//
// A nil hub is valid and drops all notifications.
type hub[T any] struct {
	observers []Observer[T]
	onFailure FailureHandler[T]
}

func defaultFailureHandler[T any](o Observer[T], err error) {
	tracer().Errorf("observer %T failed: %v", o, err)
}

func (h *hub[T]) active() bool {
	return h != nil && len(h.observers) > 0
}

func (h *hub[T]) each(event string, fn func(Observer[T])) {
	if !h.active() {
		return
	}
	for _, o := range h.observers {
		h.call(o, event, fn)
	}
}

func (h *hub[T]) call(o Observer[T], event string, fn func(Observer[T])) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			handler := h.onFailure
			if handler == nil {
				handler = defaultFailureHandler[T]
			}
			handler(o, fmt.Errorf("%s: %w", event, err))
		}
	}()
	fn(o)
}

// parentView converts a possibly nil parent to a Node view, avoiding
// non-nil interfaces wrapping a nil pointer.
func parentView[T any](parent *innerNode[T]) Node[T] {
	if parent == nil {
		return nil
	}
	return parent
}

func (h *hub[T]) rootChanged(root treeNode[T], clear bool) {
	h.each("RootChanged", func(o Observer[T]) { o.RootChanged(root, clear) })
}

func (h *hub[T]) itemAdded(item T, leaf *leafNode[T]) {
	h.each("ItemAdded", func(o Observer[T]) { o.ItemAdded(item, leaf) })
}

func (h *hub[T]) itemRemoved(item T, leaf *leafNode[T]) {
	h.each("ItemRemoved", func(o Observer[T]) { o.ItemRemoved(item, leaf) })
}

func (h *hub[T]) nodeAdded(child treeNode[T], parent *innerNode[T]) {
	h.each("NodeAdded", func(o Observer[T]) { o.NodeAdded(child, parentView(parent)) })
}

func (h *hub[T]) nodeRemoved(child treeNode[T], parent *innerNode[T]) {
	h.each("NodeRemoved", func(o Observer[T]) { o.NodeRemoved(child, parentView(parent)) })
}

func (h *hub[T]) addAll(n treeNode[T]) {
	h.each("AddAll", func(o Observer[T]) { o.AddAll(n) })
}

func (h *hub[T]) removeAll(n treeNode[T]) {
	h.each("RemoveAll", func(o Observer[T]) { o.RemoveAll(n) })
}

func (h *hub[T]) checkPoint() {
	h.each("CheckPoint", func(o Observer[T]) { o.CheckPoint() })
}

// indexer returns the first attached observer able to answer IndexOf.
func (h *hub[T]) indexer() (Indexer[T], bool) {
	if !h.active() {
		return nil, false
	}
	for _, o := range h.observers {
		if idx, ok := o.(Indexer[T]); ok {
			return idx, true
		}
	}
	return nil, false
}

// --- Tree API --------------------------------------------------------------

// AddObserver attaches an observer. The observer's Attach is called with the
// current root and may self-populate from it.
func (t *base[T]) AddObserver(o Observer[T]) error {
	if o == nil {
		return fmt.Errorf("%w: nil observer", ErrUnsupported)
	}
	if !t.hub.active() {
		t.root = t.distinct(t.root, make(map[treeNode[T]]bool))
	}
	root := t.root
	if err := o.Attach(root, func() { o.AddAll(root) }); err != nil {
		return err
	}
	if t.hub == nil {
		t.hub = &hub[T]{}
	}
	t.hub.observers = append(t.hub.observers, o)
	tracer().Debugf("btree: attached observer %T, %d observer(s)", o, len(t.hub.observers))
	return nil
}

// RemoveObserver detaches an observer. It reports whether the observer was
// attached.
func (t *base[T]) RemoveObserver(o Observer[T]) bool {
	if t.hub == nil {
		return false
	}
	for i, attached := range t.hub.observers {
		if attached == o {
			t.hub.observers = append(t.hub.observers[:i], t.hub.observers[i+1:]...)
			o.Detach()
			return true
		}
	}
	return false
}

// ObserverCount returns the number of attached observers.
func (t *base[T]) ObserverCount() int {
	if t.hub == nil {
		return 0
	}
	return len(t.hub.observers)
}

// SetObserverFailureHandler overrides what happens to failures raised by
// observers. The default handler traces them. Failures never reach the
// caller of a tree operation.
func (t *base[T]) SetObserverFailureHandler(fn FailureHandler[T]) {
	if t.hub == nil {
		t.hub = &hub[T]{}
	}
	t.hub.onFailure = fn
}

package btree

import "fmt"

// Action classifies a pending change.
type Action uint8

const (
	ActionAdd Action = iota
	ActionRemove
	ActionReplace
	ActionMove
	ActionReset
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// ChangeEvent describes a change which is about to happen.
type ChangeEvent[T any] struct {
	Action Action
	// Index is the position of the first affected item.
	Index int
	// SizeChange is the difference in item count the change will cause.
	SizeChange int
	// NewItems are the items being added or written, if any.
	NewItems []T
}

// ChangingFunc is a pre-change handler. Returning an error vetoes the change.
type ChangingFunc[T any] func(ChangeEvent[T]) error

type changingHandler[T any] struct {
	id int
	fn ChangingFunc[T]
}

// OnChanging registers a handler which is called before every change. If the
// handler returns an error, the change is aborted before any node is touched
// and the caller receives the error wrapped with ErrVetoed.
//
// The returned function unregisters the handler.
func (t *base[T]) OnChanging(fn ChangingFunc[T]) (unsubscribe func()) {
	assert(fn != nil, "OnChanging called with nil handler")
	t.lastHandlerID++
	id := t.lastHandlerID
	t.handlers = append(t.handlers, changingHandler[T]{id: id, fn: fn})
	return func() {
		for i, h := range t.handlers {
			if h.id == id {
				t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
				return
			}
		}
	}
}

// fireChanging runs the pre-change handlers in registration order. The first
// error stops the chain.
func (t *base[T]) fireChanging(ev ChangeEvent[T]) error {
	for _, h := range t.handlers {
		if err := h.fn(ev); err != nil {
			tracer().Debugf("btree: %s at %d vetoed: %v", ev.Action, ev.Index, err)
			return fmt.Errorf("%w: %w", ErrVetoed, err)
		}
	}
	return nil
}

// beginChange checks writability and runs the pre-change handlers.
func (t *base[T]) beginChange(ev ChangeEvent[T]) error {
	if t.readOnly {
		return ErrReadOnly
	}
	return t.fireChanging(ev)
}

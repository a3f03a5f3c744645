package alist

import (
	"context"
	"fmt"
	"slices"

	"github.com/guiguan/caster"
	"github.com/npillmayer/alist/btree"
)

// Change is a committed change of a tree, as published by a Feed.
type Change[E any] struct {
	btree.ChangeEvent[E]
	// Version is the tree's version after the change.
	Version uint64
}

// Source is a tree a Feed can watch. Both *btree.Tree and *btree.Sorted are
// sources.
type Source[E any] interface {
	OnChanging(fn btree.ChangingFunc[E]) (unsubscribe func())
	AddObserver(o btree.Observer[E]) error
	RemoveObserver(o btree.Observer[E]) bool
	Version() uint64
}

// Feed broadcasts the changes of a tree to subscribers, asynchronously.
//
// A change is announced by the tree's pre-change notification and published
// once the tree reports the operation as complete, so vetoed changes are
// never published. Publishing waits until every subscriber has room for the
// change, unless the feed is lossy, in which case subscribers without room
// miss it.
type Feed[E any] struct {
	btree.NopObserver[E]
	cast     *caster.Caster
	src      Source[E]
	unsub    func()
	pending  *btree.ChangeEvent[E]
	lossy    bool
	attached bool
}

// NewFeed creates a feed. Cancelling ctx closes the feed and all of its
// subscriptions. ctx may be nil.
func NewFeed[E any](ctx context.Context) *Feed[E] {
	return &Feed[E]{cast: caster.New(ctx)}
}

// SetLossy switches between blocking and dropping publication.
func (f *Feed[E]) SetLossy(lossy bool) {
	f.lossy = lossy
}

// Watch starts publishing the changes of src. A feed watches at most one
// source at a time.
func (f *Feed[E]) Watch(src Source[E]) error {
	if f.src != nil {
		return fmt.Errorf("%w: feed is watching a tree already", btree.ErrAlreadyAttached)
	}
	if err := src.AddObserver(f); err != nil {
		return err
	}
	f.src = src
	f.unsub = src.OnChanging(func(ev btree.ChangeEvent[E]) error {
		ev.NewItems = slices.Clone(ev.NewItems) // may alias the caller's slice
		f.pending = &ev
		return nil
	})
	return nil
}

// Unwatch stops publishing changes. Subscriptions stay open.
func (f *Feed[E]) Unwatch() {
	if f.src == nil {
		return
	}
	f.unsub()
	f.src.RemoveObserver(f)
	f.src, f.unsub, f.pending = nil, nil, nil
}

// Subscribe returns a channel receiving the changes published from now on.
// The channel is closed when ctx is done or the feed is closed.
func (f *Feed[E]) Subscribe(ctx context.Context, capacity uint) (<-chan Change[E], bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok := f.cast.Sub(ctx, capacity)
	if !ok {
		return nil, false
	}
	out := make(chan Change[E], capacity)
	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-raw:
				if !ok {
					return
				}
				select {
				case out <- msg.(Change[E]):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, true
}

// Close unwatches the source and closes all subscriptions.
func (f *Feed[E]) Close() {
	f.Unwatch()
	f.cast.Close()
	T().Debugf("alist: feed closed")
}

// Attach is part of the btree.Observer interface.
func (f *Feed[E]) Attach(btree.Node[E], func()) error {
	if f.attached {
		return btree.ErrAlreadyAttached
	}
	f.attached = true
	return nil
}

// Detach is part of the btree.Observer interface.
func (f *Feed[E]) Detach() {
	f.attached = false
}

// CheckPoint publishes the change announced last.
func (f *Feed[E]) CheckPoint() {
	if f.pending == nil {
		return
	}
	c := Change[E]{ChangeEvent: *f.pending, Version: f.src.Version()}
	f.pending = nil
	if f.lossy {
		f.cast.TryPub(c)
		return
	}
	f.cast.Pub(c)
}

package btree

import "errors"

var (
	// ErrInvalidConfig signals an invalid tree configuration.
	ErrInvalidConfig = errors.New("btree: invalid configuration")
	// ErrIndexOutOfBounds signals an invalid positional index.
	ErrIndexOutOfBounds = errors.New("btree: index out of bounds")
	// ErrUnsupported signals an operation the tree variant does not support,
	// e.g. an edit of a keyed tree which would break key order.
	ErrUnsupported = errors.New("btree: operation not supported")
	// ErrReadOnly signals a mutation of a tree exposed as read-only.
	ErrReadOnly = errors.New("btree: tree is read-only")
	// ErrDuplicateKey signals that AddOrThrow found an equal key.
	ErrDuplicateKey = errors.New("btree: duplicate key")
	// ErrConcurrentModification signals that the tree changed structurally
	// while an iteration was in progress. Detection is best-effort.
	ErrConcurrentModification = errors.New("btree: tree modified during iteration")
	// ErrVetoed wraps an error raised by a pre-change handler. The tree is
	// unchanged when it is returned.
	ErrVetoed = errors.New("btree: change vetoed")
	// ErrAlreadyAttached signals an observer which is attached to a tree
	// already.
	ErrAlreadyAttached = errors.New("btree: observer already attached")
	// ErrInvariant signals a structural invariant violation found by Check.
	ErrInvariant = errors.New("btree: invariant violated")
)

package conversation

import "errors"

var (
	// ErrMalformedNode indicates a raw payload that cannot be normalized
	// into a node, usually because no id is resolvable.
	ErrMalformedNode = errors.New("malformed node payload")

	// ErrDuplicateNode indicates an insert for an id the tree already holds.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownNode indicates a lookup for an id the tree does not hold.
	ErrUnknownNode = errors.New("unknown node id")

	// ErrCycleDetected indicates that following parent links revisited a node.
	ErrCycleDetected = errors.New("cycle in node ancestry")
)

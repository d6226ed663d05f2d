package ring

import "errors"

var (
	// ErrNodeAlreadyPresent is returned by AddNode when the node's position
	// is already taken. Two different nodes that hash identically under a
	// ring's seed are indistinguishable to that ring.
	ErrNodeAlreadyPresent = errors.New("node already present in the ring")
	// ErrNodeNotPresent is returned by RemoveNode when no node occupies the
	// node's position.
	ErrNodeNotPresent = errors.New("node is not present in the ring")
	// ErrEmptyRing is returned by lookups on a ring with no nodes.
	ErrEmptyRing = errors.New("ring has no nodes")
)

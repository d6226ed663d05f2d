package ring

import (
	"cmp"
	"slices"
)

// Entry is a node placed on the ring at Hash.
type Entry[T any] struct {
	Node T
	Hash uint64
}

// Ring maps keys to nodes by consistent hashing.
// A Ring is not safe for concurrent use; callers that share one across
// goroutines must guard it, e.g. with a sync.RWMutex.
type Ring[T any] struct {
	seed    Seed
	hasher  Hasher
	entries []Entry[T] // sorted by Hash, no duplicates
}

// Option configures a Ring at construction.
type Option func(*options)

type options struct {
	hasher Hasher
}

// WithHasher replaces the default xxHash64 hasher.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		o.hasher = h
	}
}

// New creates an empty ring with a fresh random seed.
func New[T any](opts ...Option) *Ring[T] {
	o := options{hasher: xxHasher{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Ring[T]{
		seed:   NewSeed(),
		hasher: o.hasher,
	}
}

// Position returns the position of v on this ring. Positions are only
// meaningful within the ring that computed them.
func (r *Ring[T]) Position(v any) uint64 {
	return r.hasher.Sum64(r.seed, appendValue(nil, v))
}

// search returns the index of the first entry with hash >= h and whether
// that entry's hash equals h.
func (r *Ring[T]) search(h uint64) (int, bool) {
	return slices.BinarySearchFunc(r.entries, h, func(e Entry[T], target uint64) int {
		return cmp.Compare(e.Hash, target)
	})
}

// AddNode places node on the ring. It returns ErrNodeAlreadyPresent, leaving
// the ring unchanged, if another entry already has the same position.
func (r *Ring[T]) AddNode(node T) error {
	h := r.Position(node)
	idx, found := r.search(h)
	if found {
		return ErrNodeAlreadyPresent
	}
	r.entries = slices.Insert(r.entries, idx, Entry[T]{Node: node, Hash: h})
	return nil
}

// RemoveNode removes the entry at node's position. It returns
// ErrNodeNotPresent if that position is empty.
func (r *Ring[T]) RemoveNode(node T) error {
	idx, found := r.search(r.Position(node))
	if !found {
		return ErrNodeNotPresent
	}
	r.entries = slices.Delete(r.entries, idx, idx+1)
	return nil
}

// owner returns the index of the entry owning the key. The ring must not be
// empty.
func (r *Ring[T]) owner(key any) int {
	idx, _ := r.search(r.Position(key))
	// Wrap around if the key is past the last node
	if idx == len(r.entries) {
		idx = 0
	}
	return idx
}

// GetEntry returns the entry owning key: the first entry whose hash is at or
// after the key's position, wrapping to the first entry.
func (r *Ring[T]) GetEntry(key any) (Entry[T], error) {
	if len(r.entries) == 0 {
		return Entry[T]{}, ErrEmptyRing
	}
	return r.entries[r.owner(key)], nil
}

// GetNode returns the node owning key.
func (r *Ring[T]) GetNode(key any) (T, error) {
	e, err := r.GetEntry(key)
	return e.Node, err
}

// Successors returns up to n nodes starting with the owner of key and
// walking clockwise around the ring.
func (r *Ring[T]) Successors(key any, n int) ([]T, error) {
	if len(r.entries) == 0 {
		return nil, ErrEmptyRing
	}
	if n <= 0 {
		return []T{}, nil
	}
	n = min(n, len(r.entries))

	start := r.owner(key)
	result := make([]T, 0, n)
	for i := range n {
		result = append(result, r.entries[(start+i)%len(r.entries)].Node)
	}
	return result, nil
}

// Len returns the number of nodes on the ring.
func (r *Ring[T]) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in ring order.
func (r *Ring[T]) Entries() []Entry[T] {
	return slices.Clone(r.entries)
}

// Nodes returns the nodes in ring order.
func (r *Ring[T]) Nodes() []T {
	nodes := make([]T, 0, len(r.entries))
	for _, e := range r.entries {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

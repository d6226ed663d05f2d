// Package ring implements a consistent hashing ring.
// Each node occupies exactly one position, derived from a digest keyed by a
// per-ring random seed, and a key is owned by the first node at or after the
// key's position, wrapping past the largest position back to the smallest.
package ring

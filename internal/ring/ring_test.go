package ring

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// point is a node pinned to an explicit position by positionHasher.
type point struct {
	name string
	pos  uint64
}

func (p point) AppendHash(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, p.pos)
}

// positionHasher reads the position back out of 8-byte encodings, so tests
// can place nodes and keys wherever they like.
type positionHasher struct{}

func (positionHasher) Sum64(_ Seed, data []byte) uint64 {
	return binary.BigEndian.Uint64(data)
}

func newPinnedRing(t *testing.T, positions ...uint64) *Ring[point] {
	t.Helper()
	r := New[point](WithHasher(positionHasher{}))
	for _, pos := range positions {
		require.NoError(t, r.AddNode(point{name: fmt.Sprintf("n%d", pos), pos: pos}))
	}
	return r
}

func TestRing_Scenario(t *testing.T) {
	r := newPinnedRing(t, 50, 90, 10)

	tests := []struct {
		key  uint64
		want string
	}{
		{key: 30, want: "n50"},
		{key: 95, want: "n10"},
		{key: 50, want: "n50"},
		{key: 10, want: "n10"},
		{key: 0, want: "n10"},
		{key: 51, want: "n90"},
		{key: 90, want: "n90"},
		{key: 91, want: "n10"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("key-%d", tt.key), func(t *testing.T) {
			node, err := r.GetNode(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.name)
		})
	}
}

func TestRing_GetEntry(t *testing.T) {
	r := newPinnedRing(t, 10, 50, 90)

	e, err := r.GetEntry(uint64(30))
	require.NoError(t, err)
	assert.Equal(t, uint64(50), e.Hash)
	assert.Equal(t, "n50", e.Node.name)
}

func TestRing_KeyOfDifferentType(t *testing.T) {
	r := newPinnedRing(t, 10, 50, 90)

	// int, uint16 and uint64 keys all widen to the same encoding
	for _, key := range []any{30, uint16(30), uint64(30), int32(30)} {
		node, err := r.GetNode(key)
		require.NoError(t, err)
		assert.Equal(t, "n50", node.name, "key %T", key)
	}
}

func TestRing_CollisionRejected(t *testing.T) {
	r := newPinnedRing(t, 10, 50, 90)
	before := r.Entries()

	err := r.AddNode(point{name: "other", pos: 50})
	if !errors.Is(err, ErrNodeAlreadyPresent) {
		t.Fatalf("Expected ErrNodeAlreadyPresent, got %v", err)
	}

	assert.Equal(t, before, r.Entries(), "ring changed after rejected insert")
	node, err := r.GetNode(uint64(50))
	require.NoError(t, err)
	assert.Equal(t, "n50", node.name)
}

func TestRing_DuplicateNode(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.AddNode("node1"))

	err := r.AddNode("node1")
	assert.ErrorIs(t, err, ErrNodeAlreadyPresent)
	assert.Equal(t, 1, r.Len())
}

func TestRing_EmptyRing(t *testing.T) {
	r := New[string]()

	node, err := r.GetNode("any-key")
	if !errors.Is(err, ErrEmptyRing) {
		t.Errorf("Expected ErrEmptyRing for empty ring, got %v", err)
	}
	if node != "" {
		t.Errorf("Expected zero node for empty ring, got %q", node)
	}

	_, err = r.GetEntry("any-key")
	assert.ErrorIs(t, err, ErrEmptyRing)

	_, err = r.Successors("any-key", 3)
	assert.ErrorIs(t, err, ErrEmptyRing)
}

func TestRing_SingleNodeOwnsEverything(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.AddNode("only"))

	for i := range 100 {
		node, err := r.GetNode(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		assert.Equal(t, "only", node)
	}
}

func TestRing_Determinism(t *testing.T) {
	r := New[string]()
	for _, n := range []string{"node1", "node2", "node3"} {
		require.NoError(t, r.AddNode(n))
	}

	testKeys := []string{"key1", "key2", "key3", "key4", "key5", "key100", "key999"}
	for _, key := range testKeys {
		node1, err := r.GetNode(key)
		require.NoError(t, err)
		node2, err := r.GetNode(key)
		require.NoError(t, err)
		if node1 != node2 {
			t.Errorf("Determinism failed for key %s: %s != %s", key, node1, node2)
		}
	}
}

func TestRing_RemoveNode(t *testing.T) {
	r := newPinnedRing(t, 10, 50, 90)

	require.NoError(t, r.RemoveNode(point{name: "n50", pos: 50}))
	assert.Equal(t, 2, r.Len())

	// 30 now falls through to the next node
	node, err := r.GetNode(uint64(30))
	require.NoError(t, err)
	assert.Equal(t, "n90", node.name)

	err = r.RemoveNode(point{name: "n50", pos: 50})
	assert.ErrorIs(t, err, ErrNodeNotPresent)
	assert.Equal(t, 2, r.Len())
}

func TestRing_RemoveLastNode(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.AddNode("node1"))
	require.NoError(t, r.RemoveNode("node1"))

	_, err := r.GetNode("key")
	assert.ErrorIs(t, err, ErrEmptyRing)
}

func TestRing_Successors(t *testing.T) {
	r := newPinnedRing(t, 10, 50, 90)

	got, err := r.Successors(uint64(60), 3)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.name)
	}
	assert.Equal(t, []string{"n90", "n10", "n50"}, names)

	// First successor is always the owner
	owner, err := r.GetNode(uint64(60))
	require.NoError(t, err)
	assert.Equal(t, owner, got[0])
}

func TestRing_SuccessorsPartial(t *testing.T) {
	r := newPinnedRing(t, 10, 50)

	got, err := r.Successors(uint64(5), 5)
	require.NoError(t, err)
	if len(got) != 2 {
		t.Errorf("Expected 2 successors (only 2 nodes), got %d", len(got))
	}

	got, err = r.Successors(uint64(5), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRing_Nodes(t *testing.T) {
	r := newPinnedRing(t, 90, 10, 50)

	names := make([]string, 0, 3)
	for _, p := range r.Nodes() {
		names = append(names, p.name)
	}
	assert.Equal(t, []string{"n10", "n50", "n90"}, names)
}

func TestRing_EntriesIsCopy(t *testing.T) {
	r := newPinnedRing(t, 10, 50)

	entries := r.Entries()
	entries[0].Hash = 99

	assert.Equal(t, uint64(10), r.Entries()[0].Hash)
}

func TestRing_Distribution(t *testing.T) {
	r := New[string]()
	for i := range 16 {
		require.NoError(t, r.AddNode(fmt.Sprintf("node%d", i)))
	}

	distribution := make(map[string]int)
	numKeys := 10000
	for i := range numKeys {
		node, err := r.GetNode(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		distribution[node]++
	}

	// One position per node, so only sanity-check the spread
	for node, count := range distribution {
		percentage := float64(count) / float64(numKeys) * 100
		if percentage > 90 {
			t.Errorf("Node %s has %.2f%% of keys (too high)", node, percentage)
		}
	}
}

package ring

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/rfratto/kvring/hash"
	"github.com/stretchr/testify/require"
)

// Positions of nodes 1 and 2, sorted:
//
//	790229933  (1)
//	824515495  (1)
//	1021602441 (2)
//	1722258072 (2)
//	2840584532 (2)
//	3432152191 (1)
func twoNodeRing() *Ring {
	r := New(2)
	r.Insert(1)
	r.Insert(2)
	return r
}

func TestPositions(t *testing.T) {
	require.Equal(t, [Replicas]uint32{824515495, 3432152191, 790229933}, Positions(1))
	require.Equal(t, [Replicas]uint32{1722258072, 2840584532, 1021602441}, Positions(2))
}

func TestRing_Insert(t *testing.T) {
	r := twoNodeRing()

	require.Equal(t, []Entry{
		{Position: 790229933, NodeID: 1},
		{Position: 824515495, NodeID: 1},
		{Position: 1021602441, NodeID: 2},
		{Position: 1722258072, NodeID: 2},
		{Position: 2840584532, NodeID: 2},
		{Position: 3432152191, NodeID: 1},
	}, r.Entries())

	t.Run("returns positions in replica order", func(t *testing.T) {
		var r Ring
		require.Equal(t, Positions(3), r.Insert(3))
	})
}

func TestRing_Insert_Sorted(t *testing.T) {
	var (
		r   = New(0)
		rnd = rand.New(rand.NewSource(0))
		ids = rnd.Perm(200)
	)

	for n, id := range ids {
		r.Insert(id)
		require.Equal(t, (n+1)*Replicas, r.Len())
		requireSorted(t, r)
	}

	counts := map[int]int{}
	for _, e := range r.Entries() {
		counts[e.NodeID]++
	}
	require.Len(t, counts, len(ids))
	for id, c := range counts {
		require.Equal(t, Replicas, c, "node %d has the wrong number of entries", id)
	}
}

func TestRing_Remove(t *testing.T) {
	r := twoNodeRing()
	r.Insert(3)

	require.Equal(t, Replicas, r.Remove(2))
	require.Equal(t, 0, r.Remove(2), "removing twice should be a no-op")
	require.False(t, r.Contains(2))
	require.True(t, r.Contains(1))
	require.True(t, r.Contains(3))
	require.Equal(t, 2*Replicas, r.Len())
	requireSorted(t, r)

	r.Remove(1)
	r.Remove(3)
	require.Equal(t, 0, r.Len())
}

func TestRing_Route(t *testing.T) {
	r := twoNodeRing()

	tt := []struct {
		name    string
		keyHash uint32
		expect  int
	}{
		{name: "zero", keyHash: 0, expect: 1},
		{name: "below smallest", keyHash: 790229932, expect: 1},
		{name: "equal to smallest", keyHash: 790229933, expect: 1},
		{name: "equal to entry", keyHash: 824515495, expect: 2},
		{name: "inside arc", keyHash: 2000000000, expect: 2},
		{name: "below largest", keyHash: 3000000000, expect: 1},
		{name: "equal to largest", keyHash: 3432152191, expect: 1},
		{name: "wraps around", keyHash: math.MaxUint32, expect: 1},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			owner, err := r.Route(tc.keyHash)
			require.NoError(t, err)
			require.Equal(t, tc.expect, owner)
		})
	}
}

func TestRing_Route_Empty(t *testing.T) {
	var r Ring
	_, err := r.Route(0)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = r.Successor(Entry{})
	require.ErrorIs(t, err, ErrEmpty)
}

func TestRing_Route_DuplicatePositions(t *testing.T) {
	r := &Ring{entries: []Entry{
		{Position: 10, NodeID: 4},
		{Position: 10, NodeID: 7},
		{Position: 20, NodeID: 9},
	}}

	owner, err := r.Route(5)
	require.NoError(t, err)
	require.Equal(t, 4, owner, "lowest node ID should win a tie")

	owner, err = r.Successor(Entry{Position: 10, NodeID: 4})
	require.NoError(t, err)
	require.Equal(t, 7, owner)

	owner, err = r.Successor(Entry{Position: 10, NodeID: 7})
	require.NoError(t, err)
	require.Equal(t, 9, owner)
}

func TestRing_Successor(t *testing.T) {
	r := twoNodeRing()

	tt := []struct {
		name   string
		entry  Entry
		expect int
	}{
		{name: "next entry same node", entry: Entry{Position: 790229933, NodeID: 1}, expect: 1},
		{name: "next entry other node", entry: Entry{Position: 824515495, NodeID: 1}, expect: 2},
		{name: "last entry wraps", entry: Entry{Position: 3432152191, NodeID: 1}, expect: 1},
		{name: "entry not on ring", entry: Entry{Position: 2000000000, NodeID: 5}, expect: 2},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			owner, err := r.Successor(tc.entry)
			require.NoError(t, err)
			require.Equal(t, tc.expect, owner)
		})
	}
}

// TestRing_Successor_PreviousOwner enforces that the successor of a new entry
// is the node that owned that entry's position before it was inserted.
func TestRing_Successor_PreviousOwner(t *testing.T) {
	r := New(0)
	for id := 1; id <= 20; id++ {
		r.Insert(id)
	}

	const newID = 100
	before := make(map[uint32]int)
	for _, p := range Positions(newID) {
		owner, err := r.Route(p)
		require.NoError(t, err)
		before[p] = owner
	}

	for _, p := range r.Insert(newID) {
		succ, err := r.Successor(Entry{Position: p, NodeID: newID})
		require.NoError(t, err)
		if succ == newID {
			// Two replicas of the new node are adjacent; the later one's
			// successor is the previous owner.
			continue
		}
		require.Equal(t, before[p], succ)
	}
}

// TestRing_Coverage enforces that every position maps to exactly one node and
// that each entry owns the positions between the previous entry and itself.
func TestRing_Coverage(t *testing.T) {
	r := New(0)
	for id := 1; id <= 10; id++ {
		r.Insert(id)
	}
	entries := r.Entries()

	for i, e := range entries {
		// The position just below an entry routes to that entry.
		if e.Position > 0 {
			owner, err := r.Route(e.Position - 1)
			require.NoError(t, err)
			require.Equal(t, e.NodeID, owner)
		}

		// The entry's own position belongs to the next entry.
		next := entries[(i+1)%len(entries)]
		owner, err := r.Route(e.Position)
		require.NoError(t, err)
		require.Equal(t, next.NodeID, owner)
	}
}

// TestRing_Consistent enforces that changing the node set only reassigns
// keys to or from the node that changed.
func TestRing_Consistent(t *testing.T) {
	r := New(0)
	for id := 1; id <= 5; id++ {
		r.Insert(id)
	}

	keys := make([]uint32, 5000)
	rnd := rand.New(rand.NewSource(0))
	for i := range keys {
		keys[i] = hash.Key(fmt.Sprintf("key-%d", rnd.Int()))
	}

	route := func() []int {
		res := make([]int, len(keys))
		for i, k := range keys {
			owner, err := r.Route(k)
			require.NoError(t, err)
			res[i] = owner
		}
		return res
	}

	before := route()
	r.Insert(6)
	afterAdd := route()
	for i := range keys {
		if before[i] != afterAdd[i] {
			require.Equal(t, 6, afterAdd[i], "key moved to a node other than the new one")
		}
	}

	r.Remove(6)
	require.Equal(t, before, route(), "removing the new node should restore routing")

	r.Remove(3)
	afterRemove := route()
	for i := range keys {
		if before[i] != afterRemove[i] {
			require.Equal(t, 3, before[i], "key moved off a node that wasn't removed")
		}
	}
}

func TestRing_Deterministic(t *testing.T) {
	a, b := New(0), New(0)
	for _, id := range []int{5, 1, 9, 3} {
		a.Insert(id)
	}
	for _, id := range []int{3, 9, 1, 5} {
		b.Insert(id)
	}
	require.Equal(t, a.Entries(), b.Entries(), "insertion order must not affect the ring")
}

func requireSorted(t *testing.T, r *Ring) {
	t.Helper()
	entries := r.Entries()
	require.True(t, sort.SliceIsSorted(entries, func(i, j int) bool {
		return entries[i].less(entries[j])
	}), "ring entries are not sorted")
}

// BenchmarkRoute tests the routing speed of the ring.
func BenchmarkRoute(b *testing.B) {
	counts := []int{1, 10, 50, 100, 500, 1000}
	for _, count := range counts {
		b.Run(fmt.Sprintf("%d nodes", count), func(b *testing.B) {
			b.StopTimer()
			r := New(count)
			for id := 1; id <= count; id++ {
				r.Insert(id)
			}
			rnd := rand.New(rand.NewSource(0))
			b.StartTimer()

			for n := 0; n < b.N; n++ {
				_, _ = r.Route(rnd.Uint32())
			}
		})
	}
}

// BenchmarkInsert tests the cost of building a ring one node at a time.
func BenchmarkInsert(b *testing.B) {
	counts := []int{10, 100, 1000}
	for _, count := range counts {
		b.Run(fmt.Sprintf("%d nodes", count), func(b *testing.B) {
			for n := 0; n < b.N; n++ {
				r := New(count)
				for id := 1; id <= count; id++ {
					r.Insert(id)
				}
			}
		})
	}
}

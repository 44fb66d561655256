// Package ring implements the consistent hash ring used to route keys to
// nodes. Every node places Replicas entries on the ring, and ownership of a
// key is determined by finding the next entry on the ring after the key's
// position.
package ring

import (
	"errors"
	"sort"

	"github.com/rfratto/kvring/hash"
)

// Replicas is the number of entries each node places on the ring.
const Replicas = 3

// ErrEmpty is returned when routing against a ring with no entries.
var ErrEmpty = errors.New("ring has no entries")

// Entry is a single replica of a node on the ring.
type Entry struct {
	Position uint32
	NodeID   int
}

// less orders entries by position. If two entries have the same position,
// the entry with the lower node ID comes first.
func (e Entry) less(o Entry) bool {
	if e.Position == o.Position {
		return e.NodeID < o.NodeID
	}
	return e.Position < o.Position
}

// Positions returns the ring positions of the replicas for a node, in
// replica order.
func Positions(id int) [Replicas]uint32 {
	var res [Replicas]uint32
	for i := range res {
		res[i] = hash.Node(hash.ReplicaLabel(id, i))
	}
	return res
}

// Ring is a sorted set of entries. The zero value is an empty Ring ready for
// use. Ring is not goroutine safe.
type Ring struct {
	// Must be sorted at all times.
	entries []Entry
}

// New returns an empty Ring with room for capacity nodes before growing.
func New(capacity int) *Ring {
	return &Ring{entries: make([]Entry, 0, capacity*Replicas)}
}

// Insert places the replicas of node id on the ring and returns their
// positions in replica order. Insert does not check whether id is already
// present.
func (r *Ring) Insert(id int) [Replicas]uint32 {
	positions := Positions(id)

	var tail [Replicas]Entry
	for i, p := range positions {
		tail[i] = Entry{Position: p, NodeID: id}
	}
	sort.Slice(tail[:], func(i, j int) bool { return tail[i].less(tail[j]) })

	// Merge the sorted tail into the already-sorted entries, filling from the
	// back so no scratch buffer is needed.
	var (
		prefix = len(r.entries)
		i      = prefix - 1
		j      = Replicas - 1
	)
	r.entries = append(r.entries, tail[:]...)
	for k := len(r.entries) - 1; j >= 0; k-- {
		if i >= 0 && tail[j].less(r.entries[i]) {
			r.entries[k] = r.entries[i]
			i--
		} else {
			r.entries[k] = tail[j]
			j--
		}
	}

	return positions
}

// Remove removes every entry for node id, returning how many were removed.
func (r *Ring) Remove(id int) int {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.NodeID != id {
			kept = append(kept, e)
		}
	}
	removed := len(r.entries) - len(kept)

	// Clear the unused tail so the backing array doesn't look populated.
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = Entry{}
	}
	r.entries = kept
	return removed
}

// Route returns the node owning keyHash: the node of the first entry whose
// position is strictly greater than keyHash. If no entry is greater, Route
// wraps around to the first entry.
func (r *Ring) Route(keyHash uint32) (int, error) {
	if len(r.entries) == 0 {
		return 0, ErrEmpty
	}

	idx := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Position > keyHash
	})
	if idx == len(r.entries) {
		// Wrap around if we hit the end of the list.
		idx = 0
	}
	return r.entries[idx].NodeID, nil
}

// Successor returns the node of the entry that immediately follows e on the
// ring, wrapping around to the first entry. e does not need to be on the
// ring.
//
// After a node is inserted, the successor of each of its entries is the node
// which previously owned the keys that entry now takes over.
func (r *Ring) Successor(e Entry) (int, error) {
	if len(r.entries) == 0 {
		return 0, ErrEmpty
	}

	idx := sort.Search(len(r.entries), func(i int) bool {
		return e.less(r.entries[i])
	})
	if idx == len(r.entries) {
		idx = 0
	}
	return r.entries[idx].NodeID, nil
}

// Contains reports whether node id has entries on the ring.
func (r *Ring) Contains(id int) bool {
	for _, e := range r.entries {
		if e.NodeID == id {
			return true
		}
	}
	return false
}

// Len returns the number of entries on the ring.
func (r *Ring) Len() int { return len(r.entries) }

// Entries returns a copy of the ring's entries in ring order.
func (r *Ring) Entries() []Entry {
	res := make([]Entry, len(r.entries))
	copy(res, r.entries)
	return res
}

package kvring

import (
	"github.com/rfratto/kvring/store"
)

// node pairs a node ID with the keys it owns.
type node struct {
	id    int
	store *store.Store
}

func newNode(id int, buckets int) *node {
	return &node{id: id, store: store.New(buckets)}
}

// info returns a snapshot of n.
func (n *node) info() NodeInfo {
	return NodeInfo{ID: n.id, Keys: n.store.Len()}
}

// NodeInfo describes a node within a Dispatcher.
type NodeInfo struct {
	ID   int // ID of the node. Unique across the Dispatcher.
	Keys int // Number of keys the node currently holds.
}

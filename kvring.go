// Package kvring implements a key/value store sharded across a variable set
// of nodes using consistent hashing. There are two main concepts:
//
// 1. Nodes each own a store of keys. Every node places three replicas on a
// hash ring, and a key is owned by the node whose replica follows the key's
// position on the ring.
//
// 2. A Dispatcher owns the nodes and the ring. When nodes join or leave, the
// Dispatcher moves only the keys whose owner changed before returning.
package kvring

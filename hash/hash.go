// Package hash implements the two hash functions used for placing data on a
// ring: a 32-bit integer mix used to position nodes, and a djb2 string hash
// used to position keys.
//
// Both functions are deterministic across runs and platforms; changing either
// changes where every key lives.
package hash

// Node mixes a 32-bit integer into a ring position using a multiply-xor-shift
// construction. It is applied to node IDs and replica labels.
func Node(x uint32) uint32 {
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = (x >> 16) ^ x
	return x
}

// ReplicaLabelStride separates the labels of a node's replicas. Replica i of
// node id is hashed from the label i*ReplicaLabelStride + id.
const ReplicaLabelStride = 100000

// ReplicaLabel returns the label hashed for replica i of node id.
func ReplicaLabel(id int, i int) uint32 {
	return uint32(i*ReplicaLabelStride + id)
}

// Key hashes a string key into a ring position using djb2.
func Key(s string) uint32 {
	h := uint32(keySeed)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

const keySeed = 5381

package hash

import (
	stdhash "hash"
)

// KeyBuilder generates keys incrementally. To generate a key, first write to
// the KeyBuilder, then call Key. The KeyBuilder can be re-used afterwards by
// calling Reset. KeyBuilder can not be used concurrently.
//
// The key of everything written to a KeyBuilder is equal to Key called on the
// concatenation of those writes.
type KeyBuilder struct {
	h uint32
}

var _ stdhash.Hash32 = (*KeyBuilder)(nil)

// NewKeyBuilder returns a new KeyBuilder that can generate keys.
func NewKeyBuilder() *KeyBuilder { return &KeyBuilder{h: keySeed} }

// Write appends b to kb's state. Write always returns len(b), nil.
func (kb *KeyBuilder) Write(b []byte) (n int, err error) {
	for _, c := range b {
		kb.h = kb.h*33 + uint32(c)
	}
	return len(b), nil
}

// Reset resets kb's state.
func (kb *KeyBuilder) Reset() { kb.h = keySeed }

// Key computes the key from kb's current state.
func (kb *KeyBuilder) Key() uint32 { return kb.h }

// Sum32 implements hash.Hash32.
func (kb *KeyBuilder) Sum32() uint32 { return kb.h }

// Sum implements hash.Hash. The key is appended in big-endian order.
func (kb *KeyBuilder) Sum(b []byte) []byte {
	return append(b, byte(kb.h>>24), byte(kb.h>>16), byte(kb.h>>8), byte(kb.h))
}

// Size implements hash.Hash.
func (kb *KeyBuilder) Size() int { return 4 }

// BlockSize implements hash.Hash.
func (kb *KeyBuilder) BlockSize() int { return 1 }

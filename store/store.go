// Package store implements the key/value storage held by a single node: a
// hash table of chained buckets mapping string keys to string values.
package store

import (
	"iter"

	"github.com/cespare/xxhash/v2"
)

// DefaultBuckets is the bucket count used when none is configured.
const DefaultBuckets = 100

// Store holds key-value data for one node. Store is not goroutine safe;
// callers must serialize access.
type Store struct {
	buckets [][]pair
	size    int
}

type pair struct {
	key, value string
}

// New returns a new Store with a fixed number of buckets. New panics if
// buckets is not positive.
func New(buckets int) *Store {
	if buckets <= 0 {
		panic("store: bucket count must be positive")
	}
	return &Store{buckets: make([][]pair, buckets)}
}

func (s *Store) bucket(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(s.buckets)))
}

// Put stores value for key if key isn't already present. The first write
// wins: Put returns false and leaves the existing value untouched when key
// exists.
func (s *Store) Put(key, value string) bool {
	idx := s.bucket(key)
	for _, p := range s.buckets[idx] {
		if p.key == key {
			return false
		}
	}
	s.buckets[idx] = append(s.buckets[idx], pair{key: key, value: value})
	s.size++
	return true
}

// Get retrieves the value for a key.
func (s *Store) Get(key string) (val string, ok bool) {
	for _, p := range s.buckets[s.bucket(key)] {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key, returning true if it was present.
func (s *Store) Delete(key string) bool {
	idx := s.bucket(key)
	chain := s.buckets[idx]
	for i, p := range chain {
		if p.key != key {
			continue
		}
		copy(chain[i:], chain[i+1:])
		chain[len(chain)-1] = pair{}
		s.buckets[idx] = chain[:len(chain)-1]
		s.size--
		return true
	}
	return false
}

// Len returns the number of keys in s.
func (s *Store) Len() int { return s.size }

// Buckets returns the bucket count s was created with.
func (s *Store) Buckets() int { return len(s.buckets) }

// All returns every key-value pair in bucket order. Each call to the returned
// sequence starts a new walk.
//
// s must not be modified while the sequence is being ranged over; collect the
// pairs first if they need to be moved or deleted.
func (s *Store) All() iter.Seq2[string, string] {
	return func(yield func(key, value string) bool) {
		for _, chain := range s.buckets {
			for _, p := range chain {
				if !yield(p.key, p.value) {
					return
				}
			}
		}
	}
}

// Reset removes every key from s. The bucket count is kept.
func (s *Store) Reset() {
	for i := range s.buckets {
		s.buckets[i] = nil
	}
	s.size = 0
}

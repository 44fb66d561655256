package kvring

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNodes is returned by key operations against a Dispatcher that has
	// no nodes.
	ErrNoNodes = errors.New("no nodes available")

	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("key must not be empty")

	// ErrClosed is returned by calling methods against a Dispatcher after it
	// was closed.
	ErrClosed = errors.New("dispatcher closed")
)

// ErrNodeNotFound is returned when an operation refers to a node that isn't
// part of the Dispatcher.
type ErrNodeNotFound struct {
	ID int
}

// Error implements error.
func (e ErrNodeNotFound) Error() string {
	return fmt.Sprintf("node %d not found", e.ID)
}

// ErrDuplicateNode is returned when adding a node whose ID is already in use.
type ErrDuplicateNode struct {
	ID int
}

// Error implements error.
func (e ErrDuplicateNode) Error() string {
	return fmt.Sprintf("node %d already exists", e.ID)
}

// ErrKeyNotFound is used when a Key isn't found.
type ErrKeyNotFound struct {
	Key string
}

// Error implements error.
func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %s not found", e.Key)
}

// ErrOutOfMemory is returned when a node can't accept any more keys.
type ErrOutOfMemory struct {
	ID    int // ID of the full node.
	Limit int // Key limit of the node.
}

// Error implements error.
func (e ErrOutOfMemory) Error() string {
	return fmt.Sprintf("node %d is out of memory: reached limit of %d keys", e.ID, e.Limit)
}

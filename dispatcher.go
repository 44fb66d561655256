package kvring

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rfratto/kvring/hash"
	"github.com/rfratto/kvring/ring"
	"go.uber.org/atomic"
)

// A Dispatcher owns a set of nodes and the ring used to route keys to them.
// All access to nodes goes through the Dispatcher.
//
// Every method runs to completion, including moving keys between nodes,
// before returning. Methods are serialized by a single lock, so a Dispatcher
// may be shared between goroutines, but operations never run in parallel.
type Dispatcher struct {
	log     log.Logger
	cfg     Config
	metrics *metrics
	closed  atomic.Bool

	mut       sync.Mutex
	nodes     map[int]*node // Active nodes by ID. Order carries no meaning.
	ring      *ring.Ring
	observers []Observer
}

// NewDispatcher creates a Dispatcher with no nodes. An error will be returned
// if the provided config is invalid.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	d := &Dispatcher{
		log:     cfg.Log,
		cfg:     cfg,
		metrics: newMetrics(),

		nodes:     make(map[int]*node, cfg.NodeCapacity),
		ring:      ring.New(cfg.NodeCapacity),
		observers: append([]Observer(nil), cfg.Observers...),
	}

	if cfg.Registerer != nil {
		if err := cfg.Registerer.Register(d.metrics); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return d, nil
}

// Observe registers o to be informed when the set of nodes changes.
func (d *Dispatcher) Observe(o Observer) {
	d.mut.Lock()
	defer d.mut.Unlock()

	d.observers = append(d.observers, o)
}

// State returns the current State of d.
func (d *Dispatcher) State() State {
	d.mut.Lock()
	defer d.mut.Unlock()

	if len(d.nodes) == 0 {
		return StateEmpty
	}
	return StatePopulated
}

// Nodes returns the set of active nodes, ordered by ID.
func (d *Dispatcher) Nodes() []NodeInfo {
	d.mut.Lock()
	defer d.mut.Unlock()

	res := make([]NodeInfo, 0, len(d.nodes))
	for _, n := range d.nodes {
		res = append(res, n.info())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// AddNode adds a node with the given ID. The new node takes over the keys
// that now route to it from the nodes that previously owned them. No other
// keys are moved.
func (d *Dispatcher) AddNode(id int) (err error) {
	d.mut.Lock()
	defer d.mut.Unlock()
	defer func() { d.countOp("add_node", err) }()

	if d.closed.Load() {
		return ErrClosed
	}
	if _, exists := d.nodes[id]; exists {
		return ErrDuplicateNode{ID: id}
	}

	d.nodes[id] = newNode(id, d.cfg.Buckets)
	positions := d.ring.Insert(id)

	// The node following each new replica owned the arc the replica now
	// splits. Rescan that node's keys and move any that route elsewhere.
	var moved int
	for _, p := range positions {
		donorID, err := d.ring.Successor(ring.Entry{Position: p, NodeID: id})
		if err != nil {
			return err
		}
		donor := d.lookupNode(donorID)

		n := d.rebalance(donor)
		level.Debug(d.log).Log("msg", "rebalanced keys from donor", "node", id, "position", p, "donor", donorID, "moved", n)
		moved += n
	}

	d.metrics.keysMoved.WithLabelValues("add_node").Add(float64(moved))
	d.updateGauges()
	level.Info(d.log).Log("msg", "added node", "node", id, "moved", moved)

	d.notifyObservers()
	return nil
}

// rebalance moves every key held by donor which no longer routes to donor
// onto its new owner. It returns the number of keys moved.
func (d *Dispatcher) rebalance(donor *node) int {
	type move struct {
		key, value string
		to         *node
	}

	// Keys are collected before moving since donor can't be modified while
	// walking it.
	var moves []move
	for k, v := range donor.store.All() {
		owner := d.owner(hash.Key(k))
		if owner == donor {
			continue
		}
		moves = append(moves, move{key: k, value: v, to: owner})
	}

	for _, m := range moves {
		m.to.store.Put(m.key, m.value)
		donor.store.Delete(m.key)
	}
	return len(moves)
}

// RemoveNode removes the node with the given ID. Every key it held is moved
// to the node that now owns it. Removing the last node discards its keys and
// returns d to StateEmpty.
func (d *Dispatcher) RemoveNode(id int) (err error) {
	d.mut.Lock()
	defer d.mut.Unlock()
	defer func() { d.countOp("remove_node", err) }()

	if d.closed.Load() {
		return ErrClosed
	}
	n, ok := d.nodes[id]
	if !ok {
		return ErrNodeNotFound{ID: id}
	}

	// Remove the replicas first so routing no longer considers n.
	d.ring.Remove(id)
	delete(d.nodes, id)

	var moved int
	if d.ring.Len() == 0 {
		if dropped := n.store.Len(); dropped > 0 {
			level.Warn(d.log).Log("msg", "removed last node, discarding its keys", "node", id, "keys", dropped)
			d.metrics.keysDropped.Add(float64(dropped))
		}
	} else {
		for k, v := range n.store.All() {
			d.owner(hash.Key(k)).store.Put(k, v)
			moved++
		}
	}
	n.store.Reset()

	d.metrics.keysMoved.WithLabelValues("remove_node").Add(float64(moved))
	d.updateGauges()
	level.Info(d.log).Log("msg", "removed node", "node", id, "moved", moved)

	d.notifyObservers()
	return nil
}

// Store stores value for key on the node that owns key and returns the ID of
// that node. If key already exists, the existing value is kept.
//
// Store returns ErrOutOfMemory if the owning node has reached
// Config.MaxKeysPerNode.
func (d *Dispatcher) Store(key, value string) (owner int, err error) {
	d.mut.Lock()
	defer d.mut.Unlock()
	defer func() { d.countOp("store", err) }()

	if err := d.checkKeyOp(key); err != nil {
		return 0, err
	}

	n := d.owner(hash.Key(key))
	if limit := d.cfg.MaxKeysPerNode; limit > 0 && n.store.Len() >= limit && !n.store.Has(key) {
		return n.id, ErrOutOfMemory{ID: n.id, Limit: limit}
	}
	n.store.Put(key, value)
	return n.id, nil
}

// Retrieve returns the value of key along with the ID of the node that owns
// key. If key doesn't exist, Retrieve returns ErrKeyNotFound and owner is
// still set to the node that would hold it.
func (d *Dispatcher) Retrieve(key string) (value string, owner int, err error) {
	d.mut.Lock()
	defer d.mut.Unlock()
	defer func() { d.countOp("retrieve", err) }()

	if err := d.checkKeyOp(key); err != nil {
		return "", 0, err
	}

	n := d.owner(hash.Key(key))
	value, ok := n.store.Get(key)
	if !ok {
		return "", n.id, ErrKeyNotFound{Key: key}
	}
	return value, n.id, nil
}

// Delete removes key from the node that owns it and returns the ID of that
// node. If key doesn't exist, Delete returns ErrKeyNotFound and owner is
// still set.
func (d *Dispatcher) Delete(key string) (owner int, err error) {
	d.mut.Lock()
	defer d.mut.Unlock()
	defer func() { d.countOp("delete", err) }()

	if err := d.checkKeyOp(key); err != nil {
		return 0, err
	}

	n := d.owner(hash.Key(key))
	if !n.store.Delete(key) {
		return n.id, ErrKeyNotFound{Key: key}
	}
	return n.id, nil
}

// Owner returns the ID of the node that owns key without looking it up.
func (d *Dispatcher) Owner(key string) (int, error) {
	d.mut.Lock()
	defer d.mut.Unlock()

	if err := d.checkKeyOp(key); err != nil {
		return 0, err
	}
	return d.owner(hash.Key(key)).id, nil
}

// Close removes every node and releases the keys they held. Methods called
// after Close return ErrClosed. Close may be called more than once.
func (d *Dispatcher) Close() error {
	if !d.closed.CAS(false, true) {
		return nil
	}

	d.mut.Lock()
	defer d.mut.Unlock()

	for id, n := range d.nodes {
		n.store.Reset()
		delete(d.nodes, id)
	}
	d.ring = ring.New(0)
	d.observers = nil

	if d.cfg.Registerer != nil {
		d.cfg.Registerer.Unregister(d.metrics)
	}
	return nil
}

// checkKeyOp validates that an operation on key can be routed.
func (d *Dispatcher) checkKeyOp(key string) error {
	switch {
	case d.closed.Load():
		return ErrClosed
	case key == "":
		return ErrEmptyKey
	case len(d.nodes) == 0:
		return ErrNoNodes
	}
	return nil
}

// owner returns the node owning keyHash. d must have at least one node.
func (d *Dispatcher) owner(keyHash uint32) *node {
	id, err := d.ring.Route(keyHash)
	if err != nil {
		panic("kvring: routing with no nodes")
	}
	return d.lookupNode(id)
}

func (d *Dispatcher) lookupNode(id int) *node {
	n, ok := d.nodes[id]
	if !ok {
		panic(fmt.Sprintf("kvring: unexpected node %d on ring", id))
	}
	return n
}

func (d *Dispatcher) notifyObservers() {
	if len(d.observers) == 0 {
		return
	}

	ids := make([]int, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, o := range d.observers {
		o.NotifyNodesChanged(ids)
	}
}

func (d *Dispatcher) updateGauges() {
	d.metrics.nodes.Set(float64(len(d.nodes)))
	d.metrics.ringEntries.Set(float64(d.ring.Len()))
}

func (d *Dispatcher) countOp(op string, err error) {
	result := "success"
	switch {
	case errors.As(err, &ErrKeyNotFound{}):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	d.metrics.operations.WithLabelValues(op, result).Inc()
}

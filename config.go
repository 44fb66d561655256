package kvring

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/kvring/store"
)

// DefaultNodeCapacity is the number of nodes a Dispatcher has room for before
// growing its internal structures.
const DefaultNodeCapacity = 10

// DefaultConfig holds default settings for a Dispatcher.
var DefaultConfig = Config{
	Buckets:      store.DefaultBuckets,
	NodeCapacity: DefaultNodeCapacity,
}

// Config configures a Dispatcher.
type Config struct {
	// Number of hash buckets in each node's store. Fixed for the lifetime of
	// the node. Defaults to store.DefaultBuckets when 0.
	Buckets int

	// Number of nodes to allocate room for up front. Defaults to
	// DefaultNodeCapacity when 0.
	NodeCapacity int

	// Maximum number of keys a node will accept through Store. Store fails
	// with ErrOutOfMemory when the owning node is full. Keys moved while
	// rebalancing are not subject to the limit. 0 means unlimited.
	MaxKeysPerNode int

	// Optional logger to use.
	Log log.Logger

	// Optional registerer for metrics. Metrics are not registered when nil.
	Registerer prometheus.Registerer

	// Observers to notify whenever the set of nodes changes.
	Observers []Observer
}

func (c *Config) validate() error {
	var errs *multierror.Error

	switch {
	case c.Buckets < 0:
		errs = multierror.Append(errs, fmt.Errorf("buckets must not be negative, got %d", c.Buckets))
	case c.Buckets == 0:
		c.Buckets = store.DefaultBuckets
	}

	switch {
	case c.NodeCapacity < 0:
		errs = multierror.Append(errs, fmt.Errorf("node capacity must not be negative, got %d", c.NodeCapacity))
	case c.NodeCapacity == 0:
		c.NodeCapacity = DefaultNodeCapacity
	}

	if c.MaxKeysPerNode < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max keys per node must not be negative, got %d", c.MaxKeysPerNode))
	}

	for i, o := range c.Observers {
		if o == nil {
			errs = multierror.Append(errs, fmt.Errorf("observer %d is nil", i))
		}
	}

	if c.Log == nil {
		c.Log = log.NewNopLogger()
	}

	return errs.ErrorOrNil()
}

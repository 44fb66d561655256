package kvring

// An Observer watches a Dispatcher, waiting for its set of nodes to change.
type Observer interface {
	// NotifyNodesChanged is invoked after a node is added or removed, once all
	// keys have been rebalanced. nodes holds the IDs of the active nodes in
	// ascending order and must not be modified.
	//
	// NotifyNodesChanged is called while the Dispatcher is locked and must not
	// call back into it.
	NotifyNodesChanged(nodes []int)
}

// FuncObserver implements Observer.
type FuncObserver func(nodes []int)

// NotifyNodesChanged implements Observer.
func (f FuncObserver) NotifyNodesChanged(nodes []int) { f(nodes) }

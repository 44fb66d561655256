package kvring

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	nodes       prometheus.Gauge
	ringEntries prometheus.Gauge
	keysMoved   *prometheus.CounterVec
	keysDropped prometheus.Counter
	operations  *prometheus.CounterVec
}

var _ prometheus.Collector = (*metrics)(nil)

func newMetrics() *metrics {
	var m metrics

	m.nodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvring_nodes",
		Help: "Current number of nodes in the dispatcher",
	})
	m.ringEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvring_ring_entries",
		Help: "Current number of replica entries on the hash ring",
	})
	m.keysMoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvring_keys_moved_total",
		Help: "Total number of keys moved between nodes. reason will be one of: add_node, remove_node.",
	}, []string{"reason"})
	m.keysDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvring_keys_dropped_total",
		Help: "Total number of keys discarded because the last node was removed.",
	})
	m.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvring_operations_total",
		Help: "Total number of dispatcher operations. result will be one of: success, not_found, error.",
	}, []string{"op", "result"})

	return &m
}

func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	m.nodes.Describe(ch)
	m.ringEntries.Describe(ch)
	m.keysMoved.Describe(ch)
	m.keysDropped.Describe(ch)
	m.operations.Describe(ch)
}

func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	m.nodes.Collect(ch)
	m.ringEntries.Collect(ch)
	m.keysMoved.Collect(ch)
	m.keysDropped.Collect(ch)
	m.operations.Collect(ch)
}

package olsr

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts an Engine's Stats snapshot to the prometheus.Collector
// interface, the way cmd/olsrd's metrics server exposes per-node protocol
// state without the core importing net/http or promhttp itself (the core
// performs no I/O, per the concurrency model).
type Collector struct {
	engine *Engine
	nodeID string

	neighbors      *prometheus.Desc
	mprs           *prometheus.Desc
	mprSelectors   *prometheus.Desc
	twoHop         *prometheus.Desc
	tdmaEntries    *prometheus.Desc
	duplicateCount *prometheus.Desc
	topologyLinks  *prometheus.Desc
	routingEntries *prometheus.Desc
	queueLength    *prometheus.Desc
	helloSent      *prometheus.Desc
	tcSent         *prometheus.Desc
	tcForwarded    *prometheus.Desc
}

// NewCollector builds a Collector for engine, labeling every metric with
// selfID. The node label is a variable label, so every Collector has the
// same descriptors and a registry accepts only one of them.
func NewCollector(engine *Engine, selfID NodeID) *Collector {
	labels := []string{"node"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("olsr_"+name, help, labels, nil)
	}
	return &Collector{
		engine:         engine,
		nodeID:         selfID.String(),
		neighbors:      desc("neighbors", "Current number of one-hop neighbors."),
		mprs:           desc("mpr_set_size", "Current size of the selected MPR set."),
		mprSelectors:   desc("mpr_selectors", "Current number of neighbors selecting this node as an MPR."),
		twoHop:         desc("two_hop_neighbors", "Current number of two-hop neighbor associations."),
		tdmaEntries:    desc("tdma_reservations", "Current number of known TDMA slot reservations."),
		duplicateCount: desc("duplicate_entries", "Current number of held (originator, seq) duplicate entries."),
		topologyLinks:  desc("topology_links", "Current number of valid topology database links."),
		routingEntries: desc("routing_entries", "Current number of routing table entries."),
		queueLength:    desc("control_queue_length", "Current number of pending outbound control messages."),
		helloSent:      prometheus.NewDesc("olsr_hello_sent_total", "Total HELLO messages generated.", labels, nil),
		tcSent:         prometheus.NewDesc("olsr_tc_sent_total", "Total TC messages generated.", labels, nil),
		tcForwarded:    prometheus.NewDesc("olsr_tc_forwarded_total", "Total TC messages forwarded as an MPR.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.neighbors
	ch <- c.mprs
	ch <- c.mprSelectors
	ch <- c.twoHop
	ch <- c.tdmaEntries
	ch <- c.duplicateCount
	ch <- c.topologyLinks
	ch <- c.routingEntries
	ch <- c.queueLength
	ch <- c.helloSent
	ch <- c.tcSent
	ch <- c.tcForwarded
}

// Collect implements prometheus.Collector. It calls Engine.Stats, so it
// must not run concurrently with the engine's own goroutine (matching the
// single-threaded-actor rule the rest of the package follows).
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.engine.Stats()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.nodeID)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.nodeID)
	}
	gauge(c.neighbors, float64(s.Neighbors))
	gauge(c.mprs, float64(s.MPRs))
	gauge(c.mprSelectors, float64(s.MPRSelectors))
	gauge(c.twoHop, float64(s.TwoHop))
	gauge(c.tdmaEntries, float64(s.TdmaEntries))
	gauge(c.duplicateCount, float64(s.DuplicateCount))
	gauge(c.topologyLinks, float64(s.TopologyLinks))
	gauge(c.routingEntries, float64(s.RoutingEntries))
	gauge(c.queueLength, float64(s.QueueLength))
	counter(c.helloSent, float64(s.HelloSent))
	counter(c.tcSent, float64(s.TCSent))
	counter(c.tcForwarded, float64(s.TCForwarded))
}

package gossip

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// nodeMetrics holds the internal operational counters/gauges for a
// single gossip node, exported over HTTP in Prometheus text format by
// whatever embeds this package (see cmd/corelinkd). These are entirely
// separate from the GPU/host metrics that ride inside gossip payloads.
type nodeMetrics struct {
	set         *metrics.Set
	nodeIDLabel string

	heartbeatsSent    *metrics.Counter
	heartbeatsRecv    *metrics.Counter
	mergesApplied     *metrics.Counter
	mergesRejected    *metrics.Counter
	antiEntropyRounds *metrics.Counter
	digestReqRecv     *metrics.Counter
	digestRespSent    *metrics.Counter
	digestRespRecv    *metrics.Counter
	reapEvictions     *metrics.Counter
	decodeErrors      *metrics.Counter
}

// newNodeMetrics registers a fresh metrics.Set, with every metric name
// carrying a node_id label per the `name{label="value"}` convention
// used throughout R2Northstar-Atlas's pkg/api/api0/metrics.go.
func newNodeMetrics(nodeID string) *nodeMetrics {
	set := metrics.NewSet()
	nm := &nodeMetrics{set: set}

	labeled := func(name string) string {
		return fmt.Sprintf(`%s{node_id=%q}`, name, nodeID)
	}

	nm.heartbeatsSent = set.NewCounter(labeled("corelink_heartbeats_sent_total"))
	nm.heartbeatsRecv = set.NewCounter(labeled("corelink_heartbeats_received_total"))
	nm.mergesApplied = set.NewCounter(labeled("corelink_merges_applied_total"))
	nm.mergesRejected = set.NewCounter(labeled("corelink_merges_rejected_total"))
	nm.antiEntropyRounds = set.NewCounter(labeled("corelink_anti_entropy_rounds_total"))
	nm.digestReqRecv = set.NewCounter(labeled("corelink_digest_requests_received_total"))
	nm.digestRespSent = set.NewCounter(labeled("corelink_digest_responses_sent_total"))
	nm.digestRespRecv = set.NewCounter(labeled("corelink_digest_responses_received_total"))
	nm.reapEvictions = set.NewCounter(labeled("corelink_reap_evictions_total"))
	nm.decodeErrors = set.NewCounter(labeled("corelink_decode_errors_total"))

	nm.nodeIDLabel = nodeID
	return nm
}

// registerClusterSizeGauge wires a callback-based gauge reporting the
// current number of known remote peers, following the *metrics.Set
// pattern used throughout R2Northstar-Atlas's pkg/api/api0/metrics.go.
func (nm *nodeMetrics) registerClusterSizeGauge(f func() float64) {
	nm.set.NewGauge(fmt.Sprintf(`corelink_cluster_size{node_id=%q}`, nm.nodeIDLabel), f)
}

// Set exposes the underlying metrics.Set so an embedder can register it
// with a metrics.WritePrometheus handler (see cmd/corelinkd).
func (nm *nodeMetrics) Set() *metrics.Set { return nm.set }

// Package gossip implements CoreLink's cluster membership and state
// dissemination engine: a two-layer gossip protocol combining periodic
// UDP-multicast heartbeats with periodic digest-exchange anti-entropy
// rounds, for small LAN clusters of GPU hosts with no central coordinator.
package gossip

import "time"

// GPU describes a single GPU reported by a node. The core treats this
// value as opaque and forwards it verbatim between nodes.
type GPU struct {
	ID    int    `json:"id"`
	Model string `json:"model"`
	Limit string `json:"limit,omitempty"`
}

// NodeEntry is the locally stored view of a single remote node's last
// known announced state.
type NodeEntry struct {
	NodeID       string    `json:"node_id"`
	GPUs         []GPU     `json:"gpus"`
	Timestamp    string    `json:"timestamp"`
	Seq          uint64    `json:"seq"`
	LastSeen     time.Time `json:"-"`
	IP           string    `json:"ip"`
	NetKbps      float64   `json:"net_kbps"`
	Epoch        float64   `json:"epoch"`
	LinkSpeed    float64   `json:"link_speed"`
	LinkSpeedMax float64   `json:"link_speed_max"`
}

// Status tiers for a remote entry, derived from LastSeen age. Never
// stored — always computed at snapshot/read time.
const (
	StatusOnline = "online"
	StatusStale  = "stale"
)

// SnapshotEntry is the read-only, deep-copied representation of a node
// returned by Node.GetClusterState for external consumers (the web
// console and similar).
type SnapshotEntry struct {
	NodeID       string  `json:"node_id"`
	GPUs         []GPU   `json:"gpus"`
	Timestamp    string  `json:"timestamp"`
	Status       string  `json:"status"`
	NetKbps      float64 `json:"net_kbps"`
	Epoch        float64 `json:"epoch"`
	LinkSpeed    float64 `json:"link_speed"`
	LinkSpeedMax float64 `json:"link_speed_max"`
}

package gossip

import (
	"sort"
	"sync"
	"time"
)

// local holds the node's own announced state: the fields the heartbeat
// emitter packages up and the anti-entropy responder compares against
// incoming digests. It lives inside store so a single mutex protects
// both the local fields and the remote entries, per spec.md 5.
type local struct {
	nodeID       string
	seq          uint64
	gpus         []GPU
	netKbps      float64
	linkSpeed    float64
	linkSpeedMax float64
}

// store is the single shared mutable structure of a gossip node: the
// local announced state plus the cluster table of remote entries, both
// guarded by one mutex. The lock is held only for the duration of a
// merge, digest build, snapshot copy, or reap scan — never across a
// socket send or a sleep.
type store struct {
	mu      sync.Mutex
	local   local
	entries map[string]NodeEntry

	nodeTimeout time.Duration
	nodeRemove  time.Duration
}

func newStore(nodeID string, gpus []GPU, linkSpeed, linkSpeedMax float64, nodeTimeout, nodeRemove time.Duration) *store {
	return &store{
		local: local{
			nodeID:       nodeID,
			gpus:         gpus,
			linkSpeed:    linkSpeed,
			linkSpeedMax: linkSpeedMax,
		},
		entries:     map[string]NodeEntry{},
		nodeTimeout: nodeTimeout,
		nodeRemove:  nodeRemove,
	}
}

// nextSeq increments and returns the local sequence counter. Serialized
// under the store mutex, resolving spec.md 9's open question about
// unsynchronized read-modify-write.
func (s *store) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local.seq++
	return s.local.seq
}


// setNetKbps updates the local net throughput scalar.
func (s *store) setNetKbps(v float64) {
	s.mu.Lock()
	s.local.netKbps = v
	s.mu.Unlock()
}

// setLinkSpeed updates the local link-speed scalars.
func (s *store) setLinkSpeed(speed, max float64) {
	s.mu.Lock()
	s.local.linkSpeed = speed
	s.local.linkSpeedMax = max
	s.mu.Unlock()
}

// localSnapshot returns a copy of the local announced fields.
func (s *store) localSnapshot() local {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.local
	l.gpus = append([]GPU(nil), s.local.gpus...)
	return l
}

// merge applies an incoming entry, keeping only the higher of the two
// sequence numbers for that node_id. Equal or lesser seq is a no-op.
// Entries matching the local node_id are rejected (spec.md 4.3: the
// table never contains the local node_id). A replacement preserves the
// known ip when the new datagram's source ip is unknown (srcIP == "").
//
// Returns true if the table was changed.
func (s *store) merge(e NodeEntry, srcIP string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.NodeID == "" || e.NodeID == s.local.nodeID {
		return false
	}

	existing, ok := s.entries[e.NodeID]
	if !ok {
		if srcIP != "" {
			e.IP = srcIP
		}
		e.LastSeen = time.Now()
		s.entries[e.NodeID] = e
		return true
	}

	if e.Seq <= existing.Seq {
		return false
	}

	if srcIP != "" {
		e.IP = srcIP
	} else {
		e.IP = existing.IP
	}
	e.LastSeen = time.Now()
	s.entries[e.NodeID] = e
	return true
}

// digest returns a {node_id: seq} snapshot of every remote entry plus
// the local node's own seq, per spec.md 4.3.
func (s *store) digest() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]uint64, len(s.entries)+1)
	for id, e := range s.entries {
		out[id] = e.Seq
	}
	out[s.local.nodeID] = s.local.seq
	return out
}

// peerIDs returns the current set of remote node_ids.
func (s *store) peerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	return out
}

// updatesAhead returns every stored remote entry whose seq strictly
// exceeds the corresponding value in theirDigest (absent ids treated as
// seq 0), plus the local node's own entry if the requester is behind on
// it too.
func (s *store) updatesAhead(theirDigest map[string]uint64) []NodeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []NodeEntry
	for id, e := range s.entries {
		if e.Seq > theirDigest[id] {
			out = append(out, e)
		}
	}
	if s.local.seq > theirDigest[s.local.nodeID] {
		out = append(out, s.localEntryLocked())
	}
	return out
}

// localEntryLocked builds the local node's own NodeEntry for inclusion
// in a digest response. Callers must hold s.mu.
func (s *store) localEntryLocked() NodeEntry {
	return NodeEntry{
		NodeID:       s.local.nodeID,
		GPUs:         append([]GPU(nil), s.local.gpus...),
		Timestamp:    timestamp(),
		Seq:          s.local.seq,
		LastSeen:     time.Now(),
		NetKbps:      s.local.netKbps,
		Epoch:        epochNow(),
		LinkSpeed:    s.local.linkSpeed,
		LinkSpeedMax: s.local.linkSpeedMax,
	}
}

// snapshot returns a deep-copied, ordered view of the whole cluster: the
// local node synthesized first, followed by remote entries sorted
// ascending by node_id, each annotated with a status computed at call
// time. Per spec.md 4.8 the returned structure is a deep copy.
func (s *store) snapshot() []SnapshotEntry {
	now := time.Now()

	s.mu.Lock()
	self := SnapshotEntry{
		NodeID:       s.local.nodeID,
		GPUs:         append([]GPU(nil), s.local.gpus...),
		Timestamp:    timestamp(),
		Status:       StatusOnline,
		NetKbps:      s.local.netKbps,
		Epoch:        epochNow(),
		LinkSpeed:    s.local.linkSpeed,
		LinkSpeedMax: s.local.linkSpeedMax,
	}

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]SnapshotEntry, 0, len(ids)+1)
	out = append(out, self)
	for _, id := range ids {
		e := s.entries[id]
		status := StatusStale
		if now.Sub(e.LastSeen) < s.nodeTimeout {
			status = StatusOnline
		}
		out = append(out, SnapshotEntry{
			NodeID:       e.NodeID,
			GPUs:         append([]GPU(nil), e.GPUs...),
			Timestamp:    e.Timestamp,
			Status:       status,
			NetKbps:      e.NetKbps,
			Epoch:        e.Epoch,
			LinkSpeed:    e.LinkSpeed,
			LinkSpeedMax: e.LinkSpeedMax,
		})
	}
	s.mu.Unlock()
	return out
}

// reap evicts every remote entry whose age exceeds NodeRemove. Returns
// the number of entries removed.
func (s *store) reap(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.entries {
		if now.Sub(e.LastSeen) > s.nodeRemove {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

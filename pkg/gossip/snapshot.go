package gossip

// GetClusterState returns a deep-copied, ordered snapshot of the whole
// cluster as seen by this node: the local node first, then remote nodes
// sorted ascending by node_id, each annotated with a status derived at
// call time. The returned structure belongs entirely to the caller —
// mutating it cannot affect internal node state. See spec.md 4.8.
//
// This is the only read path intended for external collaborators such
// as the web console: it is a thread-safe pure read, never failing.
func (n *Node) GetClusterState() []SnapshotEntry {
	return n.store.snapshot()
}

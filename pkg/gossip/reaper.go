package gossip

import (
	"context"
	"time"
)

// reaperLoop sleeps reaperTick, then evicts every cluster table entry
// whose age exceeds the configured removal horizon, per spec.md 4.7.
// Entries between NodeTimeout and NodeRemove remain in the table but
// are reported as stale by Snapshot.
func (n *Node) reaperLoop(ctx context.Context) {
	defer n.wg.Done()

	for {
		select {
		case <-time.After(reaperTick):
		case <-ctx.Done():
			return
		}

		removed := n.store.reap(time.Now())
		if removed > 0 {
			n.metrics.reapEvictions.Add(removed)
		}
	}
}

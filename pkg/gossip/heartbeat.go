package gossip

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// heartbeatLoop periodically multicasts the local node's current
// announced state, per spec.md 4.4:
//  1. increment local.seq,
//  2. build a heartbeat message from the current local state,
//  3. multicast it (errors ignored),
//  4. sleep max(1s, HeartbeatInterval +/- jitter).
func (n *Node) heartbeatLoop(ctx context.Context) {
	defer n.wg.Done()

	for {
		seq := n.store.nextSeq()
		l := n.store.localSnapshot()

		entry := NodeEntry{
			NodeID:       l.nodeID,
			GPUs:         l.gpus,
			Timestamp:    timestamp(),
			Seq:          seq,
			NetKbps:      l.netKbps,
			Epoch:        epochNow(),
			LinkSpeed:    l.linkSpeed,
			LinkSpeedMax: l.linkSpeedMax,
		}

		if data, err := encodeHeartbeat(entry); err == nil {
			n.sock.sendMulticast(data)
			n.metrics.heartbeatsSent.Inc()
		} else {
			n.logger.Debug("gossip: failed to encode heartbeat", zap.Error(err))
		}

		sleep := n.cfg.HeartbeatInterval + time.Duration(jitterFloat(float64(n.cfg.HeartbeatJitter)))
		if sleep < time.Second {
			sleep = time.Second
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return
		}
	}
}

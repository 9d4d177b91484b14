package gossip

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// antiEntropyLoop periodically probes one randomly chosen peer with a
// digest of everything this node knows, per spec.md 4.6:
//  1. sleep max(2s, AntiEntropyInterval +/- uniform(-2s, +2s)),
//  2. skip if there are no known peers,
//  3. choose one peer uniformly at random,
//  4. multicast a digest_req addressed to that peer.
//
// Only the addressed node replies (see handleDigestRequest); the reply
// is unicast because it may carry bulkier state than a single heartbeat.
func (n *Node) antiEntropyLoop(ctx context.Context) {
	defer n.wg.Done()

	for {
		sleep := n.cfg.AntiEntropyInterval + time.Duration((rand.Float64()*2-1)*float64(2*time.Second))
		if sleep < 2*time.Second {
			sleep = 2 * time.Second
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return
		}

		peers := n.store.peerIDs()
		if len(peers) == 0 {
			continue
		}
		target := peers[rand.Intn(len(peers))]

		digest := n.store.digest()
		data, err := encodeDigestRequest(n.id, target, digest)
		if err != nil {
			n.logger.Debug("gossip: failed to encode digest request", zap.Error(err))
			continue
		}

		n.sock.sendMulticast(data)
		n.metrics.antiEntropyRounds.Inc()
	}
}

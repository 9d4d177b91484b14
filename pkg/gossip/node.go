package gossip

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config controls the tunables of a Node. All fields are optional; zero
// values fall back to the spec.md 6 defaults.
type Config struct {
	// Port is the multicast heartbeat/digest-request port P. The
	// anti-entropy unicast responder always binds P+1.
	Port int

	HeartbeatInterval   time.Duration
	HeartbeatJitter     time.Duration
	NodeTimeout         time.Duration
	NodeRemove          time.Duration
	AntiEntropyInterval time.Duration

	Logger *zap.Logger
}

// NewNode creates a gossip node for hostname, announcing the given GPU
// inventory and link-speed scalars. It does not start any goroutines or
// bind any sockets until Start is called.
func NewNode(hostname string, gpus []GPU, linkSpeed, linkSpeedMax float64, cfg Config) *Node {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = HeartbeatInterval
	}
	if cfg.HeartbeatJitter == 0 {
		cfg.HeartbeatJitter = HeartbeatJitter
	}
	if cfg.NodeTimeout == 0 {
		cfg.NodeTimeout = NodeTimeout
	}
	if cfg.NodeRemove == 0 {
		cfg.NodeRemove = NodeRemove
	}
	if cfg.AntiEntropyInterval == 0 {
		cfg.AntiEntropyInterval = AntiEntropyInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &Node{
		id:      hostname,
		port:    cfg.Port,
		cfg:     cfg,
		store:   newStore(hostname, gpus, linkSpeed, linkSpeedMax, cfg.NodeTimeout, cfg.NodeRemove),
		logger:  logger,
		metrics: newNodeMetrics(hostname),
	}
	n.metrics.registerClusterSizeGauge(func() float64 {
		return float64(len(n.store.peerIDs()))
	})
	return n
}

// Node is the embeddable gossip node described by spec.md: it owns the
// local node's sequence counter and announced state, the cluster table
// of remote entries, and the heartbeat/receiver/anti-entropy/reaper
// control loops plus their sockets.
type Node struct {
	id   string
	port int
	cfg  Config

	store   *store
	logger  *zap.Logger
	metrics *nodeMetrics

	startMu sync.Mutex
	running bool
	sock    *sockets
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ID returns the node's own node_id (its hostname).
func (n *Node) ID() string { return n.id }

// Metrics returns the node's internal operational counters, for mounting
// a /metrics HTTP handler in the embedding process.
func (n *Node) Metrics() *nodeMetrics { return n.metrics }

// Start is idempotent: calling it on an already-running node is a no-op.
// Socket bind failures are fatal and returned to the caller per spec.md 7.
func (n *Node) Start() error {
	n.startMu.Lock()
	defer n.startMu.Unlock()

	if n.running {
		return nil
	}

	sock, err := openSockets(n.port)
	if err != nil {
		return fmt.Errorf("gossip: bind sockets: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.sock = sock
	n.cancel = cancel
	n.running = true

	n.wg.Add(4)
	go n.heartbeatLoop(ctx)
	go n.receiveLoop(ctx)
	go n.antiEntropyLoop(ctx)
	go n.reaperLoop(ctx)

	n.logger.Info("gossip node started",
		zap.String("node_id", n.id),
		zap.Int("port", n.port))
	return nil
}

// Stop is idempotent. It signals all four loops to exit, waits for them,
// and closes the sockets.
func (n *Node) Stop() {
	n.startMu.Lock()
	defer n.startMu.Unlock()

	if !n.running {
		return
	}
	n.running = false
	n.cancel()
	n.wg.Wait()
	n.sock.close()

	n.logger.Info("gossip node stopped", zap.String("node_id", n.id))
}

// SetNetKbps updates the local node's announced network throughput. May
// be called at any rate, from any goroutine.
func (n *Node) SetNetKbps(v float64) {
	n.store.setNetKbps(v)
}

// SetLinkSpeed updates the local node's announced link-speed scalars.
func (n *Node) SetLinkSpeed(speed, max float64) {
	n.store.setLinkSpeed(speed, max)
}

// jitterFloat returns a uniform random value in [-max, +max).
func jitterFloat(max float64) float64 {
	if max <= 0 {
		return 0
	}
	return (rand.Float64()*2 - 1) * max
}

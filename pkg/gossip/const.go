package gossip

import "time"

// Wire-affecting defaults. These must match cluster-wide if overridden;
// see pkg/config for how an operator can tune them.
const (
	// MulticastGroup is the IPv4 multicast group all nodes join.
	MulticastGroup = "239.77.77.77"

	// DefaultPort is the multicast heartbeat/digest-request port. The
	// anti-entropy unicast responder always binds the configured port+1
	// (DefaultPort+1 unless Config.Port overrides it).
	DefaultPort = 47100

	// MulticastTTL keeps gossip traffic on the local subnet.
	MulticastTTL = 1

	// HeartbeatInterval is the base period between heartbeat emissions.
	HeartbeatInterval = 5 * time.Second
	// HeartbeatJitter is the +/- uniform jitter applied to HeartbeatInterval.
	HeartbeatJitter = 1500 * time.Millisecond

	// NodeTimeout is the online -> stale threshold.
	NodeTimeout = 20 * time.Second
	// NodeRemove is the stale -> evicted threshold.
	NodeRemove = 60 * time.Second

	// AntiEntropyInterval is the base period between digest-exchange rounds.
	AntiEntropyInterval = 10 * time.Second

	// maxDatagramSize is the IPv4 UDP payload ceiling.
	maxDatagramSize = 65507

	// reaperTick is how often the reaper scans the table.
	reaperTick = 5 * time.Second

	// recvTimeout bounds how long the receive loop blocks on a single
	// socket read, so it can observe cancellation promptly.
	recvTimeout = 1 * time.Second
)

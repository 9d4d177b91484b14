package gossip

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
)

// receiveLoop waits for read-readiness on both sockets with a 1s
// timeout tick, per spec.md 4.5 / 5, so cancellation is observed
// promptly. Each ready socket's datagram is decoded and dispatched by
// message kind; any decode error, unknown type, or self-originated
// heartbeat is dropped silently (spec.md 7).
//
// net.UDPConn has no readiness-multiplexing primitive exposed in the
// standard library the way select(2) does, so this loop instead gives
// each socket its own read goroutine bounded by a per-read deadline —
// the same effect (no single read blocks longer than recvTimeout) with
// idiomatic Go concurrency instead of raw fd multiplexing.
func (n *Node) receiveLoop(ctx context.Context) {
	defer n.wg.Done()

	datagrams := make(chan receivedDatagram, 8)

	go n.readSocket(ctx, n.sock.mcastRecv, datagrams)
	go n.readSocket(ctx, n.sock.unicast, datagrams)

	for {
		select {
		case <-ctx.Done():
			return
		case dg := <-datagrams:
			n.handleDatagram(dg.data, dg.addr)
		}
	}
}

type receivedDatagram struct {
	data []byte
	addr *net.UDPAddr
}

// readSocket reads datagrams from conn until ctx is done, forwarding
// each to out. A read deadline of recvTimeout bounds each blocking read
// so the loop notices ctx cancellation within ~1s even if no traffic
// arrives.
func (n *Node) readSocket(ctx context.Context, conn *net.UDPConn, out chan<- receivedDatagram) {
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(recvTimeout))
		nRead, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			n.logger.Debug("gossip: socket read error", zap.Error(err))
			continue
		}

		data := make([]byte, nRead)
		copy(data, buf[:nRead])

		select {
		case out <- receivedDatagram{data: data, addr: addr}:
		case <-ctx.Done():
			return
		}
	}
}

// handleDatagram decodes and routes a single datagram, per spec.md 4.5.
func (n *Node) handleDatagram(data []byte, addr *net.UDPAddr) {
	hb, req, resp, err := decodeMessage(data)
	if err != nil {
		n.metrics.decodeErrors.Inc()
		return
	}

	srcIP := ""
	if addr != nil {
		srcIP = addr.IP.String()
	}

	switch {
	case hb != nil:
		n.metrics.heartbeatsRecv.Inc()
		n.acceptEntry(hb.toEntry(srcIP, time.Now()))
	case req != nil:
		n.handleDigestRequest(*req, srcIP)
	case resp != nil:
		n.handleDigestResponse(*resp)
	}
}

// acceptEntry merges an incoming entry (from a heartbeat or a digest
// response update) into the cluster table, self-originated entries are
// silently ignored by store.merge.
func (n *Node) acceptEntry(e NodeEntry) {
	if n.store.merge(e, e.IP) {
		n.metrics.mergesApplied.Inc()
	} else {
		n.metrics.mergesRejected.Inc()
	}
}

// handleDigestRequest implements spec.md 4.5's digest_req handling:
// ignored unless target == local node_id, then replies unicast with
// every entry (including possibly the local one) this node knows to be
// ahead of the sender's digest. An empty update set suppresses the
// response entirely.
func (n *Node) handleDigestRequest(req digestRequestWire, srcIP string) {
	if req.Target != n.id {
		return
	}
	n.metrics.digestReqRecv.Inc()

	updates := n.store.updatesAhead(req.Digest)
	if len(updates) == 0 {
		return
	}

	data, err := encodeDigestResponse(n.id, updates)
	if err != nil {
		n.logger.Debug("gossip: failed to encode digest response", zap.Error(err))
		return
	}
	if srcIP == "" {
		return
	}
	n.sock.sendUnicast(srcIP, data)
	n.metrics.digestRespSent.Inc()
}

// handleDigestResponse merges every update entry carried in a
// digest_resp, per spec.md 4.5.
func (n *Node) handleDigestResponse(resp digestResponseWire) {
	n.metrics.digestRespRecv.Inc()
	for _, u := range resp.Updates {
		n.acceptEntry(u.toEntry("", time.Now()))
	}
}

package gossip

import (
	"net"

	"golang.org/x/net/ipv4"
)

// sockets bundles the three UDP sockets a gossip node needs: a
// multicast sender, a multicast receiver joined to MulticastGroup, and
// a unicast responder for anti-entropy replies. Bind failures here are
// fatal to Node.Start and propagate to the caller, per spec.md 7.
type sockets struct {
	mcastSend *net.UDPConn
	mcastRecv *net.UDPConn
	unicast   *net.UDPConn

	port        int
	antiEntropy int
}

// openSockets binds all three sockets for the given base port P. The
// multicast receive socket joins MulticastGroup on INADDR_ANY; the
// unicast responder binds P+1.
func openSockets(port int) (*sockets, error) {
	mcastAddr := &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: port}

	send, err := net.DialUDP("udp4", nil, mcastAddr)
	if err != nil {
		return nil, err
	}
	if err := ipv4.NewPacketConn(send).SetMulticastTTL(MulticastTTL); err != nil {
		send.Close()
		return nil, err
	}

	recv, err := net.ListenMulticastUDP("udp4", nil, mcastAddr)
	if err != nil {
		send.Close()
		return nil, err
	}

	uniAddr := &net.UDPAddr{IP: net.IPv4zero, Port: port + 1}
	uni, err := net.ListenUDP("udp4", uniAddr)
	if err != nil {
		send.Close()
		recv.Close()
		return nil, err
	}

	return &sockets{
		mcastSend:   send,
		mcastRecv:   recv,
		unicast:     uni,
		port:        port,
		antiEntropy: port + 1,
	}, nil
}

func (s *sockets) close() {
	if s == nil {
		return
	}
	s.mcastSend.Close()
	s.mcastRecv.Close()
	s.unicast.Close()
}

// sendMulticast best-effort broadcasts data to the multicast group.
// Errors are swallowed: gossip is best-effort by design (spec.md 7).
func (s *sockets) sendMulticast(data []byte) {
	_, _ = s.mcastSend.Write(data)
}

// sendUnicast best-effort sends data to a specific host's anti-entropy
// responder port.
func (s *sockets) sendUnicast(ip string, data []byte) {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: s.antiEntropy}
	_, _ = s.unicast.WriteToUDP(data, addr)
}


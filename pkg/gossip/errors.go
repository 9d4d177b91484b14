package gossip

import "errors"

var (
	errBadDatagram = errors.New("gossip: malformed datagram")
	errUnknownType = errors.New("gossip: unknown message type")
)

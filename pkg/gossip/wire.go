package gossip

import (
	"encoding/json"
	"time"
)

// Message kind discriminators. The wire format is a flat JSON object with
// a "type" field; unknown types and malformed payloads are dropped
// silently by the receiver, never treated as fatal.
const (
	msgHeartbeat  = "heartbeat"
	msgDigestReq  = "digest_req"
	msgDigestResp = "digest_resp"
)

// envelope is used only to peek at the "type" discriminator before
// unmarshalling into a concrete message type.
type envelope struct {
	Type string `json:"type"`
}

// heartbeatWire mirrors NodeEntry's announced fields plus the "heartbeat"
// discriminator.
// It is also the shape of each element inside a digestResponseWire's
// Updates list (the "update entry" row from spec.md 4.1).
type heartbeatWire struct {
	Type         string  `json:"type"`
	NodeID       string  `json:"node_id"`
	Seq          uint64  `json:"seq"`
	GPUs         []GPU   `json:"gpus"`
	Timestamp    string  `json:"timestamp"`
	NetKbps      float64 `json:"net_kbps"`
	Epoch        float64 `json:"epoch"`
	LinkSpeed    float64 `json:"link_speed"`
	LinkSpeedMax float64 `json:"link_speed_max"`
}

type digestRequestWire struct {
	Type   string            `json:"type"`
	NodeID string            `json:"node_id"`
	Target string            `json:"target"`
	Digest map[string]uint64 `json:"digest"`
}

type digestResponseWire struct {
	Type    string          `json:"type"`
	NodeID  string          `json:"node_id"`
	Updates []heartbeatWire `json:"updates"`
}

// encodeHeartbeat serializes a heartbeat announcement to UTF-8 JSON bytes.
func encodeHeartbeat(e NodeEntry) ([]byte, error) {
	w := heartbeatWire{
		Type:         msgHeartbeat,
		NodeID:       e.NodeID,
		Seq:          e.Seq,
		GPUs:         e.GPUs,
		Timestamp:    e.Timestamp,
		NetKbps:      e.NetKbps,
		Epoch:        e.Epoch,
		LinkSpeed:    e.LinkSpeed,
		LinkSpeedMax: e.LinkSpeedMax,
	}
	return json.Marshal(w)
}

// encodeDigestRequest serializes an anti-entropy probe.
func encodeDigestRequest(nodeID, target string, digest map[string]uint64) ([]byte, error) {
	w := digestRequestWire{
		Type:   msgDigestReq,
		NodeID: nodeID,
		Target: target,
		Digest: digest,
	}
	return json.Marshal(w)
}

// encodeDigestResponse serializes an anti-entropy reply carrying updates.
func encodeDigestResponse(nodeID string, updates []NodeEntry) ([]byte, error) {
	w := digestResponseWire{
		Type:   msgDigestResp,
		NodeID: nodeID,
	}
	w.Updates = make([]heartbeatWire, len(updates))
	for i, e := range updates {
		w.Updates[i] = heartbeatWire{
			Type:         msgHeartbeat,
			NodeID:       e.NodeID,
			Seq:          e.Seq,
			GPUs:         e.GPUs,
			Timestamp:    e.Timestamp,
			NetKbps:      e.NetKbps,
			Epoch:        e.Epoch,
			LinkSpeed:    e.LinkSpeed,
			LinkSpeedMax: e.LinkSpeedMax,
		}
	}
	return json.Marshal(w)
}

// decodeMessage parses a raw datagram and returns exactly one of the
// three pointer results populated, or an error if the payload is too
// short, not JSON, or missing a recognized "type". Callers should treat
// any error as "drop silently" per spec.md 7.
func decodeMessage(data []byte) (hb *heartbeatWire, req *digestRequestWire, resp *digestResponseWire, err error) {
	if len(data) == 0 || len(data) > maxDatagramSize {
		return nil, nil, nil, errBadDatagram
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, nil, err
	}

	switch env.Type {
	case msgHeartbeat:
		var w heartbeatWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, nil, nil, err
		}
		return &w, nil, nil, nil
	case msgDigestReq:
		var w digestRequestWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, nil, nil, err
		}
		return nil, &w, nil, nil
	case msgDigestResp:
		var w digestResponseWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, &w, nil
	default:
		return nil, nil, nil, errUnknownType
	}
}

func (w heartbeatWire) toEntry(ip string, seen time.Time) NodeEntry {
	return NodeEntry{
		NodeID:       w.NodeID,
		GPUs:         w.GPUs,
		Timestamp:    w.Timestamp,
		Seq:          w.Seq,
		LastSeen:     seen,
		IP:           ip,
		NetKbps:      w.NetKbps,
		Epoch:        w.Epoch,
		LinkSpeed:    w.LinkSpeed,
		LinkSpeedMax: w.LinkSpeedMax,
	}
}

package gossip

import "testing"

func TestEncodeDecodeHeartbeat_RoundTrip(t *testing.T) {
	entry := NodeEntry{
		NodeID:       "hostB",
		Seq:          42,
		GPUs:         []GPU{{ID: 0, Model: "A6000", Limit: "4.0 x 16"}},
		Timestamp:    "01JAN25 00:00:00utc",
		NetKbps:      12.5,
		Epoch:        1700000000.5,
		LinkSpeed:    1000,
		LinkSpeedMax: 10000,
	}

	data, err := encodeHeartbeat(entry)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	hb, req, resp, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req != nil || resp != nil {
		t.Fatal("expected only a heartbeat to decode")
	}
	if hb == nil {
		t.Fatal("expected heartbeat, got nil")
	}

	got := hb.toEntry("", entry.LastSeen)
	if got.NodeID != entry.NodeID || got.Seq != entry.Seq ||
		got.Timestamp != entry.Timestamp || got.NetKbps != entry.NetKbps ||
		got.Epoch != entry.Epoch || got.LinkSpeed != entry.LinkSpeed ||
		got.LinkSpeedMax != entry.LinkSpeedMax || len(got.GPUs) != 1 ||
		got.GPUs[0] != entry.GPUs[0] {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, entry)
	}
}

func TestEncodeDecodeDigestRequest_RoundTrip(t *testing.T) {
	digest := map[string]uint64{"hostB": 3, "hostC": 5}

	data, err := encodeDigestRequest("hostA", "hostB", digest)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	hb, req, resp, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hb != nil || resp != nil {
		t.Fatal("expected only a digest request to decode")
	}
	if req.NodeID != "hostA" || req.Target != "hostB" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Digest["hostB"] != 3 || req.Digest["hostC"] != 5 {
		t.Fatalf("unexpected digest: %v", req.Digest)
	}
}

func TestEncodeDecodeDigestResponse_RoundTrip(t *testing.T) {
	updates := []NodeEntry{
		{NodeID: "hostB", Seq: 3},
		{NodeID: "local-host", Seq: 2},
	}

	data, err := encodeDigestResponse("hostB", updates)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	hb, req, resp, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hb != nil || req != nil {
		t.Fatal("expected only a digest response to decode")
	}
	if len(resp.Updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(resp.Updates))
	}
}

func TestDecodeMessage_MalformedDropped(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte(""),
		[]byte("not json"),
		[]byte(`{"type":"bogus"}`),
		[]byte(`{"type":`),
	}
	for _, c := range cases {
		if _, _, _, err := decodeMessage(c); err == nil {
			t.Fatalf("expected decode error for %q", c)
		}
	}
}

func TestDecodeMessage_MissingOptionalFieldsDefault(t *testing.T) {
	data := []byte(`{"type":"heartbeat","node_id":"hostB","seq":1}`)

	hb, _, _, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hb.NetKbps != 0 || hb.Epoch != 0 || hb.LinkSpeed != 0 {
		t.Fatalf("expected missing numeric fields to default to 0, got %+v", hb)
	}
	if len(hb.GPUs) != 0 {
		t.Fatalf("expected missing gpus to default to empty, got %v", hb.GPUs)
	}
	if hb.Timestamp != "" {
		t.Fatalf("expected missing timestamp to default to empty string, got %q", hb.Timestamp)
	}
}

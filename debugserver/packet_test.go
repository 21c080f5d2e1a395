package debugserver

import "testing"

func TestSplitPacketValidFrame(t *testing.T) {
	// "$g#67" - payload "g", checksum 'g' = 0x67
	buf := []byte("$g#67")
	f, n, ok := splitPacket(buf)
	if !ok {
		t.Fatalf("expected a valid frame")
	}
	if string(f.data) != "g" {
		t.Fatalf("frame data = %q, want %q", f.data, "g")
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
}

func TestSplitPacketBadChecksumRejected(t *testing.T) {
	buf := []byte("$g#00")
	_, _, ok := splitPacket(buf)
	if ok {
		t.Fatalf("a frame with the wrong checksum should not validate")
	}
}

func TestSplitPacketIncompleteFrame(t *testing.T) {
	buf := []byte("$g#6")
	_, _, ok := splitPacket(buf)
	if ok {
		t.Fatalf("a frame missing its checksum byte should not be complete")
	}
}

func TestSplitPacketSkipsLeadingAcks(t *testing.T) {
	buf := []byte("+$g#67")
	f, n, ok := splitPacket(buf)
	if !ok || string(f.data) != "g" {
		t.Fatalf("a leading '+' ack byte should be tolerated")
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
}

func TestBuildReplyRoundTrips(t *testing.T) {
	reply := buildReply([]byte("OK"))
	f, n, ok := splitPacket(reply)
	if !ok {
		t.Fatalf("buildReply's own output should parse back with splitPacket")
	}
	if string(f.data) != "OK" {
		t.Fatalf("round-tripped payload = %q, want %q", f.data, "OK")
	}
	if n != len(reply) {
		t.Fatalf("consumed %d bytes, want the whole reply (%d)", n, len(reply))
	}
}

func TestHexWordRoundTrip(t *testing.T) {
	v, err := hexToWord([]byte(wordToHex(0xdeadbeef)))
	if err != nil {
		t.Fatalf("hexToWord: %v", err)
	}
	if v != 0xdeadbeef {
		t.Fatalf("round-tripped word = %#x, want 0xdeadbeef", v)
	}
}

func TestBytesHexRoundTrip(t *testing.T) {
	orig := []byte{0x00, 0x42, 0xff, 0x10}
	out, err := hexToBytes([]byte(bytesToHex(orig)))
	if err != nil {
		t.Fatalf("hexToBytes: %v", err)
	}
	if len(out) != len(orig) {
		t.Fatalf("round-tripped %d bytes, want %d", len(out), len(orig))
	}
	for i := range orig {
		if out[i] != orig[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], orig[i])
		}
	}
}

func TestSwapBytes32(t *testing.T) {
	if got := swapBytes32(0x12345678); got != 0x78563412 {
		t.Fatalf("swapBytes32(0x12345678) = %#x, want 0x78563412", got)
	}
}

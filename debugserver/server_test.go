package debugserver

import (
	"fmt"
	"net"
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
)

func newTestServer(t *testing.T) (*Server, net.Conn) {
	t.Helper()
	mmap := memorymodel.Default()
	core := arm.New(mmap, arm.NewPeripheralSet(mmap))
	core.Reset()
	client, target := net.Pipe()
	t.Cleanup(func() { client.Close(); target.Close() })
	return New(core), target
}

func TestDispatchReadAllRegistersLength(t *testing.T) {
	s, conn := newTestServer(t)
	reply, keepGoing := s.dispatch(conn, []byte("g"), map[uint32]bool{})
	if !keepGoing {
		t.Fatalf("dispatch(g) ended the session, want it to continue")
	}
	// 15 registers (r0..r14), 8 hex digits each.
	if len(reply) != 15*8 {
		t.Fatalf("reply length = %d, want %d", len(reply), 15*8)
	}
}

func TestDispatchWriteThenReadOneRegister(t *testing.T) {
	s, conn := newTestServer(t)

	// writeOneRegister treats the hex payload as a raw little-endian byte
	// stream, the same wire order readOneRegister replies in, so the wire
	// value here is the byte-swapped hex of the target register value.
	write := fmt.Sprintf("P3=%s", wordToHex(swapBytes32(0xdeadbeef)))
	reply, _ := s.dispatch(conn, []byte(write), map[uint32]bool{})
	if string(reply) != "OK" {
		t.Fatalf("write register reply = %q, want OK", reply)
	}

	reply, _ = s.dispatch(conn, []byte("p3"), map[uint32]bool{})
	got := swapBytes32(mustHexWord(t, reply))
	if got != 0xdeadbeef {
		t.Fatalf("register 3 readback = %#x, want 0xdeadbeef", got)
	}
}

func TestDispatchMemoryWriteThenRead(t *testing.T) {
	s, conn := newTestServer(t)
	mmap := memorymodel.Default()
	addr := mmap.SRAMBase + 0x10

	write := fmt.Sprintf("M%x,4:%s", addr, bytesToHex([]byte{0xde, 0xad, 0xbe, 0xef}))
	reply, _ := s.dispatch(conn, []byte(write), map[uint32]bool{})
	if string(reply) != "OK" {
		t.Fatalf("write memory reply = %q, want OK", reply)
	}

	read := fmt.Sprintf("m%x,4", addr)
	reply, _ = s.dispatch(conn, []byte(read), map[uint32]bool{})
	if string(reply) != "deadbeef" {
		t.Fatalf("read memory reply = %q, want %q", reply, "deadbeef")
	}
}

func TestDispatchBreakpointInsertAndRemove(t *testing.T) {
	s, conn := newTestServer(t)
	breakpoints := map[uint32]bool{}
	addr := uint32(0x0800_0040)

	insert := fmt.Sprintf("Z0,%x,4", addr)
	reply, _ := s.dispatch(conn, []byte(insert), breakpoints)
	if string(reply) != "OK" || !breakpoints[addr] {
		t.Fatalf("insert breakpoint: reply=%q breakpoints[addr]=%v, want OK/true", reply, breakpoints[addr])
	}

	remove := fmt.Sprintf("z0,%x,4", addr)
	reply, _ = s.dispatch(conn, []byte(remove), breakpoints)
	if string(reply) != "OK" || breakpoints[addr] {
		t.Fatalf("remove breakpoint: reply=%q breakpoints[addr]=%v, want OK/false", reply, breakpoints[addr])
	}
}

func TestDispatchUnknownPacketIsEmptyReply(t *testing.T) {
	s, conn := newTestServer(t)
	reply, keepGoing := s.dispatch(conn, []byte("$zzz"), map[uint32]bool{})
	if !keepGoing {
		t.Fatalf("an unrecognised packet should not end the session")
	}
	if len(reply) != 0 {
		t.Fatalf("unknown packet reply = %q, want empty", reply)
	}
}

func mustHexWord(t *testing.T, h []byte) uint32 {
	t.Helper()
	v, err := hexToWord(h)
	if err != nil {
		t.Fatalf("hexToWord(%q): %v", h, err)
	}
	return v
}

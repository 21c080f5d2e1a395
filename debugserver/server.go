package debugserver

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
	"github.com/cpmpercussion/comp2300-discoserver/internal/logger"
)

// pollInterval is how many steps the continue loop runs between checks of
// the connection for an interrupt byte (0x03), matching "2. Debug server"
// in the component design: cancellation latency is bounded by this batch
// plus one pollTimeout read.
const pollInterval = 128

// pollTimeout bounds how long cont's read deadline waits for an interrupt
// byte before falling back to stepping.
const pollTimeout = 5 * time.Millisecond

// Server drives one ARM core over one TCP connection using the GDB Remote
// Serial Protocol. It is single-connection: ListenAndServe accepts one
// client and never accepts a second, since only one debugger session makes
// sense against one emulated target.
type Server struct {
	core *arm.ARM
}

// New wraps core for debug-server access. core should already have had an
// ELF loaded into it (see elfload.Load) and Reset called.
func New(core *arm.ARM) *Server {
	return &Server{core: core}
}

// ListenAndServe binds addr (host:port) and serves exactly one client
// connection before returning.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	logger.Logf(logger.Allow, "debugserver", "listening on %s", addr)

	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	s.handle(conn)
	return nil
}

func (s *Server) handle(conn net.Conn) {
	breakpoints := make(map[uint32]bool)
	buf := make([]byte, 4096)
	pending := make([]byte, 0, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			logger.Logf(logger.Allow, "debugserver", "connection closed: %v", err)
			return
		}
		pending = append(pending, buf[:n]...)

		for {
			pk, consumed, ok := splitPacket(pending)
			if consumed == 0 {
				break
			}
			pending = pending[consumed:]
			if !ok {
				continue // checksum mismatch: drop the malformed packet, wait for a retransmit
			}

			conn.Write([]byte{'+'})
			reply, keepGoing := s.dispatch(conn, pk.data, breakpoints)
			if reply != nil {
				conn.Write(buildReply(reply))
			}
			if !keepGoing {
				return
			}
		}
	}
}

// dispatch interprets one packet payload and returns the reply payload to
// frame and send. keepGoing false tells handle to close the connection.
func (s *Server) dispatch(conn net.Conn, data []byte, breakpoints map[uint32]bool) ([]byte, bool) {
	switch {
	case strings.HasPrefix(string(data), "qSupported"):
		return []byte("PacketSize=4096"), true

	case string(data) == "!", string(data) == "Hg0", strings.HasPrefix(string(data), "Hc"), string(data) == "qSymbol::":
		return []byte("OK"), true

	case string(data) == "qTStatus":
		return []byte("T0"), true

	case strings.HasPrefix(string(data), "v"), string(data) == "qTfV", string(data) == "qTfP":
		return []byte{}, true

	case string(data) == "?":
		return []byte("S05"), true

	case string(data) == "qfThreadInfo":
		return []byte("m0"), true

	case string(data) == "qsThreadInfo":
		return []byte("l"), true

	case string(data) == "qC":
		return []byte("QC0"), true

	case string(data) == "qAttached":
		return []byte("0"), true

	case string(data) == "qOffsets":
		return []byte("Text=0;Data=0;Bss=0"), true

	case string(data) == "g":
		return s.readAllRegisters(), true

	case strings.HasPrefix(string(data), "G"):
		return s.writeAllRegisters(data[1:]), true

	case strings.HasPrefix(string(data), "p"):
		return s.readOneRegister(data[1:]), true

	case strings.HasPrefix(string(data), "P"):
		return s.writeOneRegister(data[1:]), true

	case strings.HasPrefix(string(data), "m"):
		return s.readMemory(data), true

	case strings.HasPrefix(string(data), "M"):
		return s.writeMemory(data), true

	case strings.HasPrefix(string(data), "c"):
		return s.cont(conn, breakpoints), true

	case strings.HasPrefix(string(data), "s"):
		return s.step(data), true

	case strings.HasPrefix(string(data), "Z"):
		return s.insertPoint(data, breakpoints), true

	case strings.HasPrefix(string(data), "z"):
		return s.removePoint(data, breakpoints), true

	default:
		return []byte{}, true
	}
}

// readAllRegisters packs r0..r14 (the protocol's register 15, PC, is
// fetched separately via "p" in this stub, matching the reference client's
// own usage pattern).
func (s *Server) readAllRegisters() []byte {
	var out strings.Builder
	regs := s.core.Registers()
	for i := uint8(0); i <= 14; i++ {
		out.WriteString(wordToHex(swapBytes32(regs.Get(i))))
	}
	return []byte(out.String())
}

func (s *Server) writeAllRegisters(hex []byte) []byte {
	raw, err := hexToBytes(hex)
	if err != nil {
		return []byte("E01")
	}
	regs := s.core.Registers()
	for i := 0; i+4 <= len(raw) && i/4 <= 14; i += 4 {
		v := uint32(raw[i]) | uint32(raw[i+1])<<8 | uint32(raw[i+2])<<16 | uint32(raw[i+3])<<24
		regs.Set(uint8(i/4), v)
	}
	return []byte("OK")
}

func (s *Server) readOneRegister(hex []byte) []byte {
	n, err := hexToWord(hex)
	if err != nil {
		return []byte("E01")
	}
	var v uint32
	switch {
	case n == 15:
		v = s.core.Registers().InstructionPC()
	case n < 15:
		v = s.core.Registers().Get(uint8(n))
	case n == 25:
		v = s.core.XPSR()
	default:
		return []byte("00000000")
	}
	return []byte(wordToHex(swapBytes32(v)))
}

func (s *Server) writeOneRegister(data []byte) []byte {
	parts := strings.SplitN(string(data), "=", 2)
	if len(parts) != 2 {
		return []byte("E01")
	}
	n, err := hexToWord([]byte(parts[0]))
	if err != nil {
		return []byte("E01")
	}
	raw, err := hexToBytes([]byte(parts[1]))
	if err != nil || len(raw) < 4 {
		return []byte("E01")
	}
	v := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	switch {
	case n == 25:
		s.core.SetXPSR(v)
	case n <= 15:
		s.core.Registers().Set(uint8(n), v)
	}
	return []byte("OK")
}

func (s *Server) readMemory(data []byte) []byte {
	addr, length, err := parseMemoryRange(data[1:])
	if err != nil {
		return []byte("E01")
	}
	bytesRead := s.core.Bus().ReadBytes(addr, int(length))
	return []byte(bytesToHex(bytesRead))
}

func (s *Server) writeMemory(data []byte) []byte {
	rest := data[1:]
	colon := bytes.IndexByte(rest, ':')
	if colon < 0 {
		return []byte("E01")
	}
	addr, _, err := parseMemoryRange(rest[:colon])
	if err != nil {
		return []byte("E01")
	}
	raw, err := hexToBytes(rest[colon+1:])
	if err != nil {
		return []byte("E01")
	}
	s.core.Bus().WriteBytes(addr, raw)
	return []byte("OK")
}

var errMalformedPacket = errors.New("malformed packet")

func parseMemoryRange(data []byte) (addr, length uint32, err error) {
	parts := strings.SplitN(string(data), ",", 2)
	if len(parts) != 2 {
		return 0, 0, errMalformedPacket
	}
	addr, err = hexToWord([]byte(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	length, err = hexToWord([]byte(parts[1]))
	return addr, length, err
}

// cont implements "continue until breakpoint": alternate between a short,
// timed read looking for the 0x03 interrupt byte and a batch of pollInterval
// steps, all on this connection's own goroutine. This is the single-threaded
// shape the component design calls for: cancellation latency is bounded by
// pollTimeout plus one batch of steps, never by a blocking read.
func (s *Server) cont(conn net.Conn, breakpoints map[uint32]bool) []byte {
	conn.Write([]byte("+"))
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 64)
	for !breakpoints[s.core.Registers().InstructionPC()] {
		conn.SetReadDeadline(time.Now().Add(pollTimeout))
		n, err := conn.Read(buf)
		if err == nil && n >= 1 && buf[0] == 0x03 {
			break
		}

		stop := false
		for i := 0; i < pollInterval; i++ {
			if breakpoints[s.core.Registers().InstructionPC()] {
				stop = true
				break
			}
			if s.core.Step() != arm.YieldNone {
				stop = true
				break
			}
		}
		if stop {
			break
		}
	}
	return []byte("S05")
}

func (s *Server) step(data []byte) []byte {
	s.core.Step()
	if len(data) > 1 {
		if addr, err := hexToWord(data[1:]); err == nil {
			for s.core.Registers().InstructionPC() != addr {
				if s.core.Step() != arm.YieldNone {
					break
				}
			}
		}
	}
	return []byte("S05")
}

func (s *Server) insertPoint(data []byte, breakpoints map[uint32]bool) []byte {
	addr, ok := parsePointAddr(data)
	if !ok {
		return []byte{}
	}
	breakpoints[addr] = true
	s.core.SetBreakpoint(addr)
	return []byte("OK")
}

func (s *Server) removePoint(data []byte, breakpoints map[uint32]bool) []byte {
	addr, ok := parsePointAddr(data)
	if !ok {
		return []byte{}
	}
	delete(breakpoints, addr)
	s.core.ClearBreakpoint(addr)
	return []byte("OK")
}

// parsePointAddr reads the address out of a "Z0,<addr>,<kind>" /
// "z0,<addr>,<kind>" packet. Only software breakpoints (type 0) are
// supported; other types are rejected so the client falls back to a
// software breakpoint itself.
func parsePointAddr(data []byte) (uint32, bool) {
	if len(data) < 2 || data[1] != '0' {
		return 0, false
	}
	rest := data[3:] // past "Z0," or "z0,"
	comma := bytes.IndexByte(rest, ',')
	if comma < 0 {
		return 0, false
	}
	addr, err := hexToWord(rest[:comma])
	if err != nil {
		return 0, false
	}
	return addr, true
}

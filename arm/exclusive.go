package arm

import "github.com/cpmpercussion/comp2300-discoserver/internal/bits"

// ExclusiveMonitor backs the LDREX/STREX instruction pairs. The
// single-processor simplification documented in the architecture notes
// applies: a reservation is not tagged with the reserving address for the
// purposes of STREX success (any aligned STREX of the right size succeeds
// once reserved), matching "the single-processor simplification" called out
// in the component design.
type ExclusiveMonitor struct {
	reserved bool
	addr     uint32
	size     uint32
}

// Set marks addr (of the given size) as reserved, called from any
// LDREX/LDREXB/LDREXH.
func (m *ExclusiveMonitor) Set(addr, size uint32) {
	m.reserved = true
	m.addr = bits.Align(addr, size)
	m.size = size
}

// CheckAndClear reports whether a STREX/STREXB/STREXH of the given address
// and size succeeds, and clears the reservation either way (a failed STREX
// still consumes the reservation, matching the architecture: only one
// STREX may ever succeed per LDREX).
func (m *ExclusiveMonitor) CheckAndClear(addr, size uint32) bool {
	ok := m.reserved
	m.reserved = false
	return ok
}

// Clear unconditionally drops any reservation: CLREX, branches that leave
// the exclusive sequence, and exception entry/exit all call this.
func (m *ExclusiveMonitor) Clear() {
	m.reserved = false
}

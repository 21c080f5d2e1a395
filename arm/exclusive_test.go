package arm

import "testing"

func TestExclusiveMonitorFirstStrexSucceeds(t *testing.T) {
	var m ExclusiveMonitor
	m.Set(0x2000_0010, 4)
	if !m.CheckAndClear(0x2000_0010, 4) {
		t.Fatalf("first STREX after LDREX should succeed")
	}
}

func TestExclusiveMonitorOnlyOneStrexSucceeds(t *testing.T) {
	var m ExclusiveMonitor
	m.Set(0x2000_0010, 4)
	if !m.CheckAndClear(0x2000_0010, 4) {
		t.Fatalf("first STREX should succeed")
	}
	if m.CheckAndClear(0x2000_0010, 4) {
		t.Fatalf("second STREX with no intervening LDREX should fail")
	}
}

func TestExclusiveMonitorClearDropsReservation(t *testing.T) {
	var m ExclusiveMonitor
	m.Set(0x2000_0010, 4)
	m.Clear()
	if m.CheckAndClear(0x2000_0010, 4) {
		t.Fatalf("STREX after CLREX should fail")
	}
}

func TestExclusiveMonitorAlignsReservedAddress(t *testing.T) {
	var m ExclusiveMonitor
	m.Set(0x2000_0013, 4)
	if m.addr != 0x2000_0010 {
		t.Fatalf("reserved address = %#x, want aligned 0x20000010", m.addr)
	}
}

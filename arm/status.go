package arm

import (
	"fmt"
	"strings"
)

// Flags holds the five APSR condition flags: N(egative), Z(ero), C(arry),
// V(overflow) and Q (saturation, sticky once set).
type Flags struct {
	N, Z, C, V, Q bool
}

func (f Flags) String() string {
	s := strings.Builder{}
	for _, b := range []struct {
		set  bool
		on   rune
		off  rune
	}{
		{f.N, 'N', 'n'},
		{f.Z, 'Z', 'z'},
		{f.C, 'C', 'c'},
		{f.V, 'V', 'v'},
		{f.Q, 'Q', 'q'},
	} {
		if b.set {
			s.WriteRune(b.on)
		} else {
			s.WriteRune(b.off)
		}
	}
	return s.String()
}

func (f *Flags) reset() {
	*f = Flags{}
}

// setNZ updates N and Z from a 32-bit result, the common tail of every
// flag-setting data-processing instruction.
func (f *Flags) setNZ(result uint32) {
	f.N = result&0x80000000 != 0
	f.Z = result == 0
}

// Condition is one of the 16 architectural condition codes, including the
// Always/Never pair used by unconditional and reserved encodings.
type Condition uint8

const (
	CondEQ Condition = 0b0000
	CondNE Condition = 0b0001
	CondCS Condition = 0b0010
	CondCC Condition = 0b0011
	CondMI Condition = 0b0100
	CondPL Condition = 0b0101
	CondVS Condition = 0b0110
	CondVC Condition = 0b0111
	CondHI Condition = 0b1000
	CondLS Condition = 0b1001
	CondGE Condition = 0b1010
	CondLT Condition = 0b1011
	CondGT Condition = 0b1100
	CondLE Condition = 0b1101
	CondAL Condition = 0b1110
	CondNV Condition = 0b1111
)

// Meets evaluates condition cond against the current flags. This is "A7.3
// Conditional execution" in the ARMv7-M reference.
func (f Flags) Meets(cond Condition) bool {
	switch cond {
	case CondEQ:
		return f.Z
	case CondNE:
		return !f.Z
	case CondCS:
		return f.C
	case CondCC:
		return !f.C
	case CondMI:
		return f.N
	case CondPL:
		return !f.N
	case CondVS:
		return f.V
	case CondVC:
		return !f.V
	case CondHI:
		return f.C && !f.Z
	case CondLS:
		return !f.C || f.Z
	case CondGE:
		return f.N == f.V
	case CondLT:
		return f.N != f.V
	case CondGT:
		return !f.Z && f.N == f.V
	case CondLE:
		return f.Z || f.N != f.V
	case CondAL:
		return true
	case CondNV:
		return false
	}
	panic(fmt.Sprintf("arm: condition field out of range: %#x", uint8(cond)))
}

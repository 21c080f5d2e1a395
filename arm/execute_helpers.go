package arm

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/opcode"
	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
)

// isImmediateVariant reports whether op's second operand is the decoded
// Imm field (a plain or Thumb-2 modified immediate) rather than a shifted
// register.
func isImmediateVariant(op opcode.Opcode) bool {
	switch op {
	case opcode.AndImm, opcode.BicImm, opcode.OrrImm, opcode.OrnImm, opcode.EorImm,
		opcode.TstImm, opcode.TeqImm, opcode.MovImm, opcode.MvnImm,
		opcode.AddImm, opcode.AddSpImm, opcode.SubImm, opcode.SubSpImm, opcode.RsbImm,
		opcode.AdcImm, opcode.SbcImm, opcode.CmpImm, opcode.CmnImm:
		return true
	}
	return false
}

// operand2WithCarry evaluates "operand2" of a data-processing instruction
// together with the carry it contributes when the instruction sets flags:
// for the register form this is the barrel shifter's carry-out: for the
// modified-immediate form it is what ThumbExpandImmC spilled (or the
// incoming carry, unchanged, for plain/narrow immediates).
func (arm *ARM) operand2WithCarry(op Op) (uint32, bool) {
	if isImmediateVariant(op.Opcode) {
		if op.CarrySpill == bits.CarryFromBit31 {
			return op.Imm, op.Imm&0x80000000 != 0
		}
		return op.Imm, arm.flags.C
	}
	v := arm.registers.Get(op.Rm)
	return bits.Shift(v, op.ShiftType, op.ShiftN, arm.flags.C)
}

func (arm *ARM) operand2(op Op) uint32 {
	v, _ := arm.operand2WithCarry(op)
	return v
}

// dataProcessingLogic implements the shared shape of AND/BIC/ORR/ORN/EOR:
// Rd := fn(Rn, operand2), flags optionally updated with NZ from the result
// and C from the shifter/immediate carry.
func (arm *ARM) dataProcessingLogic(op Op, fn func(a, b uint32) uint32) YieldReason {
	a := arm.registers.Get(op.Rn)
	b, carry := arm.operand2WithCarry(op)
	result := fn(a, b)
	arm.registers.Set(op.Rd, result)
	if op.SetFlags {
		arm.flags.setNZ(result)
		arm.flags.C = carry
	}
	return YieldNone
}

// testOnlyLogic implements TST/TEQ: same computation as dataProcessingLogic
// but the result is discarded and flags are always updated (TST/TEQ have no
// unflagged form).
func (arm *ARM) testOnlyLogic(op Op, fn func(a, b uint32) uint32) YieldReason {
	a := arm.registers.Get(op.Rn)
	b, carry := arm.operand2WithCarry(op)
	result := fn(a, b)
	arm.flags.setNZ(result)
	arm.flags.C = carry
	return YieldNone
}

// moveLike implements MOV/MVN: Rd := operand2 (optionally inverted).
func (arm *ARM) moveLike(op Op, invert bool) YieldReason {
	v, carry := arm.operand2WithCarry(op)
	if invert {
		v = ^v
	}
	arm.registers.Set(op.Rd, v)
	if op.SetFlags {
		arm.flags.setNZ(v)
		arm.flags.C = carry
	}
	return YieldNone
}

// addSub implements ADD/SUB (immediate, register, and the SP-relative
// aliases), all of which reduce to the single AddWithCarry primitive.
func (arm *ARM) addSub(op Op, isSub bool) YieldReason {
	a := arm.registers.Get(op.Rn)
	b := arm.operand2(op)
	var result uint32
	var c, v bool
	if isSub {
		result, c, v = bits.AddWithCarry(a, ^b, true)
	} else {
		result, c, v = bits.AddWithCarry(a, b, false)
	}
	arm.registers.Set(op.Rd, result)
	if op.SetFlags {
		arm.flags.setNZ(result)
		arm.flags.C = c
		arm.flags.V = v
	}
	return YieldNone
}

// reverseSub implements RSB: Rd := operand2 - Rn.
func (arm *ARM) reverseSub(op Op) YieldReason {
	a := arm.registers.Get(op.Rn)
	b := arm.operand2(op)
	result, c, v := bits.AddWithCarry(b, ^a, true)
	arm.registers.Set(op.Rd, result)
	if op.SetFlags {
		arm.flags.setNZ(result)
		arm.flags.C = c
		arm.flags.V = v
	}
	return YieldNone
}

// addWithCarryOp implements ADC, SBC, CMP and CMN, the four instructions
// built directly on AddWithCarry with an explicit carry-in.
func (arm *ARM) addWithCarryOp(op Op, isSub bool, compareOnly bool) YieldReason {
	a := arm.registers.Get(op.Rn)
	b := arm.operand2(op)

	var cIn bool
	if compareOnly {
		// CMP's carry-in is fixed at 1 (a plain subtraction); CMN's at 0.
		cIn = isSub
	} else {
		cIn = arm.flags.C
	}

	var result uint32
	var c, v bool
	if isSub {
		result, c, v = bits.AddWithCarry(a, ^b, cIn)
	} else {
		result, c, v = bits.AddWithCarry(a, b, cIn)
	}

	if !compareOnly {
		arm.registers.Set(op.Rd, result)
	}
	if op.SetFlags || compareOnly {
		arm.flags.setNZ(result)
		arm.flags.C = c
		arm.flags.V = v
	}
	return YieldNone
}

// shiftOp implements the standalone LSL/LSR/ASR/ROR mnemonics (as opposed to
// the shifted-register operand2 folded into MOV/data-processing). Imm forms
// carry their count in ShiftN already; Reg forms take it from the low byte
// of Rm at execution time.
func (arm *ARM) shiftOp(op Op, typ bits.ShiftType) YieldReason {
	var result uint32
	var carry bool
	switch op.Opcode {
	case opcode.LslImm, opcode.LsrImm, opcode.AsrImm, opcode.RorImm:
		v := arm.registers.Get(op.Rm)
		result, carry = bits.Shift(v, typ, op.ShiftN, arm.flags.C)
	default:
		v := arm.registers.Get(op.Rn)
		amount := arm.registers.Get(op.Rm) & 0xff
		result, carry = bits.Shift(v, typ, uint(amount), arm.flags.C)
	}
	arm.registers.Set(op.Rd, result)
	if op.SetFlags {
		arm.flags.setNZ(result)
		arm.flags.C = carry
	}
	return YieldNone
}

func rotateRight(v uint32, n uint) uint32 {
	if n == 0 {
		return v
	}
	r, _ := bits.ROR_C(v, n)
	return r
}

// loadStoreAddress computes the effective address for a single load/store
// and, when Wback is set, the value the base register should be updated to
// afterwards. Rn == rPC is the literal-pool special case: the base is
// word-aligned PC rather than the raw register value, and writeback never
// applies.
func (arm *ARM) loadStoreAddress(op Op) (addr uint32, writeback uint32, hasWriteback bool) {
	base := arm.registers.Get(op.Rn)
	if op.Rn == rPC {
		base = bits.Align(base, 4)
	}

	var offset uint32
	if op.RegOffset {
		offset, _ = bits.Shift(arm.registers.Get(op.Rm), op.ShiftType, op.ShiftN, arm.flags.C)
	} else {
		offset = op.Imm
	}

	var offsetAddr uint32
	if op.Add {
		offsetAddr = base + offset
	} else {
		offsetAddr = base - offset
	}

	addr = base
	if op.Index {
		addr = offsetAddr
	}
	return addr, offsetAddr, op.Wback
}

func (arm *ARM) writeback(op Op, newBase uint32) {
	if op.Wback && op.Rn != rPC {
		arm.registers.Set(op.Rn, newBase)
	}
}

func (arm *ARM) loadSingle(op Op, size uint32, signed bool) YieldReason {
	addr, newBase, _ := arm.loadStoreAddress(op)
	if arm.checkWatchpoint(addr, false) {
		arm.pendingFault = true
	}
	v, err := arm.bus.ReadUnaligned(addr, size)
	if err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	if signed {
		v = bits.SignExtend(v, uint(size*8-1))
	}
	arm.registers.Set(op.Rt, v)
	arm.writeback(op, newBase)
	return YieldNone
}

func (arm *ARM) storeSingle(op Op, size uint32) YieldReason {
	addr, newBase, _ := arm.loadStoreAddress(op)
	if arm.checkWatchpoint(addr, true) {
		arm.pendingFault = true
	}
	v := arm.registers.Get(op.Rt)
	if err := arm.bus.WriteUnaligned(addr, v, size); err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	arm.writeback(op, newBase)
	return YieldNone
}

func (arm *ARM) loadDouble(op Op) YieldReason {
	addr, newBase, _ := arm.loadStoreAddress(op)
	v1, err := arm.bus.ReadAligned(addr, 4)
	if err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	v2, err := arm.bus.ReadAligned(addr+4, 4)
	if err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	arm.registers.Set(op.Rt, v1)
	arm.registers.Set(op.Rt2, v2)
	if op.Wback {
		arm.writeback(op, newBase)
	}
	return YieldNone
}

func (arm *ARM) storeDouble(op Op) YieldReason {
	addr, newBase, _ := arm.loadStoreAddress(op)
	if err := arm.bus.WriteAligned(addr, arm.registers.Get(op.Rt), 4); err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	if err := arm.bus.WriteAligned(addr+4, arm.registers.Get(op.Rt2), 4); err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	if op.Wback {
		arm.writeback(op, newBase)
	}
	return YieldNone
}

func (arm *ARM) storeExclusive(op Op, addr uint32, size uint32) YieldReason {
	ok := arm.exclusive.CheckAndClear(addr, size)
	if !ok {
		arm.registers.Set(op.Rd, 1)
		return YieldNone
	}
	if err := arm.bus.WriteAligned(addr, arm.registers.Get(op.Rt), size); err != nil {
		arm.pendingFault = true
		return YieldFault
	}
	arm.registers.Set(op.Rd, 0)
	return YieldNone
}

// pushRegList/popRegList implement PUSH/POP as the STMDB!/LDM! aliases they
// architecturally are, one word at a time in ascending register order (the
// order POP must use so that a simultaneous POP{..,PC} reads PC last).
func (arm *ARM) pushRegList(regList uint16) YieldReason {
	sp := arm.registers.Get(rSP)
	count := popcount16(regList)
	addr := sp - uint32(count)*4
	for r := uint8(0); r < 16; r++ {
		if regList&(1<<r) == 0 {
			continue
		}
		if err := arm.bus.WriteAligned(addr, arm.registers.Get(r), 4); err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		addr += 4
	}
	arm.registers.Set(rSP, sp-uint32(count)*4)
	return YieldNone
}

func (arm *ARM) popRegList(regList uint16) YieldReason {
	sp := arm.registers.Get(rSP)
	addr := sp
	for r := uint8(0); r < 16; r++ {
		if regList&(1<<r) == 0 {
			continue
		}
		v, err := arm.bus.ReadAligned(addr, 4)
		if err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		if r == rPC {
			arm.registers.Set(rSP, addr+4)
			arm.branchTo(v)
			return YieldNone
		}
		arm.registers.Set(r, v)
		addr += 4
	}
	arm.registers.Set(rSP, addr)
	return YieldNone
}

func (arm *ARM) storeMultiple(op Op) YieldReason {
	base := arm.registers.Get(op.Rn)
	count := popcount16(op.RegList)
	var addr uint32
	if op.Opcode == opcode.Stmdb {
		addr = base - uint32(count)*4
	} else {
		addr = base
	}
	for r := uint8(0); r < 16; r++ {
		if op.RegList&(1<<r) == 0 {
			continue
		}
		if err := arm.bus.WriteAligned(addr, arm.registers.Get(r), 4); err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		addr += 4
	}
	if op.Wback {
		if op.Opcode == opcode.Stmdb {
			arm.registers.Set(op.Rn, base-uint32(count)*4)
		} else {
			arm.registers.Set(op.Rn, base+uint32(count)*4)
		}
	}
	return YieldNone
}

func (arm *ARM) loadMultiple(op Op) YieldReason {
	base := arm.registers.Get(op.Rn)
	count := popcount16(op.RegList)
	var addr uint32
	if op.Opcode == opcode.Ldmdb {
		addr = base - uint32(count)*4
	} else {
		addr = base
	}
	newBase := base
	if op.Opcode == opcode.Ldmdb {
		newBase = base - uint32(count)*4
	} else {
		newBase = base + uint32(count)*4
	}
	for r := uint8(0); r < 16; r++ {
		if op.RegList&(1<<r) == 0 {
			continue
		}
		v, err := arm.bus.ReadAligned(addr, 4)
		if err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		if r == rPC {
			if op.Wback {
				arm.registers.Set(op.Rn, newBase)
			}
			arm.branchTo(v)
			return YieldNone
		}
		arm.registers.Set(r, v)
		addr += 4
	}
	if op.Wback {
		arm.registers.Set(op.Rn, newBase)
	}
	return YieldNone
}

func popcount16(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

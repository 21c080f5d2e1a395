package arm

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/opcode"
	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
	"github.com/cpmpercussion/comp2300-discoserver/internal/faults"
	"github.com/cpmpercussion/comp2300-discoserver/internal/logger"
)

// execute carries out op, whose source instruction began at pc and whose
// architecturally-next instruction (absent any branch) is at nextPC. Most
// handlers return YieldNone; a handler returns a different reason only when
// the instruction itself ends the run (SVC, BKPT, UDF, WFI/WFE with nothing
// pending, or a memory fault).
func (arm *ARM) execute(op Op, pc, nextPc uint32) YieldReason {
	switch op.Opcode {

	// --- data processing: immediate and register, shared via operand2 ---
	case opcode.AndImm, opcode.AndReg:
		return arm.dataProcessingLogic(op, func(a, b uint32) uint32 { return a & b })
	case opcode.BicImm, opcode.BicReg:
		return arm.dataProcessingLogic(op, func(a, b uint32) uint32 { return a &^ b })
	case opcode.OrrImm, opcode.OrrReg:
		return arm.dataProcessingLogic(op, func(a, b uint32) uint32 { return a | b })
	case opcode.OrnImm, opcode.OrnReg:
		return arm.dataProcessingLogic(op, func(a, b uint32) uint32 { return a | ^b })
	case opcode.EorImm, opcode.EorReg:
		return arm.dataProcessingLogic(op, func(a, b uint32) uint32 { return a ^ b })
	case opcode.TstImm, opcode.TstReg:
		return arm.testOnlyLogic(op, func(a, b uint32) uint32 { return a & b })
	case opcode.TeqImm, opcode.TeqReg:
		return arm.testOnlyLogic(op, func(a, b uint32) uint32 { return a ^ b })
	case opcode.MovImm, opcode.MovReg:
		return arm.moveLike(op, false)
	case opcode.MvnImm, opcode.MvnReg:
		return arm.moveLike(op, true)
	case opcode.Movt:
		v := arm.registers.Get(op.Rd)
		arm.registers.Set(op.Rd, (v & 0x0000ffff) | (op.Imm << 16))
		return YieldNone
	case opcode.Rrx:
		result, carry := arm.operand2WithCarry(op)
		arm.registers.Set(op.Rd, result)
		if op.SetFlags {
			arm.flags.setNZ(result)
			arm.flags.C = carry
		}
		return YieldNone

	case opcode.AddImm, opcode.AddReg, opcode.AddSpImm, opcode.AddSpReg:
		return arm.addSub(op, false)
	case opcode.SubImm, opcode.SubReg, opcode.SubSpImm:
		return arm.addSub(op, true)
	case opcode.RsbImm, opcode.RsbReg:
		return arm.reverseSub(op)
	case opcode.AdcImm, opcode.AdcReg:
		return arm.addWithCarryOp(op, false, false)
	case opcode.SbcImm, opcode.SbcReg:
		return arm.addWithCarryOp(op, true, false)
	case opcode.CmpImm, opcode.CmpReg:
		return arm.addWithCarryOp(op, true, true)
	case opcode.CmnImm, opcode.CmnReg:
		return arm.addWithCarryOp(op, false, true)

	case opcode.LslImm, opcode.LslReg:
		return arm.shiftOp(op, bits.LSL)
	case opcode.LsrImm, opcode.LsrReg:
		return arm.shiftOp(op, bits.LSR)
	case opcode.AsrImm, opcode.AsrReg:
		return arm.shiftOp(op, bits.ASR)
	case opcode.RorImm, opcode.RorReg:
		return arm.shiftOp(op, bits.ROR)

	case opcode.Adr:
		base := bits.Align(arm.registers.Get(rPC), 4)
		if op.Add {
			arm.registers.Set(op.Rd, base+op.Imm)
		} else {
			arm.registers.Set(op.Rd, base-op.Imm)
		}
		return YieldNone

	case opcode.Clz:
		arm.registers.Set(op.Rd, leadingZeros32(arm.registers.Get(op.Rm)))
		return YieldNone
	case opcode.Rbit:
		arm.registers.Set(op.Rd, reverseBits32(arm.registers.Get(op.Rm)))
		return YieldNone
	case opcode.Rev:
		v := arm.registers.Get(op.Rm)
		arm.registers.Set(op.Rd, swapBytes32(v))
		return YieldNone
	case opcode.Rev16:
		v := arm.registers.Get(op.Rm)
		arm.registers.Set(op.Rd, swapBytesInEachHalf(v))
		return YieldNone
	case opcode.Revsh:
		v := arm.registers.Get(op.Rm)
		swapped := uint16(v&0xff)<<8 | uint16((v>>8)&0xff)
		arm.registers.Set(op.Rd, bits.SignExtend(uint32(swapped), 15))
		return YieldNone
	case opcode.Sel:
		rn := arm.registers.Get(op.Rn)
		rm := arm.registers.Get(op.Rm)
		arm.registers.Set(op.Rd, selectBytesByGE(rn, rm, arm.flags.Q))
		return YieldNone

	case opcode.Sxtb:
		v := arm.registers.Get(op.Rm)
		v = rotateRight(v, op.ShiftN)
		arm.registers.Set(op.Rd, bits.SignExtend(v&0xff, 7))
		return YieldNone
	case opcode.Sxth:
		v := arm.registers.Get(op.Rm)
		v = rotateRight(v, op.ShiftN)
		arm.registers.Set(op.Rd, bits.SignExtend(v&0xffff, 15))
		return YieldNone
	case opcode.Uxtb:
		v := arm.registers.Get(op.Rm)
		v = rotateRight(v, op.ShiftN)
		arm.registers.Set(op.Rd, v&0xff)
		return YieldNone
	case opcode.Uxth:
		v := arm.registers.Get(op.Rm)
		v = rotateRight(v, op.ShiftN)
		arm.registers.Set(op.Rd, v&0xffff)
		return YieldNone

	case opcode.Bfc:
		v := arm.registers.Get(op.Rd)
		arm.registers.Set(op.Rd, bits.BitFieldClear(v, uint(op.Msb), uint(op.Lsb)))
		return YieldNone
	case opcode.Bfi:
		v := arm.registers.Get(op.Rd)
		src := arm.registers.Get(op.Rn)
		arm.registers.Set(op.Rd, bits.BitFieldInsert(v, src, uint(op.Msb), uint(op.Lsb)))
		return YieldNone
	case opcode.Sbfx:
		v := arm.registers.Get(op.Rn)
		width := uint(op.Msb) + 1
		extracted := (v >> uint(op.Lsb)) & widthMask(width)
		arm.registers.Set(op.Rd, bits.SignExtend(extracted, width-1))
		return YieldNone
	case opcode.Ubfx:
		v := arm.registers.Get(op.Rn)
		width := uint(op.Msb) + 1
		extracted := (v >> uint(op.Lsb)) & widthMask(width)
		arm.registers.Set(op.Rd, extracted)
		return YieldNone

	case opcode.Ssat, opcode.Ssat16:
		shifted, _ := bits.Shift(arm.registers.Get(op.Rn), op.ShiftType, op.ShiftN, arm.flags.C)
		v := int32(shifted)
		if op.Opcode == opcode.Ssat16 {
			lo, loSat := bits.SignedSaturate(int64(int16(v)), 16)
			hi, hiSat := bits.SignedSaturate(int64(int16(v>>16)), 16)
			arm.registers.Set(op.Rd, uint32(uint16(lo))|uint32(uint16(hi))<<16)
			if loSat || hiSat {
				arm.flags.Q = true
			}
			return YieldNone
		}
		result, sat := bits.SignedSaturate(int64(v), uint(op.Imm))
		arm.registers.Set(op.Rd, uint32(result))
		if sat {
			arm.flags.Q = true
		}
		return YieldNone
	case opcode.Usat, opcode.Usat16:
		shifted, _ := bits.Shift(arm.registers.Get(op.Rn), op.ShiftType, op.ShiftN, arm.flags.C)
		v := int32(shifted)
		if op.Opcode == opcode.Usat16 {
			lo, loSat := bits.UnsignedSaturate(int64(int16(v)), 16)
			hi, hiSat := bits.UnsignedSaturate(int64(int16(v>>16)), 16)
			arm.registers.Set(op.Rd, lo|hi<<16)
			if loSat || hiSat {
				arm.flags.Q = true
			}
			return YieldNone
		}
		result, sat := bits.UnsignedSaturate(int64(v), uint(op.Imm))
		arm.registers.Set(op.Rd, result)
		if sat {
			arm.flags.Q = true
		}
		return YieldNone

	// --- saturating arithmetic ---
	case opcode.Qadd:
		rm := int32(arm.registers.Get(op.Rm))
		rn := int32(arm.registers.Get(op.Rn))
		result, sat := bits.SignedSaturate(int64(rm)+int64(rn), 32)
		arm.registers.Set(op.Rd, uint32(result))
		if sat {
			arm.flags.Q = true
		}
		return YieldNone
	case opcode.Qsub:
		rm := int32(arm.registers.Get(op.Rm))
		rn := int32(arm.registers.Get(op.Rn))
		result, sat := bits.SignedSaturate(int64(rm)-int64(rn), 32)
		arm.registers.Set(op.Rd, uint32(result))
		if sat {
			arm.flags.Q = true
		}
		return YieldNone
	case opcode.Qdadd:
		rm := int32(arm.registers.Get(op.Rm))
		rn := int32(arm.registers.Get(op.Rn))
		doubled, dsat := bits.SignedSaturate(int64(rn)*2, 32)
		result, sat := bits.SignedSaturate(int64(rm)+int64(doubled), 32)
		arm.registers.Set(op.Rd, uint32(result))
		if dsat || sat {
			arm.flags.Q = true
		}
		return YieldNone
	case opcode.Qdsub:
		rm := int32(arm.registers.Get(op.Rm))
		rn := int32(arm.registers.Get(op.Rn))
		doubled, dsat := bits.SignedSaturate(int64(rn)*2, 32)
		result, sat := bits.SignedSaturate(int64(rm)-int64(doubled), 32)
		arm.registers.Set(op.Rd, uint32(result))
		if dsat || sat {
			arm.flags.Q = true
		}
		return YieldNone

	// --- multiply / divide ---
	case opcode.Mul:
		rn := arm.registers.Get(op.Rn)
		rm := arm.registers.Get(op.Rm)
		result := rn * rm
		arm.registers.Set(op.Rd, result)
		if op.SetFlags {
			arm.flags.setNZ(result)
		}
		return YieldNone
	case opcode.Mla:
		rn := arm.registers.Get(op.Rn)
		rm := arm.registers.Get(op.Rm)
		ra := arm.registers.Get(op.Ra)
		arm.registers.Set(op.Rd, rn*rm+ra)
		return YieldNone
	case opcode.Mls:
		rn := arm.registers.Get(op.Rn)
		rm := arm.registers.Get(op.Rm)
		ra := arm.registers.Get(op.Ra)
		arm.registers.Set(op.Rd, ra-rn*rm)
		return YieldNone
	case opcode.Umull:
		rn := uint64(arm.registers.Get(op.Rn))
		rm := uint64(arm.registers.Get(op.Rm))
		result := rn * rm
		arm.registers.Set(op.RdLo, uint32(result))
		arm.registers.Set(op.RdHi, uint32(result>>32))
		return YieldNone
	case opcode.Smull:
		rn := int64(int32(arm.registers.Get(op.Rn)))
		rm := int64(int32(arm.registers.Get(op.Rm)))
		result := uint64(rn * rm)
		arm.registers.Set(op.RdLo, uint32(result))
		arm.registers.Set(op.RdHi, uint32(result>>32))
		return YieldNone
	case opcode.Umlal:
		acc := uint64(arm.registers.Get(op.RdHi))<<32 | uint64(arm.registers.Get(op.RdLo))
		rn := uint64(arm.registers.Get(op.Rn))
		rm := uint64(arm.registers.Get(op.Rm))
		result := acc + rn*rm
		arm.registers.Set(op.RdLo, uint32(result))
		arm.registers.Set(op.RdHi, uint32(result>>32))
		return YieldNone
	case opcode.Smlal:
		acc := int64(uint64(arm.registers.Get(op.RdHi))<<32 | uint64(arm.registers.Get(op.RdLo)))
		rn := int64(int32(arm.registers.Get(op.Rn)))
		rm := int64(int32(arm.registers.Get(op.Rm)))
		result := uint64(acc + rn*rm)
		arm.registers.Set(op.RdLo, uint32(result))
		arm.registers.Set(op.RdHi, uint32(result>>32))
		return YieldNone
	case opcode.Umaal:
		rn := uint64(arm.registers.Get(op.Rn))
		rm := uint64(arm.registers.Get(op.Rm))
		lo := uint64(arm.registers.Get(op.RdLo))
		hi := uint64(arm.registers.Get(op.RdHi))
		result := rn*rm + lo + hi
		arm.registers.Set(op.RdLo, uint32(result))
		arm.registers.Set(op.RdHi, uint32(result>>32))
		return YieldNone
	case opcode.Sdiv:
		rn := int32(arm.registers.Get(op.Rn))
		rm := int32(arm.registers.Get(op.Rm))
		if rm == 0 {
			arm.registers.Set(op.Rd, 0)
			arm.bus.faults.Record(faults.DivideByZero, "SDIV", pc, 0)
			arm.pendingFault = true
			return YieldNone
		}
		arm.registers.Set(op.Rd, uint32(rn/rm))
		return YieldNone
	case opcode.Udiv:
		rn := arm.registers.Get(op.Rn)
		rm := arm.registers.Get(op.Rm)
		if rm == 0 {
			arm.registers.Set(op.Rd, 0)
			arm.bus.faults.Record(faults.DivideByZero, "UDIV", pc, 0)
			arm.pendingFault = true
			return YieldNone
		}
		arm.registers.Set(op.Rd, rn/rm)
		return YieldNone

	// --- branches ---
	//
	// Branch targets are PC-relative to the raw (unaligned) PC, not the
	// word-aligned base ADR/LDR-literal use: the processor stays in Thumb
	// state and never needs a word-aligned fetch address to compute one.
	case opcode.Branch:
		arm.branchTo(uint32(int32(arm.registers.Get(rPC)) + int32(op.Imm)))
		return YieldNone
	case opcode.BranchCond:
		arm.branchTo(uint32(int32(arm.registers.Get(rPC)) + int32(op.Imm)))
		return YieldNone
	case opcode.Cbz, opcode.Cbnz:
		v := arm.registers.Get(op.Rn)
		isZero := v == 0
		if (op.Opcode == opcode.Cbz && isZero) || (op.Opcode == opcode.Cbnz && !isZero) {
			arm.branchTo(arm.registers.Get(rPC) + op.Imm)
		}
		return YieldNone
	case opcode.Bl:
		target := uint32(int32(arm.registers.Get(rPC)) + int32(op.Imm))
		arm.registers.Set(rLR, nextPc|0x1)
		if arm.sym.shouldSkip(target) {
			return YieldNone
		}
		arm.branchTo(target)
		return YieldNone
	case opcode.Blx:
		if op.Imm != 0 || op.Rm == 0 {
			target := uint32(int32(bits.Align(arm.registers.Get(rPC), 4)) + int32(op.Imm))
			arm.registers.Set(rLR, nextPc|0x1)
			arm.branchTo(target)
			return YieldNone
		}
		target := arm.registers.Get(op.Rm)
		arm.registers.Set(rLR, nextPc|0x1)
		arm.branchTo(target)
		return YieldNone
	case opcode.Bx:
		arm.branchTo(arm.registers.Get(op.Rm))
		return YieldNone
	case opcode.Tbb, opcode.Tbh:
		rn := arm.registers.Get(op.Rn)
		rm := arm.registers.Get(op.Rm)
		var halfwords uint32
		if op.Opcode == opcode.Tbh {
			v, err := arm.bus.ReadAligned(rn+rm*2, 2)
			if err != nil {
				arm.pendingFault = true
				return YieldFault
			}
			halfwords = v
		} else {
			v, err := arm.bus.ReadAligned(rn+rm, 1)
			if err != nil {
				arm.pendingFault = true
				return YieldFault
			}
			halfwords = v
		}
		arm.branchTo(arm.registers.Get(rPC) + halfwords*2)
		return YieldNone

	// --- IT ---
	case opcode.It:
		arm.it.Set(uint8(op.Cond)<<4 | uint8(op.Imm))
		return YieldNone

	// --- load/store single ---
	case opcode.LdrImm, opcode.LdrLit, opcode.LdrReg:
		return arm.loadSingle(op, 4, false)
	case opcode.LdrbImm, opcode.LdrbLit, opcode.LdrbReg:
		return arm.loadSingle(op, 1, false)
	case opcode.LdrhImm, opcode.LdrhLit, opcode.LdrhReg:
		return arm.loadSingle(op, 2, false)
	case opcode.LdrsbImm, opcode.LdrsbReg:
		return arm.loadSingle(op, 1, true)
	case opcode.LdrshImm, opcode.LdrshReg:
		return arm.loadSingle(op, 2, true)
	case opcode.StrImm, opcode.StrReg:
		return arm.storeSingle(op, 4)
	case opcode.StrbImm, opcode.StrbReg:
		return arm.storeSingle(op, 1)
	case opcode.StrhImm, opcode.StrhReg:
		return arm.storeSingle(op, 2)
	case opcode.LdrdImm:
		return arm.loadDouble(op)
	case opcode.StrdImm:
		return arm.storeDouble(op)

	// --- exclusive access ---
	case opcode.Ldrex:
		addr := arm.registers.Get(op.Rn) + op.Imm
		v, err := arm.bus.ReadAligned(addr, 4)
		if err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		arm.exclusive.Set(addr, 4)
		arm.registers.Set(op.Rt, v)
		return YieldNone
	case opcode.Ldrexb:
		addr := arm.registers.Get(op.Rn)
		v, err := arm.bus.ReadAligned(addr, 1)
		if err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		arm.exclusive.Set(addr, 1)
		arm.registers.Set(op.Rt, v)
		return YieldNone
	case opcode.Ldrexh:
		addr := arm.registers.Get(op.Rn)
		v, err := arm.bus.ReadAligned(addr, 2)
		if err != nil {
			arm.pendingFault = true
			return YieldFault
		}
		arm.exclusive.Set(addr, 2)
		arm.registers.Set(op.Rt, v)
		return YieldNone
	case opcode.Strex:
		addr := arm.registers.Get(op.Rn) + op.Imm
		return arm.storeExclusive(op, addr, 4)
	case opcode.Strexb:
		addr := arm.registers.Get(op.Rn)
		return arm.storeExclusive(op, addr, 1)
	case opcode.Strexh:
		addr := arm.registers.Get(op.Rn)
		return arm.storeExclusive(op, addr, 2)
	case opcode.Clrex:
		arm.exclusive.Clear()
		return YieldNone

	// --- block data transfer ---
	case opcode.Push:
		return arm.pushRegList(op.RegList)
	case opcode.Pop:
		return arm.popRegList(op.RegList)
	case opcode.Stm, opcode.Stmdb:
		return arm.storeMultiple(op)
	case opcode.Ldm, opcode.Ldmdb:
		return arm.loadMultiple(op)

	// --- status register access ---
	case opcode.Mrs:
		arm.registers.Set(op.Rd, arm.xPSR())
		return YieldNone
	case opcode.Msr:
		v := arm.registers.Get(op.Rn)
		if op.Imm&0x4 != 0 {
			arm.setXPSR((v & 0xf8000000) | (arm.xPSR() &^ 0xf8000000))
		}
		return YieldNone

	// --- barriers / hints ---
	case opcode.Dmb, opcode.Dsb, opcode.Isb, opcode.Nop, opcode.Sev, opcode.Yield, opcode.Cps:
		return YieldNone
	case opcode.Wfe, opcode.Wfi:
		arm.halted = true
		return YieldWFIWFE

	// --- debug / exceptional control flow ---
	case opcode.Svc:
		return YieldSVC
	case opcode.Bkpt:
		return YieldBKPT
	case opcode.Udf, opcode.Undefined:
		arm.bus.faults.Record(faults.InvalidState, "undefined instruction", pc, 0)
		arm.pendingFault = true
		return YieldUndefined

	// --- coprocessor / FPU (decode-only stubs; see component design
	//     non-goals) ---
	case opcode.Cdp, opcode.Mcr, opcode.Mrc, opcode.Mcrr, opcode.Mrrc, opcode.Stc, opcode.LdcImm, opcode.LdcLit:
		logger.Logf(logger.Allow, "arm", "coprocessor instruction at %08x executed as a no-op", pc)
		return YieldNone

	default:
		logger.Logf(logger.Allow, "arm", "unimplemented opcode %s at %08x", op.Opcode, pc)
		arm.bus.faults.Record(faults.Unimplemented, "decode", pc, 0)
		arm.pendingFault = true
		return YieldUndefined
	}
}

func widthMask(width uint) uint32 {
	if width >= 32 {
		return 0xffffffff
	}
	return (uint32(1) << width) - 1
}

func leadingZeros32(v uint32) uint32 {
	if v == 0 {
		return 32
	}
	var n uint32
	for v&0x80000000 == 0 {
		v <<= 1
		n++
	}
	return n
}

func reverseBits32(v uint32) uint32 {
	var r uint32
	for i := 0; i < 32; i++ {
		r <<= 1
		r |= v & 0x1
		v >>= 1
	}
	return r
}

func swapBytes32(v uint32) uint32 {
	return v>>24 | (v>>8)&0xff00 | (v<<8)&0xff0000 | v<<24
}

func swapBytesInEachHalf(v uint32) uint32 {
	lo := uint32(uint16(v))
	hi := v >> 16
	return (lo>>8 | (lo<<8)&0xff00) | ((hi>>8 | (hi<<8)&0xff00) << 16)
}

func selectBytesByGE(rn, rm uint32, ge bool) uint32 {
	// the emulator does not track the architectural APSR.GE nibble
	// separately (its only producers, the SIMD add/subtract instructions,
	// are out of scope), so SEL always behaves as if GE were all-set.
	return rn
}

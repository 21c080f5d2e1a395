package arm

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/opcode"
	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
)

// decodeNarrow decodes a single 16-bit Thumb instruction. The dispatch order
// works down from the top of the encoding space, mirroring the architecture
// reference's own "A5.2 16-bit Thumb instruction encoding" table.
func decodeNarrow(lo uint16) Op {
	switch {
	case lo&0xf800 == 0xe000:
		return decodeUnconditionalBranch(lo)
	case lo&0xf000 == 0xd000:
		return decodeCondBranchOrSVC(lo)
	case lo&0xf000 == 0xc000:
		return decodeLoadStoreMultiple(lo)
	case lo&0xf600 == 0xb400:
		return decodePushPop(lo)
	case lo&0xff00 == 0xbf00:
		return decodeHintsAndIT(lo)
	case lo&0xf000 == 0xb000:
		return decodeMisc16(lo)
	case lo&0xf000 == 0xa000:
		return decodeAdr(lo)
	case lo&0xf000 == 0x9000:
		return decodeSPRelativeLoadStore(lo)
	case lo&0xf000 == 0x8000:
		return decodeLoadStoreHalfwordImm(lo)
	case lo&0xe000 == 0x6000:
		return decodeLoadStoreImm(lo)
	case lo&0xf200 == 0x5200:
		return decodeLoadStoreSignedRegOffset(lo)
	case lo&0xf200 == 0x5000:
		return decodeLoadStoreRegOffset(lo)
	case lo&0xf800 == 0x4800:
		return decodeLdrLiteral(lo)
	case lo&0xfc00 == 0x4400:
		return decodeHiRegOps(lo)
	case lo&0xfc00 == 0x4000:
		return decodeALU(lo)
	case lo&0xe000 == 0x2000:
		return decodeMovCmpAddSubImm(lo)
	case lo&0xf800 == 0x1800:
		return decodeAddSub(lo)
	case lo&0xe000 == 0x0000:
		return decodeShiftImm(lo)
	}
	return Op{Opcode: opcode.Undefined}
}

func decodeShiftImm(lo uint16) Op {
	opBits := (lo >> 11) & 0x3
	imm5 := uint8((lo >> 6) & 0x1f)
	rm := uint8((lo >> 3) & 0x7)
	rd := uint8(lo & 0x7)

	op := Op{Rd: rd, Rm: rm, SetFlags: true}
	switch opBits {
	case 0b00:
		if imm5 == 0 {
			op.Opcode = opcode.MovReg
			return op
		}
		op.Opcode = opcode.LslImm
		op.ShiftN = uint(imm5)
	case 0b01:
		op.Opcode = opcode.LsrImm
		op.ShiftN = uint(imm5)
	case 0b10:
		op.Opcode = opcode.AsrImm
		op.ShiftN = uint(imm5)
	default:
		return Op{Opcode: opcode.Undefined}
	}
	return op
}

func decodeAddSub(lo uint16) Op {
	immOrReg := (lo >> 10) & 0x1
	sub := (lo >> 9) & 0x1
	rnOrImm := uint8((lo >> 6) & 0x7)
	rn := uint8((lo >> 3) & 0x7)
	rd := uint8(lo & 0x7)

	op := Op{Rd: rd, Rn: rn, SetFlags: true}
	if immOrReg == 1 {
		op.Imm = uint32(rnOrImm)
		if sub == 1 {
			op.Opcode = opcode.SubImm
		} else {
			op.Opcode = opcode.AddImm
		}
	} else {
		op.Rm = rnOrImm
		if sub == 1 {
			op.Opcode = opcode.SubReg
		} else {
			op.Opcode = opcode.AddReg
		}
	}
	return op
}

func decodeMovCmpAddSubImm(lo uint16) Op {
	opBits := (lo >> 11) & 0x3
	rdn := uint8((lo >> 8) & 0x7)
	imm8 := uint32(lo & 0xff)

	op := Op{Rd: rdn, Rn: rdn, Imm: imm8, SetFlags: true}
	switch opBits {
	case 0b00:
		op.Opcode = opcode.MovImm
	case 0b01:
		op.Opcode = opcode.CmpImm
	case 0b10:
		op.Opcode = opcode.AddImm
	case 0b11:
		op.Opcode = opcode.SubImm
	}
	return op
}

// decodeALU covers the 16-bit two-register data processing instructions
// (format 4 in the classic Thumb table).
func decodeALU(lo uint16) Op {
	opBits := (lo >> 6) & 0xf
	rm := uint8((lo >> 3) & 0x7)
	rdn := uint8(lo & 0x7)

	op := Op{Rd: rdn, Rn: rdn, Rm: rm, SetFlags: true}
	switch opBits {
	case 0x0:
		op.Opcode = opcode.AndReg
	case 0x1:
		op.Opcode = opcode.EorReg
	case 0x2:
		op.Opcode = opcode.LslReg
	case 0x3:
		op.Opcode = opcode.LsrReg
	case 0x4:
		op.Opcode = opcode.AsrReg
	case 0x5:
		op.Opcode = opcode.AdcReg
	case 0x6:
		op.Opcode = opcode.SbcReg
	case 0x7:
		op.Opcode = opcode.RorReg
	case 0x8:
		op.Opcode = opcode.TstReg
	case 0x9:
		op.Opcode = opcode.RsbImm
		op.Rn = rm
		op.Imm = 0
	case 0xa:
		op.Opcode = opcode.CmpReg
	case 0xb:
		op.Opcode = opcode.CmnReg
	case 0xc:
		op.Opcode = opcode.OrrReg
	case 0xd:
		op.Opcode = opcode.Mul
		op.Ra = 0
	case 0xe:
		op.Opcode = opcode.BicReg
	case 0xf:
		op.Opcode = opcode.MvnReg
	}
	return op
}

// decodeHiRegOps covers ADD/CMP/MOV on any register pair (including r8-r15)
// and the BX/BLX-by-register encoding.
func decodeHiRegOps(lo uint16) Op {
	opBits := (lo >> 8) & 0x3
	dn := (lo >> 7) & 0x1
	rm := uint8((lo >> 3) & 0xf)
	rdn := uint8(lo&0x7) | uint8(dn<<3)

	switch opBits {
	case 0b00:
		return Op{Opcode: opcode.AddReg, Rd: rdn, Rn: rdn, Rm: rm}
	case 0b01:
		return Op{Opcode: opcode.CmpReg, Rn: rdn, Rm: rm}
	case 0b10:
		return Op{Opcode: opcode.MovReg, Rd: rdn, Rm: rm}
	case 0b11:
		isBlx := (lo>>7)&0x1 == 1
		if isBlx {
			return Op{Opcode: opcode.Blx, Rm: rm}
		}
		return Op{Opcode: opcode.Bx, Rm: rm}
	}
	return Op{Opcode: opcode.Undefined}
}

func decodeLdrLiteral(lo uint16) Op {
	rt := uint8((lo >> 8) & 0x7)
	imm8 := uint32(lo & 0xff)
	return Op{Opcode: opcode.LdrLit, Rt: rt, Rn: rPC, Imm: imm8 << 2, Add: true}
}

func decodeLoadStoreRegOffset(lo uint16) Op {
	opBits := (lo >> 9) & 0x3
	rm := uint8((lo >> 6) & 0x7)
	rn := uint8((lo >> 3) & 0x7)
	rt := uint8(lo & 0x7)
	op := Op{Rt: rt, Rn: rn, Rm: rm, Index: true, Add: true, RegOffset: true}
	switch opBits {
	case 0b00:
		op.Opcode = opcode.StrReg
	case 0b01:
		op.Opcode = opcode.StrhReg
	case 0b10:
		op.Opcode = opcode.StrbReg
	case 0b11:
		op.Opcode = opcode.LdrsbReg
	}
	return op
}

func decodeLoadStoreSignedRegOffset(lo uint16) Op {
	opBits := (lo >> 9) & 0x3
	rm := uint8((lo >> 6) & 0x7)
	rn := uint8((lo >> 3) & 0x7)
	rt := uint8(lo & 0x7)
	op := Op{Rt: rt, Rn: rn, Rm: rm, Index: true, Add: true, RegOffset: true}
	switch opBits {
	case 0b00:
		op.Opcode = opcode.LdrReg
	case 0b01:
		op.Opcode = opcode.LdrhReg
	case 0b10:
		op.Opcode = opcode.LdrbReg
	case 0b11:
		op.Opcode = opcode.LdrshReg
	}
	return op
}

func decodeLoadStoreImm(lo uint16) Op {
	isLoad := (lo>>11)&0x1 == 1
	isByte := (lo>>12)&0x1 == 1
	imm5 := uint32((lo >> 6) & 0x1f)
	rn := uint8((lo >> 3) & 0x7)
	rt := uint8(lo & 0x7)

	op := Op{Rt: rt, Rn: rn, Index: true, Add: true}
	if isByte {
		op.Imm = imm5
		if isLoad {
			op.Opcode = opcode.LdrbImm
		} else {
			op.Opcode = opcode.StrbImm
		}
	} else {
		op.Imm = imm5 << 2
		if isLoad {
			op.Opcode = opcode.LdrImm
		} else {
			op.Opcode = opcode.StrImm
		}
	}
	return op
}

func decodeLoadStoreHalfwordImm(lo uint16) Op {
	isLoad := (lo>>11)&0x1 == 1
	imm5 := uint32((lo >> 6) & 0x1f)
	rn := uint8((lo >> 3) & 0x7)
	rt := uint8(lo & 0x7)
	op := Op{Rt: rt, Rn: rn, Imm: imm5 << 1, Index: true, Add: true}
	if isLoad {
		op.Opcode = opcode.LdrhImm
	} else {
		op.Opcode = opcode.StrhImm
	}
	return op
}

func decodeSPRelativeLoadStore(lo uint16) Op {
	isLoad := (lo>>11)&0x1 == 1
	rt := uint8((lo >> 8) & 0x7)
	imm8 := uint32(lo & 0xff)
	op := Op{Rt: rt, Rn: rSP, Imm: imm8 << 2, Index: true, Add: true}
	if isLoad {
		op.Opcode = opcode.LdrImm
	} else {
		op.Opcode = opcode.StrImm
	}
	return op
}

func decodeAdr(lo uint16) Op {
	rd := uint8((lo >> 8) & 0x7)
	imm8 := uint32(lo & 0xff)
	return Op{Opcode: opcode.Adr, Rd: rd, Imm: imm8 << 2, Add: true}
}

func decodeMisc16(lo uint16) Op {
	switch {
	case lo&0xff00 == 0xb000:
		return decodeAddSubSP(lo)
	case lo&0xff00 == 0xb200:
		return decodeExtend(lo)
	case lo&0xfe00 == 0xb600:
		return decodeCps(lo)
	case lo&0xf500 == 0xb100:
		return decodeCbz(lo)
	case lo&0xffc0 == 0xba00:
		rm := uint8((lo >> 3) & 0x7)
		rd := uint8(lo & 0x7)
		rev := (lo >> 6) & 0x3
		switch rev {
		case 0b00:
			return Op{Opcode: opcode.Rev, Rd: rd, Rm: rm}
		case 0b01:
			return Op{Opcode: opcode.Rev16, Rd: rd, Rm: rm}
		case 0b11:
			return Op{Opcode: opcode.Revsh, Rd: rd, Rm: rm}
		}
		return Op{Opcode: opcode.Undefined}
	case lo&0xff00 == 0xbe00:
		return Op{Opcode: opcode.Bkpt, Imm: uint32(lo & 0xff)}
	}
	return Op{Opcode: opcode.Undefined}
}

func decodeAddSubSP(lo uint16) Op {
	sub := (lo >> 7) & 0x1
	imm7 := uint32(lo & 0x7f)
	op := Op{Rd: rSP, Rn: rSP, Imm: imm7 << 2}
	if sub == 1 {
		op.Opcode = opcode.SubSpImm
	} else {
		op.Opcode = opcode.AddSpImm
	}
	return op
}

func decodeExtend(lo uint16) Op {
	kind := (lo >> 6) & 0x3
	rm := uint8((lo >> 3) & 0x7)
	rd := uint8(lo & 0x7)
	op := Op{Rd: rd, Rm: rm}
	switch kind {
	case 0b00:
		op.Opcode = opcode.Sxth
	case 0b01:
		op.Opcode = opcode.Sxtb
	case 0b10:
		op.Opcode = opcode.Uxth
	case 0b11:
		op.Opcode = opcode.Uxtb
	}
	return op
}

func decodeCps(lo uint16) Op {
	return Op{Opcode: opcode.Cps, Imm: uint32(lo & 0x1f)}
}

func decodeCbz(lo uint16) Op {
	nonzero := (lo >> 11) & 0x1
	i := (lo >> 9) & 0x1
	imm5 := uint32((lo >> 3) & 0x1f)
	rn := uint8(lo & 0x7)
	offset := (uint32(i) << 6) | (imm5 << 1)
	op := Op{Rn: rn, Imm: offset, Add: true}
	if nonzero == 1 {
		op.Opcode = opcode.Cbnz
	} else {
		op.Opcode = opcode.Cbz
	}
	return op
}

func decodeHintsAndIT(lo uint16) Op {
	mask := lo & 0xf
	if mask != 0 {
		return Op{Opcode: opcode.It, Cond: uint8((lo >> 4) & 0xf), Imm: uint32(mask)}
	}
	hint := (lo >> 4) & 0xf
	switch hint {
	case 0x0:
		return Op{Opcode: opcode.Nop}
	case 0x1:
		return Op{Opcode: opcode.Yield}
	case 0x2:
		return Op{Opcode: opcode.Wfe}
	case 0x3:
		return Op{Opcode: opcode.Wfi}
	case 0x4:
		return Op{Opcode: opcode.Sev}
	}
	return Op{Opcode: opcode.Nop}
}

func decodePushPop(lo uint16) Op {
	isPop := (lo>>11)&0x1 == 1
	mFlag := (lo >> 8) & 0x1
	regList := uint16(lo & 0xff)
	op := Op{RegList: regList}
	if isPop {
		op.Opcode = opcode.Pop
		if mFlag == 1 {
			op.RegList |= 1 << rPC
		}
	} else {
		op.Opcode = opcode.Push
		if mFlag == 1 {
			op.RegList |= 1 << rLR
		}
	}
	return op
}

func decodeLoadStoreMultiple(lo uint16) Op {
	isLoad := (lo>>11)&0x1 == 1
	rn := uint8((lo >> 8) & 0x7)
	regList := uint16(lo & 0xff)
	op := Op{Rn: rn, RegList: regList, Wback: true}
	if isLoad {
		op.Opcode = opcode.Ldm
	} else {
		op.Opcode = opcode.Stm
	}
	return op
}

func decodeCondBranchOrSVC(lo uint16) Op {
	cond := uint8((lo >> 8) & 0xf)
	imm8 := uint32(lo & 0xff)
	if cond == 0xe {
		return Op{Opcode: opcode.Undefined}
	}
	if cond == 0xf {
		return Op{Opcode: opcode.Svc, Imm: imm8}
	}
	offset := bits.ShiftedSignExtend(imm8, 7, 1)
	return Op{Opcode: opcode.BranchCond, Cond: cond, Imm: offset, Add: true}
}

func decodeUnconditionalBranch(lo uint16) Op {
	imm11 := uint32(lo & 0x7ff)
	offset := bits.ShiftedSignExtend(imm11, 10, 1)
	return Op{Opcode: opcode.Branch, Imm: offset, Add: true}
}

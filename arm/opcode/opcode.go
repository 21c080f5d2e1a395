// Package opcode defines the closed set of intermediate-operation tags the
// decoder can produce. The set mirrors the ~150 Thumb/Thumb-2 mnemonics
// described in the architecture reference; coprocessor and floating-point
// mnemonics are included for completeness of the decode tree but are
// explicitly out of scope for execution (they decode to a stub).
package opcode

// Opcode tags a decoded intermediate operation. The zero value, Unimplemented,
// is also the sentinel cache miss returns.
type Opcode uint8

const (
	Unimplemented Opcode = iota

	AdcImm
	AdcReg
	AddImm
	AddReg
	AddSpImm
	AddSpReg
	Adr
	AndImm
	AndReg
	AsrImm
	AsrReg
	Branch
	BranchCond
	Bfc
	Bfi
	BicImm
	BicReg
	Bkpt
	Bl
	Blx
	Bx
	Cbz
	Cbnz
	Cdp
	Clrex
	Clz
	CmnImm
	CmnReg
	CmpImm
	CmpReg
	Cps
	Dmb
	Dsb
	EorImm
	EorReg
	Isb
	It
	LdcImm
	LdcLit
	Ldm
	Ldmdb
	LdrImm
	LdrLit
	LdrReg
	LdrbImm
	LdrbLit
	LdrbReg
	LdrdImm
	Ldrex
	Ldrexb
	Ldrexh
	LdrhImm
	LdrhLit
	LdrhReg
	LdrsbImm
	LdrsbReg
	LdrshImm
	LdrshReg
	LdrT
	LslImm
	LslReg
	LsrImm
	LsrReg
	Mcr
	Mcrr
	Mla
	Mls
	MovImm
	MovReg
	Movt
	Mrc
	Mrrc
	Mrs
	Msr
	Mul
	MvnImm
	MvnReg
	Nop
	OrnImm
	OrnReg
	OrrImm
	OrrReg
	Pkhbt
	Pop
	Push
	Qadd
	Qdadd
	Qdsub
	Qsub
	Rbit
	Rev
	Rev16
	Revsh
	RorImm
	RorReg
	Rrx
	RsbImm
	RsbReg
	SbcImm
	SbcReg
	Sbfx
	Sdiv
	Sel
	Sev
	Smlal
	Smull
	Ssat
	Ssat16
	Stc
	Stm
	Stmdb
	StrImm
	StrReg
	StrbImm
	StrbReg
	StrdImm
	StrhImm
	StrhReg
	Strex
	Strexb
	Strexh
	SubImm
	SubReg
	SubSpImm
	Svc
	Sxtb
	Sxth
	Tbb
	Tbh
	TeqImm
	TeqReg
	TstImm
	TstReg
	Ubfx
	Udf
	Udiv
	Umaal
	Umlal
	Umull
	Usat
	Usat16
	Uxtb
	Uxth
	Wfe
	Wfi
	Yield
	Undefined

	numOpcodes
)

var names = [numOpcodes]string{
	Unimplemented: "unimplemented",
	AdcImm:        "ADC(imm)", AdcReg: "ADC(reg)",
	AddImm: "ADD(imm)", AddReg: "ADD(reg)", AddSpImm: "ADD(SP,imm)", AddSpReg: "ADD(SP,reg)",
	Adr: "ADR", AndImm: "AND(imm)", AndReg: "AND(reg)",
	AsrImm: "ASR(imm)", AsrReg: "ASR(reg)",
	Branch: "B", BranchCond: "B<c>", Bfc: "BFC", Bfi: "BFI",
	BicImm: "BIC(imm)", BicReg: "BIC(reg)", Bkpt: "BKPT",
	Bl: "BL", Blx: "BLX", Bx: "BX",
	Cbz: "CBZ", Cbnz: "CBNZ", Cdp: "CDP", Clrex: "CLREX", Clz: "CLZ",
	CmnImm: "CMN(imm)", CmnReg: "CMN(reg)", CmpImm: "CMP(imm)", CmpReg: "CMP(reg)",
	Cps: "CPS", Dmb: "DMB", Dsb: "DSB",
	EorImm: "EOR(imm)", EorReg: "EOR(reg)", Isb: "ISB", It: "IT",
	LdcImm: "LDC(imm)", LdcLit: "LDC(lit)",
	Ldm: "LDM", Ldmdb: "LDMDB",
	LdrImm: "LDR(imm)", LdrLit: "LDR(lit)", LdrReg: "LDR(reg)",
	LdrbImm: "LDRB(imm)", LdrbLit: "LDRB(lit)", LdrbReg: "LDRB(reg)",
	LdrdImm: "LDRD(imm)", Ldrex: "LDREX", Ldrexb: "LDREXB", Ldrexh: "LDREXH",
	LdrhImm: "LDRH(imm)", LdrhLit: "LDRH(lit)", LdrhReg: "LDRH(reg)",
	LdrsbImm: "LDRSB(imm)", LdrsbReg: "LDRSB(reg)",
	LdrshImm: "LDRSH(imm)", LdrshReg: "LDRSH(reg)", LdrT: "LDRT",
	LslImm: "LSL(imm)", LslReg: "LSL(reg)", LsrImm: "LSR(imm)", LsrReg: "LSR(reg)",
	Mcr: "MCR", Mcrr: "MCRR", Mla: "MLA", Mls: "MLS",
	MovImm: "MOV(imm)", MovReg: "MOV(reg)", Movt: "MOVT",
	Mrc: "MRC", Mrrc: "MRRC", Mrs: "MRS", Msr: "MSR", Mul: "MUL",
	MvnImm: "MVN(imm)", MvnReg: "MVN(reg)", Nop: "NOP",
	OrnImm: "ORN(imm)", OrnReg: "ORN(reg)", OrrImm: "ORR(imm)", OrrReg: "ORR(reg)",
	Pkhbt: "PKHBT", Pop: "POP", Push: "PUSH",
	Qadd: "QADD", Qdadd: "QDADD", Qdsub: "QDSUB", Qsub: "QSUB",
	Rbit: "RBIT", Rev: "REV", Rev16: "REV16", Revsh: "REVSH",
	RorImm: "ROR(imm)", RorReg: "ROR(reg)", Rrx: "RRX",
	RsbImm: "RSB(imm)", RsbReg: "RSB(reg)",
	SbcImm: "SBC(imm)", SbcReg: "SBC(reg)", Sbfx: "SBFX", Sdiv: "SDIV", Sel: "SEL", Sev: "SEV",
	Smlal: "SMLAL", Smull: "SMULL", Ssat: "SSAT", Ssat16: "SSAT16",
	Stc: "STC", Stm: "STM", Stmdb: "STMDB",
	StrImm: "STR(imm)", StrReg: "STR(reg)",
	StrbImm: "STRB(imm)", StrbReg: "STRB(reg)", StrdImm: "STRD(imm)",
	StrhImm: "STRH(imm)", StrhReg: "STRH(reg)",
	Strex: "STREX", Strexb: "STREXB", Strexh: "STREXH",
	SubImm: "SUB(imm)", SubReg: "SUB(reg)", SubSpImm: "SUB(SP,imm)", Svc: "SVC",
	Sxtb: "SXTB", Sxth: "SXTH", Tbb: "TBB", Tbh: "TBH",
	TeqImm: "TEQ(imm)", TeqReg: "TEQ(reg)", TstImm: "TST(imm)", TstReg: "TST(reg)",
	Ubfx: "UBFX", Udf: "UDF", Udiv: "UDIV",
	Umaal: "UMAAL", Umlal: "UMLAL", Umull: "UMULL",
	Usat: "USAT", Usat16: "USAT16", Uxtb: "UXTB", Uxth: "UXTH",
	Wfe: "WFE", Wfi: "WFI", Yield: "YIELD", Undefined: "UNDEFINED",
}

func (o Opcode) String() string {
	if o < numOpcodes {
		if n := names[o]; n != "" {
			return n
		}
	}
	return "?"
}

// Package arm lifts ARM and Thumb instructions to REIL.
package arm

import "fmt"

// Opcode is the base operation of an ARM or Thumb mnemonic, with the
// condition, flag-setting and addressing suffixes removed.
type Opcode uint16

// Data Processing
const (
	AND Opcode = iota + 1
	EOR
	SUB
	RSB
	ADD
	ADC
	SBC
	RSC
	TST
	TEQ
	CMP
	CMN
	ORR
	ORN
	MOV
	MVN
	BIC
	ADR
	NEG

	// Shifts
	LSL
	LSR
	ASR
	ROR
	RRX

	// Multiplies
	MUL
	MLA
	MLS
	UMULL
	UMLAL
	SMULL
	SMLAL
	UMAAL
	SMULXY
	SMLAXY
	SMULWY
	SMLAWY
	SMLALXY
	SMUAD
	SMUSD
	SMLAD
	SMLSD
	SMLALD
	SMLSLD
	SMMUL
	SMMLA
	SMMLS
	SDIV
	UDIV

	// Saturating
	QADD
	QSUB
	QDADD
	QDSUB
	SSAT
	USAT
	SSAT16
	USAT16

	// Parallel add/subtract
	SADD16
	SADD8
	SSUB16
	SSUB8
	SASX
	SSAX
	QADD16
	QADD8
	QSUB16
	QSUB8
	QASX
	QSAX
	SHADD16
	SHADD8
	SHSUB16
	SHSUB8
	SHASX
	SHSAX
	UADD16
	UADD8
	USUB16
	USUB8
	UASX
	USAX
	UQADD16
	UQADD8
	UQSUB16
	UQSUB8
	UQASX
	UQSAX
	UHADD16
	UHADD8
	UHSUB16
	UHSUB8
	UHASX
	UHSAX
	USAD8
	USADA8

	// Extend, reverse, bit field, pack
	CLZ
	REV
	REV16
	REVSH
	RBIT
	SXTB
	SXTH
	SXTB16
	UXTB
	UXTH
	UXTB16
	SXTAB
	SXTAH
	SXTAB16
	UXTAB
	UXTAH
	UXTAB16
	PKHBT
	PKHTB
	BFC
	BFI
	SBFX
	UBFX
	MOVW
	MOVT
	NOP

	// Load/Store
	LDR
	LDRB
	LDRH
	LDRSB
	LDRSH
	LDRD
	LDRT
	LDRBT
	STR
	STRB
	STRH
	STRD
	STRT
	STRBT
	LDREX
	STREX
	SWP
	SWPB
	LDM
	STM
	PUSH
	POP

	// Branches
	B
	BL
	BX
	BLX
	CBZ
	CBNZ

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	AND: "AND", EOR: "EOR", SUB: "SUB", RSB: "RSB", ADD: "ADD", ADC: "ADC",
	SBC: "SBC", RSC: "RSC", TST: "TST", TEQ: "TEQ", CMP: "CMP", CMN: "CMN",
	ORR: "ORR", ORN: "ORN", MOV: "MOV", MVN: "MVN", BIC: "BIC", ADR: "ADR",
	NEG: "NEG",
	LSL: "LSL", LSR: "LSR", ASR: "ASR", ROR: "ROR", RRX: "RRX",
	MUL: "MUL", MLA: "MLA", MLS: "MLS", UMULL: "UMULL", UMLAL: "UMLAL",
	SMULL: "SMULL", SMLAL: "SMLAL", UMAAL: "UMAAL", SMULXY: "SMULxy",
	SMLAXY: "SMLAxy", SMULWY: "SMULWy", SMLAWY: "SMLAWy", SMLALXY: "SMLALxy",
	SMUAD: "SMUAD", SMUSD: "SMUSD", SMLAD: "SMLAD", SMLSD: "SMLSD",
	SMLALD: "SMLALD", SMLSLD: "SMLSLD", SMMUL: "SMMUL", SMMLA: "SMMLA",
	SMMLS: "SMMLS", SDIV: "SDIV", UDIV: "UDIV",
	QADD: "QADD", QSUB: "QSUB", QDADD: "QDADD", QDSUB: "QDSUB", SSAT: "SSAT",
	USAT: "USAT", SSAT16: "SSAT16", USAT16: "USAT16",
	SADD16: "SADD16", SADD8: "SADD8", SSUB16: "SSUB16", SSUB8: "SSUB8",
	SASX: "SASX", SSAX: "SSAX", QADD16: "QADD16", QADD8: "QADD8",
	QSUB16: "QSUB16", QSUB8: "QSUB8", QASX: "QASX", QSAX: "QSAX",
	SHADD16: "SHADD16", SHADD8: "SHADD8", SHSUB16: "SHSUB16", SHSUB8: "SHSUB8",
	SHASX: "SHASX", SHSAX: "SHSAX", UADD16: "UADD16", UADD8: "UADD8",
	USUB16: "USUB16", USUB8: "USUB8", UASX: "UASX", USAX: "USAX",
	UQADD16: "UQADD16", UQADD8: "UQADD8", UQSUB16: "UQSUB16", UQSUB8: "UQSUB8",
	UQASX: "UQASX", UQSAX: "UQSAX", UHADD16: "UHADD16", UHADD8: "UHADD8",
	UHSUB16: "UHSUB16", UHSUB8: "UHSUB8", UHASX: "UHASX", UHSAX: "UHSAX",
	USAD8: "USAD8", USADA8: "USADA8",
	CLZ: "CLZ", REV: "REV", REV16: "REV16", REVSH: "REVSH", RBIT: "RBIT",
	SXTB: "SXTB", SXTH: "SXTH", SXTB16: "SXTB16", UXTB: "UXTB", UXTH: "UXTH",
	UXTB16: "UXTB16", SXTAB: "SXTAB", SXTAH: "SXTAH", SXTAB16: "SXTAB16",
	UXTAB: "UXTAB", UXTAH: "UXTAH", UXTAB16: "UXTAB16", PKHBT: "PKHBT",
	PKHTB: "PKHTB", BFC: "BFC", BFI: "BFI", SBFX: "SBFX", UBFX: "UBFX",
	MOVW: "MOVW", MOVT: "MOVT", NOP: "NOP",
	LDR: "LDR", LDRB: "LDRB", LDRH: "LDRH", LDRSB: "LDRSB", LDRSH: "LDRSH",
	LDRD: "LDRD", LDRT: "LDRT", LDRBT: "LDRBT", STR: "STR", STRB: "STRB",
	STRH: "STRH", STRD: "STRD", STRT: "STRT", STRBT: "STRBT", LDREX: "LDREX",
	STREX: "STREX", SWP: "SWP", SWPB: "SWPB", LDM: "LDM", STM: "STM",
	PUSH: "PUSH", POP: "POP",
	B: "B", BL: "BL", BX: "BX", BLX: "BLX", CBZ: "CBZ", CBNZ: "CBNZ",
}

func (o Opcode) String() string {
	if o > 0 && o < opcodeCount {
		return opcodeNames[o]
	}
	return fmt.Sprintf("Opcode(%d)", uint16(o))
}

// Opcodes lists every supported opcode in declaration order.
func Opcodes() []Opcode {
	out := make([]Opcode, 0, opcodeCount-1)
	for o := Opcode(1); o < opcodeCount; o++ {
		out = append(out, o)
	}
	return out
}

// flagSetting lists the opcodes that accept the "S" suffix.
var flagSetting = map[Opcode]bool{
	AND: true, EOR: true, SUB: true, RSB: true, ADD: true, ADC: true,
	SBC: true, RSC: true, ORR: true, ORN: true, MOV: true, MVN: true,
	BIC: true, NEG: true,
	LSL: true, LSR: true, ASR: true, ROR: true, RRX: true,
	MUL: true, MLA: true, UMULL: true, UMLAL: true, SMULL: true, SMLAL: true,
}

// SetsFlags reports whether the opcode accepts the "S" suffix.
func (o Opcode) SetsFlags() bool {
	return flagSetting[o]
}

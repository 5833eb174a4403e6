package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
)

func TestBitManipulation(t *testing.T) {
	runVectors(t, []vector{
		{"CLZ", regs("R0", "R1"), state{"R1": 0}, state{"R0": 32}},
		{"CLZ", regs("R0", "R1"), state{"R1": 1}, state{"R0": 31}},
		{"CLZ", regs("R0", "R1"), state{"R1": 0x00F00000}, state{"R0": 8}},
		{"CLZ", regs("R0", "R1"), state{"R1": 0x80000000}, state{"R0": 0}},
		{"REV", regs("R0", "R1"), state{"R1": 0x12345678}, state{"R0": 0x78563412}},
		{"REV16", regs("R0", "R1"), state{"R1": 0x12345678}, state{"R0": 0x34127856}},
		{"REVSH", regs("R0", "R1"), state{"R1": 0x000080FF}, state{"R0": 0xFFFFFF80}},
		{"REVSH", regs("R0", "R1"), state{"R1": 0x00001234}, state{"R0": 0x3412}},
		{"RBIT", regs("R0", "R1"), state{"R1": 1}, state{"R0": 0x80000000}},
		{"RBIT", regs("R0", "R1"), state{"R1": 0x12345678}, state{"R0": 0x1E6A2C48}},
	})
}

func TestExtend(t *testing.T) {
	runVectors(t, []vector{
		{"SXTB", regs("R0", "R1"), state{"R1": 0x1280}, state{"R0": 0xFFFFFF80}},
		{"SXTH", regs("R0", "R1"), state{"R1": 0x18000}, state{"R0": 0xFFFF8000}},
		{"UXTB", regs("R0", "R1"), state{"R1": 0x1280}, state{"R0": 0x80}},
		{"UXTH", []*tree.Node{reg("R0"), shifted("ROR", "R1", 16)}, state{"R1": 0xABCD1234}, state{"R0": 0xABCD}},
		{"SXTB16", regs("R0", "R1"), state{"R1": 0x00800070}, state{"R0": 0xFF800070}},
		{"UXTB16", []*tree.Node{reg("R0"), shifted("ROR", "R1", 8)}, state{"R1": 0x11223344}, state{"R0": 0x00110033}},
		{"SXTAB", regs("R0", "R1", "R2"), state{"R1": 10, "R2": 0xFF}, state{"R0": 9}},
		{"UXTAH", regs("R0", "R1", "R2"), state{"R1": 1, "R2": 0x1FFFF}, state{"R0": 0x10000}},
		{"SXTAH", []*tree.Node{reg("R0"), reg("R1"), shifted("ROR", "R2", 16)}, state{"R1": 0, "R2": 0xFFFE0000}, state{"R0": 0xFFFFFFFE}},
		{"UXTAB16", regs("R0", "R1", "R2"), state{"R1": 0x0001FFFF, "R2": 0x00020001}, state{"R0": 0x00030000}},
		{"SXTAB16", regs("R0", "R1", "R2"), state{"R1": 0x00100010, "R2": 0x00FF0001}, state{"R0": 0x000F0011}},
	})
}

func TestPackAndBitFields(t *testing.T) {
	runVectors(t, []vector{
		{"PKHBT", []*tree.Node{reg("R0"), reg("R1"), shifted("LSL", "R2", 16)}, state{"R1": 0x1111AAAA, "R2": 0x0000BBBB}, state{"R0": 0xBBBBAAAA}},
		{"PKHTB", []*tree.Node{reg("R0"), reg("R1"), shifted("ASR", "R2", 16)}, state{"R1": 0xAAAA1111, "R2": 0xBBBB0000}, state{"R0": 0xAAAABBBB}},
		{"PKHBT", regs("R0", "R1", "R2"), state{"R1": 0x1111AAAA, "R2": 0xCCCCBBBB}, state{"R0": 0xCCCCAAAA}},
		{"BFC", []*tree.Node{reg("R0"), imm(4), imm(8)}, state{"R0": 0xFFFFFFFF}, state{"R0": 0xFFFFF00F}},
		{"BFI", []*tree.Node{reg("R0"), reg("R1"), imm(8), imm(4)}, state{"R0": 0xFFFFFFFF, "R1": 0x5}, state{"R0": 0xFFFFF5FF}},
		{"UBFX", []*tree.Node{reg("R0"), reg("R1"), imm(4), imm(8)}, state{"R1": 0x12345678}, state{"R0": 0x67}},
		{"SBFX", []*tree.Node{reg("R0"), reg("R1"), imm(4), imm(4)}, state{"R1": 0xF0}, state{"R0": 0xFFFFFFFF}},
		{"SBFX", []*tree.Node{reg("R0"), reg("R1"), imm(0), imm(32)}, state{"R1": 0x80000001}, state{"R0": 0x80000001}},
	})
}

func TestMoveWide(t *testing.T) {
	in := newMachine(t, nil)
	execute(t, in, 0x100, "MOVW", reg("R0"), imm(0xBEEF))
	execute(t, in, 0x104, "MOVT", reg("R0"), imm(0xDEAD))
	assert.Equal(t, uint64(0xDEADBEEF), in.RegisterValue("R0"))

	_, err := NewTranslator().Translate(reil.NewEnvironment(), &tree.Instruction{Address: 0x100, Mnemonic: "MOVW", Operands: []*tree.Node{reg("R0"), imm(0x10000)}}, nil)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	in := newMachine(t, state{"R0": 1})
	code := execute(t, in, 0x100, "NOP")
	assert.Len(t, code, 1)
	assert.Equal(t, uint64(1), in.RegisterValue("R0"))
}

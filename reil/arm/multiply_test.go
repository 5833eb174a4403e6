package arm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colorfulnotion/reil/reil/tree"
)

// vector runs one instruction at 0x100 and checks the listed registers.
type vector struct {
	mnemonic string
	operands []*tree.Node
	preset   state
	want     state
}

func regs(names ...string) []*tree.Node {
	out := make([]*tree.Node, len(names))
	for j, n := range names {
		out[j] = reg(n)
	}
	return out
}

func runVectors(t *testing.T, vectors []vector) {
	t.Helper()
	for _, v := range vectors {
		name := fmt.Sprintf("%s %v", v.mnemonic, v.operands)
		t.Run(name, func(t *testing.T) {
			in := newMachine(t, v.preset)
			execute(t, in, 0x100, v.mnemonic, v.operands...)
			for name, want := range v.want {
				assert.Equal(t, fmt.Sprintf("%#x", want), fmt.Sprintf("%#x", in.RegisterValue(name)), name)
			}
		})
	}
}

func TestMultiplies(t *testing.T) {
	runVectors(t, []vector{
		{"MUL", regs("R0", "R1", "R2"), state{"R1": 0x10001, "R2": 0x10001}, state{"R0": 0x20001}},
		{"MULS", regs("R0", "R1", "R2"), state{"R1": 0x80000000, "R2": 1}, state{"R0": 0x80000000, "N": 1, "Z": 0}},
		{"MULS", regs("R0", "R1"), state{"R0": 0x10000, "R1": 0x10000}, state{"R0": 0, "Z": 1}},
		{"MLA", regs("R0", "R1", "R2", "R3"), state{"R1": 3, "R2": 4, "R3": 5}, state{"R0": 17}},
		{"MLS", regs("R0", "R1", "R2", "R3"), state{"R1": 3, "R2": 4, "R3": 5}, state{"R0": 0xFFFFFFF9}},
		{"UMULL", regs("R0", "R1", "R2", "R3"), state{"R2": 0xFFFFFFFF, "R3": 2}, state{"R0": 0xFFFFFFFE, "R1": 1}},
		{"SMULL", regs("R0", "R1", "R2", "R3"), state{"R2": 0xFFFFFFFE, "R3": 3}, state{"R0": 0xFFFFFFFA, "R1": 0xFFFFFFFF}},
		{"SMULLS", regs("R0", "R1", "R2", "R3"), state{"R2": 0xFFFFFFFE, "R3": 3}, state{"N": 1, "Z": 0}},
		{"UMLAL", regs("R0", "R1", "R2", "R3"), state{"R0": 0xFFFFFFFF, "R1": 0, "R2": 1, "R3": 1}, state{"R0": 0, "R1": 1}},
		{"SMLAL", regs("R0", "R1", "R2", "R3"), state{"R0": 5, "R1": 0, "R2": 0xFFFFFFFF, "R3": 10}, state{"R0": 0xFFFFFFFB, "R1": 0xFFFFFFFF}},
		{"UMAAL", regs("R0", "R1", "R2", "R3"), state{"R0": 0xFFFFFFFF, "R1": 0xFFFFFFFF, "R2": 0xFFFFFFFF, "R3": 0xFFFFFFFF}, state{"R0": 0xFFFFFFFF, "R1": 0xFFFFFFFF}},
		{"SMULTB", regs("R0", "R1", "R2"), state{"R1": 0xFFFE0000, "R2": 7}, state{"R0": 0xFFFFFFF2}},
		{"SMULBT", regs("R0", "R1", "R2"), state{"R1": 0x0003, "R2": 0x00050000}, state{"R0": 15}},
		{"SMLABB", regs("R0", "R1", "R2", "R3"), state{"R1": 0x8000, "R2": 0x8000, "R3": 0x40000000, "Q": 0}, state{"R0": 0x80000000, "Q": 1}},
		{"SMLABB", regs("R0", "R1", "R2", "R3"), state{"R1": 2, "R2": 3, "R3": 4, "Q": 0}, state{"R0": 10, "Q": 0}},
		{"SMLALBB", regs("R0", "R1", "R2", "R3"), state{"R0": 0, "R1": 0, "R2": 0xFFFF, "R3": 2}, state{"R0": 0xFFFFFFFE, "R1": 0xFFFFFFFF}},
		{"SMULWB", regs("R0", "R1", "R2"), state{"R1": 0x10000, "R2": 0xFFFF}, state{"R0": 0xFFFFFFFF}},
		{"SMULWT", regs("R0", "R1", "R2"), state{"R1": 0x30000, "R2": 0x00020000}, state{"R0": 6}},
		{"SMLAWB", regs("R0", "R1", "R2", "R3"), state{"R1": 0x10000, "R2": 4, "R3": 1, "Q": 0}, state{"R0": 5, "Q": 0}},
		{"SMUAD", regs("R0", "R1", "R2"), state{"R1": 0x00020003, "R2": 0x00040005, "Q": 0}, state{"R0": 23, "Q": 0}},
		{"SMUADX", regs("R0", "R1", "R2"), state{"R1": 0x00020003, "R2": 0x00040005}, state{"R0": 22}},
		{"SMUAD", regs("R0", "R1", "R2"), state{"R1": 0x80008000, "R2": 0x80008000, "Q": 0}, state{"R0": 0x80000000, "Q": 1}},
		{"SMUSD", regs("R0", "R1", "R2"), state{"R1": 0x00020003, "R2": 0x00040005}, state{"R0": 7}},
		{"SMLAD", regs("R0", "R1", "R2", "R3"), state{"R1": 0x00020003, "R2": 0x00040005, "R3": 100}, state{"R0": 123}},
		{"SMLSD", regs("R0", "R1", "R2", "R3"), state{"R1": 0x00020003, "R2": 0x00040005, "R3": 100}, state{"R0": 107}},
		{"SMLALD", regs("R0", "R1", "R2", "R3"), state{"R0": 0xFFFFFFFF, "R1": 0, "R2": 0x00020003, "R3": 0x00040005}, state{"R0": 22, "R1": 1}},
		{"SMLSLD", regs("R0", "R1", "R2", "R3"), state{"R0": 0, "R1": 0, "R2": 0x00030002, "R3": 0x00050004}, state{"R0": 0xFFFFFFF9, "R1": 0xFFFFFFFF}},
		{"SMMUL", regs("R0", "R1", "R2"), state{"R1": 0x40000000, "R2": 4}, state{"R0": 1}},
		{"SMMUL", regs("R0", "R1", "R2"), state{"R1": 0x40000000, "R2": 2}, state{"R0": 0}},
		{"SMMULR", regs("R0", "R1", "R2"), state{"R1": 0x40000000, "R2": 2}, state{"R0": 1}},
		{"SMMLA", regs("R0", "R1", "R2", "R3"), state{"R1": 0x40000000, "R2": 4, "R3": 2}, state{"R0": 3}},
		{"SMMLS", regs("R0", "R1", "R2", "R3"), state{"R1": 0x40000000, "R2": 4, "R3": 2}, state{"R0": 1}},
		{"SDIV", regs("R0", "R1", "R2"), state{"R1": 0xFFFFFFF9, "R2": 2}, state{"R0": 0xFFFFFFFD}},
		{"SDIV", regs("R0", "R1", "R2"), state{"R1": 7, "R2": 0xFFFFFFFE}, state{"R0": 0xFFFFFFFD}},
		{"SDIV", regs("R0", "R1", "R2"), state{"R1": 0x80000000, "R2": 0xFFFFFFFF}, state{"R0": 0x80000000}},
		{"SDIV", regs("R0", "R1", "R2"), state{"R1": 5, "R2": 0}, state{"R0": 0}},
		{"UDIV", regs("R0", "R1", "R2"), state{"R1": 0xFFFFFFF9, "R2": 2}, state{"R0": 0x7FFFFFFC}},
		{"UDIV", regs("R0", "R1"), state{"R0": 9, "R1": 0}, state{"R0": 0}},
	})
}

func TestSaturatingArithmetic(t *testing.T) {
	runVectors(t, []vector{
		{"QADD", regs("R0", "R1", "R2"), state{"R1": 0x7FFFFFFF, "R2": 1, "Q": 0}, state{"R0": 0x7FFFFFFF, "Q": 1}},
		{"QADD", regs("R0", "R1", "R2"), state{"R1": 1, "R2": 2, "Q": 0}, state{"R0": 3, "Q": 0}},
		{"QADD", regs("R0", "R1", "R2"), state{"R1": 1, "R2": 2, "Q": 1}, state{"R0": 3, "Q": 1}},
		{"QSUB", regs("R0", "R1", "R2"), state{"R1": 0x80000000, "R2": 1, "Q": 0}, state{"R0": 0x80000000, "Q": 1}},
		{"QDADD", regs("R0", "R1", "R2"), state{"R1": 1, "R2": 0x40000000, "Q": 0}, state{"R0": 0x7FFFFFFF, "Q": 1}},
		{"QDSUB", regs("R0", "R1", "R2"), state{"R1": 10, "R2": 3, "Q": 0}, state{"R0": 4, "Q": 0}},
		{"SSAT", []*tree.Node{reg("R0"), imm(8), reg("R1")}, state{"R1": 300, "Q": 0}, state{"R0": 127, "Q": 1}},
		{"SSAT", []*tree.Node{reg("R0"), imm(8), reg("R1")}, state{"R1": 0xFFFFFED4, "Q": 0}, state{"R0": 0xFFFFFF80, "Q": 1}},
		{"SSAT", []*tree.Node{reg("R0"), imm(8), reg("R1")}, state{"R1": 0xFFFFFF85, "Q": 0}, state{"R0": 0xFFFFFF85, "Q": 0}},
		{"SSAT", []*tree.Node{reg("R0"), imm(16), shifted("LSL", "R1", 4)}, state{"R1": 0x1000, "Q": 0}, state{"R0": 0x7FFF, "Q": 1}},
		{"SSAT", []*tree.Node{reg("R0"), imm(32), reg("R1")}, state{"R1": 0x80000000, "Q": 0}, state{"R0": 0x80000000, "Q": 0}},
		{"USAT", []*tree.Node{reg("R0"), imm(8), reg("R1")}, state{"R1": 0xFFFFFFFB, "Q": 0}, state{"R0": 0, "Q": 1}},
		{"USAT", []*tree.Node{reg("R0"), imm(8), reg("R1")}, state{"R1": 200, "Q": 0}, state{"R0": 200, "Q": 0}},
		{"USAT", []*tree.Node{reg("R0"), imm(8), shifted("ASR", "R1", 4)}, state{"R1": 0x10000, "Q": 0}, state{"R0": 255, "Q": 1}},
		{"SSAT16", []*tree.Node{reg("R0"), imm(8), reg("R1")}, state{"R1": 0x0190FF00, "Q": 0}, state{"R0": 0x007FFF80, "Q": 1}},
		{"USAT16", []*tree.Node{reg("R0"), imm(4), reg("R1")}, state{"R1": 0x0005FFFF, "Q": 0}, state{"R0": 0x00050000, "Q": 1}},
	})
}

func TestParallelArithmetic(t *testing.T) {
	runVectors(t, []vector{
		{"UADD8", regs("R0", "R1", "R2"), state{"R1": 0x01FF0203, "R2": 0x01010101}, state{"R0": 0x02000304}},
		{"SADD8", regs("R0", "R1", "R2"), state{"R1": 0x01FF0203, "R2": 0x01010101}, state{"R0": 0x02000304}},
		{"UQADD8", regs("R0", "R1", "R2"), state{"R1": 0x01FF0203, "R2": 0x01010101}, state{"R0": 0x02FF0304}},
		{"QADD8", regs("R0", "R1", "R2"), state{"R1": 0x7F800000, "R2": 0x01FF0000}, state{"R0": 0x7F800000}},
		{"UQSUB8", regs("R0", "R1", "R2"), state{"R1": 0x00050010, "R2": 0x01010020}, state{"R0": 0x00040000}},
		{"SHADD16", regs("R0", "R1", "R2"), state{"R1": 0x00040006, "R2": 0x00020002}, state{"R0": 0x00030004}},
		{"SHSUB16", regs("R0", "R1", "R2"), state{"R1": 0x00000000, "R2": 0x00020001}, state{"R0": 0xFFFFFFFF}},
		{"UHADD8", regs("R0", "R1", "R2"), state{"R1": 0xFF000000, "R2": 0xFF000000}, state{"R0": 0xFF000000}},
		{"QSUB16", regs("R0", "R1", "R2"), state{"R1": 0x80000000, "R2": 0x00010000}, state{"R0": 0x80000000}},
		{"UASX", regs("R0", "R1", "R2"), state{"R1": 0x00050003, "R2": 0x00010002}, state{"R0": 0x00070002}},
		{"USAX", regs("R0", "R1", "R2"), state{"R1": 0x00050003, "R2": 0x00010002}, state{"R0": 0x00030004}},
		{"SSUBADDX", regs("R0", "R1", "R2"), state{"R1": 0x00050003, "R2": 0x00010002}, state{"R0": 0x00030004}},
		{"USUB16", regs("R0", "R1"), state{"R0": 0x00010001, "R1": 0x00020001}, state{"R0": 0xFFFF0000}},
		{"USAD8", regs("R0", "R1", "R2"), state{"R1": 0x01020304, "R2": 0x04030201}, state{"R0": 8}},
		{"USADA8", regs("R0", "R1", "R2", "R3"), state{"R1": 0x01020304, "R2": 0x04030201, "R3": 10}, state{"R0": 18}},
	})
}

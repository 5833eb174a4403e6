package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/colorfulnotion/reil/reil/tree"
)

func postIndexed(base string, off *tree.Node) *tree.Node {
	return sized(tree.NewOperator(",", tree.NewDeref(r(base)), off))
}

func offset(base string, off *tree.Node) *tree.Node {
	return sized(tree.NewDeref(tree.NewOperator(",", r(base), off)))
}

func preIndexed(base string, off *tree.Node) *tree.Node {
	return sized(tree.NewOperator("!", tree.NewDeref(tree.NewOperator(",", r(base), off))))
}

func TestLoadBytePostIndexed(t *testing.T) {
	preset := state{"R1": 0x8124, "C": 0, "N": 0, "Z": 0, "V": 0, "Q": 0}
	for _, name := range []string{"R0", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9"} {
		preset[name] = 0
	}
	in := newMachine(t, preset)
	in.SetMemory(0x8124, 0x73726946, 4)
	execute(t, in, 0x100, "LDRB", reg("R2"), postIndexed("R1", i(1)))

	assert.Equal(t, uint64(0x46), in.RegisterValue("R2"))
	assert.Equal(t, uint64(0x8125), in.RegisterValue("R1"))
	assert.Len(t, in.DefinedRegisters(), 16)
	assert.Equal(t, 4, in.MemoryByteCount())
}

func TestLoadByteScaledRegisterOffset(t *testing.T) {
	in := newMachine(t, state{"R1": 0x01B0C7B0, "R3": 0x00452A02})
	in.SetMemory(0x02C56FB8, 0xE7FF0010, 4)
	execute(t, in, 0x100, "LDRB", reg("R5"), offset("R1", tree.NewOperator("LSL", r("R3"), i(2))))
	assert.Equal(t, uint64(0x10), in.RegisterValue("R5"))
	assert.Equal(t, uint64(0x01B0C7B0), in.RegisterValue("R1"))

	in = newMachine(t, state{"R1": 0x01B0C7B0, "R3": 0x00452A02})
	in.SetMemory(0x02C56FB8, 0xE7FF0010, 4)
	execute(t, in, 0x100, "LDRB", reg("R5"), preIndexed("R1", tree.NewOperator("LSL", r("R3"), i(2))))
	assert.Equal(t, uint64(0x10), in.RegisterValue("R5"))
	assert.Equal(t, uint64(0x02C56FB8), in.RegisterValue("R1"))
	assert.Equal(t, 4, in.MemoryByteCount())
}

func TestLoadStoreWidths(t *testing.T) {
	in := newMachine(t, state{"R1": 0x1000})
	in.SetMemory(0x1000, 0x12348001, 4)

	execute(t, in, 0x100, "LDRH", reg("R0"), sized(tree.NewDeref(r("R1"))))
	assert.Equal(t, uint64(0x8001), in.RegisterValue("R0"))
	execute(t, in, 0x104, "LDRSH", reg("R0"), sized(tree.NewDeref(r("R1"))))
	assert.Equal(t, uint64(0xFFFF8001), in.RegisterValue("R0"))
	execute(t, in, 0x108, "LDRSB", reg("R0"), offset("R1", i(1)))
	assert.Equal(t, uint64(0xFFFFFF80), in.RegisterValue("R0"))
	execute(t, in, 0x10C, "LDR", reg("R0"), sized(tree.NewDeref(r("R1"))))
	assert.Equal(t, uint64(0x12348001), in.RegisterValue("R0"))

	require.NoError(t, in.SetRegister("R2", 0xCAFEBABE, 32, true))
	execute(t, in, 0x110, "STRH", reg("R2"), offset("R1", i(8)))
	v, ok := in.ReadMemory(0x1008, 4)
	assert.False(t, ok, "only two bytes were written")
	v, ok = in.ReadMemory(0x1008, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(0xBABE), v)

	execute(t, in, 0x114, "STRB", reg("R2"), postIndexed("R1", i(-1)))
	v, _ = in.ReadMemory(0x1000, 1)
	assert.Equal(t, uint64(0xBE), v)
	assert.Equal(t, uint64(0xFFF), in.RegisterValue("R1"))

	execute(t, in, 0x118, "STR", reg("R2"), offset("R1", i(-0xFF)))
	v, _ = in.ReadMemory(0x0F00, 4)
	assert.Equal(t, uint64(0xCAFEBABE), v)
}

func TestNegatedRegisterOffset(t *testing.T) {
	in := newMachine(t, state{"R1": 0x1010, "R2": 0x10})
	in.SetMemory(0x1000, 0xAABBCCDD, 4)
	execute(t, in, 0x100, "LDR", reg("R0"), offset("R1", tree.NewOperator("-", r("R2"))))
	assert.Equal(t, uint64(0xAABBCCDD), in.RegisterValue("R0"))

	in = newMachine(t, state{"R1": 0x1010, "R2": 0x10})
	in.SetMemory(0x1000, 0xAABBCCDD, 4)
	execute(t, in, 0x100, "LDR", reg("R0"), preIndexed("R1", tree.NewOperator("-", r("R2"))))
	assert.Equal(t, uint64(0x1000), in.RegisterValue("R1"))
}

func TestThumbLiteralLoad(t *testing.T) {
	in := newMachine(t, nil)
	in.SetMemory(0x108, 0x11223344, 4)
	execute(t, in, 0x102, "THUMB LDR", reg("R0"), offset("PC", i(4)))
	assert.Equal(t, uint64(0x11223344), in.RegisterValue("R0"))
}

func TestLoadIntoPCInterworks(t *testing.T) {
	in := newMachine(t, state{"R1": 0x1000, "T": 0})
	in.SetMemory(0x1000, 0x2001, 4)
	execute(t, in, 0x100, "LDR", reg("PC"), postIndexed("R1", i(4)))
	assert.True(t, in.Jumped())
	assert.Equal(t, uint64(0x2000), in.RegisterValue("PC"))
	assert.Equal(t, uint64(1), in.RegisterValue("T"))
	assert.Equal(t, uint64(0x1004), in.RegisterValue("R1"))
}

func TestDoubleword(t *testing.T) {
	in := newMachine(t, state{"R1": 0x1000, "R4": 0x11111111, "R5": 0x22222222})
	execute(t, in, 0x100, "STRD", reg("R4"), reg("R5"), preIndexed("R1", i(8)))
	assert.Equal(t, uint64(0x1008), in.RegisterValue("R1"))
	v, _ := in.ReadMemory(0x100C, 4)
	assert.Equal(t, uint64(0x22222222), v)

	execute(t, in, 0x104, "LDRD", reg("R6"), sized(tree.NewDeref(r("R1"))))
	assert.Equal(t, uint64(0x11111111), in.RegisterValue("R6"))
	assert.Equal(t, uint64(0x22222222), in.RegisterValue("R7"))
	assert.Equal(t, 8, in.MemoryByteCount())
}

func TestSwapAndExclusive(t *testing.T) {
	in := newMachine(t, state{"R1": 0x55, "R2": 0x1000})
	in.SetMemory(0x1000, 0x99, 4)
	execute(t, in, 0x100, "SWP", reg("R0"), reg("R1"), sized(tree.NewDeref(r("R2"))))
	assert.Equal(t, uint64(0x99), in.RegisterValue("R0"))
	v, _ := in.ReadMemory(0x1000, 4)
	assert.Equal(t, uint64(0x55), v)

	in = newMachine(t, state{"R1": 0x1234, "R2": 0x2000, "R0": 7})
	execute(t, in, 0x100, "STREX", reg("R0"), reg("R1"), sized(tree.NewDeref(r("R2"))))
	assert.Equal(t, uint64(0), in.RegisterValue("R0"))
	execute(t, in, 0x104, "LDREX", reg("R3"), sized(tree.NewDeref(r("R2"))))
	assert.Equal(t, uint64(0x1234), in.RegisterValue("R3"))
}

func TestLoadMultipleDecrementAfter(t *testing.T) {
	in := newMachine(t, state{"R0": 0x809C})
	for j, w := range []uint64{2, 3, 4, 5, 6, 7, 8, 1} {
		in.SetMemory(0x8080+uint64(4*j), w, 4)
	}
	execute(t, in, 0x100, "LDMDA", reg("R0"), list("R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11"))

	assert.Equal(t, uint64(0x809C), in.RegisterValue("R0"))
	for j, name := range []string{"R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11"} {
		assert.Equal(t, []uint64{2, 3, 4, 5, 6, 7, 8, 1}[j], in.RegisterValue(name), name)
	}
	assert.Equal(t, 32, in.MemoryByteCount())
	assert.Len(t, in.DefinedRegisters(), 10)
}

func TestLoadMultipleWriteback(t *testing.T) {
	words := []uint64{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	in := newMachine(t, state{"R0": 0x8060, "C": 1})
	for j, w := range words {
		in.SetMemory(0x8060+uint64(4*j), w, 4)
	}
	execute(t, in, 0x100, "LDMIA", sized(tree.NewOperator("!", r("R0"))),
		sized(tree.NewList(tree.NewOperator("-", r("R4"), r("R11")))))
	assert.Equal(t, uint64(0x8080), in.RegisterValue("R0"))
	for j, name := range []string{"R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11"} {
		assert.Equal(t, words[j], in.RegisterValue(name), name)
		assert.True(t, in.IsDefined(name), name)
	}
	assert.Equal(t, uint64(1), in.RegisterValue("C"))
	assert.Equal(t, 32, in.MemoryByteCount())

	in = newMachine(t, state{"R0": 0x8060})
	execute(t, in, 0x100, "LDMIA", sized(tree.NewOperator("!", r("R0"))), list("R4"))
	assert.False(t, in.IsDefined("R4"), "loaded from unwritten memory")

	// a loaded base wins over writeback
	in = newMachine(t, state{"R0": 0x1000})
	in.SetMemory(0x1000, 0xAA, 4)
	in.SetMemory(0x1004, 0xBB, 4)
	execute(t, in, 0x100, "LDMIA", sized(tree.NewOperator("!", r("R0"))), list("R1", "R0"))
	assert.Equal(t, uint64(0xAA), in.RegisterValue("R0"))
	assert.Equal(t, uint64(0xBB), in.RegisterValue("R1"))
}

func TestStoreLoadMultipleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inverse := map[string]string{"IA": "DB", "IB": "DA", "DA": "IB", "DB": "IA"}
	regs := []string{"R1", "R5", "R9", "LR"}
	for store, load := range inverse {
		values := state{"R0": 0x4000}
		for _, name := range regs {
			values[name] = uint64(rng.Uint32())
		}
		in := newMachine(t, values)
		base := sized(tree.NewOperator("!", r("R0")))
		execute(t, in, 0x100, "STM"+store, base, list(regs...))
		assert.Equal(t, 16, in.MemoryByteCount(), store)
		for _, name := range regs {
			require.NoError(t, in.SetRegister(name, 0, 32, true))
		}
		execute(t, in, 0x104, "LDM"+load, base, list(regs...))
		assert.Equal(t, uint64(0x4000), in.RegisterValue("R0"), "STM%s/LDM%s", store, load)
		for _, name := range regs {
			assert.Equal(t, values[name], in.RegisterValue(name), "STM%s/LDM%s %s", store, load, name)
		}
	}
}

func TestPushPop(t *testing.T) {
	in := newMachine(t, state{"SP": 0x2008, "R4": 0x44, "LR": 0x8001})
	execute(t, in, 0x100, "PUSH", list("LR", "R4"))
	assert.Equal(t, uint64(0x2000), in.RegisterValue("SP"))
	v, _ := in.ReadMemory(0x2000, 4)
	assert.Equal(t, uint64(0x44), v)
	v, _ = in.ReadMemory(0x2004, 4)
	assert.Equal(t, uint64(0x8001), v)

	require.NoError(t, in.SetRegister("R4", 0, 32, true))
	execute(t, in, 0x104, "POP", list("R4", "PC"))
	assert.Equal(t, uint64(0x44), in.RegisterValue("R4"))
	assert.Equal(t, uint64(0x2008), in.RegisterValue("SP"))
	assert.True(t, in.Jumped())
	assert.Equal(t, uint64(0x8000), in.RegisterValue("PC"))
	assert.Equal(t, uint64(1), in.RegisterValue("T"))
}

func TestStoreMultipleStoresPC(t *testing.T) {
	in := newMachine(t, state{"R0": 0x3000})
	execute(t, in, 0x100, "STMIA", reg("R0"), list("PC"))
	v, _ := in.ReadMemory(0x3000, 4)
	assert.Equal(t, uint64(0x108), v)
	assert.Equal(t, uint64(0x3000), in.RegisterValue("R0"))
}

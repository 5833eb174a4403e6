package arm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/reil/reilerrors"
)

func TestParseMnemonic(t *testing.T) {
	cases := []struct {
		text string
		want Mnemonic
	}{
		{"ADC", Mnemonic{Opcode: ADC, Condition: AL}},
		{"adcs", Mnemonic{Opcode: ADC, Condition: AL, SetFlags: true}},
		{"ADCEQ", Mnemonic{Opcode: ADC, Condition: EQ}},
		{"ADCSEQ", Mnemonic{Opcode: ADC, Condition: EQ, SetFlags: true}},
		{"ADCEQS", Mnemonic{Opcode: ADC, Condition: EQ, SetFlags: true}},
		{"ADCCS", Mnemonic{Opcode: ADC, Condition: CS}},
		{"ADD.S.EQ", Mnemonic{Opcode: ADD, Condition: EQ, SetFlags: true}},
		{"ADDS.W", Mnemonic{Opcode: ADD, Condition: AL, SetFlags: true}},
		{"BICS", Mnemonic{Opcode: BIC, Condition: AL, SetFlags: true}},
		{"SBCCS", Mnemonic{Opcode: SBC, Condition: CS}},
		{"BLS", Mnemonic{Opcode: B, Condition: LS}},
		{"BLLS", Mnemonic{Opcode: BL, Condition: LS}},
		{"BLE", Mnemonic{Opcode: B, Condition: LE}},
		{"BLX", Mnemonic{Opcode: BLX, Condition: AL}},
		{"BHS", Mnemonic{Opcode: B, Condition: CS}},
		{"BLO", Mnemonic{Opcode: B, Condition: CC}},
		{"TEQ", Mnemonic{Opcode: TEQ, Condition: AL}},
		{"LSLS", Mnemonic{Opcode: LSL, Condition: AL, SetFlags: true}},
		{"LSLLS", Mnemonic{Opcode: LSL, Condition: LS}},
		{"LDREQB", Mnemonic{Opcode: LDRB, Condition: EQ}},
		{"LDRBEQ", Mnemonic{Opcode: LDRB, Condition: EQ}},
		{"LDRSH", Mnemonic{Opcode: LDRSH, Condition: AL}},
		{"LDMEQIA", Mnemonic{Opcode: LDM, Condition: EQ, Mode: IA}},
		{"LDMFD", Mnemonic{Opcode: LDM, Condition: AL, Mode: IA}},
		{"LDMEA", Mnemonic{Opcode: LDM, Condition: AL, Mode: DB}},
		{"STMFD", Mnemonic{Opcode: STM, Condition: AL, Mode: DB}},
		{"STMED", Mnemonic{Opcode: STM, Condition: AL, Mode: DA}},
		{"STMDB", Mnemonic{Opcode: STM, Condition: AL, Mode: DB}},
		{"LDM", Mnemonic{Opcode: LDM, Condition: AL, Mode: IA}},
		{"SMULTB", Mnemonic{Opcode: SMULXY, Condition: AL, Variant: "TB"}},
		{"SMLAWTNE", Mnemonic{Opcode: SMLAWY, Condition: NE, Variant: "T"}},
		{"SMUADX", Mnemonic{Opcode: SMUAD, Condition: AL, Variant: "X"}},
		{"SMMULR", Mnemonic{Opcode: SMMUL, Condition: AL, Variant: "R"}},
		{"UMULLS", Mnemonic{Opcode: UMULL, Condition: AL, SetFlags: true}},
		{"UMLALEQS", Mnemonic{Opcode: UMLAL, Condition: EQ, SetFlags: true}},
		{"SHSUB8", Mnemonic{Opcode: SHSUB8, Condition: AL}},
		{"UADDSUBX", Mnemonic{Opcode: UASX, Condition: AL}},
		{"THUMB ADDS", Mnemonic{Opcode: ADD, Condition: AL, SetFlags: true, Thumb: true}},
		{"THUMB CBNZ", Mnemonic{Opcode: CBNZ, Condition: AL, Thumb: true}},
		{"CPY", Mnemonic{Opcode: MOV, Condition: AL}},
		{"POPEQ", Mnemonic{Opcode: POP, Condition: EQ}},
	}
	for _, tc := range cases {
		got, err := ParseMnemonic(tc.text)
		require.NoError(t, err, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestParseMnemonicRejects(t *testing.T) {
	for _, text := range []string{"", "VADD", "TSTS", "BXS", "LDMXX", "THUMB"} {
		_, err := ParseMnemonic(text)
		assert.True(t, errors.Is(err, reilerrors.ErrLUnsupportedMnemonic), "%q: %v", text, err)
	}
}

func TestMnemonicString(t *testing.T) {
	for text, want := range map[string]string{
		"ADCEQS":     "ADCSEQ",
		"LDMEQFD":    "LDMIAEQ",
		"SMULTB":     "SMULTB",
		"SMLAWB":     "SMLAWB",
		"SMUADX":     "SMUADX",
		"THUMB MOVS": "THUMB MOVS",
	} {
		m, err := ParseMnemonic(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, m.String())
	}
}

func TestConditionHolds(t *testing.T) {
	assert.True(t, GE.Holds(true, false, false, true))
	assert.False(t, GE.Holds(true, false, false, false))
	assert.True(t, GT.Holds(false, false, false, false))
	assert.False(t, GT.Holds(false, true, false, false))
	assert.True(t, LE.Holds(false, true, false, false))
	assert.True(t, HI.Holds(false, false, true, false))
	assert.True(t, LS.Holds(false, true, true, false))
	assert.True(t, AL.Holds(false, false, false, false))
	assert.Equal(t, "HI", HI.String())
}

func TestNormalizeRegister(t *testing.T) {
	for in, want := range map[string]string{
		"r0": "R0", "R12": "R12", "R13": "SP", "r14": "LR", "R15": "PC",
		"fp": "R11", "IP": "R12", "sb": "R9", "SL": "R10", "sp": "SP",
	} {
		got, err := NormalizeRegister(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"R16", "R01", "X0", "", "C"} {
		_, err := NormalizeRegister(bad)
		assert.True(t, errors.Is(err, reilerrors.ErrLRegister), bad)
	}
	assert.Equal(t, 13, RegisterIndex("SP"))
	assert.Equal(t, 7, RegisterIndex("R7"))
}

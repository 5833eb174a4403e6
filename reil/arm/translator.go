package arm

import (
	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/log"
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

type translateFunc func(l *lifter) error

// Translator lifts ARM and Thumb instructions to REIL.
type Translator struct {
	// Thumb forces Thumb state for mnemonics without the "THUMB" marker.
	Thumb bool
}

func NewTranslator() *Translator {
	return &Translator{}
}

// Translate appends the REIL code of inst to out. On error out is returned
// unchanged.
func (t *Translator) Translate(env *reil.Environment, inst *tree.Instruction, out []reil.Instruction) ([]reil.Instruction, error) {
	mn, err := ParseMnemonic(inst.Mnemonic)
	if err != nil {
		return out, err
	}
	mn.Thumb = mn.Thumb || t.Thumb
	translate := dispatch(mn.Opcode)
	if translate == nil {
		return out, errors.Wrapf(reilerrors.ErrLUnsupportedMnemonic, "%s", inst.Mnemonic)
	}
	l, err := newLifter(env.Begin(inst.Address), inst, mn)
	if err != nil {
		return out, err
	}

	var skip reil.Label
	guarded := mn.Condition != AL
	if guarded {
		skip = l.JumpForward(l.Bisz(l.predicate(mn.Condition)))
	}
	if err := translate(l); err != nil {
		return out, err
	}
	if guarded {
		l.Bind(skip)
		l.Nop()
	}
	code, err := l.Instructions()
	if err != nil {
		return out, err
	}
	log.Debug(log.LiftMonitoring, "lifted", "inst", inst.String(), "mnemonic", mn.String(), "reil", len(code))
	return append(out, code...), nil
}

// TranslateAll lifts a sequence of instructions into one program.
func (t *Translator) TranslateAll(env *reil.Environment, insts []*tree.Instruction) (reil.Program, error) {
	var out []reil.Instruction
	for _, inst := range insts {
		var err error
		if out, err = t.Translate(env, inst, out); err != nil {
			return nil, errors.Wrapf(err, "%08X", inst.Address)
		}
	}
	return out, nil
}

// dispatch returns the translator for op, or nil.
func dispatch(op Opcode) translateFunc {
	switch op {
	case AND, EOR, ORR, ORN, BIC, MOV, MVN, TST, TEQ:
		return translateLogical
	case ADD, ADC, SUB, SBC, RSB, RSC, CMP, CMN:
		return translateArithmetic
	case ADR:
		return translateAdr
	case NEG:
		return translateNeg
	case LSL, LSR, ASR, ROR, RRX:
		return translateShift
	case MUL, MLA, MLS:
		return translateMultiply
	case UMULL, UMLAL, SMULL, SMLAL, UMAAL:
		return translateLongMultiply
	case SMULXY, SMLAXY, SMLALXY:
		return translateHalfMultiply
	case SMULWY, SMLAWY:
		return translateWordHalfMultiply
	case SMUAD, SMUSD, SMLAD, SMLSD, SMLALD, SMLSLD:
		return translateDualMultiply
	case SMMUL, SMMLA, SMMLS:
		return translateMostSignificantMultiply
	case SDIV, UDIV:
		return translateDivide
	case QADD, QSUB, QDADD, QDSUB:
		return translateSaturatingArithmetic
	case SSAT, USAT:
		return translateSaturate
	case SSAT16, USAT16:
		return translateSaturate16
	case SADD16, SADD8, SSUB16, SSUB8, SASX, SSAX,
		QADD16, QADD8, QSUB16, QSUB8, QASX, QSAX,
		SHADD16, SHADD8, SHSUB16, SHSUB8, SHASX, SHSAX,
		UADD16, UADD8, USUB16, USUB8, UASX, USAX,
		UQADD16, UQADD8, UQSUB16, UQSUB8, UQASX, UQSAX,
		UHADD16, UHADD8, UHSUB16, UHSUB8, UHASX, UHSAX:
		return translateParallel
	case USAD8, USADA8:
		return translateSumOfDifferences
	case CLZ:
		return translateClz
	case REV, REV16, REVSH, RBIT:
		return translateReverse
	case SXTB, SXTH, SXTB16, UXTB, UXTH, UXTB16,
		SXTAB, SXTAH, SXTAB16, UXTAB, UXTAH, UXTAB16:
		return translateExtend
	case PKHBT, PKHTB:
		return translatePack
	case BFC, BFI, SBFX, UBFX:
		return translateBitField
	case MOVW, MOVT:
		return translateMoveWide
	case NOP:
		return translateNop
	case LDR, LDRB, LDRH, LDRSB, LDRSH, LDRT, LDRBT, LDREX:
		return translateLoad
	case STR, STRB, STRH, STRT, STRBT:
		return translateStore
	case LDRD, STRD:
		return translateDual
	case STREX:
		return translateStoreExclusive
	case SWP, SWPB:
		return translateSwap
	case LDM, STM, PUSH, POP:
		return translateMultiple
	case B, BL:
		return translateBranch
	case BX, BLX:
		return translateBranchExchange
	case CBZ, CBNZ:
		return translateCompareBranch
	}
	return nil
}

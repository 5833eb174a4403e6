package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

var always = reil.Lit(1, byte1)

// returnAddress is the LR value a branch with link of length bytes leaves
// behind. In Thumb state bit 0 is set.
func (l *lifter) returnAddress(length uint64) reil.Operand {
	if l.mn.Thumb {
		return reil.Lit((l.Native()+length)|1, dword)
	}
	return reil.Lit(l.Native()+4, dword)
}

func (l *lifter) target(i int) (uint64, error) {
	v, err := l.imm(i)
	if err != nil {
		return 0, err
	}
	return uint64(v) & mask32, nil
}

func translateBranch(l *lifter) error {
	if err := l.arity(1); err != nil {
		return err
	}
	target, err := l.target(0)
	if err != nil {
		return err
	}
	if l.mn.Opcode == BL {
		l.write("LR", l.returnAddress(4))
	}
	l.Jump(always, reil.Lit(target, dword))
	return nil
}

// translateBranchExchange lifts BX and BLX. A register target selects the
// instruction set from bit 0; BLX to a label always switches it.
func translateBranchExchange(l *lifter) error {
	if err := l.arity(1); err != nil {
		return err
	}
	link := l.mn.Opcode == BLX
	if l.ops[0].Kind == tree.Immediate {
		if !link {
			return l.fail(reilerrors.ErrLOperandShape, "BX to a label")
		}
		target, err := l.target(0)
		if err != nil {
			return err
		}
		l.write("LR", l.returnAddress(4))
		if l.mn.Thumb {
			l.setFlag("T", reil.Lit(0, byte1))
			target &^= 3
		} else {
			l.setFlag("T", reil.Lit(1, byte1))
		}
		l.Jump(always, reil.Lit(target, dword))
		return nil
	}
	rm, err := l.reg(0)
	if err != nil {
		return err
	}
	v := l.read(rm)
	if link {
		saved := l.Temp(dword)
		l.Str(v, saved)
		v = saved
		// Thumb BLX Rm is the 16-bit encoding
		l.write("LR", l.returnAddress(2))
	}
	l.branchExchange(v)
	return nil
}

// translateCompareBranch lifts CBZ and CBNZ Rn, label.
func translateCompareBranch(l *lifter) error {
	if err := l.arity(2); err != nil {
		return err
	}
	rn, err := l.reg(0)
	if err != nil {
		return err
	}
	target, err := l.target(1)
	if err != nil {
		return err
	}
	cond := l.Bisz(l.read(rn))
	if l.mn.Opcode == CBNZ {
		cond = l.Bisz(cond)
	}
	l.Jump(cond, reil.Lit(target, dword))
	return nil
}

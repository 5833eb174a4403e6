package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

// dataOperands decodes "Rd, Rn, op2" and the two operand form "Rd, op2"
// which reads Rd as Rn.
func (l *lifter) dataOperands() (rd, rn string, op2 shifterOperand, err error) {
	if err = l.arity(2, 3); err != nil {
		return
	}
	if rd, err = l.reg(0); err != nil {
		return
	}
	rn = rd
	if len(l.ops) == 3 {
		if rn, err = l.reg(1); err != nil {
			return
		}
	}
	op2, err = l.matchShifter(l.ops[len(l.ops)-1])
	return
}

// unaryOperands decodes "Rd, op2" for moves and "Rn, op2" for compares.
func (l *lifter) unaryOperands() (r string, op2 shifterOperand, err error) {
	if err = l.arity(2); err != nil {
		return
	}
	if r, err = l.reg(0); err != nil {
		return
	}
	op2, err = l.matchShifter(l.ops[1])
	return
}

func (l *lifter) setLogicalFlags(res, carry reil.Operand) {
	l.setNZ(res)
	if carry.IsRegister() && carry.Name == "C" {
		return
	}
	l.setFlag("C", carry)
}

func translateArithmetic(l *lifter) error {
	op := l.mn.Opcode
	compare := op == CMP || op == CMN
	var (
		rd, rn string
		op2    shifterOperand
		err    error
	)
	if compare {
		rn, op2, err = l.unaryOperands()
	} else {
		rd, rn, op2, err = l.dataOperands()
	}
	if err != nil {
		return err
	}

	a := l.read(rn)
	b, _ := l.emitShifter(op2, false)
	var cin reil.Operand
	switch op {
	case ADC:
		cin = l.flag("C")
	case SUB, CMP:
		b, cin = l.not32(b), reil.Lit(1, byte1)
	case SBC:
		b, cin = l.not32(b), l.flag("C")
	case RSB:
		a, b, cin = b, l.not32(a), reil.Lit(1, byte1)
	case RSC:
		a, b, cin = b, l.not32(a), l.flag("C")
	}
	res, raw := l.addWithCarry(a, b, cin)
	if compare || (l.mn.SetFlags && rd != "PC") {
		l.setAddFlags(a, b, res, raw)
	}
	if !compare {
		l.write(rd, res)
	}
	return nil
}

func translateLogical(l *lifter) error {
	op := l.mn.Opcode
	var (
		rd, rn string
		op2    shifterOperand
		err    error
	)
	switch op {
	case MOV, MVN:
		rd, op2, err = l.unaryOperands()
	case TST, TEQ:
		rn, op2, err = l.unaryOperands()
	default:
		rd, rn, op2, err = l.dataOperands()
	}
	if err != nil {
		return err
	}

	test := op == TST || op == TEQ
	setFlags := test || (l.mn.SetFlags && rd != "PC")
	v, carry := l.emitShifter(op2, setFlags)
	var res reil.Operand
	switch op {
	case AND, TST:
		res = l.And(l.read(rn), v, dword)
	case EOR, TEQ:
		res = l.Xor(l.read(rn), v, dword)
	case ORR:
		res = l.Or(l.read(rn), v, dword)
	case ORN:
		res = l.Or(l.read(rn), l.not32(v), dword)
	case BIC:
		res = l.And(l.read(rn), l.not32(v), dword)
	case MOV:
		res = v
	case MVN:
		res = l.not32(v)
	}
	if setFlags {
		l.setLogicalFlags(res, carry)
	}
	if !test {
		l.write(rd, res)
	}
	return nil
}

func translateAdr(l *lifter) error {
	if err := l.arity(2); err != nil {
		return err
	}
	rd, err := l.reg(0)
	if err != nil {
		return err
	}
	target, err := l.imm(1)
	if err != nil {
		return err
	}
	l.write(rd, reil.Lit(uint64(target), dword))
	return nil
}

// translateNeg lifts NEG Rd, Rm as RSB Rd, Rm, #0.
func translateNeg(l *lifter) error {
	if err := l.arity(2); err != nil {
		return err
	}
	regs, err := l.regs(0, 1)
	if err != nil {
		return err
	}
	a := reil.Lit(0, dword)
	b := l.not32(l.read(regs[1]))
	res, raw := l.addWithCarry(a, b, reil.Lit(1, byte1))
	if l.mn.SetFlags {
		l.setAddFlags(a, b, res, raw)
	}
	l.write(regs[0], res)
	return nil
}

// translateShift lifts LSL, LSR, ASR, ROR and RRX as a MOV of the
// corresponding shifter operand.
func translateShift(l *lifter) error {
	if err := l.arity(2, 3); err != nil {
		return err
	}
	rd, err := l.reg(0)
	if err != nil {
		return err
	}
	var op2 shifterOperand
	if l.mn.Opcode == RRX {
		if err := l.arity(2); err != nil {
			return err
		}
		rm, err := l.reg(1)
		if err != nil {
			return err
		}
		op2 = shifterOperand{kind: shiftExtend, rm: rm, shift: tree.OpRRX}
	} else {
		rm, amount := rd, l.ops[1]
		if len(l.ops) == 3 {
			if rm, err = l.reg(1); err != nil {
				return err
			}
			amount = l.ops[2]
		}
		op2 = shifterOperand{rm: rm, shift: l.mn.Opcode.String()}
		switch amount.Kind {
		case tree.Immediate:
			n, err := amount.Int()
			if err != nil {
				return l.fail(err, "shift amount")
			}
			if n < 0 {
				return l.fail(reilerrors.ErrLImmediate, "negative shift amount %d", n)
			}
			op2.kind, op2.amount = shiftByImmediate, n
		case tree.Register:
			rs, err := NormalizeRegister(amount.Value)
			if err != nil {
				return err
			}
			op2.kind, op2.rs = shiftByRegister, rs
		default:
			return l.fail(reilerrors.ErrLOperandShape, "shift amount %s", amount)
		}
	}
	setFlags := l.mn.SetFlags && rd != "PC"
	v, carry := l.emitShifter(op2, setFlags)
	if setFlags {
		l.setLogicalFlags(v, carry)
	}
	l.write(rd, v)
	return nil
}

func translateNop(l *lifter) error {
	l.Nop()
	return nil
}

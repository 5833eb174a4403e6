package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

type shifterKind uint8

const (
	shiftImmediate   shifterKind = iota // #imm or a rotated #imm
	shiftNone                           // Rm
	shiftByImmediate                    // Rm, <shift> #n
	shiftByRegister                     // Rm, <shift> Rs
	shiftExtend                         // Rm, RRX
)

// shifterOperand is a decoded data-processing second operand.
type shifterOperand struct {
	kind   shifterKind
	value  uint32 // immediate after rotation
	rotate int64
	rm     string
	shift  string
	amount int64
	rs     string
}

// matchShifter decodes an operand tree into a shifter operand.
func (l *lifter) matchShifter(n *tree.Node) (shifterOperand, error) {
	if n == nil {
		return shifterOperand{}, l.fail(reilerrors.ErrLOperandShape, "empty shifter operand")
	}
	switch n.Kind {
	case tree.Immediate:
		v, err := n.Int()
		if err != nil {
			return shifterOperand{}, l.fail(err, "shifter immediate")
		}
		return shifterOperand{kind: shiftImmediate, value: uint32(v)}, nil
	case tree.Register:
		rm, err := NormalizeRegister(n.Value)
		if err != nil {
			return shifterOperand{}, err
		}
		return shifterOperand{kind: shiftNone, rm: rm}, nil
	case tree.Operator:
		switch n.Value {
		case tree.OpRRX:
			rm, err := l.registerChild(n, 0)
			if err != nil || len(n.Children) != 1 {
				return shifterOperand{}, l.fail(reilerrors.ErrLOperandShape, "%s", n)
			}
			return shifterOperand{kind: shiftExtend, rm: rm, shift: tree.OpRRX}, nil
		case tree.OpLSL, tree.OpLSR, tree.OpASR, tree.OpROR:
		default:
			return shifterOperand{}, l.fail(reilerrors.ErrLShiftKind, "%q", n.Value)
		}
		if len(n.Children) != 2 {
			return shifterOperand{}, l.fail(reilerrors.ErrLOperandShape, "%s", n)
		}
		left, right := n.Children[0], n.Children[1]
		if left.Kind == tree.Immediate && right.Kind == tree.Immediate && n.Value == tree.OpROR {
			v, err := left.Int()
			if err != nil {
				return shifterOperand{}, l.fail(err, "rotated immediate")
			}
			r, err := right.Int()
			if err != nil {
				return shifterOperand{}, l.fail(err, "rotation")
			}
			r &= 31
			return shifterOperand{kind: shiftImmediate, value: ror32(uint32(v), r), rotate: r}, nil
		}
		rm, err := l.registerChild(n, 0)
		if err != nil {
			return shifterOperand{}, err
		}
		switch right.Kind {
		case tree.Immediate:
			amount, err := right.Int()
			if err != nil {
				return shifterOperand{}, l.fail(err, "shift amount")
			}
			if amount < 0 {
				return shifterOperand{}, l.fail(reilerrors.ErrLImmediate, "negative shift amount %d", amount)
			}
			return shifterOperand{kind: shiftByImmediate, rm: rm, shift: n.Value, amount: amount}, nil
		case tree.Register:
			rs, err := NormalizeRegister(right.Value)
			if err != nil {
				return shifterOperand{}, err
			}
			return shifterOperand{kind: shiftByRegister, rm: rm, shift: n.Value, rs: rs}, nil
		}
	}
	return shifterOperand{}, l.fail(reilerrors.ErrLOperandShape, "shifter operand %s", n)
}

func (l *lifter) registerChild(n *tree.Node, i int) (string, error) {
	c := n.Child(i)
	if c == nil || c.Kind != tree.Register {
		return "", l.fail(reilerrors.ErrLOperandShape, "%s: child %d is not a register", n, i)
	}
	return NormalizeRegister(c.Value)
}

func ror32(v uint32, r int64) uint32 {
	r &= 31
	return v>>uint(r) | v<<uint(32-r)
}

// emitShifter returns the DWORD value of op and, when carry is wanted, the
// BYTE shifter carry-out. The carry is empty otherwise.
func (l *lifter) emitShifter(op shifterOperand, wantCarry bool) (reil.Operand, reil.Operand) {
	switch op.kind {
	case shiftImmediate:
		value := reil.Lit(uint64(op.value), dword)
		if !wantCarry {
			return value, reil.Empty
		}
		if op.rotate == 0 {
			return value, l.flag("C")
		}
		return value, reil.Lit(uint64(op.value>>31), byte1)
	case shiftNone:
		return l.read(op.rm), l.carryOrEmpty(wantCarry)
	case shiftExtend:
		return l.shiftConstant(tree.OpRRX, l.read(op.rm), 1, wantCarry)
	case shiftByImmediate:
		return l.shiftConstant(op.shift, l.read(op.rm), op.amount, wantCarry)
	case shiftByRegister:
		return l.shiftVariable(op.shift, l.read(op.rm), l.read(op.rs), wantCarry)
	}
	return reil.Empty, reil.Empty
}

func (l *lifter) carryOrEmpty(wantCarry bool) reil.Operand {
	if wantCarry {
		return l.flag("C")
	}
	return reil.Empty
}

// shiftConstant shifts a DWORD by a constant. LSL and ROR amounts are taken
// modulo 32; LSR and ASR accept 32.
func (l *lifter) shiftConstant(kind string, rm reil.Operand, amount int64, wantCarry bool) (reil.Operand, reil.Operand) {
	var value, carry reil.Operand
	switch kind {
	case tree.OpLSL:
		n := amount % 32
		if n == 0 {
			return rm, l.carryOrEmpty(wantCarry)
		}
		value = l.Bsh(rm, n, dword)
		if wantCarry {
			carry = l.bit(rm, 32-n)
		}
	case tree.OpLSR:
		n := amount
		if n > 32 {
			n %= 32
		}
		if n == 0 {
			return rm, l.carryOrEmpty(wantCarry)
		}
		value = l.Bsh(rm, -n, dword)
		if wantCarry {
			carry = l.bit(rm, n-1)
		}
	case tree.OpASR:
		n := amount
		if n > 32 {
			n %= 32
		}
		if n == 0 {
			return rm, l.carryOrEmpty(wantCarry)
		}
		value = l.Bsh(l.signExtend(rm, 32, qword), -n, dword)
		if wantCarry {
			carry = l.bit(rm, n-1)
		}
	case tree.OpROR:
		n := amount % 32
		if n == 0 {
			return rm, l.carryOrEmpty(wantCarry)
		}
		value = l.Or(l.Bsh(rm, -n, dword), l.Bsh(rm, 32-n, dword), dword)
		if wantCarry {
			carry = l.bit(value, 31)
		}
	case tree.OpRRX:
		value = l.Or(l.Bsh(l.flag("C"), 31, dword), l.Bsh(rm, -1, dword), dword)
		if wantCarry {
			carry = l.bit(rm, 0)
		}
	}
	return value, carry
}

// shiftVariable shifts a DWORD by the bottom byte of rs.
func (l *lifter) shiftVariable(kind string, rm, rs reil.Operand, wantCarry bool) (reil.Operand, reil.Operand) {
	amount := l.And(rs, reil.Lit(0xFF, dword), dword)
	var value, carry reil.Operand
	switch kind {
	case tree.OpLSL:
		wide := l.BshBy(rm, amount, reil.OWORD)
		value = l.low32(wide)
		if wantCarry {
			carry = l.bit(wide, 32)
		}
	case tree.OpLSR:
		neg := l.Sub(reil.Lit(0, dword), amount, dword)
		value = l.BshBy(rm, neg, dword)
		if wantCarry {
			carry = l.bit(l.BshBy(l.Bsh(rm, 1, qword), neg, qword), 0)
		}
	case tree.OpASR:
		big := l.Bisz(l.Bisz(l.And(amount, reil.Lit(0xE0, dword), dword)))
		clamped := l.choose(big, reil.Lit(32, dword), amount, dword)
		neg := l.Sub(reil.Lit(0, dword), clamped, dword)
		shifted := l.BshBy(l.Bsh(l.signExtend(rm, 32, qword), 1, reil.OWORD), neg, reil.OWORD)
		value = l.Bsh(shifted, -1, dword)
		if wantCarry {
			carry = l.bit(shifted, 0)
		}
	case tree.OpROR:
		r := l.And(rs, reil.Lit(0x1F, dword), dword)
		right := l.BshBy(rm, l.Sub(reil.Lit(0, dword), r, dword), dword)
		left := l.BshBy(rm, l.Sub(reil.Lit(32, dword), r, dword), dword)
		value = l.Or(right, left, dword)
		if wantCarry {
			carry = l.bit(value, 31)
		}
	}
	if wantCarry {
		carry = l.choose(l.Bisz(amount), l.flag("C"), carry, byte1)
	}
	return value, carry
}

package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reilerrors"
)

// signedSaturate clamps the QWORD two's complement value x to n bits. It
// returns the DWORD result and a BYTE that is 1 when clamping happened.
func (l *lifter) signedSaturate(x reil.Operand, n int64) (res, saturated reil.Operand) {
	fits := l.fitsSigned(x, n)
	max := reil.Lit(uint64(1)<<(n-1)-1, dword)
	min := reil.Lit(uint64(-(int64(1) << (n - 1))), dword)
	limit := l.choose(l.bit(x, 63), min, max, dword)
	return l.choose(fits, l.low32(x), limit, dword), l.Bisz(fits)
}

// unsignedSaturate clamps the QWORD two's complement value x to 0..2^n-1.
func (l *lifter) unsignedSaturate(x reil.Operand, n int64) (res, saturated reil.Operand) {
	outside := l.Bisz(l.Bisz(l.Bsh(x, -n, qword)))
	limit := l.choose(l.bit(x, 63), reil.Lit(0, dword), reil.Lit(lowMask(n), dword), dword)
	return l.choose(outside, limit, l.low32(x), dword), outside
}

// translateSaturatingArithmetic lifts QADD, QSUB, QDADD and QDSUB, all of
// the form Rd, Rm, Rn.
func translateSaturatingArithmetic(l *lifter) error {
	if err := l.arity(3); err != nil {
		return err
	}
	regs, err := l.regs(0, 2)
	if err != nil {
		return err
	}
	m, n := l.signed32(l.read(regs[1])), l.signed32(l.read(regs[2]))
	switch l.mn.Opcode {
	case QDADD, QDSUB:
		doubled, sat := l.signedSaturate(l.Add(n, n, qword), 32)
		l.raiseQ(sat)
		n = l.signed32(doubled)
	}
	var sum reil.Operand
	switch l.mn.Opcode {
	case QADD, QDADD:
		sum = l.Add(m, n, qword)
	default:
		sum = l.Sub(m, n, qword)
	}
	res, sat := l.signedSaturate(sum, 32)
	l.raiseQ(sat)
	l.write(regs[0], res)
	return nil
}

// saturateOperands decodes "Rd, #sat, op" where op is a register,
// optionally shifted by LSL or ASR.
func (l *lifter) saturateOperands(minBits, maxBits int64) (rd string, bits int64, value reil.Operand, err error) {
	if err = l.arity(3); err != nil {
		return
	}
	if rd, err = l.reg(0); err != nil {
		return
	}
	if bits, err = l.imm(1); err != nil {
		return
	}
	if bits < minBits || bits > maxBits {
		err = l.fail(reilerrors.ErrLImmediate, "saturation width %d outside %d..%d", bits, minBits, maxBits)
		return
	}
	op, err := l.matchShifter(l.ops[2])
	if err != nil {
		return
	}
	switch {
	case op.kind == shiftNone:
	case op.kind == shiftByImmediate && (op.shift == "LSL" || op.shift == "ASR"):
	default:
		err = l.fail(reilerrors.ErrLShiftKind, "saturate operand %s", l.ops[2])
		return
	}
	value, _ = l.emitShifter(op, false)
	return
}

func translateSaturate(l *lifter) error {
	signed := l.mn.Opcode == SSAT
	minBits, maxBits := int64(0), int64(31)
	if signed {
		minBits, maxBits = 1, 32
	}
	rd, bits, value, err := l.saturateOperands(minBits, maxBits)
	if err != nil {
		return err
	}
	var res, sat reil.Operand
	if signed {
		res, sat = l.signedSaturate(l.signed32(value), bits)
	} else {
		res, sat = l.unsignedSaturate(l.signed32(value), bits)
	}
	l.raiseQ(sat)
	l.write(rd, res)
	return nil
}

// translateSaturate16 saturates both signed halfwords of Rn.
func translateSaturate16(l *lifter) error {
	signed := l.mn.Opcode == SSAT16
	minBits, maxBits := int64(0), int64(15)
	if signed {
		minBits, maxBits = 1, 16
	}
	rd, bits, value, err := l.saturateOperands(minBits, maxBits)
	if err != nil {
		return err
	}
	var lanes [2]reil.Operand
	var sats [2]reil.Operand
	for i, top := range []bool{false, true} {
		lane := l.half(value, top)
		if signed {
			lanes[i], sats[i] = l.signedSaturate(lane, bits)
		} else {
			lanes[i], sats[i] = l.unsignedSaturate(lane, bits)
		}
		lanes[i] = l.And(lanes[i], reil.Lit(0xFFFF, dword), dword)
	}
	l.raiseQ(l.Or(sats[0], sats[1], byte1))
	l.write(rd, l.Or(lanes[0], l.Bsh(lanes[1], 16, dword), dword))
	return nil
}

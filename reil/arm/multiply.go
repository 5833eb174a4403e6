package arm

import (
	"github.com/colorfulnotion/reil/reil"
)

// signed32 sign extends a DWORD to QWORD.
func (l *lifter) signed32(x reil.Operand) reil.Operand {
	return l.signExtend(x, 32, qword)
}

// half returns the top or bottom halfword of x sign extended to QWORD.
func (l *lifter) half(x reil.Operand, top bool) reil.Operand {
	if top {
		return l.signExtend(l.Bsh(x, -16, dword), 16, qword)
	}
	return l.signExtend(x, 16, qword)
}

// fitsSigned is 1 when the QWORD two's complement value x fits in n bits.
func (l *lifter) fitsSigned(x reil.Operand, n int64) reil.Operand {
	biased := l.Add(x, reil.Lit(uint64(1)<<(n-1), qword), qword)
	return l.Bisz(l.Bsh(biased, -n, qword))
}

// stickyOverflow sets Q when the QWORD value x does not fit in 32 bits.
func (l *lifter) stickyOverflow(x reil.Operand) {
	l.raiseQ(l.Bisz(l.fitsSigned(x, 32)))
}

// raiseQ ORs a BYTE into the sticky Q flag.
func (l *lifter) raiseQ(v reil.Operand) {
	l.setFlag("Q", l.Or(l.flag("Q"), v, byte1))
}

// pair joins hi:lo into a QWORD.
func (l *lifter) pair(lo, hi reil.Operand) reil.Operand {
	return l.Or(l.Bsh(hi, 32, qword), lo, qword)
}

// writePair stores a QWORD into lo and hi registers.
func (l *lifter) writePair(lo, hi string, v reil.Operand) {
	l.write(lo, l.low32(v))
	l.write(hi, l.Bsh(v, -32, dword))
}

func translateMultiply(l *lifter) error {
	op := l.mn.Opcode
	var rd, rn, rm, ra string
	switch op {
	case MUL:
		if err := l.arity(2, 3); err != nil {
			return err
		}
		regs, err := l.regs(0, len(l.ops)-1)
		if err != nil {
			return err
		}
		rd, rn, rm = regs[0], regs[0], regs[len(regs)-1]
		if len(regs) == 3 {
			rn = regs[1]
		}
	default:
		if err := l.arity(4); err != nil {
			return err
		}
		regs, err := l.regs(0, 3)
		if err != nil {
			return err
		}
		rd, rn, rm, ra = regs[0], regs[1], regs[2], regs[3]
	}
	res := l.Mul(l.read(rn), l.read(rm), dword)
	switch op {
	case MLA:
		res = l.Add(res, l.read(ra), dword)
	case MLS:
		res = l.Sub(l.read(ra), res, dword)
	}
	if l.mn.SetFlags {
		l.setNZ(res)
	}
	l.write(rd, res)
	return nil
}

// translateLongMultiply lifts UMULL, UMLAL, SMULL, SMLAL and UMAAL, all
// of the form RdLo, RdHi, Rn, Rm.
func translateLongMultiply(l *lifter) error {
	if err := l.arity(4); err != nil {
		return err
	}
	regs, err := l.regs(0, 3)
	if err != nil {
		return err
	}
	lo, hi, rn, rm := regs[0], regs[1], regs[2], regs[3]
	op := l.mn.Opcode

	var res reil.Operand
	switch op {
	case SMULL, SMLAL:
		res = l.Mul(l.signed32(l.read(rn)), l.signed32(l.read(rm)), qword)
	default:
		res = l.Mul(l.read(rn), l.read(rm), qword)
	}
	switch op {
	case UMLAL, SMLAL:
		res = l.Add(res, l.pair(l.read(lo), l.read(hi)), qword)
	case UMAAL:
		res = l.Add(l.Add(res, l.read(lo), qword), l.read(hi), qword)
	}
	if l.mn.SetFlags {
		l.setFlag("N", l.bit(res, 63))
		l.setFlag("Z", l.Bisz(res))
	}
	l.writePair(lo, hi, res)
	return nil
}

// translateHalfMultiply lifts SMULxy, SMLAxy and SMLALxy.
func translateHalfMultiply(l *lifter) error {
	op := l.mn.Opcode
	want := 3
	if op != SMULXY {
		want = 4
	}
	if err := l.arity(want); err != nil {
		return err
	}
	regs, err := l.regs(0, want-1)
	if err != nil {
		return err
	}
	n, m := l.operandHalves()
	var rn, rm string
	if op == SMLALXY {
		rn, rm = regs[2], regs[3]
	} else {
		rn, rm = regs[1], regs[2]
	}
	prod := l.Mul(l.half(l.read(rn), n), l.half(l.read(rm), m), qword)
	switch op {
	case SMULXY:
		l.write(regs[0], l.low32(prod))
	case SMLAXY:
		sum := l.Add(prod, l.signed32(l.read(regs[3])), qword)
		l.stickyOverflow(sum)
		l.write(regs[0], l.low32(sum))
	case SMLALXY:
		sum := l.Add(prod, l.pair(l.read(regs[0]), l.read(regs[1])), qword)
		l.writePair(regs[0], regs[1], sum)
	}
	return nil
}

// operandHalves decodes the "xy" selectors: true selects the top half.
func (l *lifter) operandHalves() (n, m bool) {
	v := l.mn.Variant
	if len(v) > 0 {
		n = v[0] == 'T'
	}
	if len(v) > 1 {
		m = v[1] == 'T'
	}
	return n, m
}

// translateWordHalfMultiply lifts SMULWy and SMLAWy: bits [47:16] of the
// product of Rn and a signed halfword of Rm.
func translateWordHalfMultiply(l *lifter) error {
	want := 3
	if l.mn.Opcode == SMLAWY {
		want = 4
	}
	if err := l.arity(want); err != nil {
		return err
	}
	regs, err := l.regs(0, want-1)
	if err != nil {
		return err
	}
	top, _ := l.operandHalves()
	prod := l.Mul(l.signed32(l.read(regs[1])), l.half(l.read(regs[2]), top), qword)
	// arithmetic shift right by 16 of a 48-bit signed value
	res := l.signExtend(l.Bsh(prod, -16, qword), 32, qword)
	if want == 4 {
		res = l.Add(res, l.signed32(l.read(regs[3])), qword)
		l.stickyOverflow(res)
	}
	l.write(regs[0], l.low32(res))
	return nil
}

// dualProducts returns the two halfword products of Rn and Rm; the "X"
// variant swaps the halves of Rm first.
func (l *lifter) dualProducts(rn, rm string) (lo, hi reil.Operand) {
	n, m := l.read(rn), l.read(rm)
	swap := l.mn.Variant == "X"
	lo = l.Mul(l.half(n, false), l.half(m, swap), qword)
	hi = l.Mul(l.half(n, true), l.half(m, !swap), qword)
	return lo, hi
}

// translateDualMultiply lifts SMUAD, SMUSD, SMLAD, SMLSD, SMLALD and SMLSLD.
func translateDualMultiply(l *lifter) error {
	op := l.mn.Opcode
	want := 4
	if op == SMUAD || op == SMUSD {
		want = 3
	}
	if err := l.arity(want); err != nil {
		return err
	}
	regs, err := l.regs(0, want-1)
	if err != nil {
		return err
	}
	var lo, hi reil.Operand
	if op == SMLALD || op == SMLSLD {
		lo, hi = l.dualProducts(regs[2], regs[3])
	} else {
		lo, hi = l.dualProducts(regs[1], regs[2])
	}
	var sum reil.Operand
	switch op {
	case SMUAD, SMLAD, SMLALD:
		sum = l.Add(lo, hi, qword)
	default:
		sum = l.Sub(lo, hi, qword)
	}
	switch op {
	case SMUAD, SMUSD:
		if op == SMUAD {
			l.stickyOverflow(sum)
		}
		l.write(regs[0], l.low32(sum))
	case SMLAD, SMLSD:
		sum = l.Add(sum, l.signed32(l.read(regs[3])), qword)
		l.stickyOverflow(sum)
		l.write(regs[0], l.low32(sum))
	case SMLALD, SMLSLD:
		sum = l.Add(sum, l.pair(l.read(regs[0]), l.read(regs[1])), qword)
		l.writePair(regs[0], regs[1], sum)
	}
	return nil
}

// translateMostSignificantMultiply lifts SMMUL, SMMLA and SMMLS; the "R"
// variant rounds.
func translateMostSignificantMultiply(l *lifter) error {
	op := l.mn.Opcode
	want := 4
	if op == SMMUL {
		want = 3
	}
	if err := l.arity(want); err != nil {
		return err
	}
	regs, err := l.regs(0, want-1)
	if err != nil {
		return err
	}
	prod := l.Mul(l.signed32(l.read(regs[1])), l.signed32(l.read(regs[2])), qword)
	var acc reil.Operand
	switch op {
	case SMMUL:
		acc = prod
	case SMMLA:
		acc = l.Add(l.Bsh(l.read(regs[3]), 32, qword), prod, qword)
	case SMMLS:
		acc = l.Sub(l.Bsh(l.read(regs[3]), 32, qword), prod, qword)
	}
	if l.mn.Variant == "R" {
		acc = l.Add(acc, reil.Lit(0x80000000, qword), qword)
	}
	l.write(regs[0], l.Bsh(acc, -32, dword))
	return nil
}

// translateDivide lifts SDIV and UDIV. Division by zero yields zero and
// signed division rounds toward zero.
func translateDivide(l *lifter) error {
	if err := l.arity(2, 3); err != nil {
		return err
	}
	regs, err := l.regs(0, len(l.ops)-1)
	if err != nil {
		return err
	}
	rd, rn, rm := regs[0], regs[0], regs[len(regs)-1]
	if len(regs) == 3 {
		rn = regs[1]
	}
	n, m := l.read(rn), l.read(rm)
	zero := l.Bisz(m)
	nonzero := l.Bisz(zero)

	if l.mn.Opcode == UDIV {
		q := l.Div(n, l.Or(m, zero, dword), dword)
		l.write(rd, l.Mul(q, nonzero, dword))
		return nil
	}
	nNeg, mNeg := l.bit(n, 31), l.bit(m, 31)
	absN := l.choose(nNeg, l.Sub(reil.Lit(0, dword), n, dword), n, dword)
	absM := l.choose(mNeg, l.Sub(reil.Lit(0, dword), m, dword), m, dword)
	q := l.Div(absN, l.Or(absM, zero, dword), dword)
	signed := l.choose(l.Xor(nNeg, mNeg, byte1), l.Sub(reil.Lit(0, dword), q, dword), q, dword)
	l.write(rd, l.Mul(signed, nonzero, dword))
	return nil
}

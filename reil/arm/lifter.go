package arm

import (
	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

const mask32 = 0xFFFFFFFF

const (
	dword = reil.DWORD
	qword = reil.QWORD
	byte1 = reil.BYTE
)

// lifter carries the state of one instruction translation.
type lifter struct {
	*reil.Builder
	inst *tree.Instruction
	mn   Mnemonic
	ops  []*tree.Node // operand roots with the size prefix removed and width checked
}

func newLifter(b *reil.Builder, inst *tree.Instruction, mn Mnemonic) (*lifter, error) {
	l := &lifter{Builder: b, inst: inst, mn: mn, ops: make([]*tree.Node, len(inst.Operands))}
	for i, op := range inst.Operands {
		size, child, err := op.Unwrap()
		if err != nil {
			return nil, errors.Wrapf(err, "%s operand %d", inst.Mnemonic, i+1)
		}
		if !complete(child) {
			return nil, errors.Wrapf(reilerrors.ErrLOperandShape, "%s operand %d has an empty node", inst.Mnemonic, i+1)
		}
		if err := checkWidth(size, child); err != nil {
			return nil, errors.Wrapf(err, "%s operand %d", inst.Mnemonic, i+1)
		}
		l.ops[i] = child
	}
	return l, nil
}

// complete reports whether n and every node below it are present.
func complete(n *tree.Node) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if !complete(c) {
			return false
		}
	}
	return true
}

// checkWidth holds an operand to its declared width. Registers, shifted
// operands, addresses and register lists are DWORD; an immediate must fit
// its width as a signed or unsigned value.
func checkWidth(size reil.OperandSize, n *tree.Node) error {
	if n.Kind != tree.Immediate {
		if size != dword {
			return errors.Wrapf(reilerrors.ErrLSizePrefix, "%s declared %s, want %s", n, size, dword)
		}
		return nil
	}
	v, err := n.Int()
	if err != nil {
		return err
	}
	if size >= qword {
		return nil
	}
	if v < -(int64(1)<<(size-1)) || v >= int64(1)<<size {
		return errors.Wrapf(reilerrors.ErrLImmediate, "%s does not fit %s", n, size)
	}
	return nil
}

func (l *lifter) fail(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, "%s: "+format, append([]interface{}{l.inst.Mnemonic}, args...)...)
}

// arity fails unless the instruction has one of the given operand counts.
func (l *lifter) arity(counts ...int) error {
	for _, c := range counts {
		if len(l.ops) == c {
			return nil
		}
	}
	return l.fail(reilerrors.ErrLOperandCount, "got %d operands, want %v", len(l.ops), counts)
}

// reg returns the normalized register name of operand i.
func (l *lifter) reg(i int) (string, error) {
	n := l.ops[i]
	if n.Kind != tree.Register {
		return "", l.fail(reilerrors.ErrLOperandShape, "operand %d %s is not a register", i+1, n)
	}
	return NormalizeRegister(n.Value)
}

// regs returns the register names of operands from..to inclusive.
func (l *lifter) regs(from, to int) ([]string, error) {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		r, err := l.reg(i)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// imm returns the immediate value of operand i.
func (l *lifter) imm(i int) (int64, error) {
	v, err := l.ops[i].Int()
	if err != nil {
		return 0, l.fail(err, "operand %d", i+1)
	}
	return v, nil
}

// pc is the value a read of PC yields.
func (l *lifter) pc() uint64 {
	if l.mn.Thumb {
		return l.Native() + 4
	}
	return l.Native() + 8
}

// read returns a DWORD operand holding register name.
func (l *lifter) read(name string) reil.Operand {
	if name == "PC" {
		return reil.Lit(l.pc(), dword)
	}
	return reil.Reg(name, dword)
}

// write stores v into register name. Writing PC ends the instruction with a
// jump to v; in Thumb state bit 0 of the target is cleared.
func (l *lifter) write(name string, v reil.Operand) {
	if name == "PC" {
		target := v
		if l.mn.Thumb {
			target = l.And(v, reil.Lit(0xFFFFFFFE, dword), dword)
		}
		l.Jump(always, target)
		return
	}
	l.Str(v, reil.Reg(name, dword))
}

// writeInterworking stores a value loaded from memory into name. A load
// into PC selects the instruction set from bit 0 of the value.
func (l *lifter) writeInterworking(name string, v reil.Operand) {
	if name != "PC" {
		l.Str(v, reil.Reg(name, dword))
		return
	}
	l.branchExchange(v)
}

// branchExchange jumps to v, setting T from bit 0.
func (l *lifter) branchExchange(v reil.Operand) {
	l.setFlag("T", l.bit(v, 0))
	l.Jump(always, l.And(v, reil.Lit(0xFFFFFFFE, dword), dword))
}

func (l *lifter) flag(name string) reil.Operand {
	return reil.Reg(name, byte1)
}

func (l *lifter) setFlag(name string, v reil.Operand) {
	l.Str(v, reil.Reg(name, byte1))
}

// bit extracts bit k of x as a BYTE.
func (l *lifter) bit(x reil.Operand, k int64) reil.Operand {
	if k == 0 {
		return l.And(x, reil.Lit(1, byte1), byte1)
	}
	return l.And(l.Bsh(x, -k, x.Size), reil.Lit(1, byte1), byte1)
}

// bits extracts width bits of x starting at lsb, zero extended to size.
func (l *lifter) bits(x reil.Operand, lsb, width int64, size reil.OperandSize) reil.Operand {
	v := x
	if lsb != 0 {
		v = l.Bsh(x, -lsb, x.Size)
	}
	return l.And(v, reil.Lit(lowMask(width), size), size)
}

// signExtend sign extends the low width bits of x to size.
func (l *lifter) signExtend(x reil.Operand, width int64, size reil.OperandSize) reil.Operand {
	sign := uint64(1) << (width - 1)
	low := l.And(x, reil.Lit(lowMask(width), size), size)
	flipped := l.Xor(low, reil.Lit(sign, size), size)
	return l.Sub(flipped, reil.Lit(sign, size), size)
}

// not32 is the bitwise complement of a DWORD value.
func (l *lifter) not32(x reil.Operand) reil.Operand {
	return l.Xor(x, reil.Lit(mask32, dword), dword)
}

// low32 truncates x to a DWORD.
func (l *lifter) low32(x reil.Operand) reil.Operand {
	return l.And(x, reil.Lit(mask32, dword), dword)
}

// choose returns cond ? a : b for a BYTE cond that is 0 or 1.
func (l *lifter) choose(cond, a, b reil.Operand, size reil.OperandSize) reil.Operand {
	x := l.Mul(a, cond, size)
	y := l.Mul(b, l.Bisz(cond), size)
	return l.Or(x, y, size)
}

// setNZ sets N and Z from a DWORD result.
func (l *lifter) setNZ(res reil.Operand) {
	l.setFlag("N", l.bit(res, 31))
	l.setFlag("Z", l.Bisz(res))
}

// addWithCarry computes a + b + cin over 32 bits and returns the DWORD
// result together with the unmasked sum.
func (l *lifter) addWithCarry(a, b, cin reil.Operand) (res, raw reil.Operand) {
	raw = l.Add(a, b, qword)
	if !cin.IsEmpty() {
		raw = l.Add(raw, cin, qword)
	}
	return l.low32(raw), raw
}

// setAddFlags sets N, Z, C and V after addWithCarry(a, b, cin).
func (l *lifter) setAddFlags(a, b, res, raw reil.Operand) {
	l.setNZ(res)
	l.setFlag("C", l.Bsh(raw, -32, byte1))
	overflow := l.And(l.Xor(a, res, dword), l.Xor(b, res, dword), dword)
	l.setFlag("V", l.Bsh(overflow, -31, byte1))
}

func lowMask(width int64) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}

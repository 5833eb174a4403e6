package interpreter

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reilerrors"
)

type controlKind uint8

const (
	controlNext controlKind = iota
	controlLocal
	controlNative
)

type control struct {
	kind   controlKind
	target reil.SubAddress
}

var advance = control{kind: controlNext}

type operation func(in *Interpreter, inst reil.Instruction) (control, error)

var operations = map[reil.Opcode]operation{
	reil.ADD: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		z.Add(a, b)
		return nil
	}),
	reil.SUB: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		z.Sub(a, b)
		return nil
	}),
	reil.MUL: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		z.Mul(a, b)
		return nil
	}),
	reil.DIV: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		if b.IsZero() {
			return reilerrors.ErrIDivisionByZero
		}
		z.Div(a, b)
		return nil
	}),
	reil.MOD: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		if b.IsZero() {
			return reilerrors.ErrIDivisionByZero
		}
		z.Mod(a, b)
		return nil
	}),
	reil.AND: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		z.And(a, b)
		return nil
	}),
	reil.OR: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		z.Or(a, b)
		return nil
	}),
	reil.XOR: binary(func(z, a, b *uint256.Int, _ reil.OperandSize) error {
		z.Xor(a, b)
		return nil
	}),
	reil.BSH:   binary(shift),
	reil.BISZ:  execBisz,
	reil.JCC:   execJcc,
	reil.LDM:   execLdm,
	reil.STM:   execStm,
	reil.STR:   execStr,
	reil.UNDEF: execUndef,
	reil.NOP:   execNop,
	reil.UNKN:  execNop,
}

func (in *Interpreter) execute(inst reil.Instruction) (control, error) {
	op, ok := operations[inst.Opcode]
	if !ok {
		return advance, errors.Wrapf(reilerrors.ErrIUnknownOpcode, "opcode %d", uint8(inst.Opcode))
	}
	return op(in, inst)
}

// binary lifts f to an operation reading First and Second and writing Third.
// The result is defined only if both inputs are.
func binary(f func(z, a, b *uint256.Int, bSize reil.OperandSize) error) operation {
	return func(in *Interpreter, inst reil.Instruction) (control, error) {
		a, da, err := in.read(inst.First)
		if err != nil {
			return advance, err
		}
		b, db, err := in.read(inst.Second)
		if err != nil {
			return advance, err
		}
		z := new(uint256.Int)
		if err := f(z, a, b, inst.Second.Size); err != nil {
			return advance, err
		}
		return advance, in.write(inst.Third, z, da && db)
	}
}

// shift treats b as a two's complement amount of width bSize: positive
// amounts shift left, negative amounts shift right.
func shift(z, a, b *uint256.Int, bSize reil.OperandSize) error {
	if bSize == reil.EMPTY {
		return errors.Wrap(reilerrors.ErrIMalformedInstruction, "shift amount without size")
	}
	negative := !new(uint256.Int).Rsh(b, uint(bSize-1)).IsZero()
	amount := new(uint256.Int).Set(b)
	if negative {
		amount.Sub(bSize.Mask(), b)
		amount.AddUint64(amount, 1)
	}
	if !amount.IsUint64() || amount.Uint64() > 256 {
		z.Clear()
		return nil
	}
	if negative {
		z.Rsh(a, uint(amount.Uint64()))
	} else {
		z.Lsh(a, uint(amount.Uint64()))
	}
	return nil
}

func execBisz(in *Interpreter, inst reil.Instruction) (control, error) {
	a, defined, err := in.read(inst.First)
	if err != nil {
		return advance, err
	}
	z := new(uint256.Int)
	if a.IsZero() {
		z.SetOne()
	}
	return advance, in.write(inst.Third, z, defined)
}

func execJcc(in *Interpreter, inst reil.Instruction) (control, error) {
	cond, _, err := in.read(inst.First)
	if err != nil {
		return advance, err
	}
	if cond.IsZero() {
		return advance, nil
	}
	if inst.Third.Kind == reil.KindSubAddress {
		target := inst.Third.Target
		if target.Native == inst.Address.Native {
			return control{kind: controlLocal, target: target}, nil
		}
		if target.Offset != 0 {
			return advance, errors.Wrapf(reilerrors.ErrIMalformedInstruction, "jump into %s", target)
		}
		return control{kind: controlNative, target: target}, nil
	}
	dst, _, err := in.read(inst.Third)
	if err != nil {
		return advance, err
	}
	return control{kind: controlNative, target: reil.SubAddress{Native: dst.Uint64()}}, nil
}

func execLdm(in *Interpreter, inst reil.Instruction) (control, error) {
	addr, da, err := in.read(inst.First)
	if err != nil {
		return advance, err
	}
	v, dm := in.memory.Load(addr.Uint64(), inst.Third.Size.Bytes())
	return advance, in.write(inst.Third, v, da && dm)
}

func execStm(in *Interpreter, inst reil.Instruction) (control, error) {
	v, defined, err := in.read(inst.First)
	if err != nil {
		return advance, err
	}
	addr, _, err := in.read(inst.Third)
	if err != nil {
		return advance, err
	}
	in.memory.Store(addr.Uint64(), v, inst.First.Size.Bytes(), defined)
	return advance, nil
}

func execStr(in *Interpreter, inst reil.Instruction) (control, error) {
	v, defined, err := in.read(inst.First)
	if err != nil {
		return advance, err
	}
	return advance, in.write(inst.Third, v, defined)
}

func execUndef(in *Interpreter, inst reil.Instruction) (control, error) {
	switch inst.Third.Kind {
	case reil.KindRegister:
		if _, ok := in.policy.RegisterSize(inst.Third.Name); !ok {
			return advance, errors.Wrap(reilerrors.ErrIUnknownRegister, inst.Third.Name)
		}
		delete(in.registers, inst.Third.Name)
	case reil.KindTemporary:
		delete(in.temps, inst.Third.Name)
	default:
		return advance, errors.Wrap(reilerrors.ErrIMalformedInstruction, "undef of a non-register")
	}
	return advance, nil
}

func execNop(in *Interpreter, inst reil.Instruction) (control, error) {
	return advance, nil
}

func (in *Interpreter) read(op reil.Operand) (*uint256.Int, bool, error) {
	switch op.Kind {
	case reil.KindLiteral:
		return uint256.NewInt(op.Value), true, nil
	case reil.KindSubAddress:
		return uint256.NewInt(op.Target.Encoded()), true, nil
	case reil.KindRegister:
		native, ok := in.policy.RegisterSize(op.Name)
		if !ok {
			return nil, false, errors.Wrap(reilerrors.ErrIUnknownRegister, op.Name)
		}
		if native != op.Size {
			return nil, false, errors.Wrapf(reilerrors.ErrIWidthMismatch, "%s is %s, read as %s", op.Name, native, op.Size)
		}
		r, ok := in.registers[op.Name]
		if !ok {
			return new(uint256.Int), false, nil
		}
		return new(uint256.Int).Set(&r.value), r.defined, nil
	case reil.KindTemporary:
		r, ok := in.temps[op.Name]
		if !ok {
			return nil, false, errors.Wrap(reilerrors.ErrIUndefinedTemporary, op.Name)
		}
		return new(uint256.Int).And(&r.value, op.Size.Mask()), r.defined, nil
	}
	return nil, false, errors.Wrapf(reilerrors.ErrIMalformedInstruction, "read of operand kind %d", op.Kind)
}

func (in *Interpreter) write(op reil.Operand, v *uint256.Int, defined bool) error {
	switch op.Kind {
	case reil.KindRegister:
		native, ok := in.policy.RegisterSize(op.Name)
		if !ok {
			return errors.Wrap(reilerrors.ErrIUnknownRegister, op.Name)
		}
		if native != op.Size {
			return errors.Wrapf(reilerrors.ErrIWidthMismatch, "%s is %s, written as %s", op.Name, native, op.Size)
		}
		in.registers[op.Name] = newRegister(v, native, defined)
		return nil
	case reil.KindTemporary:
		in.temps[op.Name] = newRegister(v, op.Size, defined)
		return nil
	}
	return errors.Wrapf(reilerrors.ErrIMalformedInstruction, "write to operand kind %d", op.Kind)
}

package reil

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reilerrors"
)

// Environment hands out fresh temporary names. One environment serves a
// stream of lifted instructions; temporaries are never reused.
type Environment struct {
	next uint64
}

func NewEnvironment() *Environment {
	return &Environment{}
}

// NextTemp returns the next unused temporary name.
func (e *Environment) NextTemp() string {
	name := fmt.Sprintf("t%d", e.next)
	e.next++
	return name
}

// Begin starts lifting the native instruction at address.
func (e *Environment) Begin(address uint64) *Builder {
	return &Builder{env: e, native: address}
}

// Label marks a forward jump whose target is bound later.
type Label int

// Builder appends REIL instructions for one native instruction, assigning
// consecutive sub-addresses starting at offset 0.
type Builder struct {
	env    *Environment
	native uint64
	out    []Instruction
	open   map[Label]bool
}

// Native is the address of the instruction being lifted.
func (b *Builder) Native() uint64 {
	return b.native
}

// Len is the number of instructions emitted so far.
func (b *Builder) Len() int {
	return len(b.out)
}

// Next is the sub-address the next emitted instruction will get.
func (b *Builder) Next() SubAddress {
	return SubAddress{Native: b.native, Offset: uint8(len(b.out))}
}

// Temp allocates a fresh temporary of the given size.
func (b *Builder) Temp(size OperandSize) Operand {
	return Temp(b.env.NextTemp(), size)
}

// Emit appends one instruction.
func (b *Builder) Emit(op Opcode, first, second, third Operand) {
	b.out = append(b.out, Instruction{
		Address: b.Next(),
		Opcode:  op,
		First:   first,
		Second:  second,
		Third:   third,
	})
}

// Binary emits op x, y -> t for a fresh temporary t of the given size.
func (b *Builder) Binary(op Opcode, x, y Operand, size OperandSize) Operand {
	t := b.Temp(size)
	b.Emit(op, x, y, t)
	return t
}

func (b *Builder) Add(x, y Operand, size OperandSize) Operand { return b.Binary(ADD, x, y, size) }
func (b *Builder) Sub(x, y Operand, size OperandSize) Operand { return b.Binary(SUB, x, y, size) }
func (b *Builder) Mul(x, y Operand, size OperandSize) Operand { return b.Binary(MUL, x, y, size) }
func (b *Builder) Div(x, y Operand, size OperandSize) Operand { return b.Binary(DIV, x, y, size) }
func (b *Builder) Mod(x, y Operand, size OperandSize) Operand { return b.Binary(MOD, x, y, size) }
func (b *Builder) And(x, y Operand, size OperandSize) Operand { return b.Binary(AND, x, y, size) }
func (b *Builder) Or(x, y Operand, size OperandSize) Operand  { return b.Binary(OR, x, y, size) }
func (b *Builder) Xor(x, y Operand, size OperandSize) Operand { return b.Binary(XOR, x, y, size) }

// Bsh shifts x by a constant; negative amounts shift right.
func (b *Builder) Bsh(x Operand, amount int64, size OperandSize) Operand {
	return b.Binary(BSH, x, Lit(uint64(amount), DWORD), size)
}

// BshBy shifts x by a signed operand amount.
func (b *Builder) BshBy(x, amount Operand, size OperandSize) Operand {
	return b.Binary(BSH, x, amount, size)
}

// Bisz emits BISZ x -> BYTE t.
func (b *Builder) Bisz(x Operand) Operand {
	t := b.Temp(BYTE)
	b.Emit(BISZ, x, Empty, t)
	return t
}

// Str copies x into dst.
func (b *Builder) Str(x, dst Operand) {
	b.Emit(STR, x, Empty, dst)
}

// Load reads size bits of memory at addr into a fresh temporary.
func (b *Builder) Load(addr Operand, size OperandSize) Operand {
	t := b.Temp(size)
	b.Emit(LDM, addr, Empty, t)
	return t
}

// Store writes value to memory at addr.
func (b *Builder) Store(value, addr Operand) {
	b.Emit(STM, value, Empty, addr)
}

// Jump transfers control to target when cond is non-zero.
func (b *Builder) Jump(cond, target Operand) {
	b.Emit(JCC, cond, Empty, target)
}

// JumpForward emits a JCC whose target is fixed by Bind.
func (b *Builder) JumpForward(cond Operand) Label {
	l := Label(len(b.out))
	b.Emit(JCC, cond, Empty, Empty)
	if b.open == nil {
		b.open = make(map[Label]bool)
	}
	b.open[l] = true
	return l
}

// Bind points l at the next instruction to be emitted.
func (b *Builder) Bind(l Label) {
	b.out[l].Third = Sub(b.Next())
	delete(b.open, l)
}

func (b *Builder) Undef(reg Operand) {
	b.Emit(UNDEF, Empty, Empty, reg)
}

func (b *Builder) Nop() {
	b.Emit(NOP, Empty, Empty, Empty)
}

// Instructions returns the finished code. It fails if a forward jump was
// never bound or the code does not fit in the sub-address space.
func (b *Builder) Instructions() ([]Instruction, error) {
	if len(b.out) > 0x100 {
		return nil, errors.Wrapf(reilerrors.ErrLSubAddressOverflow, "%d instructions at %08X", len(b.out), b.native)
	}
	if len(b.open) > 0 {
		return nil, errors.Errorf("unbound forward jump at %08X", b.native)
	}
	return b.out, nil
}

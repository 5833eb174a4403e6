// Package interpreter executes lifted REIL code against a simulated machine
// state of registers, flags and sparse memory.
package interpreter

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/log"
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reilerrors"
)

// DefaultMaxSteps bounds the REIL instructions executed by one Interpret call.
const DefaultMaxSteps = 1 << 16

type register struct {
	value   uint256.Int
	size    reil.OperandSize
	defined bool
}

// Interpreter owns one machine state. It is not safe for concurrent use.
// After an error the state is left as it was when the failing instruction
// started; nothing is rolled back.
type Interpreter struct {
	policy    CpuPolicy
	memory    *Memory
	registers map[string]*register
	temps     map[string]*register
	jumped    bool
	MaxSteps  int
}

func New(policy CpuPolicy, endian Endianness) *Interpreter {
	return &Interpreter{
		policy:    policy,
		memory:    NewMemory(endian),
		registers: make(map[string]*register),
		temps:     make(map[string]*register),
		MaxSteps:  DefaultMaxSteps,
	}
}

// NewARM returns an interpreter using ARMPolicy.
func NewARM(endian Endianness) *Interpreter {
	return New(ARMPolicy{}, endian)
}

func (in *Interpreter) Policy() CpuPolicy {
	return in.policy
}

func (in *Interpreter) Memory() *Memory {
	return in.memory
}

// SetRegister seeds a native register or a temporary. Native registers must
// be set with their policy width.
func (in *Interpreter) SetRegister(name string, value uint64, size reil.OperandSize, defined bool) error {
	v := uint256.NewInt(value)
	if native, ok := in.policy.RegisterSize(name); ok {
		if native != size {
			return errors.Wrapf(reilerrors.ErrIWidthMismatch, "%s is %s, set as %s", name, native, size)
		}
		in.registers[name] = newRegister(v, size, defined)
		return nil
	}
	in.temps[name] = newRegister(v, size, defined)
	return nil
}

func newRegister(v *uint256.Int, size reil.OperandSize, defined bool) *register {
	r := &register{size: size, defined: defined}
	r.value.And(v, size.Mask())
	return r
}

// RegisterValue returns the low 64 bits of a register, 0 if it is not set.
func (in *Interpreter) RegisterValue(name string) uint64 {
	if r, ok := in.lookup(name); ok {
		return r.value.Uint64()
	}
	return 0
}

// Register returns the full value of a register and whether it is defined.
func (in *Interpreter) Register(name string) (*uint256.Int, bool) {
	r, ok := in.lookup(name)
	if !ok {
		return new(uint256.Int), false
	}
	return new(uint256.Int).Set(&r.value), r.defined
}

// IsDefined reports whether name holds a defined value.
func (in *Interpreter) IsDefined(name string) bool {
	r, ok := in.lookup(name)
	return ok && r.defined
}

func (in *Interpreter) lookup(name string) (*register, bool) {
	if r, ok := in.registers[name]; ok {
		return r, true
	}
	r, ok := in.temps[name]
	return r, ok
}

// DefinedRegisters lists the defined native registers in policy order.
func (in *Interpreter) DefinedRegisters() []string {
	var out []string
	for _, name := range in.policy.Registers() {
		if r, ok := in.registers[name]; ok && r.defined {
			out = append(out, name)
		}
	}
	return out
}

// MemoryByteCount is the number of distinct bytes ever written.
func (in *Interpreter) MemoryByteCount() int {
	return in.memory.Size()
}

func (in *Interpreter) SetMemoryByte(address uint64, value byte) {
	in.memory.StoreByte(address, value, true)
}

// SetMemory stores the low n bytes of value at address in the configured byte order.
func (in *Interpreter) SetMemory(address uint64, value uint64, n int) {
	in.memory.Store(address, uint256.NewInt(value), n, true)
}

// ReadMemory loads n <= 8 bytes at address.
func (in *Interpreter) ReadMemory(address uint64, n int) (uint64, bool) {
	v, defined := in.memory.Load(address, n)
	return v.Uint64(), defined
}

// Interpret executes the REIL code lifted from the native instruction at
// entry. PC is set to entry first and temporaries from earlier calls are
// dropped. Execution ends when control falls off the
// end of the code or a JCC leaves it, in which case PC holds the target.
func (in *Interpreter) Interpret(program []reil.Instruction, entry uint64) error {
	code := reil.Program(program).At(entry)
	if len(code) == 0 {
		return errors.Wrapf(reilerrors.ErrIInstructionNotFound, "%08X", entry)
	}
	pc := in.policy.ProgramCounter()
	pcSize, _ := in.policy.RegisterSize(pc)
	if err := in.SetRegister(pc, entry, pcSize, true); err != nil {
		return err
	}
	in.jumped = false
	clear(in.temps)

	byOffset := make(map[uint8]int, len(code))
	for i, inst := range code {
		byOffset[inst.Address.Offset] = i
	}

	steps := 0
	for i := 0; i < len(code); {
		if steps >= in.MaxSteps {
			return errors.Wrapf(reilerrors.ErrIStepLimit, "%d steps at %08X", steps, entry)
		}
		steps++

		inst := code[i]
		log.Trace(log.InterpMonitoring, "reil", "inst", inst.String())
		ctl, err := in.execute(inst)
		if err != nil {
			return errors.Wrapf(err, "%s", inst)
		}
		switch ctl.kind {
		case controlNext:
			i++
		case controlLocal:
			next, ok := byOffset[ctl.target.Offset]
			if !ok {
				if int(ctl.target.Offset) >= len(code) {
					return nil
				}
				return errors.Wrapf(reilerrors.ErrIMalformedInstruction, "jump to missing %s", ctl.target)
			}
			i = next
		case controlNative:
			in.jumped = true
			return in.SetRegister(pc, ctl.target.Native, pcSize, true)
		}
	}
	return nil
}

// Jumped reports whether the last Interpret call left through a JCC.
func (in *Interpreter) Jumped() bool {
	return in.jumped
}

// Run follows control flow across the native instructions of program,
// starting at entry, for at most limit native instructions. Falling off an
// instruction continues with the next one in emission order; leaving the
// program stops execution.
func (in *Interpreter) Run(program reil.Program, entry uint64, limit int) error {
	natives := program.Natives()
	position := make(map[uint64]int, len(natives))
	for i, addr := range natives {
		position[addr] = i
	}
	current := entry
	for n := 0; n < limit; n++ {
		if err := in.Interpret(program, current); err != nil {
			return err
		}
		if in.jumped {
			pc := in.RegisterValue(in.policy.ProgramCounter())
			if _, ok := position[pc]; !ok {
				return nil
			}
			current = pc
			continue
		}
		next := position[current] + 1
		if next >= len(natives) {
			return nil
		}
		current = natives[next]
	}
	return nil
}

// Snapshot is a JSON friendly view of the defined machine state.
type Snapshot struct {
	Registers map[string]string `json:"registers"`
	Memory    map[string]string `json:"memory"`
}

func (in *Interpreter) Snapshot() Snapshot {
	s := Snapshot{
		Registers: make(map[string]string),
		Memory:    make(map[string]string),
	}
	for _, name := range in.DefinedRegisters() {
		s.Registers[name] = in.registers[name].value.Hex()
	}
	for _, addr := range in.memory.Addresses() {
		b, ok := in.memory.LoadByte(addr)
		if !ok {
			continue
		}
		s.Memory[fmt.Sprintf("0x%08x", addr)] = fmt.Sprintf("0x%02x", b)
	}
	return s
}

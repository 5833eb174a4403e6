package interpreter

import (
	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/reil/reil"
)

// CpuPolicy describes the native registers of the architecture whose
// lifted code is being interpreted.
type CpuPolicy interface {
	// ProgramCounter is the name of the native program counter.
	ProgramCounter() string
	// RegisterSize returns the native width of name, or false for non-native names.
	RegisterSize(name string) (reil.OperandSize, bool)
	// Registers lists all native register names in a stable order.
	Registers() []string
}

// IsNativeRegister reports whether policy knows name.
func IsNativeRegister(policy CpuPolicy, name string) bool {
	_, ok := policy.RegisterSize(name)
	return ok
}

var armRegisterSizes = map[string]reil.OperandSize{
	"R0": reil.DWORD, "R1": reil.DWORD, "R2": reil.DWORD, "R3": reil.DWORD,
	"R4": reil.DWORD, "R5": reil.DWORD, "R6": reil.DWORD, "R7": reil.DWORD,
	"R8": reil.DWORD, "R9": reil.DWORD, "R10": reil.DWORD, "R11": reil.DWORD,
	"R12": reil.DWORD, "SP": reil.DWORD, "LR": reil.DWORD, "PC": reil.DWORD,
	// flags
	"C": reil.BYTE, "N": reil.BYTE, "Z": reil.BYTE, "V": reil.BYTE,
	"Q": reil.BYTE, "T": reil.BYTE,
}

// ARMPolicy covers R0-R12, SP, LR and PC as DWORD registers and the
// C, N, Z, V, Q and T flags as BYTE registers.
type ARMPolicy struct{}

func (ARMPolicy) ProgramCounter() string { return "PC" }

func (ARMPolicy) RegisterSize(name string) (reil.OperandSize, bool) {
	size, ok := armRegisterSizes[name]
	return size, ok
}

func (ARMPolicy) Registers() []string {
	names := make([]string, 0, len(armRegisterSizes))
	for name := range armRegisterSizes {
		names = append(names, name)
	}
	slices.SortFunc(names, compareRegisterNames)
	return names
}

// compareRegisterNames orders R0..R12 numerically, then everything else by name.
func compareRegisterNames(a, b string) int {
	ra, aok := registerNumber(a)
	rb, bok := registerNumber(b)
	switch {
	case aok && bok:
		return ra - rb
	case aok:
		return -1
	case bok:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func registerNumber(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'R' {
		return 0, false
	}
	n := 0
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

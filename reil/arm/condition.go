package arm

import (
	"fmt"

	"github.com/colorfulnotion/reil/reil"
)

// Condition is the ARM condition code guarding an instruction.
type Condition uint8

const (
	EQ Condition = iota
	NE
	CS
	CC
	MI
	PL
	VS
	VC
	HI
	LS
	GE
	LT
	GT
	LE
	AL
)

var conditionNames = [...]string{"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC", "HI", "LS", "GE", "LT", "GT", "LE", "AL"}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", uint8(c))
}

type conditionSuffix struct {
	name string
	cond Condition
}

// conditionSuffixes includes the HS and LO synonyms.
var conditionSuffixes = []conditionSuffix{
	{"EQ", EQ}, {"NE", NE}, {"CS", CS}, {"HS", CS}, {"CC", CC}, {"LO", CC},
	{"MI", MI}, {"PL", PL}, {"VS", VS}, {"VC", VC}, {"HI", HI}, {"LS", LS},
	{"GE", GE}, {"LT", LT}, {"GT", GT}, {"LE", LE}, {"AL", AL},
}

// Holds evaluates the condition against concrete flag values.
func (c Condition) Holds(n, z, carry, v bool) bool {
	switch c {
	case EQ:
		return z
	case NE:
		return !z
	case CS:
		return carry
	case CC:
		return !carry
	case MI:
		return n
	case PL:
		return !n
	case VS:
		return v
	case VC:
		return !v
	case HI:
		return carry && !z
	case LS:
		return !carry || z
	case GE:
		return n == v
	case LT:
		return n != v
	case GT:
		return !z && n == v
	case LE:
		return z || n != v
	}
	return true
}

// predicate emits code computing the condition as a BYTE that is 1 when it
// holds and 0 otherwise.
func (l *lifter) predicate(c Condition) reil.Operand {
	n, z, carry, v := l.flag("N"), l.flag("Z"), l.flag("C"), l.flag("V")
	switch c {
	case EQ:
		return z
	case NE:
		return l.Bisz(z)
	case CS:
		return carry
	case CC:
		return l.Bisz(carry)
	case MI:
		return n
	case PL:
		return l.Bisz(n)
	case VS:
		return v
	case VC:
		return l.Bisz(v)
	case HI:
		return l.And(carry, l.Bisz(z), reil.BYTE)
	case LS:
		return l.Bisz(l.And(carry, l.Bisz(z), reil.BYTE))
	case GE:
		return l.Bisz(l.Xor(n, v, reil.BYTE))
	case LT:
		return l.Xor(n, v, reil.BYTE)
	case GT:
		return l.And(l.Bisz(z), l.Bisz(l.Xor(n, v, reil.BYTE)), reil.BYTE)
	case LE:
		return l.Or(z, l.Xor(n, v, reil.BYTE), reil.BYTE)
	}
	return reil.Lit(1, reil.BYTE)
}

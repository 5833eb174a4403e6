package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

type indexMode uint8

const (
	indexOffset   indexMode = iota // [Rn, off]
	indexPre                       // [Rn, off]!
	indexPost                      // [Rn], off
	indexAbsolute                  // label
)

// addressOperand is a decoded load/store address.
type addressOperand struct {
	mode     indexMode
	base     string
	offset   shifterOperand
	indexed  bool // offset is present
	negative bool
	absolute uint64
}

func (a addressOperand) writesBack() bool {
	return a.mode == indexPre || a.mode == indexPost
}

// matchAddress decodes the memory operand of a load or store.
func (l *lifter) matchAddress(n *tree.Node) (addressOperand, error) {
	var a addressOperand
	switch {
	case n.Kind == tree.Immediate:
		v, err := n.Int()
		if err != nil {
			return a, l.fail(err, "address")
		}
		return addressOperand{mode: indexAbsolute, absolute: uint64(v) & mask32}, nil
	case n.Is(tree.OpSeparator) && len(n.Children) == 2 && n.Children[0].Kind == tree.MemDeref:
		a.mode = indexPost
		base, err := l.derefBase(n.Children[0].Child(0))
		if err != nil {
			return a, err
		}
		a.base = base
		return a, l.matchOffset(&a, n.Children[1])
	case n.Is(tree.OpWriteback) && len(n.Children) == 1 && n.Children[0].Kind == tree.MemDeref:
		if err := l.matchInner(&a, n.Children[0].Child(0)); err != nil {
			return a, err
		}
		a.mode = indexPre
		return a, nil
	case n.Kind == tree.MemDeref:
		a.mode = indexOffset
		return a, l.matchInner(&a, n.Child(0))
	}
	return a, l.fail(reilerrors.ErrLOperandShape, "address %s", n)
}

func (l *lifter) matchInner(a *addressOperand, n *tree.Node) error {
	if n != nil && n.Kind == tree.Register {
		base, err := NormalizeRegister(n.Value)
		a.base = base
		return err
	}
	if !n.Is(tree.OpSeparator) || len(n.Children) != 2 {
		return l.fail(reilerrors.ErrLOperandShape, "address %s", n)
	}
	base, err := l.derefBase(n.Children[0])
	if err != nil {
		return err
	}
	a.base = base
	return l.matchOffset(a, n.Children[1])
}

func (l *lifter) derefBase(n *tree.Node) (string, error) {
	if n == nil || n.Kind != tree.Register {
		return "", l.fail(reilerrors.ErrLOperandShape, "base %s is not a register", n)
	}
	return NormalizeRegister(n.Value)
}

func (l *lifter) matchOffset(a *addressOperand, n *tree.Node) error {
	if n.Is(tree.OpNegate) && len(n.Children) == 1 {
		a.negative = true
		n = n.Children[0]
	}
	if n.Kind == tree.Immediate {
		v, err := n.Int()
		if err != nil {
			return l.fail(err, "offset")
		}
		if v < 0 {
			a.negative = !a.negative
			v = -v
		}
		a.offset = shifterOperand{kind: shiftImmediate, value: uint32(v)}
		a.indexed = true
		return nil
	}
	off, err := l.matchShifter(n)
	if err != nil {
		return err
	}
	if off.kind == shiftByRegister {
		return l.fail(reilerrors.ErrLShiftKind, "register-shifted offset %s", n)
	}
	a.offset = off
	a.indexed = true
	return nil
}

// emitAddress returns the transfer address and the updated base to write
// back. The updated base is empty when the mode has no writeback.
func (l *lifter) emitAddress(a addressOperand) (addr, updated reil.Operand) {
	if a.mode == indexAbsolute {
		return reil.Lit(a.absolute, dword), reil.Empty
	}
	base := l.read(a.base)
	if a.base == "PC" && l.mn.Thumb {
		base = reil.Lit(l.pc()&^3, dword)
	}
	sum := base
	if a.indexed {
		off, _ := l.emitShifter(a.offset, false)
		if a.negative {
			sum = l.Sub(base, off, dword)
		} else {
			sum = l.Add(base, off, dword)
		}
	}
	switch a.mode {
	case indexPre:
		return sum, sum
	case indexPost:
		return base, sum
	}
	return sum, reil.Empty
}

package arm

import (
	"golang.org/x/exp/slices"

	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

// registerList decodes "{R0, R4-R6, LR}" into ascending register names.
func (l *lifter) registerList(n *tree.Node) ([]string, error) {
	if n.Kind != tree.ExpressionList || len(n.Children) == 0 {
		return nil, l.fail(reilerrors.ErrLRegisterList, "%s", n)
	}
	seen := make(map[int]bool)
	for _, c := range n.Children {
		switch {
		case c.Kind == tree.Register:
			r, err := NormalizeRegister(c.Value)
			if err != nil {
				return nil, err
			}
			seen[RegisterIndex(r)] = true
		case c.Is(tree.OpNegate) && len(c.Children) == 2:
			from, err := l.registerChild(c, 0)
			if err != nil {
				return nil, err
			}
			to, err := l.registerChild(c, 1)
			if err != nil {
				return nil, err
			}
			lo, hi := RegisterIndex(from), RegisterIndex(to)
			if lo > hi {
				return nil, l.fail(reilerrors.ErrLRegisterList, "descending range %s", c)
			}
			for i := lo; i <= hi; i++ {
				seen[i] = true
			}
		default:
			return nil, l.fail(reilerrors.ErrLRegisterList, "entry %s", c)
		}
	}
	indexes := make([]int, 0, len(seen))
	for i := range seen {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)
	names := make([]string, len(indexes))
	for i, idx := range indexes {
		names[i] = registerName(idx)
	}
	return names, nil
}

// multipleOperands decodes the base, writeback flag and list of LDM, STM,
// PUSH and POP.
func (l *lifter) multipleOperands() (base string, writeback bool, mode MultiMode, regs []string, err error) {
	switch l.mn.Opcode {
	case PUSH, POP:
		if err = l.arity(1); err != nil {
			return
		}
		base, writeback, mode = "SP", true, IA
		if l.mn.Opcode == PUSH {
			mode = DB
		}
		regs, err = l.registerList(l.ops[0])
		return
	}
	if err = l.arity(2); err != nil {
		return
	}
	b := l.ops[0]
	if b.Is(tree.OpWriteback) && len(b.Children) == 1 {
		writeback, b = true, b.Children[0]
	}
	if b.Kind != tree.Register {
		err = l.fail(reilerrors.ErrLOperandShape, "base %s", l.ops[0])
		return
	}
	if base, err = NormalizeRegister(b.Value); err != nil {
		return
	}
	mode = l.mn.Mode
	regs, err = l.registerList(l.ops[1])
	return
}

// translateMultiple lifts LDM, STM, PUSH and POP. Registers are transferred
// in ascending order from ascending addresses.
func translateMultiple(l *lifter) error {
	base, writeback, mode, regs, err := l.multipleOperands()
	if err != nil {
		return err
	}
	load := l.mn.Opcode == LDM || l.mn.Opcode == POP
	size := int64(4 * len(regs))
	b := l.read(base)

	var start, updated reil.Operand
	switch mode {
	case IA:
		start = l.Add(b, reil.Lit(0, dword), dword)
	case IB:
		start = l.Add(b, reil.Lit(4, dword), dword)
	case DA:
		start = l.Sub(b, reil.Lit(uint64(size-4), dword), dword)
	case DB:
		start = l.Sub(b, reil.Lit(uint64(size), dword), dword)
	}
	if writeback {
		if mode == IA || mode == IB {
			updated = l.Add(b, reil.Lit(uint64(size), dword), dword)
		} else {
			updated = l.Sub(b, reil.Lit(uint64(size), dword), dword)
		}
	}

	values := make([]reil.Operand, len(regs))
	for i, r := range regs {
		addr := start
		if i > 0 {
			addr = l.Add(start, reil.Lit(uint64(4*i), dword), dword)
		}
		if load {
			values[i] = l.Load(addr, dword)
		} else {
			l.Store(l.read(r), addr)
		}
	}

	a := addressOperand{base: base}
	if load {
		for _, r := range regs {
			if r == base {
				// the loaded value wins over writeback
				updated = reil.Empty
			}
		}
		l.finishTransfer(a, updated, regs, values)
		return nil
	}
	l.finishTransfer(a, updated, nil, nil)
	return nil
}

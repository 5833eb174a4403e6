package arm

import (
	"strings"

	"github.com/colorfulnotion/reil/reil"
)

// parallelOp describes a SIMD add/subtract over halfword or byte lanes.
type parallelOp struct {
	signed     bool
	saturating bool
	halving    bool
	kind       string // ADD, SUB, ASX or SAX
	width      int64
}

var parallelOps = map[Opcode]parallelOp{}

func init() {
	for op := SADD16; op <= UHSAX; op++ {
		name := op.String()
		var p parallelOp
		switch {
		case strings.HasPrefix(name, "UQ"):
			p.saturating, name = true, name[2:]
		case strings.HasPrefix(name, "UH"):
			p.halving, name = true, name[2:]
		case strings.HasPrefix(name, "SH"):
			p.signed, p.halving, name = true, true, name[2:]
		case strings.HasPrefix(name, "Q"):
			p.signed, p.saturating, name = true, true, name[1:]
		case strings.HasPrefix(name, "S"):
			p.signed, name = true, name[1:]
		case strings.HasPrefix(name, "U"):
			name = name[1:]
		}
		p.width = 16
		if strings.HasSuffix(name, "8") {
			p.width = 8
		}
		p.kind = strings.TrimRight(name, "0123456789")
		parallelOps[op] = p
	}
}

func (l *lifter) lane(x reil.Operand, index, width int64, signed bool) reil.Operand {
	v := l.bits(x, index*width, width, qword)
	if signed {
		return l.signExtend(v, width, qword)
	}
	return v
}

func translateParallel(l *lifter) error {
	p := parallelOps[l.mn.Opcode]
	rd, rn, rm, err := l.threeRegisters()
	if err != nil {
		return err
	}
	a, b := l.read(rn), l.read(rm)
	lanes := 32 / p.width

	var res reil.Operand = reil.Lit(0, dword)
	for i := int64(0); i < lanes; i++ {
		x := l.lane(a, i, p.width, p.signed)
		var y reil.Operand
		subtract := p.kind == "SUB"
		switch p.kind {
		case "ADD", "SUB":
			y = l.lane(b, i, p.width, p.signed)
		case "ASX":
			// low lane subtracts the top of Rm, high lane adds the bottom
			y = l.lane(b, 1-i, p.width, p.signed)
			subtract = i == 0
		case "SAX":
			y = l.lane(b, 1-i, p.width, p.signed)
			subtract = i == 1
		}
		var r reil.Operand
		if subtract {
			r = l.Sub(x, y, qword)
		} else {
			r = l.Add(x, y, qword)
		}
		switch {
		case p.halving:
			r = l.Bsh(r, -1, qword)
		case p.saturating && p.signed:
			r, _ = l.signedSaturate(r, p.width)
		case p.saturating:
			r, _ = l.unsignedSaturate(r, p.width)
		}
		r = l.And(r, reil.Lit(lowMask(p.width), dword), dword)
		if i > 0 {
			r = l.Bsh(r, i*p.width, dword)
		}
		res = l.Or(res, r, dword)
	}
	l.write(rd, res)
	return nil
}

// threeRegisters decodes "Rd, Rn, Rm" or "Rd, Rm" with Rn = Rd.
func (l *lifter) threeRegisters() (rd, rn, rm string, err error) {
	if err = l.arity(2, 3); err != nil {
		return
	}
	regs, err := l.regs(0, len(l.ops)-1)
	if err != nil {
		return
	}
	rd, rn, rm = regs[0], regs[0], regs[len(regs)-1]
	if len(regs) == 3 {
		rn = regs[1]
	}
	return
}

// translateSumOfDifferences lifts USAD8 and USADA8.
func translateSumOfDifferences(l *lifter) error {
	want := 3
	if l.mn.Opcode == USADA8 {
		want = 4
	}
	if err := l.arity(want); err != nil {
		return err
	}
	regs, err := l.regs(0, want-1)
	if err != nil {
		return err
	}
	a, b := l.read(regs[1]), l.read(regs[2])
	var sum reil.Operand = reil.Lit(0, qword)
	if want == 4 {
		sum = l.read(regs[3])
	}
	for i := int64(0); i < 4; i++ {
		d := l.Sub(l.lane(a, i, 8, false), l.lane(b, i, 8, false), qword)
		abs := l.choose(l.bit(d, 63), l.Sub(reil.Lit(0, qword), d, qword), d, qword)
		sum = l.Add(sum, abs, qword)
	}
	l.write(regs[0], l.low32(sum))
	return nil
}

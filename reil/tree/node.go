// Package tree holds the operand trees a disassembler hands to the lifter.
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xlab/treeprint"

	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reilerrors"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	Register Kind = iota + 1
	Immediate
	SizePrefix
	Operator
	MemDeref
	ExpressionList
)

var kindNames = map[Kind]string{
	Register:       "REGISTER",
	Immediate:      "IMMEDIATE_INTEGER",
	SizePrefix:     "SIZE_PREFIX",
	Operator:       "OPERATOR",
	MemDeref:       "MEMDEREF",
	ExpressionList: "EXPRESSION_LIST",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Operator symbols.
const (
	OpLSL       = "LSL"
	OpLSR       = "LSR"
	OpASR       = "ASR"
	OpROR       = "ROR"
	OpRRX       = "RRX"
	OpWriteback = "!"
	OpSeparator = ","
	OpNegate    = "-"
)

// Node is one node of an operand tree. Value holds the register name, the
// immediate literal text, the size name or the operator symbol.
type Node struct {
	Kind     Kind
	Value    string
	Children []*Node
}

func NewRegister(name string) *Node {
	return &Node{Kind: Register, Value: name}
}

func NewImmediate(v int64) *Node {
	return &Node{Kind: Immediate, Value: strconv.FormatInt(v, 10)}
}

// NewImmediateText keeps the literal as written, e.g. "0x1F" or "#-4".
func NewImmediateText(text string) *Node {
	return &Node{Kind: Immediate, Value: text}
}

func NewSize(size string, child *Node) *Node {
	return &Node{Kind: SizePrefix, Value: size, Children: []*Node{child}}
}

func NewOperator(op string, children ...*Node) *Node {
	return &Node{Kind: Operator, Value: op, Children: children}
}

func NewDeref(child *Node) *Node {
	return &Node{Kind: MemDeref, Value: "[", Children: []*Node{child}}
}

func NewList(children ...*Node) *Node {
	return &Node{Kind: ExpressionList, Value: "{", Children: children}
}

// Is reports whether n is an operator node with the given symbol.
func (n *Node) Is(op string) bool {
	return n != nil && n.Kind == Operator && n.Value == op
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Unwrap splits a root SizePrefix node into its width and its child.
func (n *Node) Unwrap() (reil.OperandSize, *Node, error) {
	if n == nil || n.Kind != SizePrefix || len(n.Children) != 1 {
		return reil.EMPTY, nil, errors.Wrapf(reilerrors.ErrLSizePrefix, "%s", n)
	}
	size, err := reil.ParseOperandSize(n.Value)
	if err != nil {
		return reil.EMPTY, nil, err
	}
	return size, n.Children[0], nil
}

// Int parses an immediate literal. "#", sign and 0x/0b/0o prefixes are accepted.
func (n *Node) Int() (int64, error) {
	if n == nil || n.Kind != Immediate {
		return 0, errors.Wrapf(reilerrors.ErrLImmediate, "%s is not an immediate", n)
	}
	text := strings.TrimPrefix(strings.TrimSpace(n.Value), "#")
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return v, nil
	}
	if u, err := strconv.ParseUint(text, 0, 64); err == nil {
		return int64(u), nil
	}
	return 0, errors.Wrapf(reilerrors.ErrLImmediate, "%q", n.Value)
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case Register:
		return n.Value
	case Immediate:
		if strings.HasPrefix(n.Value, "#") {
			return n.Value
		}
		return "#" + n.Value
	case SizePrefix:
		return n.Child(0).String()
	case MemDeref:
		return "[" + n.Child(0).String() + "]"
	case ExpressionList:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Operator:
		switch n.Value {
		case OpWriteback:
			return n.Child(0).String() + "!"
		case OpNegate:
			return "-" + n.Child(0).String()
		case OpSeparator:
			parts := make([]string, len(n.Children))
			for i, c := range n.Children {
				parts[i] = c.String()
			}
			return strings.Join(parts, ", ")
		case OpRRX:
			return n.Child(0).String() + " RRX"
		}
		if len(n.Children) == 2 {
			return fmt.Sprintf("%s %s %s", n.Children[0], n.Value, n.Children[1])
		}
	}
	return n.Value
}

func (n *Node) label() string {
	return fmt.Sprintf("%s %s", n.Kind, n.Value)
}

// Render draws the tree, one node per line.
func (n *Node) Render() string {
	t := treeprint.NewWithRoot(n.label())
	n.addChildren(t)
	return t.String()
}

func (n *Node) addChildren(t treeprint.Tree) {
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			t.AddNode(c.label())
			continue
		}
		c.addChildren(t.AddBranch(c.label()))
	}
}

// Instruction is a disassembled machine instruction.
type Instruction struct {
	Address  uint64
	Mnemonic string
	Operands []*Node
}

func (i *Instruction) String() string {
	parts := make([]string, len(i.Operands))
	for j, op := range i.Operands {
		parts[j] = op.String()
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%08X %s", i.Address, i.Mnemonic)
	}
	return fmt.Sprintf("%08X %s %s", i.Address, i.Mnemonic, strings.Join(parts, ", "))
}

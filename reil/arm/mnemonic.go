package arm

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reilerrors"
)

// MultiMode is the addressing mode of LDM and STM.
type MultiMode uint8

const (
	IA MultiMode = iota // increment after
	IB                  // increment before
	DA                  // decrement after
	DB                  // decrement before
)

func (m MultiMode) String() string {
	switch m {
	case IA:
		return "IA"
	case IB:
		return "IB"
	case DA:
		return "DA"
	case DB:
		return "DB"
	}
	return "??"
}

// Mnemonic is a parsed instruction mnemonic.
type Mnemonic struct {
	Opcode    Opcode
	Condition Condition
	SetFlags  bool
	Mode      MultiMode // LDM and STM only
	Variant   string    // operand half selectors such as "BT", "X" or "R"
	Thumb     bool
}

type mnemonicEntry struct {
	op      Opcode
	mode    MultiMode
	variant string
}

// mnemonics maps every accepted base spelling, without condition or "S",
// to its opcode.
var mnemonics = map[string]mnemonicEntry{}

func init() {
	for _, op := range Opcodes() {
		switch op {
		case SMULXY, SMLAXY, SMULWY, SMLAWY, SMLALXY, LDM, STM:
			continue
		}
		mnemonics[op.String()] = mnemonicEntry{op: op}
	}
	for _, x := range []string{"B", "T"} {
		for _, y := range []string{"B", "T"} {
			mnemonics["SMUL"+x+y] = mnemonicEntry{op: SMULXY, variant: x + y}
			mnemonics["SMLA"+x+y] = mnemonicEntry{op: SMLAXY, variant: x + y}
			mnemonics["SMLAL"+x+y] = mnemonicEntry{op: SMLALXY, variant: x + y}
		}
		mnemonics["SMULW"+x] = mnemonicEntry{op: SMULWY, variant: x}
		mnemonics["SMLAW"+x] = mnemonicEntry{op: SMLAWY, variant: x}
	}
	for _, op := range []Opcode{SMUAD, SMUSD, SMLAD, SMLSD, SMLALD, SMLSLD} {
		mnemonics[op.String()+"X"] = mnemonicEntry{op: op, variant: "X"}
	}
	for _, op := range []Opcode{SMMUL, SMMLA, SMMLS} {
		mnemonics[op.String()+"R"] = mnemonicEntry{op: op, variant: "R"}
	}

	loads := map[string]MultiMode{"IA": IA, "IB": IB, "DA": DA, "DB": DB, "FD": IA, "ED": IB, "FA": DA, "EA": DB}
	stores := map[string]MultiMode{"IA": IA, "IB": IB, "DA": DA, "DB": DB, "EA": IA, "FA": IB, "ED": DA, "FD": DB}
	mnemonics["LDM"] = mnemonicEntry{op: LDM, mode: IA}
	mnemonics["STM"] = mnemonicEntry{op: STM, mode: IA}
	for suffix, mode := range loads {
		mnemonics["LDM"+suffix] = mnemonicEntry{op: LDM, mode: mode}
	}
	for suffix, mode := range stores {
		mnemonics["STM"+suffix] = mnemonicEntry{op: STM, mode: mode}
	}

	// pre-UAL and Thumb spellings
	aliases := map[string]Opcode{
		"CPY":       MOV,
		"ADDW":      ADD,
		"SUBW":      SUB,
		"SADDSUBX":  SASX,
		"SSUBADDX":  SSAX,
		"QADDSUBX":  QASX,
		"QSUBADDX":  QSAX,
		"SHADDSUBX": SHASX,
		"SHSUBADDX": SHSAX,
		"UADDSUBX":  UASX,
		"USUBADDX":  USAX,
		"UQADDSUBX": UQASX,
		"UQSUBADDX": UQSAX,
		"UHADDSUBX": UHASX,
		"UHSUBADDX": UHSAX,
	}
	for name, op := range aliases {
		mnemonics[name] = mnemonicEntry{op: op}
	}
}

// ParseMnemonic splits a mnemonic into opcode, condition and suffixes. Both
// the UAL order ("ADDSEQ", "LDRBEQ") and the pre-UAL order ("ADDEQS",
// "LDREQB") are accepted, as are a leading "THUMB" marker, the ".W" and
// ".N" width qualifiers and dotted suffixes such as "ADD.S.EQ".
func ParseMnemonic(text string) (Mnemonic, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	var m Mnemonic
	if rest, ok := strings.CutPrefix(s, "THUMB"); ok && rest != "" {
		m.Thumb = true
		s = strings.TrimLeft(rest, " _.")
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, ".W"), ".N")
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return m, errors.Wrap(reilerrors.ErrLUnsupportedMnemonic, "empty mnemonic")
	}

	if m.resolve(s, AL) {
		return m, nil
	}
	// condition at the end first, then embedded conditions
	for _, c := range conditionSuffixes {
		if base, ok := strings.CutSuffix(s, c.name); ok && base != "" && m.resolve(base, c.cond) {
			return m, nil
		}
	}
	for _, c := range conditionSuffixes {
		for i := 1; i+len(c.name) < len(s); i++ {
			if s[i:i+len(c.name)] != c.name {
				continue
			}
			if m.resolve(s[:i]+s[i+len(c.name):], c.cond) {
				return m, nil
			}
		}
	}
	return Mnemonic{}, errors.Wrapf(reilerrors.ErrLUnsupportedMnemonic, "%q", text)
}

func (m *Mnemonic) resolve(base string, cond Condition) bool {
	if e, ok := mnemonics[base]; ok {
		m.set(e, cond, false)
		return true
	}
	if stem, ok := strings.CutSuffix(base, "S"); ok {
		if e, ok := mnemonics[stem]; ok && e.op.SetsFlags() {
			m.set(e, cond, true)
			return true
		}
	}
	return false
}

func (m *Mnemonic) set(e mnemonicEntry, cond Condition, s bool) {
	m.Opcode = e.op
	m.Mode = e.mode
	m.Variant = e.variant
	m.Condition = cond
	m.SetFlags = s
}

func (m Mnemonic) String() string {
	var sb strings.Builder
	if m.Thumb {
		sb.WriteString("THUMB ")
	}
	switch m.Opcode {
	case LDM, STM:
		sb.WriteString(m.Opcode.String() + m.Mode.String())
	case SMULXY, SMLAXY, SMLALXY:
		sb.WriteString(strings.TrimSuffix(m.Opcode.String(), "xy") + m.Variant)
	case SMULWY, SMLAWY:
		sb.WriteString(strings.TrimSuffix(m.Opcode.String(), "y") + m.Variant)
	default:
		sb.WriteString(m.Opcode.String() + m.Variant)
	}
	if m.SetFlags {
		sb.WriteString("S")
	}
	if m.Condition != AL {
		sb.WriteString(m.Condition.String())
	}
	return sb.String()
}

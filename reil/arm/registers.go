package arm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reilerrors"
)

var registerAliases = map[string]string{
	"SB":  "R9",
	"SL":  "R10",
	"FP":  "R11",
	"IP":  "R12",
	"R13": "SP",
	"R14": "LR",
	"R15": "PC",
	"SP":  "SP",
	"LR":  "LR",
	"PC":  "PC",
}

// NormalizeRegister maps an ARM register spelling to the name the
// interpreter policy uses: R0..R12, SP, LR or PC.
func NormalizeRegister(name string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := registerAliases[s]; ok {
		return alias, nil
	}
	if n, ok := registerNumber(s); ok && n <= 12 {
		return s, nil
	}
	return "", errors.Wrapf(reilerrors.ErrLRegister, "%q", name)
}

// RegisterIndex returns the architectural number of a normalized register.
func RegisterIndex(name string) int {
	switch name {
	case "SP":
		return 13
	case "LR":
		return 14
	case "PC":
		return 15
	}
	n, _ := registerNumber(name)
	return n
}

func registerNumber(s string) (int, bool) {
	digits, ok := strings.CutPrefix(s, "R")
	if !ok || digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > 15 {
		return 0, false
	}
	return n, true
}

// registerName is the inverse of RegisterIndex.
func registerName(i int) string {
	switch i {
	case 13:
		return "SP"
	case 14:
		return "LR"
	case 15:
		return "PC"
	}
	return "R" + strconv.Itoa(i)
}

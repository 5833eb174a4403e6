package reilerrors

import (
	"strings"

	"github.com/pkg/errors"
)

// Lifting (L) Errors
var (
	ErrLUnsupportedMnemonic = errors.New("L1|UnsupportedMnemonic: Mnemonic has no translator.")
	ErrLOperandCount        = errors.New("L2|OperandCount: Instruction has the wrong number of operands.")
	ErrLOperandShape        = errors.New("L3|OperandShape: Operand tree does not match any recognized shape.")
	ErrLShiftKind           = errors.New("L4|ShiftKind: Shift kind is not supported in this position.")
	ErrLImmediate           = errors.New("L5|Immediate: Immediate literal cannot be parsed.")
	ErrLRegister            = errors.New("L6|Register: Register name is not an ARM register.")
	ErrLSizePrefix          = errors.New("L7|SizePrefix: Operand is missing a valid size prefix.")
	ErrLRegisterList        = errors.New("L8|RegisterList: Register list is empty or malformed.")
	ErrLSubAddressOverflow  = errors.New("L9|SubAddressOverflow: Lifted instruction exceeds 256 REIL instructions.")
	ErrLUnsupportedVariant  = errors.New("L10|UnsupportedVariant: Suffix is not valid for this opcode.")
	ErrLDecode              = errors.New("L11|Decode: Bytes do not decode to a supported ARM instruction.")
)

// Interpreter (I) Errors
var (
	ErrIUnknownOpcode        = errors.New("I1|UnknownOpcode: REIL instruction has an unknown opcode.")
	ErrIWidthMismatch        = errors.New("I2|WidthMismatch: Operand width differs from the native register width.")
	ErrIUnknownRegister      = errors.New("I3|UnknownRegister: Register is neither native nor a temporary.")
	ErrIUndefinedTemporary   = errors.New("I4|UndefinedTemporary: Temporary is read before it is assigned.")
	ErrIDivisionByZero       = errors.New("I5|DivisionByZero: DIV or MOD with a zero divisor.")
	ErrIInstructionNotFound  = errors.New("I6|InstructionNotFound: No REIL code at the entry address.")
	ErrIMalformedInstruction = errors.New("I7|MalformedInstruction: REIL operand kind is invalid for its position.")
	ErrIStepLimit            = errors.New("I8|StepLimit: Execution exceeded the step limit.")
)

// GetErrorName extracts the error name from the root cause of err.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := errors.Cause(err).Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the root cause of err.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := errors.Cause(err).Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the root cause of err.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(errors.Cause(err).Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

// IsTranslationError reports whether err was raised while lifting.
func IsTranslationError(err error) bool {
	return strings.HasPrefix(GetErrorCode(err), "L")
}

// IsInterpreterError reports whether err was raised while interpreting.
func IsInterpreterError(err error) bool {
	return strings.HasPrefix(GetErrorCode(err), "I")
}

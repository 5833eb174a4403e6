package main

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/colorfulnotion/reil/reil/interpreter"
	"github.com/colorfulnotion/reil/reilerrors"
)

// stateFile seeds the interpreter. Values are numeric strings ("0x10", "16");
// each memory entry is a 32-bit word.
type stateFile struct {
	Registers map[string]string `json:"registers"`
	Memory    map[string]string `json:"memory"`
}

func readState(path string) (*stateFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read state")
	}
	var s stateFile
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "parse state %s", path)
	}
	return &s, nil
}

func (s *stateFile) apply(in *interpreter.Interpreter) error {
	for name, text := range s.Registers {
		size, ok := in.Policy().RegisterSize(name)
		if !ok {
			return errors.Wrapf(reilerrors.ErrIUnknownRegister, "state register %s", name)
		}
		v, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return errors.Wrapf(err, "state register %s", name)
		}
		if err := in.SetRegister(name, v, size, true); err != nil {
			return err
		}
	}
	for addr, text := range s.Memory {
		a, err := strconv.ParseUint(addr, 0, 32)
		if err != nil {
			return errors.Wrapf(err, "state address %s", addr)
		}
		v, err := strconv.ParseUint(text, 0, 32)
		if err != nil {
			return errors.Wrapf(err, "state word at %s", addr)
		}
		in.SetMemory(a, v, 4)
	}
	return nil
}

func formatSnapshot(s interpreter.Snapshot) (string, error) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// diffSnapshots renders the changes from before to after, or "" when the
// state did not change.
func diffSnapshots(before, after interpreter.Snapshot) (string, error) {
	left, err := json.Marshal(before)
	if err != nil {
		return "", err
	}
	right, err := json.Marshal(after)
	if err != nil {
		return "", err
	}
	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return "", errors.Wrap(err, "diff snapshots")
	}
	if !delta.Modified() {
		return "", nil
	}
	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return "", err
	}
	cfg := formatter.AsciiFormatterConfig{ShowArrayIndex: true}
	return formatter.NewAsciiFormatter(leftObj, cfg).Format(delta)
}

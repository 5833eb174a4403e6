package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dop251/goja"
	"github.com/pkg/errors"

	log "github.com/colorfulnotion/reil/log"
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/arm"
	"github.com/colorfulnotion/reil/reil/disasm"
	"github.com/colorfulnotion/reil/reil/interpreter"
	"github.com/colorfulnotion/reil/reilerrors"
)

// console is a JavaScript shell around one interpreter. Instructions are
// given as 32-bit words in hex and executed at the current address.
type console struct {
	vm   *goja.Runtime
	in   *interpreter.Interpreter
	tr   *arm.Translator
	env  *reil.Environment
	addr uint64
	out  io.Writer
}

func newConsole(opts options, out io.Writer) *console {
	c := &console{
		vm:   goja.New(),
		in:   interpreter.NewARM(endianness(opts.bigEndian)),
		tr:   arm.NewTranslator(),
		env:  reil.NewEnvironment(),
		addr: opts.address,
		out:  out,
	}
	c.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	c.vm.Set("lift", c.lift)
	c.vm.Set("step", c.step)
	c.vm.Set("reg", c.reg)
	c.vm.Set("setReg", c.setReg)
	c.vm.Set("peek", c.peek)
	c.vm.Set("poke", c.poke)
	c.vm.Set("pc", func() uint64 { return c.addr })
	c.vm.Set("jump", func(addr int64) { c.addr = uint64(addr) & 0xFFFFFFFF })
	c.vm.Set("state", func() goja.Value { return c.vm.ToValue(c.in.Snapshot()) })
	c.vm.Set("print", func(args ...goja.Value) {
		for _, arg := range args {
			fmt.Fprintln(c.out, arg.Export())
		}
	})
	return c
}

func (c *console) throw(err error) {
	panic(c.vm.NewGoError(err))
}

func (c *console) decodeWord(text string) (reil.Program, uint64) {
	w, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(text), "0x"), 16, 32)
	if err != nil {
		c.throw(errors.Wrapf(reilerrors.ErrLDecode, "word %q", text))
	}
	code := make([]byte, 4)
	binary.LittleEndian.PutUint32(code, uint32(w))
	inst, err := disasm.Decode(code, c.addr)
	if err != nil {
		c.throw(err)
	}
	prog, err := c.tr.Translate(c.env, inst, nil)
	if err != nil {
		c.throw(err)
	}
	return prog, c.addr
}

// lift returns the REIL listing of word without executing it.
func (c *console) lift(word string) string {
	prog, _ := c.decodeWord(word)
	return strings.TrimRight(prog.String(), "\n")
}

// step executes word at the current address and moves to the next one.
func (c *console) step(word string) string {
	prog, at := c.decodeWord(word)
	if err := c.in.Interpret(prog, at); err != nil {
		c.throw(err)
	}
	if c.in.Jumped() {
		c.addr = c.in.RegisterValue("PC")
	} else {
		c.addr = at + 4
	}
	log.Debug(log.CliMonitoring, "step", "at", fmt.Sprintf("%08X", at), "next", fmt.Sprintf("%08X", c.addr))
	return strings.TrimRight(prog.String(), "\n")
}

func (c *console) reg(name string) goja.Value {
	name = strings.ToUpper(name)
	if !c.in.IsDefined(name) {
		return goja.Undefined()
	}
	return c.vm.ToValue(c.in.RegisterValue(name))
}

func (c *console) setReg(name string, value int64) {
	name = strings.ToUpper(name)
	size, ok := c.in.Policy().RegisterSize(name)
	if !ok {
		c.throw(errors.Wrapf(reilerrors.ErrIUnknownRegister, "%s", name))
	}
	if err := c.in.SetRegister(name, uint64(value), size, true); err != nil {
		c.throw(err)
	}
}

func (c *console) peek(addr int64) goja.Value {
	v, ok := c.in.ReadMemory(uint64(addr), 4)
	if !ok {
		return goja.Undefined()
	}
	return c.vm.ToValue(v)
}

func (c *console) poke(addr, word int64) {
	c.in.SetMemory(uint64(addr), uint64(word)&0xFFFFFFFF, 4)
}

// eval runs one line of JavaScript and formats its result.
func (c *console) eval(line string) (string, error) {
	v, err := c.vm.RunString(line)
	if err != nil {
		return "", err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	if n, ok := v.Export().(int64); ok {
		return fmt.Sprintf("%#x", n), nil
	}
	return v.String(), nil
}

func (c *console) run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "reil> ",
		HistoryFile: filepath.Join(os.TempDir(), "reil_console_history.txt"),
	})
	if err != nil {
		return errors.Wrap(err, "start readline")
	}
	defer rl.Close()

	fmt.Fprintln(c.out, "step(\"e0821000\") executes a word, reg(\"r1\"), setReg, peek, poke, state(), jump(addr). Type 'exit' to quit.")
	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}
		result, err := c.eval(line)
		if err != nil {
			fmt.Fprintln(c.out, "error:", err)
			continue
		}
		if result != "" {
			fmt.Fprintln(c.out, result)
		}
	}
}

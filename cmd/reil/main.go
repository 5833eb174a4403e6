// reil lifts ARM machine code to REIL and interprets the result.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	log "github.com/colorfulnotion/reil/log"
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reil/arm"
	"github.com/colorfulnotion/reil/reil/disasm"
	"github.com/colorfulnotion/reil/reil/interpreter"
	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

var (
	Version = "dev"
	Commit  = "none"
)

type options struct {
	logLevel  string
	trace     bool
	address   uint64
	bigEndian bool
	showTree  bool
	stateFile string
	limit     int
}

func main() {
	var opts options

	var rootCmd = &cobra.Command{
		Use:     "reil",
		Short:   "ARM to REIL lifter and interpreter",
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitLogger(opts.logLevel)
			if opts.trace {
				log.EnableModule(log.LiftMonitoring)
				log.EnableModule(log.InterpMonitoring)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	rootCmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "Log every lifted and executed REIL instruction")

	var liftCmd = &cobra.Command{
		Use:   "lift <hex>...",
		Short: "Decode ARM machine code and print the lifted REIL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insts, prog, err := load(opts, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, inst := range insts {
				fmt.Fprintln(out, inst)
				if opts.showTree {
					for _, op := range inst.Operands {
						fmt.Fprint(out, op.Render())
					}
				}
				for _, r := range prog.At(inst.Address) {
					fmt.Fprintf(out, "  %s\n", r)
				}
			}
			return nil
		},
	}
	codeFlags(liftCmd, &opts)
	liftCmd.Flags().BoolVar(&opts.showTree, "tree", false, "Print the operand trees")

	var runCmd = &cobra.Command{
		Use:   "run <hex>...",
		Short: "Lift ARM machine code, interpret it and print the final state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, prog, err := load(opts, args)
			if err != nil {
				return err
			}
			in := interpreter.NewARM(endianness(opts.bigEndian))
			if opts.stateFile != "" {
				seed, err := readState(opts.stateFile)
				if err != nil {
					return err
				}
				if err := seed.apply(in); err != nil {
					return err
				}
			}
			before := in.Snapshot()
			if err := in.Run(prog, opts.address, opts.limit); err != nil {
				log.Error(log.CliMonitoring, "run failed", "err", err, "code", reilerrors.GetErrorCode(err))
				return err
			}
			after := in.Snapshot()

			out := cmd.OutOrStdout()
			final, err := formatSnapshot(after)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, final)
			diff, err := diffSnapshots(before, after)
			if err != nil {
				return err
			}
			if diff != "" {
				fmt.Fprintln(out, diff)
			}
			return nil
		},
	}
	codeFlags(runCmd, &opts)
	runCmd.Flags().StringVar(&opts.stateFile, "state", "", "JSON file with initial registers and memory words")
	runCmd.Flags().IntVar(&opts.limit, "steps", 1000, "Maximum number of native instructions to execute")

	var opcodesCmd = &cobra.Command{
		Use:   "opcodes",
		Short: "List the supported ARM opcodes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, op := range arm.Opcodes() {
				suffix := ""
				if op.SetsFlags() {
					suffix = " {S}"
				}
				fmt.Fprintf(out, "%s%s\n", op, suffix)
			}
		},
	}

	var consoleCmd = &cobra.Command{
		Use:   "console",
		Short: "Interactive JavaScript console that steps ARM words through the interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newConsole(opts, cmd.OutOrStdout())
			if opts.stateFile != "" {
				seed, err := readState(opts.stateFile)
				if err != nil {
					return err
				}
				if err := seed.apply(c.in); err != nil {
					return err
				}
			}
			return c.run()
		},
	}
	codeFlags(consoleCmd, &opts)
	consoleCmd.Flags().StringVar(&opts.stateFile, "state", "", "JSON file with initial registers and memory words")

	rootCmd.AddCommand(liftCmd, runCmd, opcodesCmd, consoleCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// codeFlags registers the code placement flags. The decoder only reads ARM
// encodings, so there is no Thumb switch here.
func codeFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().Uint64Var(&opts.address, "addr", 0x1000, "Address of the first instruction")
	cmd.Flags().BoolVar(&opts.bigEndian, "big-endian", false, "Code and memory are big-endian")
}

func endianness(big bool) interpreter.Endianness {
	if big {
		return interpreter.BigEndian
	}
	return interpreter.LittleEndian
}

// parseCode joins the arguments and decodes them as hex bytes in memory order.
func parseCode(args []string) ([]byte, error) {
	text := strings.Join(args, "")
	text = strings.NewReplacer(" ", "", "_", "", "0x", "", "0X", "").Replace(text)
	code, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrapf(reilerrors.ErrLDecode, "hex input: %v", err)
	}
	return code, nil
}

func load(opts options, args []string) ([]*tree.Instruction, reil.Program, error) {
	code, err := parseCode(args)
	if err != nil {
		return nil, nil, err
	}
	insts, err := disasm.DecodeAll(code, opts.address, opts.bigEndian)
	if err != nil {
		return nil, nil, err
	}
	prog, err := arm.NewTranslator().TranslateAll(reil.NewEnvironment(), insts)
	if err != nil {
		return nil, nil, err
	}
	log.Debug(log.CliMonitoring, "lifted", "instructions", len(insts), "reil", len(prog))
	return insts, prog, nil
}

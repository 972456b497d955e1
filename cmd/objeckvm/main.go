// Command objeckvm is the thin CLI entry point spec.md §1 calls out as
// "command-line entry ... beyond the concurrency contract described in §5":
// out of scope in detail, but the wiring that turns a loaded program.Program
// into a running vm.Engine has to live somewhere. Bytecode file parsing and
// class loading are themselves out of scope (spec.md §1), so this binary's
// "demo" command builds its program image from one of a few built-in
// demonstration methods instead of reading a file format this module does
// not define — the same role cmd/wazero's own "run"/"compile" subcommands
// play for a wasm.Module that command's caller already parsed.
//
// Grounded on cmd/wazero/wazero.go's doMain(stdOut, stdErr) shape: flag
// parsing is factored out of main so it is unit-testable without touching
// os.Stdout/os.Exit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/vm"
)

const version = "0.1.0"

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated from main for the purpose of unit testing, mirroring
// cmd/wazero's doMain.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")
	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	switch flag.Arg(0) {
	case "version":
		fmt.Fprintln(stdOut, version)
		return 0
	case "demo":
		return doDemo(flag.Args()[1:], stdOut, stdErr)
	default:
		fmt.Fprintf(stdErr, "invalid command %q\n", flag.Arg(0))
		printUsage(stdErr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "objeckvm [-h] <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version         Prints the version.")
	fmt.Fprintln(w, "  demo <name> <n> Runs a built-in demonstration method (fib, divzero) against n.")
}

// doDemo runs one of the built-in demonstration methods against an engine
// built fresh for this invocation. These methods exist so this executable
// has something to run without a real class-loading front end (out of
// scope, spec.md §1); the "fib" demo is spec.md §8 scenario 1 verbatim.
func doDemo(args []string, stdOut, stdErr io.Writer) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stdErr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stdErr, "usage: objeckvm demo <name> <n>")
		return 1
	}

	name := fs.Arg(0)
	var n int64
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &n); err != nil {
		fmt.Fprintf(stdErr, "invalid argument %q: %v\n", fs.Arg(1), err)
		return 1
	}

	prog, classID, methodID, err := demoProgram(name)
	if err != nil {
		printFatal(stdErr, err)
		return 1
	}

	alloc := memory.NewHeap(map[int32]memory.ClassInfo{0: {ParentID: -1}})
	engine := vm.New(prog, alloc)
	result, err := engine.Invoke(classID, methodID, 0, []uint64{uint64(n)})
	if err != nil {
		printFatal(stdErr, err)
		return 1
	}
	if len(result) == 0 {
		fmt.Fprintln(stdOut, "<no result>")
		return 0
	}
	fmt.Fprintln(stdOut, int64(result[0]))
	return 0
}

// printFatal reports a fatal error from a VM invocation. A *diag.Fault
// carries one frame per active call at the point of the fault (spec.md
// §4.2/§7); Trace formats those, which plain Error() text does not.
// Non-Fault errors (argument parsing, unknown demo name) are printed as-is.
func printFatal(stdErr io.Writer, err error) {
	var fault *diag.Fault
	if errors.As(err, &fault) {
		fmt.Fprint(stdErr, fault.Trace())
		return
	}
	fmt.Fprintln(stdErr, err)
}

package main

import (
	"bytes"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runMain mirrors cmd/wazero's own test helper: doMain reads the package
// flag.CommandLine, so each call needs a fresh FlagSet or the second test
// in the same run panics on "flag redefined: h".
func runMain(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"objeckvm"}, args...)

	var out, errOut bytes.Buffer
	code := doMain(&out, &errOut)
	return code, out.String(), errOut.String()
}

func TestDoMainNoArgsPrintsUsage(t *testing.T) {
	code, _, errOut := runMain(t, nil)
	require.Equal(t, 0, code)
	require.Contains(t, errOut, "objeckvm [-h] <command>")
}

func TestDoMainVersion(t *testing.T) {
	code, out, _ := runMain(t, []string{"version"})
	require.Equal(t, 0, code)
	require.Equal(t, version, strings.TrimSpace(out))
}

func TestDoMainUnknownCommandFails(t *testing.T) {
	code, _, errOut := runMain(t, []string{"bogus"})
	require.Equal(t, 1, code)
	require.Contains(t, errOut, `invalid command "bogus"`)
}

func TestDoMainDemoDelegatesToFib(t *testing.T) {
	code, out, errOut := runMain(t, []string{"demo", "fib", "10"})
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "55", strings.TrimSpace(out))
}

func TestDoDemoFibComputesCorrectResult(t *testing.T) {
	var out, errOut bytes.Buffer
	code := doDemo([]string{"fib", "10"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Equal(t, "55", strings.TrimSpace(out.String()))
}

func TestDoDemoFibBaseCase(t *testing.T) {
	var out, errOut bytes.Buffer
	code := doDemo([]string{"fib", "0"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Equal(t, "0", strings.TrimSpace(out.String()))
}

func TestDoDemoUnknownNameFails(t *testing.T) {
	var out, errOut bytes.Buffer
	code := doDemo([]string{"nope", "1"}, &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), `unknown demo`)
}

func TestDoDemoMissingArgsFails(t *testing.T) {
	var out, errOut bytes.Buffer
	code := doDemo([]string{"fib"}, &out, &errOut)
	require.Equal(t, 1, code)
}

func TestDoDemoInvalidNFails(t *testing.T) {
	var out, errOut bytes.Buffer
	code := doDemo([]string{"fib", "not-a-number"}, &out, &errOut)
	require.Equal(t, 1, code)
}

// TestDoDemoDivZeroPrintsFaultTrace exercises the fatal-error reporting path:
// a *diag.Fault returned from engine.Invoke must be reported via Trace (one
// line per active frame), not just its bare Error() text.
func TestDoDemoDivZeroPrintsFaultTrace(t *testing.T) {
	var out, errOut bytes.Buffer
	code := doDemo([]string{"divzero", "1"}, &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "Uncaught runtime error")
	require.Contains(t, errOut.String(), "at Demo.divzero")
}

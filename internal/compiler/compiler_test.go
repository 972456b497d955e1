package compiler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/compiler"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/dispatch"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/frame"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/interpreter"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/pagemanager"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

func testThread() *interpreter.Thread {
	prog := &program.Program{Classes: []*program.Class{{ID: 0, ParentID: -1}}}
	alloc := memory.NewHeap(map[int32]memory.ClassInfo{0: {ParentID: -1}})
	return interpreter.NewThread(1, prog, alloc, trap.NewTable(), dispatch.New(), frame.NewPool(1), interpreter.NoDebugger{})
}

// TestCompileSimpleIntArithmeticInvokesNativeCode verifies that the bounded
// JIT subset (literal/local load-store, int arithmetic, terminal return)
// produces machine code that actually computes the right answer, not just
// code that assembles without error.
func TestCompileSimpleIntArithmeticInvokesNativeCode(t *testing.T) {
	method := &program.Method{
		Name: "addTwoAndThree", NumLocals: 0, ReturnKind: program.ReturnInt,
		Instrs: []program.Instr{
			{Op: program.OpLoadIntLit, Operand: 2},
			{Op: program.OpLoadIntLit, Operand: 3},
			{Op: program.OpAdd},
			{Op: program.OpReturn},
		},
	}

	cm, err := compiler.Compile(method, pagemanager.NewManager())
	require.NoError(t, err)
	require.NotNil(t, cm)

	result, err := cm.Invoke(testThread(), 0, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(5), result)
}

// TestCompileLocalLoadStoreRoundTrips verifies a local is stored then
// reloaded correctly across the compiled method's spill/register bookkeeping.
func TestCompileLocalLoadStoreRoundTrips(t *testing.T) {
	method := &program.Method{
		Name: "doubleLocal", NumLocals: 1, ReturnKind: program.ReturnInt,
		Instrs: []program.Instr{
			{Op: program.OpLoadLocal, Operand: 1},
			{Op: program.OpLoadLocal, Operand: 1},
			{Op: program.OpAdd},
			{Op: program.OpStoreLocal, Operand: 1},
			{Op: program.OpLoadLocal, Operand: 1},
			{Op: program.OpReturn},
		},
	}

	cm, err := compiler.Compile(method, pagemanager.NewManager())
	require.NoError(t, err)

	result, err := cm.Invoke(testThread(), 0, []uint64{21})
	require.NoError(t, err)
	require.Equal(t, uint64(42), result)
}

func TestCompileRejectsUnsupportedOpcode(t *testing.T) {
	method := &program.Method{
		ReturnKind: program.ReturnInt,
		Instrs: []program.Instr{
			{Op: program.OpLoadIntLit, Operand: 4},
			{Op: program.OpLoadIntLit, Operand: 2},
			{Op: program.OpDiv}, // division is interpreter-only in this subset
			{Op: program.OpReturn},
		},
	}
	_, err := compiler.Compile(method, pagemanager.NewManager())
	require.True(t, errors.Is(err, compiler.ErrUnsupported))
}

func TestCompileRejectsMethodNotEndingInReturn(t *testing.T) {
	method := &program.Method{
		ReturnKind: program.ReturnInt,
		Instrs:     []program.Instr{{Op: program.OpLoadIntLit, Operand: 1}},
	}
	_, err := compiler.Compile(method, pagemanager.NewManager())
	require.True(t, errors.Is(err, compiler.ErrUnsupported))
}

func TestCompileRejectsEmptyMethod(t *testing.T) {
	_, err := compiler.Compile(&program.Method{}, pagemanager.NewManager())
	require.True(t, errors.Is(err, compiler.ErrUnsupported))
}

func TestCompileRejectsFunctionReturn(t *testing.T) {
	method := &program.Method{
		ReturnKind: program.ReturnFunc,
		Instrs:     []program.Instr{{Op: program.OpReturn}},
	}
	_, err := compiler.Compile(method, pagemanager.NewManager())
	require.True(t, errors.Is(err, compiler.ErrUnsupported))
}

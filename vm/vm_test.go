package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/vm"
)

// fibProgram mirrors the hand-assembled recursive Fibonacci method used
// elsewhere to exercise the execution core end to end (if n<2 return n;
// else return fib(n-1)+fib(n-2)). Its OpJmp/OpMethodCall control flow falls
// outside the bounded JIT subset, so it also doubles as a JIT-fallback
// fixture: the engine must still produce the right answer when compilation
// for this method fails and every call interprets instead.
func fibProgram() *program.Program {
	const labelElse, labelEnd = 0, 1
	instrs := []program.Instr{
		{Op: program.OpLoadLocal, Operand: 1},
		{Op: program.OpLoadIntLit, Operand: 2},
		{Op: program.OpLess, Operand2: 0},
		{Op: program.OpJmp, Operand: labelElse, Operand2: 0, Operand3: -1},

		{Op: program.OpLoadLocal, Operand: 1},
		{Op: program.OpJmp, Operand: labelEnd, Operand2: program.JumpUnconditional, Operand3: -1},

		{Op: program.OpLoadLocal, Operand: 1},
		{Op: program.OpLoadIntLit, Operand: 1},
		{Op: program.OpSub, Operand2: 0},
		{Op: program.OpLoadIntLit, Operand: 0},
		{Op: program.OpMethodCall, Operand: 1, Operand2: 0, Operand3: 0},

		{Op: program.OpLoadLocal, Operand: 1},
		{Op: program.OpLoadIntLit, Operand: 2},
		{Op: program.OpSub, Operand2: 0},
		{Op: program.OpLoadIntLit, Operand: 0},
		{Op: program.OpMethodCall, Operand: 1, Operand2: 0, Operand3: 0},

		{Op: program.OpAdd, Operand2: 0},
		{Op: program.OpReturn},
	}
	method := &program.Method{
		ID: 0, ClassID: 0, Name: "fib", Signature: "fib:i:i",
		NumLocals: 1, Instrs: instrs, ReturnKind: program.ReturnInt,
		Labels: []program.Label{{Name: "else", Index: 6}, {Name: "end", Index: 17}},
	}
	class := &program.Class{ID: 0, Name: "Demo", ParentID: -1, Methods: []*program.Method{method}}
	return &program.Program{Classes: []*program.Class{class}}
}

func testHeap() memory.Allocator {
	return memory.NewHeap(map[int32]memory.ClassInfo{0: {ParentID: -1}})
}

func TestInvokeInterpretedFib(t *testing.T) {
	prog := fibProgram()
	e := vm.New(prog, testHeap(), vm.WithoutJIT())

	result, err := e.Invoke(0, 0, 0, []uint64{10})
	require.NoError(t, err)
	require.Equal(t, []uint64{55}, result)
}

// TestInvokeFallsBackWhenMethodIsNotJITable verifies spec.md §4.5/§7's
// non-fatal JIT-compilation-failure contract: fib's control flow is outside
// the bounded compiler subset, so the engine must silently keep interpreting
// it and still return the right answer.
func TestInvokeFallsBackWhenMethodIsNotJITable(t *testing.T) {
	prog := fibProgram()
	e := vm.New(prog, testHeap()) // JIT enabled by default

	result, err := e.Invoke(0, 0, 0, []uint64{10})
	require.NoError(t, err)
	require.Equal(t, []uint64{55}, result)
	require.Nil(t, prog.Classes[0].Methods[0].NativeCode, "fib uses opcodes outside the JIT subset")
}

func TestCallMethodByNameResolvesAndInvokes(t *testing.T) {
	method := &program.Method{
		ID: 0, ClassID: 0, Name: "answer", Signature: "answer::i",
		ReturnKind: program.ReturnInt,
		Instrs:     []program.Instr{{Op: program.OpLoadIntLit, Operand: 42}, {Op: program.OpReturn}},
	}
	class := &program.Class{ID: 0, Name: "Demo", ParentID: -1, Methods: []*program.Method{method}}
	prog := &program.Program{Classes: []*program.Class{class}}

	e := vm.New(prog, testHeap(), vm.WithoutJIT())
	result, err := e.CallMethodByName("Demo", "answer", 0, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, result)
}

func TestCallMethodByNameUnknownMethodErrors(t *testing.T) {
	prog := &program.Program{Classes: []*program.Class{{ID: 0, Name: "Demo", ParentID: -1}}}
	e := vm.New(prog, testHeap(), vm.WithoutJIT())

	_, err := e.CallMethodByName("Demo", "missing", 0, nil)
	require.Error(t, err)
}

func TestHaltAllIsSafeWithNoActiveThreads(t *testing.T) {
	vm.HaltAll()
}

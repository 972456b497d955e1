package main

import (
	"fmt"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

// demoProgram builds one of this binary's built-in single-method programs,
// returning the image plus the class/method id to invoke. "fib" is the
// recursive Fibonacci method from spec.md §8 scenario 1 ("bytecode
// implementing fib(10) returns 55").
func demoProgram(name string) (*program.Program, int32, int32, error) {
	switch name {
	case "fib":
		return fibProgram(), 0, 0, nil
	case "divzero":
		return divZeroProgram(), 0, 0, nil
	default:
		return nil, 0, 0, fmt.Errorf("unknown demo %q (have: fib, divzero)", name)
	}
}

// fibProgram builds:
//
//	fib(n):
//	  if n < 2 { return n }
//	  return fib(n-1) + fib(n-2)
//
// one class, one static (non-virtual) method, by hand-assembling
// program.Instr values directly — this module's loader is out of scope
// (spec.md §1), so there is no bytecode text format to assemble from.
func fibProgram() *program.Program {
	const (
		argReceiver = 0 // dummy: fib is non-virtual, so the callee is
		// resolved directly from (classID, methodID) and never reads
		// the receiver; it still has to be popped per the MTHD_CALL
		// calling convention (spec.md §4.2), so each call site pushes
		// a literal 0 for it.
		labelElse = 0
		labelEnd  = 1
	)

	instrs := []program.Instr{
		{Op: program.OpLoadLocal, Operand: 1}, // 0: push n
		{Op: program.OpLoadIntLit, Operand: 2}, // 1: push 2
		{Op: program.OpLess, Operand2: 0},      // 2: push n < 2
		{Op: program.OpJmp, Operand: labelElse, Operand2: 0, Operand3: -1}, // 3: jump to else if false

		{Op: program.OpLoadLocal, Operand: 1},                           // 4: base case: push n
		{Op: program.OpJmp, Operand: labelEnd, Operand2: program.JumpUnconditional, Operand3: -1}, // 5

		{Op: program.OpLoadLocal, Operand: 1},  // 6: else: push n
		{Op: program.OpLoadIntLit, Operand: 1}, // 7: push 1
		{Op: program.OpSub, Operand2: 0},       // 8: push n-1
		{Op: program.OpLoadIntLit, Operand: argReceiver}, // 9: push dummy receiver
		{Op: program.OpMethodCall, Operand: 1, Operand2: 0, Operand3: 0}, // 10: fib(n-1)

		{Op: program.OpLoadLocal, Operand: 1},  // 11: push n
		{Op: program.OpLoadIntLit, Operand: 2}, // 12: push 2
		{Op: program.OpSub, Operand2: 0},       // 13: push n-2
		{Op: program.OpLoadIntLit, Operand: argReceiver}, // 14: push dummy receiver
		{Op: program.OpMethodCall, Operand: 1, Operand2: 0, Operand3: 0}, // 15: fib(n-2)

		{Op: program.OpAdd, Operand2: 0}, // 16: fib(n-1) + fib(n-2)
		{Op: program.OpReturn},           // 17: end:
	}

	method := &program.Method{
		ID:         0,
		ClassID:    0,
		Name:       "fib",
		Signature:  "fib:i:i",
		IsVirtual:  false,
		NumLocals:  1,
		Instrs:     instrs,
		ReturnKind: program.ReturnInt,
		Labels: []program.Label{
			{Name: "else", Index: 6},
			{Name: "end", Index: 17},
		},
	}

	class := &program.Class{
		ID:       0,
		Name:     "Demo",
		ParentID: -1,
		Methods:  []*program.Method{method},
	}

	return &program.Program{Classes: []*program.Class{class}}
}

// divZeroProgram builds a one-instruction method that divides its argument
// by zero, so this binary has a built-in way to exercise the fatal-fault
// reporting path (diag.Fault.Trace, spec.md §4.2/§7) end to end.
func divZeroProgram() *program.Program {
	method := &program.Method{
		ID:        0,
		ClassID:   0,
		Name:      "divzero",
		Signature: "divzero:i:i",
		IsVirtual: false,
		NumLocals: 1,
		Instrs: []program.Instr{
			{Op: program.OpLoadLocal, Operand: 1},  // push n
			{Op: program.OpLoadIntLit, Operand: 0}, // push 0
			{Op: program.OpDiv, Operand2: 0},       // n / 0: faults
			{Op: program.OpReturn},
		},
		ReturnKind: program.ReturnInt,
	}

	class := &program.Class{
		ID:       0,
		Name:     "Demo",
		ParentID: -1,
		Methods:  []*program.Method{method},
	}

	return &program.Program{Classes: []*program.Class{class}}
}

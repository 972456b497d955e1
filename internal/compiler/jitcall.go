package compiler

// jitcall enters a compiled method's native code. The three pointers give
// the compiled code direct access to its working memory without any Go
// function-call overhead per access:
//
//	memBase      - &locals[0], the callee's locals (see CompiledMethod.Invoke).
//	opStackBase  - the base of a spill buffer private to this call.
//	opStackPos   - &thread.pos (via Thread.PosPtr()), the stack cursor.
//
// Compiled code leaves its result in AX and does not touch the thread's
// operand stack; jitcall returns that value and CompiledMethod.Invoke
// reports it as the method's result.
//
// This is the one piece of this module necessarily written in raw machine
// ABI: Go has no portable way to jump to a foreign code buffer while handing
// it live register state, and no example repo in the retrieval pack ships a
// library for it (wazero's own equivalent, jit_amd64.s, is itself hand
// written for the same reason) — see DESIGN.md.
//
//go:noescape
func jitcall(codeSegment, memBase, opStackBase, opStackPos uintptr) uint64

package compiler

import (
	"unsafe"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/interpreter"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

// CompiledMethod is a method's installed native code: implements
// interpreter.NativeEntry, so internal/interpreter's MTHD_CALL/DYN_MTHD_CALL
// handling can invoke it exactly like it would invoke any other callee.
type CompiledMethod struct {
	method     *program.Method
	native     []byte
	spillWords uint64
}

var _ interpreter.NativeEntry = (*CompiledMethod)(nil)

// Invoke pushes args into the callee's would-be frame locals, jumps into
// the compiled native code via jitcall, and reports the scalar result.
// Because this bounded compiler's subset never itself issues MTHD_CALL,
// TRAP, or any opcode that needs to re-enter the interpreter mid-method,
// Invoke does not need a callback-bridge parameter the way a full compiler
// covering those opcodes would; it runs start-to-finish
// and returns.
func (cm *CompiledMethod) Invoke(t *interpreter.Thread, receiver uint64, args []uint64) (uint64, error) {
	locals := make([]uint64, cm.method.NumLocals+1)
	locals[0] = receiver
	copy(locals[1:], args)

	// The compiled body's register spills land in a scratch buffer private
	// to this call, not the thread's real operand stack: this bounded
	// compiler resolves a method's whole evaluation stack into registers and
	// spill slots at compile time and never touches t.OpStack/t.pos at
	// runtime (it has no opcode that calls back into the interpreter), so
	// reservedStackPosPtr is wired through but unused by the current subset.
	spill := make([]uint64, cm.spillWords+1)
	result := jitcall(
		uintptr(unsafe.Pointer(&cm.native[0])),
		uintptr(unsafe.Pointer(&locals[0])),
		uintptr(unsafe.Pointer(&spill[0])),
		uintptr(unsafe.Pointer(t.PosPtr())),
	)
	return result, nil
}

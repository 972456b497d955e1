// Package trap implements the native-call trap surface described in
// spec.md §4.3: the single VMContext entry point that both the interpreter
// (via TRAP/TRAP_RTRN and the opcode-indexed builtins) and the JIT's
// callback bridge use to reach array/object allocation, casts,
// thread/mutex primitives, and native-library calls.
//
// The shape — one context struct carrying the operand stack, call stack,
// and a re-entrant call-back into the engine, dispatched through a status
// code rather than a Go interface call per opcode — is grounded on how the
// compiler engine's execWasmFunction loop dispatches
// nativeCallStatusCodeCallBuiltInFunction/CallGoHostFunction in engine.go.
package trap

import (
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

// ID is a trap identifier: a numeric opcode selector that must be stable
// across the interpreter and the JIT, because the JIT emits it as an
// immediate in its callback bridge (spec.md §6).
type ID int32

const (
	IDMethodCall ID = iota
	IDDynMethodCall
	IDLoadArraySize
	IDNewByteArray
	IDNewCharArray
	IDNewIntArray
	IDNewFloatArray
	IDNewObjInst
	IDObjTypeOf
	IDObjInstCast
	IDThreadJoin
	IDThreadSleep
	IDThreadMutexInit
	IDCriticalStart
	IDCriticalEnd
	IDCopyByteArray
	IDCopyCharArray
	IDCopyIntArray
	IDCopyFloatArray
	IDTrap
	IDTrapReturn
	IDDllLoad
	IDDllUnload
	IDDllFuncCall
)

// Caller lets a trap handler re-enter the interpreter, matching spec.md
// §4.3: "it also exposes call_method_by_name and call_method_by_id so
// native code can re-enter the interpreter." Implemented by vm.Engine;
// kept as an interface here so internal/trap has no import-cycle on vm.
type Caller interface {
	CallMethodByID(classID, methodID int32, receiver uint64, args []uint64) ([]uint64, error)
	CallMethodByName(className, methodName string, receiver uint64, args []uint64) ([]uint64, error)
}

// Context is VMContext: the single argument every trap handler and every
// native-library function receives. Operand-stack and call-stack fields are
// pointers into the calling thread's live state so a trap can pop its
// arguments and push its result in place, exactly like an interpreter
// opcode would.
type Context struct {
	TrapID ID
	Instr  *program.Instr

	ClassID  int32
	MethodID int32
	Receiver uint64

	OpStack    []uint64
	OpStackPos *int

	CallStack    *[]FrameRef
	CallStackPos *int

	IP int

	Allocator memory.Allocator
	Caller    Caller

	// DataArray backs VMContext.data_array (spec.md §6): the argument
	// array a DLL_FUNC_CALL trap hands to a native-library function.
	DataArray []uint64
}

// FrameRef is the minimal per-frame identity a trap needs for diagnostics.
type FrameRef struct {
	ClassName  string
	MethodName string
	Line       int32
}

// Push/Pop mirror the operand-stack discipline every opcode uses, so trap
// handlers read exactly like interpreter opcode cases.
func (c *Context) Push(v uint64) {
	c.OpStack[*c.OpStackPos] = v
	*c.OpStackPos++
}

func (c *Context) Pop() uint64 {
	*c.OpStackPos--
	return c.OpStack[*c.OpStackPos]
}

// AllocArray exposes memory.Allocator.AllocateArray to native code per
// spec.md §4.3 ("The memory subsystem exposes alloc_obj and alloc_array
// into VMContext").
func (c *Context) AllocArray(kind memory.ArrayElemSize, nullTerminated bool, dims []int64) *memory.Array {
	return c.Allocator.AllocateArray(kind, nullTerminated, dims)
}

// AllocObj exposes memory.Allocator.AllocateObject.
func (c *Context) AllocObj(classID int32) *memory.Object {
	return c.Allocator.AllocateObject(classID)
}

// NilCheck raises the fatal nil-dereference fault spec.md §7 requires
// whenever a trap is about to dereference an operand expected to be
// non-nil.
func NilCheck(ref uint64, frames []diag.FrameInfo) error {
	if ref == 0 {
		return diag.NewFault(diag.KindNilDeref, "", frames)
	}
	return nil
}

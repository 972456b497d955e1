package trap

import (
	"sync"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
)

// Handler implements one trap id's contract (spec.md §4.3 table): read its
// inputs by popping the operand stack, do the work, push any result.
type Handler func(ctx *Context) error

// Table is the trap-id-indexed dispatch table both TRAP/TRAP_RTRN and the
// JIT's callback bridge route through. Mutating it after startup is not
// supported — it is built once from the handlers below plus whatever the
// native-library loader and platform trap table (out of scope, spec.md §1)
// contribute.
type Table struct {
	handlers map[ID]Handler
}

// NewTable builds the trap table with the generic handlers every build
// needs, mirroring spec.md §4.3's table.
func NewTable() *Table {
	t := &Table{handlers: map[ID]Handler{}}
	t.handlers[IDLoadArraySize] = handleLoadArraySize
	t.handlers[IDNewByteArray] = newArrayHandler(memory.ElemSizeByte, true)
	t.handlers[IDNewCharArray] = newArrayHandler(memory.ElemSizeChar, true)
	t.handlers[IDNewIntArray] = newArrayHandler(memory.ElemSizeInt, false)
	t.handlers[IDNewFloatArray] = newArrayHandler(memory.ElemSizeFloat, false)
	t.handlers[IDNewObjInst] = handleNewObjInst
	t.handlers[IDObjTypeOf] = handleObjTypeOf
	t.handlers[IDObjInstCast] = handleObjInstCast
	t.handlers[IDCopyByteArray] = copyArrayHandler()
	t.handlers[IDCopyCharArray] = copyArrayHandler()
	t.handlers[IDCopyIntArray] = copyArrayHandler()
	t.handlers[IDCopyFloatArray] = copyArrayHandler()
	return t
}

// Register installs or replaces a handler, used by internal/concurrency to
// add THREAD_JOIN/THREAD_SLEEP/CRITICAL_* and by internal/nativelib to add
// DLL_LOAD/DLL_UNLOAD/DLL_FUNC_CALL.
func (t *Table) Register(id ID, h Handler) { t.handlers[id] = h }

// Dispatch routes a trap through the table, matching spec.md §4.2's
// "dispatches to the native-call table with the opcode's numeric operand as
// the trap id."
func (t *Table) Dispatch(ctx *Context) error {
	h, ok := t.handlers[ctx.TrapID]
	if !ok {
		return diag.NewFault(diag.KindThreadAPIFailure, "unregistered trap id", nil)
	}
	return h(ctx)
}

func handleLoadArraySize(ctx *Context) error {
	ref := ctx.Pop()
	arr, ok := refFor(ctx, ref)
	if !ok {
		return diag.NewFault(diag.KindNilDeref, "array size of nil", nil)
	}
	ctx.Push(uint64(arr.TotalElementCount))
	return nil
}

func newArrayHandler(kind memory.ArrayElemSize, nullTerminated bool) Handler {
	return func(ctx *Context) error {
		n := int(ctx.Instr.Operand) // N dimension sizes, per spec.md §4.2
		dims := make([]int64, n)
		for i := n - 1; i >= 0; i-- {
			dims[i] = int64(ctx.Pop())
		}
		arr := ctx.AllocArray(kind, nullTerminated, dims)
		ctx.Push(refOf(arr))
		return nil
	}
}

func handleNewObjInst(ctx *Context) error {
	obj := ctx.AllocObj(int32(ctx.Instr.Operand))
	ctx.Push(refOf(obj))
	return nil
}

func handleObjTypeOf(ctx *Context) error {
	ref := ctx.Pop()
	if err := NilCheck(ref, nil); err != nil {
		return err
	}
	classID, _ := ctx.Allocator.ClassIDOf(objFor(ref))
	if ctx.Allocator.Conforms(classID, int32(ctx.Instr.Operand)) {
		ctx.Push(1)
	} else {
		ctx.Push(0)
	}
	return nil
}

func handleObjInstCast(ctx *Context) error {
	ref := ctx.Pop()
	if ref == 0 {
		// Nil is permitted through a cast: pushes 0, not fatal (spec.md §8).
		ctx.Push(0)
		return nil
	}
	classID, _ := ctx.Allocator.ClassIDOf(objFor(ref))
	target := int32(ctx.Instr.Operand)
	if !ctx.Allocator.Conforms(classID, target) {
		return diag.NewFault(diag.KindInvalidCast,
			diag.InvalidCastDetail(classNameOf(classID), classNameOf(target)), nil)
	}
	ctx.Push(ref)
	return nil
}

func copyArrayHandler() Handler {
	return func(ctx *Context) error {
		dstRef := ctx.Pop()
		dstOff := int64(ctx.Pop())
		srcRef := ctx.Pop()
		srcOff := int64(ctx.Pop())
		length := int64(ctx.Pop())

		if srcRef == 0 || dstRef == 0 {
			return diag.NewFault(diag.KindNilDeref, "array copy with nil source or destination", nil)
		}
		src, srcOK := refFor(ctx, srcRef)
		dst, dstOK := refFor(ctx, dstRef)
		if !srcOK || !dstOK {
			return diag.NewFault(diag.KindNilDeref, "array copy with nil source or destination", nil)
		}
		if length <= 0 || srcOff+length > src.TotalElementCount || dstOff+length > dst.TotalElementCount {
			ctx.Push(0)
			return nil
		}
		copy(dst.Payload[dstOff:dstOff+length], src.Payload[srcOff:srcOff+length])
		ctx.Push(1)
		return nil
	}
}

// The helpers below translate between the opaque uint64 "reference"
// slot value used on the operand stack and the reference-implementation's
// *memory.Array/*memory.Object pointers. A production loader/GC would carry
// real pointers end to end; the registry here exists only so this package's
// handlers stay testable without a live heap wired through every call.
var (
	refRegistryMu  sync.Mutex
	refRegistry    = map[uint64]any{}
	nextRefHandle  uint64 = 1
	classNameTable        = map[int32]string{}
)

// RefOf registers a heap value and returns the opaque stack-slot handle for
// it. Exported so internal/interpreter and tests can hand the interpreter
// objects/arrays allocated outside of a trap (e.g. a test's receiver).
func RefOf(v any) uint64 {
	refRegistryMu.Lock()
	defer refRegistryMu.Unlock()
	h := nextRefHandle
	nextRefHandle++
	refRegistry[h] = v
	return h
}

func refOf(v any) uint64 { return RefOf(v) }

func refFor(ctx *Context, ref uint64) (*memory.Array, bool) {
	return ArrayFor(ref)
}

// ArrayFor resolves a stack-slot handle to its backing *memory.Array.
func ArrayFor(ref uint64) (*memory.Array, bool) {
	refRegistryMu.Lock()
	defer refRegistryMu.Unlock()
	v, ok := refRegistry[ref]
	if !ok {
		return nil, false
	}
	arr, ok := v.(*memory.Array)
	return arr, ok
}

func objFor(ref uint64) *memory.Object {
	o, _ := ObjectFor(ref)
	return o
}

// ObjectFor resolves a stack-slot handle to its backing *memory.Object.
func ObjectFor(ref uint64) (*memory.Object, bool) {
	refRegistryMu.Lock()
	defer refRegistryMu.Unlock()
	v, ok := refRegistry[ref]
	if !ok {
		return nil, false
	}
	obj, ok := v.(*memory.Object)
	return obj, ok
}

// ClassIDOf resolves a stack-slot handle to its object's ClassID, used by
// virtual dispatch to find a receiver's runtime class (spec.md §4.2). Array
// and unknown handles report ok=false.
func ClassIDOf(ref uint64) (int32, bool) {
	if obj, ok := ObjectFor(ref); ok {
		return obj.ClassID, true
	}
	return 0, false
}

// RegisterClassName lets the loader populate diagnostic class names for
// invalid-cast messages (spec.md §7: "Fatal with source/destination class
// names").
func RegisterClassName(id int32, name string) {
	refRegistryMu.Lock()
	defer refRegistryMu.Unlock()
	classNameTable[id] = name
}

func classNameOf(id int32) string {
	refRegistryMu.Lock()
	defer refRegistryMu.Unlock()
	if n, ok := classNameTable[id]; ok {
		return n
	}
	return "?"
}

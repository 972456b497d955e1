// Package interpreter implements the switch-dispatch execution engine
// described in spec.md §4.2: one Thread per OS thread, each owning its own
// operand stack, stack-position cursor, and call stack, sharing only the
// program image, memory subsystem, virtual-dispatch cache, and frame pool.
//
// The dispatch loop's shape — decode one instruction, mutate a flat
// []uint64 operand stack, fall through a big switch keyed by opcode kind —
// is grounded on the teacher's engine/interpreter/interpreter.go
// callNativeFunc loop, generalized from wazeroir.OperationKind to this
// module's program.Opcode.
package interpreter

import (
	"math"
	"sync/atomic"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/dispatch"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/frame"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

// OpStackSize is the default operand-stack capacity; spec.md §8 invariant 2
// requires stack_pos to always stay within [0, OP_STACK_SIZE].
const OpStackSize = 1 << 16

// CallStackDepth is the default fixed call-stack depth (spec.md §3
// invariant: "the number of active frames never exceeds the fixed call-stack
// depth; overflow is fatal").
const CallStackDepth = 8192

// NativeEntry is what a compiled method looks like to the interpreter: the
// JIT's ABI-level entry point. Declared here (rather than importing
// internal/compiler) to avoid a cycle; internal/compiler implements it and
// vm wires the two together.
type NativeEntry interface {
	// Invoke runs the compiled method against the given thread, returning
	// the scalar result slot(s) pushed per the method's ReturnKind.
	Invoke(t *Thread, receiver uint64, args []uint64) (uint64, error)
}

// Thread is one interpreter thread: its own operand stack, cursor, and call
// stack, plus references to the structures spec.md §5 says are shared
// across every thread in the process.
type Thread struct {
	ID int64

	OpStack []uint64
	pos     int

	Calls *frame.Stack
	Pool  *frame.Pool

	Program   *program.Program
	Allocator memory.Allocator
	Traps     *trap.Table
	VDCache   *dispatch.Cache
	Debugger  Debugger

	// Caller lets trap handlers (DLL_FUNC_CALL, and any future native
	// callback) re-enter the interpreter via CallMethodByID/ByName (spec.md
	// §4.3). Implemented by vm.Engine; wired in here rather than imported
	// directly to avoid an import cycle between internal/interpreter and vm.
	Caller trap.Caller

	monitor *memory.RootSet
	halted  int32
}

// NewThread builds a Thread with fresh operand/call stacks, registers it
// with the process-wide active set (spec.md §5, for HaltAll) and with the
// memory subsystem as a frame monitor (spec.md §3 "Frame monitor"; the
// registered memory.RootSet carries only the thread id, not pointers to the
// call stack, operand stack or current frame), and returns it. Callers must call Close when the thread finishes,
// which unregisters both (spec.md §4.7: "the interpreter is unregistered
// and its resources freed").
func NewThread(id int64, prog *program.Program, alloc memory.Allocator, traps *trap.Table, vd *dispatch.Cache, pool *frame.Pool, dbg Debugger) *Thread {
	t := &Thread{
		ID:        id,
		OpStack:   make([]uint64, OpStackSize),
		Calls:     frame.NewStack(CallStackDepth),
		Pool:      pool,
		Program:   prog,
		Allocator: alloc,
		Traps:     traps,
		VDCache:   vd,
		Debugger:  dbg,
		monitor:   &memory.RootSet{ThreadID: id},
	}
	registerActive(t)
	if alloc != nil {
		alloc.RegisterRoot(t.monitor)
	}
	return t
}

// Close unregisters the thread from the active set and from the memory
// subsystem's root registry.
func (t *Thread) Close() {
	unregisterActive(t)
	if t.Allocator != nil {
		t.Allocator.UnregisterRoot(t.monitor)
	}
}

// Halted reports whether HaltAll has requested this thread stop.
func (t *Thread) Halted() bool { return atomic.LoadInt32(&t.halted) != 0 }

func (t *Thread) requestHalt() { atomic.StoreInt32(&t.halted, 1) }

// Pos returns the current stack-position cursor, for frame-monitor
// registration and tests.
func (t *Thread) Pos() int { return t.pos }

// PosPtr exposes the stack-position cursor by address, so compiled native
// code (internal/compiler) can advance it directly instead of routing every
// push/pop back through a Go function call.
func (t *Thread) PosPtr() *int { return &t.pos }

// CurrentFrame exposes the live top-of-call-stack frame to compiled native
// code, which addresses its locals and receiver directly.
func (t *Thread) CurrentFrame() *frame.Frame { return t.Calls.Current() }

func (t *Thread) pushInt(v int64)     { t.OpStack[t.pos] = uint64(v); t.pos++ }
func (t *Thread) pushFloat(v float64) { t.OpStack[t.pos] = math.Float64bits(v); t.pos++ }
func (t *Thread) pushRef(v uint64)    { t.OpStack[t.pos] = v; t.pos++ }

func (t *Thread) popInt() int64 {
	t.pos--
	return int64(t.OpStack[t.pos])
}

func (t *Thread) popFloat() float64 {
	t.pos--
	return math.Float64frombits(t.OpStack[t.pos])
}

func (t *Thread) popRef() uint64 {
	t.pos--
	return t.OpStack[t.pos]
}

func (t *Thread) peekRef() uint64 { return t.OpStack[t.pos-1] }

// frameInfos returns the diagnostic frame list for a fault raised at the
// current point in dispatch, deepest-last (spec.md §7 wants them printed
// deepest frame first; diag.Fault.Trace handles the reversal).
func (t *Thread) frameInfos() []diag.FrameInfo {
	out := make([]diag.FrameInfo, 0, t.Calls.Len())
	for i := 0; i < t.Calls.Len(); i++ {
		f := t.Calls.At(i)
		var line int32
		if f.IP >= 0 && f.IP < len(f.Method.Instrs) {
			line = f.Method.Instrs[f.IP].Line
		}
		out = append(out, diag.FrameInfo{
			ClassName:  classNameOf(t.Program, f.Method.ClassID),
			MethodName: f.Method.Name,
			Line:       line,
		})
	}
	return out
}

func classNameOf(p *program.Program, classID int32) string {
	if classID < 0 || int(classID) >= len(p.Classes) {
		return "?"
	}
	return p.Classes[classID].Name
}

// Execute implements the interpreter's one public operation (spec.md §4.2):
// acquire a frame, push it, dispatch until a return empties the call stack
// or unwinds to a frame marked JITCalled.
func (t *Thread) Execute(startIP int, method *program.Method, receiver uint64, args []uint64, enteredFromJIT bool) error {
	f := t.Pool.Acquire(method, receiver)
	f.IP = startIP
	f.JITCalled = enteredFromJIT
	copy(f.Mem[1:], args)
	if err := t.Calls.Push(f); err != nil {
		return diag.NewFault(diag.KindCallStackOverflow, "", t.frameInfos())
	}

	for {
		cur := t.Calls.Current()
		if cur == nil {
			return nil // call stack emptied: terminal return.
		}
		if t.Halted() {
			return nil // orderly debugger/HaltAll stop (spec.md §5).
		}

		done, err := t.step(cur)
		if err != nil {
			if fault, ok := err.(*diag.Fault); ok && t.Debugger != nil && t.Debugger.Enabled() {
				t.Debugger.Halt(fault)
				t.requestHalt()
				return nil
			}
			return err
		}
		if done {
			return nil
		}
	}
}

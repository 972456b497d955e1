package interpreter

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/concurrency"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/frame"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

// resolveLabel implements spec.md §4.2's label caching: resolved to an
// instruction index on first encounter, cached in Instr.Operand3 so
// subsequent hits cost one comparison. Callers (loaders/tests) building a
// jump Instr must initialize Operand3 to -1 to mark it unresolved.
func resolveLabel(m *program.Method, in *program.Instr) int {
	if in.Operand3 >= 0 {
		return int(in.Operand3)
	}
	idx := m.Labels[in.Operand].Index
	in.Operand3 = int64(idx)
	return idx
}

func (t *Thread) jump(f *frame.Frame, in *program.Instr) {
	target := resolveLabel(f.Method, in)
	if in.Operand2 == program.JumpUnconditional {
		f.IP = target - 1
		return
	}
	cond := t.popInt()
	if cond == in.Operand2 {
		f.IP = target - 1
	}
}

// doReturn pops the current frame. If it was entered from JIT code, the
// interpreter returns so native code can resume (spec.md §4.2); otherwise
// it resumes the caller frame, or terminates if the call stack emptied.
func (t *Thread) doReturn(f *frame.Frame) (bool, error) {
	popped, err := t.Calls.Pop()
	if err != nil {
		return false, diag.NewFault(diag.KindCallStackUnderflow, "", t.frameInfos())
	}
	jitCalled := popped.JITCalled
	t.Pool.Release(popped)
	if jitCalled {
		return true, nil
	}
	return t.Calls.Len() == 0, nil
}

// methodCall implements MTHD_CALL/DYN_MTHD_CALL (spec.md §4.2): pop args
// and receiver, resolve the callee (memoizing virtual resolution in the
// process-wide dispatch cache), then either enter the callee's JIT code or
// push a new interpreter frame onto this thread's call stack.
func (t *Thread) methodCall(f *frame.Frame, in *program.Instr, dynamic bool) error {
	argc := int(in.Operand)

	var targetClassID, methodID int32
	var receiver uint64
	if dynamic {
		fn := popFunc(t)
		targetClassID, methodID = fn.ClassID, fn.MethodID
		receiver = t.popRef()
	} else {
		targetClassID, methodID = int32(in.Operand2), int32(in.Operand3)
		receiver = t.popRef()
	}

	args := make([]uint64, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = t.popRef()
	}

	callee, err := t.resolveCallee(targetClassID, methodID, receiver)
	if err != nil {
		return err
	}

	if ne, ok := callee.NativeCode.(NativeEntry); ok && ne != nil {
		result, err := ne.Invoke(t, receiver, args)
		if err != nil {
			return err
		}
		pushResult(t, callee.ReturnKind, result)
		return nil
	}

	nf := t.Pool.Acquire(callee, receiver)
	copy(nf.Mem[1:], args)
	return t.Calls.Push(nf)
}

func popFunc(t *Thread) struct{ ClassID, MethodID int32 } {
	methodSlot := t.popInt()
	classSlot := t.popInt()
	return struct{ ClassID, MethodID int32 }{int32(classSlot), int32(methodSlot)}
}

func pushResult(t *Thread, kind program.ReturnKind, result uint64) {
	switch kind {
	case program.ReturnNone:
	case program.ReturnFloat:
		t.pushFloat(math.Float64frombits(result))
	default:
		t.pushRef(result)
	}
}

// resolveCallee implements virtual dispatch (spec.md §4.2, §9): a
// non-virtual target resolves directly; a virtual one is resolved against
// the receiver's runtime class and memoized in the process-wide cache keyed
// by receiver_class_name + method_signature.
func (t *Thread) resolveCallee(targetClassID, methodID int32, receiver uint64) (*program.Method, error) {
	declared := t.Program.Method(targetClassID, methodID)
	if !declared.IsVirtual {
		return declared, nil
	}
	runtimeClassID, ok := trap.ClassIDOf(receiver)
	if !ok {
		return nil, diag.NewFault(diag.KindNilDeref, "virtual call on nil receiver", t.frameInfos())
	}
	runtimeClassName := classNameOf(t.Program, runtimeClassID)
	if m, ok := t.VDCache.Lookup(runtimeClassName, declared.Signature); ok {
		return m, nil
	}
	resolved := t.walkHierarchy(runtimeClassID, declared)
	t.VDCache.Insert(runtimeClassName, declared.Signature, resolved)
	return resolved, nil
}

// walkHierarchy searches the receiver's runtime class, then its ancestors,
// for an override of declared's name+signature, falling back to declared
// itself if none is found closer to the root.
func (t *Thread) walkHierarchy(classID int32, declared *program.Method) *program.Method {
	for id := classID; id >= 0 && int(id) < len(t.Program.Classes); {
		cls := t.Program.Classes[id]
		for _, m := range cls.Methods {
			if m.Name == declared.Name && m.Signature == declared.Signature {
				return m
			}
		}
		id = cls.ParentID
	}
	return declared
}

// asyncMethodCall implements ASYNC_MTHD_CALL (spec.md §4.2, §4.7): spawn a
// new OS thread (here, a goroutine backed by its own Thread) running the
// receiver's Run method with one parameter, storing the handle in
// receiver[0].
func (t *Thread) asyncMethodCall(f *frame.Frame, in *program.Instr) error {
	param := t.popRef()
	receiver := t.popRef()

	runMethod := t.Program.Method(int32(in.Operand2), int32(in.Operand3))

	h := concurrency.Spawn(func() error {
		child := NewThread(newThreadID(), t.Program, t.Allocator, t.Traps, t.VDCache, t.Pool, t.Debugger)
		child.Caller = t.Caller
		defer child.Close()
		return child.Execute(0, runMethod, receiver, []uint64{param}, false)
	})

	obj, ok := trap.ObjectFor(receiver)
	if ok {
		if len(obj.Slots) == 0 {
			obj.Slots = make([]uint64, 1)
		}
		obj.Slots[0] = uint64(h)
	}
	return nil
}

var idCounter int64

func newThreadID() int64 {
	return atomic.AddInt64(&idCounter, 1)
}

func deterministicRand() float64 {
	return rand.New(rand.NewSource(time.Now().UnixNano())).Float64()
}

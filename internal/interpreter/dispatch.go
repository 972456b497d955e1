package interpreter

import (
	"math"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/frame"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/value"
)

// step decodes and executes exactly one instruction of the current frame,
// reporting done=true when the call stack has emptied (terminal return) or
// has unwound to a JIT-called frame (spec.md §4.2).
func (t *Thread) step(f *frame.Frame) (done bool, err error) {
	instrs := f.Method.Instrs
	if f.IP < 0 || f.IP >= len(instrs) {
		return false, diag.NewFault(diag.KindCallStackUnderflow, "instruction pointer out of range", t.frameInfos())
	}
	in := &instrs[f.IP]

	if t.Debugger != nil {
		t.Debugger.BeforeInstruction(f.Method.ClassID, f.Method.ID, f.IP)
	}

	switch in.Op {
	case program.OpLoadIntLit:
		t.pushInt(in.Operand)
	case program.OpLoadFloatLit:
		t.pushFloat(math.Float64frombits(uint64(in.Operand)))
	case program.OpLoadCharLit:
		t.pushInt(in.Operand)
	case program.OpLoadSelf:
		t.pushRef(f.Receiver)

	case program.OpLoadLocal:
		t.pushRawLocal(f, int(in.Operand))
	case program.OpStoreLocal:
		f.Mem[in.Operand] = t.OpStack[t.pos-1]
		t.pos--
	case program.OpCopyLocal:
		f.Mem[in.Operand] = t.OpStack[t.pos-1]

	case program.OpLoadInst, program.OpLoadCls:
		if err := t.loadField(in); err != nil {
			return false, err
		}
	case program.OpStoreInst, program.OpStoreCls:
		if err := t.storeField(in, false); err != nil {
			return false, err
		}
	case program.OpCopyInst, program.OpCopyCls:
		if err := t.storeField(in, true); err != nil {
			return false, err
		}

	case program.OpLoadFuncVar:
		t.pushRawLocal(f, int(in.Operand))
		t.pushRawLocal(f, int(in.Operand)+1)
	case program.OpStoreFuncVar:
		f.Mem[in.Operand+1] = t.OpStack[t.pos-1]
		f.Mem[in.Operand] = t.OpStack[t.pos-2]
		t.pos -= 2

	case program.OpAdd, program.OpSub, program.OpMul, program.OpDiv, program.OpMod,
		program.OpAnd, program.OpOr, program.OpXor, program.OpShl, program.OpShr,
		program.OpLess, program.OpLessEqual, program.OpGreater, program.OpGreaterEqual,
		program.OpEqual, program.OpNotEqual:
		if err := t.binaryOp(in); err != nil {
			return false, err
		}

	case program.OpSin, program.OpCos, program.OpTan, program.OpAsin, program.OpAcos,
		program.OpAtan, program.OpAtan2, program.OpSqrt, program.OpLog, program.OpPow,
		program.OpFloor, program.OpCeil, program.OpRand:
		t.transcendental(in)

	case program.OpSwap:
		t.OpStack[t.pos-1], t.OpStack[t.pos-2] = t.OpStack[t.pos-2], t.OpStack[t.pos-1]
	case program.OpPopInt:
		t.pos--
	case program.OpPopFloat:
		t.pos--

	case program.OpNewByteArray, program.OpNewCharArray, program.OpNewIntArray, program.OpNewFloatArray:
		if err := t.dispatchAlloc(in); err != nil {
			return false, err
		}
	case program.OpNewObjInst:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDNewObjInst, in, f)); err != nil {
			return false, err
		}
	case program.OpNewFuncInst:
		arr := t.Allocator.AllocateArray(1, false, []int64{in.Operand})
		t.pushRef(trap.RefOf(arr))

	case program.OpLoadArrayElem, program.OpStoreArrayElem:
		if err := t.arrayElemAccess(in); err != nil {
			return false, err
		}
	case program.OpLoadArraySize:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDLoadArraySize, in, f)); err != nil {
			return false, err
		}
	case program.OpCopyArray:
		id := copyTrapFor(in.Operand2)
		if err := t.Traps.Dispatch(t.trapCtx(id, in, f)); err != nil {
			return false, err
		}

	case program.OpObjTypeOf:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDObjTypeOf, in, f)); err != nil {
			return false, err
		}
	case program.OpObjInstCast:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDObjInstCast, in, f)); err != nil {
			return false, err
		}

	case program.OpJmp:
		t.jump(f, in)

	case program.OpReturn:
		return t.doReturn(f)

	case program.OpMethodCall:
		if err := t.methodCall(f, in, false); err != nil {
			return false, err
		}
	case program.OpDynMethodCall:
		if err := t.methodCall(f, in, true); err != nil {
			return false, err
		}
	case program.OpAsyncMethodCall:
		if err := t.asyncMethodCall(f, in); err != nil {
			return false, err
		}

	case program.OpThreadJoin:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDThreadJoin, in, f)); err != nil {
			return false, err
		}
	case program.OpThreadSleep:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDThreadSleep, in, f)); err != nil {
			return false, err
		}
	case program.OpThreadMutexInit:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDThreadMutexInit, in, f)); err != nil {
			return false, err
		}
	case program.OpCriticalStart:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDCriticalStart, in, f)); err != nil {
			return false, err
		}
	case program.OpCriticalEnd:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDCriticalEnd, in, f)); err != nil {
			return false, err
		}

	case program.OpTrap:
		if err := t.Traps.Dispatch(t.trapCtx(trap.ID(in.Operand), in, f)); err != nil {
			return false, err
		}
	case program.OpTrapReturn:
		if err := t.Traps.Dispatch(t.trapCtx(trap.ID(in.Operand), in, f)); err != nil {
			return false, err
		}

	case program.OpDllLoad:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDDllLoad, in, f)); err != nil {
			return false, err
		}
	case program.OpDllUnload:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDDllUnload, in, f)); err != nil {
			return false, err
		}
	case program.OpDllFuncCall:
		if err := t.Traps.Dispatch(t.trapCtx(trap.IDDllFuncCall, in, f)); err != nil {
			return false, err
		}

	default:
		return false, diag.NewFault(diag.KindCallStackUnderflow, "unrecognized opcode", t.frameInfos())
	}

	f.IP++
	return false, nil
}

func (t *Thread) pushRawLocal(f *frame.Frame, idx int) { t.OpStack[t.pos] = f.Mem[idx]; t.pos++ }

func (t *Thread) trapCtx(id trap.ID, in *program.Instr, f *frame.Frame) *trap.Context {
	return &trap.Context{
		TrapID:     id,
		Instr:      in,
		ClassID:    f.Method.ClassID,
		MethodID:   f.Method.ID,
		Receiver:   f.Receiver,
		OpStack:    t.OpStack,
		OpStackPos: &t.pos,
		Allocator:  t.Allocator,
		Caller:     t.Caller,
		IP:         f.IP,
	}
}

func copyTrapFor(kind int64) trap.ID {
	switch program.ArrayElemKind(kind) {
	case program.ArrayElemByte:
		return trap.IDCopyByteArray
	case program.ArrayElemChar:
		return trap.IDCopyCharArray
	case program.ArrayElemFloat:
		return trap.IDCopyFloatArray
	default:
		return trap.IDCopyIntArray
	}
}

func (t *Thread) dispatchAlloc(in *program.Instr) error {
	var id trap.ID
	switch in.Op {
	case program.OpNewByteArray:
		id = trap.IDNewByteArray
	case program.OpNewCharArray:
		id = trap.IDNewCharArray
	case program.OpNewIntArray:
		id = trap.IDNewIntArray
	default:
		id = trap.IDNewFloatArray
	}
	cur := t.Calls.Current()
	return t.Traps.Dispatch(t.trapCtx(id, in, cur))
}

func (t *Thread) loadField(in *program.Instr) error {
	ref := t.popRef()
	if ref == 0 {
		return diag.NewFault(diag.KindNilDeref, "", t.frameInfos())
	}
	obj, _ := trap.ObjectFor(ref)
	if int(in.Operand) >= len(obj.Slots) {
		t.pushRef(0) // field never stored to yet: reads as its zero value.
		return nil
	}
	t.pushRef(obj.Slots[in.Operand])
	return nil
}

func (t *Thread) storeField(in *program.Instr, keep bool) error {
	var val uint64
	if keep {
		val = t.OpStack[t.pos-1]
	} else {
		val = t.popRef()
	}
	ref := t.popRef()
	if ref == 0 {
		return diag.NewFault(diag.KindNilDeref, "", t.frameInfos())
	}
	obj, _ := trap.ObjectFor(ref)
	if int(in.Operand) >= len(obj.Slots) {
		grown := make([]uint64, in.Operand+1)
		copy(grown, obj.Slots)
		obj.Slots = grown
	}
	obj.Slots[in.Operand] = val
	return nil
}

func (t *Thread) binaryOp(in *program.Instr) error {
	isFloat := in.Operand2 == 1
	if isFloat {
		b := t.popFloat()
		a := t.popFloat()
		switch in.Op {
		case program.OpAdd:
			t.pushFloat(a + b)
		case program.OpSub:
			t.pushFloat(a - b)
		case program.OpMul:
			t.pushFloat(a * b)
		case program.OpDiv:
			t.pushFloat(a / b)
		case program.OpLess:
			t.pushInt(boolInt(value.FloatLess(a, b)))
		case program.OpLessEqual:
			t.pushInt(boolInt(value.FloatLessEqual(a, b)))
		case program.OpGreater:
			t.pushInt(boolInt(value.FloatGreater(a, b)))
		case program.OpGreaterEqual:
			t.pushInt(boolInt(value.FloatGreaterEqual(a, b)))
		case program.OpEqual:
			t.pushInt(boolInt(value.FloatEqual(a, b)))
		case program.OpNotEqual:
			t.pushInt(boolInt(value.FloatNotEqual(a, b)))
		default:
			return diag.NewFault(diag.KindCallStackUnderflow, "unsupported float op", t.frameInfos())
		}
		return nil
	}

	b := t.popInt()
	a := t.popInt()
	switch in.Op {
	case program.OpAdd:
		t.pushInt(value.IntAdd(a, b))
	case program.OpSub:
		t.pushInt(value.IntSub(a, b))
	case program.OpMul:
		t.pushInt(value.IntMul(a, b))
	case program.OpDiv:
		r, err := value.IntDiv(a, b)
		if err != nil {
			return diag.NewFault(diag.KindDivByZero, "", t.frameInfos())
		}
		t.pushInt(r)
	case program.OpMod:
		r, err := value.IntMod(a, b)
		if err != nil {
			return diag.NewFault(diag.KindDivByZero, "", t.frameInfos())
		}
		t.pushInt(r)
	case program.OpAnd:
		t.pushInt(a & b)
	case program.OpOr:
		t.pushInt(a | b)
	case program.OpXor:
		t.pushInt(a ^ b)
	case program.OpShl:
		t.pushInt(a << uint(b&(value.WordBits-1)))
	case program.OpShr:
		t.pushInt(a >> uint(b&(value.WordBits-1)))
	case program.OpLess:
		t.pushInt(boolInt(a < b))
	case program.OpLessEqual:
		t.pushInt(boolInt(a <= b))
	case program.OpGreater:
		t.pushInt(boolInt(a > b))
	case program.OpGreaterEqual:
		t.pushInt(boolInt(a >= b))
	case program.OpEqual:
		t.pushInt(boolInt(a == b))
	case program.OpNotEqual:
		t.pushInt(boolInt(a != b))
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (t *Thread) transcendental(in *program.Instr) {
	switch in.Op {
	case program.OpSin:
		t.pushFloat(math.Sin(t.popFloat()))
	case program.OpCos:
		t.pushFloat(math.Cos(t.popFloat()))
	case program.OpTan:
		t.pushFloat(math.Tan(t.popFloat()))
	case program.OpAsin:
		t.pushFloat(math.Asin(t.popFloat()))
	case program.OpAcos:
		t.pushFloat(math.Acos(t.popFloat()))
	case program.OpAtan:
		t.pushFloat(math.Atan(t.popFloat()))
	case program.OpAtan2:
		x := t.popFloat()
		y := t.popFloat()
		t.pushFloat(math.Atan2(y, x))
	case program.OpSqrt:
		t.pushFloat(math.Sqrt(t.popFloat()))
	case program.OpLog:
		t.pushFloat(math.Log(t.popFloat()))
	case program.OpPow:
		exp := t.popFloat()
		base := t.popFloat()
		t.pushFloat(math.Pow(base, exp))
	case program.OpFloor:
		t.pushFloat(value.Floor(t.popFloat()))
	case program.OpCeil:
		t.pushFloat(value.Ceil(t.popFloat()))
	case program.OpRand:
		t.pushFloat(deterministicRand())
	}
}

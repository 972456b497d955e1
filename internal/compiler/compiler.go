// Package compiler implements the one-pass JIT described in SPEC_FULL.md
// §1/§3: translate one method's bytecode directly into amd64 machine code,
// allocating virtual registers on the fly, with no intermediate IR and no
// second optimization pass. Any instruction the compiler does not recognize
// aborts compilation for the whole method; the loader then leaves
// program.Method.NativeCode nil and every call to that method runs in
// internal/interpreter instead. That fallback is spec-sanctioned, not a bug:
// a partially-JITable program still runs correctly end to end.
//
// The emitter is built on internal/asm's architecture-neutral AssemblerBase
// plus internal/asm/amd64's instruction layer over golang-asm — the same
// foundation internal/engine/compiler used, generalized from WebAssembly
// operators to this module's program.Opcode. Register bookkeeping is
// adapted from compiler_value_location.go (see location.go).
//
// This compiler's bounded subset covers straight-line integer arithmetic:
// literal/local load-store and add/sub/mul/and/or/xor, ending in a return.
// Control flow, comparisons, floats, arrays, objects, calls, traps, and
// concurrency are left to the interpreter; a hot leaf method doing integer
// arithmetic is the common case this subset targets (see DESIGN.md's
// internal/compiler scope decision), with everything else falling
// back automatically instead of widening this file into a full compiler.
package compiler

import (
	"fmt"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm"
	amd64 "github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm/amd64"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/pagemanager"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

// ErrUnsupported is returned (wrapped) when a method uses an instruction, or
// a register-allocation situation (spill-slot exhaustion), this compiler
// does not handle. Callers treat any error as "leave interpreted".
var ErrUnsupported = fmt.Errorf("compiler: unsupported instruction")

// compiler holds the state of one in-progress method compilation.
type compiler struct {
	method   *program.Method
	asm      amd64.Assembler
	stack    *operandStack
	returned bool
}

// Compile attempts to JIT-compile m in one pass. On success it maps the
// result into executable memory via pm and returns a *CompiledMethod
// implementing interpreter.NativeEntry; vm.Engine's ensureCompiled installs
// it as m.NativeCode. On failure it returns a wrapped ErrUnsupported and m
// remains interpreter-only.
func Compile(m *program.Method, pm *pagemanager.Manager) (*CompiledMethod, error) {
	if len(m.Instrs) == 0 {
		return nil, fmt.Errorf("%w: empty method", ErrUnsupported)
	}
	if m.ReturnKind == program.ReturnFunc {
		return nil, fmt.Errorf("%w: function-value return", ErrUnsupported)
	}

	rawAsm, err := amd64.NewAssembler(reservedTemp)
	if err != nil {
		return nil, err
	}
	assembler, ok := rawAsm.(amd64.Assembler)
	if !ok {
		return nil, fmt.Errorf("compiler: assembler does not implement amd64.Assembler")
	}

	c := &compiler{method: m, asm: assembler, stack: newOperandStack()}

	for i := range m.Instrs {
		if err := c.emit(&m.Instrs[i]); err != nil {
			return nil, err
		}
	}
	if !c.returned {
		return nil, fmt.Errorf("%w: method does not end in an unconditional return", ErrUnsupported)
	}

	native, err := c.asm.Assemble()
	if err != nil {
		return nil, fmt.Errorf("compiler: assemble: %w", err)
	}
	if len(native) == 0 {
		return nil, fmt.Errorf("%w: empty assembled body", ErrUnsupported)
	}

	mapped, err := pm.Put(m, native)
	if err != nil {
		return nil, err
	}
	return &CompiledMethod{method: m, native: mapped, spillWords: c.stack.spillCeil}, nil
}

// emit compiles one instruction of the bounded subset documented on the
// package doc comment.
func (c *compiler) emit(in *program.Instr) error {
	if c.returned {
		// A return must be the method's last instruction in this subset;
		// anything after it (e.g. unreachable cleanup code) isn't modeled.
		return fmt.Errorf("%w: instruction after return", ErrUnsupported)
	}

	switch in.Op {
	case program.OpLoadIntLit:
		loc := c.stack.pushOnStack(slotInt)
		reg, err := c.allocRegister(slotInt)
		if err != nil {
			return err
		}
		c.asm.CompileConstToRegister(amd64.MOVQ, in.Operand, reg)
		c.bindRegister(loc, reg)

	case program.OpLoadLocal:
		loc := c.stack.pushOnStack(slotInt)
		reg, err := c.allocRegister(slotInt)
		if err != nil {
			return err
		}
		c.asm.CompileMemoryToRegister(amd64.MOVQ, reservedMemBase, in.Operand*8, reg)
		c.bindRegister(loc, reg)

	case program.OpStoreLocal:
		loc := c.stack.pop()
		reg, err := c.ensureRegister(loc)
		if err != nil {
			return err
		}
		c.asm.CompileRegisterToMemory(amd64.MOVQ, reg, reservedMemBase, in.Operand*8)
		c.stack.releaseRegister(loc)

	case program.OpAdd, program.OpSub, program.OpMul,
		program.OpAnd, program.OpOr, program.OpXor:
		return c.binaryArith(in.Op)

	case program.OpReturn:
		return c.ret()

	default:
		return fmt.Errorf("%w: opcode %d", ErrUnsupported, in.Op)
	}
	return nil
}

// allocRegister returns a free register of kind, spilling the oldest live
// value of that kind to the spill buffer if the pool is exhausted — the
// same steal strategy as takeStealTargetFromUsedRegister.
func (c *compiler) allocRegister(kind slotKind) (asmRegister, error) {
	if reg, ok := c.stack.takeFreeRegister(kind); ok {
		return reg, nil
	}
	victim, ok := c.stack.takeStealTarget(kind)
	if !ok {
		return asm.NilRegister, fmt.Errorf("%w: register pool exhausted", ErrUnsupported)
	}
	reg := victim.register
	c.spill(victim)
	return reg, nil
}

// spill writes loc's register value to its native spill slot and marks the
// register free, without changing loc's logical stack position.
func (c *compiler) spill(loc *operandLocation) {
	c.asm.CompileRegisterToMemory(amd64.MOVQ, loc.register, reservedOpStackBase, int64(loc.stackPointer)*8)
	c.stack.releaseRegister(loc)
}

// ensureRegister loads a spilled value back into a register if necessary.
func (c *compiler) ensureRegister(loc *operandLocation) (asmRegister, error) {
	if loc.onRegister() {
		return loc.register, nil
	}
	reg, err := c.allocRegister(loc.kind)
	if err != nil {
		return asm.NilRegister, err
	}
	c.asm.CompileMemoryToRegister(amd64.MOVQ, reservedOpStackBase, int64(loc.stackPointer)*8, reg)
	c.bindRegister(loc, reg)
	return reg, nil
}

func (c *compiler) bindRegister(loc *operandLocation, reg asmRegister) {
	loc.register = reg
	c.stack.markRegisterUsed(reg)
}

// binaryArith folds b into a's register in place via one two-operand
// instruction, then pushes a's register as the result location — the
// register-register fusion compiler_value_location.go's allocator exists to
// make possible.
func (c *compiler) binaryArith(op program.Opcode) error {
	b := c.stack.pop()
	a := c.stack.pop()
	aReg, err := c.ensureRegister(a)
	if err != nil {
		return err
	}
	bReg, err := c.ensureRegister(b)
	if err != nil {
		return err
	}

	var inst asm.Instruction
	switch op {
	case program.OpAdd:
		inst = amd64.ADDQ
	case program.OpSub:
		inst = amd64.SUBQ
	case program.OpMul:
		inst = amd64.MULQ
	case program.OpAnd:
		inst = amd64.ANDQ
	case program.OpOr:
		inst = amd64.ORQ
	case program.OpXor:
		inst = amd64.XORQ
	}
	c.asm.CompileRegisterToRegister(inst, bReg, aReg)

	c.stack.releaseRegister(b)
	c.stack.pushOnRegister(slotInt, aReg)
	return nil
}

// ret copies the top-of-stack result into the ABI return register
// (reservedTemp, AX) per jitcall.go's calling convention, then emits RET.
func (c *compiler) ret() error {
	switch c.method.ReturnKind {
	case program.ReturnInt:
		loc := c.stack.pop()
		reg, err := c.ensureRegister(loc)
		if err != nil {
			return err
		}
		if reg != reservedTemp {
			c.asm.CompileRegisterToRegister(amd64.MOVQ, reg, reservedTemp)
		}
		c.stack.releaseRegister(loc)
	case program.ReturnFloat:
		return fmt.Errorf("%w: float return", ErrUnsupported)
	}
	c.asm.CompileStandAlone(amd64.RET)
	c.returned = true
	return nil
}

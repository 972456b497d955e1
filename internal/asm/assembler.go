package asm

// Register represents an architecture-specific register.
type Register byte

// NilRegister is the only architecture-independent register, and
// can be used to indicate that no register is specified.
const NilRegister Register = 0

// Instruction represents an architecture-specific instruction.
type Instruction byte

// AssemblerBase is the common interface for assemblers among multiple
// architectures.
//
// Note: golang-asm's Builder (wrapped by internal/asm/golang_asm) supports a
// much larger surface — jumps, indexed addressing, float/SIMD forms,
// register-to-const and none-to-* encodings — than this interface exposes.
// internal/compiler's one-pass bounded JIT subset only ever emits
// literal/local load-store, straight-line integer arithmetic, and an
// unconditional return, so this interface is trimmed to exactly the six
// methods that subset calls. A future widening of the compiler's opcode
// coverage (jumps for control flow, indexed addressing for array access)
// should grow this interface alongside it rather than speculatively ahead of
// it.
type AssemblerBase interface {
	// Assemble produces the final machine code for the assembled operations.
	Assemble() ([]byte, error)
	// CompileStandAlone adds an instruction that takes no operands.
	CompileStandAlone(instruction Instruction)
	// CompileConstToRegister adds an instruction whose source operand is
	// `value` as a constant and destination is `destinationReg`.
	CompileConstToRegister(instruction Instruction, value int64, destinationReg Register)
	// CompileRegisterToRegister adds an instruction where source and
	// destination operands are both registers.
	CompileRegisterToRegister(instruction Instruction, from, to Register)
	// CompileMemoryToRegister adds an instruction where the source operand is
	// the memory address specified by `sourceBaseReg+sourceOffsetConst` and
	// the destination is `destinationReg`.
	CompileMemoryToRegister(instruction Instruction, sourceBaseReg Register, sourceOffsetConst int64, destinationReg Register)
	// CompileRegisterToMemory adds an instruction where the source operand is
	// `sourceRegister` and the destination is the memory address specified by
	// `destinationBaseRegister+destinationOffsetConst`.
	CompileRegisterToMemory(instruction Instruction, sourceRegister Register, destinationBaseRegister Register, destinationOffsetConst int64)
}

package amd64

import "github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm"

// AMD64 general-purpose and vector registers.
//
// Note: only the registers internal/compiler uses are defined here (its
// reserved and unreserved register layout in
// internal/compiler/registers.go) — no SP/BP, since the compiler
// reserves its frame-pointer bookkeeping through reservedMemBase/
// reservedOpStackBase instead of the native stack pointer.
const (
	REG_AX asm.Register = asm.NilRegister + 1 + iota
	REG_CX
	REG_DX
	REG_BX
	REG_SI
	REG_DI
	REG_R8
	REG_R9
	REG_R10
	REG_R11
	REG_R12
	REG_R13
	REG_R14
	REG_R15
	REG_X0
	REG_X1
	REG_X2
	REG_X3
	REG_X4
	REG_X5
	REG_X6
	REG_X7
	REG_X8
	REG_X9
	REG_X10
	REG_X11
)

// AMD64 instructions.
//
// https://www.felixcloutier.com/x86/index.html
//
// Note: this defines only the instructions internal/compiler's bounded JIT
// subset emits (literal/local load-store, integer add/sub/mul/and/or/xor,
// unconditional return) — not the full instruction set a general-purpose
// amd64 assembler would need.
const (
	NONE asm.Instruction = iota
	MOVQ
	ADDQ
	SUBQ
	MULQ
	ANDQ
	ORQ
	XORQ
	RET
)

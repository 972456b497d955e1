package compiler

import (
	amd64 "github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm/amd64"
)

// Register pools for the one-pass allocator. Four general-purpose registers
// are carved out as fixed roles instead of entering the free pool; no vector
// register is reserved:
//
//   - reservedMemBase holds the current call's locals slice base address.
//   - reservedOpStackBase holds the base address of this call's private
//     register-spill scratch buffer (not the thread's real operand stack —
//     see CompiledMethod.Invoke).
//   - reservedStackPosPtr holds the address of the stack-position cursor
//     (Thread.PosPtr); the current opcode subset never writes through it.
//   - reservedTemp (AX) is the result register: compiled code moves the
//     method's return value into it before returning to jitcall.
//
// This mirrors the shape of compiler_value_location.go's
// unreservedGeneralPurposeRegisters/unreservedVectorRegisters pair, with the
// concrete register set chosen for this module's base-pointer addressing
// instead of wazero's engine/module-instance pointers.
const (
	reservedMemBase      = amd64.REG_R14
	reservedOpStackBase  = amd64.REG_R15
	reservedStackPosPtr  = amd64.REG_DX
	reservedTemp         = amd64.REG_AX
)

var (
	unreservedGeneralPurposeRegisters = []asmRegister{
		amd64.REG_CX, amd64.REG_BX, amd64.REG_SI, amd64.REG_DI,
		amd64.REG_R8, amd64.REG_R9, amd64.REG_R10, amd64.REG_R11, amd64.REG_R12, amd64.REG_R13,
	}
	unreservedVectorRegisters = []asmRegister{
		amd64.REG_X0, amd64.REG_X1, amd64.REG_X2, amd64.REG_X3, amd64.REG_X4, amd64.REG_X5,
		amd64.REG_X6, amd64.REG_X7, amd64.REG_X8, amd64.REG_X9, amd64.REG_X10, amd64.REG_X11,
	}
)

func isIntRegister(r asmRegister) bool {
	for _, c := range unreservedGeneralPurposeRegisters {
		if c == r {
			return true
		}
	}
	return false
}

func isVectorRegister(r asmRegister) bool {
	for _, c := range unreservedVectorRegisters {
		if c == r {
			return true
		}
	}
	return false
}

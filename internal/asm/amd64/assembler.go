// Package amd64 implements internal/asm.AssemblerBase for amd64 by driving
// github.com/twitchyliquid64/golang-asm through internal/asm/golang_asm,
// exactly as the teacher's pre-native-assembler wazero did before its own
// golang-asm removal. Trimmed to the register/instruction set
// internal/compiler's bounded one-pass JIT subset actually emits; see
// consts.go's doc comments.
package amd64

import (
	goasm "github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm/golang_asm"
)

// Assembler is the interface the compiler package drives.
type Assembler interface {
	asm.AssemblerBase
}

// NewAssembler returns the default amd64 Assembler implementation.
// temporaryRegister is unused by this trimmed implementation (no instruction
// form here needs a scratch register of the assembler's own choosing) and is
// accepted only to match asm.NewAssembler's constructor shape.
func NewAssembler(temporaryRegister asm.Register) (asm.AssemblerBase, error) {
	base, err := golang_asm.NewGolangAsmBaseAssembler("amd64")
	if err != nil {
		return nil, err
	}
	return &assemblerImpl{GolangAsmBaseAssembler: base}, nil
}

type assemblerImpl struct {
	*golang_asm.GolangAsmBaseAssembler
}

// CompileStandAlone implements asm.AssemblerBase.CompileStandAlone.
func (a *assemblerImpl) CompileStandAlone(instruction asm.Instruction) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	a.AddInstruction(p)
}

// CompileConstToRegister implements asm.AssemblerBase.CompileConstToRegister.
func (a *assemblerImpl) CompileConstToRegister(instruction asm.Instruction, value int64, destinationReg asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = goasm.TYPE_CONST
	p.From.Offset = value
	p.To.Type = goasm.TYPE_REG
	p.To.Reg = castRegister(destinationReg)
	a.AddInstruction(p)
}

// CompileRegisterToRegister implements asm.AssemblerBase.CompileRegisterToRegister.
func (a *assemblerImpl) CompileRegisterToRegister(instruction asm.Instruction, from, to asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = goasm.TYPE_REG
	p.From.Reg = castRegister(from)
	p.To.Type = goasm.TYPE_REG
	p.To.Reg = castRegister(to)
	a.AddInstruction(p)
}

// CompileMemoryToRegister implements asm.AssemblerBase.CompileMemoryToRegister.
func (a *assemblerImpl) CompileMemoryToRegister(instruction asm.Instruction, sourceBaseReg asm.Register, sourceOffsetConst int64, destinationReg asm.Register) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = goasm.TYPE_MEM
	p.From.Reg = castRegister(sourceBaseReg)
	p.From.Offset = sourceOffsetConst
	p.To.Type = goasm.TYPE_REG
	p.To.Reg = castRegister(destinationReg)
	a.AddInstruction(p)
}

// CompileRegisterToMemory implements asm.AssemblerBase.CompileRegisterToMemory.
func (a *assemblerImpl) CompileRegisterToMemory(instruction asm.Instruction, sourceRegister asm.Register, destinationBaseRegister asm.Register, destinationOffsetConst int64) {
	p := a.NewProg()
	p.As = castInstruction(instruction)
	p.From.Type = goasm.TYPE_REG
	p.From.Reg = castRegister(sourceRegister)
	p.To.Type = goasm.TYPE_MEM
	p.To.Reg = castRegister(destinationBaseRegister)
	p.To.Offset = destinationOffsetConst
	a.AddInstruction(p)
}

// castAsGolangAsmRegister maps the registers to golang-asm specific register
// values.
var castAsGolangAsmRegister = [...]int16{
	REG_AX:  x86.REG_AX,
	REG_CX:  x86.REG_CX,
	REG_DX:  x86.REG_DX,
	REG_BX:  x86.REG_BX,
	REG_SI:  x86.REG_SI,
	REG_DI:  x86.REG_DI,
	REG_R8:  x86.REG_R8,
	REG_R9:  x86.REG_R9,
	REG_R10: x86.REG_R10,
	REG_R11: x86.REG_R11,
	REG_R12: x86.REG_R12,
	REG_R13: x86.REG_R13,
	REG_R14: x86.REG_R14,
	REG_R15: x86.REG_R15,
	REG_X0:  x86.REG_X0,
	REG_X1:  x86.REG_X1,
	REG_X2:  x86.REG_X2,
	REG_X3:  x86.REG_X3,
	REG_X4:  x86.REG_X4,
	REG_X5:  x86.REG_X5,
	REG_X6:  x86.REG_X6,
	REG_X7:  x86.REG_X7,
	REG_X8:  x86.REG_X8,
	REG_X9:  x86.REG_X9,
	REG_X10: x86.REG_X10,
	REG_X11: x86.REG_X11,
}

// castAsGolangAsmInstruction maps the instructions to golang-asm specific
// instruction values.
var castAsGolangAsmInstruction = [...]goasm.As{
	RET:  goasm.ARET,
	MOVQ: x86.AMOVQ,
	ADDQ: x86.AADDQ,
	SUBQ: x86.ASUBQ,
	MULQ: x86.AMULQ,
	ANDQ: x86.AANDQ,
	ORQ:  x86.AORQ,
	XORQ: x86.AXORQ,
}

func castRegister(r asm.Register) int16          { return castAsGolangAsmRegister[r] }
func castInstruction(i asm.Instruction) goasm.As { return castAsGolangAsmInstruction[i] }

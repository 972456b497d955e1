// Package golang_asm wraps github.com/twitchyliquid64/golang-asm's Builder
// behind the small surface internal/asm/amd64 needs: allocate a Prog, append
// it to the instruction stream, and assemble the final machine code.
//
// golang-asm's Builder also supports jump-target patching, a generated-code
// callback hook, and a jump-table builder (see its own package docs); none
// of those are wired here because internal/compiler's bounded JIT subset
// never emits a branch. Widen this wrapper alongside the compiler, not ahead
// of it.
package golang_asm

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
)

// GolangAsmBaseAssembler implements the part of asm.AssemblerBase that is
// architecture-independent, for the golang-asm library.
type GolangAsmBaseAssembler struct {
	b *goasm.Builder
}

func NewGolangAsmBaseAssembler(arch string) (*GolangAsmBaseAssembler, error) {
	b, err := goasm.NewBuilder(arch, 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &GolangAsmBaseAssembler{b: b}, nil
}

// Assemble implements asm.AssemblerBase.Assemble.
func (a *GolangAsmBaseAssembler) Assemble() ([]byte, error) {
	return a.b.Assemble(), nil
}

// AddInstruction is used by architecture-specific assembler implementations
// built on golang-asm.
func (a *GolangAsmBaseAssembler) AddInstruction(next *obj.Prog) {
	a.b.AddInstruction(next)
}

// NewProg is used by architecture-specific assembler implementations built
// on golang-asm.
func (a *GolangAsmBaseAssembler) NewProg() *obj.Prog {
	return a.b.NewProg()
}

package compiler

import (
	"fmt"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/asm"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/value"
)

type asmRegister = asm.Register

// slotKind classifies an operandStack entry the way value.Kind classifies a
// runtime slot, so the allocator knows whether a free register must come
// from the general-purpose or vector pool.
type slotKind byte

const (
	slotInt slotKind = iota
	slotFloat
)

// operandLocation tracks, for one value currently pushed on the method's
// compile-time operand stack, where it lives right now: a register, or a
// spill slot in the call's spill buffer. Adapted from
// internal/engine/compiler/compiler_value_location.go's valueLocation —
// same bookkeeping, retargeted at this module's two slot kinds (int/float)
// instead of wazeroir's richer value-type lattice, since object references
// and function values are always handled through the interpreter fallback
// path rather than compiled.
type operandLocation struct {
	kind         slotKind
	register     asmRegister // asm.NilRegister if spilled.
	stackPointer uint64      // position in the native spill area, if spilled.
}

func (l *operandLocation) onRegister() bool { return l.register != asm.NilRegister }

func (l *operandLocation) String() string {
	if l.onRegister() {
		return fmt.Sprintf("reg(%d)", l.register)
	}
	return fmt.Sprintf("spill(%d)", l.stackPointer)
}

// operandStack mirrors the source method's operand stack as it will look at
// runtime, but only at compile time: each push/pop call here updates where
// the compiler believes a value lives, and emits no code by itself. Adapted
// from valueLocationStack; spillCeil (renamed from stackPointerCeil) becomes
// the compiled method's required native spill-area size.
type operandStack struct {
	stack         []*operandLocation
	sp            uint64
	usedRegisters map[asmRegister]struct{}
	spillCeil     uint64
}

func newOperandStack() *operandStack {
	return &operandStack{usedRegisters: map[asmRegister]struct{}{}}
}

func kindOf(k value.Kind) slotKind {
	if k == value.KindFloat {
		return slotFloat
	}
	return slotInt
}

func (s *operandStack) push(loc *operandLocation) {
	loc.stackPointer = s.sp
	if s.sp >= uint64(len(s.stack)) {
		s.stack = append(s.stack, loc)
	} else {
		s.stack[s.sp] = loc
	}
	if s.sp > s.spillCeil {
		s.spillCeil = s.sp
	}
	s.sp++
}

func (s *operandStack) pushOnRegister(kind slotKind, reg asmRegister) *operandLocation {
	loc := &operandLocation{kind: kind, register: reg}
	s.markRegisterUsed(reg)
	s.push(loc)
	return loc
}

func (s *operandStack) pushOnStack(kind slotKind) *operandLocation {
	loc := &operandLocation{kind: kind, register: asm.NilRegister}
	s.push(loc)
	return loc
}

func (s *operandStack) pop() *operandLocation {
	s.sp--
	return s.stack[s.sp]
}

func (s *operandStack) peek() *operandLocation { return s.stack[s.sp-1] }

func (s *operandStack) releaseRegister(loc *operandLocation) {
	s.markRegisterUnused(loc.register)
	loc.register = asm.NilRegister
}

func (s *operandStack) markRegisterUsed(regs ...asmRegister)   { for _, r := range regs { s.usedRegisters[r] = struct{}{} } }
func (s *operandStack) markRegisterUnused(regs ...asmRegister) { for _, r := range regs { delete(s.usedRegisters, r) } }

// takeFreeRegister searches the unreserved pool for kind, marking the first
// hit used.
func (s *operandStack) takeFreeRegister(kind slotKind) (asmRegister, bool) {
	pool := unreservedGeneralPurposeRegisters
	if kind == slotFloat {
		pool = unreservedVectorRegisters
	}
	for _, candidate := range pool {
		if _, used := s.usedRegisters[candidate]; used {
			continue
		}
		return candidate, true
	}
	return asm.NilRegister, false
}

// takeStealTarget finds the oldest-pushed still-live value occupying a
// register of the given kind, so the compiler can spill it and reuse its
// register — the same "steal from used register" strategy as
// takeStealTargetFromUsedRegister, walking stack bottom-up for determinism.
func (s *operandStack) takeStealTarget(kind slotKind) (*operandLocation, bool) {
	for i := uint64(0); i < s.sp; i++ {
		loc := s.stack[i]
		if loc.onRegister() && loc.kind == kind {
			return loc, true
		}
	}
	return nil, false
}

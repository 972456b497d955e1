// Package value defines the machine-word-wide stack slot shared by the
// interpreter and the JIT compiler, and the arithmetic/conversion semantics
// that operate on it.
package value

import "math"

// Slot is one machine word on the operand stack or in a frame's local
// variable array. Integers, references, code pointers, and (on a 64-bit
// target) whole doubles all fit in one Slot; on a 32-bit target a double
// occupies two consecutive Slots, one per half. This module targets a
// 64-bit host, so WordBits is fixed at 64 and floats always occupy one
// slot — see the "Open Questions" note in DESIGN.md.
type Slot uint64

// WordBits is the native integer width backing every Slot.
const WordBits = 64

// Kind tags how a Slot's bits are to be interpreted. The tag itself is never
// stored in the Slot — callers track it the same way the bytecode does,
// via the opcode that produced the value.
type Kind byte

const (
	KindInt Kind = iota
	KindFloat
	KindRef
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindRef:
		return "ref"
	case KindFunc:
		return "func"
	default:
		return "unknown"
	}
}

// IntSlot packs a signed integer into a Slot.
func IntSlot(v int64) Slot { return Slot(uint64(v)) }

// Int unpacks a signed integer from a Slot.
func (s Slot) Int() int64 { return int64(s) }

// FloatSlot packs a float64 into a Slot using its IEEE-754 bit pattern.
func FloatSlot(v float64) Slot { return Slot(math.Float64bits(v)) }

// Float unpacks a float64 from a Slot.
func (s Slot) Float() float64 { return math.Float64frombits(uint64(s)) }

// RefSlot packs an object or array header pointer into a Slot.
func RefSlot(p uintptr) Slot { return Slot(p) }

// Ref unpacks a reference from a Slot.
func (s Slot) Ref() uintptr { return uintptr(s) }

// IsNil reports whether a reference Slot is nil.
func (s Slot) IsNil() bool { return s == 0 }

// Func is the two-word (class_id, method_id) pair described in spec.md
// §3 "Function value". The interpreter's LOAD_FUNC_VAR/STOR_FUNC_VAR always
// move two Slots on the operand stack, even though a 64-bit host could fuse
// them into one; FuncSlots/SplitFunc present exactly that two-slot view.
type Func struct {
	ClassID  int32
	MethodID int32
}

// FuncSlots returns the two-slot operand-stack encoding of a Func value.
func FuncSlots(f Func) (classSlot, methodSlot Slot) {
	return IntSlot(int64(f.ClassID)), IntSlot(int64(f.MethodID))
}

// SplitFunc reconstructs a Func from its two-slot operand-stack encoding.
func SplitFunc(classSlot, methodSlot Slot) Func {
	return Func{ClassID: int32(classSlot.Int()), MethodID: int32(methodSlot.Int())}
}

// Packed fuses a Func into the single machine word used when a function
// value is stored inline in object/array memory rather than on the operand
// stack (§3: "or a single machine word holding both as half-words in memory
// where layout permits").
func (f Func) Packed() uint64 {
	return uint64(uint32(f.ClassID))<<32 | uint64(uint32(f.MethodID))
}

// UnpackFunc reverses Func.Packed.
func UnpackFunc(word uint64) Func {
	return Func{ClassID: int32(word >> 32), MethodID: int32(uint32(word))}
}

package interpreter

import "github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"

// Debugger is the instruction-level hook the core must invoke for the
// source debugger surface (spec.md §1: out of scope beyond this hook,
// supplemented from original_source/core/debugger/debugger.h per
// SPEC_FULL.md §4). Under a normal build, fatal faults terminate the
// process; under a debugger-enabled build, Halt is called instead and the
// dispatch loop returns cleanly (spec.md §4.2, §7 "Debugger halt").
type Debugger interface {
	// Enabled reports whether the debugger build hook should intercept
	// fatal faults instead of letting them terminate the process.
	Enabled() bool
	// Halt is invoked with the fault that would otherwise be fatal.
	Halt(fault *diag.Fault)
	// BeforeInstruction is invoked once per dispatched instruction when a
	// debugger is attached, for line stepping/breakpoints (out of scope:
	// the console itself, in scope: this call site).
	BeforeInstruction(classID, methodID int32, ip int)
}

// NoDebugger is the default no-op Debugger: every fatal fault is fatal, and
// no per-instruction hook fires.
type NoDebugger struct{}

func (NoDebugger) Enabled() bool                                 { return false }
func (NoDebugger) Halt(*diag.Fault)                               {}
func (NoDebugger) BeforeInstruction(classID, methodID int32, ip int) {}

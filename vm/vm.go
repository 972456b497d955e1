// Package vm is the top-level call boundary described in spec.md §1 as the
// third tightly-coupled subsystem: "dynamic method dispatch and call
// boundary — the protocol connecting interpreter, JIT code, and callbacks."
// Engine wires the program image, the memory subsystem, the shared
// process-wide structures (frame pool, virtual-dispatch cache, JIT page
// manager, active-interpreter set), and the trap table into one object that
// can invoke a method and have it transparently run interpreted or JIT
// compiled, re-entering either path seamlessly across calls (spec.md §2
// "Control flow").
//
// Grounded on how the teacher's wazero.Runtime ties together its
// engine, moduleEngine/callEngine, and host-function bridge behind one
// façade (runtime.go), generalized from wazero's module-instantiation
// boundary to this module's class/method call boundary.
package vm

import (
	"fmt"
	"sync/atomic"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/compiler"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/concurrency"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/dispatch"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/frame"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/interpreter"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/nativelib"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/pagemanager"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

// Config is the engine's tunables, following the functional-options idiom
// the teacher uses for wazero.RuntimeConfig (SPEC_FULL.md §2 "Ambient
// stack — Configuration").
type Config struct {
	CallStackDepth int
	OpStackSize    int
	FramePoolSize  int
	Debugger       interpreter.Debugger
	JIT            bool
}

// Option configures a Config.
type Option func(*Config)

// WithCallStackDepth overrides the default fixed call-stack depth (spec.md
// §3: "the number of active frames never exceeds the fixed call-stack
// depth; overflow is fatal").
func WithCallStackDepth(n int) Option { return func(c *Config) { c.CallStackDepth = n } }

// WithOpStackSize overrides the default operand-stack capacity.
func WithOpStackSize(n int) Option { return func(c *Config) { c.OpStackSize = n } }

// WithFramePoolSize overrides how many frames the process-wide pool
// pre-populates (spec.md §3 "Lifecycles": "pre-populated").
func WithFramePoolSize(n int) Option { return func(c *Config) { c.FramePoolSize = n } }

// WithDebugger attaches the instruction-level debugger hook (spec.md §1,
// §4.2, §7 "Debugger halt"). The default is interpreter.NoDebugger; with
// either, a fatal fault is returned from Invoke as an error.
func WithDebugger(d interpreter.Debugger) Option { return func(c *Config) { c.Debugger = d } }

// WithoutJIT disables attempting to JIT-compile methods: every call
// interprets, which is useful for differential testing against JIT output
// (spec.md §8 invariant 4) and for the debugger build, where JIT code
// cannot be single-stepped (spec.md §1 Non-goals: "debugging of JIT code").
func WithoutJIT() Option { return func(c *Config) { c.JIT = false } }

func defaultConfig() Config {
	return Config{
		CallStackDepth: interpreter.CallStackDepth,
		OpStackSize:    interpreter.OpStackSize,
		FramePoolSize:  64,
		Debugger:       interpreter.NoDebugger{},
		JIT:            true,
	}
}

// Engine is the process-wide call boundary: one Program image, one memory
// Allocator, and the shared structures spec.md §5 lists (frame pool,
// virtual-dispatch cache, JIT page manager, active-interpreter set via
// internal/interpreter's package-level registry) plus the trap table every
// thread dispatches through.
type Engine struct {
	cfg       Config
	Program   *program.Program
	Allocator memory.Allocator
	Traps     *trap.Table
	VDCache   *dispatch.Cache
	Pool      *frame.Pool
	Pages     *pagemanager.Manager
	Libs      *nativelib.Registry

	nextThreadID int64
}

var _ trap.Caller = (*Engine)(nil)

// New builds an Engine over prog/alloc, registering the generic trap
// handlers plus the concurrency and native-library trap families (spec.md
// §4.3's full table) into one shared trap.Table.
func New(prog *program.Program, alloc memory.Allocator, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	traps := trap.NewTable()
	concurrency.RegisterTraps(traps)
	libs := nativelib.NewRegistry()
	libs.RegisterTraps(traps)

	e := &Engine{
		cfg:       cfg,
		Program:   prog,
		Allocator: alloc,
		Traps:     traps,
		VDCache:   dispatch.New(),
		Pool:      frame.NewPool(cfg.FramePoolSize),
		Pages:     pagemanager.NewManager(),
		Libs:      libs,
	}
	return e
}

// newThread builds a Thread wired to this Engine's shared structures and
// back to the Engine itself via trap.Caller, so a trap a method triggers on
// this thread can re-enter the call boundary (spec.md §4.3).
func (e *Engine) newThread() *interpreter.Thread {
	id := atomic.AddInt64(&e.nextThreadID, 1)
	t := interpreter.NewThread(id, e.Program, e.Allocator, e.Traps, e.VDCache, e.Pool, e.cfg.Debugger)
	t.OpStack = make([]uint64, e.cfg.OpStackSize)
	t.Calls = frame.NewStack(e.cfg.CallStackDepth)
	t.Caller = e
	return t
}

// Invoke is the call boundary's one public entry point (spec.md §2
// "Control flow": "a method is invoked with an operand stack, a
// stack-position indicator, a call-stack array, and a receiver reference").
// It builds a fresh thread, ensures the callee has a chance to be
// JIT-compiled, and transfers to native code or the interpreter accordingly
// — seamlessly, because both paths share the same frame layout and trap
// conventions.
func (e *Engine) Invoke(classID, methodID int32, receiver uint64, args []uint64) ([]uint64, error) {
	method := e.Program.Method(classID, methodID)
	t := e.newThread()
	defer t.Close()
	return e.invokeOn(t, method, receiver, args)
}

func (e *Engine) invokeOn(t *interpreter.Thread, method *program.Method, receiver uint64, args []uint64) ([]uint64, error) {
	e.ensureCompiled(method)

	if ne, ok := method.NativeCode.(interpreter.NativeEntry); ok && ne != nil {
		result, err := ne.Invoke(t, receiver, args)
		if err != nil {
			return nil, err
		}
		return resultSlots(method.ReturnKind, result), nil
	}

	if err := t.Execute(0, method, receiver, args, false); err != nil {
		return nil, err
	}
	return drainReturn(t, method.ReturnKind), nil
}

// drainReturn reads a scalar return value left on the operand stack by the
// interpreter's RTRN handling of the outermost frame, per the "standard
// return-parameter protocol" (spec.md §4.5) both execution paths share.
func drainReturn(t *interpreter.Thread, kind program.ReturnKind) []uint64 {
	if kind == program.ReturnNone || t.Pos() == 0 {
		return nil
	}
	return []uint64{t.OpStack[t.Pos()-1]}
}

func resultSlots(kind program.ReturnKind, result uint64) []uint64 {
	if kind == program.ReturnNone {
		return nil
	}
	return []uint64{result}
}

// ensureCompiled attempts to JIT-compile method while method.NativeCode is
// nil; on failure it leaves it nil, so that call interprets and the next
// call attempts compilation again (spec.md
// §4.5 "Fallback", §7 "JIT compilation failure — Non-fatal"). Disabled
// entirely when the engine was built WithoutJIT.
func (e *Engine) ensureCompiled(method *program.Method) {
	if !e.cfg.JIT || method.NativeCode != nil {
		return
	}
	cm, err := compiler.Compile(method, e.Pages)
	if err != nil {
		return
	}
	method.NativeCode = cm
}

// CallMethodByID implements trap.Caller (spec.md §4.3: "it also exposes
// call_method_by_name and call_method_by_id so native code can re-enter the
// interpreter"), used by native-library functions and any future trap that
// needs to call back into Objeck code.
func (e *Engine) CallMethodByID(classID, methodID int32, receiver uint64, args []uint64) ([]uint64, error) {
	method := e.Program.Method(classID, methodID)
	t := e.newThread()
	defer t.Close()
	return e.invokeOn(t, method, receiver, args)
}

// CallMethodByName resolves classID/methodID by name+signature before
// delegating to CallMethodByID. The loader (out of scope) is expected to
// have populated class/method names; this just linearly searches the
// already-loaded program image, which is adequate for the rare native
// callback path and keeps this package free of an extra name index.
func (e *Engine) CallMethodByName(className, methodName string, receiver uint64, args []uint64) ([]uint64, error) {
	for _, cls := range e.Program.Classes {
		if cls.Name != className {
			continue
		}
		for _, m := range cls.Methods {
			if m.Name == methodName {
				return e.CallMethodByID(cls.ID, m.ID, receiver, args)
			}
		}
	}
	return nil, fmt.Errorf("vm: no method %s.%s", className, methodName)
}

// HaltAll requests every registered interpreter thread, across every Engine
// in the process, stop at its next instruction boundary (spec.md §5
// "Cancellation"). The active-interpreter set is process-wide per spec.md
// §9, so this is a thin re-export of internal/interpreter's package-level
// HaltAll rather than an Engine method.
func HaltAll() { interpreter.HaltAll() }

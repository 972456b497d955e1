// Package program defines the external contract the bytecode loader
// provides to the execution core: StackProgram, StackClass, StackMethod,
// and StackInstr. Parsing the on-disk bytecode format and resolving class
// hierarchies is out of scope for this module (spec.md §1) — these types
// are the load-bearing shape the interpreter and JIT depend on, modeled the
// same way the teacher's wasm.Module / wasm.FunctionInstance separate
// "what the loader produced" from "what the engine executes".
package program

// Instr is one decoded bytecode instruction. Operand2 and Operand3 are used
// by opcode families that need more than one immediate (conditional JMP's
// match value and cached resolved target, MTHD_CALL's class and method ids,
// the int/float selector of arithmetic opcodes, an array copy's element
// kind, and so on); families that need fewer simply leave the remaining
// operands zero.
type Instr struct {
	Op       Opcode
	Operand  int64
	Operand2 int64
	Operand3 int64
	Line     int32
}

// Opcode enumerates the instruction families from spec.md §4.2. Exact
// numeric values are an implementation choice (spec.md §6): this module
// freezes them once, here, and both the interpreter and the JIT's callback
// bridge share this single definition so the ids stay bit-identical across
// the interpreter/JIT boundary.
type Opcode int32

const (
	// Literal loads
	OpLoadIntLit Opcode = iota
	OpLoadFloatLit
	OpLoadCharLit
	OpLoadSelf

	// Variable loads/stores
	OpLoadLocal
	OpStoreLocal
	OpCopyLocal
	OpLoadInst
	OpStoreInst
	OpCopyInst
	OpLoadCls
	OpStoreCls
	OpCopyCls
	OpLoadFuncVar
	OpStoreFuncVar

	// Arithmetic / bitwise / shift / comparison, suffixed by operand kind
	// (encoded as Instr.Operand2: 0 = int, 1 = float).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual

	// Transcendentals
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpAtan2
	OpSqrt
	OpLog
	OpPow
	OpFloor
	OpCeil
	OpRand

	// Stack manipulation
	OpSwap
	OpPopInt
	OpPopFloat

	// Allocation
	OpNewByteArray
	OpNewCharArray
	OpNewIntArray
	OpNewFloatArray
	OpNewObjInst
	OpNewFuncInst

	// Array access
	OpLoadArrayElem
	OpStoreArrayElem
	OpLoadArraySize
	OpCopyArray

	// Type checks
	OpObjTypeOf
	OpObjInstCast

	// Control flow
	OpJmp
	OpReturn
	OpMethodCall
	OpDynMethodCall
	OpAsyncMethodCall

	// Concurrency
	OpThreadJoin
	OpThreadSleep
	OpThreadMutexInit
	OpCriticalStart
	OpCriticalEnd

	// Traps and native libraries
	OpTrap
	OpTrapReturn
	OpDllLoad
	OpDllUnload
	OpDllFuncCall
)

// JumpUnconditional is the sentinel Instr.Operand2 value for OpJmp meaning
// "always branch", per spec.md §4.2 ("operand2 = -1").
const JumpUnconditional = -1

// ArrayElemKind distinguishes the four array element widths named in
// spec.md §4.2's array opcode family.
type ArrayElemKind byte

const (
	ArrayElemByte ArrayElemKind = iota
	ArrayElemChar
	ArrayElemInt
	ArrayElemFloat
)

// Label maps a label name to the resolved instruction index within a
// Method's Instrs. The interpreter resolves labels lazily on first jump and
// caches the index in Instr.Operand3 (spec.md §4.2).
type Label struct {
	Name  string
	Index int
}

// Method is a single bytecode method: its instruction stream, its label
// table, and the bookkeeping the JIT/interpreter share across the call
// boundary (declared local count, whether it has already been given native
// code).
type Method struct {
	ID         int32
	ClassID    int32
	Name       string
	Signature  string
	IsVirtual  bool
	IsClass    bool // true for class (static) methods
	NumLocals  int
	Instrs     []Instr
	Labels     []Label
	ReturnKind ReturnKind

	// NativeCode is set once the JIT successfully compiles this method; nil
	// means "interpret". Declared as `any` here to avoid an import cycle
	// with internal/compiler — the concrete type is *compiler.CompiledMethod.
	NativeCode any
}

// ReturnKind tells the JIT's epilogue and the interpreter's RTRN handling
// how many result slots a return produces and of what kind, matching the
// "standard return-parameter protocol" in spec.md §4.5.
type ReturnKind byte

const (
	ReturnNone ReturnKind = iota
	ReturnInt
	ReturnFloat
	ReturnFunc
)

// Class is a loaded class: its instance-slot layout and its methods.
type Class struct {
	ID           int32
	Name         string
	ParentID     int32 // -1 for no parent
	Interfaces   []int32
	Methods      []*Method
	InstanceSize int // bytes, excluding the memory-subsystem object header
}

// Program is the whole loaded bytecode image: every class, indexed by id.
// After load the core adds or removes no class or method; its only writes
// are a jump's cached resolved target (Instr.Operand3) and a method's
// NativeCode once compiled.
type Program struct {
	Classes []*Class
}

// Class looks up a class by id. The bounds are trusted: the loader
// guarantees Classes is dense and class ids are validated at load time,
// outside this module's scope.
func (p *Program) Class(id int32) *Class { return p.Classes[id] }

// Method looks up a method by class id and method id.
func (p *Program) Method(classID, methodID int32) *Method {
	return p.Classes[classID].Methods[methodID]
}

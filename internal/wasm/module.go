package wasm

import (
	"github.com/google/uuid"

	"github.com/pulseengine/wrt-go/api"
)

// ModuleID uniquely identifies a Module for compiled-code caching
// (internal/engine/interpreter keys its LRU cache on this).
type ModuleID = uuid.UUID

// Function is one function defined in a module: its signature (by type
// index), its declared locals, and its instruction sequence. Imported
// functions don't carry a Code — see Import.
type Function struct {
	TypeIndex Index
	// LocalTypes are the types of declared (non-parameter) locals, in
	// declaration order. At call time these slots are zero-initialized
	// per spec.md §3.4.
	LocalTypes []ValueType
	Body       []Instruction
	// DebugName identifies this function in traps and stack traces.
	DebugName string
}

// Global is a module-defined global with its constant-expression
// initializer.
type Global struct {
	Type SignatureGlobal
	Init ConstExpr
}

// SignatureGlobal avoids a name collision with the GlobalType type alias
// used by imports/exports.
type SignatureGlobal = GlobalType

// ConstExpr is a constant expression: a short instruction sequence allowed
// only in global initializers and active-segment offsets (spec.md §3.2).
// It must be one of: a single *.const, a global.get of an imported
// immutable global, or (with reference-types) ref.null/ref.func.
type ConstExpr struct {
	Op  Opcode
	I32 int32
	I64 int64
	F32 uint32
	F64 uint64
	// GlobalIndex is valid when Op == OpGlobalGet.
	GlobalIndex Index
}

// ImportKind classifies what an Import resolves to.
type ImportKind = api.ExternType

// Import is an entry in a module's import section: (module, name) plus the
// extern-type the importer expects to bind.
type Import struct {
	Module, Name string
	Kind         ImportKind
	// Exactly one of the following is meaningful, selected by Kind.
	FuncTypeIndex Index
	Table         TableType
	Memory        MemoryType
	Global        GlobalType
}

// ExportKind classifies what an Export refers to.
type ExportKind = api.ExternType

// Export is an entry in a module's export section. Names are unique within
// a Module (spec.md §3.2 invariant).
type Export struct {
	Name  string
	Kind  ExportKind
	Index Index
}

// ElementMode classifies an element segment per spec.md §3.2.
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclared
)

// ElementSegment populates a table (active) or stages references for
// table.init (passive), or merely declares a function referenceable by
// ref.func without being materialized anywhere (declared).
type ElementSegment struct {
	Mode ElementMode
	// TableIndex and OffsetExpr are valid only when Mode == ElementModeActive.
	TableIndex Index
	OffsetExpr ConstExpr
	Type       ValueType // element type, ValueTypeFuncref or ValueTypeExternref
	// Either FuncIndexes (a plain list of function indices) or Exprs (a
	// list of constant expressions, needed once element segments carry
	// non-func-index content) is populated, never both.
	FuncIndexes []Index
	Exprs       []ConstExpr
}

// DataMode classifies a data segment.
type DataMode byte

const (
	DataModeActive DataMode = iota
	DataModePassive
)

// DataSegment initializes a region of linear memory (active) or stages
// bytes for memory.init (passive).
type DataSegment struct {
	Mode MemoryIndexMode
	// MemoryIndex and OffsetExpr are valid only when Mode == DataModeActive.
	MemoryIndex Index
	OffsetExpr  ConstExpr
	Init        []byte
}

// MemoryIndexMode aliases DataMode; kept distinct for readability at call
// sites that talk about "which memory" versus "which mode".
type MemoryIndexMode = DataMode

// Module is the immutable, post-decode representation of a WebAssembly
// module (spec.md §3.2). A single Module may back many Instances.
type Module struct {
	ID ModuleID

	Types []*FunctionType

	Imports []Import

	// Functions are the module-defined (non-imported) functions, indexed
	// after the imported functions in the function index space.
	Functions []*Function

	Tables  []TableType
	Memories []MemoryType
	Globals []Global

	Exports map[string]Export

	Elements []ElementSegment
	Data     []DataSegment

	// StartFunc is the function index invoked exactly once after
	// instantiation, or nil if the module declares none.
	StartFunc *Index

	// CustomSections are semantically opaque name->bytes pairs.
	CustomSections map[string][]byte

	// ImportedFunctionCount is precomputed for index-space arithmetic:
	// Functions[i] lives at function index ImportedFunctionCount+i.
	ImportedFunctionCount uint32
	ImportedTableCount    uint32
	ImportedMemoryCount   uint32
	ImportedGlobalCount   uint32
}

// NewModule allocates an empty Module with a fresh ID, ready for
// ModuleBuilder to populate.
func NewModule() *Module {
	return &Module{
		ID:             uuid.New(),
		Exports:        map[string]Export{},
		CustomSections: map[string][]byte{},
	}
}

// TypeOfFunction resolves a function index (imported or defined) to its
// signature.
func (m *Module) TypeOfFunction(funcIdx Index) *FunctionType {
	if funcIdx < m.ImportedFunctionCount {
		i := 0
		for _, imp := range m.Imports {
			if imp.Kind != api.ExternTypeFunc {
				continue
			}
			if Index(i) == funcIdx {
				return m.Types[imp.FuncTypeIndex]
			}
			i++
		}
		return nil
	}
	idx := funcIdx - m.ImportedFunctionCount
	if int(idx) >= len(m.Functions) {
		return nil
	}
	return m.Types[m.Functions[idx].TypeIndex]
}

// FunctionCount is the size of the function index space: imports + defined.
func (m *Module) FunctionCount() uint32 {
	return m.ImportedFunctionCount + uint32(len(m.Functions))
}

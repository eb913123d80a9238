package wasm

import "github.com/google/uuid"

// InstanceID uniquely identifies an Instance, independent of its Module.
type InstanceID = uuid.UUID

// InstanceState is the lifecycle spec.md §3.3 assigns to every Instance.
type InstanceState int

const (
	InstanceCreated InstanceState = iota
	InstanceActive
	InstanceTerminated
)

// MemoryInstance is the owned runtime object backing a declared or
// imported memory. Bounds/alignment/atomics live in internal/memsys;
// this struct is the binding surface the Instance owns.
type MemoryInstance struct {
	Type MemoryType
	// Backing holds the *memsys.Memory that instantiation allocates;
	// Instance never touches the bytes directly, only through memsys.Memory.
	Backing interface{}
}

// TableInstance is the owned runtime object backing a declared or imported
// table: a vector of reference values (funcref or externref), represented
// as raw uint64 handles, NullRef meaning "no reference".
type TableInstance struct {
	Type ValueType
	Max  *uint32
	Elements []uint64
}

// GlobalInstance is the owned runtime cell backing a declared or imported
// global.
type GlobalInstance struct {
	Type  GlobalType
	Value Value
}

// FunctionInstance is the owned runtime object backing a declared or
// imported function: either a reference to the owning Instance's own
// Function (by index, per spec.md §9's arena-and-index cycle resolution)
// or a host function bound through the capability bridge.
type FunctionInstance struct {
	Type *FunctionType
	// ModuleFuncIndex is set when this function is defined in the owning
	// Instance's Module (not imported); it indexes Module.Functions.
	ModuleFuncIndex Index
	IsHostFunction  bool
	// ImportModule and ImportName identify the host binding when
	// IsHostFunction is true.
	ImportModule, ImportName string
	DebugName                string
}

// Instance binds a Module to concrete runtime objects. The Module is shared
// (read-only) and may back many Instances; the Instance exclusively owns
// everything below (spec.md §3.3).
type Instance struct {
	ID     InstanceID
	Name   string
	Module *Module
	State  InstanceState

	Memories []*MemoryInstance
	Tables   []*TableInstance
	Globals  []*GlobalInstance
	Functions []*FunctionInstance

	// ImportedFunctionCount mirrors Module's, cached for fast index-space
	// arithmetic during calls.
	ImportedFunctionCount uint32

	// DroppedData and DroppedElements track which of Module.Data/Module.Elements
	// this Instance has executed data.drop/elem.drop on. Index-parallel to
	// Module.Data/Module.Elements; a segment is shared (read-only) across every
	// Instance of a Module, so "dropped" is per-Instance state, not a mutation of
	// the segment itself. memory.init/table.init on an index with the
	// corresponding entry true must trap rather than silently re-copy.
	DroppedData     []bool
	DroppedElements []bool
}

// NewInstance allocates an Instance in the Created state. Callers
// (typically the Runtime's instantiation routine) populate Memories,
// Tables, Globals, and Functions before transitioning to Active.
func NewInstance(name string, m *Module) *Instance {
	return &Instance{
		ID:              uuid.New(),
		Name:            name,
		Module:          m,
		State:           InstanceCreated,
		DroppedData:     make([]bool, len(m.Data)),
		DroppedElements: make([]bool, len(m.Elements)),
	}
}

// Terminate releases this Instance's resources in reverse allocation order
// and marks it Terminated. Idempotent.
func (i *Instance) Terminate() {
	if i.State == InstanceTerminated {
		return
	}
	for idx := len(i.Functions) - 1; idx >= 0; idx-- {
		i.Functions[idx] = nil
	}
	for idx := len(i.Globals) - 1; idx >= 0; idx-- {
		i.Globals[idx] = nil
	}
	for idx := len(i.Tables) - 1; idx >= 0; idx-- {
		i.Tables[idx] = nil
	}
	for idx := len(i.Memories) - 1; idx >= 0; idx-- {
		i.Memories[idx] = nil
	}
	i.State = InstanceTerminated
}

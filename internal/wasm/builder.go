package wasm

import "fmt"

// ModuleBuilder assembles a Module in memory, incrementally, without going
// through the (out-of-scope) binary decoder. Grounded in
// wrt-runtime/src/module.rs's add_* methods, adapted to a Go builder that
// accumulates errors instead of returning Result from every call so callers
// can chain calls and check Err once at the end.
type ModuleBuilder struct {
	m   *Module
	err error
}

// NewModuleBuilder starts a new, empty module.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{m: NewModule()}
}

// Build returns the assembled Module, or the first error encountered.
// Every defined function's body is finalized (ContinuationPC/ElsePC
// computed) before the Module is handed back, so validator and interpreter
// never see an unfinalized body.
func (b *ModuleBuilder) Build() (*Module, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, fn := range b.m.Functions {
		if err := finalizeBody(fn.Body); err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.DebugName, err)
		}
	}
	return b.m, nil
}

func (b *ModuleBuilder) fail(format string, args ...interface{}) *ModuleBuilder {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
	return b
}

// AddType appends a function signature, returning its type index.
func (b *ModuleBuilder) AddType(ft *FunctionType) (Index, *ModuleBuilder) {
	b.m.Types = append(b.m.Types, ft)
	return Index(len(b.m.Types) - 1), b
}

// AddImportFunc imports a function, returning its function index.
func (b *ModuleBuilder) AddImportFunc(module, name string, typeIdx Index) (Index, *ModuleBuilder) {
	if int(typeIdx) >= len(b.m.Types) {
		return 0, b.fail("AddImportFunc: type index %d out of range", typeIdx)
	}
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: ExternTypeFunc, FuncTypeIndex: typeIdx})
	idx := b.m.ImportedFunctionCount
	b.m.ImportedFunctionCount++
	return idx, b
}

// AddImportMemory imports a memory, returning its memory index.
func (b *ModuleBuilder) AddImportMemory(module, name string, mt MemoryType) (Index, *ModuleBuilder) {
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: ExternTypeMemory, Memory: mt})
	idx := b.m.ImportedMemoryCount
	b.m.ImportedMemoryCount++
	return idx, b
}

// AddImportTable imports a table, returning its table index.
func (b *ModuleBuilder) AddImportTable(module, name string, tt TableType) (Index, *ModuleBuilder) {
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: ExternTypeTable, Table: tt})
	idx := b.m.ImportedTableCount
	b.m.ImportedTableCount++
	return idx, b
}

// AddImportGlobal imports a global, returning its global index.
func (b *ModuleBuilder) AddImportGlobal(module, name string, gt GlobalType) (Index, *ModuleBuilder) {
	b.m.Imports = append(b.m.Imports, Import{Module: module, Name: name, Kind: ExternTypeGlobal, Global: gt})
	idx := b.m.ImportedGlobalCount
	b.m.ImportedGlobalCount++
	return idx, b
}

// AddFunction appends a defined function, returning its function index
// (in the shared function index space, after all imported functions).
func (b *ModuleBuilder) AddFunction(f *Function) (Index, *ModuleBuilder) {
	if int(f.TypeIndex) >= len(b.m.Types) {
		return 0, b.fail("AddFunction: type index %d out of range", f.TypeIndex)
	}
	b.m.Functions = append(b.m.Functions, f)
	return b.m.ImportedFunctionCount + Index(len(b.m.Functions)-1), b
}

// AddMemory appends a defined memory, returning its memory index.
func (b *ModuleBuilder) AddMemory(mt MemoryType) (Index, *ModuleBuilder) {
	b.m.Memories = append(b.m.Memories, mt)
	return b.m.ImportedMemoryCount + Index(len(b.m.Memories)-1), b
}

// AddTable appends a defined table, returning its table index.
func (b *ModuleBuilder) AddTable(tt TableType) (Index, *ModuleBuilder) {
	b.m.Tables = append(b.m.Tables, tt)
	return b.m.ImportedTableCount + Index(len(b.m.Tables)-1), b
}

// AddGlobal appends a defined global, returning its global index.
func (b *ModuleBuilder) AddGlobal(gt GlobalType, init ConstExpr) (Index, *ModuleBuilder) {
	b.m.Globals = append(b.m.Globals, Global{Type: gt, Init: init})
	return b.m.ImportedGlobalCount + Index(len(b.m.Globals)-1), b
}

// AddExportFunc exports function index idx under name. Fails if name is
// already exported, per spec.md §3.2's uniqueness invariant.
func (b *ModuleBuilder) AddExportFunc(name string, idx Index) *ModuleBuilder {
	return b.addExport(name, ExportKind(ExternTypeFunc), idx)
}

func (b *ModuleBuilder) AddExportMemory(name string, idx Index) *ModuleBuilder {
	return b.addExport(name, ExportKind(ExternTypeMemory), idx)
}

func (b *ModuleBuilder) AddExportTable(name string, idx Index) *ModuleBuilder {
	return b.addExport(name, ExportKind(ExternTypeTable), idx)
}

func (b *ModuleBuilder) AddExportGlobal(name string, idx Index) *ModuleBuilder {
	return b.addExport(name, ExportKind(ExternTypeGlobal), idx)
}

func (b *ModuleBuilder) addExport(name string, kind ExportKind, idx Index) *ModuleBuilder {
	if _, dup := b.m.Exports[name]; dup {
		return b.fail("export name %q is already in use", name)
	}
	b.m.Exports[name] = Export{Name: name, Kind: kind, Index: idx}
	return b
}

// AddElement appends an element segment.
func (b *ModuleBuilder) AddElement(e ElementSegment) *ModuleBuilder {
	b.m.Elements = append(b.m.Elements, e)
	return b
}

// AddData appends a data segment.
func (b *ModuleBuilder) AddData(d DataSegment) *ModuleBuilder {
	b.m.Data = append(b.m.Data, d)
	return b
}

// AddCustomSection stores an opaque custom section.
func (b *ModuleBuilder) AddCustomSection(name string, data []byte) *ModuleBuilder {
	b.m.CustomSections[name] = data
	return b
}

// SetStart sets the start function index.
func (b *ModuleBuilder) SetStart(funcIdx Index) *ModuleBuilder {
	idx := funcIdx
	b.m.StartFunc = &idx
	return b
}

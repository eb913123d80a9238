package wrt

import (
	"fmt"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// bindImports walks m.Imports in declaration order, resolving each against
// either the host bridge (function imports) or the caller-supplied objects
// in cfg (memory/table/global imports), and appends the resulting runtime
// objects to inst in the same order so index-space arithmetic matches
// Module.ImportedXCount.
func bindImports(inst *wasm.Instance, m *wasm.Module, cfg *ModuleConfig, bridge *hostbridge.Bridge) error {
	for _, imp := range m.Imports {
		switch imp.Kind {
		case api.ExternTypeFunc:
			want := m.Types[imp.FuncTypeIndex]
			got, err := bridge.Resolve(imp.Module, imp.Name)
			if err != nil {
				return &wasm.InstantiationError{Kind: wasm.ErrImportMissing,
					Message: fmt.Sprintf("function import %s.%s", imp.Module, imp.Name), Cause: err}
			}
			if !want.Equal(got) {
				return &wasm.InstantiationError{Kind: wasm.ErrImportTypeMismatch,
					Message: fmt.Sprintf("function import %s.%s: want %s, host provides %s", imp.Module, imp.Name, want, got)}
			}
			inst.Functions = append(inst.Functions, &wasm.FunctionInstance{
				Type: want, IsHostFunction: true,
				ImportModule: imp.Module, ImportName: imp.Name,
				DebugName: imp.Module + "." + imp.Name,
			})

		case api.ExternTypeMemory:
			mem, ok := cfg.memories[importKey{imp.Module, imp.Name}]
			if !ok {
				return &wasm.InstantiationError{Kind: wasm.ErrImportMissing,
					Message: fmt.Sprintf("memory import %s.%s", imp.Module, imp.Name)}
			}
			inst.Memories = append(inst.Memories, &wasm.MemoryInstance{Type: imp.Memory, Backing: mem})

		case api.ExternTypeTable:
			t, ok := cfg.tables[importKey{imp.Module, imp.Name}]
			if !ok {
				return &wasm.InstantiationError{Kind: wasm.ErrImportMissing,
					Message: fmt.Sprintf("table import %s.%s", imp.Module, imp.Name)}
			}
			inst.Tables = append(inst.Tables, t)

		case api.ExternTypeGlobal:
			g, ok := cfg.globals[importKey{imp.Module, imp.Name}]
			if !ok {
				return &wasm.InstantiationError{Kind: wasm.ErrImportMissing,
					Message: fmt.Sprintf("global import %s.%s", imp.Module, imp.Name)}
			}
			inst.Globals = append(inst.Globals, g)
		}
	}
	return nil
}

// allocateDefined appends the Instance's own memories, tables, globals, and
// functions after whatever imports bindImports already appended, matching
// each Module.ImportedXCount offset.
func allocateDefined(inst *wasm.Instance, m *wasm.Module, budget *memsys.Budget, verification memsys.VerificationLevel) error {
	for i, mt := range m.Memories {
		mem, err := memsys.New(fmt.Sprintf("%s.memory[%d]", inst.Name, i), mt, budget, verification)
		if err != nil {
			return &wasm.InstantiationError{Kind: wasm.ErrBudgetExhausted, Message: "defined memory", Cause: err}
		}
		inst.Memories = append(inst.Memories, &wasm.MemoryInstance{Type: mt, Backing: mem})
	}

	for _, tt := range m.Tables {
		elems := make([]uint64, tt.Limits.Min)
		for i := range elems {
			elems[i] = wasm.NullRef
		}
		inst.Tables = append(inst.Tables, &wasm.TableInstance{Type: tt.ElemType, Max: tt.Limits.Max, Elements: elems})
	}

	for _, g := range m.Globals {
		v, err := evalConstExpr(inst, g.Init)
		if err != nil {
			return err
		}
		inst.Globals = append(inst.Globals, &wasm.GlobalInstance{Type: g.Type, Value: v})
	}

	for i, fn := range m.Functions {
		inst.Functions = append(inst.Functions, &wasm.FunctionInstance{
			Type:            m.Types[fn.TypeIndex],
			ModuleFuncIndex: wasm.Index(i),
			DebugName:       fn.DebugName,
		})
	}
	return nil
}

// evalConstExpr evaluates a restricted constant expression (spec.md §3.2):
// a single numeric const, ref.null, ref.func, or global.get of an already-
// bound imported immutable global. The validator has already confirmed
// global.get only ever targets such a global, so inst.Globals is
// guaranteed populated that far by the time allocateDefined reaches it.
//
// ref.func reuses ConstExpr.GlobalIndex to carry the referenced function
// index: the data model has no separate field for it, and the two uses
// (global index, function index) never co-occur on the same expression.
func evalConstExpr(inst *wasm.Instance, c wasm.ConstExpr) (wasm.Value, error) {
	switch c.Op {
	case wasm.OpI32Const:
		return wasm.I32Value(c.I32), nil
	case wasm.OpI64Const:
		return wasm.I64Value(c.I64), nil
	case wasm.OpF32Const:
		return wasm.F32Value(c.F32), nil
	case wasm.OpF64Const:
		return wasm.F64Value(c.F64), nil
	case wasm.OpRefNull:
		return wasm.Value{Type: wasm.ValueTypeFuncref, Lo: wasm.NullRef}, nil
	case wasm.OpRefFunc:
		return wasm.Value{Type: wasm.ValueTypeFuncref, Lo: uint64(c.GlobalIndex)}, nil
	case wasm.OpGlobalGet:
		if int(c.GlobalIndex) >= len(inst.Globals) {
			return wasm.Value{}, &wasm.InstantiationError{Kind: wasm.ErrInvalidSegmentOffset,
				Message: fmt.Sprintf("global.get %d out of range in constant expression", c.GlobalIndex)}
		}
		return inst.Globals[c.GlobalIndex].Value, nil
	default:
		return wasm.Value{}, &wasm.InstantiationError{Kind: wasm.ErrInvalidSegmentOffset,
			Message: fmt.Sprintf("opcode %#x is not a valid constant expression", c.Op)}
	}
}

// runActiveSegments copies active element segments into their tables and
// active data segments into their memory, failing atomically with
// ErrInvalidSegmentOffset if any segment would run out of bounds — per
// spec.md §7, no Instance is exposed half-initialized.
func runActiveSegments(inst *wasm.Instance, m *wasm.Module) error {
	for _, seg := range m.Elements {
		if seg.Mode != wasm.ElementModeActive {
			continue
		}
		offV, err := evalConstExpr(inst, seg.OffsetExpr)
		if err != nil {
			return err
		}
		off := offV.U32()
		t := inst.Tables[seg.TableIndex]
		if uint64(off)+uint64(len(seg.FuncIndexes)) > uint64(len(t.Elements)) {
			return &wasm.InstantiationError{Kind: wasm.ErrInvalidSegmentOffset,
				Message: fmt.Sprintf("element segment at table %d offset %d out of bounds", seg.TableIndex, off)}
		}
		for i, fi := range seg.FuncIndexes {
			t.Elements[uint64(off)+uint64(i)] = uint64(fi)
		}
	}

	for _, seg := range m.Data {
		if seg.Mode != wasm.DataModeActive {
			continue
		}
		offV, err := evalConstExpr(inst, seg.OffsetExpr)
		if err != nil {
			return err
		}
		mem, _ := inst.Memories[seg.MemoryIndex].Backing.(*memsys.Memory)
		if err := mem.Write(offV.U32(), seg.Init); err != nil {
			return &wasm.InstantiationError{Kind: wasm.ErrInvalidSegmentOffset,
				Message: fmt.Sprintf("data segment at memory %d offset %d out of bounds", seg.MemoryIndex, offV.U32()), Cause: err}
		}
	}
	return nil
}

// Package validator implements the single forward pass over a decoded
// module's structure and function bodies described in spec.md §4.1: an
// abstract interpretation against an operand-type stack and a control-frame
// stack, reusing the same precomputed instruction Opcode/Index/Mem fields
// the interpreter reads at runtime. A module that survives Validate never
// traps for a type reason at runtime (spec.md §7's "no runtime type
// errors" guarantee).
package validator

import (
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// Validate checks a module's structure and every function body against
// features. It returns the first *Error encountered; spec.md §4.1 doesn't
// require exhaustive error collection, only that an invalid module is never
// accepted.
func Validate(m *wasm.Module, features wasm.Features) error {
	if err := validateImports(m); err != nil {
		return err
	}
	if err := validateTablesAndMemories(m); err != nil {
		return err
	}
	if err := validateGlobals(m, features); err != nil {
		return err
	}
	for i, fn := range m.Functions {
		funcIdx := m.ImportedFunctionCount + uint32(i)
		if err := validateFunction(m, fn, funcIdx, features); err != nil {
			return err
		}
	}
	if err := validateExports(m); err != nil {
		return err
	}
	if err := validateElements(m, features); err != nil {
		return err
	}
	if err := validateData(m); err != nil {
		return err
	}
	if err := validateStart(m); err != nil {
		return err
	}
	return nil
}

func validateImports(m *wasm.Module) *Error {
	for i, imp := range m.Imports {
		if imp.Kind == 0x00 && int(imp.FuncTypeIndex) >= len(m.Types) {
			return newErr(KindUnknownIndex, 0, i, "import %s.%s references unknown type %d", imp.Module, imp.Name, imp.FuncTypeIndex)
		}
	}
	return nil
}

func validateLimits(l wasm.Limits, ceiling uint32) bool {
	if l.Max != nil && *l.Max < l.Min {
		return false
	}
	if l.Min > ceiling {
		return false
	}
	if l.Max != nil && *l.Max > ceiling {
		return false
	}
	return true
}

func validateTablesAndMemories(m *wasm.Module) *Error {
	for i, t := range m.Tables {
		if !validateLimits(t.Limits, 1<<32-1) {
			return newErr(KindInvalidBlockType, 0, i, "table %d has invalid limits", i)
		}
	}
	for i, mem := range m.Memories {
		if !validateLimits(mem.Limits, wasm.MemoryMaxPages) {
			return newErr(KindInvalidBlockType, 0, i, "memory %d has invalid limits", i)
		}
	}
	return nil
}

func globalTypeAt(m *wasm.Module, idx wasm.Index) (wasm.GlobalType, bool) {
	if idx < m.ImportedGlobalCount {
		i := wasm.Index(0)
		for _, imp := range m.Imports {
			if imp.Kind != 0x03 { // ExternTypeGlobal
				continue
			}
			if i == idx {
				return imp.Global, true
			}
			i++
		}
		return wasm.GlobalType{}, false
	}
	j := idx - m.ImportedGlobalCount
	if int(j) >= len(m.Globals) {
		return wasm.GlobalType{}, false
	}
	return m.Globals[j].Type, true
}

func validateGlobals(m *wasm.Module, features wasm.Features) *Error {
	for i, g := range m.Globals {
		got, err := constExprType(m, g.Init)
		if err != nil {
			return err
		}
		if got != g.Type.ValType {
			return newErr(KindTypeMismatch, 0, i, "global %d initializer has type %s, declared %s",
				i, wasm.ValueTypeName(got), wasm.ValueTypeName(g.Type.ValType))
		}
		if g.Init.Op == wasm.OpGlobalGet {
			refType, ok := globalTypeAt(m, g.Init.GlobalIndex)
			if !ok || refType.Mutable || g.Init.GlobalIndex >= m.ImportedGlobalCount {
				return newErr(KindTypeMismatch, 0, i, "global initializer may only reference an imported immutable global")
			}
		}
	}
	return nil
}

// constExprType resolves the value type a constant expression produces,
// per the restricted grammar spec.md §3.2 allows in initializers.
func constExprType(m *wasm.Module, c wasm.ConstExpr) (wasm.ValueType, *Error) {
	switch c.Op {
	case wasm.OpI32Const:
		return wasm.ValueTypeI32, nil
	case wasm.OpI64Const:
		return wasm.ValueTypeI64, nil
	case wasm.OpF32Const:
		return wasm.ValueTypeF32, nil
	case wasm.OpF64Const:
		return wasm.ValueTypeF64, nil
	case wasm.OpRefNull:
		return wasm.ValueTypeFuncref, nil
	case wasm.OpRefFunc:
		return wasm.ValueTypeFuncref, nil
	case wasm.OpGlobalGet:
		gt, ok := globalTypeAt(m, c.GlobalIndex)
		if !ok {
			return 0, newErr(KindUnknownIndex, 0, 0, "constant expression references unknown global %d", c.GlobalIndex)
		}
		return gt.ValType, nil
	default:
		return 0, newErr(KindInvalidBlockType, 0, 0, "opcode %#x is not allowed in a constant expression", c.Op)
	}
}

func validateExports(m *wasm.Module) *Error {
	for name, e := range m.Exports {
		switch e.Kind {
		case 0x00: // func
			if e.Index >= m.FunctionCount() {
				return newErr(KindUnknownIndex, 0, 0, "export %q references unknown function %d", name, e.Index)
			}
		case 0x01: // table
			if e.Index >= m.ImportedTableCount+uint32(len(m.Tables)) {
				return newErr(KindUnknownIndex, 0, 0, "export %q references unknown table %d", name, e.Index)
			}
		case 0x02: // memory
			if e.Index >= m.ImportedMemoryCount+uint32(len(m.Memories)) {
				return newErr(KindUnknownIndex, 0, 0, "export %q references unknown memory %d", name, e.Index)
			}
		case 0x03: // global
			if e.Index >= m.ImportedGlobalCount+uint32(len(m.Globals)) {
				return newErr(KindUnknownIndex, 0, 0, "export %q references unknown global %d", name, e.Index)
			}
		}
	}
	return nil
}

func validateElements(m *wasm.Module, features wasm.Features) *Error {
	for i, el := range m.Elements {
		if el.Mode == wasm.ElementModeActive {
			if int(el.TableIndex) >= int(m.ImportedTableCount)+len(m.Tables) {
				return newErr(KindUnknownIndex, 0, i, "element segment %d references unknown table %d", i, el.TableIndex)
			}
			offTy, err := constExprType(m, el.OffsetExpr)
			if err != nil {
				return err
			}
			if offTy != wasm.ValueTypeI32 {
				return newErr(KindTypeMismatch, 0, i, "element segment %d offset must be i32", i)
			}
		}
		for _, fi := range el.FuncIndexes {
			if fi >= m.FunctionCount() {
				return newErr(KindUnknownIndex, 0, i, "element segment %d references unknown function %d", i, fi)
			}
		}
	}
	return nil
}

func validateData(m *wasm.Module) *Error {
	for i, d := range m.Data {
		if d.Mode == wasm.DataModeActive {
			if int(d.MemoryIndex) >= int(m.ImportedMemoryCount)+len(m.Memories) {
				return newErr(KindUnknownIndex, 0, i, "data segment %d references unknown memory %d", i, d.MemoryIndex)
			}
			offTy, err := constExprType(m, d.OffsetExpr)
			if err != nil {
				return err
			}
			if offTy != wasm.ValueTypeI32 {
				return newErr(KindTypeMismatch, 0, i, "data segment %d offset must be i32", i)
			}
		}
	}
	return nil
}

func validateStart(m *wasm.Module) *Error {
	if m.StartFunc == nil {
		return nil
	}
	ft := m.TypeOfFunction(*m.StartFunc)
	if ft == nil {
		return newErr(KindUnknownIndex, 0, 0, "start function %d is unknown", *m.StartFunc)
	}
	if len(ft.Params) != 0 || len(ft.Results) != 0 {
		return newErr(KindArityMismatch, 0, 0, "start function must take no parameters and return no results")
	}
	return nil
}

// localTypes returns the function's parameter and declared-local types, in
// local-index order: parameters first, then declared locals.
func localTypes(m *wasm.Module, funcIdx wasm.Index, fn *wasm.Function) []wasm.ValueType {
	ft := m.TypeOfFunction(funcIdx)
	locals := make([]wasm.ValueType, 0, len(ft.Params)+len(fn.LocalTypes))
	locals = append(locals, ft.Params...)
	locals = append(locals, fn.LocalTypes...)
	return locals
}

func validateFunction(m *wasm.Module, fn *wasm.Function, funcIdx wasm.Index, features wasm.Features) *Error {
	ft := m.TypeOfFunction(funcIdx)
	if ft == nil {
		return newErr(KindUnknownIndex, funcIdx, 0, "function has no matching type")
	}
	locals := localTypes(m, funcIdx, fn)

	s := &funcState{}
	s.pushCtrl(frameFunction, nil, ft.Results)

	for pc, instr := range fn.Body {
		if err := validateInstr(m, s, locals, instr, features); err != nil {
			err.FuncIdx = funcIdx
			err.Offset = pc
			return err
		}
	}
	if _, err := s.popCtrl(); err != nil {
		err.FuncIdx = funcIdx
		return err
	}
	if len(s.ctrls) != 0 {
		return newErr(KindUnmatchedElse, funcIdx, len(fn.Body), "function body ends with unclosed blocks")
	}
	return nil
}

func validateInstr(m *wasm.Module, s *funcState, locals []wasm.ValueType, instr wasm.Instruction, features wasm.Features) *Error {
	if need, ok := requiredFeature(instr.Op); ok {
		if !features.IsEnabled(need) {
			return newErr(KindFeatureDisabled, 0, 0, "opcode %#x requires a disabled feature", instr.Op)
		}
	}

	switch instr.Op {
	case wasm.OpUnreachable:
		s.markUnreachable()
		return nil
	case wasm.OpNop:
		return nil

	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
		params, results := instr.Block.Signature(m.Types)
		if instr.Op == wasm.OpIf {
			if err := s.popExpect(wasm.ValueTypeI32); err != nil {
				return err
			}
		}
		if err := s.popExpectVals(params); err != nil {
			return err
		}
		s.pushCtrl(instr.Op, params, results)
		return nil

	case wasm.OpElse:
		top := s.ctrls[len(s.ctrls)-1]
		if top.opcode != wasm.OpIf {
			return newErr(KindUnmatchedElse, 0, 0, "else without matching if")
		}
		if _, err := s.popCtrl(); err != nil {
			return err
		}
		s.pushCtrl(wasm.OpElse, top.startTypes, top.endTypes)
		return nil

	case wasm.OpEnd:
		_, err := s.popCtrl()
		return err

	case wasm.OpBr:
		label, err := s.label(instr.Index)
		if err != nil {
			return err
		}
		if err := s.popExpectVals(label.labelTypes()); err != nil {
			return err
		}
		s.markUnreachable()
		return nil

	case wasm.OpBrIf:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		label, err := s.label(instr.Index)
		if err != nil {
			return err
		}
		lt := label.labelTypes()
		if err := s.popExpectVals(lt); err != nil {
			return err
		}
		s.pushVals(lt)
		return nil

	case wasm.OpBrTable:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		def, err := s.label(instr.Default)
		if err != nil {
			return err
		}
		arity := def.labelTypes()
		for _, l := range instr.Labels {
			lf, err := s.label(l)
			if err != nil {
				return err
			}
			if len(lf.labelTypes()) != len(arity) {
				return newErr(KindArityMismatch, 0, 0, "br_table targets disagree on arity")
			}
		}
		if err := s.popExpectVals(arity); err != nil {
			return err
		}
		s.markUnreachable()
		return nil

	case wasm.OpReturn:
		// The outermost control frame (pushed in validateFunction) always
		// carries the function's result types.
		outer := s.ctrls[0]
		if err := s.popExpectVals(outer.endTypes); err != nil {
			return err
		}
		s.markUnreachable()
		return nil

	case wasm.OpCall:
		ft := m.TypeOfFunction(instr.Index)
		if ft == nil {
			return newErr(KindUnknownIndex, 0, 0, "call references unknown function %d", instr.Index)
		}
		if err := s.popExpectVals(ft.Params); err != nil {
			return err
		}
		s.pushVals(ft.Results)
		return nil

	case wasm.OpCallIndirect:
		if int(instr.Index) >= len(m.Types) {
			return newErr(KindUnknownIndex, 0, 0, "call_indirect references unknown type %d", instr.Index)
		}
		if _, ok := tableTypeAt(m, instr.Index2); !ok {
			return newErr(KindUnknownIndex, 0, 0, "call_indirect references unknown table %d", instr.Index2)
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		ft := m.Types[instr.Index]
		if err := s.popExpectVals(ft.Params); err != nil {
			return err
		}
		s.pushVals(ft.Results)
		return nil

	case wasm.OpReturnCall:
		ft := m.TypeOfFunction(instr.Index)
		if ft == nil {
			return newErr(KindUnknownIndex, 0, 0, "return_call references unknown function %d", instr.Index)
		}
		outer := s.ctrls[0]
		if !sameResults(ft.Results, outer.endTypes) {
			return newErr(KindArityMismatch, 0, 0, "return_call target's results don't match the enclosing function")
		}
		if err := s.popExpectVals(ft.Params); err != nil {
			return err
		}
		s.markUnreachable()
		return nil

	case wasm.OpReturnCallIndirect:
		if int(instr.Index) >= len(m.Types) {
			return newErr(KindUnknownIndex, 0, 0, "return_call_indirect references unknown type %d", instr.Index)
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		ft := m.Types[instr.Index]
		outer := s.ctrls[0]
		if !sameResults(ft.Results, outer.endTypes) {
			return newErr(KindArityMismatch, 0, 0, "return_call_indirect target's results don't match the enclosing function")
		}
		if err := s.popExpectVals(ft.Params); err != nil {
			return err
		}
		s.markUnreachable()
		return nil

	case wasm.OpDrop:
		_, err := s.popVal()
		return err

	case wasm.OpSelect:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		b, err := s.popVal()
		if err != nil {
			return err
		}
		a, err := s.popVal()
		if err != nil {
			return err
		}
		if !a.unknown && !b.unknown && a.vt != b.vt {
			return newErr(KindTypeMismatch, 0, 0, "select operands have different types")
		}
		if a.unknown {
			s.opds = append(s.opds, b)
		} else {
			s.opds = append(s.opds, a)
		}
		return nil

	case wasm.OpSelectT:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		vt := instr.Block.Value
		if err := s.popExpect(vt); err != nil {
			return err
		}
		if err := s.popExpect(vt); err != nil {
			return err
		}
		s.pushVal(vt)
		return nil

	case wasm.OpLocalGet:
		if int(instr.Index) >= len(locals) {
			return newErr(KindUnknownIndex, 0, 0, "local.get references unknown local %d", instr.Index)
		}
		s.pushVal(locals[instr.Index])
		return nil

	case wasm.OpLocalSet:
		if int(instr.Index) >= len(locals) {
			return newErr(KindUnknownIndex, 0, 0, "local.set references unknown local %d", instr.Index)
		}
		return s.popExpect(locals[instr.Index])

	case wasm.OpLocalTee:
		if int(instr.Index) >= len(locals) {
			return newErr(KindUnknownIndex, 0, 0, "local.tee references unknown local %d", instr.Index)
		}
		if err := s.popExpect(locals[instr.Index]); err != nil {
			return err
		}
		s.pushVal(locals[instr.Index])
		return nil

	case wasm.OpGlobalGet:
		gt, ok := globalTypeAt(m, instr.Index)
		if !ok {
			return newErr(KindUnknownIndex, 0, 0, "global.get references unknown global %d", instr.Index)
		}
		s.pushVal(gt.ValType)
		return nil

	case wasm.OpGlobalSet:
		gt, ok := globalTypeAt(m, instr.Index)
		if !ok {
			return newErr(KindUnknownIndex, 0, 0, "global.set references unknown global %d", instr.Index)
		}
		if !gt.Mutable {
			return newErr(KindTypeMismatch, 0, 0, "global.set target %d is immutable", instr.Index)
		}
		return s.popExpect(gt.ValType)

	case wasm.OpTableGet:
		tt, ok := tableTypeAt(m, instr.Index)
		if !ok {
			return newErr(KindUnknownIndex, 0, 0, "table.get references unknown table %d", instr.Index)
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		s.pushVal(tt.ElemType)
		return nil

	case wasm.OpTableSet:
		tt, ok := tableTypeAt(m, instr.Index)
		if !ok {
			return newErr(KindUnknownIndex, 0, 0, "table.set references unknown table %d", instr.Index)
		}
		if err := s.popExpect(tt.ElemType); err != nil {
			return err
		}
		return s.popExpect(wasm.ValueTypeI32)

	case wasm.OpTableGrow:
		tt, ok := tableTypeAt(m, instr.Index)
		if !ok {
			return newErr(KindUnknownIndex, 0, 0, "table.grow references unknown table %d", instr.Index)
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := s.popExpect(tt.ElemType); err != nil {
			return err
		}
		s.pushVal(wasm.ValueTypeI32)
		return nil

	case wasm.OpTableSize:
		if _, ok := tableTypeAt(m, instr.Index); !ok {
			return newErr(KindUnknownIndex, 0, 0, "table.size references unknown table %d", instr.Index)
		}
		s.pushVal(wasm.ValueTypeI32)
		return nil

	case wasm.OpTableFill:
		tt, ok := tableTypeAt(m, instr.Index)
		if !ok {
			return newErr(KindUnknownIndex, 0, 0, "table.fill references unknown table %d", instr.Index)
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := s.popExpect(tt.ElemType); err != nil {
			return err
		}
		return s.popExpect(wasm.ValueTypeI32)

	case wasm.OpTableCopy, wasm.OpTableInit:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return s.popExpect(wasm.ValueTypeI32)

	case wasm.OpElemDrop:
		if int(instr.Index) >= len(m.Elements) {
			return newErr(KindUnknownIndex, 0, 0, "elem.drop references unknown segment %d", instr.Index)
		}
		return nil

	case wasm.OpMemorySize:
		s.pushVal(wasm.ValueTypeI32)
		return nil

	case wasm.OpMemoryGrow:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		s.pushVal(wasm.ValueTypeI32)
		return nil

	case wasm.OpMemoryCopy, wasm.OpMemoryFill:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return s.popExpect(wasm.ValueTypeI32)

	case wasm.OpMemoryInit:
		if int(instr.Index) >= len(m.Data) {
			return newErr(KindUnknownIndex, 0, 0, "memory.init references unknown segment %d", instr.Index)
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return s.popExpect(wasm.ValueTypeI32)

	case wasm.OpDataDrop:
		if int(instr.Index) >= len(m.Data) {
			return newErr(KindUnknownIndex, 0, 0, "data.drop references unknown segment %d", instr.Index)
		}
		return nil

	case wasm.OpI32Const:
		s.pushVal(wasm.ValueTypeI32)
		return nil
	case wasm.OpI64Const:
		s.pushVal(wasm.ValueTypeI64)
		return nil
	case wasm.OpF32Const:
		s.pushVal(wasm.ValueTypeF32)
		return nil
	case wasm.OpF64Const:
		s.pushVal(wasm.ValueTypeF64)
		return nil

	case wasm.OpRefNull:
		s.pushVal(instr.Block.Value)
		return nil
	case wasm.OpRefIsNull:
		v, err := s.popVal()
		if err != nil {
			return err
		}
		if !v.unknown && !wasm.IsReferenceType(v.vt) {
			return newErr(KindTypeMismatch, 0, 0, "ref.is_null expects a reference type")
		}
		s.pushVal(wasm.ValueTypeI32)
		return nil
	case wasm.OpRefFunc:
		if instr.Index >= m.FunctionCount() {
			return newErr(KindUnknownIndex, 0, 0, "ref.func references unknown function %d", instr.Index)
		}
		s.pushVal(wasm.ValueTypeFuncref)
		return nil

	case wasm.OpV128Const:
		s.pushVal(wasm.ValueTypeV128)
		return nil
	case wasm.OpI32x4Add, wasm.OpI32x4Sub, wasm.OpI32x4Mul, wasm.OpF32x4Add, wasm.OpF64x2Add:
		if err := s.popExpect(wasm.ValueTypeV128); err != nil {
			return err
		}
		if err := s.popExpect(wasm.ValueTypeV128); err != nil {
			return err
		}
		s.pushVal(wasm.ValueTypeV128)
		return nil

	case wasm.OpAtomicFence:
		return nil
	case wasm.OpMemoryAtomicNotify:
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := s.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		s.pushVal(wasm.ValueTypeI32)
		return nil
	case wasm.OpMemoryAtomicWait32:
		return validateWait(s, wasm.ValueTypeI32)
	case wasm.OpMemoryAtomicWait64:
		return validateWait(s, wasm.ValueTypeI64)
	}

	if info, ok := memOps[instr.Op]; ok {
		return validateMemOp(s, info, instr.Mem)
	}
	if info, ok := atomicOps[instr.Op]; ok {
		return validateMemOp(s, info, instr.Mem)
	}
	if sg, ok := simpleSigs[instr.Op]; ok {
		if err := s.popExpectVals(sg.pop); err != nil {
			return err
		}
		s.pushVals(sg.push)
		return nil
	}
	return newErr(KindInvalidBlockType, 0, 0, "unknown or unsupported opcode %#x", instr.Op)
}

func validateWait(s *funcState, expected wasm.ValueType) *Error {
	if err := s.popExpect(wasm.ValueTypeI64); err != nil {
		return err
	}
	if err := s.popExpect(expected); err != nil {
		return err
	}
	if err := s.popExpect(wasm.ValueTypeI32); err != nil {
		return err
	}
	s.pushVal(wasm.ValueTypeI32)
	return nil
}

func validateMemOp(s *funcState, info memOpInfo, mem wasm.MemArg) *Error {
	if mem.Align > info.maxAlign {
		return newErr(KindAlignmentTooLarge, 0, 0, "alignment 2**%d exceeds the natural alignment 2**%d", mem.Align, info.maxAlign)
	}
	if info.isStore {
		if err := s.popExpect(info.valType); err != nil {
			return err
		}
		return s.popExpect(wasm.ValueTypeI32)
	}
	if err := s.popExpect(wasm.ValueTypeI32); err != nil {
		return err
	}
	s.pushVal(info.valType)
	return nil
}

func tableTypeAt(m *wasm.Module, idx wasm.Index) (wasm.TableType, bool) {
	if idx < m.ImportedTableCount {
		i := wasm.Index(0)
		for _, imp := range m.Imports {
			if imp.Kind != 0x01 { // ExternTypeTable
				continue
			}
			if i == idx {
				return imp.Table, true
			}
			i++
		}
		return wasm.TableType{}, false
	}
	j := idx - m.ImportedTableCount
	if int(j) >= len(m.Tables) {
		return wasm.TableType{}, false
	}
	return m.Tables[j], true
}

func sameResults(a, b []wasm.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/wasm"
)

func buildModule(t *testing.T, configure func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder) *wasm.Module {
	t.Helper()
	b := configure(wasm.NewModuleBuilder())
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestValidate_SimpleFunctionPasses(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		typeIdx, b := b.AddType(&wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}})
		_, b = b.AddFunction(&wasm.Function{
			TypeIndex: typeIdx,
			Body: []wasm.Instruction{
				{Op: wasm.OpI32Const, I32: 42},
				{Op: wasm.OpEnd},
			},
		})
		return b
	})
	require.NoError(t, Validate(m, wasm.Features10))
}

func TestValidate_ResultTypeMismatchFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		typeIdx, b := b.AddType(&wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI64}})
		_, b = b.AddFunction(&wasm.Function{
			TypeIndex: typeIdx,
			Body: []wasm.Instruction{
				{Op: wasm.OpI32Const, I32: 42},
				{Op: wasm.OpEnd},
			},
		})
		return b
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
}

func TestValidate_StackUnderflowFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		typeIdx, b := b.AddType(&wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}})
		_, b = b.AddFunction(&wasm.Function{
			TypeIndex: typeIdx,
			Body: []wasm.Instruction{
				{Op: wasm.OpDrop},
				{Op: wasm.OpEnd},
			},
		})
		return b
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
}

func TestValidate_GlobalInitializerTypeMismatchFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		_, b = b.AddGlobal(wasm.GlobalType{ValType: wasm.ValueTypeI64}, wasm.ConstExpr{Op: wasm.OpI32Const, I32: 1})
		return b
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, KindTypeMismatch, verr.Kind)
}

func TestValidate_GlobalInitializerReferencingMutableGlobalFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		gidx, b := b.AddImportGlobal("env", "g", wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: true})
		_, b = b.AddGlobal(wasm.GlobalType{ValType: wasm.ValueTypeI32}, wasm.ConstExpr{Op: wasm.OpGlobalGet, GlobalIndex: gidx})
		return b
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
}

func TestValidate_ExportUnknownFunctionFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		return b
	})
	m.Exports["missing"] = wasm.Export{Name: "missing", Kind: 0x00, Index: 7}
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
}

func TestValidate_StartFunctionMustBeNullary(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		typeIdx, b := b.AddType(&wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}})
		fnIdx, b := b.AddFunction(&wasm.Function{
			TypeIndex: typeIdx,
			Body:      []wasm.Instruction{{Op: wasm.OpI32Const}, {Op: wasm.OpEnd}},
		})
		return b.SetStart(fnIdx)
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, KindArityMismatch, verr.Kind)
}

func TestValidate_ActiveDataSegmentNonI32OffsetFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		_, b = b.AddMemory(wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
		return b
	})
	m.Data = append(m.Data, wasm.DataSegment{
		Mode:       wasm.DataModeActive,
		MemoryIndex: 0,
		OffsetExpr: wasm.ConstExpr{Op: wasm.OpI64Const, I64: 0},
		Init:       []byte{1, 2, 3},
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
}

func TestValidate_CallToUnknownFunctionFails(t *testing.T) {
	m := buildModule(t, func(b *wasm.ModuleBuilder) *wasm.ModuleBuilder {
		typeIdx, b := b.AddType(&wasm.FunctionType{})
		_, b = b.AddFunction(&wasm.Function{
			TypeIndex: typeIdx,
			Body: []wasm.Instruction{
				{Op: wasm.OpCall, Index: 99},
				{Op: wasm.OpEnd},
			},
		})
		return b
	})
	err := Validate(m, wasm.Features10)
	require.Error(t, err)
}

package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func TestMemoryInit_AfterDataDropTraps(t *testing.T) {
	ft := &wasm.FunctionType{}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	b = b.AddData(wasm.DataSegment{Mode: wasm.DataModePassive, Init: []byte{1, 2, 3, 4}})
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpDataDrop, Index: 0},
			{Op: wasm.OpI32Const, I32: 0},
			{Op: wasm.OpI32Const, I32: 0},
			{Op: wasm.OpI32Const, I32: 4},
			{Op: wasm.OpMemoryInit, Index: 0},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	mem, err := memsys.New("mem0", wasm.MemoryType{Limits: wasm.Limits{Min: 1}}, memsys.NewBudget(0), memsys.VerificationFull)
	require.NoError(t, err)
	ce := NewCallEngine(inst, nil, mem, -1)

	_, err = ce.Call(context.Background(), 0, nil)
	require.Error(t, err)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, api.TrapOutOfBoundsMemoryAccess, trapErr.Kind)
}

func TestMemoryInit_SucceedsWithoutDrop(t *testing.T) {
	ft := &wasm.FunctionType{}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	b = b.AddData(wasm.DataSegment{Mode: wasm.DataModePassive, Init: []byte{9, 9, 9, 9}})
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpI32Const, I32: 0},
			{Op: wasm.OpI32Const, I32: 0},
			{Op: wasm.OpI32Const, I32: 4},
			{Op: wasm.OpMemoryInit, Index: 0},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	mem, err := memsys.New("mem0", wasm.MemoryType{Limits: wasm.Limits{Min: 1}}, memsys.NewBudget(0), memsys.VerificationFull)
	require.NoError(t, err)
	ce := NewCallEngine(inst, nil, mem, -1)

	_, err = ce.Call(context.Background(), 0, nil)
	require.NoError(t, err)
}

func TestTableInit_AfterElemDropTraps(t *testing.T) {
	ft := &wasm.FunctionType{}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	b = b.AddElement(wasm.ElementSegment{Mode: wasm.ElementModePassive, Type: wasm.ValueTypeFuncref, FuncIndexes: []wasm.Index{0}})
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpElemDrop, Index: 0},
			{Op: wasm.OpI32Const, I32: 0},
			{Op: wasm.OpI32Const, I32: 0},
			{Op: wasm.OpI32Const, I32: 1},
			{Op: wasm.OpTableInit, Index: 0, Index2: 0},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}
	inst.Tables = []*wasm.TableInstance{{Type: wasm.ValueTypeFuncref, Elements: []uint64{wasm.NullRef}}}

	ce := NewCallEngine(inst, nil, nil, -1)

	_, err = ce.Call(context.Background(), 0, nil)
	require.Error(t, err)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, api.TrapOutOfBoundsTableAccess, trapErr.Kind)
}

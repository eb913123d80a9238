package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func sharedAtomicMemory(t *testing.T) *memsys.Memory {
	t.Helper()
	max := uint32(1)
	mem, err := memsys.New("mem0", wasm.MemoryType{Limits: wasm.Limits{Min: 1, Max: &max}, Shared: true}, memsys.NewBudget(0), memsys.VerificationFull)
	require.NoError(t, err)
	return mem
}

func TestI32AtomicStore_UnalignedOffsetTraps(t *testing.T) {
	ft := &wasm.FunctionType{}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpI32Const, I32: 2},
			{Op: wasm.OpI32Const, I32: 1},
			{Op: wasm.OpI32AtomicStore},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	ce := NewCallEngine(inst, nil, sharedAtomicMemory(t), -1)

	_, err = ce.Call(context.Background(), 0, nil)
	require.Error(t, err)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, api.TrapUnalignedAtomic, trapErr.Kind)
}

func TestI32AtomicStore_AlignedOffsetSucceeds(t *testing.T) {
	ft := &wasm.FunctionType{}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpI32Const, I32: 4},
			{Op: wasm.OpI32Const, I32: 1},
			{Op: wasm.OpI32AtomicStore},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	ce := NewCallEngine(inst, nil, sharedAtomicMemory(t), -1)

	_, err = ce.Call(context.Background(), 0, nil)
	require.NoError(t, err)
}

func TestI64AtomicLoad_UnalignedOffsetTraps(t *testing.T) {
	ft := &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI64}}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpI32Const, I32: 4},
			{Op: wasm.OpI64AtomicLoad},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	ce := NewCallEngine(inst, nil, sharedAtomicMemory(t), -1)

	_, err = ce.Call(context.Background(), 0, nil)
	require.Error(t, err)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, api.TrapUnalignedAtomic, trapErr.Kind)
}

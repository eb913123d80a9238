package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/wasm"
)

// addModule builds a one-function module: (i32, i32) -> i32, adding its
// two parameters.
func addModule(t *testing.T) *wasm.Module {
	t.Helper()
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	})
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		DebugName: "add",
		Body: []wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32Add},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func addInstance(t *testing.T, m *wasm.Module) *wasm.Instance {
	t.Helper()
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{
		{Type: m.Types[m.Functions[0].TypeIndex], ModuleFuncIndex: 0, DebugName: "add"},
	}
	return inst
}

func TestCallEngine_SimpleAdd(t *testing.T) {
	m := addModule(t)
	inst := addInstance(t, m)
	ce := NewCallEngine(inst, nil, nil, -1)

	results, err := ce.Call(context.Background(), 0, []wasm.Value{wasm.I32Value(20), wasm.I32Value(22)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int32(42), results[0].I32())
}

func TestCallEngine_FuelExhaustionStopsExecution(t *testing.T) {
	m := addModule(t)
	inst := addInstance(t, m)
	ce := NewCallEngine(inst, nil, nil, 1) // one tick: not enough for 4 instructions

	_, err := ce.Call(context.Background(), 0, []wasm.Value{wasm.I32Value(1), wasm.I32Value(2)})
	require.Error(t, err)
	require.IsType(t, ErrFuelExhausted{}, err)
}

func TestCallEngine_RemainingFuelDecreasesPerInstruction(t *testing.T) {
	m := addModule(t)
	inst := addInstance(t, m)
	ce := NewCallEngine(inst, nil, nil, 100)

	_, err := ce.Call(context.Background(), 0, []wasm.Value{wasm.I32Value(1), wasm.I32Value(2)})
	require.NoError(t, err)
	require.Equal(t, int64(96), ce.RemainingFuel())
}

func TestEngine_PrepareCachesValidatedModule(t *testing.T) {
	m := addModule(t)
	e := NewEngine(4)

	me1, err := e.Prepare(m, wasm.Features10)
	require.NoError(t, err)
	me2, err := e.Prepare(m, wasm.Features10)
	require.NoError(t, err)
	require.Same(t, me1, me2)
}

func TestEngine_PrepareRejectsInvalidModule(t *testing.T) {
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}})
	_, b = b.AddFunction(&wasm.Function{TypeIndex: typeIdx, Body: []wasm.Instruction{{Op: wasm.OpEnd}}})
	m, err := b.Build()
	require.NoError(t, err)

	e := NewEngine(4)
	_, err = e.Prepare(m, wasm.Features10)
	require.Error(t, err)
}

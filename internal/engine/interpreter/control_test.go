package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func singleFuncModule(t *testing.T, ft *wasm.FunctionType, body []wasm.Instruction) (*wasm.Module, *wasm.Instance) {
	t.Helper()
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	_, b = b.AddFunction(&wasm.Function{TypeIndex: typeIdx, Body: body})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}
	return m, inst
}

func TestCallEngine_Unreachable_Traps(t *testing.T) {
	_, inst := singleFuncModule(t, &wasm.FunctionType{}, []wasm.Instruction{
		{Op: wasm.OpUnreachable},
		{Op: wasm.OpEnd},
	})
	ce := NewCallEngine(inst, nil, nil, -1)

	_, err := ce.Call(context.Background(), 0, nil)
	require.Error(t, err)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, api.TrapUnreachable, trapErr.Kind)
}

func TestCallEngine_BrIf_SkipsBlockWhenFalse(t *testing.T) {
	ft := &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}
	body := []wasm.Instruction{
		{Op: wasm.OpBlock},               // 0
		{Op: wasm.OpLocalGet, Index: 0},  // 1: condition
		{Op: wasm.OpBrIf, Index: 0},      // 2: branch to block's end if nonzero
		{Op: wasm.OpI32Const, I32: 111},  // 3: only reached if not taken
		{Op: wasm.OpDrop},                // 4
		{Op: wasm.OpEnd},                 // 5: block end
		{Op: wasm.OpI32Const, I32: 7},    // 6
		{Op: wasm.OpEnd},                 // 7: function end
	}
	_, inst := singleFuncModule(t, ft, body)
	ce := NewCallEngine(inst, nil, nil, -1)

	results, err := ce.Call(context.Background(), 0, []wasm.Value{wasm.I32Value(1)})
	require.NoError(t, err)
	require.Equal(t, int32(7), results[0].I32())
}

func TestCallEngine_LocalSetGetTee(t *testing.T) {
	ft := &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	_, b = b.AddFunction(&wasm.Function{
		TypeIndex:  typeIdx,
		LocalTypes: []wasm.ValueType{wasm.ValueTypeI32},
		Body: []wasm.Instruction{
			{Op: wasm.OpI32Const, I32: 9},
			{Op: wasm.OpLocalTee, Index: 0},
			{Op: wasm.OpDrop},
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	ce := NewCallEngine(inst, nil, nil, -1)
	results, err := ce.Call(context.Background(), 0, nil)
	require.NoError(t, err)
	require.Equal(t, int32(9), results[0].I32())
}

func TestCallEngine_CallStackExhausted(t *testing.T) {
	// A function that calls itself, to exercise the frame-depth ceiling.
	ft := &wasm.FunctionType{}
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(ft)
	fnIdx, b := b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpCall, Index: 0},
			{Op: wasm.OpEnd},
		},
	})
	m, err := b.Build()
	require.NoError(t, err)
	inst := wasm.NewInstance("inst0", m)
	inst.Functions = []*wasm.FunctionInstance{{Type: ft, ModuleFuncIndex: 0}}

	ce := NewCallEngine(inst, nil, nil, -1)
	_, err = ce.Call(context.Background(), fnIdx, nil)
	require.Error(t, err)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, api.TrapCallStackExhausted, trapErr.Kind)
}

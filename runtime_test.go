package wrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func addModule(t *testing.T) *wasm.Module {
	t.Helper()
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	})
	fnIdx, b := b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		DebugName: "add",
		Body: []wasm.Instruction{
			{Op: wasm.OpLocalGet, Index: 0},
			{Op: wasm.OpLocalGet, Index: 1},
			{Op: wasm.OpI32Add},
			{Op: wasm.OpEnd},
		},
	})
	b = b.AddExportFunc("add", fnIdx)
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestRuntime_CompileAndInstantiateAndCall(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)

	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig().WithName("inst0"))
	require.NoError(t, err)
	require.Equal(t, "inst0", mod.Name())

	fn := mod.ExportedFunction("add")
	require.NotNil(t, fn)
	results, err := fn.Call(context.Background(), 20, 22)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestRuntime_CompileCachesValidation(t *testing.T) {
	rt := NewRuntime(nil)
	m := addModule(t)
	_, err := rt.CompileModule(m)
	require.NoError(t, err)
	_, err = rt.CompileModule(m)
	require.NoError(t, err)
}

func TestRuntime_InstantiateMissingImportFails(t *testing.T) {
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{})
	_, b = b.AddImportFunc("env", "missing", typeIdx)
	m, err := b.Build()
	require.NoError(t, err)

	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(m)
	require.NoError(t, err)

	_, err = rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.Error(t, err)
	var ierr *wasm.InstantiationError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, wasm.ErrImportMissing, ierr.Kind)
}

func TestRuntime_HostFunctionCallRequiresCapability(t *testing.T) {
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}})
	_, b = b.AddImportFunc("env", "now", typeIdx)
	fnIdx, b := b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpCall, Index: 0},
			{Op: wasm.OpEnd},
		},
	})
	b = b.AddExportFunc("run", fnIdx)
	m, err := b.Build()
	require.NoError(t, err)

	rt := NewRuntime(nil)
	hb := rt.HostModuleBuilder("env")
	hb.NewFunction("now", &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}, hostbridge.CapabilityClock,
		func(ctx context.Context, params, results []wasm.Value) error {
			results[0] = wasm.I32Value(1234)
			return nil
		})

	compiled, err := rt.CompileModule(m)
	require.NoError(t, err)

	_, err = rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.Error(t, err, "instantiation should fail without the clock capability granted")

	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig().WithCapabilities(hostbridge.CapabilityClock))
	require.NoError(t, err)

	results, err := mod.ExportedFunction("run").Call(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1234), results[0])
}

func TestRuntime_StartFunctionRunsAtInstantiation(t *testing.T) {
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{})
	gIdx, b := b.AddGlobal(wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: true}, wasm.ConstExpr{Op: wasm.OpI32Const, I32: 0})
	fnIdx, b := b.AddFunction(&wasm.Function{
		TypeIndex: typeIdx,
		Body: []wasm.Instruction{
			{Op: wasm.OpI32Const, I32: 99},
			{Op: wasm.OpGlobalSet, Index: gIdx},
			{Op: wasm.OpEnd},
		},
	})
	b = b.SetStart(fnIdx).AddExportGlobal("g", gIdx)
	m, err := b.Build()
	require.NoError(t, err)

	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(m)
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	g := mod.ExportedGlobal("g")
	require.Equal(t, uint64(99), g.Get(context.Background()))
}

func TestRuntime_SetFuelAndRemainingFuel(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	mod.SetFuel(100)
	_, err = mod.ExportedFunction("add").Call(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Less(t, mod.RemainingFuel(), int64(100))
}

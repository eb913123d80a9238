package wrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func TestFunctionDefinition_DebugNameIsDefinedName(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	def := mod.ExportedFunction("add").Definition()
	require.Equal(t, "add", def.DebugName())
	require.Equal(t, []string{"add"}, def.ExportNames())
}

func TestFunctionDefinition_ParamAndResultTypes(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	def := mod.ExportedFunction("add").Definition()
	require.Equal(t, []api.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, def.ParamTypes())
	require.Equal(t, []api.ValueType{wasm.ValueTypeI32}, def.ResultTypes())
	require.Nil(t, def.GoFunc())
}

func TestFunctionDefinition_ImportReportsHostOrigin(t *testing.T) {
	b := wasm.NewModuleBuilder()
	typeIdx, b := b.AddType(&wasm.FunctionType{})
	impIdx, b := b.AddImportFunc("env", "log", typeIdx)
	b = b.AddExportFunc("log", impIdx)
	m, err := b.Build()
	require.NoError(t, err)

	rt := NewRuntime(nil)
	hb := rt.HostModuleBuilder("env")
	hb.NewFunction("log", &wasm.FunctionType{}, 0, func(ctx context.Context, params, results []wasm.Value) error { return nil })

	compiled, err := rt.CompileModule(m)
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	logDef := mod.ExportedFunction("log").Definition()
	moduleName, name, isImport := logDef.Import()
	require.True(t, isImport)
	require.Equal(t, "env", moduleName)
	require.Equal(t, "log", name)
}

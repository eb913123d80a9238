package wrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/wasm"
)

func TestModuleInstance_StringAndMemoryNilWhenNoMemoryDeclared(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig().WithName("m0"))
	require.NoError(t, err)

	require.Contains(t, mod.String(), "m0")
	require.Nil(t, mod.Memory())
}

func TestModuleInstance_MemoryAndExportedMemory(t *testing.T) {
	b := wasm.NewModuleBuilder()
	_, b = b.AddMemory(wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
	b = b.AddExportMemory("mem", 0)
	m, err := b.Build()
	require.NoError(t, err)

	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(m)
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	require.NotNil(t, mod.Memory())
	require.NotNil(t, mod.ExportedMemory("mem"))
	require.Nil(t, mod.ExportedMemory("missing"))
}

func TestModuleInstance_CloseTerminatesInstance(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	require.NoError(t, mod.Close(context.Background()))
}

func TestModuleInstance_InvokeByIndexMatchesExportedCall(t *testing.T) {
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(addModule(t))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(context.Background(), compiled, NewModuleConfig())
	require.NoError(t, err)

	mi := mod.(*moduleInstance)
	results, err := mi.InvokeByIndex(context.Background(), 0, 3, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, results)
}

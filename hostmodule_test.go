package wrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func TestHostModuleBuilder_NewFunctionIsResolvableThroughRegistry(t *testing.T) {
	registry := hostbridge.NewRegistry()
	b := &HostModuleBuilder{registry: registry, moduleName: "env"}

	sig := &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}
	b.NewFunction("double", sig, hostbridge.CapabilityClock, func(ctx context.Context, params, results []wasm.Value) error {
		results[0] = wasm.I32Value(params[0].I32() * 2)
		return nil
	})

	bridge := hostbridge.NewBridge(registry, "inst0", hostbridge.CapabilityClock)
	hf, err := bridge.Resolve("env", "double")
	require.NoError(t, err)
	require.True(t, sig.Equal(hf))
}

func TestHostModuleBuilder_CallInvokesRegisteredFunc(t *testing.T) {
	registry := hostbridge.NewRegistry()
	b := &HostModuleBuilder{registry: registry, moduleName: "env"}

	sig := &wasm.FunctionType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}
	b.NewFunction("double", sig, hostbridge.CapabilityClock, func(ctx context.Context, params, results []wasm.Value) error {
		results[0] = wasm.I32Value(params[0].I32() * 2)
		return nil
	})

	bridge := hostbridge.NewBridge(registry, "inst0", hostbridge.CapabilityClock)
	results := make([]wasm.Value, 1)
	err := bridge.Call(context.Background(), "env", "double", []wasm.Value{wasm.I32Value(21)}, results)
	require.NoError(t, err)
	require.Equal(t, int32(42), results[0].I32())
}

func TestHostModuleBuilder_RedefiningSameNameReplaces(t *testing.T) {
	registry := hostbridge.NewRegistry()
	b := &HostModuleBuilder{registry: registry, moduleName: "env"}
	sig := &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}

	b.NewFunction("f", sig, 0, func(ctx context.Context, params, results []wasm.Value) error {
		results[0] = wasm.I32Value(1)
		return nil
	})
	b.NewFunction("f", sig, 0, func(ctx context.Context, params, results []wasm.Value) error {
		results[0] = wasm.I32Value(2)
		return nil
	})

	bridge := hostbridge.NewBridge(registry, "inst0", 0)
	results := make([]wasm.Value, 1)
	err := bridge.Call(context.Background(), "env", "f", nil, results)
	require.NoError(t, err)
	require.Equal(t, int32(2), results[0].I32())
}

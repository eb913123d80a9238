package hostbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func TestBridge_ResolveGranted(t *testing.T) {
	reg := NewRegistry()
	reg.Define("env", "now", HostFunc{Type: i32Type(), Required: CapabilityClock})
	b := NewBridge(reg, "inst0", CapabilityClock)

	ft, err := b.Resolve("env", "now")
	require.NoError(t, err)
	require.True(t, ft.Equal(i32Type()))
}

func TestBridge_ResolveUnknown(t *testing.T) {
	b := NewBridge(NewRegistry(), "inst0", CapabilityAll)
	_, err := b.Resolve("env", "missing")
	require.Error(t, err)
	require.IsType(t, &UnknownHostFunctionError{}, err)
}

func TestBridge_ResolveDeniedCapability(t *testing.T) {
	reg := NewRegistry()
	reg.Define("env", "now", HostFunc{Type: i32Type(), Required: CapabilityClock})
	b := NewBridge(reg, "inst0", CapabilityNetwork)

	_, err := b.Resolve("env", "now")
	require.Error(t, err)
	require.IsType(t, &CapabilityDeniedError{}, err)
}

func TestBridge_CallInvokesHostFunc(t *testing.T) {
	reg := NewRegistry()
	reg.Define("env", "inc", HostFunc{
		Type:     i32Type(),
		Required: CapabilityNone,
		Call: func(ctx context.Context, params, results []wasm.Value) error {
			results[0] = wasm.Value{Type: wasm.ValueTypeI32, Lo: params[0].Lo + 1}
			return nil
		},
	})
	b := NewBridge(reg, "inst0", CapabilityNone)

	results := make([]wasm.Value, 1)
	err := b.Call(context.Background(), "env", "inc", []wasm.Value{{Type: wasm.ValueTypeI32, Lo: 41}}, results)
	require.NoError(t, err)
	require.Equal(t, uint64(42), results[0].Lo)
}

func TestBridge_CallDeniedCapabilityTraps(t *testing.T) {
	reg := NewRegistry()
	reg.Define("env", "f", HostFunc{Type: i32Type(), Required: CapabilityFilesystem})
	b := NewBridge(reg, "inst0", CapabilityNone)

	err := b.Call(context.Background(), "env", "f", nil, nil)
	require.Error(t, err)
	var trap *TrapError
	require.ErrorAs(t, err, &trap)
	require.Equal(t, api.TrapCapabilityDenied, trap.Kind)
}

func TestBridge_CallHostErrorWrappedAsTrapHost(t *testing.T) {
	reg := NewRegistry()
	wantErr := errors.New("boom")
	reg.Define("env", "f", HostFunc{
		Type:     i32Type(),
		Required: CapabilityNone,
		Call:     func(ctx context.Context, params, results []wasm.Value) error { return wantErr },
	})
	b := NewBridge(reg, "inst0", CapabilityAll)

	err := b.Call(context.Background(), "env", "f", nil, nil)
	var trap *TrapError
	require.ErrorAs(t, err, &trap)
	require.Equal(t, api.TrapHost, trap.Kind)
	require.ErrorIs(t, err, wantErr)
}

func TestBridge_CallUnknownTraps(t *testing.T) {
	b := NewBridge(NewRegistry(), "inst0", CapabilityAll)
	err := b.Call(context.Background(), "env", "missing", nil, nil)
	var trap *TrapError
	require.ErrorAs(t, err, &trap)
	require.Equal(t, api.TrapHost, trap.Kind)
}

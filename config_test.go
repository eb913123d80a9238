package wrt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func TestConfig_DefaultsToWasm10AndFullVerification(t *testing.T) {
	c := NewConfig()
	require.Equal(t, wasm.Features10, c.enabledFeatures)
	require.Equal(t, memsys.VerificationFull, c.verification)
	require.Equal(t, int64(defaultFuel), c.fuel)
}

func TestConfig_WithFinishedFeaturesWidensTo20(t *testing.T) {
	c := NewConfig().WithFinishedFeatures()
	require.Equal(t, wasm.Features20, c.enabledFeatures)
}

func TestConfig_WithFeatureTogglesSingleBit(t *testing.T) {
	c := NewConfig().WithFeature(api.CoreFeatureTailCall, true)
	require.True(t, c.enabledFeatures&api.CoreFeatureTailCall != 0)

	c2 := c.WithFeature(api.CoreFeatureTailCall, false)
	require.False(t, c2.enabledFeatures&api.CoreFeatureTailCall != 0)
}

func TestConfig_IsImmutable(t *testing.T) {
	base := NewConfig()
	derived := base.WithFuel(1)
	require.NotEqual(t, base.fuel, derived.fuel)
	require.Equal(t, int64(defaultFuel), base.fuel, "WithFuel must not mutate the receiver")
}

func TestConfig_WithMemoryBudgetAndVerificationLevel(t *testing.T) {
	c := NewConfig().WithMemoryBudget(4096).WithVerificationLevel(memsys.VerificationOff)
	require.Equal(t, uint64(4096), c.memoryBudgetBytes)
	require.Equal(t, memsys.VerificationOff, c.verification)
}

func TestConfig_WithModuleCacheSize(t *testing.T) {
	c := NewConfig().WithModuleCacheSize(8)
	require.Equal(t, 8, c.cacheSize)
}

func TestModuleConfig_DefaultsGrantNoCapabilities(t *testing.T) {
	c := NewModuleConfig()
	require.Equal(t, hostbridge.Capability(0), c.grants)
	require.False(t, c.fuelIsSet)
}

func TestModuleConfig_WithNameAndCapabilitiesAndFuel(t *testing.T) {
	c := NewModuleConfig().WithName("guest").WithCapabilities(hostbridge.CapabilityClock).WithFuel(42)
	require.Equal(t, "guest", c.name)
	require.Equal(t, hostbridge.CapabilityClock, c.grants)
	require.True(t, c.fuelIsSet)
	require.Equal(t, int64(42), c.fuel)
}

func TestModuleConfig_WithImportedMemoryTableGlobal(t *testing.T) {
	mem, err := memsys.New("m", wasm.MemoryType{Limits: wasm.Limits{Min: 1}}, memsys.NewBudget(0), memsys.VerificationFull)
	require.NoError(t, err)
	tbl := &wasm.TableInstance{Type: wasm.ValueTypeFuncref}
	glob := &wasm.GlobalInstance{Type: wasm.GlobalType{ValType: wasm.ValueTypeI32}}

	c := NewModuleConfig().
		WithImportedMemory("env", "mem", mem).
		WithImportedTable("env", "tbl", tbl).
		WithImportedGlobal("env", "glob", glob)

	require.Same(t, mem, c.memories[importKey{"env", "mem"}])
	require.Same(t, tbl, c.tables[importKey{"env", "tbl"}])
	require.Same(t, glob, c.globals[importKey{"env", "glob"}])
}

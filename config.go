package wrt

import (
	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/features"
	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// defaultFuel is the per-call budget a ModuleConfig inherits when it
// doesn't set its own, generous enough for typical automotive control-loop
// functions without being effectively unbounded.
const defaultFuel = 10_000_000

// Config controls Runtime-wide behavior: which Core proposals validate,
// the default per-call fuel budget, the process-wide memory budget, and
// the integrity-checking cost/coverage tradeoff. Immutable: every With*
// method clones and returns a new *Config, following the teacher's
// RuntimeConfig pattern.
type Config struct {
	enabledFeatures   wasm.Features
	fuel              int64
	memoryBudgetBytes uint64
	verification      memsys.VerificationLevel
	cacheSize         int
}

// NewConfig returns the default configuration: WebAssembly 1.0 features,
// defaultFuel per call, an unbounded memory budget, and full checksum
// verification. Feature flags named by the WRTFEATURES environment
// variable (internal/features) are folded in on top of the 1.0 baseline,
// so a deployment can widen validation without a code change.
func NewConfig() *Config {
	c := &Config{
		enabledFeatures:   wasm.Features10,
		fuel:              defaultFuel,
		memoryBudgetBytes: 0,
		verification:      memsys.VerificationFull,
		cacheSize:         64,
	}
	features.EnableFromEnvironment()
	for _, name := range features.List() {
		if bit, ok := featureBit(name); ok {
			c.enabledFeatures |= bit
		}
	}
	return c
}

func (c *Config) clone() *Config {
	cp := *c
	return &cp
}

// WithFinishedFeatures enables every Core proposal that reached Phase 4
// ("finished") as of this core's vintage, for compatibility with tools
// that assume a fully-featured engine.
func (c *Config) WithFinishedFeatures() *Config {
	ret := c.clone()
	ret.enabledFeatures = wasm.Features20
	return ret
}

// WithFeature enables or disables a single Core proposal.
func (c *Config) WithFeature(bit wasm.Features, enabled bool) *Config {
	ret := c.clone()
	if enabled {
		ret.enabledFeatures |= bit
	} else {
		ret.enabledFeatures &^= bit
	}
	return ret
}

// WithFuel sets the default per-call fuel budget new Instances use unless
// overridden by ModuleConfig.WithFuel.
func (c *Config) WithFuel(fuel int64) *Config {
	ret := c.clone()
	ret.fuel = fuel
	return ret
}

// WithMemoryBudget caps the total linear-memory bytes this Runtime's
// Instances may allocate, across every memory of every Instance it
// creates. Zero (the default) means unbounded.
func (c *Config) WithMemoryBudget(bytes uint64) *Config {
	ret := c.clone()
	ret.memoryBudgetBytes = bytes
	return ret
}

// WithVerificationLevel sets the linear-memory checksum recomputation
// policy new Instances' memories use.
func (c *Config) WithVerificationLevel(level memsys.VerificationLevel) *Config {
	ret := c.clone()
	ret.verification = level
	return ret
}

// WithModuleCacheSize bounds how many distinct validated modules the
// Runtime's interpreter Engine keeps before evicting the least recently
// used.
func (c *Config) WithModuleCacheSize(n int) *Config {
	ret := c.clone()
	ret.cacheSize = n
	return ret
}

func featureBit(name string) (wasm.Features, bool) {
	switch name {
	case features.SIMD:
		return 0, false // no env toggle; the SIMD subset is gated by api.CoreFeatureSIMD via WithFeature
	case features.BulkMemory:
		return api.CoreFeatureBulkMemoryOperations, true
	case features.ReferenceTypes:
		return api.CoreFeatureReferenceTypes, true
	case features.Threads:
		return api.CoreFeatureThreads, true
	case features.MultiValue:
		return api.CoreFeatureMultiValue, true
	case features.TailCall:
		return api.CoreFeatureTailCall, true
	case features.NonTrappingConv:
		return api.CoreFeatureNonTrappingFloatToIntConversion, true
	default:
		return 0, false
	}
}

// ModuleConfig scopes per-Instance resources: its name, the capabilities
// its host imports are granted, and an override of the Runtime's default
// fuel budget. Mirrors the teacher's ModuleConfig, narrowed to what a
// capability-scoped embedded engine needs (no stdio/filesystem/env
// passthrough: host functions reach those, if at all, through the bridge).
type ModuleConfig struct {
	name       string
	grants     hostbridge.Capability
	fuel       int64
	fuelIsSet  bool
	memories   map[importKey]*memsys.Memory
	tables     map[importKey]*wasm.TableInstance
	globals    map[importKey]*wasm.GlobalInstance
}

type importKey struct {
	module, name string
}

// NewModuleConfig returns a ModuleConfig granting no capabilities and
// inheriting the Runtime's default fuel.
func NewModuleConfig() *ModuleConfig {
	return &ModuleConfig{}
}

// WithName sets the instance's name, used to qualify its own exports when
// other instances import from it and in diagnostics.
func (c *ModuleConfig) WithName(name string) *ModuleConfig {
	c.name = name
	return c
}

// WithCapabilities grants the capability bits an instance's host imports
// are checked against, both at resolution and at every call.
func (c *ModuleConfig) WithCapabilities(grants hostbridge.Capability) *ModuleConfig {
	c.grants = grants
	return c
}

// WithFuel overrides the Runtime's default per-call fuel budget for this
// instance.
func (c *ModuleConfig) WithFuel(fuel int64) *ModuleConfig {
	c.fuel = fuel
	c.fuelIsSet = true
	return c
}

// WithImportedMemory supplies the memory instance bound to an imported
// memory (module, name). Required for every memory import a module
// declares; omitted imports fail instantiation with ErrImportMissing.
func (c *ModuleConfig) WithImportedMemory(module, name string, mem *memsys.Memory) *ModuleConfig {
	if c.memories == nil {
		c.memories = map[importKey]*memsys.Memory{}
	}
	c.memories[importKey{module, name}] = mem
	return c
}

// WithImportedTable supplies the table instance bound to an imported
// table (module, name).
func (c *ModuleConfig) WithImportedTable(module, name string, t *wasm.TableInstance) *ModuleConfig {
	if c.tables == nil {
		c.tables = map[importKey]*wasm.TableInstance{}
	}
	c.tables[importKey{module, name}] = t
	return c
}

// WithImportedGlobal supplies the global instance bound to an imported
// global (module, name).
func (c *ModuleConfig) WithImportedGlobal(module, name string, g *wasm.GlobalInstance) *ModuleConfig {
	if c.globals == nil {
		c.globals = map[importKey]*wasm.GlobalInstance{}
	}
	c.globals[importKey{module, name}] = g
	return c
}

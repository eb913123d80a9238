// Package wrt is the embedder-facing surface of the core execution engine:
// compiling an in-memory wasm.Module, instantiating it against a
// capability-scoped set of host imports, and invoking its exports.
//
// The binary decoder is out of scope (spec.md §1): callers either already
// hold a decoded *wasm.Module, or build one with wasm.ModuleBuilder.
package wrt

import (
	"context"
	"fmt"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/diag"
	"github.com/pulseengine/wrt-go/internal/engine/interpreter"
	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// Runtime is the entry point for compiling and instantiating modules. One
// Runtime owns one interpreter Engine (and its validated-module cache), one
// host function Registry, and one process-wide memory Budget, so every
// Instance it creates shares the same resource ceilings.
type Runtime interface {
	// CompileModule validates m under the Runtime's enabled features,
	// returning a CompiledModule ready to instantiate. Validation runs at
	// most once per distinct wasm.ModuleID (internal/engine/interpreter's
	// LRU cache).
	CompileModule(m *wasm.Module) (*CompiledModule, error)

	// InstantiateModule allocates memories/tables/globals, resolves
	// imports, runs active segments and the start function, and returns
	// the resulting api.Module. No partially-initialized instance is ever
	// returned: any failure yields a non-nil error and a nil Module.
	InstantiateModule(ctx context.Context, compiled *CompiledModule, cfg *ModuleConfig) (api.Module, error)

	// HostModuleBuilder begins registering host functions under the given
	// module namespace, for later import resolution.
	HostModuleBuilder(moduleName string) *HostModuleBuilder
}

type runtime struct {
	config   *Config
	engine   *interpreter.Engine
	registry *hostbridge.Registry
	budget   *memsys.Budget
}

// NewRuntime creates a Runtime from cfg, or from NewConfig() if cfg is nil.
func NewRuntime(cfg *Config) Runtime {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &runtime{
		config:   cfg,
		engine:   interpreter.NewEngine(cfg.cacheSize),
		registry: hostbridge.NewRegistry(),
		budget:   memsys.NewBudget(cfg.memoryBudgetBytes),
	}
}

// CompiledModule is a wasm.Module that has validated successfully under a
// Runtime's enabled features and is ready to instantiate. Naming mirrors
// the teacher's CompiledCode/Module split: the pre- and post-instantiation
// phases use different types so neither name is overloaded.
type CompiledModule struct {
	module *wasm.Module
}

func (rt *runtime) CompileModule(m *wasm.Module) (*CompiledModule, error) {
	if _, err := rt.engine.Prepare(m, rt.config.enabledFeatures); err != nil {
		diag.InstantiationFailed(moduleDebugName(m), err)
		return nil, err
	}
	return &CompiledModule{module: m}, nil
}

func (rt *runtime) HostModuleBuilder(moduleName string) *HostModuleBuilder {
	return &HostModuleBuilder{registry: rt.registry, moduleName: moduleName}
}

func (rt *runtime) InstantiateModule(ctx context.Context, compiled *CompiledModule, cfg *ModuleConfig) (api.Module, error) {
	if cfg == nil {
		cfg = NewModuleConfig()
	}
	m := compiled.module
	inst := wasm.NewInstance(cfg.name, m)

	bridge := hostbridge.NewBridge(rt.registry, cfg.name, cfg.grants)
	if err := bindImports(inst, m, cfg, bridge); err != nil {
		diag.InstantiationFailed(moduleDebugName(m), err)
		return nil, err
	}
	if err := allocateDefined(inst, m, rt.budget, rt.config.verification); err != nil {
		diag.InstantiationFailed(moduleDebugName(m), err)
		return nil, err
	}
	if err := runActiveSegments(inst, m); err != nil {
		diag.InstantiationFailed(moduleDebugName(m), err)
		return nil, err
	}

	fuel := rt.config.fuel
	if cfg.fuelIsSet {
		fuel = cfg.fuel
	}
	mi := &moduleInstance{
		runtime:   rt,
		instance:  inst,
		bridge:    bridge,
		memory:    instanceMemory(inst),
		fuelLimit: fuel,
		fuelLeft:  fuel,
	}

	if m.StartFunc != nil {
		ce := interpreter.NewCallEngine(inst, bridge, mi.memory, fuel)
		if _, err := ce.Call(ctx, *m.StartFunc, nil); err != nil {
			ierr := &wasm.InstantiationError{Kind: wasm.ErrStartFunctionTrapped, Message: "start function trapped", Cause: err}
			diag.InstantiationFailed(moduleDebugName(m), ierr)
			return nil, ierr
		}
	}

	inst.State = wasm.InstanceActive
	diag.Instantiated(moduleDebugName(m), cfg.name)
	return mi, nil
}

// instanceMemory returns the Instance's single linear memory (spec.md's
// pre-multi-memory invariant: at most one memory per instance), or nil if
// it declares none.
func instanceMemory(inst *wasm.Instance) *memsys.Memory {
	if len(inst.Memories) == 0 {
		return nil
	}
	mem, _ := inst.Memories[0].Backing.(*memsys.Memory)
	return mem
}

func moduleDebugName(m *wasm.Module) string {
	return fmt.Sprintf("module-%s", m.ID)
}

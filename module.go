package wrt

import (
	"context"
	"fmt"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/engine/interpreter"
	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// moduleInstance implements api.Module over a wasm.Instance, bridging the
// embedder-facing uint64-encoded call convention to the interpreter's
// wasm.Value one.
type moduleInstance struct {
	runtime  *runtime
	instance *wasm.Instance
	bridge   *hostbridge.Bridge
	memory   *memsys.Memory

	fuelLimit int64
	fuelLeft  int64
}

func (m *moduleInstance) String() string { return fmt.Sprintf("Module[%s]", m.instance.Name) }
func (m *moduleInstance) Name() string   { return m.instance.Name }

func (m *moduleInstance) Memory() api.Memory {
	if m.memory == nil {
		return nil
	}
	return &memoryView{mem: m.memory}
}

func (m *moduleInstance) ExportedMemory(name string) api.Memory {
	exp, ok := m.instance.Module.Exports[name]
	if !ok || exp.Kind != api.ExternTypeMemory {
		return nil
	}
	mem, _ := m.instance.Memories[exp.Index].Backing.(*memsys.Memory)
	if mem == nil {
		return nil
	}
	return &memoryView{mem: mem}
}

func (m *moduleInstance) ExportedGlobal(name string) api.Global {
	exp, ok := m.instance.Module.Exports[name]
	if !ok || exp.Kind != api.ExternTypeGlobal {
		return nil
	}
	return &globalView{global: m.instance.Globals[exp.Index]}
}

func (m *moduleInstance) ExportedFunction(name string) api.Function {
	exp, ok := m.instance.Module.Exports[name]
	if !ok || exp.Kind != api.ExternTypeFunc {
		return nil
	}
	return &exportedFunction{module: m, funcIdx: exp.Index, exportName: name}
}

// SetFuel overrides the per-call fuel budget used by subsequent Call
// invocations on this instance's exported functions (spec.md §4.3's
// fuel-bounded execution, exposed to the embedder per SPEC_FULL.md §8's
// named Invoke/SetFuel/RemainingFuel entry points).
func (m *moduleInstance) SetFuel(fuel int64) {
	m.fuelLimit = fuel
	m.fuelLeft = fuel
}

// RemainingFuel reports the fuel left over from the most recently
// completed call, or the configured limit if no call has run yet.
func (m *moduleInstance) RemainingFuel() int64 {
	return m.fuelLeft
}

// InvokeByIndex calls the function at funcIdx in this instance's function
// index space directly, bypassing export-name lookup — used by embedders
// that already resolved an index (e.g. via call_indirect tooling or a
// cached FunctionDefinition.Index()).
func (m *moduleInstance) InvokeByIndex(ctx context.Context, funcIdx wasm.Index, params ...uint64) ([]uint64, error) {
	ft := m.instance.Module.TypeOfFunction(funcIdx)
	if ft == nil {
		return nil, fmt.Errorf("function index %d out of range", funcIdx)
	}
	args := make([]wasm.Value, len(ft.Params))
	for i, pt := range ft.Params {
		args[i] = decodeValue(pt, params[i])
	}
	ce := interpreter.NewCallEngine(m.instance, m.bridge, m.memory, m.fuelLimit)
	results, err := ce.Call(ctx, funcIdx, args)
	m.fuelLeft = ce.RemainingFuel()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(results))
	for i, r := range results {
		out[i] = r.Lo
	}
	return out, nil
}

func (m *moduleInstance) CloseWithExitCode(ctx context.Context, exitCode uint32) error {
	m.instance.Terminate()
	return nil
}

func (m *moduleInstance) Close(ctx context.Context) error {
	return m.CloseWithExitCode(ctx, 0)
}

func decodeValue(vt wasm.ValueType, raw uint64) wasm.Value {
	if vt == wasm.ValueTypeI64 || vt == wasm.ValueTypeF64 {
		return wasm.Value{Type: vt, Lo: raw}
	}
	return wasm.Value{Type: vt, Lo: uint64(uint32(raw))}
}

// globalView implements api.Global and api.MutableGlobal over a
// wasm.GlobalInstance.
type globalView struct {
	global *wasm.GlobalInstance
}

func (g *globalView) String() string   { return fmt.Sprintf("Global(%s)", wasm.ValueTypeName(g.global.Type.ValType)) }
func (g *globalView) Type() api.ValueType { return g.global.Type.ValType }
func (g *globalView) Get(context.Context) uint64 { return g.global.Value.Lo }
func (g *globalView) Set(ctx context.Context, v uint64) {
	g.global.Value = decodeValue(g.global.Type.ValType, v)
}

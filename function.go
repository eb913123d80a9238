package wrt

import (
	"context"
	"fmt"
	"reflect"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// exportedFunction implements api.Function (and, via Invoke, the
// InvokeByIndex-style convenience SPEC_FULL.md §8 names) over one export
// of a moduleInstance.
type exportedFunction struct {
	module     *moduleInstance
	funcIdx    wasm.Index
	exportName string
}

func (f *exportedFunction) Definition() api.FunctionDefinition {
	return &functionDefinition{module: f.module, funcIdx: f.funcIdx, exportName: f.exportName}
}

// Call invokes the function, encoding/decoding parameters and results per
// api.EncodeI32 and friends.
func (f *exportedFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f.module.InvokeByIndex(ctx, f.funcIdx, params...)
}

// Invoke is an alias for Call, named to match the engine's own
// Invoke/InvokeByIndex vocabulary (Call exists to satisfy api.Function).
func (f *exportedFunction) Invoke(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f.Call(ctx, params...)
}

// functionDefinition implements api.FunctionDefinition. GoFunc always
// returns nil: this core never hosts reflection-based Go functions
// directly (host functions are registered through HostModuleBuilder's
// explicit, typed HostFunc, not reflect.Value), so there is nothing to
// report there.
type functionDefinition struct {
	module     *moduleInstance
	funcIdx    wasm.Index
	exportName string
}

func (d *functionDefinition) ModuleName() string { return d.module.instance.Name }
func (d *functionDefinition) Index() uint32      { return d.funcIdx }

func (d *functionDefinition) Name() string {
	fi := d.module.instance.Functions[d.funcIdx]
	return fi.DebugName
}

func (d *functionDefinition) DebugName() string {
	fi := d.module.instance.Functions[d.funcIdx]
	if fi.DebugName != "" {
		return fi.DebugName
	}
	return fmt.Sprintf(".$%d", d.funcIdx)
}

func (d *functionDefinition) Import() (moduleName, name string, isImport bool) {
	fi := d.module.instance.Functions[d.funcIdx]
	if fi.IsHostFunction {
		return fi.ImportModule, fi.ImportName, true
	}
	return "", "", false
}

func (d *functionDefinition) ExportNames() []string {
	var names []string
	for name, exp := range d.module.instance.Module.Exports {
		if exp.Kind == api.ExternTypeFunc && exp.Index == d.funcIdx {
			names = append(names, name)
		}
	}
	return names
}

func (d *functionDefinition) GoFunc() *reflect.Value { return nil }

func (d *functionDefinition) ParamTypes() []api.ValueType {
	return d.module.instance.Module.TypeOfFunction(d.funcIdx).Params
}

func (d *functionDefinition) ParamNames() []string { return nil }

func (d *functionDefinition) ResultTypes() []api.ValueType {
	return d.module.instance.Module.TypeOfFunction(d.funcIdx).Results
}

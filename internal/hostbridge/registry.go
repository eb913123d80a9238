package hostbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/pulseengine/wrt-go/internal/wasm"
)

// HostFunc is a host function body. params and a results buffer are sized
// to match Type exactly; HostFunc must not retain either slice past return.
type HostFunc struct {
	Type     *wasm.FunctionType
	Required Capability
	Call     func(ctx context.Context, params []wasm.Value, results []wasm.Value) error
}

// Registry is the process-wide table of host functions a Runtime can bind
// imports against, keyed by (module, name) the way a Wasm import is.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]map[string]HostFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]map[string]HostFunc{}}
}

// Define registers a host function under (module, name). Redefining an
// existing (module, name) pair replaces it.
func (r *Registry) Define(module, name string, fn HostFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs[module] == nil {
		r.funcs[module] = map[string]HostFunc{}
	}
	r.funcs[module][name] = fn
}

// Lookup resolves (module, name), reporting ok=false if nothing is
// registered there.
func (r *Registry) Lookup(module, name string) (HostFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns, ok := r.funcs[module]
	if !ok {
		return HostFunc{}, false
	}
	fn, ok := fns[name]
	return fn, ok
}

// DefinedModules lists the module namespaces with at least one registered
// function, for import-resolution diagnostics.
func (r *Registry) DefinedModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for m := range r.funcs {
		out = append(out, m)
	}
	return out
}

// UnknownHostFunctionError reports an import the registry has no binding
// for.
type UnknownHostFunctionError struct {
	Module, Name string
}

func (e *UnknownHostFunctionError) Error() string {
	return fmt.Sprintf("host function %s.%s is not registered", e.Module, e.Name)
}

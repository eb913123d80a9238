package wrt

import (
	"context"

	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// HostModuleBuilder registers host functions under one module namespace
// for later import resolution. Deliberately narrower than the teacher's
// reflection-based ModuleBuilder (WithGoFunction/WithFunc over
// reflect.Value): an ASIL-targeted core favors an explicit, typed
// signature and an explicit required Capability over inferring both from
// a Go function's shape (see DESIGN.md).
type HostModuleBuilder struct {
	registry   *hostbridge.Registry
	moduleName string
}

// HostFunc is the signature a registered host function implements: exactly
// len(params) parameters and len(results) results, typed as declared.
type HostFunc func(ctx context.Context, params []wasm.Value, results []wasm.Value) error

// NewFunction registers name within this builder's module namespace,
// gated by required — an instance can only resolve this import if its
// ModuleConfig grants every bit in required.
func (b *HostModuleBuilder) NewFunction(name string, sig *wasm.FunctionType, required hostbridge.Capability, fn HostFunc) *HostModuleBuilder {
	b.registry.Define(b.moduleName, name, hostbridge.HostFunc{
		Type:     sig,
		Required: required,
		Call:     func(ctx context.Context, params, results []wasm.Value) error { return fn(ctx, params, results) },
	})
	return b
}

package hostbridge

import (
	"context"
	"fmt"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/diag"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// CapabilityDeniedError is returned (and surfaces to the interpreter as
// api.TrapCapabilityDenied) when an instance calls a host function it
// wasn't granted the capability for.
type CapabilityDeniedError struct {
	Module, Name string
	Required     Capability
	Granted      Capability
}

func (e *CapabilityDeniedError) Error() string {
	return fmt.Sprintf("capability denied calling %s.%s: requires %s, instance has %s",
		e.Module, e.Name, e.Required, e.Granted)
}

// Bridge binds one Instance's granted capabilities to a Registry, and is
// the sole path by which the interpreter's call-to-import dispatch reaches
// host code (spec.md §4.4).
type Bridge struct {
	registry *Registry
	granted  Capability
	instance string
}

// NewBridge creates a Bridge for an instance named instanceName, scoped to
// granted capabilities against registry.
func NewBridge(registry *Registry, instanceName string, granted Capability) *Bridge {
	return &Bridge{registry: registry, granted: granted, instance: instanceName}
}

// Resolve looks up (module, name) and checks it against the bridge's
// granted capabilities, without calling it — used during instantiation to
// fail import resolution eagerly rather than at first call.
func (b *Bridge) Resolve(module, name string) (*wasm.FunctionType, error) {
	fn, ok := b.registry.Lookup(module, name)
	if !ok {
		return nil, &UnknownHostFunctionError{Module: module, Name: name}
	}
	if fn.Required != CapabilityNone && !b.granted.Has(fn.Required) {
		diag.CapabilityDenied(b.instance, module, name)
		return nil, &CapabilityDeniedError{Module: module, Name: name, Required: fn.Required, Granted: b.granted}
	}
	return fn.Type, nil
}

// Call invokes (module, name), re-checking capability (cheap bitwise test,
// and the only defense against a capability grant changing between resolve
// and call in an embedder that allows that). Returns api.TrapCapabilityDenied
// or api.TrapHost wrapping the host function's own error, never a bare Go
// error, so the interpreter can fold it into the uniform trap path.
func (b *Bridge) Call(ctx context.Context, module, name string, params, results []wasm.Value) error {
	fn, ok := b.registry.Lookup(module, name)
	if !ok {
		return &TrapError{Kind: api.TrapHost, Cause: &UnknownHostFunctionError{Module: module, Name: name}}
	}
	if fn.Required != CapabilityNone && !b.granted.Has(fn.Required) {
		diag.CapabilityDenied(b.instance, module, name)
		return &TrapError{Kind: api.TrapCapabilityDenied, Cause: &CapabilityDeniedError{Module: module, Name: name, Required: fn.Required, Granted: b.granted}}
	}
	if err := fn.Call(ctx, params, results); err != nil {
		return &TrapError{Kind: api.TrapHost, Cause: err}
	}
	return nil
}

// TrapError adapts a hostbridge failure to the interpreter's trap
// vocabulary (api.TrapKind), so callers one layer up don't need to know
// whether a trap originated in the interpreter or at the host boundary.
type TrapError struct {
	Kind  api.TrapKind
	Cause error
}

func (e *TrapError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Cause) }
func (e *TrapError) Unwrap() error { return e.Cause }

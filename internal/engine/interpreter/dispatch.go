package interpreter

import (
	"context"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// callEngine is the per-call execution state: one shared operand stack and
// an explicit frame stack, no Go-native recursion (spec.md §4.3). Created
// fresh for each top-level exported-function invocation by NewCallEngine.
type callEngine struct {
	instance *wasm.Instance
	bridge   *hostbridge.Bridge
	memory   *memsys.Memory
	fuel     int64

	operands valueStack
	frames   []*frame
}

// Call invokes funcIdx (in the instance's function index space) with
// params, running until it returns, traps, or exhausts its fuel.
func (ce *callEngine) Call(ctx context.Context, funcIdx wasm.Index, params []wasm.Value) ([]wasm.Value, error) {
	fi := ce.instance.Functions[funcIdx]
	if fi.IsHostFunction {
		results := make([]wasm.Value, len(fi.Type.Results))
		if err := ce.bridge.Call(ctx, fi.ImportModule, fi.ImportName, params, results); err != nil {
			return nil, unwrapHostTrap(err)
		}
		return results, nil
	}
	if err := ce.pushCall(funcIdx, params); err != nil {
		return nil, err
	}
	if _, err := ce.run(ctx); err != nil {
		return nil, err
	}
	return ce.callResults(len(fi.Type.Results)), nil
}

func unwrapHostTrap(err error) error {
	if te, ok := err.(*hostbridge.TrapError); ok {
		return &TrapError{Kind: te.Kind, Message: te.Error()}
	}
	return err
}

// pushCall sets up a new frame for the module-defined function at funcIdx,
// consuming params as its initial locals and zero-initializing its
// declared locals, per spec.md §3.4.
func (ce *callEngine) pushCall(funcIdx wasm.Index, params []wasm.Value) error {
	if len(ce.frames) >= maxFrameStack {
		return trap(api.TrapCallStackExhausted, "call depth exceeds %d frames", maxFrameStack)
	}
	m := ce.instance.Module
	fn := m.Functions[funcIdx-ce.instance.Module.ImportedFunctionCount]
	ft := m.TypeOfFunction(funcIdx)

	locals := make([]wasm.Value, len(ft.Params)+len(fn.LocalTypes))
	copy(locals, params)
	for i, lt := range fn.LocalTypes {
		locals[len(ft.Params)+i] = zeroValue(lt)
	}

	base := ce.operands.height()
	f := &frame{
		fn:          fn,
		funcIdx:     funcIdx,
		locals:      locals,
		operandBase: base,
	}
	f.labels = append(f.labels, label{
		opcode:         wasm.OpBlock,
		continuationPC: len(fn.Body),
		arity:          len(ft.Results),
		operandBase:    base,
	})
	ce.frames = append(ce.frames, f)
	return nil
}

func zeroValue(vt wasm.ValueType) wasm.Value {
	if wasm.IsReferenceType(vt) {
		return wasm.Value{Type: vt, Lo: wasm.NullRef}
	}
	return wasm.Value{Type: vt}
}

// run executes frames until the call's outermost frame returns or a trap
// occurs.
func (ce *callEngine) run(ctx context.Context) ([]wasm.Value, error) {
	baseFrameDepth := len(ce.frames) - 1
	for len(ce.frames) > baseFrameDepth {
		f := ce.frames[len(ce.frames)-1]
		if f.pc >= len(f.fn.Body) {
			// A well-formed body always ends in an explicit `end`
			// instruction, which exitFunction already handles; reaching
			// this means a body was given with no trailing end.
			if err := ce.exitFunction(f); err != nil {
				return nil, err
			}
			continue
		}
		instr := f.fn.Body[f.pc]
		f.pc++
		if err := ce.fuelTick(); err != nil {
			return nil, err
		}
		if err := ce.execute(ctx, f, instr); err != nil {
			return nil, err
		}
	}
	// Results of the outermost call sit on top of the shared operand
	// stack; the caller already knows how many to expect.
	return nil, nil
}

// exitFunction pops f's outermost label (treating it as the function's
// own return), producing f's result values on the shared operand stack
// above the caller's floor, then pops f itself.
func (ce *callEngine) exitFunction(f *frame) error {
	outer := f.labels[0]
	results := ce.operands.popN(outer.arity)
	ce.operands.truncate(outer.operandBase)
	for _, r := range results {
		if err := ce.operands.push(r); err != nil {
			return err
		}
	}
	ce.frames = ce.frames[:len(ce.frames)-1]
	return nil
}

// callResults extracts the n result values a just-finished Call left on
// top of the operand stack — used by the top-level Call entry point, which
// doesn't otherwise see the shared stack.
func (ce *callEngine) callResults(n int) []wasm.Value {
	return ce.operands.popN(n)
}

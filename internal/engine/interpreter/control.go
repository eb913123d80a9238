package interpreter

import (
	"context"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// execute runs one instruction against frame f, which belongs to ce and is
// always ce's innermost frame at the time of the call.
func (ce *callEngine) execute(ctx context.Context, f *frame, instr wasm.Instruction) error {
	switch instr.Op {
	case wasm.OpUnreachable:
		return trap(api.TrapUnreachable, "")
	case wasm.OpNop:
		return nil

	case wasm.OpBlock, wasm.OpLoop:
		return ce.enterBlock(f, instr)
	case wasm.OpIf:
		cond := ce.operands.pop()
		if cond.I32() != 0 {
			return ce.enterBlock(f, instr)
		}
		if instr.ElsePC != 0 {
			f.pc = instr.ElsePC + 1
			return ce.enterBlock(f, instr)
		}
		f.pc = instr.ContinuationPC + 1
		return nil
	case wasm.OpElse:
		// Reached by falling out of the `then` arm: treat exactly like
		// `end` for the enclosing if/else label, then skip to the real end.
		if err := ce.exitLabel(f); err != nil {
			return err
		}
		f.pc = instr.ContinuationPC + 1
		return nil
	case wasm.OpEnd:
		if len(f.labels) == 1 {
			return ce.exitFunction(f)
		}
		return ce.exitLabel(f)

	case wasm.OpBr:
		return ce.branch(f, instr.Index)
	case wasm.OpBrIf:
		cond := ce.operands.pop()
		if cond.I32() == 0 {
			return nil
		}
		return ce.branch(f, instr.Index)
	case wasm.OpBrTable:
		idx := ce.operands.pop().U32()
		target := instr.Default
		if int(idx) < len(instr.Labels) {
			target = instr.Labels[idx]
		}
		return ce.branch(f, target)
	case wasm.OpReturn:
		return ce.branch(f, uint32(len(f.labels)-1))

	case wasm.OpCall:
		return ce.call(ctx, instr.Index)
	case wasm.OpCallIndirect:
		return ce.callIndirect(ctx, instr.Index, instr.Index2)
	case wasm.OpReturnCall:
		return ce.tailCall(ctx, instr.Index)
	case wasm.OpReturnCallIndirect:
		target, err := ce.resolveIndirect(instr.Index, instr.Index2)
		if err != nil {
			return err
		}
		return ce.tailCall(ctx, target)

	case wasm.OpDrop:
		ce.operands.pop()
		return nil
	case wasm.OpSelect, wasm.OpSelectT:
		cond := ce.operands.pop()
		b := ce.operands.pop()
		a := ce.operands.pop()
		if cond.I32() != 0 {
			return ce.operands.push(a)
		}
		return ce.operands.push(b)

	case wasm.OpLocalGet:
		return ce.operands.push(f.locals[instr.Index])
	case wasm.OpLocalSet:
		f.locals[instr.Index] = ce.operands.pop()
		return nil
	case wasm.OpLocalTee:
		v := ce.operands.pop()
		f.locals[instr.Index] = v
		return ce.operands.push(v)

	case wasm.OpGlobalGet:
		return ce.operands.push(ce.instance.Globals[instr.Index].Value)
	case wasm.OpGlobalSet:
		ce.instance.Globals[instr.Index].Value = ce.operands.pop()
		return nil

	case wasm.OpTableGet:
		return ce.tableGet(instr.Index)
	case wasm.OpTableSet:
		return ce.tableSet(instr.Index)
	case wasm.OpTableGrow:
		return ce.tableGrow(instr.Index)
	case wasm.OpTableSize:
		t := ce.instance.Tables[instr.Index]
		return ce.operands.push(wasm.I32Value(int32(len(t.Elements))))
	case wasm.OpTableFill:
		return ce.tableFill(instr.Index)
	case wasm.OpTableCopy:
		return ce.tableCopy(instr.Index, instr.Index2)
	case wasm.OpTableInit:
		return ce.tableInit(instr.Index, instr.Index2)
	case wasm.OpElemDrop:
		ce.instance.DroppedElements[instr.Index] = true
		return nil

	case wasm.OpRefNull:
		return ce.operands.push(zeroValue(instr.Block.Value))
	case wasm.OpRefIsNull:
		v := ce.operands.pop()
		if v.IsNullRef() {
			return ce.operands.push(wasm.I32Value(1))
		}
		return ce.operands.push(wasm.I32Value(0))
	case wasm.OpRefFunc:
		return ce.operands.push(wasm.Value{Type: wasm.ValueTypeFuncref, Lo: uint64(instr.Index)})
	}

	if fn, ok := memOpTable[instr.Op]; ok {
		return fn(ce, instr)
	}
	if fn, ok := atomicOpTable[instr.Op]; ok {
		return fn(ce, instr)
	}
	if fn, ok := numericOpTable[instr.Op]; ok {
		return fn(ce, instr)
	}
	return trap(api.TrapUnreachable, "unsupported opcode %#x", instr.Op)
}

// enterBlock pushes a new label for a block/loop/if body, consuming its
// declared parameters (already validated to be on the stack) back onto
// themselves as the new label's floor.
func (ce *callEngine) enterBlock(f *frame, instr wasm.Instruction) error {
	params, results := instr.Block.Signature(ce.instance.Module.Types)
	arity := len(results)
	base := ce.operands.height() - len(params)
	if instr.Op == wasm.OpLoop {
		arity = len(params)
	}
	if len(f.labels) >= maxLabelStack {
		return trap(api.TrapCallStackExhausted, "label stack exceeds %d entries", maxLabelStack)
	}
	f.labels = append(f.labels, label{
		opcode:         instr.Op,
		continuationPC: instr.ContinuationPC,
		arity:          arity,
		operandBase:    base,
	})
	return nil
}

// exitLabel pops the innermost label (an `end` reached normally, or an
// `else` falling out of a `then` arm), trimming the operand stack to
// exactly its declared result arity above its floor.
func (ce *callEngine) exitLabel(f *frame) error {
	top := f.labels[len(f.labels)-1]
	// A fallthrough always leaves exactly the block's true exit arity of
	// values above the label's floor — the validator already guaranteed
	// this, so the operand stack's own shape, not the label's stored
	// branch-target arity (which for a loop is its parameter arity
	// instead), tells us how many to keep.
	n := ce.operands.height() - top.operandBase
	results := ce.operands.popN(n)
	ce.operands.truncate(top.operandBase)
	for _, r := range results {
		if err := ce.operands.push(r); err != nil {
			return err
		}
	}
	f.labels = f.labels[:len(f.labels)-1]
	return nil
}

// branch transfers control to the label at relative depth, truncating the
// operand stack to that label's floor plus its arity worth of values
// (spec.md §4.3's branch semantics), then either jumps to its continuation
// (block/if/function) or back to its head (loop).
func (ce *callEngine) branch(f *frame, depth uint32) error {
	idx := len(f.labels) - 1 - int(depth)
	l := f.labels[idx]
	arity := l.arity
	values := ce.operands.popN(arity)
	ce.operands.truncate(l.operandBase)
	for _, v := range values {
		if err := ce.operands.push(v); err != nil {
			return err
		}
	}
	if idx == 0 {
		// Branching out of the function's own label: equivalent to return.
		return ce.exitFunction(f)
	}
	f.labels = f.labels[:idx+1]
	if l.opcode == wasm.OpLoop {
		// The loop's label is kept, so resume just after the loop
		// instruction rather than re-executing it.
		f.pc = l.continuationPC + 1
	} else {
		f.labels = f.labels[:idx]
		f.pc = l.continuationPC + 1
	}
	return nil
}

func (ce *callEngine) call(ctx context.Context, funcIdx wasm.Index) error {
	fi := ce.instance.Functions[funcIdx]
	params := ce.operands.popN(len(fi.Type.Params))
	if fi.IsHostFunction {
		results := make([]wasm.Value, len(fi.Type.Results))
		if err := ce.bridge.Call(ctx, fi.ImportModule, fi.ImportName, params, results); err != nil {
			return unwrapHostTrap(err)
		}
		for _, r := range results {
			if err := ce.operands.push(r); err != nil {
				return err
			}
		}
		return nil
	}
	return ce.pushCall(funcIdx, params)
}

func (ce *callEngine) resolveIndirect(typeIdx, tableIdx wasm.Index) (wasm.Index, error) {
	idx := ce.operands.pop().U32()
	t := ce.instance.Tables[tableIdx]
	if int(idx) >= len(t.Elements) {
		return 0, trap(api.TrapOutOfBoundsTableAccess, "table index %d out of bounds", idx)
	}
	ref := t.Elements[idx]
	if ref == wasm.NullRef {
		return 0, trap(api.TrapUninitializedElement, "table element %d is uninitialized", idx)
	}
	targetIdx := wasm.Index(ref)
	want := ce.instance.Module.Types[typeIdx]
	got := ce.instance.Module.TypeOfFunction(targetIdx)
	if got == nil || !got.Equal(want) {
		return 0, trap(api.TrapIndirectCallTypeMismatch, "call_indirect signature mismatch")
	}
	return targetIdx, nil
}

func (ce *callEngine) callIndirect(ctx context.Context, typeIdx, tableIdx wasm.Index) error {
	target, err := ce.resolveIndirect(typeIdx, tableIdx)
	if err != nil {
		return err
	}
	return ce.call(ctx, target)
}

// tailCall replaces the current frame with a call to funcIdx, per spec.md
// §4.3's frame-replacement requirement: the caller's frame is discarded
// before the callee starts, so a chain of tail calls runs in constant
// frame-stack space.
func (ce *callEngine) tailCall(ctx context.Context, funcIdx wasm.Index) error {
	f := ce.frames[len(ce.frames)-1]
	fi := ce.instance.Functions[funcIdx]
	params := ce.operands.popN(len(fi.Type.Params))
	ce.operands.truncate(f.operandBase)
	ce.frames = ce.frames[:len(ce.frames)-1]
	if fi.IsHostFunction {
		results := make([]wasm.Value, len(fi.Type.Results))
		if err := ce.bridge.Call(ctx, fi.ImportModule, fi.ImportName, params, results); err != nil {
			return unwrapHostTrap(err)
		}
		if len(ce.frames) == 0 {
			for _, r := range results {
				if err := ce.operands.push(r); err != nil {
					return err
				}
			}
			return nil
		}
		for _, r := range results {
			if err := ce.operands.push(r); err != nil {
				return err
			}
		}
		return nil
	}
	return ce.pushCall(funcIdx, params)
}

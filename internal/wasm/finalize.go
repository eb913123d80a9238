package wasm

import "fmt"

// finalizeBody computes each block/loop/if/else instruction's
// ContinuationPC and ElsePC fields by matching structured control
// instructions, so the interpreter can jump directly instead of scanning.
// Grounded in the same one-pass bracket-matching approach
// wrt-runtime/src/module.rs's validator uses while building its control
// stack; here it runs once at build time instead of on every interpretation.
func finalizeBody(body []Instruction) error {
	type marker struct {
		pc int
		op Opcode
	}
	var stack []marker
	for pc := range body {
		instr := &body[pc]
		switch instr.Op {
		case OpBlock, OpIf:
			stack = append(stack, marker{pc: pc, op: instr.Op})
		case OpLoop:
			instr.ContinuationPC = pc
			stack = append(stack, marker{pc: pc, op: instr.Op})
		case OpElse:
			if len(stack) == 0 || stack[len(stack)-1].op != OpIf {
				return fmt.Errorf("else without matching if at pc %d", pc)
			}
			ifPC := stack[len(stack)-1].pc
			body[ifPC].ElsePC = pc
		case OpEnd:
			if len(stack) == 0 {
				// The function body's own closing end; the interpreter
				// treats the outermost label specially and never consults
				// this field for it.
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.op != OpLoop {
				body[top.pc].ContinuationPC = pc
			}
			if top.op == OpIf && body[top.pc].ElsePC != 0 {
				body[body[top.pc].ElsePC].ContinuationPC = pc
			}
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("unclosed block/loop/if: %d still open at function end", len(stack))
	}
	return nil
}

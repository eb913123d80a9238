package interpreter

import (
	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// Stack ceilings, per spec.md §4.3: fixed, small enough to size up front,
// so a call either fits or is rejected with TrapCallStackExhausted —
// execution never grows these dynamically.
const (
	maxOperandStack = 2048
	maxLabelStack   = 128
	maxFrameStack   = 256
)

// label is one entry of a frame's control-flow stack: the information a
// br/br_if/br_table targeting it needs, and nothing else (no operand
// types — those were already checked by the validator before this function
// ever ran).
type label struct {
	opcode         wasm.Opcode
	continuationPC int
	arity          int // number of values control transfers out with (or, for a loop target, in with)
	operandBase    int // operand-stack height this label's arity is measured from
}

// frame is one call's activation record: its function, its locals, and its
// own label stack. Frames live in a Go slice rather than the Go call stack,
// so a deep guest call chain costs heap, not native stack — this is the
// "stackless" property spec.md §4.3 names.
type frame struct {
	fn      *wasm.Function
	funcIdx wasm.Index
	locals  []wasm.Value
	pc      int
	labels  []label
	// operandBase is the operand-stack height when this frame's function
	// was entered; its results sit above that height at function exit.
	operandBase int
}

// valueStack is the shared operand stack every frame in a call pushes to
// and pops from.
type valueStack struct {
	v []wasm.Value
}

func (s *valueStack) push(v wasm.Value) error {
	if len(s.v) >= maxOperandStack {
		return trap(api.TrapCallStackExhausted, "operand stack exceeds %d entries", maxOperandStack)
	}
	s.v = append(s.v, v)
	return nil
}

func (s *valueStack) pop() wasm.Value {
	v := s.v[len(s.v)-1]
	s.v = s.v[:len(s.v)-1]
	return v
}

func (s *valueStack) popN(n int) []wasm.Value {
	out := make([]wasm.Value, n)
	copy(out, s.v[len(s.v)-n:])
	s.v = s.v[:len(s.v)-n]
	return out
}

func (s *valueStack) truncate(height int) {
	s.v = s.v[:height]
}

func (s *valueStack) height() int { return len(s.v) }

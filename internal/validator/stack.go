package validator

import "github.com/pulseengine/wrt-go/internal/wasm"

// stackType is one entry of the abstract operand stack. unknown marks a
// value produced after an unconditional trap (unreachable, br, br_table,
// return): spec.md §4.1 requires these to type-check against anything, so
// the validator never actually knows — and never needs to know — their
// type.
type stackType struct {
	vt      wasm.ValueType
	unknown bool
}

func known(vt wasm.ValueType) stackType { return stackType{vt: vt} }

var unknownType = stackType{unknown: true}

// frameFunction marks the implicit outermost control frame representing
// the function body itself, distinct from any real block/loop/if opcode.
const frameFunction wasm.Opcode = 0xffff

// ctrlFrame is one entry of the control-flow stack: one per enclosing
// block/loop/if/function, tracking the label's branch target types and the
// operand-stack height at block entry so `end`/`else` can validate the
// exact arity spec.md §4.1 requires.
type ctrlFrame struct {
	opcode      wasm.Opcode
	startTypes  []wasm.ValueType // types consumed on entry, also the loop's branch-target types
	endTypes    []wasm.ValueType // types produced on exit, also block/if's branch-target types
	height      int              // opds stack height at block entry
	unreachable bool
}

// labelTypes returns the value types a branch to this frame must supply:
// startTypes for a loop (branching restarts it), endTypes for everything
// else (branching exits it).
func (f *ctrlFrame) labelTypes() []wasm.ValueType {
	if f.opcode == wasm.OpLoop {
		return f.startTypes
	}
	return f.endTypes
}

// funcState is the per-function validation state: the abstract operand
// stack plus the control-frame stack, mutated instruction by instruction as
// the validator walks a function body linearly (spec.md §4.1's single
// forward pass, no backtracking).
type funcState struct {
	opds  []stackType
	ctrls []ctrlFrame
}

func (s *funcState) pushVal(vt wasm.ValueType) {
	s.opds = append(s.opds, known(vt))
}

func (s *funcState) pushVals(vts []wasm.ValueType) {
	for _, vt := range vts {
		s.pushVal(vt)
	}
}

func (s *funcState) pushUnknown() {
	s.opds = append(s.opds, unknownType)
}

// popVal pops one operand, enforcing that it doesn't dip below the current
// control frame's height (spec.md §4.1's per-block stack-height invariant).
// In an unreachable frame, popping past the floor yields an unknown type
// instead of failing, per the polymorphic-stack rule.
func (s *funcState) popVal() (stackType, *Error) {
	top := &s.ctrls[len(s.ctrls)-1]
	if len(s.opds) == top.height {
		if top.unreachable {
			return unknownType, nil
		}
		return stackType{}, newErr(KindStackUnderflow, 0, 0, "operand stack underflow")
	}
	v := s.opds[len(s.opds)-1]
	s.opds = s.opds[:len(s.opds)-1]
	return v, nil
}

// popExpect pops one operand and checks it against an expected type, unless
// either side is the polymorphic-unreachable unknown type.
func (s *funcState) popExpect(expected wasm.ValueType) *Error {
	v, err := s.popVal()
	if err != nil {
		return err
	}
	if v.unknown {
		return nil
	}
	if v.vt != expected {
		return newErr(KindTypeMismatch, 0, 0, "expected %s, got %s", wasm.ValueTypeName(expected), wasm.ValueTypeName(v.vt))
	}
	return nil
}

func (s *funcState) popExpectVals(expected []wasm.ValueType) *Error {
	for i := len(expected) - 1; i >= 0; i-- {
		if err := s.popExpect(expected[i]); err != nil {
			return err
		}
	}
	return nil
}

// pushCtrl opens a new control frame: block, loop, if, or the implicit
// outermost function frame.
func (s *funcState) pushCtrl(opcode wasm.Opcode, start, end []wasm.ValueType) {
	s.pushVals(start)
	s.ctrls = append(s.ctrls, ctrlFrame{
		opcode:     opcode,
		startTypes: start,
		endTypes:   end,
		height:     len(s.opds) - len(start),
	})
}

// popCtrl closes the innermost control frame, checking it produced exactly
// its declared result types and nothing more (spec.md §4.1's exact-arity
// requirement at block/function exit), then returns its result types.
func (s *funcState) popCtrl() ([]wasm.ValueType, *Error) {
	if len(s.ctrls) == 0 {
		return nil, newErr(KindUnmatchedElse, 0, 0, "control stack underflow")
	}
	top := s.ctrls[len(s.ctrls)-1]
	if err := s.popExpectVals(top.endTypes); err != nil {
		return nil, err
	}
	if len(s.opds) != top.height {
		return nil, newErr(KindArityMismatch, 0, 0, "unused values remain on the stack at block exit")
	}
	s.ctrls = s.ctrls[:len(s.ctrls)-1]
	return top.endTypes, nil
}

// label returns the nth-from-top control frame (0 == innermost), the frame
// a br/br_if/br_table with that relative depth targets.
func (s *funcState) label(depth uint32) (*ctrlFrame, *Error) {
	if int(depth) >= len(s.ctrls) {
		return nil, newErr(KindUnknownIndex, 0, 0, "branch depth %d exceeds nesting", depth)
	}
	return &s.ctrls[len(s.ctrls)-1-int(depth)], nil
}

// markUnreachable truncates the operand stack to the current frame's floor
// and flags it polymorphic: every subsequent pop in this frame, until the
// matching else/end, succeeds with an unknown type (spec.md §4.1's dead-code
// typing rule, which lets code after unreachable/br/return/br_table validate
// without actually knowing what it would have produced).
func (s *funcState) markUnreachable() {
	top := &s.ctrls[len(s.ctrls)-1]
	s.opds = s.opds[:top.height]
	top.unreachable = true
}

package wasm

import "fmt"

// ModuleError describes a validation failure; it is never seen by guest code
// (spec.md §7). validator.Validate does not return this type: it reports
// *validator.Error, which carries the same fields.
type ModuleError struct {
	Kind     string
	FuncIdx  Index
	Offset   int
	Message  string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s: function[%d]@%d: %s", e.Kind, e.FuncIdx, e.Offset, e.Message)
}

// InstantiationErrorKind enumerates the reasons instantiation can fail,
// per spec.md §7.
type InstantiationErrorKind string

const (
	ErrImportMissing        InstantiationErrorKind = "ImportMissing"
	ErrImportTypeMismatch    InstantiationErrorKind = "ImportTypeMismatch"
	ErrBudgetExhausted       InstantiationErrorKind = "OutOfBudget"
	ErrInvalidSegmentOffset  InstantiationErrorKind = "InvalidSegmentOffset"
	ErrStartFunctionTrapped  InstantiationErrorKind = "StartFunctionTrapped"
)

// InstantiationError is returned by (*Instance) instantiation helpers. No
// partially-initialized Instance is ever exposed when this is returned
// (spec.md §7's atomicity requirement).
type InstantiationError struct {
	Kind    InstantiationErrorKind
	Message string
	Cause   error
}

func (e *InstantiationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *InstantiationError) Unwrap() error { return e.Cause }

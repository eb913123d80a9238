package validator

import "fmt"

// ErrorKind enumerates the reasons validation can reject a module, per
// spec.md §4.1.
type ErrorKind string

const (
	KindTypeMismatch         ErrorKind = "TypeMismatch"
	KindUnknownIndex         ErrorKind = "UnknownIndex"
	KindAlignmentTooLarge    ErrorKind = "AlignmentTooLarge"
	KindInvalidBlockType     ErrorKind = "InvalidBlockType"
	KindUnmatchedElse        ErrorKind = "UnmatchedElse"
	KindStackUnderflow       ErrorKind = "StackUnderflow"
	KindUnreachableCodeAfter ErrorKind = "UnreachableCodeAfter"
	KindArityMismatch        ErrorKind = "ArityMismatch"
	KindDuplicateExport      ErrorKind = "DuplicateExport"
	KindFeatureDisabled      ErrorKind = "FeatureDisabled"
)

// Error reports a single validation failure, located to the function and
// instruction offset that triggered it. Never observed by guest code
// (spec.md §7): a module either validates cleanly or is rejected before any
// instance exists.
type Error struct {
	Kind    ErrorKind
	FuncIdx uint32
	Offset  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: function[%d]@%d: %s", e.Kind, e.FuncIdx, e.Offset, e.Message)
}

func newErr(kind ErrorKind, funcIdx uint32, offset int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, FuncIdx: funcIdx, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

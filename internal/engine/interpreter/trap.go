package interpreter

import (
	"fmt"

	"github.com/pulseengine/wrt-go/api"
)

// TrapError is returned from a call whenever execution hits one of the
// trap kinds spec.md §6.2 enumerates. It is the only error shape an
// exported call can return for a guest-triggered fault; host-bridge traps
// are converted into it too. Fuel exhaustion is reported separately, as
// ErrFuelExhausted.
type TrapError struct {
	Kind    api.TrapKind
	Message string
}

func (e *TrapError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func trap(kind api.TrapKind, format string, args ...interface{}) *TrapError {
	return &TrapError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrFuelExhausted is returned when a call runs out of its instruction
// budget (spec.md §4.3). It is deliberately not a TrapError: running out of
// fuel is a host-imposed execution bound, not a fault in the guest module,
// so it doesn't belong to the trap taxonomy guest code can be written
// against.
type ErrFuelExhausted struct{}

func (ErrFuelExhausted) Error() string { return "fuel exhausted" }

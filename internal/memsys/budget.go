package memsys

import (
	"sync"

	"github.com/pulseengine/wrt-go/internal/diag"
)

// Budget is the process-wide memory allocator spec.md §4.2 requires: every
// memory instance's initial allocation and every memory.grow draws from one
// shared ceiling, so a single process hosting many instances can't be
// pushed past its configured footprint by any one of them.
type Budget struct {
	mu    sync.Mutex
	limit uint64
	used  uint64
}

// NewBudget creates a budget with the given byte ceiling. A zero limit
// means unbounded (used only in tests and non-safety-relevant tooling).
func NewBudget(limitBytes uint64) *Budget {
	return &Budget{limit: limitBytes}
}

// Reserve attempts to account for an additional n bytes, returning false
// without mutating state if that would exceed the limit.
func (b *Budget) Reserve(n uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit != 0 && b.used+n > b.limit {
		diag.BudgetDenied("memsys", b.used+n, b.limit)
		BudgetDenials.Inc()
		return false
	}
	b.used += n
	return true
}

// Release returns n bytes to the budget. Never fails; releasing more than
// was reserved is a caller bug, clamped rather than allowed to underflow.
func (b *Budget) Release(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.used {
		n = b.used
	}
	b.used -= n
}

// Used reports current accounted usage, for metrics and tests.
func (b *Budget) Used() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Limit reports the configured ceiling (0 == unbounded).
func (b *Budget) Limit() uint64 {
	return b.limit
}

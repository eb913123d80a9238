// Package memsys implements the linear memory subsystem described in
// spec.md §4.2: page-granular growth against a process-wide budget,
// bounds- and alignment-checked access, a running integrity checksum, and
// (for shared memories) sequentially consistent atomics plus a wait/notify
// state machine.
package memsys

import (
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/pulseengine/wrt-go/internal/diag"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// OutOfBoundsError reports an access that would read or write past the
// memory's current size.
type OutOfBoundsError struct {
	Offset, Length uint64
	Size           uint64
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out of bounds memory access: offset=%d length=%d size=%d", e.Offset, e.Length, e.Size)
}

// Memory is the owned runtime object backing one wasm.MemoryInstance. All
// access goes through bounds-checked methods; nothing outside this package
// ever holds a raw slice into data for longer than a single call, so grow
// (which reallocates) can never race a concurrent reader into a stale
// backing array without detection — every access revalidates bounds against
// the current size under the lock.
type Memory struct {
	mu       sync.RWMutex
	backing  []byte // full capacity for shared memories, grown in place; otherwise reallocated on grow
	data     []byte // data == backing[:currentSizeBytes]
	minPages uint32
	maxPages uint32 // hard ceiling: wasm.MemoryMaxPages unless the type declares a lower max
	shared   bool
	budget   *Budget
	checksum uint32
	waiters  *waitQueue

	verification  VerificationLevel
	mutationCount uint64

	name string // debug name, for diagnostics only
}

// New allocates a Memory at its minimum declared size, reserving that many
// bytes from budget. Returns an error if the budget denies the initial
// reservation — spec.md §7 requires instantiation to fail atomically in
// that case, never to hand back a partially-sized memory. A shared memory
// (spec.md §5) reserves its full declared maximum up front and grows by
// re-slicing rather than reallocating, so a concurrent atomic access from
// another goroutine never races a grow-triggered reallocation.
func New(name string, mt wasm.MemoryType, budget *Budget, verification VerificationLevel) (*Memory, error) {
	ceiling := uint32(wasm.MemoryMaxPages)
	if mt.Limits.Max != nil && *mt.Limits.Max < ceiling {
		ceiling = *mt.Limits.Max
	}
	m := &Memory{
		minPages:     mt.Limits.Min,
		maxPages:     ceiling,
		shared:       mt.Shared,
		budget:       budget,
		verification: verification,
		name:         name,
	}
	minBytes := uint64(mt.Limits.Min) * wasm.MemoryPageSize
	if ceilBytes, ok := sharedCeilingBytes(mt); ok {
		if budget != nil && !budget.Reserve(ceilBytes) {
			return nil, fmt.Errorf("memory %q: shared ceiling %d bytes exceeds budget", name, ceilBytes)
		}
		m.backing = make([]byte, ceilBytes)
		m.data = m.backing[:minBytes]
	} else {
		if budget != nil && !budget.Reserve(minBytes) {
			return nil, fmt.Errorf("memory %q: initial size %d bytes exceeds budget", name, minBytes)
		}
		m.data = make([]byte, minBytes)
	}
	m.recomputeChecksumLocked()
	PagesAllocated.Add(float64(mt.Limits.Min))
	return m, nil
}

// SizePages returns the current size in 64KiB pages.
func (m *Memory) SizePages() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint32(len(m.data) / wasm.MemoryPageSize)
}

// Grow attempts to add delta pages, reserving the additional bytes from the
// budget first. Returns the previous size in pages and true on success; on
// failure (ceiling exceeded or budget denied) returns (0, false) and leaves
// the memory unchanged, per spec.md §4.2's all-or-nothing grow semantics.
func (m *Memory) Grow(delta uint32) (previousPages uint32, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := uint32(len(m.data) / wasm.MemoryPageSize)
	next := prev + delta
	if delta != 0 && next < prev { // overflow
		GrowCalls.WithLabelValues("overflow").Inc()
		return 0, false
	}
	if next > m.maxPages {
		GrowCalls.WithLabelValues("ceiling").Inc()
		return 0, false
	}
	nextBytes := uint64(next) * wasm.MemoryPageSize
	if m.backing != nil {
		// Shared memory: budget already covers the full ceiling at
		// creation, so growth is a re-slice, not a new reservation.
		m.data = m.backing[:nextBytes]
	} else {
		addBytes := uint64(delta) * wasm.MemoryPageSize
		if m.budget != nil && addBytes != 0 && !m.budget.Reserve(addBytes) {
			GrowCalls.WithLabelValues("budget").Inc()
			return 0, false
		}
		grown := make([]byte, nextBytes)
		copy(grown, m.data)
		m.data = grown
	}
	m.maybeRecomputeChecksumLocked()
	GrowCalls.WithLabelValues("ok").Inc()
	PagesAllocated.Add(float64(delta))
	diag.MemoryGrown(m.name, 0, prev, next)
	return prev, true
}

func (m *Memory) bounds(offset, length uint64) error {
	size := uint64(len(m.data))
	if offset > size || length > size-offset {
		return &OutOfBoundsError{Offset: offset, Length: length, Size: size}
	}
	return nil
}

// Read copies length bytes starting at offset into a new slice.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.bounds(uint64(offset), uint64(length)); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:uint64(offset)+uint64(length)])
	return out, nil
}

// Write copies src into memory starting at offset.
func (m *Memory) Write(offset uint32, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), uint64(len(src))); err != nil {
		return err
	}
	copy(m.data[offset:], src)
	m.maybeRecomputeChecksumLocked()
	return nil
}

// Fill sets length bytes starting at offset to value, the primitive behind
// memory.fill.
func (m *Memory) Fill(offset uint32, value byte, length uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), uint64(length)); err != nil {
		return err
	}
	region := m.data[offset : uint64(offset)+uint64(length)]
	for i := range region {
		region[i] = value
	}
	m.maybeRecomputeChecksumLocked()
	return nil
}

// CopyWithin implements memory.copy's overlap-safe semantics.
func (m *Memory) CopyWithin(dst, src, length uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(dst), uint64(length)); err != nil {
		return err
	}
	if err := m.bounds(uint64(src), uint64(length)); err != nil {
		return err
	}
	copy(m.data[dst:uint64(dst)+uint64(length)], m.data[src:uint64(src)+uint64(length)])
	m.maybeRecomputeChecksumLocked()
	return nil
}

func (m *Memory) recomputeChecksumLocked() {
	m.checksum = crc32.ChecksumIEEE(m.data)
}

// Checksum returns the current CRC32 of the backing bytes, for a host to
// compare against a previously recorded value as an integrity check
// (spec.md §4.2's checksum-verified requirement; this is diagnostic, not
// load-bearing for Wasm semantics).
func (m *Memory) Checksum() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checksum
}

// VerifyChecksum reports whether want matches the current checksum,
// incrementing the mismatch counter when it doesn't.
func (m *Memory) VerifyChecksum(want uint32) bool {
	got := m.Checksum()
	if got != want {
		ChecksumMismatches.Inc()
		return false
	}
	return true
}

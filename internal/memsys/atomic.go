package memsys

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/pulseengine/wrt-go/internal/wasm"
)

// timeAfter wraps time.After; negative nanos (no timeout) is handled by the
// caller before this is reached, so any non-negative value is safe here.
func timeAfter(nanos int64) <-chan time.Time {
	return time.After(time.Duration(nanos))
}

// UnalignedAtomicError reports an atomic access whose offset isn't a
// multiple of the instruction's natural alignment (spec.md §4.2).
type UnalignedAtomicError struct {
	Offset    uint32
	Alignment uint32
}

func (e *UnalignedAtomicError) Error() string {
	return fmt.Sprintf("unaligned atomic access: offset=%d is not a multiple of %d", e.Offset, e.Alignment)
}

// align traps every atomic accessor on an offset that isn't a multiple of
// width, ahead of and independent from the bounds check: the real Wasm spec
// requires atomics to validate natural alignment before touching memory at
// all, so a misaligned-but-in-bounds offset must never reach bounds().
func align(offset uint32, width uint32) error {
	if offset%width != 0 {
		return &UnalignedAtomicError{Offset: offset, Alignment: width}
	}
	return nil
}

// Atomics on a Memory are implemented under the same mutex that guards
// plain reads/writes rather than with lock-free machine atomics: Go gives
// no portable way to atomically touch an arbitrary byte offset inside a
// growable []byte without unsafe pointer arithmetic, and a certifiable core
// has no use for the relaxed/acquire-release distinctions that make
// lock-free atomics worth the risk. Every atomic access is therefore
// sequentially consistent. The accessors take no ordering argument:
// wasm.Instruction carries an AtomicOrdering for wire-format fidelity, but
// neither the validator nor the interpreter reads it.
type waitQueue struct {
	mu  sync.Mutex
	chs map[uint32][]chan struct{}
}

func newWaitQueue() *waitQueue {
	return &waitQueue{chs: map[uint32][]chan struct{}{}}
}

func (w *waitQueue) register(addr uint32) chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(chan struct{})
	w.chs[addr] = append(w.chs[addr], ch)
	return ch
}

func (w *waitQueue) notify(addr uint32, count uint32) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	waiters := w.chs[addr]
	n := uint32(0)
	for n < count && len(waiters) > 0 {
		close(waiters[0])
		waiters = waiters[1:]
		n++
	}
	w.chs[addr] = waiters
	return n
}

// AtomicLoad32 atomically loads a little-endian u32 at offset.
func (m *Memory) AtomicLoad32(offset uint32) (uint32, error) {
	if err := align(offset, 4); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.bounds(uint64(offset), 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

// AtomicLoad64 atomically loads a little-endian u64 at offset.
func (m *Memory) AtomicLoad64(offset uint32) (uint64, error) {
	if err := align(offset, 8); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.bounds(uint64(offset), 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

// AtomicStore32 atomically stores a little-endian u32 at offset.
func (m *Memory) AtomicStore32(offset uint32, v uint32) error {
	if err := align(offset, 4); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], v)
	m.maybeRecomputeChecksumLocked()
	return nil
}

// AtomicStore64 atomically stores a little-endian u64 at offset.
func (m *Memory) AtomicStore64(offset uint32, v uint64) error {
	if err := align(offset, 8); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], v)
	m.maybeRecomputeChecksumLocked()
	return nil
}

// AtomicRMW32 applies op to the u32 at offset and returns the prior value.
func (m *Memory) AtomicRMW32(offset uint32, op func(old uint32) uint32) (uint32, error) {
	if err := align(offset, 4); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), 4); err != nil {
		return 0, err
	}
	old := binary.LittleEndian.Uint32(m.data[offset:])
	binary.LittleEndian.PutUint32(m.data[offset:], op(old))
	m.maybeRecomputeChecksumLocked()
	return old, nil
}

// AtomicRMW64 applies op to the u64 at offset and returns the prior value.
func (m *Memory) AtomicRMW64(offset uint32, op func(old uint64) uint64) (uint64, error) {
	if err := align(offset, 8); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), 8); err != nil {
		return 0, err
	}
	old := binary.LittleEndian.Uint64(m.data[offset:])
	binary.LittleEndian.PutUint64(m.data[offset:], op(old))
	m.maybeRecomputeChecksumLocked()
	return old, nil
}

// AtomicCmpxchg32 implements i32.atomic.rmw.cmpxchg.
func (m *Memory) AtomicCmpxchg32(offset, expected, replacement uint32) (uint32, error) {
	if err := align(offset, 4); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), 4); err != nil {
		return 0, err
	}
	old := binary.LittleEndian.Uint32(m.data[offset:])
	if old == expected {
		binary.LittleEndian.PutUint32(m.data[offset:], replacement)
		m.maybeRecomputeChecksumLocked()
	}
	return old, nil
}

// AtomicCmpxchg64 implements i64.atomic.rmw.cmpxchg.
func (m *Memory) AtomicCmpxchg64(offset uint32, expected, replacement uint64) (uint64, error) {
	if err := align(offset, 8); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bounds(uint64(offset), 8); err != nil {
		return 0, err
	}
	old := binary.LittleEndian.Uint64(m.data[offset:])
	if old == expected {
		binary.LittleEndian.PutUint64(m.data[offset:], replacement)
		m.maybeRecomputeChecksumLocked()
	}
	return old, nil
}

// Wait32 blocks the calling goroutine until Notify targets offset or
// timeoutNanos elapses (negative meaning no timeout), returning 0 (woken),
// 1 (value mismatch, doesn't block), or 2 (timed out), matching the
// memory.atomic.wait32 result codes.
func (m *Memory) Wait32(offset uint32, expected uint32, timeoutNanos int64) (uint32, error) {
	// AtomicLoad32 performs the alignment check.
	cur, err := m.AtomicLoad32(offset)
	if err != nil {
		return 0, err
	}
	if cur != expected {
		return 1, nil
	}
	return m.wait(offset, timeoutNanos)
}

// Wait64 is Wait32 for the 64-bit variant.
func (m *Memory) Wait64(offset uint32, expected uint64, timeoutNanos int64) (uint32, error) {
	// AtomicLoad64 performs the alignment check.
	cur, err := m.AtomicLoad64(offset)
	if err != nil {
		return 0, err
	}
	if cur != expected {
		return 1, nil
	}
	return m.wait(offset, timeoutNanos)
}

func (m *Memory) wait(offset uint32, timeoutNanos int64) (uint32, error) {
	m.mu.Lock()
	if m.waiters == nil {
		m.waiters = newWaitQueue()
	}
	wq := m.waiters
	m.mu.Unlock()

	ch := wq.register(offset)
	if timeoutNanos < 0 {
		<-ch
		return 0, nil
	}
	select {
	case <-ch:
		return 0, nil
	case <-timeAfter(timeoutNanos):
		return 2, nil
	}
}

// Notify wakes up to count waiters blocked on offset, returning the number
// actually woken. memory.atomic.notify's address operand is still subject
// to the natural-alignment rule (4 bytes) even though Notify touches no
// memory bytes itself.
func (m *Memory) Notify(offset uint32, count uint32) (woken uint32, err error) {
	if err := align(offset, 4); err != nil {
		return 0, err
	}
	m.mu.Lock()
	if m.waiters == nil {
		m.waiters = newWaitQueue()
	}
	wq := m.waiters
	m.mu.Unlock()
	return wq.notify(offset, count), nil
}

// sharedCeilingBytes is the allocation Memory.New uses for shared memories
// so grow() never reallocates underneath an in-flight atomic access from
// another goroutine; spec.md §5 requires a shared memory to declare a
// maximum, which this relies on.
func sharedCeilingBytes(mt wasm.MemoryType) (uint64, bool) {
	if !mt.Shared || mt.Limits.Max == nil {
		return 0, false
	}
	return uint64(*mt.Limits.Max) * wasm.MemoryPageSize, true
}

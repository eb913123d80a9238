package memsys

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/wasm"
)

func sharedMemory(t *testing.T, minPages, maxPages uint32) *Memory {
	t.Helper()
	mt := wasm.MemoryType{Limits: wasm.Limits{Min: minPages, Max: u32(maxPages)}, Shared: true}
	m, err := New("shared", mt, NewBudget(0), VerificationFull)
	require.NoError(t, err)
	return m
}

func TestAtomicStoreLoad32(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 0xDEADBEEF))
	v, err := m.AtomicLoad32(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v)
}

func TestAtomicStoreLoad64(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore64(0, 0x1122334455667788))
	v, err := m.AtomicLoad64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), v)
}

func TestAtomicRMW32(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 10))
	old, err := m.AtomicRMW32(0, func(v uint32) uint32 { return v + 5 })
	require.NoError(t, err)
	require.Equal(t, uint32(10), old)
	v, _ := m.AtomicLoad32(0)
	require.Equal(t, uint32(15), v)
}

func TestAtomicCmpxchg32_MatchReplaces(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 7))
	old, err := m.AtomicCmpxchg32(0, 7, 99)
	require.NoError(t, err)
	require.Equal(t, uint32(7), old)
	v, _ := m.AtomicLoad32(0)
	require.Equal(t, uint32(99), v)
}

func TestAtomicCmpxchg32_MismatchLeavesUnchanged(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 7))
	old, err := m.AtomicCmpxchg32(0, 8, 99)
	require.NoError(t, err)
	require.Equal(t, uint32(7), old)
	v, _ := m.AtomicLoad32(0)
	require.Equal(t, uint32(7), v)
}

func TestWaitNotify32(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 1))

	var wg sync.WaitGroup
	wg.Add(1)
	var result uint32
	go func() {
		defer wg.Done()
		r, err := m.Wait32(0, 1, -1)
		require.NoError(t, err)
		result = r
	}()

	time.Sleep(20 * time.Millisecond)
	woken, err := m.Notify(0, 1)
	require.NoError(t, err)
	wg.Wait()

	require.Equal(t, uint32(1), woken)
	require.Equal(t, uint32(0), result)
}

func TestWait32_MismatchReturnsImmediately(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 5))
	r, err := m.Wait32(0, 99, -1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), r)
}

func TestWait32_TimesOut(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	require.NoError(t, m.AtomicStore32(0, 5))
	r, err := m.Wait32(0, 5, int64(10*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, uint32(2), r)
}

func TestAtomicLoad32_UnalignedOffsetTraps(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	_, err := m.AtomicLoad32(2)
	require.Error(t, err)
	var unaligned *UnalignedAtomicError
	require.ErrorAs(t, err, &unaligned)
	require.Equal(t, uint32(2), unaligned.Offset)
	require.Equal(t, uint32(4), unaligned.Alignment)
}

func TestAtomicStore64_UnalignedOffsetTraps(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	err := m.AtomicStore64(4, 0)
	require.Error(t, err)
	var unaligned *UnalignedAtomicError
	require.ErrorAs(t, err, &unaligned)
	require.Equal(t, uint32(4), unaligned.Offset)
	require.Equal(t, uint32(8), unaligned.Alignment)
}

func TestAtomicRMW32_UnalignedOffsetTraps(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	_, err := m.AtomicRMW32(1, func(v uint32) uint32 { return v })
	require.Error(t, err)
	var unaligned *UnalignedAtomicError
	require.ErrorAs(t, err, &unaligned)
}

func TestAtomicCmpxchg64_UnalignedOffsetTraps(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	_, err := m.AtomicCmpxchg64(3, 0, 1)
	require.Error(t, err)
	var unaligned *UnalignedAtomicError
	require.ErrorAs(t, err, &unaligned)
}

func TestWait32_UnalignedOffsetTraps(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	_, err := m.Wait32(1, 0, -1)
	require.Error(t, err)
	var unaligned *UnalignedAtomicError
	require.ErrorAs(t, err, &unaligned)
}

func TestNotify_UnalignedOffsetTraps(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	_, err := m.Notify(1, 1)
	require.Error(t, err)
	var unaligned *UnalignedAtomicError
	require.ErrorAs(t, err, &unaligned)
}

func TestAtomicLoad32_AlignedOffsetsSucceed(t *testing.T) {
	m := sharedMemory(t, 1, 1)
	for _, off := range []uint32{0, 4, 8, 12} {
		_, err := m.AtomicLoad32(off)
		require.NoError(t, err)
	}
}

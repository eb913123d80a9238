package memsys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBudget_ReserveWithinLimit(t *testing.T) {
	b := NewBudget(100)
	require.True(t, b.Reserve(60))
	require.True(t, b.Reserve(40))
	require.Equal(t, uint64(100), b.Used())
}

func TestBudget_ReserveExceedsLimit(t *testing.T) {
	b := NewBudget(100)
	require.True(t, b.Reserve(90))
	require.False(t, b.Reserve(20))
	require.Equal(t, uint64(90), b.Used())
}

func TestBudget_ZeroLimitIsUnbounded(t *testing.T) {
	b := NewBudget(0)
	require.True(t, b.Reserve(1<<40))
}

func TestBudget_Release(t *testing.T) {
	b := NewBudget(100)
	require.True(t, b.Reserve(50))
	b.Release(20)
	require.Equal(t, uint64(30), b.Used())
}

func TestBudget_ReleaseClampsAtZero(t *testing.T) {
	b := NewBudget(100)
	require.True(t, b.Reserve(10))
	b.Release(1000)
	require.Equal(t, uint64(0), b.Used())
}

func TestBudget_Limit(t *testing.T) {
	b := NewBudget(42)
	require.Equal(t, uint64(42), b.Limit())
}

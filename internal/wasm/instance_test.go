package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInstance_StartsCreated(t *testing.T) {
	m := NewModule()
	inst := NewInstance("inst0", m)
	require.Equal(t, InstanceCreated, inst.State)
	require.Equal(t, "inst0", inst.Name)
	require.Same(t, m, inst.Module)
}

func TestInstance_Terminate(t *testing.T) {
	inst := NewInstance("inst0", NewModule())
	inst.Memories = []*MemoryInstance{{}}
	inst.Globals = []*GlobalInstance{{}}
	inst.Tables = []*TableInstance{{}}
	inst.Functions = []*FunctionInstance{{}}

	inst.Terminate()

	require.Equal(t, InstanceTerminated, inst.State)
	require.Nil(t, inst.Memories[0])
	require.Nil(t, inst.Globals[0])
	require.Nil(t, inst.Tables[0])
	require.Nil(t, inst.Functions[0])
}

func TestInstance_TerminateIsIdempotent(t *testing.T) {
	inst := NewInstance("inst0", NewModule())
	inst.Terminate()
	require.NotPanics(t, func() { inst.Terminate() })
	require.Equal(t, InstanceTerminated, inst.State)
}

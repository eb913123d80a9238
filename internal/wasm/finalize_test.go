package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeBody_Block(t *testing.T) {
	body := []Instruction{
		{Op: OpBlock},
		{Op: OpEnd},
		{Op: OpEnd}, // function body's own end
	}
	require.NoError(t, finalizeBody(body))
	require.Equal(t, 1, body[0].ContinuationPC)
}

func TestFinalizeBody_Loop_ContinuationIsOwnPC(t *testing.T) {
	body := []Instruction{
		{Op: OpLoop},
		{Op: OpEnd},
		{Op: OpEnd},
	}
	require.NoError(t, finalizeBody(body))
	require.Equal(t, 0, body[0].ContinuationPC)
}

func TestFinalizeBody_IfElse(t *testing.T) {
	body := []Instruction{
		{Op: OpIf},  // 0
		{Op: OpElse}, // 1
		{Op: OpEnd},  // 2: if's end
		{Op: OpEnd},  // 3: function end
	}
	require.NoError(t, finalizeBody(body))
	require.Equal(t, 1, body[0].ElsePC)
	require.Equal(t, 2, body[0].ContinuationPC)
	require.Equal(t, 2, body[1].ContinuationPC)
}

func TestFinalizeBody_IfWithoutElse(t *testing.T) {
	body := []Instruction{
		{Op: OpIf},
		{Op: OpEnd},
		{Op: OpEnd},
	}
	require.NoError(t, finalizeBody(body))
	require.Equal(t, 0, body[0].ElsePC)
	require.Equal(t, 1, body[0].ContinuationPC)
}

func TestFinalizeBody_Nested(t *testing.T) {
	body := []Instruction{
		{Op: OpBlock}, // 0
		{Op: OpLoop},  // 1
		{Op: OpEnd},   // 2: loop's end
		{Op: OpEnd},   // 3: block's end
		{Op: OpEnd},   // 4: function end
	}
	require.NoError(t, finalizeBody(body))
	require.Equal(t, 3, body[0].ContinuationPC)
	require.Equal(t, 1, body[1].ContinuationPC)
}

func TestFinalizeBody_ElseWithoutIf(t *testing.T) {
	body := []Instruction{
		{Op: OpElse},
		{Op: OpEnd},
	}
	require.Error(t, finalizeBody(body))
}

func TestFinalizeBody_UnclosedBlock(t *testing.T) {
	body := []Instruction{
		{Op: OpBlock},
	}
	require.Error(t, finalizeBody(body))
}

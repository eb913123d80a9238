package features_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/internal/features"
)

func init() {
	os.Setenv(features.EnvVarName, features.SIMD+","+features.Threads)
	features.EnableFromEnvironment()
}

func TestList(t *testing.T) {
	require.Contains(t, features.List(), features.SIMD)
	require.Contains(t, features.List(), features.Threads)
}

func TestEnabled(t *testing.T) {
	require.True(t, features.Enabled(features.SIMD))
	require.True(t, features.Enabled(features.Threads))
	require.False(t, features.Enabled("nope"))
}

func TestEnableIgnoresUnknown(t *testing.T) {
	features.Enable("nope", features.BulkMemory)
	require.False(t, features.Enabled("nope"))
	require.True(t, features.Enabled(features.BulkMemory))
}

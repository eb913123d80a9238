package diag

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestDiag_LogsGoSomewhereWithoutPanicking(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})
	SetLevel(logrus.InfoLevel)
	defer SetLevel(logrus.WarnLevel)

	Instantiated("mod", "inst0")
	InstantiationFailed("mod", errors.New("boom"))
	Trapped("inst0", 3, "unreachable")
	MemoryGrown("inst0", 0, 1, 2)
	BudgetDenied("memsys", 100, 50)

	require.NotEmpty(t, buf.String())
	require.Contains(t, buf.String(), "instance created")
}

func TestCapabilityDenied_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(CapabilityDenials.WithLabelValues("env", "open"))
	CapabilityDenied("inst0", "env", "open")
	after := testutil.ToFloat64(CapabilityDenials.WithLabelValues("env", "open"))
	require.Equal(t, before+1, after)
}

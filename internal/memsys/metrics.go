package memsys

import "github.com/prometheus/client_golang/prometheus"

// Metrics are process-wide counters/gauges exported for host-side
// monitoring of the memory subsystem. They are observational only — never
// read back by the engine — so they can never influence execution
// (spec.md §4.2's determinism boundary).
var (
	PagesAllocated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wrt",
		Subsystem: "memory",
		Name:      "pages_allocated",
		Help:      "Total linear memory pages currently allocated across all instances.",
	})

	GrowCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wrt",
		Subsystem: "memory",
		Name:      "grow_total",
		Help:      "memory.grow invocations, labeled by outcome.",
	}, []string{"outcome"})

	BudgetDenials = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wrt",
		Subsystem: "memory",
		Name:      "budget_denied_total",
		Help:      "Allocation or grow requests rejected by the process-wide budget.",
	})

	ChecksumMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wrt",
		Subsystem: "memory",
		Name:      "checksum_mismatch_total",
		Help:      "Integrity checks that found linear memory content diverged from its last known-good checksum.",
	})
)

func init() {
	prometheus.MustRegister(PagesAllocated, GrowCalls, BudgetDenials, ChecksumMismatches)
}

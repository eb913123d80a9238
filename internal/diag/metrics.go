package diag

import "github.com/prometheus/client_golang/prometheus"

// CapabilityDenials counts host calls rejected for lack of capability,
// labeled by the (module, name) pair that was denied, so an embedder can
// tell which import an instance kept attempting without a grant.
var CapabilityDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wrt",
	Subsystem: "hostbridge",
	Name:      "capability_denied_total",
	Help:      "Host calls rejected for lack of a granted capability, labeled by module and function.",
}, []string{"module", "name"})

func init() {
	prometheus.MustRegister(CapabilityDenials)
}

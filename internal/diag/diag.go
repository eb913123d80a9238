// Package diag carries the core's host-observable diagnostic logging:
// compilation/instantiation outcomes, traps, memory growth, and budget
// pressure. None of it participates in Wasm semantics (spec.md §4.2 draws
// this line explicitly for memory metrics, and the same boundary applies
// here): two runs that log differently must still trap and return
// identically.
package diag

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = logrus.New()
)

func init() {
	log.SetLevel(logrus.WarnLevel)
}

// SetLevel adjusts global verbosity. Safe for concurrent use.
func SetLevel(level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	log.SetLevel(level)
}

// SetOutput redirects where diagnostics are written; defaults to stderr.
func SetOutput(w interface{ Write([]byte) (int, error) }) {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(w)
}

func entry() *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return logrus.NewEntry(log)
}

// Instantiated logs a successful instantiation.
func Instantiated(moduleName, instanceName string) {
	entry().WithFields(logrus.Fields{
		"module":   moduleName,
		"instance": instanceName,
	}).Info("instance created")
}

// InstantiationFailed logs a failed instantiation.
func InstantiationFailed(moduleName string, err error) {
	entry().WithFields(logrus.Fields{
		"module": moduleName,
		"error":  err,
	}).Warn("instantiation failed")
}

// Trapped logs a trap, tagged with the function that raised it.
func Trapped(instanceName string, funcIdx uint32, kind string) {
	entry().WithFields(logrus.Fields{
		"instance": instanceName,
		"func":     funcIdx,
		"kind":     kind,
	}).Warn("trap")
}

// MemoryGrown logs a successful memory.grow.
func MemoryGrown(instanceName string, memIdx uint32, fromPages, toPages uint32) {
	entry().WithFields(logrus.Fields{
		"instance": instanceName,
		"memory":   memIdx,
		"from":     fromPages,
		"to":       toPages,
	}).Debug("memory grown")
}

// BudgetDenied logs a grow/instantiate request rejected by the process-wide
// memory budget.
func BudgetDenied(subsystem string, requestedBytes, availableBytes uint64) {
	entry().WithFields(logrus.Fields{
		"subsystem": subsystem,
		"requested": requestedBytes,
		"available": availableBytes,
	}).Warn("budget denied")
}

// CapabilityDenied logs a host call rejected for lack of capability and
// increments CapabilityDenials.
func CapabilityDenied(instanceName, module, name string) {
	entry().WithFields(logrus.Fields{
		"instance": instanceName,
		"module":   module,
		"func":     name,
	}).Warn("capability denied")
	CapabilityDenials.WithLabelValues(module, name).Inc()
}

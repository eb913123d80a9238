// Package features implements a build-time-ish feature flagging mechanism
// for the core engine. Features gate post-1.0 proposals (SIMD, bulk-memory,
// threads, the Component Model) that the validator and interpreter must
// otherwise assume are absent.
package features

import (
	"os"
	"strings"
	"sync"
)

const (
	// EnvVarName is the environment variable carrying a comma-separated
	// list of feature names to enable in addition to a Config's defaults.
	EnvVarName = "WRTFEATURES"

	SIMD            = "simd"
	BulkMemory      = "bulk-memory"
	ReferenceTypes  = "reference-types"
	Threads         = "threads"
	MultiValue      = "multi-value"
	TailCall        = "tail-call"
	ComponentModel  = "component-model"
	NonTrappingConv = "nontrapping-float-to-int-conversion"
)

var (
	lock sync.RWMutex
	list []string
)

// EnableFromEnvironment extracts the list of features enabled via the
// WRTFEATURES environment variable.
func EnableFromEnvironment() {
	v := os.Getenv(EnvVarName)
	if v == "" {
		return
	}
	Enable(strings.Split(v, ",")...)
}

// Enable adds the given feature names to the enabled set. Idempotent.
// Unrecognized names are ignored.
func Enable(names ...string) {
	lock.Lock()
	defer lock.Unlock()

	enabled := list
	for _, f := range names {
		if supported(f) && !have(enabled, f) {
			enabled = append(enabled, f)
		}
	}
	list = enabled
}

// List returns the currently enabled features. Callers must treat the
// returned slice as read-only.
func List() []string {
	lock.RLock()
	defer lock.RUnlock()
	return list
}

// Enabled returns true if the named feature is enabled.
func Enabled(feature string) bool {
	lock.RLock()
	defer lock.RUnlock()
	return have(list, feature)
}

func have(list []string, feature string) bool {
	for _, f := range list {
		if f == feature {
			return true
		}
	}
	return false
}

func supported(feature string) bool {
	switch feature {
	case SIMD, BulkMemory, ReferenceTypes, Threads, MultiValue, TailCall, ComponentModel, NonTrappingConv:
		return true
	default:
		return false
	}
}

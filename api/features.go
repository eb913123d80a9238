package api

import (
	"fmt"
	"strings"
)

// CoreFeatures is a bitset of WebAssembly Core proposals the validator and
// interpreter accept. Bit 0 is never used: a bitset cannot treat zero as a
// flag, so every CoreFeature constant below starts at 1<<1 or higher via
// iota+1.
//
// See https://github.com/WebAssembly/proposals
type CoreFeatures uint64

const (
	// CoreFeatureMutableGlobal allows globals to be declared mutable.
	//
	// See https://github.com/WebAssembly/mutable-global
	CoreFeatureMutableGlobal CoreFeatures = 1 << (iota + 1)

	// CoreFeatureSignExtensionOps adds the i32.extend8_s family.
	//
	// See https://github.com/WebAssembly/sign-extension-ops
	CoreFeatureSignExtensionOps

	// CoreFeatureMultiValue allows functions and blocks to return more than
	// one value.
	//
	// See https://github.com/WebAssembly/multi-value
	CoreFeatureMultiValue

	// CoreFeatureNonTrappingFloatToIntConversion adds the *.trunc_sat_* family,
	// which saturate instead of trapping on NaN or out-of-range input.
	//
	// See https://github.com/WebAssembly/nontrapping-float-to-int-conversion
	CoreFeatureNonTrappingFloatToIntConversion

	// CoreFeatureBulkMemoryOperations adds memory.copy, memory.fill,
	// table.copy and passive element/data segments.
	//
	// See https://github.com/WebAssembly/bulk-memory-operations
	CoreFeatureBulkMemoryOperations

	// CoreFeatureReferenceTypes adds externref, table.grow/size/fill and
	// multiple tables.
	//
	// See https://github.com/WebAssembly/reference-types
	CoreFeatureReferenceTypes

	// CoreFeatureSIMD adds the v128 value type and its instruction family.
	//
	// See https://github.com/webassembly/simd
	CoreFeatureSIMD

	// CoreFeatureThreads adds shared memories and atomic instructions.
	//
	// See https://github.com/WebAssembly/threads
	CoreFeatureThreads

	// CoreFeatureTailCall adds return_call and return_call_indirect.
	//
	// See https://github.com/WebAssembly/tail-call
	CoreFeatureTailCall
)

// CoreFeaturesV1 are the features included in WebAssembly Core 1.0
// (20191205).
const CoreFeaturesV1 = CoreFeatureMutableGlobal

// CoreFeaturesV2 are the features included in WebAssembly Core 2.0, built on
// top of 1.0.
const CoreFeaturesV2 = CoreFeaturesV1 |
	CoreFeatureSignExtensionOps |
	CoreFeatureMultiValue |
	CoreFeatureNonTrappingFloatToIntConversion |
	CoreFeatureBulkMemoryOperations |
	CoreFeatureReferenceTypes |
	CoreFeatureSIMD

// featureNames is ordered alphabetically by name so CoreFeatures.String is
// deterministic.
var featureNames = []struct {
	bit  CoreFeatures
	name string
}{
	{CoreFeatureBulkMemoryOperations, "bulk-memory-operations"},
	{CoreFeatureMultiValue, "multi-value"},
	{CoreFeatureMutableGlobal, "mutable-global"},
	{CoreFeatureNonTrappingFloatToIntConversion, "nontrapping-float-to-int-conversion"},
	{CoreFeatureReferenceTypes, "reference-types"},
	{CoreFeatureSignExtensionOps, "sign-extension-ops"},
	{CoreFeatureSIMD, "simd"},
	{CoreFeatureTailCall, "tail-call"},
	{CoreFeatureThreads, "threads"},
}

// IsEnabled returns true if the given feature (or set of features) is
// enabled.
func (f CoreFeatures) IsEnabled(feature CoreFeatures) bool {
	return feature != 0 && f&feature == feature
}

// SetEnabled sets or clears the given feature (or set of features). Setting
// bit zero is a no-op: it was never a valid flag.
func (f CoreFeatures) SetEnabled(feature CoreFeatures, enabled bool) CoreFeatures {
	if enabled {
		return f | feature
	}
	return f &^ feature
}

// String renders the enabled feature names, "|"-joined and alphabetically
// sorted, or "" if none are set.
func (f CoreFeatures) String() string {
	var names []string
	for _, fn := range featureNames {
		if f.IsEnabled(fn.bit) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// RequireEnabled returns an error naming the first of the requested features
// that isn't enabled in f, or nil if all are enabled.
func (f CoreFeatures) RequireEnabled(features CoreFeatures) error {
	for _, fn := range featureNames {
		if features.IsEnabled(fn.bit) && !f.IsEnabled(fn.bit) {
			return fmt.Errorf("feature %q is disabled", fn.name)
		}
	}
	return nil
}

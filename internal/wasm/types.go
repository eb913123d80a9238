// Package wasm holds the post-decode module data model described in
// spec.md §3: Module, Instance, and the value/type vocabulary shared by the
// validator, linear memory subsystem, interpreter, and host bridge.
//
// This package never parses `.wasm` bytes: per spec.md §1, the binary
// decoder is an external collaborator. Callers either already have a
// decoded Module, or build one in-memory with ModuleBuilder.
package wasm

import (
	"fmt"

	"github.com/pulseengine/wrt-go/api"
)

// Features is the set of Core/Component proposals enabled for a Module's
// validation and execution.
type Features = api.CoreFeatures

const (
	Features10 = api.CoreFeaturesV1
	Features20 = api.CoreFeaturesV2
)

// MemoryPageSize is 64KiB, the fixed granularity of linear memory growth.
const MemoryPageSize = 65536

// MemoryMaxPages is the largest number of pages addressable with a 32-bit
// offset: 65536 pages * 64KiB = 4GiB.
const MemoryMaxPages = 65536

// Index is a position in one of a module's index spaces (types, functions,
// tables, memories, globals).
type Index = uint32

// FunctionType is a function signature: ordered parameter types and ordered
// result types.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// String renders a FunctionType in a WAT-like shorthand, e.g. "(i32,i64)->(i32)".
func (t *FunctionType) String() string {
	return fmt.Sprintf("(%s)->(%s)", valueTypesString(t.Params), valueTypesString(t.Results))
}

// Equal reports whether two signatures accept and return the same types in
// the same order — the equality relation call_indirect and import
// resolution use.
func (t *FunctionType) Equal(o *FunctionType) bool {
	if o == nil {
		return false
	}
	return sliceEqual(t.Params, o.Params) && sliceEqual(t.Results, o.Results)
}

func sliceEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func valueTypesString(vs []ValueType) string {
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ","
		}
		s += ValueTypeName(v)
	}
	return s
}

// Limits bounds a table or memory's size: Min is required, Max is optional.
type Limits struct {
	Min uint32
	Max *uint32 // nil means unbounded (up to the type's hard ceiling)
}

// TableType describes a table's element type and size limits.
type TableType struct {
	ElemType ValueType // ValueTypeFuncref or ValueTypeExternref
	Limits   Limits
}

// MemoryType describes a memory's size limits and whether it may be shared
// across Instances (spec.md §3.5, §5).
type MemoryType struct {
	Limits Limits
	Shared bool
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

package validator

import "github.com/pulseengine/wrt-go/internal/wasm"

// memOpInfo describes a load or store instruction's value type and the
// largest alignment immediate it may legally claim (spec.md §4.1: claiming
// an alignment wider than the access size is a validation error, not a
// runtime one).
type memOpInfo struct {
	valType   wasm.ValueType
	maxAlign  uint32 // log2 of the access width in bytes
	isStore   bool
}

var memOps = map[wasm.Opcode]memOpInfo{
	wasm.OpI32Load:    {i32Ty, 2, false},
	wasm.OpI64Load:    {i64Ty, 3, false},
	wasm.OpF32Load:    {f32Ty, 2, false},
	wasm.OpF64Load:    {f64Ty, 3, false},
	wasm.OpI32Load8S:  {i32Ty, 0, false},
	wasm.OpI32Load8U:  {i32Ty, 0, false},
	wasm.OpI32Load16S: {i32Ty, 1, false},
	wasm.OpI32Load16U: {i32Ty, 1, false},
	wasm.OpI64Load8S:  {i64Ty, 0, false},
	wasm.OpI64Load8U:  {i64Ty, 0, false},
	wasm.OpI64Load16S: {i64Ty, 1, false},
	wasm.OpI64Load16U: {i64Ty, 1, false},
	wasm.OpI64Load32S: {i64Ty, 2, false},
	wasm.OpI64Load32U: {i64Ty, 2, false},

	wasm.OpI32Store:   {i32Ty, 2, true},
	wasm.OpI64Store:   {i64Ty, 3, true},
	wasm.OpF32Store:   {f32Ty, 2, true},
	wasm.OpF64Store:   {f64Ty, 3, true},
	wasm.OpI32Store8:  {i32Ty, 0, true},
	wasm.OpI32Store16: {i32Ty, 1, true},
	wasm.OpI64Store8:  {i64Ty, 0, true},
	wasm.OpI64Store16: {i64Ty, 1, true},
	wasm.OpI64Store32: {i64Ty, 2, true},

	wasm.OpV128Load:  {wasm.ValueTypeV128, 4, false},
	wasm.OpV128Store: {wasm.ValueTypeV128, 4, true},
}

// atomicOps mirrors memOps for the threads proposal's atomic family.
// memory.atomic.wait32/64 and notify carry their own entries because their
// value-type shape doesn't fit the plain load/store pattern.
var atomicOps = map[wasm.Opcode]memOpInfo{
	wasm.OpI32AtomicLoad:        {i32Ty, 2, false},
	wasm.OpI64AtomicLoad:        {i64Ty, 3, false},
	wasm.OpI32AtomicStore:       {i32Ty, 2, true},
	wasm.OpI64AtomicStore:       {i64Ty, 3, true},
	wasm.OpI32AtomicRMWAdd:      {i32Ty, 2, true},
	wasm.OpI64AtomicRMWAdd:      {i64Ty, 3, true},
	wasm.OpI32AtomicRMWCmpxchg:  {i32Ty, 2, true},
	wasm.OpI64AtomicRMWCmpxchg:  {i64Ty, 3, true},
}

package wasm

import "github.com/pulseengine/wrt-go/api"

// ValueType is re-exported from api so internal code has one vocabulary.
type ValueType = api.ValueType

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeV128      ValueType = 0x7b
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref           = api.ValueTypeExternref
	// ValueTypeStructref and ValueTypeArrayref are Wasm-GC reference kinds.
	// The core treats both as opaque 64-bit handles; see spec.md §3.1.
	ValueTypeStructref ValueType = 0x65
	ValueTypeArrayref  ValueType = 0x64
)

// IsReferenceType reports whether t is one of the reference value types.
func IsReferenceType(t ValueType) bool {
	switch t {
	case ValueTypeFuncref, ValueTypeExternref, ValueTypeStructref, ValueTypeArrayref:
		return true
	default:
		return false
	}
}

// ValueTypeName names a value type for error messages and debug output.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	case ValueTypeStructref:
		return "structref"
	case ValueTypeArrayref:
		return "arrayref"
	default:
		return "unknown"
	}
}

// Value is a tagged union of a ValueType and its bit-pattern. Floats are
// carried as bits so NaN payloads survive moves between the operand stack
// and linear memory exactly, per spec.md §3.1.
type Value struct {
	Type ValueType
	// Lo holds i32/f32 (in the low 32 bits), i64/f64, and the low 64 bits
	// of a v128. Reference types store a stable index/handle here.
	Lo uint64
	// Hi holds the high 64 bits of a v128; zero for all other types.
	Hi uint64
}

func I32Value(v int32) Value  { return Value{Type: ValueTypeI32, Lo: uint64(uint32(v))} }
func I64Value(v int64) Value  { return Value{Type: ValueTypeI64, Lo: uint64(v)} }
func F32Value(bits uint32) Value { return Value{Type: ValueTypeF32, Lo: uint64(bits)} }
func F64Value(bits uint64) Value { return Value{Type: ValueTypeF64, Lo: bits} }

func (v Value) I32() int32  { return int32(uint32(v.Lo)) }
func (v Value) U32() uint32 { return uint32(v.Lo) }
func (v Value) I64() int64  { return int64(v.Lo) }
func (v Value) U64() uint64 { return v.Lo }

// NullRef is the bit pattern a null funcref/externref carries.
const NullRef uint64 = ^uint64(0)

// IsNullRef reports whether a reference-typed Value is null.
func (v Value) IsNullRef() bool { return IsReferenceType(v.Type) && v.Lo == NullRef }

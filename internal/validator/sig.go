package validator

import (
	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// sig is the operand/result signature of an instruction whose type-checking
// needs no context beyond its own opcode (arithmetic, comparison,
// conversion, and similar "pure stack shuffle" instructions). Instructions
// that need module/function context (locals, globals, calls, memory,
// control flow) are handled directly in validator.go instead of through
// this table.
type sig struct {
	pop  []wasm.ValueType
	push []wasm.ValueType
}

var (
	i32Ty  = wasm.ValueTypeI32
	i64Ty  = wasm.ValueTypeI64
	f32Ty  = wasm.ValueTypeF32
	f64Ty  = wasm.ValueTypeF64

	i32_ = []wasm.ValueType{i32Ty}
	i64_ = []wasm.ValueType{i64Ty}
	f32_ = []wasm.ValueType{f32Ty}
	f64_ = []wasm.ValueType{f64Ty}

	i32i32_ = []wasm.ValueType{i32Ty, i32Ty}
	i64i64_ = []wasm.ValueType{i64Ty, i64Ty}
	f32f32_ = []wasm.ValueType{f32Ty, f32Ty}
	f64f64_ = []wasm.ValueType{f64Ty, f64Ty}
)

var simpleSigs = map[wasm.Opcode]sig{}

func addSig(op wasm.Opcode, pop, push []wasm.ValueType) {
	simpleSigs[op] = sig{pop: pop, push: push}
}

func init() {
	// i32 relational: (i32,i32)->i32; i32.eqz: i32->i32
	addSig(wasm.OpI32Eqz, i32_, i32_)
	for _, op := range []wasm.Opcode{
		wasm.OpI32Eq, wasm.OpI32Ne, wasm.OpI32LtS, wasm.OpI32LtU, wasm.OpI32GtS, wasm.OpI32GtU,
		wasm.OpI32LeS, wasm.OpI32LeU, wasm.OpI32GeS, wasm.OpI32GeU,
	} {
		addSig(op, i32i32_, i32_)
	}

	addSig(wasm.OpI64Eqz, i64_, i32_)
	for _, op := range []wasm.Opcode{
		wasm.OpI64Eq, wasm.OpI64Ne, wasm.OpI64LtS, wasm.OpI64LtU, wasm.OpI64GtS, wasm.OpI64GtU,
		wasm.OpI64LeS, wasm.OpI64LeU, wasm.OpI64GeS, wasm.OpI64GeU,
	} {
		addSig(op, i64i64_, i32_)
	}

	for _, op := range []wasm.Opcode{wasm.OpF32Eq, wasm.OpF32Ne, wasm.OpF32Lt, wasm.OpF32Gt, wasm.OpF32Le, wasm.OpF32Ge} {
		addSig(op, f32f32_, i32_)
	}
	for _, op := range []wasm.Opcode{wasm.OpF64Eq, wasm.OpF64Ne, wasm.OpF64Lt, wasm.OpF64Gt, wasm.OpF64Le, wasm.OpF64Ge} {
		addSig(op, f64f64_, i32_)
	}

	// i32 arithmetic: unary i32->i32, binary (i32,i32)->i32
	for _, op := range []wasm.Opcode{wasm.OpI32Clz, wasm.OpI32Ctz, wasm.OpI32Popcnt} {
		addSig(op, i32_, i32_)
	}
	for _, op := range []wasm.Opcode{
		wasm.OpI32Add, wasm.OpI32Sub, wasm.OpI32Mul, wasm.OpI32DivS, wasm.OpI32DivU,
		wasm.OpI32RemS, wasm.OpI32RemU, wasm.OpI32And, wasm.OpI32Or, wasm.OpI32Xor,
		wasm.OpI32Shl, wasm.OpI32ShrS, wasm.OpI32ShrU, wasm.OpI32Rotl, wasm.OpI32Rotr,
	} {
		addSig(op, i32i32_, i32_)
	}

	for _, op := range []wasm.Opcode{wasm.OpI64Clz, wasm.OpI64Ctz, wasm.OpI64Popcnt} {
		addSig(op, i64_, i64_)
	}
	for _, op := range []wasm.Opcode{
		wasm.OpI64Add, wasm.OpI64Sub, wasm.OpI64Mul, wasm.OpI64DivS, wasm.OpI64DivU,
		wasm.OpI64RemS, wasm.OpI64RemU, wasm.OpI64And, wasm.OpI64Or, wasm.OpI64Xor,
		wasm.OpI64Shl, wasm.OpI64ShrS, wasm.OpI64ShrU, wasm.OpI64Rotl, wasm.OpI64Rotr,
	} {
		addSig(op, i64i64_, i64_)
	}

	for _, op := range []wasm.Opcode{
		wasm.OpF32Abs, wasm.OpF32Neg, wasm.OpF32Ceil, wasm.OpF32Floor, wasm.OpF32Trunc,
		wasm.OpF32Nearest, wasm.OpF32Sqrt,
	} {
		addSig(op, f32_, f32_)
	}
	for _, op := range []wasm.Opcode{wasm.OpF32Add, wasm.OpF32Sub, wasm.OpF32Mul, wasm.OpF32Div, wasm.OpF32Min, wasm.OpF32Max, wasm.OpF32Copysign} {
		addSig(op, f32f32_, f32_)
	}

	for _, op := range []wasm.Opcode{
		wasm.OpF64Abs, wasm.OpF64Neg, wasm.OpF64Ceil, wasm.OpF64Floor, wasm.OpF64Trunc,
		wasm.OpF64Nearest, wasm.OpF64Sqrt,
	} {
		addSig(op, f64_, f64_)
	}
	for _, op := range []wasm.Opcode{wasm.OpF64Add, wasm.OpF64Sub, wasm.OpF64Mul, wasm.OpF64Div, wasm.OpF64Min, wasm.OpF64Max, wasm.OpF64Copysign} {
		addSig(op, f64f64_, f64_)
	}

	// Conversions.
	addSig(wasm.OpI32WrapI64, i64_, i32_)
	addSig(wasm.OpI32TruncF32S, f32_, i32_)
	addSig(wasm.OpI32TruncF32U, f32_, i32_)
	addSig(wasm.OpI32TruncF64S, f64_, i32_)
	addSig(wasm.OpI32TruncF64U, f64_, i32_)
	addSig(wasm.OpI64ExtendI32S, i32_, i64_)
	addSig(wasm.OpI64ExtendI32U, i32_, i64_)
	addSig(wasm.OpI64TruncF32S, f32_, i64_)
	addSig(wasm.OpI64TruncF32U, f32_, i64_)
	addSig(wasm.OpI64TruncF64S, f64_, i64_)
	addSig(wasm.OpI64TruncF64U, f64_, i64_)
	addSig(wasm.OpF32ConvertI32S, i32_, f32_)
	addSig(wasm.OpF32ConvertI32U, i32_, f32_)
	addSig(wasm.OpF32ConvertI64S, i64_, f32_)
	addSig(wasm.OpF32ConvertI64U, i64_, f32_)
	addSig(wasm.OpF32DemoteF64, f64_, f32_)
	addSig(wasm.OpF64ConvertI32S, i32_, f64_)
	addSig(wasm.OpF64ConvertI32U, i32_, f64_)
	addSig(wasm.OpF64ConvertI64S, i64_, f64_)
	addSig(wasm.OpF64ConvertI64U, i64_, f64_)
	addSig(wasm.OpF64PromoteF32, f32_, f64_)
	addSig(wasm.OpI32ReinterpretF32, f32_, i32_)
	addSig(wasm.OpI64ReinterpretF64, f64_, i64_)
	addSig(wasm.OpF32ReinterpretI32, i32_, f32_)
	addSig(wasm.OpF64ReinterpretI64, i64_, f64_)

	// Sign extension (requires CoreFeatureSignExtensionOps, checked by caller).
	addSig(wasm.OpI32Extend8S, i32_, i32_)
	addSig(wasm.OpI32Extend16S, i32_, i32_)
	addSig(wasm.OpI64Extend8S, i64_, i64_)
	addSig(wasm.OpI64Extend16S, i64_, i64_)
	addSig(wasm.OpI64Extend32S, i64_, i64_)

	// Saturating truncation (requires CoreFeatureNonTrappingFloatToIntConversion).
	addSig(wasm.OpI32TruncSatF32S, f32_, i32_)
	addSig(wasm.OpI32TruncSatF32U, f32_, i32_)
	addSig(wasm.OpI32TruncSatF64S, f64_, i32_)
	addSig(wasm.OpI32TruncSatF64U, f64_, i32_)
	addSig(wasm.OpI64TruncSatF32S, f32_, i64_)
	addSig(wasm.OpI64TruncSatF32U, f32_, i64_)
	addSig(wasm.OpI64TruncSatF64S, f64_, i64_)
	addSig(wasm.OpI64TruncSatF64U, f64_, i64_)
}

// requiredFeature reports which optional feature (if any) governs op, so
// the caller can reject it under a module that didn't request the
// feature (spec.md §4.1's feature-gating requirement).
func requiredFeature(op wasm.Opcode) (wasm.Features, bool) {
	switch op {
	case wasm.OpI32Extend8S, wasm.OpI32Extend16S, wasm.OpI64Extend8S, wasm.OpI64Extend16S, wasm.OpI64Extend32S:
		return wasm.Features(api.CoreFeatureSignExtensionOps), true
	case wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
		return wasm.Features(api.CoreFeatureNonTrappingFloatToIntConversion), true
	case wasm.OpMemoryInit, wasm.OpDataDrop, wasm.OpMemoryCopy, wasm.OpMemoryFill,
		wasm.OpTableInit, wasm.OpElemDrop, wasm.OpTableCopy, wasm.OpTableGrow, wasm.OpTableSize, wasm.OpTableFill:
		return wasm.Features(api.CoreFeatureBulkMemoryOperations), true
	case wasm.OpRefNull, wasm.OpRefIsNull, wasm.OpRefFunc, wasm.OpTableGet, wasm.OpTableSet, wasm.OpSelectT:
		return wasm.Features(api.CoreFeatureReferenceTypes), true
	case wasm.OpV128Const, wasm.OpV128Load, wasm.OpV128Store, wasm.OpI32x4Add, wasm.OpI32x4Sub, wasm.OpI32x4Mul, wasm.OpF32x4Add, wasm.OpF64x2Add:
		return wasm.Features(api.CoreFeatureSIMD), true
	case wasm.OpReturnCall, wasm.OpReturnCallIndirect:
		return wasm.Features(api.CoreFeatureTailCall), true
	case wasm.OpAtomicFence, wasm.OpI32AtomicLoad, wasm.OpI64AtomicLoad, wasm.OpI32AtomicStore, wasm.OpI64AtomicStore,
		wasm.OpI32AtomicRMWAdd, wasm.OpI64AtomicRMWAdd, wasm.OpI32AtomicRMWCmpxchg, wasm.OpI64AtomicRMWCmpxchg,
		wasm.OpMemoryAtomicWait32, wasm.OpMemoryAtomicWait64, wasm.OpMemoryAtomicNotify:
		return wasm.Features(api.CoreFeatureThreads), true
	default:
		return 0, false
	}
}

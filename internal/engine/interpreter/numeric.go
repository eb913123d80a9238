package interpreter

import (
	"math"
	"math/bits"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/moremath"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

var numericOpTable map[wasm.Opcode]memOpFunc

func b2i32(b bool) wasm.Value {
	if b {
		return wasm.I32Value(1)
	}
	return wasm.I32Value(0)
}

func unop32(f func(int32) int32) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		v := ce.operands.pop().I32()
		return ce.operands.push(wasm.I32Value(f(v)))
	}
}

func unop64(f func(int64) int64) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		v := ce.operands.pop().I64()
		return ce.operands.push(wasm.I64Value(f(v)))
	}
}

func binop32(f func(a, b int32) (int32, error)) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := ce.operands.pop().I32()
		a := ce.operands.pop().I32()
		r, err := f(a, b)
		if err != nil {
			return err
		}
		return ce.operands.push(wasm.I32Value(r))
	}
}

func binop64(f func(a, b int64) (int64, error)) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := ce.operands.pop().I64()
		a := ce.operands.pop().I64()
		r, err := f(a, b)
		if err != nil {
			return err
		}
		return ce.operands.push(wasm.I64Value(r))
	}
}

func cmp32(f func(a, b int32) bool) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := ce.operands.pop().I32()
		a := ce.operands.pop().I32()
		return ce.operands.push(b2i32(f(a, b)))
	}
}

func cmp64(f func(a, b int64) bool) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := ce.operands.pop().I64()
		a := ce.operands.pop().I64()
		return ce.operands.push(b2i32(f(a, b)))
	}
}

func f32val(v wasm.Value) float32 { return math.Float32frombits(uint32(v.Lo)) }
func f64val(v wasm.Value) float64 { return math.Float64frombits(v.Lo) }
func fromF32(f float32) wasm.Value { return wasm.F32Value(math.Float32bits(f)) }
func fromF64(f float64) wasm.Value { return wasm.F64Value(math.Float64bits(f)) }

func unopF32(f func(float32) float32) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		v := f32val(ce.operands.pop())
		return ce.operands.push(fromF32(f(v)))
	}
}

func unopF64(f func(float64) float64) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		v := f64val(ce.operands.pop())
		return ce.operands.push(fromF64(f(v)))
	}
}

func binopF32(f func(a, b float32) float32) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := f32val(ce.operands.pop())
		a := f32val(ce.operands.pop())
		return ce.operands.push(fromF32(f(a, b)))
	}
}

func binopF64(f func(a, b float64) float64) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := f64val(ce.operands.pop())
		a := f64val(ce.operands.pop())
		return ce.operands.push(fromF64(f(a, b)))
	}
}

func cmpF32(f func(a, b float32) bool) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := f32val(ce.operands.pop())
		a := f32val(ce.operands.pop())
		return ce.operands.push(b2i32(f(a, b)))
	}
}

func cmpF64(f func(a, b float64) bool) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := f64val(ce.operands.pop())
		a := f64val(ce.operands.pop())
		return ce.operands.push(b2i32(f(a, b)))
	}
}

// truncToI32 implements the non-saturating i32.trunc_f* family: traps on
// NaN/infinity and on results outside the i32/u32 range, per spec.md §4.2.
func truncToI32(f float64, signed bool) (int32, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, trap(api.TrapInvalidConversionToInteger, "float is NaN or infinite")
	}
	t := math.Trunc(f)
	if signed {
		if t < math.MinInt32 || t > math.MaxInt32 {
			return 0, trap(api.TrapIntegerOverflow, "trunc result out of i32 range")
		}
		return int32(t), nil
	}
	if t < 0 || t > math.MaxUint32 {
		return 0, trap(api.TrapIntegerOverflow, "trunc result out of u32 range")
	}
	return int32(uint32(t)), nil
}

func truncToI64(f float64, signed bool) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, trap(api.TrapInvalidConversionToInteger, "float is NaN or infinite")
	}
	t := math.Trunc(f)
	if signed {
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, trap(api.TrapIntegerOverflow, "trunc result out of i64 range")
		}
		return int64(t), nil
	}
	if t < 0 || t >= math.MaxUint64 {
		return 0, trap(api.TrapIntegerOverflow, "trunc result out of u64 range")
	}
	return int64(uint64(t)), nil
}

func satTruncToI32(f float64, signed bool) int32 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if signed {
		if t <= math.MinInt32 {
			return math.MinInt32
		}
		if t >= math.MaxInt32 {
			return math.MaxInt32
		}
		return int32(t)
	}
	if t <= 0 {
		return 0
	}
	if t >= math.MaxUint32 {
		return int32(uint32(math.MaxUint32))
	}
	return int32(uint32(t))
}

func satTruncToI64(f float64, signed bool) int64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if signed {
		if t <= math.MinInt64 {
			return math.MinInt64
		}
		if t >= math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(t)
	}
	if t <= 0 {
		return 0
	}
	if t >= math.MaxUint64 {
		return int64(uint64(math.MaxUint64))
	}
	return int64(uint64(t))
}

func init() {
	numericOpTable = map[wasm.Opcode]memOpFunc{
		wasm.OpI32Const: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(instr.I32))
		},
		wasm.OpI64Const: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(instr.I64))
		},
		wasm.OpF32Const: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.F32Value(instr.F32))
		},
		wasm.OpF64Const: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.F64Value(instr.F64))
		},

		wasm.OpI32Eqz: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(b2i32(ce.operands.pop().I32() == 0))
		},
		wasm.OpI32Eq:  cmp32(func(a, b int32) bool { return a == b }),
		wasm.OpI32Ne:  cmp32(func(a, b int32) bool { return a != b }),
		wasm.OpI32LtS: cmp32(func(a, b int32) bool { return a < b }),
		wasm.OpI32LtU: cmp32(func(a, b int32) bool { return uint32(a) < uint32(b) }),
		wasm.OpI32GtS: cmp32(func(a, b int32) bool { return a > b }),
		wasm.OpI32GtU: cmp32(func(a, b int32) bool { return uint32(a) > uint32(b) }),
		wasm.OpI32LeS: cmp32(func(a, b int32) bool { return a <= b }),
		wasm.OpI32LeU: cmp32(func(a, b int32) bool { return uint32(a) <= uint32(b) }),
		wasm.OpI32GeS: cmp32(func(a, b int32) bool { return a >= b }),
		wasm.OpI32GeU: cmp32(func(a, b int32) bool { return uint32(a) >= uint32(b) }),

		wasm.OpI64Eqz: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(b2i32(ce.operands.pop().I64() == 0))
		},
		wasm.OpI64Eq:  cmp64(func(a, b int64) bool { return a == b }),
		wasm.OpI64Ne:  cmp64(func(a, b int64) bool { return a != b }),
		wasm.OpI64LtS: cmp64(func(a, b int64) bool { return a < b }),
		wasm.OpI64LtU: cmp64(func(a, b int64) bool { return uint64(a) < uint64(b) }),
		wasm.OpI64GtS: cmp64(func(a, b int64) bool { return a > b }),
		wasm.OpI64GtU: cmp64(func(a, b int64) bool { return uint64(a) > uint64(b) }),
		wasm.OpI64LeS: cmp64(func(a, b int64) bool { return a <= b }),
		wasm.OpI64LeU: cmp64(func(a, b int64) bool { return uint64(a) <= uint64(b) }),
		wasm.OpI64GeS: cmp64(func(a, b int64) bool { return a >= b }),
		wasm.OpI64GeU: cmp64(func(a, b int64) bool { return uint64(a) >= uint64(b) }),

		wasm.OpF32Eq: cmpF32(func(a, b float32) bool { return a == b }),
		wasm.OpF32Ne: cmpF32(func(a, b float32) bool { return a != b }),
		wasm.OpF32Lt: cmpF32(func(a, b float32) bool { return a < b }),
		wasm.OpF32Gt: cmpF32(func(a, b float32) bool { return a > b }),
		wasm.OpF32Le: cmpF32(func(a, b float32) bool { return a <= b }),
		wasm.OpF32Ge: cmpF32(func(a, b float32) bool { return a >= b }),

		wasm.OpF64Eq: cmpF64(func(a, b float64) bool { return a == b }),
		wasm.OpF64Ne: cmpF64(func(a, b float64) bool { return a != b }),
		wasm.OpF64Lt: cmpF64(func(a, b float64) bool { return a < b }),
		wasm.OpF64Gt: cmpF64(func(a, b float64) bool { return a > b }),
		wasm.OpF64Le: cmpF64(func(a, b float64) bool { return a <= b }),
		wasm.OpF64Ge: cmpF64(func(a, b float64) bool { return a >= b }),

		wasm.OpI32Clz:    unop32(func(v int32) int32 { return int32(bits.LeadingZeros32(uint32(v))) }),
		wasm.OpI32Ctz:    unop32(func(v int32) int32 { return int32(bits.TrailingZeros32(uint32(v))) }),
		wasm.OpI32Popcnt: unop32(func(v int32) int32 { return int32(bits.OnesCount32(uint32(v))) }),
		wasm.OpI32Add:    binop32(func(a, b int32) (int32, error) { return a + b, nil }),
		wasm.OpI32Sub:    binop32(func(a, b int32) (int32, error) { return a - b, nil }),
		wasm.OpI32Mul:    binop32(func(a, b int32) (int32, error) { return a * b, nil }),
		wasm.OpI32DivS: binop32(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			if a == math.MinInt32 && b == -1 {
				return 0, trap(api.TrapIntegerOverflow, "i32.div_s overflow")
			}
			return a / b, nil
		}),
		wasm.OpI32DivU: binop32(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			return int32(uint32(a) / uint32(b)), nil
		}),
		wasm.OpI32RemS: binop32(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			if a == math.MinInt32 && b == -1 {
				return 0, nil
			}
			return a % b, nil
		}),
		wasm.OpI32RemU: binop32(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			return int32(uint32(a) % uint32(b)), nil
		}),
		wasm.OpI32And:  binop32(func(a, b int32) (int32, error) { return a & b, nil }),
		wasm.OpI32Or:   binop32(func(a, b int32) (int32, error) { return a | b, nil }),
		wasm.OpI32Xor:  binop32(func(a, b int32) (int32, error) { return a ^ b, nil }),
		wasm.OpI32Shl:  binop32(func(a, b int32) (int32, error) { return a << (uint32(b) & 31), nil }),
		wasm.OpI32ShrS: binop32(func(a, b int32) (int32, error) { return a >> (uint32(b) & 31), nil }),
		wasm.OpI32ShrU: binop32(func(a, b int32) (int32, error) { return int32(uint32(a) >> (uint32(b) & 31)), nil }),
		wasm.OpI32Rotl: binop32(func(a, b int32) (int32, error) { return int32(bits.RotateLeft32(uint32(a), int(b))), nil }),
		wasm.OpI32Rotr: binop32(func(a, b int32) (int32, error) { return int32(bits.RotateLeft32(uint32(a), -int(b))), nil }),

		wasm.OpI64Clz:    unop64(func(v int64) int64 { return int64(bits.LeadingZeros64(uint64(v))) }),
		wasm.OpI64Ctz:    unop64(func(v int64) int64 { return int64(bits.TrailingZeros64(uint64(v))) }),
		wasm.OpI64Popcnt: unop64(func(v int64) int64 { return int64(bits.OnesCount64(uint64(v))) }),
		wasm.OpI64Add:    binop64(func(a, b int64) (int64, error) { return a + b, nil }),
		wasm.OpI64Sub:    binop64(func(a, b int64) (int64, error) { return a - b, nil }),
		wasm.OpI64Mul:    binop64(func(a, b int64) (int64, error) { return a * b, nil }),
		wasm.OpI64DivS: binop64(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			if a == math.MinInt64 && b == -1 {
				return 0, trap(api.TrapIntegerOverflow, "i64.div_s overflow")
			}
			return a / b, nil
		}),
		wasm.OpI64DivU: binop64(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			return int64(uint64(a) / uint64(b)), nil
		}),
		wasm.OpI64RemS: binop64(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			if a == math.MinInt64 && b == -1 {
				return 0, nil
			}
			return a % b, nil
		}),
		wasm.OpI64RemU: binop64(func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, trap(api.TrapIntegerDivideByZero, "")
			}
			return int64(uint64(a) % uint64(b)), nil
		}),
		wasm.OpI64And:  binop64(func(a, b int64) (int64, error) { return a & b, nil }),
		wasm.OpI64Or:   binop64(func(a, b int64) (int64, error) { return a | b, nil }),
		wasm.OpI64Xor:  binop64(func(a, b int64) (int64, error) { return a ^ b, nil }),
		wasm.OpI64Shl:  binop64(func(a, b int64) (int64, error) { return a << (uint64(b) & 63), nil }),
		wasm.OpI64ShrS: binop64(func(a, b int64) (int64, error) { return a >> (uint64(b) & 63), nil }),
		wasm.OpI64ShrU: binop64(func(a, b int64) (int64, error) { return int64(uint64(a) >> (uint64(b) & 63)), nil }),
		wasm.OpI64Rotl: binop64(func(a, b int64) (int64, error) { return int64(bits.RotateLeft64(uint64(a), int(b))), nil }),
		wasm.OpI64Rotr: binop64(func(a, b int64) (int64, error) { return int64(bits.RotateLeft64(uint64(a), -int(b))), nil }),

		wasm.OpF32Abs:      unopF32(func(v float32) float32 { return float32(math.Abs(float64(v))) }),
		wasm.OpF32Neg:      unopF32(func(v float32) float32 { return -v }),
		wasm.OpF32Ceil:     unopF32(func(v float32) float32 { return float32(math.Ceil(float64(v))) }),
		wasm.OpF32Floor:    unopF32(func(v float32) float32 { return float32(math.Floor(float64(v))) }),
		wasm.OpF32Trunc:    unopF32(func(v float32) float32 { return float32(math.Trunc(float64(v))) }),
		wasm.OpF32Nearest:  unopF32(moremath.WasmCompatNearestF32),
		wasm.OpF32Sqrt:     unopF32(func(v float32) float32 { return float32(math.Sqrt(float64(v))) }),
		wasm.OpF32Add:      binopF32(func(a, b float32) float32 { return a + b }),
		wasm.OpF32Sub:      binopF32(func(a, b float32) float32 { return a - b }),
		wasm.OpF32Mul:      binopF32(func(a, b float32) float32 { return a * b }),
		wasm.OpF32Div:      binopF32(func(a, b float32) float32 { return a / b }),
		wasm.OpF32Min:      binopF32(func(a, b float32) float32 { return float32(moremath.WasmCompatMin(float64(a), float64(b))) }),
		wasm.OpF32Max:      binopF32(func(a, b float32) float32 { return float32(moremath.WasmCompatMax(float64(a), float64(b))) }),
		wasm.OpF32Copysign: binopF32(func(a, b float32) float32 { return float32(math.Copysign(float64(a), float64(b))) }),

		wasm.OpF64Abs:      unopF64(math.Abs),
		wasm.OpF64Neg:      unopF64(func(v float64) float64 { return -v }),
		wasm.OpF64Ceil:     unopF64(math.Ceil),
		wasm.OpF64Floor:    unopF64(math.Floor),
		wasm.OpF64Trunc:    unopF64(math.Trunc),
		wasm.OpF64Nearest:  unopF64(moremath.WasmCompatNearestF64),
		wasm.OpF64Sqrt:     unopF64(math.Sqrt),
		wasm.OpF64Add:      binopF64(func(a, b float64) float64 { return a + b }),
		wasm.OpF64Sub:      binopF64(func(a, b float64) float64 { return a - b }),
		wasm.OpF64Mul:      binopF64(func(a, b float64) float64 { return a * b }),
		wasm.OpF64Div:      binopF64(func(a, b float64) float64 { return a / b }),
		wasm.OpF64Min:      binopF64(moremath.WasmCompatMin),
		wasm.OpF64Max:      binopF64(moremath.WasmCompatMax),
		wasm.OpF64Copysign: binopF64(math.Copysign),

		wasm.OpI32WrapI64: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(int32(ce.operands.pop().I64())))
		},
		wasm.OpI32TruncF32S: truncOp32(false, true),
		wasm.OpI32TruncF32U: truncOp32(false, false),
		wasm.OpI32TruncF64S: truncOp32(true, true),
		wasm.OpI32TruncF64U: truncOp32(true, false),
		wasm.OpI64ExtendI32S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(int64(ce.operands.pop().I32())))
		},
		wasm.OpI64ExtendI32U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(int64(uint32(ce.operands.pop().I32()))))
		},
		wasm.OpI64TruncF32S: truncOp64(false, true),
		wasm.OpI64TruncF32U: truncOp64(false, false),
		wasm.OpI64TruncF64S: truncOp64(true, true),
		wasm.OpI64TruncF64U: truncOp64(true, false),

		wasm.OpF32ConvertI32S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF32(float32(ce.operands.pop().I32())))
		},
		wasm.OpF32ConvertI32U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF32(float32(uint32(ce.operands.pop().I32()))))
		},
		wasm.OpF32ConvertI64S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF32(float32(ce.operands.pop().I64())))
		},
		wasm.OpF32ConvertI64U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF32(float32(uint64(ce.operands.pop().I64()))))
		},
		wasm.OpF32DemoteF64: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF32(float32(f64val(ce.operands.pop()))))
		},
		wasm.OpF64ConvertI32S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF64(float64(ce.operands.pop().I32())))
		},
		wasm.OpF64ConvertI32U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF64(float64(uint32(ce.operands.pop().I32()))))
		},
		wasm.OpF64ConvertI64S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF64(float64(ce.operands.pop().I64())))
		},
		wasm.OpF64ConvertI64U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF64(float64(uint64(ce.operands.pop().I64()))))
		},
		wasm.OpF64PromoteF32: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(fromF64(float64(f32val(ce.operands.pop()))))
		},

		wasm.OpI32ReinterpretF32: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(int32(ce.operands.pop().U32())))
		},
		wasm.OpI64ReinterpretF64: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(int64(ce.operands.pop().U64())))
		},
		wasm.OpF32ReinterpretI32: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.F32Value(ce.operands.pop().U32()))
		},
		wasm.OpF64ReinterpretI64: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.F64Value(ce.operands.pop().U64()))
		},

		wasm.OpI32Extend8S:  unop32(func(v int32) int32 { return int32(int8(v)) }),
		wasm.OpI32Extend16S: unop32(func(v int32) int32 { return int32(int16(v)) }),
		wasm.OpI64Extend8S:  unop64(func(v int64) int64 { return int64(int8(v)) }),
		wasm.OpI64Extend16S: unop64(func(v int64) int64 { return int64(int16(v)) }),
		wasm.OpI64Extend32S: unop64(func(v int64) int64 { return int64(int32(v)) }),

		wasm.OpI32TruncSatF32S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(satTruncToI32(float64(f32val(ce.operands.pop())), true)))
		},
		wasm.OpI32TruncSatF32U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(satTruncToI32(float64(f32val(ce.operands.pop())), false)))
		},
		wasm.OpI32TruncSatF64S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(satTruncToI32(f64val(ce.operands.pop()), true)))
		},
		wasm.OpI32TruncSatF64U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(satTruncToI32(f64val(ce.operands.pop()), false)))
		},
		wasm.OpI64TruncSatF32S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(satTruncToI64(float64(f32val(ce.operands.pop())), true)))
		},
		wasm.OpI64TruncSatF32U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(satTruncToI64(float64(f32val(ce.operands.pop())), false)))
		},
		wasm.OpI64TruncSatF64S: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(satTruncToI64(f64val(ce.operands.pop()), true)))
		},
		wasm.OpI64TruncSatF64U: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I64Value(satTruncToI64(f64val(ce.operands.pop()), false)))
		},

		wasm.OpV128Const: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.Value{Type: wasm.ValueTypeV128, Lo: instr.I64, Hi: uint64(instr.I32)})
		},
		wasm.OpV128Load: func(ce *callEngine, instr wasm.Instruction) error {
			base := ce.operands.pop().U32()
			b, err := ce.memory.Read(ea(instr, base), 16)
			if err != nil {
				return memTrap(err)
			}
			lo := uint64(0)
			hi := uint64(0)
			for i := 7; i >= 0; i-- {
				lo = lo<<8 | uint64(b[i])
			}
			for i := 15; i >= 8; i-- {
				hi = hi<<8 | uint64(b[i])
			}
			return ce.operands.push(wasm.Value{Type: wasm.ValueTypeV128, Lo: lo, Hi: hi})
		},
		wasm.OpV128Store: func(ce *callEngine, instr wasm.Instruction) error {
			v := ce.operands.pop()
			base := ce.operands.pop().U32()
			out := make([]byte, 16)
			for i := 0; i < 8; i++ {
				out[i] = byte(v.Lo >> (8 * uint(i)))
			}
			for i := 0; i < 8; i++ {
				out[8+i] = byte(v.Hi >> (8 * uint(i)))
			}
			return memTrap(ce.memory.Write(ea(instr, base), out))
		},
		wasm.OpI32x4Add: simdLanes32(func(a, b int32) int32 { return a + b }),
		wasm.OpI32x4Sub: simdLanes32(func(a, b int32) int32 { return a - b }),
		wasm.OpI32x4Mul: simdLanes32(func(a, b int32) int32 { return a * b }),
		wasm.OpF32x4Add: simdLanesF32(func(a, b float32) float32 { return a + b }),
		wasm.OpF64x2Add: simdLanesF64(func(a, b float64) float64 { return a + b }),
	}
}

func truncOp32(wide, signed bool) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		var f float64
		if wide {
			f = f64val(ce.operands.pop())
		} else {
			f = float64(f32val(ce.operands.pop()))
		}
		v, err := truncToI32(f, signed)
		if err != nil {
			return err
		}
		return ce.operands.push(wasm.I32Value(v))
	}
}

func truncOp64(wide, signed bool) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		var f float64
		if wide {
			f = f64val(ce.operands.pop())
		} else {
			f = float64(f32val(ce.operands.pop()))
		}
		v, err := truncToI64(f, signed)
		if err != nil {
			return err
		}
		return ce.operands.push(wasm.I64Value(v))
	}
}

// v128Lanes32 splits a v128 value into four i32 lanes, little-endian.
func v128Lanes32(v wasm.Value) [4]int32 {
	return [4]int32{
		int32(uint32(v.Lo)), int32(uint32(v.Lo >> 32)),
		int32(uint32(v.Hi)), int32(uint32(v.Hi >> 32)),
	}
}

func v128FromLanes32(l [4]int32) wasm.Value {
	lo := uint64(uint32(l[0])) | uint64(uint32(l[1]))<<32
	hi := uint64(uint32(l[2])) | uint64(uint32(l[3]))<<32
	return wasm.Value{Type: wasm.ValueTypeV128, Lo: lo, Hi: hi}
}

func simdLanes32(f func(a, b int32) int32) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := v128Lanes32(ce.operands.pop())
		a := v128Lanes32(ce.operands.pop())
		var r [4]int32
		for i := range r {
			r[i] = f(a[i], b[i])
		}
		return ce.operands.push(v128FromLanes32(r))
	}
}

func v128LanesF32(v wasm.Value) [4]float32 {
	l := v128Lanes32(v)
	return [4]float32{
		math.Float32frombits(uint32(l[0])), math.Float32frombits(uint32(l[1])),
		math.Float32frombits(uint32(l[2])), math.Float32frombits(uint32(l[3])),
	}
}

func v128FromLanesF32(l [4]float32) wasm.Value {
	var bits4 [4]int32
	for i, f := range l {
		bits4[i] = int32(math.Float32bits(f))
	}
	return v128FromLanes32(bits4)
}

func simdLanesF32(f func(a, b float32) float32) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := v128LanesF32(ce.operands.pop())
		a := v128LanesF32(ce.operands.pop())
		var r [4]float32
		for i := range r {
			r[i] = f(a[i], b[i])
		}
		return ce.operands.push(v128FromLanesF32(r))
	}
}

func v128LanesF64(v wasm.Value) [2]float64 {
	return [2]float64{math.Float64frombits(v.Lo), math.Float64frombits(v.Hi)}
}

func v128FromLanesF64(l [2]float64) wasm.Value {
	return wasm.Value{Type: wasm.ValueTypeV128, Lo: math.Float64bits(l[0]), Hi: math.Float64bits(l[1])}
}

func simdLanesF64(f func(a, b float64) float64) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		b := v128LanesF64(ce.operands.pop())
		a := v128LanesF64(ce.operands.pop())
		var r [2]float64
		for i := range r {
			r[i] = f(a[i], b[i])
		}
		return ce.operands.push(v128FromLanesF64(r))
	}
}

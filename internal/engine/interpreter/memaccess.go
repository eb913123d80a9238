package interpreter

import (
	"encoding/binary"
	"errors"

	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func ea(instr wasm.Instruction, base uint32) uint32 {
	return base + instr.Mem.Offset
}

func memTrap(err error) error {
	if err != nil {
		return trap(api.TrapOutOfBoundsMemoryAccess, "%v", err)
	}
	return nil
}

// atomicTrap is memTrap for atomic accessors: a misaligned offset must
// surface as TrapUnalignedAtomic rather than being folded into the generic
// out-of-bounds kind memTrap always produces.
func atomicTrap(err error) error {
	var unaligned *memsys.UnalignedAtomicError
	if errors.As(err, &unaligned) {
		return trap(api.TrapUnalignedAtomic, "%v", err)
	}
	return memTrap(err)
}

func loadInt(ce *callEngine, instr wasm.Instruction, width int, signed bool, result func(int64) wasm.Value) error {
	base := ce.operands.pop().U32()
	bytes, err := ce.memory.Read(ea(instr, base), uint32(width))
	if err != nil {
		return memTrap(err)
	}
	var raw uint64
	for i := width - 1; i >= 0; i-- {
		raw = raw<<8 | uint64(bytes[i])
	}
	v := int64(raw)
	if signed && width < 8 {
		shift := uint(64 - width*8)
		v = int64(raw<<shift) >> shift
	}
	return ce.operands.push(result(v))
}

type memOpFunc func(*callEngine, wasm.Instruction) error

var memOpTable map[wasm.Opcode]memOpFunc

func init() {
	memOpTable = map[wasm.Opcode]memOpFunc{
		wasm.OpI32Load: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 4, false, func(v int64) wasm.Value { return wasm.I32Value(int32(v)) })
		},
		wasm.OpI64Load: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 8, false, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},
		wasm.OpF32Load: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 4, false, func(v int64) wasm.Value { return wasm.F32Value(uint32(v)) })
		},
		wasm.OpF64Load: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 8, false, func(v int64) wasm.Value { return wasm.F64Value(uint64(v)) })
		},
		wasm.OpI32Load8S: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 1, true, func(v int64) wasm.Value { return wasm.I32Value(int32(v)) })
		},
		wasm.OpI32Load8U: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 1, false, func(v int64) wasm.Value { return wasm.I32Value(int32(v)) })
		},
		wasm.OpI32Load16S: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 2, true, func(v int64) wasm.Value { return wasm.I32Value(int32(v)) })
		},
		wasm.OpI32Load16U: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 2, false, func(v int64) wasm.Value { return wasm.I32Value(int32(v)) })
		},
		wasm.OpI64Load8S: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 1, true, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},
		wasm.OpI64Load8U: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 1, false, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},
		wasm.OpI64Load16S: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 2, true, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},
		wasm.OpI64Load16U: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 2, false, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},
		wasm.OpI64Load32S: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 4, true, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},
		wasm.OpI64Load32U: func(ce *callEngine, instr wasm.Instruction) error {
			return loadInt(ce, instr, 4, false, func(v int64) wasm.Value { return wasm.I64Value(v) })
		},

		wasm.OpI32Store:   storeOp(4, func(ce *callEngine) uint64 { return uint64(ce.operands.pop().U32()) }),
		wasm.OpI64Store:   storeOp(8, func(ce *callEngine) uint64 { return ce.operands.pop().U64() }),
		wasm.OpF32Store:   storeOp(4, func(ce *callEngine) uint64 { return uint64(ce.operands.pop().U32()) }),
		wasm.OpF64Store:   storeOp(8, func(ce *callEngine) uint64 { return ce.operands.pop().U64() }),
		wasm.OpI32Store8:  storeOp(1, func(ce *callEngine) uint64 { return uint64(ce.operands.pop().U32()) }),
		wasm.OpI32Store16: storeOp(2, func(ce *callEngine) uint64 { return uint64(ce.operands.pop().U32()) }),
		wasm.OpI64Store8:  storeOp(1, func(ce *callEngine) uint64 { return ce.operands.pop().U64() }),
		wasm.OpI64Store16: storeOp(2, func(ce *callEngine) uint64 { return ce.operands.pop().U64() }),
		wasm.OpI64Store32: storeOp(4, func(ce *callEngine) uint64 { return ce.operands.pop().U64() }),

		wasm.OpMemorySize: func(ce *callEngine, instr wasm.Instruction) error {
			return ce.operands.push(wasm.I32Value(int32(ce.memory.SizePages())))
		},
		wasm.OpMemoryGrow: func(ce *callEngine, instr wasm.Instruction) error {
			delta := ce.operands.pop().U32()
			prev, ok := ce.memory.Grow(delta)
			if !ok {
				return ce.operands.push(wasm.I32Value(-1))
			}
			return ce.operands.push(wasm.I32Value(int32(prev)))
		},
		wasm.OpMemoryFill: func(ce *callEngine, instr wasm.Instruction) error {
			n := ce.operands.pop().U32()
			val := byte(ce.operands.pop().U32())
			off := ce.operands.pop().U32()
			return memTrap(ce.memory.Fill(off, val, n))
		},
		wasm.OpMemoryCopy: func(ce *callEngine, instr wasm.Instruction) error {
			n := ce.operands.pop().U32()
			src := ce.operands.pop().U32()
			dst := ce.operands.pop().U32()
			return memTrap(ce.memory.CopyWithin(dst, src, n))
		},
		wasm.OpMemoryInit: func(ce *callEngine, instr wasm.Instruction) error {
			n := ce.operands.pop().U32()
			srcOff := ce.operands.pop().U32()
			dstOff := ce.operands.pop().U32()
			if ce.instance.DroppedData[instr.Index] {
				return trap(api.TrapOutOfBoundsMemoryAccess, "memory.init: data segment %d was dropped", instr.Index)
			}
			seg := ce.instance.Module.Data[instr.Index]
			if uint64(srcOff)+uint64(n) > uint64(len(seg.Init)) {
				return trap(api.TrapOutOfBoundsMemoryAccess, "memory.init source range out of bounds")
			}
			return memTrap(ce.memory.Write(dstOff, seg.Init[srcOff:srcOff+n]))
		},
		wasm.OpDataDrop: func(ce *callEngine, instr wasm.Instruction) error {
			ce.instance.DroppedData[instr.Index] = true
			return nil
		},
	}

	atomicOpTable = map[wasm.Opcode]memOpFunc{
		wasm.OpAtomicFence: func(ce *callEngine, instr wasm.Instruction) error { return nil },
		wasm.OpI32AtomicLoad: func(ce *callEngine, instr wasm.Instruction) error {
			addr := ea(instr, ce.operands.pop().U32())
			v, err := ce.memory.AtomicLoad32(addr)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I32Value(int32(v)))
		},
		wasm.OpI64AtomicLoad: func(ce *callEngine, instr wasm.Instruction) error {
			addr := ea(instr, ce.operands.pop().U32())
			v, err := ce.memory.AtomicLoad64(addr)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I64Value(int64(v)))
		},
		wasm.OpI32AtomicStore: func(ce *callEngine, instr wasm.Instruction) error {
			v := ce.operands.pop().U32()
			addr := ea(instr, ce.operands.pop().U32())
			return atomicTrap(ce.memory.AtomicStore32(addr, v))
		},
		wasm.OpI64AtomicStore: func(ce *callEngine, instr wasm.Instruction) error {
			v := ce.operands.pop().U64()
			addr := ea(instr, ce.operands.pop().U32())
			return atomicTrap(ce.memory.AtomicStore64(addr, v))
		},
		wasm.OpI32AtomicRMWAdd: func(ce *callEngine, instr wasm.Instruction) error {
			v := ce.operands.pop().U32()
			addr := ea(instr, ce.operands.pop().U32())
			old, err := ce.memory.AtomicRMW32(addr, func(o uint32) uint32 { return o + v })
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I32Value(int32(old)))
		},
		wasm.OpI64AtomicRMWAdd: func(ce *callEngine, instr wasm.Instruction) error {
			v := ce.operands.pop().U64()
			addr := ea(instr, ce.operands.pop().U32())
			old, err := ce.memory.AtomicRMW64(addr, func(o uint64) uint64 { return o + v })
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I64Value(int64(old)))
		},
		wasm.OpI32AtomicRMWCmpxchg: func(ce *callEngine, instr wasm.Instruction) error {
			replacement := ce.operands.pop().U32()
			expected := ce.operands.pop().U32()
			addr := ea(instr, ce.operands.pop().U32())
			old, err := ce.memory.AtomicCmpxchg32(addr, expected, replacement)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I32Value(int32(old)))
		},
		wasm.OpI64AtomicRMWCmpxchg: func(ce *callEngine, instr wasm.Instruction) error {
			replacement := ce.operands.pop().U64()
			expected := ce.operands.pop().U64()
			addr := ea(instr, ce.operands.pop().U32())
			old, err := ce.memory.AtomicCmpxchg64(addr, expected, replacement)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I64Value(int64(old)))
		},
		wasm.OpMemoryAtomicWait32: func(ce *callEngine, instr wasm.Instruction) error {
			timeout := ce.operands.pop().I64()
			expected := ce.operands.pop().U32()
			addr := ea(instr, ce.operands.pop().U32())
			r, err := ce.memory.Wait32(addr, expected, timeout)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I32Value(int32(r)))
		},
		wasm.OpMemoryAtomicWait64: func(ce *callEngine, instr wasm.Instruction) error {
			timeout := ce.operands.pop().I64()
			expected := ce.operands.pop().U64()
			addr := ea(instr, ce.operands.pop().U32())
			r, err := ce.memory.Wait64(addr, expected, timeout)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I32Value(int32(r)))
		},
		wasm.OpMemoryAtomicNotify: func(ce *callEngine, instr wasm.Instruction) error {
			count := ce.operands.pop().U32()
			addr := ea(instr, ce.operands.pop().U32())
			n, err := ce.memory.Notify(addr, count)
			if err != nil {
				return atomicTrap(err)
			}
			return ce.operands.push(wasm.I32Value(int32(n)))
		},
	}
}

var atomicOpTable map[wasm.Opcode]memOpFunc

func storeOp(width int, value func(*callEngine) uint64) memOpFunc {
	return func(ce *callEngine, instr wasm.Instruction) error {
		v := value(ce)
		base := ce.operands.pop().U32()
		out := make([]byte, width)
		switch width {
		case 1:
			out[0] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(out, uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(out, uint32(v))
		case 8:
			binary.LittleEndian.PutUint64(out, v)
		}
		return memTrap(ce.memory.Write(ea(instr, base), out))
	}
}

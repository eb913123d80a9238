package wrt

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// memoryView implements api.Memory over a *memsys.Memory, translating the
// embedder-facing byte-oriented API to memsys's bounds-checked Read/Write.
// Unlike the teacher's equivalent, this never hands back a live
// write-through slice (memsys never exposes its backing array outside the
// package, so integrity checksums can't be bypassed) — Read returns a
// fresh copy.
type memoryView struct {
	mem *memsys.Memory
}

func (v *memoryView) Size(context.Context) uint32 { return v.mem.SizePages() * wasm.MemoryPageSize }

func (v *memoryView) Grow(ctx context.Context, deltaPages uint32) (uint32, bool) {
	return v.mem.Grow(deltaPages)
}

func (v *memoryView) ReadByte(ctx context.Context, offset uint32) (byte, bool) {
	b, err := v.mem.Read(offset, 1)
	if err != nil {
		return 0, false
	}
	return b[0], true
}

func (v *memoryView) ReadUint16Le(ctx context.Context, offset uint32) (uint16, bool) {
	b, err := v.mem.Read(offset, 2)
	if err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (v *memoryView) ReadUint32Le(ctx context.Context, offset uint32) (uint32, bool) {
	b, err := v.mem.Read(offset, 4)
	if err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (v *memoryView) ReadUint64Le(ctx context.Context, offset uint32) (uint64, bool) {
	b, err := v.mem.Read(offset, 8)
	if err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

func (v *memoryView) ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool) {
	u, ok := v.ReadUint32Le(ctx, offset)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(u), true
}

func (v *memoryView) ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool) {
	u, ok := v.ReadUint64Le(ctx, offset)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(u), true
}

func (v *memoryView) Read(ctx context.Context, offset, byteCount uint32) ([]byte, bool) {
	b, err := v.mem.Read(offset, byteCount)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (v *memoryView) WriteByte(ctx context.Context, offset uint32, val byte) bool {
	return v.mem.Write(offset, []byte{val}) == nil
}

func (v *memoryView) WriteUint16Le(ctx context.Context, offset uint32, val uint16) bool {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, val)
	return v.mem.Write(offset, b) == nil
}

func (v *memoryView) WriteUint32Le(ctx context.Context, offset, val uint32) bool {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, val)
	return v.mem.Write(offset, b) == nil
}

func (v *memoryView) WriteUint64Le(ctx context.Context, offset uint32, val uint64) bool {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, val)
	return v.mem.Write(offset, b) == nil
}

func (v *memoryView) WriteFloat32Le(ctx context.Context, offset uint32, val float32) bool {
	return v.WriteUint32Le(ctx, offset, math.Float32bits(val))
}

func (v *memoryView) WriteFloat64Le(ctx context.Context, offset uint32, val float64) bool {
	return v.WriteUint64Le(ctx, offset, math.Float64bits(val))
}

func (v *memoryView) Write(ctx context.Context, offset uint32, val []byte) bool {
	return v.mem.Write(offset, val) == nil
}

package interpreter

import (
	"github.com/pulseengine/wrt-go/api"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

func (ce *callEngine) tableGet(tableIdx wasm.Index) error {
	t := ce.instance.Tables[tableIdx]
	idx := ce.operands.pop().U32()
	if int(idx) >= len(t.Elements) {
		return trap(api.TrapOutOfBoundsTableAccess, "table.get index %d out of bounds", idx)
	}
	return ce.operands.push(wasm.Value{Type: t.Type, Lo: t.Elements[idx]})
}

func (ce *callEngine) tableSet(tableIdx wasm.Index) error {
	t := ce.instance.Tables[tableIdx]
	v := ce.operands.pop()
	idx := ce.operands.pop().U32()
	if int(idx) >= len(t.Elements) {
		return trap(api.TrapOutOfBoundsTableAccess, "table.set index %d out of bounds", idx)
	}
	t.Elements[idx] = v.Lo
	return nil
}

func (ce *callEngine) tableGrow(tableIdx wasm.Index) error {
	t := ce.instance.Tables[tableIdx]
	delta := ce.operands.pop().U32()
	init := ce.operands.pop()
	prev := uint32(len(t.Elements))
	next := prev + delta
	if delta != 0 && next < prev || (t.Max != nil && next > *t.Max) {
		return ce.operands.push(wasm.I32Value(-1))
	}
	grown := make([]uint64, next)
	copy(grown, t.Elements)
	for i := prev; i < next; i++ {
		grown[i] = init.Lo
	}
	t.Elements = grown
	return ce.operands.push(wasm.I32Value(int32(prev)))
}

func (ce *callEngine) tableFill(tableIdx wasm.Index) error {
	t := ce.instance.Tables[tableIdx]
	n := ce.operands.pop().U32()
	v := ce.operands.pop()
	offset := ce.operands.pop().U32()
	if uint64(offset)+uint64(n) > uint64(len(t.Elements)) {
		return trap(api.TrapOutOfBoundsTableAccess, "table.fill range out of bounds")
	}
	for i := uint32(0); i < n; i++ {
		t.Elements[offset+i] = v.Lo
	}
	return nil
}

func (ce *callEngine) tableCopy(dstIdx, srcIdx wasm.Index) error {
	dst := ce.instance.Tables[dstIdx]
	src := ce.instance.Tables[srcIdx]
	n := ce.operands.pop().U32()
	srcOff := ce.operands.pop().U32()
	dstOff := ce.operands.pop().U32()
	if uint64(dstOff)+uint64(n) > uint64(len(dst.Elements)) || uint64(srcOff)+uint64(n) > uint64(len(src.Elements)) {
		return trap(api.TrapOutOfBoundsTableAccess, "table.copy range out of bounds")
	}
	copy(dst.Elements[dstOff:dstOff+n], src.Elements[srcOff:srcOff+n])
	return nil
}

func (ce *callEngine) tableInit(elemIdx, tableIdx wasm.Index) error {
	n := ce.operands.pop().U32()
	srcOff := ce.operands.pop().U32()
	dstOff := ce.operands.pop().U32()
	if ce.instance.DroppedElements[elemIdx] {
		return trap(api.TrapOutOfBoundsTableAccess, "table.init: element segment %d was dropped", elemIdx)
	}
	t := ce.instance.Tables[tableIdx]
	seg := ce.instance.Module.Elements[elemIdx]
	if uint64(srcOff)+uint64(n) > uint64(len(seg.FuncIndexes)) || uint64(dstOff)+uint64(n) > uint64(len(t.Elements)) {
		return trap(api.TrapOutOfBoundsTableAccess, "table.init range out of bounds")
	}
	for i := uint32(0); i < n; i++ {
		t.Elements[dstOff+i] = uint64(seg.FuncIndexes[srcOff+i])
	}
	return nil
}

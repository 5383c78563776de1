package interpreter

import (
	"github.com/wazevm/wazevm/internal/wasm"
	"github.com/wazevm/wazevm/internal/wasmdebug"
)

// execMemoryOp dispatches every load/store, memory.size/grow, and bulk
// memory opcode (spec.md §4.4 "Memory instructions"), all of which act on
// a function's single defined or imported memory (the MVP supports at
// most one memory per module, so no memory-index immediate is carried).
func execMemoryOp(ce *callEngine, ins *wasm.Instruction) {
	frame := ce.topFrame()
	mem := frame.fn.Module.Memory(0)

	switch ins.Opcode {
	case wasm.OpI32Load:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		v, _ := mem.ReadUint32Le(off)
		ce.pushU32(v)
	case wasm.OpI64Load:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 8)
		v, _ := mem.ReadUint64Le(off)
		ce.pushU64(v)
	case wasm.OpF32Load:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		v, _ := mem.ReadUint32Le(off)
		ce.pushValue(uint64(v))
	case wasm.OpF64Load:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 8)
		v, _ := mem.ReadUint64Le(off)
		ce.pushValue(v)
	case wasm.OpI32Load8S:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 1)
		v, _ := mem.ReadByte(off)
		ce.pushI32(int32(int8(v)))
	case wasm.OpI32Load8U:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 1)
		v, _ := mem.ReadByte(off)
		ce.pushU32(uint32(v))
	case wasm.OpI32Load16S:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 2)
		v, _ := mem.ReadUint16Le(off)
		ce.pushI32(int32(int16(v)))
	case wasm.OpI32Load16U:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 2)
		v, _ := mem.ReadUint16Le(off)
		ce.pushU32(uint32(v))
	case wasm.OpI64Load8S:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 1)
		v, _ := mem.ReadByte(off)
		ce.pushI64(int64(int8(v)))
	case wasm.OpI64Load8U:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 1)
		v, _ := mem.ReadByte(off)
		ce.pushU64(uint64(v))
	case wasm.OpI64Load16S:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 2)
		v, _ := mem.ReadUint16Le(off)
		ce.pushI64(int64(int16(v)))
	case wasm.OpI64Load16U:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 2)
		v, _ := mem.ReadUint16Le(off)
		ce.pushU64(uint64(v))
	case wasm.OpI64Load32S:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		v, _ := mem.ReadUint32Le(off)
		ce.pushI64(int64(int32(v)))
	case wasm.OpI64Load32U:
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		v, _ := mem.ReadUint32Le(off)
		ce.pushU64(uint64(v))

	case wasm.OpI32Store:
		v := ce.popU32()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		mem.WriteUint32Le(off, v)
	case wasm.OpI64Store:
		v := ce.popU64()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 8)
		mem.WriteUint64Le(off, v)
	case wasm.OpF32Store:
		v := ce.popValue()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		mem.WriteUint32Le(off, uint32(v))
	case wasm.OpF64Store:
		v := ce.popValue()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 8)
		mem.WriteUint64Le(off, v)
	case wasm.OpI32Store8:
		v := ce.popU32()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 1)
		mem.WriteByte(off, byte(v))
	case wasm.OpI32Store16:
		v := ce.popU32()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 2)
		mem.WriteUint16Le(off, uint16(v))
	case wasm.OpI64Store8:
		v := ce.popU64()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 1)
		mem.WriteByte(off, byte(v))
	case wasm.OpI64Store16:
		v := ce.popU64()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 2)
		mem.WriteUint16Le(off, uint16(v))
	case wasm.OpI64Store32:
		v := ce.popU64()
		off := checkedAddr(mem, effectiveAddr(ce, ins), 4)
		mem.WriteUint32Le(off, uint32(v))

	case wasm.OpMemorySize:
		ce.pushU32(mem.PageCount())
	case wasm.OpMemoryGrow:
		delta := ce.popU32()
		prev, ok := mem.Grow(delta)
		if !ok {
			ce.pushI32(-1)
		} else {
			ce.pushU32(prev)
		}

	case wasm.OpMemoryInit:
		execMemoryInit(ce, frame, mem, ins)
	case wasm.OpDataDrop:
		frame.fn.Module.DataSegments[ins.Index] = nil
	case wasm.OpMemoryCopy:
		execMemoryCopy(ce, mem)
	case wasm.OpMemoryFill:
		execMemoryFill(ce, mem)

	default:
		panic(unknownOpcodeMsg(ins.Opcode))
	}
}

// effectiveAddr computes a load/store's byte address as the dynamic base
// plus the static memarg offset, both widened to uint64 first so an offset
// near 2^32 can't wrap a small base into a false in-bounds uint32 address
// (spec.md §4.4: the effective address is compared against the current
// byte length before truncation, never after).
func effectiveAddr(ce *callEngine, ins *wasm.Instruction) uint64 {
	base := ce.popU32()
	return uint64(base) + uint64(ins.MemArg.Offset)
}

// checkedAddr traps unless [addr, addr+size) lies within mem, using the
// same 64-bit comparison as effectiveAddr's construction; only once that
// check passes is addr known to fit a uint32, which every MemInstance
// accessor takes.
func checkedAddr(mem *wasm.MemInstance, addr uint64, size uint32) uint32 {
	if addr+uint64(size) > uint64(mem.SizeBytes()) {
		trap(wasm.TrapOutOfBoundsMemoryAccess, "memory access at %s out of bounds", wasmdebug.FormatOffset(addr))
	}
	return uint32(addr)
}

// execMemoryInit copies a passive data segment's bytes into memory
// (spec.md §4.4 memory.init); dataIdx is ins.Index (the MVP single-memory
// model carries no destination memory index).
func execMemoryInit(ce *callEngine, frame *callFrame, mem *wasm.MemInstance, ins *wasm.Instruction) {
	n := ce.popU32()
	src := ce.popU32()
	dst := ce.popU32()
	seg := frame.fn.Module.DataSegments[ins.Index]
	if uint64(src)+uint64(n) > uint64(len(seg)) {
		trap(wasm.TrapOutOfBoundsMemoryAccess, "memory.init source out of bounds")
	}
	if !mem.Write(dst, seg[src:src+n]) {
		trap(wasm.TrapOutOfBoundsMemoryAccess, "memory.init destination out of bounds")
	}
}

// execMemoryCopy performs an overlap-correct byte copy within a single
// memory (spec.md §4.4 memory.copy: "behaves as if bytes were copied one
// at a time", i.e. safe under overlap).
func execMemoryCopy(ce *callEngine, mem *wasm.MemInstance) {
	n := ce.popU32()
	src := ce.popU32()
	dst := ce.popU32()
	srcBytes, ok := mem.Read(src, n)
	if !ok {
		trap(wasm.TrapOutOfBoundsMemoryAccess, "memory.copy source out of bounds")
	}
	tmp := make([]byte, n)
	copy(tmp, srcBytes)
	if !mem.Write(dst, tmp) {
		trap(wasm.TrapOutOfBoundsMemoryAccess, "memory.copy destination out of bounds")
	}
}

func execMemoryFill(ce *callEngine, mem *wasm.MemInstance) {
	n := ce.popU32()
	val := byte(ce.popU32())
	dst := ce.popU32()
	buf, ok := mem.Read(dst, n)
	if !ok {
		trap(wasm.TrapOutOfBoundsMemoryAccess, "memory.fill out of bounds")
	}
	for i := range buf {
		buf[i] = val
	}
}

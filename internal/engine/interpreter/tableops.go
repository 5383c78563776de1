package interpreter

import "github.com/wazevm/wazevm/internal/wasm"

// execTableOp dispatches every table accessor and bulk-table opcode
// (spec.md §4.4 "Table instructions").
func execTableOp(ce *callEngine, ins *wasm.Instruction) {
	frame := ce.topFrame()

	switch ins.Opcode {
	case wasm.OpTableGet:
		table := frame.fn.Module.Table(ins.Index)
		idx := ce.popU32()
		if int(idx) >= len(table.Elements) {
			trap(wasm.TrapOutOfBoundsTableAccess, "table.get index %d out of bounds", idx)
		}
		ce.pushU64(table.Elements[idx])
	case wasm.OpTableSet:
		table := frame.fn.Module.Table(ins.Index)
		v := ce.popU64()
		idx := ce.popU32()
		if int(idx) >= len(table.Elements) {
			trap(wasm.TrapOutOfBoundsTableAccess, "table.set index %d out of bounds", idx)
		}
		table.Elements[idx] = v
	case wasm.OpTableSize:
		table := frame.fn.Module.Table(ins.Index)
		ce.pushU32(uint32(len(table.Elements)))
	case wasm.OpTableGrow:
		execTableGrow(ce, frame, ins)
	case wasm.OpTableFill:
		execTableFill(ce, frame, ins)
	case wasm.OpTableCopy:
		execTableCopy(ce, frame, ins)
	case wasm.OpTableInit:
		execTableInit(ce, frame, ins)
	case wasm.OpElemDrop:
		frame.fn.Module.ElementValues[ins.Index] = nil

	default:
		panic(unknownOpcodeMsg(ins.Opcode))
	}
}

func execTableGrow(ce *callEngine, frame *callFrame, ins *wasm.Instruction) {
	table := frame.fn.Module.Table(ins.Index)
	n := ce.popU32()
	fillVal := ce.popU64()

	prev := uint32(len(table.Elements))
	newSize := uint64(prev) + uint64(n)
	if table.Max != nil && newSize > uint64(*table.Max) {
		ce.pushI32(-1)
		return
	}
	grown := make([]uint64, newSize)
	copy(grown, table.Elements)
	for i := prev; i < uint32(newSize); i++ {
		grown[i] = fillVal
	}
	table.Elements = grown
	ce.pushU32(prev)
}

func execTableFill(ce *callEngine, frame *callFrame, ins *wasm.Instruction) {
	table := frame.fn.Module.Table(ins.Index)
	n := ce.popU32()
	v := ce.popU64()
	dst := ce.popU32()
	if uint64(dst)+uint64(n) > uint64(len(table.Elements)) {
		trap(wasm.TrapOutOfBoundsTableAccess, "table.fill out of bounds")
	}
	for i := uint32(0); i < n; i++ {
		table.Elements[dst+i] = v
	}
}

// execTableCopy handles both within-table and cross-table copies,
// preserving correctness under overlap the same way execMemoryCopy does.
func execTableCopy(ce *callEngine, frame *callFrame, ins *wasm.Instruction) {
	dstTable := frame.fn.Module.Table(ins.Index)
	srcTable := frame.fn.Module.Table(ins.Index2)
	n := ce.popU32()
	src := ce.popU32()
	dst := ce.popU32()
	if uint64(src)+uint64(n) > uint64(len(srcTable.Elements)) ||
		uint64(dst)+uint64(n) > uint64(len(dstTable.Elements)) {
		trap(wasm.TrapOutOfBoundsTableAccess, "table.copy out of bounds")
	}
	tmp := make([]uint64, n)
	copy(tmp, srcTable.Elements[src:src+n])
	copy(dstTable.Elements[dst:], tmp)
}

func execTableInit(ce *callEngine, frame *callFrame, ins *wasm.Instruction) {
	table := frame.fn.Module.Table(ins.Index2)
	values := frame.fn.Module.ElementValues[ins.Index]
	n := ce.popU32()
	src := ce.popU32()
	dst := ce.popU32()
	if uint64(src)+uint64(n) > uint64(len(values)) ||
		uint64(dst)+uint64(n) > uint64(len(table.Elements)) {
		trap(wasm.TrapOutOfBoundsTableAccess, "table.init out of bounds")
	}
	copy(table.Elements[dst:dst+n], values[src:src+n])
}

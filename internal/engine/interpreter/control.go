package interpreter

import (
	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/internal/wasm"
)

// execOne dispatches a single decoded instruction against ce, returning how
// it affects control flow (spec.md §4.4). Every non-control-flow opcode
// returns signalNormal after mutating ce.stack/the store in place.
func (e *Engine) execOne(ce *callEngine, ins *wasm.Instruction) signal {
	switch ins.Opcode {
	// --- Control ---
	case wasm.OpUnreachable:
		trap(wasm.TrapUnreachable, "unreachable executed")
	case wasm.OpNop:
	case wasm.OpBlock, wasm.OpLoop:
		return e.execBlockLike(ce, ins, ins.Opcode == wasm.OpLoop)
	case wasm.OpIf:
		cond := ce.popI32()
		body := ins.Body
		if cond == 0 {
			body = ins.Else
		}
		return e.execStructured(ce, ins, false, body)
	case wasm.OpBr:
		return signal{kind: signalBranch, depth: int(ins.LabelIndex)}
	case wasm.OpBrIf:
		if ce.popI32() != 0 {
			return signal{kind: signalBranch, depth: int(ins.LabelIndex)}
		}
	case wasm.OpBrTable:
		idx := ce.popU32()
		target := ins.DefaultIdx
		if int(idx) < len(ins.LabelTable) {
			target = ins.LabelTable[idx]
		}
		return signal{kind: signalBranch, depth: int(target)}
	case wasm.OpReturn:
		return signal{kind: signalReturn}
	case wasm.OpCall:
		frame := ce.topFrame()
		target := frame.fn.Module.Function(ins.Index)
		ce.pushValue64s(e.callFunction(ce, target))
	case wasm.OpCallIndirect:
		e.execCallIndirect(ce, ins)

	// --- Reference ---
	case wasm.OpRefNull:
		ce.pushU64(api.RefNull)
	case wasm.OpRefIsNull:
		ce.pushBool(ce.popU64() == api.RefNull)
	case wasm.OpRefFunc:
		frame := ce.topFrame()
		ce.pushU64(uint64(frame.fn.Module.FunctionAddrs[ins.Index]))

	// --- Parametric ---
	case wasm.OpDrop:
		ce.popValue()
	case wasm.OpSelect, wasm.OpSelectT:
		e.execSelect(ce, ins)

	// --- Variable ---
	case wasm.OpLocalGet:
		e.execLocalGet(ce, ins.Index)
	case wasm.OpLocalSet:
		e.execLocalSet(ce, ins.Index)
	case wasm.OpLocalTee:
		e.execLocalTee(ce, ins.Index)
	case wasm.OpGlobalGet:
		frame := ce.topFrame()
		ce.pushU64(frame.fn.Module.Global(ins.Index).Value)
	case wasm.OpGlobalSet:
		frame := ce.topFrame()
		frame.fn.Module.Global(ins.Index).Value = ce.popU64()

	default:
		e.execOneExtended(ce, ins)
	}
	return signal{kind: signalNormal}
}

// execOneExtended handles every opcode family with its own file: table
// ops, memory ops, numeric ops, and SIMD. Split out of execOne's switch so
// that function stays short enough to read as "control flow", matching
// spec.md §4.1's grouping of the instruction tag set.
func (e *Engine) execOneExtended(ce *callEngine, ins *wasm.Instruction) {
	switch {
	case isTableOp(ins.Opcode):
		execTableOp(ce, ins)
	case isMemoryOp(ins.Opcode):
		execMemoryOp(ce, ins)
	case isSIMDOp(ins.Opcode):
		execSIMDOp(ce, ins)
	default:
		execNumericOp(ce, ins)
	}
}

// execBlockLike runs a plain block/loop (no condition to consume).
func (e *Engine) execBlockLike(ce *callEngine, ins *wasm.Instruction, isLoop bool) signal {
	return e.execStructured(ce, ins, isLoop, ins.Body)
}

// execStructured resolves a structured instruction's blocktype against the
// current frame's module and runs body as a label region.
func (e *Engine) execStructured(ce *callEngine, ins *wasm.Instruction, isLoop bool, body []wasm.Instruction) signal {
	frame := ce.topFrame()
	params, results := wasm.BlockTypeSignature(frame.fn.Module.Types, ins.Block)
	paramSlots := wasm.TypeListSlots(params)
	resultSlots := wasm.TypeListSlots(results)
	return e.execLabel(ce, isLoop, resultSlots, paramSlots, body)
}

func (e *Engine) execCallIndirect(ce *callEngine, ins *wasm.Instruction) {
	frame := ce.topFrame()
	table := frame.fn.Module.Table(ins.Index2)
	elemIdx := ce.popU32()
	if int(elemIdx) >= len(table.Elements) {
		trap(wasm.TrapUndefinedElement, "call_indirect: index %d out of table bounds", elemIdx)
	}
	ref := table.Elements[elemIdx]
	if ref == api.RefNull {
		trap(wasm.TrapUndefinedElement, "call_indirect: null element at index %d", elemIdx)
	}
	target := frame.fn.Module.FunctionAt(wasm.FunctionAddr(uint32(ref)))
	declared := &frame.fn.Module.Types[ins.Index]
	if !target.Type.Equal(declared) {
		trap(wasm.TrapIndirectCallTypeMismatch, "call_indirect: table element type does not match declared signature")
	}
	ce.pushValue64s(e.callFunction(ce, target))
}

// execSelect handles both the untyped select (always a 1-slot numtype
// operand) and select t (ins.SelectTypes names the operand type, which may
// be v128 and so occupy two stack slots, per values.go's layout).
func (e *Engine) execSelect(ce *callEngine, ins *wasm.Instruction) {
	cond := ce.popI32()
	width := 1
	if ins.Opcode == wasm.OpSelectT && len(ins.SelectTypes) == 1 {
		width = wasm.ValueTypeSlots(ins.SelectTypes[0])
	}
	n := len(ce.stack)
	b := append([]uint64(nil), ce.stack[n-width:n]...)
	a := append([]uint64(nil), ce.stack[n-2*width:n-width]...)
	ce.stack = ce.stack[:n-2*width]
	if cond != 0 {
		ce.pushValue64s(a)
	} else {
		ce.pushValue64s(b)
	}
}

func (e *Engine) execLocalGet(ce *callEngine, idx uint32) {
	frame := ce.topFrame()
	off := frame.fn.LocalSlotOffsets[idx]
	n := wasm.ValueTypeSlots(frame.fn.LocalTypes[idx])
	for i := 0; i < n; i++ {
		ce.pushValue(frame.locals[off+i])
	}
}

func (e *Engine) execLocalSet(ce *callEngine, idx uint32) {
	frame := ce.topFrame()
	off := frame.fn.LocalSlotOffsets[idx]
	n := wasm.ValueTypeSlots(frame.fn.LocalTypes[idx])
	for i := n - 1; i >= 0; i-- {
		frame.locals[off+i] = ce.popValue()
	}
}

func (e *Engine) execLocalTee(ce *callEngine, idx uint32) {
	frame := ce.topFrame()
	off := frame.fn.LocalSlotOffsets[idx]
	n := wasm.ValueTypeSlots(frame.fn.LocalTypes[idx])
	top := ce.stack[len(ce.stack)-n:]
	copy(frame.locals[off:off+n], top)
}

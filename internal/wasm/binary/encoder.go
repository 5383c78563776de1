package binary

import (
	"encoding/binary"
	"math"

	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/internal/leb128"
	"github.com/wazevm/wazevm/internal/wasm"
)

// EncodeModule serializes m back into the WebAssembly binary format. It
// exists primarily to support the decode-then-encode-then-decode property
// (spec.md §8): a module decoded and re-encoded, then decoded again,
// produces an AST equal in every field but ID (which is a hash of the raw
// bytes, and the encoder does not reproduce byte-for-byte the original
// producer's encoding choices, only a valid equivalent one).
func EncodeModule(m *wasm.Module) []byte {
	buf := append([]byte{}, magic[:]...)
	buf = append(buf, version[:]...)

	if len(m.Types) > 0 {
		buf = appendSection(buf, wasm.SectionIDType, encodeTypeSection(m))
	}
	if len(m.Imports) > 0 {
		buf = appendSection(buf, wasm.SectionIDImport, encodeImportSection(m))
	}
	if len(m.FunctionTypeIndexes) > 0 {
		buf = appendSection(buf, wasm.SectionIDFunction, encodeFunctionSection(m))
	}
	if len(m.Tables) > 0 {
		buf = appendSection(buf, wasm.SectionIDTable, encodeTableSection(m))
	}
	if len(m.Memories) > 0 {
		buf = appendSection(buf, wasm.SectionIDMemory, encodeMemorySection(m))
	}
	if len(m.Globals) > 0 {
		buf = appendSection(buf, wasm.SectionIDGlobal, encodeGlobalSection(m))
	}
	if len(m.Exports) > 0 {
		buf = appendSection(buf, wasm.SectionIDExport, encodeExportSection(m))
	}
	if m.StartFunctionIndex != nil {
		buf = appendSection(buf, wasm.SectionIDStart, leb128.EncodeUint32(nil, *m.StartFunctionIndex))
	}
	if len(m.Elements) > 0 {
		buf = appendSection(buf, wasm.SectionIDElement, encodeElementSection(m))
	}
	if m.DataCount != nil {
		buf = appendSection(buf, wasm.SectionIDDataCount, leb128.EncodeUint32(nil, *m.DataCount))
	}
	if len(m.Functions) > 0 {
		buf = appendSection(buf, wasm.SectionIDCode, encodeCodeSection(m))
	}
	if len(m.Data) > 0 {
		buf = appendSection(buf, wasm.SectionIDData, encodeDataSection(m))
	}
	for _, c := range m.Customs {
		var payload []byte
		payload = appendName(payload, c.Name)
		payload = append(payload, c.Data...)
		buf = appendSection(buf, wasm.SectionIDCustom, payload)
	}
	return buf
}

func appendSection(buf []byte, id wasm.SectionID, payload []byte) []byte {
	buf = append(buf, byte(id))
	buf = leb128.EncodeUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func appendName(buf []byte, name string) []byte {
	buf = leb128.EncodeUint32(buf, uint32(len(name)))
	return append(buf, name...)
}

func appendLimits(buf []byte, l wasm.Limits) []byte {
	if l.Max != nil {
		buf = append(buf, 1)
		buf = leb128.EncodeUint32(buf, l.Min)
		return leb128.EncodeUint32(buf, *l.Max)
	}
	buf = append(buf, 0)
	return leb128.EncodeUint32(buf, l.Min)
}

func encodeTypeSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Types)))
	for _, t := range m.Types {
		buf = append(buf, 0x60)
		buf = leb128.EncodeUint32(buf, uint32(len(t.Params)))
		buf = append(buf, t.Params...)
		buf = leb128.EncodeUint32(buf, uint32(len(t.Results)))
		buf = append(buf, t.Results...)
	}
	return buf
}

func encodeImportSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		buf = appendName(buf, imp.Module)
		buf = appendName(buf, imp.Name)
		buf = append(buf, imp.Kind)
		switch imp.Kind {
		case api.ExternTypeFunc:
			buf = leb128.EncodeUint32(buf, imp.FuncTypeIndex)
		case api.ExternTypeTable:
			buf = append(buf, imp.Table.ElemType)
			buf = appendLimits(buf, imp.Table.Limits)
		case api.ExternTypeMemory:
			buf = appendLimits(buf, imp.Memory.Limits)
		case api.ExternTypeGlobal:
			buf = append(buf, imp.Global.ValType)
			if imp.Global.Mutable {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

func encodeFunctionSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.FunctionTypeIndexes)))
	for _, ti := range m.FunctionTypeIndexes {
		buf = leb128.EncodeUint32(buf, ti)
	}
	return buf
}

func encodeTableSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Tables)))
	for _, t := range m.Tables {
		buf = append(buf, t.ElemType)
		buf = appendLimits(buf, t.Limits)
	}
	return buf
}

func encodeMemorySection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Memories)))
	for _, mt := range m.Memories {
		buf = appendLimits(buf, mt.Limits)
	}
	return buf
}

func encodeGlobalSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Globals)))
	for _, g := range m.Globals {
		buf = append(buf, g.Type.ValType)
		if g.Type.Mutable {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = encodeConstExpr(buf, g.Init)
	}
	return buf
}

func encodeExportSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Exports)))
	for _, e := range m.Exports {
		buf = appendName(buf, e.Name)
		buf = append(buf, e.Kind)
		buf = leb128.EncodeUint32(buf, e.Index)
	}
	return buf
}

// encodeElementSection always emits the general expr-init encodings (flags
// 4/5/6/7), sidestepping the func-index-vector shorthand forms entirely --
// those are a decode-only convenience, not something every encoder need
// reproduce (spec.md §8 only requires round-trip AST equality).
func encodeElementSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Elements)))
	for _, seg := range m.Elements {
		switch seg.Mode {
		case wasm.ElementModeActive:
			if seg.TableIndex == 0 && seg.Type == api.ValueTypeFuncref {
				buf = leb128.EncodeUint32(buf, 4)
				buf = encodeConstExpr(buf, seg.Offset)
			} else {
				buf = leb128.EncodeUint32(buf, 6)
				buf = leb128.EncodeUint32(buf, seg.TableIndex)
				buf = encodeConstExpr(buf, seg.Offset)
				buf = append(buf, seg.Type)
			}
		case wasm.ElementModePassive:
			buf = leb128.EncodeUint32(buf, 5)
			buf = append(buf, seg.Type)
		case wasm.ElementModeDeclarative:
			buf = leb128.EncodeUint32(buf, 7)
			buf = append(buf, seg.Type)
		}
		buf = leb128.EncodeUint32(buf, uint32(len(seg.Init)))
		for _, init := range seg.Init {
			buf = encodeConstExpr(buf, init)
		}
	}
	return buf
}

func encodeDataSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Data)))
	for _, seg := range m.Data {
		switch seg.Mode {
		case wasm.DataModeActive:
			if seg.MemIndex == 0 {
				buf = leb128.EncodeUint32(buf, 0)
				buf = encodeConstExpr(buf, seg.Offset)
			} else {
				buf = leb128.EncodeUint32(buf, 2)
				buf = leb128.EncodeUint32(buf, seg.MemIndex)
				buf = encodeConstExpr(buf, seg.Offset)
			}
		case wasm.DataModePassive:
			buf = leb128.EncodeUint32(buf, 1)
		}
		buf = leb128.EncodeUint32(buf, uint32(len(seg.Init)))
		buf = append(buf, seg.Init...)
	}
	return buf
}

func encodeCodeSection(m *wasm.Module) []byte {
	var buf []byte
	buf = leb128.EncodeUint32(buf, uint32(len(m.Functions)))
	for _, fn := range m.Functions {
		var body []byte
		body = leb128.EncodeUint32(body, uint32(len(fn.Locals)))
		for _, lg := range fn.Locals {
			body = leb128.EncodeUint32(body, lg.Count)
			body = append(body, lg.ValType)
		}
		body = encodeInstructionSequence(body, fn.Body)
		buf = leb128.EncodeUint32(buf, uint32(len(body)))
		buf = append(buf, body...)
	}
	return buf
}

func encodeConstExpr(buf []byte, c wasm.ConstExpr) []byte {
	return encodeInstructionSequence(buf, c.Instructions)
}

func encodeInstructionSequence(buf []byte, body []wasm.Instruction) []byte {
	for i := range body {
		buf = encodeInstruction(buf, &body[i])
	}
	return append(buf, 0x0B)
}

func encodeBlockType(buf []byte, bt wasm.BlockType) []byte {
	switch bt.Kind {
	case wasm.BlockTypeEmpty:
		return append(buf, 0x40)
	case wasm.BlockTypeValue:
		return append(buf, bt.ValType)
	case wasm.BlockTypeIndexed:
		return leb128.EncodeInt32(buf, int32(bt.TypeIndex))
	}
	return buf
}

var reverseMemoryOpcodes = func() map[wasm.Opcode]byte {
	m := make(map[wasm.Opcode]byte, len(memoryOpcodes))
	for b, op := range memoryOpcodes {
		m[op] = b
	}
	return m
}()

var reverseNoImmediateOpcodes = func() map[wasm.Opcode]byte {
	m := make(map[wasm.Opcode]byte, len(noImmediateOpcodes))
	for b, op := range noImmediateOpcodes {
		m[op] = b
	}
	return m
}()

func encodeInstruction(buf []byte, ins *wasm.Instruction) []byte {
	switch ins.Opcode {
	case wasm.OpUnreachable:
		return append(buf, 0x00)
	case wasm.OpNop:
		return append(buf, 0x01)
	case wasm.OpBlock, wasm.OpLoop:
		b := byte(0x02)
		if ins.Opcode == wasm.OpLoop {
			b = 0x03
		}
		buf = append(buf, b)
		buf = encodeBlockType(buf, ins.Block)
		return encodeInstructionSequence(buf, ins.Body)
	case wasm.OpIf:
		buf = append(buf, 0x04)
		buf = encodeBlockType(buf, ins.Block)
		for i := range ins.Body {
			buf = encodeInstruction(buf, &ins.Body[i])
		}
		if ins.Else != nil {
			buf = append(buf, 0x05)
			for i := range ins.Else {
				buf = encodeInstruction(buf, &ins.Else[i])
			}
		}
		return append(buf, 0x0B)
	case wasm.OpBr:
		return leb128.EncodeUint32(append(buf, 0x0C), ins.LabelIndex)
	case wasm.OpBrIf:
		return leb128.EncodeUint32(append(buf, 0x0D), ins.LabelIndex)
	case wasm.OpBrTable:
		buf = append(buf, 0x0E)
		buf = leb128.EncodeUint32(buf, uint32(len(ins.LabelTable)))
		for _, l := range ins.LabelTable {
			buf = leb128.EncodeUint32(buf, l)
		}
		return leb128.EncodeUint32(buf, ins.DefaultIdx)
	case wasm.OpReturn:
		return append(buf, 0x0F)
	case wasm.OpCall:
		return leb128.EncodeUint32(append(buf, 0x10), ins.Index)
	case wasm.OpCallIndirect:
		buf = append(buf, 0x11)
		buf = leb128.EncodeUint32(buf, ins.Index)
		return leb128.EncodeUint32(buf, ins.Index2)
	case wasm.OpRefNull:
		return append(append(buf, 0xD0), ins.RefType)
	case wasm.OpRefIsNull:
		return append(buf, 0xD1)
	case wasm.OpRefFunc:
		return leb128.EncodeUint32(append(buf, 0xD2), ins.Index)
	case wasm.OpDrop:
		return append(buf, 0x1A)
	case wasm.OpSelect:
		return append(buf, 0x1B)
	case wasm.OpSelectT:
		buf = append(buf, 0x1C)
		buf = leb128.EncodeUint32(buf, uint32(len(ins.SelectTypes)))
		return append(buf, ins.SelectTypes...)
	case wasm.OpLocalGet:
		return leb128.EncodeUint32(append(buf, 0x20), ins.Index)
	case wasm.OpLocalSet:
		return leb128.EncodeUint32(append(buf, 0x21), ins.Index)
	case wasm.OpLocalTee:
		return leb128.EncodeUint32(append(buf, 0x22), ins.Index)
	case wasm.OpGlobalGet:
		return leb128.EncodeUint32(append(buf, 0x23), ins.Index)
	case wasm.OpGlobalSet:
		return leb128.EncodeUint32(append(buf, 0x24), ins.Index)
	case wasm.OpTableGet:
		return leb128.EncodeUint32(append(buf, 0x25), ins.Index)
	case wasm.OpTableSet:
		return leb128.EncodeUint32(append(buf, 0x26), ins.Index)
	case wasm.OpMemorySize:
		return append(append(buf, 0x3F), 0x00)
	case wasm.OpMemoryGrow:
		return append(append(buf, 0x40), 0x00)
	case wasm.OpI32Const:
		return leb128.EncodeInt32(append(buf, 0x41), ins.I32)
	case wasm.OpI64Const:
		return leb128.EncodeInt64(append(buf, 0x42), ins.I64)
	case wasm.OpF32Const:
		buf = append(buf, 0x43)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(ins.F32))
		return append(buf, b[:]...)
	case wasm.OpF64Const:
		buf = append(buf, 0x44)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(ins.F64))
		return append(buf, b[:]...)
	case wasm.OpTableInit, wasm.OpElemDrop, wasm.OpTableCopy, wasm.OpTableGrow, wasm.OpTableSize, wasm.OpTableFill,
		wasm.OpMemoryInit, wasm.OpDataDrop, wasm.OpMemoryCopy, wasm.OpMemoryFill,
		wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
		return encodeFCInstruction(buf, ins)
	}
	if b, ok := reverseMemoryOpcodes[ins.Opcode]; ok {
		buf = append(buf, b)
		buf = leb128.EncodeUint32(buf, ins.MemArg.Align)
		return leb128.EncodeUint32(buf, ins.MemArg.Offset)
	}
	if b, ok := reverseNoImmediateOpcodes[ins.Opcode]; ok {
		return append(buf, b)
	}
	return encodeSIMDInstruction(buf, ins)
}

func encodeFCInstruction(buf []byte, ins *wasm.Instruction) []byte {
	buf = append(buf, 0xFC)
	switch ins.Opcode {
	case wasm.OpI32TruncSatF32S:
		return leb128.EncodeUint32(buf, 0)
	case wasm.OpI32TruncSatF32U:
		return leb128.EncodeUint32(buf, 1)
	case wasm.OpI32TruncSatF64S:
		return leb128.EncodeUint32(buf, 2)
	case wasm.OpI32TruncSatF64U:
		return leb128.EncodeUint32(buf, 3)
	case wasm.OpI64TruncSatF32S:
		return leb128.EncodeUint32(buf, 4)
	case wasm.OpI64TruncSatF32U:
		return leb128.EncodeUint32(buf, 5)
	case wasm.OpI64TruncSatF64S:
		return leb128.EncodeUint32(buf, 6)
	case wasm.OpI64TruncSatF64U:
		return leb128.EncodeUint32(buf, 7)
	case wasm.OpMemoryInit:
		buf = leb128.EncodeUint32(buf, 8)
		buf = leb128.EncodeUint32(buf, ins.Index)
		return append(buf, 0x00)
	case wasm.OpDataDrop:
		buf = leb128.EncodeUint32(buf, 9)
		return leb128.EncodeUint32(buf, ins.Index)
	case wasm.OpMemoryCopy:
		buf = leb128.EncodeUint32(buf, 10)
		buf = append(buf, 0x00)
		return append(buf, 0x00)
	case wasm.OpMemoryFill:
		buf = leb128.EncodeUint32(buf, 11)
		return append(buf, 0x00)
	case wasm.OpTableInit:
		buf = leb128.EncodeUint32(buf, 12)
		buf = leb128.EncodeUint32(buf, ins.Index)
		return leb128.EncodeUint32(buf, ins.Index2)
	case wasm.OpElemDrop:
		buf = leb128.EncodeUint32(buf, 13)
		return leb128.EncodeUint32(buf, ins.Index)
	case wasm.OpTableCopy:
		buf = leb128.EncodeUint32(buf, 14)
		buf = leb128.EncodeUint32(buf, ins.Index)
		return leb128.EncodeUint32(buf, ins.Index2)
	case wasm.OpTableGrow:
		buf = leb128.EncodeUint32(buf, 15)
		return leb128.EncodeUint32(buf, ins.Index)
	case wasm.OpTableSize:
		buf = leb128.EncodeUint32(buf, 16)
		return leb128.EncodeUint32(buf, ins.Index)
	case wasm.OpTableFill:
		buf = leb128.EncodeUint32(buf, 17)
		return leb128.EncodeUint32(buf, ins.Index)
	}
	return buf
}

var reverseSimdNoImmediateOpcodes = func() map[wasm.Opcode]uint32 {
	m := make(map[wasm.Opcode]uint32, len(simdNoImmediateOpcodes))
	for sub, op := range simdNoImmediateOpcodes {
		m[op] = sub
	}
	return m
}()

var reverseSimdShiftOpcodes = func() map[wasm.Opcode]uint32 {
	m := make(map[wasm.Opcode]uint32, len(simdShiftOpcodes))
	for sub, op := range simdShiftOpcodes {
		m[op] = sub
	}
	return m
}()

var reverseSimdSplatOpcodes = func() map[wasm.Opcode]uint32 {
	m := make(map[wasm.Opcode]uint32, len(simdSplatOpcodes))
	for sub, op := range simdSplatOpcodes {
		m[op] = sub
	}
	return m
}()

var reverseSimdExtractLaneOpcodes = func() map[wasm.Opcode]uint32 {
	m := make(map[wasm.Opcode]uint32, len(simdExtractLaneOpcodes))
	for sub, op := range simdExtractLaneOpcodes {
		m[op] = sub
	}
	return m
}()

var reverseSimdReplaceLaneOpcodes = func() map[wasm.Opcode]uint32 {
	m := make(map[wasm.Opcode]uint32, len(simdReplaceLaneOpcodes))
	for sub, op := range simdReplaceLaneOpcodes {
		m[op] = sub
	}
	return m
}()

func encodeSIMDInstruction(buf []byte, ins *wasm.Instruction) []byte {
	buf = append(buf, 0xFD)
	switch ins.Opcode {
	case wasm.OpV128Load:
		buf = leb128.EncodeUint32(buf, 0x00)
		buf = leb128.EncodeUint32(buf, ins.MemArg.Align)
		return leb128.EncodeUint32(buf, ins.MemArg.Offset)
	case wasm.OpV128Load8x8S, wasm.OpV128Load8x8U, wasm.OpV128Load16x4S, wasm.OpV128Load16x4U,
		wasm.OpV128Load32x2S, wasm.OpV128Load32x2U, wasm.OpV128Load8Splat, wasm.OpV128Load16Splat,
		wasm.OpV128Load32Splat, wasm.OpV128Load64Splat:
		sub := map[wasm.Opcode]uint32{
			wasm.OpV128Load8x8S: 0x01, wasm.OpV128Load8x8U: 0x02,
			wasm.OpV128Load16x4S: 0x03, wasm.OpV128Load16x4U: 0x04,
			wasm.OpV128Load32x2S: 0x05, wasm.OpV128Load32x2U: 0x06,
			wasm.OpV128Load8Splat: 0x07, wasm.OpV128Load16Splat: 0x08,
			wasm.OpV128Load32Splat: 0x09, wasm.OpV128Load64Splat: 0x0A,
		}[ins.Opcode]
		buf = leb128.EncodeUint32(buf, sub)
		buf = leb128.EncodeUint32(buf, ins.MemArg.Align)
		return leb128.EncodeUint32(buf, ins.MemArg.Offset)
	case wasm.OpV128Store:
		buf = leb128.EncodeUint32(buf, 0x0B)
		buf = leb128.EncodeUint32(buf, ins.MemArg.Align)
		return leb128.EncodeUint32(buf, ins.MemArg.Offset)
	case wasm.OpV128Const:
		buf = leb128.EncodeUint32(buf, 0x0C)
		return append(buf, ins.V128[:]...)
	case wasm.OpI8x16Shuffle:
		buf = leb128.EncodeUint32(buf, 0x0D)
		return append(buf, ins.Lanes[:]...)
	case wasm.OpI8x16Swizzle:
		return leb128.EncodeUint32(buf, 0x0E)
	}
	if sub, ok := reverseSimdSplatOpcodes[ins.Opcode]; ok {
		return leb128.EncodeUint32(buf, sub)
	}
	if sub, ok := reverseSimdExtractLaneOpcodes[ins.Opcode]; ok {
		buf = leb128.EncodeUint32(buf, sub)
		return append(buf, ins.Lane)
	}
	if sub, ok := reverseSimdReplaceLaneOpcodes[ins.Opcode]; ok {
		buf = leb128.EncodeUint32(buf, sub)
		return append(buf, ins.Lane)
	}
	if sub, ok := reverseSimdShiftOpcodes[ins.Opcode]; ok {
		return leb128.EncodeUint32(buf, sub)
	}
	if sub, ok := reverseSimdNoImmediateOpcodes[ins.Opcode]; ok {
		return leb128.EncodeUint32(buf, sub)
	}
	return buf
}

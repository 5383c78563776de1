package binary

import (
	"encoding/binary"
	"math"

	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/internal/leb128"
	"github.com/wazevm/wazevm/internal/wasm"
)

// readConstExpr decodes a single instruction sequence terminated by End and
// wraps it as a wasm.ConstExpr. Whether the sequence is actually a legal
// constant expression (spec.md §4.2: only *.const, global.get of an imported
// immutable global, ref.null, ref.func) is the validator's job, not the
// decoder's; this just needs to know where the expression ends.
func (d *decoder) readConstExpr(s *source, section wasm.SectionID) (wasm.ConstExpr, error) {
	body, _, err := d.decodeOps(s, section, false)
	if err != nil {
		return wasm.ConstExpr{}, err
	}
	return wasm.ConstExpr{Instructions: body}, nil
}

// decodeInstructionSequence decodes a function body: instructions up to and
// including its matching End.
func (d *decoder) decodeInstructionSequence(s *source, section wasm.SectionID) ([]wasm.Instruction, error) {
	body, _, err := d.decodeOps(s, section, false)
	return body, err
}

// decodeOps reads instructions until a terminating End (always) or Else
// (only when allowElse) is reached, consuming the terminator. It reports
// whether the terminator was Else so callers decoding an `if` can go on to
// read the else-branch.
func (d *decoder) decodeOps(s *source, section wasm.SectionID, allowElse bool) ([]wasm.Instruction, bool, error) {
	var out []wasm.Instruction
	for {
		op, err := s.ReadByte()
		if err != nil {
			return nil, false, loadErr(s, section, wasm.UnexpectedEnd, "truncated instruction sequence")
		}
		switch op {
		case 0x0B: // end
			return out, false, nil
		case 0x05: // else
			if allowElse {
				return out, true, nil
			}
			return nil, false, loadErr(s, section, wasm.InvalidGrammar, "unexpected else outside an if block")
		}
		ins, err := d.decodeOneInstruction(s, section, op)
		if err != nil {
			return nil, false, err
		}
		out = append(out, ins)
	}
}

func (d *decoder) decodeBlockType(s *source, section wasm.SectionID) (wasm.BlockType, error) {
	// A block type is either 0x40 (empty), a single value type byte, or an
	// SLEB128-encoded non-negative type index -- distinguished by matching
	// the first byte against 0x40 and the known value-type bytes, and
	// otherwise rewinding to read the whole type index (spec.md §4.1's
	// "heap type or typeidx" disambiguation).
	b, err := s.ReadByte()
	if err != nil {
		return wasm.BlockType{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated block type")
	}
	if b == 0x40 {
		return wasm.BlockType{Kind: wasm.BlockTypeEmpty}, nil
	}
	switch b {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64,
		api.ValueTypeV128, api.ValueTypeFuncref, api.ValueTypeExternref:
		return wasm.BlockType{Kind: wasm.BlockTypeValue, ValType: b}, nil
	}
	// Not a recognized valtype prefix: treat as the first byte of an SLEB128
	// type index and rewind to decode it whole.
	s.pos--
	idx, _, err := leb128.DecodeInt32(s)
	if err != nil {
		return wasm.BlockType{}, toLoadErr(s, section, err)
	}
	if idx < 0 {
		return wasm.BlockType{}, loadErr(s, section, wasm.InvalidGrammar, "negative block type index %d", idx)
	}
	return wasm.BlockType{Kind: wasm.BlockTypeIndexed, TypeIndex: uint32(idx)}, nil
}

func (d *decoder) decodeOneInstruction(s *source, section wasm.SectionID, op byte) (wasm.Instruction, error) {
	switch op {
	case 0x00:
		return wasm.Instruction{Opcode: wasm.OpUnreachable}, nil
	case 0x01:
		return wasm.Instruction{Opcode: wasm.OpNop}, nil
	case 0x02, 0x03: // block, loop
		bt, err := d.decodeBlockType(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		body, _, err := d.decodeOps(s, section, false)
		if err != nil {
			return wasm.Instruction{}, err
		}
		opc := wasm.OpBlock
		if op == 0x03 {
			opc = wasm.OpLoop
		}
		return wasm.Instruction{Opcode: opc, Block: bt, Body: body}, nil
	case 0x04: // if
		bt, err := d.decodeBlockType(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		thenBody, hitElse, err := d.decodeOps(s, section, true)
		if err != nil {
			return wasm.Instruction{}, err
		}
		var elseBody []wasm.Instruction
		if hitElse {
			elseBody, _, err = d.decodeOps(s, section, false)
			if err != nil {
				return wasm.Instruction{}, err
			}
		}
		return wasm.Instruction{Opcode: wasm.OpIf, Block: bt, Body: thenBody, Else: elseBody}, nil
	case 0x0C, 0x0D: // br, br_if
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		opc := wasm.OpBr
		if op == 0x0D {
			opc = wasm.OpBrIf
		}
		return wasm.Instruction{Opcode: opc, LabelIndex: idx}, nil
	case 0x0E: // br_table
		n, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		table := make([]uint32, n)
		for i := range table {
			v, err := readU32(s, section)
			if err != nil {
				return wasm.Instruction{}, err
			}
			table[i] = v
		}
		def, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpBrTable, LabelTable: table, DefaultIdx: def}, nil
	case 0x0F:
		return wasm.Instruction{Opcode: wasm.OpReturn}, nil
	case 0x10: // call
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpCall, Index: idx}, nil
	case 0x11: // call_indirect
		typeIdx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		tableIdx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpCallIndirect, Index: typeIdx, Index2: tableIdx}, nil
	case 0xD0: // ref.null
		rt, err := readValType(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpRefNull, RefType: rt}, nil
	case 0xD1:
		return wasm.Instruction{Opcode: wasm.OpRefIsNull}, nil
	case 0xD2: // ref.func
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpRefFunc, Index: idx}, nil
	case 0x1A:
		return wasm.Instruction{Opcode: wasm.OpDrop}, nil
	case 0x1B:
		return wasm.Instruction{Opcode: wasm.OpSelect}, nil
	case 0x1C: // select t*
		n, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		types := make([]api.ValueType, n)
		for i := range types {
			vt, err := readValType(s, section)
			if err != nil {
				return wasm.Instruction{}, err
			}
			types[i] = vt
		}
		return wasm.Instruction{Opcode: wasm.OpSelectT, SelectTypes: types}, nil
	case 0x20, 0x21, 0x22, 0x23, 0x24: // local/global get/set/tee
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		var opc wasm.Opcode
		switch op {
		case 0x20:
			opc = wasm.OpLocalGet
		case 0x21:
			opc = wasm.OpLocalSet
		case 0x22:
			opc = wasm.OpLocalTee
		case 0x23:
			opc = wasm.OpGlobalGet
		case 0x24:
			opc = wasm.OpGlobalSet
		}
		return wasm.Instruction{Opcode: opc, Index: idx}, nil
	case 0x25, 0x26: // table.get, table.set
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		opc := wasm.OpTableGet
		if op == 0x26 {
			opc = wasm.OpTableSet
		}
		return wasm.Instruction{Opcode: opc, Index: idx}, nil
	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F,
		0x30, 0x31, 0x32, 0x33, 0x34, 0x35,
		0x36, 0x37, 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E:
		memArg, err := d.readMemArg(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: memoryOpcodes[op], MemArg: memArg}, nil
	case 0x3F, 0x40: // memory.size, memory.grow
		if _, err := s.ReadByte(); err != nil { // reserved byte, must be 0x00
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated memory.size/grow")
		}
		opc := wasm.OpMemorySize
		if op == 0x40 {
			opc = wasm.OpMemoryGrow
		}
		return wasm.Instruction{Opcode: opc}, nil
	case 0x41: // i32.const
		v, err := readI32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpI32Const, I32: v}, nil
	case 0x42: // i64.const
		v, err := readI64(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpI64Const, I64: v}, nil
	case 0x43: // f32.const
		b, err := s.readBytes(4)
		if err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated f32.const")
		}
		return wasm.Instruction{Opcode: wasm.OpF32Const, F32: math.Float32frombits(binary.LittleEndian.Uint32(b))}, nil
	case 0x44: // f64.const
		b, err := s.readBytes(8)
		if err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated f64.const")
		}
		return wasm.Instruction{Opcode: wasm.OpF64Const, F64: math.Float64frombits(binary.LittleEndian.Uint64(b))}, nil
	case 0xFC:
		return d.decodeFCInstruction(s, section)
	case 0xFD:
		return d.decodeSIMDInstruction(s, section)
	}
	if opc, ok := noImmediateOpcodes[op]; ok {
		return wasm.Instruction{Opcode: opc}, nil
	}
	return wasm.Instruction{}, loadErr(s, section, wasm.UnknownOpCode, "opcode %#x", op)
}

func (d *decoder) readMemArg(s *source, section wasm.SectionID) (wasm.MemArg, error) {
	align, err := readU32(s, section)
	if err != nil {
		return wasm.MemArg{}, err
	}
	offset, err := readU32(s, section)
	if err != nil {
		return wasm.MemArg{}, err
	}
	return wasm.MemArg{Align: align, Offset: offset}, nil
}

var memoryOpcodes = map[byte]wasm.Opcode{
	0x28: wasm.OpI32Load, 0x29: wasm.OpI64Load, 0x2A: wasm.OpF32Load, 0x2B: wasm.OpF64Load,
	0x2C: wasm.OpI32Load8S, 0x2D: wasm.OpI32Load8U, 0x2E: wasm.OpI32Load16S, 0x2F: wasm.OpI32Load16U,
	0x30: wasm.OpI64Load8S, 0x31: wasm.OpI64Load8U, 0x32: wasm.OpI64Load16S, 0x33: wasm.OpI64Load16U,
	0x34: wasm.OpI64Load32S, 0x35: wasm.OpI64Load32U,
	0x36: wasm.OpI32Store, 0x37: wasm.OpI64Store, 0x38: wasm.OpF32Store, 0x39: wasm.OpF64Store,
	0x3A: wasm.OpI32Store8, 0x3B: wasm.OpI32Store16, 0x3C: wasm.OpI64Store8, 0x3D: wasm.OpI64Store16, 0x3E: wasm.OpI64Store32,
}

// noImmediateOpcodes covers every comparison/arithmetic/conversion/
// sign-extension instruction: a fixed single byte, no immediate operands.
var noImmediateOpcodes = map[byte]wasm.Opcode{
	0x45: wasm.OpI32Eqz, 0x46: wasm.OpI32Eq, 0x47: wasm.OpI32Ne,
	0x48: wasm.OpI32LtS, 0x49: wasm.OpI32LtU, 0x4A: wasm.OpI32GtS, 0x4B: wasm.OpI32GtU,
	0x4C: wasm.OpI32LeS, 0x4D: wasm.OpI32LeU, 0x4E: wasm.OpI32GeS, 0x4F: wasm.OpI32GeU,

	0x50: wasm.OpI64Eqz, 0x51: wasm.OpI64Eq, 0x52: wasm.OpI64Ne,
	0x53: wasm.OpI64LtS, 0x54: wasm.OpI64LtU, 0x55: wasm.OpI64GtS, 0x56: wasm.OpI64GtU,
	0x57: wasm.OpI64LeS, 0x58: wasm.OpI64LeU, 0x59: wasm.OpI64GeS, 0x5A: wasm.OpI64GeU,

	0x5B: wasm.OpF32Eq, 0x5C: wasm.OpF32Ne, 0x5D: wasm.OpF32Lt, 0x5E: wasm.OpF32Gt, 0x5F: wasm.OpF32Le, 0x60: wasm.OpF32Ge,
	0x61: wasm.OpF64Eq, 0x62: wasm.OpF64Ne, 0x63: wasm.OpF64Lt, 0x64: wasm.OpF64Gt, 0x65: wasm.OpF64Le, 0x66: wasm.OpF64Ge,

	0x67: wasm.OpI32Clz, 0x68: wasm.OpI32Ctz, 0x69: wasm.OpI32Popcnt,
	0x6A: wasm.OpI32Add, 0x6B: wasm.OpI32Sub, 0x6C: wasm.OpI32Mul,
	0x6D: wasm.OpI32DivS, 0x6E: wasm.OpI32DivU, 0x6F: wasm.OpI32RemS, 0x70: wasm.OpI32RemU,
	0x71: wasm.OpI32And, 0x72: wasm.OpI32Or, 0x73: wasm.OpI32Xor,
	0x74: wasm.OpI32Shl, 0x75: wasm.OpI32ShrS, 0x76: wasm.OpI32ShrU, 0x77: wasm.OpI32Rotl, 0x78: wasm.OpI32Rotr,

	0x79: wasm.OpI64Clz, 0x7A: wasm.OpI64Ctz, 0x7B: wasm.OpI64Popcnt,
	0x7C: wasm.OpI64Add, 0x7D: wasm.OpI64Sub, 0x7E: wasm.OpI64Mul,
	0x7F: wasm.OpI64DivS, 0x80: wasm.OpI64DivU, 0x81: wasm.OpI64RemS, 0x82: wasm.OpI64RemU,
	0x83: wasm.OpI64And, 0x84: wasm.OpI64Or, 0x85: wasm.OpI64Xor,
	0x86: wasm.OpI64Shl, 0x87: wasm.OpI64ShrS, 0x88: wasm.OpI64ShrU, 0x89: wasm.OpI64Rotl, 0x8A: wasm.OpI64Rotr,

	0x8B: wasm.OpF32Abs, 0x8C: wasm.OpF32Neg, 0x8D: wasm.OpF32Ceil, 0x8E: wasm.OpF32Floor,
	0x8F: wasm.OpF32Trunc, 0x90: wasm.OpF32Nearest, 0x91: wasm.OpF32Sqrt,
	0x92: wasm.OpF32Add, 0x93: wasm.OpF32Sub, 0x94: wasm.OpF32Mul, 0x95: wasm.OpF32Div,
	0x96: wasm.OpF32Min, 0x97: wasm.OpF32Max, 0x98: wasm.OpF32Copysign,

	0x99: wasm.OpF64Abs, 0x9A: wasm.OpF64Neg, 0x9B: wasm.OpF64Ceil, 0x9C: wasm.OpF64Floor,
	0x9D: wasm.OpF64Trunc, 0x9E: wasm.OpF64Nearest, 0x9F: wasm.OpF64Sqrt,
	0xA0: wasm.OpF64Add, 0xA1: wasm.OpF64Sub, 0xA2: wasm.OpF64Mul, 0xA3: wasm.OpF64Div,
	0xA4: wasm.OpF64Min, 0xA5: wasm.OpF64Max, 0xA6: wasm.OpF64Copysign,

	0xA7: wasm.OpI32WrapI64,
	0xA8: wasm.OpI32TruncF32S, 0xA9: wasm.OpI32TruncF32U, 0xAA: wasm.OpI32TruncF64S, 0xAB: wasm.OpI32TruncF64U,
	0xAC: wasm.OpI64ExtendI32S, 0xAD: wasm.OpI64ExtendI32U,
	0xAE: wasm.OpI64TruncF32S, 0xAF: wasm.OpI64TruncF32U, 0xB0: wasm.OpI64TruncF64S, 0xB1: wasm.OpI64TruncF64U,
	0xB2: wasm.OpF32ConvertI32S, 0xB3: wasm.OpF32ConvertI32U, 0xB4: wasm.OpF32ConvertI64S, 0xB5: wasm.OpF32ConvertI64U,
	0xB6: wasm.OpF32DemoteF64,
	0xB7: wasm.OpF64ConvertI32S, 0xB8: wasm.OpF64ConvertI32U, 0xB9: wasm.OpF64ConvertI64S, 0xBA: wasm.OpF64ConvertI64U,
	0xBB: wasm.OpF64PromoteF32,
	0xBC: wasm.OpI32ReinterpretF32, 0xBD: wasm.OpI64ReinterpretF64,
	0xBE: wasm.OpF32ReinterpretI32, 0xBF: wasm.OpF64ReinterpretI64,

	0xC0: wasm.OpI32Extend8S, 0xC1: wasm.OpI32Extend16S,
	0xC2: wasm.OpI64Extend8S, 0xC3: wasm.OpI64Extend16S, 0xC4: wasm.OpI64Extend32S,
}

// decodeFCInstruction handles the 0xFC prefix: saturating truncation and
// bulk-memory/table operations, dispatched by a u32 LEB128 sub-opcode
// (spec.md §4.1).
func (d *decoder) decodeFCInstruction(s *source, section wasm.SectionID) (wasm.Instruction, error) {
	sub, err := readU32(s, section)
	if err != nil {
		return wasm.Instruction{}, err
	}
	if !d.features.SaturatingTruncate && sub <= 7 {
		return wasm.Instruction{}, loadErr(s, section, wasm.UnknownOpCode, "saturating truncation requires the feature to be enabled")
	}
	if !d.features.BulkMemory && sub >= 8 {
		return wasm.Instruction{}, loadErr(s, section, wasm.UnknownOpCode, "bulk memory/table ops require the feature to be enabled")
	}
	switch sub {
	case 0:
		return wasm.Instruction{Opcode: wasm.OpI32TruncSatF32S}, nil
	case 1:
		return wasm.Instruction{Opcode: wasm.OpI32TruncSatF32U}, nil
	case 2:
		return wasm.Instruction{Opcode: wasm.OpI32TruncSatF64S}, nil
	case 3:
		return wasm.Instruction{Opcode: wasm.OpI32TruncSatF64U}, nil
	case 4:
		return wasm.Instruction{Opcode: wasm.OpI64TruncSatF32S}, nil
	case 5:
		return wasm.Instruction{Opcode: wasm.OpI64TruncSatF32U}, nil
	case 6:
		return wasm.Instruction{Opcode: wasm.OpI64TruncSatF64S}, nil
	case 7:
		return wasm.Instruction{Opcode: wasm.OpI64TruncSatF64U}, nil
	case 8: // memory.init
		dataIdx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		if _, err := s.ReadByte(); err != nil { // reserved mem idx, 0x00
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated memory.init")
		}
		return wasm.Instruction{Opcode: wasm.OpMemoryInit, Index: dataIdx}, nil
	case 9: // data.drop
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpDataDrop, Index: idx}, nil
	case 10: // memory.copy
		if _, err := s.ReadByte(); err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated memory.copy")
		}
		if _, err := s.ReadByte(); err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated memory.copy")
		}
		return wasm.Instruction{Opcode: wasm.OpMemoryCopy}, nil
	case 11: // memory.fill
		if _, err := s.ReadByte(); err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated memory.fill")
		}
		return wasm.Instruction{Opcode: wasm.OpMemoryFill}, nil
	case 12: // table.init
		elemIdx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		tableIdx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpTableInit, Index: elemIdx, Index2: tableIdx}, nil
	case 13: // elem.drop
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpElemDrop, Index: idx}, nil
	case 14: // table.copy
		dst, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		src, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpTableCopy, Index: dst, Index2: src}, nil
	case 15: // table.grow
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpTableGrow, Index: idx}, nil
	case 16: // table.size
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpTableSize, Index: idx}, nil
	case 17: // table.fill
		idx, err := readU32(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpTableFill, Index: idx}, nil
	}
	return wasm.Instruction{}, loadErr(s, section, wasm.UnknownOpCode, "0xFC sub-opcode %d", sub)
}

// simdNoImmediateOpcodes and simdShiftOpcodes follow the canonical SIMD
// proposal's sub-opcode numbering, restricted to the subset this module
// implements (SPEC_FULL.md §11).
var simdNoImmediateOpcodes = map[uint32]wasm.Opcode{
	0x23: wasm.OpI8x16Eq, 0x24: wasm.OpI8x16Ne,
	0x2D: wasm.OpI16x8Eq, 0x2E: wasm.OpI16x8Ne,
	0x37: wasm.OpI32x4Eq, 0x38: wasm.OpI32x4Ne,
	0x4D: wasm.OpV128Not, 0x4E: wasm.OpV128And, 0x50: wasm.OpV128Or, 0x51: wasm.OpV128Xor,
	0x52: wasm.OpV128Bitselect, 0x53: wasm.OpV128AnyTrue,

	0x61: wasm.OpI8x16Neg, 0x63: wasm.OpI8x16AllTrue,
	0x6E: wasm.OpI8x16Add, 0x6F: wasm.OpI8x16AddSatS, 0x70: wasm.OpI8x16AddSatU,
	0x71: wasm.OpI8x16Sub, 0x72: wasm.OpI8x16SubSatS, 0x73: wasm.OpI8x16SubSatU,
	0x76: wasm.OpI8x16MinS, 0x77: wasm.OpI8x16MinU, 0x78: wasm.OpI8x16MaxS, 0x79: wasm.OpI8x16MaxU,

	0x81: wasm.OpI16x8Neg, 0x83: wasm.OpI16x8AllTrue,
	0x8E: wasm.OpI16x8Add, 0x8F: wasm.OpI16x8AddSatS, 0x90: wasm.OpI16x8AddSatU,
	0x91: wasm.OpI16x8Sub, 0x92: wasm.OpI16x8SubSatS, 0x93: wasm.OpI16x8SubSatU,
	0x95: wasm.OpI16x8Mul,

	0xA1: wasm.OpI32x4Neg, 0xA3: wasm.OpI32x4AllTrue,
	0xAE: wasm.OpI32x4Add, 0xB1: wasm.OpI32x4Sub, 0xB5: wasm.OpI32x4Mul,

	0xC1: wasm.OpI64x2Neg, 0xC3: wasm.OpI64x2AllTrue,
	0xCE: wasm.OpI64x2Add, 0xD1: wasm.OpI64x2Sub, 0xD5: wasm.OpI64x2Mul,

	0xE4: wasm.OpF32x4Add, 0xE5: wasm.OpF32x4Sub, 0xE6: wasm.OpF32x4Mul, 0xE7: wasm.OpF32x4Div,
	0xE8: wasm.OpF32x4Min, 0xE9: wasm.OpF32x4Max,

	0xF0: wasm.OpF64x2Add, 0xF1: wasm.OpF64x2Sub, 0xF2: wasm.OpF64x2Mul, 0xF3: wasm.OpF64x2Div,
	0xF4: wasm.OpF64x2Min, 0xF5: wasm.OpF64x2Max,
}

var simdShiftOpcodes = map[uint32]wasm.Opcode{
	0x6B: wasm.OpI8x16Shl, 0x6C: wasm.OpI8x16ShrS, 0x6D: wasm.OpI8x16ShrU,
	0x8B: wasm.OpI16x8Shl, 0x8C: wasm.OpI16x8ShrS, 0x8D: wasm.OpI16x8ShrU,
	0xAB: wasm.OpI32x4Shl, 0xAC: wasm.OpI32x4ShrS, 0xAD: wasm.OpI32x4ShrU,
	0xCB: wasm.OpI64x2Shl, 0xCC: wasm.OpI64x2ShrS, 0xCD: wasm.OpI64x2ShrU,
}

var simdSplatOpcodes = map[uint32]wasm.Opcode{
	0x0F: wasm.OpI8x16Splat, 0x10: wasm.OpI16x8Splat, 0x11: wasm.OpI32x4Splat,
	0x12: wasm.OpI64x2Splat, 0x13: wasm.OpF32x4Splat, 0x14: wasm.OpF64x2Splat,
}

var simdExtractLaneOpcodes = map[uint32]wasm.Opcode{
	0x15: wasm.OpI8x16ExtractLaneS, 0x16: wasm.OpI8x16ExtractLaneU,
	0x18: wasm.OpI16x8ExtractLaneS, 0x19: wasm.OpI16x8ExtractLaneU,
	0x1B: wasm.OpI32x4ExtractLane, 0x1D: wasm.OpI64x2ExtractLane,
	0x1F: wasm.OpF32x4ExtractLane, 0x21: wasm.OpF64x2ExtractLane,
}

var simdReplaceLaneOpcodes = map[uint32]wasm.Opcode{
	0x17: wasm.OpI8x16ReplaceLane, 0x1A: wasm.OpI16x8ReplaceLane,
	0x1C: wasm.OpI32x4ReplaceLane, 0x1E: wasm.OpI64x2ReplaceLane,
	0x20: wasm.OpF32x4ReplaceLane, 0x22: wasm.OpF64x2ReplaceLane,
}

// decodeSIMDInstruction handles the 0xFD prefix (spec.md §4.1's "SIMD
// extension"), dispatched by a u32 LEB128 sub-opcode.
func (d *decoder) decodeSIMDInstruction(s *source, section wasm.SectionID) (wasm.Instruction, error) {
	if !d.features.SIMD {
		return wasm.Instruction{}, loadErr(s, section, wasm.UnknownOpCode, "SIMD requires the feature to be enabled")
	}
	sub, err := readU32(s, section)
	if err != nil {
		return wasm.Instruction{}, err
	}
	switch sub {
	case 0x00: // v128.load
		memArg, err := d.readMemArg(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpV128Load, MemArg: memArg}, nil
	case 0x01, 0x02, 0x03, 0x04, 0x05, 0x06: // v128.loadNxMX_s/u
		memArg, err := d.readMemArg(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		opc := map[uint32]wasm.Opcode{
			0x01: wasm.OpV128Load8x8S, 0x02: wasm.OpV128Load8x8U,
			0x03: wasm.OpV128Load16x4S, 0x04: wasm.OpV128Load16x4U,
			0x05: wasm.OpV128Load32x2S, 0x06: wasm.OpV128Load32x2U,
		}[sub]
		return wasm.Instruction{Opcode: opc, MemArg: memArg}, nil
	case 0x07, 0x08, 0x09, 0x0A: // v128.loadN_splat
		memArg, err := d.readMemArg(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		opc := map[uint32]wasm.Opcode{
			0x07: wasm.OpV128Load8Splat, 0x08: wasm.OpV128Load16Splat,
			0x09: wasm.OpV128Load32Splat, 0x0A: wasm.OpV128Load64Splat,
		}[sub]
		return wasm.Instruction{Opcode: opc, MemArg: memArg}, nil
	case 0x0B: // v128.store
		memArg, err := d.readMemArg(s, section)
		if err != nil {
			return wasm.Instruction{}, err
		}
		return wasm.Instruction{Opcode: wasm.OpV128Store, MemArg: memArg}, nil
	case 0x0C: // v128.const
		b, err := s.readBytes(16)
		if err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated v128.const")
		}
		var v [16]byte
		copy(v[:], b)
		return wasm.Instruction{Opcode: wasm.OpV128Const, V128: v}, nil
	case 0x0D: // i8x16.shuffle
		b, err := s.readBytes(16)
		if err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated i8x16.shuffle")
		}
		var lanes [16]byte
		copy(lanes[:], b)
		return wasm.Instruction{Opcode: wasm.OpI8x16Shuffle, Lanes: lanes}, nil
	case 0x0E:
		return wasm.Instruction{Opcode: wasm.OpI8x16Swizzle}, nil
	}
	if opc, ok := simdSplatOpcodes[sub]; ok {
		return wasm.Instruction{Opcode: opc}, nil
	}
	if opc, ok := simdExtractLaneOpcodes[sub]; ok {
		lane, err := s.ReadByte()
		if err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated lane index")
		}
		return wasm.Instruction{Opcode: opc, Lane: lane}, nil
	}
	if opc, ok := simdReplaceLaneOpcodes[sub]; ok {
		lane, err := s.ReadByte()
		if err != nil {
			return wasm.Instruction{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated lane index")
		}
		return wasm.Instruction{Opcode: opc, Lane: lane}, nil
	}
	if opc, ok := simdShiftOpcodes[sub]; ok {
		return wasm.Instruction{Opcode: opc}, nil
	}
	if opc, ok := simdNoImmediateOpcodes[sub]; ok {
		return wasm.Instruction{Opcode: opc}, nil
	}
	return wasm.Instruction{}, loadErr(s, section, wasm.UnknownOpCode, "0xFD sub-opcode %d", sub)
}

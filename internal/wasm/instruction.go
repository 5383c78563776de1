package wasm

import "github.com/wazevm/wazevm/api"

// Opcode is a decoded instruction's kind. Its values are this package's own
// dense numbering, not the binary format's byte values: the decoder maps
// each single-byte opcode and each 0xFC (saturating-truncation/bulk-memory)
// and 0xFD (SIMD) prefixed sub-opcode to its own distinct Opcode, so a
// single Opcode value always identifies one operation unambiguously.
type Opcode uint32

const (
	// Control.
	OpUnreachable Opcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect

	// Reference.
	OpRefNull
	OpRefIsNull
	OpRefFunc

	// Parametric.
	OpDrop
	OpSelect
	OpSelectT

	// Variable.
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	// Table.
	OpTableGet
	OpTableSet
	OpTableGrow
	OpTableSize
	OpTableFill
	OpTableInit
	OpTableCopy
	OpElemDrop

	// Memory.
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow
	OpMemoryInit
	OpDataDrop
	OpMemoryCopy
	OpMemoryFill

	// Numeric constants.
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	// i32 comparisons.
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU

	// i64 comparisons.
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU

	// f32/f64 comparisons.
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge
	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge

	// i32 arithmetic.
	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	// i64 arithmetic.
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	// f32 arithmetic.
	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign

	// f64 arithmetic.
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	// Conversions.
	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64

	// Sign extension.
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S

	// Saturating truncation (0xFC prefix, sub-opcodes 0-7).
	OpI32TruncSatF32S
	OpI32TruncSatF32U
	OpI32TruncSatF64S
	OpI32TruncSatF64U
	OpI64TruncSatF32S
	OpI64TruncSatF32U
	OpI64TruncSatF64S
	OpI64TruncSatF64U

	// SIMD (0xFD prefix). Only the subset this module implements; see
	// SPEC_FULL.md §11/DESIGN.md for scope.
	OpV128Load
	OpV128Load8x8S
	OpV128Load8x8U
	OpV128Load16x4S
	OpV128Load16x4U
	OpV128Load32x2S
	OpV128Load32x2U
	OpV128Load8Splat
	OpV128Load16Splat
	OpV128Load32Splat
	OpV128Load64Splat
	OpV128Store
	OpV128Const
	OpI8x16Shuffle
	OpI8x16Swizzle
	OpI8x16Splat
	OpI16x8Splat
	OpI32x4Splat
	OpI64x2Splat
	OpF32x4Splat
	OpF64x2Splat
	OpI8x16ExtractLaneS
	OpI8x16ExtractLaneU
	OpI8x16ReplaceLane
	OpI16x8ExtractLaneS
	OpI16x8ExtractLaneU
	OpI16x8ReplaceLane
	OpI32x4ExtractLane
	OpI32x4ReplaceLane
	OpI64x2ExtractLane
	OpI64x2ReplaceLane
	OpF32x4ExtractLane
	OpF32x4ReplaceLane
	OpF64x2ExtractLane
	OpF64x2ReplaceLane
	OpI8x16Eq
	OpI8x16Ne
	OpI8x16Add
	OpI8x16Sub
	OpI8x16AddSatS
	OpI8x16AddSatU
	OpI8x16SubSatS
	OpI8x16SubSatU
	OpI8x16MinS
	OpI8x16MinU
	OpI8x16MaxS
	OpI8x16MaxU
	OpI16x8Eq
	OpI16x8Ne
	OpI16x8Add
	OpI16x8Sub
	OpI16x8Mul
	OpI16x8AddSatS
	OpI16x8AddSatU
	OpI16x8SubSatS
	OpI16x8SubSatU
	OpI32x4Eq
	OpI32x4Ne
	OpI32x4Add
	OpI32x4Sub
	OpI32x4Mul
	OpI64x2Add
	OpI64x2Sub
	OpI64x2Mul
	OpF32x4Add
	OpF32x4Sub
	OpF32x4Mul
	OpF32x4Div
	OpF32x4Min
	OpF32x4Max
	OpF64x2Add
	OpF64x2Sub
	OpF64x2Mul
	OpF64x2Div
	OpF64x2Min
	OpF64x2Max
	OpV128Not
	OpV128And
	OpV128Or
	OpV128Xor
	OpV128Bitselect
	OpV128AnyTrue
	OpI8x16AllTrue
	OpI16x8AllTrue
	OpI32x4AllTrue
	OpI64x2AllTrue
	OpI8x16Neg
	OpI16x8Neg
	OpI32x4Neg
	OpI64x2Neg
	OpI8x16Shl
	OpI8x16ShrS
	OpI8x16ShrU
	OpI16x8Shl
	OpI16x8ShrS
	OpI16x8ShrU
	OpI32x4Shl
	OpI32x4ShrS
	OpI32x4ShrU
	OpI64x2Shl
	OpI64x2ShrS
	OpI64x2ShrU

	opcodeCount
)

// BlockType describes a structured instruction's parameter/result arity, as
// either an inline immediate (empty or a single result type) or a
// type-section index for a full FunctionType (spec.md §4.1).
type BlockType struct {
	// Kind selects which of the fields below is meaningful.
	Kind BlockTypeKind
	// ValType is set when Kind == BlockTypeValue.
	ValType api.ValueType
	// TypeIndex is set when Kind == BlockTypeIndexed.
	TypeIndex uint32
}

// BlockTypeKind distinguishes the three block-type encodings.
type BlockTypeKind byte

const (
	BlockTypeEmpty BlockTypeKind = iota
	BlockTypeValue
	BlockTypeIndexed
)

// MemArg is the (align, offset) immediate pair on load/store instructions.
// Align is advisory (spec.md §4.4); Offset is added to the i32 address
// operand.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Instruction is a decoded instruction: a Kind selector plus whichever
// immediate fields that Kind uses. This is a tagged sum rather than a
// per-opcode struct hierarchy (spec.md §9) so dispatch in both the
// validator and interpreter is a single exhaustive switch.
type Instruction struct {
	Opcode Opcode

	// Structured control flow (block/loop/if).
	Block     BlockType
	Body      []Instruction // block/loop body, or the "then" body for if
	Else      []Instruction // if's else body; nil when absent
	// The nested Body/Else slices hold the structured bodies; no End or
	// Else index is recorded. The continuation after a block, loop or if
	// is the next instruction of the enclosing sequence, so the interpreter
	// never rescans to find it.

	// Branch immediates.
	LabelIndex  uint32
	LabelTable  []uint32 // br_table targets
	DefaultIdx  uint32   // br_table default

	// Index immediates (call, call_indirect, local/global/table/elem/data,
	// ref.func).
	Index      uint32
	Index2     uint32 // call_indirect's table index; table.init/copy's 2nd table/elem index

	// Reference type immediate (ref.null).
	RefType api.ValueType

	// select t's explicit result types.
	SelectTypes []api.ValueType

	// Numeric constant immediates.
	I32 int32
	I64 int64
	F32 float32
	F64 float64
	V128 [16]byte

	// Memory/SIMD-load immediates.
	MemArg MemArg
	// Lane is the lane index immediate for *extract_lane/*replace_lane.
	Lane byte
	// Lanes is i8x16.shuffle's 16 lane-index immediates.
	Lanes [16]byte
}

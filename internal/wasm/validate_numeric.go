package wasm

import "github.com/wazevm/wazevm/api"

// validateNumericOrMemOrSIMD handles every opcode not given a dedicated
// case in validateInstruction: numeric unary/binary/comparison/conversion
// families, typed memory load/store, and the SIMD subset this module
// implements. Grouped by arity+type shape rather than one case per opcode,
// since the type rule is identical within each group (spec.md §4.2).
func (v *funcValidator) validateNumericOrMemOrSIMD(ins *Instruction) error {
	switch ins.Opcode {
	// i32 unary (clz/ctz/popcnt, sign-extension).
	case OpI32Clz, OpI32Ctz, OpI32Popcnt, OpI32Extend8S, OpI32Extend16S:
		return v.unary(api.ValueTypeI32, api.ValueTypeI32)
	case OpI32Eqz:
		return v.unary(api.ValueTypeI32, api.ValueTypeI32)

	// i32 binary arithmetic/bitwise/comparison.
	case OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU,
		OpI32And, OpI32Or, OpI32Xor, OpI32Shl, OpI32ShrS, OpI32ShrU, OpI32Rotl, OpI32Rotr:
		return v.binary(api.ValueTypeI32, api.ValueTypeI32)
	case OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU, OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU:
		return v.binaryResult(api.ValueTypeI32, api.ValueTypeI32)

	// i64 unary/binary/comparison.
	case OpI64Clz, OpI64Ctz, OpI64Popcnt, OpI64Extend8S, OpI64Extend16S, OpI64Extend32S:
		return v.unary(api.ValueTypeI64, api.ValueTypeI64)
	case OpI64Eqz:
		return v.unary(api.ValueTypeI64, api.ValueTypeI32)
	case OpI64Add, OpI64Sub, OpI64Mul, OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU,
		OpI64And, OpI64Or, OpI64Xor, OpI64Shl, OpI64ShrS, OpI64ShrU, OpI64Rotl, OpI64Rotr:
		return v.binary(api.ValueTypeI64, api.ValueTypeI64)
	case OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU, OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU:
		return v.binaryResult(api.ValueTypeI64, api.ValueTypeI32)

	// f32/f64 unary/binary/comparison.
	case OpF32Abs, OpF32Neg, OpF32Ceil, OpF32Floor, OpF32Trunc, OpF32Nearest, OpF32Sqrt:
		return v.unary(api.ValueTypeF32, api.ValueTypeF32)
	case OpF32Add, OpF32Sub, OpF32Mul, OpF32Div, OpF32Min, OpF32Max, OpF32Copysign:
		return v.binary(api.ValueTypeF32, api.ValueTypeF32)
	case OpF32Eq, OpF32Ne, OpF32Lt, OpF32Gt, OpF32Le, OpF32Ge:
		return v.binaryResult(api.ValueTypeF32, api.ValueTypeI32)
	case OpF64Abs, OpF64Neg, OpF64Ceil, OpF64Floor, OpF64Trunc, OpF64Nearest, OpF64Sqrt:
		return v.unary(api.ValueTypeF64, api.ValueTypeF64)
	case OpF64Add, OpF64Sub, OpF64Mul, OpF64Div, OpF64Min, OpF64Max, OpF64Copysign:
		return v.binary(api.ValueTypeF64, api.ValueTypeF64)
	case OpF64Eq, OpF64Ne, OpF64Lt, OpF64Gt, OpF64Le, OpF64Ge:
		return v.binaryResult(api.ValueTypeF64, api.ValueTypeI32)

	// Conversions.
	case OpI32WrapI64:
		return v.unary(api.ValueTypeI64, api.ValueTypeI32)
	case OpI32TruncF32S, OpI32TruncF32U, OpI32TruncSatF32S, OpI32TruncSatF32U:
		return v.unary(api.ValueTypeF32, api.ValueTypeI32)
	case OpI32TruncF64S, OpI32TruncF64U, OpI32TruncSatF64S, OpI32TruncSatF64U:
		return v.unary(api.ValueTypeF64, api.ValueTypeI32)
	case OpI64ExtendI32S, OpI64ExtendI32U:
		return v.unary(api.ValueTypeI32, api.ValueTypeI64)
	case OpI64TruncF32S, OpI64TruncF32U, OpI64TruncSatF32S, OpI64TruncSatF32U:
		return v.unary(api.ValueTypeF32, api.ValueTypeI64)
	case OpI64TruncF64S, OpI64TruncF64U, OpI64TruncSatF64S, OpI64TruncSatF64U:
		return v.unary(api.ValueTypeF64, api.ValueTypeI64)
	case OpF32ConvertI32S, OpF32ConvertI32U:
		return v.unary(api.ValueTypeI32, api.ValueTypeF32)
	case OpF32ConvertI64S, OpF32ConvertI64U:
		return v.unary(api.ValueTypeI64, api.ValueTypeF32)
	case OpF32DemoteF64:
		return v.unary(api.ValueTypeF64, api.ValueTypeF32)
	case OpF64ConvertI32S, OpF64ConvertI32U:
		return v.unary(api.ValueTypeI32, api.ValueTypeF64)
	case OpF64ConvertI64S, OpF64ConvertI64U:
		return v.unary(api.ValueTypeI64, api.ValueTypeF64)
	case OpF64PromoteF32:
		return v.unary(api.ValueTypeF32, api.ValueTypeF64)
	case OpI32ReinterpretF32:
		return v.unary(api.ValueTypeF32, api.ValueTypeI32)
	case OpI64ReinterpretF64:
		return v.unary(api.ValueTypeF64, api.ValueTypeI64)
	case OpF32ReinterpretI32:
		return v.unary(api.ValueTypeI32, api.ValueTypeF32)
	case OpF64ReinterpretI64:
		return v.unary(api.ValueTypeI64, api.ValueTypeF64)

	// Memory loads: i32 address -> value.
	case OpI32Load, OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U:
		return v.load(api.ValueTypeI32)
	case OpI64Load, OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U:
		return v.load(api.ValueTypeI64)
	case OpF32Load:
		return v.load(api.ValueTypeF32)
	case OpF64Load:
		return v.load(api.ValueTypeF64)

	// Memory stores: i32 address, value -> ().
	case OpI32Store, OpI32Store8, OpI32Store16:
		return v.store(api.ValueTypeI32)
	case OpI64Store, OpI64Store8, OpI64Store16, OpI64Store32:
		return v.store(api.ValueTypeI64)
	case OpF32Store:
		return v.store(api.ValueTypeF32)
	case OpF64Store:
		return v.store(api.ValueTypeF64)

	default:
		if !v.features.SIMD {
			return v.fail("opcode %d requires SIMD to be enabled", ins.Opcode)
		}
		return v.validateSIMD(ins)
	}
}

func (v *funcValidator) unary(in, out api.ValueType) error {
	if err := v.popExpect(in); err != nil {
		return err
	}
	v.push(out)
	return nil
}

func (v *funcValidator) binary(t, out api.ValueType) error {
	if err := v.popExpect(t); err != nil {
		return err
	}
	if err := v.popExpect(t); err != nil {
		return err
	}
	v.push(out)
	return nil
}

func (v *funcValidator) binaryResult(in, out api.ValueType) error { return v.binary(in, out) }

func (v *funcValidator) load(result api.ValueType) error {
	if err := v.popExpect(api.ValueTypeI32); err != nil {
		return err
	}
	v.push(result)
	return nil
}

func (v *funcValidator) store(value api.ValueType) error {
	if err := v.popExpect(value); err != nil {
		return err
	}
	return v.popExpect(api.ValueTypeI32)
}

// validateSIMD type-checks the SIMD opcode subset this module implements.
func (v *funcValidator) validateSIMD(ins *Instruction) error {
	switch ins.Opcode {
	case OpV128Load, OpV128Load8x8S, OpV128Load8x8U, OpV128Load16x4S, OpV128Load16x4U,
		OpV128Load32x2S, OpV128Load32x2U, OpV128Load8Splat, OpV128Load16Splat,
		OpV128Load32Splat, OpV128Load64Splat:
		return v.load(api.ValueTypeV128)
	case OpV128Store:
		return v.store(api.ValueTypeV128)
	case OpV128Const:
		v.push(api.ValueTypeV128)
	case OpI8x16Splat, OpI16x8Splat, OpI32x4Splat:
		return v.unary(api.ValueTypeI32, api.ValueTypeV128)
	case OpI64x2Splat:
		return v.unary(api.ValueTypeI64, api.ValueTypeV128)
	case OpF32x4Splat:
		return v.unary(api.ValueTypeF32, api.ValueTypeV128)
	case OpF64x2Splat:
		return v.unary(api.ValueTypeF64, api.ValueTypeV128)
	case OpI8x16Swizzle:
		return v.binary(api.ValueTypeV128, api.ValueTypeV128)
	case OpI8x16Shuffle:
		return v.binary(api.ValueTypeV128, api.ValueTypeV128)
	case OpI8x16ExtractLaneS, OpI8x16ExtractLaneU, OpI16x8ExtractLaneS, OpI16x8ExtractLaneU, OpI32x4ExtractLane:
		return v.unary(api.ValueTypeV128, api.ValueTypeI32)
	case OpI64x2ExtractLane:
		return v.unary(api.ValueTypeV128, api.ValueTypeI64)
	case OpF32x4ExtractLane:
		return v.unary(api.ValueTypeV128, api.ValueTypeF32)
	case OpF64x2ExtractLane:
		return v.unary(api.ValueTypeV128, api.ValueTypeF64)
	case OpI8x16ReplaceLane, OpI16x8ReplaceLane, OpI32x4ReplaceLane:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpI64x2ReplaceLane:
		if err := v.popExpect(api.ValueTypeI64); err != nil {
			return err
		}
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpF32x4ReplaceLane:
		if err := v.popExpect(api.ValueTypeF32); err != nil {
			return err
		}
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpF64x2ReplaceLane:
		if err := v.popExpect(api.ValueTypeF64); err != nil {
			return err
		}
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpI8x16Eq, OpI8x16Ne, OpI8x16Add, OpI8x16Sub, OpI8x16AddSatS, OpI8x16AddSatU,
		OpI8x16SubSatS, OpI8x16SubSatU, OpI8x16MinS, OpI8x16MinU, OpI8x16MaxS, OpI8x16MaxU,
		OpI16x8Eq, OpI16x8Ne, OpI16x8Add, OpI16x8Sub, OpI16x8Mul, OpI16x8AddSatS, OpI16x8AddSatU,
		OpI16x8SubSatS, OpI16x8SubSatU,
		OpI32x4Eq, OpI32x4Ne, OpI32x4Add, OpI32x4Sub, OpI32x4Mul,
		OpI64x2Add, OpI64x2Sub, OpI64x2Mul,
		OpF32x4Add, OpF32x4Sub, OpF32x4Mul, OpF32x4Div, OpF32x4Min, OpF32x4Max,
		OpF64x2Add, OpF64x2Sub, OpF64x2Mul, OpF64x2Div, OpF64x2Min, OpF64x2Max,
		OpV128And, OpV128Or, OpV128Xor:
		return v.binary(api.ValueTypeV128, api.ValueTypeV128)
	case OpI8x16Shl, OpI8x16ShrS, OpI8x16ShrU, OpI16x8Shl, OpI16x8ShrS, OpI16x8ShrU,
		OpI32x4Shl, OpI32x4ShrS, OpI32x4ShrU, OpI64x2Shl, OpI64x2ShrS, OpI64x2ShrU:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpV128Bitselect:
		if err := v.popExpect(api.ValueTypeV128); err != nil {
			return err
		}
		if err := v.popExpect(api.ValueTypeV128); err != nil {
			return err
		}
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpV128Not, OpI8x16Neg, OpI16x8Neg, OpI32x4Neg, OpI64x2Neg:
		return v.unary(api.ValueTypeV128, api.ValueTypeV128)
	case OpV128AnyTrue, OpI8x16AllTrue, OpI16x8AllTrue, OpI32x4AllTrue, OpI64x2AllTrue:
		return v.unary(api.ValueTypeV128, api.ValueTypeI32)
	default:
		return v.fail("unknown or unsupported opcode %d", ins.Opcode)
	}
	return nil
}

package interpreter

import (
	"math"
	"math/bits"

	"github.com/wazevm/wazevm/internal/wasm"
)

// execNumericOp dispatches every numeric constant, unary/binary/comparison,
// conversion, sign-extension, and saturating-truncation opcode (spec.md
// §4.4 "Numeric semantics"). It is the catch-all reached once table,
// memory, and SIMD ops have been ruled out (control.go).
func execNumericOp(ce *callEngine, ins *wasm.Instruction) {
	switch ins.Opcode {
	case wasm.OpI32Const:
		ce.pushI32(ins.I32)
	case wasm.OpI64Const:
		ce.pushI64(ins.I64)
	case wasm.OpF32Const:
		ce.pushF32(ins.F32)
	case wasm.OpF64Const:
		ce.pushF64(ins.F64)

	// --- i32 comparisons ---
	case wasm.OpI32Eqz:
		ce.pushBool(ce.popU32() == 0)
	case wasm.OpI32Eq:
		b, a := ce.popU32(), ce.popU32()
		ce.pushBool(a == b)
	case wasm.OpI32Ne:
		b, a := ce.popU32(), ce.popU32()
		ce.pushBool(a != b)
	case wasm.OpI32LtS:
		b, a := ce.popI32(), ce.popI32()
		ce.pushBool(a < b)
	case wasm.OpI32LtU:
		b, a := ce.popU32(), ce.popU32()
		ce.pushBool(a < b)
	case wasm.OpI32GtS:
		b, a := ce.popI32(), ce.popI32()
		ce.pushBool(a > b)
	case wasm.OpI32GtU:
		b, a := ce.popU32(), ce.popU32()
		ce.pushBool(a > b)
	case wasm.OpI32LeS:
		b, a := ce.popI32(), ce.popI32()
		ce.pushBool(a <= b)
	case wasm.OpI32LeU:
		b, a := ce.popU32(), ce.popU32()
		ce.pushBool(a <= b)
	case wasm.OpI32GeS:
		b, a := ce.popI32(), ce.popI32()
		ce.pushBool(a >= b)
	case wasm.OpI32GeU:
		b, a := ce.popU32(), ce.popU32()
		ce.pushBool(a >= b)

	// --- i64 comparisons ---
	case wasm.OpI64Eqz:
		ce.pushBool(ce.popU64() == 0)
	case wasm.OpI64Eq:
		b, a := ce.popU64(), ce.popU64()
		ce.pushBool(a == b)
	case wasm.OpI64Ne:
		b, a := ce.popU64(), ce.popU64()
		ce.pushBool(a != b)
	case wasm.OpI64LtS:
		b, a := ce.popI64(), ce.popI64()
		ce.pushBool(a < b)
	case wasm.OpI64LtU:
		b, a := ce.popU64(), ce.popU64()
		ce.pushBool(a < b)
	case wasm.OpI64GtS:
		b, a := ce.popI64(), ce.popI64()
		ce.pushBool(a > b)
	case wasm.OpI64GtU:
		b, a := ce.popU64(), ce.popU64()
		ce.pushBool(a > b)
	case wasm.OpI64LeS:
		b, a := ce.popI64(), ce.popI64()
		ce.pushBool(a <= b)
	case wasm.OpI64LeU:
		b, a := ce.popU64(), ce.popU64()
		ce.pushBool(a <= b)
	case wasm.OpI64GeS:
		b, a := ce.popI64(), ce.popI64()
		ce.pushBool(a >= b)
	case wasm.OpI64GeU:
		b, a := ce.popU64(), ce.popU64()
		ce.pushBool(a >= b)

	// --- f32/f64 comparisons ---
	case wasm.OpF32Eq:
		b, a := ce.popF32(), ce.popF32()
		ce.pushBool(a == b)
	case wasm.OpF32Ne:
		b, a := ce.popF32(), ce.popF32()
		ce.pushBool(a != b)
	case wasm.OpF32Lt:
		b, a := ce.popF32(), ce.popF32()
		ce.pushBool(a < b)
	case wasm.OpF32Gt:
		b, a := ce.popF32(), ce.popF32()
		ce.pushBool(a > b)
	case wasm.OpF32Le:
		b, a := ce.popF32(), ce.popF32()
		ce.pushBool(a <= b)
	case wasm.OpF32Ge:
		b, a := ce.popF32(), ce.popF32()
		ce.pushBool(a >= b)
	case wasm.OpF64Eq:
		b, a := ce.popF64(), ce.popF64()
		ce.pushBool(a == b)
	case wasm.OpF64Ne:
		b, a := ce.popF64(), ce.popF64()
		ce.pushBool(a != b)
	case wasm.OpF64Lt:
		b, a := ce.popF64(), ce.popF64()
		ce.pushBool(a < b)
	case wasm.OpF64Gt:
		b, a := ce.popF64(), ce.popF64()
		ce.pushBool(a > b)
	case wasm.OpF64Le:
		b, a := ce.popF64(), ce.popF64()
		ce.pushBool(a <= b)
	case wasm.OpF64Ge:
		b, a := ce.popF64(), ce.popF64()
		ce.pushBool(a >= b)

	// --- i32 arithmetic ---
	case wasm.OpI32Clz:
		ce.pushI32(int32(bits.LeadingZeros32(ce.popU32())))
	case wasm.OpI32Ctz:
		ce.pushI32(int32(bits.TrailingZeros32(ce.popU32())))
	case wasm.OpI32Popcnt:
		ce.pushI32(int32(bits.OnesCount32(ce.popU32())))
	case wasm.OpI32Add:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a + b)
	case wasm.OpI32Sub:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a - b)
	case wasm.OpI32Mul:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a * b)
	case wasm.OpI32DivS:
		b, a := ce.popI32(), ce.popI32()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i32.div_s by zero")
		}
		if a == math.MinInt32 && b == -1 {
			trap(wasm.TrapIntegerOverflow, "i32.div_s overflow")
		}
		ce.pushI32(a / b)
	case wasm.OpI32DivU:
		b, a := ce.popU32(), ce.popU32()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i32.div_u by zero")
		}
		ce.pushU32(a / b)
	case wasm.OpI32RemS:
		b, a := ce.popI32(), ce.popI32()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i32.rem_s by zero")
		}
		if a == math.MinInt32 && b == -1 {
			ce.pushI32(0)
		} else {
			ce.pushI32(a % b)
		}
	case wasm.OpI32RemU:
		b, a := ce.popU32(), ce.popU32()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i32.rem_u by zero")
		}
		ce.pushU32(a % b)
	case wasm.OpI32And:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a & b)
	case wasm.OpI32Or:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a | b)
	case wasm.OpI32Xor:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a ^ b)
	case wasm.OpI32Shl:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a << (b & 31))
	case wasm.OpI32ShrS:
		b, a := ce.popU32(), ce.popI32()
		ce.pushI32(a >> (b & 31))
	case wasm.OpI32ShrU:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(a >> (b & 31))
	case wasm.OpI32Rotl:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(bits.RotateLeft32(a, int(b&31)))
	case wasm.OpI32Rotr:
		b, a := ce.popU32(), ce.popU32()
		ce.pushU32(bits.RotateLeft32(a, -int(b&31)))

	// --- i64 arithmetic ---
	case wasm.OpI64Clz:
		ce.pushI64(int64(bits.LeadingZeros64(ce.popU64())))
	case wasm.OpI64Ctz:
		ce.pushI64(int64(bits.TrailingZeros64(ce.popU64())))
	case wasm.OpI64Popcnt:
		ce.pushI64(int64(bits.OnesCount64(ce.popU64())))
	case wasm.OpI64Add:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a + b)
	case wasm.OpI64Sub:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a - b)
	case wasm.OpI64Mul:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a * b)
	case wasm.OpI64DivS:
		b, a := ce.popI64(), ce.popI64()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i64.div_s by zero")
		}
		if a == math.MinInt64 && b == -1 {
			trap(wasm.TrapIntegerOverflow, "i64.div_s overflow")
		}
		ce.pushI64(a / b)
	case wasm.OpI64DivU:
		b, a := ce.popU64(), ce.popU64()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i64.div_u by zero")
		}
		ce.pushU64(a / b)
	case wasm.OpI64RemS:
		b, a := ce.popI64(), ce.popI64()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i64.rem_s by zero")
		}
		if a == math.MinInt64 && b == -1 {
			ce.pushI64(0)
		} else {
			ce.pushI64(a % b)
		}
	case wasm.OpI64RemU:
		b, a := ce.popU64(), ce.popU64()
		if b == 0 {
			trap(wasm.TrapIntegerDivideByZero, "i64.rem_u by zero")
		}
		ce.pushU64(a % b)
	case wasm.OpI64And:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a & b)
	case wasm.OpI64Or:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a | b)
	case wasm.OpI64Xor:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a ^ b)
	case wasm.OpI64Shl:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a << (b & 63))
	case wasm.OpI64ShrS:
		b, a := ce.popU64(), ce.popI64()
		ce.pushI64(a >> (b & 63))
	case wasm.OpI64ShrU:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(a >> (b & 63))
	case wasm.OpI64Rotl:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(bits.RotateLeft64(a, int(b&63)))
	case wasm.OpI64Rotr:
		b, a := ce.popU64(), ce.popU64()
		ce.pushU64(bits.RotateLeft64(a, -int(b&63)))

	// --- f32 arithmetic ---
	case wasm.OpF32Abs:
		ce.pushF32(float32(math.Abs(float64(ce.popF32()))))
	case wasm.OpF32Neg:
		ce.pushF32(-ce.popF32())
	case wasm.OpF32Ceil:
		ce.pushF32(float32(math.Ceil(float64(ce.popF32()))))
	case wasm.OpF32Floor:
		ce.pushF32(float32(math.Floor(float64(ce.popF32()))))
	case wasm.OpF32Trunc:
		ce.pushF32(float32(math.Trunc(float64(ce.popF32()))))
	case wasm.OpF32Nearest:
		ce.pushF32(float32(math.RoundToEven(float64(ce.popF32()))))
	case wasm.OpF32Sqrt:
		ce.pushF32(float32(math.Sqrt(float64(ce.popF32()))))
	case wasm.OpF32Add:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(a + b)
	case wasm.OpF32Sub:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(a - b)
	case wasm.OpF32Mul:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(a * b)
	case wasm.OpF32Div:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(a / b)
	case wasm.OpF32Min:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(f32Min(a, b))
	case wasm.OpF32Max:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(f32Max(a, b))
	case wasm.OpF32Copysign:
		b, a := ce.popF32(), ce.popF32()
		ce.pushF32(float32(math.Copysign(float64(a), float64(b))))

	// --- f64 arithmetic ---
	case wasm.OpF64Abs:
		ce.pushF64(math.Abs(ce.popF64()))
	case wasm.OpF64Neg:
		ce.pushF64(-ce.popF64())
	case wasm.OpF64Ceil:
		ce.pushF64(math.Ceil(ce.popF64()))
	case wasm.OpF64Floor:
		ce.pushF64(math.Floor(ce.popF64()))
	case wasm.OpF64Trunc:
		ce.pushF64(math.Trunc(ce.popF64()))
	case wasm.OpF64Nearest:
		ce.pushF64(math.RoundToEven(ce.popF64()))
	case wasm.OpF64Sqrt:
		ce.pushF64(math.Sqrt(ce.popF64()))
	case wasm.OpF64Add:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(a + b)
	case wasm.OpF64Sub:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(a - b)
	case wasm.OpF64Mul:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(a * b)
	case wasm.OpF64Div:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(a / b)
	case wasm.OpF64Min:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(f64Min(a, b))
	case wasm.OpF64Max:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(f64Max(a, b))
	case wasm.OpF64Copysign:
		b, a := ce.popF64(), ce.popF64()
		ce.pushF64(math.Copysign(a, b))

	// --- conversions ---
	case wasm.OpI32WrapI64:
		ce.pushI32(int32(ce.popI64()))
	case wasm.OpI32TruncF32S:
		ce.pushI32(int32(truncToInt(float64(ce.popF32()), -2147483648, 2147483648)))
	case wasm.OpI32TruncF32U:
		ce.pushU32(uint32(truncToUint(float64(ce.popF32()), 4294967296)))
	case wasm.OpI32TruncF64S:
		ce.pushI32(int32(truncToInt(ce.popF64(), -2147483648, 2147483648)))
	case wasm.OpI32TruncF64U:
		ce.pushU32(uint32(truncToUint(ce.popF64(), 4294967296)))
	case wasm.OpI64ExtendI32S:
		ce.pushI64(int64(ce.popI32()))
	case wasm.OpI64ExtendI32U:
		ce.pushI64(int64(ce.popU32()))
	case wasm.OpI64TruncF32S:
		ce.pushI64(truncToInt(float64(ce.popF32()), -9223372036854775808, 9223372036854775808))
	case wasm.OpI64TruncF32U:
		ce.pushU64(truncToUint(float64(ce.popF32()), 18446744073709551616))
	case wasm.OpI64TruncF64S:
		ce.pushI64(truncToInt(ce.popF64(), -9223372036854775808, 9223372036854775808))
	case wasm.OpI64TruncF64U:
		ce.pushU64(truncToUint(ce.popF64(), 18446744073709551616))
	case wasm.OpF32ConvertI32S:
		ce.pushF32(float32(ce.popI32()))
	case wasm.OpF32ConvertI32U:
		ce.pushF32(float32(ce.popU32()))
	case wasm.OpF32ConvertI64S:
		ce.pushF32(float32(ce.popI64()))
	case wasm.OpF32ConvertI64U:
		ce.pushF32(float32(ce.popU64()))
	case wasm.OpF32DemoteF64:
		ce.pushF32(float32(ce.popF64()))
	case wasm.OpF64ConvertI32S:
		ce.pushF64(float64(ce.popI32()))
	case wasm.OpF64ConvertI32U:
		ce.pushF64(float64(ce.popU32()))
	case wasm.OpF64ConvertI64S:
		ce.pushF64(float64(ce.popI64()))
	case wasm.OpF64ConvertI64U:
		ce.pushF64(float64(ce.popU64()))
	case wasm.OpF64PromoteF32:
		ce.pushF64(float64(ce.popF32()))
	case wasm.OpI32ReinterpretF32, wasm.OpI64ReinterpretF64, wasm.OpF32ReinterpretI32, wasm.OpF64ReinterpretI64:
		// The value stack already holds every type's raw bit pattern
		// (values.go), so a reinterpret is simply a no-op relabeling.

	// --- sign extension ---
	case wasm.OpI32Extend8S:
		ce.pushI32(int32(int8(ce.popU32())))
	case wasm.OpI32Extend16S:
		ce.pushI32(int32(int16(ce.popU32())))
	case wasm.OpI64Extend8S:
		ce.pushI64(int64(int8(ce.popU64())))
	case wasm.OpI64Extend16S:
		ce.pushI64(int64(int16(ce.popU64())))
	case wasm.OpI64Extend32S:
		ce.pushI64(int64(int32(ce.popU64())))

	// --- saturating truncation ---
	case wasm.OpI32TruncSatF32S:
		ce.pushI32(int32(truncSatToInt(float64(ce.popF32()), -2147483648, 2147483647)))
	case wasm.OpI32TruncSatF32U:
		ce.pushU32(uint32(truncSatToUint(float64(ce.popF32()), 4294967295)))
	case wasm.OpI32TruncSatF64S:
		ce.pushI32(int32(truncSatToInt(ce.popF64(), -2147483648, 2147483647)))
	case wasm.OpI32TruncSatF64U:
		ce.pushU32(uint32(truncSatToUint(ce.popF64(), 4294967295)))
	case wasm.OpI64TruncSatF32S:
		ce.pushI64(truncSatToInt(float64(ce.popF32()), -9223372036854775808, 9223372036854775807))
	case wasm.OpI64TruncSatF32U:
		ce.pushU64(truncSatToUint(float64(ce.popF32()), 18446744073709551615))
	case wasm.OpI64TruncSatF64S:
		ce.pushI64(truncSatToInt(ce.popF64(), -9223372036854775808, 9223372036854775807))
	case wasm.OpI64TruncSatF64U:
		ce.pushU64(truncSatToUint(ce.popF64(), 18446744073709551615))

	default:
		panic(unknownOpcodeMsg(ins.Opcode))
	}
}

func f32Min(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) || math.Signbit(float64(b)) {
			return float32(math.Copysign(0, -1))
		}
		return 0
	}
	if a < b {
		return a
	}
	return b
}

func f32Max(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if !math.Signbit(float64(a)) || !math.Signbit(float64(b)) {
			return 0
		}
		return float32(math.Copysign(0, -1))
	}
	if a > b {
		return a
	}
	return b
}

func f64Min(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) || math.Signbit(b) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	if a < b {
		return a
	}
	return b
}

func f64Max(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if !math.Signbit(a) || !math.Signbit(b) {
			return 0
		}
		return math.Copysign(0, -1)
	}
	if a > b {
		return a
	}
	return b
}

// truncToInt implements the non-saturating trunc_f*_s*/i conversions: NaN
// and any value outside [lo, hiExclusive) traps (spec.md §4.4 "trunc_f*_*
// (non-saturating) traps on NaN or out-of-range"). hiExclusive is an exact
// power of two (2^31 or 2^63, one past the representable range) rather
// than the inclusive max (2^31-1 or 2^63-1): the inclusive max isn't
// exactly representable as a float64 at the i64/u64 width and rounds up to
// the same power of two, which would let an out-of-range input of exactly
// that value through; lo and hiExclusive are both exact, so the compare
// never has that problem.
func truncToInt(v float64, lo, hiExclusive float64) int64 {
	if math.IsNaN(v) {
		trap(wasm.TrapInvalidConversionToInteger, "truncation of NaN")
	}
	t := math.Trunc(v)
	if t < lo || t >= hiExclusive {
		trap(wasm.TrapIntegerOverflow, "truncation %v out of integer range", v)
	}
	return int64(t)
}

func truncToUint(v float64, hiExclusive float64) uint64 {
	if math.IsNaN(v) {
		trap(wasm.TrapInvalidConversionToInteger, "truncation of NaN")
	}
	t := math.Trunc(v)
	if t < 0 || t >= hiExclusive {
		trap(wasm.TrapIntegerOverflow, "truncation %v out of integer range", v)
	}
	return uint64(t)
}

// truncSatToInt/truncSatToUint implement the saturating family: NaN
// becomes 0, and out-of-range values clamp to the nearest representable
// bound rather than trapping (spec.md §4.4 "trunc_sat_* clamps").
func truncSatToInt(v float64, lo, hi float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	t := math.Trunc(v)
	if t < lo {
		return int64(lo)
	}
	if t >= hi {
		// At the i64 width hi rounds up to 2^63, which int64 cannot hold.
		if hi >= 1<<63 {
			return math.MaxInt64
		}
		return int64(hi)
	}
	return int64(t)
}

func truncSatToUint(v float64, hi float64) uint64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	t := math.Trunc(v)
	if t >= hi {
		// At the u64 width hi rounds up to 2^64, which uint64 cannot hold.
		if hi >= 1<<64 {
			return math.MaxUint64
		}
		return uint64(hi)
	}
	return uint64(t)
}

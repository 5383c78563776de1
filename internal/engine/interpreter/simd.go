package interpreter

import (
	"encoding/binary"
	"math"

	"github.com/wazevm/wazevm/internal/wasm"
)

// execSIMDOp dispatches the 128-bit SIMD opcode set (spec.md §4.4 "SIMD
// instructions"), operating on values popped/pushed via ce.popV128/
// pushV128 (values.go), which keep a v128 as the low/high uint64 halves of
// two adjacent value-stack slots.
func execSIMDOp(ce *callEngine, ins *wasm.Instruction) {
	switch ins.Opcode {
	case wasm.OpV128Const:
		ce.pushV128(ins.V128)
	case wasm.OpV128Load:
		ce.pushV128(simdLoad(ce, ins, 16))
	case wasm.OpV128Store:
		v := ce.popV128()
		simdStore(ce, ins, v[:])
	case wasm.OpV128Load8x8S:
		ce.pushV128(simdLoadExtend(ce, ins, 1, true))
	case wasm.OpV128Load8x8U:
		ce.pushV128(simdLoadExtend(ce, ins, 1, false))
	case wasm.OpV128Load16x4S:
		ce.pushV128(simdLoadExtend(ce, ins, 2, true))
	case wasm.OpV128Load16x4U:
		ce.pushV128(simdLoadExtend(ce, ins, 2, false))
	case wasm.OpV128Load32x2S:
		ce.pushV128(simdLoadExtend(ce, ins, 4, true))
	case wasm.OpV128Load32x2U:
		ce.pushV128(simdLoadExtend(ce, ins, 4, false))
	case wasm.OpV128Load8Splat:
		b := simdLoad(ce, ins, 1)
		var out [16]byte
		for i := range out {
			out[i] = b[0]
		}
		ce.pushV128(out)
	case wasm.OpV128Load16Splat:
		b := simdLoad(ce, ins, 2)
		v := binary.LittleEndian.Uint16(b[:])
		var out [16]byte
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
		ce.pushV128(out)
	case wasm.OpV128Load32Splat:
		b := simdLoad(ce, ins, 4)
		v := binary.LittleEndian.Uint32(b[:])
		var out [16]byte
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		ce.pushV128(out)
	case wasm.OpV128Load64Splat:
		b := simdLoad(ce, ins, 8)
		v := binary.LittleEndian.Uint64(b[:])
		var out [16]byte
		binary.LittleEndian.PutUint64(out[0:], v)
		binary.LittleEndian.PutUint64(out[8:], v)
		ce.pushV128(out)

	case wasm.OpI8x16Shuffle:
		b, a := ce.popV128(), ce.popV128()
		var out [16]byte
		combined := append(append([]byte{}, a[:]...), b[:]...)
		for i, lane := range ins.Lanes {
			out[i] = combined[lane]
		}
		ce.pushV128(out)
	case wasm.OpI8x16Swizzle:
		idx, a := ce.popV128(), ce.popV128()
		var out [16]byte
		for i := 0; i < 16; i++ {
			j := idx[i]
			if int(j) < 16 {
				out[i] = a[j]
			}
		}
		ce.pushV128(out)
	case wasm.OpI8x16Splat:
		v := byte(ce.popU32())
		var out [16]byte
		for i := range out {
			out[i] = v
		}
		ce.pushV128(out)
	case wasm.OpI16x8Splat:
		v := uint16(ce.popU32())
		var out [16]byte
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
		ce.pushV128(out)
	case wasm.OpI32x4Splat:
		v := ce.popU32()
		var out [16]byte
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		ce.pushV128(out)
	case wasm.OpI64x2Splat:
		v := ce.popU64()
		var out [16]byte
		binary.LittleEndian.PutUint64(out[0:], v)
		binary.LittleEndian.PutUint64(out[8:], v)
		ce.pushV128(out)
	case wasm.OpF32x4Splat:
		v := math.Float32bits(ce.popF32())
		var out [16]byte
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		ce.pushV128(out)
	case wasm.OpF64x2Splat:
		v := math.Float64bits(ce.popF64())
		var out [16]byte
		binary.LittleEndian.PutUint64(out[0:], v)
		binary.LittleEndian.PutUint64(out[8:], v)
		ce.pushV128(out)

	case wasm.OpI8x16ExtractLaneS:
		v := ce.popV128()
		ce.pushI32(int32(int8(v[ins.Lane])))
	case wasm.OpI8x16ExtractLaneU:
		v := ce.popV128()
		ce.pushU32(uint32(v[ins.Lane]))
	case wasm.OpI8x16ReplaceLane:
		x := byte(ce.popU32())
		v := ce.popV128()
		v[ins.Lane] = x
		ce.pushV128(v)
	case wasm.OpI16x8ExtractLaneS:
		v := ce.popV128()
		ce.pushI32(int32(int16(binary.LittleEndian.Uint16(v[ins.Lane*2:]))))
	case wasm.OpI16x8ExtractLaneU:
		v := ce.popV128()
		ce.pushU32(uint32(binary.LittleEndian.Uint16(v[ins.Lane*2:])))
	case wasm.OpI16x8ReplaceLane:
		x := uint16(ce.popU32())
		v := ce.popV128()
		binary.LittleEndian.PutUint16(v[ins.Lane*2:], x)
		ce.pushV128(v)
	case wasm.OpI32x4ExtractLane:
		v := ce.popV128()
		ce.pushU32(binary.LittleEndian.Uint32(v[ins.Lane*4:]))
	case wasm.OpI32x4ReplaceLane:
		x := ce.popU32()
		v := ce.popV128()
		binary.LittleEndian.PutUint32(v[ins.Lane*4:], x)
		ce.pushV128(v)
	case wasm.OpI64x2ExtractLane:
		v := ce.popV128()
		ce.pushU64(binary.LittleEndian.Uint64(v[ins.Lane*8:]))
	case wasm.OpI64x2ReplaceLane:
		x := ce.popU64()
		v := ce.popV128()
		binary.LittleEndian.PutUint64(v[ins.Lane*8:], x)
		ce.pushV128(v)
	case wasm.OpF32x4ExtractLane:
		v := ce.popV128()
		ce.pushValue(uint64(binary.LittleEndian.Uint32(v[ins.Lane*4:])))
	case wasm.OpF32x4ReplaceLane:
		x := ce.popValue()
		v := ce.popV128()
		binary.LittleEndian.PutUint32(v[ins.Lane*4:], uint32(x))
		ce.pushV128(v)
	case wasm.OpF64x2ExtractLane:
		v := ce.popV128()
		ce.pushValue(binary.LittleEndian.Uint64(v[ins.Lane*8:]))
	case wasm.OpF64x2ReplaceLane:
		x := ce.popValue()
		v := ce.popV128()
		binary.LittleEndian.PutUint64(v[ins.Lane*8:], x)
		ce.pushV128(v)

	case wasm.OpI8x16Eq:
		simdBinI8(ce, func(a, b int8) int8 { return boolI8(a == b) })
	case wasm.OpI8x16Ne:
		simdBinI8(ce, func(a, b int8) int8 { return boolI8(a != b) })
	case wasm.OpI8x16Add:
		simdBinI8(ce, func(a, b int8) int8 { return a + b })
	case wasm.OpI8x16Sub:
		simdBinI8(ce, func(a, b int8) int8 { return a - b })
	case wasm.OpI8x16AddSatS:
		simdBinI8(ce, satAddI8)
	case wasm.OpI8x16AddSatU:
		simdBinU8(ce, satAddU8)
	case wasm.OpI8x16SubSatS:
		simdBinI8(ce, satSubI8)
	case wasm.OpI8x16SubSatU:
		simdBinU8(ce, satSubU8)
	case wasm.OpI8x16MinS:
		simdBinI8(ce, func(a, b int8) int8 {
			if a < b {
				return a
			}
			return b
		})
	case wasm.OpI8x16MinU:
		simdBinU8(ce, func(a, b uint8) uint8 {
			if a < b {
				return a
			}
			return b
		})
	case wasm.OpI8x16MaxS:
		simdBinI8(ce, func(a, b int8) int8 {
			if a > b {
				return a
			}
			return b
		})
	case wasm.OpI8x16MaxU:
		simdBinU8(ce, func(a, b uint8) uint8 {
			if a > b {
				return a
			}
			return b
		})
	case wasm.OpI8x16Neg:
		simdUnI8(ce, func(a int8) int8 { return -a })

	case wasm.OpI16x8Eq:
		simdBinI16(ce, func(a, b int16) int16 { return boolI16(a == b) })
	case wasm.OpI16x8Ne:
		simdBinI16(ce, func(a, b int16) int16 { return boolI16(a != b) })
	case wasm.OpI16x8Add:
		simdBinI16(ce, func(a, b int16) int16 { return a + b })
	case wasm.OpI16x8Sub:
		simdBinI16(ce, func(a, b int16) int16 { return a - b })
	case wasm.OpI16x8Mul:
		simdBinI16(ce, func(a, b int16) int16 { return a * b })
	case wasm.OpI16x8AddSatS:
		simdBinI16(ce, satAddI16)
	case wasm.OpI16x8AddSatU:
		simdBinU16(ce, satAddU16)
	case wasm.OpI16x8SubSatS:
		simdBinI16(ce, satSubI16)
	case wasm.OpI16x8SubSatU:
		simdBinU16(ce, satSubU16)
	case wasm.OpI16x8Neg:
		simdUnI16(ce, func(a int16) int16 { return -a })

	case wasm.OpI32x4Eq:
		simdBinI32(ce, func(a, b int32) int32 { return boolI32(a == b) })
	case wasm.OpI32x4Ne:
		simdBinI32(ce, func(a, b int32) int32 { return boolI32(a != b) })
	case wasm.OpI32x4Add:
		simdBinI32(ce, func(a, b int32) int32 { return a + b })
	case wasm.OpI32x4Sub:
		simdBinI32(ce, func(a, b int32) int32 { return a - b })
	case wasm.OpI32x4Mul:
		simdBinI32(ce, func(a, b int32) int32 { return a * b })
	case wasm.OpI32x4Neg:
		simdUnI32(ce, func(a int32) int32 { return -a })

	case wasm.OpI64x2Add:
		simdBinI64(ce, func(a, b int64) int64 { return a + b })
	case wasm.OpI64x2Sub:
		simdBinI64(ce, func(a, b int64) int64 { return a - b })
	case wasm.OpI64x2Mul:
		simdBinI64(ce, func(a, b int64) int64 { return a * b })
	case wasm.OpI64x2Neg:
		simdUnI64(ce, func(a int64) int64 { return -a })

	case wasm.OpF32x4Add:
		simdBinF32(ce, func(a, b float32) float32 { return a + b })
	case wasm.OpF32x4Sub:
		simdBinF32(ce, func(a, b float32) float32 { return a - b })
	case wasm.OpF32x4Mul:
		simdBinF32(ce, func(a, b float32) float32 { return a * b })
	case wasm.OpF32x4Div:
		simdBinF32(ce, func(a, b float32) float32 { return a / b })
	case wasm.OpF32x4Min:
		simdBinF32(ce, f32Min)
	case wasm.OpF32x4Max:
		simdBinF32(ce, f32Max)

	case wasm.OpF64x2Add:
		simdBinF64(ce, func(a, b float64) float64 { return a + b })
	case wasm.OpF64x2Sub:
		simdBinF64(ce, func(a, b float64) float64 { return a - b })
	case wasm.OpF64x2Mul:
		simdBinF64(ce, func(a, b float64) float64 { return a * b })
	case wasm.OpF64x2Div:
		simdBinF64(ce, func(a, b float64) float64 { return a / b })
	case wasm.OpF64x2Min:
		simdBinF64(ce, f64Min)
	case wasm.OpF64x2Max:
		simdBinF64(ce, f64Max)

	case wasm.OpV128Not:
		v := ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = ^v[i]
		}
		ce.pushV128(out)
	case wasm.OpV128And:
		b, a := ce.popV128(), ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = a[i] & b[i]
		}
		ce.pushV128(out)
	case wasm.OpV128Or:
		b, a := ce.popV128(), ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = a[i] | b[i]
		}
		ce.pushV128(out)
	case wasm.OpV128Xor:
		b, a := ce.popV128(), ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = a[i] ^ b[i]
		}
		ce.pushV128(out)
	case wasm.OpV128Bitselect:
		c, b, a := ce.popV128(), ce.popV128(), ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = (a[i] & c[i]) | (b[i] & ^c[i])
		}
		ce.pushV128(out)
	case wasm.OpV128AnyTrue:
		v := ce.popV128()
		any := false
		for _, b := range v {
			if b != 0 {
				any = true
				break
			}
		}
		ce.pushBool(any)
	case wasm.OpI8x16AllTrue:
		v := ce.popV128()
		all := true
		for _, b := range v {
			if b == 0 {
				all = false
				break
			}
		}
		ce.pushBool(all)
	case wasm.OpI16x8AllTrue:
		v := unpackI16x8(ce.popV128())
		all := true
		for _, x := range v {
			if x == 0 {
				all = false
				break
			}
		}
		ce.pushBool(all)
	case wasm.OpI32x4AllTrue:
		v := unpackI32x4(ce.popV128())
		all := true
		for _, x := range v {
			if x == 0 {
				all = false
				break
			}
		}
		ce.pushBool(all)
	case wasm.OpI64x2AllTrue:
		v := unpackI64x2(ce.popV128())
		all := true
		for _, x := range v {
			if x == 0 {
				all = false
				break
			}
		}
		ce.pushBool(all)

	case wasm.OpI8x16Shl:
		n := byte(ce.popU32() & 7)
		v := ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = v[i] << n
		}
		ce.pushV128(out)
	case wasm.OpI8x16ShrS:
		n := uint32(ce.popU32() & 7)
		v := ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = byte(int8(v[i]) >> n)
		}
		ce.pushV128(out)
	case wasm.OpI8x16ShrU:
		n := ce.popU32() & 7
		v := ce.popV128()
		var out [16]byte
		for i := range out {
			out[i] = v[i] >> n
		}
		ce.pushV128(out)
	case wasm.OpI16x8Shl:
		n := ce.popU32() & 15
		v := unpackI16x8(ce.popV128())
		var out [8]int16
		for i, x := range v {
			out[i] = int16(uint16(x) << n)
		}
		ce.pushV128(packI16x8(out))
	case wasm.OpI16x8ShrS:
		n := ce.popU32() & 15
		v := unpackI16x8(ce.popV128())
		var out [8]int16
		for i, x := range v {
			out[i] = x >> n
		}
		ce.pushV128(packI16x8(out))
	case wasm.OpI16x8ShrU:
		n := ce.popU32() & 15
		v := unpackI16x8(ce.popV128())
		var out [8]int16
		for i, x := range v {
			out[i] = int16(uint16(x) >> n)
		}
		ce.pushV128(packI16x8(out))
	case wasm.OpI32x4Shl:
		n := ce.popU32() & 31
		v := unpackI32x4(ce.popV128())
		var out [4]int32
		for i, x := range v {
			out[i] = int32(uint32(x) << n)
		}
		ce.pushV128(packI32x4(out))
	case wasm.OpI32x4ShrS:
		n := ce.popU32() & 31
		v := unpackI32x4(ce.popV128())
		var out [4]int32
		for i, x := range v {
			out[i] = x >> n
		}
		ce.pushV128(packI32x4(out))
	case wasm.OpI32x4ShrU:
		n := ce.popU32() & 31
		v := unpackI32x4(ce.popV128())
		var out [4]int32
		for i, x := range v {
			out[i] = int32(uint32(x) >> n)
		}
		ce.pushV128(packI32x4(out))
	case wasm.OpI64x2Shl:
		n := ce.popU32() & 63
		v := unpackI64x2(ce.popV128())
		var out [2]int64
		for i, x := range v {
			out[i] = int64(uint64(x) << n)
		}
		ce.pushV128(packI64x2(out))
	case wasm.OpI64x2ShrS:
		n := ce.popU32() & 63
		v := unpackI64x2(ce.popV128())
		var out [2]int64
		for i, x := range v {
			out[i] = x >> n
		}
		ce.pushV128(packI64x2(out))
	case wasm.OpI64x2ShrU:
		n := ce.popU32() & 63
		v := unpackI64x2(ce.popV128())
		var out [2]int64
		for i, x := range v {
			out[i] = int64(uint64(x) >> n)
		}
		ce.pushV128(packI64x2(out))

	default:
		panic(unknownOpcodeMsg(ins.Opcode))
	}
}

func simdLoad(ce *callEngine, ins *wasm.Instruction, n uint32) [16]byte {
	frame := ce.topFrame()
	mem := frame.fn.Module.Memory(0)
	off := checkedAddr(mem, effectiveAddr(ce, ins), n)
	b, _ := mem.Read(off, n)
	var out [16]byte
	copy(out[:], b)
	return out
}

func simdStore(ce *callEngine, ins *wasm.Instruction, v []byte) {
	frame := ce.topFrame()
	mem := frame.fn.Module.Memory(0)
	off := checkedAddr(mem, effectiveAddr(ce, ins), uint32(len(v)))
	mem.Write(off, v)
}

// simdLoadExtend implements the *x*_s/_u widening loads: n narrow lanes of
// byte width laneBytes widen to the next integer width up (spec.md §4.4's
// v128.loadNxM_s/u family).
func simdLoadExtend(ce *callEngine, ins *wasm.Instruction, laneBytes int, signed bool) [16]byte {
	raw := simdLoad(ce, ins, 8)
	var out [16]byte
	for i := 0; i < 8/laneBytes; i++ {
		switch laneBytes {
		case 1:
			b := raw[i]
			if signed {
				binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(int8(b))))
			} else {
				binary.LittleEndian.PutUint16(out[i*2:], uint16(b))
			}
		case 2:
			v := binary.LittleEndian.Uint16(raw[i*2:])
			if signed {
				binary.LittleEndian.PutUint32(out[i*4:], uint32(int32(int16(v))))
			} else {
				binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
			}
		case 4:
			v := binary.LittleEndian.Uint32(raw[i*4:])
			if signed {
				binary.LittleEndian.PutUint64(out[i*8:], uint64(int64(int32(v))))
			} else {
				binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
			}
		}
	}
	return out
}

func unpackI16x8(v [16]byte) (out [8]int16) {
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(v[i*2:]))
	}
	return
}

func packI16x8(v [8]int16) (out [16]byte) {
	for i, x := range v {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(x))
	}
	return
}

func unpackI32x4(v [16]byte) (out [4]int32) {
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(v[i*4:]))
	}
	return
}

func packI32x4(v [4]int32) (out [16]byte) {
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(x))
	}
	return
}

func unpackI64x2(v [16]byte) (out [2]int64) {
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(v[i*8:]))
	}
	return
}

func packI64x2(v [2]int64) (out [16]byte) {
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(x))
	}
	return
}

func unpackF32x4(v [16]byte) (out [4]float32) {
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(v[i*4:]))
	}
	return
}

func packF32x4(v [4]float32) (out [16]byte) {
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(x))
	}
	return
}

func unpackF64x2(v [16]byte) (out [2]float64) {
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(v[i*8:]))
	}
	return
}

func packF64x2(v [2]float64) (out [16]byte) {
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(x))
	}
	return
}

func simdUnI8(ce *callEngine, f func(int8) int8) {
	v := ce.popV128()
	var out [16]byte
	for i := range out {
		out[i] = byte(f(int8(v[i])))
	}
	ce.pushV128(out)
}

func simdBinI8(ce *callEngine, f func(a, b int8) int8) {
	b, a := ce.popV128(), ce.popV128()
	var out [16]byte
	for i := range out {
		out[i] = byte(f(int8(a[i]), int8(b[i])))
	}
	ce.pushV128(out)
}

func simdBinU8(ce *callEngine, f func(a, b uint8) uint8) {
	b, a := ce.popV128(), ce.popV128()
	var out [16]byte
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	ce.pushV128(out)
}

func simdUnI16(ce *callEngine, f func(int16) int16) {
	v := unpackI16x8(ce.popV128())
	var out [8]int16
	for i, x := range v {
		out[i] = f(x)
	}
	ce.pushV128(packI16x8(out))
}

func simdBinI16(ce *callEngine, f func(a, b int16) int16) {
	b, a := unpackI16x8(ce.popV128()), unpackI16x8(ce.popV128())
	var out [8]int16
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	ce.pushV128(packI16x8(out))
}

func simdBinU16(ce *callEngine, f func(a, b uint16) uint16) {
	b, a := unpackI16x8(ce.popV128()), unpackI16x8(ce.popV128())
	var out [8]int16
	for i := range out {
		out[i] = int16(f(uint16(a[i]), uint16(b[i])))
	}
	ce.pushV128(packI16x8(out))
}

func simdUnI32(ce *callEngine, f func(int32) int32) {
	v := unpackI32x4(ce.popV128())
	var out [4]int32
	for i, x := range v {
		out[i] = f(x)
	}
	ce.pushV128(packI32x4(out))
}

func simdBinI32(ce *callEngine, f func(a, b int32) int32) {
	b, a := unpackI32x4(ce.popV128()), unpackI32x4(ce.popV128())
	var out [4]int32
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	ce.pushV128(packI32x4(out))
}

func simdUnI64(ce *callEngine, f func(int64) int64) {
	v := unpackI64x2(ce.popV128())
	var out [2]int64
	for i, x := range v {
		out[i] = f(x)
	}
	ce.pushV128(packI64x2(out))
}

func simdBinI64(ce *callEngine, f func(a, b int64) int64) {
	b, a := unpackI64x2(ce.popV128()), unpackI64x2(ce.popV128())
	var out [2]int64
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	ce.pushV128(packI64x2(out))
}

func simdBinF32(ce *callEngine, f func(a, b float32) float32) {
	b, a := unpackF32x4(ce.popV128()), unpackF32x4(ce.popV128())
	var out [4]float32
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	ce.pushV128(packF32x4(out))
}

func simdBinF64(ce *callEngine, f func(a, b float64) float64) {
	b, a := unpackF64x2(ce.popV128()), unpackF64x2(ce.popV128())
	var out [2]float64
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	ce.pushV128(packF64x2(out))
}

func boolI8(b bool) int8 {
	if b {
		return -1
	}
	return 0
}

func boolI16(b bool) int16 {
	if b {
		return -1
	}
	return 0
}

func boolI32(b bool) int32 {
	if b {
		return -1
	}
	return 0
}

func satAddI8(a, b int8) int8 {
	s := int32(a) + int32(b)
	return int8(clamp32(s, math.MinInt8, math.MaxInt8))
}

func satSubI8(a, b int8) int8 {
	s := int32(a) - int32(b)
	return int8(clamp32(s, math.MinInt8, math.MaxInt8))
}

func satAddU8(a, b uint8) uint8 {
	s := int32(a) + int32(b)
	return uint8(clamp32(s, 0, math.MaxUint8))
}

func satSubU8(a, b uint8) uint8 {
	s := int32(a) - int32(b)
	return uint8(clamp32(s, 0, math.MaxUint8))
}

func satAddI16(a, b int16) int16 {
	s := int32(a) + int32(b)
	return int16(clamp32(s, math.MinInt16, math.MaxInt16))
}

func satSubI16(a, b int16) int16 {
	s := int32(a) - int32(b)
	return int16(clamp32(s, math.MinInt16, math.MaxInt16))
}

func satAddU16(a, b uint16) uint16 {
	s := int32(a) + int32(b)
	return uint16(clamp32(s, 0, math.MaxUint16))
}

func satSubU16(a, b uint16) uint16 {
	s := int32(a) - int32(b)
	return uint16(clamp32(s, 0, math.MaxUint16))
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package interpreter

import (
	"encoding/binary"
	"math"
)

var binaryLE = binary.LittleEndian

// The value stack holds every numeric type bit-reinterpreted into a
// uint64 slot (spec.md §3 "Value representation"): i32/f32 occupy the low
// 32 bits, i64/f64 the full 64, and v128 is carried as a pair of uint64
// halves pushed/popped together. Integers are stored unsigned and
// reinterpreted per signed-vs-unsigned opcode; floats keep their bit
// pattern exactly (NaN payloads included) except where an opcode
// canonicalizes.

func (ce *callEngine) pushI32(v int32)     { ce.pushValue(uint64(uint32(v))) }
func (ce *callEngine) pushU32(v uint32)    { ce.pushValue(uint64(v)) }
func (ce *callEngine) popI32() int32       { return int32(uint32(ce.popValue())) }
func (ce *callEngine) popU32() uint32      { return uint32(ce.popValue()) }

func (ce *callEngine) pushI64(v int64)  { ce.pushValue(uint64(v)) }
func (ce *callEngine) pushU64(v uint64) { ce.pushValue(v) }
func (ce *callEngine) popI64() int64    { return int64(ce.popValue()) }
func (ce *callEngine) popU64() uint64   { return ce.popValue() }

func (ce *callEngine) pushF32(v float32) { ce.pushValue(uint64(math.Float32bits(v))) }
func (ce *callEngine) popF32() float32   { return math.Float32frombits(uint32(ce.popValue())) }

func (ce *callEngine) pushF64(v float64) { ce.pushValue(math.Float64bits(v)) }
func (ce *callEngine) popF64() float64   { return math.Float64frombits(ce.popValue()) }

func (ce *callEngine) pushBool(v bool) {
	if v {
		ce.pushI32(1)
	} else {
		ce.pushI32(0)
	}
}

// v128 lanes are stored on the value stack as two consecutive uint64
// slots, low half pushed first so popV128 (which reads top-of-stack
// first) reassembles them in the same byte order as the 16-byte
// Instruction.V128 immediate array (bytes 0-7 little-endian in the low
// slot).
func (ce *callEngine) pushV128(b [16]byte) {
	ce.pushValue(binaryLE.Uint64(b[0:8]))
	ce.pushValue(binaryLE.Uint64(b[8:16]))
}

func (ce *callEngine) popV128() [16]byte {
	hi := ce.popValue()
	lo := ce.popValue()
	var b [16]byte
	binaryLE.PutUint64(b[0:8], lo)
	binaryLE.PutUint64(b[8:16], hi)
	return b
}

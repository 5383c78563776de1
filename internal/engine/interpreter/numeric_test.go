package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazevm/wazevm/internal/wasm"
)

// runOp executes op against ce with no immediates and returns whatever it
// panicked with (a trapSignal from trap, or the plain string panic built
// from unknownOpcodeMsg), or nil. Unlike Engine.Call's deferred recover
// (engine.go), it does not re-panic values that are not a trapSignal.
func runOp(t *testing.T, ce *callEngine, ins *wasm.Instruction) (recovered interface{}) {
	t.Helper()
	defer func() { recovered = recover() }()
	execNumericOp(ce, ins)
	return nil
}

func op(o wasm.Opcode) *wasm.Instruction { return &wasm.Instruction{Opcode: o} }

func TestI32Add(t *testing.T) {
	ce := &callEngine{}
	ce.pushI32(2)
	ce.pushI32(3)
	runOp(t, ce, op(wasm.OpI32Add))
	require.Equal(t, int32(5), ce.popI32())
}

func TestI32DivSByZeroTraps(t *testing.T) {
	ce := &callEngine{}
	ce.pushI32(1)
	ce.pushI32(0)
	r := runOp(t, ce, op(wasm.OpI32DivS))
	ts, ok := r.(trapSignal)
	require.True(t, ok, "expected a trapSignal panic, got %v", r)
	require.Equal(t, wasm.TrapIntegerDivideByZero, ts.trap.Kind)
}

func TestI32DivSOverflowTraps(t *testing.T) {
	ce := &callEngine{}
	ce.pushI32(math.MinInt32)
	ce.pushI32(-1)
	r := runOp(t, ce, op(wasm.OpI32DivS))
	ts, ok := r.(trapSignal)
	require.True(t, ok, "expected a trapSignal panic, got %v", r)
	require.Equal(t, wasm.TrapIntegerOverflow, ts.trap.Kind)
}

func TestI32RemSByZeroTraps(t *testing.T) {
	ce := &callEngine{}
	ce.pushI32(7)
	ce.pushI32(0)
	r := runOp(t, ce, op(wasm.OpI32RemS))
	ts, ok := r.(trapSignal)
	require.True(t, ok)
	require.Equal(t, wasm.TrapIntegerDivideByZero, ts.trap.Kind)
}

func TestI32RemSMinIntByMinusOneIsZeroNotOverflow(t *testing.T) {
	// i32.rem_s(MinInt32, -1) == 0 per the Wasm spec's special case, unlike
	// div_s which traps on the same inputs.
	ce := &callEngine{}
	ce.pushI32(math.MinInt32)
	ce.pushI32(-1)
	r := runOp(t, ce, op(wasm.OpI32RemS))
	require.Nil(t, r)
	require.Equal(t, int32(0), ce.popI32())
}

func TestI64ClzCtzPopcnt(t *testing.T) {
	ce := &callEngine{}
	ce.pushI64(1)
	runOp(t, ce, op(wasm.OpI64Clz))
	require.Equal(t, int64(63), ce.popI64())

	ce.pushI64(8)
	runOp(t, ce, op(wasm.OpI64Ctz))
	require.Equal(t, int64(3), ce.popI64())

	ce.pushI64(0xff)
	runOp(t, ce, op(wasm.OpI64Popcnt))
	require.Equal(t, int64(8), ce.popI64())
}

func TestF32MinMaxNaNPropagates(t *testing.T) {
	require.True(t, math.IsNaN(float64(f32Min(float32(math.NaN()), 1))))
	require.True(t, math.IsNaN(float64(f32Max(1, float32(math.NaN())))))
}

func TestF32MinSignedZero(t *testing.T) {
	neg := f32Min(0, float32(math.Copysign(0, -1)))
	require.True(t, math.Signbit(float64(neg)))
}

func TestI32TruncF32SOutOfRangeTraps(t *testing.T) {
	ce := &callEngine{}
	ce.pushF32(1e30)
	r := runOp(t, ce, op(wasm.OpI32TruncF32S))
	ts, ok := r.(trapSignal)
	require.True(t, ok)
	require.Equal(t, wasm.TrapIntegerOverflow, ts.trap.Kind)
}

func TestI32TruncF32SNaNTraps(t *testing.T) {
	ce := &callEngine{}
	ce.pushF32(float32(math.NaN()))
	r := runOp(t, ce, op(wasm.OpI32TruncF32S))
	ts, ok := r.(trapSignal)
	require.True(t, ok)
	require.Equal(t, wasm.TrapInvalidConversionToInteger, ts.trap.Kind)
}

func TestI32TruncSatF32SClampsInsteadOfTrapping(t *testing.T) {
	ce := &callEngine{}
	ce.pushF32(1e30)
	r := runOp(t, ce, op(wasm.OpI32TruncSatF32S))
	require.Nil(t, r)
	require.Equal(t, int32(math.MaxInt32), ce.popI32())

	ce.pushF32(float32(math.NaN()))
	r = runOp(t, ce, op(wasm.OpI32TruncSatF32S))
	require.Nil(t, r)
	require.Equal(t, int32(0), ce.popI32())
}

func TestI32Extend8S(t *testing.T) {
	ce := &callEngine{}
	ce.pushI32(0xff) // low byte 0xff, sign-extends to -1
	runOp(t, ce, op(wasm.OpI32Extend8S))
	require.Equal(t, int32(-1), ce.popI32())
}

func TestI32WrapI64(t *testing.T) {
	ce := &callEngine{}
	ce.pushI64(0x1_0000_0001)
	runOp(t, ce, op(wasm.OpI32WrapI64))
	require.Equal(t, int32(1), ce.popI32())
}

func TestUnknownOpcodePanicsPlain(t *testing.T) {
	ce := &callEngine{}
	r := runOp(t, ce, op(wasm.Opcode(0xfffe)))
	require.NotNil(t, r)
	_, isTrap := r.(trapSignal)
	require.False(t, isTrap, "an unhandled opcode is an interpreter bug, not a guest trap")
}

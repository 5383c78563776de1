// Package api includes constants and interfaces shared between end-users
// embedding this module and the internal implementations of its core
// subsystems (decoder, validator, store/instantiator, interpreter).
package api

import (
	"context"
	"fmt"
	"math"
)

// ExternType classifies imports and exports with their respective types.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

const (
	ExternTypeFuncName   = "func"
	ExternTypeTableName  = "table"
	ExternTypeMemoryName = "memory"
	ExternTypeGlobalName = "global"
)

// ExternTypeName returns the text-format field name of the given ExternType.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return ExternTypeFuncName
	case ExternTypeTable:
		return ExternTypeTableName
	case ExternTypeMemory:
		return ExternTypeMemoryName
	case ExternTypeGlobal:
		return ExternTypeGlobalName
	}
	return fmt.Sprintf("%#x", et)
}

// ValueType describes a value on the operand stack. Numeric types are held
// as uint64 in the interpreter; reference types are opaque tagged indices.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c

	// ValueTypeV128 is the 128-bit SIMD vector type.
	ValueTypeV128 ValueType = 0x7b

	// ValueTypeFuncref is a nullable reference to a function.
	ValueTypeFuncref ValueType = 0x70

	// ValueTypeExternref is an opaque, nullable, host-defined reference.
	//
	// In this module externref values are raw 64-bit tagged indices into an
	// embedder-defined table; wazevm never dereferences them.
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the WebAssembly text-format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// IsReferenceType reports whether t is FuncRef or ExternRef.
func IsReferenceType(t ValueType) bool {
	return t == ValueTypeFuncref || t == ValueTypeExternref
}

// IsNumericType reports whether t is one of I32/I64/F32/F64/V128.
func IsNumericType(t ValueType) bool {
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeV128:
		return true
	}
	return false
}

// RefNull is the sentinel value for a null function or extern reference.
const RefNull uint64 = math.MaxUint64

// Module exposes the externally visible surface of an instantiated module.
//
// Note: This is an interface for decoupling, not third-party implementation.
// All implementations live in this module.
type Module interface {
	fmt.Stringer

	// Name is the name this module was instantiated with.
	Name() string

	// Memory returns the module's default (index 0) memory, or nil.
	Memory() Memory

	// ExportedFunction returns a function exported under name, or nil.
	ExportedFunction(name string) Function

	// ExportedMemory returns a memory exported under name, or nil.
	ExportedMemory(name string) Memory

	// ExportedGlobal returns a global exported under name, or nil.
	ExportedGlobal(name string) Global

	// ExportedTable returns a table exported under name, or nil.
	ExportedTable(name string) Table

	// CloseWithExitCode marks this module instance closed and records
	// exitCode. It does not interrupt an in-flight Function.Call, and later
	// Function.Call invocations do not fail or report the exit code.
	CloseWithExitCode(ctx context.Context, exitCode uint32) error

	Closer
}

// Closer closes a resource.
type Closer interface {
	Close(context.Context) error
}

// FunctionDefinition is metadata about a function, available before or after
// instantiation.
type FunctionDefinition interface {
	ModuleName() string
	Index() uint32
	Name() string
	DebugName() string
	Import() (moduleName, name string, isImport bool)
	ExportNames() []string
	ParamTypes() []ValueType
	ResultTypes() []ValueType
}

// Function is a WebAssembly function exported from an instantiated module.
type Function interface {
	Definition() FunctionDefinition

	// Call invokes the function with parameters encoded per ParamTypes,
	// returning results encoded per ResultTypes.
	//
	// When the context is nil, it defaults to context.Background.
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// Global is an exported WebAssembly global.
type Global interface {
	fmt.Stringer
	Type() ValueType
	Get(context.Context) uint64
}

// MutableGlobal is a Global whose value can be updated at runtime.
type MutableGlobal interface {
	Global
	Set(ctx context.Context, v uint64)
}

// Table is an exported WebAssembly table of references.
type Table interface {
	Type() ValueType
	Size(context.Context) uint32
}

// Memory allows restricted access to a module's linear memory.
//
// All offsets/lengths are in bytes; all multi-byte encodings are
// little-endian, per the Wasm specification.
type Memory interface {
	// Size returns the size in bytes available. Ex. 1 page == 65536.
	Size(context.Context) uint32

	// Grow increases memory by deltaPages 64KiB pages, returning the
	// previous size in pages, or false if the delta would exceed the max.
	Grow(ctx context.Context, deltaPages uint32) (previousPages uint32, ok bool)

	ReadByte(ctx context.Context, offset uint32) (byte, bool)
	ReadUint32Le(ctx context.Context, offset uint32) (uint32, bool)
	ReadUint64Le(ctx context.Context, offset uint32) (uint64, bool)
	ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool)
	ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool)

	// Read returns a write-through view of byteCount bytes at offset, or
	// false if out of range.
	Read(ctx context.Context, offset, byteCount uint32) ([]byte, bool)

	WriteByte(ctx context.Context, offset uint32, v byte) bool
	WriteUint32Le(ctx context.Context, offset, v uint32) bool
	WriteUint64Le(ctx context.Context, offset uint32, v uint64) bool
	WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool
	WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool
	Write(ctx context.Context, offset uint32, v []byte) bool
}

// EncodeI32 encodes input as a ValueTypeI32 stack slot.
func EncodeI32(input int32) uint64 { return uint64(uint32(input)) }

// EncodeI64 encodes input as a ValueTypeI64 stack slot.
func EncodeI64(input int64) uint64 { return uint64(input) }

// EncodeF32 encodes input as a ValueTypeF32 stack slot.
func EncodeF32(input float32) uint64 { return uint64(math.Float32bits(input)) }

// DecodeF32 decodes a ValueTypeF32 stack slot.
func DecodeF32(input uint64) float32 { return math.Float32frombits(uint32(input)) }

// EncodeF64 encodes input as a ValueTypeF64 stack slot.
func EncodeF64(input float64) uint64 { return math.Float64bits(input) }

// DecodeF64 decodes a ValueTypeF64 stack slot.
func DecodeF64(input uint64) float64 { return math.Float64frombits(input) }

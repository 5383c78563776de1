package wazevm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazevm/wazevm"
	"github.com/wazevm/wazevm/config"
)

// uleb32 encodes a general (possibly multi-byte) unsigned LEB128 value, for
// the handful of immediates below too large for the single-byte helpers in
// vm_test.go.
func uleb32(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func memorySection(min byte) []byte {
	return section(0x05, []byte{0x01, 0x00, min}) // 1 memory, flags=min-only
}

func tableSection(elemType byte, min byte) []byte {
	return section(0x04, []byte{0x01, elemType, 0x00, min}) // 1 table, flags=min-only
}

// memStoreLoadModuleBytes encodes:
//
//	(module (memory 1)
//	  (func (export "run") (result i32)
//	    i32.const 0 i32.const 42 i32.store
//	    i32.const 0 i32.load))
func memStoreLoadModuleBytes() []byte {
	body := []byte{
		0x41, 0x00, // i32.const 0
		0x41, 0x2a, // i32.const 42
		0x36, 0x02, 0x00, // i32.store align=2 offset=0
		0x41, 0x00, // i32.const 0
		0x28, 0x02, 0x00, // i32.load align=2 offset=0
	}
	return concatSections(
		typeSection(funcType(nil, []byte{0x7f})),
		functionSection(0),
		memorySection(1),
		exportSection("run", 0x00, 0),
		codeSection(funcBody(nil, body...)),
	)
}

// memLoadOutOfBoundsModuleBytes loads from an offset past the single
// declared page (1 page == 65536 bytes), which must trap
// (wasm.TrapOutOfBoundsMemoryAccess).
func memLoadOutOfBoundsModuleBytes() []byte {
	body := []byte{0x41, 0x00, 0x28, 0x02} // i32.const 0; i32.load align=2
	body = append(body, uleb32(0x20000)...) // offset, multi-byte LEB128
	return concatSections(
		typeSection(funcType(nil, []byte{0x7f})),
		functionSection(0),
		memorySection(1),
		exportSection("oob", 0x00, 0),
		codeSection(funcBody(nil, body...)),
	)
}

// memoryGrowModuleBytes encodes:
//
//	(module (memory 0)
//	  (func (export "grow") (result i32) i32.const 1 memory.grow))
func memoryGrowModuleBytes() []byte {
	body := []byte{0x41, 0x01, 0x40, 0x00} // i32.const 1; memory.grow (reserved byte 0x00)
	return concatSections(
		typeSection(funcType(nil, []byte{0x7f})),
		functionSection(0),
		memorySection(0),
		exportSection("grow", 0x00, 0),
		codeSection(funcBody(nil, body...)),
	)
}

// tableGrowSizeModuleBytes encodes:
//
//	(module (table 1 funcref)
//	  (func (export "run") (result i32)
//	    ref.null funcref i32.const 3 table.grow
//	    drop
//	    table.size))
func tableGrowSizeModuleBytes() []byte {
	body := []byte{
		0xd0, 0x70, // ref.null funcref
		0x41, 0x03, // i32.const 3 (grow delta)
		0xfc, 0x0f, 0x00, // table.grow tableidx=0 (0xFC sub-opcode 15)
		0x1a,             // drop (table.grow's previous-size result)
		0xfc, 0x10, 0x00, // table.size tableidx=0 (0xFC sub-opcode 16)
	}
	return concatSections(
		typeSection(funcType(nil, []byte{0x7f})),
		functionSection(0),
		tableSection(0x70, 1),
		exportSection("run", 0x00, 0),
		codeSection(funcBody(nil, body...)),
	)
}

func TestVMMemoryStoreThenLoadRoundTrips(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(memStoreLoadModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("mem-module", m)
	require.NoError(t, err)

	results, err := wazevm.Invoke(context.Background(), mod, "run")
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestVMMemoryLoadOutOfBoundsTraps(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(memLoadOutOfBoundsModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("oob-module", m)
	require.NoError(t, err)

	_, err = wazevm.Invoke(context.Background(), mod, "oob")
	require.Error(t, err)
}

func TestVMMemoryGrowFromZeroPages(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(memoryGrowModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("grow-module", m)
	require.NoError(t, err)

	results, err := wazevm.Invoke(context.Background(), mod, "grow")
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, results) // previous size, in pages, before growing
}

func TestVMExportedMemorySizeAfterInstantiate(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(memStoreLoadModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("mem-module", m)
	require.NoError(t, err)

	require.Equal(t, uint32(65536), mod.Memory().Size(context.Background()))
}

func TestVMTableGrowThenSize(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(tableGrowSizeModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("table-module", m)
	require.NoError(t, err)

	results, err := wazevm.Invoke(context.Background(), mod, "run")
	require.NoError(t, err)
	require.Equal(t, []uint64{4}, results) // 1 declared element + 3 grown
}

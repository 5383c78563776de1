package wazevm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazevm/wazevm"
	"github.com/wazevm/wazevm/config"
)

// addModuleBytes encodes, by hand, the minimal valid module:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0 local.get 1 i32.add))
func addModuleBytes() []byte {
	return concatSections(
		typeSection(funcType([]byte{0x7f, 0x7f}, []byte{0x7f})),
		functionSection(0),
		exportSection("add", 0x00, 0),
		codeSection(
			funcBody(nil, 0x20, 0x00, 0x20, 0x01, 0x6a),
		),
	)
}

// divModuleBytes is the same shape but with i32.div_s, exported as "div",
// so calling it with a zero divisor traps (spec.md §4.4
// TrapIntegerDivideByZero).
func divModuleBytes() []byte {
	return concatSections(
		typeSection(funcType([]byte{0x7f, 0x7f}, []byte{0x7f})),
		functionSection(0),
		exportSection("div", 0x00, 0),
		codeSection(
			funcBody(nil, 0x20, 0x00, 0x20, 0x01, 0x6d),
		),
	)
}

// startWritesGlobalBytes encodes:
//
//	(module
//	  (global $g (mut i32) (i32.const 0))
//	  (func $init i32.const 42 global.set 0)
//	  (start $init)
//	  (export "g" (global 0)))
func startWritesGlobalBytes() []byte {
	return concatSections(
		typeSection(funcType(nil, nil)),
		functionSection(0),
		globalSection(0x7f, true, 0x41, 0x00), // mut i32, init i32.const 0
		exportSection("g", 0x03, 0),
		startSection(0),
		codeSection(
			funcBody(nil, 0x41, 0x2a, 0x24, 0x00), // i32.const 42; global.set 0
		),
	)
}

func TestVMAddFunction(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(addModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("add-module", m)
	require.NoError(t, err)

	results, err := wazevm.Invoke(context.Background(), mod, "add", 2, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, results)
}

func TestVMDivideByZeroTraps(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(divModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("div-module", m)
	require.NoError(t, err)

	_, err = wazevm.Invoke(context.Background(), mod, "div", 1, 0)
	require.Error(t, err)
}

func TestVMStartFunctionWritesGlobal(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(startWritesGlobalBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("start-module", m)
	require.NoError(t, err)

	g := mod.ExportedGlobal("g")
	require.NotNil(t, g)
	require.EqualValues(t, 42, g.Get(context.Background()))
}

func TestVMInvokeUnknownFunction(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(addModuleBytes())
	require.NoError(t, err)

	mod, err := v.Instantiate("add-module", m)
	require.NoError(t, err)

	_, err = wazevm.Invoke(context.Background(), mod, "missing")
	require.Error(t, err)
}

func TestVMResetDropsModules(t *testing.T) {
	v, err := wazevm.NewVM(config.New())
	require.NoError(t, err)

	m, err := v.LoadBytes(addModuleBytes())
	require.NoError(t, err)
	_, err = v.Instantiate("add-module", m)
	require.NoError(t, err)

	v.Reset()

	// After Reset, the module must be instantiated again: nothing from a
	// prior session carries over into the fresh store.
	_, err = v.Instantiate("add-module", m)
	require.NoError(t, err)
}

// ---- hand-rolled module byte builders ----
//
// These mirror the binary layout internal/wasm/binary's decoder expects
// section-by-section (magic, version, then sections in ascending id
// order), kept deliberately minimal: every count/size used here fits in a
// single LEB128 byte, so no multi-byte varint encoding is needed.

func concatSections(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func section(id byte, content []byte) []byte {
	return append([]byte{id, byte(len(content))}, content...)
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60, byte(len(params))}
	out = append(out, params...)
	out = append(out, byte(len(results)))
	out = append(out, results...)
	return out
}

func typeSection(types ...[]byte) []byte {
	content := []byte{byte(len(types))}
	for _, t := range types {
		content = append(content, t...)
	}
	return section(0x01, content)
}

func functionSection(typeIdxs ...byte) []byte {
	content := []byte{byte(len(typeIdxs))}
	content = append(content, typeIdxs...)
	return section(0x03, content)
}

func globalSection(valType byte, mutable bool, initExpr ...byte) []byte {
	mut := byte(0)
	if mutable {
		mut = 1
	}
	content := []byte{0x01, valType, mut}
	content = append(content, initExpr...)
	content = append(content, 0x0b) // end
	return section(0x06, content)
}

func exportSection(name string, kind byte, index byte) []byte {
	content := []byte{0x01, byte(len(name))}
	content = append(content, []byte(name)...)
	content = append(content, kind, index)
	return section(0x07, content)
}

func startSection(funcIdx byte) []byte {
	return section(0x08, []byte{funcIdx})
}

func funcBody(locals []byte, instructions ...byte) []byte {
	body := []byte{byte(len(locals) / 2)} // locals: pairs of (count, type), none used in these tests
	body = append(body, locals...)
	body = append(body, instructions...)
	body = append(body, 0x0b) // end
	sized := append([]byte{byte(len(body))}, body...)
	return sized
}

func codeSection(bodies ...[]byte) []byte {
	content := []byte{byte(len(bodies))}
	for _, b := range bodies {
		content = append(content, b...)
	}
	return section(0x0a, content)
}

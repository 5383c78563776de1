package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazevm/wazevm/api"
)

func TestValueTypeSlots(t *testing.T) {
	require.Equal(t, 1, ValueTypeSlots(api.ValueTypeI32))
	require.Equal(t, 1, ValueTypeSlots(api.ValueTypeI64))
	require.Equal(t, 1, ValueTypeSlots(api.ValueTypeF32))
	require.Equal(t, 1, ValueTypeSlots(api.ValueTypeF64))
	require.Equal(t, 2, ValueTypeSlots(api.ValueTypeV128))
	require.Equal(t, 1, ValueTypeSlots(api.ValueTypeFuncref))
}

func TestTypeListSlots(t *testing.T) {
	require.Equal(t, 0, TypeListSlots(nil))
	require.Equal(t, 3, TypeListSlots([]api.ValueType{api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32}))
	require.Equal(t, 4, TypeListSlots([]api.ValueType{api.ValueTypeV128, api.ValueTypeI32, api.ValueTypeV128}))
}

func TestBlockTypeSignatureEmpty(t *testing.T) {
	params, results := BlockTypeSignature(nil, BlockType{Kind: BlockTypeEmpty})
	require.Nil(t, params)
	require.Nil(t, results)
}

func TestBlockTypeSignatureValue(t *testing.T) {
	params, results := BlockTypeSignature(nil, BlockType{Kind: BlockTypeValue, ValType: api.ValueTypeI32})
	require.Nil(t, params)
	require.Equal(t, []api.ValueType{api.ValueTypeI32}, results)
}

func TestBlockTypeSignatureIndexed(t *testing.T) {
	types := []FunctionType{
		{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}},
	}
	params, results := BlockTypeSignature(types, BlockType{Kind: BlockTypeIndexed, TypeIndex: 0})
	require.Equal(t, types[0].Params, params)
	require.Equal(t, types[0].Results, results)
}

func TestFunctionTypeEqual(t *testing.T) {
	a := FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI64}}
	b := FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI64}}
	c := FunctionType{Params: []api.ValueType{api.ValueTypeI64}, Results: []api.ValueType{api.ValueTypeI64}}
	require.True(t, a.Equal(&b))
	require.False(t, a.Equal(&c))
}

func TestComputeLocalLayoutWidensV128(t *testing.T) {
	fi := &FunctionInstance{
		Type: &FunctionType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeV128}},
		Locals: []LocalGroup{
			{Count: 1, ValType: api.ValueTypeI64},
		},
	}
	fi.ComputeLocalLayout()

	require.Equal(t, []int{0, 1, 3}, fi.LocalSlotOffsets)
	require.Equal(t, 4, fi.NumLocalSlots)
}

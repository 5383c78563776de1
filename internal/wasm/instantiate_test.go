package wasm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazevm/wazevm/api"
)

// trappingStartModule is a module with one table, one memory, one global,
// and a start function, so a failing start pass (step 7) has allocations
// from steps 3-6 to undo.
func trappingStartModule() *Module {
	return &Module{
		Types: []FunctionType{{}},
		FunctionTypeIndexes: []uint32{0},
		Functions: []Function{
			{TypeIndex: 0, Body: []Instruction{{Opcode: OpUnreachable}, {Opcode: OpEnd}}},
		},
		Tables:   []TableType{{ElemType: api.ValueTypeFuncref, Limits: Limits{Min: 1}}},
		Memories: []MemoryType{{Limits: Limits{Min: 1}}},
		Globals: []struct {
			Type GlobalType
			Init ConstExpr
		}{
			{Type: GlobalType{ValType: api.ValueTypeI32, Mutable: false}, Init: ConstExpr{Instructions: []Instruction{{Opcode: OpI32Const, I32: 7}}}},
		},
		StartFunctionIndex: func() *uint32 { i := uint32(0); return &i }(),
	}
}

func TestInstantiateRollsBackOnStartTrap(t *testing.T) {
	store := NewStore()
	fnCk, tblCk, memCk, globCk := store.checkpoint()

	m := trappingStartModule()

	failingStart := func(fn *FunctionInstance) error { return errors.New("boom") }

	_, err := Instantiate(store, m, "trapping", failingStart)
	require.Error(t, err)

	gotFn, gotTbl, gotMem, gotGlob := store.checkpoint()
	require.Equal(t, fnCk, gotFn, "function arena must be rolled back")
	require.Equal(t, tblCk, gotTbl, "table arena must be rolled back")
	require.Equal(t, memCk, gotMem, "memory arena must be rolled back")
	require.Equal(t, globCk, gotGlob, "global arena must be rolled back")

	_, registered := store.Module("trapping")
	require.False(t, registered, "a rolled-back instantiation must not register its name")
}

func TestInstantiateSucceedsWithoutStartTrap(t *testing.T) {
	store := NewStore()

	m := trappingStartModule()

	okStart := func(fn *FunctionInstance) error { return nil }

	mi, err := Instantiate(store, m, "ok", okStart)
	require.NoError(t, err)
	require.Len(t, store.Tables, 1)
	require.Len(t, store.Memories, 1)
	require.Len(t, store.Globals, 1)

	registered, ok := store.Module("ok")
	require.True(t, ok)
	require.Same(t, mi, registered)
}

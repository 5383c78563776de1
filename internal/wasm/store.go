package wasm

import (
	"reflect"
	"sync"

	"github.com/wazevm/wazevm/api"
)

// FunctionAddr, TableAddr, MemoryAddr and GlobalAddr are distinct named
// types over a common 32-bit arena index so the compiler rejects
// cross-kind assignment — resolving spec.md §9 open question (b), which
// warns against routing one instance kind's address through another's
// setter.
type (
	FunctionAddr uint32
	TableAddr    uint32
	MemoryAddr   uint32
	GlobalAddr   uint32
)

// FunctionInstance is either a Wasm-defined function (ModuleInstance +
// type + locals + body) or a host function (type + callback), per
// spec.md §3.
type FunctionInstance struct {
	Type *FunctionType

	// The following are populated for a Wasm-defined function.
	Module *ModuleInstance
	Locals []LocalGroup
	Body   []Instruction

	// LocalTypes is every local's value type in declaration order (the
	// function's parameters, then each LocalGroup expanded one entry per
	// count). LocalSlotOffsets[i] is LocalTypes[i]'s starting offset into
	// a call frame's locals slice; NumLocalSlots is the frame's total
	// width. Precomputed once at instantiation (instantiate.go) since a
	// v128 local occupies two slots while every other type occupies one
	// (ValueTypeSlots), so local index and slot offset diverge as soon as
	// a function has any v128 locals or parameters.
	LocalTypes      []api.ValueType
	LocalSlotOffsets []int
	NumLocalSlots    int

	// The following are populated for a host function.
	HostFn   interface{} // the embedder's Go callback, see host.Function
	HostName string      // "module.field", for diagnostics

	// DebugName identifies this function in traps/stack traces.
	DebugName string
}

// IsHost reports whether this is a host, rather than Wasm-defined, function.
func (f *FunctionInstance) IsHost() bool { return f.HostFn != nil }

// ComputeLocalLayout fills LocalTypes/LocalSlotOffsets/NumLocalSlots from
// Type.Params and Locals, per spec.md §4.4 "Invocation": a call frame's
// locals are the declared parameters followed by every declared local,
// zero-initialized, in declaration order.
func (f *FunctionInstance) ComputeLocalLayout() {
	f.LocalTypes = append([]api.ValueType(nil), f.Type.Params...)
	for _, g := range f.Locals {
		for i := uint32(0); i < g.Count; i++ {
			f.LocalTypes = append(f.LocalTypes, g.ValType)
		}
	}
	f.LocalSlotOffsets = make([]int, len(f.LocalTypes))
	offset := 0
	for i, t := range f.LocalTypes {
		f.LocalSlotOffsets[i] = offset
		offset += ValueTypeSlots(t)
	}
	f.NumLocalSlots = offset
}

// TableInstance holds a reftype's live element vector.
type TableInstance struct {
	Type     api.ValueType
	Min      uint32
	Max      *uint32
	Elements []uint64 // api.RefNull or a FunctionAddr/host-ref tagged value
}

// MemInstance holds a linear memory's live byte buffer.
type MemInstance struct {
	Min    uint32
	Max    *uint32 // in pages; nil means spec.md's implicit ceiling (65536)
	Buffer []byte

	// Ceiling is the embedder-configured memory-page-limit (spec.md §6
	// new_vm(config).memory-page-limit), the hard cap memory.grow can
	// never exceed regardless of this memory's own declared Max.
	Ceiling uint32

	mu sync.RWMutex
}

// PageCount returns the current size in 64KiB pages.
func (m *MemInstance) PageCount() uint32 { return uint32(len(m.Buffer) / PageSize) }

// GlobalInstance holds a global's current value and mutability.
type GlobalInstance struct {
	Type  GlobalType
	Value uint64
}

// Store is an append-only arena of instances plus the registries needed to
// link imports, per spec.md §4.3.
type Store struct {
	Functions []*FunctionInstance
	Tables    []*TableInstance
	Memories  []*MemInstance
	Globals   []*GlobalInstance

	// MemoryPageLimit is the embedder's new_vm(config).memory-page-limit
	// (spec.md §6), stamped onto every MemInstance this store allocates.
	// Zero means the spec default (MaxPages, 65536).
	MemoryPageLimit uint32

	// modules maps a registered module instance's name to itself, for
	// import resolution and host-module registration (spec.md §4.3).
	modules map[string]*ModuleInstance

	// mu guards modules.
	mu sync.Mutex
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{modules: map[string]*ModuleInstance{}}
}

// Module looks up a registered module instance by name.
func (s *Store) Module(name string) (*ModuleInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[name]
	return m, ok
}

// Register makes mi visible to future import resolution under its own
// name. Re-registering a name replaces the previous binding, mirroring the
// embedder API's register_host_module/instantiate ordering (spec.md §6).
func (s *Store) Register(mi *ModuleInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[mi.Name] = mi
}

func (s *Store) addFunction(f *FunctionInstance) FunctionAddr {
	s.Functions = append(s.Functions, f)
	return FunctionAddr(len(s.Functions) - 1)
}

func (s *Store) addTable(t *TableInstance) TableAddr {
	s.Tables = append(s.Tables, t)
	return TableAddr(len(s.Tables) - 1)
}

func (s *Store) addMemory(m *MemInstance) MemoryAddr {
	s.Memories = append(s.Memories, m)
	return MemoryAddr(len(s.Memories) - 1)
}

func (s *Store) addGlobal(g *GlobalInstance) GlobalAddr {
	s.Globals = append(s.Globals, g)
	return GlobalAddr(len(s.Globals) - 1)
}

// truncateTo discards arena entries added at or after the given
// checkpoints, used to undo a failed instantiation's allocations
// (spec.md §4.3: "a trap after step 3 must undo allocations from steps
// 3-6").
func (s *Store) truncateTo(fn, tbl, mem, glob int) {
	s.Functions = s.Functions[:fn]
	s.Tables = s.Tables[:tbl]
	s.Memories = s.Memories[:mem]
	s.Globals = s.Globals[:glob]
}

func (s *Store) checkpoint() (fn, tbl, mem, glob int) {
	return len(s.Functions), len(s.Tables), len(s.Memories), len(s.Globals)
}

// hostFuncType returns the string form of a Go callback's reflect.Type, for
// diagnostics only; host functions carry their FunctionType explicitly at
// registration.
func hostFuncType(v reflect.Value) string {
	return v.Type().String()
}

package wasm

import "github.com/wazevm/wazevm/api"

// ModuleInstance is the runtime realization of a Module: its index spaces
// mapped to store addresses (imports first, then module-defined, in
// declaration order), plus its export table and passive-segment slots
// (spec.md §3).
type ModuleInstance struct {
	Name string

	Types []FunctionType

	FunctionAddrs []FunctionAddr
	TableAddrs    []TableAddr
	MemoryAddrs   []MemoryAddr
	GlobalAddrs   []GlobalAddr

	// ImportedFunctionCount is the number of FunctionAddrs that came from
	// imports, i.e. the length of the import prefix before module-defined
	// functions (mirrors the teacher's moduleEngine.importedFunctionCount).
	ImportedFunctionCount int

	Exports map[string]Export

	// ElementValues holds each passive element segment's resolved reference
	// values (funcref store addresses or api.RefNull), indexed exactly as
	// in the source Module. An entry is nil for every active/declarative
	// segment (applied, or never materialized, at instantiation time) and
	// is set to nil once consumed by elem.drop or table.init, per spec.md
	// §4.4 "Passive segments are recorded for later ...".
	ElementValues [][]uint64
	// DataSegments mirrors the same pattern for data.init/data.drop: nil
	// for active segments (applied at instantiation) or once dropped,
	// otherwise the segment's raw bytes.
	DataSegments [][]byte

	store *Store
}

// FunctionAt resolves a store function address directly, bypassing this
// instance's own index space -- used by call_indirect, which dispatches
// through a table's resolved addresses rather than a module-local index
// (spec.md §9 open question (b): distinct setters/getters per instance
// kind, never routed through one another).
func (mi *ModuleInstance) FunctionAt(addr FunctionAddr) *FunctionInstance {
	return mi.store.Functions[addr]
}

// Function resolves idx (in this module's function index space) to the
// store's FunctionInstance.
func (mi *ModuleInstance) Function(idx uint32) *FunctionInstance {
	if int(idx) >= len(mi.FunctionAddrs) {
		return nil
	}
	return mi.store.Functions[mi.FunctionAddrs[idx]]
}

// Table resolves idx to the store's TableInstance.
func (mi *ModuleInstance) Table(idx uint32) *TableInstance {
	if int(idx) >= len(mi.TableAddrs) {
		return nil
	}
	return mi.store.Tables[mi.TableAddrs[idx]]
}

// Memory resolves idx to the store's MemInstance.
func (mi *ModuleInstance) Memory(idx uint32) *MemInstance {
	if int(idx) >= len(mi.MemoryAddrs) {
		return nil
	}
	return mi.store.Memories[mi.MemoryAddrs[idx]]
}

// Global resolves idx to the store's GlobalInstance.
func (mi *ModuleInstance) Global(idx uint32) *GlobalInstance {
	if int(idx) >= len(mi.GlobalAddrs) {
		return nil
	}
	return mi.store.Globals[mi.GlobalAddrs[idx]]
}

// ExportedFunction resolves a function export by name, or nil.
func (mi *ModuleInstance) ExportedFunction(name string) *FunctionInstance {
	exp, ok := mi.Exports[name]
	if !ok || exp.Kind != api.ExternTypeFunc {
		return nil
	}
	return mi.Function(exp.Index)
}

// ExportedMemory resolves a memory export by name, or nil.
func (mi *ModuleInstance) ExportedMemory(name string) *MemInstance {
	exp, ok := mi.Exports[name]
	if !ok || exp.Kind != api.ExternTypeMemory {
		return nil
	}
	return mi.Memory(exp.Index)
}

// ExportedGlobal resolves a global export by name, or nil.
func (mi *ModuleInstance) ExportedGlobal(name string) *GlobalInstance {
	exp, ok := mi.Exports[name]
	if !ok || exp.Kind != api.ExternTypeGlobal {
		return nil
	}
	return mi.Global(exp.Index)
}

// ExportedTable resolves a table export by name, or nil.
func (mi *ModuleInstance) ExportedTable(name string) *TableInstance {
	exp, ok := mi.Exports[name]
	if !ok || exp.Kind != api.ExternTypeTable {
		return nil
	}
	return mi.Table(exp.Index)
}

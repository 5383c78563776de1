// Package wasm holds the immutable module AST produced by the decoder, the
// mutable runtime store the instantiator populates, and the validator that
// sits between them. See spec.md §3 for the data model this package
// implements.
package wasm

import "github.com/wazevm/wazevm/api"

// MaxPages is the largest number of 64KiB pages a linear memory may ever
// reach (2^16), per spec.md §3 invariant 2.
const MaxPages = 65536

// PageSize is the granularity of memory growth in bytes.
const PageSize = 65536

// FunctionType is an ordered parameter/result value-type signature.
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Equal reports structural equality, used for import/call-indirect type
// checks (spec.md §4.3: "function type identity up to structural
// equality").
func (t *FunctionType) Equal(o *FunctionType) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return sliceEqual(t.Params, o.Params) && sliceEqual(t.Results, o.Results)
}

func sliceEqual(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Limits bounds a table or memory's size, in the table's element count or
// the memory's page count.
type Limits struct {
	Min uint32
	Max *uint32 // nil means unbounded (up to the type's implicit ceiling).
}

// TableType is an element reference type plus its size Limits.
type TableType struct {
	ElemType api.ValueType // api.ValueTypeFuncref or api.ValueTypeExternref
	Limits   Limits
}

// MemoryType is a memory's size Limits, in 64KiB pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType is a global's value type and mutability.
type GlobalType struct {
	ValType api.ValueType
	Mutable bool
}

// ImportKind distinguishes the four import/export descriptor kinds.
type ImportKind = api.ExternType

// Import names an external entity required at instantiation.
type Import struct {
	Module string
	Name   string
	Kind   ImportKind

	// Exactly one of the following is populated, selected by Kind.
	FuncTypeIndex uint32
	Table         TableType
	Memory        MemoryType
	Global        GlobalType
}

// Export names an entity this module makes available to others.
type Export struct {
	Name  string
	Kind  ImportKind
	Index uint32
}

// ElementMode distinguishes the three element-segment application modes.
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// ElementSegment initializes a table range (active) or is held for later
// table.init (passive), per spec.md §3.
type ElementSegment struct {
	Type      api.ValueType // the element reftype
	Mode      ElementMode
	TableIndex uint32 // only meaningful when Mode == ElementModeActive
	Offset     ConstExpr
	// Init is one constant expression per element. Each evaluates to a
	// function reference (ref.func, as the function's store address) or null
	// (ref.null).
	Init []ConstExpr
}

// DataMode distinguishes active and passive data segments.
type DataMode byte

const (
	DataModeActive DataMode = iota
	DataModePassive
)

// DataSegment initializes a memory range (active) or is held for later
// memory.init (passive).
type DataSegment struct {
	Mode      DataMode
	MemIndex  uint32
	Offset    ConstExpr
	Init      []byte
}

// ConstExpr is a restricted instruction sequence usable as a global
// initializer or active-segment offset: *.const, global.get of an imported
// immutable global, ref.null, ref.func, terminated by End (spec.md §4.2).
type ConstExpr struct {
	Instructions []Instruction
}

// LocalGroup is a run of locals of one ValType, as counted in the binary
// format's locals declaration (spec.md §3: "counts grouped by ValType").
type LocalGroup struct {
	Count   uint32
	ValType api.ValueType
}

// Function is a module-defined function: its type, its local declarations,
// and its body instruction sequence.
type Function struct {
	TypeIndex uint32
	Locals    []LocalGroup
	Body      []Instruction

	// NumLocals is the total local count (sum of Locals[*].Count),
	// precomputed for the interpreter's frame allocation.
	NumLocals uint32
}

// CustomSection is a recorded, uninterpreted custom section.
type CustomSection struct {
	Name string
	Data []byte
}

// Module is the immutable AST produced by decoding and (optionally)
// checked by the validator. Index spaces are import-then-local order per
// spec.md §3.
type Module struct {
	// ID is a content hash of the decoded binary, used as a compiled-code
	// cache key (SPEC_FULL.md §11).
	ID ModuleID

	Types   []FunctionType
	Imports []Import

	// FunctionTypeIndexes holds the type index for each *module-defined*
	// function (import function types live on Imports), in declaration
	// order, matching the Function section.
	FunctionTypeIndexes []uint32
	// Functions holds the Code-section body for each module-defined
	// function, index-aligned with FunctionTypeIndexes.
	Functions []Function

	Tables  []TableType
	Memories []MemoryType
	Globals []struct {
		Type GlobalType
		Init ConstExpr
	}
	Exports []Export

	// StartFunctionIndex is nil when the module has no start function.
	StartFunctionIndex *uint32

	Elements []ElementSegment
	Data     []DataSegment

	// DataCount is the value of an explicit DataCount section, or nil if
	// absent. When present the validator requires it to equal len(Data);
	// memory.init/data.drop indices are checked against len(Data), and the
	// decoder only records the value.
	DataCount *uint32

	Customs []CustomSection
}

// NumFuncImports returns how many Imports are function imports.
func (m *Module) NumFuncImports() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == api.ExternTypeFunc {
			n++
		}
	}
	return n
}

// NumTableImports returns how many Imports are table imports.
func (m *Module) NumTableImports() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == api.ExternTypeTable {
			n++
		}
	}
	return n
}

// NumMemoryImports returns how many Imports are memory imports.
func (m *Module) NumMemoryImports() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == api.ExternTypeMemory {
			n++
		}
	}
	return n
}

// NumGlobalImports returns how many Imports are global imports.
func (m *Module) NumGlobalImports() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == api.ExternTypeGlobal {
			n++
		}
	}
	return n
}

// TypeOfFunctionIndex resolves the FunctionType for a function index
// (imports first, then module-defined), or nil if out of range.
func (m *Module) TypeOfFunctionIndex(idx uint32) *FunctionType {
	numImports := uint32(m.NumFuncImports())
	if idx < numImports {
		var i uint32
		for _, imp := range m.Imports {
			if imp.Kind != api.ExternTypeFunc {
				continue
			}
			if i == idx {
				if int(imp.FuncTypeIndex) >= len(m.Types) {
					return nil
				}
				return &m.Types[imp.FuncTypeIndex]
			}
			i++
		}
		return nil
	}
	local := idx - numImports
	if int(local) >= len(m.FunctionTypeIndexes) {
		return nil
	}
	ti := m.FunctionTypeIndexes[local]
	if int(ti) >= len(m.Types) {
		return nil
	}
	return &m.Types[ti]
}

// ModuleID is a content hash of a decoded binary (xxhash64), used as a
// compiled-code cache key (SPEC_FULL.md §11).
type ModuleID uint64

// BlockTypeSignature resolves a structured instruction's parameter/result
// type lists, shared by the validator and the interpreter so block/loop/if
// typing is computed exactly once per encoding shape (spec.md §4.1's three
// blocktype encodings). types is the enclosing module's type section
// (Module.Types or ModuleInstance.Types; both are indexed identically).
func BlockTypeSignature(types []FunctionType, bt BlockType) (params, results []api.ValueType) {
	switch bt.Kind {
	case BlockTypeEmpty:
		return nil, nil
	case BlockTypeValue:
		return nil, []api.ValueType{bt.ValType}
	case BlockTypeIndexed:
		ft := &types[bt.TypeIndex]
		return ft.Params, ft.Results
	}
	return nil, nil
}

// ValueTypeSlots returns how many uint64 value-stack slots one value of
// type t occupies: two for v128 (stored as a little-endian lo/hi pair, per
// DESIGN.md's wazero-grounded value representation), one for every other
// value type.
func ValueTypeSlots(t api.ValueType) int {
	if t == api.ValueTypeV128 {
		return 2
	}
	return 1
}

// TypeListSlots sums ValueTypeSlots over ts.
func TypeListSlots(ts []api.ValueType) int {
	n := 0
	for _, t := range ts {
		n += ValueTypeSlots(t)
	}
	return n
}

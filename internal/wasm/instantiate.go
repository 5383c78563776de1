package wasm

import (
	"fmt"

	"github.com/wazevm/wazevm/api"
)

// RunStartFunc executes a module's start function (arity zero, no
// arguments). It is supplied by the interpreter package so that
// internal/wasm never imports internal/engine/interpreter (spec.md §9:
// cycles are broken via indirection, not import edges).
type RunStartFunc func(fn *FunctionInstance) error

// Instantiate runs the seven-step sequence of spec.md §4.3 against a
// validated Module, returning a live ModuleInstance or an error (a
// *ValidationError when imports do not resolve or match, a *Trap for a
// fault during initialization). On failure the store's function, table,
// memory and global arenas are truncated back to their lengths before the
// call; bytes or elements already written into an imported memory or
// table by earlier segments are not undone.
func Instantiate(store *Store, m *Module, name string, runStart RunStartFunc) (*ModuleInstance, error) {
	fnCk, tblCk, memCk, globCk := store.checkpoint()
	mi, err := instantiate(store, m, name, runStart)
	if err != nil {
		store.truncateTo(fnCk, tblCk, memCk, globCk)
		return nil, err
	}
	return mi, nil
}

func instantiate(store *Store, m *Module, name string, runStart RunStartFunc) (*ModuleInstance, error) {
	mi := &ModuleInstance{
		Name:    name,
		Types:   m.Types,
		Exports: make(map[string]Export, len(m.Exports)),
		store:   store,
	}

	// Step 2: resolve every import.
	for _, imp := range m.Imports {
		target, ok := store.Module(imp.Module)
		if !ok {
			return nil, NewValidationErrorf(ValidationUnknownIndex, SectionIDImport, NodeAttrDescImport,
				"module %q imports unknown module %q", name, imp.Module)
		}
		expo, ok := target.Exports[imp.Name]
		if !ok || expo.Kind != imp.Kind {
			return nil, NewValidationErrorf(ValidationUnknownIndex, SectionIDImport, NodeAttrDescImport,
				"module %q: import %s.%s not found or kind mismatch", name, imp.Module, imp.Name)
		}
		switch imp.Kind {
		case api.ExternTypeFunc:
			want := &m.Types[imp.FuncTypeIndex]
			got := target.Function(expo.Index).Type
			if !want.Equal(got) {
				return nil, NewValidationErrorf(ValidationTypeMismatch, SectionIDImport, NodeAttrDescImport,
					"module %q: function import %s.%s signature mismatch", name, imp.Module, imp.Name)
			}
			mi.FunctionAddrs = append(mi.FunctionAddrs, target.FunctionAddrs[expo.Index])
		case api.ExternTypeTable:
			t := target.Table(expo.Index)
			if err := checkLimitsSatisfy(imp.Table.Limits, Limits{Min: t.Min, Max: t.Max}); err != nil {
				return nil, NewValidationErrorf(ValidationInvalidLimits, SectionIDImport, NodeAttrDescImport,
					"module %q: table import %s.%s: %s", name, imp.Module, imp.Name, err)
			}
			if t.Type != imp.Table.ElemType {
				return nil, NewValidationErrorf(ValidationTypeMismatch, SectionIDImport, NodeAttrDescImport,
					"module %q: table import %s.%s element type mismatch", name, imp.Module, imp.Name)
			}
			mi.TableAddrs = append(mi.TableAddrs, target.TableAddrs[expo.Index])
		case api.ExternTypeMemory:
			mem := target.Memory(expo.Index)
			if err := checkLimitsSatisfy(imp.Memory.Limits, Limits{Min: mem.Min, Max: mem.Max}); err != nil {
				return nil, NewValidationErrorf(ValidationInvalidLimits, SectionIDImport, NodeAttrDescImport,
					"module %q: memory import %s.%s: %s", name, imp.Module, imp.Name, err)
			}
			mi.MemoryAddrs = append(mi.MemoryAddrs, target.MemoryAddrs[expo.Index])
		case api.ExternTypeGlobal:
			g := target.Global(expo.Index)
			if g.Type.ValType != imp.Global.ValType || g.Type.Mutable != imp.Global.Mutable {
				return nil, NewValidationErrorf(ValidationTypeMismatch, SectionIDImport, NodeAttrDescImport,
					"module %q: global import %s.%s type/mutability mismatch", name, imp.Module, imp.Name)
			}
			mi.GlobalAddrs = append(mi.GlobalAddrs, target.GlobalAddrs[expo.Index])
		}
	}

	// Step 3 (reordered, see DESIGN.md): allocate module-defined function
	// instances first. Nothing about a function depends on tables,
	// memories, or globals, and doing this before evaluating constant
	// expressions lets a global initializer or element-segment ref.func
	// resolve straight to a store FunctionAddr instead of a bare
	// module-local index (the actual Wasm allocation algorithm allocates
	// funcaddrs first for the same reason; spec.md §4.3's step numbering
	// only fixes the *set* of work per step, not a hard ordering between
	// steps 3 and 4).
	mi.ImportedFunctionCount = len(mi.FunctionAddrs)
	for i := range m.Functions {
		fn := &m.Functions[i]
		ft := &m.Types[m.FunctionTypeIndexes[i]]
		fi := &FunctionInstance{
			Type:      ft,
			Module:    mi,
			Locals:    fn.Locals,
			Body:      fn.Body,
			DebugName: fmt.Sprintf("%s.$%d", name, i+mi.ImportedFunctionCount),
		}
		fi.ComputeLocalLayout()
		mi.FunctionAddrs = append(mi.FunctionAddrs, store.addFunction(fi))
	}

	// importedGlobals/FuncAddrs are what a constant expression may
	// reference (spec.md §4.3 step 3: "a temporary frame that has access
	// only to imported globals"; ref.func may name any function, since
	// functions have no initialization order dependency).
	importedGlobals := make([]*GlobalInstance, 0, len(mi.GlobalAddrs))
	for _, addr := range mi.GlobalAddrs {
		importedGlobals = append(importedGlobals, store.Globals[addr])
	}
	cctx := ConstExprContext{ImportedGlobals: importedGlobals, FuncAddrs: mi.FunctionAddrs}

	// Step 3: allocate module-defined tables, memories, globals.
	for _, tt := range m.Tables {
		size := tt.Limits.Min
		elems := make([]uint64, size)
		for i := range elems {
			elems[i] = api.RefNull
		}
		ti := &TableInstance{Type: tt.ElemType, Min: tt.Limits.Min, Max: tt.Limits.Max, Elements: elems}
		mi.TableAddrs = append(mi.TableAddrs, store.addTable(ti))
	}
	for _, mt := range m.Memories {
		buf := make([]byte, uint64(mt.Limits.Min)*PageSize)
		memi := &MemInstance{Min: mt.Limits.Min, Max: mt.Limits.Max, Buffer: buf, Ceiling: store.MemoryPageLimit}
		mi.MemoryAddrs = append(mi.MemoryAddrs, store.addMemory(memi))
	}
	for _, g := range m.Globals {
		val := g.Init.Eval(cctx)
		gi := &GlobalInstance{Type: g.Type, Value: val}
		mi.GlobalAddrs = append(mi.GlobalAddrs, store.addGlobal(gi))
	}

	// Exports.
	for _, exp := range m.Exports {
		mi.Exports[exp.Name] = exp
	}

	// Step 5: resolve every element segment's reference values once, then
	// either apply them (active) or keep them for table.init (passive);
	// declarative segments are never materialized at runtime.
	mi.ElementValues = make([][]uint64, len(m.Elements))
	for i := range m.Elements {
		seg := &m.Elements[i]
		values := make([]uint64, len(seg.Init))
		for j, init := range seg.Init {
			values[j] = init.Eval(cctx)
		}
		switch seg.Mode {
		case ElementModeActive:
			table := mi.Table(seg.TableIndex)
			offset := uint32(seg.Offset.Eval(cctx))
			if err := applyElementSegment(table, offset, values); err != nil {
				return nil, err
			}
		case ElementModePassive:
			mi.ElementValues[i] = values
		case ElementModeDeclarative:
			// never materialized.
		}
	}

	// Step 6: evaluate and apply data segments.
	mi.DataSegments = make([][]byte, len(m.Data))
	for i := range m.Data {
		seg := &m.Data[i]
		if seg.Mode == DataModeActive {
			mem := mi.Memory(seg.MemIndex)
			offset := uint32(seg.Offset.Eval(cctx))
			if err := applyDataSegment(mem, offset, seg.Init); err != nil {
				return nil, err
			}
		} else {
			mi.DataSegments[i] = seg.Init
		}
	}

	// Step 7: run the start function, if any.
	if m.StartFunctionIndex != nil {
		fn := mi.Function(*m.StartFunctionIndex)
		if err := runStart(fn); err != nil {
			return nil, err
		}
	}

	store.Register(mi)
	return mi, nil
}

func checkLimitsSatisfy(required, actual Limits) error {
	if actual.Min < required.Min {
		return fmt.Errorf("actual minimum %d is less than required minimum %d", actual.Min, required.Min)
	}
	if required.Max != nil {
		if actual.Max == nil || *actual.Max > *required.Max {
			return fmt.Errorf("actual maximum exceeds required maximum %d", *required.Max)
		}
	}
	return nil
}

func applyElementSegment(table *TableInstance, offset uint32, values []uint64) error {
	n := uint32(len(values))
	if uint64(offset)+uint64(n) > uint64(len(table.Elements)) {
		return NewTrap(TrapOutOfBoundsTableAccess)
	}
	copy(table.Elements[offset:], values)
	return nil
}

func applyDataSegment(mem *MemInstance, offset uint32, data []byte) error {
	n := uint32(len(data))
	if uint64(offset)+uint64(n) > uint64(len(mem.Buffer)) {
		return NewTrap(TrapOutOfBoundsMemoryAccess)
	}
	copy(mem.Buffer[offset:], data)
	return nil
}

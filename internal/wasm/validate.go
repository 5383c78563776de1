package wasm

import (
	"fmt"

	"github.com/wazevm/wazevm/api"
)

// stackType is an operand-stack entry: a value type, or the polymorphic
// "any" type that appears after an unconditional branch
// (go-interpreter/wagon's validate.go models the same polymorphic-bottom
// trick; see DESIGN.md).
type stackType struct {
	valType api.ValueType
	any     bool
}

func concrete(t api.ValueType) stackType { return stackType{valType: t} }

var anyType = stackType{any: true}

// controlFrame tracks one nested block/loop/if/function for validation.
type controlFrame struct {
	opcode      Opcode
	startTypes  []api.ValueType // params visible entering the block (loop target)
	endTypes    []api.ValueType // result types, yielded at End or by br
	height      int             // operand-stack height at block entry
	unreachable bool
	sawElse     bool
}

// funcValidator walks one function body maintaining the abstract operand
// stack and control-frame stack described in spec.md §4.2.
type funcValidator struct {
	m        *Module
	features Features

	locals  []api.ValueType
	stack   []stackType
	frames  []controlFrame

	err *ValidationError
}

// ValidateModule performs every structural and type check spec.md §4.2
// requires: index range checks, instruction operand typing, constant
// expression shape, section-count agreement, export-name uniqueness.
func ValidateModule(m *Module, features Features) error {
	if len(m.FunctionTypeIndexes) != len(m.Functions) {
		return &ValidationError{Kind: ValidationFunctionCodeCountMismatch, Section: SectionIDCode, Node: NodeAttrSegCode,
			Message: "function and code section entry counts differ"}
	}
	for _, ti := range m.FunctionTypeIndexes {
		if int(ti) >= len(m.Types) {
			return &ValidationError{Kind: ValidationUnknownIndex, Section: SectionIDFunction, Node: NodeAttrTypeFunction,
				Message: fmt.Sprintf("type index %d out of range", ti)}
		}
	}
	if err := validateImports(m); err != nil {
		return err
	}
	if err := validateTablesAndMemories(m); err != nil {
		return err
	}
	if err := validateGlobals(m, features); err != nil {
		return err
	}
	if err := validateExports(m); err != nil {
		return err
	}
	if err := validateStart(m); err != nil {
		return err
	}
	if err := validateElementsAndData(m, features); err != nil {
		return err
	}
	for i := range m.Functions {
		if err := validateFunction(m, i, features); err != nil {
			return err
		}
	}
	return nil
}

func validateImports(m *Module) error {
	for _, imp := range m.Imports {
		switch imp.Kind {
		case api.ExternTypeFunc:
			if int(imp.FuncTypeIndex) >= len(m.Types) {
				return &ValidationError{Kind: ValidationUnknownIndex, Section: SectionIDImport, Node: NodeAttrDescImport,
					Message: fmt.Sprintf("import %s.%s: type index %d out of range", imp.Module, imp.Name, imp.FuncTypeIndex)}
			}
		case api.ExternTypeTable, api.ExternTypeMemory, api.ExternTypeGlobal:
			// limits already range-checked at decode time.
		default:
			return &ValidationError{Kind: ValidationOther, Section: SectionIDImport, Node: NodeAttrDescImport,
				Message: "unknown import kind"}
		}
	}
	return nil
}

func validateLimits(l Limits, ceiling uint32, section SectionID) error {
	if l.Max != nil && *l.Max < l.Min {
		return &ValidationError{Kind: ValidationInvalidLimits, Section: section, Node: NodeAttrTypeLimit,
			Message: "max is less than min"}
	}
	if l.Min > ceiling || (l.Max != nil && *l.Max > ceiling) {
		return &ValidationError{Kind: ValidationInvalidLimits, Section: section, Node: NodeAttrTypeLimit,
			Message: "limits exceed the implementation ceiling"}
	}
	return nil
}

func validateTablesAndMemories(m *Module) error {
	for _, t := range m.Tables {
		if err := validateLimits(t.Limits, 0xFFFFFFFF, SectionIDTable); err != nil {
			return err
		}
	}
	if len(m.Memories)+m.NumMemoryImports() > 1 {
		return &ValidationError{Kind: ValidationOther, Section: SectionIDMemory, Node: NodeAttrTypeMemory,
			Message: "multiple memories are not supported (multi-memory is a Non-goal)"}
	}
	for _, mt := range m.Memories {
		if err := validateLimits(mt.Limits, MaxPages, SectionIDMemory); err != nil {
			return err
		}
	}
	return nil
}

func validateGlobals(m *Module, features Features) error {
	for i, g := range m.Globals {
		if err := validateConstExpr(m, g.Init, g.Type.ValType, features); err != nil {
			_ = i
			return err
		}
	}
	return nil
}

func validateConstExpr(m *Module, c ConstExpr, want api.ValueType, features Features) error {
	if len(c.Instructions) != 1 {
		return &ValidationError{Kind: ValidationInvalidConstExpr, Section: SectionIDGlobal, Node: NodeAttrExpression,
			Message: "constant expressions must contain exactly one instruction before end"}
	}
	ins := c.Instructions[0]
	var got api.ValueType
	switch ins.Opcode {
	case OpI32Const:
		got = api.ValueTypeI32
	case OpI64Const:
		got = api.ValueTypeI64
	case OpF32Const:
		got = api.ValueTypeF32
	case OpF64Const:
		got = api.ValueTypeF64
	case OpGlobalGet:
		idx := ins.Index
		if int(idx) >= m.NumGlobalImports() {
			return &ValidationError{Kind: ValidationMutableGlobalInConstExpr, Section: SectionIDGlobal, Node: NodeAttrExpression,
				Message: "global.get in a constant expression must reference an imported global"}
		}
		var gi int
		found := false
		for _, imp := range m.Imports {
			if imp.Kind != api.ExternTypeGlobal {
				continue
			}
			if uint32(gi) == idx {
				if imp.Global.Mutable {
					return &ValidationError{Kind: ValidationMutableGlobalInConstExpr, Section: SectionIDGlobal, Node: NodeAttrExpression,
						Message: "constant expression referenced a mutable global"}
				}
				got = imp.Global.ValType
				found = true
				break
			}
			gi++
		}
		if !found {
			return &ValidationError{Kind: ValidationUnknownIndex, Section: SectionIDGlobal, Node: NodeAttrExpression,
				Message: "global index out of range in constant expression"}
		}
	case OpRefNull:
		got = ins.RefType
	case OpRefFunc:
		if !features.ReferenceTypes {
			return &ValidationError{Kind: ValidationOther, Section: SectionIDGlobal, Node: NodeAttrExpression,
				Message: "ref.func requires reference-types"}
		}
		got = api.ValueTypeFuncref
	default:
		return &ValidationError{Kind: ValidationInvalidConstExpr, Section: SectionIDGlobal, Node: NodeAttrExpression,
			Message: "instruction is not valid in a constant expression"}
	}
	if want != 0 && got != want && !(api.IsReferenceType(want) && got == want) {
		if got != want {
			return &ValidationError{Kind: ValidationTypeMismatch, Section: SectionIDGlobal, Node: NodeAttrExpression,
				Message: fmt.Sprintf("constant expression type %s does not match expected %s", api.ValueTypeName(got), api.ValueTypeName(want))}
		}
	}
	return nil
}

func validateExports(m *Module) error {
	seen := map[string]bool{}
	for _, e := range m.Exports {
		if seen[e.Name] {
			return &ValidationError{Kind: ValidationDuplicateExport, Section: SectionIDExport, Node: NodeAttrDescExport,
				Message: fmt.Sprintf("duplicate export name %q", e.Name)}
		}
		seen[e.Name] = true
		var count int
		switch e.Kind {
		case api.ExternTypeFunc:
			count = m.NumFuncImports() + len(m.Functions)
		case api.ExternTypeTable:
			count = m.NumTableImports() + len(m.Tables)
		case api.ExternTypeMemory:
			count = m.NumMemoryImports() + len(m.Memories)
		case api.ExternTypeGlobal:
			count = m.NumGlobalImports() + len(m.Globals)
		}
		if int(e.Index) >= count {
			return &ValidationError{Kind: ValidationUnknownIndex, Section: SectionIDExport, Node: NodeAttrDescExport,
				Message: fmt.Sprintf("export %q index %d out of range", e.Name, e.Index)}
		}
	}
	return nil
}

func validateStart(m *Module) error {
	if m.StartFunctionIndex == nil {
		return nil
	}
	idx := *m.StartFunctionIndex
	ft := m.TypeOfFunctionIndex(idx)
	if ft == nil {
		return &ValidationError{Kind: ValidationInvalidStart, Section: SectionIDStart, Node: NodeAttrModule,
			Message: "start function index out of range"}
	}
	if len(ft.Params) != 0 || len(ft.Results) != 0 {
		return &ValidationError{Kind: ValidationInvalidStart, Section: SectionIDStart, Node: NodeAttrModule,
			Message: "start function must have type ()->()"}
	}
	return nil
}

func validateElementsAndData(m *Module, features Features) error {
	for _, seg := range m.Elements {
		if seg.Mode == ElementModeActive {
			if int(seg.TableIndex) >= len(m.Tables)+m.NumTableImports() {
				return &ValidationError{Kind: ValidationUnknownIndex, Section: SectionIDElement, Node: NodeAttrSegElement,
					Message: "table index out of range"}
			}
			if err := validateConstExpr(m, seg.Offset, api.ValueTypeI32, features); err != nil {
				return err
			}
		}
		for _, init := range seg.Init {
			if err := validateConstExpr(m, init, seg.Type, features); err != nil {
				return err
			}
		}
	}
	if !features.BulkMemory && len(m.Data) > 0 {
		for _, seg := range m.Data {
			if seg.Mode == DataModePassive {
				return &ValidationError{Kind: ValidationOther, Section: SectionIDData, Node: NodeAttrSegData,
					Message: "passive data segments require bulk-memory"}
			}
		}
	}
	for _, seg := range m.Data {
		if seg.Mode == DataModeActive {
			if int(seg.MemIndex) >= len(m.Memories)+m.NumMemoryImports() {
				return &ValidationError{Kind: ValidationUnknownIndex, Section: SectionIDData, Node: NodeAttrSegData,
					Message: "memory index out of range"}
			}
			if err := validateConstExpr(m, seg.Offset, api.ValueTypeI32, features); err != nil {
				return err
			}
		}
	}
	if m.DataCount != nil && int(*m.DataCount) != len(m.Data) {
		return &ValidationError{Kind: ValidationOther, Section: SectionIDDataCount, Node: NodeAttrModule,
			Message: "data count section disagrees with data section entry count"}
	}
	return nil
}

// validateFunction type-checks one function body against its declared
// signature, assuming well-typed locals (spec.md §3 invariant 3).
func validateFunction(m *Module, funcIdx int, features Features) error {
	fn := &m.Functions[funcIdx]
	ft := &m.Types[m.FunctionTypeIndexes[funcIdx]]

	locals := append([]api.ValueType{}, ft.Params...)
	for _, g := range fn.Locals {
		for i := uint32(0); i < g.Count; i++ {
			locals = append(locals, g.ValType)
		}
	}

	v := &funcValidator{m: m, features: features, locals: locals}
	v.pushFrame(controlFrame{opcode: OpBlock, endTypes: ft.Results, height: 0})
	if err := v.validateSequence(fn.Body); err != nil {
		return err
	}
	return nil
}

func (v *funcValidator) pushFrame(f controlFrame) { v.frames = append(v.frames, f) }

func (v *funcValidator) topFrame() *controlFrame { return &v.frames[len(v.frames)-1] }

func (v *funcValidator) push(t api.ValueType) { v.stack = append(v.stack, concrete(t)) }

func (v *funcValidator) pushAny() { v.stack = append(v.stack, anyType) }

func (v *funcValidator) markUnreachable() {
	f := v.topFrame()
	v.stack = v.stack[:f.height]
	f.unreachable = true
}

func (v *funcValidator) fail(format string, args ...interface{}) error {
	return &ValidationError{Kind: ValidationTypeMismatch, Section: SectionIDCode, Node: NodeAttrInstruction,
		Message: fmt.Sprintf(format, args...)}
}

func (v *funcValidator) pop() (stackType, error) {
	f := v.topFrame()
	if len(v.stack) == f.height {
		if f.unreachable {
			return anyType, nil
		}
		return stackType{}, v.fail("operand stack underflow")
	}
	top := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return top, nil
}

func (v *funcValidator) popExpect(want api.ValueType) error {
	got, err := v.pop()
	if err != nil {
		return err
	}
	if got.any {
		return nil
	}
	if got.valType != want {
		return v.fail("expected %s, got %s", api.ValueTypeName(want), api.ValueTypeName(got.valType))
	}
	return nil
}

func (v *funcValidator) validateSequence(body []Instruction) error {
	for i := range body {
		if err := v.validateInstruction(&body[i]); err != nil {
			return err
		}
	}
	return v.popFrameAtEnd()
}

func (v *funcValidator) popFrameAtEnd() error {
	f := v.topFrame()
	for _, want := range reverse(f.endTypes) {
		if err := v.popExpect(want); err != nil {
			return err
		}
	}
	if len(v.stack) != f.height {
		return v.fail("unconsumed values remain at end of block")
	}
	v.frames = v.frames[:len(v.frames)-1]
	for _, t := range f.endTypes {
		v.push(t)
	}
	return nil
}

func reverse(ts []api.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(ts))
	for i, t := range ts {
		out[len(ts)-1-i] = t
	}
	return out
}

func (v *funcValidator) blockTypes(bt BlockType) (params, results []api.ValueType, err error) {
	switch bt.Kind {
	case BlockTypeEmpty:
		return nil, nil, nil
	case BlockTypeValue:
		return nil, []api.ValueType{bt.ValType}, nil
	case BlockTypeIndexed:
		if int(bt.TypeIndex) >= len(v.m.Types) {
			return nil, nil, v.fail("block type index %d out of range", bt.TypeIndex)
		}
		ft := v.m.Types[bt.TypeIndex]
		return ft.Params, ft.Results, nil
	}
	return nil, nil, nil
}

func (v *funcValidator) validateInstruction(ins *Instruction) error {
	switch ins.Opcode {
	case OpUnreachable:
		v.markUnreachable()
	case OpNop:
	case OpBlock, OpLoop:
		params, results, err := v.blockTypes(ins.Block)
		if err != nil {
			return err
		}
		for _, p := range reverse(params) {
			if err := v.popExpect(p); err != nil {
				return err
			}
		}
		height := len(v.stack)
		for _, p := range params {
			v.push(p)
		}
		v.pushFrame(controlFrame{opcode: ins.Opcode, startTypes: params, endTypes: results, height: height})
		if err := v.validateSequence(ins.Body); err != nil {
			return err
		}
	case OpIf:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		params, results, err := v.blockTypes(ins.Block)
		if err != nil {
			return err
		}
		for _, p := range reverse(params) {
			if err := v.popExpect(p); err != nil {
				return err
			}
		}
		height := len(v.stack)
		for _, p := range params {
			v.push(p)
		}
		v.pushFrame(controlFrame{opcode: OpIf, startTypes: params, endTypes: results, height: height})
		if err := v.validateSequence(ins.Body); err != nil {
			return err
		}
		if ins.Else != nil {
			// The then-branch's popFrameAtEnd left `results` sitting on the
			// stack at `height`; rewind to height and re-enter with the
			// same params so the else-branch is checked against the same
			// starting point as the then-branch was.
			v.stack = v.stack[:height]
			for _, p := range params {
				v.push(p)
			}
			v.pushFrame(controlFrame{opcode: OpElse, startTypes: params, endTypes: results, height: height})
			if err := v.validateSequence(ins.Else); err != nil {
				return err
			}
		} else if len(results) != 0 {
			return v.fail("if without else cannot produce results")
		}
	case OpBr:
		return v.validateBranch(ins.LabelIndex)
	case OpBrIf:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		return v.validateBranchNonTerminal(ins.LabelIndex)
	case OpBrTable:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		for _, l := range ins.LabelTable {
			if err := v.validateBranchNonTerminal(l); err != nil {
				return err
			}
		}
		if err := v.validateBranch(ins.DefaultIdx); err != nil {
			return err
		}
	case OpReturn:
		frameFunc := v.frames[0]
		for _, want := range reverse(frameFunc.endTypes) {
			if err := v.popExpect(want); err != nil {
				return err
			}
		}
		v.markUnreachable()
	case OpCall:
		ft := v.m.TypeOfFunctionIndex(ins.Index)
		if ft == nil {
			return v.fail("call: function index %d out of range", ins.Index)
		}
		if err := v.applySignature(ft); err != nil {
			return err
		}
	case OpCallIndirect:
		if int(ins.Index) >= len(v.m.Types) {
			return v.fail("call_indirect: type index %d out of range", ins.Index)
		}
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		ft := &v.m.Types[ins.Index]
		if err := v.applySignature(ft); err != nil {
			return err
		}
	case OpRefNull:
		v.push(ins.RefType)
	case OpRefIsNull:
		got, err := v.pop()
		if err != nil {
			return err
		}
		if !got.any && !api.IsReferenceType(got.valType) {
			return v.fail("ref.is_null expects a reference type")
		}
		v.push(api.ValueTypeI32)
	case OpRefFunc:
		v.push(api.ValueTypeFuncref)
	case OpDrop:
		if _, err := v.pop(); err != nil {
			return err
		}
	case OpSelect:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		b, err := v.pop()
		if err != nil {
			return err
		}
		a, err := v.pop()
		if err != nil {
			return err
		}
		if !a.any && api.IsReferenceType(a.valType) {
			return v.fail("select without an explicit type cannot be used with reference types")
		}
		if !a.any && !b.any && a.valType != b.valType {
			return v.fail("select operands must have the same type")
		}
		if a.any {
			a = b
		}
		v.stack = append(v.stack, a)
	case OpSelectT:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		if len(ins.SelectTypes) != 1 {
			return v.fail("select with explicit types supports exactly one result type")
		}
		want := ins.SelectTypes[0]
		if err := v.popExpect(want); err != nil {
			return err
		}
		if err := v.popExpect(want); err != nil {
			return err
		}
		v.push(want)
	case OpLocalGet:
		t, err := v.localType(ins.Index)
		if err != nil {
			return err
		}
		v.push(t)
	case OpLocalSet:
		t, err := v.localType(ins.Index)
		if err != nil {
			return err
		}
		return v.popExpect(t)
	case OpLocalTee:
		t, err := v.localType(ins.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(t); err != nil {
			return err
		}
		v.push(t)
	case OpGlobalGet:
		t, err := v.globalType(ins.Index)
		if err != nil {
			return err
		}
		v.push(t)
	case OpGlobalSet:
		t, mutable, err := v.globalTypeMut(ins.Index)
		if err != nil {
			return err
		}
		if !mutable {
			return v.fail("global.set on an immutable global")
		}
		return v.popExpect(t)
	case OpTableGet:
		tt, err := v.tableType(ins.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		v.push(tt)
	case OpTableSet:
		tt, err := v.tableType(ins.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(tt); err != nil {
			return err
		}
		return v.popExpect(api.ValueTypeI32)
	case OpTableGrow:
		tt, err := v.tableType(ins.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		if err := v.popExpect(tt); err != nil {
			return err
		}
		v.push(api.ValueTypeI32)
	case OpTableSize:
		if _, err := v.tableType(ins.Index); err != nil {
			return err
		}
		v.push(api.ValueTypeI32)
	case OpTableFill:
		tt, err := v.tableType(ins.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		if err := v.popExpect(tt); err != nil {
			return err
		}
		return v.popExpect(api.ValueTypeI32)
	case OpTableInit, OpTableCopy:
		tableIdx := ins.Index
		if ins.Opcode == OpTableInit {
			tableIdx = ins.Index2
		}
		if _, err := v.tableType(tableIdx); err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if err := v.popExpect(api.ValueTypeI32); err != nil {
				return err
			}
		}
	case OpElemDrop:
		if int(ins.Index) >= len(v.m.Elements) {
			return v.fail("elem.drop: index out of range")
		}
	case OpMemorySize:
		v.push(api.ValueTypeI32)
	case OpMemoryGrow:
		if err := v.popExpect(api.ValueTypeI32); err != nil {
			return err
		}
		v.push(api.ValueTypeI32)
	case OpMemoryInit:
		if int(ins.Index) >= len(v.m.Data) {
			return v.fail("memory.init: data index out of range")
		}
		for i := 0; i < 3; i++ {
			if err := v.popExpect(api.ValueTypeI32); err != nil {
				return err
			}
		}
	case OpDataDrop:
		if int(ins.Index) >= len(v.m.Data) {
			return v.fail("data.drop: index out of range")
		}
	case OpMemoryCopy, OpMemoryFill:
		for i := 0; i < 3; i++ {
			if err := v.popExpect(api.ValueTypeI32); err != nil {
				return err
			}
		}
	case OpI32Const:
		v.push(api.ValueTypeI32)
	case OpI64Const:
		v.push(api.ValueTypeI64)
	case OpF32Const:
		v.push(api.ValueTypeF32)
	case OpF64Const:
		v.push(api.ValueTypeF64)
	default:
		return v.validateNumericOrMemOrSIMD(ins)
	}
	return nil
}

func (v *funcValidator) validateBranch(label uint32) error {
	if int(label) >= len(v.frames) {
		return v.fail("branch depth %d exceeds nesting", label)
	}
	target := &v.frames[len(v.frames)-1-int(label)]
	types := target.endTypes
	if target.opcode == OpLoop {
		types = target.startTypes
	}
	for _, want := range reverse(types) {
		if err := v.popExpect(want); err != nil {
			return err
		}
	}
	for _, t := range types {
		v.push(t)
	}
	v.markUnreachable()
	return nil
}

// validateBranchNonTerminal checks a br_table arm without marking the
// current frame unreachable (only the implicit fallthrough after br_table
// itself does that).
func (v *funcValidator) validateBranchNonTerminal(label uint32) error {
	if int(label) >= len(v.frames) {
		return v.fail("branch depth %d exceeds nesting", label)
	}
	target := &v.frames[len(v.frames)-1-int(label)]
	types := target.endTypes
	if target.opcode == OpLoop {
		types = target.startTypes
	}
	// Peek without mutating: snapshot and restore.
	saved := append([]stackType{}, v.stack...)
	for _, want := range reverse(types) {
		if err := v.popExpect(want); err != nil {
			v.stack = saved
			return err
		}
	}
	v.stack = saved
	return nil
}

func (v *funcValidator) applySignature(ft *FunctionType) error {
	for _, p := range reverse(ft.Params) {
		if err := v.popExpect(p); err != nil {
			return err
		}
	}
	for _, r := range ft.Results {
		v.push(r)
	}
	return nil
}

func (v *funcValidator) localType(idx uint32) (api.ValueType, error) {
	if int(idx) >= len(v.locals) {
		return 0, v.fail("local index %d out of range", idx)
	}
	return v.locals[idx], nil
}

func (v *funcValidator) globalType(idx uint32) (api.ValueType, error) {
	t, _, err := v.globalTypeMut(idx)
	return t, err
}

func (v *funcValidator) globalTypeMut(idx uint32) (api.ValueType, bool, error) {
	numImports := v.m.NumGlobalImports()
	if int(idx) < numImports {
		var i int
		for _, imp := range v.m.Imports {
			if imp.Kind != api.ExternTypeGlobal {
				continue
			}
			if i == int(idx) {
				return imp.Global.ValType, imp.Global.Mutable, nil
			}
			i++
		}
	}
	local := int(idx) - numImports
	if local < 0 || local >= len(v.m.Globals) {
		return 0, false, v.fail("global index %d out of range", idx)
	}
	g := v.m.Globals[local]
	return g.Type.ValType, g.Type.Mutable, nil
}

func (v *funcValidator) tableType(idx uint32) (api.ValueType, error) {
	numImports := v.m.NumTableImports()
	if int(idx) < numImports {
		var i int
		for _, imp := range v.m.Imports {
			if imp.Kind != api.ExternTypeTable {
				continue
			}
			if i == int(idx) {
				return imp.Table.ElemType, nil
			}
			i++
		}
	}
	local := int(idx) - numImports
	if local < 0 || local >= len(v.m.Tables) {
		return 0, v.fail("table index %d out of range", idx)
	}
	return v.m.Tables[local].ElemType, nil
}

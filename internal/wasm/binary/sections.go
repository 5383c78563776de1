package binary

import (
	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/internal/leb128"
	"github.com/wazevm/wazevm/internal/wasm"
)

func (d *decoder) decodeTypeSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDType)
	if err != nil {
		return err
	}
	d.m.Types = make([]wasm.FunctionType, 0, n)
	for i := uint32(0); i < n; i++ {
		form, err := s.ReadByte()
		if err != nil {
			return loadErr(s, wasm.SectionIDType, wasm.UnexpectedEnd, "truncated type")
		}
		if form != 0x60 {
			return loadErr(s, wasm.SectionIDType, wasm.InvalidGrammar, "function type form byte %#x", form)
		}
		params, err := readValTypeVec(s, wasm.SectionIDType)
		if err != nil {
			return err
		}
		results, err := readValTypeVec(s, wasm.SectionIDType)
		if err != nil {
			return err
		}
		d.m.Types = append(d.m.Types, wasm.FunctionType{Params: params, Results: results})
	}
	return nil
}

func readValTypeVec(s *source, section wasm.SectionID) ([]api.ValueType, error) {
	n, err := readU32(s, section)
	if err != nil {
		return nil, err
	}
	out := make([]api.ValueType, n)
	for i := range out {
		vt, err := readValType(s, section)
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}

func (d *decoder) decodeImportSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDImport)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mod, err := readName(s, wasm.SectionIDImport)
		if err != nil {
			return err
		}
		field, err := readName(s, wasm.SectionIDImport)
		if err != nil {
			return err
		}
		kind, err := s.ReadByte()
		if err != nil {
			return loadErr(s, wasm.SectionIDImport, wasm.UnexpectedEnd, "truncated import descriptor")
		}
		imp := wasm.Import{Module: mod, Name: field, Kind: kind}
		switch kind {
		case api.ExternTypeFunc:
			ti, err := readU32(s, wasm.SectionIDImport)
			if err != nil {
				return err
			}
			imp.FuncTypeIndex = ti
		case api.ExternTypeTable:
			tt, err := d.readTableType(s)
			if err != nil {
				return err
			}
			imp.Table = tt
		case api.ExternTypeMemory:
			mt, err := d.readMemoryType(s)
			if err != nil {
				return err
			}
			imp.Memory = mt
		case api.ExternTypeGlobal:
			gt, err := readGlobalType(s)
			if err != nil {
				return err
			}
			imp.Global = gt
		default:
			return loadErr(s, wasm.SectionIDImport, wasm.InvalidGrammar, "import descriptor kind %#x", kind)
		}
		d.m.Imports = append(d.m.Imports, imp)
	}
	return nil
}

func (d *decoder) readTableType(s *source) (wasm.TableType, error) {
	et, err := readValType(s, wasm.SectionIDTable)
	if err != nil {
		return wasm.TableType{}, err
	}
	if !api.IsReferenceType(et) {
		return wasm.TableType{}, loadErr(s, wasm.SectionIDTable, wasm.InvalidGrammar, "table element type must be a reference type")
	}
	l, err := readLimits(s, wasm.SectionIDTable, 0xFFFFFFFF)
	if err != nil {
		return wasm.TableType{}, err
	}
	return wasm.TableType{ElemType: et, Limits: l}, nil
}

func (d *decoder) readMemoryType(s *source) (wasm.MemoryType, error) {
	l, err := readLimits(s, wasm.SectionIDMemory, wasm.MaxPages)
	if err != nil {
		return wasm.MemoryType{}, err
	}
	return wasm.MemoryType{Limits: l}, nil
}

func readGlobalType(s *source) (wasm.GlobalType, error) {
	vt, err := readValType(s, wasm.SectionIDGlobal)
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mutByte, err := s.ReadByte()
	if err != nil {
		return wasm.GlobalType{}, loadErr(s, wasm.SectionIDGlobal, wasm.UnexpectedEnd, "truncated global mutability")
	}
	if mutByte > 1 {
		return wasm.GlobalType{}, loadErr(s, wasm.SectionIDGlobal, wasm.InvalidGrammar, "invalid global mutability %#x", mutByte)
	}
	return wasm.GlobalType{ValType: vt, Mutable: mutByte == 1}, nil
}

func (d *decoder) decodeFunctionSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDFunction)
	if err != nil {
		return err
	}
	d.m.FunctionTypeIndexes = make([]uint32, n)
	for i := range d.m.FunctionTypeIndexes {
		ti, err := readU32(s, wasm.SectionIDFunction)
		if err != nil {
			return err
		}
		d.m.FunctionTypeIndexes[i] = ti
	}
	return nil
}

func (d *decoder) decodeTableSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDTable)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tt, err := d.readTableType(s)
		if err != nil {
			return err
		}
		d.m.Tables = append(d.m.Tables, tt)
	}
	return nil
}

func (d *decoder) decodeMemorySection(s *source) error {
	n, err := readU32(s, wasm.SectionIDMemory)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mt, err := d.readMemoryType(s)
		if err != nil {
			return err
		}
		d.m.Memories = append(d.m.Memories, mt)
	}
	return nil
}

func (d *decoder) decodeGlobalSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDGlobal)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		gt, err := readGlobalType(s)
		if err != nil {
			return err
		}
		init, err := d.readConstExpr(s, wasm.SectionIDGlobal)
		if err != nil {
			return err
		}
		d.m.Globals = append(d.m.Globals, struct {
			Type wasm.GlobalType
			Init wasm.ConstExpr
		}{Type: gt, Init: init})
	}
	return nil
}

func (d *decoder) decodeExportSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDExport)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		name, err := readName(s, wasm.SectionIDExport)
		if err != nil {
			return err
		}
		kind, err := s.ReadByte()
		if err != nil {
			return loadErr(s, wasm.SectionIDExport, wasm.UnexpectedEnd, "truncated export descriptor")
		}
		idx, err := readU32(s, wasm.SectionIDExport)
		if err != nil {
			return err
		}
		d.m.Exports = append(d.m.Exports, wasm.Export{Name: name, Kind: kind, Index: idx})
	}
	return nil
}

func (d *decoder) decodeStartSection(s *source) error {
	idx, err := readU32(s, wasm.SectionIDStart)
	if err != nil {
		return err
	}
	d.m.StartFunctionIndex = &idx
	return nil
}

func (d *decoder) decodeElementSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDElement)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		flag, err := readU32(s, wasm.SectionIDElement)
		if err != nil {
			return err
		}
		seg := wasm.ElementSegment{Type: api.ValueTypeFuncref}
		switch flag {
		case 0: // active, table 0, funcref, func-index init list
			off, err := d.readConstExpr(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Mode = wasm.ElementModeActive
			seg.Offset = off
			idxs, err := readFuncIndexVec(s)
			if err != nil {
				return err
			}
			seg.Init = funcIndexesToConstExprs(idxs)
		case 1: // passive, elemkind, func-index init list
			if _, err := s.ReadByte(); err != nil { // elemkind, always 0x00 (funcref)
				return loadErr(s, wasm.SectionIDElement, wasm.UnexpectedEnd, "truncated elemkind")
			}
			seg.Mode = wasm.ElementModePassive
			idxs, err := readFuncIndexVec(s)
			if err != nil {
				return err
			}
			seg.Init = funcIndexesToConstExprs(idxs)
		case 2: // active, explicit table index, elemkind, func-index list
			ti, err := readU32(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			off, err := d.readConstExpr(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			if _, err := s.ReadByte(); err != nil {
				return loadErr(s, wasm.SectionIDElement, wasm.UnexpectedEnd, "truncated elemkind")
			}
			seg.Mode = wasm.ElementModeActive
			seg.TableIndex = ti
			seg.Offset = off
			idxs, err := readFuncIndexVec(s)
			if err != nil {
				return err
			}
			seg.Init = funcIndexesToConstExprs(idxs)
		case 3: // declarative, elemkind, func-index list
			if _, err := s.ReadByte(); err != nil {
				return loadErr(s, wasm.SectionIDElement, wasm.UnexpectedEnd, "truncated elemkind")
			}
			seg.Mode = wasm.ElementModeDeclarative
			idxs, err := readFuncIndexVec(s)
			if err != nil {
				return err
			}
			seg.Init = funcIndexesToConstExprs(idxs)
		case 4: // active, table 0, funcref, expr init list
			off, err := d.readConstExpr(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Mode = wasm.ElementModeActive
			seg.Offset = off
			init, err := d.readConstExprVec(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Init = init
		case 5: // passive, reftype, expr init list
			et, err := readValType(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Mode = wasm.ElementModePassive
			seg.Type = et
			init, err := d.readConstExprVec(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Init = init
		case 6: // active, explicit table index, reftype, expr init list
			ti, err := readU32(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			off, err := d.readConstExpr(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			et, err := readValType(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Mode = wasm.ElementModeActive
			seg.TableIndex = ti
			seg.Offset = off
			seg.Type = et
			init, err := d.readConstExprVec(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Init = init
		case 7: // declarative, reftype, expr init list
			et, err := readValType(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Mode = wasm.ElementModeDeclarative
			seg.Type = et
			init, err := d.readConstExprVec(s, wasm.SectionIDElement)
			if err != nil {
				return err
			}
			seg.Init = init
		default:
			return loadErr(s, wasm.SectionIDElement, wasm.InvalidGrammar, "unknown element segment flag %d", flag)
		}
		d.m.Elements = append(d.m.Elements, seg)
	}
	return nil
}

func readFuncIndexVec(s *source) ([]uint32, error) {
	n, err := readU32(s, wasm.SectionIDElement)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		idx, err := readU32(s, wasm.SectionIDElement)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

func funcIndexesToConstExprs(idxs []uint32) []wasm.ConstExpr {
	out := make([]wasm.ConstExpr, len(idxs))
	for i, idx := range idxs {
		out[i] = wasm.ConstExpr{Instructions: []wasm.Instruction{{Opcode: wasm.OpRefFunc, Index: idx}}}
	}
	return out
}

func (d *decoder) readConstExprVec(s *source, section wasm.SectionID) ([]wasm.ConstExpr, error) {
	n, err := readU32(s, section)
	if err != nil {
		return nil, err
	}
	out := make([]wasm.ConstExpr, n)
	for i := range out {
		ce, err := d.readConstExpr(s, section)
		if err != nil {
			return nil, err
		}
		out[i] = ce
	}
	return out, nil
}

func (d *decoder) decodeCodeSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDCode)
	if err != nil {
		return err
	}
	if int(n) != len(d.m.FunctionTypeIndexes) {
		return loadErr(s, wasm.SectionIDCode, wasm.InvalidGrammar, "code section count %d disagrees with function section count %d", n, len(d.m.FunctionTypeIndexes))
	}
	d.m.Functions = make([]wasm.Function, n)
	for i := uint32(0); i < n; i++ {
		size, err := readU32(s, wasm.SectionIDCode)
		if err != nil {
			return err
		}
		body, err := s.readBytes(size)
		if err != nil {
			return loadErr(s, wasm.SectionIDCode, wasm.UnexpectedEnd, "truncated code entry")
		}
		fs := newSource(body)
		fn, err := d.decodeFunctionBody(fs)
		if err != nil {
			return err
		}
		if !fs.atEnd() {
			return loadErr(fs, wasm.SectionIDCode, wasm.SectionSizeMismatch, "function body has trailing bytes")
		}
		d.m.Functions[i] = fn
	}
	return nil
}

func (d *decoder) decodeFunctionBody(s *source) (wasm.Function, error) {
	numGroups, err := readU32(s, wasm.SectionIDCode)
	if err != nil {
		return wasm.Function{}, err
	}
	var fn wasm.Function
	for i := uint32(0); i < numGroups; i++ {
		count, err := readU32(s, wasm.SectionIDCode)
		if err != nil {
			return wasm.Function{}, err
		}
		vt, err := readValType(s, wasm.SectionIDCode)
		if err != nil {
			return wasm.Function{}, err
		}
		fn.Locals = append(fn.Locals, wasm.LocalGroup{Count: count, ValType: vt})
		fn.NumLocals += count
	}
	body, err := d.decodeInstructionSequence(s, wasm.SectionIDCode)
	if err != nil {
		return wasm.Function{}, err
	}
	fn.Body = body
	return fn, nil
}

func (d *decoder) decodeDataSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDData)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		flag, err := readU32(s, wasm.SectionIDData)
		if err != nil {
			return err
		}
		var seg wasm.DataSegment
		switch flag {
		case 0:
			off, err := d.readConstExpr(s, wasm.SectionIDData)
			if err != nil {
				return err
			}
			seg.Mode = wasm.DataModeActive
			seg.Offset = off
		case 1:
			seg.Mode = wasm.DataModePassive
		case 2:
			mi, err := readU32(s, wasm.SectionIDData)
			if err != nil {
				return err
			}
			off, err := d.readConstExpr(s, wasm.SectionIDData)
			if err != nil {
				return err
			}
			seg.Mode = wasm.DataModeActive
			seg.MemIndex = mi
			seg.Offset = off
		default:
			return loadErr(s, wasm.SectionIDData, wasm.InvalidGrammar, "unknown data segment flag %d", flag)
		}
		size, err := readU32(s, wasm.SectionIDData)
		if err != nil {
			return err
		}
		b, err := s.readBytes(size)
		if err != nil {
			return loadErr(s, wasm.SectionIDData, wasm.UnexpectedEnd, "truncated data segment")
		}
		seg.Init = append([]byte{}, b...)
		d.m.Data = append(d.m.Data, seg)
	}
	return nil
}

func (d *decoder) decodeDataCountSection(s *source) error {
	n, err := readU32(s, wasm.SectionIDDataCount)
	if err != nil {
		return err
	}
	d.m.DataCount = &n
	return nil
}

// leb-backed signed int read helper shared by const-expr/instruction
// decoding.
func readI32(s *source, section wasm.SectionID) (int32, error) {
	v, _, err := leb128.DecodeInt32(s)
	if err != nil {
		return 0, toLoadErr(s, section, err)
	}
	return v, nil
}

func readI64(s *source, section wasm.SectionID) (int64, error) {
	v, _, err := leb128.DecodeInt64(s)
	if err != nil {
		return 0, toLoadErr(s, section, err)
	}
	return v, nil
}

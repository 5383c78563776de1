// Package binary implements the WebAssembly binary format decoder and
// encoder described in spec.md §4.1: a streaming, bounds-checked reader
// that produces the immutable wasm.Module AST.
package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/internal/leb128"
	"github.com/wazevm/wazevm/internal/wasm"
)

var (
	magic   = [4]byte{0x00, 0x61, 0x73, 0x6d}
	version = [4]byte{0x01, 0x00, 0x00, 0x00}
)

// source is the positioned, buffered, bounds-checked byte reader of
// spec.md Component A. All section and instruction decoding reads through
// it so offsets reported in LoadError are always accurate.
type source struct {
	buf []byte
	pos int
}

func newSource(b []byte) *source { return &source{buf: b} }

func (s *source) ReadByte() (byte, error) {
	if s.pos >= len(s.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

func (s *source) readBytes(n uint32) ([]byte, error) {
	if uint64(s.pos)+uint64(n) > uint64(len(s.buf)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := s.buf[s.pos : s.pos+int(n)]
	s.pos += int(n)
	return b, nil
}

func (s *source) offset() uint64 { return uint64(s.pos) }

func (s *source) remaining() int { return len(s.buf) - s.pos }

func (s *source) atEnd() bool { return s.pos >= len(s.buf) }

func loadErr(s *source, section wasm.SectionID, kind wasm.LoadErrorKind, format string, args ...interface{}) error {
	return &wasm.LoadError{Kind: kind, Section: section, Offset: s.offset(), Message: fmt.Sprintf(format, args...)}
}

// DecodeModule parses b into a wasm.Module AST. It performs no type
// checking beyond what is needed to build a well-formed AST (index-range
// and type-identity checks live in the validator, spec.md §4.2).
func DecodeModule(b []byte, features wasm.Features) (*wasm.Module, error) {
	s := newSource(b)

	var gotMagic [4]byte
	for i := range gotMagic {
		bb, err := s.ReadByte()
		if err != nil {
			return nil, loadErr(s, wasm.SectionIDCustom, wasm.UnexpectedEnd, "truncated magic number")
		}
		gotMagic[i] = bb
	}
	if gotMagic != magic {
		return nil, loadErr(s, wasm.SectionIDCustom, wasm.InvalidMagic, "got %v", gotMagic)
	}
	var gotVersion [4]byte
	for i := range gotVersion {
		bb, err := s.ReadByte()
		if err != nil {
			return nil, loadErr(s, wasm.SectionIDCustom, wasm.UnexpectedEnd, "truncated version")
		}
		gotVersion[i] = bb
	}
	if gotVersion != version {
		return nil, loadErr(s, wasm.SectionIDCustom, wasm.InvalidVersion, "got %v", gotVersion)
	}

	d := &decoder{s: s, m: &wasm.Module{}, features: features}
	lastKnownID := wasm.SectionID(0)
	for !s.atEnd() {
		idByte, err := s.ReadByte()
		if err != nil {
			return nil, loadErr(s, wasm.SectionIDCustom, wasm.UnexpectedEnd, "truncated section id")
		}
		id := wasm.SectionID(idByte)
		if id > wasm.SectionIDDataCount {
			return nil, loadErr(s, id, wasm.UnknownSection, "section id %d", idByte)
		}
		size, _, err := leb128.DecodeUint32(s)
		if err != nil {
			return nil, toLoadErr(s, id, err)
		}
		if uint64(s.pos)+uint64(size) > uint64(len(s.buf)) {
			return nil, loadErr(s, id, wasm.SectionSizeMismatch, "declared size %d exceeds remaining input", size)
		}
		payload, _ := s.readBytes(size)
		ps := newSource(payload)
		if id != wasm.SectionIDCustom {
			if id <= lastKnownID {
				return nil, loadErr(s, id, wasm.InvalidGrammar, "sections out of order or duplicated")
			}
			lastKnownID = id
		}
		if err := d.decodeSection(id, ps); err != nil {
			return nil, err
		}
		if !ps.atEnd() {
			return nil, loadErr(ps, id, wasm.SectionSizeMismatch, "section payload has %d unread trailing bytes", ps.remaining())
		}
	}

	d.m.ID = wasm.ModuleID(contentHash(b))
	return d.m, nil
}

// DecodeReader decodes a module read in full from r before parsing.
func DecodeReader(r io.Reader, features wasm.Features) (*wasm.Module, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return DecodeModule(buf.Bytes(), features)
}

func toLoadErr(s *source, section wasm.SectionID, err error) error {
	if le, ok := err.(leb128.ErrOverflow); ok {
		return loadErr(s, section, wasm.IntegerOutOfRange, "%s", le.Error())
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return loadErr(s, section, wasm.UnexpectedEnd, "unexpected end of input")
	}
	return loadErr(s, section, wasm.InvalidGrammar, "%s", err.Error())
}

type decoder struct {
	s        *source
	m        *wasm.Module
	features wasm.Features
}

func (d *decoder) decodeSection(id wasm.SectionID, s *source) error {
	switch id {
	case wasm.SectionIDCustom:
		return d.decodeCustomSection(s)
	case wasm.SectionIDType:
		return d.decodeTypeSection(s)
	case wasm.SectionIDImport:
		return d.decodeImportSection(s)
	case wasm.SectionIDFunction:
		return d.decodeFunctionSection(s)
	case wasm.SectionIDTable:
		return d.decodeTableSection(s)
	case wasm.SectionIDMemory:
		return d.decodeMemorySection(s)
	case wasm.SectionIDGlobal:
		return d.decodeGlobalSection(s)
	case wasm.SectionIDExport:
		return d.decodeExportSection(s)
	case wasm.SectionIDStart:
		return d.decodeStartSection(s)
	case wasm.SectionIDElement:
		return d.decodeElementSection(s)
	case wasm.SectionIDCode:
		return d.decodeCodeSection(s)
	case wasm.SectionIDData:
		return d.decodeDataSection(s)
	case wasm.SectionIDDataCount:
		return d.decodeDataCountSection(s)
	}
	return loadErr(s, id, wasm.UnknownSection, "section id %d", id)
}

func (d *decoder) decodeCustomSection(s *source) error {
	name, err := readName(s, wasm.SectionIDCustom)
	if err != nil {
		return err
	}
	data := append([]byte{}, s.buf[s.pos:]...)
	s.pos = len(s.buf)
	d.m.Customs = append(d.m.Customs, wasm.CustomSection{Name: name, Data: data})
	return nil
}

func readName(s *source, section wasm.SectionID) (string, error) {
	n, _, err := leb128.DecodeUint32(s)
	if err != nil {
		return "", toLoadErr(s, section, err)
	}
	b, err := s.readBytes(n)
	if err != nil {
		return "", loadErr(s, section, wasm.UnexpectedEnd, "truncated name")
	}
	return string(b), nil
}

func readValType(s *source, section wasm.SectionID) (api.ValueType, error) {
	b, err := s.ReadByte()
	if err != nil {
		return 0, loadErr(s, section, wasm.UnexpectedEnd, "truncated value type")
	}
	switch b {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64,
		api.ValueTypeV128, api.ValueTypeFuncref, api.ValueTypeExternref:
		return b, nil
	}
	return 0, loadErr(s, section, wasm.UnknownValType, "value type %#x", b)
}

func readU32(s *source, section wasm.SectionID) (uint32, error) {
	v, _, err := leb128.DecodeUint32(s)
	if err != nil {
		return 0, toLoadErr(s, section, err)
	}
	return v, nil
}

func readLimits(s *source, section wasm.SectionID, ceiling uint32) (wasm.Limits, error) {
	flag, err := s.ReadByte()
	if err != nil {
		return wasm.Limits{}, loadErr(s, section, wasm.UnexpectedEnd, "truncated limits flag")
	}
	if flag > 1 {
		return wasm.Limits{}, loadErr(s, section, wasm.InvalidGrammar, "invalid limits flag %#x", flag)
	}
	min, err := readU32(s, section)
	if err != nil {
		return wasm.Limits{}, err
	}
	l := wasm.Limits{Min: min}
	if flag == 1 {
		max, err := readU32(s, section)
		if err != nil {
			return wasm.Limits{}, err
		}
		l.Max = &max
	}
	return l, nil
}

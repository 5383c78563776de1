package wasm

import (
	"fmt"

	"go.uber.org/multierr"
)

// SectionID identifies a binary module section, matching the order it must
// appear in (Custom may interleave).
type SectionID byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
	SectionIDDataCount
)

func (s SectionID) String() string {
	switch s {
	case SectionIDCustom:
		return "custom section"
	case SectionIDType:
		return "type section"
	case SectionIDImport:
		return "import section"
	case SectionIDFunction:
		return "function section"
	case SectionIDTable:
		return "table section"
	case SectionIDMemory:
		return "memory section"
	case SectionIDGlobal:
		return "global section"
	case SectionIDExport:
		return "export section"
	case SectionIDStart:
		return "start section"
	case SectionIDElement:
		return "element section"
	case SectionIDCode:
		return "code section"
	case SectionIDData:
		return "data section"
	case SectionIDDataCount:
		return "data count section"
	}
	return fmt.Sprintf("unknown section %#x", byte(s))
}

// NodeAttr tags the AST node kind a ValidationError or LoadError refers to,
// grounded on SSVM's ASTNodeAttr enumeration (see DESIGN.md).
type NodeAttr byte

const (
	NodeAttrModule NodeAttr = iota
	NodeAttrDescImport
	NodeAttrDescExport
	NodeAttrSegGlobal
	NodeAttrSegElement
	NodeAttrSegCode
	NodeAttrSegData
	NodeAttrTypeFunction
	NodeAttrTypeLimit
	NodeAttrTypeMemory
	NodeAttrTypeTable
	NodeAttrTypeGlobal
	NodeAttrExpression
	NodeAttrInstruction
)

func (n NodeAttr) String() string {
	switch n {
	case NodeAttrModule:
		return "module"
	case NodeAttrDescImport:
		return "import description"
	case NodeAttrDescExport:
		return "export description"
	case NodeAttrSegGlobal:
		return "global segment"
	case NodeAttrSegElement:
		return "element segment"
	case NodeAttrSegCode:
		return "code segment"
	case NodeAttrSegData:
		return "data segment"
	case NodeAttrTypeFunction:
		return "function type"
	case NodeAttrTypeLimit:
		return "limit"
	case NodeAttrTypeMemory:
		return "memory type"
	case NodeAttrTypeTable:
		return "table type"
	case NodeAttrTypeGlobal:
		return "global type"
	case NodeAttrExpression:
		return "expression"
	case NodeAttrInstruction:
		return "instruction"
	}
	return "unknown node"
}

// LoadErrorKind enumerates binary-decode failure kinds, per spec.md §4.1.
type LoadErrorKind int

const (
	UnexpectedEnd LoadErrorKind = iota
	InvalidGrammar
	InvalidMagic
	InvalidVersion
	IntegerTooLong
	IntegerOutOfRange
	SectionSizeMismatch
	UnknownOpCode
	UnknownValType
	UnknownSection
)

func (k LoadErrorKind) String() string {
	switch k {
	case UnexpectedEnd:
		return "unexpected end of input"
	case InvalidGrammar:
		return "invalid grammar"
	case InvalidMagic:
		return "invalid magic number"
	case InvalidVersion:
		return "invalid version"
	case IntegerTooLong:
		return "integer representation too long"
	case IntegerOutOfRange:
		return "integer representation out of range"
	case SectionSizeMismatch:
		return "section size mismatch"
	case UnknownOpCode:
		return "unknown opcode"
	case UnknownValType:
		return "unknown value type"
	case UnknownSection:
		return "unknown section id"
	}
	return "unknown load error"
}

// LoadError is a non-recoverable binary-format failure.
type LoadError struct {
	Kind    LoadErrorKind
	Section SectionID
	Offset  uint64
	Message string
}

func (e *LoadError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("wasm: load error at offset %#08x in %s: %s (%s)", e.Offset, e.Section, e.Kind, e.Message)
	}
	return fmt.Sprintf("wasm: load error at offset %#08x in %s: %s", e.Offset, e.Section, e.Kind)
}

// ValidationErrorKind enumerates structural/type-checking failure kinds.
type ValidationErrorKind int

const (
	ValidationUnknownIndex ValidationErrorKind = iota
	ValidationTypeMismatch
	ValidationInvalidConstExpr
	ValidationInvalidLimits
	ValidationInvalidStart
	ValidationDuplicateExport
	ValidationMutableGlobalInConstExpr
	ValidationFunctionCodeCountMismatch
	ValidationOther
)

func (k ValidationErrorKind) String() string {
	switch k {
	case ValidationUnknownIndex:
		return "unknown index"
	case ValidationTypeMismatch:
		return "type mismatch"
	case ValidationInvalidConstExpr:
		return "invalid constant expression"
	case ValidationInvalidLimits:
		return "invalid limits"
	case ValidationInvalidStart:
		return "invalid start function"
	case ValidationDuplicateExport:
		return "duplicate export name"
	case ValidationMutableGlobalInConstExpr:
		return "mutable global referenced from constant expression"
	case ValidationFunctionCodeCountMismatch:
		return "function and code section counts disagree"
	}
	return "validation error"
}

// ValidationError is a non-recoverable structural or type violation,
// reporting the offending section and node kind per spec.md §4.2.
type ValidationError struct {
	Kind    ValidationErrorKind
	Section SectionID
	Node    NodeAttr
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wasm: validation error in %s (%s): %s: %s", e.Section, e.Node, e.Kind, e.Message)
}

// NewValidationErrorf builds a ValidationError with a formatted message.
func NewValidationErrorf(kind ValidationErrorKind, section SectionID, node NodeAttr, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Section: section, Node: node, Message: fmt.Sprintf(format, args...)}
}

// TrapKind enumerates runtime-fault kinds, per spec.md §7.
type TrapKind int

const (
	TrapUnreachable TrapKind = iota
	TrapIntegerDivideByZero
	TrapIntegerOverflow
	TrapInvalidConversionToInteger
	TrapOutOfBoundsMemoryAccess
	TrapOutOfBoundsTableAccess
	TrapUndefinedElement
	TrapIndirectCallTypeMismatch
	TrapInterrupted
	TrapHostAbort
	TrapCallStackExhausted
)

func (k TrapKind) String() string {
	switch k {
	case TrapUnreachable:
		return "unreachable"
	case TrapIntegerDivideByZero:
		return "integer divide by zero"
	case TrapIntegerOverflow:
		return "integer overflow"
	case TrapInvalidConversionToInteger:
		return "invalid conversion to integer"
	case TrapOutOfBoundsMemoryAccess:
		return "out of bounds memory access"
	case TrapOutOfBoundsTableAccess:
		return "out of bounds table access"
	case TrapUndefinedElement:
		return "undefined element"
	case TrapIndirectCallTypeMismatch:
		return "indirect call type mismatch"
	case TrapInterrupted:
		return "interrupted"
	case TrapHostAbort:
		return "host abort"
	case TrapCallStackExhausted:
		return "call stack exhausted"
	}
	return "trap"
}

// Trap is a runtime failure during instantiation or execution. It never
// leaves a partially observable memory/table mutation across segment or
// grow operations (spec.md §3 invariant 5).
type Trap struct {
	Kind    TrapKind
	Message string
}

func (t *Trap) Error() string {
	if t.Message != "" {
		return fmt.Sprintf("wasm: trap: %s: %s", t.Kind, t.Message)
	}
	return fmt.Sprintf("wasm: trap: %s", t.Kind)
}

// NewTrap builds a Trap with no additional message.
func NewTrap(kind TrapKind) *Trap { return &Trap{Kind: kind} }

// NewTrapf builds a Trap with a formatted message.
func NewTrapf(kind TrapKind, format string, args ...interface{}) *Trap {
	return &Trap{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// JoinErrors aggregates rollback errors encountered undoing a failed
// instantiation (spec.md §4.3), keeping every error rather than only the
// last one.
func JoinErrors(errs ...error) error {
	return multierr.Combine(errs...)
}

package interpreter

import "github.com/wazevm/wazevm/internal/wasm"

// The three opcode families below, dispatched outside execOne's own switch
// (numeric opcodes are execOneExtended's default rather than a range), are each
// a single contiguous run in wasm.Opcode's declaration order (instruction.go
// groups them that way on purpose), so membership is a range check rather
// than a second switch.

func isTableOp(op wasm.Opcode) bool {
	return op >= wasm.OpTableGet && op <= wasm.OpElemDrop
}

func isMemoryOp(op wasm.Opcode) bool {
	return op >= wasm.OpI32Load && op <= wasm.OpMemoryFill
}

func isSIMDOp(op wasm.Opcode) bool {
	return op >= wasm.OpV128Load && op <= wasm.OpI64x2ShrU
}

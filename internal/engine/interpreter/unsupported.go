package interpreter

import (
	"fmt"

	"github.com/wazevm/wazevm/internal/wasm"
	"github.com/wazevm/wazevm/internal/wasmdebug"
)

// unknownOpcodeMsg formats the panic message for an opcode value that
// passed validation but isn't handled by any dispatch table here, which
// would mean the decoder, validator, and interpreter have drifted out of
// sync with each other -- a bug in this package, not a malformed module, so
// it is a plain panic rather than a wasm.Trap.
func unknownOpcodeMsg(op wasm.Opcode) string {
	return fmt.Sprintf("interpreter: unhandled opcode %s", wasmdebug.FormatOpcode(uint32(op)))
}

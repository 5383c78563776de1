// Package wasmdebug renders human-readable diagnostics for panics
// recovered at the interpreter's outermost call boundary, mirroring the
// teacher's internal/wasmdebug package. Hex rendering of opcodes and byte
// offsets follows original_source/include/support/hexstr.h's convention
// (SPEC_FULL.md §12).
package wasmdebug

import (
	"fmt"
	"runtime"
	"strings"
)

// FormatOpcode renders a single opcode byte the way SSVM's hexstr does:
// zero-padded, lowercase, 0x-prefixed.
func FormatOpcode(op uint32) string {
	return fmt.Sprintf("0x%02x", op)
}

// FormatOffset renders a byte offset the same way, widened to 8 hex
// digits for alignment in trap/load-error messages.
func FormatOffset(offset uint64) string {
	return fmt.Sprintf("0x%08x", offset)
}

// GoStack captures the current goroutine's stack, skipping the
// wasmdebug.GoStack frame itself, for attaching to a recovered panic that
// was not a deliberate wasm.Trap (an interpreter bug, not a guest fault).
func GoStack() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	lines := strings.SplitN(string(buf[:n]), "\n", 4)
	if len(lines) > 3 {
		return lines[0] + "\n" + lines[3]
	}
	return string(buf[:n])
}

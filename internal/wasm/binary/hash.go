package binary

import "github.com/cespare/xxhash/v2"

// contentHash derives a wasm.ModuleID from a decoded binary's raw bytes.
// Grounded on open-policy-agent/opa's use of cespare/xxhash/v2 for fast,
// non-cryptographic content hashing (SPEC_FULL.md §11); used as the
// compiled-code cache key in internal/engine/interpreter.
func contentHash(b []byte) uint64 {
	return xxhash.Sum64(b)
}

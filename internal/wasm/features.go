package wasm

// Features toggles the post-MVP extensions spec.md §1 names. Every field
// corresponds 1:1 to a new_vm(config) option in spec.md §6.
type Features struct {
	SIMD               bool
	BulkMemory         bool
	ReferenceTypes     bool
	SignExtension      bool
	SaturatingTruncate bool
}

// DefaultFeatures enables every post-MVP extension, matching the defaults
// spec.md §6 lists (`enable-*: bool (default true)`).
func DefaultFeatures() Features {
	return Features{
		SIMD:               true,
		BulkMemory:         true,
		ReferenceTypes:     true,
		SignExtension:      true,
		SaturatingTruncate: true,
	}
}

// Package config defines the embedder-facing configuration surface
// (spec.md §6 new_vm(config)), following the teacher's RuntimeConfig
// functional-options pattern.
package config

// Config holds every tunable new_vm(config) exposes. New seeds it with
// spec.md §6's documented defaults; a zero Config is usable but has every
// Enable* extension switched off.
type Config struct {
	// MemoryPageLimit caps memory.grow across every memory this store
	// allocates, independent of any module's own declared maximum. Zero
	// means the implicit Wasm ceiling (65536 pages, 4GiB).
	MemoryPageLimit uint32

	EnableSIMD                 bool
	EnableBulkMemory           bool
	EnableReferenceTypes       bool
	EnableSignExtension        bool
	EnableSaturatingTruncation bool

	// InstructionQuota bounds the number of instructions a single invoke
	// may execute before trapping Interrupted. Zero means unlimited.
	InstructionQuota uint64

	// CompilationCacheDir, when non-empty, persists compiled modules
	// on-disk (internal/compilationcache) across process restarts.
	CompilationCacheDir string

	// LogLevel controls internal/wasmlog's verbosity ("debug", "info",
	// "warn", "error"). Empty disables logging (a no-op logger).
	LogLevel string
}

// Option mutates a Config during New.
type Option func(*Config)

// New builds a Config from opts, seeded with spec.md §6's documented
// defaults (every post-MVP extension enabled, matching
// wasm.DefaultFeatures).
func New(opts ...Option) Config {
	c := Config{
		EnableSIMD:                 true,
		EnableBulkMemory:           true,
		EnableReferenceTypes:       true,
		EnableSignExtension:        true,
		EnableSaturatingTruncation: true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithMemoryPageLimit sets the hard memory.grow ceiling, in 64KiB pages.
func WithMemoryPageLimit(pages uint32) Option {
	return func(c *Config) { c.MemoryPageLimit = pages }
}

// WithInstructionQuota sets the per-invoke instruction budget; zero means
// unlimited.
func WithInstructionQuota(quota uint64) Option {
	return func(c *Config) { c.InstructionQuota = quota }
}

// WithCompilationCacheDir enables the on-disk compiled-module cache.
func WithCompilationCacheDir(dir string) Option {
	return func(c *Config) { c.CompilationCacheDir = dir }
}

// WithLogLevel sets internal/wasmlog's minimum level.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// WithSIMD toggles the SIMD proposal.
func WithSIMD(enabled bool) Option { return func(c *Config) { c.EnableSIMD = enabled } }

// WithBulkMemory toggles the bulk-memory proposal.
func WithBulkMemory(enabled bool) Option {
	return func(c *Config) { c.EnableBulkMemory = enabled }
}

// WithReferenceTypes toggles the reference-types proposal.
func WithReferenceTypes(enabled bool) Option {
	return func(c *Config) { c.EnableReferenceTypes = enabled }
}

// WithSignExtension toggles the sign-extension-ops proposal.
func WithSignExtension(enabled bool) Option {
	return func(c *Config) { c.EnableSignExtension = enabled }
}

// WithSaturatingTruncation toggles the non-trapping float-to-int proposal.
func WithSaturatingTruncation(enabled bool) Option {
	return func(c *Config) { c.EnableSaturatingTruncation = enabled }
}

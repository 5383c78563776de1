// Package wazevm is the top-level embedder API (spec.md §6): construct a
// VM from a config.Config, load and validate module bytes, register host
// modules, instantiate, and invoke exported functions. Every other package
// under internal/ is wired together here; nothing outside this file
// implements api.Module/api.Function/api.Global/api.Table/api.Memory.
package wazevm

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"

	"github.com/wazevm/wazevm/api"
	"github.com/wazevm/wazevm/config"
	"github.com/wazevm/wazevm/host"
	"github.com/wazevm/wazevm/internal/compilationcache"
	"github.com/wazevm/wazevm/internal/engine/interpreter"
	"github.com/wazevm/wazevm/internal/wasm"
	"github.com/wazevm/wazevm/internal/wasm/binary"
	"github.com/wazevm/wazevm/internal/wasmlog"
)

// compiledCacheSize bounds the in-memory LRU of CompiledFunction slices
// (internal/engine/interpreter.Engine); the on-disk cache configured via
// config.CompilationCacheDir is a second, slower tier behind it.
const compiledCacheSize = 128

// VM is one embedding session (spec.md §6 "new_vm"): a store of
// instantiated modules, the interpreter engine, and the configuration
// every load/instantiate call obeys.
type VM struct {
	id       uuid.UUID
	cfg      config.Config
	features wasm.Features

	store  *wasm.Store
	engine *interpreter.Engine
	disk   *compilationcache.Cache
	log    wasmlog.Logger
}

// NewVM builds a VM from cfg (spec.md §6 new_vm(config)).
func NewVM(cfg config.Config) (*VM, error) {
	disk, err := compilationcache.New(cfg.CompilationCacheDir)
	if err != nil {
		return nil, fmt.Errorf("wazevm: %w", err)
	}
	log := wasmlog.Noop()
	if cfg.LogLevel != "" {
		log = wasmlog.New(cfg.LogLevel)
	}
	id := uuid.New()
	features := wasm.Features{
		SIMD:               cfg.EnableSIMD,
		BulkMemory:         cfg.EnableBulkMemory,
		ReferenceTypes:     cfg.EnableReferenceTypes,
		SignExtension:      cfg.EnableSignExtension,
		SaturatingTruncate: cfg.EnableSaturatingTruncation,
	}
	store := wasm.NewStore()
	store.MemoryPageLimit = cfg.MemoryPageLimit

	vm := &VM{
		id:       id,
		cfg:      cfg,
		features: features,
		store:    store,
		engine:   interpreter.NewEngine(features, compiledCacheSize),
		disk:     disk,
		log:      log.With(wasmlog.String("vm", id.String())),
	}
	vm.log.Info("vm created", wasmlog.Uint32("memory-page-limit", cfg.MemoryPageLimit))
	return vm, nil
}

// RegisterHostModule makes hm's functions importable under hm.Name by
// modules this VM later instantiates (spec.md §6
// "register_host_module").
func (v *VM) RegisterHostModule(hm host.Module) {
	specs := make([]wasm.HostFunctionSpec, len(hm.Functions))
	for i := range hm.Functions {
		fn := &hm.Functions[i]
		specs[i] = wasm.HostFunctionSpec{Name: fn.Name, Type: fn.Type, HostFn: fn}
	}
	wasm.RegisterHostModule(v.store, hm.Name, specs)
	v.log.Info("host module registered", wasmlog.String("module", hm.Name), wasmlog.Int("functions", len(hm.Functions)))
}

// LoadPath reads and decodes the module at path (spec.md §6 "load_path").
func (v *VM) LoadPath(path string) (*wasm.Module, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wazevm: %w", err)
	}
	return v.LoadBytes(b)
}

// LoadBytes decodes and validates b against this VM's enabled feature set
// (spec.md §6 "load_bytes"). The returned Module is immutable and may be
// instantiated more than once.
func (v *VM) LoadBytes(b []byte) (*wasm.Module, error) {
	m, err := binary.DecodeModule(b, v.features)
	if err != nil {
		v.log.Warn("decode failed", wasmlog.Error(err))
		return nil, fmt.Errorf("wazevm: decode: %w", err)
	}
	if err := wasm.ValidateModule(m, v.features); err != nil {
		v.log.Warn("validate failed", wasmlog.Error(err))
		return nil, fmt.Errorf("wazevm: validate: %w", err)
	}
	v.log.Debug("module loaded", wasmlog.Uint64("module-id", uint64(m.ID)), wasmlog.Int("bytes", len(b)))
	return m, nil
}

// Instantiate links m's imports against already-registered modules and
// host modules, runs its start function if any, and registers the result
// under name (spec.md §6 "instantiate"). Compiling m's function bodies is
// a no-op the second time the same wasm.ModuleID is instantiated, served
// from the interpreter's in-memory cache or, failing that, the on-disk
// one when configured.
func (v *VM) Instantiate(name string, m *wasm.Module) (api.Module, error) {
	if v.disk.Enabled() {
		var cached []*interpreter.CompiledFunction
		if ok, err := v.disk.Get(m.ID, &cached); err == nil && ok {
			v.log.Debug("compiled module loaded from disk cache", wasmlog.Uint64("module-id", uint64(m.ID)))
			v.engine.SeedCache(m.ID, cached)
		}
	}
	compiled := v.engine.CompileModule(m)
	if v.disk.Enabled() {
		if err := v.disk.Put(m.ID, compiled); err != nil {
			v.log.Warn("compiled module cache write failed", wasmlog.Error(err))
		}
	}

	runStart := func(fn *wasm.FunctionInstance) error {
		_, err := v.engine.Call(fn, nil, v.cfg.InstructionQuota)
		return err
	}
	mi, err := wasm.Instantiate(v.store, m, name, runStart)
	if err != nil {
		v.log.Warn("instantiate failed", wasmlog.String("module", name), wasmlog.Error(err))
		return nil, err
	}
	v.log.Info("module instantiated", wasmlog.String("module", name))
	return &moduleInstance{vm: v, mi: mi, name: name}, nil
}

// Reset discards every instantiated and registered module, returning the
// VM to its just-constructed state. The compiled-module caches (both
// tiers) are left intact: recompilation, not re-registration, is what
// SPEC_FULL.md §11 asks to avoid paying for twice.
func (v *VM) Reset() {
	v.store = wasm.NewStore()
	v.store.MemoryPageLimit = v.cfg.MemoryPageLimit
	v.log.Info("vm reset")
}

// Invoke is a convenience wrapper around mod.ExportedFunction(fn).Call,
// named to match spec.md §6's "invoke" vocabulary.
func Invoke(ctx context.Context, mod api.Module, fn string, args ...uint64) ([]uint64, error) {
	f := mod.ExportedFunction(fn)
	if f == nil {
		return nil, fmt.Errorf("wazevm: no exported function %q", fn)
	}
	return f.Call(ctx, args...)
}

// moduleInstance adapts a *wasm.ModuleInstance to api.Module.
type moduleInstance struct {
	vm       *VM
	mi       *wasm.ModuleInstance
	name     string
	closed   bool
	exitCode uint32
}

func (m *moduleInstance) String() string { return fmt.Sprintf("module[%s]", m.name) }

func (m *moduleInstance) Name() string { return m.name }

func (m *moduleInstance) Memory() api.Memory {
	mem := m.mi.Memory(0)
	if mem == nil {
		return nil
	}
	return moduleMemory{mem}
}

func (m *moduleInstance) ExportedFunction(name string) api.Function {
	fn := m.mi.ExportedFunction(name)
	if fn == nil {
		return nil
	}
	exp := m.mi.Exports[name]
	isImport := exp.Index < uint32(m.mi.ImportedFunctionCount)
	return &functionInstance{
		vm: m.vm,
		fn: fn,
		def: &functionDefinition{
			moduleName: m.name,
			name:       name,
			fn:         fn,
			isImport:   isImport,
		},
	}
}

func (m *moduleInstance) ExportedMemory(name string) api.Memory {
	mem := m.mi.ExportedMemory(name)
	if mem == nil {
		return nil
	}
	return moduleMemory{mem}
}

func (m *moduleInstance) ExportedGlobal(name string) api.Global {
	g := m.mi.ExportedGlobal(name)
	if g == nil {
		return nil
	}
	base := globalInstance{g}
	if g.Type.Mutable {
		return mutableGlobalInstance{base}
	}
	return base
}

func (m *moduleInstance) ExportedTable(name string) api.Table {
	t := m.mi.ExportedTable(name)
	if t == nil {
		return nil
	}
	return tableInstance{t}
}

func (m *moduleInstance) CloseWithExitCode(_ context.Context, exitCode uint32) error {
	m.closed = true
	m.exitCode = exitCode
	return nil
}

func (m *moduleInstance) Close(ctx context.Context) error {
	return m.CloseWithExitCode(ctx, 0)
}

// functionDefinition adapts a *wasm.FunctionInstance, plus the export name
// it was looked up under, to api.FunctionDefinition.
type functionDefinition struct {
	moduleName string
	name       string
	fn         *wasm.FunctionInstance
	isImport   bool
}

func (d *functionDefinition) ModuleName() string { return d.moduleName }
func (d *functionDefinition) Index() uint32      { return 0 }
func (d *functionDefinition) Name() string       { return d.name }
func (d *functionDefinition) DebugName() string  { return d.fn.DebugName }

func (d *functionDefinition) Import() (moduleName, name string, isImport bool) {
	if !d.isImport {
		return "", "", false
	}
	return d.moduleName, d.name, true
}

func (d *functionDefinition) ExportNames() []string { return []string{d.name} }
func (d *functionDefinition) ParamTypes() []api.ValueType  { return d.fn.Type.Params }
func (d *functionDefinition) ResultTypes() []api.ValueType { return d.fn.Type.Results }

// functionInstance adapts a *wasm.FunctionInstance to api.Function,
// dispatching Call through this VM's interpreter.Engine. Like
// internal/engine/interpreter's own wasmMemory adapter, every method
// ignores its context: the core is single-threaded and synchronous
// (spec.md §5).
type functionInstance struct {
	vm  *VM
	fn  *wasm.FunctionInstance
	def api.FunctionDefinition
}

func (f *functionInstance) Definition() api.FunctionDefinition { return f.def }

func (f *functionInstance) Call(_ context.Context, params ...uint64) ([]uint64, error) {
	return f.vm.engine.Call(f.fn, params, f.vm.cfg.InstructionQuota)
}

// globalInstance adapts a *wasm.GlobalInstance to api.Global.
type globalInstance struct{ g *wasm.GlobalInstance }

func (g globalInstance) String() string {
	return fmt.Sprintf("global(%s)", api.ValueTypeName(g.g.Type.ValType))
}
func (g globalInstance) Type() api.ValueType        { return g.g.Type.ValType }
func (g globalInstance) Get(context.Context) uint64 { return g.g.Value }

// mutableGlobalInstance additionally satisfies api.MutableGlobal.
type mutableGlobalInstance struct{ globalInstance }

func (g mutableGlobalInstance) Set(_ context.Context, v uint64) { g.g.Value = v }

// tableInstance adapts a *wasm.TableInstance to api.Table.
type tableInstance struct{ t *wasm.TableInstance }

func (t tableInstance) Type() api.ValueType         { return t.t.Type }
func (t tableInstance) Size(context.Context) uint32 { return uint32(len(t.t.Elements)) }

// moduleMemory adapts a *wasm.MemInstance to api.Memory for embedder-facing
// exports, mirroring internal/engine/interpreter's own wasmMemory (which
// serves the same role for host.Callback's mem parameter, but is
// unexported to that package).
type moduleMemory struct{ mem *wasm.MemInstance }

func (m moduleMemory) Size(context.Context) uint32 { return m.mem.SizeBytes() }

func (m moduleMemory) Grow(_ context.Context, deltaPages uint32) (uint32, bool) {
	return m.mem.Grow(deltaPages)
}

func (m moduleMemory) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	return m.mem.ReadByte(offset)
}

func (m moduleMemory) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	return m.mem.ReadUint32Le(offset)
}

func (m moduleMemory) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	return m.mem.ReadUint64Le(offset)
}

func (m moduleMemory) ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(ctx, offset)
	return math.Float32frombits(v), ok
}

func (m moduleMemory) ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(ctx, offset)
	return math.Float64frombits(v), ok
}

func (m moduleMemory) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	return m.mem.Read(offset, byteCount)
}

func (m moduleMemory) WriteByte(_ context.Context, offset uint32, v byte) bool {
	return m.mem.WriteByte(offset, v)
}

func (m moduleMemory) WriteUint32Le(_ context.Context, offset, v uint32) bool {
	return m.mem.WriteUint32Le(offset, v)
}

func (m moduleMemory) WriteUint64Le(_ context.Context, offset uint32, v uint64) bool {
	return m.mem.WriteUint64Le(offset, v)
}

func (m moduleMemory) WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool {
	return m.WriteUint32Le(ctx, offset, math.Float32bits(v))
}

func (m moduleMemory) WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool {
	return m.WriteUint64Le(ctx, offset, math.Float64bits(v))
}

func (m moduleMemory) Write(_ context.Context, offset uint32, v []byte) bool {
	return m.mem.Write(offset, v)
}

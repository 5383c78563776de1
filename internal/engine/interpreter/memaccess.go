package interpreter

import (
	"context"
	"math"

	"github.com/wazevm/wazevm/internal/wasm"
)

// wasmMemory adapts a *wasm.MemInstance to api.Memory for host callbacks
// (host.Callback's mem parameter, spec.md §4.5). The core itself is
// single-threaded and synchronous (spec.md §5), so every method ignores
// its context argument; it exists only to satisfy the embedder-facing
// interface.
type wasmMemory struct {
	mem *wasm.MemInstance
}

func (w wasmMemory) Size(context.Context) uint32 {
	if w.mem == nil {
		return 0
	}
	return w.mem.SizeBytes()
}

func (w wasmMemory) Grow(_ context.Context, deltaPages uint32) (uint32, bool) {
	if w.mem == nil {
		return 0, false
	}
	return w.mem.Grow(deltaPages)
}

func (w wasmMemory) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	if w.mem == nil {
		return 0, false
	}
	return w.mem.ReadByte(offset)
}

func (w wasmMemory) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	if w.mem == nil {
		return 0, false
	}
	return w.mem.ReadUint32Le(offset)
}

func (w wasmMemory) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	if w.mem == nil {
		return 0, false
	}
	return w.mem.ReadUint64Le(offset)
}

func (w wasmMemory) ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool) {
	v, ok := w.ReadUint32Le(ctx, offset)
	return math.Float32frombits(v), ok
}

func (w wasmMemory) ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool) {
	v, ok := w.ReadUint64Le(ctx, offset)
	return math.Float64frombits(v), ok
}

func (w wasmMemory) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	if w.mem == nil {
		return nil, false
	}
	return w.mem.Read(offset, byteCount)
}

func (w wasmMemory) WriteByte(_ context.Context, offset uint32, v byte) bool {
	if w.mem == nil {
		return false
	}
	return w.mem.WriteByte(offset, v)
}

func (w wasmMemory) WriteUint32Le(_ context.Context, offset, v uint32) bool {
	if w.mem == nil {
		return false
	}
	return w.mem.WriteUint32Le(offset, v)
}

func (w wasmMemory) WriteUint64Le(_ context.Context, offset uint32, v uint64) bool {
	if w.mem == nil {
		return false
	}
	return w.mem.WriteUint64Le(offset, v)
}

func (w wasmMemory) WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool {
	return w.WriteUint32Le(ctx, offset, math.Float32bits(v))
}

func (w wasmMemory) WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool {
	return w.WriteUint64Le(ctx, offset, math.Float64bits(v))
}

func (w wasmMemory) Write(_ context.Context, offset uint32, v []byte) bool {
	if w.mem == nil {
		return false
	}
	return w.mem.Write(offset, v)
}

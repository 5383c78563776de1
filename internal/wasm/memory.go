package wasm

import "encoding/binary"

// SizeBytes returns the memory's current size in bytes.
func (m *MemInstance) SizeBytes() uint32 { return uint32(len(m.Buffer)) }

// Grow extends the memory by deltaPages 64KiB pages, returning the
// previous page count. It refuses (returning ok=false, leaving the buffer
// untouched) when the result would exceed the memory's own max or the
// embedder's configured MaxPages ceiling, per spec.md §4.4 "memory.grow
// returns old page count, or -1 ... without changing size on failure".
func (m *MemInstance) Grow(deltaPages uint32) (previousPages uint32, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.PageCount()
	newPages := uint64(prev) + uint64(deltaPages)
	ceiling := m.Ceiling
	if ceiling == 0 {
		ceiling = MaxPages
	}
	max := uint64(ceiling)
	if m.Max != nil && uint64(*m.Max) < max {
		max = uint64(*m.Max)
	}
	if newPages > max {
		return prev, false
	}
	grown := make([]byte, newPages*PageSize)
	copy(grown, m.Buffer)
	m.Buffer = grown
	return prev, true
}

// InBounds reports whether [offset, offset+length) lies within the current
// buffer, computing in 64 bits so a wraparound i32 address never falsely
// reports in range.
func (m *MemInstance) InBounds(offset uint32, length uint32) bool {
	end := uint64(offset) + uint64(length)
	return end <= uint64(len(m.Buffer))
}

func (m *MemInstance) readN(offset uint32, n uint32) ([]byte, bool) {
	if !m.InBounds(offset, n) {
		return nil, false
	}
	return m.Buffer[offset : offset+n], true
}

// ReadByte reads a single byte at offset.
func (m *MemInstance) ReadByte(offset uint32) (byte, bool) {
	b, ok := m.readN(offset, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// WriteByte writes a single byte at offset.
func (m *MemInstance) WriteByte(offset uint32, v byte) bool {
	b, ok := m.readN(offset, 1)
	if !ok {
		return false
	}
	b[0] = v
	return true
}

// ReadUint16Le reads a little-endian u16 at offset.
func (m *MemInstance) ReadUint16Le(offset uint32) (uint16, bool) {
	b, ok := m.readN(offset, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

// WriteUint16Le writes a little-endian u16 at offset.
func (m *MemInstance) WriteUint16Le(offset uint32, v uint16) bool {
	b, ok := m.readN(offset, 2)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint16(b, v)
	return true
}

// ReadUint32Le reads a little-endian u32 at offset.
func (m *MemInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.readN(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// WriteUint32Le writes a little-endian u32 at offset.
func (m *MemInstance) WriteUint32Le(offset uint32, v uint32) bool {
	b, ok := m.readN(offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}

// ReadUint64Le reads a little-endian u64 at offset.
func (m *MemInstance) ReadUint64Le(offset uint32) (uint64, bool) {
	b, ok := m.readN(offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// WriteUint64Le writes a little-endian u64 at offset.
func (m *MemInstance) WriteUint64Le(offset uint32, v uint64) bool {
	b, ok := m.readN(offset, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(b, v)
	return true
}

// Read returns a write-through view of byteCount bytes at offset.
func (m *MemInstance) Read(offset, byteCount uint32) ([]byte, bool) {
	return m.readN(offset, byteCount)
}

// Write copies v into the buffer at offset.
func (m *MemInstance) Write(offset uint32, v []byte) bool {
	b, ok := m.readN(offset, uint32(len(v)))
	if !ok {
		return false
	}
	copy(b, v)
	return true
}

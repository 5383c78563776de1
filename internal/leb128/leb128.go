// Package leb128 implements the variable-length integer encodings used by
// the WebAssembly binary format: unsigned LEB128 for u32/u64 index and count
// fields, and signed LEB128 for i32/i64 constants and block types.
package leb128

import "io"

// ErrOverflow is returned when an encoded integer uses more bytes than the
// target width permits (5 for 32-bit, 10 for 64-bit) or leaves nonzero bits
// set beyond the target width in its terminal byte.
type ErrOverflow struct {
	// Width is the bit width that was exceeded: 32 or 64.
	Width int
}

func (e ErrOverflow) Error() string {
	if e.Width == 32 {
		return "leb128: integer representation too long or out of range for 32 bits"
	}
	return "leb128: integer representation too long or out of range for 64 bits"
}

// byteReader is the minimal surface this package needs; both bytes.Reader
// and the decoder's own byteSource satisfy it.
type byteReader interface {
	io.ByteReader
}

// DecodeUint32 reads an unsigned LEB128-encoded u32, erroring if the
// encoding takes more than 5 bytes or sets bits above bit 31 in total.
func DecodeUint32(r byteReader) (uint32, uint32, error) {
	v, n, err := decodeUint(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 reads an unsigned LEB128-encoded u64, erroring if the
// encoding takes more than 10 bytes or sets bits above bit 63 in total.
func DecodeUint64(r byteReader) (uint64, uint32, error) {
	return decodeUint(r, 64)
}

func decodeUint(r byteReader, width int) (result uint64, bytesRead uint32, err error) {
	maxBytes := (width + 6) / 7
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, rerr := r.ReadByte()
		if rerr != nil {
			return 0, bytesRead, rerr
		}
		bytesRead++
		low7 := uint64(b & 0x7f)
		// Reject bits set beyond the target width in the final byte.
		if i == maxBytes-1 {
			usableBits := width - int(shift)
			if usableBits < 7 && low7>>uint(usableBits) != 0 {
				return 0, bytesRead, ErrOverflow{Width: width}
			}
		}
		result |= low7 << shift
		if b&0x80 == 0 {
			return result, bytesRead, nil
		}
		shift += 7
	}
	return 0, bytesRead, ErrOverflow{Width: width}
}

// DecodeInt32 reads a signed LEB128-encoded i32 with sign extension.
func DecodeInt32(r byteReader) (int32, uint32, error) {
	v, n, err := decodeInt(r, 32)
	return int32(v), n, err
}

// DecodeInt64 reads a signed LEB128-encoded i64 with sign extension.
func DecodeInt64(r byteReader) (int64, uint32, error) {
	v, n, err := decodeInt(r, 64)
	return v, n, err
}

func decodeInt(r byteReader, width int) (result int64, bytesRead uint32, err error) {
	maxBytes := (width + 6) / 7
	var shift uint
	var b byte
	for i := 0; i < maxBytes; i++ {
		nb, rerr := r.ReadByte()
		if rerr != nil {
			return 0, bytesRead, rerr
		}
		b = nb
		bytesRead++
		if i == maxBytes-1 {
			usableBits := width - int(shift)
			sign := b & 0x40
			top := b & 0x7f
			if usableBits < 7 {
				// Bits usableBits-1 through 6 hold the value's top bit and
				// its sign extension, so they must all equal the sign bit.
				mask := byte(0x7f) &^ (byte(1<<uint(usableBits-1)) - 1)
				var expect byte
				if sign != 0 {
					expect = mask
				}
				if top&mask != expect {
					return 0, bytesRead, ErrOverflow{Width: width}
				}
			}
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 64 && i == maxBytes-1 {
			return 0, bytesRead, ErrOverflow{Width: width}
		}
	}
	if b&0x80 != 0 {
		return 0, bytesRead, ErrOverflow{Width: width}
	}
	// Sign-extend if the sign bit of the final byte was set and we haven't
	// consumed the full width.
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	if width == 32 {
		result = int64(int32(result))
	}
	return result, bytesRead, nil
}

// EncodeUint32 appends the unsigned LEB128 encoding of v to dst.
func EncodeUint32(dst []byte, v uint32) []byte { return EncodeUint64(dst, uint64(v)) }

// EncodeUint64 appends the unsigned LEB128 encoding of v to dst.
func EncodeUint64(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

// EncodeInt32 appends the signed LEB128 encoding of v to dst.
func EncodeInt32(dst []byte, v int32) []byte { return EncodeInt64(dst, int64(v)) }

// EncodeInt64 appends the signed LEB128 encoding of v to dst.
func EncodeInt64(dst []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

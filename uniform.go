// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gfx/internal/cmdbuf"
)

// UniformType is the type of a shader uniform.
type UniformType uint8

const (
	Uniform1i UniformType = iota
	Uniform1f
	UniformEnd
	Uniform1iv
	Uniform1fv
	Uniform2fv
	Uniform3fv
	Uniform4fv
	Uniform3x3fv
	Uniform4x4fv
	UniformTypeCount
)

var uniformTypeSize = [UniformTypeCount]uint32{4, 4, 0, 4, 4, 8, 12, 16, 36, 64}

var uniformTypeNames = [UniformTypeCount]string{
	"Uniform1i", "Uniform1f", "UniformEnd", "Uniform1iv", "Uniform1fv",
	"Uniform2fv", "Uniform3fv", "Uniform4fv", "Uniform3x3fv", "Uniform4x4fv",
}

// Size returns the size in bytes of one element of type t.
func (t UniformType) Size() uint32 {
	if t < UniformTypeCount {
		return uniformTypeSize[t]
	}
	return 0
}

func (t UniformType) String() string {
	if t < UniformTypeCount {
		return uniformTypeNames[t]
	}
	return "Unknown"
}

// UniformSink receives uniform values replayed from a ConstantBuffer.
// data holds num elements of typ and is only valid during the call.
type UniformSink interface {
	SetUniform(typ UniformType, loc, num uint16, data []byte)
}

// UniformSinkFunc adapts a function to UniformSink.
type UniformSinkFunc func(typ UniformType, loc, num uint16, data []byte)

// SetUniform calls f.
func (f UniformSinkFunc) SetUniform(typ UniformType, loc, num uint16, data []byte) {
	f(typ, loc, num, data)
}

// Constant buffer opcode layout.
const (
	constOpTypeShift = 27
	constOpTypeMask  = 0x1f
	constOpLocShift  = 11
	constOpLocMask   = 0xffff
	constOpNumShift  = 1
	constOpNumMask   = 0x3ff
	constOpCopyBit   = 1

	// MaxUniformLocation is the largest location a constant buffer records.
	MaxUniformLocation = 0x7fff

	// MaxUniformElements is the largest element count per record.
	MaxUniformElements = constOpNumMask

	// UniformLocFragment is set in the location of uniforms that live in the
	// fragment stage's constant space.
	UniformLocFragment = 0x8000
)

func encodeConstOp(typ UniformType, loc, num uint16, inline bool) uint32 {
	op := uint32(typ)&constOpTypeMask<<constOpTypeShift |
		uint32(loc)&constOpLocMask<<constOpLocShift |
		uint32(num)&constOpNumMask<<constOpNumShift
	if inline {
		op |= constOpCopyBit
	}
	return op
}

func decodeConstOp(op uint32) (typ UniformType, loc, num uint16, inline bool) {
	typ = UniformType(op >> constOpTypeShift & constOpTypeMask)
	loc = uint16(op >> constOpLocShift & constOpLocMask)
	num = uint16(op >> constOpNumShift & constOpNumMask)
	inline = op&constOpCopyBit != 0
	return typ, loc, num, inline
}

// ConstantBuffer is a stream of uniform updates. Each record is a 32-bit
// opcode (type, location, element count, copy flag) followed either by the
// values themselves (copy mode) or by a uniform handle whose storage is
// resolved at commit time (by-reference mode). A finished buffer ends with a
// UniformEnd opcode.
type ConstantBuffer struct {
	buf *cmdbuf.Buffer
}

// NewConstantBuffer allocates a constant buffer of size bytes.
func NewConstantBuffer(size int) *ConstantBuffer {
	return &ConstantBuffer{buf: cmdbuf.New(size)}
}

// Reset discards all records and opens the buffer for writing.
func (c *ConstantBuffer) Reset() { c.buf.Start() }

// Pos returns the write position, used to delimit per-draw ranges.
func (c *ConstantBuffer) Pos() uint32 { return uint32(c.buf.Pos()) }

// Size returns the sealed length of a finished buffer.
func (c *ConstantBuffer) Size() uint32 { return uint32(c.buf.Size()) }

// fits reports whether n more bytes fit while leaving room for the End
// opcode.
func (c *ConstantBuffer) fits(n int) bool {
	return c.buf.Remaining() >= n+8
}

// WriteUniform appends a copy-mode record holding num elements of typ taken
// from data. It reports false when the record does not fit or data is short.
func (c *ConstantBuffer) WriteUniform(typ UniformType, loc uint16, data []byte, num uint16) bool {
	size := int(typ.Size()) * int(num)
	if len(data) < size || !c.fits(4+size) {
		return false
	}
	c.buf.WriteUint32(encodeConstOp(typ, loc, num, true))
	c.buf.WriteBytes(data[:size])
	return true
}

// WriteUniformHandle appends a by-reference record for uniform h.
func (c *ConstantBuffer) WriteUniformHandle(typ UniformType, loc uint16, h UniformHandle, num uint16) bool {
	if !c.fits(8) {
		return false
	}
	c.buf.WriteUint32(encodeConstOp(typ, loc, num, false))
	writeHandle(c.buf, h)
	return true
}

// Finish appends the End opcode and seals the buffer for replay.
func (c *ConstantBuffer) Finish() {
	c.buf.WriteUint32(encodeConstOp(UniformEnd, 0, 0, false))
	c.buf.Seal()
}

// Commit replays every record up to End into sink. By-reference records are
// resolved through resolve; records that resolve to nil are skipped.
// Commit does not modify the buffer and may be called any number of times.
func (c *ConstantBuffer) Commit(sink UniformSink, resolve func(UniformHandle) []byte) {
	c.buf.Reset()
	for {
		typ, loc, num, inline := decodeConstOp(c.buf.ReadUint32())
		if typ == UniformEnd {
			return
		}
		var data []byte
		if inline {
			data = c.buf.ReadBytes(int(typ.Size()) * int(num))
		} else {
			h := readHandle[uniformKind](c.buf)
			if resolve != nil {
				data = resolve(h)
			}
			if data == nil {
				continue
			}
		}
		sink.SetUniform(typ, loc, num, data)
	}
}

// Range replays the copy-mode records in [begin, end) into fn. It is used to
// apply the uniform updates recorded between two draw calls.
func (c *ConstantBuffer) Range(begin, end uint32, fn func(typ UniformType, loc, num uint16, data []byte)) {
	if begin >= end || int(end) > c.buf.Size() {
		return
	}
	c.buf.Seek(int(begin))
	for uint32(c.buf.Pos()) < end {
		typ, loc, num, inline := decodeConstOp(c.buf.ReadUint32())
		if typ == UniformEnd {
			return
		}
		if !inline {
			c.buf.ReadUint32()
			continue
		}
		fn(typ, loc, num, c.buf.ReadBytes(int(typ.Size())*int(num)))
	}
}

// Float32Bytes encodes v as little-endian bytes suitable for uniform data.
func Float32Bytes(v ...float32) []byte {
	return appendFloat32s(make([]byte, 0, 4*len(v)), v)
}

func appendFloat32s(dst []byte, v []float32) []byte {
	for _, f := range v {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// BytesFloat32 decodes little-endian uniform data into float32 values.
func BytesFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cmdbuf implements a fixed-capacity little-endian byte stream with
// separate write and read cursors.
//
// Every multi-byte value is aligned to its natural size before it is written,
// and the reader applies the same alignment before it reads. Records carry no
// length prefixes, so writer and reader must agree on the exact sequence of
// calls or the stream desynchronizes.
//
// Payloads that are too large to copy into the stream (memory blocks, vertex
// layouts) are stored in a side table and referenced by a 32-bit index.
//
// A Buffer cycles between two modes:
//
//	b.Start()            // write mode, cursor at 0
//	b.WriteUint8(op) ... // records
//	b.Finish(end)        // append terminator, switch to read mode
//	b.ReadUint8() ...    // replay
package cmdbuf

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrOverflow is the panic value when a write exceeds the capacity.
	ErrOverflow = errors.New("cmdbuf: write past capacity")

	// ErrUnderflow is the panic value when a read runs past the sealed size.
	ErrUnderflow = errors.New("cmdbuf: read past end")

	// ErrBadRef is the panic value when a reference index is unknown.
	ErrBadRef = errors.New("cmdbuf: unknown reference")

	// ErrStringTooLong is returned by WriteString for strings longer than
	// MaxString.
	ErrStringTooLong = errors.New("cmdbuf: string too long")
)

// MaxString is the longest string the 16-bit length prefix can describe.
const MaxString = math.MaxUint16

// Buffer is a reusable binary command stream. The backing array is allocated
// once and never grows.
type Buffer struct {
	data []byte
	pos  int
	size int
	refs []any
}

// New allocates a buffer with the given capacity in bytes.
func New(capacity int) *Buffer {
	b := &Buffer{data: make([]byte, capacity)}
	b.Start()
	return b
}

// Start rewinds the cursor and opens the buffer for writing.
// References from the previous cycle are released.
func (b *Buffer) Start() {
	b.pos = 0
	b.size = len(b.data)
	for i := range b.refs {
		b.refs[i] = nil
	}
	b.refs = b.refs[:0]
}

// Finish writes the terminator opcode, seals the written length, and rewinds
// the cursor for reading.
func (b *Buffer) Finish(end uint8) {
	b.WriteUint8(end)
	b.Seal()
}

// Seal fixes the written length and rewinds the cursor for reading without
// appending anything.
func (b *Buffer) Seal() {
	b.size = b.pos
	b.pos = 0
}

// Reset rewinds the cursor without touching the sealed size, so a sealed
// buffer can be replayed again.
func (b *Buffer) Reset() { b.pos = 0 }

// Pos returns the cursor position.
func (b *Buffer) Pos() int { return b.pos }

// Seek moves the cursor to an absolute position.
func (b *Buffer) Seek(pos int) { b.pos = pos }

// Size returns the sealed length in read mode, or the capacity in write mode.
func (b *Buffer) Size() int { return b.size }

// Cap returns the capacity in bytes.
func (b *Buffer) Cap() int { return len(b.data) }

// Remaining returns the number of bytes left before Size.
func (b *Buffer) Remaining() int { return b.size - b.pos }

// Bytes returns the sealed contents.
func (b *Buffer) Bytes() []byte { return b.data[:b.size] }

// Align advances the cursor to the next multiple of n, which must be a power
// of two.
func (b *Buffer) Align(n int) {
	b.pos = (b.pos + n - 1) &^ (n - 1)
}

func (b *Buffer) reserve(n int) []byte {
	if b.pos+n > b.size {
		panic(ErrOverflow)
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p
}

func (b *Buffer) consume(n int) []byte {
	if b.pos+n > b.size {
		panic(ErrUnderflow)
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p
}

// WriteUint8 appends one byte.
func (b *Buffer) WriteUint8(v uint8) { b.reserve(1)[0] = v }

// WriteBool appends a bool as one byte.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.WriteUint8(1)
		return
	}
	b.WriteUint8(0)
}

// WriteUint16 appends a 2-byte aligned value.
func (b *Buffer) WriteUint16(v uint16) {
	b.Align(2)
	binary.LittleEndian.PutUint16(b.reserve(2), v)
}

// WriteUint32 appends a 4-byte aligned value.
func (b *Buffer) WriteUint32(v uint32) {
	b.Align(4)
	binary.LittleEndian.PutUint32(b.reserve(4), v)
}

// WriteUint64 appends an 8-byte aligned value.
func (b *Buffer) WriteUint64(v uint64) {
	b.Align(8)
	binary.LittleEndian.PutUint64(b.reserve(8), v)
}

// WriteFloat32 appends a 4-byte aligned float.
func (b *Buffer) WriteFloat32(v float32) { b.WriteUint32(math.Float32bits(v)) }

// StringSize returns the number of bytes WriteString(s) would use at the
// current cursor, alignment padding included.
func (b *Buffer) StringSize(s string) int {
	return b.pos&1 + 2 + len(s)
}

// WriteString appends a 16-bit length followed by the raw bytes. A string
// longer than MaxString is not written and ErrStringTooLong is returned.
func (b *Buffer) WriteString(s string) error {
	if len(s) > MaxString {
		return ErrStringTooLong
	}
	b.WriteUint16(uint16(len(s)))
	copy(b.reserve(len(s)), s)
	return nil
}

// WriteBytes appends raw bytes with no alignment and no length.
func (b *Buffer) WriteBytes(p []byte) { copy(b.reserve(len(p)), p) }

// WriteRef stores v in the side table and appends its index.
func (b *Buffer) WriteRef(v any) {
	b.WriteUint32(uint32(len(b.refs)))
	b.refs = append(b.refs, v)
}

// ReadUint8 reads one byte.
func (b *Buffer) ReadUint8() uint8 { return b.consume(1)[0] }

// ReadBool reads a bool written by WriteBool.
func (b *Buffer) ReadBool() bool { return b.ReadUint8() != 0 }

// ReadUint16 reads a 2-byte aligned value.
func (b *Buffer) ReadUint16() uint16 {
	b.Align(2)
	return binary.LittleEndian.Uint16(b.consume(2))
}

// ReadUint32 reads a 4-byte aligned value.
func (b *Buffer) ReadUint32() uint32 {
	b.Align(4)
	return binary.LittleEndian.Uint32(b.consume(4))
}

// ReadUint64 reads an 8-byte aligned value.
func (b *Buffer) ReadUint64() uint64 {
	b.Align(8)
	return binary.LittleEndian.Uint64(b.consume(8))
}

// ReadFloat32 reads a 4-byte aligned float.
func (b *Buffer) ReadFloat32() float32 { return math.Float32frombits(b.ReadUint32()) }

// ReadString reads a string written by WriteString.
func (b *Buffer) ReadString() string {
	n := int(b.ReadUint16())
	return string(b.consume(n))
}

// ReadBytes returns the next n raw bytes. The slice aliases the buffer.
func (b *Buffer) ReadBytes(n int) []byte { return b.consume(n) }

// Skip advances the read cursor by n bytes.
func (b *Buffer) Skip(n int) { b.consume(n) }

// ReadRef returns the side-table value written by WriteRef.
func (b *Buffer) ReadRef() any {
	idx := int(b.ReadUint32())
	if idx >= len(b.refs) {
		panic(ErrBadRef)
	}
	return b.refs[idx]
}

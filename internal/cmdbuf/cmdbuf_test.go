// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cmdbuf

import (
	"errors"
	"strings"
	"testing"
)

const opEnd = 0xff

func TestWriteReadLockstep(t *testing.T) {
	b := New(256)
	b.WriteUint8(3)
	b.WriteUint32(0xdeadbeef)
	b.WriteUint8(7)
	b.WriteUint16(0x1234)
	b.WriteUint64(0x0102030405060708)
	b.WriteFloat32(1.5)
	b.WriteBool(true)
	if err := b.WriteString("u_time"); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	b.WriteRef([]byte{9, 8, 7})
	b.Finish(opEnd)

	if got := b.ReadUint8(); got != 3 {
		t.Errorf("ReadUint8() = %d, want 3", got)
	}
	if got := b.ReadUint32(); got != 0xdeadbeef {
		t.Errorf("ReadUint32() = %#x, want 0xdeadbeef", got)
	}
	if got := b.ReadUint8(); got != 7 {
		t.Errorf("ReadUint8() = %d, want 7", got)
	}
	if got := b.ReadUint16(); got != 0x1234 {
		t.Errorf("ReadUint16() = %#x, want 0x1234", got)
	}
	if got := b.ReadUint64(); got != 0x0102030405060708 {
		t.Errorf("ReadUint64() = %#x", got)
	}
	if got := b.ReadFloat32(); got != 1.5 {
		t.Errorf("ReadFloat32() = %v, want 1.5", got)
	}
	if !b.ReadBool() {
		t.Error("ReadBool() = false, want true")
	}
	if got := b.ReadString(); got != "u_time" {
		t.Errorf("ReadString() = %q, want u_time", got)
	}
	ref, ok := b.ReadRef().([]byte)
	if !ok || len(ref) != 3 || ref[0] != 9 {
		t.Errorf("ReadRef() = %v, want [9 8 7]", ref)
	}
	if got := b.ReadUint8(); got != opEnd {
		t.Errorf("terminator = %#x, want %#x", got, opEnd)
	}
	if b.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", b.Remaining())
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		name  string
		write func(b *Buffer)
		pos   int
	}{
		{"u16 after u8", func(b *Buffer) { b.WriteUint8(1); b.WriteUint16(2) }, 4},
		{"u32 after u8", func(b *Buffer) { b.WriteUint8(1); b.WriteUint32(2) }, 8},
		{"u64 after u8", func(b *Buffer) { b.WriteUint8(1); b.WriteUint64(2) }, 16},
		{"u32 after u16", func(b *Buffer) { b.WriteUint16(1); b.WriteUint32(2) }, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(64)
			tt.write(b)
			if b.Pos() != tt.pos {
				t.Errorf("Pos() = %d, want %d", b.Pos(), tt.pos)
			}
		})
	}
}

func TestOverflowPanics(t *testing.T) {
	b := New(4)
	b.WriteUint32(1)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrOverflow) {
			t.Errorf("recover() = %v, want ErrOverflow", r)
		}
	}()
	b.WriteUint8(1)
}

func TestUnderflowPanics(t *testing.T) {
	b := New(16)
	b.Finish(opEnd)
	b.ReadUint8()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnderflow) {
			t.Errorf("recover() = %v, want ErrUnderflow", r)
		}
	}()
	b.ReadUint32()
}

func TestWriteStringLimits(t *testing.T) {
	b := New(MaxString + 16)
	b.WriteUint8(1)
	long := strings.Repeat("a", MaxString+1)
	if err := b.WriteString(long); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("WriteString(%d bytes) error = %v, want ErrStringTooLong", len(long), err)
	}
	if b.Pos() != 1 {
		t.Fatalf("Pos() after rejected string = %d, want 1", b.Pos())
	}

	limit := long[:MaxString]
	if n := b.StringSize(limit); n != 1+2+MaxString {
		t.Errorf("StringSize() = %d, want %d", n, 1+2+MaxString)
	}
	if err := b.WriteString(limit); err != nil {
		t.Fatalf("WriteString(%d bytes) error = %v", len(limit), err)
	}
	b.Finish(opEnd)

	b.ReadUint8()
	if got := b.ReadString(); len(got) != MaxString {
		t.Errorf("len(ReadString()) = %d, want %d", len(got), MaxString)
	}
	if got := b.ReadUint8(); got != opEnd {
		t.Errorf("terminator = %#x, want %#x", got, opEnd)
	}
}

func TestStartReleasesRefs(t *testing.T) {
	b := New(32)
	b.WriteRef("a")
	b.Finish(opEnd)
	b.Start()
	if len(b.refs) != 0 {
		t.Errorf("len(refs) after Start = %d, want 0", len(b.refs))
	}
	if b.Size() != b.Cap() {
		t.Errorf("Size() in write mode = %d, want %d", b.Size(), b.Cap())
	}
}

func TestResetReplays(t *testing.T) {
	b := New(32)
	b.WriteUint32(42)
	b.Finish(opEnd)
	for i := 0; i < 2; i++ {
		b.Reset()
		if got := b.ReadUint32(); got != 42 {
			t.Errorf("pass %d: ReadUint32() = %d, want 42", i, got)
		}
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"strings"
	"testing"
)

func TestVertexDeclLayout(t *testing.T) {
	var d VertexDecl
	d.Begin().
		Add(AttribPosition, 3, AttribFloat, false, false).
		Add(AttribColor0, 4, AttribUint8, true, false).
		Skip(4).
		Add(AttribTexCoord0, 2, AttribInt16, true, true).
		End()

	if d.Stride() != 12+4+4+4 {
		t.Errorf("Stride() = %d, want 24", d.Stride())
	}
	tests := []struct {
		a          Attrib
		offset     uint16
		num        uint8
		typ        AttribType
		norm, ints bool
	}{
		{AttribPosition, 0, 3, AttribFloat, false, false},
		{AttribColor0, 12, 4, AttribUint8, true, false},
		{AttribTexCoord0, 20, 2, AttribInt16, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.a.String(), func(t *testing.T) {
			if !d.Has(tt.a) {
				t.Fatal("Has() = false")
			}
			if d.Offset(tt.a) != tt.offset {
				t.Errorf("Offset() = %d, want %d", d.Offset(tt.a), tt.offset)
			}
			num, typ, norm, ints := d.Decode(tt.a)
			if num != tt.num || typ != tt.typ || norm != tt.norm || ints != tt.ints {
				t.Errorf("Decode() = %d %v %v %v, want %d %v %v %v",
					num, typ, norm, ints, tt.num, tt.typ, tt.norm, tt.ints)
			}
		})
	}
	if d.Has(AttribNormal) {
		t.Error("Has(Normal) = true")
	}
	if s := d.String(); !strings.Contains(s, "Color0:4xUint8@12n") {
		t.Errorf("String() = %q", s)
	}
}

func TestVertexDeclHash(t *testing.T) {
	build := func(a Attrib, typ AttribType) *VertexDecl {
		var d VertexDecl
		d.Begin().Add(AttribPosition, 2, AttribFloat, false, false).Add(a, 4, typ, true, false).End()
		return &d
	}
	if build(AttribColor0, AttribUint8).Hash() != build(AttribColor0, AttribUint8).Hash() {
		t.Error("equal layouts hash differently")
	}
	if build(AttribColor0, AttribUint8).Hash() == build(AttribColor1, AttribUint8).Hash() {
		t.Error("different attributes hash equal")
	}
	if build(AttribColor0, AttribUint8).Hash() == build(AttribColor0, AttribFloat).Hash() {
		t.Error("different types hash equal")
	}
}

func TestVertexDeclIgnoresBadAttributes(t *testing.T) {
	var d VertexDecl
	d.Begin().
		Add(AttribCount, 3, AttribFloat, false, false).
		Add(AttribNormal, 0, AttribFloat, false, false).
		Add(AttribTangent, 5, AttribFloat, false, false).
		End()
	if d.Stride() != 0 {
		t.Errorf("Stride() = %d, want 0", d.Stride())
	}
	if d.Has(AttribNormal) || d.Has(AttribTangent) || d.Has(AttribCount) {
		t.Error("invalid attribute was added")
	}
}

func TestDeclRegistry(t *testing.T) {
	r := newDeclRegistry()
	h := VertexDeclHandle{v: 1 << 16}
	if r.find(42).IsValid() {
		t.Fatal("find() on an empty registry returned a handle")
	}
	r.add(42, h)
	r.add(42, h)
	if r.find(42) != h || r.refs(42) != 2 {
		t.Errorf("find() = %v, refs() = %d, want %v and 2", r.find(42), r.refs(42), h)
	}
	if _, last := r.release(42); last {
		t.Error("release() reported the last user too early")
	}
	got, last := r.release(42)
	if !last || got != h {
		t.Errorf("release() = %v, %v, want %v, true", got, last, h)
	}
	if _, last := r.release(42); last {
		t.Error("release() of an unknown hash reported a last user")
	}
}

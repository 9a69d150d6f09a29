// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Attrib is a vertex attribute slot.
type Attrib uint8

const (
	AttribPosition Attrib = iota
	AttribNormal
	AttribTangent
	AttribColor0
	AttribColor1
	AttribIndices
	AttribWeight
	AttribTexCoord0
	AttribTexCoord1
	AttribTexCoord2
	AttribTexCoord3
	AttribTexCoord4
	AttribTexCoord5
	AttribTexCoord6
	AttribTexCoord7
	AttribCount
)

var attribNames = [AttribCount]string{
	"Position", "Normal", "Tangent", "Color0", "Color1", "Indices", "Weight",
	"TexCoord0", "TexCoord1", "TexCoord2", "TexCoord3",
	"TexCoord4", "TexCoord5", "TexCoord6", "TexCoord7",
}

func (a Attrib) String() string {
	if a < AttribCount {
		return attribNames[a]
	}
	return "Unknown"
}

// AttribType is the component type of a vertex attribute.
type AttribType uint8

const (
	AttribUint8 AttribType = iota
	AttribInt16
	AttribHalf
	AttribFloat
	AttribTypeCount
)

var attribTypeNames = [AttribTypeCount]string{"Uint8", "Int16", "Half", "Float"}

func (t AttribType) String() string {
	if t < AttribTypeCount {
		return attribTypeNames[t]
	}
	return "Unknown"
}

// attribTypeSize[type][num-1] is the packed size of an attribute.
var attribTypeSize = [AttribTypeCount][4]uint16{
	{1, 2, 4, 4},
	{2, 4, 6, 8},
	{2, 4, 6, 8},
	{4, 8, 12, 16},
}

const attribUnused = 0xff

// VertexDecl describes the layout of one vertex.
//
//	var decl gfx.VertexDecl
//	decl.Begin().
//	    Add(gfx.AttribPosition, 3, gfx.AttribFloat, false, false).
//	    Add(gfx.AttribColor0, 4, gfx.AttribUint8, true, false).
//	    End()
type VertexDecl struct {
	hash       uint32
	stride     uint16
	offset     [AttribCount]uint16
	attributes [AttribCount]uint8
}

// Begin resets d and starts a new layout.
func (d *VertexDecl) Begin() *VertexDecl {
	d.hash = 0
	d.stride = 0
	d.offset = [AttribCount]uint16{}
	for i := range d.attributes {
		d.attributes[i] = attribUnused
	}
	return d
}

// Add appends attribute a with num components (1-4) of typ. normalized maps
// integer types to [0, 1] or [-1, 1]; asInt keeps integer types unconverted.
func (d *VertexDecl) Add(a Attrib, num uint8, typ AttribType, normalized, asInt bool) *VertexDecl {
	if a >= AttribCount || typ >= AttribTypeCount || num == 0 || num > 4 {
		Logger().Warn("gfx: vertex attribute ignored", "attrib", a.String(), "num", num, "type", typ.String())
		return d
	}
	v := uint8(typ)&3<<3 | (num-1)&3
	if normalized {
		v |= 1 << 6
	}
	if asInt && typ <= AttribInt16 {
		v |= 1 << 7
	}
	d.attributes[a] = v
	d.offset[a] = d.stride
	d.stride += attribTypeSize[typ][num-1]
	return d
}

// Skip adds n bytes of padding.
func (d *VertexDecl) Skip(n uint8) *VertexDecl {
	d.stride += uint16(n)
	return d
}

// End finishes the layout and computes its hash.
func (d *VertexDecl) End() {
	h := fnv.New32a()
	h.Write(d.attributes[:])
	var buf [2 * (AttribCount + 1)]byte
	for i, off := range d.offset {
		buf[2*i] = byte(off)
		buf[2*i+1] = byte(off >> 8)
	}
	buf[2*AttribCount] = byte(d.stride)
	buf[2*AttribCount+1] = byte(d.stride >> 8)
	h.Write(buf[:])
	d.hash = h.Sum32()
}

// Has reports whether attribute a is part of the layout.
func (d *VertexDecl) Has(a Attrib) bool {
	return a < AttribCount && d.attributes[a] != attribUnused
}

// Decode returns the description of attribute a.
func (d *VertexDecl) Decode(a Attrib) (num uint8, typ AttribType, normalized, asInt bool) {
	v := d.attributes[a]
	return v&3 + 1, AttribType(v >> 3 & 3), v&(1<<6) != 0, v&(1<<7) != 0
}

// Offset returns the byte offset of attribute a.
func (d *VertexDecl) Offset(a Attrib) uint16 { return d.offset[a] }

// Stride returns the size of one vertex in bytes.
func (d *VertexDecl) Stride() uint16 { return d.stride }

// Hash identifies the layout; equal layouts have equal hashes.
func (d *VertexDecl) Hash() uint32 { return d.hash }

func (d *VertexDecl) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "decl %08x stride %d", d.hash, d.stride)
	for a := Attrib(0); a < AttribCount; a++ {
		if !d.Has(a) {
			continue
		}
		num, typ, norm, asInt := d.Decode(a)
		fmt.Fprintf(&sb, " %s:%dx%s@%d", a, num, typ, d.offset[a])
		if norm {
			sb.WriteString("n")
		}
		if asInt {
			sb.WriteString("i")
		}
	}
	return sb.String()
}

// declEntry is one shared vertex declaration.
type declEntry struct {
	handle VertexDeclHandle
	refs   int
}

// declRegistry shares VertexDecl handles between buffers that use the same
// layout. It is owned by the producer side.
type declRegistry struct {
	byHash map[uint32]*declEntry
}

func newDeclRegistry() *declRegistry {
	return &declRegistry{byHash: make(map[uint32]*declEntry)}
}

// find returns the handle registered for hash, or the invalid handle.
func (r *declRegistry) find(hash uint32) VertexDeclHandle {
	if e, ok := r.byHash[hash]; ok {
		return e.handle
	}
	return VertexDeclHandle{}
}

// add registers one more user of the layout hash.
func (r *declRegistry) add(hash uint32, h VertexDeclHandle) {
	e, ok := r.byHash[hash]
	if !ok {
		e = &declEntry{handle: h}
		r.byHash[hash] = e
	}
	e.refs++
}

// release drops one user of hash. It returns the declaration handle when no
// users remain, so the caller can destroy it.
func (r *declRegistry) release(hash uint32) (VertexDeclHandle, bool) {
	e, ok := r.byHash[hash]
	if !ok {
		return VertexDeclHandle{}, false
	}
	e.refs--
	if e.refs > 0 {
		return VertexDeclHandle{}, false
	}
	delete(r.byHash, hash)
	return e.handle, true
}

// refs returns the number of users of hash.
func (r *declRegistry) refs(hash uint32) int {
	if e, ok := r.byHash[hash]; ok {
		return e.refs
	}
	return 0
}

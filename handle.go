// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"fmt"

	"github.com/gogpu/gfx/internal/cmdbuf"
	"github.com/gogpu/gfx/internal/handlealloc"
)

// resourceKind identifies a handle table.
type resourceKind uint8

const (
	kindVertexDecl resourceKind = iota
	kindIndexBuffer
	kindVertexBuffer
	kindDynamicIndexBuffer
	kindDynamicVertexBuffer
	kindShader
	kindProgram
	kindTexture
	kindFrameBuffer
	kindUniform
	kindCount
)

var kindNames = [kindCount]string{
	"VertexDecl",
	"IndexBuffer",
	"VertexBuffer",
	"DynamicIndexBuffer",
	"DynamicVertexBuffer",
	"Shader",
	"Program",
	"Texture",
	"FrameBuffer",
	"Uniform",
}

func (k resourceKind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// kindTag is implemented by the marker types that distinguish handle kinds
// at compile time.
type kindTag interface {
	kind() resourceKind
}

type (
	vertexDeclKind          struct{}
	indexBufferKind         struct{}
	vertexBufferKind        struct{}
	dynamicIndexBufferKind  struct{}
	dynamicVertexBufferKind struct{}
	shaderKind              struct{}
	programKind             struct{}
	textureKind             struct{}
	frameBufferKind         struct{}
	uniformKind             struct{}
)

func (vertexDeclKind) kind() resourceKind          { return kindVertexDecl }
func (indexBufferKind) kind() resourceKind         { return kindIndexBuffer }
func (vertexBufferKind) kind() resourceKind        { return kindVertexBuffer }
func (dynamicIndexBufferKind) kind() resourceKind  { return kindDynamicIndexBuffer }
func (dynamicVertexBufferKind) kind() resourceKind { return kindDynamicVertexBuffer }
func (shaderKind) kind() resourceKind              { return kindShader }
func (programKind) kind() resourceKind             { return kindProgram }
func (textureKind) kind() resourceKind             { return kindTexture }
func (frameBufferKind) kind() resourceKind         { return kindFrameBuffer }
func (uniformKind) kind() resourceKind             { return kindUniform }

// Handle is an opaque reference to a resource of kind K.
//
// A handle packs a 16-bit table index and a 16-bit generation. The zero
// value is the invalid handle. A handle becomes stale when its resource is
// destroyed; operations on a stale handle log a warning and do nothing.
type Handle[K kindTag] struct {
	v uint32
}

// Handle types, one per resource kind.
type (
	VertexDeclHandle          = Handle[vertexDeclKind]
	IndexBufferHandle         = Handle[indexBufferKind]
	VertexBufferHandle        = Handle[vertexBufferKind]
	DynamicIndexBufferHandle  = Handle[dynamicIndexBufferKind]
	DynamicVertexBufferHandle = Handle[dynamicVertexBufferKind]
	ShaderHandle              = Handle[shaderKind]
	ProgramHandle             = Handle[programKind]
	TextureHandle             = Handle[textureKind]
	FrameBufferHandle         = Handle[frameBufferKind]
	UniformHandle             = Handle[uniformKind]
)

// IsValid reports whether h is not the zero handle. A valid handle may still
// be stale.
func (h Handle[K]) IsValid() bool { return h.v != handlealloc.Invalid }

// Index returns the table slot of h.
func (h Handle[K]) Index() uint16 { return handlealloc.Index(h.v) }

// Generation returns the generation of h.
func (h Handle[K]) Generation() uint16 { return handlealloc.Generation(h.v) }

// Value returns the packed 32-bit representation of h.
func (h Handle[K]) Value() uint32 { return h.v }

func (h Handle[K]) kind() resourceKind {
	var k K
	return k.kind()
}

func (h Handle[K]) String() string {
	if !h.IsValid() {
		return h.kind().String() + "(invalid)"
	}
	return fmt.Sprintf("%s(%d:%d)", h.kind(), h.Index(), h.Generation())
}

func writeHandle[K kindTag](b *cmdbuf.Buffer, h Handle[K]) {
	b.WriteUint32(h.v)
}

func readHandle[K kindTag](b *cmdbuf.Buffer) Handle[K] {
	return Handle[K]{v: b.ReadUint32()}
}

// handleTables holds one allocator per resource kind plus the handles that
// were destroyed but whose slots are not yet free. It is owned by the
// producer side of a Context.
type handleTables struct {
	alloc  [kindCount]*handlealloc.Allocator
	doomed [kindCount]map[uint32]struct{}
}

func newHandleTables(l *Limits) *handleTables {
	caps := [kindCount]uint16{
		kindVertexDecl:          l.MaxVertexDecls,
		kindIndexBuffer:         l.MaxIndexBuffers,
		kindVertexBuffer:        l.MaxVertexBuffers,
		kindDynamicIndexBuffer:  l.MaxDynamicIndexBuffers,
		kindDynamicVertexBuffer: l.MaxDynamicVertexBuffers,
		kindShader:              l.MaxShaders,
		kindProgram:             l.MaxPrograms,
		kindTexture:             l.MaxTextures,
		kindFrameBuffer:         l.MaxFrameBuffers,
		kindUniform:             l.MaxUniforms,
	}
	t := &handleTables{}
	for k := range t.alloc {
		t.alloc[k] = handlealloc.New(caps[k])
		t.doomed[k] = make(map[uint32]struct{})
	}
	return t
}

// allocHandle takes a slot from the table for K. It logs a warning and
// returns the invalid handle when the table is full.
func allocHandle[K kindTag](t *handleTables) Handle[K] {
	var zero Handle[K]
	v, ok := t.alloc[zero.kind()].Alloc()
	if !ok {
		Logger().Warn("gfx: handle table full", "kind", zero.kind().String(), "err", ErrTableFull)
		return zero
	}
	return Handle[K]{v: v}
}

// checkHandle validates h against its table. A handle whose destruction is
// pending counts as stale. On failure it logs a warning naming op and
// returns the reason.
func checkHandle[K kindTag](t *handleTables, h Handle[K], op string) error {
	if err := lookupHandle(t, h); err != nil {
		Logger().Warn("gfx: "+op+" ignored", "handle", h.String(), "err", err)
		return err
	}
	return nil
}

// lookupHandle is checkHandle without the warning.
func lookupHandle[K kindTag](t *handleTables, h Handle[K]) error {
	if !h.IsValid() {
		return ErrInvalidHandle
	}
	k := h.kind()
	if t.alloc[k].Check(h.v) != nil {
		return ErrStaleHandle
	}
	if _, ok := t.doomed[k][h.v]; ok {
		return ErrStaleHandle
	}
	return nil
}

// doomHandle marks h as destroyed. Its slot stays taken until freeHandle.
func doomHandle[K kindTag](t *handleTables, h Handle[K]) {
	t.doomed[h.kind()][h.v] = struct{}{}
}

// freeHandle returns a doomed slot to its table.
func (t *handleTables) freeHandle(k resourceKind, v uint32) {
	delete(t.doomed[k], v)
	if err := t.alloc[k].Free(v); err != nil {
		Logger().Warn("gfx: free ignored", "kind", k.String(), "handle", v, "err", err)
	}
}

// len returns the number of live slots of kind k, pending frees included.
func (t *handleTables) len(k resourceKind) int { return t.alloc[k].Len() }

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"fmt"
	"strings"
	"testing"
)

// recorder is a Renderer that replays frames through SubmitFrame into
// itself and records what it was asked to do.
type recorder struct {
	nopRenderer

	initErr  error
	calls    []string
	draws    []DrawCall
	uniforms map[uint16][]byte
	flips    int
}

func newRecorder() *recorder {
	return &recorder{uniforms: make(map[uint16][]byte)}
}

func (r *recorder) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// count returns the number of recorded calls starting with prefix.
func (r *recorder) count(prefix string) int {
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// filter returns the recorded calls starting with prefix.
func (r *recorder) filter(prefix string) []string {
	var out []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Init(res Resolution) error {
	r.log("Init %dx%d", res.Width, res.Height)
	return r.initErr
}

func (r *recorder) Shutdown() { r.log("Shutdown") }

func (r *recorder) CreateShader(h ShaderHandle, _ *ShaderChunk) error {
	r.log("CreateShader %d", h.Index())
	return nil
}

func (r *recorder) DestroyShader(h ShaderHandle) { r.log("DestroyShader %d", h.Index()) }

func (r *recorder) CreateProgram(h ProgramHandle, _, _ ShaderHandle) error {
	r.log("CreateProgram %d", h.Index())
	return nil
}

func (r *recorder) DestroyProgram(h ProgramHandle) { r.log("DestroyProgram %d", h.Index()) }

func (r *recorder) CreateUniform(h UniformHandle, typ UniformType, num uint16, name string) error {
	r.log("CreateUniform %s %s %d", name, typ, num)
	return nil
}

func (r *recorder) DestroyUniform(h UniformHandle) { r.log("DestroyUniform %d", h.Index()) }

func (r *recorder) DestroyTexture(h TextureHandle) { r.log("DestroyTexture %d", h.Index()) }

func (r *recorder) CreateIndexBuffer(h IndexBufferHandle, _ []byte) error {
	r.log("CreateIndexBuffer %d", h.Index())
	return nil
}

func (r *recorder) UpdateViewName(id uint8, name string) {
	r.log("UpdateViewName %d %d", id, len(name))
}

func (r *recorder) DestroyIndexBuffer(h IndexBufferHandle) {
	r.log("DestroyIndexBuffer %d", h.Index())
}

func (r *recorder) Submit(f *Frame) error {
	r.log("Submit %d", f.NumDraws())
	return SubmitFrame(f, r)
}

func (r *recorder) Flip() { r.flips++ }

// DrawTarget.

func (r *recorder) SetUniform(typ UniformType, loc, num uint16, data []byte) {
	r.uniforms[loc] = append([]byte(nil), data...)
}

func (r *recorder) UpdateDynamicIndexBuffer(h IndexBufferHandle, offset uint32, data []byte) {
	r.log("UpdateDynamicIndexBuffer %d", len(data))
}

func (r *recorder) UpdateDynamicVertexBuffer(h VertexBufferHandle, offset uint32, data []byte) {
	r.log("UpdateDynamicVertexBuffer %d", len(data))
}

func (r *recorder) SetView(id uint8, fb FrameBufferHandle, viewport Rect) {
	r.log("SetView %d", id)
}

func (r *recorder) ClearView(id uint8, rect Rect, clear Clear) {
	r.log("ClearView %d %#08x", id, clear.RGBA)
}

func (r *recorder) SetScissor(rect Rect, enabled bool) {
	if enabled {
		r.log("SetScissor %d,%d %dx%d", rect.X, rect.Y, rect.Width, rect.Height)
	}
}

func (r *recorder) SetStencil(front, back Stencil) {}

func (r *recorder) SetState(state State, rgba uint32) { r.log("SetState %#x", uint64(state)) }

func (r *recorder) SetProgram(h ProgramHandle) {}

func (r *recorder) SetTexture(stage uint8, tex TextureHandle, flags TextureFlags) {
	if tex.IsValid() {
		r.log("SetTexture %d %d %#x", stage, tex.Index(), uint32(flags))
	}
}

func (r *recorder) SetVertexBuffer(h VertexBufferHandle, decl VertexDeclHandle) {}

func (r *recorder) SetInstanceDataBuffer(h VertexBufferHandle, offset uint32, stride uint16) {
	r.log("SetInstanceDataBuffer %d %d", offset, stride)
}

func (r *recorder) SetIndexBuffer(h IndexBufferHandle) {}

func (r *recorder) Draw(dc DrawCall) { r.draws = append(r.draws, dc) }

// newTestContext creates a single-threaded Context driving a recorder.
func newTestContext(t *testing.T, opts ...Option) (*Context, *recorder) {
	t.Helper()
	r := newRecorder()
	opts = append([]Option{WithSingleThreaded(true), WithResolution(64, 32, ResetNone)}, opts...)
	c, err := New(r, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Shutdown)
	return c, r
}

// posDecl is a layout of three floats per vertex.
func posDecl() *VertexDecl {
	var d VertexDecl
	d.Begin().Add(AttribPosition, 3, AttribFloat, false, false).End()
	return &d
}

// shaderData builds a shader chunk.
func shaderData(t *testing.T, magic ChunkMagic, hash uint32, uniforms ...ShaderUniform) []byte {
	t.Helper()
	s := &ShaderChunk{Magic: magic, Hash: hash, Uniforms: uniforms, Code: []byte("code")}
	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	return data
}

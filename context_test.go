// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewRunsInitFrame(t *testing.T) {
	c, r := newTestContext(t)
	if got := r.filter("Init"); len(got) != 1 || got[0] != "Init 64x32" {
		t.Errorf("Init calls = %v, want [Init 64x32]", got)
	}
	if r.flips != 1 {
		t.Errorf("flips after New = %d, want 1", r.flips)
	}
	if n := c.Frame(); n != 2 {
		t.Errorf("Frame() = %d, want 2", n)
	}
	if c.Renderer() != Renderer(r) {
		t.Error("Renderer() does not return the renderer passed to New")
	}
}

func TestInitFailure(t *testing.T) {
	r := newRecorder()
	r.initErr = errors.New("no adapter")
	var codes []FatalCode
	_, err := New(r,
		WithSingleThreaded(true),
		WithFatalHandler(func(code FatalCode, _ string) { codes = append(codes, code) }),
	)
	if !errors.Is(err, r.initErr) {
		t.Fatalf("New() error = %v, want %v", err, r.initErr)
	}
	if !slices.Equal(codes, []FatalCode{FatalUnableToInitialize}) {
		t.Errorf("fatal codes = %v, want [%v]", codes, FatalUnableToInitialize)
	}
	if r.count("Submit") != 0 || r.flips != 0 || r.count("Shutdown") != 0 {
		t.Errorf("renderer used after failed init: calls = %v, flips = %d", r.calls, r.flips)
	}
}

func TestHandleLifetime(t *testing.T) {
	c, r := newTestContext(t)
	indices := []byte{0, 0, 1, 0, 2, 0}

	ib := c.CreateIndexBuffer(indices)
	if !ib.IsValid() {
		t.Fatal("CreateIndexBuffer() returned the invalid handle")
	}
	c.DestroyIndexBuffer(ib)
	if err := lookupHandle(c.tables, ib); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("lookup after destroy = %v, want %v", err, ErrStaleHandle)
	}
	// Destroying twice is ignored.
	c.DestroyIndexBuffer(ib)

	ib2 := c.CreateIndexBuffer(indices)
	if ib2.Index() == ib.Index() {
		t.Errorf("slot %d reused before the frame was rendered", ib.Index())
	}

	c.Frame()
	c.Frame()
	ib3 := c.CreateIndexBuffer(indices)
	if ib3.Index() != ib.Index() {
		t.Errorf("CreateIndexBuffer() index = %d, want freed slot %d", ib3.Index(), ib.Index())
	}
	if ib3.Generation() == ib.Generation() {
		t.Error("reused slot kept its generation")
	}
	if err := lookupHandle(c.tables, ib); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("lookup of old handle = %v, want %v", err, ErrStaleHandle)
	}
	if n := r.count("DestroyIndexBuffer"); n != 1 {
		t.Errorf("DestroyIndexBuffer calls = %d, want 1", n)
	}
}

func TestHandleTableFull(t *testing.T) {
	l := DefaultLimits()
	l.MaxShaders = 1
	c, _ := newTestContext(t, WithLimits(l))

	if h := c.CreateShader(shaderData(t, ChunkMagicVSH, 1)); !h.IsValid() {
		t.Fatal("first CreateShader() failed")
	}
	if h := c.CreateShader(shaderData(t, ChunkMagicFSH, 1)); h.IsValid() {
		t.Errorf("CreateShader() on a full table = %v, want invalid", h)
	}
}

func TestInvalidHandlesIgnored(t *testing.T) {
	c, r := newTestContext(t)
	c.DestroyTexture(TextureHandle{})
	c.SetProgram(ProgramHandle{})
	c.SetUniform(UniformHandle{}, Float32Bytes(1), 1)
	if h := c.CreateShader([]byte("garbage")); h.IsValid() {
		t.Errorf("CreateShader(garbage) = %v, want invalid", h)
	}
	c.Frame()
	if n := r.count("DestroyTexture"); n != 0 {
		t.Errorf("DestroyTexture calls = %d, want 0", n)
	}
}

func TestUniformRegistry(t *testing.T) {
	c, r := newTestContext(t)

	a := c.CreateUniform("u_tint", Uniform4fv, 1)
	if b := c.CreateUniform("u_tint", Uniform4fv, 1); b != a {
		t.Errorf("second CreateUniform() = %v, want %v", b, a)
	}
	if b := c.CreateUniform("u_tint", Uniform4x4fv, 2); b != a {
		t.Errorf("widening CreateUniform() = %v, want %v", b, a)
	}
	u := c.uniforms[a.Index()]
	if u.typ != Uniform4x4fv || u.num != 2 || u.refs != 3 {
		t.Errorf("uniform = %+v, want Uniform4x4fv x2 with 3 refs", u)
	}
	c.Frame()
	want := []string{"CreateUniform u_tint Uniform4fv 1", "CreateUniform u_tint Uniform4x4fv 2"}
	if got := r.filter("CreateUniform u_tint"); !slices.Equal(got, want) {
		t.Errorf("CreateUniform calls = %v, want %v", got, want)
	}

	c.DestroyUniform(a)
	c.DestroyUniform(a)
	if _, ok := c.uniformByName["u_tint"]; !ok {
		t.Error("uniform removed while still referenced")
	}
	c.DestroyUniform(a)
	if _, ok := c.uniformByName["u_tint"]; ok {
		t.Error("uniform kept after its last reference")
	}
	c.Frame()
	if n := r.count("DestroyUniform"); n != 1 {
		t.Errorf("DestroyUniform calls = %d, want 1", n)
	}

	if h := c.CreateUniform("u_viewProj", Uniform4x4fv, 1); h.IsValid() {
		t.Error("CreateUniform() accepted a predefined name")
	}
	if h := c.CreateUniform("u_end", UniformEnd, 1); h.IsValid() {
		t.Error("CreateUniform() accepted UniformEnd")
	}
}

func TestProgramOwnsShaders(t *testing.T) {
	c, r := newTestContext(t)

	vsh := c.CreateShader(shaderData(t, ChunkMagicVSH, 7,
		ShaderUniform{Name: "u_modelViewProj", Type: Uniform4x4fv, Num: 1}))
	fsh := c.CreateShader(shaderData(t, ChunkMagicFSH, 7,
		ShaderUniform{Name: "u_color", Type: Uniform4fv, Num: 1}))
	other := c.CreateShader(shaderData(t, ChunkMagicFSH, 8))

	if _, ok := c.uniformByName["u_color"]; !ok {
		t.Error("shader uniform u_color not registered")
	}
	if _, ok := c.uniformByName["u_modelViewProj"]; ok {
		t.Error("predefined uniform registered as a user uniform")
	}

	tests := []struct {
		name     string
		vsh, fsh ShaderHandle
	}{
		{"hash mismatch", vsh, other},
		{"swapped stages", fsh, vsh},
		{"invalid", ShaderHandle{}, fsh},
	}
	for _, tt := range tests {
		if h := c.CreateProgram(tt.vsh, tt.fsh, false); h.IsValid() {
			t.Errorf("CreateProgram(%s) = %v, want invalid", tt.name, h)
		}
	}

	p := c.CreateProgram(vsh, fsh, true)
	if !p.IsValid() {
		t.Fatal("CreateProgram() failed")
	}
	if h := c.CreateProgram(vsh, fsh, false); h.IsValid() {
		t.Error("CreateProgram() linked shaders the application destroyed")
	}
	c.Frame()
	c.Frame()
	if n := r.count("DestroyShader"); n != 0 {
		t.Errorf("DestroyShader calls while the program lives = %d, want 0", n)
	}

	c.DestroyProgram(p)
	c.Frame()
	if n := r.count("DestroyShader"); n != 2 {
		t.Errorf("DestroyShader calls = %d, want 2", n)
	}
	if n := r.count("DestroyProgram"); n != 1 {
		t.Errorf("DestroyProgram calls = %d, want 1", n)
	}
	if _, ok := c.uniformByName["u_color"]; ok {
		t.Error("shader uniform kept after its shader was destroyed")
	}
}

func TestFrameBufferKeepsTextures(t *testing.T) {
	c, r := newTestContext(t)

	tex := c.CreateTexture2D(4, 4, 1, TextureFormatRGBA8, TextureNone, nil)
	fb := c.CreateFrameBufferFromTextures(tex)
	if !fb.IsValid() {
		t.Fatal("CreateFrameBufferFromTextures() failed")
	}
	c.DestroyTexture(tex)
	if h := c.CreateFrameBufferFromTextures(tex); h.IsValid() {
		t.Error("frame buffer created from a destroyed texture")
	}
	c.Frame()
	c.Frame()
	if n := r.count("DestroyTexture"); n != 0 {
		t.Errorf("DestroyTexture calls while attached = %d, want 0", n)
	}

	c.DestroyFrameBuffer(fb)
	c.Frame()
	if n := r.count("DestroyTexture"); n != 1 {
		t.Errorf("DestroyTexture calls = %d, want 1", n)
	}
}

func TestCreateTextureValidation(t *testing.T) {
	c, _ := newTestContext(t)
	tests := []struct {
		name string
		desc *TextureDesc
	}{
		{"nil", nil},
		{"zero size", &TextureDesc{Width: 0, Height: 4, Format: TextureFormatRGBA8}},
		{"unknown format", &TextureDesc{Width: 4, Height: 4}},
		{"short data", &TextureDesc{Width: 4, Height: 4, Format: TextureFormatRGBA8, Data: make([]byte, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h := c.CreateTexture(tt.desc); h.IsValid() {
				t.Errorf("CreateTexture() = %v, want invalid", h)
			}
		})
	}
}

func TestSubmitOrder(t *testing.T) {
	c, r := newTestContext(t)
	vb := c.CreateVertexBuffer(make([]byte, 12*12), posDecl())
	c.SetViewSeq(1, true)

	submit := func(view uint8, n uint32, depth int32) {
		c.SetVertexBuffer(vb, 0, n)
		c.Submit(view, depth)
	}
	submit(1, 3, 10)
	submit(1, 6, -10)
	submit(0, 9, 5)
	submit(0, 12, -5)
	r.draws = nil
	c.Frame()

	var got []uint32
	for _, dc := range r.draws {
		got = append(got, dc.NumVertices)
	}
	// View 0 sorts by depth, view 1 keeps submission order.
	if want := []uint32{12, 9, 3, 6}; !slices.Equal(got, want) {
		t.Errorf("draw order = %v, want %v", got, want)
	}
	if got := r.filter("SetView"); !slices.Equal(got, []string{"SetView 0", "SetView 1"}) {
		t.Errorf("SetView calls = %v", got)
	}
}

func TestSubmitDropsDraws(t *testing.T) {
	l := DefaultLimits()
	l.MaxDrawCalls = 2
	c, r := newTestContext(t, WithLimits(l))
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())
	ib := c.CreateIndexBuffer([]byte{0, 0, 1, 0, 2, 0})

	for range 3 {
		c.SetVertexBuffer(vb, 0, 3)
		c.Submit(0, 0)
	}
	// Nothing to draw.
	c.SetVertexBuffer(vb, 0, 0)
	c.SetIndexBuffer(ib, 0, 0)
	c.Submit(0, 0)
	// No such view.
	c.SetVertexBuffer(vb, 0, 3)
	if n := c.Submit(MaxViews, 0); n != 2 {
		t.Errorf("Submit() to a missing view = %d, want 2", n)
	}
	r.draws = nil
	c.Frame()

	st := c.Stats()
	if st.NumDraws != 2 || st.NumDropped != 2 {
		t.Errorf("Stats() draws = %d dropped = %d, want 2 and 2", st.NumDraws, st.NumDropped)
	}
	if len(r.draws) != 2 {
		t.Errorf("draws = %d, want 2", len(r.draws))
	}
}

func TestDiscard(t *testing.T) {
	c, r := newTestContext(t)
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())

	c.SetVertexBuffer(vb, 0, 3)
	c.SetState(StateDefault|StatePTLines, 0)
	c.Discard()
	c.SetVertexBuffer(vb, 0, 3)
	c.Submit(0, 0)
	r.draws = nil
	c.Frame()

	if len(r.draws) != 1 || r.draws[0].Primitive != PrimitiveTriangles {
		t.Errorf("draws = %+v, want one triangle draw", r.draws)
	}
}

func TestTransientDiscardSticks(t *testing.T) {
	c, r := newTestContext(t)
	tvb := c.AllocTransientVertexBuffer(4, posDecl())
	tib := c.AllocTransientIndexBuffer(6)

	// An empty vertex range is not undone by a valid index range.
	c.SetTransientVertexBuffer(&tvb, tvb.Num, 3)
	c.SetTransientIndexBuffer(&tib, 0, 6)
	c.Submit(0, 0)
	// Nor the other way round.
	c.SetTransientIndexBuffer(&tib, tib.Num, 6)
	c.SetTransientVertexBuffer(&tvb, 0, 3)
	c.Submit(0, 0)
	r.draws = nil
	c.Frame()

	if len(r.draws) != 0 {
		t.Errorf("draws = %+v, want none", r.draws)
	}
	if st := c.Stats(); st.NumDraws != 0 || st.NumDropped != 0 {
		t.Errorf("Stats() draws = %d dropped = %d, want 0 and 0", st.NumDraws, st.NumDropped)
	}
}

func TestTransientBuffers(t *testing.T) {
	l := DefaultLimits()
	l.TransientIndexBufferSize = 16
	l.TransientVertexBufferSize = 64
	c, r := newTestContext(t, WithLimits(l))

	if !c.CheckAvailTransientIndexBuffer(8) || c.CheckAvailTransientIndexBuffer(9) {
		t.Error("CheckAvailTransientIndexBuffer() does not match an 8-index region")
	}
	tib := c.AllocTransientIndexBuffer(6)
	if tib.Num != 6 || tib.StartIndex != 0 || len(tib.Data) != 12 {
		t.Errorf("first tib = %d@%d (%d bytes), want 6@0", tib.Num, tib.StartIndex, len(tib.Data))
	}
	if tib2 := c.AllocTransientIndexBuffer(6); tib2.Num != 2 || tib2.StartIndex != 6 {
		t.Errorf("saturated tib = %d@%d, want 2@6", tib2.Num, tib2.StartIndex)
	}

	tvb := c.AllocTransientVertexBuffer(10, posDecl())
	if tvb.Num != 5 || tvb.Stride != 12 {
		t.Errorf("tvb = %d vertices of %d bytes, want 5 of 12", tvb.Num, tvb.Stride)
	}

	c.SetTransientVertexBuffer(&tvb, 0, 3)
	c.SetTransientIndexBuffer(&tib, 0, 6)
	c.Submit(0, 0)
	// Past the end: discarded, not dropped.
	c.SetTransientVertexBuffer(&tvb, 5, 3)
	c.Submit(0, 0)
	r.draws = nil
	c.Frame()

	if got := r.filter("UpdateDynamicIndexBuffer"); !slices.Contains(got, "UpdateDynamicIndexBuffer 16") {
		t.Errorf("index uploads = %v, want 16 bytes", got)
	}
	if got := r.filter("UpdateDynamicVertexBuffer"); !slices.Contains(got, "UpdateDynamicVertexBuffer 60") {
		t.Errorf("vertex uploads = %v, want 60 bytes", got)
	}
	st := c.Stats()
	if st.TransientIndexBytes != 16 || st.TransientVertexBytes != 60 {
		t.Errorf("transient bytes = %d/%d, want 16/60", st.TransientIndexBytes, st.TransientVertexBytes)
	}
	if st.NumDraws != 1 || st.NumDropped != 0 {
		t.Errorf("Stats() draws = %d dropped = %d, want 1 and 0", st.NumDraws, st.NumDropped)
	}
	if len(r.draws) != 1 || !r.draws[0].Indexed || r.draws[0].NumIndices != 6 {
		t.Errorf("draws = %+v, want one indexed draw of 6", r.draws)
	}
}

func TestInstanceData(t *testing.T) {
	c, r := newTestContext(t)
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())

	idb := c.AllocInstanceDataBuffer(4, 20)
	if idb.Stride != 32 || idb.Num != 4 {
		t.Fatalf("idb = %d of %d bytes, want 4 of 32", idb.Num, idb.Stride)
	}
	c.SetVertexBuffer(vb, 0, 3)
	c.SetInstanceDataBuffer(&idb, 3)
	c.Submit(0, 0)
	r.draws = nil
	c.Frame()

	if len(r.draws) != 1 || r.draws[0].NumInstances != 3 {
		t.Fatalf("draws = %+v, want one draw of 3 instances", r.draws)
	}
	if got := r.filter("SetInstanceDataBuffer"); len(got) != 1 || got[0] != "SetInstanceDataBuffer 0 32" {
		t.Errorf("SetInstanceDataBuffer calls = %v", got)
	}
	if st := c.Stats(); st.NumPrims != 3 || st.NumInstances != 3 {
		t.Errorf("Stats() prims = %d instances = %d, want 3 and 3", st.NumPrims, st.NumInstances)
	}
}

func TestInstanceDataStrideLimit(t *testing.T) {
	c, _ := newTestContext(t)
	for _, stride := range []uint16{0, maxInstanceStride + 1, 0xffff} {
		if idb := c.AllocInstanceDataBuffer(1, stride); idb.Num != 0 || idb.Stride != 0 {
			t.Errorf("AllocInstanceDataBuffer(1, %d) = %d of %d bytes, want nothing", stride, idb.Num, idb.Stride)
		}
	}
	if idb := c.AllocInstanceDataBuffer(1, maxInstanceStride); idb.Num != 1 || idb.Stride != maxInstanceStride {
		t.Errorf("AllocInstanceDataBuffer(1, %d) = %d of %d bytes, want 1 of %d",
			maxInstanceStride, idb.Num, idb.Stride, maxInstanceStride)
	}
}

func TestUniformsReachProgram(t *testing.T) {
	c, r := newTestContext(t)

	vsh := c.CreateShader(shaderData(t, ChunkMagicVSH, 1,
		ShaderUniform{Name: "u_modelViewProj", Type: Uniform4x4fv, Num: 1, RegIndex: 0}))
	fsh := c.CreateShader(shaderData(t, ChunkMagicFSH, 1,
		ShaderUniform{Name: "u_color", Type: Uniform4fv, Num: 1, RegIndex: 2}))
	prog := c.CreateProgram(vsh, fsh, true)
	color := c.uniformByName["u_color"]
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())

	model := mgl32.Translate3D(1, 2, 3)
	c.SetTransform(model)
	c.SetUniformFloat32s(color, 0.25, 0.5, 0.75, 1)
	c.SetProgram(prog)
	c.SetVertexBuffer(vb, 0, WholeBuffer)
	c.Submit(0, 0)
	c.Frame()

	wantColor := []float32{0.25, 0.5, 0.75, 1}
	if got := BytesFloat32(r.uniforms[UniformLocFragment|2]); !slices.Equal(got, wantColor) {
		t.Errorf("u_color = %v, want %v", got, wantColor)
	}
	if got := BytesFloat32(r.uniforms[0]); !slices.Equal(got, model[:]) {
		t.Errorf("u_modelViewProj = %v, want %v", got, model)
	}
	if len(r.draws) != 1 || r.draws[0].NumVertices != 3 {
		t.Errorf("draws = %+v, want one draw of the whole buffer", r.draws)
	}

	// The value persists into later frames.
	clear(r.uniforms)
	c.SetProgram(prog)
	c.SetVertexBuffer(vb, 0, WholeBuffer)
	c.Submit(0, 0)
	c.Frame()
	if got := BytesFloat32(r.uniforms[UniformLocFragment|2]); !slices.Equal(got, wantColor) {
		t.Errorf("u_color in the next frame = %v, want %v", got, wantColor)
	}
}

func TestViewScissor(t *testing.T) {
	c, r := newTestContext(t)
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())

	c.SetViewRect(0, 0, 0, 64, 32)
	c.SetViewScissor(0, 0, 0, 16, 16)
	c.SetScissor(8, 8, 16, 16)
	c.SetVertexBuffer(vb, 0, 3)
	c.Submit(0, 0)
	c.SetVertexBuffer(vb, 0, 3)
	c.Submit(0, 1)
	c.Frame()

	want := []string{"SetScissor 8,8 8x8", "SetScissor 0,0 16x16"}
	if got := r.filter("SetScissor"); !slices.Equal(got, want) {
		t.Errorf("SetScissor calls = %v, want %v", got, want)
	}
}

func TestViewClearOnFirstDraw(t *testing.T) {
	c, r := newTestContext(t)
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())

	c.SetViewClear(2, ClearColor|ClearDepth, 0x303030ff, 1, 0)
	for range 3 {
		c.SetVertexBuffer(vb, 0, 3)
		c.Submit(2, 0)
	}
	c.Frame()

	if got := r.filter("ClearView"); !slices.Equal(got, []string{"ClearView 2 0x303030ff"}) {
		t.Errorf("ClearView calls = %v", got)
	}
}

func TestDefaultSamplerUsesTextureFlags(t *testing.T) {
	c, r := newTestContext(t)
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())
	tex := c.CreateTexture2D(2, 2, 1, TextureFormatRGBA8, TextureUClamp, make([]byte, 16))

	c.SetTexture(0, UniformHandle{}, tex, TextureDefaultSampler)
	c.SetVertexBuffer(vb, 0, 3)
	c.Submit(0, 0)
	c.Frame()

	want := []string{"SetTexture 0 " + strconv.Itoa(int(tex.Index())) + " 0x2"}
	if got := r.filter("SetTexture"); !slices.Equal(got, want) {
		t.Errorf("SetTexture calls = %v, want %v", got, want)
	}
}

func TestThreadedContext(t *testing.T) {
	r := newRecorder()
	c, err := New(r, WithResolution(8, 8, ResetNone))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	vb := c.CreateVertexBuffer(make([]byte, 36), posDecl())
	for i := range 5 {
		c.SetVertexBuffer(vb, 0, 3)
		c.Submit(0, 0)
		if n := c.Frame(); n != uint32(i+2) {
			t.Errorf("Frame() = %d, want %d", n, i+2)
		}
	}
	c.Shutdown()
	c.Shutdown()
	if err := c.Close(); !errors.Is(err, ErrShutdown) {
		t.Errorf("Close() after Shutdown = %v, want %v", err, ErrShutdown)
	}

	if r.flips != 6 {
		t.Errorf("flips = %d, want 6", r.flips)
	}
	if len(r.draws) != 5 {
		t.Errorf("draws = %d, want 5", len(r.draws))
	}
	if last := r.calls[len(r.calls)-1]; last != "Shutdown" {
		t.Errorf("last call = %q, want Shutdown", last)
	}
	if n := c.Frame(); n != c.frames {
		t.Errorf("Frame() after Shutdown = %d, want %d", n, c.frames)
	}
}

func TestLongStringsIgnored(t *testing.T) {
	var fatals []FatalCode
	l := DefaultLimits()
	l.CommandBufferSize = 256 << 10
	c, r := newTestContext(t, WithLimits(l),
		WithFatalHandler(func(code FatalCode, _ string) { fatals = append(fatals, code) }))

	long := strings.Repeat("a", 0xffff+9)
	c.SetViewName(0, long)
	c.SaveScreenShot(long)
	if h := c.CreateUniform(long, Uniform4fv, 1); h.IsValid() {
		t.Errorf("CreateUniform(%d bytes) = %v, want invalid", len(long), h)
	}
	ib := c.CreateIndexBuffer(make([]byte, 6))
	c.SetViewName(1, "ok")
	c.Frame()

	if len(fatals) != 0 {
		t.Fatalf("fatal codes = %v, want none", fatals)
	}
	if !ib.IsValid() || r.count("CreateIndexBuffer") != 1 {
		t.Errorf("index buffer %v created %d times, want once", ib, r.count("CreateIndexBuffer"))
	}
	if got := r.filter("UpdateViewName"); !slices.Equal(got, []string{"UpdateViewName 1 2"}) {
		t.Errorf("UpdateViewName calls = %v, want [UpdateViewName 1 2]", got)
	}
	if n := r.count("CreateUniform"); n != 0 {
		t.Errorf("CreateUniform calls = %d, want 0", n)
	}
}

func TestStringsOverflowingCommandBuffer(t *testing.T) {
	c, r := newTestContext(t)
	name := strings.Repeat("v", 60000)
	c.SetViewName(0, name)
	c.SetViewName(1, name)
	if h := c.CreateUniform(name, Uniform4fv, 1); h.IsValid() {
		t.Errorf("CreateUniform() = %v after the buffer filled, want invalid", h)
	}
	c.SaveScreenShot("shot.png")
	c.Frame()
	if got := r.filter("UpdateViewName"); !slices.Equal(got, []string{"UpdateViewName 0 60000"}) {
		t.Errorf("UpdateViewName calls = %v, want only view 0", got)
	}

	// The next frame has an empty buffer again.
	c.SetViewName(1, name)
	c.Frame()
	if got := r.filter("UpdateViewName"); len(got) != 2 || got[1] != "UpdateViewName 1 60000" {
		t.Errorf("UpdateViewName calls = %v, want view 1 in the second frame", got)
	}
}

func TestFrameSem(t *testing.T) {
	s := newFrameSem()
	woke := make(chan struct{})
	go func() {
		s.wait()
		close(woke)
	}()
	select {
	case <-woke:
		t.Fatal("wait() returned before post()")
	case <-time.After(10 * time.Millisecond):
	}
	s.post()
	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("wait() did not return after post()")
	}

	s.post()
	s.wait()
}

func TestExternalRenderLoop(t *testing.T) {
	r := newRecorder()
	c, err := New(r, WithExternalRenderLoop(true), WithResolution(8, 8, ResetNone))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for !c.RenderFrame() {
		}
	}()

	c.Frame()
	c.Frame()
	c.Shutdown()
	<-done

	if r.count("Init") != 1 || r.count("Shutdown") != 1 {
		t.Errorf("calls = %v, want one Init and one Shutdown", r.calls)
	}
	if r.flips != 3 {
		t.Errorf("flips = %d, want 3", r.flips)
	}
}

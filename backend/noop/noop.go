// Package noop provides a renderer that accepts every command and draws
// nothing. Frames still go through gfx.SubmitFrame, so statistics are
// computed as with a real device.
//
// The renderer registers itself as "noop" on import:
//
//	import _ "github.com/gogpu/gfx/backend/noop"
package noop

import (
	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend"
)

func init() {
	backend.Register(backend.NameNoop, func() (gfx.Renderer, error) {
		return New(), nil
	})
}

// Renderer implements gfx.Renderer without a device.
type Renderer struct {
	res    gfx.Resolution
	frames uint64
}

var _ gfx.Renderer = (*Renderer)(nil)

// New creates a noop renderer.
func New() *Renderer {
	return &Renderer{}
}

// Name returns "noop".
func (r *Renderer) Name() string { return backend.NameNoop }

// Init records the back buffer size.
func (r *Renderer) Init(res gfx.Resolution) error {
	r.res = res
	return nil
}

// Shutdown does nothing.
func (r *Renderer) Shutdown() {}

// Frames returns the number of frames flipped.
func (r *Renderer) Frames() uint64 { return r.frames }

func (r *Renderer) CreateVertexDecl(gfx.VertexDeclHandle, *gfx.VertexDecl) error { return nil }
func (r *Renderer) DestroyVertexDecl(gfx.VertexDeclHandle) {}
func (r *Renderer) CreateIndexBuffer(gfx.IndexBufferHandle, []byte) error { return nil }
func (r *Renderer) DestroyIndexBuffer(gfx.IndexBufferHandle) {}
func (r *Renderer) DestroyVertexBuffer(gfx.VertexBufferHandle) {}
func (r *Renderer) DestroyDynamicIndexBuffer(gfx.IndexBufferHandle) {}
func (r *Renderer) DestroyDynamicVertexBuffer(gfx.VertexBufferHandle) {}
func (r *Renderer) CreateShader(gfx.ShaderHandle, *gfx.ShaderChunk) error { return nil }
func (r *Renderer) DestroyShader(gfx.ShaderHandle) {}
func (r *Renderer) DestroyProgram(gfx.ProgramHandle) {}
func (r *Renderer) CreateTexture(gfx.TextureHandle, *gfx.TextureDesc) error { return nil }
func (r *Renderer) UpdateTexture(gfx.TextureHandle, *gfx.TextureUpdate) {}
func (r *Renderer) DestroyTexture(gfx.TextureHandle) {}
func (r *Renderer) DestroyFrameBuffer(gfx.FrameBufferHandle) {}
func (r *Renderer) DestroyUniform(gfx.UniformHandle) {}
func (r *Renderer) UpdateViewName(uint8, string) {}

func (r *Renderer) CreateVertexBuffer(gfx.VertexBufferHandle, []byte, gfx.VertexDeclHandle) error {
	return nil
}

func (r *Renderer) CreateDynamicIndexBuffer(gfx.IndexBufferHandle, uint32) error {
	return nil
}

func (r *Renderer) UpdateDynamicIndexBuffer(gfx.IndexBufferHandle, uint32, []byte) {}

func (r *Renderer) CreateDynamicVertexBuffer(gfx.VertexBufferHandle, uint32) error {
	return nil
}

func (r *Renderer) UpdateDynamicVertexBuffer(gfx.VertexBufferHandle, uint32, []byte) {}

func (r *Renderer) CreateProgram(gfx.ProgramHandle, gfx.ShaderHandle, gfx.ShaderHandle) error {
	return nil
}

func (r *Renderer) CreateFrameBuffer(gfx.FrameBufferHandle, []gfx.TextureHandle) error {
	return nil
}

func (r *Renderer) CreateUniform(gfx.UniformHandle, gfx.UniformType, uint16, string) error {
	return nil
}

// SaveScreenShot fails: there is no back buffer to read.
func (r *Renderer) SaveScreenShot(string) error { return gfx.ErrNotInitialized }

// Submit walks the frame without drawing.
func (r *Renderer) Submit(f *gfx.Frame) error {
	return gfx.SubmitFrame(f, discard{})
}

// Flip counts the frame.
func (r *Renderer) Flip() { r.frames++ }

// discard is a gfx.DrawTarget that drops everything.
type discard struct{}

func (discard) SetUniform(gfx.UniformType, uint16, uint16, []byte) {}
func (discard) UpdateDynamicIndexBuffer(gfx.IndexBufferHandle, uint32, []byte) {}
func (discard) UpdateDynamicVertexBuffer(gfx.VertexBufferHandle, uint32, []byte) {}
func (discard) SetView(uint8, gfx.FrameBufferHandle, gfx.Rect) {}
func (discard) ClearView(uint8, gfx.Rect, gfx.Clear) {}
func (discard) SetScissor(gfx.Rect, bool) {}
func (discard) SetStencil(gfx.Stencil, gfx.Stencil) {}
func (discard) SetState(gfx.State, uint32) {}
func (discard) SetProgram(gfx.ProgramHandle) {}
func (discard) SetTexture(uint8, gfx.TextureHandle, gfx.TextureFlags) {}
func (discard) SetVertexBuffer(gfx.VertexBufferHandle, gfx.VertexDeclHandle) {}
func (discard) SetInstanceDataBuffer(gfx.VertexBufferHandle, uint32, uint16) {}
func (discard) SetIndexBuffer(gfx.IndexBufferHandle) {}
func (discard) Draw(gfx.DrawCall) {}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// Renderer is implemented by backends. A Context calls every method from its
// render goroutine (or from the goroutine calling Frame when running
// single-threaded), never concurrently.
//
// Create and update calls arrive in the order the application issued them,
// one frame after they were recorded. Handles passed to Destroy methods are
// not reused before the next frame has been rendered.
type Renderer interface {
	// Name returns the backend name used in logs and by the registry.
	Name() string

	// Init creates the device and the back buffer.
	Init(res Resolution) error

	// Shutdown releases every native object.
	Shutdown()

	CreateVertexDecl(h VertexDeclHandle, decl *VertexDecl) error
	DestroyVertexDecl(h VertexDeclHandle)

	CreateIndexBuffer(h IndexBufferHandle, data []byte) error
	DestroyIndexBuffer(h IndexBufferHandle)

	// CreateVertexBuffer creates a static vertex buffer whose layout is decl.
	CreateVertexBuffer(h VertexBufferHandle, data []byte, decl VertexDeclHandle) error
	DestroyVertexBuffer(h VertexBufferHandle)

	// CreateDynamicIndexBuffer creates an updatable index buffer of size
	// bytes. Dynamic and transient index buffers are carved out of these.
	CreateDynamicIndexBuffer(h IndexBufferHandle, size uint32) error
	UpdateDynamicIndexBuffer(h IndexBufferHandle, offset uint32, data []byte)
	DestroyDynamicIndexBuffer(h IndexBufferHandle)

	// CreateDynamicVertexBuffer creates an updatable vertex buffer of size
	// bytes with no fixed layout.
	CreateDynamicVertexBuffer(h VertexBufferHandle, size uint32) error
	UpdateDynamicVertexBuffer(h VertexBufferHandle, offset uint32, data []byte)
	DestroyDynamicVertexBuffer(h VertexBufferHandle)

	CreateShader(h ShaderHandle, chunk *ShaderChunk) error
	DestroyShader(h ShaderHandle)

	// CreateProgram links a vertex and a fragment shader. Both were created
	// earlier and stay alive until the program is destroyed.
	CreateProgram(h ProgramHandle, vsh, fsh ShaderHandle) error
	DestroyProgram(h ProgramHandle)

	CreateTexture(h TextureHandle, desc *TextureDesc) error
	UpdateTexture(h TextureHandle, upd *TextureUpdate)
	DestroyTexture(h TextureHandle)

	CreateFrameBuffer(h FrameBufferHandle, textures []TextureHandle) error
	DestroyFrameBuffer(h FrameBufferHandle)

	// CreateUniform declares a uniform. It is called again with a larger
	// type or count when an existing uniform is widened.
	CreateUniform(h UniformHandle, typ UniformType, num uint16, name string) error
	DestroyUniform(h UniformHandle)

	// UpdateViewName labels a view for debuggers.
	UpdateViewName(view uint8, name string)

	// SaveScreenShot writes the back buffer to path.
	SaveScreenShot(path string) error

	// Submit draws the frame. Most backends call SubmitFrame with a
	// DrawTarget of their own.
	Submit(f *Frame) error

	// Flip presents the back buffer.
	Flip()
}

// DrawCall is a resolved draw: counts are final and WholeBuffer has been
// replaced by the actual buffer size.
type DrawCall struct {
	Primitive    Primitive
	Indexed      bool
	StartIndex   uint32
	NumIndices   uint32
	StartVertex  uint32
	NumVertices  uint32
	NumInstances uint32
	// Wireframe is set when DebugWireframe is on.
	Wireframe bool
}

// DrawTarget receives the native state changes computed by SubmitFrame.
// Each method is called only when the value it carries changed since the
// previous draw (or since the last view change).
type DrawTarget interface {
	UniformSink

	// UpdateDynamicIndexBuffer and UpdateDynamicVertexBuffer upload the
	// frame's transient geometry before the first draw.
	UpdateDynamicIndexBuffer(h IndexBufferHandle, offset uint32, data []byte)
	UpdateDynamicVertexBuffer(h VertexBufferHandle, offset uint32, data []byte)

	// SetView binds the view's frame buffer (invalid for the back buffer)
	// and viewport.
	SetView(id uint8, fb FrameBufferHandle, viewport Rect)
	ClearView(id uint8, rect Rect, clear Clear)

	// SetScissor enables the scissor test with rect, or disables it.
	SetScissor(rect Rect, enabled bool)
	SetStencil(front, back Stencil)
	SetState(state State, rgba uint32)
	SetProgram(h ProgramHandle)

	// SetTexture binds tex to stage; an invalid handle unbinds the stage.
	SetTexture(stage uint8, tex TextureHandle, flags TextureFlags)

	// SetVertexBuffer binds a vertex buffer with the given layout; an
	// invalid handle unbinds it.
	SetVertexBuffer(h VertexBufferHandle, decl VertexDeclHandle)
	SetInstanceDataBuffer(h VertexBufferHandle, offset uint32, stride uint16)
	SetIndexBuffer(h IndexBufferHandle)

	Draw(dc DrawCall)
}

// nopRenderer stands in for a renderer whose Init failed, so the commands
// still queued for it are consumed without touching native state.
type nopRenderer struct{}

func (nopRenderer) Name() string { return "nop" }
func (nopRenderer) Init(Resolution) error { return nil }
func (nopRenderer) Shutdown() {}
func (nopRenderer) CreateVertexDecl(VertexDeclHandle, *VertexDecl) error { return nil }
func (nopRenderer) DestroyVertexDecl(VertexDeclHandle) {}
func (nopRenderer) CreateIndexBuffer(IndexBufferHandle, []byte) error { return nil }
func (nopRenderer) DestroyIndexBuffer(IndexBufferHandle) {}
func (nopRenderer) CreateVertexBuffer(VertexBufferHandle, []byte, VertexDeclHandle) error {
	return nil
}
func (nopRenderer) DestroyVertexBuffer(VertexBufferHandle) {}
func (nopRenderer) CreateDynamicIndexBuffer(IndexBufferHandle, uint32) error { return nil }
func (nopRenderer) UpdateDynamicIndexBuffer(IndexBufferHandle, uint32, []byte) {}
func (nopRenderer) DestroyDynamicIndexBuffer(IndexBufferHandle) {}
func (nopRenderer) CreateDynamicVertexBuffer(VertexBufferHandle, uint32) error { return nil }
func (nopRenderer) UpdateDynamicVertexBuffer(VertexBufferHandle, uint32, []byte) {}
func (nopRenderer) DestroyDynamicVertexBuffer(VertexBufferHandle) {}
func (nopRenderer) CreateShader(ShaderHandle, *ShaderChunk) error { return nil }
func (nopRenderer) DestroyShader(ShaderHandle) {}
func (nopRenderer) CreateProgram(ProgramHandle, ShaderHandle, ShaderHandle) error { return nil }
func (nopRenderer) DestroyProgram(ProgramHandle) {}
func (nopRenderer) CreateTexture(TextureHandle, *TextureDesc) error { return nil }
func (nopRenderer) UpdateTexture(TextureHandle, *TextureUpdate) {}
func (nopRenderer) DestroyTexture(TextureHandle) {}
func (nopRenderer) CreateFrameBuffer(FrameBufferHandle, []TextureHandle) error { return nil }
func (nopRenderer) DestroyFrameBuffer(FrameBufferHandle) {}
func (nopRenderer) CreateUniform(UniformHandle, UniformType, uint16, string) error {
	return nil
}
func (nopRenderer) DestroyUniform(UniformHandle) {}
func (nopRenderer) UpdateViewName(uint8, string) {}
func (nopRenderer) SaveScreenShot(string) error { return ErrNotInitialized }
func (nopRenderer) Submit(*Frame) error { return nil }
func (nopRenderer) Flip() {}

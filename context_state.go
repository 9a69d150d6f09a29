// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"math"
)

// SetState sets the render state of the next draw. rgba is the blend
// factor color used by BlendFactor and InvBlendFactor.
func (c *Context) SetState(state State, rgba uint32) {
	c.submit.setState(state, rgba)
}

// SetStencil sets the stencil test of the next draw. StencilNone as back
// uses front for both faces.
func (c *Context) SetStencil(front, back Stencil) {
	c.submit.setStencil(front, back)
}

// SetScissor sets the scissor rectangle of the next draw and returns its
// cache index, which can be reused with SetScissorCached during the same
// frame. It returns ScissorNone when the cache is full.
func (c *Context) SetScissor(x, y, width, height uint16) uint16 {
	return c.submit.setScissor(Rect{X: x, Y: y, Width: width, Height: height})
}

// SetScissorCached reuses a rectangle returned by SetScissor.
func (c *Context) SetScissorCached(idx uint16) {
	c.submit.state.Scissor = idx
}

// SetTransform sets the model transforms of the next draw and returns the
// cache index of the first one. More than one matrix is used for skinning.
func (c *Context) SetTransform(mtx ...Matrix) uint32 {
	return c.submit.setTransform(mtx)
}

// SetTransformCached reuses num matrices stored by SetTransform.
func (c *Context) SetTransformCached(idx uint32, num uint16) {
	c.submit.state.Matrix = idx
	c.submit.state.NumMatrices = max(num, 1)
}

// SetUniform records num elements of data for uniform h. The value applies
// to the next draw and every later draw until it is set again.
func (c *Context) SetUniform(h UniformHandle, data []byte, num uint16) {
	if checkHandle(c.tables, h, "SetUniform") != nil {
		return
	}
	u := &c.uniforms[h.Index()]
	num = min(max(num, 1), u.num)
	if !c.submit.constants.WriteUniform(u.typ, h.Index(), data, num) {
		Logger().Warn("gfx: SetUniform ignored", "name", u.name, "bytes", len(data),
			"reason", "constant buffer full or data short")
	}
}

// SetUniformFloat32s records float values for uniform h. The element count
// follows from the uniform's type.
func (c *Context) SetUniformFloat32s(h UniformHandle, v ...float32) {
	if checkHandle(c.tables, h, "SetUniform") != nil {
		return
	}
	data := Float32Bytes(v...)
	c.SetUniform(h, data, uint16(uint32(len(data))/c.uniforms[h.Index()].typ.Size()))
}

// SetUniformMatrix records matrices for a Uniform4x4fv uniform.
func (c *Context) SetUniformMatrix(h UniformHandle, mtx ...Matrix) {
	data := make([]byte, 0, 64*len(mtx))
	for _, m := range mtx {
		data = appendFloat32s(data, m[:])
	}
	c.SetUniform(h, data, uint16(len(mtx)))
}

// SetIndexBuffer binds num indices of h starting at first to the next
// draw. WholeBuffer as num draws every index.
func (c *Context) SetIndexBuffer(h IndexBufferHandle, first, num uint32) {
	if checkHandle(c.tables, h, "SetIndexBuffer") != nil {
		return
	}
	s := &c.submit.state
	s.IndexBuffer = h
	s.StartIndex = first
	s.NumIndices = num
}

// SetDynamicIndexBuffer binds a dynamic index buffer to the next draw.
func (c *Context) SetDynamicIndexBuffer(h DynamicIndexBufferHandle, first, num uint32) {
	if checkHandle(c.tables, h, "SetDynamicIndexBuffer") != nil {
		return
	}
	dib := &c.dynamicIndexBuffers[h.Index()]
	total := dib.size / 2
	first = min(first, total)
	s := &c.submit.state
	s.IndexBuffer = dib.handle
	s.StartIndex = dib.startIndex + first
	s.NumIndices = min(num, total-first)
}

// SetTransientIndexBuffer binds transient indices to the next draw. A draw
// with no indices left is discarded at submit.
func (c *Context) SetTransientIndexBuffer(tib *TransientIndexBuffer, first, num uint32) {
	if tib == nil || !tib.handle.IsValid() {
		Logger().Warn("gfx: SetTransientIndexBuffer ignored", "err", ErrInvalidHandle)
		return
	}
	first = min(first, tib.Num)
	s := &c.submit.state
	s.IndexBuffer = tib.handle
	s.StartIndex = tib.StartIndex + first
	s.NumIndices = min(num, tib.Num-first)
	c.submit.discard = c.submit.discard || s.NumIndices == 0
}

// SetVertexBuffer binds num vertices of h starting at start to the next
// draw. WholeBuffer as num draws every vertex.
func (c *Context) SetVertexBuffer(h VertexBufferHandle, start, num uint32) {
	if checkHandle(c.tables, h, "SetVertexBuffer") != nil {
		return
	}
	s := &c.submit.state
	s.VertexBuffer = h
	s.VertexDecl = VertexDeclHandle{}
	s.StartVertex = start
	s.NumVertices = num
}

// SetDynamicVertexBuffer binds up to num vertices of a dynamic vertex
// buffer to the next draw.
func (c *Context) SetDynamicVertexBuffer(h DynamicVertexBufferHandle, num uint32) {
	if checkHandle(c.tables, h, "SetDynamicVertexBuffer") != nil {
		return
	}
	dvb := &c.dynamicVertexBuffers[h.Index()]
	s := &c.submit.state
	s.VertexBuffer = dvb.handle
	s.VertexDecl = dvb.decl
	s.StartVertex = dvb.startVertex
	s.NumVertices = min(dvb.numVertices, num)
}

// SetTransientVertexBuffer binds transient vertices to the next draw. A
// draw with no vertices left is discarded at submit.
func (c *Context) SetTransientVertexBuffer(tvb *TransientVertexBuffer, start, num uint32) {
	if tvb == nil || !tvb.handle.IsValid() {
		Logger().Warn("gfx: SetTransientVertexBuffer ignored", "err", ErrInvalidHandle)
		return
	}
	start = min(start, tvb.Num)
	s := &c.submit.state
	s.VertexBuffer = tvb.handle
	s.VertexDecl = tvb.decl
	s.StartVertex = tvb.StartVertex + start
	s.NumVertices = min(num, tvb.Num-start)
	c.submit.discard = c.submit.discard || s.NumVertices == 0
}

// SetInstanceDataBuffer instances the next draw num times with per-instance
// data from idb.
func (c *Context) SetInstanceDataBuffer(idb *InstanceDataBuffer, num uint32) {
	if idb == nil || !idb.handle.IsValid() {
		Logger().Warn("gfx: SetInstanceDataBuffer ignored", "err", ErrInvalidHandle)
		return
	}
	s := &c.submit.state
	s.InstanceDataBuffer = idb.handle
	s.InstanceDataOffset = idb.Offset
	s.InstanceDataStride = idb.Stride
	s.NumInstances = uint16(min(num, idb.Num, math.MaxUint16))
}

// SetProgram sets the program of the next draw.
func (c *Context) SetProgram(h ProgramHandle) {
	if checkHandle(c.tables, h, "SetProgram") != nil {
		return
	}
	c.submit.setProgram(h)
}

// SetTexture binds tex to texture stage. When sampler is valid the stage
// number is written to it, so the shader's sampler uniform selects the
// stage. TextureDefaultSampler in flags samples with the texture's own
// flags. An invalid tex unbinds the stage.
func (c *Context) SetTexture(stage uint8, sampler UniformHandle, tex TextureHandle, flags TextureFlags) {
	if stage >= MaxTextureSamplers {
		Logger().Warn("gfx: SetTexture ignored", "stage", stage)
		return
	}
	if tex.IsValid() && checkHandle(c.tables, tex, "SetTexture") != nil {
		return
	}
	c.submit.state.Samplers[stage] = Sampler{Texture: tex, Flags: flags}
	if sampler.IsValid() {
		c.SetUniform(sampler, []byte{stage, 0, 0, 0}, 1)
	}
}

// SetTextureFromFrameBuffer binds attachment of fb to texture stage.
func (c *Context) SetTextureFromFrameBuffer(stage uint8, sampler UniformHandle, fb FrameBufferHandle, attachment uint8, flags TextureFlags) {
	if checkHandle(c.tables, fb, "SetTextureFromFrameBuffer") != nil {
		return
	}
	textures := c.frameBuffers[fb.Index()]
	if int(attachment) >= len(textures) {
		Logger().Warn("gfx: SetTextureFromFrameBuffer ignored", "handle", fb.String(), "attachment", attachment)
		return
	}
	c.SetTexture(stage, sampler, textures[attachment], flags)
}

// Submit records the current state as a draw into view id and resets the
// state. depth orders draws within the view. It returns the number of draws
// recorded this frame.
func (c *Context) Submit(id uint8, depth int32) uint32 {
	if int(id) >= len(c.views) {
		Logger().Warn("gfx: Submit ignored", "view", id, "max", len(c.views))
		c.submit.discardState()
		return c.submit.num
	}
	return c.submit.submit(id, depth, &c.seq)
}

// SubmitMask records the current state once for every view in mask.
func (c *Context) SubmitMask(mask uint32, depth int32) uint32 {
	return c.submit.submitMask(mask, depth, &c.seq)
}

// Discard drops the state recorded since the last submit.
func (c *Context) Discard() {
	c.submit.discardState()
}

// AllocTransientIndexBuffer reserves num 16-bit indices for this frame. The
// returned buffer holds fewer indices when the transient region runs out.
func (c *Context) AllocTransientIndexBuffer(num uint32) TransientIndexBuffer {
	return c.submit.allocTransientIndexBuffer(num)
}

// AllocTransientVertexBuffer reserves num vertices laid out as decl for
// this frame.
func (c *Context) AllocTransientVertexBuffer(num uint32, decl *VertexDecl) TransientVertexBuffer {
	if !validDecl(decl, "AllocTransientVertexBuffer") {
		return TransientVertexBuffer{}
	}
	dh, ok := c.transientDecls[decl.Hash()]
	if !ok {
		dh = c.findOrCreateDecl(decl)
		if !dh.IsValid() {
			return TransientVertexBuffer{}
		}
		c.decls.add(decl.Hash(), dh)
		c.transientDecls[decl.Hash()] = dh
	}
	return c.submit.allocTransientVertexBuffer(num, decl.Stride(), dh)
}

// maxInstanceStride is the largest stride that stays representable once
// rounded up to 16 bytes.
const maxInstanceStride = 0xffff &^ 15

// AllocInstanceDataBuffer reserves num instances of stride bytes from the
// transient vertex region. The stride is rounded up to 16 bytes.
func (c *Context) AllocInstanceDataBuffer(num uint32, stride uint16) InstanceDataBuffer {
	if stride == 0 || stride > maxInstanceStride {
		Logger().Warn("gfx: AllocInstanceDataBuffer ignored", "stride", stride, "max", maxInstanceStride)
		return InstanceDataBuffer{}
	}
	return c.submit.allocInstanceDataBuffer(num, stride)
}

// CheckAvailTransientIndexBuffer reports whether num indices fit in the
// transient index region.
func (c *Context) CheckAvailTransientIndexBuffer(num uint32) bool {
	return c.submit.tib.avail(num, 2)
}

// CheckAvailTransientVertexBuffer reports whether num vertices of decl fit
// in the transient vertex region.
func (c *Context) CheckAvailTransientVertexBuffer(num uint32, decl *VertexDecl) bool {
	if decl == nil || decl.Stride() == 0 {
		return false
	}
	return c.submit.tvb.avail(num, uint32(decl.Stride()))
}

// CheckAvailInstanceDataBuffer reports whether num instances of stride
// bytes fit in the transient vertex region.
func (c *Context) CheckAvailInstanceDataBuffer(num uint32, stride uint16) bool {
	if stride == 0 {
		return false
	}
	return c.submit.tvb.avail(num, align16(uint32(stride)))
}

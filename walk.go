// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// biasMatrix maps clip space [-1, 1] to texture space [0, 1]. The
// X-suffixed predefined uniforms apply it to another view's
// view-projection, as used for shadow map lookups.
var biasMatrix = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 0.5, 0,
	0.5, 0.5, 0.5, 1,
}

// walkState is the state last sent to the DrawTarget.
type walkState struct {
	state        State
	stencilFront Stencil
	stencilBack  Stencil
	rgba         uint32
	scissor      uint32
	program      ProgramHandle
	samplers     [MaxTextureSamplers]Sampler
	vertexBuffer VertexBufferHandle
	vertexDecl   VertexDeclHandle
	indexBuffer  IndexBufferHandle
	instanceData VertexBufferHandle
	instanceOff  uint32
	instanceStr  uint16
}

// scissorUnset forces the first draw of a view to set its scissor.
const scissorUnset = 1 << 16

// SubmitFrame replays the frame's draws into t in sort-key order, sending
// only the state that changed between consecutive draws. It must be called
// from Renderer.Submit.
//
// For each view the walker binds the view's frame buffer and viewport and
// clears it, then for each draw diffs scissor, stencil and render state,
// applies the draw's uniform updates, commits the program's uniforms
// (including the predefined ones), diffs samplers and buffers, and issues
// the draw with counts resolved against the bound buffers.
func SubmitFrame(f *Frame, t DrawTarget) error {
	res := f.res
	if res == nil {
		return ErrNotInitialized
	}

	if f.tib.offset > 0 {
		t.UpdateDynamicIndexBuffer(f.tibHandle, 0, f.tib.data[:f.tib.offset])
	}
	if f.tvb.offset > 0 {
		t.UpdateDynamicVertexBuffer(f.tvbHandle, 0, f.tvb.data[:f.tvb.offset])
	}

	f.sort()

	viewProj := make([]Matrix, len(f.views))
	for i := range f.views {
		viewProj[i] = f.views[i].Proj.Mul4(f.views[i].View)
	}

	var (
		cur        walkState
		view       = -1
		viewRect   Rect
		scissorCap Rect
		hasScissor bool
		alphaRef   float32
		ifh        = f.debug&DebugIFH != 0
		wireframe  = f.debug&DebugWireframe != 0
		stats      = &f.stats
	)

	for i := uint32(0); i < f.num; i++ {
		key := DecodeSortKey(f.sortKeys[i])
		rs := &f.renderStates[f.sortValues[i]]

		stateChanged := cur.state ^ rs.State
		stencilChanged := cur.stencilFront != rs.StencilFront || cur.stencilBack != rs.StencilBack

		if int(key.View) != view {
			view = int(key.View)
			v := &f.views[view]
			cur = walkState{scissor: scissorUnset}
			stateChanged = StateMask
			stencilChanged = true

			viewRect = v.Rect
			hasScissor = !v.Scissor.IsZero()
			scissorCap = viewRect
			if hasScissor {
				scissorCap = v.Scissor
			}
			t.SetView(key.View, v.FrameBuffer, viewRect)
			if v.Clear.Flags != ClearNone {
				t.ClearView(key.View, viewRect, v.Clear)
			}
		}

		if uint32(rs.Scissor) != cur.scissor {
			cur.scissor = uint32(rs.Scissor)
			if rs.Scissor == ScissorNone {
				t.SetScissor(scissorCap, hasScissor)
			} else if r, ok := f.rects.get(rs.Scissor); ok {
				t.SetScissor(scissorCap.Intersect(r), true)
			}
		}

		if stencilChanged {
			cur.stencilFront = rs.StencilFront
			cur.stencilBack = rs.StencilBack
			t.SetStencil(rs.StencilFront, rs.StencilBack)
		}

		if stateChanged != 0 || (rs.State.UsesBlendFactor() && cur.rgba != rs.RGBA) {
			cur.state = rs.State
			cur.rgba = rs.RGBA
			t.SetState(rs.State, rs.RGBA)
		}
		if stateChanged&StateAlphaRefMask != 0 {
			alphaRef = float32(rs.State.AlphaRef()) / 255
		}

		constantsChanged := rs.ConstBegin < rs.ConstEnd
		f.constants.Range(rs.ConstBegin, rs.ConstEnd, res.updateUniform)

		programChanged := false
		if rs.Program != cur.program {
			cur.program = rs.Program
			t.SetProgram(rs.Program)
			programChanged = true
			constantsChanged = true
		}

		if rs.Program.IsValid() {
			p := &res.programs[rs.Program.Index()]
			if constantsChanged && p.constants != nil {
				p.constants.Commit(t, res.uniformData)
			}
			for _, b := range p.predefined {
				setPredefined(t, b, f, rs, uint8(view), viewProj, alphaRef)
			}
		}

		for stage := range rs.Samplers {
			s := rs.Samplers[stage]
			if s == cur.samplers[stage] && !(programChanged && s.Texture.IsValid()) {
				continue
			}
			cur.samplers[stage] = s
			flags := s.Flags
			if s.Texture.IsValid() && flags&TextureDefaultSampler != 0 {
				flags = res.textures[s.Texture.Index()]
			}
			t.SetTexture(uint8(stage), s.Texture, flags)
		}

		var (
			dh   VertexDeclHandle
			decl *VertexDecl
		)
		if rs.VertexBuffer.IsValid() {
			dh, decl = res.vertexDecl(rs.VertexBuffer, rs.VertexDecl)
		}
		if programChanged ||
			cur.vertexBuffer != rs.VertexBuffer ||
			cur.vertexDecl != dh ||
			cur.instanceData != rs.InstanceDataBuffer ||
			cur.instanceOff != rs.InstanceDataOffset ||
			cur.instanceStr != rs.InstanceDataStride {
			cur.vertexBuffer = rs.VertexBuffer
			cur.vertexDecl = dh
			cur.instanceData = rs.InstanceDataBuffer
			cur.instanceOff = rs.InstanceDataOffset
			cur.instanceStr = rs.InstanceDataStride

			t.SetVertexBuffer(rs.VertexBuffer, dh)
			if rs.VertexBuffer.IsValid() && rs.InstanceDataBuffer.IsValid() {
				t.SetInstanceDataBuffer(rs.InstanceDataBuffer, rs.InstanceDataOffset, rs.InstanceDataStride)
			}
		}

		if cur.indexBuffer != rs.IndexBuffer {
			cur.indexBuffer = rs.IndexBuffer
			t.SetIndexBuffer(rs.IndexBuffer)
		}

		if !cur.vertexBuffer.IsValid() {
			continue
		}

		dc, ok := resolveDraw(res, rs, decl)
		if !ok {
			continue
		}
		dc.Wireframe = wireframe
		prims := dc.NumVertices
		if dc.Indexed {
			prims = dc.NumIndices
		}
		prims /= dc.Primitive.VertsPerPrimitive()

		stats.NumDraws++
		stats.NumPrims += prims * dc.NumInstances
		stats.NumIndices += dc.NumIndices
		stats.NumInstances += dc.NumInstances
		if !ifh {
			t.Draw(dc)
		}
	}
	return nil
}

// resolveDraw computes the final counts of a draw. It reports false when
// the draw has fewer indices than one primitive needs.
func resolveDraw(res *renderResources, rs *RenderState, decl *VertexDecl) (DrawCall, bool) {
	prim := rs.State.Primitive()
	dc := DrawCall{
		Primitive:    prim,
		StartVertex:  rs.StartVertex,
		NumVertices:  rs.NumVertices,
		NumInstances: uint32(rs.NumInstances),
	}
	if dc.NumVertices == WholeBuffer {
		dc.NumVertices = 0
		if decl != nil && decl.Stride() > 0 {
			dc.NumVertices = res.vertexBuffers[rs.VertexBuffer.Index()].size / uint32(decl.Stride())
		}
	}

	if !rs.IndexBuffer.IsValid() {
		return dc, true
	}
	dc.Indexed = true
	if rs.NumIndices == WholeBuffer {
		dc.NumIndices = res.indexBuffers[rs.IndexBuffer.Index()] / 2
		return dc, true
	}
	if prim.VertsPerPrimitive() > rs.NumIndices {
		return dc, false
	}
	dc.StartIndex = rs.StartIndex
	dc.NumIndices = rs.NumIndices
	return dc, true
}

// setPredefined computes one predefined uniform and sends it to t.
func setPredefined(t DrawTarget, b predefinedBinding, f *Frame, rs *RenderState, view uint8, viewProj []Matrix, alphaRef float32) {
	v := &f.views[view]
	switch b.which {
	case PredefinedViewRect:
		r := v.Rect
		t.SetUniform(Uniform4fv, b.loc, 1,
			Float32Bytes(float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height)))
	case PredefinedViewTexel:
		r := v.Rect
		t.SetUniform(Uniform4fv, b.loc, 1,
			Float32Bytes(1/float32(max(r.Width, 1)), 1/float32(max(r.Height, 1)), 0, 0))
	case PredefinedView:
		t.SetUniform(Uniform4x4fv, b.loc, 1, matrixBytes(v.View))
	case PredefinedViewProj:
		t.SetUniform(Uniform4x4fv, b.loc, 1, matrixBytes(viewProj[view]))
	case PredefinedViewProjX:
		t.SetUniform(Uniform4x4fv, b.loc, 1, matrixBytes(biasMatrix.Mul4(viewProj[otherView(f, view)])))
	case PredefinedModel:
		models := f.matrices.get(rs.Matrix)
		n := min(int(b.count), int(rs.NumMatrices), len(models))
		data := make([]byte, 0, 64*n)
		for _, m := range models[:n] {
			data = appendFloat32s(data, m[:])
		}
		t.SetUniform(Uniform4x4fv, b.loc, uint16(n), data)
	case PredefinedModelView:
		model := f.matrices.get(rs.Matrix)[0]
		t.SetUniform(Uniform4x4fv, b.loc, 1, matrixBytes(v.View.Mul4(model)))
	case PredefinedModelViewProj:
		model := f.matrices.get(rs.Matrix)[0]
		t.SetUniform(Uniform4x4fv, b.loc, 1, matrixBytes(viewProj[view].Mul4(model)))
	case PredefinedModelViewProjX:
		model := f.matrices.get(rs.Matrix)[0]
		vpb := biasMatrix.Mul4(viewProj[otherView(f, view)])
		t.SetUniform(Uniform4x4fv, b.loc, 1, matrixBytes(vpb.Mul4(model)))
	case PredefinedAlphaRef:
		t.SetUniform(Uniform1f, b.loc, 1, Float32Bytes(alphaRef))
	}
}

func otherView(f *Frame, view uint8) uint8 {
	other := f.views[view].Other
	if int(other) >= len(f.views) {
		return view
	}
	return other
}

func matrixBytes(m Matrix) []byte {
	return appendFloat32s(make([]byte, 0, 64), m[:])
}

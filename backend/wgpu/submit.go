//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

const (
	// uniformAlign is the dynamic offset alignment of uniform blocks.
	uniformAlign = 256

	// maxBlockSize is the binding size of each uniform block.
	maxBlockSize = 4096

	minUniformBuffer = 64 << 10
)

type stageBinding struct {
	tex   uint16
	flags gfx.TextureFlags
}

// textureGroupKey identifies the bind group of a draw's texture stages.
// tex is the texture index plus one; zero selects the white texture.
type textureGroupKey [gfx.MaxTextureSamplers]stageBinding

type drawRecord struct {
	pipeline   hal.RenderPipeline
	textures   hal.BindGroup
	vsOffset   uint32
	fsOffset   uint32
	vb         *buffer
	inst       *buffer
	instOffset uint64
	ib         *buffer
	scissor    gfx.Rect
	scissorOn  bool
	stencilRef uint32
	blend      gputypes.Color
	dc         gfx.DrawCall
}

type passRecord struct {
	view     uint8
	target   renderTarget
	viewport gfx.Rect
	clear    gfx.Clear
	draws    []drawRecord
}

// renderTarget is the resolved attachment set of a view.
type renderTarget struct {
	colors  []*texture
	depth   *texture
	width   uint32
	height  uint32
	formats targetFormats
}

// frameRecorder receives the state changes of gfx.SubmitFrame and turns
// them into pass and draw records.
type frameRecorder struct {
	r        *Renderer
	passes   []passRecord
	uniforms []byte

	state     gfx.State
	rgba      uint32
	front     gfx.Stencil
	back      gfx.Stencil
	scissor   gfx.Rect
	scissorOn bool
	prog      uint16
	program   *program
	stages    textureGroupKey
	vb        *buffer
	decl      *gfx.VertexDecl
	inst      *buffer
	instOff   uint32
	instStr   uint16
	ib        *buffer

	failed int
}

var _ gfx.DrawTarget = (*frameRecorder)(nil)

func (rec *frameRecorder) reset(r *Renderer) {
	passes := rec.passes[:0]
	uniforms := rec.uniforms[:0]
	*rec = frameRecorder{r: r, passes: passes, uniforms: uniforms}
}

func (rec *frameRecorder) pass() *passRecord {
	if len(rec.passes) == 0 {
		return nil
	}
	return &rec.passes[len(rec.passes)-1]
}

func (rec *frameRecorder) SetUniform(typ gfx.UniformType, loc, num uint16, data []byte) {
	if rec.program == nil {
		return
	}
	block := rec.program.vs
	if loc&gfx.UniformLocFragment != 0 {
		block = rec.program.fs
	}
	writeUniform(block, typ, loc&gfx.MaxUniformLocation, num, data)
}

func (rec *frameRecorder) UpdateDynamicIndexBuffer(h gfx.IndexBufferHandle, offset uint32, data []byte) {
	rec.r.UpdateDynamicIndexBuffer(h, offset, data)
}

func (rec *frameRecorder) UpdateDynamicVertexBuffer(h gfx.VertexBufferHandle, offset uint32, data []byte) {
	rec.r.UpdateDynamicVertexBuffer(h, offset, data)
}

func (rec *frameRecorder) SetView(id uint8, fb gfx.FrameBufferHandle, viewport gfx.Rect) {
	target := rec.r.renderTarget(fb)
	rec.passes = append(rec.passes, passRecord{
		view:     id,
		target:   target,
		viewport: clampRect(viewport, target.width, target.height),
	})
	rec.scissor = gfx.Rect{}
	rec.scissorOn = false
}

func (rec *frameRecorder) ClearView(_ uint8, _ gfx.Rect, clear gfx.Clear) {
	if p := rec.pass(); p != nil {
		p.clear = clear
	}
}

func (rec *frameRecorder) SetScissor(rect gfx.Rect, enabled bool) {
	rec.scissor = rect
	rec.scissorOn = enabled
}

func (rec *frameRecorder) SetStencil(front, back gfx.Stencil) {
	rec.front, rec.back = front, back
}

func (rec *frameRecorder) SetState(state gfx.State, rgba uint32) {
	rec.state, rec.rgba = state, rgba
}

func (rec *frameRecorder) SetProgram(h gfx.ProgramHandle) {
	rec.prog = h.Index()
	rec.program = nil
	if h.IsValid() {
		rec.program = rec.r.programs[h.Index()]
	}
}

func (rec *frameRecorder) SetTexture(stage uint8, tex gfx.TextureHandle, flags gfx.TextureFlags) {
	if int(stage) >= len(rec.stages) {
		return
	}
	b := stageBinding{}
	if tex.IsValid() {
		if t, ok := rec.r.textures[tex.Index()]; ok && !t.format.IsDepth() {
			b = stageBinding{tex: tex.Index() + 1, flags: flags & samplerFlags}
		}
	}
	rec.stages[stage] = b
}

func (rec *frameRecorder) SetVertexBuffer(h gfx.VertexBufferHandle, decl gfx.VertexDeclHandle) {
	rec.vb, rec.decl = nil, nil
	rec.inst, rec.instOff, rec.instStr = nil, 0, 0
	if !h.IsValid() {
		return
	}
	rec.vb = rec.r.vertexBuffers[h.Index()]
	if decl.IsValid() {
		rec.decl = rec.r.decls[decl.Index()]
	}
}

func (rec *frameRecorder) SetInstanceDataBuffer(h gfx.VertexBufferHandle, offset uint32, stride uint16) {
	rec.inst = rec.r.vertexBuffers[h.Index()]
	rec.instOff, rec.instStr = offset, stride
}

func (rec *frameRecorder) SetIndexBuffer(h gfx.IndexBufferHandle) {
	rec.ib = nil
	if h.IsValid() {
		rec.ib = rec.r.indexBuffers[h.Index()]
	}
}

// appendBlock copies a uniform block to the frame's uniform data and
// returns its offset.
func (rec *frameRecorder) appendBlock(block []byte) uint32 {
	off := uint32(len(rec.uniforms))
	n := uniformAlign * ((len(block) + uniformAlign - 1) / uniformAlign)
	rec.uniforms = append(rec.uniforms, make([]byte, n)...)
	copy(rec.uniforms[off:], block)
	return off
}

func (rec *frameRecorder) Draw(dc gfx.DrawCall) {
	p := rec.pass()
	if p == nil || rec.program == nil || rec.vb == nil || rec.decl == nil {
		return
	}
	if dc.Indexed && rec.ib == nil {
		return
	}
	instStride := uint16(0)
	if rec.inst != nil {
		instStride = rec.instStr
	}
	key := makePipelineKey(rec.prog, rec.state, rec.front, rec.back, rec.decl, instStride, p.target.formats)
	pipeline, err := rec.r.pipelines.getOrCreate(key, func() (hal.RenderPipeline, error) {
		return rec.r.createPipeline(key, rec.program, rec.decl, rec.front, rec.back)
	})
	if err != nil {
		rec.fail("pipeline", err)
		return
	}
	textures, err := rec.r.textureGroup(rec.stages)
	if err != nil {
		rec.fail("textures", err)
		return
	}
	d := drawRecord{
		pipeline:   pipeline,
		textures:   textures,
		vsOffset:   rec.appendBlock(rec.program.vs),
		fsOffset:   rec.appendBlock(rec.program.fs),
		vb:         rec.vb,
		inst:       rec.inst,
		instOffset: uint64(rec.instOff),
		ib:         rec.ib,
		scissor:    clampRect(rec.scissor, p.target.width, p.target.height),
		scissorOn:  rec.scissorOn,
		stencilRef: uint32(rec.front.Ref()),
		blend:      clearColor(gfx.Clear{RGBA: rec.rgba}),
		dc:         dc,
	}
	if !dc.Indexed {
		d.ib = nil
	}
	p.draws = append(p.draws, d)
}

// fail logs the first failure of a frame and counts the rest.
func (rec *frameRecorder) fail(what string, err error) {
	if rec.failed == 0 {
		gfx.Logger().Warn("wgpu: draw skipped", "reason", what, "err", err)
	}
	rec.failed++
}

// clampRect limits r to a width × height target.
func clampRect(r gfx.Rect, width, height uint32) gfx.Rect {
	x, y := min(uint32(r.X), width), min(uint32(r.Y), height)
	return gfx.Rect{
		X:      uint16(x),
		Y:      uint16(y),
		Width:  uint16(min(uint32(r.Width), width-x)),
		Height: uint16(min(uint32(r.Height), height-y)),
	}
}

// renderTarget resolves fb to its attachments. The invalid handle and
// unknown frame buffers select the back buffer.
func (r *Renderer) renderTarget(fb gfx.FrameBufferHandle) renderTarget {
	if fb.IsValid() {
		if f, ok := r.frameBuffers[fb.Index()]; ok {
			t := renderTarget{colors: f.colors, depth: f.depth, width: f.width, height: f.height}
			for i, c := range f.colors {
				t.formats.colors[i] = c.native
			}
			t.formats.numColors = uint8(len(f.colors))
			if f.depth != nil {
				t.formats.depth = f.depth.native
			}
			return t
		}
	}
	t := renderTarget{
		colors: []*texture{r.back},
		depth:  r.backDepth,
		width:  r.back.width,
		height: r.back.height,
	}
	t.formats.colors[0] = r.back.native
	t.formats.numColors = 1
	t.formats.depth = r.backDepth.native
	return t
}

func (r *Renderer) sampler(flags gfx.TextureFlags) (hal.Sampler, error) {
	flags &= samplerFlags
	if s, ok := r.samplers[flags]; ok {
		return s, nil
	}
	s, err := r.device.CreateSampler(samplerDescriptor(flags))
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	r.samplers[flags] = s
	return s, nil
}

// textureGroup returns the bind group of a stage set, creating it on first
// use. Unbound stages sample the white texture.
func (r *Renderer) textureGroup(key textureGroupKey) (hal.BindGroup, error) {
	if g, ok := r.textureGroups[key]; ok {
		return g, nil
	}
	entries := make([]gputypes.BindGroupEntry, 0, 2*len(key))
	for stage, b := range key {
		t := r.white
		if b.tex != 0 {
			if bound, ok := r.textures[b.tex-1]; ok {
				t = bound
			}
		}
		s, err := r.sampler(b.flags)
		if err != nil {
			return nil, err
		}
		entries = append(entries,
			gputypes.BindGroupEntry{Binding: uint32(2 * stage), Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			gputypes.BindGroupEntry{Binding: uint32(2*stage + 1), Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()}},
		)
	}
	g, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "gfx_textures",
		Layout:  r.textureLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture bind group: %w", err)
	}
	r.textureGroups[key] = g
	return g, nil
}

func (r *Renderer) clearTextureGroups() {
	for k, g := range r.textureGroups {
		r.device.DestroyBindGroup(g)
		delete(r.textureGroups, k)
	}
}

// uploadUniforms writes the frame's uniform blocks, growing the uniform
// buffer when needed.
func (r *Renderer) uploadUniforms(data []byte) error {
	need := uint64(len(data)) + maxBlockSize
	if need > r.uniformSize {
		size := uint64(minUniformBuffer)
		for size < need {
			size *= 2
		}
		buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "gfx_uniforms",
			Size:  size,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create uniform buffer: %w", err)
		}
		group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "gfx_uniforms",
			Layout: r.uniformLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: maxBlockSize}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: maxBlockSize}},
			},
		})
		if err != nil {
			r.device.DestroyBuffer(buf)
			return fmt.Errorf("wgpu: create uniform bind group: %w", err)
		}
		if r.uniformGroup != nil {
			r.device.DestroyBindGroup(r.uniformGroup)
			r.device.DestroyBuffer(r.uniformBuf)
		}
		r.uniformBuf, r.uniformGroup, r.uniformSize = buf, group, size
	}
	if len(data) == 0 {
		return nil
	}
	if err := r.queue.WriteBuffer(r.uniformBuf, 0, data); err != nil {
		return fmt.Errorf("wgpu: write uniforms: %w", err)
	}
	return nil
}

// Submit records the frame with gfx.SubmitFrame, then encodes one render
// pass per view and waits for the GPU to finish.
func (r *Renderer) Submit(f *gfx.Frame) error {
	if !r.ready {
		return gfx.ErrNotInitialized
	}
	if res := f.Resolution(); res.Width != r.res.Width || res.Height != r.res.Height {
		if err := r.resize(res); err != nil {
			return err
		}
	}
	r.rec.reset(r)
	if err := gfx.SubmitFrame(f, &r.rec); err != nil {
		return err
	}
	if r.rec.failed > 1 {
		gfx.Logger().Warn("wgpu: draws skipped", "frame", f.Number(), "count", r.rec.failed)
	}
	if len(r.rec.passes) == 0 {
		return nil
	}
	if err := r.uploadUniforms(r.rec.uniforms); err != nil {
		return err
	}
	return r.encode(r.rec.passes)
}

func (r *Renderer) encode(passes []passRecord) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfx_frame"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gfx_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	for i := range passes {
		r.encodePass(encoder, &passes[i])
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)
	return r.submitAndWait(cmdBuf)
}

func (r *Renderer) submitAndWait(cmdBuf hal.CommandBuffer) error {
	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	r.pipelines.flush(r.device)
	return nil
}

func hasStencil(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatDepth24PlusStencil8 || f == gputypes.TextureFormatDepth32FloatStencil8
}

func (r *Renderer) encodePass(encoder hal.CommandEncoder, p *passRecord) {
	colorLoad := gputypes.LoadOpLoad
	if p.clear.Flags&gfx.ClearColor != 0 {
		colorLoad = gputypes.LoadOpClear
	}
	desc := &hal.RenderPassDescriptor{Label: r.viewNames[p.view]}
	for _, c := range p.target.colors {
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:       c.view,
			LoadOp:     colorLoad,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearColor(p.clear),
		})
	}
	if d := p.target.depth; d != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:            d.view,
			DepthLoadOp:     gputypes.LoadOpLoad,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: p.clear.Depth,
		}
		if p.clear.Flags&gfx.ClearDepth != 0 {
			ds.DepthLoadOp = gputypes.LoadOpClear
		}
		if hasStencil(d.native) {
			ds.StencilLoadOp = gputypes.LoadOpLoad
			ds.StencilStoreOp = gputypes.StoreOpStore
			ds.StencilClearValue = uint32(p.clear.Stencil)
			if p.clear.Flags&gfx.ClearStencil != 0 {
				ds.StencilLoadOp = gputypes.LoadOpClear
			}
		}
		desc.DepthStencilAttachment = ds
	}

	rp := encoder.BeginRenderPass(desc)
	vp := p.viewport
	rp.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)
	for i := range p.draws {
		d := &p.draws[i]
		rp.SetPipeline(d.pipeline)
		rp.SetBindGroup(0, r.uniformGroup, []uint32{d.vsOffset, d.fsOffset})
		rp.SetBindGroup(1, d.textures, nil)
		rp.SetVertexBuffer(0, d.vb.buf, 0)
		if d.inst != nil {
			rp.SetVertexBuffer(1, d.inst.buf, d.instOffset)
		}
		if d.scissorOn {
			rp.SetScissorRect(uint32(d.scissor.X), uint32(d.scissor.Y), uint32(d.scissor.Width), uint32(d.scissor.Height))
		} else {
			rp.SetScissorRect(0, 0, p.target.width, p.target.height)
		}
		rp.SetStencilReference(d.stencilRef)
		rp.SetBlendConstant(&d.blend)

		instances := max(d.dc.NumInstances, 1)
		if d.ib != nil {
			rp.SetIndexBuffer(d.ib.buf, gputypes.IndexFormatUint16, 0)
			rp.DrawIndexed(d.dc.NumIndices, instances, d.dc.StartIndex, int32(d.dc.StartVertex), 0)
		} else {
			rp.Draw(d.dc.NumVertices, instances, d.dc.StartVertex, 0)
		}
	}
	rp.End()
}

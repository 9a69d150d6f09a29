//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

// spirvMagic is the first word of a SPIR-V module.
const spirvMagic = 0x07230203

type buffer struct {
	buf  hal.Buffer
	size uint32
	decl gfx.VertexDeclHandle
	// shadow mirrors dynamic buffers so partial updates can be widened to
	// the 4-byte granularity WriteBuffer requires.
	shadow []byte
}

type shader struct {
	module hal.ShaderModule
	chunk  *gfx.ShaderChunk
	block  uint32
}

type program struct {
	vsh, fsh *shader
	// vs and fs hold the current values of the program's uniform blocks.
	vs, fs []byte
}

type texture struct {
	tex    hal.Texture
	view   hal.TextureView
	format gfx.TextureFormat
	native gputypes.TextureFormat
	width  uint32
	height uint32
	mips   uint32
	flags  gfx.TextureFlags
}

type frameBuffer struct {
	colors []*texture
	depth  *texture
	width  uint32
	height uint32
}

type uniformInfo struct {
	typ  gfx.UniformType
	num  uint16
	name string
}

func align4(n uint32) uint32 { return (n + 3) &^ 3 }

func (r *Renderer) createBuffer(label string, usage gputypes.BufferUsage, size uint32) (*buffer, error) {
	if r.device == nil {
		return nil, gfx.ErrNotInitialized
	}
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(max(align4(size), 4)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	return &buffer{buf: buf, size: size}, nil
}

func (r *Renderer) createStaticBuffer(label string, usage gputypes.BufferUsage, data []byte) (*buffer, error) {
	b, err := r.createBuffer(label, usage, uint32(len(data)))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return b, nil
	}
	padded := data
	if len(data)%4 != 0 {
		padded = make([]byte, align4(uint32(len(data))))
		copy(padded, data)
	}
	if err := r.queue.WriteBuffer(b.buf, 0, padded); err != nil {
		r.device.DestroyBuffer(b.buf)
		return nil, fmt.Errorf("wgpu: write %s: %w", label, err)
	}
	return b, nil
}

func (r *Renderer) createDynamicBuffer(label string, usage gputypes.BufferUsage, size uint32) (*buffer, error) {
	b, err := r.createBuffer(label, usage, size)
	if err != nil {
		return nil, err
	}
	b.shadow = make([]byte, max(align4(size), 4))
	return b, nil
}

// updateDynamic copies data into b at offset and uploads the enclosing
// 4-byte aligned range.
func (r *Renderer) updateDynamic(b *buffer, offset uint32, data []byte) {
	if b == nil || offset >= b.size {
		return
	}
	end := min(offset+uint32(len(data)), b.size)
	copy(b.shadow[offset:end], data)
	lo, hi := offset&^3, align4(end)
	if err := r.queue.WriteBuffer(b.buf, uint64(lo), b.shadow[lo:hi]); err != nil {
		gfx.Logger().Warn("wgpu: buffer update failed", "offset", offset, "bytes", len(data), "err", err)
	}
}

// CreateVertexDecl keeps a copy of the layout for pipeline creation.
func (r *Renderer) CreateVertexDecl(h gfx.VertexDeclHandle, decl *gfx.VertexDecl) error {
	d := *decl
	r.decls[h.Index()] = &d
	return nil
}

func (r *Renderer) DestroyVertexDecl(h gfx.VertexDeclHandle) {
	if d, ok := r.decls[h.Index()]; ok {
		r.pipelines.evictDecl(r.device, d.Hash())
		delete(r.decls, h.Index())
	}
}

func (r *Renderer) CreateIndexBuffer(h gfx.IndexBufferHandle, data []byte) error {
	b, err := r.createStaticBuffer("gfx_index_buffer", gputypes.BufferUsageIndex, data)
	if err != nil {
		return err
	}
	r.indexBuffers[h.Index()] = b
	return nil
}

func (r *Renderer) DestroyIndexBuffer(h gfx.IndexBufferHandle) {
	if b, ok := r.indexBuffers[h.Index()]; ok {
		r.device.DestroyBuffer(b.buf)
		delete(r.indexBuffers, h.Index())
	}
}

func (r *Renderer) CreateVertexBuffer(h gfx.VertexBufferHandle, data []byte, decl gfx.VertexDeclHandle) error {
	b, err := r.createStaticBuffer("gfx_vertex_buffer", gputypes.BufferUsageVertex, data)
	if err != nil {
		return err
	}
	b.decl = decl
	r.vertexBuffers[h.Index()] = b
	return nil
}

func (r *Renderer) DestroyVertexBuffer(h gfx.VertexBufferHandle) {
	if b, ok := r.vertexBuffers[h.Index()]; ok {
		r.device.DestroyBuffer(b.buf)
		delete(r.vertexBuffers, h.Index())
	}
}

func (r *Renderer) CreateDynamicIndexBuffer(h gfx.IndexBufferHandle, size uint32) error {
	b, err := r.createDynamicBuffer("gfx_dynamic_index_buffer", gputypes.BufferUsageIndex, size)
	if err != nil {
		return err
	}
	r.indexBuffers[h.Index()] = b
	return nil
}

func (r *Renderer) UpdateDynamicIndexBuffer(h gfx.IndexBufferHandle, offset uint32, data []byte) {
	r.updateDynamic(r.indexBuffers[h.Index()], offset, data)
}

func (r *Renderer) DestroyDynamicIndexBuffer(h gfx.IndexBufferHandle) { r.DestroyIndexBuffer(h) }

func (r *Renderer) CreateDynamicVertexBuffer(h gfx.VertexBufferHandle, size uint32) error {
	b, err := r.createDynamicBuffer("gfx_dynamic_vertex_buffer", gputypes.BufferUsageVertex, size)
	if err != nil {
		return err
	}
	r.vertexBuffers[h.Index()] = b
	return nil
}

func (r *Renderer) UpdateDynamicVertexBuffer(h gfx.VertexBufferHandle, offset uint32, data []byte) {
	r.updateDynamic(r.vertexBuffers[h.Index()], offset, data)
}

func (r *Renderer) DestroyDynamicVertexBuffer(h gfx.VertexBufferHandle) { r.DestroyVertexBuffer(h) }

// compileShader returns the SPIR-V words of code. Code that starts with
// the SPIR-V magic is used as is; anything else is compiled as WGSL.
func compileShader(code []byte) ([]uint32, error) {
	if len(code) < 4 || binary.LittleEndian.Uint32(code) != spirvMagic {
		spirv, err := naga.Compile(string(code))
		if err != nil {
			return nil, fmt.Errorf("wgpu: failed to compile shader: %w", err)
		}
		code = spirv
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("wgpu: SPIR-V size %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

// CreateShader compiles the chunk's code. Vertex shaders must export
// vs_main and fragment shaders fs_main.
func (r *Renderer) CreateShader(h gfx.ShaderHandle, chunk *gfx.ShaderChunk) error {
	words, err := compileShader(chunk.Code)
	if err != nil {
		return err
	}
	module, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("gfx_%s_%d", chunk.Magic, h.Index()),
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module: %w", err)
	}
	r.shaders[h.Index()] = &shader{module: module, chunk: chunk, block: blockSize(chunk)}
	return nil
}

func (r *Renderer) DestroyShader(h gfx.ShaderHandle) {
	if s, ok := r.shaders[h.Index()]; ok {
		r.device.DestroyShaderModule(s.module)
		delete(r.shaders, h.Index())
	}
}

func (r *Renderer) CreateProgram(h gfx.ProgramHandle, vsh, fsh gfx.ShaderHandle) error {
	vs, ok := r.shaders[vsh.Index()]
	if !ok {
		return fmt.Errorf("wgpu: program %s: vertex shader %s: %w", h, vsh, gfx.ErrInvalidHandle)
	}
	p := &program{vsh: vs, vs: make([]byte, vs.block)}
	if fsh.IsValid() {
		fs, ok := r.shaders[fsh.Index()]
		if !ok {
			return fmt.Errorf("wgpu: program %s: fragment shader %s: %w", h, fsh, gfx.ErrInvalidHandle)
		}
		p.fsh = fs
		p.fs = make([]byte, fs.block)
	} else {
		p.fs = make([]byte, 16)
	}
	r.programs[h.Index()] = p
	return nil
}

func (r *Renderer) DestroyProgram(h gfx.ProgramHandle) {
	if _, ok := r.programs[h.Index()]; ok {
		r.pipelines.evictProgram(r.device, h.Index())
		delete(r.programs, h.Index())
	}
}

// usage returns the texture usage of a gfx texture.
func textureUsage(f gfx.TextureFormat, flags gfx.TextureFlags) gputypes.TextureUsage {
	if f.IsDepth() {
		return gputypes.TextureUsageRenderAttachment
	}
	u := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	if flags&gfx.TextureRenderTarget != 0 {
		u |= gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
	}
	return u
}

func (r *Renderer) createTexture(label string, desc *gfx.TextureDesc) (*texture, error) {
	native := textureFormat(desc.Format)
	if native == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("wgpu: %s: format %s: %w", label, desc.Format, gfx.ErrInvalidTexture)
	}
	t := &texture{
		format: desc.Format,
		native: native,
		width:  uint32(max(desc.Width, 1)),
		height: uint32(max(desc.Height, 1)),
		mips:   uint32(max(desc.NumMips, 1)),
		flags:  desc.Flags,
	}
	var err error
	t.tex, err = r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
		MipLevelCount: t.mips,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        native,
		Usage:         textureUsage(desc.Format, desc.Flags),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %s: %w", label, err)
	}
	t.view, err = r.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        native,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: t.mips,
	})
	if err != nil {
		r.device.DestroyTexture(t.tex)
		return nil, fmt.Errorf("wgpu: create texture view %s: %w", label, err)
	}
	if desc.Data != nil && !desc.Format.IsDepth() {
		for level := uint8(0); level < uint8(t.mips); level++ {
			data := desc.MipData(level)
			if data == nil {
				break
			}
			w, h := desc.MipSize(level)
			r.writeTexture(t, uint32(level), 0, 0, uint32(w), uint32(h), uint32(w)*desc.Format.BytesPerPixel(), data)
		}
	}
	return t, nil
}

func (r *Renderer) writeTexture(t *texture, mip, x, y, w, h, pitch uint32, data []byte) {
	err := r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: mip, Origin: hal.Origin3D{X: x, Y: y}, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		gfx.Logger().Warn("wgpu: texture upload failed", "mip", mip, "err", err)
	}
}

func (r *Renderer) destroyTexture(t *texture) {
	r.device.DestroyTextureView(t.view)
	r.device.DestroyTexture(t.tex)
}

func (r *Renderer) CreateTexture(h gfx.TextureHandle, desc *gfx.TextureDesc) error {
	t, err := r.createTexture(fmt.Sprintf("gfx_texture_%d", h.Index()), desc)
	if err != nil {
		return err
	}
	r.textures[h.Index()] = t
	return nil
}

// UpdateTexture replaces a region of one mip. Rows of the update are
// Pitch bytes apart; zero means tightly packed.
func (r *Renderer) UpdateTexture(h gfx.TextureHandle, upd *gfx.TextureUpdate) {
	t, ok := r.textures[h.Index()]
	if !ok || uint32(upd.Mip) >= t.mips || t.format.IsDepth() {
		return
	}
	mw, mh := max(t.width>>upd.Mip, 1), max(t.height>>upd.Mip, 1)
	x, y := uint32(upd.Rect.X), uint32(upd.Rect.Y)
	if x >= mw || y >= mh {
		return
	}
	w, hgt := min(uint32(upd.Rect.Width), mw-x), min(uint32(upd.Rect.Height), mh-y)
	pitch := uint32(upd.Pitch)
	if pitch == 0 {
		pitch = uint32(upd.Rect.Width) * t.format.BytesPerPixel()
	}
	if w == 0 || hgt == 0 || uint32(len(upd.Data)) < pitch*(hgt-1)+w*t.format.BytesPerPixel() {
		gfx.Logger().Warn("wgpu: UpdateTexture ignored", "handle", h.String(), "bytes", len(upd.Data))
		return
	}
	r.writeTexture(t, uint32(upd.Mip), x, y, w, hgt, pitch, upd.Data)
}

func (r *Renderer) DestroyTexture(h gfx.TextureHandle) {
	if t, ok := r.textures[h.Index()]; ok {
		r.clearTextureGroups()
		r.destroyTexture(t)
		delete(r.textures, h.Index())
	}
}

// CreateFrameBuffer groups render target textures. The first depth
// texture becomes the depth-stencil attachment; the rest are color
// attachments in order.
func (r *Renderer) CreateFrameBuffer(h gfx.FrameBufferHandle, textures []gfx.TextureHandle) error {
	fb := &frameBuffer{}
	for _, th := range textures {
		t, ok := r.textures[th.Index()]
		if !ok {
			return fmt.Errorf("wgpu: frame buffer %s: texture %s: %w", h, th, gfx.ErrInvalidHandle)
		}
		if t.flags&gfx.TextureRenderTarget == 0 && !t.format.IsDepth() {
			return fmt.Errorf("wgpu: frame buffer %s: texture %s is not a render target", h, th)
		}
		if t.format.IsDepth() {
			if fb.depth == nil {
				fb.depth = t
			}
		} else {
			fb.colors = append(fb.colors, t)
		}
		if fb.width == 0 {
			fb.width, fb.height = t.width, t.height
		}
	}
	r.frameBuffers[h.Index()] = fb
	return nil
}

func (r *Renderer) destroyFrameBuffer(*frameBuffer) {}

func (r *Renderer) DestroyFrameBuffer(h gfx.FrameBufferHandle) {
	if fb, ok := r.frameBuffers[h.Index()]; ok {
		r.destroyFrameBuffer(fb)
		delete(r.frameBuffers, h.Index())
	}
}

// CreateUniform records the declaration. Values reach the program's
// uniform blocks through SetUniform.
func (r *Renderer) CreateUniform(h gfx.UniformHandle, typ gfx.UniformType, num uint16, name string) error {
	r.uniforms[h.Index()] = uniformInfo{typ: typ, num: num, name: name}
	return nil
}

func (r *Renderer) DestroyUniform(h gfx.UniformHandle) {
	delete(r.uniforms, h.Index())
}

// elementStride is the distance between array elements of typ in a
// uniform block. Arrays and matrix columns are 16-byte aligned.
func elementStride(typ gfx.UniformType) uint32 {
	switch typ {
	case gfx.Uniform3x3fv:
		return 48
	case gfx.Uniform4x4fv:
		return 64
	default:
		return 16
	}
}

// blockSize returns the size of a shader's uniform block: each uniform
// starts at its register (16 bytes each) and spans its registers or its
// elements, whichever is larger. The result is at least 16 bytes.
func blockSize(chunk *gfx.ShaderChunk) uint32 {
	size := uint32(16)
	for _, u := range chunk.Uniforms {
		span := max(uint32(u.RegCount)*16, uint32(max(u.Num, 1))*elementStride(u.Type))
		size = max(size, uint32(u.RegIndex)*16+span)
	}
	return (size + 15) &^ 15
}

// writeUniform stores num elements of typ at register reg of block.
// 3x3 matrices are expanded to three 16-byte columns.
func writeUniform(block []byte, typ gfx.UniformType, reg, num uint16, data []byte) {
	size, stride := typ.Size(), elementStride(typ)
	off := uint32(reg) * 16
	for i := uint32(0); i < uint32(num); i++ {
		src := data[min(i*size, uint32(len(data))):min((i+1)*size, uint32(len(data)))]
		dst := off + i*stride
		if dst >= uint32(len(block)) || len(src) == 0 {
			return
		}
		if typ == gfx.Uniform3x3fv {
			for col := uint32(0); col < 3 && col*12 < uint32(len(src)); col++ {
				at := dst + col*16
				if at >= uint32(len(block)) {
					return
				}
				copy(block[at:], src[col*12:min(col*12+12, uint32(len(src)))])
			}
			continue
		}
		copy(block[dst:], src)
	}
}

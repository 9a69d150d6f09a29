// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gfx/internal/nonlocal"
)

// dynamicIndexBuffer is a sub-range of a shared native index buffer.
type dynamicIndexBuffer struct {
	handle     IndexBufferHandle
	offset     uint32
	size       uint32
	startIndex uint32
}

// dynamicVertexBuffer is a sub-range of a shared native vertex buffer.
type dynamicVertexBuffer struct {
	handle      VertexBufferHandle
	offset      uint32
	size        uint32
	startVertex uint32
	numVertices uint32
	stride      uint16
	decl        VertexDeclHandle
	declHash    uint32
}

type shaderRef struct {
	hash      uint32
	fragment  bool
	refs      int
	destroyed bool
	// uniforms are the registry entries the shader declared; they are
	// released with the shader.
	uniforms []UniformHandle
}

type programRef struct {
	vsh ShaderHandle
	fsh ShaderHandle
}

type textureRef struct {
	refs      int
	destroyed bool
	width     uint16
	height    uint16
	format    TextureFormat
}

type uniformRef struct {
	name string
	typ  UniformType
	num  uint16
	refs int
}

// destroyResource dooms h, records the destroy command and queues the slot
// to be freed once the current frame has been rendered.
func destroyResource[K kindTag](c *Context, op Command, h Handle[K]) {
	doomHandle(c.tables, h)
	writeHandle(c.cmd(op), h)
	k := h.kind()
	c.submit.free[k] = append(c.submit.free[k], h.Value())
}

// findOrCreateDecl returns the shared declaration handle for decl, creating
// it when no buffer uses the layout yet. The caller registers its use with
// c.decls.add.
func (c *Context) findOrCreateDecl(decl *VertexDecl) VertexDeclHandle {
	if h := c.decls.find(decl.Hash()); h.IsValid() {
		return h
	}
	h := allocHandle[vertexDeclKind](c.tables)
	if !h.IsValid() {
		return h
	}
	d := *decl
	b := c.cmd(CmdCreateVertexDecl)
	writeHandle(b, h)
	b.WriteRef(&d)
	return h
}

func (c *Context) releaseDecl(hash uint32) {
	if h, ok := c.decls.release(hash); ok {
		destroyResource(c, CmdDestroyVertexDecl, h)
	}
}

func validDecl(decl *VertexDecl, op string) bool {
	if decl == nil || decl.Stride() == 0 {
		Logger().Warn("gfx: "+op+" ignored", "reason", "empty vertex declaration")
		return false
	}
	return true
}

// CreateIndexBuffer creates a static buffer of 16-bit indices. data is
// copied.
func (c *Context) CreateIndexBuffer(data []byte) IndexBufferHandle {
	if len(data) == 0 {
		Logger().Warn("gfx: CreateIndexBuffer ignored", "reason", "no data")
		return IndexBufferHandle{}
	}
	h := allocHandle[indexBufferKind](c.tables)
	if !h.IsValid() {
		return h
	}
	b := c.cmd(CmdCreateIndexBuffer)
	writeHandle(b, h)
	b.WriteRef(slices.Clone(data))
	return h
}

// DestroyIndexBuffer destroys a static index buffer.
func (c *Context) DestroyIndexBuffer(h IndexBufferHandle) {
	if checkHandle(c.tables, h, "DestroyIndexBuffer") != nil {
		return
	}
	destroyResource(c, CmdDestroyIndexBuffer, h)
}

// CreateVertexBuffer creates a static vertex buffer laid out as decl. data
// is copied.
func (c *Context) CreateVertexBuffer(data []byte, decl *VertexDecl) VertexBufferHandle {
	if !validDecl(decl, "CreateVertexBuffer") {
		return VertexBufferHandle{}
	}
	if len(data) == 0 {
		Logger().Warn("gfx: CreateVertexBuffer ignored", "reason", "no data")
		return VertexBufferHandle{}
	}
	h := allocHandle[vertexBufferKind](c.tables)
	if !h.IsValid() {
		return h
	}
	dh := c.findOrCreateDecl(decl)
	if !dh.IsValid() {
		c.tables.freeHandle(kindVertexBuffer, h.Value())
		return VertexBufferHandle{}
	}
	c.decls.add(decl.Hash(), dh)
	c.vertexBuffers[h.Index()] = decl.Hash()

	b := c.cmd(CmdCreateVertexBuffer)
	writeHandle(b, h)
	b.WriteRef(slices.Clone(data))
	writeHandle(b, dh)
	return h
}

// DestroyVertexBuffer destroys a static vertex buffer.
func (c *Context) DestroyVertexBuffer(h VertexBufferHandle) {
	if checkHandle(c.tables, h, "DestroyVertexBuffer") != nil {
		return
	}
	destroyResource(c, CmdDestroyVertexBuffer, h)
	c.releaseDecl(c.vertexBuffers[h.Index()])
	c.vertexBuffers[h.Index()] = 0
}

// allocDynamicIndex sub-allocates size bytes of native index storage,
// creating a new backing buffer when none has room.
func (c *Context) allocDynamicIndex(size uint32) uint64 {
	if ptr := c.dynIndexAlloc.Alloc(size); ptr != nonlocal.Invalid {
		return ptr
	}
	ib := allocHandle[indexBufferKind](c.tables)
	if !ib.IsValid() {
		return nonlocal.Invalid
	}
	block := max(c.limits.DynamicIndexBufferSize, size)
	b := c.cmd(CmdCreateDynamicIndexBuffer)
	writeHandle(b, ib)
	b.WriteUint32(block)
	c.backingIndex = append(c.backingIndex, ib)
	c.dynIndexAlloc.Add(uint64(ib.Value())<<32, block)
	return c.dynIndexAlloc.Alloc(size)
}

func (c *Context) allocDynamicVertex(size uint32) uint64 {
	if ptr := c.dynVertexAlloc.Alloc(size); ptr != nonlocal.Invalid {
		return ptr
	}
	vb := allocHandle[vertexBufferKind](c.tables)
	if !vb.IsValid() {
		return nonlocal.Invalid
	}
	block := max(c.limits.DynamicVertexBufferSize, size)
	b := c.cmd(CmdCreateDynamicVertexBuffer)
	writeHandle(b, vb)
	b.WriteUint32(block)
	c.backingVertex = append(c.backingVertex, vb)
	c.dynVertexAlloc.Add(uint64(vb.Value())<<32, block)
	return c.dynVertexAlloc.Alloc(size)
}

// CreateDynamicIndexBuffer reserves room for num 16-bit indices that can be
// updated every frame.
func (c *Context) CreateDynamicIndexBuffer(num uint32) DynamicIndexBufferHandle {
	h := allocHandle[dynamicIndexBufferKind](c.tables)
	if !h.IsValid() {
		return h
	}
	size := align16(max(num, 1) * 2)
	ptr := c.allocDynamicIndex(size)
	if ptr == nonlocal.Invalid {
		c.tables.freeHandle(kindDynamicIndexBuffer, h.Value())
		Logger().Warn("gfx: CreateDynamicIndexBuffer failed", "size", size, "err", ErrTableFull)
		return DynamicIndexBufferHandle{}
	}
	offset := uint32(ptr)
	c.dynamicIndexBuffers[h.Index()] = dynamicIndexBuffer{
		handle:     IndexBufferHandle{v: uint32(ptr >> 32)},
		offset:     offset,
		size:       size,
		startIndex: offset / 2,
	}
	return h
}

// UpdateDynamicIndexBuffer replaces the contents of h. Data past the
// buffer's capacity is ignored.
func (c *Context) UpdateDynamicIndexBuffer(h DynamicIndexBufferHandle, data []byte) {
	if checkHandle(c.tables, h, "UpdateDynamicIndexBuffer") != nil {
		return
	}
	dib := &c.dynamicIndexBuffers[h.Index()]
	n := min(uint32(len(data)), dib.size)
	b := c.cmd(CmdUpdateDynamicIndexBuffer)
	writeHandle(b, dib.handle)
	b.WriteUint32(dib.offset)
	b.WriteRef(slices.Clone(data[:n]))
}

// DestroyDynamicIndexBuffer releases h. Its storage is reused once the
// frame has been handed off.
func (c *Context) DestroyDynamicIndexBuffer(h DynamicIndexBufferHandle) {
	if checkHandle(c.tables, h, "DestroyDynamicIndexBuffer") != nil {
		return
	}
	doomHandle(c.tables, h)
	c.freeDynIndex = append(c.freeDynIndex, h)
}

// CreateDynamicVertexBuffer reserves room for num vertices laid out as
// decl.
func (c *Context) CreateDynamicVertexBuffer(num uint32, decl *VertexDecl) DynamicVertexBufferHandle {
	if !validDecl(decl, "CreateDynamicVertexBuffer") {
		return DynamicVertexBufferHandle{}
	}
	h := allocHandle[dynamicVertexBufferKind](c.tables)
	if !h.IsValid() {
		return h
	}
	stride := uint32(decl.Stride())
	num = max(num, 1)
	size := align16((num + 1) * stride)
	ptr := c.allocDynamicVertex(size)
	if ptr == nonlocal.Invalid {
		c.tables.freeHandle(kindDynamicVertexBuffer, h.Value())
		Logger().Warn("gfx: CreateDynamicVertexBuffer failed", "size", size, "err", ErrTableFull)
		return DynamicVertexBufferHandle{}
	}
	dh := c.findOrCreateDecl(decl)
	if !dh.IsValid() {
		c.dynVertexAlloc.Free(ptr)
		c.tables.freeHandle(kindDynamicVertexBuffer, h.Value())
		return DynamicVertexBufferHandle{}
	}
	c.decls.add(decl.Hash(), dh)

	offset := uint32(ptr)
	c.dynamicVertexBuffers[h.Index()] = dynamicVertexBuffer{
		handle:      VertexBufferHandle{v: uint32(ptr >> 32)},
		offset:      offset,
		size:        size,
		startVertex: (offset + stride - 1) / stride,
		numVertices: num,
		stride:      uint16(stride),
		decl:        dh,
		declHash:    decl.Hash(),
	}
	return h
}

// UpdateDynamicVertexBuffer replaces the contents of h. Data past the
// buffer's capacity is ignored.
func (c *Context) UpdateDynamicVertexBuffer(h DynamicVertexBufferHandle, data []byte) {
	if checkHandle(c.tables, h, "UpdateDynamicVertexBuffer") != nil {
		return
	}
	dvb := &c.dynamicVertexBuffers[h.Index()]
	n := min(uint32(len(data)), dvb.numVertices*uint32(dvb.stride))
	b := c.cmd(CmdUpdateDynamicVertexBuffer)
	writeHandle(b, dvb.handle)
	b.WriteUint32(dvb.startVertex * uint32(dvb.stride))
	b.WriteRef(slices.Clone(data[:n]))
}

// DestroyDynamicVertexBuffer releases h.
func (c *Context) DestroyDynamicVertexBuffer(h DynamicVertexBufferHandle) {
	if checkHandle(c.tables, h, "DestroyDynamicVertexBuffer") != nil {
		return
	}
	doomHandle(c.tables, h)
	c.releaseDecl(c.dynamicVertexBuffers[h.Index()].declHash)
	c.freeDynVertex = append(c.freeDynVertex, h)
}

// freeDynamicBuffers returns the storage of the dynamic buffers destroyed
// during the frame being handed off.
func (c *Context) freeDynamicBuffers() {
	for _, h := range c.freeDynIndex {
		dib := &c.dynamicIndexBuffers[h.Index()]
		c.dynIndexAlloc.Free(uint64(dib.handle.Value())<<32 | uint64(dib.offset))
		*dib = dynamicIndexBuffer{}
		c.tables.freeHandle(kindDynamicIndexBuffer, h.Value())
	}
	for _, h := range c.freeDynVertex {
		dvb := &c.dynamicVertexBuffers[h.Index()]
		c.dynVertexAlloc.Free(uint64(dvb.handle.Value())<<32 | uint64(dvb.offset))
		*dvb = dynamicVertexBuffer{}
		c.tables.freeHandle(kindDynamicVertexBuffer, h.Value())
	}
	if len(c.freeDynIndex) > 0 {
		c.dynIndexAlloc.Compact()
	}
	if len(c.freeDynVertex) > 0 {
		c.dynVertexAlloc.Compact()
	}
	c.freeDynIndex = c.freeDynIndex[:0]
	c.freeDynVertex = c.freeDynVertex[:0]
}

// destroyBackingBuffers destroys the native buffers dynamic buffers were
// carved from.
func (c *Context) destroyBackingBuffers() {
	for _, ib := range c.backingIndex {
		destroyResource(c, CmdDestroyDynamicIndexBuffer, ib)
	}
	for _, vb := range c.backingVertex {
		destroyResource(c, CmdDestroyDynamicVertexBuffer, vb)
	}
	c.backingIndex = c.backingIndex[:0]
	c.backingVertex = c.backingVertex[:0]
	c.dynIndexAlloc.Reset()
	c.dynVertexAlloc.Reset()
}

// createTransientBuffers gives the submit frame native buffers mirroring
// its transient regions.
func (c *Context) createTransientBuffers() {
	f := c.submit
	if ib := allocHandle[indexBufferKind](c.tables); ib.IsValid() {
		b := c.cmd(CmdCreateDynamicIndexBuffer)
		writeHandle(b, ib)
		b.WriteUint32(f.tib.size())
		f.tibHandle = ib
	}
	if vb := allocHandle[vertexBufferKind](c.tables); vb.IsValid() {
		b := c.cmd(CmdCreateDynamicVertexBuffer)
		writeHandle(b, vb)
		b.WriteUint32(f.tvb.size())
		f.tvbHandle = vb
	}
}

func (c *Context) destroyTransientBuffers(f *Frame) {
	if f.tibHandle.IsValid() {
		destroyResource(c, CmdDestroyDynamicIndexBuffer, f.tibHandle)
		f.tibHandle = IndexBufferHandle{}
	}
	if f.tvbHandle.IsValid() {
		destroyResource(c, CmdDestroyDynamicVertexBuffer, f.tvbHandle)
		f.tvbHandle = VertexBufferHandle{}
	}
}

// CreateShader parses a shader chunk and registers the uniforms it
// declares. It returns the invalid handle when data is not a valid chunk.
func (c *Context) CreateShader(data []byte) ShaderHandle {
	chunk, err := ParseShader(data)
	if err != nil {
		Logger().Warn("gfx: CreateShader ignored", "err", err)
		return ShaderHandle{}
	}
	h := allocHandle[shaderKind](c.tables)
	if !h.IsValid() {
		return h
	}
	ref := shaderRef{hash: chunk.Hash, fragment: chunk.IsFragment(), refs: 1}
	for _, u := range chunk.Uniforms {
		if _, ok := PredefinedUniformByName(u.Name); ok {
			continue
		}
		if uh := c.CreateUniform(u.Name, u.Type, uint16(max(u.Num, 1))); uh.IsValid() {
			ref.uniforms = append(ref.uniforms, uh)
		}
	}
	c.shaders[h.Index()] = ref

	b := c.cmd(CmdCreateShader)
	writeHandle(b, h)
	b.WriteRef(chunk)
	return h
}

// DestroyShader releases the application's reference to h. The shader
// lives on while programs use it.
func (c *Context) DestroyShader(h ShaderHandle) {
	if checkHandle(c.tables, h, "DestroyShader") != nil {
		return
	}
	s := &c.shaders[h.Index()]
	if s.destroyed {
		Logger().Warn("gfx: DestroyShader ignored", "handle", h.String(), "err", ErrStaleHandle)
		return
	}
	s.destroyed = true
	c.shaderDecRef(h)
}

func (c *Context) shaderIncRef(h ShaderHandle) { c.shaders[h.Index()].refs++ }

func (c *Context) shaderDecRef(h ShaderHandle) {
	s := &c.shaders[h.Index()]
	s.refs--
	if s.refs > 0 {
		return
	}
	uniforms := s.uniforms
	*s = shaderRef{}
	destroyResource(c, CmdDestroyShader, h)
	for _, u := range uniforms {
		c.DestroyUniform(u)
	}
}

// liveShader reports whether h can be linked into a program.
func (c *Context) liveShader(h ShaderHandle) bool {
	return checkHandle(c.tables, h, "CreateProgram") == nil && !c.shaders[h.Index()].destroyed
}

// CreateProgram links a vertex and a fragment shader. Their input/output
// hashes must match. With destroyShaders the application's references to
// both shaders are released, leaving the program as their only owner.
func (c *Context) CreateProgram(vsh, fsh ShaderHandle, destroyShaders bool) ProgramHandle {
	if !c.liveShader(vsh) || !c.liveShader(fsh) {
		return ProgramHandle{}
	}
	vs, fs := &c.shaders[vsh.Index()], &c.shaders[fsh.Index()]
	if vs.fragment || !fs.fragment || vs.hash != fs.hash {
		Logger().Warn("gfx: CreateProgram ignored", "vsh", vsh.String(), "fsh", fsh.String(),
			"err", fmt.Errorf("%w: %#08x != %#08x", ErrShaderMismatch, vs.hash, fs.hash))
		return ProgramHandle{}
	}
	h := allocHandle[programKind](c.tables)
	if !h.IsValid() {
		return h
	}
	c.shaderIncRef(vsh)
	c.shaderIncRef(fsh)
	c.programs[h.Index()] = programRef{vsh: vsh, fsh: fsh}

	b := c.cmd(CmdCreateProgram)
	writeHandle(b, h)
	writeHandle(b, vsh)
	writeHandle(b, fsh)

	if destroyShaders {
		c.DestroyShader(vsh)
		c.DestroyShader(fsh)
	}
	return h
}

// DestroyProgram destroys h and releases its shaders.
func (c *Context) DestroyProgram(h ProgramHandle) {
	if checkHandle(c.tables, h, "DestroyProgram") != nil {
		return
	}
	p := c.programs[h.Index()]
	c.programs[h.Index()] = programRef{}
	destroyResource(c, CmdDestroyProgram, h)
	c.shaderDecRef(p.vsh)
	c.shaderDecRef(p.fsh)
}

// CreateTexture creates a 2D texture. desc and its data are copied.
func (c *Context) CreateTexture(desc *TextureDesc) TextureHandle {
	if err := validateTexture(desc); err != nil {
		Logger().Warn("gfx: CreateTexture ignored", "err", err)
		return TextureHandle{}
	}
	h := allocHandle[textureKind](c.tables)
	if !h.IsValid() {
		return h
	}
	d := *desc
	d.NumMips = max(d.NumMips, 1)
	d.Data = slices.Clone(desc.Data)
	c.textures[h.Index()] = textureRef{refs: 1, width: d.Width, height: d.Height, format: d.Format}

	b := c.cmd(CmdCreateTexture)
	writeHandle(b, h)
	b.WriteRef(&d)
	return h
}

func validateTexture(d *TextureDesc) error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: nil", ErrInvalidTexture)
	case d.Width == 0 || d.Height == 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidTexture, d.Width, d.Height)
	case d.Format.BytesPerPixel() == 0:
		return fmt.Errorf("%w: format %s", ErrInvalidTexture, d.Format)
	case d.Data != nil && uint32(len(d.Data)) < (&TextureDesc{
		Width: d.Width, Height: d.Height, NumMips: d.NumMips, Format: d.Format,
	}).StorageSize():
		return fmt.Errorf("%w: %d bytes of data", ErrInvalidTexture, len(d.Data))
	}
	return nil
}

// CreateTexture2D creates a texture from tightly packed texels. data may be
// nil for render targets.
func (c *Context) CreateTexture2D(width, height uint16, numMips uint8, format TextureFormat, flags TextureFlags, data []byte) TextureHandle {
	return c.CreateTexture(&TextureDesc{
		Width:   width,
		Height:  height,
		NumMips: numMips,
		Format:  format,
		Flags:   flags,
		Data:    data,
	})
}

// CreateTextureFromImage uploads img as an RGBA8 texture, optionally with
// a generated mip chain.
func (c *Context) CreateTextureFromImage(img image.Image, mips bool, flags TextureFlags) TextureHandle {
	if img == nil || img.Bounds().Empty() {
		Logger().Warn("gfx: CreateTextureFromImage ignored", "err", fmt.Errorf("%w: empty image", ErrInvalidTexture))
		return TextureHandle{}
	}
	desc := imageMipChain(img, mips)
	desc.Flags = flags
	return c.CreateTexture(desc)
}

// UpdateTexture2D replaces a rectangle of one mip level. pitch is the byte
// length of a source row; zero means tightly packed.
func (c *Context) UpdateTexture2D(h TextureHandle, mip uint8, x, y, width, height uint16, data []byte, pitch uint16) {
	if checkHandle(c.tables, h, "UpdateTexture2D") != nil {
		return
	}
	t := &c.textures[h.Index()]
	if pitch == 0 {
		pitch = uint16(uint32(width) * t.format.BytesPerPixel())
	}
	if uint32(len(data)) < uint32(pitch)*uint32(max(height, 1)-1)+uint32(width)*t.format.BytesPerPixel() {
		Logger().Warn("gfx: UpdateTexture2D ignored", "handle", h.String(),
			"err", fmt.Errorf("%w: %d bytes of data", ErrInvalidTexture, len(data)))
		return
	}
	b := c.cmd(CmdUpdateTexture)
	writeHandle(b, h)
	b.WriteRef(&TextureUpdate{
		Mip:   mip,
		Rect:  Rect{X: x, Y: y, Width: width, Height: height},
		Pitch: pitch,
		Data:  slices.Clone(data),
	})
}

// DestroyTexture releases the application's reference to h. Frame buffers
// keep their attachments alive.
func (c *Context) DestroyTexture(h TextureHandle) {
	if checkHandle(c.tables, h, "DestroyTexture") != nil {
		return
	}
	t := &c.textures[h.Index()]
	if t.destroyed {
		Logger().Warn("gfx: DestroyTexture ignored", "handle", h.String(), "err", ErrStaleHandle)
		return
	}
	t.destroyed = true
	c.textureDecRef(h)
}

func (c *Context) textureDecRef(h TextureHandle) {
	t := &c.textures[h.Index()]
	t.refs--
	if t.refs > 0 {
		return
	}
	*t = textureRef{}
	destroyResource(c, CmdDestroyTexture, h)
}

// CreateFrameBuffer creates a render target texture of the given size and a
// frame buffer owning it.
func (c *Context) CreateFrameBuffer(width, height uint16, format TextureFormat, flags TextureFlags) FrameBufferHandle {
	tex := c.CreateTexture2D(width, height, 1, format, flags|TextureRenderTarget, nil)
	if !tex.IsValid() {
		return FrameBufferHandle{}
	}
	fb := c.CreateFrameBufferFromTextures(tex)
	c.textures[tex.Index()].destroyed = true
	c.textureDecRef(tex)
	return fb
}

// CreateFrameBufferFromTextures creates a frame buffer with 1 to
// MaxFrameBufferAttachments attachments. The frame buffer holds a reference
// to each texture until it is destroyed.
func (c *Context) CreateFrameBufferFromTextures(textures ...TextureHandle) FrameBufferHandle {
	if len(textures) == 0 || len(textures) > MaxFrameBufferAttachments {
		Logger().Warn("gfx: CreateFrameBuffer ignored", "attachments", len(textures))
		return FrameBufferHandle{}
	}
	for _, t := range textures {
		if checkHandle(c.tables, t, "CreateFrameBuffer") != nil {
			return FrameBufferHandle{}
		}
		if c.textures[t.Index()].destroyed {
			Logger().Warn("gfx: CreateFrameBuffer ignored", "texture", t.String(), "err", ErrStaleHandle)
			return FrameBufferHandle{}
		}
	}
	h := allocHandle[frameBufferKind](c.tables)
	if !h.IsValid() {
		return h
	}
	for _, t := range textures {
		c.textures[t.Index()].refs++
	}
	c.frameBuffers[h.Index()] = slices.Clone(textures)

	b := c.cmd(CmdCreateFrameBuffer)
	writeHandle(b, h)
	b.WriteUint8(uint8(len(textures)))
	for _, t := range textures {
		writeHandle(b, t)
	}
	return h
}

// DestroyFrameBuffer destroys h and releases its attachments.
func (c *Context) DestroyFrameBuffer(h FrameBufferHandle) {
	if checkHandle(c.tables, h, "DestroyFrameBuffer") != nil {
		return
	}
	textures := c.frameBuffers[h.Index()]
	c.frameBuffers[h.Index()] = nil
	destroyResource(c, CmdDestroyFrameBuffer, h)
	for _, t := range textures {
		c.textureDecRef(t)
	}
}

// CreateUniform registers a named uniform of num elements of typ.
//
// Uniforms are shared by name. Declaring an existing name again returns the
// same handle and adds a reference; when the new declaration is larger (a
// wider type or more elements) the registry entry is widened to it.
func (c *Context) CreateUniform(name string, typ UniformType, num uint16) UniformHandle {
	if _, ok := PredefinedUniformByName(name); ok {
		Logger().Warn("gfx: CreateUniform ignored", "name", name, "err", ErrPredefinedUniform)
		return UniformHandle{}
	}
	if typ == UniformEnd || typ >= UniformTypeCount {
		Logger().Warn("gfx: CreateUniform ignored", "name", name, "type", typ.String())
		return UniformHandle{}
	}
	num = max(num, 1)
	if !c.stringFits(CmdCreateUniform, 8, name) {
		return UniformHandle{}
	}

	if h, ok := c.uniformByName[name]; ok {
		u := &c.uniforms[h.Index()]
		wider := u.typ.Size() < typ.Size()
		if wider || u.num < num {
			if wider {
				u.typ = typ
			}
			u.num = max(u.num, num)
			Logger().Debug("gfx: uniform widened", "name", name, "type", u.typ.String(), "num", u.num)
			c.emitCreateUniform(h, u)
		}
		u.refs++
		return h
	}

	h := allocHandle[uniformKind](c.tables)
	if !h.IsValid() {
		return h
	}
	u := &c.uniforms[h.Index()]
	*u = uniformRef{name: name, typ: typ, num: num, refs: 1}
	c.uniformByName[name] = h
	c.emitCreateUniform(h, u)
	return h
}

func (c *Context) emitCreateUniform(h UniformHandle, u *uniformRef) {
	b := c.cmd(CmdCreateUniform)
	writeHandle(b, h)
	b.WriteUint8(uint8(u.typ))
	b.WriteUint16(u.num)
	_ = b.WriteString(u.name)
}

// DestroyUniform drops one reference to h. The uniform is destroyed with
// its last reference.
func (c *Context) DestroyUniform(h UniformHandle) {
	if checkHandle(c.tables, h, "DestroyUniform") != nil {
		return
	}
	u := &c.uniforms[h.Index()]
	u.refs--
	if u.refs > 0 {
		return
	}
	delete(c.uniformByName, u.name)
	*u = uniformRef{}
	destroyResource(c, CmdDestroyUniform, h)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// renderResources is the render side's view of live resources: what the
// submit walker needs to resolve counts, layouts, uniforms and samplers.
// It is only touched by the render goroutine.
type renderResources struct {
	decls         []VertexDecl
	indexBuffers  []uint32
	vertexBuffers []vertexBufferInfo
	shaders       []*ShaderChunk
	programs      []programInfo
	textures      []TextureFlags
	uniforms      []uniformStorage
	uniformByName map[string]UniformHandle
}

type vertexBufferInfo struct {
	size uint32
	decl VertexDeclHandle
}

type programInfo struct {
	constants  *ConstantBuffer
	predefined []predefinedBinding
}

type uniformStorage struct {
	typ  UniformType
	num  uint16
	name string
	data []byte
}

func newRenderResources(l *Limits) *renderResources {
	return &renderResources{
		decls:         make([]VertexDecl, l.MaxVertexDecls),
		indexBuffers:  make([]uint32, l.MaxIndexBuffers),
		vertexBuffers: make([]vertexBufferInfo, l.MaxVertexBuffers),
		shaders:       make([]*ShaderChunk, l.MaxShaders),
		programs:      make([]programInfo, l.MaxPrograms),
		textures:      make([]TextureFlags, l.MaxTextures),
		uniforms:      make([]uniformStorage, l.MaxUniforms),
		uniformByName: make(map[string]UniformHandle),
	}
}

// vertexDecl returns the layout of vertex buffer h, falling back to the
// layout carried by the draw for buffers created without one.
func (r *renderResources) vertexDecl(h VertexBufferHandle, fallback VertexDeclHandle) (VertexDeclHandle, *VertexDecl) {
	dh := r.vertexBuffers[h.Index()].decl
	if !dh.IsValid() {
		dh = fallback
	}
	if !dh.IsValid() {
		return dh, nil
	}
	return dh, &r.decls[dh.Index()]
}

func (r *renderResources) createUniform(h UniformHandle, typ UniformType, num uint16, name string) {
	u := &r.uniforms[h.Index()]
	data := make([]byte, typ.Size()*uint32(num))
	copy(data, u.data)
	*u = uniformStorage{typ: typ, num: num, name: name, data: data}
	r.uniformByName[name] = h
}

func (r *renderResources) destroyUniform(h UniformHandle) {
	u := &r.uniforms[h.Index()]
	if cur, ok := r.uniformByName[u.name]; ok && cur == h {
		delete(r.uniformByName, u.name)
	}
	*u = uniformStorage{}
}

// updateUniform copies a recorded uniform value into its storage. loc is
// the uniform's handle index.
func (r *renderResources) updateUniform(typ UniformType, loc, num uint16, data []byte) {
	if int(loc) >= len(r.uniforms) {
		return
	}
	copy(r.uniforms[loc].data, data)
}

// uniformData resolves a by-reference constant buffer record.
func (r *renderResources) uniformData(h UniformHandle) []byte {
	if int(h.Index()) >= len(r.uniforms) {
		return nil
	}
	return r.uniforms[h.Index()].data
}

// createProgram builds the program's constant buffer from the uniform
// records of both shaders. Predefined uniforms are kept aside; they are
// computed per draw.
func (r *renderResources) createProgram(h ProgramHandle, vsh, fsh ShaderHandle) {
	var chunks []*ShaderChunk
	size := 8
	for _, s := range [...]ShaderHandle{vsh, fsh} {
		if c := r.shaders[s.Index()]; c != nil {
			chunks = append(chunks, c)
			size += 8 * len(c.Uniforms)
		}
	}

	p := programInfo{constants: NewConstantBuffer(size)}
	for _, c := range chunks {
		for _, u := range c.Uniforms {
			loc := u.RegIndex & MaxUniformLocation
			if u.Fragment || c.IsFragment() {
				loc |= UniformLocFragment
			}
			num := uint16(max(u.Num, 1))
			if which, ok := PredefinedUniformByName(u.Name); ok {
				p.predefined = append(p.predefined, predefinedBinding{which: which, loc: loc, count: num})
				continue
			}
			uh, ok := r.uniformByName[u.Name]
			if !ok {
				Logger().Debug("gfx: shader uniform not declared", "program", h.String(), "uniform", u.Name)
				continue
			}
			num = min(num, r.uniforms[uh.Index()].num)
			p.constants.WriteUniformHandle(u.Type, loc, uh, num)
		}
	}
	p.constants.Finish()
	r.programs[h.Index()] = p
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"fmt"

	"github.com/gogpu/gfx/internal/cmdbuf"
)

// execCommands replays a sealed command buffer against the renderer and
// the render-side resource tables. It runs on the render side.
func (c *Context) execCommands(b *cmdbuf.Buffer) {
	b.Reset()
	var r Renderer = c.r
	if c.initErr != nil {
		r = nopRenderer{}
	}
	res := c.res
	for {
		op := Command(b.ReadUint8())
		switch op {
		case CmdEnd:
			return

		case CmdRendererInit:
			resolution := Resolution{Width: b.ReadUint32(), Height: b.ReadUint32(), Flags: ResetFlags(b.ReadUint32())}
			if err := r.Init(resolution); err != nil {
				c.initErr = err
				c.reportFatal(FatalUnableToInitialize, err)
				break
			}
			c.initialized = true
			Logger().Info("gfx: renderer initialized", "renderer", r.Name(),
				"width", resolution.Width, "height", resolution.Height)

		case CmdRendererShutdownBegin:
			c.initialized = false

		case CmdRendererShutdownEnd:
			if c.initErr == nil {
				r.Shutdown()
			}
			c.exit = true

		case CmdCreateVertexDecl:
			h := readHandle[vertexDeclKind](b)
			decl := b.ReadRef().(*VertexDecl)
			res.decls[h.Index()] = *decl
			c.check(op, h.String(), r.CreateVertexDecl(h, decl))

		case CmdDestroyVertexDecl:
			h := readHandle[vertexDeclKind](b)
			res.decls[h.Index()] = VertexDecl{}
			r.DestroyVertexDecl(h)

		case CmdCreateIndexBuffer:
			h := readHandle[indexBufferKind](b)
			data := b.ReadRef().([]byte)
			res.indexBuffers[h.Index()] = uint32(len(data))
			c.check(op, h.String(), r.CreateIndexBuffer(h, data))

		case CmdDestroyIndexBuffer:
			h := readHandle[indexBufferKind](b)
			res.indexBuffers[h.Index()] = 0
			r.DestroyIndexBuffer(h)

		case CmdCreateVertexBuffer:
			h := readHandle[vertexBufferKind](b)
			data := b.ReadRef().([]byte)
			decl := readHandle[vertexDeclKind](b)
			res.vertexBuffers[h.Index()] = vertexBufferInfo{size: uint32(len(data)), decl: decl}
			c.check(op, h.String(), r.CreateVertexBuffer(h, data, decl))

		case CmdDestroyVertexBuffer:
			h := readHandle[vertexBufferKind](b)
			res.vertexBuffers[h.Index()] = vertexBufferInfo{}
			r.DestroyVertexBuffer(h)

		case CmdCreateDynamicIndexBuffer:
			h := readHandle[indexBufferKind](b)
			size := b.ReadUint32()
			res.indexBuffers[h.Index()] = size
			c.check(op, h.String(), r.CreateDynamicIndexBuffer(h, size))

		case CmdUpdateDynamicIndexBuffer:
			h := readHandle[indexBufferKind](b)
			offset := b.ReadUint32()
			data := b.ReadRef().([]byte)
			r.UpdateDynamicIndexBuffer(h, offset, data)

		case CmdDestroyDynamicIndexBuffer:
			h := readHandle[indexBufferKind](b)
			res.indexBuffers[h.Index()] = 0
			r.DestroyDynamicIndexBuffer(h)

		case CmdCreateDynamicVertexBuffer:
			h := readHandle[vertexBufferKind](b)
			size := b.ReadUint32()
			res.vertexBuffers[h.Index()] = vertexBufferInfo{size: size}
			c.check(op, h.String(), r.CreateDynamicVertexBuffer(h, size))

		case CmdUpdateDynamicVertexBuffer:
			h := readHandle[vertexBufferKind](b)
			offset := b.ReadUint32()
			data := b.ReadRef().([]byte)
			r.UpdateDynamicVertexBuffer(h, offset, data)

		case CmdDestroyDynamicVertexBuffer:
			h := readHandle[vertexBufferKind](b)
			res.vertexBuffers[h.Index()] = vertexBufferInfo{}
			r.DestroyDynamicVertexBuffer(h)

		case CmdCreateShader:
			h := readHandle[shaderKind](b)
			chunk := b.ReadRef().(*ShaderChunk)
			res.shaders[h.Index()] = chunk
			if err := r.CreateShader(h, chunk); err != nil {
				c.reportFatal(FatalInvalidShader, fmt.Errorf("create %s: %w", h, err))
			}

		case CmdDestroyShader:
			h := readHandle[shaderKind](b)
			res.shaders[h.Index()] = nil
			r.DestroyShader(h)

		case CmdCreateProgram:
			h := readHandle[programKind](b)
			vsh := readHandle[shaderKind](b)
			fsh := readHandle[shaderKind](b)
			res.createProgram(h, vsh, fsh)
			c.check(op, h.String(), r.CreateProgram(h, vsh, fsh))

		case CmdDestroyProgram:
			h := readHandle[programKind](b)
			res.programs[h.Index()] = programInfo{}
			r.DestroyProgram(h)

		case CmdCreateTexture:
			h := readHandle[textureKind](b)
			desc := b.ReadRef().(*TextureDesc)
			res.textures[h.Index()] = desc.Flags
			if err := r.CreateTexture(h, desc); err != nil {
				c.reportFatal(FatalUnableToCreateTexture, fmt.Errorf("create %s: %w", h, err))
			}

		case CmdUpdateTexture:
			h := readHandle[textureKind](b)
			upd := b.ReadRef().(*TextureUpdate)
			r.UpdateTexture(h, upd)

		case CmdDestroyTexture:
			h := readHandle[textureKind](b)
			res.textures[h.Index()] = 0
			r.DestroyTexture(h)

		case CmdCreateFrameBuffer:
			h := readHandle[frameBufferKind](b)
			n := int(b.ReadUint8())
			textures := make([]TextureHandle, n)
			for i := range textures {
				textures[i] = readHandle[textureKind](b)
			}
			if err := r.CreateFrameBuffer(h, textures); err != nil {
				c.reportFatal(FatalUnableToCreateRenderTarget, fmt.Errorf("create %s: %w", h, err))
			}

		case CmdDestroyFrameBuffer:
			r.DestroyFrameBuffer(readHandle[frameBufferKind](b))

		case CmdCreateUniform:
			h := readHandle[uniformKind](b)
			typ := UniformType(b.ReadUint8())
			num := b.ReadUint16()
			name := b.ReadString()
			res.createUniform(h, typ, num, name)
			c.check(op, h.String(), r.CreateUniform(h, typ, num, name))

		case CmdDestroyUniform:
			h := readHandle[uniformKind](b)
			res.destroyUniform(h)
			r.DestroyUniform(h)

		case CmdUpdateViewName:
			id := b.ReadUint8()
			r.UpdateViewName(id, b.ReadString())

		case CmdSaveScreenShot:
			path := b.ReadString()
			if !c.initialized {
				break
			}
			if err := r.SaveScreenShot(path); err != nil {
				Logger().Warn("gfx: screenshot failed", "path", path, "err", err)
			}

		default:
			c.reportFatal(FatalInvalidCommand, fmt.Errorf("unknown command %d", op))
			return
		}
	}
}

// check logs a failed renderer call.
func (c *Context) check(op Command, what string, err error) {
	if err != nil {
		Logger().Error("gfx: renderer command failed",
			"renderer", c.r.Name(), "command", op.String(), "resource", what, "err", err)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

// Command is the opcode of a resource lifecycle record in a frame's command
// buffers. The numbering is part of the wire format: commands before
// CmdEnd are executed before the frame's draws, the rest after.
type Command uint8

const (
	CmdRendererInit Command = iota
	CmdRendererShutdownBegin
	CmdCreateVertexDecl
	CmdCreateIndexBuffer
	CmdCreateVertexBuffer
	CmdCreateDynamicIndexBuffer
	CmdUpdateDynamicIndexBuffer
	CmdCreateDynamicVertexBuffer
	CmdUpdateDynamicVertexBuffer
	CmdCreateShader
	CmdCreateProgram
	CmdCreateTexture
	CmdUpdateTexture
	CmdCreateFrameBuffer
	CmdCreateUniform
	CmdUpdateViewName
	CmdEnd
	CmdRendererShutdownEnd
	CmdDestroyVertexDecl
	CmdDestroyIndexBuffer
	CmdDestroyVertexBuffer
	CmdDestroyDynamicIndexBuffer
	CmdDestroyDynamicVertexBuffer
	CmdDestroyShader
	CmdDestroyProgram
	CmdDestroyTexture
	CmdDestroyFrameBuffer
	CmdDestroyUniform
	CmdSaveScreenShot
	commandCount
)

var commandNames = [commandCount]string{
	"RendererInit",
	"RendererShutdownBegin",
	"CreateVertexDecl",
	"CreateIndexBuffer",
	"CreateVertexBuffer",
	"CreateDynamicIndexBuffer",
	"UpdateDynamicIndexBuffer",
	"CreateDynamicVertexBuffer",
	"UpdateDynamicVertexBuffer",
	"CreateShader",
	"CreateProgram",
	"CreateTexture",
	"UpdateTexture",
	"CreateFrameBuffer",
	"CreateUniform",
	"UpdateViewName",
	"End",
	"RendererShutdownEnd",
	"DestroyVertexDecl",
	"DestroyIndexBuffer",
	"DestroyVertexBuffer",
	"DestroyDynamicIndexBuffer",
	"DestroyDynamicVertexBuffer",
	"DestroyShader",
	"DestroyProgram",
	"DestroyTexture",
	"DestroyFrameBuffer",
	"DestroyUniform",
	"SaveScreenShot",
}

func (c Command) String() string {
	if c < commandCount {
		return commandNames[c]
	}
	return "Unknown"
}

// IsPost reports whether c runs after the frame's draws.
func (c Command) IsPost() bool { return c > CmdEnd }

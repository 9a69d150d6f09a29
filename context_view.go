// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/unicode/norm"
)

// ViewSelf as the other view of SetViewTransform makes the X-suffixed
// predefined uniforms use the view's own view-projection.
const ViewSelf = 0xff

// forViews calls fn for every valid view id set in mask.
func (c *Context) forViews(mask uint32, op string, fn func(v *View, id uint8)) {
	for id := 0; mask != 0; id, mask = id+1, mask>>1 {
		if mask&1 == 0 {
			continue
		}
		if id >= len(c.views) {
			Logger().Warn("gfx: "+op+" ignored", "view", id, "max", len(c.views))
			return
		}
		fn(&c.views[id], uint8(id))
	}
}

func viewBit(id uint8) uint32 {
	if id >= MaxViews {
		return 0
	}
	return 1 << id
}

func (c *Context) checkView(id uint8, op string) bool {
	if int(id) >= len(c.views) {
		Logger().Warn("gfx: "+op+" ignored", "view", id, "max", len(c.views))
		return false
	}
	return true
}

// SetViewName names view id for debuggers and captures. The name is
// NFC-normalized before it reaches the renderer.
func (c *Context) SetViewName(id uint8, name string) {
	if !c.checkView(id, "SetViewName") {
		return
	}
	name = norm.NFC.String(name)
	if !c.stringFits(CmdUpdateViewName, 1, name) {
		return
	}
	b := c.cmd(CmdUpdateViewName)
	b.WriteUint8(id)
	_ = b.WriteString(name)
}

// SetViewRect sets the viewport of view id. Zero sizes are raised to 1.
func (c *Context) SetViewRect(id uint8, x, y, width, height uint16) {
	if c.checkView(id, "SetViewRect") {
		c.SetViewRectMask(viewBit(id), x, y, width, height)
	}
}

// SetViewRectMask sets the viewport of every view in mask.
func (c *Context) SetViewRectMask(mask uint32, x, y, width, height uint16) {
	r := Rect{X: x, Y: y, Width: max(width, 1), Height: max(height, 1)}
	c.forViews(mask, "SetViewRect", func(v *View, _ uint8) { v.Rect = r })
}

// SetViewScissor limits every draw of view id to a rectangle. A zero size
// removes the view scissor.
func (c *Context) SetViewScissor(id uint8, x, y, width, height uint16) {
	if c.checkView(id, "SetViewScissor") {
		c.SetViewScissorMask(viewBit(id), x, y, width, height)
	}
}

// SetViewScissorMask sets the scissor of every view in mask.
func (c *Context) SetViewScissorMask(mask uint32, x, y, width, height uint16) {
	r := Rect{X: x, Y: y, Width: width, Height: height}
	c.forViews(mask, "SetViewScissor", func(v *View, _ uint8) { v.Scissor = r })
}

// SetViewClear sets what view id clears before its first draw. rgba is
// packed as 0xRRGGBBAA.
func (c *Context) SetViewClear(id uint8, flags ClearFlags, rgba uint32, depth float32, stencil uint8) {
	if c.checkView(id, "SetViewClear") {
		c.SetViewClearMask(viewBit(id), flags, rgba, depth, stencil)
	}
}

// SetViewClearMask sets the clear state of every view in mask.
func (c *Context) SetViewClearMask(mask uint32, flags ClearFlags, rgba uint32, depth float32, stencil uint8) {
	cl := Clear{Flags: flags, RGBA: rgba, Depth: depth, Stencil: stencil}
	c.forViews(mask, "SetViewClear", func(v *View, _ uint8) { v.Clear = cl })
}

// SetViewSeq makes view id draw in submission order instead of sorting by
// state and depth.
func (c *Context) SetViewSeq(id uint8, enabled bool) {
	if c.checkView(id, "SetViewSeq") {
		c.SetViewSeqMask(viewBit(id), enabled)
	}
}

// SetViewSeqMask sets sequential mode for every view in mask.
func (c *Context) SetViewSeqMask(mask uint32, enabled bool) {
	var m uint16
	if enabled {
		m = 0xffff
	}
	c.forViews(mask, "SetViewSeq", func(_ *View, id uint8) { c.seq.mask[id] = m })
}

// SetViewFrameBuffer makes view id render into fb. The invalid handle
// selects the back buffer.
func (c *Context) SetViewFrameBuffer(id uint8, fb FrameBufferHandle) {
	if c.checkView(id, "SetViewFrameBuffer") {
		c.SetViewFrameBufferMask(viewBit(id), fb)
	}
}

// SetViewFrameBufferMask sets the render target of every view in mask.
func (c *Context) SetViewFrameBufferMask(mask uint32, fb FrameBufferHandle) {
	if fb.IsValid() && checkHandle(c.tables, fb, "SetViewFrameBuffer") != nil {
		return
	}
	c.forViews(mask, "SetViewFrameBuffer", func(v *View, _ uint8) { v.FrameBuffer = fb })
}

// SetViewTransform sets the view and projection matrices of view id. nil
// means identity. other names the view whose view-projection the
// X-suffixed predefined uniforms use; ViewSelf selects view id itself.
func (c *Context) SetViewTransform(id uint8, view, proj *Matrix, other uint8) {
	if c.checkView(id, "SetViewTransform") {
		c.SetViewTransformMask(viewBit(id), view, proj, other)
	}
}

// SetViewTransformMask sets the transforms of every view in mask.
func (c *Context) SetViewTransformMask(mask uint32, view, proj *Matrix, other uint8) {
	v, p := mgl32.Ident4(), mgl32.Ident4()
	if view != nil {
		v = *view
	}
	if proj != nil {
		p = *proj
	}
	c.forViews(mask, "SetViewTransform", func(dst *View, id uint8) {
		dst.View = v
		dst.Proj = p
		dst.Other = other
		if int(other) >= len(c.views) {
			dst.Other = id
		}
	})
}

// Reset changes the back buffer size and options from the next frame on.
func (c *Context) Reset(width, height uint32, flags ResetFlags) {
	c.resolution = Resolution{Width: max(width, 1), Height: max(height, 1), Flags: flags}
}

// Resolution returns the back buffer size frames are recorded for.
func (c *Context) Resolution() Resolution { return c.resolution }

// SetDebug sets the debug flags from the next frame on.
func (c *Context) SetDebug(flags DebugFlags) {
	c.debug = flags
}

// SaveScreenShot asks the renderer to write the back buffer to path after
// the current frame has been drawn.
func (c *Context) SaveScreenShot(path string) {
	if !c.stringFits(CmdSaveScreenShot, 0, path) {
		return
	}
	_ = c.cmd(CmdSaveScreenShot).WriteString(path)
}

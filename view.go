// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matrix is a column-major 4×4 float32 matrix.
type Matrix = mgl32.Mat4

// Rect is an integer rectangle in pixels.
type Rect struct {
	X, Y          uint16
	Width, Height uint16
}

// IsZero reports whether r has no area.
func (r Rect) IsZero() bool { return r.Width == 0 || r.Height == 0 }

// Intersect returns the overlap of r and o. The result has zero size when
// they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(uint32(r.X)+uint32(r.Width), uint32(o.X)+uint32(o.Width))
	y1 := min(uint32(r.Y)+uint32(r.Height), uint32(o.Y)+uint32(o.Height))
	out := Rect{X: x0, Y: y0}
	if x1 > uint32(x0) {
		out.Width = uint16(x1 - uint32(x0))
	}
	if y1 > uint32(y0) {
		out.Height = uint16(y1 - uint32(y0))
	}
	return out
}

// ClearFlags selects the buffers a view clears before its first draw.
type ClearFlags uint8

const (
	ClearNone    ClearFlags = 0
	ClearColor   ClearFlags = 1 << 0
	ClearDepth   ClearFlags = 1 << 1
	ClearStencil ClearFlags = 1 << 2
)

// Clear is the clear state of a view. RGBA is packed as 0xRRGGBBAA.
type Clear struct {
	Flags   ClearFlags
	RGBA    uint32
	Depth   float32
	Stencil uint8
}

// Color returns the clear color as normalized RGBA components.
func (c Clear) Color() [4]float32 {
	return [4]float32{
		float32(c.RGBA>>24) / 255,
		float32(c.RGBA>>16&0xff) / 255,
		float32(c.RGBA>>8&0xff) / 255,
		float32(c.RGBA&0xff) / 255,
	}
}

// ScissorNone in RenderState.Scissor means the draw has no scissor of its own.
const ScissorNone = math.MaxUint16

// View is the per-view state captured into a frame.
type View struct {
	Rect        Rect
	Scissor     Rect
	Clear       Clear
	View        Matrix
	Proj        Matrix
	FrameBuffer FrameBufferHandle
	// Other names the view whose view-projection the X-suffixed predefined
	// uniforms use. It equals the view's own id unless set otherwise.
	Other uint8
}

func defaultView(id uint8) View {
	return View{
		View:  mgl32.Ident4(),
		Proj:  mgl32.Ident4(),
		Other: id,
	}
}

// matrixCache is an append-only list of transforms. Index 0 is the identity.
type matrixCache struct {
	cache []Matrix
	num   uint32
}

func newMatrixCache(capacity uint32) *matrixCache {
	m := &matrixCache{cache: make([]Matrix, max(capacity, 1))}
	m.reset()
	return m
}

func (m *matrixCache) reset() {
	m.cache[0] = mgl32.Ident4()
	m.num = 1
}

// add appends mtx and returns the index of the first one. It returns 0 (the
// identity) when mtx is empty or does not fit.
func (m *matrixCache) add(mtx []Matrix) uint32 {
	if len(mtx) == 0 || int(m.num)+len(mtx) > len(m.cache) {
		return 0
	}
	first := m.num
	copy(m.cache[first:], mtx)
	m.num += uint32(len(mtx))
	return first
}

func (m *matrixCache) get(idx uint32) []Matrix {
	if idx >= m.num {
		return m.cache[:1]
	}
	return m.cache[idx:m.num]
}

// rectCache is an append-only list of scissor rectangles.
type rectCache struct {
	cache []Rect
	num   uint32
}

func newRectCache(capacity uint32) *rectCache {
	return &rectCache{cache: make([]Rect, capacity)}
}

func (r *rectCache) reset() { r.num = 0 }

// add appends rect and returns its index, or ScissorNone when full.
func (r *rectCache) add(rect Rect) uint16 {
	if int(r.num) >= len(r.cache) || r.num >= ScissorNone {
		return ScissorNone
	}
	idx := r.num
	r.cache[idx] = rect
	r.num++
	return uint16(idx)
}

func (r *rectCache) get(idx uint16) (Rect, bool) {
	if uint32(idx) >= r.num {
		return Rect{}, false
	}
	return r.cache[idx], true
}

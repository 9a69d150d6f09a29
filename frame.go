// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"math"
	"time"

	"github.com/gogpu/gfx/internal/cmdbuf"
	"github.com/gogpu/gfx/internal/radix"
)

// WholeBuffer as an index or vertex count means "draw the entire buffer".
const WholeBuffer = math.MaxUint32

// Sampler binds a texture to a texture stage.
type Sampler struct {
	Texture TextureHandle
	Flags   TextureFlags
}

// RenderState is the full state of one draw call.
type RenderState struct {
	State        State
	StencilFront Stencil
	StencilBack  Stencil
	// RGBA is the blend factor color, 0xRRGGBBAA.
	RGBA uint32

	// ConstBegin and ConstEnd delimit the uniform updates recorded since
	// the previous draw in the frame's constant buffer.
	ConstBegin uint32
	ConstEnd   uint32

	// Matrix is the matrix cache index of the first model transform.
	Matrix      uint32
	NumMatrices uint16
	// Scissor is a rect cache index or ScissorNone.
	Scissor uint16

	StartIndex  uint32
	NumIndices  uint32
	StartVertex uint32
	NumVertices uint32

	InstanceDataOffset uint32
	InstanceDataStride uint16
	NumInstances       uint16

	Program            ProgramHandle
	VertexBuffer       VertexBufferHandle
	VertexDecl         VertexDeclHandle
	IndexBuffer        IndexBufferHandle
	InstanceDataBuffer VertexBufferHandle
	Samplers           [MaxTextureSamplers]Sampler
}

// clear resets the per-draw fields to their defaults.
func (s *RenderState) clear() {
	*s = RenderState{
		State:        StateDefault,
		NumMatrices:  1,
		Scissor:      ScissorNone,
		NumIndices:   WholeBuffer,
		NumVertices:  WholeBuffer,
		NumInstances: 1,
	}
}

// TransientIndexBuffer is scratch index storage valid for one frame. Fill
// Data with 16-bit indices before calling Frame.
type TransientIndexBuffer struct {
	Data       []byte
	StartIndex uint32
	Num        uint32

	handle IndexBufferHandle
}

// TransientVertexBuffer is scratch vertex storage valid for one frame.
type TransientVertexBuffer struct {
	Data        []byte
	StartVertex uint32
	Num         uint32
	Stride      uint16

	handle VertexBufferHandle
	decl   VertexDeclHandle
}

// InstanceDataBuffer is per-instance data carved out of the transient
// vertex storage. Stride is a multiple of 16.
type InstanceDataBuffer struct {
	Data   []byte
	Offset uint32
	Num    uint32
	Stride uint16

	handle VertexBufferHandle
}

// transientRegion is a bump-allocated scratch area mirrored by a dynamic
// native buffer.
type transientRegion struct {
	data   []byte
	offset uint32
}

func (r *transientRegion) size() uint32 { return uint32(len(r.data)) }

// alloc reserves num elements of stride bytes starting at the next multiple
// of stride. It returns the element index of the first one and clamps num
// to what fits.
func (r *transientRegion) alloc(num *uint32, stride uint32) uint32 {
	offset := min(strideAlign(r.offset, stride), r.size())
	n := min(uint64(*num), uint64(r.size()-offset)/uint64(stride))
	*num = uint32(n)
	r.offset = offset + uint32(n)*stride
	return offset / stride
}

func (r *transientRegion) avail(num, stride uint32) bool {
	offset := strideAlign(r.offset, stride)
	return uint64(offset)+uint64(num)*uint64(stride) <= uint64(r.size())
}

func strideAlign(offset, stride uint32) uint32 {
	return (offset + stride - 1) / stride * stride
}

func align16(n uint32) uint32 { return (n + 15) &^ 15 }

// viewSeq holds the per-view draw counters used for sequential views.
type viewSeq struct {
	seq  []uint16
	mask []uint16
}

func newViewSeq(n int) viewSeq {
	return viewSeq{seq: make([]uint16, n), mask: make([]uint16, n)}
}

func (v *viewSeq) next(id uint8) uint16 {
	s := v.seq[id] & v.mask[id]
	v.seq[id]++
	return s
}

func (v *viewSeq) reset() { clear(v.seq) }

// Frame is one of the two recording slots of a Context. The producer side
// records into one Frame while the render side replays the other.
type Frame struct {
	renderStates []RenderState
	sortKeys     []uint64
	sortValues   []uint16
	tmpKeys      []uint64
	tmpValues    []uint16
	num          uint32
	numDropped   uint32

	state      RenderState
	key        SortKey
	constBegin uint32
	discard    bool

	views     []View
	matrices  *matrixCache
	rects     *rectCache
	constants *ConstantBuffer
	cmdPre    *cmdbuf.Buffer
	cmdPost   *cmdbuf.Buffer
	free      [kindCount][]uint32

	tib       transientRegion
	tibHandle IndexBufferHandle
	tvb       transientRegion
	tvbHandle VertexBufferHandle

	number     uint32
	resolution Resolution
	debug      DebugFlags
	waitRender time.Duration

	res   *renderResources
	stats Stats
}

func newFrame(l *Limits) *Frame {
	n := l.MaxDrawCalls
	f := &Frame{
		renderStates: make([]RenderState, n),
		sortKeys:     make([]uint64, n),
		sortValues:   make([]uint16, n),
		tmpKeys:      make([]uint64, n),
		tmpValues:    make([]uint16, n),
		views:        make([]View, l.MaxViews),
		matrices:     newMatrixCache(l.MaxMatrixCache),
		rects:        newRectCache(l.MaxRectCache),
		constants:    NewConstantBuffer(int(l.ConstantBufferSize)),
		cmdPre:       cmdbuf.New(int(l.CommandBufferSize)),
		cmdPost:      cmdbuf.New(int(l.CommandBufferSize)),
		tib:          transientRegion{data: make([]byte, l.TransientIndexBufferSize)},
		tvb:          transientRegion{data: make([]byte, l.TransientVertexBufferSize)},
	}
	for i := range f.views {
		f.views[i] = defaultView(uint8(i))
	}
	f.start()
	return f
}

// start opens the frame for recording.
func (f *Frame) start() {
	f.state.clear()
	f.key = SortKey{Program: sortKeyNoProgram}
	f.num = 0
	f.numDropped = 0
	f.constBegin = 0
	f.discard = false
	f.matrices.reset()
	f.rects.reset()
	f.constants.Reset()
	f.cmdPre.Start()
	f.cmdPost.Start()
	f.tib.offset = 0
	f.tvb.offset = 0
	f.waitRender = 0
	f.stats = Stats{}
}

// finish seals the command and constant buffers for replay.
func (f *Frame) finish() {
	f.cmdPre.Finish(uint8(CmdEnd))
	f.cmdPost.Finish(uint8(CmdEnd))
	f.constants.Finish()
	if f.numDropped > 0 {
		Logger().Warn("gfx: draw calls dropped",
			"dropped", f.numDropped, "max", len(f.renderStates))
	}
}

func (f *Frame) resetFreeHandles() {
	for k := range f.free {
		f.free[k] = f.free[k][:0]
	}
}

func (f *Frame) setState(state State, rgba uint32) {
	f.key.Trans = state.transparency()
	f.state.State = state
	f.state.RGBA = rgba
}

func (f *Frame) setStencil(front, back Stencil) {
	if back == StencilNone {
		back = front
	}
	f.state.StencilFront = front
	f.state.StencilBack = back
}

func (f *Frame) setProgram(h ProgramHandle) {
	f.state.Program = h
	if h.IsValid() {
		f.key.Program = h.Index()
	} else {
		f.key.Program = sortKeyNoProgram
	}
}

func (f *Frame) setTransform(mtx []Matrix) uint32 {
	idx := f.matrices.add(mtx)
	f.state.Matrix = idx
	f.state.NumMatrices = uint16(max(len(mtx), 1))
	if idx == 0 {
		f.state.NumMatrices = 1
	}
	return idx
}

func (f *Frame) setScissor(r Rect) uint16 {
	idx := f.rects.add(r)
	f.state.Scissor = idx
	return idx
}

// discardState throws away the state recorded since the last submit.
func (f *Frame) discardState() {
	f.discard = false
	f.state.clear()
	f.key = SortKey{Program: sortKeyNoProgram}
}

// submit records the current state for view id. It returns the number of
// draws in the frame.
func (f *Frame) submit(id uint8, depth int32, seq *viewSeq) uint32 {
	return f.submitMask(1<<id, depth, seq)
}

// submitMask records the current state once for every view in mask.
func (f *Frame) submitMask(mask uint32, depth int32, seq *viewSeq) uint32 {
	if f.discard {
		f.discardState()
		return f.num
	}
	if f.state.NumVertices == 0 && f.state.NumIndices == 0 {
		f.numDropped += uint32(popcount(mask))
		f.discardState()
		return f.num
	}

	constEnd := f.constants.Pos()
	f.key.Depth = depth
	for id := uint8(0); mask != 0 && int(id) < len(f.views); id, mask = id+1, mask>>1 {
		if mask&1 == 0 {
			continue
		}
		if f.num >= uint32(len(f.renderStates)) {
			f.numDropped++
			continue
		}
		f.key.View = id
		f.key.Seq = seq.next(id)
		f.sortKeys[f.num] = f.key.Encode()
		f.sortValues[f.num] = uint16(f.num)
		rs := &f.renderStates[f.num]
		*rs = f.state
		rs.ConstBegin = f.constBegin
		rs.ConstEnd = constEnd
		f.num++
	}
	f.constBegin = constEnd
	f.state.clear()
	f.key = SortKey{Program: sortKeyNoProgram}
	return f.num
}

func popcount(v uint32) int {
	n := 0
	for ; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// sort orders the draws by sort key. Draws with equal keys keep their
// submission order.
func (f *Frame) sort() {
	n := f.num
	radix.Sort64(f.sortKeys[:n], f.tmpKeys[:n], f.sortValues[:n], f.tmpValues[:n])
}

func (f *Frame) allocTransientIndexBuffer(num uint32) TransientIndexBuffer {
	first := f.tib.alloc(&num, 2)
	return TransientIndexBuffer{
		Data:       f.tib.data[first*2 : (first+num)*2],
		StartIndex: first,
		Num:        num,
		handle:     f.tibHandle,
	}
}

func (f *Frame) allocTransientVertexBuffer(num uint32, stride uint16, decl VertexDeclHandle) TransientVertexBuffer {
	s := uint32(stride)
	first := f.tvb.alloc(&num, s)
	return TransientVertexBuffer{
		Data:        f.tvb.data[first*s : (first+num)*s],
		StartVertex: first,
		Num:         num,
		Stride:      stride,
		handle:      f.tvbHandle,
		decl:        decl,
	}
}

func (f *Frame) allocInstanceDataBuffer(num uint32, stride uint16) InstanceDataBuffer {
	s := align16(uint32(stride))
	first := f.tvb.alloc(&num, s)
	return InstanceDataBuffer{
		Data:   f.tvb.data[first*s : (first+num)*s],
		Offset: first * s,
		Num:    num,
		Stride: uint16(s),
		handle: f.tvbHandle,
	}
}

// NumDraws returns the number of recorded draw calls.
func (f *Frame) NumDraws() uint32 { return f.num }

// NumDropped returns the number of draw calls that did not fit.
func (f *Frame) NumDropped() uint32 { return f.numDropped }

// Resolution returns the back buffer size the frame was recorded for.
func (f *Frame) Resolution() Resolution { return f.resolution }

// Debug returns the debug flags in effect for the frame.
func (f *Frame) Debug() DebugFlags { return f.debug }

// View returns the state of view id as captured when the frame was handed
// off.
func (f *Frame) View(id uint8) View {
	if int(id) < len(f.views) {
		return f.views[id]
	}
	return defaultView(id)
}

// TransientIndexBytes returns the bytes of transient index storage used.
func (f *Frame) TransientIndexBytes() uint32 { return f.tib.offset }

// TransientVertexBytes returns the bytes of transient vertex storage used.
func (f *Frame) TransientVertexBytes() uint32 { return f.tvb.offset }

// Number returns the number of frames handed off before this one.
func (f *Frame) Number() uint32 { return f.number }

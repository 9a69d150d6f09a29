// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/gfx/internal/cmdbuf"
	"github.com/gogpu/gfx/internal/nonlocal"
)

// Context records draw calls and resource commands and hands them to a
// Renderer one frame later.
//
// The producer API (every method except RenderFrame) must be called from a
// single goroutine. Rendering happens on a render goroutine owned by the
// Context, inline in Frame when single-threaded, or in the caller's
// RenderFrame loop with WithExternalRenderLoop.
type Context struct {
	r      Renderer
	opts   options
	limits Limits

	// Producer side.
	tables     *handleTables
	decls      *declRegistry
	submit     *Frame
	render     *Frame
	frames     uint32
	views      []View
	seq        viewSeq
	resolution Resolution
	debug      DebugFlags
	stats      Stats
	closed     bool

	vertexBuffers        []uint32 // decl hash per vertex buffer
	dynamicIndexBuffers  []dynamicIndexBuffer
	dynamicVertexBuffers []dynamicVertexBuffer
	dynIndexAlloc        *nonlocal.Allocator
	dynVertexAlloc       *nonlocal.Allocator
	backingIndex         []IndexBufferHandle
	backingVertex        []VertexBufferHandle
	freeDynIndex         []DynamicIndexBufferHandle
	freeDynVertex        []DynamicVertexBufferHandle
	shaders              []shaderRef
	programs             []programRef
	textures             []textureRef
	frameBuffers         [][]TextureHandle
	uniforms             []uniformRef
	uniformByName        map[string]UniformHandle
	transientDecls       map[uint32]VertexDeclHandle

	// Render side.
	res         *renderResources
	initialized bool
	initErr     error
	exit        bool
	renderStats Stats

	gameSem   frameSem
	renderSem frameSem
	done      chan struct{}
}

var _ io.Closer = (*Context)(nil)

// New creates a Context that drives r. The renderer is initialized during
// the first frame, which New runs before returning; an initialization error
// is reported to the fatal handler and returned.
func New(r Renderer, opts ...Option) (*Context, error) {
	if r == nil {
		return nil, fmt.Errorf("gfx: new context: %w", ErrNotInitialized)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.limits.Validate(); err != nil {
		return nil, err
	}

	l := o.limits
	c := &Context{
		r:                    r,
		opts:                 o,
		limits:               l,
		tables:               newHandleTables(&l),
		decls:                newDeclRegistry(),
		submit:               newFrame(&l),
		render:               newFrame(&l),
		views:                make([]View, l.MaxViews),
		seq:                  newViewSeq(int(l.MaxViews)),
		resolution:           o.resolution,
		debug:                o.debug,
		vertexBuffers:        make([]uint32, l.MaxVertexBuffers),
		dynamicIndexBuffers:  make([]dynamicIndexBuffer, l.MaxDynamicIndexBuffers),
		dynamicVertexBuffers: make([]dynamicVertexBuffer, l.MaxDynamicVertexBuffers),
		dynIndexAlloc:        nonlocal.New(),
		dynVertexAlloc:       nonlocal.New(),
		shaders:              make([]shaderRef, l.MaxShaders),
		programs:             make([]programRef, l.MaxPrograms),
		textures:             make([]textureRef, l.MaxTextures),
		frameBuffers:         make([][]TextureHandle, l.MaxFrameBuffers),
		uniforms:             make([]uniformRef, l.MaxUniforms),
		uniformByName:        make(map[string]UniformHandle),
		transientDecls:       make(map[uint32]VertexDeclHandle),
		res:                  newRenderResources(&l),
		gameSem:              newFrameSem(),
		renderSem:            newFrameSem(),
		done:                 make(chan struct{}),
	}
	for i := range c.views {
		c.views[i] = defaultView(uint8(i))
	}
	trackRenderer(r)

	b := c.cmd(CmdRendererInit)
	b.WriteUint32(c.resolution.Width)
	b.WriteUint32(c.resolution.Height)
	b.WriteUint32(uint32(c.resolution.Flags))
	c.createTransientBuffers()
	c.frameNoRenderWait()
	c.createTransientBuffers()

	switch {
	case o.singleThreaded:
		close(c.done)
		c.renderFrame()
	case o.externalLoop:
		close(c.done)
		Logger().Info("gfx: context created", "renderer", r.Name(), "mode", "external")
		return c, nil
	default:
		go c.renderLoop()
	}

	// Wait for the init frame so its result can be returned.
	c.renderSemWait()
	err := c.initErr
	c.renderSemPost()
	if err != nil {
		c.Shutdown()
		return nil, fmt.Errorf("gfx: init %s: %w", r.Name(), err)
	}
	mode := "threaded"
	if o.singleThreaded {
		mode = "single"
	}
	Logger().Info("gfx: context created", "renderer", r.Name(), "mode", mode)
	return c, nil
}

// Renderer returns the renderer driven by c.
func (c *Context) Renderer() Renderer { return c.r }

// Limits returns the capacities c was created with.
func (c *Context) Limits() Limits { return c.limits }

// Frame hands the recorded frame to the render side and opens the next one
// for recording. It blocks until the render side has finished the previous
// frame, so at most one frame is in flight. It returns the number of frames
// handed off so far.
func (c *Context) Frame() uint32 {
	if c.closed {
		return c.frames
	}
	start := time.Now()
	c.renderSemWait()
	wait := time.Since(start)
	c.stats = c.renderStats
	c.submit.waitRender = wait

	c.frameNoRenderWait()
	if c.opts.singleThreaded {
		c.renderFrame()
		c.stats = c.renderStats
	}
	return c.frames
}

// Stats returns the statistics of the most recently completed frame.
func (c *Context) Stats() Stats { return c.stats }

// RenderFrame runs one iteration of the render loop: it waits for a frame,
// executes its commands and draws it. It returns true once the renderer has
// been shut down. Only use it with WithExternalRenderLoop.
func (c *Context) RenderFrame() bool {
	return c.renderFrame()
}

// Shutdown destroys the transient buffers, shuts the renderer down and
// stops the render goroutine. Frames already handed off are completed
// first. Shutdown is idempotent.
func (c *Context) Shutdown() {
	if c.closed {
		return
	}
	c.cmd(CmdRendererShutdownBegin)
	c.Frame()
	c.destroyTransientBuffers(c.submit)
	c.Frame()
	c.destroyTransientBuffers(c.submit)
	for hash := range c.transientDecls {
		c.releaseDecl(hash)
	}
	clear(c.transientDecls)
	c.destroyBackingBuffers()
	c.Frame()
	c.cmd(CmdRendererShutdownEnd)
	c.Frame()

	c.renderSemWait()
	c.closed = true
	<-c.done
	untrackRenderer(c.r)
	Logger().Info("gfx: context shut down", "renderer", c.r.Name(), "frames", c.frames)
}

// Close implements io.Closer by calling Shutdown. Closing a context that
// is already shut down returns ErrShutdown.
func (c *Context) Close() error {
	if c.closed {
		return ErrShutdown
	}
	c.Shutdown()
	return nil
}

// cmd starts a command record in the submit frame and returns the buffer
// to write its payload to.
func (c *Context) cmd(op Command) *cmdbuf.Buffer {
	b := c.submit.cmdPre
	if op.IsPost() {
		b = c.submit.cmdPost
	}
	b.WriteUint8(uint8(op))
	return b
}

// stringFits reports whether a record for op with fixed bytes of fields
// ahead of the string s fits the current frame. Otherwise it logs a warning
// and the caller records nothing.
func (c *Context) stringFits(op Command, fixed int, s string) bool {
	if len(s) > cmdbuf.MaxString {
		Logger().Warn("gfx: "+op.String()+" ignored", "len", len(s), "err", cmdbuf.ErrStringTooLong)
		return false
	}
	b := c.submit.cmdPre
	if op.IsPost() {
		b = c.submit.cmdPost
	}
	// Opcode, fields with worst-case padding, length prefix, string and the
	// end marker Frame appends.
	need := 1 + fixed + 8 + 2 + len(s) + 1
	if need > b.Remaining() {
		Logger().Warn("gfx: "+op.String()+" ignored", "len", len(s), "remaining", b.Remaining(), "err", ErrCommandBufferFull)
		return false
	}
	return true
}

// frameNoRenderWait swaps the frames and wakes the render side.
func (c *Context) frameNoRenderWait() {
	c.swap()
	c.gameSemPost()
}

func (c *Context) swap() {
	c.freeDynamicBuffers()

	f := c.submit
	f.number = c.frames
	f.resolution = c.resolution
	f.debug = c.debug
	copy(f.views, c.views)
	f.finish()

	c.submit, c.render = c.render, c.submit
	c.frames++

	c.submit.start()
	c.seq.reset()
	c.freeAllHandles(c.submit)
	c.submit.resetFreeHandles()
}

// freeAllHandles returns the slots of the resources destroyed while f was
// recorded. f has been rendered, so nothing refers to them any more.
func (c *Context) freeAllHandles(f *Frame) {
	for k, list := range f.free {
		for _, v := range list {
			c.tables.freeHandle(resourceKind(k), v)
		}
	}
}

func (c *Context) renderLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)
	for !c.renderFrame() {
	}
}

// renderFrame is the render side of one frame.
func (c *Context) renderFrame() bool {
	start := time.Now()
	c.gameSemWait()
	waitSubmit := time.Since(start)

	f := c.render
	begin := time.Now()
	c.execCommands(f.cmdPre)
	if c.initialized {
		f.res = c.res
		if err := c.r.Submit(f); err != nil {
			Logger().Error("gfx: submit failed", "renderer", c.r.Name(), "err", err)
		}
	}
	c.execCommands(f.cmdPost)
	if c.initialized {
		c.r.Flip()
	}

	st := f.stats
	st.Frame = f.number
	st.NumDropped = f.numDropped
	st.WaitSubmit = waitSubmit
	st.WaitRender = f.waitRender
	st.CPUTimeRender = time.Since(begin)
	st.TransientIndexBytes = f.tib.offset
	st.TransientVertexBytes = f.tvb.offset
	c.renderStats = st
	if f.debug&DebugStats != 0 {
		Logger().Debug("gfx: frame", "stats", st)
	}

	exit := c.exit
	c.renderSemPost()
	return exit
}

func (c *Context) gameSemPost()   { c.gameSem.post() }
func (c *Context) gameSemWait()   { c.gameSem.wait() }
func (c *Context) renderSemPost() { c.renderSem.post() }
func (c *Context) renderSemWait() { c.renderSem.wait() }

// frameSem is a counting semaphore that starts with no units available.
// At most one unit is ever outstanding.
type frameSem struct {
	w *semaphore.Weighted
}

func newFrameSem() frameSem {
	w := semaphore.NewWeighted(1)
	w.TryAcquire(1)
	return frameSem{w: w}
}

func (s frameSem) post() { s.w.Release(1) }

func (s frameSem) wait() { _ = s.w.Acquire(context.Background(), 1) }

// reportFatal forwards an unrecoverable render-side condition to the fatal
// handler.
func (c *Context) reportFatal(code FatalCode, err error) {
	c.opts.fatal(code, err.Error())
}

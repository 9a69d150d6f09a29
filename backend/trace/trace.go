// Package trace provides a renderer that records every call it receives as
// a line of text, keeps a software back buffer that views clear into, and
// checks the resource lifecycle: creating a live handle or destroying a
// dead one is reported.
//
// Traces are deterministic, so two runs of the same recording produce the
// same calls. Tests compare them directly:
//
//	r := trace.New()
//	ctx, err := gfx.New(r, gfx.WithSingleThreaded(true))
//	...
//	for _, call := range r.Filter("Draw") {
//		fmt.Println(call)
//	}
//
// The renderer registers itself as "trace" on import.
package trace

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/bmp"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend"
)

// Errors reported by the trace renderer.
var (
	// ErrAlreadyLive is returned when a create call names a live handle.
	ErrAlreadyLive = errors.New("trace: handle already live")
)

func init() {
	backend.Register(backend.NameTrace, func() (gfx.Renderer, error) {
		return New(), nil
	})
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithInitError makes Init fail with err.
func WithInitError(err error) Option {
	return func(r *Renderer) {
		r.initErr = err
	}
}

// WithUniforms records SetUniform calls, which are left out by default
// because every draw commits its program's uniforms.
func WithUniforms(enabled bool) Option {
	return func(r *Renderer) {
		r.uniforms = enabled
	}
}

// Renderer implements gfx.Renderer by recording calls.
//
// Renderer is safe for concurrent use: the render goroutine records while
// tests read the trace.
type Renderer struct {
	mu       sync.Mutex
	calls    []string
	live     map[string]struct{}
	back     *image.RGBA
	names    map[uint8]string
	frames   int
	initErr  error
	uniforms bool
	log      *slog.Logger
}

var _ gfx.Renderer = (*Renderer)(nil)

// New creates a trace renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		live:  make(map[string]struct{}),
		names: make(map[uint8]string),
		log:   gfx.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLogger replaces the logger used for lifecycle violations.
func (r *Renderer) SetLogger(l *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = l
}

// Name returns "trace".
func (r *Renderer) Name() string { return backend.NameTrace }

// Calls returns a copy of the recorded trace.
func (r *Renderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Filter returns the recorded calls starting with one of prefixes.
func (r *Renderer) Filter(prefixes ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		for _, p := range prefixes {
			if strings.HasPrefix(c, p) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Reset forgets the recorded calls. Live resources are kept.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = r.calls[:0]
}

// Live returns the number of resources created and not yet destroyed.
func (r *Renderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Frames returns the number of flips.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// ViewName returns the last name given to view id.
func (r *Renderer) ViewName(id uint8) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.names[id]
}

// BackBuffer returns a copy of the software back buffer.
func (r *Renderer) BackBuffer() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.back == nil {
		return nil
	}
	img := image.NewRGBA(r.back.Rect)
	copy(img.Pix, r.back.Pix)
	return img
}

func (r *Renderer) record(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// create marks key live and records the call. It fails when key is
// already live.
func (r *Renderer) create(key, format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if _, ok := r.live[key]; ok {
		return fmt.Errorf("%s: %w", key, ErrAlreadyLive)
	}
	r.live[key] = struct{}{}
	return nil
}

func (r *Renderer) destroy(key, format string, args ...any) {
	call := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if _, ok := r.live[key]; !ok {
		r.log.Warn("trace: destroy of a resource that is not live", "resource", key)
		return
	}
	delete(r.live, key)
}

// Init allocates the back buffer.
func (r *Renderer) Init(res gfx.Resolution) error {
	r.record("Init %dx%d", res.Width, res.Height)
	if r.initErr != nil {
		return r.initErr
	}
	r.mu.Lock()
	r.back = image.NewRGBA(image.Rect(0, 0, int(res.Width), int(res.Height)))
	r.mu.Unlock()
	return nil
}

// Shutdown records the call and reports resources still live.
func (r *Renderer) Shutdown() {
	r.record("Shutdown")
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.live) > 0 {
		leaked := make([]string, 0, len(r.live))
		for k := range r.live {
			leaked = append(leaked, k)
		}
		slices.Sort(leaked)
		r.log.Warn("trace: resources live at shutdown", "count", len(leaked), "resources", leaked)
	}
}

func (r *Renderer) CreateVertexDecl(h gfx.VertexDeclHandle, decl *gfx.VertexDecl) error {
	return r.create(h.String(), "CreateVertexDecl %s stride=%d", h, decl.Stride())
}

func (r *Renderer) DestroyVertexDecl(h gfx.VertexDeclHandle) {
	r.destroy(h.String(), "DestroyVertexDecl %s", h)
}

func (r *Renderer) CreateIndexBuffer(h gfx.IndexBufferHandle, data []byte) error {
	return r.create(h.String(), "CreateIndexBuffer %s size=%d", h, len(data))
}

func (r *Renderer) DestroyIndexBuffer(h gfx.IndexBufferHandle) {
	r.destroy(h.String(), "DestroyIndexBuffer %s", h)
}

func (r *Renderer) CreateVertexBuffer(h gfx.VertexBufferHandle, data []byte, decl gfx.VertexDeclHandle) error {
	return r.create(h.String(), "CreateVertexBuffer %s size=%d decl=%s", h, len(data), decl)
}

func (r *Renderer) DestroyVertexBuffer(h gfx.VertexBufferHandle) {
	r.destroy(h.String(), "DestroyVertexBuffer %s", h)
}

func (r *Renderer) CreateDynamicIndexBuffer(h gfx.IndexBufferHandle, size uint32) error {
	return r.create(h.String(), "CreateDynamicIndexBuffer %s size=%d", h, size)
}

func (r *Renderer) UpdateDynamicIndexBuffer(h gfx.IndexBufferHandle, offset uint32, data []byte) {
	r.record("UpdateDynamicIndexBuffer %s offset=%d size=%d", h, offset, len(data))
}

func (r *Renderer) DestroyDynamicIndexBuffer(h gfx.IndexBufferHandle) {
	r.destroy(h.String(), "DestroyDynamicIndexBuffer %s", h)
}

func (r *Renderer) CreateDynamicVertexBuffer(h gfx.VertexBufferHandle, size uint32) error {
	return r.create(h.String(), "CreateDynamicVertexBuffer %s size=%d", h, size)
}

func (r *Renderer) UpdateDynamicVertexBuffer(h gfx.VertexBufferHandle, offset uint32, data []byte) {
	r.record("UpdateDynamicVertexBuffer %s offset=%d size=%d", h, offset, len(data))
}

func (r *Renderer) DestroyDynamicVertexBuffer(h gfx.VertexBufferHandle) {
	r.destroy(h.String(), "DestroyDynamicVertexBuffer %s", h)
}

func (r *Renderer) CreateShader(h gfx.ShaderHandle, chunk *gfx.ShaderChunk) error {
	return r.create(h.String(), "CreateShader %s magic=%s uniforms=%d", h, chunk.Magic, len(chunk.Uniforms))
}

func (r *Renderer) DestroyShader(h gfx.ShaderHandle) {
	r.destroy(h.String(), "DestroyShader %s", h)
}

func (r *Renderer) CreateProgram(h gfx.ProgramHandle, vsh, fsh gfx.ShaderHandle) error {
	return r.create(h.String(), "CreateProgram %s vsh=%s fsh=%s", h, vsh, fsh)
}

func (r *Renderer) DestroyProgram(h gfx.ProgramHandle) {
	r.destroy(h.String(), "DestroyProgram %s", h)
}

func (r *Renderer) CreateTexture(h gfx.TextureHandle, desc *gfx.TextureDesc) error {
	return r.create(h.String(), "CreateTexture %s %dx%d mips=%d format=%s",
		h, desc.Width, desc.Height, desc.NumMips, desc.Format)
}

func (r *Renderer) UpdateTexture(h gfx.TextureHandle, upd *gfx.TextureUpdate) {
	r.record("UpdateTexture %s mip=%d rect=%v size=%d", h, upd.Mip, upd.Rect, len(upd.Data))
}

func (r *Renderer) DestroyTexture(h gfx.TextureHandle) {
	r.destroy(h.String(), "DestroyTexture %s", h)
}

func (r *Renderer) CreateFrameBuffer(h gfx.FrameBufferHandle, textures []gfx.TextureHandle) error {
	return r.create(h.String(), "CreateFrameBuffer %s attachments=%d", h, len(textures))
}

func (r *Renderer) DestroyFrameBuffer(h gfx.FrameBufferHandle) {
	r.destroy(h.String(), "DestroyFrameBuffer %s", h)
}

// CreateUniform may be called again for a live handle when the uniform is
// widened.
func (r *Renderer) CreateUniform(h gfx.UniformHandle, typ gfx.UniformType, num uint16, name string) error {
	call := fmt.Sprintf("CreateUniform %s %s %s[%d]", h, name, typ, num)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	r.live[h.String()] = struct{}{}
	return nil
}

func (r *Renderer) DestroyUniform(h gfx.UniformHandle) {
	r.destroy(h.String(), "DestroyUniform %s", h)
}

func (r *Renderer) UpdateViewName(id uint8, name string) {
	r.record("UpdateViewName %d %q", id, name)
	r.mu.Lock()
	r.names[id] = name
	r.mu.Unlock()
}

// SaveScreenShot writes the back buffer to path as a BMP image.
func (r *Renderer) SaveScreenShot(path string) error {
	r.record("SaveScreenShot %s", filepath.Base(path))
	img := r.BackBuffer()
	if img == nil {
		return gfx.ErrNotInitialized
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("trace: screenshot: %w", err)
	}
	if err := bmp.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("trace: screenshot: %w", err)
	}
	return f.Close()
}

// Submit replays the frame into the trace.
func (r *Renderer) Submit(f *gfx.Frame) error {
	r.record("Submit frame=%d draws=%d", f.Number(), f.NumDraws())
	return gfx.SubmitFrame(f, &target{r: r})
}

// Flip records the call.
func (r *Renderer) Flip() {
	r.record("Flip")
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
}

// target records the state changes of SubmitFrame. Views rendering to the
// back buffer clear into it.
type target struct {
	r  *Renderer
	fb gfx.FrameBufferHandle
}

func (t *target) SetUniform(typ gfx.UniformType, loc, num uint16, data []byte) {
	if t.r.uniforms {
		t.r.record("SetUniform %s loc=%#04x num=%d", typ, loc, num)
	}
}

func (t *target) UpdateDynamicIndexBuffer(h gfx.IndexBufferHandle, offset uint32, data []byte) {
	t.r.UpdateDynamicIndexBuffer(h, offset, data)
}

func (t *target) UpdateDynamicVertexBuffer(h gfx.VertexBufferHandle, offset uint32, data []byte) {
	t.r.UpdateDynamicVertexBuffer(h, offset, data)
}

func (t *target) SetView(id uint8, fb gfx.FrameBufferHandle, viewport gfx.Rect) {
	t.fb = fb
	t.r.record("SetView %d fb=%s rect=%v", id, fb, viewport)
}

func (t *target) ClearView(id uint8, rect gfx.Rect, clear gfx.Clear) {
	t.r.record("ClearView %d flags=%d rgba=%#08x depth=%g stencil=%d",
		id, clear.Flags, clear.RGBA, clear.Depth, clear.Stencil)
	if clear.Flags&gfx.ClearColor == 0 || t.fb.IsValid() {
		return
	}
	c := color.RGBA{
		R: uint8(clear.RGBA >> 24),
		G: uint8(clear.RGBA >> 16),
		B: uint8(clear.RGBA >> 8),
		A: uint8(clear.RGBA),
	}
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if t.r.back == nil {
		return
	}
	area := image.Rect(int(rect.X), int(rect.Y), int(rect.X)+int(rect.Width), int(rect.Y)+int(rect.Height))
	draw.Draw(t.r.back, area.Intersect(t.r.back.Rect), image.NewUniform(c), image.Point{}, draw.Src)
}

func (t *target) SetScissor(rect gfx.Rect, enabled bool) {
	t.r.record("SetScissor %v enabled=%t", rect, enabled)
}

func (t *target) SetStencil(front, back gfx.Stencil) {
	t.r.record("SetStencil %#08x %#08x", uint32(front), uint32(back))
}

func (t *target) SetState(state gfx.State, rgba uint32) {
	t.r.record("SetState %#016x rgba=%#08x", uint64(state), rgba)
}

func (t *target) SetProgram(h gfx.ProgramHandle) {
	t.r.record("SetProgram %s", h)
}

func (t *target) SetTexture(stage uint8, tex gfx.TextureHandle, flags gfx.TextureFlags) {
	t.r.record("SetTexture %d %s flags=%#x", stage, tex, uint32(flags))
}

func (t *target) SetVertexBuffer(h gfx.VertexBufferHandle, decl gfx.VertexDeclHandle) {
	t.r.record("SetVertexBuffer %s decl=%s", h, decl)
}

func (t *target) SetInstanceDataBuffer(h gfx.VertexBufferHandle, offset uint32, stride uint16) {
	t.r.record("SetInstanceDataBuffer %s offset=%d stride=%d", h, offset, stride)
}

func (t *target) SetIndexBuffer(h gfx.IndexBufferHandle) {
	t.r.record("SetIndexBuffer %s", h)
}

func (t *target) Draw(dc gfx.DrawCall) {
	if dc.Indexed {
		t.r.record("Draw %s indexed start=%d indices=%d vertex=%d instances=%d",
			dc.Primitive, dc.StartIndex, dc.NumIndices, dc.StartVertex, dc.NumInstances)
		return
	}
	t.r.record("Draw %s start=%d vertices=%d instances=%d",
		dc.Primitive, dc.StartVertex, dc.NumVertices, dc.NumInstances)
}

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend"
)

func init() {
	backend.Register(backend.NameWGPU, func() (gfx.Renderer, error) {
		if _, ok := hal.GetBackend(gputypes.BackendVulkan); !ok {
			return nil, backend.ErrBackendNotAvailable
		}
		return New(), nil
	})
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDeviceProvider renders with the device of a host application such as
// a gogpu window. The provider must expose its HAL device and queue. Its
// surface format, when set, becomes the back buffer format.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(r *Renderer) { r.provider = p }
}

// WithDevice renders with an already opened HAL device. The renderer does
// not destroy it.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(r *Renderer) {
		r.device = device
		r.queue = queue
	}
}

// WithNoopDevice renders with the HAL noop device. Every call is validated
// and recorded by the HAL but nothing reaches a GPU.
func WithNoopDevice() Option {
	return func(r *Renderer) { r.useNoop = true }
}

// WithNoopFallback makes Init open the noop device when no GPU is
// available instead of failing.
func WithNoopFallback() Option {
	return func(r *Renderer) { r.fallback = true }
}

// WithColorFormat sets the back buffer format. It defaults to the provider's
// surface format or BGRA8Unorm.
func WithColorFormat(f gputypes.TextureFormat) Option {
	return func(r *Renderer) { r.colorFormat = f }
}

// Renderer implements gfx.Renderer on a gogpu/wgpu HAL device.
//
// The back buffer is an offscreen color texture with a depth-stencil
// attachment. Every frame is recorded into one command buffer, one render
// pass per view, and waited for before Submit returns.
type Renderer struct {
	provider gpucontext.DeviceProvider
	useNoop  bool
	fallback bool

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	info     GPUInfo

	colorFormat gputypes.TextureFormat
	res         gfx.Resolution

	decls         map[uint16]*gfx.VertexDecl
	indexBuffers  map[uint16]*buffer
	vertexBuffers map[uint16]*buffer
	shaders       map[uint16]*shader
	programs      map[uint16]*program
	textures      map[uint16]*texture
	frameBuffers  map[uint16]*frameBuffer
	uniforms      map[uint16]uniformInfo
	viewNames     [gfx.MaxViews]string

	back      *texture
	backDepth *texture
	white     *texture
	samplers  map[gfx.TextureFlags]hal.Sampler

	uniformLayout  hal.BindGroupLayout
	textureLayout  hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipelines      *pipelineCache
	textureGroups  map[textureGroupKey]hal.BindGroup

	uniformBuf   hal.Buffer
	uniformSize  uint64
	uniformGroup hal.BindGroup

	rec    frameRecorder
	frames uint64
	ready  bool
}

var _ gfx.Renderer = (*Renderer)(nil)

// New creates a renderer. The device is opened by Init.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		decls:         make(map[uint16]*gfx.VertexDecl),
		indexBuffers:  make(map[uint16]*buffer),
		vertexBuffers: make(map[uint16]*buffer),
		shaders:       make(map[uint16]*shader),
		programs:      make(map[uint16]*program),
		textures:      make(map[uint16]*texture),
		frameBuffers:  make(map[uint16]*frameBuffer),
		uniforms:      make(map[uint16]uniformInfo),
		samplers:      make(map[gfx.TextureFlags]hal.Sampler),
		textureGroups: make(map[textureGroupKey]hal.BindGroup),
		pipelines:     newPipelineCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns "wgpu".
func (r *Renderer) Name() string { return backend.NameWGPU }

// GPU returns the adapter the renderer opened. It is zero for devices
// supplied by the application.
func (r *Renderer) GPU() GPUInfo { return r.info }

// Frames returns the number of frames flipped.
func (r *Renderer) Frames() uint64 { return r.frames }

// PipelineStats returns the pipeline cache hits and misses.
func (r *Renderer) PipelineStats() (hits, misses uint64) { return r.pipelines.Stats() }

// Init opens the device and creates the back buffer.
func (r *Renderer) Init(res gfx.Resolution) error {
	if err := r.openDevice(); err != nil {
		return err
	}
	r.res = res
	if r.colorFormat == gputypes.TextureFormatUndefined {
		r.colorFormat = gputypes.TextureFormatBGRA8Unorm
	}
	if err := r.createLayouts(); err != nil {
		r.Shutdown()
		return err
	}
	if err := r.createBackBuffer(); err != nil {
		r.Shutdown()
		return err
	}
	white, err := r.createTexture("gfx_white", &gfx.TextureDesc{
		Width: 1, Height: 1, NumMips: 1, Format: gfx.TextureFormatRGBA8,
		Data: []byte{0xff, 0xff, 0xff, 0xff},
	})
	if err != nil {
		r.Shutdown()
		return err
	}
	r.white = white
	r.ready = true
	gfx.Logger().Info("wgpu: initialized", "width", res.Width, "height", res.Height,
		"format", r.colorFormat.String(), "external", r.external)
	return nil
}

func (r *Renderer) openDevice() error {
	switch {
	case r.device != nil:
		if r.queue == nil {
			return fmt.Errorf("wgpu: device without queue")
		}
		r.external = true
	case r.provider != nil:
		device, queue, err := halDevice(r.provider)
		if err != nil {
			return err
		}
		r.device, r.queue, r.external = device, queue, true
		if f := r.provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined && r.colorFormat == gputypes.TextureFormatUndefined {
			r.colorFormat = f
		}
	default:
		var (
			instance hal.Instance
			dev      hal.OpenDevice
			err      error
		)
		if r.useNoop {
			instance, dev, r.info, err = openBackend(noop.API{})
		} else {
			instance, dev, r.info, err = openDefault(r.fallback)
		}
		if err != nil {
			return err
		}
		r.instance, r.device, r.queue = instance, dev.Device, dev.Queue
		logGPUInfo(&r.info)
	}
	return nil
}

// createLayouts creates the bind group layouts shared by every pipeline:
// group 0 holds the vertex and fragment uniform blocks, group 1 a texture
// and a sampler per stage.
func (r *Renderer) createLayouts() error {
	var err error
	r.uniformLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "gfx_uniforms",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, HasDynamicOffset: true,
			}},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, HasDynamicOffset: true,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform layout: %w", err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, 0, 2*gfx.MaxTextureSamplers)
	for stage := uint32(0); stage < gfx.MaxTextureSamplers; stage++ {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{Binding: 2 * stage, Visibility: gputypes.ShaderStageFragment, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
			gputypes.BindGroupLayoutEntry{Binding: 2*stage + 1, Visibility: gputypes.ShaderStageFragment, Sampler: &gputypes.SamplerBindingLayout{
				Type: gputypes.SamplerBindingTypeFiltering,
			}},
		)
	}
	r.textureLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "gfx_textures",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create texture layout: %w", err)
	}

	r.pipelineLayout, err = r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gfx_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.uniformLayout, r.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	return nil
}

// Shutdown releases every native object. Devices supplied by the
// application are left open.
func (r *Renderer) Shutdown() {
	if r.device == nil {
		return
	}
	r.pipelines.clear(r.device)
	r.clearTextureGroups()
	if r.uniformGroup != nil {
		r.device.DestroyBindGroup(r.uniformGroup)
		r.uniformGroup = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
		r.uniformSize = 0
	}
	for k, b := range r.indexBuffers {
		r.device.DestroyBuffer(b.buf)
		delete(r.indexBuffers, k)
	}
	for k, b := range r.vertexBuffers {
		r.device.DestroyBuffer(b.buf)
		delete(r.vertexBuffers, k)
	}
	for k, fb := range r.frameBuffers {
		r.destroyFrameBuffer(fb)
		delete(r.frameBuffers, k)
	}
	for k, t := range r.textures {
		r.destroyTexture(t)
		delete(r.textures, k)
	}
	for k := range r.programs {
		delete(r.programs, k)
	}
	for k, s := range r.shaders {
		r.device.DestroyShaderModule(s.module)
		delete(r.shaders, k)
	}
	for k, s := range r.samplers {
		r.device.DestroySampler(s)
		delete(r.samplers, k)
	}
	clear(r.decls)
	clear(r.uniforms)
	for _, t := range []*texture{r.white, r.back, r.backDepth} {
		if t != nil {
			r.destroyTexture(t)
		}
	}
	r.white, r.back, r.backDepth = nil, nil, nil
	if r.pipelineLayout != nil {
		r.device.DestroyPipelineLayout(r.pipelineLayout)
		r.pipelineLayout = nil
	}
	for _, l := range []hal.BindGroupLayout{r.textureLayout, r.uniformLayout} {
		if l != nil {
			r.device.DestroyBindGroupLayout(l)
		}
	}
	r.textureLayout, r.uniformLayout = nil, nil

	if !r.external {
		r.device.Destroy()
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.device, r.queue, r.instance = nil, nil, nil
	r.ready = false
}

// UpdateViewName stores the view name used to label its render pass.
func (r *Renderer) UpdateViewName(view uint8, name string) {
	if int(view) < len(r.viewNames) {
		r.viewNames[view] = name
	}
}

// Flip counts the frame. The back buffer is offscreen; hosts present it
// by reading it back or sharing the device.
func (r *Renderer) Flip() {
	r.frames++
}
